package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/article39/artist-platform-backend/internal/accounts"
	"github.com/article39/artist-platform-backend/internal/songs"
	"github.com/article39/artist-platform-backend/internal/tasks"
	"github.com/article39/artist-platform-backend/pkg/config"
	"github.com/article39/artist-platform-backend/pkg/db"
	"github.com/article39/artist-platform-backend/pkg/instance"
	"github.com/article39/artist-platform-backend/pkg/logger"
	"github.com/article39/artist-platform-backend/pkg/mailer"
	"github.com/article39/artist-platform-backend/pkg/metrics"
	"github.com/article39/artist-platform-backend/pkg/migrate"
	"github.com/article39/artist-platform-backend/pkg/outbox"
	"github.com/article39/artist-platform-backend/pkg/redis"
	"github.com/article39/artist-platform-backend/pkg/render"
	"github.com/article39/artist-platform-backend/pkg/security"
	"github.com/article39/artist-platform-backend/pkg/youtube"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "worker",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
		Format:      cfg.App.LogFormat,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":      cfg.App.Env,
		"instance": instance.ID("worker-0"),
	})

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		logg.Error(ctx, "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	sender, err := mailer.NewSMTPSender(cfg.Mail)
	if err != nil {
		logg.Error(ctx, "failed to create smtp sender", err)
		os.Exit(1)
	}
	mail, err := mailer.New(sender, cfg.Mail)
	if err != nil {
		logg.Error(ctx, "failed to create mailer", err)
		os.Exit(1)
	}

	ytClient, err := youtube.NewClient(ctx, cfg.YouTube, logg)
	if err != nil {
		logg.Error(ctx, "failed to create youtube client", err)
		os.Exit(1)
	}

	conn := dbClient.DB()
	outboxRepo := outbox.NewRepository(conn)
	registry := outbox.NewRegistry()
	if err := tasks.Register(registry, tasks.Deps{
		Mailer:           mail,
		Accounts:         accounts.NewRepository(conn),
		Passwords:        security.NewHasher(cfg.Password),
		Songs:            songs.NewRepository(conn),
		Contacts:         accounts.NewProfileRepository(conn),
		Tasks:            outbox.NewService(outboxRepo, logg),
		Tx:               dbClient,
		Renderer:         render.New(cfg.Render),
		Publisher:        ytClient,
		Stats:            ytClient,
		PublishToYouTube: cfg.FeatureFlags.PublishToYouTube,
		Logger:           logg,
	}); err != nil {
		logg.Error(ctx, "failed to register task handlers", err)
		os.Exit(1)
	}

	worker, err := tasks.NewWorker(tasks.WorkerParams{
		Config:   cfg.Worker,
		Logger:   logg,
		Repo:     outboxRepo,
		Registry: registry,
		Metrics:  metrics.NewTaskMetrics(prometheus.DefaultRegisterer),
	})
	if err != nil {
		logg.Error(ctx, "failed to create task worker", err)
		os.Exit(1)
	}

	service, err := NewService(ServiceParams{
		Logger:         logg,
		DB:             dbClient,
		Redis:          redisClient,
		Worker:         worker,
		Gatherer:       prometheus.DefaultGatherer,
		MetricsAddress: cfg.Worker.MetricsAddress,
	})
	if err != nil {
		logg.Error(ctx, "failed to create worker service", err)
		os.Exit(1)
	}

	logg.Info(ctx, "starting worker")
	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "worker stopped unexpectedly", err)
		os.Exit(1)
	}
	logg.Info(ctx, "worker shutting down gracefully")
}
