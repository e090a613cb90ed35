package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/article39/artist-platform-backend/api/controllers"
	"github.com/article39/artist-platform-backend/api/middleware"
	"github.com/article39/artist-platform-backend/api/routes"
	"github.com/article39/artist-platform-backend/internal/accounts"
	"github.com/article39/artist-platform-backend/internal/applications"
	"github.com/article39/artist-platform-backend/internal/auth"
	"github.com/article39/artist-platform-backend/internal/content"
	"github.com/article39/artist-platform-backend/internal/dashboard"
	"github.com/article39/artist-platform-backend/internal/gigs"
	"github.com/article39/artist-platform-backend/internal/payments"
	"github.com/article39/artist-platform-backend/internal/songs"
	"github.com/article39/artist-platform-backend/internal/submissions"
	"github.com/article39/artist-platform-backend/internal/tasks"
	"github.com/article39/artist-platform-backend/internal/uploads"
	"github.com/article39/artist-platform-backend/internal/verification"
	"github.com/article39/artist-platform-backend/pkg/auth/session"
	"github.com/article39/artist-platform-backend/pkg/config"
	"github.com/article39/artist-platform-backend/pkg/db"
	"github.com/article39/artist-platform-backend/pkg/instance"
	"github.com/article39/artist-platform-backend/pkg/logger"
	"github.com/article39/artist-platform-backend/pkg/migrate"
	"github.com/article39/artist-platform-backend/pkg/outbox"
	"github.com/article39/artist-platform-backend/pkg/redis"
	"github.com/article39/artist-platform-backend/pkg/security"
	"github.com/article39/artist-platform-backend/pkg/transfer"
	"github.com/joho/godotenv"
)

const shutdownTimeout = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
		Format:      cfg.App.LogFormat,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		logg.Error(context.Background(), "failed to create session manager", err)
		os.Exit(1)
	}

	services, principals, err := buildServices(cfg, logg, dbClient, redisClient, sessionManager)
	if err != nil {
		logg.Error(context.Background(), "failed to wire services", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": instance.ID("local"),
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.Params{
			Config:      cfg,
			Logger:      logg,
			Sessions:    sessionManager,
			Principals:  principals,
			RateLimiter: redisClient,
			Health: map[string]controllers.Pinger{
				"db":    dbClient,
				"redis": redisClient,
			},
			Services: services,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		<-sigCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "api server shutdown failed", err)
		}
	}()

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
	logg.Info(ctx, "api server shut down")
}

func buildServices(
	cfg *config.Config,
	logg *logger.Logger,
	dbClient *db.Client,
	redisClient *redis.Client,
	sessionManager *session.Manager,
) (routes.Services, middleware.PrincipalLoader, error) {
	conn := dbClient.DB()

	accountsRepo := accounts.NewRepository(conn)
	profilesRepo := accounts.NewProfileRepository(conn)
	submissionsRepo := submissions.NewRepository(conn)
	songsRepo := songs.NewRepository(conn)
	gigsRepo := gigs.NewRepository(conn)
	appsRepo := applications.NewRepository(conn)
	paymentsRepo := payments.NewRepository(conn)
	outboxRepo := outbox.NewRepository(conn)
	taskQueue := outbox.NewService(outboxRepo, logg)
	hasher := security.NewHasher(cfg.Password)

	var out routes.Services
	var err error

	if out.Auth, err = auth.NewService(auth.ServiceParams{
		Accounts:       accountsRepo,
		Profiles:       profilesRepo,
		SessionManager: sessionManager,
		Hasher:         hasher,
		JWTConfig:      cfg.JWT,
		Logger:         logg,
	}); err != nil {
		return out, nil, err
	}
	if out.Submissions, err = submissions.NewService(submissionsRepo, dbClient); err != nil {
		return out, nil, err
	}
	if out.Verification, err = verification.NewService(verification.ServiceParams{
		Submissions: out.Submissions,
		Profiles:    profilesRepo,
		Accounts:    accountsRepo,
		Hasher:      hasher,
		Tasks:       taskQueue,
		TxRunner:    dbClient,
	}); err != nil {
		return out, nil, err
	}
	if out.Songs, err = songs.NewService(songsRepo, taskQueue, dbClient, logg); err != nil {
		return out, nil, err
	}
	if out.Gigs, err = gigs.NewService(gigsRepo, appsRepo, dbClient); err != nil {
		return out, nil, err
	}
	if out.Applications, err = applications.NewService(appsRepo, gigsRepo, songsRepo, logg); err != nil {
		return out, nil, err
	}
	if out.Payments, err = payments.NewService(paymentsRepo, gigsRepo, appsRepo); err != nil {
		return out, nil, err
	}
	if out.Dashboard, err = dashboard.NewService(dashboard.ServiceParams{
		Songs:        songsRepo,
		Applications: appsRepo,
		Payments:     paymentsRepo,
		Debounce:     redisClient,
		Tasks:        taskQueue,
		TxRunner:     dbClient,
		Freshness:    cfg.YouTube.StatsFreshness,
		Logger:       logg,
	}); err != nil {
		return out, nil, err
	}

	transferClient, err := transfer.NewClient(cfg.Transfer)
	if err != nil {
		return out, nil, err
	}
	if out.Uploads, err = uploads.NewService(transferClient, cfg.Transfer.MaxUploadBytes(), logg); err != nil {
		return out, nil, err
	}
	if out.Tasks, err = tasks.NewAdminService(outboxRepo); err != nil {
		return out, nil, err
	}
	if out.Content, err = content.NewCatalog(conn); err != nil {
		return out, nil, err
	}

	return out, middleware.NewAccountPrincipalLoader(accountsRepo, profilesRepo), nil
}
