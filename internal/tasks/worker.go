package tasks

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/article39/artist-platform-backend/pkg/config"
	"github.com/article39/artist-platform-backend/pkg/db/models"
	"github.com/article39/artist-platform-backend/pkg/logger"
	"github.com/article39/artist-platform-backend/pkg/metrics"
	"github.com/article39/artist-platform-backend/pkg/outbox"
)

const (
	defaultBatchSize    = 10
	defaultPollInterval = time.Second
	defaultMaxAttempts  = 5
	defaultBaseBackoff  = 10 * time.Second
	defaultMaxBackoff   = 30 * time.Minute
	defaultTaskTimeout  = 30 * time.Minute
	maxIdleBackoff      = 10 * time.Second
	jitterWindow        = 250 * time.Millisecond
)

type queueRepository interface {
	Claim(ctx context.Context, limit int, now, staleBefore time.Time) ([]models.Task, error)
	MarkSucceeded(ctx context.Context, id uuid.UUID, now time.Time) error
	MarkRetry(ctx context.Context, id uuid.UUID, cause error, availableAt time.Time) error
	MarkFailed(ctx context.Context, id uuid.UUID, cause error, now time.Time) error
}

type resolver interface {
	Resolve(task models.Task) (*outbox.Resolved, error)
}

type WorkerParams struct {
	Config   config.WorkerConfig
	Logger   *logger.Logger
	Repo     queueRepository
	Registry resolver
	Metrics  *metrics.TaskMetrics
}

// Worker drains the task queue.
type Worker struct {
	logg         *logger.Logger
	repo         queueRepository
	registry     resolver
	metrics      *metrics.TaskMetrics
	batchSize    int
	pollInterval time.Duration
	maxAttempts  int
	baseBackoff  time.Duration
	maxBackoff   time.Duration
	taskTimeout  time.Duration
	now          func() time.Time
	rand         *rand.Rand
}

func NewWorker(params WorkerParams) (*Worker, error) {
	if params.Logger == nil {
		return nil, errors.New("logger is required")
	}
	if params.Repo == nil {
		return nil, errors.New("task repository is required")
	}
	if params.Registry == nil {
		return nil, errors.New("task registry is required")
	}
	cfg := params.Config
	w := &Worker{
		logg:         params.Logger,
		repo:         params.Repo,
		registry:     params.Registry,
		metrics:      params.Metrics,
		batchSize:    orInt(cfg.BatchSize, defaultBatchSize),
		pollInterval: orDuration(cfg.PollInterval, defaultPollInterval),
		maxAttempts:  orInt(cfg.MaxAttempts, defaultMaxAttempts),
		baseBackoff:  orDuration(cfg.BaseBackoff, defaultBaseBackoff),
		maxBackoff:   orDuration(cfg.MaxBackoff, defaultMaxBackoff),
		taskTimeout:  orDuration(cfg.TaskTimeout, defaultTaskTimeout),
		now:          time.Now,
		rand:         rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	return w, nil
}

// Run polls until ctx is canceled. A full batch is followed immediately by
// another claim; an empty one sleeps for the poll interval.
func (w *Worker) Run(ctx context.Context) error {
	backoff := w.pollInterval
	for {
		select {
		case <-ctx.Done():
			w.logg.Info(ctx, "task worker context canceled")
			return ctx.Err()
		default:
		}

		processed, err := w.ProcessBatch(ctx)
		if err != nil {
			w.logg.Error(ctx, "task worker batch error", err)
			backoff = nextBackoff(backoff, w.pollInterval, maxIdleBackoff)
			if err := sleep(ctx, w.withJitter(backoff)); err != nil {
				return err
			}
			continue
		}
		backoff = w.pollInterval

		if processed == w.batchSize {
			continue
		}
		if err := sleep(ctx, w.withJitter(w.pollInterval)); err != nil {
			return err
		}
	}
}

// ProcessBatch claims and runs one batch and reports how many tasks it ran.
func (w *Worker) ProcessBatch(ctx context.Context) (int, error) {
	now := w.now().UTC()
	claimed, err := w.repo.Claim(ctx, w.batchSize, now, now.Add(-2*w.taskTimeout))
	if err != nil {
		return 0, fmt.Errorf("claim tasks: %w", err)
	}
	w.metrics.AddClaimed(len(claimed))
	var errs error
	for _, task := range claimed {
		// A failed status write must not strand the rest of the batch as RUNNING.
		errs = multierr.Append(errs, w.process(ctx, task))
	}
	return len(claimed), errs
}

func (w *Worker) process(ctx context.Context, task models.Task) error {
	taskCtx := w.logg.WithTask(ctx, task.ID.String(), string(task.TaskType))
	taskCtx = w.logg.WithFields(taskCtx, map[string]any{
		"aggregate_type": task.AggregateType,
		"aggregate_id":   task.AggregateID.String(),
		"attempt_count":  task.AttemptCount,
	})

	resolved, err := w.registry.Resolve(task)
	if err != nil {
		return w.fail(taskCtx, task, nil, err, 0)
	}

	start := w.now()
	err = w.invoke(taskCtx, resolved, task)
	elapsed := w.now().Sub(start)

	switch {
	case err == nil:
		if markErr := w.repo.MarkSucceeded(ctx, task.ID, w.now().UTC()); markErr != nil {
			return fmt.Errorf("mark succeeded %s: %w", task.ID, markErr)
		}
		w.metrics.Observe(string(task.TaskType), metrics.OutcomeSucceeded, elapsed)
		w.logg.Info(taskCtx, "task succeeded")
		return nil
	case outbox.IsPermanent(err) || task.AttemptCount >= w.maxAttempts:
		return w.fail(taskCtx, task, resolved, err, elapsed)
	default:
		delay := w.retryDelay(task.AttemptCount)
		if markErr := w.repo.MarkRetry(ctx, task.ID, err, w.now().UTC().Add(delay)); markErr != nil {
			return fmt.Errorf("mark retry %s: %w", task.ID, markErr)
		}
		w.metrics.Observe(string(task.TaskType), metrics.OutcomeRetried, elapsed)
		w.logg.Warn(w.logg.WithFields(taskCtx, map[string]any{"error": err.Error(), "retry_in": delay.String()}), "task failed, will retry")
		return nil
	}
}

func (w *Worker) invoke(ctx context.Context, resolved *outbox.Resolved, task models.Task) (err error) {
	ctx, cancel := context.WithTimeout(ctx, w.taskTimeout)
	defer cancel()
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("task handler panic: %v", rec)
		}
	}()
	return resolved.Descriptor.Handler.Handle(ctx, task, resolved.Payload)
}

func (w *Worker) fail(ctx context.Context, task models.Task, resolved *outbox.Resolved, cause error, elapsed time.Duration) error {
	if markErr := w.repo.MarkFailed(ctx, task.ID, cause, w.now().UTC()); markErr != nil {
		return fmt.Errorf("mark failed %s: %w", task.ID, markErr)
	}
	w.metrics.Observe(string(task.TaskType), metrics.OutcomeFailed, elapsed)
	w.logg.Error(ctx, "task will not be retried", cause)

	if resolved == nil {
		return nil
	}
	if hook, ok := resolved.Descriptor.Handler.(outbox.ExhaustedHandler); ok {
		if err := hook.OnExhausted(ctx, task, resolved.Payload, cause); err != nil {
			w.logg.Error(ctx, "task exhausted hook failed", err)
		}
	}
	return nil
}

// retryDelay doubles the base delay per attempt, capped, with up to 20% jitter.
func (w *Worker) retryDelay(attempt int) time.Duration {
	delay := w.baseBackoff
	for i := 1; i < attempt && delay < w.maxBackoff; i++ {
		delay *= 2
	}
	if delay > w.maxBackoff {
		delay = w.maxBackoff
	}
	if spread := int64(delay) / 5; spread > 0 {
		delay += time.Duration(w.rand.Int63n(spread))
	}
	return delay
}

func (w *Worker) withJitter(d time.Duration) time.Duration {
	if d <= 0 {
		return 0
	}
	return d + time.Duration(w.rand.Int63n(int64(jitterWindow)))
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func nextBackoff(current, base, max time.Duration) time.Duration {
	if current <= 0 {
		current = base
	}
	next := current * 2
	if next > max {
		return max
	}
	return next
}

func orInt(v, fallback int) int {
	if v <= 0 {
		return fallback
	}
	return v
}

func orDuration(v, fallback time.Duration) time.Duration {
	if v <= 0 {
		return fallback
	}
	return v
}
