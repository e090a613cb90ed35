package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/article39/artist-platform-backend/pkg/logger"
)

const defaultTaskRetention = 30 * 24 * time.Hour

type TaskPruneJobParams struct {
	Logger     *logger.Logger
	Repository taskPruneRepo
	Retention  time.Duration
}

type taskPruneRepo interface {
	DeleteSucceededBefore(ctx context.Context, before time.Time) (int64, error)
}

// NewTaskPruneJob deletes succeeded tasks older than the retention window.
// Failed tasks are kept for the admin retry view.
func NewTaskPruneJob(params TaskPruneJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Repository == nil {
		return nil, fmt.Errorf("task repository required")
	}
	retention := params.Retention
	if retention <= 0 {
		retention = defaultTaskRetention
	}
	return &taskPruneJob{
		logg:      params.Logger,
		repo:      params.Repository,
		retention: retention,
		now:       time.Now,
	}, nil
}

type taskPruneJob struct {
	logg      *logger.Logger
	repo      taskPruneRepo
	retention time.Duration
	now       func() time.Time
}

func (j *taskPruneJob) Name() string { return "task-prune" }

func (j *taskPruneJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().Add(-j.retention)
	deleted, err := j.repo.DeleteSucceededBefore(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("task prune: %w", err)
	}
	logCtx := j.logg.WithFields(ctx, map[string]any{
		"cutoff":       cutoff,
		"rows_deleted": deleted,
	})
	j.logg.Info(logCtx, "task prune complete")
	return nil
}
