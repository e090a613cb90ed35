package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/article39/artist-platform-backend/pkg/enums"
	"github.com/article39/artist-platform-backend/pkg/logger"
	"github.com/article39/artist-platform-backend/pkg/outbox"
	"github.com/article39/artist-platform-backend/pkg/outbox/payloads"
)

const (
	defaultStatsStaleAfter = 6 * time.Hour
	defaultStatsBatchSize  = 50
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type staleSongFinder interface {
	StaleUploaded(ctx context.Context, cutoff time.Time, limit int) ([]uuid.UUID, error)
}

type taskEnqueuer interface {
	EnqueueUnlessPending(ctx context.Context, tx *gorm.DB, job outbox.Job) (bool, error)
}

type StatsSweepJobParams struct {
	Logger     *logger.Logger
	DB         txRunner
	Songs      staleSongFinder
	Tasks      taskEnqueuer
	StaleAfter time.Duration
	BatchSize  int
}

// NewStatsSweepJob queues a stats refresh for published songs whose counters
// have gone stale.
func NewStatsSweepJob(params StatsSweepJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.DB == nil {
		return nil, fmt.Errorf("db runner required")
	}
	if params.Songs == nil {
		return nil, fmt.Errorf("song repository required")
	}
	if params.Tasks == nil {
		return nil, fmt.Errorf("task enqueuer required")
	}
	staleAfter := params.StaleAfter
	if staleAfter <= 0 {
		staleAfter = defaultStatsStaleAfter
	}
	batch := params.BatchSize
	if batch <= 0 {
		batch = defaultStatsBatchSize
	}
	return &statsSweepJob{
		logg:       params.Logger,
		db:         params.DB,
		songs:      params.Songs,
		tasks:      params.Tasks,
		staleAfter: staleAfter,
		batchSize:  batch,
		now:        time.Now,
	}, nil
}

type statsSweepJob struct {
	logg       *logger.Logger
	db         txRunner
	songs      staleSongFinder
	tasks      taskEnqueuer
	staleAfter time.Duration
	batchSize  int
	now        func() time.Time
}

func (j *statsSweepJob) Name() string { return "song-stats-sweep" }

// Run queues at most one sweep task at a time; the sweep is keyed on the nil
// song id so a slow worker does not pile up duplicates.
func (j *statsSweepJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().Add(-j.staleAfter)
	ids, err := j.songs.StaleUploaded(ctx, cutoff, j.batchSize)
	if err != nil {
		return fmt.Errorf("stats sweep: %w", err)
	}
	if len(ids) == 0 {
		return nil
	}

	var queued bool
	err = j.db.WithTx(ctx, func(tx *gorm.DB) error {
		var err error
		queued, err = j.tasks.EnqueueUnlessPending(ctx, tx, outbox.Job{
			Type:          enums.TaskSongStatsRefresh,
			AggregateType: enums.AggregateSong,
			AggregateID:   uuid.Nil,
			Data:          payloads.StatsRefresh{SongIDs: ids},
		})
		return err
	})
	if err != nil {
		return fmt.Errorf("stats sweep: %w", err)
	}
	logCtx := j.logg.WithFields(ctx, map[string]any{
		"cutoff": cutoff,
		"songs":  len(ids),
		"queued": queued,
	})
	j.logg.Info(logCtx, "stats sweep complete")
	return nil
}
