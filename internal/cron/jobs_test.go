package cron

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/article39/artist-platform-backend/internal/songs"
	"github.com/article39/artist-platform-backend/pkg/db"
	"github.com/article39/artist-platform-backend/pkg/db/dbtest"
	"github.com/article39/artist-platform-backend/pkg/db/models"
	"github.com/article39/artist-platform-backend/pkg/enums"
	"github.com/article39/artist-platform-backend/pkg/logger"
	"github.com/article39/artist-platform-backend/pkg/outbox"
	"github.com/article39/artist-platform-backend/pkg/outbox/payloads"
)

var fixedNow = time.Date(2025, time.March, 10, 12, 0, 0, 0, time.UTC)

func seedUploaded(t *testing.T, conn *gorm.DB, refreshed *time.Time) uuid.UUID {
	t.Helper()
	video := "vid-" + uuid.NewString()[:8]
	song := &models.Song{
		ID:               uuid.New(),
		ArtistID:         uuid.New(),
		Title:            "Track",
		AudioURL:         "https://cdn.example.com/a.mp3",
		ThumbnailURL:     "https://cdn.example.com/a.jpg",
		Duration:         120,
		Status:           enums.SongStatusApproved,
		UploadStatus:     enums.UploadStatusUploaded,
		YouTubeVideoID:   &video,
		StatsRefreshedAt: refreshed,
	}
	require.NoError(t, conn.Create(song).Error)
	return song.ID
}

func newStatsSweep(t *testing.T, conn *gorm.DB) *statsSweepJob {
	t.Helper()
	job, err := NewStatsSweepJob(StatsSweepJobParams{
		Logger:     logger.Nop(),
		DB:         db.NewFromGorm(conn),
		Songs:      songs.NewRepository(conn),
		Tasks:      outbox.NewService(outbox.NewRepository(conn), logger.Nop()),
		StaleAfter: time.Hour,
		BatchSize:  10,
	})
	require.NoError(t, err)
	sweep := job.(*statsSweepJob)
	sweep.now = func() time.Time { return fixedNow }
	return sweep
}

func TestStatsSweepQueuesStaleSongs(t *testing.T) {
	conn := dbtest.Open(t)
	old := fixedNow.Add(-3 * time.Hour)
	fresh := fixedNow.Add(-time.Minute)
	never := seedUploaded(t, conn, nil)
	stale := seedUploaded(t, conn, &old)
	seedUploaded(t, conn, &fresh)

	job := newStatsSweep(t, conn)
	assert.Equal(t, "song-stats-sweep", job.Name())
	require.NoError(t, job.Run(context.Background()))

	var tasks []models.Task
	require.NoError(t, conn.Find(&tasks).Error)
	require.Len(t, tasks, 1)
	assert.Equal(t, enums.TaskSongStatsRefresh, tasks[0].TaskType)

	resolved, err := statsRegistry(t).Resolve(tasks[0])
	require.NoError(t, err)
	payload := resolved.Payload.(*payloads.StatsRefresh)
	assert.ElementsMatch(t, []uuid.UUID{never, stale}, payload.SongIDs)

	// a second tick while the first task is pending adds nothing
	require.NoError(t, job.Run(context.Background()))
	var n int64
	require.NoError(t, conn.Model(&models.Task{}).Count(&n).Error)
	assert.EqualValues(t, 1, n)
}

func TestStatsSweepNothingStale(t *testing.T) {
	conn := dbtest.Open(t)
	fresh := fixedNow.Add(-time.Minute)
	seedUploaded(t, conn, &fresh)

	require.NoError(t, newStatsSweep(t, conn).Run(context.Background()))
	var n int64
	require.NoError(t, conn.Model(&models.Task{}).Count(&n).Error)
	assert.Zero(t, n)
}

func statsRegistry(t *testing.T) *outbox.Registry {
	t.Helper()
	reg := outbox.NewRegistry()
	require.NoError(t, reg.Register(outbox.Descriptor{
		TaskType:       enums.TaskSongStatsRefresh,
		PayloadFactory: func() any { return &payloads.StatsRefresh{} },
		Handler:        outbox.HandlerFunc(func(context.Context, models.Task, any) error { return nil }),
	}))
	return reg
}

type fakePruneRepo struct {
	cutoff time.Time
	err    error
}

func (f *fakePruneRepo) DeleteSucceededBefore(_ context.Context, before time.Time) (int64, error) {
	f.cutoff = before
	return 3, f.err
}

func TestTaskPruneUsesRetention(t *testing.T) {
	repo := &fakePruneRepo{}
	job, err := NewTaskPruneJob(TaskPruneJobParams{Logger: logger.Nop(), Repository: repo, Retention: 48 * time.Hour})
	require.NoError(t, err)
	prune := job.(*taskPruneJob)
	prune.now = func() time.Time { return fixedNow }

	require.NoError(t, prune.Run(context.Background()))
	assert.Equal(t, fixedNow.Add(-48*time.Hour), repo.cutoff)
	assert.Equal(t, "task-prune", prune.Name())
}

func TestTaskPrunePropagatesError(t *testing.T) {
	job, err := NewTaskPruneJob(TaskPruneJobParams{Logger: logger.Nop(), Repository: &fakePruneRepo{err: errors.New("boom")}})
	require.NoError(t, err)
	assert.Error(t, job.Run(context.Background()))
}

func TestJobConstructorsValidate(t *testing.T) {
	_, err := NewStatsSweepJob(StatsSweepJobParams{})
	assert.Error(t, err)
	_, err = NewTaskPruneJob(TaskPruneJobParams{})
	assert.Error(t, err)
}
