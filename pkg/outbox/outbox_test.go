package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/article39/artist-platform-backend/pkg/db/dbtest"
	"github.com/article39/artist-platform-backend/pkg/db/models"
	"github.com/article39/artist-platform-backend/pkg/enums"
	pkgerrors "github.com/article39/artist-platform-backend/pkg/errors"
	"github.com/article39/artist-platform-backend/pkg/logger"
	"github.com/article39/artist-platform-backend/pkg/outbox/payloads"
)

func newTestService(t *testing.T) (*Service, *Repository, *gorm.DB) {
	t.Helper()
	conn := dbtest.Open(t)
	repo := NewRepository(conn)
	return NewService(repo, logger.Nop()), repo, conn
}

func enqueue(t *testing.T, svc *Service, conn *gorm.DB, job Job) uuid.UUID {
	t.Helper()
	var id uuid.UUID
	require.NoError(t, conn.Transaction(func(tx *gorm.DB) error {
		var err error
		id, err = svc.Enqueue(context.Background(), tx, job)
		return err
	}))
	return id
}

func TestEnqueueWritesEnvelope(t *testing.T) {
	svc, repo, conn := newTestService(t)
	songID := uuid.New()

	id := enqueue(t, svc, conn, Job{
		Type:          enums.TaskSongPublish,
		AggregateType: enums.AggregateSong,
		AggregateID:   songID,
		Actor:         &ActorRef{AccountID: uuid.New(), Role: "ADMIN"},
		Data:          payloads.SongPublish{SongID: songID},
	})

	task, err := repo.FindByID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, enums.TaskStatusQueued, task.Status)
	assert.Equal(t, enums.TaskSongPublish, task.TaskType)

	var env PayloadEnvelope
	require.NoError(t, json.Unmarshal(task.Payload, &env))
	assert.Equal(t, CurrentVersion, env.Version)
	assert.Equal(t, id.String(), env.TaskID)
	require.NotNil(t, env.Actor)
	assert.Equal(t, "ADMIN", env.Actor.Role)

	var data payloads.SongPublish
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.Equal(t, songID, data.SongID)
}

func TestEnqueueRollsBackWithTransaction(t *testing.T) {
	svc, repo, conn := newTestService(t)

	boom := errors.New("boom")
	err := conn.Transaction(func(tx *gorm.DB) error {
		if _, err := svc.Enqueue(context.Background(), tx, Job{
			Type:          enums.TaskEmailSongStatus,
			AggregateType: enums.AggregateSong,
			AggregateID:   uuid.New(),
			Data:          payloads.SongStatusEmail{},
		}); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	_, total, err := repo.List(context.Background(), Filter{}, 0, 10)
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestEnqueueRequiresTransaction(t *testing.T) {
	svc, _, _ := newTestService(t)
	_, err := svc.Enqueue(context.Background(), nil, Job{Type: enums.TaskSongPublish})
	assert.Error(t, err)
}

func TestEnqueueUnlessPendingDedupes(t *testing.T) {
	svc, repo, conn := newTestService(t)
	artistID := uuid.New()
	job := Job{
		Type:          enums.TaskSongStatsRefresh,
		AggregateType: enums.AggregateArtist,
		AggregateID:   artistID,
		Data:          payloads.StatsRefresh{SongIDs: []uuid.UUID{uuid.New()}},
	}

	var first, second bool
	require.NoError(t, conn.Transaction(func(tx *gorm.DB) error {
		var err error
		first, err = svc.EnqueueUnlessPending(context.Background(), tx, job)
		return err
	}))
	require.NoError(t, conn.Transaction(func(tx *gorm.DB) error {
		var err error
		second, err = svc.EnqueueUnlessPending(context.Background(), tx, job)
		return err
	}))
	assert.True(t, first)
	assert.False(t, second)

	_, total, err := repo.List(context.Background(), Filter{TaskType: enums.TaskSongStatsRefresh}, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
}

func TestClaimLifecycle(t *testing.T) {
	svc, repo, conn := newTestService(t)
	ctx := context.Background()
	now := time.Now().UTC()

	ready := enqueue(t, svc, conn, Job{Type: enums.TaskSongPublish, AggregateType: enums.AggregateSong, AggregateID: uuid.New(), Data: payloads.SongPublish{}})
	later := enqueue(t, svc, conn, Job{Type: enums.TaskSongPublish, AggregateType: enums.AggregateSong, AggregateID: uuid.New(), Data: payloads.SongPublish{}, AvailableAt: now.Add(time.Hour)})

	claimed, err := repo.Claim(ctx, 10, now.Add(time.Second), now.Add(-time.Hour))
	require.NoError(t, err)
	require.Len(t, claimed, 1)
	assert.Equal(t, ready, claimed[0].ID)
	assert.Equal(t, 1, claimed[0].AttemptCount)
	assert.Equal(t, enums.TaskStatusRunning, claimed[0].Status)

	again, err := repo.Claim(ctx, 10, now.Add(time.Second), now.Add(-time.Hour))
	require.NoError(t, err)
	assert.Empty(t, again, "running tasks are not claimed twice")

	require.NoError(t, repo.MarkRetry(ctx, ready, errors.New("smtp down"), now.Add(2*time.Second)))
	task, err := repo.FindByID(ctx, ready)
	require.NoError(t, err)
	assert.Equal(t, enums.TaskStatusQueued, task.Status)
	require.NotNil(t, task.LastError)
	assert.Equal(t, "smtp down", *task.LastError)

	require.NoError(t, repo.MarkFailed(ctx, ready, errors.New("gave up"), now))
	ok, err := repo.Requeue(ctx, ready, now)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.Requeue(ctx, later, now)
	require.NoError(t, err)
	assert.False(t, ok, "only failed tasks can be requeued")

	task, err = repo.FindByID(ctx, ready)
	require.NoError(t, err)
	assert.Equal(t, enums.TaskStatusQueued, task.Status)
	assert.Zero(t, task.AttemptCount)
}

func TestClaimReclaimsStaleRunningTasks(t *testing.T) {
	svc, repo, conn := newTestService(t)
	ctx := context.Background()
	now := time.Now().UTC()

	id := enqueue(t, svc, conn, Job{Type: enums.TaskEmailCredentials, AggregateType: enums.AggregateArtist, AggregateID: uuid.New(), Data: payloads.CredentialsEmail{}})
	_, err := repo.Claim(ctx, 1, now.Add(time.Second), now.Add(-time.Hour))
	require.NoError(t, err)

	reclaimed, err := repo.Claim(ctx, 1, now.Add(2*time.Hour), now.Add(time.Hour))
	require.NoError(t, err)
	require.Len(t, reclaimed, 1)
	assert.Equal(t, id, reclaimed[0].ID)
	assert.Equal(t, 2, reclaimed[0].AttemptCount)
}

func TestDeleteSucceededBefore(t *testing.T) {
	svc, repo, conn := newTestService(t)
	ctx := context.Background()
	now := time.Now().UTC()

	old := enqueue(t, svc, conn, Job{Type: enums.TaskEmailSongStatus, AggregateType: enums.AggregateSong, AggregateID: uuid.New(), Data: payloads.SongStatusEmail{}})
	fresh := enqueue(t, svc, conn, Job{Type: enums.TaskEmailSongStatus, AggregateType: enums.AggregateSong, AggregateID: uuid.New(), Data: payloads.SongStatusEmail{}})
	require.NoError(t, repo.MarkSucceeded(ctx, old, now.Add(-48*time.Hour)))
	require.NoError(t, repo.MarkSucceeded(ctx, fresh, now))

	removed, err := repo.DeleteSucceededBefore(ctx, now.Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	_, err = repo.FindByID(ctx, old)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestRegistryResolve(t *testing.T) {
	reg := NewRegistry()
	handler := HandlerFunc(func(context.Context, models.Task, any) error { return nil })
	require.NoError(t, reg.Register(Descriptor{
		TaskType:       enums.TaskSongPublish,
		AggregateType:  enums.AggregateSong,
		PayloadFactory: func() any { return &payloads.SongPublish{} },
		Handler:        handler,
	}))
	assert.Error(t, reg.Register(Descriptor{
		TaskType:       enums.TaskSongPublish,
		PayloadFactory: func() any { return &payloads.SongPublish{} },
		Handler:        handler,
	}), "duplicate registration")

	songID := uuid.New()
	data, _ := json.Marshal(payloads.SongPublish{SongID: songID})
	env, _ := json.Marshal(PayloadEnvelope{Version: CurrentVersion, Data: data})

	resolved, err := reg.Resolve(models.Task{TaskType: enums.TaskSongPublish, AggregateType: enums.AggregateSong, Payload: env})
	require.NoError(t, err)
	assert.Equal(t, songID, resolved.Payload.(*payloads.SongPublish).SongID)

	_, err = reg.Resolve(models.Task{TaskType: enums.TaskEmailCredentials, Payload: env})
	assert.True(t, IsPermanent(err), "unregistered types are permanent failures")

	_, err = reg.Resolve(models.Task{TaskType: enums.TaskSongPublish, AggregateType: enums.AggregateSong, Payload: []byte("{")})
	assert.True(t, IsPermanent(err))

	badVersion, _ := json.Marshal(PayloadEnvelope{Version: 99, Data: data})
	_, err = reg.Resolve(models.Task{TaskType: enums.TaskSongPublish, AggregateType: enums.AggregateSong, Payload: badVersion})
	assert.True(t, IsPermanent(err))
}

func TestPermanent(t *testing.T) {
	assert.NoError(t, Permanent(nil))
	cause := errors.New("bad request")
	err := Permanent(cause)
	assert.True(t, IsPermanent(err))
	assert.ErrorIs(t, err, cause)
	assert.False(t, IsPermanent(cause))

	assert.True(t, IsPermanent(pkgerrors.New(pkgerrors.CodeNotFound, "song gone")))
	assert.False(t, IsPermanent(fmt.Errorf("upload: %w", pkgerrors.New(pkgerrors.CodeDependency, "youtube unavailable"))))
}

func TestTruncateErrorKeepsValidUTF8(t *testing.T) {
	long := strings.Repeat("a", maxErrorLen-1) + "é tail"
	got := truncateError(errors.New(long))
	require.NotNil(t, got)
	assert.True(t, utf8.ValidString(*got))
	assert.LessOrEqual(t, len(*got), maxErrorLen)
	assert.Equal(t, strings.Repeat("a", maxErrorLen-1), *got)

	withNul := truncateError(errors.New("bad\x00byte"))
	assert.Equal(t, "badbyte", *withNul)

	assert.Nil(t, truncateError(nil))
}
