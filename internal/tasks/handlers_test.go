package tasks

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/article39/artist-platform-backend/internal/accounts"
	"github.com/article39/artist-platform-backend/internal/songs"
	"github.com/article39/artist-platform-backend/pkg/config"
	"github.com/article39/artist-platform-backend/pkg/db"
	"github.com/article39/artist-platform-backend/pkg/db/dbtest"
	"github.com/article39/artist-platform-backend/pkg/db/models"
	"github.com/article39/artist-platform-backend/pkg/enums"
	"github.com/article39/artist-platform-backend/pkg/logger"
	"github.com/article39/artist-platform-backend/pkg/mailer"
	"github.com/article39/artist-platform-backend/pkg/outbox"
	"github.com/article39/artist-platform-backend/pkg/outbox/payloads"
	"github.com/article39/artist-platform-backend/pkg/render"
	"github.com/article39/artist-platform-backend/pkg/youtube"
)

type stubMailer struct {
	credentials []mailer.Credentials
	statuses    []mailer.SongStatus
}

func (m *stubMailer) SendCredentials(_ context.Context, c mailer.Credentials) error {
	m.credentials = append(m.credentials, c)
	return nil
}

func (m *stubMailer) SendSongStatus(_ context.Context, s mailer.SongStatus) error {
	m.statuses = append(m.statuses, s)
	return nil
}

type stubPasswords struct {
	next string
}

func (p stubPasswords) TempPassword() (string, error)      { return p.next, nil }
func (stubPasswords) Hash(password string) (string, error) { return "hashed:" + password, nil }

type stubRenderer struct {
	inputs []render.Input
	err    error
}

func (r *stubRenderer) Render(_ context.Context, in render.Input) (*render.Video, error) {
	r.inputs = append(r.inputs, in)
	if r.err != nil {
		return nil, r.err
	}
	return &render.Video{Path: "/tmp/song.mp4"}, nil
}

type stubPublisher struct {
	videos   []youtube.Video
	failures int
	err      error
}

func (p *stubPublisher) Publish(_ context.Context, v youtube.Video) (string, error) {
	p.videos = append(p.videos, v)
	if p.failures > 0 {
		p.failures--
		return "", p.err
	}
	return "abc123", nil
}

type stubStats struct {
	requested []string
	counters  map[string]youtube.Stats
}

func (s *stubStats) Statistics(_ context.Context, ids []string) (map[string]youtube.Stats, error) {
	s.requested = append(s.requested, ids...)
	return s.counters, nil
}

type fixture struct {
	conn      *gorm.DB
	tasks     *outbox.Service
	queue     *outbox.Repository
	worker    *Worker
	mail      *stubMailer
	renderer  *stubRenderer
	publisher *stubPublisher
	stats     *stubStats
}

func newFixture(t *testing.T, publish bool, maxAttempts int) *fixture {
	t.Helper()
	conn := dbtest.Open(t)
	f := &fixture{
		conn:      conn,
		queue:     outbox.NewRepository(conn),
		mail:      &stubMailer{},
		renderer:  &stubRenderer{},
		publisher: &stubPublisher{},
		stats:     &stubStats{counters: map[string]youtube.Stats{}},
	}
	f.tasks = outbox.NewService(f.queue, logger.Nop())

	reg := outbox.NewRegistry()
	require.NoError(t, Register(reg, Deps{
		Mailer:           f.mail,
		Accounts:         accounts.NewRepository(conn),
		Passwords:        stubPasswords{next: "Ab3xYz"},
		Songs:            songs.NewRepository(conn),
		Contacts:         accounts.NewProfileRepository(conn),
		Tasks:            f.tasks,
		Tx:               db.NewFromGorm(conn),
		Renderer:         f.renderer,
		Publisher:        f.publisher,
		Stats:            f.stats,
		PublishToYouTube: publish,
		Logger:           logger.Nop(),
	}))

	worker, err := NewWorker(WorkerParams{
		Config:   config.WorkerConfig{BatchSize: 10, MaxAttempts: maxAttempts},
		Logger:   logger.Nop(),
		Repo:     f.queue,
		Registry: reg,
	})
	require.NoError(t, err)
	f.worker = worker
	return f
}

func (f *fixture) enqueue(t *testing.T, job outbox.Job) uuid.UUID {
	t.Helper()
	var id uuid.UUID
	require.NoError(t, f.conn.Transaction(func(tx *gorm.DB) error {
		var err error
		id, err = f.tasks.Enqueue(context.Background(), tx, job)
		return err
	}))
	return id
}

func (f *fixture) run(t *testing.T) int {
	t.Helper()
	n, err := f.worker.ProcessBatch(context.Background())
	require.NoError(t, err)
	return n
}

func (f *fixture) task(t *testing.T, id uuid.UUID) models.Task {
	t.Helper()
	var task models.Task
	require.NoError(t, f.conn.First(&task, "id = ?", id).Error)
	return task
}

func (f *fixture) song(t *testing.T, id uuid.UUID) models.Song {
	t.Helper()
	var song models.Song
	require.NoError(t, f.conn.First(&song, "id = ?", id).Error)
	return song
}

func (f *fixture) seedAccount(t *testing.T) *models.Account {
	t.Helper()
	account := &models.Account{
		ID:           uuid.New(),
		Username:     "rumi",
		Email:        "rumi@example.com",
		PasswordHash: "x",
		Role:         enums.RoleArtist,
		IsActive:     true,
	}
	require.NoError(t, f.conn.Create(account).Error)
	return account
}

// seedArtistSong creates an account, its verified profile and one approved song.
func (f *fixture) seedArtistSong(t *testing.T) uuid.UUID {
	t.Helper()
	account := f.seedAccount(t)
	profile := &models.ArtistProfile{
		ID:           uuid.New(),
		AccountID:    account.ID,
		SubmissionID: uuid.New(),
		Kind:         enums.SubmissionMusician,
		DisplayName:  "Rumi Ahmed",
		IsVerified:   true,
	}
	require.NoError(t, f.conn.Create(profile).Error)
	song := &models.Song{
		ID:           uuid.New(),
		ArtistID:     profile.ID,
		Title:        "Monsoon",
		AudioURL:     "https://cdn.example.com/monsoon.mp3",
		ThumbnailURL: "https://cdn.example.com/monsoon.jpg",
		Duration:     200,
		Description:  "A rain song",
		Tags:         []string{"folk"},
		Status:       enums.SongStatusApproved,
		UploadStatus: enums.UploadStatusNotUploaded,
	}
	require.NoError(t, f.conn.Create(song).Error)
	return song.ID
}

func publishJob(songID uuid.UUID) outbox.Job {
	return outbox.Job{
		Type:          enums.TaskSongPublish,
		AggregateType: enums.AggregateSong,
		AggregateID:   songID,
		Data:          payloads.SongPublish{SongID: songID},
	}
}

func TestRegisterValidatesDeps(t *testing.T) {
	assert.Error(t, Register(outbox.NewRegistry(), Deps{}))
	assert.Error(t, Register(nil, Deps{}))
}

func credentialsJob(accountID uuid.UUID) outbox.Job {
	return outbox.Job{
		Type:          enums.TaskEmailCredentials,
		AggregateType: enums.AggregateArtist,
		AggregateID:   accountID,
		Data: payloads.CredentialsEmail{
			AccountID: accountID,
			Email:     "rumi@example.com",
			Username:  "rumi",
			FullName:  "Rumi Ahmed",
		},
	}
}

func TestCredentialsEmailIssuesPasswordAtSend(t *testing.T) {
	f := newFixture(t, true, 3)
	account := f.seedAccount(t)
	id := f.enqueue(t, credentialsJob(account.ID))

	assert.Equal(t, 1, f.run(t))
	assert.Equal(t, enums.TaskStatusSucceeded, f.task(t, id).Status)
	require.Len(t, f.mail.credentials, 1)
	assert.Equal(t, mailer.Credentials{To: "rumi@example.com", Name: "Rumi Ahmed", Username: "rumi", Password: "Ab3xYz"}, f.mail.credentials[0])

	stored, err := accounts.NewRepository(f.conn).FindByID(context.Background(), account.ID)
	require.NoError(t, err)
	assert.Equal(t, "hashed:Ab3xYz", stored.PasswordHash)
	assert.NotContains(t, string(f.task(t, id).Payload), "Ab3xYz")
}

func TestCredentialsEmailUnknownAccountFails(t *testing.T) {
	f := newFixture(t, true, 3)
	id := f.enqueue(t, credentialsJob(uuid.New()))

	assert.Equal(t, 1, f.run(t))
	assert.Equal(t, enums.TaskStatusFailed, f.task(t, id).Status)
	assert.Empty(t, f.mail.credentials)
}

func TestSongPublishUploadsThenNotifies(t *testing.T) {
	f := newFixture(t, true, 3)
	songID := f.seedArtistSong(t)
	id := f.enqueue(t, publishJob(songID))

	assert.Equal(t, 1, f.run(t))
	assert.Equal(t, enums.TaskStatusSucceeded, f.task(t, id).Status)

	song := f.song(t, songID)
	assert.Equal(t, enums.UploadStatusUploaded, song.UploadStatus)
	require.NotNil(t, song.YouTubeVideoID)
	assert.Equal(t, "abc123", *song.YouTubeVideoID)
	require.NotNil(t, song.YouTubeURL)
	assert.Equal(t, youtube.WatchURL("abc123"), *song.YouTubeURL)
	require.Len(t, f.publisher.videos, 1)
	assert.Equal(t, "Monsoon", f.publisher.videos[0].Title)
	assert.Equal(t, []string{"folk"}, f.publisher.videos[0].Tags)
	assert.Equal(t, "https://cdn.example.com/monsoon.mp3", f.renderer.inputs[0].AudioURL)

	// the status email was queued with the upload and runs next
	assert.Equal(t, 1, f.run(t))
	require.Len(t, f.mail.statuses, 1)
	status := f.mail.statuses[0]
	assert.Equal(t, "rumi@example.com", status.To)
	assert.Equal(t, "Rumi Ahmed", status.Name)
	assert.Equal(t, "Monsoon", status.SongTitle)
	assert.Equal(t, "APPROVED", status.Status)
	assert.Equal(t, youtube.WatchURL("abc123"), status.YouTubeURL)
}

func TestSongPublishDisabledOnlyNotifies(t *testing.T) {
	f := newFixture(t, false, 3)
	songID := f.seedArtistSong(t)
	f.enqueue(t, publishJob(songID))

	f.run(t)
	f.run(t)

	assert.Empty(t, f.renderer.inputs)
	assert.Empty(t, f.publisher.videos)
	assert.Equal(t, enums.UploadStatusNotUploaded, f.song(t, songID).UploadStatus)
	require.Len(t, f.mail.statuses, 1)
	assert.Empty(t, f.mail.statuses[0].YouTubeURL)
}

func TestSongPublishRetryResumes(t *testing.T) {
	f := newFixture(t, true, 3)
	f.publisher.failures = 1
	f.publisher.err = errors.New("connection reset")
	songID := f.seedArtistSong(t)
	id := f.enqueue(t, publishJob(songID))

	f.run(t)
	task := f.task(t, id)
	assert.Equal(t, enums.TaskStatusQueued, task.Status)
	assert.Equal(t, 1, task.AttemptCount)
	require.NotNil(t, task.LastError)
	assert.Contains(t, *task.LastError, "connection reset")
	assert.Equal(t, enums.UploadStatusUploading, f.song(t, songID).UploadStatus)

	assert.Equal(t, 0, f.run(t), "retry must wait for its backoff")

	f.worker.now = func() time.Time { return time.Now().Add(time.Hour) }
	assert.Equal(t, 1, f.run(t))
	assert.Equal(t, enums.TaskStatusSucceeded, f.task(t, id).Status)
	assert.Equal(t, enums.UploadStatusUploaded, f.song(t, songID).UploadStatus)
}

func TestSongPublishExhaustedMarksFailed(t *testing.T) {
	f := newFixture(t, true, 1)
	f.publisher.failures = 1
	f.publisher.err = errors.New("quota exceeded")
	songID := f.seedArtistSong(t)
	id := f.enqueue(t, publishJob(songID))

	f.run(t)
	task := f.task(t, id)
	assert.Equal(t, enums.TaskStatusFailed, task.Status)
	assert.NotNil(t, task.FinishedAt)
	assert.Equal(t, enums.UploadStatusFailed, f.song(t, songID).UploadStatus)
	assert.Empty(t, f.mail.statuses)
}

func TestSongPublishBadSourceIsPermanent(t *testing.T) {
	f := newFixture(t, true, 5)
	f.renderer.err = &render.SourceError{URL: "https://cdn.example.com/monsoon.mp3", Status: 404}
	songID := f.seedArtistSong(t)
	id := f.enqueue(t, publishJob(songID))

	f.run(t)
	assert.Equal(t, enums.TaskStatusFailed, f.task(t, id).Status)
	assert.Equal(t, enums.UploadStatusFailed, f.song(t, songID).UploadStatus)
}

func TestStatsRefreshUpdatesCounters(t *testing.T) {
	f := newFixture(t, true, 3)
	songID := f.seedArtistSong(t)
	videoID := "vid-1"
	require.NoError(t, f.conn.Model(&models.Song{}).Where("id = ?", songID).Updates(map[string]any{
		"upload_status":    enums.UploadStatusUploaded,
		"youtube_video_id": videoID,
	}).Error)
	pending := uuid.New()
	f.stats.counters[videoID] = youtube.Stats{Views: 120, Likes: 7, Comments: 2}

	id := f.enqueue(t, outbox.Job{
		Type:          enums.TaskSongStatsRefresh,
		AggregateType: enums.AggregateArtist,
		AggregateID:   uuid.New(),
		Data:          payloads.StatsRefresh{SongIDs: []uuid.UUID{songID, pending}},
	})

	f.run(t)
	assert.Equal(t, enums.TaskStatusSucceeded, f.task(t, id).Status)
	assert.Equal(t, []string{videoID}, f.stats.requested)

	song := f.song(t, songID)
	assert.Equal(t, int64(120), song.YouTubeViewCount)
	assert.Equal(t, int64(7), song.YouTubeLikeCount)
	assert.Equal(t, int64(2), song.YouTubeCommentCount)
	assert.NotNil(t, song.StatsRefreshedAt)
}

func TestUndecodablePayloadFailsImmediately(t *testing.T) {
	f := newFixture(t, true, 5)
	task := &models.Task{
		ID:            uuid.New(),
		TaskType:      enums.TaskSongPublish,
		AggregateType: enums.AggregateSong,
		AggregateID:   uuid.New(),
		Payload:       []byte(`{"version":99,"data":{}}`),
		Status:        enums.TaskStatusQueued,
		AvailableAt:   time.Now().UTC().Add(-time.Minute),
	}
	require.NoError(t, f.conn.Create(task).Error)

	f.run(t)
	failed := f.task(t, task.ID)
	assert.Equal(t, enums.TaskStatusFailed, failed.Status)
	require.NotNil(t, failed.LastError)
	assert.Contains(t, *failed.LastError, "unsupported payload version")
}
