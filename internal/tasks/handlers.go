package tasks

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/article39/artist-platform-backend/internal/accounts"
	"github.com/article39/artist-platform-backend/internal/songs"
	"github.com/article39/artist-platform-backend/pkg/db/models"
	"github.com/article39/artist-platform-backend/pkg/enums"
	"github.com/article39/artist-platform-backend/pkg/logger"
	"github.com/article39/artist-platform-backend/pkg/mailer"
	"github.com/article39/artist-platform-backend/pkg/outbox"
	"github.com/article39/artist-platform-backend/pkg/outbox/payloads"
	"github.com/article39/artist-platform-backend/pkg/render"
	"github.com/article39/artist-platform-backend/pkg/youtube"
)

// Mailer sends the transactional emails.
type Mailer interface {
	SendCredentials(ctx context.Context, c mailer.Credentials) error
	SendSongStatus(ctx context.Context, s mailer.SongStatus) error
}

// Renderer turns a song's audio and thumbnail into a video file.
type Renderer interface {
	Render(ctx context.Context, in render.Input) (*render.Video, error)
}

type songRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Song, error)
	AdvanceUploadStatus(ctx context.Context, id uuid.UUID, next enums.UploadStatus) (bool, error)
	MarkUploadedTx(tx *gorm.DB, id uuid.UUID, videoID, videoURL string, at time.Time) (bool, error)
	FindPublished(ctx context.Context, ids []uuid.UUID) ([]models.Song, error)
	UpdateStats(ctx context.Context, id uuid.UUID, stats songs.Stats, at time.Time) error
}

// PasswordIssuer mints and hashes one-time passwords.
type PasswordIssuer interface {
	TempPassword() (string, error)
	Hash(password string) (string, error)
}

type credentialStore interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Account, error)
	UpdatePasswordHash(ctx context.Context, id uuid.UUID, hash string) error
}

type contactFinder interface {
	ContactByProfileID(ctx context.Context, profileID uuid.UUID) (*accounts.Contact, error)
}

type enqueuer interface {
	Enqueue(ctx context.Context, tx *gorm.DB, job outbox.Job) (uuid.UUID, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Deps are the collaborators of the task handlers.
type Deps struct {
	Mailer    Mailer
	Accounts  credentialStore
	Passwords PasswordIssuer
	Songs     songRepository
	Contacts  contactFinder
	Tasks     enqueuer
	Tx        txRunner
	Renderer  Renderer
	Publisher youtube.Publisher
	Stats     youtube.StatsFetcher
	// PublishToYouTube turns off the render and upload chain when false.
	PublishToYouTube bool
	Logger           *logger.Logger
}

func (d Deps) validate() error {
	switch {
	case d.Mailer == nil:
		return fmt.Errorf("mailer required")
	case d.Accounts == nil || d.Passwords == nil:
		return fmt.Errorf("account repository and password issuer required")
	case d.Songs == nil:
		return fmt.Errorf("song repository required")
	case d.Contacts == nil:
		return fmt.Errorf("contact finder required")
	case d.Tasks == nil:
		return fmt.Errorf("task enqueuer required")
	case d.Tx == nil:
		return fmt.Errorf("tx runner required")
	case d.PublishToYouTube && (d.Renderer == nil || d.Publisher == nil):
		return fmt.Errorf("renderer and publisher required when publishing is enabled")
	case d.Stats == nil:
		return fmt.Errorf("stats fetcher required")
	}
	return nil
}

// Register binds every task type to its handler.
func Register(reg *outbox.Registry, deps Deps) error {
	if reg == nil {
		return fmt.Errorf("registry required")
	}
	if err := deps.validate(); err != nil {
		return err
	}
	if deps.Logger == nil {
		deps.Logger = logger.Nop()
	}

	descriptors := []outbox.Descriptor{
		{
			TaskType:       enums.TaskEmailCredentials,
			AggregateType:  enums.AggregateArtist,
			PayloadFactory: func() any { return &payloads.CredentialsEmail{} },
			Handler:        &credentialsEmailHandler{mail: deps.Mailer, accounts: deps.Accounts, passwords: deps.Passwords},
		},
		{
			TaskType:       enums.TaskEmailSongStatus,
			AggregateType:  enums.AggregateSong,
			PayloadFactory: func() any { return &payloads.SongStatusEmail{} },
			Handler:        &songStatusEmailHandler{mail: deps.Mailer, songs: deps.Songs, contacts: deps.Contacts},
		},
		{
			TaskType:       enums.TaskSongPublish,
			AggregateType:  enums.AggregateSong,
			PayloadFactory: func() any { return &payloads.SongPublish{} },
			Handler:        newPublishHandler(deps),
		},
		{
			// The dashboard enqueues per artist and the cron sweep per batch.
			TaskType:       enums.TaskSongStatsRefresh,
			PayloadFactory: func() any { return &payloads.StatsRefresh{} },
			Handler:        newStatsHandler(deps),
		},
	}
	for _, d := range descriptors {
		if err := reg.Register(d); err != nil {
			return err
		}
	}
	return nil
}

func payloadAs[T any](task models.Task, payload any) (*T, error) {
	typed, ok := payload.(*T)
	if !ok || typed == nil {
		return nil, outbox.Permanent(fmt.Errorf("unexpected payload %T for %s", payload, task.TaskType))
	}
	return typed, nil
}
