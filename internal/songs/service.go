package songs

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/article39/artist-platform-backend/pkg/db/models"
	"github.com/article39/artist-platform-backend/pkg/enums"
	pkgerrors "github.com/article39/artist-platform-backend/pkg/errors"
	"github.com/article39/artist-platform-backend/pkg/logger"
	"github.com/article39/artist-platform-backend/pkg/outbox"
	"github.com/article39/artist-platform-backend/pkg/outbox/payloads"
	"github.com/article39/artist-platform-backend/pkg/pagination"
)

const (
	MsgApproved = "Song approved. It will be published shortly."
	MsgRejected = "Song rejected. The artist has been notified."
)

// Service runs the song review workflow.
type Service interface {
	Enlist(ctx context.Context, artistID uuid.UUID, in EnlistInput) (*SongView, error)
	ArtistGet(ctx context.Context, artistID, id uuid.UUID) (*SongView, error)
	ArtistList(ctx context.Context, artistID uuid.UUID, status string, params pagination.Params) ([]SongView, int64, error)
	AdminGet(ctx context.Context, id uuid.UUID) (*SongView, error)
	AdminList(ctx context.Context, status string, params pagination.Params) ([]SongView, int64, error)
	Review(ctx context.Context, actor uuid.UUID, in ReviewInput) (string, error)
}

type repository interface {
	Create(ctx context.Context, song *models.Song) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Song, error)
	FindByIDTx(tx *gorm.DB, id uuid.UUID) (*models.Song, error)
	List(ctx context.Context, filter Filter, offset, limit int) ([]models.Song, int64, error)
	ReviewTx(tx *gorm.DB, id uuid.UUID, status enums.SongStatus, note string, at time.Time) (bool, error)
}

type enqueuer interface {
	Enqueue(ctx context.Context, tx *gorm.DB, job outbox.Job) (uuid.UUID, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type service struct {
	repo  repository
	tasks enqueuer
	tx    txRunner
	logg  *logger.Logger
	now   func() time.Time
}

func NewService(repo repository, tasks enqueuer, tx txRunner, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("songs repository required")
	}
	if tasks == nil {
		return nil, fmt.Errorf("task enqueuer required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{repo: repo, tasks: tasks, tx: tx, logg: logg, now: time.Now}, nil
}

func (s *service) Enlist(ctx context.Context, artistID uuid.UUID, in EnlistInput) (*SongView, error) {
	if in.Duration <= 0 {
		return nil, pkgerrors.Field("duration", "Ensure this value is greater than 0.")
	}
	song := &models.Song{
		ArtistID:     artistID,
		Title:        strings.TrimSpace(in.Title),
		AudioURL:     strings.TrimSpace(in.AudioURL),
		ThumbnailURL: strings.TrimSpace(in.ThumbnailURL),
		Duration:     in.Duration,
		Genre:        strings.TrimSpace(in.Genre),
		Description:  in.Description,
		Tags:         in.Tags,
		Status:       enums.SongStatusPending,
		UploadStatus: enums.UploadStatusNotUploaded,
	}
	if err := s.repo.Create(ctx, song); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create song")
	}
	view := NewSongView(song)
	return &view, nil
}

func (s *service) ArtistGet(ctx context.Context, artistID, id uuid.UUID) (*SongView, error) {
	song, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if song.ArtistID != artistID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "Song not found.")
	}
	view := NewSongView(song)
	return &view, nil
}

// ArtistList treats an unknown or empty status as "all".
func (s *service) ArtistList(ctx context.Context, artistID uuid.UUID, status string, params pagination.Params) ([]SongView, int64, error) {
	filter := Filter{ArtistID: artistID}
	if parsed, err := enums.ParseSongStatus(status); err == nil {
		filter.Status = parsed
	}
	return s.list(ctx, filter, params)
}

func (s *service) AdminGet(ctx context.Context, id uuid.UUID) (*SongView, error) {
	song, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	view := NewSongView(song)
	return &view, nil
}

func (s *service) AdminList(ctx context.Context, status string, params pagination.Params) ([]SongView, int64, error) {
	var filter Filter
	status = strings.TrimSpace(status)
	if status != "" && !strings.EqualFold(status, "all") {
		parsed, err := enums.ParseSongStatus(status)
		if err != nil {
			return nil, 0, pkgerrors.Field("status", fmt.Sprintf("%q is not a valid choice.", status))
		}
		filter.Status = parsed
	}
	return s.list(ctx, filter, params)
}

func (s *service) list(ctx context.Context, filter Filter, params pagination.Params) ([]SongView, int64, error) {
	params = params.Normalize()
	rows, total, err := s.repo.List(ctx, filter, params.Offset(), params.Limit)
	if err != nil {
		return nil, 0, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list songs")
	}
	if !params.InRange(total) {
		return nil, 0, pkgerrors.New(pkgerrors.CodeNotFound, "Invalid page.")
	}
	out := make([]SongView, 0, len(rows))
	for i := range rows {
		out = append(out, NewSongView(&rows[i]))
	}
	return out, total, nil
}

func (s *service) load(ctx context.Context, id uuid.UUID) (*models.Song, error) {
	song, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "Song not found.")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load song")
	}
	return song, nil
}

// Review applies an admin decision. The status change and the follow-up task
// commit together.
func (s *service) Review(ctx context.Context, actor uuid.UUID, in ReviewInput) (string, error) {
	id, err := uuid.Parse(strings.TrimSpace(in.ID))
	if err != nil {
		return "", pkgerrors.Field("id", "Must be a valid UUID.")
	}
	target, err := enums.ParseSongStatus(in.Status)
	if err != nil || target == enums.SongStatusPending {
		return "", pkgerrors.Field("status", "must be one of APPROVED REJECTED")
	}
	note := strings.TrimSpace(in.Note)
	now := s.now().UTC()

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		song, err := s.repo.FindByIDTx(tx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "Song not found.")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load song")
		}
		if err := transitionError(song.Status, target); err != nil {
			return err
		}
		ok, err := s.repo.ReviewTx(tx, id, target, note, now)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update song status")
		}
		if !ok {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "Song status was changed by another request.")
		}

		job := outbox.Job{
			AggregateType: enums.AggregateSong,
			AggregateID:   id,
			Actor:         &outbox.ActorRef{AccountID: actor, Role: string(enums.RoleAdmin)},
		}
		if target == enums.SongStatusApproved {
			job.Type = enums.TaskSongPublish
			job.Data = payloads.SongPublish{SongID: id}
		} else {
			job.Type = enums.TaskEmailSongStatus
			job.Data = payloads.SongStatusEmail{SongID: id, Status: target, Note: note}
		}
		if _, err := s.tasks.Enqueue(ctx, tx, job); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "enqueue song task")
		}
		return nil
	})
	if err != nil {
		return "", err
	}

	logCtx := s.logg.WithFields(ctx, map[string]any{"song_id": id.String(), "status": target})
	s.logg.Info(logCtx, "song reviewed")
	if target == enums.SongStatusApproved {
		return MsgApproved, nil
	}
	return MsgRejected, nil
}

func transitionError(current, target enums.SongStatus) error {
	switch {
	case current == target && target == enums.SongStatusApproved:
		return pkgerrors.New(pkgerrors.CodeStateConflict, "Song is already approved.")
	case current == target && target == enums.SongStatusRejected:
		return pkgerrors.New(pkgerrors.CodeStateConflict, "Song is already rejected.")
	case current == enums.SongStatusRejected:
		return pkgerrors.New(pkgerrors.CodeStateConflict, "Song status cannot be changed once rejected.")
	case current == enums.SongStatusApproved:
		return pkgerrors.New(pkgerrors.CodeStateConflict, "Song status cannot be changed once approved.")
	}
	return nil
}
