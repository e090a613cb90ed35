package dashboard

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/article39/artist-platform-backend/internal/songs"
	"github.com/article39/artist-platform-backend/pkg/db/models"
	"github.com/article39/artist-platform-backend/pkg/enums"
	pkgerrors "github.com/article39/artist-platform-backend/pkg/errors"
	"github.com/article39/artist-platform-backend/pkg/logger"
	"github.com/article39/artist-platform-backend/pkg/outbox"
	"github.com/article39/artist-platform-backend/pkg/outbox/payloads"
)

const (
	recentLimit    = 5
	debounceScope  = "song_stats"
	defaultFreshen = 10 * time.Second
)

// Summary is the artist dashboard payload.
type Summary struct {
	Songs        map[enums.SongStatus]int64    `json:"songs"`
	Applications int64                         `json:"applications"`
	Payments     map[enums.PaymentStatus]int64 `json:"payments"`
	RecentSongs  []songs.SongView              `json:"recent_songs"`
}

type Service interface {
	Summary(ctx context.Context, artistID uuid.UUID) (*Summary, error)
}

type songStats interface {
	CountByStatus(ctx context.Context, artistID uuid.UUID) (map[enums.SongStatus]int64, error)
	RecentUploaded(ctx context.Context, artistID uuid.UUID, limit int) ([]models.Song, error)
}

type applicationCounter interface {
	CountForArtist(ctx context.Context, artistID uuid.UUID) (int64, error)
}

type paymentStats interface {
	CountByStatus(ctx context.Context, artistID uuid.UUID) (map[enums.PaymentStatus]int64, error)
}

type debouncer interface {
	Debounce(ctx context.Context, scope, id string, ttl time.Duration) (bool, error)
}

type enqueuer interface {
	EnqueueUnlessPending(ctx context.Context, tx *gorm.DB, job outbox.Job) (bool, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type ServiceParams struct {
	Songs        songStats
	Applications applicationCounter
	Payments     paymentStats
	Debounce     debouncer
	Tasks        enqueuer
	TxRunner     txRunner
	Freshness    time.Duration
	Logger       *logger.Logger
}

type service struct {
	songs     songStats
	apps      applicationCounter
	payments  paymentStats
	debounce  debouncer
	tasks     enqueuer
	tx        txRunner
	freshness time.Duration
	logg      *logger.Logger
	now       func() time.Time
}

func NewService(params ServiceParams) (Service, error) {
	if params.Songs == nil {
		return nil, fmt.Errorf("songs repository required")
	}
	if params.Applications == nil {
		return nil, fmt.Errorf("applications repository required")
	}
	if params.Payments == nil {
		return nil, fmt.Errorf("payments repository required")
	}
	if params.Tasks == nil {
		return nil, fmt.Errorf("task enqueuer required")
	}
	if params.TxRunner == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	freshness := params.Freshness
	if freshness <= 0 {
		freshness = defaultFreshen
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{
		songs:     params.Songs,
		apps:      params.Applications,
		payments:  params.Payments,
		debounce:  params.Debounce,
		tasks:     params.Tasks,
		tx:        params.TxRunner,
		freshness: freshness,
		logg:      logg,
		now:       time.Now,
	}, nil
}

func (s *service) Summary(ctx context.Context, artistID uuid.UUID) (*Summary, error) {
	songCounts, err := s.songs.CountByStatus(ctx, artistID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "count songs")
	}
	applications, err := s.apps.CountForArtist(ctx, artistID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "count applications")
	}
	paymentCounts, err := s.payments.CountByStatus(ctx, artistID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "count payments")
	}
	recent, err := s.songs.RecentUploaded(ctx, artistID, recentLimit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load recent songs")
	}

	views := make([]songs.SongView, 0, len(recent))
	for i := range recent {
		views = append(views, songs.NewSongView(&recent[i]))
	}

	if len(recent) > 0 && s.stale(recent[0]) {
		s.requestRefresh(ctx, artistID, recent)
	}

	return &Summary{
		Songs:        songCounts,
		Applications: applications,
		Payments:     paymentCounts,
		RecentSongs:  views,
	}, nil
}

func (s *service) stale(newest models.Song) bool {
	if newest.StatsRefreshedAt == nil {
		return true
	}
	return s.now().Sub(*newest.StatsRefreshedAt) > s.freshness
}

// requestRefresh queues a stats refresh for the listed songs. Failures are
// logged; the dashboard is served with whatever counters are stored.
func (s *service) requestRefresh(ctx context.Context, artistID uuid.UUID, recent []models.Song) {
	logCtx := s.logg.WithField(ctx, "artist_id", artistID.String())
	if s.debounce != nil {
		first, err := s.debounce.Debounce(ctx, debounceScope, artistID.String(), s.freshness)
		if err != nil {
			s.logg.Warn(logCtx, "stats refresh debounce failed: "+err.Error())
		} else if !first {
			return
		}
	}

	ids := make([]uuid.UUID, 0, len(recent))
	for _, song := range recent {
		ids = append(ids, song.ID)
	}
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		_, err := s.tasks.EnqueueUnlessPending(ctx, tx, outbox.Job{
			Type:          enums.TaskSongStatsRefresh,
			AggregateType: enums.AggregateArtist,
			AggregateID:   artistID,
			Data:          payloads.StatsRefresh{SongIDs: ids},
		})
		return err
	})
	if err != nil {
		s.logg.Error(logCtx, "queue stats refresh", err)
	}
}
