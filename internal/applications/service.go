package applications

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/article39/artist-platform-backend/pkg/db"
	"github.com/article39/artist-platform-backend/pkg/db/models"
	"github.com/article39/artist-platform-backend/pkg/enums"
	pkgerrors "github.com/article39/artist-platform-backend/pkg/errors"
	"github.com/article39/artist-platform-backend/pkg/logger"
	"github.com/article39/artist-platform-backend/pkg/pagination"
)

const msgInvalidGig = "Invalid Gig"

// Service handles artist applications to gigs.
type Service interface {
	Apply(ctx context.Context, artistID uuid.UUID, in ApplyInput) (*ApplyResult, error)
	AdminList(ctx context.Context, gigID uuid.UUID, status string, params pagination.Params) ([]ApplicationView, int64, error)
	SetStatus(ctx context.Context, in StatusInput) (*ApplicationView, error)
}

type repository interface {
	Create(ctx context.Context, app *models.GigApplication) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.GigApplication, error)
	Exists(ctx context.Context, artistID, gigID uuid.UUID, songID *uuid.UUID) (bool, error)
	List(ctx context.Context, filter Filter, offset, limit int) ([]models.GigApplication, int64, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status enums.ApplicationStatus) (bool, error)
}

type gigFinder interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Gig, error)
}

type songFinder interface {
	FindOwned(ctx context.Context, artistID uuid.UUID, ids []uuid.UUID) ([]models.Song, error)
}

type service struct {
	repo  repository
	gigs  gigFinder
	songs songFinder
	logg  *logger.Logger
	now   func() time.Time
}

func NewService(repo repository, gigs gigFinder, songs songFinder, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("applications repository required")
	}
	if gigs == nil {
		return nil, fmt.Errorf("gig finder required")
	}
	if songs == nil {
		return nil, fmt.Errorf("song finder required")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{repo: repo, gigs: gigs, songs: songs, logg: logg, now: time.Now}, nil
}

// Apply attempts every song independently. It fails only when the gig is
// invalid or no song could be applied.
func (s *service) Apply(ctx context.Context, artistID uuid.UUID, in ApplyInput) (*ApplyResult, error) {
	gigID, err := uuid.Parse(strings.TrimSpace(in.GigID))
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, msgInvalidGig)
	}
	gig, err := s.gigs.FindByID(ctx, gigID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, msgInvalidGig)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load gig")
	}
	if gig.Datetime.Before(s.now()) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, msgInvalidGig)
	}

	result := &ApplyResult{Created: []ApplicationView{}, Failed: []Failure{}}
	fail := func(raw, msg string) {
		result.Failed = append(result.Failed, Failure{SongID: raw, Message: msg})
	}

	parsed := make(map[string]uuid.UUID, len(in.SongIDs))
	ids := make([]uuid.UUID, 0, len(in.SongIDs))
	for _, raw := range in.SongIDs {
		if id, err := uuid.Parse(strings.TrimSpace(raw)); err == nil {
			parsed[raw] = id
			ids = append(ids, id)
		}
	}
	owned, err := s.songs.FindOwned(ctx, artistID, ids)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load songs")
	}
	approved := make(map[uuid.UUID]bool, len(owned))
	for _, song := range owned {
		approved[song.ID] = song.Status == enums.SongStatusApproved
	}

	seen := make(map[uuid.UUID]bool, len(ids))
	for _, raw := range in.SongIDs {
		songID, ok := parsed[raw]
		if !ok || !approved[songID] {
			fail(raw, fmt.Sprintf("Invalid Song/Music ID: %s", raw))
			continue
		}
		if seen[songID] {
			fail(raw, duplicateMessage(raw))
			continue
		}
		seen[songID] = true

		exists, err := s.repo.Exists(ctx, artistID, gigID, &songID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check application")
		}
		if exists {
			fail(raw, duplicateMessage(raw))
			continue
		}
		sid := songID
		app := &models.GigApplication{
			ArtistID: artistID,
			GigID:    gigID,
			SongID:   &sid,
			Status:   enums.ApplicationStatusPending,
		}
		if err := s.repo.Create(ctx, app); err != nil {
			if db.IsUniqueViolation(err, "") {
				fail(raw, duplicateMessage(raw))
				continue
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create application")
		}
		result.Created = append(result.Created, NewView(app))
	}

	if len(result.Created) == 0 {
		msgs := make([]string, 0, len(result.Failed))
		for _, f := range result.Failed {
			msgs = append(msgs, f.Message)
		}
		return nil, pkgerrors.New(pkgerrors.CodeValidation, strings.Join(msgs, "\n")).WithDetails(result.Failed)
	}
	logCtx := s.logg.WithFields(ctx, map[string]any{
		"gig_id":  gigID.String(),
		"created": len(result.Created),
		"failed":  len(result.Failed),
	})
	s.logg.Info(logCtx, "gig applications submitted")
	return result, nil
}

func duplicateMessage(raw string) string {
	return fmt.Sprintf("Already applied to this gig with this Song/Music. Song/Music ID: %s", raw)
}

func (s *service) AdminList(ctx context.Context, gigID uuid.UUID, status string, params pagination.Params) ([]ApplicationView, int64, error) {
	filter := Filter{GigID: gigID}
	if strings.TrimSpace(status) != "" {
		parsed, err := enums.ParseApplicationStatus(status)
		if err != nil {
			return nil, 0, pkgerrors.Field("status", fmt.Sprintf("%q is not a valid choice.", status))
		}
		filter.Status = parsed
	}
	params = params.Normalize()
	rows, total, err := s.repo.List(ctx, filter, params.Offset(), params.Limit)
	if err != nil {
		return nil, 0, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list applications")
	}
	if !params.InRange(total) {
		return nil, 0, pkgerrors.New(pkgerrors.CodeNotFound, "Invalid page.")
	}
	out := make([]ApplicationView, 0, len(rows))
	for i := range rows {
		out = append(out, NewView(&rows[i]))
	}
	return out, total, nil
}

func (s *service) SetStatus(ctx context.Context, in StatusInput) (*ApplicationView, error) {
	id, err := uuid.Parse(strings.TrimSpace(in.ID))
	if err != nil {
		return nil, pkgerrors.Field("id", "Must be a valid UUID.")
	}
	status, err := enums.ParseApplicationStatus(in.Status)
	if err != nil {
		return nil, pkgerrors.Field("status", "must be one of PENDING APPROVED REJECTED")
	}
	ok, err := s.repo.UpdateStatus(ctx, id, status)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update application")
	}
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "Application not found.")
	}
	app, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load application")
	}
	view := NewView(app)
	return &view, nil
}
