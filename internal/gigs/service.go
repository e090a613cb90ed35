package gigs

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/article39/artist-platform-backend/internal/applications"
	"github.com/article39/artist-platform-backend/pkg/db/models"
	dbtypes "github.com/article39/artist-platform-backend/pkg/db/types"
	pkgerrors "github.com/article39/artist-platform-backend/pkg/errors"
	"github.com/article39/artist-platform-backend/pkg/pagination"
)

const (
	MsgCreated = "Gig created successfully."
	MsgUpdated = "Gig updated successfully."
	MsgDeleted = "Gig deleted successfully."
)

// Service manages gigs for admins and lists open gigs for artists and visitors.
type Service interface {
	Create(ctx context.Context, actor uuid.UUID, in CreateInput) (*GigView, error)
	Update(ctx context.Context, in UpdateInput) (*GigView, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Get(ctx context.Context, id uuid.UUID) (*GigView, error)
	AdminList(ctx context.Context, params pagination.Params) ([]GigView, int64, error)
	ArtistList(ctx context.Context, artistID uuid.UUID, q ArtistQuery, params pagination.Params) ([]GigView, int64, error)
	// Public lists open gigs. viewer is the caller's artist profile id or
	// uuid.Nil for anonymous visitors.
	Public(ctx context.Context, viewer uuid.UUID, params pagination.Params) ([]GigView, int64, error)
	PublicGet(ctx context.Context, viewer uuid.UUID, id uuid.UUID) (*GigView, error)
}

type repository interface {
	Create(ctx context.Context, gig *models.Gig) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Gig, error)
	Update(ctx context.Context, id uuid.UUID, changes map[string]any) error
	DeleteTx(tx *gorm.DB, id uuid.UUID) (bool, error)
	List(ctx context.Context, w Window, desc bool, offset, limit int) ([]models.Gig, int64, error)
}

type applicationReader interface {
	ForArtist(ctx context.Context, artistID uuid.UUID, gigIDs []uuid.UUID) (map[uuid.UUID][]models.GigApplication, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type service struct {
	repo repository
	apps applicationReader
	tx   txRunner
	now  func() time.Time
}

func NewService(repo repository, apps applicationReader, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("gigs repository required")
	}
	if apps == nil {
		return nil, fmt.Errorf("application reader required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, apps: apps, tx: tx, now: time.Now}, nil
}

func (s *service) Create(ctx context.Context, actor uuid.UUID, in CreateInput) (*GigView, error) {
	gig := &models.Gig{
		Title:       strings.TrimSpace(in.Title),
		Description: in.Description,
		Location:    strings.TrimSpace(in.Location),
		CoverImage:  strings.TrimSpace(in.CoverImage),
		Datetime:    in.Datetime.UTC(),
		CreatedBy:   actor,
	}
	if err := s.repo.Create(ctx, gig); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create gig")
	}
	view := NewGigView(gig)
	return &view, nil
}

func (s *service) Update(ctx context.Context, in UpdateInput) (*GigView, error) {
	id, err := uuid.Parse(strings.TrimSpace(in.ID))
	if err != nil {
		return nil, pkgerrors.Field("id", "Must be a valid UUID.")
	}
	if _, err := s.load(ctx, id); err != nil {
		return nil, err
	}
	changes := map[string]any{}
	if in.Title != nil {
		changes["title"] = strings.TrimSpace(*in.Title)
	}
	if in.Description != nil {
		changes["description"] = *in.Description
	}
	if in.Location != nil {
		changes["location"] = strings.TrimSpace(*in.Location)
	}
	if in.CoverImage != nil {
		changes["cover_image"] = strings.TrimSpace(*in.CoverImage)
	}
	if in.Datetime != nil {
		changes["datetime"] = in.Datetime.UTC()
	}
	if err := s.repo.Update(ctx, id, changes); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update gig")
	}
	gig, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	view := NewGigView(gig)
	return &view, nil
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	var deleted bool
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		var err error
		deleted, err = s.repo.DeleteTx(tx, id)
		return err
	})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete gig")
	}
	if !deleted {
		return pkgerrors.New(pkgerrors.CodeNotFound, "Gig not found.")
	}
	return nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*GigView, error) {
	gig, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	view := NewGigView(gig)
	return &view, nil
}

func (s *service) AdminList(ctx context.Context, params pagination.Params) ([]GigView, int64, error) {
	return s.list(ctx, Window{}, true, uuid.Nil, params)
}

func (s *service) ArtistList(ctx context.Context, artistID uuid.UUID, q ArtistQuery, params pagination.Params) ([]GigView, int64, error) {
	w, err := s.artistWindow(q)
	if err != nil {
		return nil, 0, err
	}
	if q.MyGigs {
		w.AppliedBy = artistID
	}
	return s.list(ctx, w, false, artistID, params)
}

func (s *service) artistWindow(q ArtistQuery) (Window, error) {
	now := s.now().UTC()
	w := Window{From: now}
	switch {
	case strings.TrimSpace(q.Date) != "":
		d, err := dbtypes.ParseDate(q.Date)
		if err != nil {
			return Window{}, pkgerrors.Field("date", "Date has wrong format. Use YYYY-MM-DD.")
		}
		w.From = later(now, d.Time)
		w.To = d.Time.AddDate(0, 0, 1)
	case q.Month != 0 || q.Year != 0:
		if q.Month < 1 || q.Month > 12 || q.Year < 1 {
			return Window{}, pkgerrors.Field("month", "month and year must be provided together.")
		}
		start := time.Date(q.Year, time.Month(q.Month), 1, 0, 0, 0, 0, time.UTC)
		w.From = later(now, start)
		w.To = start.AddDate(0, 1, 0)
	}
	return w, nil
}

func later(a, b time.Time) time.Time {
	if a.After(b) {
		return a
	}
	return b
}

func (s *service) Public(ctx context.Context, viewer uuid.UUID, params pagination.Params) ([]GigView, int64, error) {
	return s.list(ctx, Window{From: s.now().UTC()}, false, viewer, params)
}

func (s *service) PublicGet(ctx context.Context, viewer uuid.UUID, id uuid.UUID) (*GigView, error) {
	gig, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	views := []GigView{NewGigView(gig)}
	if err := s.embed(ctx, viewer, views); err != nil {
		return nil, err
	}
	return &views[0], nil
}

func (s *service) list(ctx context.Context, w Window, desc bool, viewer uuid.UUID, params pagination.Params) ([]GigView, int64, error) {
	params = params.Normalize()
	rows, total, err := s.repo.List(ctx, w, desc, params.Offset(), params.Limit)
	if err != nil {
		return nil, 0, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list gigs")
	}
	if !params.InRange(total) {
		return nil, 0, pkgerrors.New(pkgerrors.CodeNotFound, "Invalid page.")
	}
	views := make([]GigView, 0, len(rows))
	for i := range rows {
		views = append(views, NewGigView(&rows[i]))
	}
	if err := s.embed(ctx, viewer, views); err != nil {
		return nil, 0, err
	}
	return views, total, nil
}

// embed attaches viewer's applications to each gig.
func (s *service) embed(ctx context.Context, viewer uuid.UUID, views []GigView) error {
	if viewer == uuid.Nil || len(views) == 0 {
		return nil
	}
	ids := make([]uuid.UUID, 0, len(views))
	for _, v := range views {
		ids = append(ids, v.ID)
	}
	byGig, err := s.apps.ForArtist(ctx, viewer, ids)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load applications")
	}
	for i := range views {
		apps := make([]applications.ApplicationView, 0, len(byGig[views[i].ID]))
		for j := range byGig[views[i].ID] {
			apps = append(apps, applications.NewView(&byGig[views[i].ID][j]))
		}
		views[i].Applications = &apps
	}
	return nil
}

func (s *service) load(ctx context.Context, id uuid.UUID) (*models.Gig, error) {
	gig, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "Gig not found.")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load gig")
	}
	return gig, nil
}
