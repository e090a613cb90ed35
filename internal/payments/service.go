package payments

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/article39/artist-platform-backend/internal/gigs"
	"github.com/article39/artist-platform-backend/pkg/db"
	"github.com/article39/artist-platform-backend/pkg/db/models"
	"github.com/article39/artist-platform-backend/pkg/enums"
	pkgerrors "github.com/article39/artist-platform-backend/pkg/errors"
	"github.com/article39/artist-platform-backend/pkg/pagination"
)

const (
	msgInvalidGig = "Invalid Gig"
	msgDuplicate  = "Payment request already exists for this gig."
)

// Service lets artists request payment for gigs they applied to.
type Service interface {
	Create(ctx context.Context, artistID uuid.UUID, in CreateInput) (*PaymentView, error)
	Get(ctx context.Context, artistID, id uuid.UUID) (*PaymentView, error)
	List(ctx context.Context, artistID uuid.UUID, params pagination.Params) ([]PaymentView, int64, error)
	UnrequestedGigs(ctx context.Context, artistID uuid.UUID) ([]gigs.GigView, error)
}

type repository interface {
	Create(ctx context.Context, p *models.Payment) error
	ExistsFor(ctx context.Context, artistID, gigID uuid.UUID) (bool, error)
	FindForArtist(ctx context.Context, artistID, id uuid.UUID) (*models.Payment, error)
	ListForArtist(ctx context.Context, artistID uuid.UUID, offset, limit int) ([]models.Payment, int64, error)
	UnrequestedGigs(ctx context.Context, artistID uuid.UUID) ([]models.Gig, error)
}

type gigFinder interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Gig, error)
}

type applicationFinder interface {
	FirstFor(ctx context.Context, artistID, gigID uuid.UUID) (*models.GigApplication, error)
}

type service struct {
	repo repository
	gigs gigFinder
	apps applicationFinder
	now  func() time.Time
}

func NewService(repo repository, gigFinder gigFinder, apps applicationFinder) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("payments repository required")
	}
	if gigFinder == nil {
		return nil, fmt.Errorf("gig finder required")
	}
	if apps == nil {
		return nil, fmt.Errorf("application finder required")
	}
	return &service{repo: repo, gigs: gigFinder, apps: apps, now: time.Now}, nil
}

func (s *service) Create(ctx context.Context, artistID uuid.UUID, in CreateInput) (*PaymentView, error) {
	method, err := enums.ParsePaymentMethod(in.Method)
	if err != nil {
		return nil, pkgerrors.Field("method", fmt.Sprintf("%q is not a valid choice.", in.Method))
	}
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
	app, err := s.apps.FirstFor(ctx, artistID, gigID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, msgInvalidGig)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load application")
	}
	exists, err := s.repo.ExistsFor(ctx, artistID, gigID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check payment")
	}
	if exists {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, msgDuplicate)
	}

	p := &models.Payment{
		ArtistID:      artistID,
		GigID:         gigID,
		ApplicationID: app.ID,
		Amount:        decimal.Zero,
		Method:        method,
		Status:        enums.PaymentStatusDue,
		Note:          strings.TrimSpace(in.Note),
	}
	if err := s.repo.Create(ctx, p); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, msgDuplicate)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create payment")
	}
	view := NewView(p)
	return &view, nil
}

func (s *service) Get(ctx context.Context, artistID, id uuid.UUID) (*PaymentView, error) {
	p, err := s.repo.FindForArtist(ctx, artistID, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "Payment not found.")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load payment")
	}
	view := NewView(p)
	return &view, nil
}

func (s *service) List(ctx context.Context, artistID uuid.UUID, params pagination.Params) ([]PaymentView, int64, error) {
	params = params.Normalize()
	rows, total, err := s.repo.ListForArtist(ctx, artistID, params.Offset(), params.Limit)
	if err != nil {
		return nil, 0, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list payments")
	}
	if !params.InRange(total) {
		return nil, 0, pkgerrors.New(pkgerrors.CodeNotFound, "Invalid page.")
	}
	out := make([]PaymentView, 0, len(rows))
	for i := range rows {
		out = append(out, NewView(&rows[i]))
	}
	return out, total, nil
}

func (s *service) UnrequestedGigs(ctx context.Context, artistID uuid.UUID) ([]gigs.GigView, error) {
	rows, err := s.repo.UnrequestedGigs(ctx, artistID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list gigs")
	}
	out := make([]gigs.GigView, 0, len(rows))
	for i := range rows {
		out = append(out, gigs.NewGigView(&rows[i]))
	}
	return out, nil
}
