package content

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/article39/artist-platform-backend/internal/repo"
	"github.com/article39/artist-platform-backend/pkg/db/models"
	pkgerrors "github.com/article39/artist-platform-backend/pkg/errors"
)

// Catalog holds one service per website resource.
type Catalog struct {
	Carousel     *Service[models.CarouselImage]
	Stories      *Service[models.Story]
	Events       *Service[models.Event]
	Tickets      *Service[models.TicketBooking]
	Exhibitions  *Service[models.Exhibition]
	Albums       *Service[models.Album]
	Singles      *Service[models.Single]
	Shows        *Service[models.Show]
	ShowBookings *Service[models.ShowBookingInfo]
}

func NewCatalog(db *gorm.DB) (*Catalog, error) {
	events := repo.NewTable[models.Event](db)
	c := &Catalog{}
	var err error

	if c.Carousel, err = NewService(Resource[models.CarouselImage]{
		Path:        "courasel-images",
		ListKey:     "courasel_images",
		Label:       "Courasel image",
		ID:          func(r *models.CarouselImage) *uuid.UUID { return &r.ID },
		PublicScope: func(q *gorm.DB) *gorm.DB { return q.Where("selected = ?", true) },
	}, db); err != nil {
		return nil, err
	}
	if c.Stories, err = NewService(Resource[models.Story]{
		Path:    "stories",
		ListKey: "stories",
		Label:   "Story",
		ID:      func(r *models.Story) *uuid.UUID { return &r.ID },
		Prepare: func(_ context.Context, r *models.Story) error {
			r.Tags = cleanList(r.Tags)
			return nil
		},
	}, db); err != nil {
		return nil, err
	}
	if c.Events, err = NewService(Resource[models.Event]{
		Path:    "events",
		ListKey: "events",
		Label:   "Event",
		ID:      func(r *models.Event) *uuid.UUID { return &r.ID },
		Prepare: func(_ context.Context, r *models.Event) error {
			if r.TicketPrice.IsNegative() {
				return pkgerrors.Field("ticket_price", "Ensure this value is greater than or equal to 0.")
			}
			r.Date = r.Date.UTC()
			return nil
		},
	}, db); err != nil {
		return nil, err
	}
	if c.Tickets, err = NewService(Resource[models.TicketBooking]{
		Path:         "tickets",
		ListKey:      "ticket_bookings",
		Label:        "Ticket booking",
		PublicCreate: true,
		PrivateRead:  true,
		ID:           func(r *models.TicketBooking) *uuid.UUID { return &r.ID },
		Prepare: func(ctx context.Context, r *models.TicketBooking) error {
			if r.NumberOfTickets == 0 {
				r.NumberOfTickets = 1
			}
			ok, err := events.Exists(ctx, r.EventID)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check event")
			}
			if !ok {
				return pkgerrors.Field("event_id", fmt.Sprintf("Invalid pk %q - object does not exist.", r.EventID.String()))
			}
			r.BuyerEmail = strings.ToLower(strings.TrimSpace(r.BuyerEmail))
			return nil
		},
	}, db); err != nil {
		return nil, err
	}
	if c.Exhibitions, err = NewService(Resource[models.Exhibition]{
		Path:    "exhibitions",
		ListKey: "exhibitions",
		Label:   "Exhibition",
		ID:      func(r *models.Exhibition) *uuid.UUID { return &r.ID },
		Prepare: func(_ context.Context, r *models.Exhibition) error {
			if r.Date.IsZero() {
				return pkgerrors.Field("date", "This field is required.")
			}
			r.Tags = cleanList(r.Tags)
			return nil
		},
	}, db); err != nil {
		return nil, err
	}
	if c.Albums, err = NewService(Resource[models.Album]{
		Path:    "albums",
		ListKey: "albums",
		Label:   "Album",
		ID:      func(r *models.Album) *uuid.UUID { return &r.ID },
		Prepare: func(_ context.Context, r *models.Album) error {
			r.Genre = cleanList(r.Genre)
			r.Category = cleanList(r.Category)
			r.Artist = cleanList(r.Artist)
			r.Tags = cleanList(r.Tags)
			return nil
		},
	}, db); err != nil {
		return nil, err
	}
	if c.Singles, err = NewService(Resource[models.Single]{
		Path:    "singles",
		ListKey: "singles",
		Label:   "Single",
		ID:      func(r *models.Single) *uuid.UUID { return &r.ID },
		Prepare: func(_ context.Context, r *models.Single) error {
			if r.NumberOfSongs <= 0 {
				r.NumberOfSongs = 1
			}
			r.Genre = cleanList(r.Genre)
			r.Category = cleanList(r.Category)
			r.Tags = cleanList(r.Tags)
			return nil
		},
	}, db); err != nil {
		return nil, err
	}
	if c.Shows, err = NewService(Resource[models.Show]{
		Path:    "shows",
		ListKey: "shows",
		Label:   "Show",
		ID:      func(r *models.Show) *uuid.UUID { return &r.ID },
		Prepare: func(_ context.Context, r *models.Show) error {
			if r.Date.IsZero() {
				return pkgerrors.Field("date", "This field is required.")
			}
			return nil
		},
	}, db); err != nil {
		return nil, err
	}
	if c.ShowBookings, err = NewService(Resource[models.ShowBookingInfo]{
		Path:         "show-booking-info",
		ListKey:      "show_booking_informations",
		Label:        "Show booking information",
		PublicCreate: true,
		PrivateRead:  true,
		ID:           func(r *models.ShowBookingInfo) *uuid.UUID { return &r.ID },
		Prepare: func(_ context.Context, r *models.ShowBookingInfo) error {
			var fields []pkgerrors.FieldError
			for i, d := range r.Dates {
				if !d.Valid() {
					fields = append(fields, pkgerrors.FieldError{
						Field:   fmt.Sprintf("dates.%d", i),
						Message: "start_date must be before end_date.",
					})
				}
			}
			if len(fields) > 0 {
				return pkgerrors.Fields(fields...)
			}
			r.Email = strings.ToLower(strings.TrimSpace(r.Email))
			return nil
		},
	}, db); err != nil {
		return nil, err
	}
	return c, nil
}

// cleanList trims entries and drops blanks; nil becomes empty so JSON
// renders [] rather than null.
func cleanList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, v := range in {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
