package gigs

import (
	"time"

	"github.com/google/uuid"

	"github.com/article39/artist-platform-backend/internal/applications"
	"github.com/article39/artist-platform-backend/pkg/db/models"
)

// CreateInput is a new gig.
type CreateInput struct {
	Title       string    `json:"title" validate:"required,max=255"`
	Description string    `json:"description"`
	Location    string    `json:"location" validate:"required,max=255"`
	CoverImage  string    `json:"cover_image" validate:"omitempty,url"`
	Datetime    time.Time `json:"datetime" validate:"required"`
}

// UpdateInput is a partial gig update; nil fields are left unchanged.
type UpdateInput struct {
	ID          string     `json:"id" validate:"required,uuid"`
	Title       *string    `json:"title" validate:"omitempty,min=1,max=255"`
	Description *string    `json:"description"`
	Location    *string    `json:"location" validate:"omitempty,min=1,max=255"`
	CoverImage  *string    `json:"cover_image" validate:"omitempty,url"`
	Datetime    *time.Time `json:"datetime"`
}

// ArtistQuery narrows the open-gig listing for an artist.
type ArtistQuery struct {
	Month  int
	Year   int
	Date   string
	MyGigs bool
}

// GigView is the API shape of a gig. Applications is nil when the viewer is
// anonymous, which drops the key from the JSON.
type GigView struct {
	ID           uuid.UUID                       `json:"id"`
	Title        string                          `json:"title"`
	Description  string                          `json:"description"`
	Location     string                          `json:"location"`
	CoverImage   string                          `json:"cover_image"`
	Datetime     time.Time                       `json:"datetime"`
	CreatedAt    time.Time                       `json:"created_at"`
	Applications *[]applications.ApplicationView `json:"applications,omitempty"`
}

func NewGigView(g *models.Gig) GigView {
	return GigView{
		ID:          g.ID,
		Title:       g.Title,
		Description: g.Description,
		Location:    g.Location,
		CoverImage:  g.CoverImage,
		Datetime:    g.Datetime,
		CreatedAt:   g.CreatedAt,
	}
}
