package applications

import (
	"time"

	"github.com/google/uuid"

	"github.com/article39/artist-platform-backend/pkg/db/models"
	"github.com/article39/artist-platform-backend/pkg/enums"
)

// ApplyInput is an artist's application to one gig with one or more songs.
type ApplyInput struct {
	GigID   string   `json:"gig_id" validate:"required,uuid"`
	SongIDs []string `json:"song_ids" validate:"required,min=1,dive,required"`
}

// StatusInput is an admin decision on an application.
type StatusInput struct {
	ID     string `json:"id" validate:"required,uuid"`
	Status string `json:"status" validate:"required"`
}

type ApplicationView struct {
	ID        uuid.UUID               `json:"id"`
	ArtistID  uuid.UUID               `json:"artist"`
	GigID     uuid.UUID               `json:"gig"`
	SongID    *uuid.UUID              `json:"song"`
	Status    enums.ApplicationStatus `json:"status"`
	CreatedAt time.Time               `json:"created_at"`
}

func NewView(a *models.GigApplication) ApplicationView {
	return ApplicationView{
		ID:        a.ID,
		ArtistID:  a.ArtistID,
		GigID:     a.GigID,
		SongID:    a.SongID,
		Status:    a.Status,
		CreatedAt: a.CreatedAt,
	}
}

// Failure explains why one song could not be applied.
type Failure struct {
	SongID  string `json:"song_id"`
	Message string `json:"message"`
}

// ApplyResult reports per-song outcomes.
type ApplyResult struct {
	Created []ApplicationView `json:"created"`
	Failed  []Failure         `json:"failed"`
}
