package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/article39/artist-platform-backend/pkg/enums"
)

// Gig is a bookable performance opportunity published by an admin.
type Gig struct {
	ID          uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Title       string    `gorm:"column:title;not null"`
	Description string    `gorm:"column:description;not null;default:''"`
	Location    string    `gorm:"column:location;not null"`
	CoverImage  string    `gorm:"column:cover_image;not null;default:''"`
	Datetime    time.Time `gorm:"column:datetime;not null;index"`
	CreatedBy   uuid.UUID `gorm:"column:created_by;type:uuid;not null"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// GigApplication is one artist's bid for a gig with one song. The
// (artist_id, gig_id, song_id) triple is unique.
type GigApplication struct {
	ID        uuid.UUID               `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ArtistID  uuid.UUID               `gorm:"column:artist_id;type:uuid;not null;uniqueIndex:ux_gig_applications_triple"`
	GigID     uuid.UUID               `gorm:"column:gig_id;type:uuid;not null;uniqueIndex:ux_gig_applications_triple"`
	SongID    *uuid.UUID              `gorm:"column:song_id;type:uuid;uniqueIndex:ux_gig_applications_triple"`
	Status    enums.ApplicationStatus `gorm:"column:status;type:text;not null;default:'PENDING'"`
	CreatedAt time.Time               `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time               `gorm:"column:updated_at;autoUpdateTime"`
}
