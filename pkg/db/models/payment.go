package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/article39/artist-platform-backend/pkg/enums"
)

// Payment is an artist's request to be paid for a gig. At most one exists
// per (artist_id, gig_id).
type Payment struct {
	ID            uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ArtistID      uuid.UUID           `gorm:"column:artist_id;type:uuid;not null;uniqueIndex:ux_payments_artist_gig"`
	GigID         uuid.UUID           `gorm:"column:gig_id;type:uuid;not null;uniqueIndex:ux_payments_artist_gig"`
	ApplicationID uuid.UUID           `gorm:"column:application_id;type:uuid;not null"`
	Amount        decimal.Decimal     `gorm:"column:amount;type:numeric(12,2);not null;default:0"`
	Method        enums.PaymentMethod `gorm:"column:method;type:text;not null"`
	Status        enums.PaymentStatus `gorm:"column:status;type:text;not null;default:'DUE'"`
	Note          string              `gorm:"column:note;not null;default:''"`
	CreatedAt     time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
