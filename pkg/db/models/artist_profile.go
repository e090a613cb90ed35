package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/article39/artist-platform-backend/pkg/enums"
)

// ArtistProfile links a verified onboarding submission to its login account.
// Both AccountID and SubmissionID are unique: one profile per account and per
// submission.
type ArtistProfile struct {
	ID           uuid.UUID            `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	AccountID    uuid.UUID            `gorm:"column:account_id;type:uuid;not null;uniqueIndex"`
	SubmissionID uuid.UUID            `gorm:"column:submission_id;type:uuid;not null;uniqueIndex"`
	Kind         enums.SubmissionKind `gorm:"column:kind;type:text;not null"`
	DisplayName  string               `gorm:"column:display_name;not null"`
	IsVerified   bool                 `gorm:"column:is_verified;not null;default:false"`
	VerifiedBy   *uuid.UUID           `gorm:"column:verified_by;type:uuid"`
	CreatedAt    time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}
