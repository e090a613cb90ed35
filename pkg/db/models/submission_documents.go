package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/article39/artist-platform-backend/pkg/enums"
	"github.com/article39/artist-platform-backend/pkg/types"
)

// SubmissionDocuments holds the ordered document list of one submission.
type SubmissionDocuments struct {
	ID             uuid.UUID            `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	SubmissionID   uuid.UUID            `gorm:"column:submission_id;type:uuid;not null;uniqueIndex"`
	SubmissionKind enums.SubmissionKind `gorm:"column:submission_kind;type:text;not null"`
	Items          []types.DocumentItem `gorm:"column:items;type:jsonb;serializer:json;not null"`
	CreatedAt      time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}
