package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/article39/artist-platform-backend/pkg/enums"
)

// Task is a unit of background work written in the same transaction as the
// state change that requires it.
type Task struct {
	ID            uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	TaskType      enums.TaskType      `gorm:"column:task_type;type:text;not null"`
	AggregateType enums.AggregateType `gorm:"column:aggregate_type;type:text;not null"`
	AggregateID   uuid.UUID           `gorm:"column:aggregate_id;type:uuid;not null"`
	Payload       json.RawMessage     `gorm:"column:payload;type:jsonb;not null"`
	Status        enums.TaskStatus    `gorm:"column:status;type:text;not null;default:'QUEUED'"`
	AttemptCount  int                 `gorm:"column:attempt_count;not null;default:0"`
	LastError     *string             `gorm:"column:last_error"`
	AvailableAt   time.Time           `gorm:"column:available_at;not null"`
	StartedAt     *time.Time          `gorm:"column:started_at"`
	FinishedAt    *time.Time          `gorm:"column:finished_at"`
	CreatedAt     time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
