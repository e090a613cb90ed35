package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/article39/artist-platform-backend/pkg/db/models"
	"github.com/article39/artist-platform-backend/pkg/enums"
	"github.com/article39/artist-platform-backend/pkg/logger"
)

// CurrentVersion is stamped on every payload unless the job sets its own.
const CurrentVersion = 1

// ActorRef records the account whose action queued the task.
type ActorRef struct {
	AccountID uuid.UUID `json:"accountId"`
	Role      string    `json:"role,omitempty"`
}

// PayloadEnvelope is the JSON stored in tasks.payload. Handlers only see
// Data; the registry checks Version before dispatch.
type PayloadEnvelope struct {
	Version    int             `json:"version"`
	TaskID     string          `json:"taskId"`
	OccurredAt time.Time       `json:"occurredAt"`
	Actor      *ActorRef       `json:"actor,omitempty"`
	Data       json.RawMessage `json:"data"`
}

// Job describes a task to enqueue.
type Job struct {
	Type          enums.TaskType
	AggregateType enums.AggregateType
	AggregateID   uuid.UUID
	Actor         *ActorRef
	Data          any
	Version       int
	AvailableAt   time.Time
}

type Service struct {
	repo *Repository
	logg *logger.Logger
	now  func() time.Time
}

func NewService(repo *Repository, logg *logger.Logger) *Service {
	return &Service{repo: repo, logg: logg, now: time.Now}
}

// Enqueue writes job inside tx so the task commits or rolls back with the
// state change that produced it.
func (s *Service) Enqueue(ctx context.Context, tx *gorm.DB, job Job) (uuid.UUID, error) {
	if tx == nil {
		return uuid.Nil, errors.New("transaction required")
	}
	if !job.Type.IsValid() {
		return uuid.Nil, errors.New("invalid task type")
	}
	data, err := json.Marshal(job.Data)
	if err != nil {
		return uuid.Nil, err
	}

	now := s.now().UTC()
	if job.Version == 0 {
		job.Version = CurrentVersion
	}
	availableAt := job.AvailableAt
	if availableAt.IsZero() {
		availableAt = now
	}

	taskID := uuid.New()
	envelope := PayloadEnvelope{
		Version:    job.Version,
		TaskID:     taskID.String(),
		OccurredAt: now,
		Actor:      job.Actor,
		Data:       data,
	}
	payload, err := json.Marshal(envelope)
	if err != nil {
		return uuid.Nil, err
	}

	row := &models.Task{
		ID:            taskID,
		TaskType:      job.Type,
		AggregateType: job.AggregateType,
		AggregateID:   job.AggregateID,
		Payload:       payload,
		Status:        enums.TaskStatusQueued,
		AvailableAt:   availableAt,
	}
	if err := s.repo.Insert(tx, row); err != nil {
		return uuid.Nil, err
	}

	if s.logg != nil {
		logCtx := s.logg.WithTask(ctx, taskID.String(), string(job.Type))
		logCtx = s.logg.WithFields(logCtx, map[string]any{
			"aggregate_type": job.AggregateType,
			"aggregate_id":   job.AggregateID.String(),
		})
		s.logg.Info(logCtx, "task queued")
	}
	return taskID, nil
}

// EnqueueUnlessPending skips the insert when an identical task type for the
// same aggregate is still queued or running. It reports whether a task was written.
func (s *Service) EnqueueUnlessPending(ctx context.Context, tx *gorm.DB, job Job) (bool, error) {
	if tx == nil {
		return false, errors.New("transaction required")
	}
	exists, err := s.repo.ExistsPendingTx(tx, job.Type, job.AggregateType, job.AggregateID)
	if err != nil {
		return false, err
	}
	if exists {
		return false, nil
	}
	if _, err := s.Enqueue(ctx, tx, job); err != nil {
		return false, err
	}
	return true, nil
}
