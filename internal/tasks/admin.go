package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/article39/artist-platform-backend/pkg/db/models"
	"github.com/article39/artist-platform-backend/pkg/enums"
	pkgerrors "github.com/article39/artist-platform-backend/pkg/errors"
	"github.com/article39/artist-platform-backend/pkg/outbox"
	"github.com/article39/artist-platform-backend/pkg/pagination"
)

const MsgRequeued = "Task re-queued."

// TaskView is the admin representation of a queued task.
type TaskView struct {
	ID            uuid.UUID           `json:"id"`
	TaskType      enums.TaskType      `json:"task_type"`
	AggregateType enums.AggregateType `json:"aggregate_type"`
	AggregateID   uuid.UUID           `json:"aggregate_id"`
	Payload       json.RawMessage     `json:"payload"`
	Status        enums.TaskStatus    `json:"status"`
	AttemptCount  int                 `json:"attempt_count"`
	LastError     *string             `json:"last_error"`
	AvailableAt   time.Time           `json:"available_at"`
	StartedAt     *time.Time          `json:"started_at"`
	FinishedAt    *time.Time          `json:"finished_at"`
	CreatedAt     time.Time           `json:"created_at"`
}

func NewTaskView(t *models.Task) TaskView {
	return TaskView{
		ID:            t.ID,
		TaskType:      t.TaskType,
		AggregateType: t.AggregateType,
		AggregateID:   t.AggregateID,
		Payload:       t.Payload,
		Status:        t.Status,
		AttemptCount:  t.AttemptCount,
		LastError:     t.LastError,
		AvailableAt:   t.AvailableAt,
		StartedAt:     t.StartedAt,
		FinishedAt:    t.FinishedAt,
		CreatedAt:     t.CreatedAt,
	}
}

type RetryInput struct {
	ID string `json:"id" validate:"required"`
}

// AdminService exposes the queue to administrators.
type AdminService interface {
	List(ctx context.Context, status, taskType string, params pagination.Params) ([]TaskView, int64, error)
	Retry(ctx context.Context, in RetryInput) (string, error)
}

type adminRepository interface {
	List(ctx context.Context, filter outbox.Filter, offset, limit int) ([]models.Task, int64, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Task, error)
	Requeue(ctx context.Context, id uuid.UUID, now time.Time) (bool, error)
}

type adminService struct {
	repo adminRepository
	now  func() time.Time
}

func NewAdminService(repo adminRepository) (AdminService, error) {
	if repo == nil {
		return nil, fmt.Errorf("task repository required")
	}
	return &adminService{repo: repo, now: time.Now}, nil
}

func (s *adminService) List(ctx context.Context, status, taskType string, params pagination.Params) ([]TaskView, int64, error) {
	var filter outbox.Filter
	if status = strings.TrimSpace(status); status != "" {
		parsed, err := enums.ParseTaskStatus(strings.ToUpper(status))
		if err != nil {
			return nil, 0, pkgerrors.Field("status", fmt.Sprintf("%q is not a valid choice.", status))
		}
		filter.Status = parsed
	}
	if taskType = strings.TrimSpace(taskType); taskType != "" {
		parsed, err := enums.ParseTaskType(taskType)
		if err != nil {
			return nil, 0, pkgerrors.Field("type", fmt.Sprintf("%q is not a valid choice.", taskType))
		}
		filter.TaskType = parsed
	}

	params = params.Normalize()
	rows, total, err := s.repo.List(ctx, filter, params.Offset(), params.Limit)
	if err != nil {
		return nil, 0, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list tasks")
	}
	if !params.InRange(total) {
		return nil, 0, pkgerrors.New(pkgerrors.CodeNotFound, "Invalid page.")
	}
	out := make([]TaskView, 0, len(rows))
	for i := range rows {
		out = append(out, NewTaskView(&rows[i]))
	}
	return out, total, nil
}

// Retry re-queues a FAILED task with a fresh attempt budget.
func (s *adminService) Retry(ctx context.Context, in RetryInput) (string, error) {
	id, err := uuid.Parse(strings.TrimSpace(in.ID))
	if err != nil {
		return "", pkgerrors.Field("id", "Must be a valid UUID.")
	}
	task, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", pkgerrors.New(pkgerrors.CodeNotFound, "Task not found.")
		}
		return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load task")
	}
	if task.Status != enums.TaskStatusFailed {
		return "", pkgerrors.New(pkgerrors.CodeStateConflict, "Only failed tasks can be retried.")
	}
	ok, err := s.repo.Requeue(ctx, id, s.now().UTC())
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "requeue task")
	}
	if !ok {
		return "", pkgerrors.New(pkgerrors.CodeStateConflict, "Only failed tasks can be retried.")
	}
	return MsgRequeued, nil
}
