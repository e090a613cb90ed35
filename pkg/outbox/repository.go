package outbox

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/article39/artist-platform-backend/pkg/db/models"
	"github.com/article39/artist-platform-backend/pkg/enums"
)

const maxErrorLen = 1024

// Filter narrows task listings. Zero values match everything.
type Filter struct {
	Status   enums.TaskStatus
	TaskType enums.TaskType
}

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Insert(tx *gorm.DB, task *models.Task) error {
	if tx == nil {
		return errors.New("transaction required")
	}
	return tx.Create(task).Error
}

// ExistsPendingTx reports whether a queued or running task of the given type
// already targets the aggregate.
func (r *Repository) ExistsPendingTx(tx *gorm.DB, taskType enums.TaskType, aggregateType enums.AggregateType, aggregateID uuid.UUID) (bool, error) {
	var count int64
	err := tx.Model(&models.Task{}).
		Where("task_type = ? AND aggregate_type = ? AND aggregate_id = ?", taskType, aggregateType, aggregateID).
		Where("status IN ?", []enums.TaskStatus{enums.TaskStatusQueued, enums.TaskStatusRunning}).
		Count(&count).Error
	return count > 0, err
}

// Claim locks up to limit runnable tasks, marks them RUNNING and bumps their
// attempt count. A RUNNING task whose started_at is before staleBefore is
// considered abandoned by a dead worker and is claimable again.
func (r *Repository) Claim(ctx context.Context, limit int, now, staleBefore time.Time) ([]models.Task, error) {
	var claimed []models.Task
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var rows []models.Task
		err := tx.Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"}).
			Where("(status = ? AND available_at <= ?) OR (status = ? AND started_at < ?)",
				enums.TaskStatusQueued, now, enums.TaskStatusRunning, staleBefore).
			Order("available_at ASC").
			Order("id ASC").
			Limit(limit).
			Find(&rows).Error
		if err != nil || len(rows) == 0 {
			return err
		}

		ids := make([]uuid.UUID, 0, len(rows))
		for _, row := range rows {
			ids = append(ids, row.ID)
		}
		err = tx.Model(&models.Task{}).
			Where("id IN ?", ids).
			Updates(map[string]any{
				"status":        enums.TaskStatusRunning,
				"started_at":    now,
				"attempt_count": gorm.Expr("attempt_count + 1"),
			}).Error
		if err != nil {
			return err
		}

		for i := range rows {
			rows[i].Status = enums.TaskStatusRunning
			rows[i].StartedAt = &now
			rows[i].AttemptCount++
		}
		claimed = rows
		return nil
	})
	return claimed, err
}

func (r *Repository) MarkSucceeded(ctx context.Context, id uuid.UUID, now time.Time) error {
	return r.db.WithContext(ctx).Model(&models.Task{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":      enums.TaskStatusSucceeded,
			"finished_at": now,
			"last_error":  nil,
		}).Error
}

// MarkRetry puts the task back in the queue after a failed attempt.
func (r *Repository) MarkRetry(ctx context.Context, id uuid.UUID, cause error, availableAt time.Time) error {
	return r.db.WithContext(ctx).Model(&models.Task{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":       enums.TaskStatusQueued,
			"available_at": availableAt,
			"last_error":   truncateError(cause),
		}).Error
}

// MarkFailed records a terminal failure.
func (r *Repository) MarkFailed(ctx context.Context, id uuid.UUID, cause error, now time.Time) error {
	return r.db.WithContext(ctx).Model(&models.Task{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":      enums.TaskStatusFailed,
			"finished_at": now,
			"last_error":  truncateError(cause),
		}).Error
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Task, error) {
	var task models.Task
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&task).Error; err != nil {
		return nil, err
	}
	return &task, nil
}

// List returns a page of tasks, newest first, and the total matching count.
func (r *Repository) List(ctx context.Context, filter Filter, offset, limit int) ([]models.Task, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Task{})
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.TaskType != "" {
		query = query.Where("task_type = ?", filter.TaskType)
	}

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.Task
	err := query.Order("created_at DESC").Order("id DESC").Offset(offset).Limit(limit).Find(&rows).Error
	return rows, total, err
}

// Requeue moves a FAILED task back to QUEUED with a fresh attempt budget.
// It reports false when the task is not in FAILED.
func (r *Repository) Requeue(ctx context.Context, id uuid.UUID, now time.Time) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.Task{}).
		Where("id = ? AND status = ?", id, enums.TaskStatusFailed).
		Updates(map[string]any{
			"status":        enums.TaskStatusQueued,
			"attempt_count": 0,
			"available_at":  now,
			"started_at":    nil,
			"finished_at":   nil,
		})
	return res.RowsAffected > 0, res.Error
}

// DeleteSucceededBefore prunes finished tasks and returns how many were removed.
func (r *Repository) DeleteSucceededBefore(ctx context.Context, before time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("status = ? AND finished_at < ?", enums.TaskStatusSucceeded, before).
		Delete(&models.Task{})
	return res.RowsAffected, res.Error
}

func truncateError(err error) *string {
	if err == nil {
		return nil
	}
	msg := strings.ReplaceAll(err.Error(), "\x00", "")
	if len(msg) > maxErrorLen {
		msg = msg[:maxErrorLen]
	}
	// the cut may split a rune and postgres text rejects invalid UTF-8
	msg = strings.ToValidUTF8(msg, "")
	return &msg
}
