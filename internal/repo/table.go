package repo

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Scope narrows a query.
type Scope func(*gorm.DB) *gorm.DB

// Table is a generic repository for models keyed by a uuid id column with
// created_at ordering. Models are expected to assign their own id on create.
type Table[T any] struct {
	db *gorm.DB
}

func NewTable[T any](db *gorm.DB) Table[T] {
	return Table[T]{db: db}
}

func (t Table[T]) conn(ctx context.Context) *gorm.DB {
	if ctx == nil {
		return t.db
	}
	return t.db.WithContext(ctx)
}

func (t Table[T]) Create(ctx context.Context, row *T) error {
	return t.conn(ctx).Create(row).Error
}

// Find returns gorm.ErrRecordNotFound when id does not exist.
func (t Table[T]) Find(ctx context.Context, id uuid.UUID) (*T, error) {
	var row T
	if err := t.conn(ctx).First(&row, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

func (t Table[T]) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	var count int64
	err := t.conn(ctx).Model(new(T)).Where("id = ?", id).Count(&count).Error
	return count > 0, err
}

// Page lists rows newest first.
func (t Table[T]) Page(ctx context.Context, offset, limit int, scopes ...Scope) ([]T, int64, error) {
	q := t.conn(ctx).Model(new(T))
	for _, scope := range scopes {
		q = scope(q)
	}
	var total int64
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var rows []T
	if err := q.Order("created_at DESC").Order("id").Offset(offset).Limit(limit).Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// Save writes every column of row except the omitted ones.
func (t Table[T]) Save(ctx context.Context, row *T, omit ...string) error {
	q := t.conn(ctx)
	if len(omit) > 0 {
		q = q.Omit(omit...)
	}
	return q.Save(row).Error
}

// Delete reports whether a row was removed.
func (t Table[T]) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	res := t.conn(ctx).Where("id = ?", id).Delete(new(T))
	return res.RowsAffected > 0, res.Error
}
