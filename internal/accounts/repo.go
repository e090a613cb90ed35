package accounts

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/article39/artist-platform-backend/pkg/db/models"
)

// Repository persists login accounts.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) conn(ctx context.Context, tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx.WithContext(ctx)
	}
	return r.db.WithContext(ctx)
}

// Create inserts account. When tx is non-nil the insert joins it.
func (r *Repository) Create(ctx context.Context, tx *gorm.DB, account *models.Account) error {
	if account.ID == uuid.Nil {
		account.ID = uuid.New()
	}
	return r.conn(ctx, tx).Create(account).Error
}

// FindByUsername matches case-insensitively, mirroring the unique index.
func (r *Repository) FindByUsername(ctx context.Context, username string) (*models.Account, error) {
	var account models.Account
	err := r.db.WithContext(ctx).
		Where("lower(username) = ?", strings.ToLower(strings.TrimSpace(username))).
		First(&account).Error
	if err != nil {
		return nil, err
	}
	return &account, nil
}

// FindByLogin matches a username first and falls back to the oldest account
// carrying that email.
func (r *Repository) FindByLogin(ctx context.Context, login string) (*models.Account, error) {
	account, err := r.FindByUsername(ctx, login)
	if err == nil || !errors.Is(err, gorm.ErrRecordNotFound) {
		return account, err
	}
	var byEmail models.Account
	err = r.db.WithContext(ctx).
		Where("lower(email) = ?", strings.ToLower(strings.TrimSpace(login))).
		Order("created_at").
		First(&byEmail).Error
	if err != nil {
		return nil, err
	}
	return &byEmail, nil
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Account, error) {
	var account models.Account
	if err := r.db.WithContext(ctx).First(&account, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &account, nil
}

func (r *Repository) UpdatePasswordHash(ctx context.Context, id uuid.UUID, hash string) error {
	return r.db.WithContext(ctx).
		Model(&models.Account{}).
		Where("id = ?", id).
		Updates(map[string]any{"password_hash": hash, "updated_at": time.Now().UTC()}).Error
}

// UpdateLastLogin refreshes last_login_at without touching updated_at.
func (r *Repository) UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.Account{}).
		Where("id = ?", id).
		UpdateColumn("last_login_at", at).Error
}
