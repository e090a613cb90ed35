package gigs

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/article39/artist-platform-backend/pkg/db/models"
)

// Window restricts listings to gigs whose datetime falls in [From, To).
// Zero bounds are open.
type Window struct {
	From time.Time
	To   time.Time
	// AppliedBy limits results to gigs the artist applied to.
	AppliedBy uuid.UUID
}

// Repository persists gigs.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Create(ctx context.Context, gig *models.Gig) error {
	if gig.ID == uuid.Nil {
		gig.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(gig).Error
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Gig, error) {
	var gig models.Gig
	if err := r.db.WithContext(ctx).First(&gig, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &gig, nil
}

// Update applies the non-nil columns in changes.
func (r *Repository) Update(ctx context.Context, id uuid.UUID, changes map[string]any) error {
	if len(changes) == 0 {
		return nil
	}
	changes["updated_at"] = time.Now().UTC()
	return r.db.WithContext(ctx).Model(&models.Gig{}).Where("id = ?", id).Updates(changes).Error
}

// DeleteTx removes the gig together with its applications and payment requests.
func (r *Repository) DeleteTx(tx *gorm.DB, id uuid.UUID) (bool, error) {
	if err := tx.Where("gig_id = ?", id).Delete(&models.Payment{}).Error; err != nil {
		return false, err
	}
	if err := tx.Where("gig_id = ?", id).Delete(&models.GigApplication{}).Error; err != nil {
		return false, err
	}
	res := tx.Where("id = ?", id).Delete(&models.Gig{})
	return res.RowsAffected == 1, res.Error
}

// List orders by datetime, newest first when desc is set.
func (r *Repository) List(ctx context.Context, w Window, desc bool, offset, limit int) ([]models.Gig, int64, error) {
	q := r.db.WithContext(ctx).Model(&models.Gig{})
	if !w.From.IsZero() {
		q = q.Where("datetime >= ?", w.From)
	}
	if !w.To.IsZero() {
		q = q.Where("datetime < ?", w.To)
	}
	if w.AppliedBy != uuid.Nil {
		q = q.Where("id IN (?)", r.db.Model(&models.GigApplication{}).Select("gig_id").Where("artist_id = ?", w.AppliedBy))
	}
	var total int64
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	order := "datetime ASC"
	if desc {
		order = "datetime DESC"
	}
	var rows []models.Gig
	if err := q.Order(order).Order("id").Offset(offset).Limit(limit).Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}
