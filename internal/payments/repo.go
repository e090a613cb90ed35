package payments

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/article39/artist-platform-backend/pkg/db/models"
	"github.com/article39/artist-platform-backend/pkg/enums"
)

// Repository persists payment requests.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Create(ctx context.Context, p *models.Payment) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *Repository) ExistsFor(ctx context.Context, artistID, gigID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Payment{}).
		Where("artist_id = ? AND gig_id = ?", artistID, gigID).
		Count(&count).Error
	return count > 0, err
}

// FindForArtist loads one payment owned by artistID.
func (r *Repository) FindForArtist(ctx context.Context, artistID, id uuid.UUID) (*models.Payment, error) {
	var p models.Payment
	if err := r.db.WithContext(ctx).First(&p, "id = ? AND artist_id = ?", id, artistID).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *Repository) ListForArtist(ctx context.Context, artistID uuid.UUID, offset, limit int) ([]models.Payment, int64, error) {
	q := r.db.WithContext(ctx).Model(&models.Payment{}).Where("artist_id = ?", artistID)
	var total int64
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var rows []models.Payment
	if err := q.Order("created_at DESC").Order("id").Offset(offset).Limit(limit).Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// UnrequestedGigs lists gigs the artist applied to that have no payment
// request yet, soonest first.
func (r *Repository) UnrequestedGigs(ctx context.Context, artistID uuid.UUID) ([]models.Gig, error) {
	applied := r.db.Model(&models.GigApplication{}).Select("gig_id").Where("artist_id = ?", artistID)
	requested := r.db.Model(&models.Payment{}).Select("gig_id").Where("artist_id = ?", artistID)
	var rows []models.Gig
	err := r.db.WithContext(ctx).
		Where("id IN (?) AND id NOT IN (?)", applied, requested).
		Order("datetime ASC").
		Find(&rows).Error
	return rows, err
}

// CountByStatus counts one artist's payment requests per status.
func (r *Repository) CountByStatus(ctx context.Context, artistID uuid.UUID) (map[enums.PaymentStatus]int64, error) {
	var rows []struct {
		Status enums.PaymentStatus
		Count  int64
	}
	err := r.db.WithContext(ctx).Model(&models.Payment{}).
		Select("status, COUNT(*) AS count").
		Where("artist_id = ?", artistID).
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := map[enums.PaymentStatus]int64{
		enums.PaymentStatusDue:        0,
		enums.PaymentStatusProcessing: 0,
		enums.PaymentStatusCompleted:  0,
		enums.PaymentStatusRejected:   0,
	}
	for _, row := range rows {
		out[row.Status] = row.Count
	}
	return out, nil
}
