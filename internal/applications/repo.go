package applications

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/article39/artist-platform-backend/pkg/db/models"
	"github.com/article39/artist-platform-backend/pkg/enums"
)

// Filter narrows admin application listings.
type Filter struct {
	GigID  uuid.UUID
	Status enums.ApplicationStatus
}

// Repository persists gig applications.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Create(ctx context.Context, app *models.GigApplication) error {
	if app.ID == uuid.Nil {
		app.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(app).Error
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.GigApplication, error) {
	var app models.GigApplication
	if err := r.db.WithContext(ctx).First(&app, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &app, nil
}

// Exists reports whether the (artist, gig, song) triple was already used.
func (r *Repository) Exists(ctx context.Context, artistID, gigID uuid.UUID, songID *uuid.UUID) (bool, error) {
	q := r.db.WithContext(ctx).Model(&models.GigApplication{}).
		Where("artist_id = ? AND gig_id = ?", artistID, gigID)
	if songID == nil {
		q = q.Where("song_id IS NULL")
	} else {
		q = q.Where("song_id = ?", *songID)
	}
	var count int64
	if err := q.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// HasApplied reports whether the artist has any application for the gig.
func (r *Repository) HasApplied(ctx context.Context, artistID, gigID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.GigApplication{}).
		Where("artist_id = ? AND gig_id = ?", artistID, gigID).
		Count(&count).Error
	return count > 0, err
}

// FirstFor returns the artist's earliest application for the gig.
func (r *Repository) FirstFor(ctx context.Context, artistID, gigID uuid.UUID) (*models.GigApplication, error) {
	var app models.GigApplication
	err := r.db.WithContext(ctx).
		Where("artist_id = ? AND gig_id = ?", artistID, gigID).
		Order("created_at").
		First(&app).Error
	if err != nil {
		return nil, err
	}
	return &app, nil
}

// ForArtist groups the artist's applications by gig for the given gigs.
func (r *Repository) ForArtist(ctx context.Context, artistID uuid.UUID, gigIDs []uuid.UUID) (map[uuid.UUID][]models.GigApplication, error) {
	out := make(map[uuid.UUID][]models.GigApplication, len(gigIDs))
	if len(gigIDs) == 0 {
		return out, nil
	}
	var rows []models.GigApplication
	err := r.db.WithContext(ctx).
		Where("artist_id = ? AND gig_id IN ?", artistID, gigIDs).
		Order("created_at").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.GigID] = append(out[row.GigID], row)
	}
	return out, nil
}

func (r *Repository) List(ctx context.Context, filter Filter, offset, limit int) ([]models.GigApplication, int64, error) {
	q := r.db.WithContext(ctx).Model(&models.GigApplication{})
	if filter.GigID != uuid.Nil {
		q = q.Where("gig_id = ?", filter.GigID)
	}
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	var total int64
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var rows []models.GigApplication
	if err := q.Order("created_at DESC").Order("id").Offset(offset).Limit(limit).Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

func (r *Repository) UpdateStatus(ctx context.Context, id uuid.UUID, status enums.ApplicationStatus) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.GigApplication{}).
		Where("id = ?", id).
		Update("status", status)
	return res.RowsAffected == 1, res.Error
}

// CountForArtist counts the artist's applications.
func (r *Repository) CountForArtist(ctx context.Context, artistID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.GigApplication{}).
		Where("artist_id = ?", artistID).
		Count(&count).Error
	return count, err
}
