package submissions

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/article39/artist-platform-backend/pkg/db/models"
	"github.com/article39/artist-platform-backend/pkg/enums"
	"github.com/article39/artist-platform-backend/pkg/types"
)

// Repository persists onboarding forms and their document lists.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// CreateMusicianTx inserts the form and its documents record.
func (r *Repository) CreateMusicianTx(tx *gorm.DB, sub *models.MusicianSubmission, docs []types.DocumentItem) error {
	if sub.ID == uuid.Nil {
		sub.ID = uuid.New()
	}
	if err := tx.Create(sub).Error; err != nil {
		return err
	}
	return r.createDocumentsTx(tx, sub.ID, enums.SubmissionMusician, docs)
}

func (r *Repository) CreateFilmmakerTx(tx *gorm.DB, sub *models.FilmmakerSubmission, docs []types.DocumentItem) error {
	if sub.ID == uuid.Nil {
		sub.ID = uuid.New()
	}
	if err := tx.Create(sub).Error; err != nil {
		return err
	}
	return r.createDocumentsTx(tx, sub.ID, enums.SubmissionFilmmaker, docs)
}

func (r *Repository) createDocumentsTx(tx *gorm.DB, id uuid.UUID, kind enums.SubmissionKind, docs []types.DocumentItem) error {
	if docs == nil {
		docs = []types.DocumentItem{}
	}
	record := &models.SubmissionDocuments{
		ID:             uuid.New(),
		SubmissionID:   id,
		SubmissionKind: kind,
		Items:          docs,
	}
	return tx.Create(record).Error
}

func (r *Repository) FindMusician(ctx context.Context, id uuid.UUID) (*models.MusicianSubmission, error) {
	var sub models.MusicianSubmission
	if err := r.db.WithContext(ctx).First(&sub, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &sub, nil
}

func (r *Repository) FindFilmmaker(ctx context.Context, id uuid.UUID) (*models.FilmmakerSubmission, error) {
	var sub models.FilmmakerSubmission
	if err := r.db.WithContext(ctx).First(&sub, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &sub, nil
}

// ListMusicians returns one page ordered newest first plus the total row count.
func (r *Repository) ListMusicians(ctx context.Context, offset, limit int) ([]models.MusicianSubmission, int64, error) {
	var (
		rows  []models.MusicianSubmission
		total int64
	)
	q := r.db.WithContext(ctx).Model(&models.MusicianSubmission{})
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := q.Order("created_at DESC").Order("id").Offset(offset).Limit(limit).Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

func (r *Repository) ListFilmmakers(ctx context.Context, offset, limit int) ([]models.FilmmakerSubmission, int64, error) {
	var (
		rows  []models.FilmmakerSubmission
		total int64
	)
	q := r.db.WithContext(ctx).Model(&models.FilmmakerSubmission{})
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := q.Order("created_at DESC").Order("id").Offset(offset).Limit(limit).Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// Documents returns the document lists keyed by submission id.
func (r *Repository) Documents(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID][]types.DocumentItem, error) {
	out := make(map[uuid.UUID][]types.DocumentItem, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var rows []models.SubmissionDocuments
	if err := r.db.WithContext(ctx).Where("submission_id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.SubmissionID] = row.Items
	}
	return out, nil
}

// KindOf reports which table holds id, probing both in one round trip.
func (r *Repository) KindOf(ctx context.Context, id uuid.UUID) (enums.SubmissionKind, error) {
	var kinds []string
	err := r.db.WithContext(ctx).Raw(
		`SELECT 'MUSICIAN' AS kind FROM musician_submissions WHERE id = ?
		 UNION ALL
		 SELECT 'FILMMAKER' AS kind FROM filmmaker_submissions WHERE id = ?`,
		id, id,
	).Scan(&kinds).Error
	if err != nil {
		return "", err
	}
	if len(kinds) == 0 {
		return "", gorm.ErrRecordNotFound
	}
	return enums.SubmissionKind(kinds[0]), nil
}
