package songs

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/article39/artist-platform-backend/pkg/db/models"
	"github.com/article39/artist-platform-backend/pkg/enums"
)

// Filter narrows song listings. Zero values mean no constraint.
type Filter struct {
	ArtistID uuid.UUID
	Status   enums.SongStatus
}

// Stats are engagement counters read from the video platform.
type Stats struct {
	Views    int64
	Likes    int64
	Comments int64
}

// Repository persists songs and their publish state.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Create(ctx context.Context, song *models.Song) error {
	if song.ID == uuid.Nil {
		song.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(song).Error
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Song, error) {
	var song models.Song
	if err := r.db.WithContext(ctx).First(&song, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &song, nil
}

// FindByIDTx reads inside tx.
func (r *Repository) FindByIDTx(tx *gorm.DB, id uuid.UUID) (*models.Song, error) {
	var song models.Song
	if err := tx.First(&song, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &song, nil
}

func (r *Repository) List(ctx context.Context, filter Filter, offset, limit int) ([]models.Song, int64, error) {
	q := r.db.WithContext(ctx).Model(&models.Song{})
	if filter.ArtistID != uuid.Nil {
		q = q.Where("artist_id = ?", filter.ArtistID)
	}
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	var total int64
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var rows []models.Song
	if err := q.Order("created_at DESC").Order("id").Offset(offset).Limit(limit).Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// ReviewTx moves a PENDING song to status. It reports false when the song
// was no longer pending, so concurrent reviews cannot both win.
func (r *Repository) ReviewTx(tx *gorm.DB, id uuid.UUID, status enums.SongStatus, note string, at time.Time) (bool, error) {
	res := tx.Model(&models.Song{}).
		Where("id = ? AND status = ?", id, enums.SongStatusPending).
		Updates(map[string]any{
			"status":      status,
			"review_note": note,
			"reviewed_at": at,
			"updated_at":  at,
		})
	return res.RowsAffected == 1, res.Error
}

// AdvanceUploadStatus moves the publish pipeline forward. A move that would
// go backwards matches no row and reports false.
func (r *Repository) AdvanceUploadStatus(ctx context.Context, id uuid.UUID, next enums.UploadStatus) (bool, error) {
	prior := enums.PriorUploadStatuses(next)
	if len(prior) == 0 {
		return false, nil
	}
	res := r.db.WithContext(ctx).Model(&models.Song{}).
		Where("id = ? AND status = ? AND upload_status IN ?", id, enums.SongStatusApproved, prior).
		Updates(map[string]any{"upload_status": next, "updated_at": time.Now().UTC()})
	return res.RowsAffected == 1, res.Error
}

// MarkUploadedTx records the published video and resets engagement counters.
func (r *Repository) MarkUploadedTx(tx *gorm.DB, id uuid.UUID, videoID, videoURL string, at time.Time) (bool, error) {
	res := tx.Model(&models.Song{}).
		Where("id = ? AND upload_status IN ?", id, enums.PriorUploadStatuses(enums.UploadStatusUploaded)).
		Updates(map[string]any{
			"upload_status":         enums.UploadStatusUploaded,
			"youtube_video_id":      videoID,
			"youtube_url":           videoURL,
			"youtube_view_count":    0,
			"youtube_like_count":    0,
			"youtube_comment_count": 0,
			"uploaded_at":           at,
			"updated_at":            at,
		})
	return res.RowsAffected == 1, res.Error
}

// UpdateStats stores the latest counters for one song.
func (r *Repository) UpdateStats(ctx context.Context, id uuid.UUID, stats Stats, at time.Time) error {
	return r.db.WithContext(ctx).Model(&models.Song{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"youtube_view_count":    stats.Views,
			"youtube_like_count":    stats.Likes,
			"youtube_comment_count": stats.Comments,
			"stats_refreshed_at":    at,
		}).Error
}

// FindPublished returns the uploaded songs among ids.
func (r *Repository) FindPublished(ctx context.Context, ids []uuid.UUID) ([]models.Song, error) {
	var rows []models.Song
	if len(ids) == 0 {
		return rows, nil
	}
	err := r.db.WithContext(ctx).
		Where("id IN ? AND upload_status = ? AND youtube_video_id IS NOT NULL", ids, enums.UploadStatusUploaded).
		Find(&rows).Error
	return rows, err
}

// StaleUploaded lists uploaded songs whose counters were last refreshed
// before cutoff, oldest first.
func (r *Repository) StaleUploaded(ctx context.Context, cutoff time.Time, limit int) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).Model(&models.Song{}).
		Where("upload_status = ?", enums.UploadStatusUploaded).
		Where("stats_refreshed_at IS NULL OR stats_refreshed_at < ?", cutoff).
		Order("stats_refreshed_at").
		Limit(limit).
		Pluck("id", &ids).Error
	return ids, err
}

// CountByStatus counts one artist's songs per review status.
func (r *Repository) CountByStatus(ctx context.Context, artistID uuid.UUID) (map[enums.SongStatus]int64, error) {
	var rows []struct {
		Status enums.SongStatus
		Count  int64
	}
	err := r.db.WithContext(ctx).Model(&models.Song{}).
		Select("status, COUNT(*) AS count").
		Where("artist_id = ?", artistID).
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := map[enums.SongStatus]int64{
		enums.SongStatusPending:  0,
		enums.SongStatusApproved: 0,
		enums.SongStatusRejected: 0,
	}
	for _, row := range rows {
		out[row.Status] = row.Count
	}
	return out, nil
}

// RecentUploaded returns an artist's most recently published songs.
func (r *Repository) RecentUploaded(ctx context.Context, artistID uuid.UUID, limit int) ([]models.Song, error) {
	var rows []models.Song
	err := r.db.WithContext(ctx).
		Where("artist_id = ? AND upload_status = ?", artistID, enums.UploadStatusUploaded).
		Order("uploaded_at DESC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}

// FindOwned returns the songs among ids that belong to artistID.
func (r *Repository) FindOwned(ctx context.Context, artistID uuid.UUID, ids []uuid.UUID) ([]models.Song, error) {
	var rows []models.Song
	if len(ids) == 0 {
		return rows, nil
	}
	err := r.db.WithContext(ctx).
		Where("artist_id = ? AND id IN ?", artistID, ids).
		Find(&rows).Error
	return rows, err
}
