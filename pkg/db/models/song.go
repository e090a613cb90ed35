package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/article39/artist-platform-backend/pkg/enums"
)

// Song is an artist's track under review and, once approved, its published video.
type Song struct {
	ID                  uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ArtistID            uuid.UUID          `gorm:"column:artist_id;type:uuid;not null;index"`
	Title               string             `gorm:"column:title;not null"`
	AudioURL            string             `gorm:"column:audio_url;not null"`
	ThumbnailURL        string             `gorm:"column:thumbnail_url;not null"`
	Duration            int                `gorm:"column:duration;not null"`
	Genre               string             `gorm:"column:genre;not null;default:''"`
	Description         string             `gorm:"column:description;not null;default:''"`
	Tags                []string           `gorm:"column:tags;type:jsonb;serializer:json"`
	Status              enums.SongStatus   `gorm:"column:status;type:text;not null;default:'PENDING'"`
	ReviewNote          string             `gorm:"column:review_note;not null;default:''"`
	ReviewedAt          *time.Time         `gorm:"column:reviewed_at"`
	UploadStatus        enums.UploadStatus `gorm:"column:upload_status;type:text;not null;default:'NOT_UPLOADED'"`
	YouTubeVideoID      *string            `gorm:"column:youtube_video_id"`
	YouTubeURL          *string            `gorm:"column:youtube_url"`
	YouTubeViewCount    int64              `gorm:"column:youtube_view_count;not null;default:0"`
	YouTubeLikeCount    int64              `gorm:"column:youtube_like_count;not null;default:0"`
	YouTubeCommentCount int64              `gorm:"column:youtube_comment_count;not null;default:0"`
	StatsRefreshedAt    *time.Time         `gorm:"column:stats_refreshed_at"`
	UploadedAt          *time.Time         `gorm:"column:uploaded_at"`
	CreatedAt           time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt           time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}
