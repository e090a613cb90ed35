package songs

import (
	"time"

	"github.com/google/uuid"

	"github.com/article39/artist-platform-backend/pkg/db/models"
	"github.com/article39/artist-platform-backend/pkg/enums"
)

// EnlistInput is the artist's song submission.
type EnlistInput struct {
	Title        string   `json:"title" validate:"required,max=255"`
	AudioURL     string   `json:"audio_url" validate:"required,url"`
	ThumbnailURL string   `json:"thumbnail_url" validate:"required,url"`
	Duration     int      `json:"duration" validate:"required,gt=0"`
	Genre        string   `json:"genre" validate:"required,max=100"`
	Description  string   `json:"description" validate:"max=5000"`
	Tags         []string `json:"tags" validate:"omitempty,max=30,dive,max=100"`
}

// ReviewInput is an admin decision on a pending song.
type ReviewInput struct {
	ID     string `json:"id" validate:"required,uuid"`
	Status string `json:"status" validate:"required"`
	Note   string `json:"note" validate:"max=2000"`
}

// SongView is the API shape of a song.
type SongView struct {
	ID                  uuid.UUID          `json:"id"`
	ArtistID            uuid.UUID          `json:"artist"`
	Title               string             `json:"title"`
	AudioURL            string             `json:"audio_url"`
	ThumbnailURL        string             `json:"thumbnail_url"`
	Duration            int                `json:"duration"`
	Genre               string             `json:"genre"`
	Description         string             `json:"description"`
	Tags                []string           `json:"tags"`
	Status              enums.SongStatus   `json:"status"`
	ReviewNote          string             `json:"review_note,omitempty"`
	UploadStatus        enums.UploadStatus `json:"upload_status"`
	YouTubeVideoID      *string            `json:"youtube_video_id"`
	YouTubeURL          *string            `json:"youtube_url"`
	YouTubeViewCount    int64              `json:"youtube_view_count"`
	YouTubeLikeCount    int64              `json:"youtube_like_count"`
	YouTubeCommentCount int64              `json:"youtube_comment_count"`
	StatsRefreshedAt    *time.Time         `json:"stats_refreshed_at"`
	UploadedAt          *time.Time         `json:"uploaded_at"`
	CreatedAt           time.Time          `json:"created_at"`
}

func NewSongView(s *models.Song) SongView {
	tags := s.Tags
	if tags == nil {
		tags = []string{}
	}
	return SongView{
		ID:                  s.ID,
		ArtistID:            s.ArtistID,
		Title:               s.Title,
		AudioURL:            s.AudioURL,
		ThumbnailURL:        s.ThumbnailURL,
		Duration:            s.Duration,
		Genre:               s.Genre,
		Description:         s.Description,
		Tags:                tags,
		Status:              s.Status,
		ReviewNote:          s.ReviewNote,
		UploadStatus:        s.UploadStatus,
		YouTubeVideoID:      s.YouTubeVideoID,
		YouTubeURL:          s.YouTubeURL,
		YouTubeViewCount:    s.YouTubeViewCount,
		YouTubeLikeCount:    s.YouTubeLikeCount,
		YouTubeCommentCount: s.YouTubeCommentCount,
		StatsRefreshedAt:    s.StatsRefreshedAt,
		UploadedAt:          s.UploadedAt,
		CreatedAt:           s.CreatedAt,
	}
}
