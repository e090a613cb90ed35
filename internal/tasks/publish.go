package tasks

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/article39/artist-platform-backend/pkg/db/models"
	"github.com/article39/artist-platform-backend/pkg/enums"
	"github.com/article39/artist-platform-backend/pkg/logger"
	"github.com/article39/artist-platform-backend/pkg/outbox"
	"github.com/article39/artist-platform-backend/pkg/outbox/payloads"
	"github.com/article39/artist-platform-backend/pkg/render"
	"github.com/article39/artist-platform-backend/pkg/youtube"
)

// publishHandler renders an approved song and uploads it. Each stage moves
// upload_status forward so a retried task resumes without going backwards.
type publishHandler struct {
	songs     songRepository
	tasks     enqueuer
	tx        txRunner
	renderer  Renderer
	publisher youtube.Publisher
	enabled   bool
	logg      *logger.Logger
	now       func() time.Time
}

func newPublishHandler(deps Deps) *publishHandler {
	return &publishHandler{
		songs:     deps.Songs,
		tasks:     deps.Tasks,
		tx:        deps.Tx,
		renderer:  deps.Renderer,
		publisher: deps.Publisher,
		enabled:   deps.PublishToYouTube,
		logg:      deps.Logger,
		now:       time.Now,
	}
}

func (h *publishHandler) Handle(ctx context.Context, task models.Task, payload any) error {
	p, err := payloadAs[payloads.SongPublish](task, payload)
	if err != nil {
		return err
	}
	song, err := h.songs.FindByID(ctx, p.SongID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return outbox.Permanent(fmt.Errorf("song %s not found", p.SongID))
		}
		return err
	}
	if song.Status != enums.SongStatusApproved {
		return outbox.Permanent(fmt.Errorf("song %s is %s, not approved", song.ID, song.Status))
	}

	if !h.enabled {
		return h.notify(ctx, song, "")
	}
	if song.UploadStatus == enums.UploadStatusUploaded {
		return nil
	}

	if song.UploadStatus == enums.UploadStatusNotUploaded || song.UploadStatus == enums.UploadStatusFailed {
		if _, err := h.songs.AdvanceUploadStatus(ctx, song.ID, enums.UploadStatusProcessing); err != nil {
			return err
		}
	}

	video, err := h.renderer.Render(ctx, render.Input{AudioURL: song.AudioURL, ThumbnailURL: song.ThumbnailURL})
	if err != nil {
		if render.IsSourceError(err) {
			return outbox.Permanent(err)
		}
		return fmt.Errorf("render song %s: %w", song.ID, err)
	}
	defer video.Cleanup()

	if song.UploadStatus != enums.UploadStatusUploading {
		if _, err := h.songs.AdvanceUploadStatus(ctx, song.ID, enums.UploadStatusUploading); err != nil {
			return err
		}
	}

	videoID, err := h.publisher.Publish(ctx, youtube.Video{
		Path:        video.Path,
		Title:       song.Title,
		Description: song.Description,
		Tags:        song.Tags,
	})
	if err != nil {
		if errors.Is(err, youtube.ErrNotConfigured) {
			return outbox.Permanent(err)
		}
		return fmt.Errorf("publish song %s: %w", song.ID, err)
	}

	url := youtube.WatchURL(videoID)
	err = h.tx.WithTx(ctx, func(tx *gorm.DB) error {
		ok, err := h.songs.MarkUploadedTx(tx, song.ID, videoID, url, h.now().UTC())
		if err != nil {
			return err
		}
		if !ok {
			return outbox.Permanent(fmt.Errorf("song %s left the publish pipeline", song.ID))
		}
		return h.enqueueStatus(ctx, tx, song, url)
	})
	if err != nil {
		return err
	}

	logCtx := h.logg.WithFields(ctx, map[string]any{"song_id": song.ID.String(), "video_id": videoID})
	h.logg.Info(logCtx, "song published")
	return nil
}

// OnExhausted parks the song in FAILED so an admin can see the upload broke.
func (h *publishHandler) OnExhausted(ctx context.Context, task models.Task, payload any, cause error) error {
	p, err := payloadAs[payloads.SongPublish](task, payload)
	if err != nil {
		return err
	}
	if !h.enabled {
		return nil
	}
	if _, err := h.songs.AdvanceUploadStatus(ctx, p.SongID, enums.UploadStatusFailed); err != nil {
		return err
	}
	logCtx := h.logg.WithField(ctx, "song_id", p.SongID.String())
	h.logg.Error(logCtx, "song publish failed", cause)
	return nil
}

func (h *publishHandler) notify(ctx context.Context, song *models.Song, url string) error {
	return h.tx.WithTx(ctx, func(tx *gorm.DB) error {
		return h.enqueueStatus(ctx, tx, song, url)
	})
}

func (h *publishHandler) enqueueStatus(ctx context.Context, tx *gorm.DB, song *models.Song, url string) error {
	_, err := h.tasks.Enqueue(ctx, tx, outbox.Job{
		Type:          enums.TaskEmailSongStatus,
		AggregateType: enums.AggregateSong,
		AggregateID:   song.ID,
		Data: payloads.SongStatusEmail{
			SongID:     song.ID,
			Status:     enums.SongStatusApproved,
			Note:       song.ReviewNote,
			YouTubeURL: url,
		},
	})
	return err
}
