package tasks

import (
	"context"
	"errors"
	"time"

	"github.com/article39/artist-platform-backend/internal/songs"
	"github.com/article39/artist-platform-backend/pkg/db/models"
	"github.com/article39/artist-platform-backend/pkg/logger"
	"github.com/article39/artist-platform-backend/pkg/outbox"
	"github.com/article39/artist-platform-backend/pkg/outbox/payloads"
	"github.com/article39/artist-platform-backend/pkg/youtube"
)

type statsHandler struct {
	songs songRepository
	stats youtube.StatsFetcher
	logg  *logger.Logger
	now   func() time.Time
}

func newStatsHandler(deps Deps) *statsHandler {
	return &statsHandler{songs: deps.Songs, stats: deps.Stats, logg: deps.Logger, now: time.Now}
}

// Handle refreshes the counters of the published songs named in the payload.
// Songs YouTube no longer returns keep their previous counters.
func (h *statsHandler) Handle(ctx context.Context, task models.Task, payload any) error {
	p, err := payloadAs[payloads.StatsRefresh](task, payload)
	if err != nil {
		return err
	}
	published, err := h.songs.FindPublished(ctx, p.SongIDs)
	if err != nil || len(published) == 0 {
		return err
	}

	videoIDs := make([]string, 0, len(published))
	for _, song := range published {
		videoIDs = append(videoIDs, *song.YouTubeVideoID)
	}
	counters, err := h.stats.Statistics(ctx, videoIDs)
	if err != nil {
		if errors.Is(err, youtube.ErrNotConfigured) {
			return outbox.Permanent(err)
		}
		return err
	}

	now := h.now().UTC()
	updated := 0
	for _, song := range published {
		c, ok := counters[*song.YouTubeVideoID]
		if !ok {
			continue
		}
		if err := h.songs.UpdateStats(ctx, song.ID, songs.Stats{Views: c.Views, Likes: c.Likes, Comments: c.Comments}, now); err != nil {
			return err
		}
		updated++
	}

	logCtx := h.logg.WithFields(ctx, map[string]any{"requested": len(p.SongIDs), "updated": updated})
	h.logg.Debug(logCtx, "song stats refreshed")
	return nil
}
