package payloads

import (
	"github.com/google/uuid"

	"github.com/article39/artist-platform-backend/pkg/enums"
)

// CredentialsEmail addresses the login details of a newly provisioned artist.
// The one-time password is issued by the handler and never stored here.
type CredentialsEmail struct {
	AccountID uuid.UUID `json:"account_id"`
	Email     string    `json:"email"`
	Username  string    `json:"username"`
	FullName  string    `json:"full_name"`
}

// SongStatusEmail notifies an artist about a review outcome.
type SongStatusEmail struct {
	SongID     uuid.UUID        `json:"song_id"`
	Status     enums.SongStatus `json:"status"`
	Note       string           `json:"note,omitempty"`
	YouTubeURL string           `json:"youtube_url,omitempty"`
}

// SongPublish renders and publishes an approved song.
type SongPublish struct {
	SongID uuid.UUID `json:"song_id"`
}

// StatsRefresh pulls engagement counters for published songs.
type StatsRefresh struct {
	SongIDs []uuid.UUID `json:"song_ids"`
}
