package enums

import (
	"fmt"
	"strings"
)

// SongStatus is the review state of a song.
type SongStatus string

const (
	SongStatusPending  SongStatus = "PENDING"
	SongStatusApproved SongStatus = "APPROVED"
	SongStatusRejected SongStatus = "REJECTED"
)

var validSongStatuses = []SongStatus{SongStatusPending, SongStatusApproved, SongStatusRejected}

func (s SongStatus) String() string {
	return string(s)
}

func (s SongStatus) IsValid() bool {
	for _, candidate := range validSongStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further review transition is allowed.
func (s SongStatus) IsTerminal() bool {
	return s == SongStatusApproved || s == SongStatusRejected
}

// ParseSongStatus accepts any casing, e.g. "approved".
func ParseSongStatus(value string) (SongStatus, error) {
	normalized := strings.ToUpper(strings.TrimSpace(value))
	for _, candidate := range validSongStatuses {
		if string(candidate) == normalized {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid song status %q", value)
}

// UploadStatus tracks the render and publish side effect of an approved song.
type UploadStatus string

const (
	UploadStatusNotUploaded UploadStatus = "NOT_UPLOADED"
	UploadStatusProcessing  UploadStatus = "PROCESSING"
	UploadStatusUploading   UploadStatus = "UPLOADING"
	UploadStatusUploaded    UploadStatus = "UPLOADED"
	UploadStatusFailed      UploadStatus = "FAILED"
)

// uploadStatusRank orders the forward-only pipeline. FAILED may follow any
// non-final stage.
var uploadStatusRank = map[UploadStatus]int{
	UploadStatusNotUploaded: 0,
	UploadStatusProcessing:  1,
	UploadStatusUploading:   2,
	UploadStatusUploaded:    3,
}

func (u UploadStatus) String() string {
	return string(u)
}

func (u UploadStatus) IsValid() bool {
	_, ok := uploadStatusRank[u]
	return ok || u == UploadStatusFailed
}

// CanAdvanceTo reports whether moving from u to next keeps the pipeline
// moving forward.
func (u UploadStatus) CanAdvanceTo(next UploadStatus) bool {
	if u == UploadStatusUploaded {
		return false
	}
	if next == UploadStatusFailed {
		return u != UploadStatusFailed
	}
	if u == UploadStatusFailed {
		// a manual retry starts the pipeline over
		return next == UploadStatusProcessing
	}
	from, okFrom := uploadStatusRank[u]
	to, okTo := uploadStatusRank[next]
	return okFrom && okTo && to > from
}

// PriorUploadStatuses lists the states from which next is a legal move.
func PriorUploadStatuses(next UploadStatus) []UploadStatus {
	out := []UploadStatus{}
	for _, candidate := range []UploadStatus{
		UploadStatusNotUploaded,
		UploadStatusProcessing,
		UploadStatusUploading,
		UploadStatusUploaded,
		UploadStatusFailed,
	} {
		if candidate.CanAdvanceTo(next) {
			out = append(out, candidate)
		}
	}
	return out
}
