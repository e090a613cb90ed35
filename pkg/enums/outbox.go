package enums

import "fmt"

// TaskType names a unit of background work stored in the task outbox.
type TaskType string

const (
	TaskEmailCredentials TaskType = "email.credentials"
	TaskEmailSongStatus  TaskType = "email.song_status"
	TaskSongPublish      TaskType = "song.publish"
	TaskSongStatsRefresh TaskType = "song.stats_refresh"
)

var validTaskTypes = []TaskType{
	TaskEmailCredentials,
	TaskEmailSongStatus,
	TaskSongPublish,
	TaskSongStatsRefresh,
}

func (t TaskType) String() string {
	return string(t)
}

// IsValid reports whether the value matches a registered task type.
func (t TaskType) IsValid() bool {
	for _, candidate := range validTaskTypes {
		if candidate == t {
			return true
		}
	}
	return false
}

// ParseTaskType converts raw input into TaskType.
func ParseTaskType(value string) (TaskType, error) {
	for _, candidate := range validTaskTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid task type %q", value)
}

// TaskStatus is the observable state of a queued task.
type TaskStatus string

const (
	TaskStatusQueued    TaskStatus = "QUEUED"
	TaskStatusRunning   TaskStatus = "RUNNING"
	TaskStatusSucceeded TaskStatus = "SUCCEEDED"
	TaskStatusFailed    TaskStatus = "FAILED"
)

var validTaskStatuses = []TaskStatus{
	TaskStatusQueued,
	TaskStatusRunning,
	TaskStatusSucceeded,
	TaskStatusFailed,
}

func (s TaskStatus) String() string {
	return string(s)
}

func (s TaskStatus) IsValid() bool {
	for _, candidate := range validTaskStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseTaskStatus converts raw input into TaskStatus.
func ParseTaskStatus(value string) (TaskStatus, error) {
	for _, candidate := range validTaskStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid task status %q", value)
}

// AggregateType identifies the row a task acts on.
type AggregateType string

const (
	AggregateArtist AggregateType = "artist"
	AggregateSong   AggregateType = "song"
)
