package domain

import (
	"strings"
	"time"
)

// Status is the lifecycle state of a time entry. Transitions are owned by the
// backend; the client only reads it.
type Status string

const (
	StatusRunning   Status = "running"
	StatusPaused    Status = "paused"
	StatusCompleted Status = "completed"
)

// ParseStatus normalizes a raw backend status. Unknown values are kept as-is
// so they still render, but only StatusRunning makes a timer advance.
func ParseStatus(s string) Status {
	return Status(strings.ToLower(strings.TrimSpace(s)))
}

// TimeEntry is a read-only snapshot of one interval of tracked work as
// reported by the backend.
type TimeEntry struct {
	ID        string
	UserID    string
	ProjectID *string // nil when time is tracked without a project
	TaskID    *string // nil when time is tracked without a task
	Status    Status

	// DurationSeconds is the banked duration from all prior running
	// segments. nil means nothing banked yet.
	DurationSeconds *float64
	// LastStartedAt is the raw checkpoint of the current running segment.
	// It is kept unparsed so a malformed value degrades at computation time.
	LastStartedAt string

	StartTime *time.Time
	EndTime   *time.Time // nil while open

	// Display-only fields.
	ProjectName string
	TaskTitle   string
	TaskNumber  *int64
	WorkerName  string
	WorkerEmail string
}

// HasTask reports whether the entry is associated with a task.
func (e TimeEntry) HasTask() bool {
	return e.TaskID != nil && strings.TrimSpace(*e.TaskID) != ""
}

// Clone returns a deep copy of e; no pointer field is shared with the
// original.
func (e TimeEntry) Clone() TimeEntry {
	e.ProjectID = clonePtr(e.ProjectID)
	e.TaskID = clonePtr(e.TaskID)
	e.DurationSeconds = clonePtr(e.DurationSeconds)
	e.StartTime = clonePtr(e.StartTime)
	e.EndTime = clonePtr(e.EndTime)
	e.TaskNumber = clonePtr(e.TaskNumber)
	return e
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
