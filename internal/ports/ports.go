package ports

import (
	"context"

	"sysgd-timetrack/internal/domain"
)

// Backend fetches the active time entry for the configured user.
// A nil entry with a nil error means there is no active entry.
type Backend interface {
	ActiveEntry(ctx context.Context) (*domain.TimeEntry, error)
}

// ActiveEntryStore receives the active entry. Implemented by timetrack.Store.
type ActiveEntryStore interface {
	SetActiveEntry(e *domain.TimeEntry)
}

// Sink records snapshots of the active entry as they are observed, keyed by
// entry id so repeated observations upsert.
type Sink interface {
	RecordSnapshot(ctx context.Context, e domain.TimeEntry) error
	Close() error
}
