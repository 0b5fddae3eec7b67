package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/google/uuid"

	"sysgd-timetrack/internal/domain"
	"sysgd-timetrack/internal/ports"
)

// ErrSyncRunning is returned when a sync is requested while one is in flight.
var ErrSyncRunning = errors.New("sync already running")

// ActiveEntrySync pulls the active entry from the backend into the store and
// optionally records it to a Sink.
type ActiveEntrySync struct {
	Log     *slog.Logger
	Backend ports.Backend
	Store   ports.ActiveEntryStore
	Sink    ports.Sink // optional

	running atomic.Bool
}

// Run performs one sync and returns the entry now held by the store (nil for
// none). A completed entry is never shown as active.
func (uc *ActiveEntrySync) Run(ctx context.Context) (*domain.TimeEntry, error) {
	if uc.Backend == nil || uc.Store == nil {
		return nil, errors.New("usecase not initialized: missing dependencies")
	}
	if !uc.running.CompareAndSwap(false, true) {
		return nil, ErrSyncRunning
	}
	defer uc.running.Store(false)

	log := uc.Log.With(slog.String("run_id", uuid.NewString()))
	log.Debug("fetching active entry")

	entry, err := uc.Backend.ActiveEntry(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching active entry: %w", err)
	}
	if entry != nil && entry.Status == domain.StatusCompleted {
		log.Info("backend returned a completed entry; clearing", slog.String("entry_id", entry.ID))
		entry = nil
	}

	uc.Store.SetActiveEntry(entry)
	if entry == nil {
		log.Debug("no active entry")
		return nil, nil
	}
	log.Info("active entry synced",
		slog.String("entry_id", entry.ID),
		slog.String("status", string(entry.Status)),
		slog.Int64("banked_seconds", entry.BankedSeconds()),
	)

	if uc.Sink != nil {
		if err := uc.Sink.RecordSnapshot(ctx, *entry); err != nil {
			return entry, fmt.Errorf("recording snapshot: %w", err)
		}
	}
	return entry, nil
}
