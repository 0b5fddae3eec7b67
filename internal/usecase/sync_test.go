package usecase

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"runtime"
	"sync"
	"testing"
	"time"

	"sysgd-timetrack/internal/domain"
	"sysgd-timetrack/internal/timetrack"
)

var timetrackNow = time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

type fakeBackend struct {
	entry *domain.TimeEntry
	err   error
	block chan struct{}
}

func (f fakeBackend) ActiveEntry(ctx context.Context) (*domain.TimeEntry, error) {
	if f.block != nil {
		<-f.block
	}
	return f.entry, f.err
}

type fakeSink struct {
	mu    sync.Mutex
	got   []domain.TimeEntry
	err   error
	close int
}

func (f *fakeSink) RecordSnapshot(ctx context.Context, e domain.TimeEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.got = append(f.got, e)
	return f.err
}

func (f *fakeSink) Close() error { f.close++; return nil }

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestSyncSetsStoreAndRecords(t *testing.T) {
	store := timetrack.NewStore(timetrackNow)
	sink := &fakeSink{}
	uc := &ActiveEntrySync{
		Log:     discardLogger(),
		Backend: fakeBackend{entry: &domain.TimeEntry{ID: "e1", Status: domain.StatusRunning}},
		Store:   store,
		Sink:    sink,
	}
	got, err := uc.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got == nil || got.ID != "e1" {
		t.Fatalf("expected e1, got %+v", got)
	}
	if a := store.ActiveEntry(); a == nil || a.ID != "e1" {
		t.Fatalf("store not updated: %+v", a)
	}
	if len(sink.got) != 1 || sink.got[0].ID != "e1" {
		t.Fatalf("expected one snapshot, got %+v", sink.got)
	}
}

func TestSyncClearsStoreWhenNone(t *testing.T) {
	store := timetrack.NewStore(timetrackNow)
	store.SetActiveEntry(&domain.TimeEntry{ID: "old"})
	sink := &fakeSink{}
	uc := &ActiveEntrySync{Log: discardLogger(), Backend: fakeBackend{}, Store: store, Sink: sink}

	if _, err := uc.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if store.ActiveEntry() != nil {
		t.Fatalf("expected store cleared")
	}
	if len(sink.got) != 0 {
		t.Fatalf("nothing should be recorded without an entry")
	}
}

func TestSyncTreatsCompletedAsNone(t *testing.T) {
	store := timetrack.NewStore(timetrackNow)
	store.SetActiveEntry(&domain.TimeEntry{ID: "old", Status: domain.StatusRunning})
	uc := &ActiveEntrySync{
		Log:     discardLogger(),
		Backend: fakeBackend{entry: &domain.TimeEntry{ID: "done", Status: domain.StatusCompleted}},
		Store:   store,
	}
	got, err := uc.Run(context.Background())
	if err != nil || got != nil {
		t.Fatalf("expected no entry, got %+v err=%v", got, err)
	}
	if store.ActiveEntry() != nil {
		t.Fatalf("completed entry must not be active")
	}
}

func TestSyncBackendErrorKeepsStore(t *testing.T) {
	store := timetrack.NewStore(timetrackNow)
	store.SetActiveEntry(&domain.TimeEntry{ID: "keep"})
	boom := errors.New("boom")
	uc := &ActiveEntrySync{Log: discardLogger(), Backend: fakeBackend{err: boom}, Store: store}

	if _, err := uc.Run(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("expected wrapped boom, got %v", err)
	}
	if a := store.ActiveEntry(); a == nil || a.ID != "keep" {
		t.Fatalf("store should keep last known entry, got %+v", a)
	}
}

func TestSyncSinkErrorStillUpdatesStore(t *testing.T) {
	store := timetrack.NewStore(timetrackNow)
	sinkErr := errors.New("db down")
	uc := &ActiveEntrySync{
		Log:     discardLogger(),
		Backend: fakeBackend{entry: &domain.TimeEntry{ID: "e1", Status: domain.StatusPaused}},
		Store:   store,
		Sink:    &fakeSink{err: sinkErr},
	}
	got, err := uc.Run(context.Background())
	if !errors.Is(err, sinkErr) {
		t.Fatalf("expected sink error, got %v", err)
	}
	if got == nil || store.ActiveEntry() == nil {
		t.Fatalf("store should be updated before the sink runs")
	}
}

func TestSyncRejectsConcurrentRun(t *testing.T) {
	block := make(chan struct{})
	uc := &ActiveEntrySync{
		Log:     discardLogger(),
		Backend: fakeBackend{block: block},
		Store:   timetrack.NewStore(timetrackNow),
	}
	done := make(chan error, 1)
	go func() {
		_, err := uc.Run(context.Background())
		done <- err
	}()

	// Wait until the first run holds the guard.
	for !uc.running.Load() {
		runtime.Gosched()
	}
	if _, err := uc.Run(context.Background()); !errors.Is(err, ErrSyncRunning) {
		t.Fatalf("expected ErrSyncRunning, got %v", err)
	}
	close(block)
	if err := <-done; err != nil {
		t.Fatalf("first run: %v", err)
	}
}

func TestSyncMissingDependencies(t *testing.T) {
	uc := &ActiveEntrySync{Log: discardLogger()}
	if _, err := uc.Run(context.Background()); err == nil {
		t.Fatalf("expected error")
	}
}
