// Package timetrack holds the client-side timer state for the active time
// entry: the Store, the one-second Ticker that advances its clock sample and
// the Indicator that renders it.
package timetrack

import (
	"sync"
	"time"

	"sysgd-timetrack/internal/domain"
)

// Snapshot is a consistent read of both store fields.
type Snapshot struct {
	ActiveEntry *domain.TimeEntry
	Now         time.Time
}

// Store owns the active entry and the latest wall-clock sample. It caches no
// derived state; observers recompute durations from each Snapshot.
//
// The store deep-copies entries it is handed. Entries it returns are shared
// snapshots and must not be mutated.
type Store struct {
	mu     sync.RWMutex
	active *domain.TimeEntry
	now    time.Time

	subs   map[int]chan Snapshot
	nextID int
}

func NewStore(now time.Time) *Store {
	return &Store{now: now, subs: make(map[int]chan Snapshot)}
}

// SetActiveEntry replaces the active entry wholesale with a deep copy of e.
// nil clears it.
func (s *Store) SetActiveEntry(e *domain.TimeEntry) {
	var cp *domain.TimeEntry
	if e != nil {
		v := e.Clone()
		cp = &v
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active = cp
	s.publishLocked()
}

// SetNow records a new clock sample. Only the Ticker writes it.
func (s *Store) SetNow(t time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = t
	s.publishLocked()
}

func (s *Store) ActiveEntry() *domain.TimeEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.active
}

func (s *Store) Now() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.now
}

func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{ActiveEntry: s.active, Now: s.now}
}

// Subscribe registers an observer. The channel receives the current snapshot
// immediately and then one per update. A subscriber that falls behind only
// ever sees the latest snapshot. The returned func unsubscribes and closes
// the channel; calling it more than once is safe.
func (s *Store) Subscribe() (<-chan Snapshot, func()) {
	ch := make(chan Snapshot, 1)

	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = ch
	ch <- Snapshot{ActiveEntry: s.active, Now: s.now}
	s.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs, id)
			s.mu.Unlock()
			close(ch)
		})
	}
}

func (s *Store) publishLocked() {
	snap := Snapshot{ActiveEntry: s.active, Now: s.now}
	for _, ch := range s.subs {
		select {
		case ch <- snap:
			continue
		default:
		}
		// Drop the stale value; publishers hold the lock so the slot stays ours.
		select {
		case <-ch:
		default:
		}
		ch <- snap
	}
}
