package tui

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"sysgd-timetrack/internal/domain"
	"sysgd-timetrack/internal/timetrack"
)

var t0 = time.Date(2025, 3, 10, 9, 0, 30, 0, time.UTC)

func ptrFloat(v float64) *float64 { return &v }

func runningEntry() *domain.TimeEntry {
	return &domain.TimeEntry{
		ID:              "e1",
		Status:          domain.StatusRunning,
		DurationSeconds: ptrFloat(60),
		LastStartedAt:   "2025-03-10T09:00:00Z",
		ProjectName:     "Archivo central",
	}
}

func keyRunes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestModelFollowsSubscription(t *testing.T) {
	store := timetrack.NewStore(t0)
	updates, unsubscribe := store.Subscribe()
	defer unsubscribe()
	m := New(timetrack.NewIndicator(store, nil), updates)

	msg := m.Init()()
	next, cmd := m.Update(msg)
	m = next.(Model)
	if cmd == nil {
		t.Fatalf("expected the model to keep listening")
	}
	if !strings.Contains(m.View(), "Sin registro activo") {
		t.Fatalf("expected empty state, got %q", m.View())
	}

	store.SetActiveEntry(runningEntry())
	next, _ = m.Update(cmd())
	m = next.(Model)
	out := m.View()
	if !strings.Contains(out, "Archivo central") || !strings.Contains(out, "00:01:30") {
		t.Fatalf("expected rendered entry, got %q", out)
	}

	store.SetNow(t0.Add(10 * time.Second))
	next, _ = m.Update(waitForSnapshot(updates)())
	m = next.(Model)
	if !strings.Contains(m.View(), "00:01:40") {
		t.Fatalf("expected advanced duration, got %q", m.View())
	}
}

func TestModelQuitsWhenSubscriptionCloses(t *testing.T) {
	store := timetrack.NewStore(t0)
	updates, unsubscribe := store.Subscribe()
	m := New(timetrack.NewIndicator(store, nil), updates)
	<-updates
	unsubscribe()

	_, cmd := m.Update(m.Init()())
	if cmd == nil {
		t.Fatalf("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatalf("expected tea.QuitMsg")
	}
}

func TestModelKeys(t *testing.T) {
	store := timetrack.NewStore(t0)
	store.SetActiveEntry(runningEntry())
	var got []string
	ind := timetrack.NewIndicator(store, func(e domain.TimeEntry) { got = append(got, e.ID) })
	updates, unsubscribe := store.Subscribe()
	defer unsubscribe()

	m := New(ind, updates)
	next, _ := m.Update(m.Init()())
	m = next.(Model)

	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = next.(Model)
	if m.activated != 1 || len(got) != 1 || got[0] != "e1" {
		t.Fatalf("enter should activate once: activated=%d got=%v", m.activated, got)
	}

	_, cmd := m.Update(keyRunes("q"))
	if cmd == nil {
		t.Fatalf("q should quit")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatalf("expected tea.QuitMsg")
	}
}

func TestModelEnterWithoutEntryDoesNothing(t *testing.T) {
	store := timetrack.NewStore(t0)
	called := false
	m := New(timetrack.NewIndicator(store, func(domain.TimeEntry) { called = true }), nil)
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if cmd != nil || called || next.(Model).activated != 0 {
		t.Fatalf("enter without entry should be a no-op")
	}
}
