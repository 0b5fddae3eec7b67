package timetrack

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"sysgd-timetrack/internal/domain"
)

const (
	labelTask   = "Tarea"
	labelNoTask = "Sin tarea"

	StatusTextRunning   = "En curso"
	StatusTextPaused    = "Pausado"
	StatusTextCompleted = "Finalizado"
)

// View is what the indicator shows for the active entry.
type View struct {
	Label          string `json:"label"`
	Status         string `json:"status"`
	Duration       string `json:"duration"`
	ElapsedSeconds int64  `json:"elapsed_seconds"`
	EntryID        string `json:"entry_id"`
}

// ComposeView builds the indicator view for a snapshot. ok is false when
// there is no active entry.
func ComposeView(snap Snapshot) (View, bool) {
	e := snap.ActiveEntry
	if e == nil {
		return View{}, false
	}
	elapsed := domain.EntryDurationSeconds(*e, snap.Now)
	return View{
		Label:          EntryLabel(*e),
		Status:         StatusText(e.Status),
		Duration:       domain.FormatDuration(float64(elapsed)),
		ElapsedSeconds: elapsed,
		EntryID:        e.ID,
	}, true
}

// EntryLabel picks task title, then project name, then a generic label.
func EntryLabel(e domain.TimeEntry) string {
	if s := strings.TrimSpace(e.TaskTitle); s != "" {
		return s
	}
	if s := strings.TrimSpace(e.ProjectName); s != "" {
		return s
	}
	if e.HasTask() {
		return labelTask
	}
	return labelNoTask
}

func StatusText(s domain.Status) string {
	switch s {
	case domain.StatusPaused:
		return StatusTextPaused
	case domain.StatusCompleted:
		return StatusTextCompleted
	default:
		return StatusTextRunning
	}
}

var (
	indicatorLabelStyle = lipgloss.NewStyle().Bold(true)
	indicatorTimeStyle  = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "235", Dark: "252"})

	badgeBase      = lipgloss.NewStyle().Padding(0, 1)
	badgeRunning   = badgeBase.Foreground(lipgloss.Color("255")).Background(lipgloss.AdaptiveColor{Light: "28", Dark: "34"})
	badgePaused    = badgeBase.Foreground(lipgloss.Color("235")).Background(lipgloss.AdaptiveColor{Light: "214", Dark: "220"})
	badgeCompleted = badgeBase.Foreground(lipgloss.Color("255")).Background(lipgloss.AdaptiveColor{Light: "240", Dark: "243"})
)

// RenderView renders a view as a single styled line.
func RenderView(v View) string {
	badge := badgeRunning
	switch v.Status {
	case StatusTextPaused:
		badge = badgePaused
	case StatusTextCompleted:
		badge = badgeCompleted
	}
	return lipgloss.JoinHorizontal(lipgloss.Center,
		indicatorLabelStyle.Render(v.Label),
		" ",
		badge.Render(v.Status),
		" ",
		indicatorTimeStyle.Render(v.Duration),
	)
}

// Indicator presents the store's active entry. It never changes the timer.
type Indicator struct {
	store      *Store
	onActivate func(domain.TimeEntry)
}

// NewIndicator returns an indicator over store. onActivate may be nil.
func NewIndicator(store *Store, onActivate func(domain.TimeEntry)) *Indicator {
	return &Indicator{store: store, onActivate: onActivate}
}

func (i *Indicator) View() (View, bool) {
	return ComposeView(i.store.Snapshot())
}

// Render returns the styled line, or "" when there is no active entry.
func (i *Indicator) Render() string {
	v, ok := i.View()
	if !ok {
		return ""
	}
	return RenderView(v)
}

// Activate hands the active entry to the callback. It reports whether the
// callback ran.
func (i *Indicator) Activate() bool {
	if i.onActivate == nil {
		return false
	}
	e := i.store.ActiveEntry()
	if e == nil {
		return false
	}
	i.onActivate(*e)
	return true
}

// Run re-renders to w on every store update until ctx is done. A line is
// written only when the rendered view changed; when the entry goes away an
// empty line clears the previous output.
func (i *Indicator) Run(ctx context.Context, w io.Writer) error {
	updates, unsubscribe := i.store.Subscribe()
	defer unsubscribe()

	var last string
	shown := false
	for {
		select {
		case <-ctx.Done():
			return nil
		case snap, ok := <-updates:
			if !ok {
				return nil
			}
			v, present := ComposeView(snap)
			if !present {
				if shown {
					shown, last = false, ""
					if _, err := fmt.Fprintln(w); err != nil {
						return err
					}
				}
				continue
			}
			line := RenderView(v)
			if shown && line == last {
				continue
			}
			shown, last = true, line
			if _, err := fmt.Fprintln(w, line); err != nil {
				return err
			}
		}
	}
}
