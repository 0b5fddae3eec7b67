package domain

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// checkpointLayouts are tried in order when parsing LastStartedAt. Layouts
// without a zone are read as UTC.
var checkpointLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
}

// ParseCheckpoint parses a LastStartedAt value. ok is false for empty or
// unparseable input.
func ParseCheckpoint(raw string) (t time.Time, ok bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range checkpointLayouts {
		if parsed, err := time.Parse(layout, raw); err == nil {
			return parsed, true
		}
	}
	return time.Time{}, false
}

// BankedSeconds returns the frozen duration, or 0 when it is absent, negative
// or not a finite number.
func (e TimeEntry) BankedSeconds() int64 {
	if e.DurationSeconds == nil {
		return 0
	}
	return wholeSeconds(*e.DurationSeconds)
}

// wholeSeconds floors v into [0, math.MaxInt64]. Non-finite and negative
// values become 0; finite values too large for int64 saturate.
func wholeSeconds(v float64) int64 {
	if math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
		return 0
	}
	// float64(math.MaxInt64) rounds up to 2^63, which does not fit.
	if v >= float64(math.MaxInt64) {
		return math.MaxInt64
	}
	return int64(math.Floor(v))
}

// EntryDurationSeconds returns the whole seconds to display for e at now.
//
// Only a running entry with a parseable checkpoint advances; the open segment
// is floored to whole seconds and clamped at zero so a checkpoint ahead of
// the local clock never makes the total shrink.
func EntryDurationSeconds(e TimeEntry, now time.Time) int64 {
	base := e.BankedSeconds()
	if e.Status != StatusRunning {
		return base
	}
	started, ok := ParseCheckpoint(e.LastStartedAt)
	if !ok {
		return base
	}
	delta := int64(math.Floor(float64(now.Sub(started)) / float64(time.Second)))
	if delta < 0 {
		delta = 0
	}
	if delta > math.MaxInt64-base {
		return math.MaxInt64
	}
	return base + delta
}

// FormatDuration renders seconds as zero-padded HH:MM:SS. Hours are not
// capped. Non-finite and negative inputs render as 00:00:00; values beyond
// math.MaxInt64 seconds saturate.
func FormatDuration(totalSeconds float64) string {
	s := wholeSeconds(totalSeconds)
	hours := s / 3600
	minutes := (s % 3600) / 60
	seconds := s % 60
	return fmt.Sprintf("%02d:%02d:%02d", hours, minutes, seconds)
}
