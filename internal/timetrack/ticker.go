package timetrack

import (
	"context"
	"errors"
	"sync"
	"time"
)

// DefaultTickInterval is the cadence at which the Ticker samples the clock.
const DefaultTickInterval = time.Second

// ErrTickerRunning is returned by Start when the ticker is already ticking.
var ErrTickerRunning = errors.New("ticker already running")

// Clock abstracts wall-clock time and repeating timers. The Ticker only uses
// ticks as a signal and samples Now when it handles one.
type Clock interface {
	Now() time.Time
	NewTicker(d time.Duration) TickerHandle
}

// TickerHandle is a single repeating timer.
type TickerHandle interface {
	C() <-chan time.Time
	Stop()
}

// SystemClock is the real wall clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

func (SystemClock) NewTicker(d time.Duration) TickerHandle {
	return systemTicker{time.NewTicker(d)}
}

type systemTicker struct{ t *time.Ticker }

func (s systemTicker) C() <-chan time.Time { return s.t.C }
func (s systemTicker) Stop()               { s.t.Stop() }

// NowSetter is the part of the Store the Ticker writes to.
type NowSetter interface {
	SetNow(time.Time)
}

// Ticker advances the store's clock sample on a fixed cadence while started.
// It has two states: idle and ticking. Each Start creates a fresh timer and
// each Stop cancels it exactly once.
type Ticker struct {
	target   NowSetter
	clock    Clock
	interval time.Duration

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

type TickerOption func(*Ticker)

func WithClock(c Clock) TickerOption {
	return func(t *Ticker) { t.clock = c }
}

// WithInterval overrides the cadence. Non-positive values are ignored.
func WithInterval(d time.Duration) TickerOption {
	return func(t *Ticker) {
		if d > 0 {
			t.interval = d
		}
	}
}

func NewTicker(target NowSetter, opts ...TickerOption) *Ticker {
	t := &Ticker{target: target, clock: SystemClock{}, interval: DefaultTickInterval}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Start moves the ticker from idle to ticking. The ticker also stops when ctx
// is cancelled.
func (t *Ticker) Start(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.done != nil {
		select {
		case <-t.done:
			// Stopped through ctx; allow a fresh start.
			t.cancel()
		default:
			return ErrTickerRunning
		}
	}

	ctx, cancel := context.WithCancel(ctx)
	handle := t.clock.NewTicker(t.interval)
	done := make(chan struct{})
	t.cancel = cancel
	t.done = done

	go func() {
		defer close(done)
		defer handle.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-handle.C():
				t.target.SetNow(t.clock.Now())
			}
		}
	}()
	return nil
}

// Stop returns the ticker to idle and waits until no further tick can reach
// the store. Stopping an idle ticker is a no-op.
func (t *Ticker) Stop() {
	t.mu.Lock()
	cancel, done := t.cancel, t.done
	t.cancel, t.done = nil, nil
	t.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// Running reports whether the ticker is ticking.
func (t *Ticker) Running() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.done == nil {
		return false
	}
	select {
	case <-t.done:
		return false
	default:
		return true
	}
}
