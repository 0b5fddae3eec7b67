package app

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"sysgd-timetrack/internal/adapter/backend"
	msql "sysgd-timetrack/internal/adapter/mysql"
	"sysgd-timetrack/internal/adapter/sqlite"
	"sysgd-timetrack/internal/config"
	"sysgd-timetrack/internal/domain"
	"sysgd-timetrack/internal/migrate"
	"sysgd-timetrack/internal/ports"
	"sysgd-timetrack/internal/timetrack"
	"sysgd-timetrack/internal/usecase"
)

// App wires adapters, the timer core and the sync use case.
type App struct {
	log       *slog.Logger
	cfg       config.Config
	store     *timetrack.Store
	ticker    *timetrack.Ticker
	indicator *timetrack.Indicator
	uc        *usecase.ActiveEntrySync
	sink      ports.Sink
}

type options struct {
	backend  ports.Backend
	sink     ports.Sink
	clock    timetrack.Clock
	activate func(domain.TimeEntry)
}

// Option overrides a collaborator, mainly for tests and alternative hosts.
type Option func(*options)

func WithBackend(b ports.Backend) Option { return func(o *options) { o.backend = b } }

func WithSink(s ports.Sink) Option { return func(o *options) { o.sink = s } }

func WithClock(c timetrack.Clock) Option { return func(o *options) { o.clock = c } }

// WithActivate sets the indicator's activate callback. The default logs the
// entry.
func WithActivate(fn func(domain.TimeEntry)) Option { return func(o *options) { o.activate = fn } }

func New(ctx context.Context, log *slog.Logger, cfg config.Config, opts ...Option) (*App, error) {
	o := options{clock: timetrack.SystemClock{}}
	for _, opt := range opts {
		opt(&o)
	}
	if o.backend == nil {
		o.backend = backend.NewClient(cfg.Backend.BaseURL, cfg.Backend.APIToken, cfg.Backend.UserID, log)
	}
	if o.sink == nil {
		sink, err := openSink(ctx, log, cfg)
		if err != nil {
			return nil, err
		}
		o.sink = sink
	}
	if o.activate == nil {
		o.activate = func(e domain.TimeEntry) {
			log.Info("active entry selected",
				slog.String("entry_id", e.ID),
				slog.String("label", timetrack.EntryLabel(e)),
				slog.String("status", string(e.Status)),
				slog.String("worker", e.WorkerName),
			)
		}
	}

	store := timetrack.NewStore(o.clock.Now())
	a := &App{
		log:       log,
		cfg:       cfg,
		store:     store,
		ticker:    timetrack.NewTicker(store, timetrack.WithClock(o.clock), timetrack.WithInterval(cfg.Ticker.Interval)),
		indicator: timetrack.NewIndicator(store, o.activate),
		sink:      o.sink,
		uc: &usecase.ActiveEntrySync{
			Log:     log,
			Backend: o.backend,
			Store:   store,
			Sink:    o.sink,
		},
	}
	return a, nil
}

// openSink returns the configured snapshot sink, or nil when none is set.
func openSink(ctx context.Context, log *slog.Logger, cfg config.Config) (ports.Sink, error) {
	switch {
	case cfg.MySQL.DSN != "":
		if err := migrate.Run(ctx, cfg.MySQL.DSN, log); err != nil {
			return nil, err
		}
		return msql.NewClient(ctx, cfg.MySQL.DSN, log)
	case cfg.SQLite.Path != "":
		return sqlite.NewClient(ctx, cfg.SQLite.Path, log)
	default:
		return nil, nil
	}
}

func (a *App) Store() *timetrack.Store { return a.store }

func (a *App) Indicator() *timetrack.Indicator { return a.indicator }

// RunOnce performs a single sync.
func (a *App) RunOnce(ctx context.Context) (*domain.TimeEntry, error) {
	return a.uc.Run(ctx)
}

// Run starts the ticker, syncs immediately and then every Sync.Interval, and
// renders the indicator to out (nil disables rendering). It returns when ctx
// is done, after the ticker has stopped.
func (a *App) Run(ctx context.Context, out io.Writer) error {
	if err := a.ticker.Start(ctx); err != nil {
		return err
	}
	defer a.ticker.Stop()

	var wg sync.WaitGroup
	if out != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := a.indicator.Run(ctx, out); err != nil {
				a.log.Error("indicator stopped", slog.String("error", err.Error()))
			}
		}()
	}
	defer wg.Wait()

	a.log.Info("starting periodic sync", slog.Duration("interval", a.cfg.Sync.Interval))
	a.syncLogged(ctx, "initial sync failed")

	t := time.NewTicker(a.cfg.Sync.Interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			a.log.Info("shutting down")
			return nil
		case <-t.C:
			a.syncLogged(ctx, "periodic sync failed")
		}
	}
}

func (a *App) syncLogged(ctx context.Context, msg string) {
	if _, err := a.uc.Run(ctx); err != nil {
		if errors.Is(err, usecase.ErrSyncRunning) {
			a.log.Debug("sync skipped; already running")
			return
		}
		a.log.Error(msg, slog.String("error", err.Error()))
	}
}

// Close releases the sink, if any.
func (a *App) Close() error {
	a.ticker.Stop()
	if a.sink == nil {
		return nil
	}
	return a.sink.Close()
}
