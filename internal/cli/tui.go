package cli

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"sysgd-timetrack/internal/app"
	"sysgd-timetrack/internal/tui"
)

// tuiLogger returns the logger used while the alt screen is up. Anything
// written to the terminal would corrupt the display, so logs go to path or
// nowhere.
func tuiLogger(path string, verbose, asJSON bool) (*slog.Logger, io.Closer, error) {
	if path == "" {
		return slog.New(slog.DiscardHandler), io.NopCloser(nil), nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, err
	}
	return newLogger(f, verbose, asJSON), f, nil
}

func newTUICmd(opts *rootOptions) *cobra.Command {
	var logFile string
	cmd := &cobra.Command{
		Use:   "tui",
		Short: "Full-screen indicator for the active entry",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			log, closer, err := tuiLogger(logFile, opts.verbose, opts.logJSON)
			if err != nil {
				opts.log.Error("failed to open log file", slog.String("error", err.Error()))
				return err
			}
			defer closer.Close()

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			application, err := app.New(ctx, log, cfg)
			if err != nil {
				opts.log.Error("failed to initialize app", slog.String("error", err.Error()))
				return err
			}
			defer application.Close()

			updates, unsubscribe := application.Store().Subscribe()
			defer unsubscribe()

			var wg sync.WaitGroup
			wg.Add(1)
			go func() {
				defer wg.Done()
				if err := application.Run(ctx, nil); err != nil {
					log.Error("sync loop stopped", slog.String("error", err.Error()))
				}
			}()
			defer wg.Wait()
			defer cancel()

			p := tea.NewProgram(
				tui.New(application.Indicator(), updates),
				tea.WithContext(ctx),
				tea.WithOutput(cmd.OutOrStdout()),
				tea.WithAltScreen(),
			)
			if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
				return err
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&logFile, "log-file", "", "Append logs to this file while the TUI runs (default: discard)")
	return cmd
}
