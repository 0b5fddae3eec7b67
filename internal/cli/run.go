package cli

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"sysgd-timetrack/internal/app"
)

func newRunCmd(opts *rootOptions) *cobra.Command {
	var (
		quiet bool
		addr  string
	)
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Sync the active entry periodically and print the indicator on change",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.HTTP.Addr = addr
			}

			ctx := cmd.Context()
			application, err := app.New(ctx, opts.log, cfg)
			if err != nil {
				opts.log.Error("failed to initialize app", slog.String("error", err.Error()))
				return err
			}
			defer application.Close()

			if cfg.HTTP.Addr != "" {
				srv := application.HTTPServer(cfg.HTTP.Addr)
				go func() {
					if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
						opts.log.Error("http server error", slog.String("error", err.Error()))
					}
				}()
				defer func() {
					shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
					defer cancel()
					_ = srv.Shutdown(shutdownCtx)
				}()
			}

			var out io.Writer = cmd.OutOrStdout()
			if quiet {
				out = nil
			}
			return application.Run(ctx, out)
		},
	}
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Do not print the indicator")
	cmd.Flags().StringVar(&addr, "http", "", "Serve the HTTP API on this address (overrides HTTP_ADDR)")
	return cmd
}
