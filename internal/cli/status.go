package cli

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"sysgd-timetrack/internal/app"
)

const noEntryText = "Sin registro activo"

func newStatusCmd(opts *rootOptions) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Sync once and print the active entry",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			application, err := app.New(ctx, opts.log, cfg)
			if err != nil {
				opts.log.Error("failed to initialize app", slog.String("error", err.Error()))
				return err
			}
			defer application.Close()

			entry, err := application.RunOnce(ctx)
			if err != nil {
				opts.log.Error("sync failed", slog.String("error", err.Error()))
				if entry == nil {
					return err
				}
			}

			v, ok := application.Indicator().View()
			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				if !ok {
					return enc.Encode(nil)
				}
				return enc.Encode(v)
			}
			if !ok {
				_, err := fmt.Fprintln(out, noEntryText)
				return err
			}
			_, err = fmt.Fprintln(out, application.Indicator().Render())
			return err
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the indicator view as JSON")
	return cmd
}
