package cli

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"sysgd-timetrack/internal/adapter/sqlite"
	"sysgd-timetrack/internal/migrate"
)

var errNoSink = errors.New("no snapshot sink configured: set MYSQL_DSN or SQLITE_PATH")

func newMigrateCmd(opts *rootOptions) *cobra.Command {
	var list bool
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply snapshot sink migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if list {
				ms, err := migrate.Available()
				if err != nil {
					return err
				}
				for _, m := range ms {
					fmt.Fprintf(out, "%04d %s\n", m.Version, m.File)
				}
				return nil
			}

			cfg, err := opts.loadSinkConfig()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			switch {
			case cfg.MySQL.DSN != "":
				if err := migrate.Run(ctx, cfg.MySQL.DSN, opts.log); err != nil {
					opts.log.Error("migration failed", slog.String("error", err.Error()))
					return err
				}
			case cfg.SQLite.Path != "":
				c, err := sqlite.NewClient(ctx, cfg.SQLite.Path, opts.log)
				if err != nil {
					opts.log.Error("migration failed", slog.String("error", err.Error()))
					return err
				}
				if err := c.Close(); err != nil {
					return err
				}
			default:
				return errNoSink
			}
			fmt.Fprintln(out, "migrations applied")
			return nil
		},
	}
	cmd.Flags().BoolVar(&list, "list", false, "List embedded MySQL migrations and exit")
	return cmd
}
