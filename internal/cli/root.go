package cli

import (
	"errors"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"sysgd-timetrack/internal/config"
)

type rootOptions struct {
	configPath string
	verbose    bool
	logJSON    bool

	log *slog.Logger
}

// NewRootCmd returns the sysgd-timer command tree. Logs go to stderr so the
// indicator can own stdout.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:          "sysgd-timer",
		Short:        "Active time entry indicator for SYSGD",
		SilenceUsage: true,
		Example: strings.TrimSpace(`
  # Follow the active entry, printing the indicator on every change
  sysgd-timer run

  # One-shot check, machine readable
  sysgd-timer status --json

  # Full-screen indicator
  sysgd-timer tui
`),
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			opts.log = newLogger(cmd.ErrOrStderr(), opts.verbose, opts.logJSON)
			slog.SetDefault(opts.log)
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "YAML config file (default: $SYSGD_CONFIG)")
	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Enable verbose logging")
	cmd.PersistentFlags().BoolVar(&opts.logJSON, "log-json", false, "Emit logs as JSON")

	cmd.AddCommand(
		newRunCmd(opts),
		newStatusCmd(opts),
		newTUICmd(opts),
		newMigrateCmd(opts),
	)
	return cmd
}

func newLogger(w io.Writer, verbose, asJSON bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	hopts := &slog.HandlerOptions{Level: level}
	if asJSON {
		return slog.New(slog.NewJSONHandler(w, hopts))
	}
	return slog.New(slog.NewTextHandler(w, hopts))
}

func (o *rootOptions) loadConfig() (config.Config, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		o.log.Error("failed to load config", slog.String("error", err.Error()))
		return cfg, err
	}
	return cfg, nil
}

// loadSinkConfig is loadConfig for commands that never talk to the backend.
func (o *rootOptions) loadSinkConfig() (config.Config, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil && !errors.Is(err, config.ErrMissingToken) {
		o.log.Error("failed to load config", slog.String("error", err.Error()))
		return cfg, err
	}
	return cfg, nil
}
