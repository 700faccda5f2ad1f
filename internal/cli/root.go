// Package cli implements tbmsctl, the operator tool that works on the
// workbook directly while the server is stopped.
package cli

import (
	"fmt"
	"log/slog"
	"slices"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/tbms/internal/config"
	"github.com/JonMunkholm/tbms/internal/logging"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Workbook string
	Settings string
	Format   string // "text" | "json"
	Verbose  bool

	cfg *config.Config
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the tbmsctl root command.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:           "tbmsctl",
		Short:         "Offline maintenance for the TBMS workbook",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return NewExitError(ExitCommandError,
					fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}

			level := "warn"
			if opts.Verbose {
				level = "debug"
			}
			slog.SetDefault(logging.New(cmd.ErrOrStderr(), level, "text"))

			cfg, err := loadConfig(opts)
			if err != nil {
				return WrapExitError(ExitCommandError, "configuration", err)
			}
			opts.cfg = cfg
			return nil
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.Workbook, "workbook", "w", "", "workbook path (default WORKBOOK_PATH)")
	cmd.PersistentFlags().StringVar(&opts.Settings, "settings", "", "settings DSN (default SETTINGS_DSN)")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (text|json)")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose logging on stderr")

	cmd.AddCommand(newInitCommand(opts))
	cmd.AddCommand(newTablesCommand(opts))
	cmd.AddCommand(newSeedCommand(opts))
	cmd.AddCommand(newImportCommand(opts))
	cmd.AddCommand(newExportCommand(opts))
	cmd.AddCommand(newBackupCommand(opts))

	return cmd
}

// loadConfig reads the environment and applies flag overrides.
func loadConfig(opts *RootOptions) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if opts.Workbook != "" {
		cfg.Workbook.Path = opts.Workbook
	}
	if opts.Settings != "" {
		cfg.Settings.DSN = opts.Settings
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
