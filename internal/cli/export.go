package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/tbms/internal/core"
)

type exportOptions struct {
	table string
	store string
	out   string
}

func newExportCommand(opts *RootOptions) *cobra.Command {
	eopts := &exportOptions{}

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write table rows as JSON",
		Long: `Write rows as JSON, keyed by table name. With --table only that table
is written as a plain array. With --store only rows of that store are
included, across the tables named by --table or every table.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(cmd, opts, eopts)
		},
	}

	cmd.Flags().StringVarP(&eopts.table, "table", "t", "", "export a single table")
	cmd.Flags().StringVar(&eopts.store, "store", "", "only rows with this storeId")
	cmd.Flags().StringVarP(&eopts.out, "output", "o", "", "write to file instead of stdout")

	return cmd
}

func runExport(cmd *cobra.Command, opts *RootOptions, eopts *exportOptions) error {
	var data any
	err := withSession(cmd.Context(), opts, func(s *session) error {
		ctx := cmd.Context()
		var err error
		switch {
		case eopts.store != "":
			tbls := s.svc.Registry().Names()
			if eopts.table != "" {
				tbls = []string{eopts.table}
			}
			data, err = s.svc.GetStoreData(ctx, eopts.store, tbls)
		case eopts.table != "":
			data, err = s.svc.GetSheet(ctx, eopts.table)
		default:
			data, err = s.svc.GetAll(ctx)
		}
		return err
	})
	if err != nil {
		if core.IsValidation(err) {
			return WrapExitError(ExitCommandError, "export", err)
		}
		return err
	}

	var w io.Writer = cmd.OutOrStdout()
	if eopts.out != "" {
		f, err := os.Create(eopts.out)
		if err != nil {
			return WrapExitError(ExitCommandError, "export", err)
		}
		defer f.Close()
		w = f
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(data); err != nil {
		return fmt.Errorf("encode export: %w", err)
	}
	if eopts.out != "" {
		fmt.Fprintf(cmd.ErrOrStderr(), "wrote %s\n", eopts.out)
	}
	return nil
}
