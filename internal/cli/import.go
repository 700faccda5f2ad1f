package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/tbms/internal/core/tables"
	"github.com/JonMunkholm/tbms/internal/importer"
)

type importOptions struct {
	table  string
	sheet  string
	append bool
}

func newImportCommand(opts *RootOptions) *cobra.Command {
	iopts := &importOptions{}

	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Load rows from a .csv, .xlsx or .xls file into a table",
		Long: `Load rows from a spreadsheet export into a table. Header cells are
matched to columns ignoring case, spaces, '-' and '_'. By default the
table is replaced; --append adds the rows instead.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(cmd, opts, iopts, args[0])
		},
	}

	cmd.Flags().StringVarP(&iopts.table, "table", "t", "", "target table (required)")
	cmd.Flags().StringVar(&iopts.sheet, "sheet", "", "worksheet to read (default first)")
	cmd.Flags().BoolVar(&iopts.append, "append", false, "append instead of replacing the table")
	_ = cmd.MarkFlagRequired("table")

	return cmd
}

func runImport(cmd *cobra.Command, opts *RootOptions, iopts *importOptions, path string) error {
	schema, err := tables.Registry().Lookup(iopts.table)
	if err != nil {
		return WrapExitError(ExitCommandError, "import", err)
	}

	f, err := os.Open(path)
	if err != nil {
		return WrapExitError(ExitCommandError, "import", err)
	}
	defer f.Close()

	res, err := importer.ImportFile(f, filepath.Base(path), iopts.sheet, schema)
	if err != nil {
		return WrapExitError(ExitCommandError, "import "+path, err)
	}

	return withSession(cmd.Context(), opts, func(s *session) error {
		ctx := cmd.Context()
		if iopts.append {
			if _, err := s.svc.AppendRows(ctx, schema.Name, res.Records); err != nil {
				return err
			}
		} else if _, err := s.svc.SaveSheet(ctx, schema.Name, res.Records); err != nil {
			return err
		}

		summary := map[string]any{
			"table":   schema.Name,
			"rows":    len(res.Records),
			"append":  iopts.append,
			"ignored": res.Ignored,
			"missing": res.Missing,
		}
		return newOutput(opts, cmd.OutOrStdout()).result(summary, func(w io.Writer) {
			verb := "replaced"
			if iopts.append {
				verb = "appended"
			}
			fmt.Fprintf(w, "%s %d rows in %s\n", verb, len(res.Records), schema.Name)
			if len(res.Ignored) > 0 {
				fmt.Fprintf(w, "ignored columns: %s\n", strings.Join(res.Ignored, ", "))
			}
			if len(res.Missing) > 0 {
				fmt.Fprintf(w, "missing columns: %s\n", strings.Join(res.Missing, ", "))
			}
		})
	})
}
