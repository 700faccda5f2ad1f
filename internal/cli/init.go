package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

func newInitCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create missing tables and reconcile every header",
		Long: `Create every registered table that is missing from the workbook,
write its header and migrate sheets whose header differs from the schema.
Running it again on a reconciled workbook changes nothing.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd.Context(), opts, func(s *session) error {
				created, err := s.svc.Init(cmd.Context())
				if err != nil {
					return err
				}
				return newOutput(opts, cmd.OutOrStdout()).result(
					map[string]any{"created": created},
					func(w io.Writer) {
						if len(created) == 0 {
							fmt.Fprintln(w, "All tables present")
							return
						}
						for _, name := range created {
							fmt.Fprintf(w, "created %s\n", name)
						}
					})
			})
		},
	}
}

func newTablesCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "tables",
		Short: "List tables with their row counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd.Context(), opts, func(s *session) error {
				counts, err := s.svc.CountRows(cmd.Context())
				if err != nil {
					return err
				}
				return newOutput(opts, cmd.OutOrStdout()).result(counts, func(w io.Writer) {
					for _, c := range counts {
						fmt.Fprintf(w, "%-20s %d\n", c.Name, c.Rows)
					}
				})
			})
		},
	}
}
