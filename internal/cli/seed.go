package cli

import (
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/JonMunkholm/tbms/internal/core"
)

func newSeedCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "seed <file.yaml>",
		Short: "Seed empty tables from a YAML file",
		Long: `Seed tables from a YAML document that maps table names to lists of rows:

  Stores:
    - id: s1
      name: High Street
  Staff:
    - id: st1
      storeId: s1
      name: Ann

Tables that already hold rows are skipped. Unknown tables are ignored.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sheets, err := readSeedFile(args[0])
			if err != nil {
				return WrapExitError(ExitCommandError, "read seed file", err)
			}
			return withSession(cmd.Context(), opts, func(s *session) error {
				results, err := s.svc.InitData(cmd.Context(), sheets)
				if err != nil {
					return err
				}
				return newOutput(opts, cmd.OutOrStdout()).result(results, func(w io.Writer) {
					names := make([]string, 0, len(results))
					for name := range results {
						names = append(names, name)
					}
					sort.Strings(names)
					for _, name := range names {
						r := results[name]
						if r.Reason != "" {
							fmt.Fprintf(w, "%-20s %s (%s, %d rows)\n", name, r.Status, r.Reason, r.Count)
							continue
						}
						fmt.Fprintf(w, "%-20s %s (%d rows)\n", name, r.Status, r.Count)
					}
				})
			})
		},
	}
}

// readSeedFile decodes a table-to-rows YAML document.
func readSeedFile(path string) (map[string][]core.Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var doc map[string][]map[string]any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if len(doc) == 0 {
		return nil, fmt.Errorf("%s holds no tables", path)
	}

	sheets := make(map[string][]core.Record, len(doc))
	for name, rows := range doc {
		recs := make([]core.Record, 0, len(rows))
		for _, row := range rows {
			recs = append(recs, core.Record(row))
		}
		sheets[name] = recs
	}
	return sheets, nil
}
