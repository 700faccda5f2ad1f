package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/tbms/internal/core"
)

func newBackupCommand(opts *RootOptions) *cobra.Command {
	var dir string
	var keep int

	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Write an xz-compressed snapshot of the workbook",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if dir == "" {
				dir = opts.cfg.Backup.Dir
			}
			if keep < 0 {
				keep = opts.cfg.Backup.Keep
			}
			return withSession(cmd.Context(), opts, func(s *session) error {
				path, err := s.svc.WriteBackup(cmd.Context(), dir)
				if err != nil {
					return err
				}
				pruned := 0
				if keep > 0 {
					if pruned, err = core.PruneBackups(dir, keep); err != nil {
						return err
					}
				}
				return newOutput(opts, cmd.OutOrStdout()).result(
					map[string]any{"path": path, "pruned": pruned},
					func(w io.Writer) {
						fmt.Fprintf(w, "wrote %s\n", path)
						if pruned > 0 {
							fmt.Fprintf(w, "pruned %d old backups\n", pruned)
						}
					})
			})
		},
	}

	cmd.Flags().StringVar(&dir, "dir", "", "backup directory (default BACKUP_DIR)")
	cmd.Flags().IntVar(&keep, "keep", -1, "backups to keep, 0 disables pruning (default BACKUP_KEEP)")

	return cmd
}
