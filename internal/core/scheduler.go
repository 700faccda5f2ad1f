package core

// scheduler.go provides background jobs for the workbook.
//
// The backup scheduler writes an xz-compressed snapshot of the workbook on
// a fixed interval and prunes old snapshots beyond the retention count.
// The workbook watcher reloads a file-backed workbook after it is edited
// outside this process. Both go through the gate like any request, are
// context-aware for graceful shutdown and log failures without stopping.

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/ulikunitz/xz"

	"github.com/JonMunkholm/tbms/internal/grid"
)

const (
	backupPrefix = "tbms-"
	backupSuffix = ".xz"
)

// BackupConfig holds configuration for the backup scheduler.
type BackupConfig struct {
	Dir      string        // Where snapshots are written
	Interval time.Duration // How often to run (default: 24h)
	Keep     int           // Snapshots to keep (default: 14)
}

// StartBackupScheduler writes a backup immediately and then every
// Interval until ctx is cancelled.
func (s *Service) StartBackupScheduler(ctx context.Context, cfg BackupConfig) {
	if cfg.Interval <= 0 {
		cfg.Interval = 24 * time.Hour
	}
	if cfg.Keep <= 0 {
		cfg.Keep = 14
	}
	slog.Info("backup scheduler started",
		"dir", cfg.Dir,
		"interval", cfg.Interval.String(),
		"keep", cfg.Keep,
	)

	s.runBackupJob(ctx, cfg)

	ticker := time.NewTicker(cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("backup scheduler stopped")
			return
		case <-ticker.C:
			s.runBackupJob(ctx, cfg)
		}
	}
}

// runBackupJob performs one backup + prune cycle.
func (s *Service) runBackupJob(ctx context.Context, cfg BackupConfig) {
	start := time.Now()

	path, err := s.WriteBackup(ctx, cfg.Dir)
	if err != nil {
		slog.Error("backup failed", "error", err)
		return
	}

	pruned, err := PruneBackups(cfg.Dir, cfg.Keep)
	if err != nil {
		slog.Error("backup prune failed", "error", err)
	}

	slog.Info("backup completed",
		"path", path,
		"pruned", pruned,
		"duration_ms", time.Since(start).Milliseconds(),
	)
}

// WriteBackup writes an xz-compressed workbook snapshot into dir and
// returns its path.
func (s *Service) WriteBackup(ctx context.Context, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}

	name := backupPrefix + s.now().UTC().Format("20060102T150405Z") + snapshotExt(s.book) + backupSuffix
	path := filepath.Join(dir, name)

	tmp, err := os.CreateTemp(dir, ".backup-*")
	if err != nil {
		return "", err
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	zw, err := xz.NewWriter(tmp)
	if err != nil {
		tmp.Close()
		return "", fmt.Errorf("xz writer: %w", err)
	}
	if err := s.Backup(ctx, zw); err != nil {
		tmp.Close()
		return "", fmt.Errorf("snapshot workbook: %w", err)
	}
	if err := zw.Close(); err != nil {
		tmp.Close()
		return "", fmt.Errorf("finish xz stream: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", err
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return "", err
	}
	return path, nil
}

// PruneBackups deletes the oldest backups in dir so that at most keep remain.
func PruneBackups(dir string, keep int) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, err
	}

	var names []string
	for _, e := range entries {
		n := e.Name()
		if !e.IsDir() && strings.HasPrefix(n, backupPrefix) && strings.HasSuffix(n, backupSuffix) {
			names = append(names, n)
		}
	}
	if len(names) <= keep {
		return 0, nil
	}

	// Names embed a sortable UTC timestamp.
	sort.Strings(names)
	removed := 0
	for _, n := range names[:len(names)-keep] {
		if err := os.Remove(filepath.Join(dir, n)); err != nil {
			return removed, err
		}
		removed++
	}
	return removed, nil
}

func snapshotExt(book grid.Workbook) string {
	if _, ok := book.(*grid.Excel); ok {
		return ".xlsx"
	}
	return ".json"
}

// WatchWorkbook reloads the workbook at path whenever it changes on disk.
// It blocks until ctx is cancelled.
func (s *Service) WatchWorkbook(ctx context.Context, path string) error {
	slog.Info("workbook watcher started", "path", path)
	return grid.Watch(ctx, path, func() {
		reloaded, err := s.ReloadIfChanged(ctx)
		if err != nil {
			slog.Error("workbook reload failed", "path", path, "error", err)
			return
		}
		if reloaded {
			slog.Info("workbook reloaded after external edit", "path", path)
		}
	})
}
