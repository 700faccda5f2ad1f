package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/JonMunkholm/tbms/internal/config"
	"github.com/JonMunkholm/tbms/internal/core"
	"github.com/JonMunkholm/tbms/internal/core/tables"
	"github.com/JonMunkholm/tbms/internal/grid"
	"github.com/JonMunkholm/tbms/internal/logging"
	"github.com/JonMunkholm/tbms/internal/photos"
	"github.com/JonMunkholm/tbms/internal/settings"
	"github.com/JonMunkholm/tbms/internal/web"
)

func main() {
	// Overload lets a local .env win over inherited variables.
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Info("configuration loaded", "config", cfg.String())

	loc, err := cfg.Workbook.Location()
	if err != nil {
		slog.Error("invalid workbook timezone", "error", err)
		os.Exit(1)
	}

	if err := os.MkdirAll(filepath.Dir(cfg.Workbook.Path), 0o755); err != nil {
		slog.Error("failed to create workbook directory", "error", err)
		os.Exit(1)
	}
	book, err := grid.OpenExcel(cfg.Workbook.Path, loc)
	if err != nil {
		slog.Error("failed to open workbook", "path", cfg.Workbook.Path, "error", err)
		os.Exit(1)
	}
	defer book.Close()

	ctx := context.Background()
	store, err := settings.Open(ctx, cfg.Settings.DSN)
	if err != nil {
		slog.Error("failed to open settings store", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	photoStore, err := photos.NewStore(cfg.Photos.Dir, cfg.Photos.MaxDimension)
	if err != nil {
		slog.Error("failed to open photo store", "error", err)
		os.Exit(1)
	}

	service, err := core.NewService(core.Options{
		Registry: tables.Registry(),
		Workbook: book,
		Settings: store,
		Photos:   photoStore,
		Location: loc,
		LockWait: cfg.Lock.WaitTimeout,
		Version:  cfg.Server.Version,
	})
	if err != nil {
		slog.Error("failed to create service", "error", err)
		os.Exit(1)
	}

	created, err := service.Init(ctx)
	if err != nil {
		slog.Error("failed to initialise workbook", "error", err)
		os.Exit(1)
	}
	slog.Info("workbook ready",
		"path", cfg.Workbook.Path,
		"tables", service.Registry().Len(),
		"created", created,
	)

	server := web.NewServer(service, photoStore, cfg)

	jobCtx, cancelJobs := context.WithCancel(context.Background())
	defer cancelJobs()

	if cfg.Backup.Enabled {
		go service.StartBackupScheduler(jobCtx, core.BackupConfig{
			Dir:      cfg.Backup.Dir,
			Interval: cfg.Backup.Interval,
			Keep:     cfg.Backup.Keep,
		})
	}
	if cfg.Workbook.Watch {
		go func() {
			if err := service.WatchWorkbook(jobCtx, cfg.Workbook.Path); err != nil {
				slog.Error("workbook watcher stopped", "error", err)
			}
		}()
	}

	shutdownDone := make(chan struct{})
	go func() {
		defer close(shutdownDone)
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down...")
		cancelJobs()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}

		if st := service.GateStatus(); st.Held {
			slog.Info("waiting for running operation", "op", st.HeldBy)
		}
		if err := service.WaitForIdle(shutdownCtx); err != nil {
			slog.Warn("operation did not finish in time", "error", err)
		}
		if book.Dirty() {
			if err := book.Flush(); err != nil {
				slog.Error("final workbook flush failed", "error", err)
			}
		}
	}()

	if err := server.Start(cfg.Server.Addr()); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server stopped", "error", err)
		cancelJobs()
		return
	}
	<-shutdownDone
	slog.Info("server stopped")
}
