package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/JonMunkholm/tbms/internal/core"
	"github.com/JonMunkholm/tbms/internal/core/tables"
	"github.com/JonMunkholm/tbms/internal/grid"
	"github.com/JonMunkholm/tbms/internal/settings"
)

// session is an open workbook with a service on top of it.
type session struct {
	svc      *core.Service
	book     *grid.Excel
	settings *settings.Store
}

func openSession(ctx context.Context, opts *RootOptions) (*session, error) {
	cfg := opts.cfg
	loc, err := cfg.Workbook.Location()
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(cfg.Workbook.Path), 0o755); err != nil {
		return nil, err
	}

	book, err := grid.OpenExcel(cfg.Workbook.Path, loc)
	if err != nil {
		return nil, err
	}
	store, err := settings.Open(ctx, cfg.Settings.DSN)
	if err != nil {
		book.Close()
		return nil, fmt.Errorf("open settings: %w", err)
	}

	svc, err := core.NewService(core.Options{
		Registry: tables.Registry(),
		Workbook: book,
		Settings: store,
		Location: loc,
		LockWait: cfg.Lock.WaitTimeout,
		Version:  cfg.Server.Version,
	})
	if err != nil {
		store.Close()
		book.Close()
		return nil, err
	}
	return &session{svc: svc, book: book, settings: store}, nil
}

// Close flushes pending changes and releases the workbook and settings.
func (s *session) Close() error {
	var errs []error
	if s.book.Dirty() {
		errs = append(errs, s.book.Flush())
	}
	errs = append(errs, s.book.Close(), s.settings.Close())
	return errors.Join(errs...)
}

// withSession opens a session, runs fn and closes the session. A failure
// to close is reported when fn succeeded.
func withSession(ctx context.Context, opts *RootOptions, fn func(*session) error) (err error) {
	s, err := openSession(ctx, opts)
	if err != nil {
		return WrapExitError(ExitCommandError, "open workbook", err)
	}
	defer func() {
		if cerr := s.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close workbook: %w", cerr)
		}
	}()
	return fn(s)
}
