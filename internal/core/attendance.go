package core

import (
	"context"
	"fmt"
	"log/slog"
)

// ClockInResult is returned by ClockIn.
type ClockInResult struct {
	ID       string `json:"id"`
	PhotoRef string `json:"photoRef"`
}

// ClockIn appends an attendance row. When photo is set it is stored first
// and its reference written to photoIn; a failed photo store yields an
// empty reference and the clock-in still succeeds. An identifier is
// generated when row has none.
func (s *Service) ClockIn(ctx context.Context, row Record, photo string) (ClockInResult, error) {
	if row == nil {
		return ClockInResult{}, fmt.Errorf("%w: row is required", ErrInvalidParams)
	}
	schema, err := s.reg.Lookup(TableAttendance)
	if err != nil {
		return ClockInResult{}, err
	}

	var res ClockInResult
	err = s.run(ctx, "clockInPhoto", func() error {
		rec := row.Clone()
		if photo != "" {
			res.PhotoRef = s.savePhoto(ctx, photo)
			rec["photoIn"] = res.PhotoRef
		}

		res.ID = Stringify(rec[schema.IDColumn()])
		if res.ID == "" {
			res.ID = s.codec.NewID(schema)
			rec[schema.IDColumn()] = res.ID
		}
		return s.store.Append(TableAttendance, rec)
	})
	if err != nil {
		return ClockInResult{}, err
	}
	return res, nil
}

// ClockOut writes clockOut and photoOut of an existing attendance row and
// nothing else. It returns the stored photo reference.
func (s *Service) ClockOut(ctx context.Context, id, clockOut, photo string) (string, error) {
	if id == "" {
		return "", fmt.Errorf("%w: id is required", ErrInvalidParams)
	}
	if clockOut == "" {
		return "", fmt.Errorf("%w: clockOut is required", ErrInvalidParams)
	}

	var ref string
	err := s.run(ctx, "clockOutPhoto", func() error {
		if _, ok, err := s.store.FindByID(TableAttendance, id); err != nil {
			return err
		} else if !ok {
			return fmt.Errorf("%w: attendance %s", ErrNotFound, id)
		}
		if photo != "" {
			ref = s.savePhoto(ctx, photo)
		}
		ok, err := s.store.UpdateColumns(TableAttendance, id, Record{
			"clockOut": clockOut,
			"photoOut": ref,
		})
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%w: attendance %s", ErrNotFound, id)
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return ref, nil
}

// savePhoto stores a photo and returns its reference, or "" on any failure.
func (s *Service) savePhoto(ctx context.Context, dataURL string) string {
	if s.photos == nil {
		slog.WarnContext(ctx, "photo submitted but no photo store is configured")
		return ""
	}
	ref, err := s.photos.Save(ctx, dataURL)
	if err != nil {
		slog.WarnContext(ctx, "photo save failed", "error", err)
		return ""
	}
	return ref
}
