package core

import "context"

// EditLogEntry records one change to an attendance field.
type EditLogEntry struct {
	AttendanceID  string
	Field         string
	OldValue      string
	NewValue      string
	ClientVersion string
}

// AddEditLog appends an entry with a generated id and the server time and
// returns the id. The log is append-only.
func (s *Service) AddEditLog(ctx context.Context, e EditLogEntry) (string, error) {
	schema, err := s.reg.Lookup(TableEditLog)
	if err != nil {
		return "", err
	}

	var id string
	err = s.run(ctx, "addEditLog", func() error {
		id = s.codec.NewID(schema)
		return s.store.Append(TableEditLog, Record{
			"id":            id,
			"attendanceId":  e.AttendanceID,
			"field":         e.Field,
			"oldValue":      e.OldValue,
			"newValue":      e.NewValue,
			"editedAt":      s.timestamp(),
			"clientVersion": e.ClientVersion,
		})
	})
	if err != nil {
		return "", err
	}
	return id, nil
}
