package core

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/JonMunkholm/tbms/internal/grid"
)

// DefaultVersion is reported by Ping when no version is configured.
const DefaultVersion = "TBMS 2.0"

// timestampLayout is used for every server-assigned timestamp column.
const timestampLayout = time.RFC3339

// SettingsStore is a string-keyed store of JSON text.
type SettingsStore interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
}

// PhotoStore persists an image submitted as a data URL and returns an
// opaque reference to it.
type PhotoStore interface {
	Save(ctx context.Context, dataURL string) (string, error)
}

// Reloader is implemented by workbooks backed by a file that can be
// edited outside this process.
type Reloader interface {
	ChangedOnDisk() bool
	Reload() error
}

// Options configures a Service.
type Options struct {
	Registry *Registry
	Workbook grid.Workbook
	Settings SettingsStore
	Photos   PhotoStore

	// Location is the time zone timestamps in the workbook are formatted in.
	Location *time.Location
	LockWait time.Duration
	Version  string

	// Now and NewID default to time.Now and GenerateID.
	Now   func() time.Time
	NewID IDGenerator
}

// Service is the session object behind every operation: it owns the
// registry, the workbook, the gate and the collaborators.
type Service struct {
	reg      *Registry
	book     grid.Workbook
	store    *RowStore
	codec    *Codec
	gate     *Gate
	settings SettingsStore
	photos   PhotoStore
	version  string
	now      func() time.Time
}

// NewService creates a Service. Registry and Workbook are required.
func NewService(opts Options) (*Service, error) {
	if opts.Registry == nil {
		return nil, fmt.Errorf("service: registry is required")
	}
	if opts.Workbook == nil {
		return nil, fmt.Errorf("service: workbook is required")
	}
	if opts.Version == "" {
		opts.Version = DefaultVersion
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	codec := NewCodec(opts.Location, opts.NewID)
	return &Service{
		reg:      opts.Registry,
		book:     opts.Workbook,
		store:    NewRowStore(opts.Workbook, opts.Registry, codec),
		codec:    codec,
		gate:     NewGate(opts.LockWait),
		settings: opts.Settings,
		photos:   opts.Photos,
		version:  opts.Version,
		now:      opts.Now,
	}, nil
}

// Registry returns the table schemas the service serves.
func (s *Service) Registry() *Registry { return s.reg }

// GateStatus reports the state of the request serializer.
func (s *Service) GateStatus() GateStatus { return s.gate.Status() }

// WaitForIdle blocks until no operation holds the gate.
func (s *Service) WaitForIdle(ctx context.Context) error { return s.gate.WaitForIdle(ctx) }

// run executes fn under the gate and flushes the workbook afterwards when
// fn changed anything.
func (s *Service) run(ctx context.Context, op string, fn func() error) error {
	return s.gate.Do(ctx, op, func() error {
		start := time.Now()
		err := fn()
		slog.DebugContext(ctx, "operation finished",
			"op", op,
			"client_ip", IPAddressFromContext(ctx),
			"user_agent", UserAgentFromContext(ctx),
			"duration_ms", time.Since(start).Milliseconds(),
			"ok", err == nil,
		)
		if s.book.Dirty() {
			if ferr := s.book.Flush(); ferr != nil {
				slog.ErrorContext(ctx, "workbook flush failed", "op", op, "error", ferr)
				if err == nil {
					err = fmt.Errorf("flush workbook: %w", ferr)
				}
			}
		}
		return err
	})
}

func (s *Service) timestamp() string {
	return s.now().UTC().Format(timestampLayout)
}

// GetAll returns every table's rows keyed by table name.
func (s *Service) GetAll(ctx context.Context) (map[string][]Record, error) {
	out := make(map[string][]Record, s.reg.Len())
	err := s.run(ctx, "getAll", func() error {
		for _, name := range s.reg.Names() {
			rows, err := s.store.ReadAll(name)
			if err != nil {
				return fmt.Errorf("read %s: %w", name, err)
			}
			out[name] = nonNil(rows)
		}
		return nil
	})
	return out, err
}

// GetSheet returns the rows of one table.
func (s *Service) GetSheet(ctx context.Context, name string) ([]Record, error) {
	if _, err := s.reg.Lookup(name); err != nil {
		return nil, err
	}
	var rows []Record
	err := s.run(ctx, "getSheet", func() error {
		var err error
		rows, err = s.store.ReadAll(name)
		return err
	})
	return nonNil(rows), err
}

// DefaultStoreTables are the tables GetStoreData returns when none are named.
var DefaultStoreTables = []string{TableStaff, TableAttendance}

// storeIDColumn scopes rows to a store.
const storeIDColumn = "storeId"

// GetStoreData returns the rows of the named tables that belong to storeID.
// Tables without a storeId column are shared by all stores and are
// returned whole.
func (s *Service) GetStoreData(ctx context.Context, storeID string, tables []string) (map[string][]Record, error) {
	if storeID == "" {
		return nil, fmt.Errorf("%w: storeId is required", ErrInvalidParams)
	}
	if len(tables) == 0 {
		tables = DefaultStoreTables
	}
	for _, name := range tables {
		if _, err := s.reg.Lookup(name); err != nil {
			return nil, err
		}
	}

	out := make(map[string][]Record, len(tables))
	err := s.run(ctx, "getStoreData", func() error {
		for _, name := range tables {
			schema, _ := s.reg.Get(name)
			var (
				rows []Record
				err  error
			)
			if schema.Index(storeIDColumn) < 0 {
				rows, err = s.store.ReadAll(name)
			} else {
				rows, err = s.store.ReadFiltered(name, storeIDColumn, storeID)
			}
			if err != nil {
				return fmt.Errorf("read %s: %w", name, err)
			}
			out[name] = nonNil(rows)
		}
		return nil
	})
	return out, err
}

// ParseTableList splits a comma-separated list of table names.
func ParseTableList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if name := strings.TrimSpace(part); name != "" {
			out = append(out, name)
		}
	}
	return out
}

// Init creates missing tables, repairs headers and removes the default
// empty sheet. It returns the tables it created.
func (s *Service) Init(ctx context.Context) ([]string, error) {
	var created []string
	err := s.run(ctx, "init", func() error {
		var err error
		created, err = s.store.InitTables()
		return err
	})
	if created == nil {
		created = []string{}
	}
	return created, err
}

// PingResult is the health-check payload.
type PingResult struct {
	Time    string `json:"time"`
	Version string `json:"version"`
}

// Ping reports the server time and version. It does not take the gate.
func (s *Service) Ping() PingResult {
	return PingResult{
		Time:    s.now().UTC().Format(time.RFC3339Nano),
		Version: s.version,
	}
}

// SaveSheet replaces a table's rows.
func (s *Service) SaveSheet(ctx context.Context, name string, rows []Record) (int, error) {
	if _, err := s.reg.Lookup(name); err != nil {
		return 0, err
	}
	var n int
	err := s.run(ctx, "saveSheet", func() error {
		var err error
		n, err = s.store.ReplaceAll(name, rows)
		return err
	})
	return n, err
}

// Upsert merges row into the table by identifier.
func (s *Service) Upsert(ctx context.Context, name string, row Record) (UpsertAction, error) {
	schema, err := s.reg.Lookup(name)
	if err != nil {
		return "", err
	}
	if row == nil {
		return "", fmt.Errorf("%w: row is required", ErrInvalidParams)
	}
	if Stringify(row[schema.IDColumn()]) == "" {
		return "", fmt.Errorf("%w: %s is required for upsert", ErrInvalidParams, schema.IDColumn())
	}

	var action UpsertAction
	err = s.run(ctx, "upsert", func() error {
		var err error
		action, err = s.store.Upsert(name, row)
		return err
	})
	return action, err
}

// DeleteRow removes the first row with the given identifier. A missing
// row is reported as false, not as an error.
func (s *Service) DeleteRow(ctx context.Context, name, id string) (bool, error) {
	if _, err := s.reg.Lookup(name); err != nil {
		return false, err
	}
	if id == "" {
		return false, fmt.Errorf("%w: id is required", ErrInvalidParams)
	}
	var deleted bool
	err := s.run(ctx, "deleteRow", func() error {
		var err error
		deleted, err = s.store.DeleteByID(name, id)
		return err
	})
	return deleted, err
}

// AppendRow inserts row without looking for an existing identifier.
func (s *Service) AppendRow(ctx context.Context, name string, row Record) error {
	if _, err := s.reg.Lookup(name); err != nil {
		return err
	}
	if row == nil {
		return fmt.Errorf("%w: row is required", ErrInvalidParams)
	}
	return s.run(ctx, "appendRow", func() error {
		return s.store.Append(name, row)
	})
}

// AppendRows inserts rows in one write under a single gate hold and
// returns how many were added.
func (s *Service) AppendRows(ctx context.Context, name string, rows []Record) (int, error) {
	if _, err := s.reg.Lookup(name); err != nil {
		return 0, err
	}
	for i, row := range rows {
		if row == nil {
			return 0, fmt.Errorf("%w: row %d is empty", ErrInvalidParams, i+1)
		}
	}
	if len(rows) == 0 {
		return 0, nil
	}
	err := s.run(ctx, "appendRows", func() error {
		return s.store.AppendAll(name, rows)
	})
	if err != nil {
		return 0, err
	}
	return len(rows), nil
}

// TableCount is a table name with its number of present rows.
type TableCount struct {
	Name string `json:"name"`
	Rows int    `json:"rows"`
}

// CountRows returns the row count of every table.
func (s *Service) CountRows(ctx context.Context) ([]TableCount, error) {
	out := make([]TableCount, 0, s.reg.Len())
	err := s.run(ctx, "countRows", func() error {
		for _, name := range s.reg.Names() {
			n, err := s.store.CountRows(name)
			if err != nil {
				return fmt.Errorf("count %s: %w", name, err)
			}
			out = append(out, TableCount{Name: name, Rows: n})
		}
		return nil
	})
	return out, err
}

// SeedResult reports what InitData did with one table.
type SeedResult struct {
	Status string `json:"status"`
	Reason string `json:"reason,omitempty"`
	Count  int    `json:"count"`
}

// InitData initializes the tables and then seeds every named table that
// holds no rows yet. Tables with data are skipped; unknown tables are
// ignored.
func (s *Service) InitData(ctx context.Context, sheets map[string][]Record) (map[string]SeedResult, error) {
	results := make(map[string]SeedResult, len(sheets))
	err := s.run(ctx, "initData", func() error {
		if _, err := s.store.InitTables(); err != nil {
			return err
		}
		for _, name := range s.reg.Names() {
			rows, ok := sheets[name]
			if !ok {
				continue
			}
			existing, err := s.store.CountRows(name)
			if err != nil {
				return fmt.Errorf("count %s: %w", name, err)
			}
			if existing > 0 {
				results[name] = SeedResult{Status: "skipped", Reason: "data exists", Count: existing}
				continue
			}
			n, err := s.store.ReplaceAll(name, rows)
			if err != nil {
				return fmt.Errorf("seed %s: %w", name, err)
			}
			results[name] = SeedResult{Status: "ok", Count: n}
		}
		return nil
	})
	for name := range sheets {
		if _, known := s.reg.Get(name); !known {
			slog.WarnContext(ctx, "seed data for unknown table ignored", "table", name)
		}
	}
	return results, err
}

// GetSetting returns the decoded value stored under key, or nil.
func (s *Service) GetSetting(ctx context.Context, key string) (any, error) {
	if key == "" {
		return nil, fmt.Errorf("%w: key is required", ErrInvalidParams)
	}
	if s.settings == nil {
		return nil, fmt.Errorf("settings store not configured")
	}

	var value any
	err := s.gate.Do(ctx, "getSetting", func() error {
		raw, ok, err := s.settings.Get(ctx, key)
		if err != nil || !ok {
			return err
		}
		if jerr := json.Unmarshal([]byte(raw), &value); jerr != nil {
			value = raw
		}
		return nil
	})
	return value, err
}

// SaveSetting stores value as JSON text under key.
func (s *Service) SaveSetting(ctx context.Context, key string, value any) error {
	if key == "" {
		return fmt.Errorf("%w: key is required", ErrInvalidParams)
	}
	if s.settings == nil {
		return fmt.Errorf("settings store not configured")
	}
	b, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("%w: value is not JSON-serializable: %v", ErrInvalidParams, err)
	}
	return s.gate.Do(ctx, "saveSetting", func() error {
		return s.settings.Set(ctx, key, string(b))
	})
}

// Backup writes a snapshot of the workbook to w.
func (s *Service) Backup(ctx context.Context, w io.Writer) error {
	return s.gate.Do(ctx, "backup", func() error {
		return s.book.Snapshot(w)
	})
}

// ReloadIfChanged re-reads a file-backed workbook that was edited outside
// this process. It reports whether a reload happened.
func (s *Service) ReloadIfChanged(ctx context.Context) (bool, error) {
	r, ok := s.book.(Reloader)
	if !ok {
		return false, nil
	}
	var reloaded bool
	err := s.gate.Do(ctx, "reload", func() error {
		if !r.ChangedOnDisk() {
			return nil
		}
		if s.book.Dirty() {
			slog.WarnContext(ctx, "workbook changed on disk with unsaved changes pending; keeping in-memory state")
			return nil
		}
		if err := r.Reload(); err != nil {
			return err
		}
		reloaded = true
		return nil
	})
	return reloaded, err
}

func nonNil(rows []Record) []Record {
	if rows == nil {
		return []Record{}
	}
	return rows
}
