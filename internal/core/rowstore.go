package core

import (
	"fmt"

	"github.com/JonMunkholm/tbms/internal/grid"
)

// RowStore provides table-level CRUD on top of a workbook. Every operation
// reconciles the table's header first. RowStore does no locking; the
// Service serializes calls through its Gate.
type RowStore struct {
	book  grid.Workbook
	reg   *Registry
	codec *Codec
}

// NewRowStore returns a row store over book.
func NewRowStore(book grid.Workbook, reg *Registry, codec *Codec) *RowStore {
	return &RowStore{book: book, reg: reg, codec: codec}
}

// Registry returns the schemas the store serves.
func (s *RowStore) Registry() *Registry { return s.reg }

// table bundles a reconciled sheet with its schema and mapping.
type table struct {
	schema  TableSchema
	sheet   grid.Sheet
	mapping Mapping
}

// storedRow is a present data row with its 1-based physical row number.
type storedRow struct {
	row int
	rec Record
	raw []any
}

// open resolves and reconciles a table. When the sheet does not exist and
// create is false, the returned table has a nil sheet.
func (s *RowStore) open(name string, create bool) (*table, error) {
	schema, err := s.reg.Lookup(name)
	if err != nil {
		return nil, err
	}

	sheet, ok := s.book.Sheet(name)
	if !ok {
		if !create {
			return &table{schema: schema}, nil
		}
		if sheet, _, err = s.book.EnsureSheet(name); err != nil {
			return nil, err
		}
	}

	mapping, err := Reconcile(sheet, schema)
	if err != nil {
		return nil, err
	}
	return &table{schema: schema, sheet: sheet, mapping: mapping}, nil
}

// rows decodes every present data row. A present row with an empty
// identifier gets one synthesized and written back to its cell.
func (s *RowStore) rows(t *table) ([]storedRow, error) {
	if t.sheet == nil {
		return nil, nil
	}
	values, err := t.sheet.Values()
	if err != nil {
		return nil, err
	}

	idCol := t.schema.IDColumn()
	var out []storedRow
	for i := 1; i < len(values); i++ {
		rec, present := s.codec.Decode(t.schema, t.mapping, values[i])
		if !present {
			continue
		}
		if rec[idCol] == "" {
			id := s.codec.NewID(t.schema)
			if err := t.sheet.SetValues(i+1, t.mapping[0]+1, [][]any{{id}}); err != nil {
				return nil, fmt.Errorf("assign id in %s row %d: %w", t.schema.Name, i+1, err)
			}
			rec[idCol] = id
		}
		out = append(out, storedRow{row: i + 1, rec: rec, raw: values[i]})
	}
	return out, nil
}

func (s *RowStore) findByID(t *table, id string) (storedRow, bool, error) {
	rows, err := s.rows(t)
	if err != nil {
		return storedRow{}, false, err
	}
	idCol := t.schema.IDColumn()
	for _, r := range rows {
		if Stringify(r.rec[idCol]) == id {
			return r, true, nil
		}
	}
	return storedRow{}, false, nil
}

// ReadAll returns every present row of a table in physical order.
func (s *RowStore) ReadAll(name string) ([]Record, error) {
	t, err := s.open(name, false)
	if err != nil {
		return nil, err
	}
	rows, err := s.rows(t)
	if err != nil {
		return nil, err
	}
	out := make([]Record, len(rows))
	for i, r := range rows {
		out[i] = r.rec
	}
	return out, nil
}

// ReadFiltered returns the rows whose column stringifies equal to value.
func (s *RowStore) ReadFiltered(name, column string, value any) ([]Record, error) {
	schema, err := s.reg.Lookup(name)
	if err != nil {
		return nil, err
	}
	if schema.Index(column) < 0 {
		return nil, fmt.Errorf("%w: unknown column %s.%s", ErrInvalidParams, name, column)
	}

	all, err := s.ReadAll(name)
	if err != nil {
		return nil, err
	}
	want := Stringify(value)
	var out []Record
	for _, rec := range all {
		if Stringify(rec[column]) == want {
			out = append(out, rec)
		}
	}
	return out, nil
}

// FindByID returns the first row whose identifier equals id.
func (s *RowStore) FindByID(name, id string) (Record, bool, error) {
	t, err := s.open(name, false)
	if err != nil {
		return nil, false, err
	}
	r, ok, err := s.findByID(t, id)
	if err != nil || !ok {
		return nil, false, err
	}
	return r.rec, true, nil
}

// CountRows returns the number of present rows in a table.
func (s *RowStore) CountRows(name string) (int, error) {
	t, err := s.open(name, false)
	if err != nil {
		return 0, err
	}
	rows, err := s.rows(t)
	return len(rows), err
}

// ReplaceAll clears a table's data rows and writes records in order.
func (s *RowStore) ReplaceAll(name string, records []Record) (int, error) {
	t, err := s.open(name, true)
	if err != nil {
		return 0, err
	}

	if last := t.sheet.LastRow(); last > 1 {
		width := max(t.sheet.LastColumn(), len(t.schema.Columns))
		if err := t.sheet.ClearRange(2, 1, last-1, width); err != nil {
			return 0, err
		}
	}
	if err := writeHeader(t.sheet, t.schema.Header()); err != nil {
		return 0, err
	}
	if len(records) == 0 {
		return 0, nil
	}

	values := make([][]any, len(records))
	for i, rec := range records {
		values[i] = s.codec.Encode(t.schema, rec)
	}
	if err := t.sheet.SetValues(2, 1, values); err != nil {
		return 0, err
	}
	return len(records), nil
}

// Upsert updates the row whose identifier matches rec's, or appends rec.
// On update an empty incoming value never erases a non-empty stored one.
func (s *RowStore) Upsert(name string, rec Record) (UpsertAction, error) {
	schema, err := s.reg.Lookup(name)
	if err != nil {
		return "", err
	}
	if rec == nil {
		return "", fmt.Errorf("%w: row is required", ErrInvalidParams)
	}
	id := Stringify(rec[schema.IDColumn()])
	if id == "" {
		return "", fmt.Errorf("%w: %s is required for upsert", ErrInvalidParams, schema.IDColumn())
	}

	t, err := s.open(name, true)
	if err != nil {
		return "", err
	}
	existing, found, err := s.findByID(t, id)
	if err != nil {
		return "", err
	}

	incoming := s.codec.Encode(t.schema, rec)
	if !found {
		if err := t.sheet.AppendRows([][]any{incoming}); err != nil {
			return "", err
		}
		return ActionInserted, nil
	}

	merged := make([]any, len(incoming))
	for i, v := range incoming {
		merged[i] = v
		if !grid.IsEmpty(v) {
			continue
		}
		if idx := t.mapping[i]; idx < len(existing.raw) && !grid.IsEmpty(existing.raw[idx]) {
			merged[i] = existing.raw[idx]
		}
	}
	if err := t.sheet.SetValues(existing.row, 1, [][]any{merged}); err != nil {
		return "", err
	}
	return ActionUpdated, nil
}

// Append always inserts rec as a new row.
func (s *RowStore) Append(name string, rec Record) error {
	if rec == nil {
		return fmt.Errorf("%w: row is required", ErrInvalidParams)
	}
	return s.AppendAll(name, []Record{rec})
}

// AppendAll inserts records as new rows in one write.
func (s *RowStore) AppendAll(name string, records []Record) error {
	t, err := s.open(name, true)
	if err != nil {
		return err
	}
	values := make([][]any, len(records))
	for i, rec := range records {
		values[i] = s.codec.Encode(t.schema, rec)
	}
	return t.sheet.AppendRows(values)
}

// DeleteByID removes the first row whose identifier equals id.
// It reports whether a row was removed.
func (s *RowStore) DeleteByID(name, id string) (bool, error) {
	if _, err := s.reg.Lookup(name); err != nil {
		return false, err
	}
	if id == "" {
		return false, fmt.Errorf("%w: id is required", ErrInvalidParams)
	}
	t, err := s.open(name, false)
	if err != nil {
		return false, err
	}
	r, ok, err := s.findByID(t, id)
	if err != nil || !ok {
		return false, err
	}
	if err := t.sheet.DeleteRow(r.row); err != nil {
		return false, err
	}
	return true, nil
}

// UpdateColumns writes exactly the given columns of the first row whose
// identifier equals id and leaves every other cell untouched.
// It reports whether a row matched.
func (s *RowStore) UpdateColumns(name, id string, values Record) (bool, error) {
	schema, err := s.reg.Lookup(name)
	if err != nil {
		return false, err
	}
	for col := range values {
		if schema.Index(col) < 0 {
			return false, fmt.Errorf("%w: unknown column %s.%s", ErrInvalidParams, name, col)
		}
	}

	t, err := s.open(name, false)
	if err != nil {
		return false, err
	}
	r, ok, err := s.findByID(t, id)
	if err != nil || !ok {
		return false, err
	}
	for col, v := range values {
		idx := t.mapping[schema.Index(col)]
		if err := t.sheet.SetValues(r.row, idx+1, [][]any{{v}}); err != nil {
			return false, err
		}
	}
	return true, nil
}

// InitTables creates missing sheets, reconciles every table and removes the
// default empty sheet a new workbook starts with. It returns the names of
// the tables it created.
func (s *RowStore) InitTables() ([]string, error) {
	var created []string
	for _, schema := range s.reg.All() {
		sheet, isNew, err := s.book.EnsureSheet(schema.Name)
		if err != nil {
			return created, err
		}
		if isNew {
			created = append(created, schema.Name)
		}
		if _, err := Reconcile(sheet, schema); err != nil {
			return created, fmt.Errorf("reconcile %s: %w", schema.Name, err)
		}
	}

	if _, registered := s.reg.Get(grid.DefaultSheetName); !registered {
		if def, ok := s.book.Sheet(grid.DefaultSheetName); ok && def.LastRow() == 0 {
			if err := s.book.DeleteSheet(grid.DefaultSheetName); err != nil {
				return created, err
			}
		}
	}
	return created, nil
}
