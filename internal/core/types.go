package core

import (
	"strings"
	"unicode"
)

// ColumnType classifies how a column's cells are coerced when decoded.
type ColumnType int

const (
	ColumnText ColumnType = iota
	ColumnNumeric
	ColumnBool
	ColumnTime
	ColumnDate
)

func (t ColumnType) String() string {
	switch t {
	case ColumnNumeric:
		return "numeric"
	case ColumnBool:
		return "bool"
	case ColumnTime:
		return "time"
	case ColumnDate:
		return "date"
	default:
		return "text"
	}
}

// Column is one canonical column of a table.
type Column struct {
	Name string
	Type ColumnType
}

// Text, Numeric, Bool, Time and Date build columns of the matching type.
func Text(name string) Column    { return Column{Name: name, Type: ColumnText} }
func Numeric(name string) Column { return Column{Name: name, Type: ColumnNumeric} }
func Bool(name string) Column    { return Column{Name: name, Type: ColumnBool} }
func Time(name string) Column    { return Column{Name: name, Type: ColumnTime} }
func Date(name string) Column    { return Column{Name: name, Type: ColumnDate} }

// TableSchema is the canonical definition of a logical table.
// The first column is the identifier column. Column order is both the
// physical write order and the record iteration order.
type TableSchema struct {
	Name        string
	Description string
	Columns     []Column
}

// IDColumn returns the name of the identifier column.
func (s TableSchema) IDColumn() string {
	if len(s.Columns) == 0 {
		return ""
	}
	return s.Columns[0].Name
}

// Header returns the canonical header row.
func (s TableSchema) Header() []string {
	h := make([]string, len(s.Columns))
	for i, c := range s.Columns {
		h[i] = c.Name
	}
	return h
}

// Index returns the position of a canonical column, or -1.
func (s TableSchema) Index(name string) int {
	for i, c := range s.Columns {
		if c.Name == name {
			return i
		}
	}
	return -1
}

// Column returns the named canonical column.
func (s TableSchema) Column(name string) (Column, bool) {
	if i := s.Index(name); i >= 0 {
		return s.Columns[i], true
	}
	return Column{}, false
}

// IDPrefix is the prefix of identifiers synthesized for this table:
// the lower-cased first three letters of the table name.
func (s TableSchema) IDPrefix() string {
	var b strings.Builder
	for _, r := range s.Name {
		if !unicode.IsLetter(r) {
			continue
		}
		b.WriteRune(unicode.ToLower(r))
		if b.Len() == 3 {
			break
		}
	}
	return b.String()
}

// Record is a logical row keyed by canonical column name.
// Values are string, float64 or bool.
type Record map[string]any

// Clone returns a shallow copy of r.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Absent marks a canonical column with no physical counterpart.
const Absent = -1

// Mapping gives, for each canonical column, its 0-based physical column
// index or Absent. It is rebuilt on every reconciliation and never stored.
type Mapping []int

// identityMapping maps every canonical column to the same physical position.
func identityMapping(n int) Mapping {
	m := make(Mapping, n)
	for i := range m {
		m[i] = i
	}
	return m
}

// UpsertAction reports what an upsert did.
type UpsertAction string

const (
	ActionUpdated  UpsertAction = "updated"
	ActionInserted UpsertAction = "inserted"
)

// Canonical table names referenced by the workflow engine.
const (
	TableUsers              = "Users"
	TableStores             = "Stores"
	TableStaff              = "Staff"
	TableAttendance         = "Attendance"
	TableStockTemplate      = "StockTemplate"
	TableStoreStock         = "StoreStock"
	TableStockCounts        = "StockCounts"
	TableSales              = "Sales"
	TableTimeChangeRequests = "TimeChangeRequests"
	TableEditLog            = "EditLog"
)
