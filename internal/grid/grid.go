// Package grid provides the spreadsheet medium behind the row store: a
// workbook of named sheets whose cells hold heterogeneous values.
//
// Cells read back as one of string, float64, bool or time.Time. An empty
// cell reads back as "". Rows and columns are 1-based, matching the
// addressing of spreadsheet ranges.
//
// Two implementations exist:
//   - Memory: a process-local workbook, used by tests and ephemeral runs
//   - Excel: an .xlsx workbook on disk, written through excelize
//
// Neither implementation is safe for concurrent use. Callers serialize
// access (the core package does this with its Gate).
package grid

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"
)

// ErrSheetNotFound is returned when an operation names a sheet that does not exist.
var ErrSheetNotFound = errors.New("sheet not found")

// DefaultSheetName is the sheet a brand new spreadsheet file starts with.
const DefaultSheetName = "Sheet1"

// Workbook is a collection of named sheets.
type Workbook interface {
	// Sheet returns the named sheet, or false if it does not exist.
	Sheet(name string) (Sheet, bool)
	// EnsureSheet returns the named sheet, creating it when missing.
	// The boolean reports whether the sheet was created.
	EnsureSheet(name string) (Sheet, bool, error)
	// SheetNames lists sheets in workbook order.
	SheetNames() []string
	// DeleteSheet removes a sheet. Deleting the last remaining sheet is a no-op.
	DeleteSheet(name string) error

	// Dirty reports whether anything changed since the last Flush.
	Dirty() bool
	// Flush persists pending changes. It is a no-op for a clean workbook.
	Flush() error
	// Snapshot writes a point-in-time copy of the workbook to w.
	Snapshot(w io.Writer) error
	// Close releases resources held by the workbook.
	Close() error
}

// Sheet is one tab of a workbook.
type Sheet interface {
	Name() string

	// Values returns the data range: every row from 1 to LastRow, each padded
	// to LastColumn cells.
	Values() ([][]any, error)
	// LastRow is the 1-based index of the last row holding a non-empty cell, or 0.
	LastRow() int
	// LastColumn is the 1-based index of the last column holding a non-empty cell, or 0.
	LastColumn() int

	// SetValues writes a block of values with its top-left corner at (row, col).
	SetValues(row, col int, values [][]any) error
	// ClearRange empties the content of a block of cells.
	ClearRange(row, col, numRows, numCols int) error
	// AppendRows writes values below LastRow.
	AppendRows(values [][]any) error
	// DeleteRow removes a row and shifts the rows below it up by one.
	DeleteRow(row int) error
	// StyleHeader renders the first numCols cells of row 1 bold and freezes row 1.
	StyleHeader(numCols int) error
}

// IsEmpty reports whether a cell value counts as empty.
func IsEmpty(v any) bool {
	if v == nil {
		return true
	}
	s, ok := v.(string)
	return ok && s == ""
}

// Normalize converts a value into one of the cell types a sheet stores.
// Integers become float64, nil becomes "", and composite values are stored
// as their JSON text.
func Normalize(v any) any {
	switch val := v.(type) {
	case nil:
		return ""
	case string, float64, bool, time.Time:
		return val
	case float32:
		return float64(val)
	case int:
		return float64(val)
	case int8:
		return float64(val)
	case int16:
		return float64(val)
	case int32:
		return float64(val)
	case int64:
		return float64(val)
	case uint:
		return float64(val)
	case uint8:
		return float64(val)
	case uint16:
		return float64(val)
	case uint32:
		return float64(val)
	case uint64:
		return float64(val)
	case json.Number:
		if f, err := val.Float64(); err == nil {
			return f
		}
		return val.String()
	case map[string]any, []any:
		b, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprint(val)
		}
		return string(b)
	default:
		return fmt.Sprint(val)
	}
}

// validateRange rejects addresses outside the 1-based grid.
func validateRange(row, col int) error {
	if row < 1 || col < 1 {
		return fmt.Errorf("invalid cell address (%d, %d)", row, col)
	}
	return nil
}
