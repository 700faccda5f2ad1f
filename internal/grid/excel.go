package grid

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

// Excel is a Workbook stored as an .xlsx file on disk.
// Changes are kept in memory until Flush writes the file.
type Excel struct {
	path      string
	loc       *time.Location
	file      *excelize.File
	dirty     bool
	boldStyle int
	saved     fileStamp
}

// fileStamp identifies a version of the file on disk.
type fileStamp struct {
	modTime time.Time
	size    int64
}

// OpenExcel opens the workbook at path, or starts a new one when the file
// does not exist yet. A new workbook is dirty so the first Flush creates it.
// Date cells hold wall-clock serials; they are read back as times in loc
// (UTC when nil).
func OpenExcel(path string, loc *time.Location) (*Excel, error) {
	if loc == nil {
		loc = time.UTC
	}
	x := &Excel{path: filepath.Clean(path), loc: loc}

	f, err := excelize.OpenFile(x.path)
	switch {
	case err == nil:
		x.file = f
		x.saved = stampOf(x.path)
	case errors.Is(err, os.ErrNotExist):
		x.file = excelize.NewFile()
		x.dirty = true
	default:
		return nil, fmt.Errorf("open workbook %s: %w", x.path, err)
	}
	return x, nil
}

// Path returns the location of the workbook file.
func (x *Excel) Path() string { return x.path }

func (x *Excel) Sheet(name string) (Sheet, bool) {
	idx, err := x.file.GetSheetIndex(name)
	if err != nil || idx < 0 {
		return nil, false
	}
	return &excelSheet{book: x, name: name}, true
}

func (x *Excel) EnsureSheet(name string) (Sheet, bool, error) {
	if s, ok := x.Sheet(name); ok {
		return s, false, nil
	}
	if _, err := x.file.NewSheet(name); err != nil {
		return nil, false, fmt.Errorf("create sheet %s: %w", name, err)
	}
	x.dirty = true
	return &excelSheet{book: x, name: name}, true, nil
}

func (x *Excel) SheetNames() []string {
	return x.file.GetSheetList()
}

func (x *Excel) DeleteSheet(name string) error {
	if len(x.file.GetSheetList()) <= 1 {
		return nil
	}
	if _, ok := x.Sheet(name); !ok {
		return ErrSheetNotFound
	}
	if err := x.file.DeleteSheet(name); err != nil {
		return err
	}
	x.dirty = true
	return nil
}

func (x *Excel) Dirty() bool { return x.dirty }

func (x *Excel) Flush() error {
	if !x.dirty {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(x.path), 0o755); err != nil {
		return err
	}
	if err := x.file.SaveAs(x.path); err != nil {
		return fmt.Errorf("save workbook: %w", err)
	}
	x.saved = stampOf(x.path)
	x.dirty = false
	return nil
}

func (x *Excel) Snapshot(w io.Writer) error {
	_, err := x.file.WriteTo(w)
	return err
}

func (x *Excel) Close() error {
	return x.file.Close()
}

// ChangedOnDisk reports whether the file was modified by someone other than
// this workbook since it was last loaded or saved.
func (x *Excel) ChangedOnDisk() bool {
	now := stampOf(x.path)
	if now.modTime.IsZero() {
		return false
	}
	return !now.modTime.Equal(x.saved.modTime) || now.size != x.saved.size
}

// Reload discards in-memory state and reads the file again.
func (x *Excel) Reload() error {
	f, err := excelize.OpenFile(x.path)
	if err != nil {
		return fmt.Errorf("reload workbook: %w", err)
	}
	_ = x.file.Close()
	x.file = f
	x.boldStyle = 0
	x.saved = stampOf(x.path)
	x.dirty = false
	return nil
}

func stampOf(path string) fileStamp {
	info, err := os.Stat(path)
	if err != nil {
		return fileStamp{}
	}
	return fileStamp{modTime: info.ModTime(), size: info.Size()}
}

type excelSheet struct {
	book *Excel
	name string
}

func (s *excelSheet) Name() string { return s.name }

func (s *excelSheet) Values() ([][]any, error) {
	f := s.book.file
	raw, err := f.GetRows(s.name, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", s.name, err)
	}

	rows, cols := extent(raw)
	out := make([][]any, rows)
	for r := 0; r < rows; r++ {
		row := make([]any, cols)
		for c := 0; c < cols; c++ {
			row[c] = ""
			if c >= len(raw[r]) || raw[r][c] == "" {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil {
				return nil, err
			}
			row[c] = s.typedValue(cell, raw[r][c])
		}
		out[r] = row
	}
	return out, nil
}

func (s *excelSheet) LastRow() int {
	raw, err := s.book.file.GetRows(s.name, excelize.Options{RawCellValue: true})
	if err != nil {
		return 0
	}
	rows, _ := extent(raw)
	return rows
}

func (s *excelSheet) LastColumn() int {
	raw, err := s.book.file.GetRows(s.name, excelize.Options{RawCellValue: true})
	if err != nil {
		return 0
	}
	_, cols := extent(raw)
	return cols
}

func (s *excelSheet) SetValues(row, col int, values [][]any) error {
	if err := validateRange(row, col); err != nil {
		return err
	}
	f := s.book.file
	for i, vals := range values {
		for j, v := range vals {
			cell, err := excelize.CoordinatesToCellName(col+j, row+i)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(s.name, cell, Normalize(v)); err != nil {
				return fmt.Errorf("write %s!%s: %w", s.name, cell, err)
			}
		}
	}
	s.book.dirty = true
	return nil
}

func (s *excelSheet) ClearRange(row, col, numRows, numCols int) error {
	if err := validateRange(row, col); err != nil {
		return err
	}
	f := s.book.file
	for r := row; r < row+numRows; r++ {
		for c := col; c < col+numCols; c++ {
			cell, err := excelize.CoordinatesToCellName(c, r)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(s.name, cell, nil); err != nil {
				return err
			}
		}
	}
	s.book.dirty = true
	return nil
}

func (s *excelSheet) AppendRows(values [][]any) error {
	if len(values) == 0 {
		return nil
	}
	return s.SetValues(s.LastRow()+1, 1, values)
}

func (s *excelSheet) DeleteRow(row int) error {
	if err := validateRange(row, 1); err != nil {
		return err
	}
	if err := s.book.file.RemoveRow(s.name, row); err != nil {
		return err
	}
	s.book.dirty = true
	return nil
}

func (s *excelSheet) StyleHeader(numCols int) error {
	if numCols < 1 {
		return nil
	}
	f := s.book.file
	if s.book.boldStyle == 0 {
		id, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
		if err != nil {
			return err
		}
		s.book.boldStyle = id
	}
	end, err := excelize.CoordinatesToCellName(numCols, 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(s.name, "A1", end, s.book.boldStyle); err != nil {
		return err
	}
	if err := f.SetPanes(s.name, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return err
	}
	s.book.dirty = true
	return nil
}

// typedValue recovers the native type of a non-empty raw cell.
func (s *excelSheet) typedValue(cell, raw string) any {
	f := s.book.file
	typ, err := f.GetCellType(s.name, cell)
	if err != nil {
		return raw
	}
	switch typ {
	case excelize.CellTypeBool:
		return raw == "1" || strings.EqualFold(raw, "true")
	case excelize.CellTypeDate:
		if t, err := time.Parse(time.RFC3339, raw); err == nil {
			return t
		}
		return raw
	case excelize.CellTypeNumber, excelize.CellTypeUnset:
		n, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return raw
		}
		if s.isDateCell(cell) {
			if t, err := excelize.ExcelDateToTime(n, false); err == nil {
				return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, s.book.loc)
			}
		}
		return n
	default:
		return raw
	}
}

// builtinDateFormats are the excel number format ids that render dates or times.
var builtinDateFormats = map[int]bool{
	14: true, 15: true, 16: true, 17: true, 18: true, 19: true, 20: true, 21: true, 22: true,
	27: true, 28: true, 29: true, 30: true, 31: true, 32: true, 33: true, 34: true, 35: true, 36: true,
	45: true, 46: true, 47: true, 50: true, 51: true, 52: true, 53: true, 54: true, 55: true, 56: true, 57: true, 58: true,
}

func (s *excelSheet) isDateCell(cell string) bool {
	f := s.book.file
	idx, err := f.GetCellStyle(s.name, cell)
	if err != nil || idx == 0 {
		return false
	}
	style, err := f.GetStyle(idx)
	if err != nil || style == nil {
		return false
	}
	if builtinDateFormats[style.NumFmt] {
		return true
	}
	if style.CustomNumFmt != nil {
		return isDateFormat(*style.CustomNumFmt)
	}
	return false
}

// isDateFormat reports whether a custom number format renders a date or time.
// Quoted literals and bracketed sections (locale, colour) are ignored.
func isDateFormat(format string) bool {
	var b strings.Builder
	inQuote, inBracket := false, false
	for _, r := range strings.ToLower(format) {
		switch {
		case r == '"':
			inQuote = !inQuote
		case r == '[' && !inQuote:
			inBracket = true
		case r == ']' && !inQuote:
			inBracket = false
		case !inQuote && !inBracket:
			b.WriteRune(r)
		}
	}
	return strings.ContainsAny(b.String(), "ydhms")
}

// extent returns the number of rows and columns that hold non-empty cells.
func extent(raw [][]string) (rows, cols int) {
	for r, row := range raw {
		for c := len(row) - 1; c >= 0; c-- {
			if row[c] != "" {
				rows = r + 1
				if c+1 > cols {
					cols = c + 1
				}
				break
			}
		}
	}
	return rows, cols
}
