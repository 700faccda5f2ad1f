// Package importer reads tabular files into table records. CSV, .xlsx and
// legacy .xls files are supported; the first row is the header and is
// matched to the table schema with the same fuzzy rules the row store uses.
package importer

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/extrame/xls"
	"github.com/xuri/excelize/v2"

	"github.com/JonMunkholm/tbms/internal/core"
)

// MaxFileSize bounds the bytes read from one import file.
const MaxFileSize = 50 << 20

var (
	// ErrUnsupportedFormat is returned for unknown file extensions.
	ErrUnsupportedFormat = errors.New("unsupported import format")
	// ErrEmpty is returned when the file holds no header row.
	ErrEmpty = errors.New("import file is empty")
	// ErrSheetNotFound is returned when a named worksheet does not exist.
	ErrSheetNotFound = errors.New("worksheet not found")
)

// Result is the outcome of mapping a file to a table.
type Result struct {
	Records []core.Record
	// Ignored lists header cells that match no column of the table.
	Ignored []string
	// Missing lists table columns the file does not provide.
	Missing []string
}

// ImportFile reads r as the format implied by filename and maps it to schema.
// sheet selects a worksheet in spreadsheet files; empty means the first.
func ImportFile(r io.Reader, filename, sheet string, schema core.TableSchema) (Result, error) {
	rows, err := ReadRows(r, filename, sheet)
	if err != nil {
		return Result{}, err
	}
	return ToRecords(rows, schema)
}

// ReadRows returns the cell text of every row.
func ReadRows(r io.Reader, filename, sheet string) ([][]string, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxFileSize+1))
	if err != nil {
		return nil, err
	}
	if len(data) > MaxFileSize {
		return nil, fmt.Errorf("import file exceeds %d bytes", MaxFileSize)
	}

	switch ext := strings.ToLower(filepath.Ext(filename)); ext {
	case ".csv", ".txt":
		return readCSV(data)
	case ".xlsx", ".xlsm":
		return readXLSX(data, sheet)
	case ".xls":
		return readXLS(data, sheet)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
}

func readCSV(data []byte) ([][]string, error) {
	r := csv.NewReader(newCleanReader(bytes.NewReader(data)))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	return r.ReadAll()
}

func readXLSX(data []byte, sheet string) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	defer func() { _ = f.Close() }()

	if sheet == "" {
		sheet = f.GetSheetName(0)
	} else if idx, _ := f.GetSheetIndex(sheet); idx < 0 {
		return nil, fmt.Errorf("%w: %s", ErrSheetNotFound, sheet)
	}
	if sheet == "" {
		return nil, fmt.Errorf("%w: workbook has no sheets", ErrSheetNotFound)
	}
	return f.GetRows(sheet)
}

func readXLS(data []byte, sheet string) (rows [][]string, err error) {
	// The xls decoder panics on some malformed files.
	defer func() {
		if r := recover(); r != nil {
			rows, err = nil, fmt.Errorf("read xls: %v", r)
		}
	}()

	wb, err := xls.OpenReader(bytes.NewReader(data), "utf-8")
	if err != nil {
		return nil, fmt.Errorf("open xls: %w", err)
	}

	for i := 0; i < wb.NumSheets(); i++ {
		ws := wb.GetSheet(i)
		if ws == nil || (sheet != "" && ws.Name != sheet) {
			continue
		}
		rows = make([][]string, 0, int(ws.MaxRow)+1)
		for r := 0; r <= int(ws.MaxRow); r++ {
			row := ws.Row(r)
			if row == nil {
				rows = append(rows, nil)
				continue
			}
			cells := make([]string, row.LastCol())
			for c := row.FirstCol(); c < row.LastCol(); c++ {
				cells[c] = row.Col(c)
			}
			rows = append(rows, cells)
		}
		return rows, nil
	}

	if sheet == "" {
		return nil, fmt.Errorf("%w: workbook has no sheets", ErrSheetNotFound)
	}
	return nil, fmt.Errorf("%w: %s", ErrSheetNotFound, sheet)
}

// ToRecords maps rows to schema. The first non-empty row is the header.
// Blank rows are skipped; the row store decides which rows are present.
func ToRecords(rows [][]string, schema core.TableSchema) (Result, error) {
	start := 0
	for start < len(rows) && isEmptyRow(rows[start]) {
		start++
	}
	if start == len(rows) {
		return Result{}, ErrEmpty
	}

	header := make([]string, len(rows[start]))
	for i, h := range rows[start] {
		header[i] = cleanCell(h)
	}
	mapping := core.MapHeader(header, schema)

	res := Result{Records: []core.Record{}}
	used := make(map[int]bool, len(mapping))
	for i, src := range mapping {
		if src == core.Absent {
			res.Missing = append(res.Missing, schema.Columns[i].Name)
			continue
		}
		used[src] = true
	}
	for i, h := range header {
		if h != "" && !used[i] {
			res.Ignored = append(res.Ignored, h)
		}
	}

	for _, row := range rows[start+1:] {
		if isEmptyRow(row) {
			continue
		}
		rec := make(core.Record, len(schema.Columns))
		for i, src := range mapping {
			if src == core.Absent || src >= len(row) {
				continue
			}
			rec[schema.Columns[i].Name] = cleanCell(row[src])
		}
		res.Records = append(res.Records, rec)
	}
	return res, nil
}

// cleanCell trims whitespace and unwraps values exported as ="..." formulas.
func cleanCell(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, `="`) && strings.HasSuffix(s, `"`) && len(s) >= 3 {
		return s[2 : len(s)-1]
	}
	return s
}

func isEmptyRow(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
