package grid

import (
	"encoding/json"
	"io"
	"slices"
)

// Memory is a Workbook held entirely in process memory.
type Memory struct {
	sheets []*MemorySheet
	dirty  bool
}

// NewMemory returns an empty in-memory workbook.
func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) Sheet(name string) (Sheet, bool) {
	s := m.find(name)
	if s == nil {
		return nil, false
	}
	return s, true
}

func (m *Memory) EnsureSheet(name string) (Sheet, bool, error) {
	if s := m.find(name); s != nil {
		return s, false, nil
	}
	s := &MemorySheet{name: name, book: m}
	m.sheets = append(m.sheets, s)
	m.dirty = true
	return s, true, nil
}

func (m *Memory) SheetNames() []string {
	names := make([]string, len(m.sheets))
	for i, s := range m.sheets {
		names[i] = s.name
	}
	return names
}

func (m *Memory) DeleteSheet(name string) error {
	if len(m.sheets) <= 1 {
		return nil
	}
	for i, s := range m.sheets {
		if s.name == name {
			m.sheets = slices.Delete(m.sheets, i, i+1)
			m.dirty = true
			return nil
		}
	}
	return ErrSheetNotFound
}

func (m *Memory) Dirty() bool { return m.dirty }

func (m *Memory) Flush() error {
	m.dirty = false
	return nil
}

// Snapshot writes every sheet's data range as JSON.
func (m *Memory) Snapshot(w io.Writer) error {
	out := make(map[string][][]any, len(m.sheets))
	for _, s := range m.sheets {
		vals, _ := s.Values()
		out[s.name] = vals
	}
	return json.NewEncoder(w).Encode(out)
}

func (m *Memory) Close() error { return nil }

func (m *Memory) find(name string) *MemorySheet {
	for _, s := range m.sheets {
		if s.name == name {
			return s
		}
	}
	return nil
}

// MemorySheet is a Sheet of a Memory workbook.
type MemorySheet struct {
	name       string
	book       *Memory
	cells      [][]any
	boldCols   int
	frozenRows int
}

func (s *MemorySheet) Name() string { return s.name }

func (s *MemorySheet) Values() ([][]any, error) {
	rows, cols := s.LastRow(), s.LastColumn()
	out := make([][]any, rows)
	for r := 0; r < rows; r++ {
		row := make([]any, cols)
		for c := 0; c < cols; c++ {
			row[c] = ""
			if c < len(s.cells[r]) && !IsEmpty(s.cells[r][c]) {
				row[c] = s.cells[r][c]
			}
		}
		out[r] = row
	}
	return out, nil
}

func (s *MemorySheet) LastRow() int {
	for r := len(s.cells) - 1; r >= 0; r-- {
		for _, v := range s.cells[r] {
			if !IsEmpty(v) {
				return r + 1
			}
		}
	}
	return 0
}

func (s *MemorySheet) LastColumn() int {
	last := 0
	for _, row := range s.cells {
		for c := len(row) - 1; c >= last; c-- {
			if !IsEmpty(row[c]) {
				last = c + 1
				break
			}
		}
	}
	return last
}

func (s *MemorySheet) SetValues(row, col int, values [][]any) error {
	if err := validateRange(row, col); err != nil {
		return err
	}
	for i, vals := range values {
		for j, v := range vals {
			s.set(row+i, col+j, Normalize(v))
		}
	}
	s.book.dirty = true
	return nil
}

func (s *MemorySheet) ClearRange(row, col, numRows, numCols int) error {
	if err := validateRange(row, col); err != nil {
		return err
	}
	for r := row; r < row+numRows && r <= len(s.cells); r++ {
		cells := s.cells[r-1]
		for c := col; c < col+numCols && c <= len(cells); c++ {
			cells[c-1] = nil
		}
	}
	s.book.dirty = true
	return nil
}

func (s *MemorySheet) AppendRows(values [][]any) error {
	if len(values) == 0 {
		return nil
	}
	return s.SetValues(s.LastRow()+1, 1, values)
}

func (s *MemorySheet) DeleteRow(row int) error {
	if err := validateRange(row, 1); err != nil {
		return err
	}
	if row > len(s.cells) {
		return nil
	}
	s.cells = slices.Delete(s.cells, row-1, row)
	s.book.dirty = true
	return nil
}

func (s *MemorySheet) StyleHeader(numCols int) error {
	s.boldCols = numCols
	s.frozenRows = 1
	s.book.dirty = true
	return nil
}

// BoldColumns reports how many header cells are styled bold.
func (s *MemorySheet) BoldColumns() int { return s.boldCols }

// FrozenRows reports how many leading rows are frozen.
func (s *MemorySheet) FrozenRows() int { return s.frozenRows }

func (s *MemorySheet) set(row, col int, v any) {
	for len(s.cells) < row {
		s.cells = append(s.cells, nil)
	}
	cells := s.cells[row-1]
	for len(cells) < col {
		cells = append(cells, nil)
	}
	cells[col-1] = v
	s.cells[row-1] = cells
}
