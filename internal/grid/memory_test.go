package grid

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"
)

func TestMemory_EnsureSheet(t *testing.T) {
	book := NewMemory()

	s, created, err := book.EnsureSheet("Staff")
	if err != nil {
		t.Fatalf("EnsureSheet: %v", err)
	}
	if !created {
		t.Error("first EnsureSheet should create the sheet")
	}
	if s.Name() != "Staff" {
		t.Errorf("Name() = %q, want %q", s.Name(), "Staff")
	}

	_, created, _ = book.EnsureSheet("Staff")
	if created {
		t.Error("second EnsureSheet should return the existing sheet")
	}
	if got := len(book.SheetNames()); got != 1 {
		t.Errorf("len(SheetNames) = %d, want 1", got)
	}
}

func TestMemory_DeleteSheet(t *testing.T) {
	book := NewMemory()
	book.EnsureSheet(DefaultSheetName)
	book.EnsureSheet("Staff")

	if err := book.DeleteSheet("Missing"); err != ErrSheetNotFound {
		t.Errorf("DeleteSheet(Missing) = %v, want ErrSheetNotFound", err)
	}
	if err := book.DeleteSheet(DefaultSheetName); err != nil {
		t.Fatalf("DeleteSheet: %v", err)
	}
	if _, ok := book.Sheet(DefaultSheetName); ok {
		t.Error("deleted sheet still present")
	}

	// The last sheet is kept.
	if err := book.DeleteSheet("Staff"); err != nil {
		t.Fatalf("DeleteSheet(last): %v", err)
	}
	if _, ok := book.Sheet("Staff"); !ok {
		t.Error("last sheet was removed")
	}
}

func TestMemorySheet_ValuesPadding(t *testing.T) {
	book := NewMemory()
	s, _, _ := book.EnsureSheet("T")

	s.SetValues(1, 1, [][]any{{"id", "name", "qty"}})
	s.SetValues(2, 1, [][]any{{"a1"}})
	s.SetValues(3, 2, [][]any{{"bob", 3}})

	if got := s.LastRow(); got != 3 {
		t.Errorf("LastRow() = %d, want 3", got)
	}
	if got := s.LastColumn(); got != 3 {
		t.Errorf("LastColumn() = %d, want 3", got)
	}

	vals, err := s.Values()
	if err != nil {
		t.Fatalf("Values: %v", err)
	}
	if len(vals) != 3 {
		t.Fatalf("len(Values) = %d, want 3", len(vals))
	}
	for i, row := range vals {
		if len(row) != 3 {
			t.Errorf("row %d has %d cells, want 3", i+1, len(row))
		}
	}
	if vals[1][1] != "" {
		t.Errorf("unset cell = %#v, want empty string", vals[1][1])
	}
	if vals[2][2] != float64(3) {
		t.Errorf("int cell = %#v, want float64(3)", vals[2][2])
	}
}

func TestMemorySheet_ClearRangeShrinksExtent(t *testing.T) {
	book := NewMemory()
	s, _, _ := book.EnsureSheet("T")
	s.SetValues(1, 1, [][]any{
		{"a", "b", "c"},
		{"1", "2", "3"},
	})

	if err := s.ClearRange(1, 3, 2, 1); err != nil {
		t.Fatalf("ClearRange: %v", err)
	}
	if got := s.LastColumn(); got != 2 {
		t.Errorf("LastColumn() after clear = %d, want 2", got)
	}

	if err := s.ClearRange(2, 1, 1, 2); err != nil {
		t.Fatalf("ClearRange: %v", err)
	}
	if got := s.LastRow(); got != 1 {
		t.Errorf("LastRow() after clear = %d, want 1", got)
	}
}

func TestMemorySheet_AppendAndDelete(t *testing.T) {
	book := NewMemory()
	s, _, _ := book.EnsureSheet("T")
	s.SetValues(1, 1, [][]any{{"id"}})

	if err := s.AppendRows([][]any{{"r1"}, {"r2"}, {"r3"}}); err != nil {
		t.Fatalf("AppendRows: %v", err)
	}
	if err := s.DeleteRow(3); err != nil {
		t.Fatalf("DeleteRow: %v", err)
	}

	vals, _ := s.Values()
	want := []string{"id", "r1", "r3"}
	if len(vals) != len(want) {
		t.Fatalf("len(Values) = %d, want %d", len(vals), len(want))
	}
	for i, w := range want {
		if vals[i][0] != w {
			t.Errorf("row %d = %v, want %q", i+1, vals[i][0], w)
		}
	}

	if err := s.DeleteRow(0); err == nil {
		t.Error("DeleteRow(0) should fail")
	}
}

func TestMemory_DirtyAndFlush(t *testing.T) {
	book := NewMemory()
	if book.Dirty() {
		t.Error("new workbook should be clean")
	}

	s, _, _ := book.EnsureSheet("T")
	book.Flush()
	s.SetValues(1, 1, [][]any{{"x"}})
	if !book.Dirty() {
		t.Error("write should mark the workbook dirty")
	}
	if err := book.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if book.Dirty() {
		t.Error("Flush should clear the dirty flag")
	}
}

func TestMemorySheet_StyleHeader(t *testing.T) {
	book := NewMemory()
	s, _, _ := book.EnsureSheet("T")
	s.StyleHeader(4)

	ms := s.(*MemorySheet)
	if ms.BoldColumns() != 4 {
		t.Errorf("BoldColumns() = %d, want 4", ms.BoldColumns())
	}
	if ms.FrozenRows() != 1 {
		t.Errorf("FrozenRows() = %d, want 1", ms.FrozenRows())
	}
}

func TestMemory_Snapshot(t *testing.T) {
	book := NewMemory()
	s, _, _ := book.EnsureSheet("T")
	s.SetValues(1, 1, [][]any{{"id", "qty"}, {"a", 2}})

	var buf bytes.Buffer
	if err := book.Snapshot(&buf); err != nil {
		t.Fatalf("Snapshot: %v", err)
	}

	var got map[string][][]any
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("snapshot is not JSON: %v", err)
	}
	if len(got["T"]) != 2 {
		t.Errorf("snapshot rows = %d, want 2", len(got["T"]))
	}
}

func TestNormalize(t *testing.T) {
	ts := time.Date(2026, 1, 1, 9, 30, 0, 0, time.UTC)

	tests := []struct {
		name string
		in   any
		want any
	}{
		{"nil", nil, ""},
		{"string", "abc", "abc"},
		{"int", 7, float64(7)},
		{"int64", int64(-2), float64(-2)},
		{"float32", float32(1.5), float64(1.5)},
		{"bool", true, true},
		{"time", ts, ts},
		{"json number", json.Number("12.25"), 12.25},
		{"map", map[string]any{"a": "b"}, `{"a":"b"}`},
		{"slice", []any{"x", 1.0}, `["x",1]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Normalize(tt.in); got != tt.want {
				t.Errorf("Normalize(%#v) = %#v, want %#v", tt.in, got, tt.want)
			}
		})
	}
}

func TestIsEmpty(t *testing.T) {
	if !IsEmpty(nil) || !IsEmpty("") {
		t.Error("nil and empty string should be empty")
	}
	if IsEmpty(0.0) || IsEmpty(false) || IsEmpty(" ") {
		t.Error("zero, false and whitespace are values")
	}
}
