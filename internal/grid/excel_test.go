package grid

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"
)

func TestExcel_NewFileIsCreatedOnFlush(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "tbms.xlsx")

	book, err := OpenExcel(path, nil)
	if err != nil {
		t.Fatalf("OpenExcel: %v", err)
	}
	defer book.Close()

	if !book.Dirty() {
		t.Error("a workbook that does not exist yet should be dirty")
	}
	if err := book.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("workbook file not written: %v", err)
	}
	if book.ChangedOnDisk() {
		t.Error("our own save should not count as an external change")
	}
}

func TestExcel_RoundTripTypes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tbms.xlsx")

	book, err := OpenExcel(path, nil)
	if err != nil {
		t.Fatalf("OpenExcel: %v", err)
	}
	s, created, err := book.EnsureSheet("Staff")
	if err != nil || !created {
		t.Fatalf("EnsureSheet = (%v, %v)", created, err)
	}
	s.SetValues(1, 1, [][]any{{"id", "name", "rate", "active"}})
	s.AppendRows([][]any{{"sta_1", "Alice", 11.5, true}})
	if err := book.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	book.Close()

	reopened, err := OpenExcel(path, nil)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()

	rs, ok := reopened.Sheet("Staff")
	if !ok {
		t.Fatal("Staff sheet missing after reopen")
	}
	vals, err := rs.Values()
	if err != nil {
		t.Fatalf("Values: %v", err)
	}
	if len(vals) != 2 {
		t.Fatalf("len(Values) = %d, want 2", len(vals))
	}
	row := vals[1]
	if row[1] != "Alice" {
		t.Errorf("name = %#v, want Alice", row[1])
	}
	if row[2] != 11.5 {
		t.Errorf("rate = %#v, want 11.5", row[2])
	}
	if row[3] != true {
		t.Errorf("active = %#v, want true", row[3])
	}
}

func TestExcel_DateCellsReadAsTime(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dates.xlsx")

	f := excelize.NewFile()
	f.SetCellValue("Sheet1", "A1", "date")
	f.SetCellValue("Sheet1", "A2", 46023.0) // 2026-01-01
	style, err := f.NewStyle(&excelize.Style{NumFmt: 14})
	if err != nil {
		t.Fatalf("NewStyle: %v", err)
	}
	f.SetCellStyle("Sheet1", "A2", "A2", style)
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("SaveAs: %v", err)
	}
	f.Close()

	book, err := OpenExcel(path, nil)
	if err != nil {
		t.Fatalf("OpenExcel: %v", err)
	}
	defer book.Close()

	s, _ := book.Sheet("Sheet1")
	vals, _ := s.Values()
	got, ok := vals[1][0].(time.Time)
	if !ok {
		t.Fatalf("date cell = %#v, want time.Time", vals[1][0])
	}
	if got.Format("2006-01-02") != "2026-01-01" {
		t.Errorf("date = %s, want 2026-01-01", got.Format("2006-01-02"))
	}
}

func TestExcel_ClearAndDelete(t *testing.T) {
	book, err := OpenExcel(filepath.Join(t.TempDir(), "t.xlsx"), nil)
	if err != nil {
		t.Fatalf("OpenExcel: %v", err)
	}
	defer book.Close()

	s, _, _ := book.EnsureSheet("T")
	s.SetValues(1, 1, [][]any{
		{"id", "a", "extra"},
		{"1", "x", "y"},
		{"2", "z", "w"},
	})

	if err := s.ClearRange(1, 3, 3, 1); err != nil {
		t.Fatalf("ClearRange: %v", err)
	}
	if got := s.LastColumn(); got != 2 {
		t.Errorf("LastColumn() = %d, want 2", got)
	}

	if err := s.DeleteRow(2); err != nil {
		t.Fatalf("DeleteRow: %v", err)
	}
	vals, _ := s.Values()
	if len(vals) != 2 || vals[1][0] != "2" {
		t.Errorf("after delete Values = %v", vals)
	}
}

func TestExcel_StyleHeaderAndSnapshot(t *testing.T) {
	book, err := OpenExcel(filepath.Join(t.TempDir(), "t.xlsx"), nil)
	if err != nil {
		t.Fatalf("OpenExcel: %v", err)
	}
	defer book.Close()

	s, _, _ := book.EnsureSheet("T")
	s.SetValues(1, 1, [][]any{{"id", "name"}})
	if err := s.StyleHeader(2); err != nil {
		t.Fatalf("StyleHeader: %v", err)
	}

	var buf bytes.Buffer
	if err := book.Snapshot(&buf); err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("snapshot is not a workbook: %v", err)
	}
	defer f.Close()

	panes, err := f.GetPanes("T")
	if err != nil {
		t.Fatalf("GetPanes: %v", err)
	}
	if !panes.Freeze || panes.YSplit != 1 {
		t.Errorf("panes = %+v, want header row frozen", panes)
	}
}

func TestIsDateFormat(t *testing.T) {
	tests := []struct {
		format string
		want   bool
	}{
		{"yyyy-mm-dd", true},
		{"hh:mm", true},
		{"0.00", false},
		{`"Day "0`, false},
		{"[Red]0.00", false},
		{"[$-409]d-mmm-yy", true},
	}
	for _, tt := range tests {
		if got := isDateFormat(tt.format); got != tt.want {
			t.Errorf("isDateFormat(%q) = %v, want %v", tt.format, got, tt.want)
		}
	}
}
