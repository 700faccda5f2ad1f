package core

import (
	"encoding/json"
	"reflect"
	"regexp"
	"testing"
	"time"
)

func typedSchema() TableSchema {
	return TableSchema{
		Name: "Attendance",
		Columns: []Column{
			Text("id"),
			Text("name"),
			Date("date"),
			Time("clockIn"),
			Numeric("qty"),
			Bool("active"),
		},
	}
}

func TestCodec_DecodeTypes(t *testing.T) {
	bst := time.FixedZone("BST", 3600)
	codec := NewCodec(bst, nil)
	schema := typedSchema()
	ts := time.Date(2026, 6, 1, 8, 30, 0, 0, time.UTC)

	rec, present := codec.Decode(schema, identityMapping(6), []any{"a1", ts, ts, ts, ts, "YES"})
	if !present {
		t.Fatal("row should be present")
	}

	want := Record{
		"id":      "a1",
		"name":    "2026-06-01",
		"date":    "2026-06-01",
		"clockIn": "09:30",
		"qty":     "2026-06-01",
		"active":  true,
	}
	if !reflect.DeepEqual(rec, want) {
		t.Errorf("Decode = %v, want %v", rec, want)
	}

	rec, _ = codec.Decode(schema, identityMapping(6), []any{"a2", "Ann", "", "", "12.5", ts})
	if rec["active"] != "2026-06-01" {
		t.Errorf("active = %#v, want 2026-06-01", rec["active"])
	}
	if rec["qty"] != 12.5 {
		t.Errorf("qty = %#v, want 12.5", rec["qty"])
	}
}

func TestCodec_BoolCoercion(t *testing.T) {
	tests := []struct {
		in   any
		want bool
	}{
		{true, true},
		{"true", true},
		{"TRUE", true},
		{"t", true},
		{"yes", true},
		{"Y", true},
		{"1", true},
		{1.0, true},
		{1, true},
		{false, false},
		{"false", false},
		{"no", false},
		{"", false},
		{0.0, false},
		{2.0, false},
		{nil, false},
	}
	for _, tt := range tests {
		if got := toBool(tt.in); got != tt.want {
			t.Errorf("toBool(%#v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestCodec_NumericCoercion(t *testing.T) {
	tests := []struct {
		in   any
		want float64
	}{
		{3.5, 3.5},
		{7, 7},
		{"12", 12},
		{" 4.25 ", 4.25},
		{"abc", 0},
		{"", 0},
		{nil, 0},
		{true, 1},
		{false, 0},
		{"NaN", 0},
	}
	for _, tt := range tests {
		if got := toNumber(tt.in); got != tt.want {
			t.Errorf("toNumber(%#v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestStringify(t *testing.T) {
	tests := []struct {
		in   any
		want string
	}{
		{nil, ""},
		{"", ""},
		{"abc", "abc"},
		{3.0, "3"},
		{2.50, "2.5"},
		{42, "42"},
		{true, "true"},
		{json.Number("12345678901234567"), "12345678901234567"},
		{json.Number("2.50"), "2.5"},
		{time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), "2026-01-01"},
	}
	for _, tt := range tests {
		if got := Stringify(tt.in); got != tt.want {
			t.Errorf("Stringify(%#v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestCodec_AbsentRow(t *testing.T) {
	codec := NewCodec(nil, nil)
	schema := typedSchema()

	tests := []struct {
		name    string
		row     []any
		present bool
	}{
		{"numeric and bool only", []any{"", "", "", "", 5.0, true}, false},
		{"completely empty", []any{"", "", "", "", "", ""}, false},
		{"short row", []any{}, false},
		{"any text field", []any{"", "x", "", "", 0.0, false}, true},
		{"id only", []any{"a1"}, true},
		{"time only", []any{"", "", "", "09:00"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, present := codec.Decode(schema, identityMapping(6), tt.row)
			if present != tt.present {
				t.Errorf("present = %v, want %v", present, tt.present)
			}
			if len(rec) != len(schema.Columns) {
				t.Errorf("record has %d fields, want %d", len(rec), len(schema.Columns))
			}
		})
	}
}

func TestCodec_AbsentColumnsDecodeEmpty(t *testing.T) {
	codec := NewCodec(nil, nil)
	schema := typedSchema()
	mapping := Mapping{0, Absent, Absent, Absent, Absent, Absent}

	rec, _ := codec.Decode(schema, mapping, []any{"a1", "ignored"})
	if rec["name"] != "" || rec["clockIn"] != "" {
		t.Errorf("absent text columns = %v, want empty strings", rec)
	}
	if rec["qty"] != 0.0 || rec["active"] != false {
		t.Errorf("absent typed columns = (%v, %v), want (0, false)", rec["qty"], rec["active"])
	}
}

func TestCodec_Encode(t *testing.T) {
	codec := NewCodec(nil, nil)
	schema := typedSchema()

	row := codec.Encode(schema, Record{
		"active":  true,
		"id":      "a1",
		"qty":     3,
		"clockIn": "09:00",
		"name":    nil,
		"extra":   "dropped",
	})
	want := []any{"a1", "", "", "09:00", 3.0, true}
	if !reflect.DeepEqual(row, want) {
		t.Errorf("Encode = %v, want %v", row, want)
	}
}

func TestGenerateID(t *testing.T) {
	re := regexp.MustCompile(`^sta_[0-9a-f]{12}$`)
	a, b := GenerateID("sta"), GenerateID("sta")
	if !re.MatchString(a) {
		t.Errorf("GenerateID = %q, want sta_ + 12 hex", a)
	}
	if a == b {
		t.Error("GenerateID returned the same id twice")
	}
}

func TestTableSchema_IDPrefix(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"Staff", "sta"},
		{"TimeChangeRequests", "tim"},
		{"EditLog", "edi"},
		{"Ab", "ab"},
	}
	for _, tt := range tests {
		if got := (TableSchema{Name: tt.name}).IDPrefix(); got != tt.want {
			t.Errorf("IDPrefix(%s) = %q, want %q", tt.name, got, tt.want)
		}
	}
}
