package core

import (
	"fmt"
	"log/slog"
	"strings"
	"unicode"

	"github.com/JonMunkholm/tbms/internal/grid"
)

// NormalizeHeader folds a header name for fuzzy comparison: whitespace,
// hyphens and underscores are removed and the rest is lower-cased, so
// "Nick Name", "nick_name" and "NickName" all normalize to "nickname".
func NormalizeHeader(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range name {
		if unicode.IsSpace(r) || r == '-' || r == '_' {
			continue
		}
		b.WriteRune(unicode.ToLower(r))
	}
	return b.String()
}

// readHeader returns the physical header: row 1 up to the first empty cell.
func readHeader(values [][]any) []string {
	if len(values) == 0 {
		return nil
	}
	var header []string
	for _, v := range values[0] {
		if grid.IsEmpty(v) {
			break
		}
		header = append(header, Stringify(v))
	}
	return header
}

// Reconcile makes the physical header of sheet match the canonical schema
// and returns the column mapping for the repaired sheet.
//
// An empty sheet gets the canonical header. A header that differs from the
// canonical one, by count or by exact name at any position, triggers a
// migration: data is moved into canonical column order by normalized name,
// canonical columns with no physical match are left empty, and surplus
// columns are cleared. Once migrated, a sheet reconciles as a no-op.
func Reconcile(sheet grid.Sheet, schema TableSchema) (Mapping, error) {
	values, err := sheet.Values()
	if err != nil {
		return nil, err
	}

	canonical := schema.Header()
	header := readHeader(values)

	if len(header) == 0 {
		if err := writeHeader(sheet, canonical); err != nil {
			return nil, err
		}
		return identityMapping(len(canonical)), nil
	}

	if headersEqual(header, canonical) {
		return identityMapping(len(canonical)), nil
	}

	if err := migrate(sheet, schema, header, values); err != nil {
		return nil, fmt.Errorf("migrate %s: %w", schema.Name, err)
	}

	slog.Warn("table header migrated",
		"table", schema.Name,
		"old_header", header,
		"new_header", canonical,
	)
	return identityMapping(len(canonical)), nil
}

// MapHeader resolves canonical columns against a physical header by
// normalized name. The first physical occurrence of a name wins.
func MapHeader(header []string, schema TableSchema) Mapping {
	byName := make(map[string]int, len(header))
	for i, h := range header {
		norm := NormalizeHeader(h)
		if _, dup := byName[norm]; !dup {
			byName[norm] = i
		}
	}

	m := make(Mapping, len(schema.Columns))
	for i, c := range schema.Columns {
		if idx, ok := byName[NormalizeHeader(c.Name)]; ok {
			m[i] = idx
		} else {
			m[i] = Absent
		}
	}
	return m
}

func migrate(sheet grid.Sheet, schema TableSchema, header []string, values [][]any) error {
	mapping := MapHeader(header, schema)
	width := len(schema.Columns)

	data := make([][]any, 0, len(values))
	for _, row := range values[1:] {
		out := make([]any, width)
		for i, idx := range mapping {
			out[i] = ""
			if idx != Absent && idx < len(row) {
				out[i] = row[idx]
			}
		}
		data = append(data, out)
	}

	if physical := sheet.LastColumn(); physical > width {
		if err := sheet.ClearRange(1, width+1, len(values), physical-width); err != nil {
			return err
		}
	}

	if err := writeHeader(sheet, schema.Header()); err != nil {
		return err
	}
	if len(data) > 0 {
		if err := sheet.SetValues(2, 1, data); err != nil {
			return err
		}
	}
	return nil
}

func writeHeader(sheet grid.Sheet, header []string) error {
	row := make([]any, len(header))
	for i, h := range header {
		row[i] = h
	}
	if err := sheet.SetValues(1, 1, [][]any{row}); err != nil {
		return err
	}
	return sheet.StyleHeader(len(header))
}

func headersEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
