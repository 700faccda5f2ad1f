package core

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/JonMunkholm/tbms/internal/grid"
)

const (
	timeLayout = "15:04"
	dateLayout = "2006-01-02"
)

// IDGenerator returns a new identifier with the given prefix.
type IDGenerator func(prefix string) string

// GenerateID returns prefix + "_" + 12 random hex characters.
func GenerateID(prefix string) string {
	hex := strings.ReplaceAll(uuid.NewString(), "-", "")
	return prefix + "_" + hex[:12]
}

// Codec converts between physical rows and logical records.
type Codec struct {
	loc   *time.Location
	newID IDGenerator
}

// NewCodec returns a codec formatting timestamps in loc (UTC when nil)
// and synthesizing identifiers with newID (GenerateID when nil).
func NewCodec(loc *time.Location, newID IDGenerator) *Codec {
	if loc == nil {
		loc = time.UTC
	}
	if newID == nil {
		newID = GenerateID
	}
	return &Codec{loc: loc, newID: newID}
}

// Location returns the time zone timestamps are formatted in.
func (c *Codec) Location() *time.Location { return c.loc }

// NewID synthesizes an identifier for a row of schema.
func (c *Codec) NewID(schema TableSchema) string {
	return c.newID(schema.IDPrefix())
}

// Decode converts a physical data row into a record. Every canonical column
// is present in the result. The boolean is false when the row is absent:
// all of its text-bearing columns are empty.
func (c *Codec) Decode(schema TableSchema, mapping Mapping, row []any) (Record, bool) {
	rec := make(Record, len(schema.Columns))
	present := false

	for i, col := range schema.Columns {
		var raw any
		if i < len(mapping) && mapping[i] != Absent && mapping[i] < len(row) {
			raw = row[mapping[i]]
		}
		v := c.coerce(col, raw)
		rec[col.Name] = v

		if col.Type != ColumnNumeric && col.Type != ColumnBool {
			if s, ok := v.(string); !ok || s != "" {
				present = true
			}
		}
	}
	return rec, present
}

// Encode converts a record into a physical row in canonical column order.
// Missing and nil values become empty cells. Values are not re-validated.
func (c *Codec) Encode(schema TableSchema, rec Record) []any {
	row := make([]any, len(schema.Columns))
	for i, col := range schema.Columns {
		v := rec[col.Name]
		if n, ok := v.(json.Number); ok && col.Type == ColumnText {
			row[i] = Stringify(n)
			continue
		}
		row[i] = grid.Normalize(v)
	}
	return row
}

func (c *Codec) coerce(col Column, raw any) any {
	if t, ok := raw.(time.Time); ok {
		if col.Type == ColumnTime {
			return t.In(c.loc).Format(timeLayout)
		}
		return t.In(c.loc).Format(dateLayout)
	}

	switch col.Type {
	case ColumnBool:
		return toBool(raw)
	case ColumnNumeric:
		return toNumber(raw)
	default:
		return Stringify(raw)
	}
}

// Stringify renders a cell or parameter value as text. Numbers are written
// without trailing zeros and nil is the empty string. Integer literals
// decoded as json.Number keep every digit.
func Stringify(v any) string {
	if n, ok := v.(json.Number); ok {
		if i, err := n.Int64(); err == nil {
			return strconv.FormatInt(i, 10)
		}
	}
	switch val := grid.Normalize(v).(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	case time.Time:
		return val.Format(dateLayout)
	default:
		return ""
	}
}

func toBool(v any) bool {
	switch val := grid.Normalize(v).(type) {
	case bool:
		return val
	case float64:
		return val == 1
	case string:
		switch strings.ToLower(strings.TrimSpace(val)) {
		case "true", "t", "yes", "y", "1":
			return true
		}
	}
	return false
}

func toNumber(v any) float64 {
	switch val := grid.Normalize(v).(type) {
	case float64:
		if math.IsNaN(val) || math.IsInf(val, 0) {
			return 0
		}
		return val
	case bool:
		if val {
			return 1
		}
		return 0
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0
		}
		return f
	}
	return 0
}
