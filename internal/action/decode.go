package action

import (
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/JonMunkholm/tbms/internal/core"
)

// Params are the loosely typed parameters of one call: query values for
// GET, the JSON body for POST.
type Params map[string]any

type decoder func(Params) (Request, error)

var decoders = map[string]decoder{
	"getAll": func(Params) (Request, error) { return GetAll{}, nil },
	"getSheet": func(p Params) (Request, error) {
		return GetSheet{Sheet: p.str("sheet")}, nil
	},
	"getStoreData": func(p Params) (Request, error) {
		return GetStoreData{StoreID: p.str("storeId"), Sheets: p.list("sheets")}, nil
	},
	"getSetting": func(p Params) (Request, error) {
		return GetSetting{Key: p.str("key")}, nil
	},
	"init": func(Params) (Request, error) { return Init{}, nil },
	"ping": func(Params) (Request, error) { return Ping{}, nil },

	"saveSheet": func(p Params) (Request, error) {
		rows, err := p.records("rows")
		if err != nil {
			return nil, err
		}
		if rows == nil {
			return nil, fmt.Errorf("%w: rows is required", core.ErrInvalidParams)
		}
		return SaveSheet{Sheet: p.str("sheet"), Rows: rows}, nil
	},
	"upsert": func(p Params) (Request, error) {
		row, err := p.record("row")
		if err != nil {
			return nil, err
		}
		return Upsert{Sheet: p.str("sheet"), Row: row}, nil
	},
	"deleteRow": func(p Params) (Request, error) {
		return DeleteRow{Sheet: p.str("sheet"), ID: p.str("id")}, nil
	},
	"appendRow": func(p Params) (Request, error) {
		row, err := p.record("row")
		if err != nil {
			return nil, err
		}
		return AppendRow{Sheet: p.str("sheet"), Row: row}, nil
	},
	"clockInPhoto": func(p Params) (Request, error) {
		row, err := p.record("row")
		if err != nil {
			return nil, err
		}
		return ClockInPhoto{Row: row, Photo: p.str("photo")}, nil
	},
	"clockOutPhoto": func(p Params) (Request, error) {
		return ClockOutPhoto{ID: p.str("id"), ClockOut: p.str("clockOut"), Photo: p.str("photo")}, nil
	},
	"submitStockCount": func(p Params) (Request, error) {
		items, err := p.records("items")
		if err != nil {
			return nil, err
		}
		sub := core.StockCountSubmission{
			StoreID:     p.str("storeId"),
			Date:        p.str("date"),
			SubmittedBy: p.str("submittedBy"),
		}
		for _, it := range items {
			sub.Items = append(sub.Items, core.StockCountItemFromRecord(it))
		}
		return SubmitStockCount{Submission: sub}, nil
	},
	"addEditLog": func(p Params) (Request, error) {
		return AddEditLog{Entry: core.EditLogEntry{
			AttendanceID:  p.str("attendanceId"),
			Field:         p.str("field"),
			OldValue:      p.str("oldValue"),
			NewValue:      p.str("newValue"),
			ClientVersion: p.str("clientVersion"),
		}}, nil
	},
	"createTimeRequest": func(p Params) (Request, error) {
		return CreateTimeRequest{Request: core.TimeChangeRequest{
			AttendanceID:   p.str("attendanceId"),
			StaffID:        p.str("staffId"),
			StoreID:        p.str("storeId"),
			Field:          p.str("field"),
			CurrentValue:   p.str("currentValue"),
			RequestedValue: p.str("requestedValue"),
			Reason:         p.str("reason"),
		}}, nil
	},
	"reviewTimeRequest": func(p Params) (Request, error) {
		return ReviewTimeRequest{ID: p.str("id"), Status: p.str("status"), ReviewedBy: p.str("reviewedBy")}, nil
	},
	"ackTimeRequest": func(p Params) (Request, error) {
		return AckTimeRequest{ID: p.str("id")}, nil
	},
	"saveSetting": func(p Params) (Request, error) {
		return SaveSetting{Key: p.str("key"), Value: p["value"]}, nil
	},
	"initData": func(p Params) (Request, error) {
		raw, ok := p["sheets"].(map[string]any)
		if !ok && p["sheets"] != nil {
			return nil, fmt.Errorf("%w: sheets must be an object of table rows", core.ErrInvalidParams)
		}
		sheets := make(map[string][]core.Record, len(raw))
		for name, v := range raw {
			rows, err := toRecords(v)
			if err != nil {
				return nil, fmt.Errorf("sheets.%s: %w", name, err)
			}
			sheets[name] = rows
		}
		return InitData{Sheets: sheets}, nil
	},
}

var decoderOrder = []string{
	"getAll", "getSheet", "getStoreData", "getSetting", "init", "ping",
	"saveSheet", "upsert", "deleteRow", "appendRow",
	"clockInPhoto", "clockOutPhoto", "submitStockCount", "addEditLog",
	"createTimeRequest", "reviewTimeRequest", "ackTimeRequest",
	"saveSetting", "initData",
}

// Decode resolves name to its typed request.
func Decode(name string, p Params) (Request, error) {
	d, ok := decoders[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownAction, name)
	}
	return d(p)
}

// DecodeRead is Decode for transports that only allow reads.
func DecodeRead(name string, p Params) (Request, error) {
	if name == "" {
		name = DefaultAction
	}
	req, err := Decode(name, p)
	if err != nil {
		return nil, err
	}
	if req.Kind() != Read {
		return nil, fmt.Errorf("%w: action %s requires POST", core.ErrInvalidParams, name)
	}
	return req, nil
}

// ParamsFromQuery uses the first value of every query key.
func ParamsFromQuery(q url.Values) Params {
	p := make(Params, len(q))
	for k, v := range q {
		if len(v) > 0 {
			p[k] = v[0]
		}
	}
	return p
}

// ParseBody reads a JSON object and splits off its action name. Numbers
// are kept as json.Number so long identifiers survive intact.
func ParseBody(r io.Reader) (string, Params, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()
	var p Params
	if err := dec.Decode(&p); err != nil {
		return "", nil, fmt.Errorf("%w: body must be a JSON object: %w", core.ErrInvalidParams, err)
	}
	if p == nil {
		return "", nil, fmt.Errorf("%w: body must be a JSON object", core.ErrInvalidParams)
	}
	name := core.Stringify(p["action"])
	delete(p, "action")
	return name, p, nil
}

func (p Params) str(key string) string {
	return core.Stringify(p[key])
}

// list accepts a comma-separated string or an array.
func (p Params) list(key string) []string {
	switch v := p[key].(type) {
	case string:
		return core.ParseTableList(v)
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s := core.Stringify(item); s != "" {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

func (p Params) record(key string) (core.Record, error) {
	rec, err := toRecord(p[key])
	if err != nil {
		return nil, fmt.Errorf("%s: %w", key, err)
	}
	return rec, nil
}

func (p Params) records(key string) ([]core.Record, error) {
	rows, err := toRecords(p[key])
	if err != nil {
		return nil, fmt.Errorf("%s: %w", key, err)
	}
	return rows, nil
}

// toRecord accepts an object, or a string holding a JSON object.
func toRecord(v any) (core.Record, error) {
	switch val := v.(type) {
	case nil:
		return nil, nil
	case map[string]any:
		return core.Record(val), nil
	case core.Record:
		return val, nil
	case string:
		var m map[string]any
		if err := unmarshalNumber(val, &m); err != nil {
			return nil, fmt.Errorf("%w: not a JSON object", core.ErrInvalidParams)
		}
		return core.Record(m), nil
	}
	return nil, fmt.Errorf("%w: expected an object, got %T", core.ErrInvalidParams, v)
}

// toRecords accepts an array of objects, or a string holding one.
func toRecords(v any) ([]core.Record, error) {
	switch val := v.(type) {
	case nil:
		return nil, nil
	case string:
		var arr []any
		if err := unmarshalNumber(val, &arr); err != nil {
			return nil, fmt.Errorf("%w: not a JSON array", core.ErrInvalidParams)
		}
		return toRecords(arr)
	case []core.Record:
		return val, nil
	case []any:
		out := make([]core.Record, 0, len(val))
		for i, item := range val {
			rec, err := toRecord(item)
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			if rec == nil {
				rec = core.Record{}
			}
			out = append(out, rec)
		}
		return out, nil
	}
	return nil, fmt.Errorf("%w: expected an array, got %T", core.ErrInvalidParams, v)
}

func unmarshalNumber(s string, v any) error {
	dec := json.NewDecoder(strings.NewReader(s))
	dec.UseNumber()
	return dec.Decode(v)
}
