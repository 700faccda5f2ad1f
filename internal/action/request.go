// Package action turns named calls with loosely typed parameters into a
// closed set of typed requests and runs them against the service.
//
// Every request type implements Request; the set is sealed, so Execute's
// type switch covers every action that Decode can produce.
package action

import (
	"fmt"

	"github.com/JonMunkholm/tbms/internal/core"
)

// Kind separates actions that only read from actions that change data.
type Kind int

const (
	Read Kind = iota
	Write
)

func (k Kind) String() string {
	if k == Write {
		return "write"
	}
	return "read"
}

// Request is one decoded action.
type Request interface {
	Action() string
	Kind() Kind
	sealed()
}

type readOnly struct{}

func (readOnly) Kind() Kind { return Read }
func (readOnly) sealed()    {}

type mutating struct{}

func (mutating) Kind() Kind { return Write }
func (mutating) sealed()    {}

// Read actions.

type GetAll struct{ readOnly }

type GetSheet struct {
	readOnly
	Sheet string
}

type GetStoreData struct {
	readOnly
	StoreID string
	Sheets  []string
}

type GetSetting struct {
	readOnly
	Key string
}

type Init struct{ readOnly }

type Ping struct{ readOnly }

// Write actions.

type SaveSheet struct {
	mutating
	Sheet string
	Rows  []core.Record
}

type Upsert struct {
	mutating
	Sheet string
	Row   core.Record
}

type DeleteRow struct {
	mutating
	Sheet string
	ID    string
}

type AppendRow struct {
	mutating
	Sheet string
	Row   core.Record
}

type ClockInPhoto struct {
	mutating
	Row   core.Record
	Photo string
}

type ClockOutPhoto struct {
	mutating
	ID       string
	ClockOut string
	Photo    string
}

type SubmitStockCount struct {
	mutating
	Submission core.StockCountSubmission
}

type AddEditLog struct {
	mutating
	Entry core.EditLogEntry
}

type CreateTimeRequest struct {
	mutating
	Request core.TimeChangeRequest
}

type ReviewTimeRequest struct {
	mutating
	ID         string
	Status     string
	ReviewedBy string
}

type AckTimeRequest struct {
	mutating
	ID string
}

type SaveSetting struct {
	mutating
	Key   string
	Value any
}

type InitData struct {
	mutating
	Sheets map[string][]core.Record
}

func (GetAll) Action() string            { return "getAll" }
func (GetSheet) Action() string          { return "getSheet" }
func (GetStoreData) Action() string      { return "getStoreData" }
func (GetSetting) Action() string        { return "getSetting" }
func (Init) Action() string              { return "init" }
func (Ping) Action() string              { return "ping" }
func (SaveSheet) Action() string         { return "saveSheet" }
func (Upsert) Action() string            { return "upsert" }
func (DeleteRow) Action() string         { return "deleteRow" }
func (AppendRow) Action() string         { return "appendRow" }
func (ClockInPhoto) Action() string      { return "clockInPhoto" }
func (ClockOutPhoto) Action() string     { return "clockOutPhoto" }
func (SubmitStockCount) Action() string  { return "submitStockCount" }
func (AddEditLog) Action() string        { return "addEditLog" }
func (CreateTimeRequest) Action() string { return "createTimeRequest" }
func (ReviewTimeRequest) Action() string { return "reviewTimeRequest" }
func (AckTimeRequest) Action() string    { return "ackTimeRequest" }
func (SaveSetting) Action() string       { return "saveSetting" }
func (InitData) Action() string          { return "initData" }

// DefaultAction is used when a GET request names no action.
const DefaultAction = "ping"

// ErrUnknownAction is wrapped by Decode for names outside the action set.
var ErrUnknownAction = fmt.Errorf("%w: unknown action", core.ErrInvalidParams)

// Names lists every action in a stable order.
func Names() []string {
	return append([]string(nil), decoderOrder...)
}
