package action

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"

	"github.com/JonMunkholm/tbms/internal/core"
)

// Service is the part of core.Service the actions call.
type Service interface {
	GetAll(ctx context.Context) (map[string][]core.Record, error)
	GetSheet(ctx context.Context, name string) ([]core.Record, error)
	GetStoreData(ctx context.Context, storeID string, tables []string) (map[string][]core.Record, error)
	GetSetting(ctx context.Context, key string) (any, error)
	Init(ctx context.Context) ([]string, error)
	Ping() core.PingResult

	SaveSheet(ctx context.Context, name string, rows []core.Record) (int, error)
	Upsert(ctx context.Context, name string, row core.Record) (core.UpsertAction, error)
	DeleteRow(ctx context.Context, name, id string) (bool, error)
	AppendRow(ctx context.Context, name string, row core.Record) error
	ClockIn(ctx context.Context, row core.Record, photo string) (core.ClockInResult, error)
	ClockOut(ctx context.Context, id, clockOut, photo string) (string, error)
	SubmitStockCount(ctx context.Context, sub core.StockCountSubmission) (core.StockCountResult, error)
	AddEditLog(ctx context.Context, e core.EditLogEntry) (string, error)
	CreateTimeRequest(ctx context.Context, req core.TimeChangeRequest) (string, error)
	ReviewTimeRequest(ctx context.Context, id, status, reviewer string) error
	AckTimeRequest(ctx context.Context, id string) error
	SaveSetting(ctx context.Context, key string, value any) error
	InitData(ctx context.Context, sheets map[string][]core.Record) (map[string]core.SeedResult, error)
}

// Payload is the action-specific part of a success response.
type Payload map[string]any

// Execute runs req. A panic inside the service is recovered and returned
// as an error.
func Execute(ctx context.Context, svc Service, req Request) (p Payload, err error) {
	defer func() {
		if r := recover(); r != nil {
			slog.ErrorContext(ctx, "action panicked",
				"action", req.Action(),
				"panic", r,
				"stack", string(debug.Stack()),
			)
			p, err = nil, fmt.Errorf("internal error in %s: %v", req.Action(), r)
		}
	}()

	switch r := req.(type) {
	case GetAll:
		data, err := svc.GetAll(ctx)
		return Payload{"data": data}, err
	case GetSheet:
		data, err := svc.GetSheet(ctx, r.Sheet)
		return Payload{"data": data}, err
	case GetStoreData:
		data, err := svc.GetStoreData(ctx, r.StoreID, r.Sheets)
		return Payload{"data": data}, err
	case GetSetting:
		v, err := svc.GetSetting(ctx, r.Key)
		return Payload{"value": v}, err
	case Init:
		created, err := svc.Init(ctx)
		return Payload{"created": created}, err
	case Ping:
		res := svc.Ping()
		return Payload{"time": res.Time, "version": res.Version}, nil

	case SaveSheet:
		n, err := svc.SaveSheet(ctx, r.Sheet, r.Rows)
		return Payload{"count": n}, err
	case Upsert:
		action, err := svc.Upsert(ctx, r.Sheet, r.Row)
		return Payload{"action": action}, err
	case DeleteRow:
		deleted, err := svc.DeleteRow(ctx, r.Sheet, r.ID)
		return Payload{"deleted": deleted}, err
	case AppendRow:
		return Payload{}, svc.AppendRow(ctx, r.Sheet, r.Row)
	case ClockInPhoto:
		res, err := svc.ClockIn(ctx, r.Row, r.Photo)
		return Payload{"id": res.ID, "photoRef": res.PhotoRef}, err
	case ClockOutPhoto:
		ref, err := svc.ClockOut(ctx, r.ID, r.ClockOut, r.Photo)
		return Payload{"photoRef": ref}, err
	case SubmitStockCount:
		res, err := svc.SubmitStockCount(ctx, r.Submission)
		return Payload{
			"count":     res.Count,
			"weekNo":    res.WeekNo,
			"updated":   res.Updated,
			"unmatched": res.Unmatched,
		}, err
	case AddEditLog:
		id, err := svc.AddEditLog(ctx, r.Entry)
		return Payload{"id": id}, err
	case CreateTimeRequest:
		id, err := svc.CreateTimeRequest(ctx, r.Request)
		return Payload{"id": id}, err
	case ReviewTimeRequest:
		return Payload{}, svc.ReviewTimeRequest(ctx, r.ID, r.Status, r.ReviewedBy)
	case AckTimeRequest:
		return Payload{}, svc.AckTimeRequest(ctx, r.ID)
	case SaveSetting:
		return Payload{}, svc.SaveSetting(ctx, r.Key, r.Value)
	case InitData:
		results, err := svc.InitData(ctx, r.Sheets)
		return Payload{"results": results}, err
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownAction, req.Action())
}

// OK builds the success envelope.
func OK(p Payload) map[string]any {
	out := make(map[string]any, len(p)+1)
	for k, v := range p {
		out[k] = v
	}
	out["status"] = "ok"
	return out
}

// Failure builds the error envelope.
func Failure(err error) map[string]any {
	msg := core.MapError(err)
	return map[string]any{
		"error":   err.Error(),
		"code":    msg.Code,
		"message": msg.Message,
		"hint":    msg.Action,
	}
}
