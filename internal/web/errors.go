package web

// errors.go maps errors to HTTP status codes and the JSON error envelope.
//
// The technical error is logged with the request id. Clients receive the
// envelope from action.Failure; for server faults the raw error text is
// replaced by the user message.

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/JonMunkholm/tbms/internal/action"
	"github.com/JonMunkholm/tbms/internal/core"
	"github.com/JonMunkholm/tbms/internal/logging"
)

// statusFor returns the HTTP status for err.
func statusFor(err error) int {
	var tooLarge *http.MaxBytesError
	switch {
	case errors.Is(err, errRateLimited):
		return http.StatusTooManyRequests
	case errors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, core.ErrLockTimeout):
		return http.StatusServiceUnavailable
	case errors.Is(err, core.ErrNotFound):
		return http.StatusNotFound
	case core.IsValidation(err):
		return http.StatusBadRequest
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// respondError logs err and writes the error envelope.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	body := action.Failure(err)

	level := slog.LevelWarn
	if status >= http.StatusInternalServerError && status != http.StatusServiceUnavailable {
		level = slog.LevelError
		body["error"] = body["message"]
	}
	logging.FromContext(r.Context()).Log(r.Context(), level, "request error",
		"path", r.URL.Path,
		"method", r.Method,
		"status", status,
		"code", body["code"],
		"error", err.Error(),
	)

	if status == http.StatusServiceUnavailable {
		w.Header().Set("Retry-After", "5")
	}
	writeJSON(w, status, body)
}

// writeJSON encodes v with the given status. Encoding errors are only
// logged because the header is already sent.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode error", "error", err)
	}
}
