package web

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/tbms/internal/action"
	"github.com/JonMunkholm/tbms/internal/core"
	"github.com/JonMunkholm/tbms/internal/logging"
	"github.com/JonMunkholm/tbms/internal/photos"
	"github.com/JonMunkholm/tbms/internal/web/templates"
)

// handleActionGet runs a read-only action named by the action query
// parameter. A missing action is a ping.
func (s *Server) handleActionGet(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	name := q.Get("action")
	params := action.ParamsFromQuery(q)
	delete(params, "action")

	req, err := action.DecodeRead(name, params)
	if err != nil {
		respondError(w, r, err)
		return
	}
	s.execute(w, r, req)
}

// handleActionPost runs any action from a JSON body. The body is read
// regardless of Content-Type so text/plain clients work too.
func (s *Server) handleActionPost(w http.ResponseWriter, r *http.Request) {
	name, params, err := action.ParseBody(r.Body)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if name == "" {
		name = r.URL.Query().Get("action")
	}

	req, err := action.Decode(name, params)
	if err != nil {
		respondError(w, r, err)
		return
	}
	s.execute(w, r, req)
}

func (s *Server) execute(w http.ResponseWriter, r *http.Request, req action.Request) {
	ctx := WithRequestMetadata(r.Context(), r)

	payload, err := action.Execute(ctx, s.service, req)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if req.Kind() == action.Write {
		logging.FromContext(ctx).Debug("action applied", "action", req.Action())
	}
	writeJSON(w, http.StatusOK, action.OK(payload))
}

// handlePhoto serves a stored photo.
func (s *Server) handlePhoto(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if s.photos == nil {
		respondError(w, r, fmt.Errorf("%w: photo %s", core.ErrNotFound, id))
		return
	}
	f, err := s.photos.Open(id)
	if err != nil {
		if errors.Is(err, photos.ErrNotFound) {
			err = fmt.Errorf("%w: photo %s", core.ErrNotFound, id)
		}
		respondError(w, r, err)
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		respondError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", s.photos.ContentType())
	w.Header().Set("Cache-Control", "private, max-age=86400")
	http.ServeContent(w, r, id, info.ModTime(), f)
}

// handleHealth reports liveness without taking the gate.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ping := s.service.Ping()
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": ping.Version,
		"time":    ping.Time,
		"gate":    s.service.GateStatus(),
	})
}

// handleDashboard renders the status page. Row counts need the gate; when
// it cannot be acquired the page still renders with the error shown.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	ping := s.service.Ping()
	data := templates.DashboardData{
		Version: ping.Version,
		Time:    ping.Time,
		Gate:    s.service.GateStatus(),
	}

	counts, err := s.service.CountRows(r.Context())
	if err != nil {
		logging.FromContext(r.Context()).Warn("dashboard row count failed", "error", err)
		data.Error = core.FormatUserError(err)
	}
	data.Tables = counts

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	if err := templates.Dashboard(data).Render(r.Context(), w); err != nil {
		logging.FromContext(r.Context()).Error("render dashboard", "error", err)
	}
}
