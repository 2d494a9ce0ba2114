package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/viewday/vaultsync/internal/bridge"
	"github.com/viewday/vaultsync/internal/models"
	"github.com/viewday/vaultsync/internal/settings"
	"github.com/viewday/vaultsync/internal/sync"
)

// Handler holds API route handlers.
type Handler struct {
	engine   *sync.Engine
	settings *settings.Manager
	disp     *bridge.Dispatcher
}

// NewHandler creates a new Handler.
func NewHandler(engine *sync.Engine, mgr *settings.Manager, disp *bridge.Dispatcher) *Handler {
	return &Handler{engine: engine, settings: mgr, disp: disp}
}

// GetRules handles GET /rules.
func (h *Handler) GetRules(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"rules": h.settings.Get().Rules,
	})
}

// PutRules handles PUT /rules: replace the persisted rule set and push
// fresh payloads to any connected surface.
func (h *Handler) PutRules(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req struct {
		Rules []models.Rule `json:"rules"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if err := h.settings.ReplaceRules(req.Rules); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	h.disp.PushAll()
	writeJSON(w, http.StatusOK, map[string]any{"rules": h.settings.Get().Rules})
}

// GetCalendar handles GET /calendar: a fresh scan against active rules.
func (h *Handler) GetCalendar(w http.ResponseWriter, _ *http.Request) {
	events, err := h.engine.Scan(h.settings.ActiveRules())
	if err != nil {
		slog.Error("calendar scan failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"events":  events,
		"sources": h.settings.Get().Rules,
	})
}

// GetLinkedNotes handles GET /linked-notes: a fresh reindex.
func (h *Handler) GetLinkedNotes(w http.ResponseWriter, _ *http.Request) {
	index, err := h.engine.LinkedNotes()
	if err != nil {
		slog.Error("linked notes scan failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"linkedNotes": index})
}

// PostUnscheduled handles POST /unscheduled: run the detector over the
// supplied rule subset.
func (h *Handler) PostUnscheduled(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req struct {
		Sources []models.Rule `json:"sources"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if err := models.ValidateRules(req.Sources); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	items, err := h.engine.DetectUnscheduled(req.Sources)
	if err != nil {
		slog.Error("unscheduled scan failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}
