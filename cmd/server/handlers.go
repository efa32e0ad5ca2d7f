package main

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/sentinelsec/inspector"
)

type handler struct {
	engine   inspector.Engine
	adminKey string
}

func newHandler(e inspector.Engine, adminKey string) *handler {
	return &handler{engine: e, adminKey: adminKey}
}

// POST /api/logs
// The agent submits one intercepted request and gets back the decision.
func (h *handler) handleLogs(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Minute)
	defer cancel()

	var req inspector.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, "invalid request body")
		return
	}

	res, err := h.engine.Inspect(ctx, req)
	switch {
	case errors.Is(err, inspector.ErrMissingPrompt), errors.Is(err, inspector.ErrMissingTime):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	case err != nil:
		writeError(w, http.StatusInternalServerError, "inspection failed")
		slog.Error("inspect error", "error", err)
		return
	}

	writeJSON(w, http.StatusOK, res)
}

// GET /api/settings
func (h *handler) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	if !h.adminAuthorized(r) {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	st, err := h.engine.Settings(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to read settings")
		slog.Error("settings read error", "error", err)
		return
	}

	writeJSON(w, http.StatusOK, st)
}

// GET /api/healthz
func (h *handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{
		"ok": true,
	})
}

// adminAuthorized checks the dashboard key. An empty configured key
// disables the check (development mode).
func (h *handler) adminAuthorized(r *http.Request) bool {
	if h.adminKey == "" {
		return true
	}
	return r.Header.Get("X-Admin-Key") == h.adminKey
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
