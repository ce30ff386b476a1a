package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/hearthml/hearth/internal/model"
	"github.com/hearthml/hearth/internal/server/middleware"
	"github.com/hearthml/hearth/internal/store"
)

// LogsHandler serves the prediction audit log endpoints. Every endpoint is
// scoped to the authenticated key; callers only ever see their own history,
// except for the aggregate stats view.
type LogsHandler struct {
	store *store.Store
}

// NewLogsHandler creates a new LogsHandler.
func NewLogsHandler(st *store.Store) *LogsHandler {
	return &LogsHandler{store: st}
}

type logListResponse struct {
	Logs  []model.PredictionLog `json:"logs"`
	Total int64                 `json:"total"`
	Skip  int                   `json:"skip"`
	Limit int                   `json:"limit"`
}

// List returns the caller's prediction history, newest first.
// GET /api/v1/logs
func (h *LogsHandler) List(w http.ResponseWriter, r *http.Request) {
	principal := middleware.GetPrincipal(r.Context())
	if principal == nil {
		writeError(w, r, http.StatusUnauthorized, "Could not validate credentials")
		return
	}

	skip := queryInt(r, "skip", 0)
	if skip < 0 {
		skip = 0
	}
	limit := clampInt(queryInt(r, "limit", 50), 1, 100)

	logs, err := h.store.ListPredictionLogsByKey(r.Context(), principal.ID, skip, limit)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "Failed to list prediction logs")
		return
	}
	total, err := h.store.CountPredictionLogsByKey(r.Context(), principal.ID)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "Failed to count prediction logs")
		return
	}

	writeJSON(w, http.StatusOK, logListResponse{
		Logs:  logs,
		Total: total,
		Skip:  skip,
		Limit: limit,
	})
}

type logStatsResponse struct {
	TotalPredictions  int64 `json:"total_predictions"`
	PredictionsByUser int64 `json:"predictions_by_user"`
}

// Stats returns the global prediction count plus the caller's own count.
// GET /api/v1/logs/stats
func (h *LogsHandler) Stats(w http.ResponseWriter, r *http.Request) {
	principal := middleware.GetPrincipal(r.Context())
	if principal == nil {
		writeError(w, r, http.StatusUnauthorized, "Could not validate credentials")
		return
	}

	total, err := h.store.CountPredictionLogs(r.Context())
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "Failed to compute stats")
		return
	}
	byUser, err := h.store.CountPredictionLogsByKey(r.Context(), principal.ID)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "Failed to compute stats")
		return
	}

	writeJSON(w, http.StatusOK, logStatsResponse{
		TotalPredictions:  total,
		PredictionsByUser: byUser,
	})
}

// Get returns a single prediction log entry. Entries owned by another key,
// or orphaned by a hard key deletion, are forbidden rather than hidden.
// GET /api/v1/logs/{logID}
func (h *LogsHandler) Get(w http.ResponseWriter, r *http.Request) {
	principal := middleware.GetPrincipal(r.Context())
	if principal == nil {
		writeError(w, r, http.StatusUnauthorized, "Could not validate credentials")
		return
	}

	idStr := chi.URLParam(r, "logID")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "Invalid log ID: "+idStr)
		return
	}

	entry, err := h.store.GetPredictionLog(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, r, http.StatusNotFound, "Prediction log not found")
			return
		}
		writeError(w, r, http.StatusInternalServerError, "Failed to fetch prediction log")
		return
	}
	if entry.APIKeyID == nil || *entry.APIKeyID != principal.ID {
		writeError(w, r, http.StatusForbidden, "Not authorized to view this log")
		return
	}

	writeJSON(w, http.StatusOK, entry)
}
