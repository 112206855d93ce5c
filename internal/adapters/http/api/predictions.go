// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"net/http"
	"strconv"
)

const defaultMaxHistoryLimit = 100

// PredictionsHandler serves the recent prediction history.
type PredictionsHandler struct {
	deps     Dependencies
	maxLimit int
}

// NewPredictionsHandler creates a new history handler.
func NewPredictionsHandler(deps Dependencies, maxLimit int) *PredictionsHandler {
	return &PredictionsHandler{
		deps:     deps,
		maxLimit: maxLimit,
	}
}

// HandleGetPredictions handles GET /predictions?limit=N requests.
func (h *PredictionsHandler) HandleGetPredictions(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_predictions"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	n := h.maxLimit
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		v, err := strconv.Atoi(limitStr)
		if err != nil || v < 1 {
			writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
			return
		}
		if v > h.maxLimit {
			writeError(w, http.StatusBadRequest, "limit_exceeded", NewKind(op, ErrBadRequest))
			return
		}
		n = v
	}
	records, err := h.deps.Recent(r.Context(), n)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, records)
}
