// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/risklab/pulse/internal/domain/infer"
	"github.com/risklab/pulse/internal/domain/model"
)

// PredictHandler handles single-row inference requests.
type PredictHandler struct {
	deps Dependencies
}

// NewPredictHandler creates a new predict handler.
func NewPredictHandler(deps Dependencies) *PredictHandler {
	return &PredictHandler{deps: deps}
}

// HandlePredict handles POST /predict requests. The body is a flat JSON
// object of metric name to numeric value; unknown keys are ignored and
// missing metrics fall back to neutral defaults.
func (h *PredictHandler) HandlePredict(w http.ResponseWriter, r *http.Request) {
	const op = "api.predict"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}

	var raw map[string]any
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	input, err := coerceInput(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	result, err := h.deps.Predict(r.Context(), input)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, result)
	case errors.Is(err, infer.ErrNoModel):
		writeError(w, http.StatusServiceUnavailable, "no_model", NewKind(op, ErrNoModel))
	case errors.Is(err, infer.ErrMalformedInput):
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
	}
}

// coerceInput converts the decoded JSON object into a feature vector,
// rejecting values that are not numbers and naming the offending field.
func coerceInput(raw map[string]any) (model.FeatureVector, error) {
	input := make(model.FeatureVector, len(raw))
	for k, v := range raw {
		f, ok := v.(float64)
		if !ok {
			return nil, fmt.Errorf("field %q must be a number", k)
		}
		input[k] = f
	}
	return input, nil
}
