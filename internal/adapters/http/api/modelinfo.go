// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"net/http"
	"time"

	"github.com/risklab/pulse/internal/domain/model"
)

// modelInfoResponse is the read shape for GET /model.
type modelInfoResponse struct {
	Version      string                    `json:"version"`
	CreatedAt    time.Time                 `json:"created_at"`
	FeatureNames []string                  `json:"feature_names"`
	Importances  []model.FeatureImportance `json:"feature_importances"`
	Report       *model.TrainingReport     `json:"training_report,omitempty"`
}

// ModelHandler serves metadata about the active model artifact.
type ModelHandler struct {
	deps Dependencies
}

// NewModelHandler creates a new model metadata handler.
func NewModelHandler(deps Dependencies) *ModelHandler {
	return &ModelHandler{deps: deps}
}

// HandleGetModel handles GET /model requests.
func (h *ModelHandler) HandleGetModel(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_model"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	b := h.deps.ModelBundle()
	if b == nil {
		writeError(w, http.StatusServiceUnavailable, "no_model", NewKind(op, ErrNoModel))
		return
	}
	writeJSON(w, http.StatusOK, modelInfoResponse{
		Version:      b.Version,
		CreatedAt:    b.CreatedAt,
		FeatureNames: b.FeatureNames,
		Importances:  b.Importances,
		Report:       b.Report,
	})
}
