// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/risklab/pulse/internal/adapters/repository"
	"github.com/risklab/pulse/internal/artifact"
	"github.com/risklab/pulse/internal/domain/model"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	// Predict runs single-row inference against the active model.
	Predict(ctx context.Context, input model.FeatureVector) (model.PredictionResult, error)

	// ModelBundle returns the active artifact, or nil when none is loaded.
	ModelBundle() *artifact.Bundle

	// Recent returns up to n history records, newest first.
	Recent(ctx context.Context, n int) ([]repository.Record, error)
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler      *HealthHandler
	statsHandler       *StatsHandler
	predictHandler     *PredictHandler
	modelHandler       *ModelHandler
	predictionsHandler *PredictionsHandler
	auth               *AuthMiddleware
}

// ServerOption applies a configuration option to the Server.
type ServerOption func(*Server)

// WithAuthSecret enables JWT bearer auth on mutating routes. An empty
// secret leaves them open.
func WithAuthSecret(secret string) ServerOption {
	return func(s *Server) {
		s.auth = NewAuthMiddleware(secret)
	}
}

// WithMaxHistoryLimit caps the limit query parameter on /predictions.
func WithMaxHistoryLimit(n int) ServerOption {
	return func(s *Server) {
		if n > 0 {
			s.predictionsHandler.maxLimit = n
		}
	}
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, opts ...ServerOption) *Server {
	s := &Server{
		healthHandler:      NewHealthHandler(deps),
		statsHandler:       NewStatsHandler(statsProvider),
		predictHandler:     NewPredictHandler(deps),
		modelHandler:       NewModelHandler(deps),
		predictionsHandler: NewPredictionsHandler(deps, defaultMaxHistoryLimit),
		auth:               NewAuthMiddleware(""),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(ctx context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/metrics", s.healthHandler.HandleMetrics)
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/predict", MetricsMiddleware(s.auth.Require(s.predictHandler.HandlePredict), "predict"))
	mux.HandleFunc("/model", MetricsMiddleware(s.modelHandler.HandleGetModel, "model"))
	mux.HandleFunc("/predictions", MetricsMiddleware(s.auth.Require(s.predictionsHandler.HandleGetPredictions), "predictions"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}
