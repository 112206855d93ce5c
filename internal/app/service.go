// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/risklab/pulse/internal/adapters/repository"
	"github.com/risklab/pulse/internal/artifact"
	"github.com/risklab/pulse/internal/domain/infer"
	"github.com/risklab/pulse/internal/domain/model"
	"github.com/risklab/pulse/pkg/logger"
	"github.com/risklab/pulse/pkg/metrics"
)

// Default service configuration constants.
const (
	defaultArtifactPath = "models/pulse.bundle"
	defaultHistorySize  = 10_000
)

// Service wires the inference pipeline to its collaborators: the artifact
// store, the hot-swap pointer, and the prediction history.
type Service struct {
	mu sync.RWMutex

	// Core components
	store   *artifact.Store
	swapper *artifact.Swapper
	history repository.Store

	// Configuration
	artifactPath  string
	watchArtifact bool
	historySize   int

	// State
	started   bool
	stopWatch context.CancelFunc

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithArtifactPath sets the model bundle location.
func WithArtifactPath(path string) Option {
	return func(s *Service) {
		if path != "" {
			s.artifactPath = path
		}
	}
}

// WithArtifactWatch toggles hot reload of the bundle file.
func WithArtifactWatch(enabled bool) Option {
	return func(s *Service) {
		s.watchArtifact = enabled
	}
}

// WithHistorySize bounds the in-memory prediction history.
func WithHistorySize(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.historySize = n
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(log logger.Logger) Option {
	return func(s *Service) {
		if log != nil {
			s.logger = log
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		artifactPath:  defaultArtifactPath,
		watchArtifact: true,
		historySize:   defaultHistorySize,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start initializes components and loads the model artifact if present.
// A missing artifact is not fatal: the service starts degraded and swaps
// in a model as soon as one appears on disk.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get()
	}

	s.logger.Info(ctx, "starting risk service...",
		logger.String("artifact", s.artifactPath),
		logger.Int("historySize", s.historySize),
	)

	s.store = artifact.NewStore(s.artifactPath)
	s.swapper = artifact.NewSwapper(nil)
	s.history = repository.NewMemStore(repository.WithCapacity(s.historySize))

	b, err := s.store.Load(ctx)
	switch {
	case err == nil:
		s.swapper.Swap(b)
		metrics.UpdateModelLoaded(true)
		if b.Report != nil {
			metrics.UpdateModelAccuracy(b.Report.TestAccuracy, b.Report.CVMean)
		}
		s.logger.Info(ctx, "model artifact loaded", logger.String("version", b.Version))
	case errors.Is(err, artifact.ErrNotFound):
		metrics.UpdateModelLoaded(false)
		s.logger.Warn(ctx, "no model artifact found; serving degraded until one is trained",
			logger.String("path", s.artifactPath))
	default:
		metrics.RecordArtifactLoadError()
		return err
	}

	if s.watchArtifact {
		watchCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
		s.stopWatch = cancel
		go func() {
			if err := artifact.Watch(watchCtx, s.store, s.swapper, s.logger); err != nil {
				s.logger.Error(watchCtx, "artifact watcher stopped", logger.Error(err))
			}
		}()
	}

	s.started = true
	s.logger.Info(ctx, "risk service started")
	return nil
}

// Stop gracefully shuts down the service.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	if s.stopWatch != nil {
		s.stopWatch()
		s.stopWatch = nil
	}
	s.started = false
	s.logger.Info(context.Background(), "risk service stopped")
}

// Predict runs single-row inference against the current model artifact and
// records the outcome in history. In-flight calls keep the artifact they
// started with even if a retrained bundle is swapped in concurrently.
func (s *Service) Predict(ctx context.Context, input model.FeatureVector) (model.PredictionResult, error) {
	bundle := s.ModelBundle()
	if bundle == nil {
		return model.PredictionResult{}, infer.ErrNoModel
	}
	engine, err := infer.New(bundle)
	if err != nil {
		metrics.RecordErrorByComponent("inference", "configuration")
		return model.PredictionResult{}, err
	}

	start := time.Now()
	result, err := engine.Predict(input)
	if err != nil {
		if errors.Is(err, infer.ErrMalformedInput) {
			metrics.RecordPredictionRejected()
		} else {
			metrics.RecordErrorByComponent("inference", "internal")
		}
		return model.PredictionResult{}, err
	}
	latencyMs := float64(time.Since(start).Microseconds()) / 1000

	metrics.RecordPrediction(result.CategoryName, result.Confidence, latencyMs)

	rec := repository.Record{
		ID:        uuid.NewString(),
		Input:     input.Clone(),
		Result:    result,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.history.Append(ctx, rec); err != nil {
		s.logger.Warn(ctx, "failed to record prediction history", logger.Error(err))
	} else {
		metrics.UpdateHistorySize(s.history.Count(ctx))
	}

	return result, nil
}

// ModelBundle returns the active artifact, or nil when none is loaded.
func (s *Service) ModelBundle() *artifact.Bundle {
	if s.swapper == nil {
		return nil
	}
	return s.swapper.Current()
}

// Reload forces a load from the artifact store and swaps the result in.
func (s *Service) Reload(ctx context.Context) error {
	b, err := s.store.Load(ctx)
	if err != nil {
		metrics.RecordArtifactLoadError()
		return err
	}
	s.swapper.Swap(b)
	metrics.UpdateModelLoaded(true)
	metrics.RecordArtifactReload()
	s.logger.Info(ctx, "model artifact reloaded", logger.String("version", b.Version))
	return nil
}

// Recent returns up to n history records, newest first.
func (s *Service) Recent(ctx context.Context, n int) ([]repository.Record, error) {
	return s.history.Recent(ctx, n)
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]interface{}{
		"started":     s.started,
		"historySize": s.historySize,
	}

	bundle := s.ModelBundle()
	stats["modelLoaded"] = bundle != nil
	if bundle != nil {
		stats["modelVersion"] = bundle.Version
		if bundle.Report != nil {
			stats["testAccuracy"] = bundle.Report.TestAccuracy
			stats["cvAccuracy"] = bundle.Report.CVMean
		}
	}
	if s.history != nil {
		count := s.history.Count(ctx)
		stats["predictions"] = count
		metrics.UpdateHistorySize(count)
	}
	metrics.UpdateModelLoaded(bundle != nil)

	return stats
}
