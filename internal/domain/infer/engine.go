// Package infer turns one raw feature vector and a loaded model artifact
// into a prediction with calibrated confidence, a reliability label and an
// intervention priority.
package infer

import (
	"fmt"
	"strings"

	"github.com/risklab/pulse/internal/artifact"
	"github.com/risklab/pulse/internal/domain/feature"
	"github.com/risklab/pulse/internal/domain/model"
)

// Fixed semantic defaults for metrics absent from a single-row input.
// Batch median imputation is meaningless for one row, so score-type fields
// assume a neutral answer and hour-type fields a standard week.
const (
	defaultScore = 5.0
	defaultHours = 40.0
)

// Engine performs inference against one immutable artifact. It holds no
// mutable state and is safe for concurrent use; retraining swaps in a new
// Engine rather than mutating this one.
type Engine struct {
	bundle *artifact.Bundle
}

// New validates the artifact's feature contract and returns an engine
// bound to it. A feature list that drifted from what the engineer produces
// is rejected here, before any prediction is attempted.
func New(b *artifact.Bundle) (*Engine, error) {
	if b == nil {
		return nil, fmt.Errorf("%w: nil artifact", ErrFeatureMismatch)
	}
	if err := b.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFeatureMismatch, err)
	}
	return &Engine{bundle: b}, nil
}

// Bundle returns the artifact this engine serves.
func (e *Engine) Bundle() *artifact.Bundle { return e.bundle }

// Predict runs the full single-row pipeline: validate, default, clip,
// engineer, scale with the artifact's fitted scaler, and classify. Callers
// receive either a complete result or an error naming the offending field.
func (e *Engine) Predict(input model.FeatureVector) (model.PredictionResult, error) {
	row, err := sanitize(input)
	if err != nil {
		return model.PredictionResult{}, err
	}

	row = feature.Clip(row)
	engineered := feature.Engineer(row)

	x, err := feature.Vectorize(engineered, e.bundle.FeatureNames)
	if err != nil {
		return model.PredictionResult{}, fmt.Errorf("%w: %v", ErrFeatureMismatch, err)
	}
	scaled, err := e.bundle.Scaler.Transform(x)
	if err != nil {
		return model.PredictionResult{}, fmt.Errorf("%w: %v", ErrFeatureMismatch, err)
	}
	probs, err := e.bundle.Forest.Proba(scaled)
	if err != nil {
		return model.PredictionResult{}, fmt.Errorf("%w: %v", ErrFeatureMismatch, err)
	}

	best := 0
	for c := 1; c < len(probs); c++ {
		if probs[c] > probs[best] {
			best = c
		}
	}
	category := model.RiskCategory(best)
	confidence := probs[best]

	byName := make(map[string]float64, len(probs))
	for c, p := range probs {
		byName[model.RiskCategory(c).String()] = p
	}

	return model.PredictionResult{
		Category:      category,
		CategoryName:  category.String(),
		Confidence:    confidence,
		Probabilities: byName,
		Reliability:   Reliability(confidence),
		Priority:      Priority(category, confidence),
	}, nil
}

// sanitize copies the known metrics out of the input, rejecting
// non-finite or negative values, ignoring unknown keys, and filling
// missing metrics with their semantic defaults.
func sanitize(input model.FeatureVector) (model.FeatureVector, error) {
	row := make(model.FeatureVector, len(model.RawMetrics()))
	for _, name := range model.RawMetrics() {
		v, ok := input[name]
		if !ok {
			row[name] = defaultFor(name)
			continue
		}
		if !model.IsFinite(v) {
			return nil, &FieldError{Field: name, Reason: "value is not a finite number"}
		}
		if v < 0 {
			return nil, &FieldError{Field: name, Reason: "value must not be negative"}
		}
		row[name] = v
	}
	return row, nil
}

// defaultFor picks the semantic default by field kind: neutral score for
// survey answers, standard week for hour counts, zero for everything else.
func defaultFor(name string) float64 {
	switch {
	case strings.Contains(name, "score"):
		return defaultScore
	case strings.Contains(name, "hours"):
		return defaultHours
	default:
		return 0
	}
}
