// Package artifact owns the persisted model bundle: the fitted classifier,
// scaler, ordered feature list and importance table travel as one
// immutable, versioned unit. A fresh bundle supersedes a prior one; no
// field is ever mutated after persistence.
package artifact

import (
	"fmt"
	"time"

	"github.com/risklab/pulse/internal/domain/feature"
	"github.com/risklab/pulse/internal/domain/forest"
	"github.com/risklab/pulse/internal/domain/model"
)

// Bundle is the full model artifact. It must be loaded in one piece;
// partial loads are invalid.
type Bundle struct {
	Version      string                    `json:"version"`
	CreatedAt    time.Time                 `json:"created_at"`
	FeatureNames []string                  `json:"feature_names"`
	Scaler       *forest.Scaler            `json:"scaler"`
	Forest       *forest.Forest            `json:"forest"`
	Importances  []model.FeatureImportance `json:"feature_importance"`
	Report       *model.TrainingReport     `json:"report"`
}

// Validate checks internal consistency and the training/inference feature
// contract. A drifted feature list is a configuration error, never a
// silent misalignment.
func (b *Bundle) Validate() error {
	switch {
	case b == nil:
		return fmt.Errorf("%w: nil bundle", ErrIncomplete)
	case b.Scaler == nil:
		return fmt.Errorf("%w: missing scaler", ErrIncomplete)
	case b.Forest == nil:
		return fmt.Errorf("%w: missing classifier", ErrIncomplete)
	case len(b.FeatureNames) == 0:
		return fmt.Errorf("%w: missing feature names", ErrIncomplete)
	}
	if b.Scaler.Dim() != len(b.FeatureNames) {
		return fmt.Errorf("%w: scaler fitted on %d features, artifact lists %d",
			ErrMismatch, b.Scaler.Dim(), len(b.FeatureNames))
	}
	if b.Forest.NumFeatures != len(b.FeatureNames) {
		return fmt.Errorf("%w: classifier fitted on %d features, artifact lists %d",
			ErrMismatch, b.Forest.NumFeatures, len(b.FeatureNames))
	}
	want := feature.Names()
	if len(b.FeatureNames) != len(want) {
		return fmt.Errorf("%w: artifact has %d features, engineer produces %d",
			ErrMismatch, len(b.FeatureNames), len(want))
	}
	for i, name := range want {
		if b.FeatureNames[i] != name {
			return fmt.Errorf("%w: position %d is %q, engineer produces %q",
				ErrMismatch, i, b.FeatureNames[i], name)
		}
	}
	return nil
}
