// Package forest implements the model core: feature standardization and a
// bagged ensemble of depth-bounded CART trees with class-weighted
// impurity. The anti-overfitting controls (depth cap, split/leaf minimums,
// feature subsampling) are part of the contract, not tuning knobs.
package forest

import (
	"fmt"

	"gonum.org/v1/gonum/stat"
)

// Scaler standardizes features to zero mean and unit variance. It is
// fitted on the training split only and reused verbatim at inference;
// refitting at serving time would silently shift the feature space.
type Scaler struct {
	Means []float64 `json:"means"`
	Stds  []float64 `json:"stds"`
}

// FitScaler computes per-column mean and standard deviation. Constant
// columns scale by 1 so they pass through centered.
func FitScaler(x [][]float64) (*Scaler, error) {
	if len(x) == 0 || len(x[0]) == 0 {
		return nil, fmt.Errorf("fit scaler: empty matrix")
	}
	dims := len(x[0])
	s := &Scaler{
		Means: make([]float64, dims),
		Stds:  make([]float64, dims),
	}
	col := make([]float64, len(x))
	for j := 0; j < dims; j++ {
		for i := range x {
			col[i] = x[i][j]
		}
		mean, std := stat.MeanStdDev(col, nil)
		if std == 0 || std != std {
			std = 1
		}
		s.Means[j] = mean
		s.Stds[j] = std
	}
	return s, nil
}

// Dim returns the number of features the scaler was fitted on.
func (s *Scaler) Dim() int { return len(s.Means) }

// Transform standardizes a single vector.
func (s *Scaler) Transform(x []float64) ([]float64, error) {
	if len(x) != len(s.Means) {
		return nil, fmt.Errorf("transform: got %d features, scaler fitted on %d", len(x), len(s.Means))
	}
	out := make([]float64, len(x))
	for j, v := range x {
		out[j] = (v - s.Means[j]) / s.Stds[j]
	}
	return out, nil
}

// Apply standardizes a whole matrix.
func (s *Scaler) Apply(x [][]float64) ([][]float64, error) {
	out := make([][]float64, len(x))
	for i, row := range x {
		t, err := s.Transform(row)
		if err != nil {
			return nil, err
		}
		out[i] = t
	}
	return out, nil
}
