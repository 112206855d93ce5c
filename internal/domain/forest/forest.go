package forest

import (
	"context"
	"fmt"
	"math/rand/v2"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// Default ensemble parameters. Chosen to keep individual trees weak and
// the ensemble honest: held-out accuracy in the 75-85% band is the design
// target for the overlapping cohort distributions, not a ceiling to push.
const (
	DefaultTrees           = 100
	DefaultMaxDepth        = 6
	DefaultMinSamplesSplit = 20
	DefaultMinSamplesLeaf  = 10
	DefaultFeatureFraction = 0.7
)

// seedStride separates per-tree RNG streams; trees are deterministic per
// (seed, index) regardless of fitting order.
const seedStride = 0x9e3779b97f4a7c15

// Config holds the ensemble hyperparameters.
type Config struct {
	Trees           int     `json:"trees"`
	MaxDepth        int     `json:"max_depth"`
	MinSamplesSplit int     `json:"min_samples_split"`
	MinSamplesLeaf  int     `json:"min_samples_leaf"`
	FeatureFraction float64 `json:"feature_fraction"`
	Seed            uint64  `json:"seed"`
}

// DefaultConfig returns the standard anti-overfitting configuration.
func DefaultConfig(seed uint64) Config {
	return Config{
		Trees:           DefaultTrees,
		MaxDepth:        DefaultMaxDepth,
		MinSamplesSplit: DefaultMinSamplesSplit,
		MinSamplesLeaf:  DefaultMinSamplesLeaf,
		FeatureFraction: DefaultFeatureFraction,
		Seed:            seed,
	}
}

// Forest is a fitted bagged-tree classifier. It is immutable after Fit and
// safe for concurrent Proba calls.
type Forest struct {
	Trees       []Tree    `json:"trees"`
	NumClasses  int       `json:"num_classes"`
	NumFeatures int       `json:"num_features"`
	Importance  []float64 `json:"importance"`
	Params      Config    `json:"params"`
}

// Fit trains the ensemble on standardized features. classWeights holds one
// weight per class; each sample carries its class weight through all
// impurity computations. Tree fitting is parallel but deterministic: every
// tree derives its own RNG stream from the config seed.
func Fit(ctx context.Context, x [][]float64, y []int, classWeights []float64, cfg Config) (*Forest, error) {
	if len(x) == 0 {
		return nil, fmt.Errorf("fit forest: no samples")
	}
	if len(x) != len(y) {
		return nil, fmt.Errorf("fit forest: %d rows but %d labels", len(x), len(y))
	}
	numClasses := len(classWeights)
	for i, c := range y {
		if c < 0 || c >= numClasses {
			return nil, fmt.Errorf("fit forest: label %d out of range at row %d", c, i)
		}
	}

	numFeatures := len(x[0])
	maxFeatures := int(cfg.FeatureFraction * float64(numFeatures))
	if maxFeatures < 1 {
		maxFeatures = 1
	}
	params := treeParams{
		maxDepth:        cfg.MaxDepth,
		minSamplesSplit: cfg.MinSamplesSplit,
		minSamplesLeaf:  cfg.MinSamplesLeaf,
		maxFeatures:     maxFeatures,
		numClasses:      numClasses,
	}

	weights := make([]float64, len(y))
	for i, c := range y {
		weights[i] = classWeights[c]
	}

	f := &Forest{
		Trees:       make([]Tree, cfg.Trees),
		NumClasses:  numClasses,
		NumFeatures: numFeatures,
		Importance:  make([]float64, numFeatures),
		Params:      cfg,
	}
	perTree := make([][]float64, cfg.Trees)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for t := 0; t < cfg.Trees; t++ {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return fmt.Errorf("fit forest: %w", err)
			}
			seed := cfg.Seed + uint64(t)*seedStride
			rng := rand.New(rand.NewPCG(seed, seed))

			sample := make([]int, len(x))
			for i := range sample {
				sample[i] = rng.IntN(len(x))
			}

			b := &builder{
				x:          x,
				y:          y,
				w:          weights,
				p:          params,
				rng:        rng,
				importance: make([]float64, numFeatures),
			}
			tree := b.fit(sample)
			f.Trees[t] = *tree
			perTree[t] = normalize(b.importance)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for _, imp := range perTree {
		for j, v := range imp {
			f.Importance[j] += v / float64(cfg.Trees)
		}
	}
	return f, nil
}

// Proba averages the class distributions of all trees. The result is
// non-negative and sums to 1 within floating tolerance.
func (f *Forest) Proba(x []float64) ([]float64, error) {
	if len(x) != f.NumFeatures {
		return nil, fmt.Errorf("proba: got %d features, forest fitted on %d", len(x), f.NumFeatures)
	}
	probs := make([]float64, f.NumClasses)
	for i := range f.Trees {
		p := f.Trees[i].Proba(x)
		for c, v := range p {
			probs[c] += v
		}
	}
	for c := range probs {
		probs[c] /= float64(len(f.Trees))
	}
	return probs, nil
}

// Predict returns the arg-max class; ties break toward the lower class
// index for determinism.
func (f *Forest) Predict(x []float64) (int, error) {
	probs, err := f.Proba(x)
	if err != nil {
		return 0, err
	}
	return ArgMax(probs), nil
}

// ArgMax returns the index of the first maximum value.
func ArgMax(probs []float64) int {
	best := 0
	for c := 1; c < len(probs); c++ {
		if probs[c] > probs[best] {
			best = c
		}
	}
	return best
}

func normalize(xs []float64) []float64 {
	total := sum(xs)
	if total == 0 {
		return xs
	}
	for i := range xs {
		xs[i] /= total
	}
	return xs
}
