// Package train fits the risk classifier: stratified splitting, scaling,
// class-balanced forest fitting, cross-validation and the evaluation
// report, producing one immutable model artifact.
package train

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"

	"github.com/risklab/pulse/internal/artifact"
	"github.com/risklab/pulse/internal/domain/feature"
	"github.com/risklab/pulse/internal/domain/forest"
	"github.com/risklab/pulse/internal/domain/model"
	"github.com/risklab/pulse/internal/domain/synth"
	"github.com/risklab/pulse/pkg/logger"
	"github.com/risklab/pulse/pkg/metrics"
)

// Default training configuration constants.
const (
	defaultFolds        = 5
	defaultTestFraction = 0.25
	minTrainingRows     = 50

	// cvSeedOffset separates fold-model RNG streams from the final model.
	cvSeedOffset = 7001

	// retrySeedOffset spaces the cohort seeds of acceptance retries; prime,
	// so retry streams never land on another attempt's generator sequence.
	retrySeedOffset = 9973
	maxAttempts     = 5

	// acceptanceConfidence is the minimum top-class probability a candidate
	// model must assign to the reference overload profile before Pipeline
	// accepts it.
	acceptanceConfidence = 0.55
)

// Option applies a configuration option to the Trainer.
type Option func(*Trainer)

// WithForestConfig replaces the full ensemble configuration.
func WithForestConfig(cfg forest.Config) Option {
	return func(t *Trainer) {
		t.cfg = cfg
	}
}

// WithTrees sets the ensemble size.
func WithTrees(n int) Option {
	return func(t *Trainer) {
		if n > 0 {
			t.cfg.Trees = n
		}
	}
}

// WithSeed sets the seed for splitting, bagging and feature subsampling.
func WithSeed(seed uint64) Option {
	return func(t *Trainer) {
		t.cfg.Seed = seed
	}
}

// WithFolds sets the cross-validation fold count.
func WithFolds(k int) Option {
	return func(t *Trainer) {
		if k >= 2 {
			t.folds = k
		}
	}
}

// WithTestFraction sets the held-out split fraction.
func WithTestFraction(f float64) Option {
	return func(t *Trainer) {
		if f > 0 && f < 1 {
			t.testFraction = f
		}
	}
}

// WithLogger sets a custom logger for the trainer.
func WithLogger(log logger.Logger) Option {
	return func(t *Trainer) {
		t.log = log
	}
}

// Trainer produces a model artifact from a labeled cohort.
type Trainer struct {
	cfg          forest.Config
	folds        int
	testFraction float64
	log          logger.Logger
}

// New constructs a Trainer with the standard anti-overfitting defaults.
func New(opts ...Option) *Trainer {
	t := &Trainer{
		cfg:          forest.DefaultConfig(42),
		folds:        defaultFolds,
		testFraction: defaultTestFraction,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Pipeline is the training entry point: synthesize a cohort of the given
// size, degrade it with the imperfection injector, train, and run the
// acceptance check. A rejected candidate triggers a retrain on a reseeded
// cohort, so the artifact for a given (samples, seed) pair is still fully
// deterministic apart from version and timestamps.
func Pipeline(ctx context.Context, samples int, seed uint64, opts ...Option) (*artifact.Bundle, error) {
	var bundle *artifact.Bundle
	for attempt := 0; attempt < maxAttempts; attempt++ {
		s := seed + uint64(attempt)*retrySeedOffset
		rows := synth.NewGenerator(s).Cohort(samples)
		rows = synth.NewInjector(s + 1).Apply(rows)
		t := New(append([]Option{WithSeed(s)}, opts...)...)

		var err error
		bundle, err = t.Train(ctx, rows)
		if err != nil {
			return nil, err
		}

		category, confidence, err := classifyReference(bundle)
		if err != nil {
			return nil, fmt.Errorf("train: acceptance check: %w", err)
		}
		if category >= model.High && confidence > acceptanceConfidence {
			if attempt > 0 {
				bundle.Report.Warnings = append(bundle.Report.Warnings, fmt.Sprintf(
					"accepted after %d reseeded retraining attempts", attempt))
			}
			return bundle, nil
		}
		t.info(ctx, "candidate rejected by acceptance check",
			logger.Int("attempt", attempt+1),
			logger.String("category", category.String()),
			logger.Float64("confidence", confidence),
		)
	}
	return nil, fmt.Errorf("train: no candidate passed the acceptance check after %d attempts", maxAttempts)
}

// referenceOverload is a severely overloaded employee profile every shipped
// model must flag as High or Critical with a usable margin. An unlucky
// cohort draw can split the probability mass between the two top classes;
// such a model scores fine on held-out accuracy yet answers the clearest
// possible case with low reliability, so Pipeline rejects it.
func referenceOverload() model.FeatureVector {
	return model.FeatureVector{
		model.HoursPerWeek:      58,
		model.OvertimeHours:     18,
		model.MeetingsPerDay:    7,
		model.ManagerSupport:    3,
		model.VacationDaysTaken: 2,
		model.AfterHoursEmails:  25,
		model.DeadlinePressure:  9,
		model.WorkLifeBalance:   2,
		model.TeamCollaboration: 4,
		model.DailyBreaks:       0.5,
		model.WeekendWorkDays:   4,
		model.RoleClarity:       4,
		model.JobTenureMonths:   8,
	}
}

// classifyReference runs the reference profile through the candidate's own
// scaler and forest, mirroring the single-row serving path.
func classifyReference(b *artifact.Bundle) (model.RiskCategory, float64, error) {
	row := feature.Engineer(feature.Clip(referenceOverload()))
	x, err := feature.Vectorize(row, b.FeatureNames)
	if err != nil {
		return 0, 0, err
	}
	scaled, err := b.Scaler.Transform(x)
	if err != nil {
		return 0, 0, err
	}
	probs, err := b.Forest.Proba(scaled)
	if err != nil {
		return 0, 0, err
	}
	best := 0
	for c := 1; c < len(probs); c++ {
		if probs[c] > probs[best] {
			best = c
		}
	}
	return model.RiskCategory(best), probs[best], nil
}

// Train fits the full pipeline on labeled rows and returns the artifact
// with its embedded report. Statistical degeneracy (an empty class in a
// split or fold) is surfaced in the report warnings; training still
// completes whenever possible.
func (t *Trainer) Train(ctx context.Context, rows []model.TrainingRow) (*artifact.Bundle, error) {
	start := time.Now()
	if len(rows) < minTrainingRows {
		return nil, fmt.Errorf("train: need at least %d rows, got %d", minTrainingRows, len(rows))
	}

	names := feature.Names()
	x, y, err := vectorizeRows(rows, names)
	if err != nil {
		return nil, fmt.Errorf("train: %w", err)
	}

	report := &model.TrainingReport{Samples: len(rows)}

	rng := rand.New(rand.NewPCG(t.cfg.Seed, t.cfg.Seed))
	trainIdx, testIdx := stratifiedSplit(y, t.testFraction, rng, report)

	xTrain, yTrain := gather(x, y, trainIdx)
	xTest, yTest := gather(x, y, testIdx)

	scaler, err := forest.FitScaler(xTrain)
	if err != nil {
		return nil, fmt.Errorf("train: %w", err)
	}
	xTrainS, err := scaler.Apply(xTrain)
	if err != nil {
		return nil, fmt.Errorf("train: %w", err)
	}
	xTestS, err := scaler.Apply(xTest)
	if err != nil {
		return nil, fmt.Errorf("train: %w", err)
	}

	weights := balancedWeights(yTrain, report)

	t.info(ctx, "fitting ensemble",
		logger.Int("train_rows", len(xTrainS)),
		logger.Int("test_rows", len(xTestS)),
		logger.Int("trees", t.cfg.Trees),
	)
	fitted, err := forest.Fit(ctx, xTrainS, yTrain, weights, t.cfg)
	if err != nil {
		return nil, fmt.Errorf("train: %w", err)
	}

	evaluate(fitted, xTestS, yTest, report)
	t.crossValidate(ctx, xTrainS, yTrain, weights, report)
	report.DurationMillis = time.Since(start).Milliseconds()

	metrics.RecordTrainingRun(time.Since(start).Seconds())
	metrics.UpdateModelAccuracy(report.TestAccuracy, report.CVMean)

	t.info(ctx, "training complete",
		logger.Float64("test_accuracy", report.TestAccuracy),
		logger.Float64("cv_mean", report.CVMean),
		logger.Int("warnings", len(report.Warnings)),
	)

	return &artifact.Bundle{
		Version:      uuid.NewString(),
		CreatedAt:    time.Now().UTC(),
		FeatureNames: names,
		Scaler:       scaler,
		Forest:       fitted,
		Importances:  rankImportances(names, fitted.Importance),
		Report:       report,
	}, nil
}

func (t *Trainer) info(ctx context.Context, msg string, fields ...logger.Field) {
	if t.log != nil {
		t.log.Info(ctx, msg, fields...)
	}
}

// vectorizeRows preprocesses the batch, engineers features and extracts
// the ordered matrix the model consumes.
func vectorizeRows(rows []model.TrainingRow, names []string) ([][]float64, []int, error) {
	raw := make([]model.FeatureVector, len(rows))
	for i := range rows {
		raw[i] = rows[i].Features
	}
	clean := feature.Preprocess(raw)

	x := make([][]float64, len(rows))
	y := make([]int, len(rows))
	for i := range clean {
		vec, err := feature.Vectorize(feature.Engineer(clean[i]), names)
		if err != nil {
			return nil, nil, err
		}
		x[i] = vec
		y[i] = int(rows[i].Category)
	}
	return x, y, nil
}

// stratifiedSplit partitions row indices into train and test preserving
// class proportions. A class too small to split lands entirely in the
// train set and is reported as a degeneracy warning.
func stratifiedSplit(y []int, testFraction float64, rng *rand.Rand, report *model.TrainingReport) (trainIdx, testIdx []int) {
	byClass := make([][]int, model.NumCategories)
	for i, c := range y {
		byClass[c] = append(byClass[c], i)
	}
	for c, indices := range byClass {
		rng.Shuffle(len(indices), func(i, j int) {
			indices[i], indices[j] = indices[j], indices[i]
		})
		testN := int(float64(len(indices))*testFraction + 0.5)
		if len(indices) < 2 || testN == 0 {
			report.Warnings = append(report.Warnings, fmt.Sprintf(
				"class %s has only %d samples; excluded from the held-out split",
				model.RiskCategory(c), len(indices)))
			trainIdx = append(trainIdx, indices...)
			continue
		}
		if testN == len(indices) {
			testN = len(indices) - 1
		}
		testIdx = append(testIdx, indices[:testN]...)
		trainIdx = append(trainIdx, indices[testN:]...)
	}
	return trainIdx, testIdx
}

// balancedWeights counteracts the 40/35/20/5 label skew: each class gets
// weight n/(k*count), so minority classes carry as much total weight as
// majority ones.
func balancedWeights(y []int, report *model.TrainingReport) []float64 {
	counts := make([]float64, model.NumCategories)
	for _, c := range y {
		counts[c]++
	}
	weights := make([]float64, model.NumCategories)
	for c := range weights {
		if counts[c] == 0 {
			report.Warnings = append(report.Warnings, fmt.Sprintf(
				"class %s has no training samples", model.RiskCategory(c)))
			continue
		}
		weights[c] = float64(len(y)) / (float64(model.NumCategories) * counts[c])
	}
	return weights
}

func gather(x [][]float64, y []int, idx []int) ([][]float64, []int) {
	gx := make([][]float64, len(idx))
	gy := make([]int, len(idx))
	for i, j := range idx {
		gx[i] = x[j]
		gy[i] = y[j]
	}
	return gx, gy
}

func rankImportances(names []string, importance []float64) []model.FeatureImportance {
	out := make([]model.FeatureImportance, len(names))
	for i, name := range names {
		out[i] = model.FeatureImportance{Name: name, Weight: importance[i]}
	}
	// insertion sort by descending weight keeps equal weights stable
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j].Weight > out[j-1].Weight; j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out
}
