package train

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat"

	"github.com/risklab/pulse/internal/domain/forest"
	"github.com/risklab/pulse/internal/domain/model"
)

// Confidence band thresholds for the report's distribution summary.
const (
	confidenceHighBand = 0.7
	confidenceLowBand  = 0.5
)

// evaluate fills the held-out portion of the report: accuracy, confusion
// matrix, per-class metrics and the confidence distribution.
func evaluate(f *forest.Forest, xTest [][]float64, yTest []int, report *model.TrainingReport) {
	k := model.NumCategories
	confusion := make([][]int, k)
	for i := range confusion {
		confusion[i] = make([]int, k)
	}

	correct := 0
	var nHigh, nMedium, nLow int
	for i, x := range xTest {
		probs, err := f.Proba(x)
		if err != nil {
			report.Warnings = append(report.Warnings, fmt.Sprintf("evaluation skipped a row: %v", err))
			continue
		}
		pred := forest.ArgMax(probs)
		confusion[yTest[i]][pred]++
		if pred == yTest[i] {
			correct++
		}
		switch conf := probs[pred]; {
		case conf > confidenceHighBand:
			nHigh++
		case conf > confidenceLowBand:
			nMedium++
		default:
			nLow++
		}
	}

	if len(xTest) > 0 {
		report.TestAccuracy = float64(correct) / float64(len(xTest))
		total := float64(len(xTest))
		report.Confidence = model.ConfidenceDistribution{
			High:   float64(nHigh) / total,
			Medium: float64(nMedium) / total,
			Low:    float64(nLow) / total,
		}
	} else {
		report.Warnings = append(report.Warnings, "held-out split is empty; accuracy unavailable")
	}

	report.Confusion = confusion
	report.PerClass = perClassMetrics(confusion)

	for c := 0; c < k; c++ {
		if rowSum(confusion, c) == 0 {
			report.Warnings = append(report.Warnings, fmt.Sprintf(
				"class %s has no samples in the held-out split", model.RiskCategory(c)))
		}
	}
}

// perClassMetrics derives precision, recall and F1 from the confusion
// matrix. Zero denominators yield zero rather than NaN.
func perClassMetrics(confusion [][]int) []model.ClassMetrics {
	out := make([]model.ClassMetrics, len(confusion))
	for c := range confusion {
		support := rowSum(confusion, c)
		predicted := colSum(confusion, c)
		tp := confusion[c][c]

		var precision, recall, f1 float64
		if predicted > 0 {
			precision = float64(tp) / float64(predicted)
		}
		if support > 0 {
			recall = float64(tp) / float64(support)
		}
		if precision+recall > 0 {
			f1 = 2 * precision * recall / (precision + recall)
		}
		out[c] = model.ClassMetrics{
			Category:  model.RiskCategory(c).String(),
			Precision: precision,
			Recall:    recall,
			F1:        f1,
			Support:   support,
		}
	}
	return out
}

// crossValidate runs stratified k-fold validation over the scaled training
// split and records the per-fold accuracies. Fold models use the same
// hyperparameters as the final model but their own RNG streams.
func (t *Trainer) crossValidate(ctx context.Context, x [][]float64, y []int, weights []float64, report *model.TrainingReport) {
	folds := t.assignFolds(y)
	scores := make([]float64, 0, t.folds)

	for k := 0; k < t.folds; k++ {
		var trainIdx, testIdx []int
		for i, fold := range folds {
			if fold == k {
				testIdx = append(testIdx, i)
			} else {
				trainIdx = append(trainIdx, i)
			}
		}
		if len(testIdx) == 0 || len(trainIdx) == 0 {
			report.Warnings = append(report.Warnings, fmt.Sprintf("cross-validation fold %d is empty", k))
			continue
		}
		if missing := missingClass(y, testIdx); missing >= 0 {
			report.Warnings = append(report.Warnings, fmt.Sprintf(
				"cross-validation fold %d has no %s samples", k, model.RiskCategory(missing)))
		}

		xTrain, yTrain := gather(x, y, trainIdx)
		cfg := t.cfg
		cfg.Seed = t.cfg.Seed + cvSeedOffset + uint64(k)
		fitted, err := forest.Fit(ctx, xTrain, yTrain, weights, cfg)
		if err != nil {
			report.Warnings = append(report.Warnings, fmt.Sprintf("cross-validation fold %d failed: %v", k, err))
			continue
		}

		correct := 0
		for _, i := range testIdx {
			pred, err := fitted.Predict(x[i])
			if err == nil && pred == y[i] {
				correct++
			}
		}
		scores = append(scores, float64(correct)/float64(len(testIdx)))
	}

	report.CVScores = scores
	if len(scores) > 0 {
		report.CVMean = stat.Mean(scores, nil)
		if len(scores) > 1 {
			report.CVStd = math.Sqrt(stat.Variance(scores, nil))
		}
	} else {
		report.Warnings = append(report.Warnings, "cross-validation produced no usable folds")
	}
}

// assignFolds distributes each class round-robin across folds after a
// seeded shuffle, keeping class proportions near-equal per fold.
func (t *Trainer) assignFolds(y []int) []int {
	rng := rand.New(rand.NewPCG(t.cfg.Seed+cvSeedOffset, t.cfg.Seed+cvSeedOffset))
	folds := make([]int, len(y))
	byClass := make([][]int, model.NumCategories)
	for i, c := range y {
		byClass[c] = append(byClass[c], i)
	}
	for _, indices := range byClass {
		rng.Shuffle(len(indices), func(i, j int) {
			indices[i], indices[j] = indices[j], indices[i]
		})
		for pos, i := range indices {
			folds[i] = pos % t.folds
		}
	}
	return folds
}

// missingClass returns the first class absent from idx, or -1.
func missingClass(y []int, idx []int) int {
	var seen [model.NumCategories]bool
	for _, i := range idx {
		seen[y[i]] = true
	}
	for c, ok := range seen {
		if !ok {
			return c
		}
	}
	return -1
}

func rowSum(m [][]int, r int) int {
	s := 0
	for _, v := range m[r] {
		s += v
	}
	return s
}

func colSum(m [][]int, c int) int {
	s := 0
	for r := range m {
		s += m[r][c]
	}
	return s
}
