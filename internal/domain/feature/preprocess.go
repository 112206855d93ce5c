// Package feature turns raw survey vectors into the fixed feature set the
// model consumes: batch median imputation, range clipping, and the derived
// composite indicators.
package feature

import (
	"sort"

	"github.com/risklab/pulse/internal/domain/model"
)

// Physical bounds clipped after imputation. These cap genuine outliers
// from generation; malformed input is rejected upstream and never reaches
// this step.
var clipBounds = map[string][2]float64{
	model.HoursPerWeek:      {15, 90},
	model.OvertimeHours:     {0, 50},
	model.VacationDaysTaken: {0, 30},
}

// Preprocess imputes missing metrics with the batch column median and
// clips the physically bounded fields. It returns new vectors; inputs are
// untouched. After this step no vector has gaps.
//
// Median imputation over a single-row batch is undefined; single-row
// inference supplies fixed semantic defaults instead (see the infer
// package).
func Preprocess(rows []model.FeatureVector) []model.FeatureVector {
	medians := columnMedians(rows)
	out := make([]model.FeatureVector, len(rows))
	for i, r := range rows {
		v := r.Clone()
		for _, name := range model.RawMetrics() {
			if _, ok := v[name]; !ok {
				v[name] = medians[name]
			}
		}
		out[i] = Clip(v)
	}
	return out
}

// Clip caps the physically bounded fields to their canonical ranges.
func Clip(v model.FeatureVector) model.FeatureVector {
	out := v.Clone()
	for name, b := range clipBounds {
		if val, ok := out[name]; ok {
			if val < b[0] {
				out[name] = b[0]
			} else if val > b[1] {
				out[name] = b[1]
			}
		}
	}
	return out
}

// columnMedians computes the per-metric median over present values.
func columnMedians(rows []model.FeatureVector) map[string]float64 {
	medians := make(map[string]float64, len(model.RawMetrics()))
	for _, name := range model.RawMetrics() {
		var vals []float64
		for _, r := range rows {
			if v, ok := r[name]; ok {
				vals = append(vals, v)
			}
		}
		medians[name] = median(vals)
	}
	return medians
}

func median(vals []float64) float64 {
	if len(vals) == 0 {
		return 0
	}
	sort.Float64s(vals)
	mid := len(vals) / 2
	if len(vals)%2 == 0 {
		return (vals[mid-1] + vals[mid]) / 2
	}
	return vals[mid]
}
