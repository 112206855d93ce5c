package feature

import (
	"fmt"
	"math"

	"github.com/risklab/pulse/internal/domain/model"
)

// newEmployeeTenureMonths is the tenure below which the risk multiplier
// applies.
const newEmployeeTenureMonths = 12

// Names returns the ordered 14-dimension feature set the model consumes:
// nine raw metrics plus the five engineered composites. meetings_per_day,
// team_collaboration_score, role_clarity_score and weekend_work_days feed
// the composites but are not model inputs themselves.
func Names() []string {
	return []string{
		model.HoursPerWeek,
		model.OvertimeHours,
		model.ManagerSupport,
		model.VacationDaysTaken,
		model.AfterHoursEmails,
		model.DeadlinePressure,
		model.WorkLifeBalance,
		model.DailyBreaks,
		model.JobTenureMonths,
		model.WorkloadIntensity,
		model.SupportDeficit,
		model.WLBComposite,
		model.PressureNoSupport,
		model.TenureFactor,
	}
}

// Engineer derives the five composite indicators from a sanitized raw
// vector. It is a pure function: raw fields are preserved, the composites
// are recomputed deterministically, and re-applying it to the same raw
// input yields identical output.
//
// The formulas encode the domain's causal hypotheses. Log transforms on
// hours and overtime damp outlier influence; the pressure-support
// interaction is the strongest single predictor.
//
// The hours term is floored at the 35-hour standard week: below it there
// is no overload to measure, and Log1p of anything under -1 is NaN, which
// would otherwise poison the fitted scaler and the JSON-encoded artifact.
func Engineer(v model.FeatureVector) model.FeatureVector {
	out := v.Clone()

	out[model.WorkloadIntensity] = 0.4*math.Log1p(math.Max(v[model.HoursPerWeek]-35, 0)) +
		0.4*math.Log1p(v[model.OvertimeHours]) +
		0.2*(v[model.MeetingsPerDay]/10)

	out[model.SupportDeficit] = (11 - v[model.ManagerSupport]) / 10

	out[model.WLBComposite] = (0.5*v[model.WorkLifeBalance] +
		0.1*(25-v[model.VacationDaysTaken]) +
		0.2*(5-v[model.DailyBreaks]) -
		0.2*v[model.WeekendWorkDays]) / 10

	out[model.PressureNoSupport] = v[model.DeadlinePressure] * out[model.SupportDeficit]

	if v[model.JobTenureMonths] < newEmployeeTenureMonths {
		out[model.TenureFactor] = 1.2
	} else {
		out[model.TenureFactor] = 1.0
	}

	return out
}

// Vectorize extracts the named features in order. A name absent from the
// vector is a contract violation between training and inference feature
// sets, reported as an error naming the missing feature.
func Vectorize(v model.FeatureVector, names []string) ([]float64, error) {
	x := make([]float64, len(names))
	for i, name := range names {
		val, ok := v[name]
		if !ok {
			return nil, fmt.Errorf("feature %q missing from engineered vector", name)
		}
		x[i] = val
	}
	return x, nil
}
