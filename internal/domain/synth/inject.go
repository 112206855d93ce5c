package synth

import (
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/risklab/pulse/internal/domain/model"
)

// Imperfection rates. Applied per row, in a fixed pass order:
// measurement noise, reporting bias, missing values, edge-case archetypes.
const (
	noiseSigma          = 0.3
	underreportRate     = 0.20
	underreportScale    = 0.9
	overreportRate      = 0.15
	missingScoreRate    = 0.08
	missingVacationRate = 0.05
	archetypeRate       = 0.03
)

// surveyScores are the self-reported fields that receive measurement noise.
var surveyScores = []string{
	model.ManagerSupport,
	model.WorkLifeBalance,
	model.TeamCollaboration,
	model.RoleClarity,
}

// Injector degrades a clean cohort into something resembling real survey
// responses. Every transform is a pure per-row function; given a seed the
// whole pass is deterministic, and no step can push a bounded field out of
// its range after its own clamp.
type Injector struct {
	rng *rand.Rand
	src rand.Source
}

// NewInjector creates a seeded imperfection injector.
func NewInjector(seed uint64) *Injector {
	src := rand.NewPCG(seed, seed)
	return &Injector{rng: rand.New(src), src: src}
}

// Apply runs all imperfection passes over the cohort and returns new rows;
// the input is left untouched.
func (in *Injector) Apply(rows []model.TrainingRow) []model.TrainingRow {
	out := make([]model.TrainingRow, len(rows))
	for i, r := range rows {
		r = in.measurementNoise(r)
		r = in.reportingBias(r)
		r = in.missingValues(r)
		r = in.edgeCase(r)
		out[i] = r
	}
	return out
}

// measurementNoise perturbs every survey score with small Gaussian noise,
// reclamped to the score range.
func (in *Injector) measurementNoise(r model.TrainingRow) model.TrainingRow {
	r = r.Clone()
	for _, name := range surveyScores {
		r.Features[name] = clamp(r.Features[name]+in.normal(0, noiseSigma), 1, 10)
	}
	return r
}

// reportingBias models self-report distortion: some people underreport
// hours, some inflate their manager support score (social desirability).
// The two subsets are drawn independently and may overlap.
func (in *Injector) reportingBias(r model.TrainingRow) model.TrainingRow {
	r = r.Clone()
	if in.rng.Float64() < underreportRate {
		r.Features[model.HoursPerWeek] *= underreportScale
	}
	if in.rng.Float64() < overreportRate {
		r.Features[model.ManagerSupport] = clamp(
			r.Features[model.ManagerSupport]+in.uniform(0.5, 1.5), 1, 10)
	}
	return r
}

// missingValues drops survey answers: three score fields independently,
// plus occasionally incomplete vacation records. Missing means the key is
// absent from the vector.
func (in *Injector) missingValues(r model.TrainingRow) model.TrainingRow {
	r = r.Clone()
	for _, name := range []string{model.WorkLifeBalance, model.TeamCollaboration, model.RoleClarity} {
		if in.rng.Float64() < missingScoreRate {
			delete(r.Features, name)
		}
	}
	if in.rng.Float64() < missingVacationRate {
		delete(r.Features, model.VacationDaysTaken)
	}
	return r
}

// edgeCase overwrites a small fraction of rows with one of four outlier
// archetypes. Only the burnout archetype forces the label; the others keep
// the row's original category.
func (in *Injector) edgeCase(r model.TrainingRow) model.TrainingRow {
	if in.rng.Float64() >= archetypeRate {
		return r
	}
	r = r.Clone()
	switch in.rng.IntN(4) {
	case 0: // workaholic: extreme hours, no vacation, yet moderate balance
		r.Features[model.HoursPerWeek] = in.uniform(70, 90)
		r.Features[model.VacationDaysTaken] = in.uniform(0, 5)
		r.Features[model.WorkLifeBalance] = in.uniform(4, 8)
	case 1: // burnout: the one archetype that overrides the label
		r.Features[model.HoursPerWeek] = in.uniform(55, 75)
		r.Features[model.ManagerSupport] = in.uniform(1, 3)
		r.Features[model.WorkLifeBalance] = in.uniform(1, 3)
		r.Category = model.Critical
	case 2: // new employee: short tenure, unclear role, learning overtime
		r.Features[model.JobTenureMonths] = in.uniform(1, 6)
		r.Features[model.RoleClarity] = in.uniform(2, 5)
		r.Features[model.HoursPerWeek] += in.uniform(5, 15)
	case 3: // part-timer
		r.Features[model.HoursPerWeek] = in.uniform(20, 35)
		r.Features[model.OvertimeHours] = 0
	}
	return r
}

func (in *Injector) normal(mu, sigma float64) float64 {
	return distuv.Normal{Mu: mu, Sigma: sigma, Src: in.src}.Rand()
}

func (in *Injector) uniform(lo, hi float64) float64 {
	return distuv.Uniform{Min: lo, Max: hi, Src: in.src}.Rand()
}
