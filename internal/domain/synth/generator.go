// Package synth produces labeled synthetic cohorts that mimic real
// workplace survey data: category distributions overlap on purpose, and a
// separate injector layers survey imperfections on top.
package synth

import (
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/risklab/pulse/internal/domain/model"
)

// Cohort mix. Counts are floored per category; Critical takes the
// remainder so the total always equals the requested sample count.
const (
	lowShare    = 0.40
	mediumShare = 0.35
	highShare   = 0.20

	// randomCaseRate is the fraction of individuals whose support and
	// balance scores ignore their category entirely.
	randomCaseRate = 0.15
)

// params bounds the latent draws for one risk category. Adjacent
// categories overlap deliberately; a clean separation would make the
// classification problem trivially easy.
type params struct {
	hours    [2]float64
	overtime float64 // ceiling; draws are exponential with mean ceiling/3
	support  [2]float64
	vacation [2]float64
	emails   float64 // ceiling; draws are poisson with mean ceiling/2
	pressure [2]float64
	breaks   [2]float64
}

var categoryParams = map[model.RiskCategory]params{
	model.Low: {
		hours:    [2]float64{35, 50},
		overtime: 8,
		support:  [2]float64{6, 10},
		vacation: [2]float64{12, 25},
		emails:   10,
		pressure: [2]float64{1, 6},
		breaks:   [2]float64{2, 4},
	},
	model.Medium: {
		hours:    [2]float64{40, 55},
		overtime: 15,
		support:  [2]float64{4, 8},
		vacation: [2]float64{8, 20},
		emails:   18,
		pressure: [2]float64{4, 8},
		breaks:   [2]float64{1, 3},
	},
	model.High: {
		hours:    [2]float64{45, 65},
		overtime: 25,
		support:  [2]float64{2, 6},
		vacation: [2]float64{2, 15},
		emails:   30,
		pressure: [2]float64{6, 9},
		breaks:   [2]float64{0.5, 2.5},
	},
	model.Critical: {
		hours:    [2]float64{55, 80},
		overtime: 40,
		support:  [2]float64{1, 4},
		vacation: [2]float64{0, 10},
		emails:   50,
		pressure: [2]float64{7, 10},
		breaks:   [2]float64{0, 1.5},
	},
}

// CategoryCounts splits a sample count across the fixed 40/35/20/5 mix.
func CategoryCounts(n int) [model.NumCategories]int {
	var counts [model.NumCategories]int
	counts[model.Low] = int(float64(n) * lowShare)
	counts[model.Medium] = int(float64(n) * mediumShare)
	counts[model.High] = int(float64(n) * highShare)
	counts[model.Critical] = n - counts[model.Low] - counts[model.Medium] - counts[model.High]
	return counts
}

// Generator draws labeled rows from category-conditioned distributions.
// It is pure: the same seed yields the same cohort.
type Generator struct {
	rng *rand.Rand
	src rand.Source
}

// NewGenerator creates a seeded cohort generator.
func NewGenerator(seed uint64) *Generator {
	src := rand.NewPCG(seed, seed)
	return &Generator{rng: rand.New(src), src: src}
}

// Cohort produces exactly n labeled rows in the fixed category mix,
// shuffled so category blocks do not survive into training order.
func (g *Generator) Cohort(n int) []model.TrainingRow {
	counts := CategoryCounts(n)
	rows := make([]model.TrainingRow, 0, n)
	for _, cat := range model.Categories() {
		for i := 0; i < counts[cat]; i++ {
			rows = append(rows, g.row(cat))
		}
	}
	g.rng.Shuffle(len(rows), func(i, j int) {
		rows[i], rows[j] = rows[j], rows[i]
	})
	return rows
}

// row derives all concrete metrics from a per-individual latent base
// (support level and weekly hours) plus metric-shaped noise: counts get
// Poisson or exponential perturbation, bounded scores get clamped normal
// perturbation.
func (g *Generator) row(cat model.RiskCategory) model.TrainingRow {
	p := categoryParams[cat]
	baseSupport := g.uniform(p.support)
	baseHours := g.uniform(p.hours)

	f := model.FeatureVector{
		model.HoursPerWeek:      baseHours + g.normal(0, 3),
		model.OvertimeHours:     math.Max(0, g.exponential(p.overtime/3)),
		model.MeetingsPerDay:    g.poisson(math.Max(1, baseHours/10)) + float64(g.rng.IntN(4)),
		model.ManagerSupport:    clamp(baseSupport+g.normal(0, 1.5), 1, 10),
		model.VacationDaysTaken: math.Max(0, g.uniform(p.vacation)+g.normal(0, 2)),
		model.AfterHoursEmails:  math.Max(0, g.poisson(p.emails/2)+float64(g.rng.IntN(10))),
		model.DeadlinePressure:  clamp(g.uniform(p.pressure)+g.normal(0, 1), 1, 10),
		model.WorkLifeBalance:   clamp(baseSupport*0.7+g.normal(2, 1.5), 1, 10),
		model.TeamCollaboration: clamp(baseSupport*0.8+g.normal(1, 1.2), 1, 10),
		model.DailyBreaks:       math.Max(0, g.uniform(p.breaks)+g.normal(0, 0.5)),
		model.WeekendWorkDays:   math.Max(0, (baseHours-40)*0.1+g.exponential(1)),
		model.RoleClarity:       clamp(baseSupport*0.9+g.normal(0, 1.3), 1, 10),
		model.JobTenureMonths:   math.Max(1, g.exponential(24)+float64(g.rng.IntN(18)-6)),
	}

	// People are unpredictable: a slice of every category reports
	// support and balance scores unrelated to their situation.
	if g.rng.Float64() < randomCaseRate {
		f[model.ManagerSupport] = g.uniform([2]float64{1, 10})
		f[model.WorkLifeBalance] = g.uniform([2]float64{1, 10})
	}

	return model.TrainingRow{Features: f, Category: cat}
}

func (g *Generator) uniform(r [2]float64) float64 {
	return distuv.Uniform{Min: r[0], Max: r[1], Src: g.src}.Rand()
}

func (g *Generator) normal(mu, sigma float64) float64 {
	return distuv.Normal{Mu: mu, Sigma: sigma, Src: g.src}.Rand()
}

func (g *Generator) exponential(mean float64) float64 {
	return distuv.Exponential{Rate: 1 / mean, Src: g.src}.Rand()
}

func (g *Generator) poisson(lambda float64) float64 {
	return distuv.Poisson{Lambda: lambda, Src: g.src}.Rand()
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(hi, math.Max(lo, v))
}
