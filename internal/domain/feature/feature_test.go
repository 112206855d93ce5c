package feature_test

import (
	"math"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/risklab/pulse/internal/domain/feature"
	"github.com/risklab/pulse/internal/domain/model"
)

func TestPreprocess(t *testing.T) {
	Convey("Given a batch with gaps and outliers", t, func() {
		rows := []model.FeatureVector{
			fullVector(),
			fullVector(),
			fullVector(),
		}
		rows[0][model.WorkLifeBalance] = 2
		rows[1][model.WorkLifeBalance] = 4
		delete(rows[2], model.WorkLifeBalance)
		rows[0][model.HoursPerWeek] = 200
		rows[1][model.OvertimeHours] = -3
		rows[2][model.VacationDaysTaken] = 45

		Convey("When preprocessing the batch", func() {
			out := feature.Preprocess(rows)

			Convey("Then missing values get the column median", func() {
				So(out[2][model.WorkLifeBalance], ShouldEqual, 3) // median of {2, 4}
			})

			Convey("Then bounded fields are clipped", func() {
				So(out[0][model.HoursPerWeek], ShouldEqual, 90)
				So(out[1][model.OvertimeHours], ShouldEqual, 0)
				So(out[2][model.VacationDaysTaken], ShouldEqual, 30)
			})

			Convey("Then no vector has gaps afterwards", func() {
				for _, v := range out {
					for _, name := range model.RawMetrics() {
						_, ok := v[name]
						So(ok, ShouldBeTrue)
					}
				}
			})

			Convey("Then the inputs are untouched", func() {
				So(rows[0][model.HoursPerWeek], ShouldEqual, 200)
				_, ok := rows[2][model.WorkLifeBalance]
				So(ok, ShouldBeFalse)
			})
		})
	})
}

func TestClip(t *testing.T) {
	Convey("Given a vector inside all bounds", t, func() {
		v := fullVector()

		Convey("Then clipping changes nothing", func() {
			So(feature.Clip(v), ShouldResemble, v)
		})
	})
}

func TestEngineer(t *testing.T) {
	Convey("Given a sanitized raw vector", t, func() {
		v := fullVector()

		Convey("When engineering the composites", func() {
			out := feature.Engineer(v)

			Convey("Then the workload intensity follows the log formula", func() {
				want := 0.4*math.Log1p(v[model.HoursPerWeek]-35) +
					0.4*math.Log1p(v[model.OvertimeHours]) +
					0.2*(v[model.MeetingsPerDay]/10)
				So(out[model.WorkloadIntensity], ShouldAlmostEqual, want, 1e-12)
			})

			Convey("Then the support deficit inverts the support score", func() {
				So(out[model.SupportDeficit], ShouldAlmostEqual, (11-v[model.ManagerSupport])/10, 1e-12)
			})

			Convey("Then the balance composite mixes its four inputs", func() {
				want := (0.5*v[model.WorkLifeBalance] +
					0.1*(25-v[model.VacationDaysTaken]) +
					0.2*(5-v[model.DailyBreaks]) -
					0.2*v[model.WeekendWorkDays]) / 10
				So(out[model.WLBComposite], ShouldAlmostEqual, want, 1e-12)
			})

			Convey("Then pressure without support is multiplicative", func() {
				So(out[model.PressureNoSupport], ShouldAlmostEqual,
					v[model.DeadlinePressure]*out[model.SupportDeficit], 1e-12)
			})

			Convey("Then raw fields survive unchanged", func() {
				for _, name := range model.RawMetrics() {
					So(out[name], ShouldEqual, v[name])
				}
			})

			Convey("Then re-engineering the same raw input is idempotent", func() {
				So(feature.Engineer(v), ShouldResemble, out)
			})
		})

		Convey("When the week is shorter than the 35-hour standard", func() {
			v[model.HoursPerWeek] = 20
			v[model.OvertimeHours] = 0

			Convey("Then the hours term bottoms out at zero instead of going NaN", func() {
				out := feature.Engineer(v)
				So(math.IsNaN(out[model.WorkloadIntensity]), ShouldBeFalse)
				So(out[model.WorkloadIntensity], ShouldAlmostEqual, 0.2*(v[model.MeetingsPerDay]/10), 1e-12)
			})
		})

		Convey("When tenure is under a year", func() {
			v[model.JobTenureMonths] = 6

			Convey("Then the new-employee multiplier applies", func() {
				So(feature.Engineer(v)[model.TenureFactor], ShouldEqual, 1.2)
			})
		})

		Convey("When tenure is a year or more", func() {
			v[model.JobTenureMonths] = 12

			Convey("Then the tenure factor is neutral", func() {
				So(feature.Engineer(v)[model.TenureFactor], ShouldEqual, 1.0)
			})
		})
	})
}

func TestNames(t *testing.T) {
	Convey("Given the model feature set", t, func() {
		names := feature.Names()

		Convey("Then it has fourteen ordered entries ending in the composites", func() {
			So(len(names), ShouldEqual, 14)
			So(names[0], ShouldEqual, model.HoursPerWeek)
			So(names[len(names)-1], ShouldEqual, model.TenureFactor)
		})

		Convey("Then an engineered full vector covers every name", func() {
			out := feature.Engineer(fullVector())
			x, err := feature.Vectorize(out, names)
			So(err, ShouldBeNil)
			So(len(x), ShouldEqual, 14)
		})
	})
}

func TestVectorize(t *testing.T) {
	Convey("Given a vector missing a model feature", t, func() {
		v := feature.Engineer(fullVector())
		delete(v, model.WLBComposite)

		Convey("Then vectorizing names the missing feature", func() {
			_, err := feature.Vectorize(v, feature.Names())
			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring, model.WLBComposite)
		})
	})
}

func fullVector() model.FeatureVector {
	return model.FeatureVector{
		model.HoursPerWeek:      52,
		model.OvertimeHours:     10,
		model.MeetingsPerDay:    4,
		model.ManagerSupport:    5,
		model.VacationDaysTaken: 12,
		model.AfterHoursEmails:  15,
		model.DeadlinePressure:  6,
		model.WorkLifeBalance:   5,
		model.TeamCollaboration: 6,
		model.DailyBreaks:       2,
		model.WeekendWorkDays:   1,
		model.RoleClarity:       7,
		model.JobTenureMonths:   30,
	}
}
