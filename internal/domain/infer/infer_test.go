package infer_test

import (
	"context"
	"errors"
	"math"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/risklab/pulse/internal/artifact"
	"github.com/risklab/pulse/internal/domain/infer"
	"github.com/risklab/pulse/internal/domain/model"
	"github.com/risklab/pulse/internal/domain/train"
)

func TestReliability(t *testing.T) {
	Convey("Given the reliability decision table", t, func() {
		Convey("Then confidence above 0.75 reads as high trust", func() {
			So(infer.Reliability(0.76), ShouldEqual, infer.ReliabilityHigh)
			So(infer.Reliability(1.0), ShouldEqual, infer.ReliabilityHigh)
		})

		Convey("Then confidence above 0.55 reads as medium trust", func() {
			So(infer.Reliability(0.56), ShouldEqual, infer.ReliabilityMedium)
			So(infer.Reliability(0.75), ShouldEqual, infer.ReliabilityMedium)
		})

		Convey("Then everything else reads as low trust", func() {
			So(infer.Reliability(0.55), ShouldEqual, infer.ReliabilityLow)
			So(infer.Reliability(0.25), ShouldEqual, infer.ReliabilityLow)
		})
	})
}

func TestPriority(t *testing.T) {
	Convey("Given the intervention priority ladder", t, func() {
		Convey("Then confident Critical predictions escalate immediately", func() {
			So(infer.Priority(model.Critical, 0.61), ShouldEqual, infer.PriorityImmediate)
		})

		Convey("Then a low-confidence Critical prediction falls through to Monitor", func() {
			// Deliberate ladder fall-through: Critical at or below 0.6
			// matches no escalation rule.
			So(infer.Priority(model.Critical, 0.58), ShouldEqual, infer.PriorityMonitor)
			So(infer.Priority(model.Critical, 0.6), ShouldEqual, infer.PriorityMonitor)
		})

		Convey("Then High above 0.55 gets a one-week window", func() {
			So(infer.Priority(model.High, 0.56), ShouldEqual, infer.PriorityWeek)
			So(infer.Priority(model.High, 0.55), ShouldEqual, infer.PriorityMonitor)
		})

		Convey("Then Medium always gets a one-month window", func() {
			So(infer.Priority(model.Medium, 0.3), ShouldEqual, infer.PriorityMonth)
			So(infer.Priority(model.Medium, 0.9), ShouldEqual, infer.PriorityMonth)
		})

		Convey("Then Low is monitored regardless of confidence", func() {
			So(infer.Priority(model.Low, 0.99), ShouldEqual, infer.PriorityMonitor)
		})
	})
}

func testBundle(t *testing.T) *artifact.Bundle {
	t.Helper()
	bundle, err := train.Pipeline(context.Background(), 600, 17,
		train.WithTrees(25),
		train.WithFolds(3),
	)
	if err != nil {
		t.Fatalf("training test bundle: %v", err)
	}
	return bundle
}

func TestEnginePredict(t *testing.T) {
	Convey("Given an engine over a freshly trained bundle", t, func() {
		engine, err := infer.New(testBundle(t))
		So(err, ShouldBeNil)

		Convey("When predicting a complete low-risk profile", func() {
			result, err := engine.Predict(model.FeatureVector{
				model.HoursPerWeek:      38,
				model.OvertimeHours:     2,
				model.MeetingsPerDay:    3,
				model.ManagerSupport:    9,
				model.VacationDaysTaken: 20,
				model.AfterHoursEmails:  2,
				model.DeadlinePressure:  2,
				model.WorkLifeBalance:   9,
				model.TeamCollaboration: 8,
				model.DailyBreaks:       3,
				model.WeekendWorkDays:   0,
				model.RoleClarity:       9,
				model.JobTenureMonths:   48,
			})
			So(err, ShouldBeNil)

			Convey("Then the result is complete and coherent", func() {
				So(result.CategoryName, ShouldEqual, result.Category.String())
				So(result.Confidence, ShouldBeBetweenOrEqual, 0, 1)
				So(len(result.Probabilities), ShouldEqual, model.NumCategories)
				So(result.ProbabilitySum(), ShouldAlmostEqual, 1.0, 1e-9)
				So(result.Reliability, ShouldNotBeEmpty)
				So(result.Priority, ShouldNotBeEmpty)
			})

			Convey("Then low-risk mass dominates", func() {
				So(result.Probabilities[model.Low.String()]+result.Probabilities[model.Medium.String()],
					ShouldBeGreaterThan, 0.5)
			})
		})

		Convey("When predicting a severe overload profile", func() {
			result, err := engine.Predict(model.FeatureVector{
				model.HoursPerWeek:      75,
				model.OvertimeHours:     30,
				model.MeetingsPerDay:    8,
				model.ManagerSupport:    1,
				model.VacationDaysTaken: 0,
				model.AfterHoursEmails:  45,
				model.DeadlinePressure:  10,
				model.WorkLifeBalance:   1,
				model.TeamCollaboration: 2,
				model.DailyBreaks:       0,
				model.WeekendWorkDays:   2,
				model.RoleClarity:       2,
				model.JobTenureMonths:   5,
			})
			So(err, ShouldBeNil)

			Convey("Then the prediction lands in the elevated bands", func() {
				So(result.Category, ShouldBeIn, []model.RiskCategory{model.High, model.Critical})
				So(result.Probabilities[model.High.String()]+result.Probabilities[model.Critical.String()],
					ShouldBeGreaterThan, 0.6)
			})
		})

		Convey("When survey answers are missing", func() {
			result, err := engine.Predict(model.FeatureVector{
				model.HoursPerWeek:     60,
				model.OvertimeHours:    20,
				model.DeadlinePressure: 8,
			})

			Convey("Then defaults fill the gaps and the result is complete", func() {
				So(err, ShouldBeNil)
				So(result.ProbabilitySum(), ShouldAlmostEqual, 1.0, 1e-9)
				So(result.Reliability, ShouldNotBeEmpty)
				So(result.Priority, ShouldNotBeEmpty)
			})
		})

		Convey("When the input is empty", func() {
			result, err := engine.Predict(model.FeatureVector{})

			Convey("Then the all-defaults row still predicts", func() {
				So(err, ShouldBeNil)
				So(len(result.Probabilities), ShouldEqual, model.NumCategories)
			})
		})

		Convey("When a value is not finite", func() {
			_, err := engine.Predict(model.FeatureVector{
				model.HoursPerWeek: math.NaN(),
			})

			Convey("Then the error names the field", func() {
				So(errors.Is(err, infer.ErrMalformedInput), ShouldBeTrue)
				So(err.Error(), ShouldContainSubstring, model.HoursPerWeek)
			})
		})

		Convey("When a value is negative", func() {
			_, err := engine.Predict(model.FeatureVector{
				model.VacationDaysTaken: -3,
			})

			Convey("Then the error names the field", func() {
				So(errors.Is(err, infer.ErrMalformedInput), ShouldBeTrue)
				So(err.Error(), ShouldContainSubstring, model.VacationDaysTaken)
			})
		})

		Convey("When unknown keys appear in the input", func() {
			result, err := engine.Predict(model.FeatureVector{
				model.HoursPerWeek: 45,
				"favorite_color":   7,
			})

			Convey("Then they are ignored", func() {
				So(err, ShouldBeNil)
				So(result.CategoryName, ShouldNotBeEmpty)
			})
		})
	})
}

func TestEngineRejectsBrokenArtifacts(t *testing.T) {
	Convey("Given invalid artifacts", t, func() {
		Convey("Then a nil bundle is rejected", func() {
			_, err := infer.New(nil)
			So(errors.Is(err, infer.ErrFeatureMismatch), ShouldBeTrue)
		})

		Convey("Then a bundle with a drifted feature list is rejected", func() {
			b := testBundle(t)
			b.FeatureNames[0] = "renamed_feature"
			_, err := infer.New(b)
			So(errors.Is(err, infer.ErrFeatureMismatch), ShouldBeTrue)
		})
	})
}

func TestEngineDeterminism(t *testing.T) {
	Convey("Given one engine and one input", t, func() {
		engine, err := infer.New(testBundle(t))
		So(err, ShouldBeNil)
		input := model.FeatureVector{
			model.HoursPerWeek:   55,
			model.ManagerSupport: 3,
		}

		Convey("Then repeated predictions are identical", func() {
			a, err := engine.Predict(input)
			So(err, ShouldBeNil)
			b, err := engine.Predict(input)
			So(err, ShouldBeNil)
			So(a, ShouldResemble, b)
		})
	})
}
