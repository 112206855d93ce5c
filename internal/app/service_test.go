package service_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	service "github.com/risklab/pulse/internal/app"
	"github.com/risklab/pulse/internal/artifact"
	"github.com/risklab/pulse/internal/domain/infer"
	"github.com/risklab/pulse/internal/domain/model"
	"github.com/risklab/pulse/internal/domain/train"
	"github.com/risklab/pulse/pkg/logger"
)

func saveBundle(t *testing.T, path string) *artifact.Bundle {
	t.Helper()
	bundle, err := train.Pipeline(context.Background(), 500, 31,
		train.WithTrees(20),
		train.WithFolds(2),
	)
	if err != nil {
		t.Fatalf("training bundle: %v", err)
	}
	if err := artifact.NewStore(path).Save(context.Background(), bundle); err != nil {
		t.Fatalf("saving bundle: %v", err)
	}
	return bundle
}

func TestServiceLifecycle(t *testing.T) {
	Convey("Given a service over a saved artifact", t, func() {
		So(logger.Init(), ShouldBeNil)
		ctx := context.Background()
		path := filepath.Join(t.TempDir(), "pulse.bundle")
		saved := saveBundle(t, path)

		svc := service.New(
			service.WithArtifactPath(path),
			service.WithArtifactWatch(false),
			service.WithHistorySize(5),
		)
		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop()

		Convey("Then the saved model is active", func() {
			b := svc.ModelBundle()
			So(b, ShouldNotBeNil)
			So(b.Version, ShouldEqual, saved.Version)
		})

		Convey("When predicting", func() {
			result, err := svc.Predict(ctx, model.FeatureVector{
				model.HoursPerWeek:     62,
				model.ManagerSupport:   2,
				model.DeadlinePressure: 9,
				model.WorkLifeBalance:  2,
			})
			So(err, ShouldBeNil)

			Convey("Then the result is complete", func() {
				So(result.CategoryName, ShouldNotBeEmpty)
				So(result.ProbabilitySum(), ShouldAlmostEqual, 1.0, 1e-9)
			})

			Convey("Then the prediction lands in history", func() {
				recs, err := svc.Recent(ctx, 5)
				So(err, ShouldBeNil)
				So(len(recs), ShouldEqual, 1)
				So(recs[0].Result.CategoryName, ShouldEqual, result.CategoryName)
				So(recs[0].ID, ShouldNotBeEmpty)
			})
		})

		Convey("When predicting malformed input", func() {
			_, err := svc.Predict(ctx, model.FeatureVector{
				model.HoursPerWeek: -1,
			})

			Convey("Then the engine rejection surfaces unchanged", func() {
				So(errors.Is(err, infer.ErrMalformedInput), ShouldBeTrue)
			})
		})

		Convey("When history exceeds its capacity", func() {
			for i := 0; i < 8; i++ {
				_, err := svc.Predict(ctx, model.FeatureVector{
					model.HoursPerWeek: 40 + float64(i),
				})
				So(err, ShouldBeNil)
			}

			Convey("Then only the bounded tail is retained", func() {
				recs, err := svc.Recent(ctx, 10)
				So(err, ShouldBeNil)
				So(len(recs), ShouldEqual, 5)
			})
		})

		Convey("Then GetStats reflects the loaded model", func() {
			stats := svc.GetStats()
			So(stats["modelLoaded"], ShouldBeTrue)
			So(stats["modelVersion"], ShouldEqual, saved.Version)
		})

		Convey("When a retrained artifact is saved and reloaded", func() {
			replacement := saveBundle(t, path)
			So(svc.Reload(ctx), ShouldBeNil)

			Convey("Then the swap is visible to new predictions", func() {
				So(svc.ModelBundle().Version, ShouldEqual, replacement.Version)
			})
		})
	})
}

func TestServiceWithoutModel(t *testing.T) {
	Convey("Given a service pointing at a missing artifact", t, func() {
		So(logger.Init(), ShouldBeNil)
		ctx := context.Background()

		svc := service.New(
			service.WithArtifactPath(filepath.Join(t.TempDir(), "absent.bundle")),
			service.WithArtifactWatch(false),
		)

		Convey("Then it starts degraded rather than failing", func() {
			So(svc.Start(ctx), ShouldBeNil)
			defer svc.Stop()

			So(svc.ModelBundle(), ShouldBeNil)

			Convey("And predictions report the missing model", func() {
				_, err := svc.Predict(ctx, model.FeatureVector{})
				So(errors.Is(err, infer.ErrNoModel), ShouldBeTrue)
			})

			Convey("And stats reflect the degraded state", func() {
				So(svc.GetStats()["modelLoaded"], ShouldBeFalse)
			})
		})
	})
}

func TestEndToEndScenario(t *testing.T) {
	if testing.Short() {
		t.Skip("full-cohort training is slow")
	}

	// Train once at the canonical defaults; the leaves below only predict.
	if err := logger.Init(); err != nil {
		t.Fatalf("init logging: %v", err)
	}
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "pulse.bundle")
	bundle, err := train.Pipeline(ctx, 2000, 42, train.WithLogger(logger.Get()))
	if err != nil {
		t.Fatalf("training full cohort: %v", err)
	}
	if err := artifact.NewStore(path).Save(ctx, bundle); err != nil {
		t.Fatalf("saving bundle: %v", err)
	}

	svc := service.New(
		service.WithArtifactPath(path),
		service.WithArtifactWatch(false),
	)
	if err := svc.Start(ctx); err != nil {
		t.Fatalf("starting service: %v", err)
	}
	defer svc.Stop()

	Convey("Given a model trained on a full-size cohort at the default configuration", t, func() {
		Convey("Then held-out accuracy sits in the honest band", func() {
			So(bundle.Report.TestAccuracy, ShouldBeGreaterThan, 0.6)
			So(bundle.Report.TestAccuracy, ShouldBeLessThan, 0.98)
		})

		Convey("When predicting the canonical overloaded profile", func() {
			result, err := svc.Predict(ctx, model.FeatureVector{
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
			})
			So(err, ShouldBeNil)

			Convey("Then the risk reads as elevated and the call is trustworthy", func() {
				So(result.Category, ShouldBeIn, []model.RiskCategory{model.High, model.Critical})
				So(result.Reliability, ShouldNotEqual, infer.ReliabilityLow)
				So(result.Confidence, ShouldBeGreaterThan, 0.55)
				So(result.ProbabilitySum(), ShouldAlmostEqual, 1.0, 1e-9)
			})
		})

		Convey("When predicting a severely overloaded profile", func() {
			result, err := svc.Predict(ctx, model.FeatureVector{
				model.HoursPerWeek:      78,
				model.OvertimeHours:     32,
				model.MeetingsPerDay:    9,
				model.ManagerSupport:    1,
				model.VacationDaysTaken: 0,
				model.AfterHoursEmails:  50,
				model.DeadlinePressure:  10,
				model.WorkLifeBalance:   1,
				model.TeamCollaboration: 2,
				model.DailyBreaks:       0,
				model.WeekendWorkDays:   2,
				model.RoleClarity:       2,
				model.JobTenureMonths:   4,
			})
			So(err, ShouldBeNil)

			Convey("Then the risk reads as elevated", func() {
				So(result.Category, ShouldBeIn, []model.RiskCategory{model.High, model.Critical})
				So(result.Probabilities[model.High.String()]+result.Probabilities[model.Critical.String()],
					ShouldBeGreaterThan, 0.6)
				So(result.ProbabilitySum(), ShouldAlmostEqual, 1.0, 1e-9)
			})
		})

		Convey("When predicting a healthy profile", func() {
			result, err := svc.Predict(ctx, model.FeatureVector{
				model.HoursPerWeek:      37,
				model.OvertimeHours:     1,
				model.MeetingsPerDay:    2,
				model.ManagerSupport:    9,
				model.VacationDaysTaken: 22,
				model.AfterHoursEmails:  1,
				model.DeadlinePressure:  2,
				model.WorkLifeBalance:   9,
				model.TeamCollaboration: 9,
				model.DailyBreaks:       3,
				model.WeekendWorkDays:   0,
				model.RoleClarity:       9,
				model.JobTenureMonths:   60,
			})
			So(err, ShouldBeNil)

			Convey("Then the risk reads as contained", func() {
				So(result.Category, ShouldBeIn, []model.RiskCategory{model.Low, model.Medium})
			})
		})
	})
}
