package artifact_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/risklab/pulse/internal/artifact"
	"github.com/risklab/pulse/internal/domain/infer"
	"github.com/risklab/pulse/internal/domain/model"
	"github.com/risklab/pulse/internal/domain/synth"
	"github.com/risklab/pulse/internal/domain/train"
)

func trainedBundle(t *testing.T) *artifact.Bundle {
	t.Helper()
	bundle, err := train.Pipeline(context.Background(), 400, 23,
		train.WithTrees(15),
		train.WithFolds(2),
	)
	if err != nil {
		t.Fatalf("training test bundle: %v", err)
	}
	return bundle
}

func TestStoreRoundTrip(t *testing.T) {
	Convey("Given a trained bundle and a file store", t, func() {
		bundle := trainedBundle(t)
		path := filepath.Join(t.TempDir(), "models", "pulse.bundle")
		store := artifact.NewStore(path)
		ctx := context.Background()

		Convey("When saving and loading it", func() {
			So(store.Save(ctx, bundle), ShouldBeNil)
			loaded, err := store.Load(ctx)
			So(err, ShouldBeNil)

			Convey("Then the loaded bundle validates", func() {
				So(loaded.Validate(), ShouldBeNil)
				So(loaded.Version, ShouldEqual, bundle.Version)
				So(loaded.FeatureNames, ShouldResemble, bundle.FeatureNames)
			})

			Convey("Then it predicts identically to the original", func() {
				a, err := infer.New(bundle)
				So(err, ShouldBeNil)
				b, err := infer.New(loaded)
				So(err, ShouldBeNil)

				input := model.FeatureVector{
					model.HoursPerWeek:     58,
					model.ManagerSupport:   3,
					model.DeadlinePressure: 8,
				}
				ra, err := a.Predict(input)
				So(err, ShouldBeNil)
				rb, err := b.Predict(input)
				So(err, ShouldBeNil)
				So(rb, ShouldResemble, ra)
			})

			Convey("Then no temp files are left behind", func() {
				entries, err := os.ReadDir(filepath.Dir(path))
				So(err, ShouldBeNil)
				So(len(entries), ShouldEqual, 1)
			})
		})

		Convey("When loading from a missing path", func() {
			_, err := artifact.NewStore(filepath.Join(t.TempDir(), "nope.bundle")).Load(ctx)

			Convey("Then the not-found sentinel surfaces", func() {
				So(errors.Is(err, artifact.ErrNotFound), ShouldBeTrue)
			})
		})

		Convey("When the file is not a valid bundle", func() {
			bad := filepath.Join(t.TempDir(), "garbage.bundle")
			So(os.WriteFile(bad, []byte("not zstd at all"), 0o644), ShouldBeNil)
			_, err := artifact.NewStore(bad).Load(ctx)

			Convey("Then the corrupt sentinel surfaces", func() {
				So(errors.Is(err, artifact.ErrCorrupt), ShouldBeTrue)
			})
		})

		Convey("When saving an incomplete bundle", func() {
			err := store.Save(ctx, &artifact.Bundle{Version: "v"})

			Convey("Then the save is refused", func() {
				So(errors.Is(err, artifact.ErrIncomplete), ShouldBeTrue)
			})
		})

		Convey("When the context is already cancelled", func() {
			cancelled, cancel := context.WithCancel(ctx)
			cancel()

			Convey("Then save and load both refuse", func() {
				So(store.Save(cancelled, bundle), ShouldNotBeNil)
				_, err := store.Load(cancelled)
				So(err, ShouldNotBeNil)
			})
		})
	})
}

func TestStoreShortWeekCohort(t *testing.T) {
	Convey("Given a cohort that includes sub-35-hour weeks", t, func() {
		const seed = 42
		rows := synth.NewInjector(seed + 1).Apply(synth.NewGenerator(seed).Cohort(2000))
		short := 0
		for _, row := range rows {
			if h, ok := row.Features[model.HoursPerWeek]; ok && h < 34 {
				short++
			}
		}
		So(short, ShouldBeGreaterThan, 0)

		Convey("When training and persisting at the default configuration", func() {
			trainer := train.New(train.WithSeed(seed), train.WithTrees(25), train.WithFolds(2))
			bundle, err := trainer.Train(context.Background(), rows)
			So(err, ShouldBeNil)

			Convey("Then every scaler moment is finite", func() {
				for j := range bundle.Scaler.Means {
					So(model.IsFinite(bundle.Scaler.Means[j]), ShouldBeTrue)
					So(model.IsFinite(bundle.Scaler.Stds[j]), ShouldBeTrue)
				}
			})

			Convey("Then the bundle survives the save/load/predict round trip", func() {
				path := filepath.Join(t.TempDir(), "pulse.bundle")
				store := artifact.NewStore(path)
				So(store.Save(context.Background(), bundle), ShouldBeNil)

				loaded, err := store.Load(context.Background())
				So(err, ShouldBeNil)

				engine, err := infer.New(loaded)
				So(err, ShouldBeNil)
				result, err := engine.Predict(model.FeatureVector{
					model.HoursPerWeek:  22,
					model.OvertimeHours: 0,
				})
				So(err, ShouldBeNil)
				So(result.ProbabilitySum(), ShouldAlmostEqual, 1, 1e-6)
			})
		})
	})
}

func TestBundleValidate(t *testing.T) {
	Convey("Given a valid bundle", t, func() {
		bundle := trainedBundle(t)
		So(bundle.Validate(), ShouldBeNil)

		Convey("When the feature list drifts", func() {
			bundle.FeatureNames[3] = "unexpected"

			Convey("Then validation reports a mismatch", func() {
				So(errors.Is(bundle.Validate(), artifact.ErrMismatch), ShouldBeTrue)
			})
		})

		Convey("When the scaler is missing", func() {
			bundle.Scaler = nil

			Convey("Then validation reports an incomplete bundle", func() {
				So(errors.Is(bundle.Validate(), artifact.ErrIncomplete), ShouldBeTrue)
			})
		})
	})
}

func TestSwapper(t *testing.T) {
	Convey("Given a swapper", t, func() {
		Convey("When created empty", func() {
			s := artifact.NewSwapper(nil)

			Convey("Then the current bundle is nil", func() {
				So(s.Current(), ShouldBeNil)
			})
		})

		Convey("When a bundle is swapped in", func() {
			first := &artifact.Bundle{Version: "one"}
			second := &artifact.Bundle{Version: "two"}
			s := artifact.NewSwapper(first)
			So(s.Current().Version, ShouldEqual, "one")

			s.Swap(second)

			Convey("Then readers observe the replacement atomically", func() {
				So(s.Current().Version, ShouldEqual, "two")
			})

			Convey("Then the prior bundle object is unchanged", func() {
				So(first.Version, ShouldEqual, "one")
			})
		})
	})
}
