// Command train generates a synthetic cohort, fits a risk model on it, and
// writes the resulting artifact bundle to disk.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/risklab/pulse/internal/artifact"
	"github.com/risklab/pulse/internal/domain/train"
	"github.com/risklab/pulse/pkg/logger"
	"github.com/risklab/pulse/pkg/metrics"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}

	if err := run(ctx, os.Args); err != nil {
		logger.Get().Error(ctx, "training failed", logger.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	var (
		samples int
		seed    int
		trees   int
		folds   int
		out     string
	)

	cmd := &cli.Command{
		Name:  "train",
		Usage: "train a stress risk model on a synthetic cohort",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:        "samples",
				Usage:       "number of synthetic individuals to generate",
				Value:       2000,
				Destination: &samples,
				Sources:     cli.EnvVars("PULSE_TRAIN_SAMPLES"),
			},
			&cli.IntFlag{
				Name:        "seed",
				Usage:       "random seed for generation and training",
				Value:       42,
				Destination: &seed,
				Sources:     cli.EnvVars("PULSE_TRAIN_SEED"),
			},
			&cli.IntFlag{
				Name:        "trees",
				Usage:       "number of trees in the forest",
				Value:       100,
				Destination: &trees,
				Sources:     cli.EnvVars("PULSE_TRAIN_TREES"),
			},
			&cli.IntFlag{
				Name:        "folds",
				Usage:       "cross-validation fold count",
				Value:       5,
				Destination: &folds,
				Sources:     cli.EnvVars("PULSE_CV_FOLDS"),
			},
			&cli.StringFlag{
				Name:        "out",
				Usage:       "artifact bundle output path",
				Value:       "models/pulse.bundle",
				Destination: &out,
				Sources:     cli.EnvVars("PULSE_ARTIFACT_PATH"),
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			log := logger.Get()
			log.Info(ctx, "training model",
				logger.Int("samples", samples),
				logger.Int("seed", seed),
				logger.Int("trees", trees),
			)

			start := time.Now()
			bundle, err := train.Pipeline(ctx, samples, uint64(seed),
				train.WithTrees(trees),
				train.WithFolds(folds),
				train.WithLogger(log),
			)
			if err != nil {
				return fmt.Errorf("pipeline failed: %w", err)
			}
			metrics.RecordTrainingRun(time.Since(start).Seconds())

			if err := artifact.NewStore(out).Save(ctx, bundle); err != nil {
				return fmt.Errorf("failed to save artifact: %w", err)
			}

			printReport(c, bundle)
			return nil
		},
	}

	if err := cmd.Run(ctx, args); err != nil {
		return fmt.Errorf("train command failed: %w", err)
	}
	return nil
}

// printReport writes a human-readable training summary to the command's
// writer.
func printReport(c *cli.Command, b *artifact.Bundle) {
	w := c.Writer
	fmt.Fprintf(w, "model version:  %s\n", b.Version)
	if r := b.Report; r != nil {
		fmt.Fprintf(w, "samples:        %d\n", r.Samples)
		fmt.Fprintf(w, "test accuracy:  %.3f\n", r.TestAccuracy)
		fmt.Fprintf(w, "cv accuracy:    %.3f (+/- %.3f)\n", r.CVMean, r.CVStd)
		for _, warning := range r.Warnings {
			fmt.Fprintf(w, "warning:        %s\n", warning)
		}
	}
	fmt.Fprintln(w, "top features:")
	for i, imp := range b.Importances {
		if i >= 5 {
			break
		}
		fmt.Fprintf(w, "  %-24s %.4f\n", imp.Name, imp.Weight)
	}
}
