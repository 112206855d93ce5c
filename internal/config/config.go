// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New(ctx) to build a Config with defaults.
// - Load(ctx) layers defaults, an optional YAML file, and environment.
// - External errors must be wrapped via this package's error helpers.
package config

import (
	"context"
)

// Config contains process configuration. Extend as needed.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// ArtifactPath locates the persisted model bundle.
	ArtifactPath string `koanf:"artifact_path"`

	// WatchArtifact reloads the bundle when the file is replaced.
	WatchArtifact bool `koanf:"watch_artifact"`

	// AuthSecret enables JWT bearer auth on prediction routes when set.
	AuthSecret string `koanf:"auth_secret"`

	// HistorySize bounds the in-memory prediction history.
	HistorySize int `koanf:"history_size"`

	// MaxHistoryLimit caps GET /predictions?limit.
	MaxHistoryLimit int `koanf:"max_history_limit"`

	// TrainSamples and TrainSeed are the defaults for training runs.
	TrainSamples int    `koanf:"train_samples"`
	TrainSeed    uint64 `koanf:"train_seed"`

	// TrainTrees sets the ensemble size for training runs.
	TrainTrees int `koanf:"train_trees"`

	// CVFolds sets the cross-validation fold count.
	CVFolds int `koanf:"cv_folds"`
}

// New creates a Config with defaults. Context is accepted first to satisfy
// the project-wide convention; it is reserved for future use and currently
// unused.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:        "info",
		Addr:            ":9090",
		ArtifactPath:    "models/pulse.bundle",
		WatchArtifact:   true,
		AuthSecret:      "",
		HistorySize:     10_000,
		MaxHistoryLimit: 100,
		TrainSamples:    2000,
		TrainSeed:       42,
		TrainTrees:      100,
		CVFolds:         5,
	}
}
