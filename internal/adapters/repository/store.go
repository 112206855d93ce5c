// Package repository defines the prediction history store and errors.
// Storage is a collaborator of the pipeline, not part of it: the pipeline
// stays stateless and this package only retains what was already computed.
package repository

import (
	"context"
	"time"

	"github.com/risklab/pulse/internal/domain/model"
)

// Record is one stored prediction: the raw input as received, the full
// result, and when it was served.
type Record struct {
	ID        string                 `json:"id"`
	Input     model.FeatureVector    `json:"input"`
	Result    model.PredictionResult `json:"result"`
	CreatedAt time.Time              `json:"created_at"`
}

// Store provides access to prediction history.
type Store interface {
	// Append stores a record, evicting the oldest once capacity is hit.
	Append(ctx context.Context, rec Record) error

	// Get returns a record by id. Returns ErrNotFound if unknown.
	Get(ctx context.Context, id string) (Record, error)

	// Recent returns up to n records, newest first.
	Recent(ctx context.Context, n int) ([]Record, error)

	// Count returns the number of retained records.
	Count(ctx context.Context) int
}
