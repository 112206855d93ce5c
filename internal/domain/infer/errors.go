package infer

import (
	"errors"
	"fmt"
)

// Sentinel kinds for inference errors.
var (
	// ErrNoModel is returned when prediction is requested before any
	// model artifact has been loaded.
	ErrNoModel = errors.New("no model loaded")

	// ErrMalformedInput marks inputs rejected before preprocessing;
	// callers get the offending field, never a partial prediction.
	ErrMalformedInput = errors.New("malformed input")

	// ErrFeatureMismatch marks a drift between the artifact's feature
	// list and the engineered feature set. It is a fatal configuration
	// error, not a per-request condition.
	ErrFeatureMismatch = errors.New("feature set mismatch")
)

// FieldError names the input field that caused a rejection.
type FieldError struct {
	Field  string
	Reason string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("field %q: %s", e.Field, e.Reason)
}

func (e *FieldError) Unwrap() error { return ErrMalformedInput }
