package artifact

import "errors"

// Sentinel kinds for artifact errors.
var (
	ErrNotFound   = errors.New("artifact not found")
	ErrCorrupt    = errors.New("artifact corrupt")
	ErrIncomplete = errors.New("artifact incomplete")
	ErrMismatch   = errors.New("artifact feature set mismatch")
)
