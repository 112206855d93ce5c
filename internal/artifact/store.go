package artifact

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"
)

// Store persists bundles as zstd-compressed JSON. Save is atomic: the
// bundle is written to a temp file in the same directory, synced, then
// renamed over the target, so a reader never observes partial state.
type Store struct {
	path string
}

// Option applies a configuration option to the Store.
type Option func(*Store)

// NewStore creates a store persisting to path.
func NewStore(path string, opts ...Option) *Store {
	s := &Store{path: path}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Path returns the bundle location.
func (s *Store) Path() string { return s.path }

// Save validates and persists the bundle atomically.
func (s *Store) Save(ctx context.Context, b *Bundle) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("save artifact: %w", err)
	}
	if err := b.Validate(); err != nil {
		return fmt.Errorf("save artifact: %w", err)
	}
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("save artifact: %w", err)
		}
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("save artifact: %w", err)
	}
	defer func() {
		_ = os.Remove(tmp.Name())
	}()

	zw, err := zstd.NewWriter(tmp)
	if err != nil {
		_ = tmp.Close()
		return fmt.Errorf("save artifact: %w", err)
	}
	if err := json.NewEncoder(zw).Encode(b); err != nil {
		_ = zw.Close()
		_ = tmp.Close()
		return fmt.Errorf("save artifact: encode: %w", err)
	}
	if err := zw.Close(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("save artifact: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("save artifact: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("save artifact: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("save artifact: %w", err)
	}
	return nil
}

// Load reads and validates the whole bundle. A bundle that decodes but
// fails validation is reported as corrupt or mismatched, never returned.
func (s *Store) Load(ctx context.Context) (*Bundle, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("load artifact: %w", err)
	}
	f, err := os.Open(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("load artifact %s: %w", s.path, ErrNotFound)
		}
		return nil, fmt.Errorf("load artifact: %w", err)
	}
	defer func() {
		_ = f.Close()
	}()

	zr, err := zstd.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("load artifact: %w: %v", ErrCorrupt, err)
	}
	defer zr.Close()

	var b Bundle
	if err := json.NewDecoder(zr).Decode(&b); err != nil {
		return nil, fmt.Errorf("load artifact: %w: %v", ErrCorrupt, err)
	}
	if err := b.Validate(); err != nil {
		return nil, fmt.Errorf("load artifact: %w", err)
	}
	return &b, nil
}
