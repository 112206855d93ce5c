package artifact

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/risklab/pulse/pkg/logger"
	"github.com/risklab/pulse/pkg/metrics"
)

// debounce absorbs the write+rename event pairs an atomic save produces.
const debounce = 200 * time.Millisecond

// Watch reloads the bundle into the swapper whenever the artifact file is
// replaced on disk. It watches the parent directory because atomic saves
// rename a temp file over the target. Blocks until ctx is done.
func Watch(ctx context.Context, store *Store, swapper *Swapper, log logger.Logger) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("artifact watch: %w", err)
	}
	defer func() {
		_ = w.Close()
	}()

	dir := filepath.Dir(store.Path())
	if err := w.Add(dir); err != nil {
		return fmt.Errorf("artifact watch %s: %w", dir, err)
	}

	target := filepath.Clean(store.Path())
	var timer *time.Timer
	reload := make(chan struct{}, 1)

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != target {
				continue
			}
			if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Rename) {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(debounce, func() {
				select {
				case reload <- struct{}{}:
				default:
				}
			})
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			log.Warn(ctx, "artifact watcher error", logger.Error(err))
		case <-reload:
			b, err := store.Load(ctx)
			if err != nil {
				metrics.RecordArtifactLoadError()
				log.Error(ctx, "artifact reload failed; keeping current model", logger.Error(err))
				continue
			}
			old := swapper.Swap(b)
			metrics.RecordArtifactReload()
			fields := []logger.Field{logger.String("version", b.Version)}
			if old != nil {
				fields = append(fields, logger.String("replaced", old.Version))
			}
			log.Info(ctx, "model artifact reloaded", fields...)
		}
	}
}
