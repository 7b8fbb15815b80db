package catalog

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watcher reloads the catalog store when its source file changes on disk.
// It watches the containing directory rather than the file itself because
// most editors replace files via rename, which drops a direct file watch.
type Watcher struct {
	store   *Store
	logger  *zap.Logger
	watcher *fsnotify.Watcher

	debounce time.Duration

	mu      sync.Mutex
	pending map[string]time.Time
	stats   WatcherStats
}

// WatcherStats tracks watcher activity for display and tests.
type WatcherStats struct {
	Events      int
	Reloads     int
	Failures    int
	LastEventAt time.Time
}

// NewWatcher creates a watcher bound to the store's source path.
func NewWatcher(store *Store, logger *zap.Logger) (*Watcher, error) {
	if store.Path() == "" {
		return nil, fmt.Errorf("catalog store has no source path to watch")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create filesystem watcher: %w", err)
	}
	return &Watcher{
		store:    store,
		logger:   logger,
		watcher:  fw,
		debounce: 300 * time.Millisecond,
		pending:  make(map[string]time.Time),
	}, nil
}

// Watch blocks until ctx is cancelled, reloading the store after each
// settled change to the catalog file. Reload failures are logged and
// counted, never fatal: the previous snapshot keeps serving.
func (w *Watcher) Watch(ctx context.Context) error {
	defer w.watcher.Close()

	dir := filepath.Dir(w.store.Path())
	if err := w.watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}
	w.logger.Info("watching catalog for changes",
		zap.String("path", w.store.Path()))

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	target := filepath.Base(w.store.Path())
	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Base(event.Name) != target {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			w.mu.Lock()
			w.pending[event.Name] = time.Now()
			w.stats.Events++
			w.stats.LastEventAt = time.Now()
			w.mu.Unlock()

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("catalog watcher error", zap.Error(err))

		case <-ticker.C:
			w.processSettled()
		}
	}
}

// Stats returns a copy of the watcher's activity counters.
func (w *Watcher) Stats() WatcherStats {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.stats
}

// processSettled reloads once per file whose events have been quiet for the
// debounce window, collapsing editor save bursts into one reload.
func (w *Watcher) processSettled() {
	w.mu.Lock()
	now := time.Now()
	settled := false
	for path, last := range w.pending {
		if now.Sub(last) >= w.debounce {
			delete(w.pending, path)
			settled = true
		}
	}
	w.mu.Unlock()

	if !settled {
		return
	}

	err := w.store.Reload()
	w.mu.Lock()
	if err != nil {
		w.stats.Failures++
	} else {
		w.stats.Reloads++
	}
	w.mu.Unlock()
}
