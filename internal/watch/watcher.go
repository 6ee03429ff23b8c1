// Package watch invalidates the auto-include cache when the files it was
// built from change on disk.
package watch

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// DefaultDebounce batches bursts of saves into one invalidation
const DefaultDebounce = 500 * time.Millisecond

// ErrStopped is returned by Start on a watcher that has been stopped
var ErrStopped = errors.New("watcher already stopped")

// IncludesWatcher watches include directories and the context configuration
// file, calling invalidate after changes settle.
type IncludesWatcher struct {
	mu          sync.Mutex
	watcher     *fsnotify.Watcher
	dirs        []string
	files       map[string]bool
	invalidate  func()
	debounce    time.Duration
	logger      *zap.Logger
	pending     bool
	lastEvent   time.Time
	stopCh      chan struct{}
	doneCh      chan struct{}
	running     bool
	stopped     bool
	invalidated atomic.Int64
}

// Option configures an IncludesWatcher
type Option func(*IncludesWatcher)

// WithDebounce sets how long the tree must be quiet before invalidating
func WithDebounce(d time.Duration) Option {
	return func(w *IncludesWatcher) { w.debounce = d }
}

// WithFiles adds individual files to watch, such as the context
// configuration file. Their parent directories are watched and events for
// other entries in them are ignored.
func WithFiles(paths ...string) Option {
	return func(w *IncludesWatcher) {
		for _, p := range paths {
			w.files[filepath.Clean(p)] = true
		}
	}
}

// NewIncludesWatcher creates a watcher for dirs
func NewIncludesWatcher(dirs []string, invalidate func(), logger *zap.Logger, opts ...Option) (*IncludesWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	w := &IncludesWatcher{
		watcher:    watcher,
		invalidate: invalidate,
		files:      make(map[string]bool),
		debounce:   DefaultDebounce,
		logger:     logger,
		stopCh:     make(chan struct{}),
		doneCh:     make(chan struct{}),
	}
	for _, d := range dirs {
		if d != "" {
			w.dirs = append(w.dirs, filepath.Clean(d))
		}
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Start begins watching. It does not block. A watcher is single-use: Start
// after Stop returns ErrStopped.
func (w *IncludesWatcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		return ErrStopped
	}
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.mu.Unlock()

	// parents of the roots are watched too, so a root that is missing or
	// deleted and re-created is picked up again when it appears
	parents := make(map[string]bool)
	for _, d := range w.dirs {
		w.addTree(d)
		parents[filepath.Dir(d)] = true
	}
	for f := range w.files {
		parents[filepath.Dir(f)] = true
	}
	for p := range parents {
		if err := w.watcher.Add(p); err != nil {
			w.logger.Warn("Cannot watch parent directory", zap.String("dir", p), zap.Error(err))
		}
	}

	go w.run(ctx)
	return nil
}

// Stop stops the watcher and waits for the event loop to exit
func (w *IncludesWatcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	w.stopped = true
	w.mu.Unlock()

	close(w.stopCh)
	<-w.doneCh

	if err := w.watcher.Close(); err != nil {
		w.logger.Error("Error closing watcher", zap.Error(err))
	}
	w.logger.Debug("Includes watcher stopped")
}

// Invalidations returns how many times invalidate has been called
func (w *IncludesWatcher) Invalidations() int64 {
	return w.invalidated.Load()
}

// addTree watches root and every directory below it
func (w *IncludesWatcher) addTree(root string) {
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if err := w.watcher.Add(p); err != nil {
			w.logger.Warn("Cannot watch directory", zap.String("dir", p), zap.Error(err))
		}
		return nil
	})
	if err != nil {
		w.logger.Warn("Includes directory not watched", zap.String("dir", root), zap.Error(err))
		return
	}
	w.logger.Debug("Watching includes", zap.String("dir", root))
}

func (w *IncludesWatcher) run(ctx context.Context) {
	defer close(w.doneCh)

	ticker := time.NewTicker(w.tick())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case <-w.stopCh:
			return

		case event, open := <-w.watcher.Events:
			if !open {
				return
			}
			w.handleEvent(event)

		case err, open := <-w.watcher.Errors:
			if !open {
				return
			}
			w.logger.Error("Watcher error", zap.Error(err))

		case <-ticker.C:
			w.flush()
		}
	}
}

func (w *IncludesWatcher) tick() time.Duration {
	t := w.debounce / 5
	if t < 10*time.Millisecond {
		t = 10 * time.Millisecond
	}
	return t
}

func (w *IncludesWatcher) handleEvent(event fsnotify.Event) {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) &&
		!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return
	}

	name := filepath.Clean(event.Name)
	if !w.relevant(name) {
		return
	}

	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(name); err == nil && info.IsDir() {
			w.addTree(name)
		}
	}

	w.logger.Debug("Include change detected", zap.String("path", name), zap.String("op", event.Op.String()))

	w.mu.Lock()
	w.pending = true
	w.lastEvent = time.Now()
	w.mu.Unlock()
}

func (w *IncludesWatcher) relevant(name string) bool {
	if w.files[name] {
		return true
	}
	for _, d := range w.dirs {
		if name == d {
			return true
		}
		if rel, err := filepath.Rel(d, name); err == nil && filepath.IsLocal(rel) {
			return true
		}
	}
	return false
}

func (w *IncludesWatcher) flush() {
	w.mu.Lock()
	if !w.pending || time.Since(w.lastEvent) < w.debounce {
		w.mu.Unlock()
		return
	}
	w.pending = false
	w.mu.Unlock()

	w.invalidate()
	w.invalidated.Add(1)
	w.logger.Info("Auto-include cache invalidated after file changes")
}
