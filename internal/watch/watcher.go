// Package watch re-runs a sync whenever the project manifest changes.
package watch

import (
	"context"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"git.home.luguber.info/inful/metasync/internal/foundation/errors"
	"git.home.luguber.info/inful/metasync/internal/logfields"
)

// DefaultDebounce coalesces bursts of editor writes into one sync.
const DefaultDebounce = 500 * time.Millisecond

// SyncFunc runs one sync pass.
type SyncFunc func(ctx context.Context) error

// Watcher monitors the manifest and triggers debounced syncs.
type Watcher struct {
	manifestPath string
	onChange     SyncFunc
	watcher      *fsnotify.Watcher
	log          *slog.Logger
	debounce     time.Duration
	triggerChan  chan struct{}
	runMu        sync.Mutex
	runs         int
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce sets the quiet period after the last change before syncing.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) { w.debounce = d }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(w *Watcher) {
		if l != nil {
			w.log = l
		}
	}
}

// New creates a watcher for manifestPath calling onChange after changes.
func New(manifestPath string, onChange SyncFunc, opts ...Option) (*Watcher, error) {
	absPath, err := filepath.Abs(manifestPath)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryConfig, "failed to resolve manifest path").
			WithContext("path", manifestPath).
			Build()
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryInternal, "failed to create file watcher").Build()
	}
	w := &Watcher{
		manifestPath: absPath,
		onChange:     onChange,
		watcher:      fw,
		log:          slog.New(slog.DiscardHandler),
		debounce:     DefaultDebounce,
		triggerChan:  make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Run watches until ctx is canceled. The manifest's directory is watched, which
// survives editors that replace the file on save.
func (w *Watcher) Run(ctx context.Context) error {
	defer func() {
		if err := w.watcher.Close(); err != nil {
			w.log.Error("Error closing file watcher", logfields.Error(err))
		}
	}()

	dir := filepath.Dir(w.manifestPath)
	if err := w.watcher.Add(dir); err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "failed to watch manifest directory").
			WithContext("path", dir).
			Build()
	}
	w.log.Info("Watching manifest", logfields.Manifest(w.manifestPath))

	go w.debounceLoop(ctx)
	w.watchLoop(ctx)
	return nil
}

// Runs returns how many sync passes have completed.
func (w *Watcher) Runs() int {
	w.runMu.Lock()
	defer w.runMu.Unlock()
	return w.runs
}

func (w *Watcher) watchLoop(ctx context.Context) {
	manifestFile := filepath.Base(w.manifestPath)
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != manifestFile {
				continue
			}
			switch {
			case event.Has(fsnotify.Write), event.Has(fsnotify.Create), event.Has(fsnotify.Rename):
				w.log.Debug("Manifest change detected", logfields.Path(event.Name), "op", event.Op.String())
				w.trigger()
			case event.Has(fsnotify.Remove):
				w.log.Warn("Manifest removed", logfields.Path(event.Name))
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.log.Error("Manifest watcher error", logfields.Error(err))
		}
	}
}

// debounceLoop restarts the quiet-period timer on every trigger.
func (w *Watcher) debounceLoop(ctx context.Context) {
	var timer *time.Timer
	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return
		case <-w.triggerChan:
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(w.debounce, func() { w.runSync(ctx) })
		}
	}
}

// trigger requests a sync without blocking; a pending request absorbs new ones.
func (w *Watcher) trigger() {
	select {
	case w.triggerChan <- struct{}{}:
	default:
	}
}

// runSync serializes sync passes.
func (w *Watcher) runSync(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	w.runMu.Lock()
	defer w.runMu.Unlock()

	start := time.Now()
	if err := w.onChange(ctx); err != nil {
		w.log.Error("Sync after manifest change failed", logfields.Error(err))
	} else {
		w.log.Info("Synced after manifest change", logfields.DurationMS(float64(time.Since(start).Milliseconds())))
	}
	w.runs++
}
