package syncer

import (
	stderrors "errors"
	"log/slog"
	"os"
	"time"

	"git.home.luguber.info/inful/metasync/internal/foundation/errors"
	"git.home.luguber.info/inful/metasync/internal/logfields"
	"git.home.luguber.info/inful/metasync/internal/metrics"
	"git.home.luguber.info/inful/metasync/internal/util/sets"
)

// Engine synchronizes the registered targets with a Context snapshot.
type Engine struct {
	ctx      Context
	log      Logger
	recorder metrics.Recorder
	observer func(Change)
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the diagnostic sink. The default discards everything.
func WithLogger(l Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.log = l
		}
	}
}

// WithRecorder sets the metrics recorder.
func WithRecorder(r metrics.Recorder) Option {
	return func(e *Engine) {
		if r != nil {
			e.recorder = r
		}
	}
}

// WithObserver registers a callback invoked after every target is computed,
// whether or not it was written.
func WithObserver(fn func(Change)) Option {
	return func(e *Engine) { e.observer = fn }
}

// New creates an engine for one run over ctx.
func New(ctx Context, opts ...Option) *Engine {
	e := &Engine{
		ctx:      ctx,
		log:      slog.New(slog.DiscardHandler),
		recorder: metrics.NoopRecorder{},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Has reports whether a target is registered and its file exists.
func (e *Engine) Has(key string) bool {
	if !e.ctx.HasTarget(key) {
		return false
	}
	path := e.ctx.PathSource(key)
	if path == "" {
		return false
	}
	_, err := os.Stat(path)
	return err == nil
}

// Fix runs the synchronizer for a single target key.
func (e *Engine) Fix(key string) ([]string, error) {
	fix, ok := e.fixers()[key]
	if !ok {
		return nil, errors.ValidationError("unknown target").
			WithContext("target", key).
			WithContext("valid", Targets()).
			Build()
	}
	return fix()
}

func (e *Engine) fixers() map[string]func() ([]string, error) {
	return map[string]func() ([]string, error){
		TargetInit:     e.FixInit,
		TargetRecipe:   e.FixRecipe,
		TargetCodemeta: e.FixCodemeta,
		TargetCitation: e.FixCitation,
	}
}

// Sync runs every available target in a fixed order and returns the keys that were
// processed. A failing target does not stop the others; all failures are joined
// into the returned error.
func (e *Engine) Sync() (sets.Set[string], error) {
	start := time.Now()
	processed := sets.New[string]()
	fixers := e.fixers()
	var errs []error

	for _, key := range Targets() {
		if !e.Has(key) {
			e.log.Debug("Target not available, skipping", logfields.Target(key))
			e.recorder.IncTargetResult(key, metrics.ResultSkipped)
			continue
		}
		targetStart := time.Now()
		lines, err := fixers[key]()
		elapsed := time.Since(targetStart)
		e.recorder.ObserveTargetDuration(key, elapsed)
		if err != nil {
			e.log.Error("Target sync failed", logfields.Target(key), logfields.Error(err))
			e.recorder.IncTargetResult(key, metrics.ResultFailed)
			errs = append(errs, withTarget(err, key))
			continue
		}
		e.recorder.IncTargetResult(key, metrics.ResultSuccess)
		processed.Add(key)
		e.log.Info("Synced target",
			logfields.Target(key),
			logfields.Path(e.ctx.PathSource(key)),
			logfields.Lines(len(lines)),
			logfields.DryRun(e.ctx.DryRun()),
			logfields.DurationMS(float64(elapsed.Microseconds())/1000))
	}

	e.recorder.ObserveSyncDuration(time.Since(start))
	return processed, stderrors.Join(errs...)
}

// withTarget attaches the target key to err, keeping its classification.
func withTarget(err error, key string) error {
	if classified, ok := errors.AsClassified(err); ok {
		return classified.WithContext("target", key)
	}
	return errors.WrapError(err, errors.CategorySync, "target sync failed").
		WithContext("target", key).
		Build()
}
