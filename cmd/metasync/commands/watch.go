package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"git.home.luguber.info/inful/metasync/internal/logfields"
	"git.home.luguber.info/inful/metasync/internal/metrics"
	"git.home.luguber.info/inful/metasync/internal/syncer"
	"git.home.luguber.info/inful/metasync/internal/watch"
)

// WatchCmd implements the 'watch' command.
type WatchCmd struct {
	Debounce        time.Duration `help:"Quiet period after the last manifest change before syncing" default:"500ms" env:"METASYNC_DEBOUNCE"`
	NoInitial       bool          `help:"Do not sync once on startup"`
	MetricsTextfile string        `help:"Rewrite Prometheus metrics to this file after every pass" env:"METASYNC_METRICS_TEXTFILE"`
}

// Run executes the watch command until interrupted.
func (w *WatchCmd) Run(g *Global, root *CLI) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	syncFn := w.syncFunc(g, root)
	if !w.NoInitial {
		if err := syncFn(ctx); err != nil {
			g.Logger.Error("Initial sync failed", logfields.Error(err))
		}
	}
	watcher, err := watch.New(root.ManifestPath(), syncFn,
		watch.WithDebounce(w.Debounce),
		watch.WithLogger(g.Logger))
	if err != nil {
		return err
	}
	return watcher.Run(ctx)
}

// syncFunc reloads the manifest on every pass so each run sees a fresh snapshot.
func (w *WatchCmd) syncFunc(g *Global, root *CLI) watch.SyncFunc {
	var recorder metrics.Recorder = metrics.NoopRecorder{}
	var promRecorder *metrics.PrometheusRecorder
	if w.MetricsTextfile != "" {
		promRecorder = metrics.NewPrometheusRecorder(nil)
		recorder = promRecorder
	}
	return func(context.Context) error {
		pctx, err := root.LoadContext(g, false)
		if err != nil {
			return err
		}
		processed, syncErr := syncer.New(pctx,
			syncer.WithLogger(g.Logger),
			syncer.WithRecorder(recorder)).Sync()
		printProcessed(g, pctx, processed)
		if promRecorder != nil {
			if err := promRecorder.WriteTextfile(w.MetricsTextfile); err != nil {
				g.Logger.Warn("Failed to write metrics textfile", logfields.Error(err))
			}
		}
		return syncErr
	}
}
