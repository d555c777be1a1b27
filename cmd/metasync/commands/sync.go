package commands

import (
	"fmt"

	"git.home.luguber.info/inful/metasync/internal/logfields"
	"git.home.luguber.info/inful/metasync/internal/metrics"
	"git.home.luguber.info/inful/metasync/internal/preview"
	"git.home.luguber.info/inful/metasync/internal/project"
	"git.home.luguber.info/inful/metasync/internal/syncer"
	"git.home.luguber.info/inful/metasync/internal/util/sets"
)

// SyncCmd implements the 'sync' command.
type SyncCmd struct {
	DryRun          bool   `short:"n" help:"Compute changes without writing files or backups" env:"METASYNC_DRY_RUN"`
	Diff            bool   `short:"d" help:"Print a unified diff of every changed target"`
	MetricsTextfile string `help:"Write Prometheus metrics to this file after the run" env:"METASYNC_METRICS_TEXTFILE"`
	KeepBackups     int    `help:"Prune backup runs beyond the newest N after syncing (0 keeps all)" default:"0" env:"METASYNC_KEEP_BACKUPS"`
}

// Run executes the sync command.
func (s *SyncCmd) Run(g *Global, root *CLI) error {
	pctx, err := root.LoadContext(g, s.DryRun)
	if err != nil {
		return err
	}

	collector := preview.NewCollector(pctx.Root())
	var recorder metrics.Recorder = metrics.NoopRecorder{}
	var promRecorder *metrics.PrometheusRecorder
	if s.MetricsTextfile != "" {
		promRecorder = metrics.NewPrometheusRecorder(nil)
		recorder = promRecorder
	}

	engine := syncer.New(pctx,
		syncer.WithLogger(g.Logger),
		syncer.WithRecorder(recorder),
		syncer.WithObserver(collector.Observe))
	processed, syncErr := engine.Sync()

	if s.Diff {
		if err := collector.WriteDiffs(g.Stdout); err != nil {
			g.Logger.Warn("Failed to render diff", logfields.Error(err))
		}
	}
	printProcessed(g, pctx, processed)

	if promRecorder != nil {
		if err := promRecorder.WriteTextfile(s.MetricsTextfile); err != nil {
			g.Logger.Warn("Failed to write metrics textfile",
				logfields.Path(s.MetricsTextfile), logfields.Error(err))
		}
	}

	if !s.DryRun && s.KeepBackups > 0 {
		removed, err := pctx.Store().Prune(s.KeepBackups)
		if err != nil {
			g.Logger.Warn("Failed to prune backups", logfields.Error(err))
		} else if removed > 0 {
			g.Logger.Info("Pruned backup runs", "removed", removed, "kept", s.KeepBackups)
		}
	}

	return syncErr
}

// printProcessed lists processed targets in sync order.
func printProcessed(g *Global, pctx *project.Context, processed sets.Set[string]) {
	verb := "synced"
	if pctx.DryRun() {
		verb = "would sync"
	}
	for _, key := range syncer.Targets() {
		if !processed.Has(key) {
			continue
		}
		fmt.Fprintf(g.Stdout, "%s %s (%s)\n", verb, key, relPath(pctx.Root(), pctx.PathSource(key)))
	}
}
