package commands

import (
	"fmt"

	"git.home.luguber.info/inful/metasync/internal/foundation/errors"
	"git.home.luguber.info/inful/metasync/internal/storage"
)

// RestoreCmd implements the 'restore' command.
type RestoreCmd struct {
	Run    string `help:"Backup run to restore (default: latest)"`
	List   bool   `short:"l" help:"List backup runs instead of restoring"`
	DryRun bool   `short:"n" help:"Show what would be restored without writing"`
}

// Run executes the restore command. It does not read the manifest, so a
// broken manifest can still be rolled back.
func (r *RestoreCmd) Run(g *Global, root *CLI) error {
	store, err := root.OpenStore()
	if err != nil {
		return err
	}
	if r.List {
		return listRuns(g, store)
	}

	runID := r.Run
	if runID == "" {
		latest, err := store.Latest()
		if err != nil {
			return notFound(err)
		}
		runID = latest.ID
	}

	entries, err := store.Restore(runID, r.DryRun)
	if err != nil {
		return notFound(err)
	}
	verb := "restored"
	if r.DryRun {
		verb = "would restore"
	}
	for _, e := range entries {
		fmt.Fprintf(g.Stdout, "%s %s\n", verb, e.Path)
	}
	g.Logger.Info("Restore complete", "run_id", runID, "files", len(entries), "dry_run", r.DryRun)
	return nil
}

func listRuns(g *Global, store *storage.FSStore) error {
	ids, err := store.Runs()
	if err != nil {
		return err
	}
	for _, id := range ids {
		run, err := store.Run(id)
		if err != nil {
			return err
		}
		fmt.Fprintf(g.Stdout, "%s\t%d files\n", run.ID, len(run.Entries))
	}
	return nil
}

func notFound(err error) error {
	if storage.IsNotFound(err) {
		return errors.WrapError(err, errors.CategoryNotFound, "no such backup run").Build()
	}
	return err
}
