package commands

import (
	stderrors "errors"
	"fmt"

	"git.home.luguber.info/inful/metasync/internal/foundation/errors"
	"git.home.luguber.info/inful/metasync/internal/preview"
	"git.home.luguber.info/inful/metasync/internal/syncer"
	"git.home.luguber.info/inful/metasync/internal/verify"
)

// CheckCmd implements the 'check' command. It never writes.
type CheckCmd struct {
	Quiet bool `short:"q" help:"Do not print diffs"`
}

// Run executes the check command.
func (c *CheckCmd) Run(g *Global, root *CLI) error {
	pctx, err := root.LoadContext(g, true)
	if err != nil {
		return err
	}

	collector := preview.NewCollector(pctx.Root())
	engine := syncer.New(pctx,
		syncer.WithLogger(g.Logger),
		syncer.WithObserver(collector.Observe))
	if _, err := engine.Sync(); err != nil {
		return err
	}

	var invalid []error
	for _, change := range collector.Changes() {
		if err := verify.Target(change.Target, change.After); err != nil {
			invalid = append(invalid, err)
		}
	}
	if len(invalid) > 0 {
		return stderrors.Join(invalid...)
	}

	drifted := collector.Drifted()
	if len(drifted) == 0 {
		fmt.Fprintln(g.Stdout, "all targets in sync")
		return nil
	}

	if !c.Quiet {
		if err := collector.WriteDiffs(g.Stdout); err != nil {
			return errors.WrapError(err, errors.CategoryInternal, "failed to render diff").Build()
		}
	}
	keys := make([]string, 0, len(drifted))
	for _, change := range drifted {
		keys = append(keys, change.Target)
		fmt.Fprintf(g.Stdout, "out of sync: %s (%s)\n", change.Target, relPath(pctx.Root(), change.Path))
	}
	return errors.NewError(errors.CategoryDrift, "targets are out of sync").
		WithContext("targets", keys).
		Build()
}
