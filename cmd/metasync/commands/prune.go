package commands

import "fmt"

// PruneCmd implements the 'prune' command.
type PruneCmd struct {
	Keep int `short:"k" help:"Number of most recent backup runs to keep" default:"10"`
}

// Run executes the prune command.
func (p *PruneCmd) Run(g *Global, root *CLI) error {
	store, err := root.OpenStore()
	if err != nil {
		return err
	}
	removed, err := store.Prune(p.Keep)
	if err != nil {
		return err
	}
	fmt.Fprintf(g.Stdout, "pruned %d backup runs\n", removed)
	return nil
}
