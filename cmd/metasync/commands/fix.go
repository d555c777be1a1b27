package commands

import (
	"fmt"
	"path/filepath"
	"strings"

	"git.home.luguber.info/inful/metasync/internal/foundation/errors"
	"git.home.luguber.info/inful/metasync/internal/preview"
	"git.home.luguber.info/inful/metasync/internal/syncer"
)

// FixCmd implements the 'fix' command.
type FixCmd struct {
	Target string `arg:"" help:"Target to sync (init, recipe, codemeta, citation)" enum:"init,recipe,codemeta,citation"`
	File   string `help:"Operate on this file instead of the configured path (init and recipe only)"`
	DryRun bool   `short:"n" help:"Compute changes without writing files or backups" env:"METASYNC_DRY_RUN"`
	Diff   bool   `short:"d" help:"Print a unified diff of the change"`
	Print  bool   `short:"p" help:"Print the resulting file content"`
}

// Run executes the fix command.
func (f *FixCmd) Run(g *Global, root *CLI) error {
	pctx, err := root.LoadContext(g, f.DryRun)
	if err != nil {
		return err
	}

	collector := preview.NewCollector(pctx.Root())
	engine := syncer.New(pctx,
		syncer.WithLogger(g.Logger),
		syncer.WithObserver(collector.Observe))

	var lines []string
	switch {
	case f.File != "":
		lines, err = f.fixFile(engine)
	case !engine.Has(f.Target):
		g.Logger.Info("Target not available", "target", f.Target, "path", pctx.PathSource(f.Target))
		fmt.Fprintf(g.Stdout, "skipped %s (not available)\n", f.Target)
		return nil
	default:
		lines, err = engine.Fix(f.Target)
	}
	if err != nil {
		return err
	}

	if f.Diff {
		if err := collector.WriteDiffs(g.Stdout); err != nil {
			return errors.WrapError(err, errors.CategoryInternal, "failed to render diff").Build()
		}
	}
	if f.Print {
		fmt.Fprintln(g.Stdout, strings.Join(lines, "\n"))
	}
	return nil
}

func (f *FixCmd) fixFile(engine *syncer.Engine) ([]string, error) {
	path, err := filepath.Abs(f.File)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryFileSystem, "invalid file path").
			WithContext("path", f.File).
			Build()
	}
	switch f.Target {
	case syncer.TargetInit:
		return engine.FixInitFile(path)
	case syncer.TargetRecipe:
		return engine.FixRecipeFile(path)
	default:
		return nil, errors.ValidationError("--file is only supported for init and recipe").
			WithContext("target", f.Target).
			Build()
	}
}
