package main

import (
	"fmt"
	"os"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/metasync/cmd/metasync/commands"
	"git.home.luguber.info/inful/metasync/internal/foundation/errors"
	"git.home.luguber.info/inful/metasync/internal/version"
)

func main() {
	if err := commands.LoadEnv(os.Getenv("METASYNC_ENV_FILE")); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(errors.ExitConfig)
	}

	cli := &commands.CLI{}
	parser := kong.Must(cli,
		kong.Name("metasync"),
		kong.Description("Keep project metadata files in sync with pyproject.toml"),
		kong.UsageOnError(),
		kong.Vars{"version": version.String()},
	)

	kctx, err := parser.Parse(os.Args[1:])
	if errors.IsClassified(err) {
		errors.NewCLIErrorAdapter(cli.Verbose, cli.Logger()).HandleError(err)
	}
	parser.FatalIfErrorf(err)

	err = kctx.Run(&commands.Global{Logger: cli.Logger(), Stdout: os.Stdout})
	errors.NewCLIErrorAdapter(cli.Verbose, cli.Logger()).HandleError(err)
}
