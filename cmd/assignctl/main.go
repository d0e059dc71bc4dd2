package main

import (
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/assignctl/cmd/assignctl/commands"
	"git.home.luguber.info/inful/assignctl/internal/foundation/errors"
	"git.home.luguber.info/inful/assignctl/internal/version"
)

func main() {
	var cli commands.CLI
	ctx := kong.Parse(&cli,
		kong.Name("assignctl"),
		kong.Description("Provision assignment repositories and reconcile their permissions on GitHub Enterprise."),
		kong.UsageOnError(),
		kong.Vars{"version": version.String()},
	)

	err := ctx.Run(&commands.Global{Out: os.Stdout, In: os.Stdin}, &cli)
	_ = cli.Close()
	if err != nil {
		errors.NewCLIErrorAdapter(cli.Verbose, slog.Default()).HandleError(err)
	}
}
