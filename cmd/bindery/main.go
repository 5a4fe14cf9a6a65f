package main

import (
	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/bindery/cmd/bindery/commands"
	"git.home.luguber.info/inful/bindery/internal/version"
)

func main() {
	cli := &commands.CLI{}
	ctx := kong.Parse(cli,
		kong.Name("bindery"),
		kong.Description("Builds, previews, and packages an EPUB from a tree of source assets."),
		kong.UsageOnError(),
		kong.Vars{"version": version.Version},
	)
	ctx.FatalIfErrorf(ctx.Run(&commands.Global{}))
}
