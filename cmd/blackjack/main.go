package main

import (
	"github.com/alecthomas/kong"
)

// version is set by ldflags during build
var version = "dev"

type CLI struct {
	Version kong.VersionFlag `short:"v" help:"Show version"`
	Serve   ServeCmd         `cmd:"" help:"Run the WebSocket table server"`
	Play    PlayCmd          `cmd:"" help:"Play at the table in the terminal"`
	Stats   StatsCmd         `cmd:"" help:"Show player statistics from round history"`
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("blackjack"),
		kong.Description("Single-player blackjack table with persistent rounds"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
		kong.Vars{
			"version": version,
		},
	)
	err := ctx.Run()
	ctx.FatalIfErrorf(err)
}
