package main

import (
	"context"
	"log"
	"os"

	"github.com/mordilloSan/go-xtlog/cmd"
	"github.com/urfave/cli/v3"
)

func main() {
	app := &cli.Command{
		Name:  "go-xtlog",
		Usage: "Exercise and inspect the go-xtlog logger",
		Flags: cmd.GlobalFlags(),
		// .env files are loaded before any command resolves its configuration.
		Before: cmd.LoadEnv,
		Commands: []*cli.Command{
			cmd.DemoCommand(),
			cmd.ConfigCommand(),
			cmd.FormatsCommand(),
			cmd.StressCommand(),
		},
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}
