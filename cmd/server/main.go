package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/urfave/cli/v2"
)

var (
	Name      = "pasur-server"
	Version   = "unknown"
	GitCommit = "unknown"
)

func main() {
	cli.VersionPrinter = func(c *cli.Context) {
		fmt.Printf("%s %s (commit %s, %s %s/%s)\n", Name, Version, GitCommit, runtime.Version(), runtime.GOOS, runtime.GOARCH)
	}
	app := &cli.App{
		Name:    Name,
		Usage:   "Pasur match server",
		Version: Version,
		Action:  serve,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "run the HTTP and websocket server (default)",
				Action: serve,
			},
			{
				Name:  "migrate",
				Usage: "apply pending database migrations and exit",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "db", Usage: "sqlite database path", EnvVars: []string{"DATABASE_PATH"}, Required: true},
				},
				Action: migrate,
			},
			{
				Name:  "simulate",
				Usage: "play one hand between bots and print the final state",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "players", Value: 2, Usage: "number of bots (2-4)"},
					&cli.StringFlag{Name: "difficulty", Value: "medium", Usage: "easy|medium"},
					&cli.BoolFlag{Name: "verbose", Usage: "log every move to stderr"},
				},
				Action: simulate,
			},
		},
	}
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
