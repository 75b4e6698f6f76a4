package main

import (
	"log"
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:  "schemtool",
		Usage: "inspects and converts Sponge schematic files",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "no-color", Usage: "disable colored output"},
			&cli.Int64Flag{Name: "max-size", Value: defaultMaxSize, Usage: "largest decompressed size to accept, in bytes"},
		},
		Before: func(c *cli.Context) error {
			color.NoColor = c.Bool("no-color") || !isTerminal(os.Stdout)
			return nil
		},
		Commands: []*cli.Command{
			infoCommand,
			convertCommand,
			dumpCommand,
		},
	}

	err := app.Run(os.Args)
	if err != nil {
		log.Fatal(err)
	}
}

func isTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
