package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/alexflint/go-arg"
	"github.com/yiblet/drawer/internal/cli"
)

func main() {
	var args cli.Args
	parser := arg.MustParse(&args)

	// Default behavior: list the clipboard history
	if parser.Subcommand() == nil {
		args.List = &cli.ListCmd{}
	}

	cliHandler, err := cli.New(&args, cli.Options{})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	slog.SetDefault(cliHandler.Logger())

	if err := cliHandler.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)

		// If it's an argument validation error, show usage
		if args.Validate() != nil {
			fmt.Fprintln(os.Stderr)
			parser.WriteUsage(os.Stderr)
		}
		os.Exit(1)
	}
}
