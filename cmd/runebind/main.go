// Command runebind binds a JSON-encoded program graph and reports
// diagnostics, the same "read input, run the one pass, print errors"
// shape as funvibe-funxy/cmd/funxy's `-c`/`test` subcommands, trimmed to
// this tool's single job: the binder never lexes, parses, or executes.
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/mattn/go-isatty"

	"github.com/runebind/runebind/internal/binder"
	"github.com/runebind/runebind/internal/diagnostics"
	"github.com/runebind/runebind/internal/wire"
	"github.com/runebind/runebind/pkg/ext"
)

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: %s [-config runebind.yaml] <program.json>\n", os.Args[0])
}

func main() {
	args := os.Args[1:]
	var configPath, inputPath string

	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "-config", "--config":
			if i+1 >= len(args) {
				usage()
				os.Exit(1)
			}
			i++
			configPath = args[i]
		default:
			if strings.HasPrefix(args[i], "-") {
				continue
			}
			inputPath = args[i]
		}
	}

	if inputPath == "" {
		usage()
		os.Exit(1)
	}

	if configPath != "" {
		opts, err := ext.Load(configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading %s: %s\n", configPath, err)
			os.Exit(1)
		}
		opts.Apply()
	}

	data, err := os.ReadFile(inputPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading %s: %s\n", inputPath, err)
		os.Exit(1)
	}

	wp, err := wire.Decode(data)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}

	prog := wire.Build(wp)
	b := binder.New(prog)
	bag := b.Bind()

	if bag.HasErrors() {
		printDiagnostics(bag)
		os.Exit(1)
	}
}

func printDiagnostics(bag *diagnostics.Bag) {
	color := isatty.IsTerminal(os.Stderr.Fd()) && !isatty.IsCygwinTerminal(os.Stderr.Fd())
	for _, e := range bag.Errors() {
		if color {
			fmt.Fprintf(os.Stderr, "\x1b[31m%d:%d\x1b[0m %s: %s\n", e.Token.Line, e.Token.Column, e.Code, e.Message)
		} else {
			fmt.Fprintf(os.Stderr, "%d:%d %s: %s\n", e.Token.Line, e.Token.Column, e.Code, e.Message)
		}
	}
}
