/*
Prismc is the command-line front end to the Prism parsing engine. It
compiles grammar source into an adaptive grammar state, runs a single
parse of a rule against an input file, or starts an interactive REPL
that re-parses each line typed against a chosen rule.

Usage:

	prismc compile [flags] GRAMMAR_FILE
	prismc run [flags] INPUT_FILE
	prismc repl [flags]

The compile subcommand flags are:

	-o, --out FILE
		Write the compiled bootstrap artifact to FILE instead of stdout.

The run subcommand flags are:

	-g, --grammar FILE
		Grammar source file to compile before running (mutually
		exclusive with --bootstrap).

	-b, --bootstrap FILE
		Pre-compiled bootstrap artifact produced by "prismc compile -o".

	-r, --rule NAME
		Start rule to parse the input against. Required.

The repl subcommand flags are the same as run's --grammar/--bootstrap/
--rule, except each line read interactively is parsed as a fresh
top-level input rather than a file.
*/
package main

import (
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"github.com/prismlang/prism/internal/version"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "-v", "--version":
		fmt.Printf("%s\n", version.Current)
		return
	case "compile":
		cmdCompile(os.Args[2:])
	case "run":
		cmdRun(os.Args[2:])
	case "repl":
		cmdRepl(os.Args[2:])
	case "-h", "--help", "help":
		usage()
	default:
		fmt.Fprintf(os.Stderr, "unknown subcommand %q\nDo prismc -h for help.\n", os.Args[1])
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "Usage: prismc {compile|run|repl} [flags]")
	fmt.Fprintln(os.Stderr, "Do 'prismc COMMAND -h' for flags of a specific subcommand.")
}

func fatalf(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "ERROR: "+format+"\n", args...)
	os.Exit(1)
}

func newFlagSet(name string) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ExitOnError)
	return fs
}
