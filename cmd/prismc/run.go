package main

import (
	"fmt"
	"os"

	"github.com/prismlang/prism/internal/prism/engine"
	"github.com/prismlang/prism/internal/prism/input"
)

func cmdRun(args []string) {
	fs := newFlagSet("run")
	grammarPath := fs.StringP("grammar", "g", "", "Grammar source file to compile before running.")
	bootstrapPath := fs.StringP("bootstrap", "b", "", "Pre-compiled bootstrap artifact to load instead of compiling source.")
	rule := fs.StringP("rule", "r", "", "Start rule to parse the input against.")
	fs.Parse(args)

	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Usage: prismc run [flags] INPUT_FILE")
		os.Exit(1)
	}
	if *rule == "" {
		fatalf("--rule is required")
	}

	files := input.NewTable()
	st, err := loadGrammar(files, *grammarPath, *bootstrapPath)
	if err != nil {
		fatalf("%s", err)
	}

	contents, err := os.ReadFile(fs.Arg(0))
	if err != nil {
		fatalf("could not read input file: %s", err)
	}
	id := files.Load(fs.Arg(0), string(contents))

	registry := engine.NewRegistry()
	result := engine.RunParserRule(files, id, st, *rule, registry)
	printResult(files, result)
	if !result.OK {
		os.Exit(1)
	}
}

func printResult(files *input.Table, result engine.Result) {
	if result.OK {
		fmt.Printf("OK: %s.%s = %v\n", result.Value.Namespace, result.Value.Tag, result.Value.Value)
	} else {
		fmt.Println("FAILED")
	}
	for _, d := range result.Diagnostics {
		line, col, fullLine := files.LineCol(d.Span.Start)
		status := "error"
		if d.Recovered {
			status = "recovered"
		}
		fmt.Printf("  [%s] line %d, col %d: %s\n", status, line, col, d.Err.Message())
		fmt.Printf("    %s\n", fullLine)
	}
}
