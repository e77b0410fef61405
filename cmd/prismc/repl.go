package main

import (
	"fmt"
	"io"
	"os"

	"github.com/chzyer/readline"

	"github.com/prismlang/prism/internal/prism/engine"
	"github.com/prismlang/prism/internal/prism/input"
)

func cmdRepl(args []string) {
	fs := newFlagSet("repl")
	grammarPath := fs.StringP("grammar", "g", "", "Grammar source file to compile before running.")
	bootstrapPath := fs.StringP("bootstrap", "b", "", "Pre-compiled bootstrap artifact to load instead of compiling source.")
	rule := fs.StringP("rule", "r", "", "Start rule to parse each line against.")
	fs.Parse(args)

	if *rule == "" {
		fatalf("--rule is required")
	}

	st, err := loadGrammar(input.NewTable(), *grammarPath, *bootstrapPath)
	if err != nil {
		fatalf("%s", err)
	}

	rl, err := readline.NewEx(&readline.Config{Prompt: "prism> "})
	if err != nil {
		fatalf("could not start readline: %s", err)
	}
	defer rl.Close()

	registry := engine.NewRegistry()

	fmt.Println("Prism interactive session. Type input to parse it against rule", *rule+"; Ctrl-D to exit.")
	for {
		line, err := rl.Readline()
		if err != nil {
			if err == io.EOF || err == readline.ErrInterrupt {
				return
			}
			fmt.Fprintf(os.Stderr, "ERROR: %s\n", err)
			return
		}
		if line == "" {
			continue
		}

		files := input.NewTable()
		id := files.Load("<repl>", line)
		result := engine.RunParserRule(files, id, st, *rule, registry)
		printResult(files, result)
	}
}
