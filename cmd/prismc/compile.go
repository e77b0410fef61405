package main

import (
	"fmt"
	"os"

	"github.com/prismlang/prism/internal/prism/input"
)

func cmdCompile(args []string) {
	fs := newFlagSet("compile")
	out := fs.StringP("out", "o", "", "Write the compiled bootstrap artifact to this file instead of stdout summary.")
	fs.Parse(args)

	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Usage: prismc compile [flags] GRAMMAR_FILE")
		os.Exit(1)
	}

	files := input.NewTable()
	st, err := loadGrammarSource(files, fs.Arg(0))
	if err != nil {
		fatalf("%s", err)
	}

	if *out != "" {
		if err := saveBootstrap(st, *out); err != nil {
			fatalf("%s", err)
		}
		fmt.Printf("wrote bootstrap artifact to %s\n", *out)
		return
	}

	names := st.RuleNames()
	fmt.Printf("compiled %d rule(s):\n", len(names))
	for _, name := range names {
		rs, _ := st.Rule(name)
		fmt.Printf("  %s (%d block(s))\n", rs.Name, len(rs.Blocks))
	}
}
