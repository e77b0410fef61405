package main

import (
	"fmt"
	"os"

	"github.com/prismlang/prism/internal/prism/adaptive"
	"github.com/prismlang/prism/internal/prism/engine"
	"github.com/prismlang/prism/internal/prism/input"
)

// loadGrammarSource compiles the grammar source file at path into a fresh
// adaptive.State, reporting any syntax errors found during compilation.
func loadGrammarSource(files *input.Table, path string) (*adaptive.State, error) {
	contents, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not read grammar file: %w", err)
	}

	id := files.Load(path, string(contents))
	gram, err := engine.ParseGrammar(files, id)
	if err != nil {
		return nil, fmt.Errorf("could not compile grammar: %w", err)
	}

	st := adaptive.NewState()
	st, err = st.Update(gram)
	if err != nil {
		return nil, fmt.Errorf("could not build grammar state: %w", err)
	}
	return st, nil
}

// loadGrammar resolves either a --grammar source path or a --bootstrap
// artifact path (exactly one must be given) into an adaptive.State.
func loadGrammar(files *input.Table, grammarPath, bootstrapPath string) (*adaptive.State, error) {
	switch {
	case grammarPath != "" && bootstrapPath != "":
		return nil, fmt.Errorf("only one of --grammar or --bootstrap may be given")
	case grammarPath != "":
		return loadGrammarSource(files, grammarPath)
	case bootstrapPath != "":
		return loadBootstrap(bootstrapPath)
	default:
		return nil, fmt.Errorf("one of --grammar or --bootstrap is required")
	}
}
