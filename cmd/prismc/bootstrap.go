package main

import (
	"fmt"
	"os"

	"github.com/dekarrin/rezi"

	"github.com/prismlang/prism/internal/prism/adaptive"
	"github.com/prismlang/prism/internal/prism/grammarval"
)

// stateToFile flattens an adaptive.State back into a grammarval.File,
// mirroring internal/prism/psvc's unexported helper of the same shape.
func stateToFile(st *adaptive.State) grammarval.File {
	var f grammarval.File
	for _, name := range st.RuleNames() {
		rs, ok := st.Rule(name)
		if !ok {
			continue
		}
		rule := grammarval.Rule{
			Name:       rs.Name,
			Params:     rs.Params,
			ReturnType: rs.ReturnType,
		}
		for _, b := range rs.Blocks {
			rule.Blocks = append(rule.Blocks, grammarval.Block{
				Name:    b.Name,
				Choices: b.Choices,
			})
		}
		f.Rules = append(f.Rules, rule)
	}
	return f
}

// saveBootstrap writes st's flattened grammarval.File to path as a rezi
// binary artifact, the same encoding internal/prism/store persists in
// GrammarRecord.Artifact.
func saveBootstrap(st *adaptive.State, path string) error {
	file := stateToFile(st)
	data := rezi.EncBinary(file)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("could not write bootstrap artifact: %w", err)
	}
	return nil
}

// loadBootstrap reads a rezi binary artifact back into a fresh
// adaptive.State.
func loadBootstrap(path string) (*adaptive.State, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not read bootstrap artifact: %w", err)
	}

	var file grammarval.File
	if _, err := rezi.DecBinary(data, &file); err != nil {
		return nil, fmt.Errorf("could not decode bootstrap artifact: %w", err)
	}

	st := adaptive.NewState()
	st, err = st.Update(file)
	if err != nil {
		return nil, fmt.Errorf("could not build grammar state: %w", err)
	}
	return st, nil
}
