package psvc

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/google/uuid"

	"github.com/prismlang/prism/internal/prism/engine"
	"github.com/prismlang/prism/internal/prism/input"
	"github.com/prismlang/prism/internal/prism/server/serr"
	"github.com/prismlang/prism/internal/prism/store"
)

// RunParse decodes the stored grammar's adaptive state, runs rule against
// inputText via internal/prism/engine.RunParserRule under the built-in
// registry, persists a ParseRecord (result marshaled as JSON via
// encoding/json over the Parsed value's opaque payload), and returns it.
func (svc Service) RunParse(ctx context.Context, owner, grammarID uuid.UUID, rule, inputText string) (store.ParseRecord, error) {
	grammarRec, err := svc.GetGrammar(ctx, grammarID)
	if err != nil {
		return store.ParseRecord{}, err
	}

	state, err := decodeState(grammarRec.Artifact)
	if err != nil {
		return store.ParseRecord{}, serr.New("stored grammar artifact is corrupt", err)
	}

	files := input.NewTable()
	fileID := files.Load("input", inputText)

	registry := engine.NewRegistry()
	result := engine.RunParserRule(files, fileID, state.Fork(), rule, registry)

	var resultJSON []byte
	if result.OK {
		resultJSON, err = json.Marshal(result.Value.Value)
		if err != nil {
			return store.ParseRecord{}, serr.New("could not marshal parse result", err)
		}
	}

	rec, err := svc.DB.Parses().Create(ctx, store.ParseRecord{
		GrammarID:   grammarID,
		Rule:        rule,
		Input:       inputText,
		ResultJSON:  resultJSON,
		Diagnostics: result.Diagnostics,
		Owner:       owner,
	})
	if err != nil {
		return store.ParseRecord{}, serr.WrapDB("could not store parse result", err)
	}
	return rec, nil
}

// GetParse fetches a stored parse result.
func (svc Service) GetParse(ctx context.Context, id uuid.UUID) (store.ParseRecord, error) {
	rec, err := svc.DB.Parses().GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return store.ParseRecord{}, serr.ErrNotFound
		}
		return store.ParseRecord{}, serr.WrapDB("could not get parse result", err)
	}
	return rec, nil
}
