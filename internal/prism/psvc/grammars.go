package psvc

import (
	"context"
	"errors"

	"github.com/dekarrin/rezi"
	"github.com/google/uuid"

	"github.com/prismlang/prism/internal/prism/adaptive"
	"github.com/prismlang/prism/internal/prism/engine"
	"github.com/prismlang/prism/internal/prism/grammarval"
	"github.com/prismlang/prism/internal/prism/input"
	"github.com/prismlang/prism/internal/prism/server/serr"
	"github.com/prismlang/prism/internal/prism/store"
)

// CreateGrammar compiles source via internal/prism/engine.ParseGrammar and
// persists both the original source and the rezi-encoded grammarval.File,
// owned by owner.
func (svc Service) CreateGrammar(ctx context.Context, owner uuid.UUID, name, source string) (store.GrammarRecord, error) {
	files := input.NewTable()
	id := files.Load(name, source)

	file, err := engine.ParseGrammar(files, id)
	if err != nil {
		return store.GrammarRecord{}, serr.New("grammar does not compile", err, serr.ErrBadArgument)
	}

	artifact := rezi.EncBinary(file)

	rec, err := svc.DB.Grammars().Create(ctx, store.GrammarRecord{
		Name:     name,
		Source:   source,
		Artifact: artifact,
		Owner:    owner,
	})
	if err != nil {
		return store.GrammarRecord{}, serr.WrapDB("could not create grammar", err)
	}
	return rec, nil
}

// GetGrammar fetches a stored grammar's record.
func (svc Service) GetGrammar(ctx context.Context, id uuid.UUID) (store.GrammarRecord, error) {
	rec, err := svc.DB.Grammars().GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return store.GrammarRecord{}, serr.ErrNotFound
		}
		return store.GrammarRecord{}, serr.WrapDB("could not get grammar", err)
	}
	return rec, nil
}

// Adapt compiles a further grammar fragment, merges it onto the stored
// grammar's adaptive state via adaptive.State.Update, and stores the result
// as a new GrammarRecord version with ParentID set to parent.
func (svc Service) Adapt(ctx context.Context, owner, parent uuid.UUID, deltaSource string) (store.GrammarRecord, error) {
	parentRec, err := svc.GetGrammar(ctx, parent)
	if err != nil {
		return store.GrammarRecord{}, err
	}

	baseState, err := decodeState(parentRec.Artifact)
	if err != nil {
		return store.GrammarRecord{}, serr.New("stored grammar artifact is corrupt", err)
	}

	files := input.NewTable()
	id := files.Load(parentRec.Name+"+adapt", deltaSource)
	delta, err := engine.ParseGrammar(files, id)
	if err != nil {
		return store.GrammarRecord{}, serr.New("adaptation does not compile", err, serr.ErrBadArgument)
	}

	updated, err := baseState.Update(delta)
	if err != nil {
		return store.GrammarRecord{}, serr.New("adaptation would introduce a cycle", err, serr.ErrGrammarCycle)
	}

	artifact := rezi.EncBinary(stateToFile(updated))

	rec, err := svc.DB.Grammars().Create(ctx, store.GrammarRecord{
		Name:     parentRec.Name,
		Source:   deltaSource,
		Artifact: artifact,
		ParentID: &parent,
		Owner:    owner,
	})
	if err != nil {
		return store.GrammarRecord{}, serr.WrapDB("could not store adapted grammar", err)
	}
	return rec, nil
}

// decodeState rezi-decodes a stored artifact back into a grammarval.File
// and folds it into a fresh adaptive.State, mirroring how a freshly
// compiled grammar is first installed.
func decodeState(artifact []byte) (*adaptive.State, error) {
	var file grammarval.File
	n, err := rezi.DecBinary(artifact, &file)
	if err != nil {
		return nil, err
	}
	if n != len(artifact) {
		return nil, errors.New("rezi decode did not consume the full artifact")
	}

	st := adaptive.NewState()
	st, err = st.Update(file)
	if err != nil {
		return nil, err
	}
	return st, nil
}

// stateToFile flattens an adaptive.State back into a grammarval.File (one
// Rule per known rule name, its current blocks in merged order) so the
// whole adapted grammar can be rezi-encoded as a single artifact again.
func stateToFile(st *adaptive.State) grammarval.File {
	names := st.RuleNames()
	rules := make([]grammarval.Rule, 0, len(names))
	for _, name := range names {
		rs, ok := st.Rule(name)
		if !ok {
			continue
		}
		blocks := make([]grammarval.Block, len(rs.Blocks))
		for i, b := range rs.Blocks {
			blocks[i] = grammarval.Block{Name: b.Name, Choices: b.Choices}
		}
		rules = append(rules, grammarval.Rule{
			Name:       rs.Name,
			Params:     rs.Params,
			ReturnType: rs.ReturnType,
			Blocks:     blocks,
		})
	}
	return grammarval.File{Rules: rules}
}
