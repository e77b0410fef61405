// Package adaptive implements the adaptive grammar state: an updatable map
// from rule name to an ordered list of blocks, built by composing
// successive grammarval.Files (the initial grammar, plus any @adapt deltas
// layered on top of it) under a cycle-free block-ordering discipline, with
// structural sharing and an opaque identity used for packrat cache keying.
package adaptive

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/prismlang/prism/internal/prism/grammarval"
)

// RuleState is the live, adapted view of one rule: its parameter list
// (fixed at the rule's first definition) and the current ordered list of
// BlockStates, plus the TopoSet recording every ordering edge contributed so
// far so that a further adaptation can be merged in.
type RuleState struct {
	Name       string
	Params     []grammarval.Param
	ReturnType string
	Blocks     []BlockState
	topo       *TopoSet
}

// BlockState is one precedence layer of an adapted rule: its name and the
// concatenation, in contribution order, of every Block.Choices contributed
// under that name across all adaptations merged so far.
type BlockState struct {
	Name    string
	Choices []grammarval.AnnotatedRuleExpr
}

func (rs RuleState) copy() RuleState {
	nrs := RuleState{
		Name:       rs.Name,
		Params:     rs.Params,
		ReturnType: rs.ReturnType,
		Blocks:     make([]BlockState, len(rs.Blocks)),
		topo:       rs.topo.Copy(),
	}
	for i, b := range rs.Blocks {
		nrs.Blocks[i] = BlockState{Name: b.Name, Choices: append([]grammarval.AnnotatedRuleExpr(nil), b.Choices...)}
	}
	return nrs
}

// State is an immutable-from-the-outside adaptive grammar state: every
// method that would logically "mutate" it (Update) instead returns a new
// State built via structural sharing of the rules that were untouched by
// this update. ID is the opaque identity used for packrat cache keying: two
// States with equal ID are interchangeable for memoization, and forking
// always mints a fresh one.
type State struct {
	ID    uuid.UUID
	rules map[string]*RuleState
}

// NewState returns an empty adaptive state (no rules defined yet), with a
// fresh identity.
func NewState() *State {
	return &State{ID: uuid.New(), rules: make(map[string]*RuleState)}
}

// Rule returns the current RuleState for name, or ok=false if no
// GrammarFile merged into this state has ever defined it.
func (s *State) Rule(name string) (*RuleState, bool) {
	r, ok := s.rules[name]
	return r, ok
}

// RuleNames returns every rule name known to this state, used by diagnostics
// and by psvc/cmd-prismc's state-to-file flattening.
func (s *State) RuleNames() []string {
	names := make([]string, 0, len(s.rules))
	for n := range s.rules {
		names = append(names, n)
	}
	return names
}

// Fork returns a new State with a fresh identity but the same rule
// contents as s, ready to have Update applied without mutating s. Forking
// is how the evaluator enters a @adapt sub-parse and how the server
// (internal/prism/server) gives each request its own cache-key space over a
// shared stored grammar.
func (s *State) Fork() *State {
	ns := &State{ID: uuid.New(), rules: make(map[string]*RuleState, len(s.rules))}
	for name, r := range s.rules {
		cp := r.copy()
		ns.rules[name] = &cp
	}
	return ns
}

// Update merges the rules of f into s, returning a new State (s itself is
// left untouched, so a failed @adapt can
// simply discard the result). Rules of s that f does not mention are shared
// by reference with the original (structural sharing); only rules f
// touches are copied.
//
// For each rule in f:
//   - if unseen in s, its blocks are recorded verbatim, and every adjacent
//     pair of block names is recorded as an ordering edge.
//   - if already present, new edges and new block choices are merged: a
//     block with an existing name has f's choices appended to it: a block
//     with a new name is inserted as a new BlockState.
//
// The final block order for every touched rule is a fresh topological sort
// of its TopoSet; a cycle is a hard error, and in that case Update returns
// the original, unmodified s alongside the error so the
// caller (the @adapt evaluator) can simply drop the attempted update.
func (s *State) Update(f grammarval.File) (*State, error) {
	ns := &State{ID: uuid.New(), rules: make(map[string]*RuleState, len(s.rules))}
	for name, r := range s.rules {
		ns.rules[name] = r // share by reference; copied lazily below if touched
	}

	touched := make(map[string]*RuleState)
	for _, r := range f.Rules {
		cur, existed := touched[r.Name]
		if !existed {
			if existing, ok := ns.rules[r.Name]; ok {
				cp := existing.copy()
				cur = &cp
			} else {
				cur = &RuleState{Name: r.Name, Params: r.Params, ReturnType: r.ReturnType, topo: NewTopoSet()}
			}
			touched[r.Name] = cur
		}

		mergeBlocks(cur, r.Blocks)
	}

	for name, rs := range touched {
		order, err := rs.topo.Sort()
		if err != nil {
			return s, fmt.Errorf("adaptive: updating rule %q: %w", name, err)
		}
		sorted := make([]BlockState, 0, len(order))
		byName := make(map[string]BlockState, len(rs.Blocks))
		for _, b := range rs.Blocks {
			byName[b.Name] = b
		}
		for _, n := range order {
			if b, ok := byName[n]; ok {
				sorted = append(sorted, b)
			}
		}
		rs.Blocks = sorted
		ns.rules[name] = rs
	}

	return ns, nil
}

// mergeBlocks folds the blocks of a single Rule definition into rs,
// recording adjacency edges and appending/inserting block choices.
func mergeBlocks(rs *RuleState, blocks []grammarval.Block) {
	existingIdx := make(map[string]int, len(rs.Blocks))
	for i, b := range rs.Blocks {
		existingIdx[b.Name] = i
	}

	for i, b := range blocks {
		rs.topo.AddNode(b.Name)
		if i > 0 {
			rs.topo.AddEdge(blocks[i-1].Name, b.Name)
		}

		if idx, ok := existingIdx[b.Name]; ok {
			rs.Blocks[idx].Choices = append(rs.Blocks[idx].Choices, b.Choices...)
		} else {
			rs.Blocks = append(rs.Blocks, BlockState{Name: b.Name, Choices: append([]grammarval.AnnotatedRuleExpr(nil), b.Choices...)})
			existingIdx[b.Name] = len(rs.Blocks) - 1
		}
	}
}
