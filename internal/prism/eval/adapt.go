package eval

import (
	"github.com/prismlang/prism/internal/prism/adaptive"
	"github.com/prismlang/prism/internal/prism/grammarval"
	"github.com/prismlang/prism/internal/prism/input"
	"github.com/prismlang/prism/internal/prism/pcache"
	"github.com/prismlang/prism/internal/prism/perr"
	"github.com/prismlang/prism/internal/prism/pvalue"
)

// evalAtAdapt evaluates ex.GrammarAction (normally a construct registered
// under the built-in "grammar-meta" namespace, see internal/prism/engine)
// to produce a grammarval.File, layers it onto g via adaptive.State.Update,
// and parses ex.BodyRule from the current position under the resulting
// state. The sub-parse's own cache installations are always rolled back
// once it returns -- on success or failure alike -- since the forked
// grammar state's identity is never looked up again once this AtAdapt
// returns: no cache entry keyed on that state should outlive it.
func (e *Evaluator) evalAtAdapt(ex grammarval.AtAdapt, pos input.Pos, g *adaptive.State, flags pcache.ContextFlags, vars pvalue.VarMap, fr *frame) PResult {
	span := input.Span{Start: pos, Length: 0}
	val, err := e.evalRuleAction(ex.GrammarAction, vars, span)
	if err != nil {
		return Fail(pos, perr.NewExplicit(pos, "evaluating @adapt grammar action: "+err.Error()))
	}
	gf, ok := pvalue.TryAs[grammarval.File](val)
	if !ok {
		return Fail(pos, perr.NewExplicit(pos, "@adapt grammar action did not produce a grammar file"))
	}

	newState, err := g.Update(gf)
	if err != nil {
		return Fail(pos, &perr.Error{Pos: pos, Kind: perr.KindGrammarCycle, Labels: []string{err.Error()}})
	}

	checkpoint := e.Cache.Checkpoint()
	r := e.ParseTop(ex.BodyRule, pos, newState)
	e.Cache.Rollback(checkpoint)

	if r.OK {
		r.Vars = vars
	}
	return r
}
