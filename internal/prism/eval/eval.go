// Package eval implements the grammar expression evaluator: a mutually
// recursive interpreter over grammarval.RuleExpr that maintains the packrat
// cache, drives precedence climbing and seed-and-grow left recursion for
// rule/block invocation, wraps terminal matches with layout handling, and
// applies semantic actions to build the Parsed value bus.
package eval

import (
	"fmt"

	"github.com/prismlang/prism/internal/prism/adaptive"
	"github.com/prismlang/prism/internal/prism/grammarval"
	"github.com/prismlang/prism/internal/prism/input"
	"github.com/prismlang/prism/internal/prism/pcache"
	"github.com/prismlang/prism/internal/prism/perr"
	"github.com/prismlang/prism/internal/prism/pvalue"

	"github.com/google/uuid"
)

// PResult is the evaluator's internal result shape: the usual
// success/position/error of a parse attempt, plus the Vars a successful
// parse leaves in scope (needed so an enclosing Action or NameBind can see
// names bound by its child) and the rule-name trace accumulated for
// tree-flavored diagnostics.
type PResult struct {
	OK bool

	Value   pvalue.Parsed
	Start   input.Pos
	End     input.Pos
	BestErr *perr.Error
	Vars    pvalue.VarMap

	FailPos input.Pos
	Err     *perr.Error
}

// Ok builds a successful PResult.
func Ok(value pvalue.Parsed, start, end input.Pos, bestErr *perr.Error, vars pvalue.VarMap) PResult {
	return PResult{OK: true, Value: value, Start: start, End: end, BestErr: bestErr, Vars: vars}
}

// Fail builds a failed PResult.
func Fail(pos input.Pos, err *perr.Error) PResult {
	return PResult{OK: false, FailPos: pos, Err: err}
}

// ruleRef is the VarMap binding installed for every rule name known to a
// grammar state, so that RunVar's "resolve name in vars" lookup finds rule
// references without the evaluator needing a separate lookup path -- a
// rule-argument name that happens to shadow a rule name simply overwrites
// this binding in a narrower VarMap frame, so argument names always shadow
// outer bindings.
type ruleRef struct {
	name string
}

// frame tracks the block list and current precedence layer for #this/#next
// re-entry, plus the rule name (for diagnostics) and the cache args-key
// computed once per rule invocation.
type frame struct {
	ruleName  string
	blockList []adaptive.BlockState
	blockIdx  int
	argsKey   string
}

// Evaluator holds everything the expression evaluator needs that is shared
// across an entire parse: the input table, the packrat cache, the namespace
// registry, the placeholder store, and the recovery gap set. It is not
// reused across parses -- internal/prism/engine constructs a fresh one (with
// a fresh Cache and PlaceholderStore) for every retry of the recovery loop,
// since the gap set changes the meaning of every cache entry.
type Evaluator struct {
	Files        *input.Table
	Cache        *pcache.Cache
	Registry     *pvalue.Registry
	Placeholders *pvalue.PlaceholderStore
	Gaps         *GapSet
	RecoveryLog  *[]perr.Diagnostic

	ruleVarsCache map[uuid.UUID]pvalue.VarMap
	leftRecFlags  map[pcache.Key]*bool
}

// New returns an Evaluator ready to drive a single top-level parse attempt.
func New(files *input.Table, cache *pcache.Cache, registry *pvalue.Registry, ph *pvalue.PlaceholderStore, gaps *GapSet, log *[]perr.Diagnostic) *Evaluator {
	return &Evaluator{
		Files:         files,
		Cache:         cache,
		Registry:      registry,
		Placeholders:  ph,
		Gaps:          gaps,
		RecoveryLog:   log,
		ruleVarsCache: make(map[uuid.UUID]pvalue.VarMap),
		leftRecFlags:  make(map[pcache.Key]*bool),
	}
}

// ParseTop runs startRule at pos under grammar state g with no caller
// variables in scope except the rule-reference bindings, the entry point
// used by internal/prism/engine.RunParserRule and by the body of an
// AtAdapt.
func (e *Evaluator) ParseTop(startRule string, pos input.Pos, g *adaptive.State) PResult {
	return e.parseRule(startRule, nil, pos, g, pcache.ContextFlags{}, pvalue.Empty, nil)
}

// ruleVarsFor returns (building and caching on first use) the VarMap
// binding every rule name known to g to a ruleRef.
func (e *Evaluator) ruleVarsFor(g *adaptive.State) pvalue.VarMap {
	if vm, ok := e.ruleVarsCache[g.ID]; ok {
		return vm
	}
	vm := pvalue.Empty
	for _, name := range g.RuleNames() {
		vm = vm.With(name, ruleRef{name: name})
	}
	e.ruleVarsCache[g.ID] = vm
	return vm
}

// parseExpr is the main dispatcher, applying the matching semantics for
// each grammarval.RuleExpr variant.
func (e *Evaluator) parseExpr(expr grammarval.RuleExpr, pos input.Pos, g *adaptive.State, flags pcache.ContextFlags, vars pvalue.VarMap, fr *frame) PResult {
	switch ex := expr.(type) {
	case grammarval.CharClass:
		return e.parseTerminal(pos, g, flags, vars, fr, func(p input.Pos) PResult {
			return e.matchCharClass(ex, p, flags)
		})
	case grammarval.Literal:
		return e.parseTerminal(pos, g, flags, vars, fr, func(p input.Pos) PResult {
			return e.matchLiteral(ex.Value, p, flags)
		})
	case grammarval.Sequence:
		return e.evalSequence(ex.Exprs, pos, g, flags, vars, fr)
	case grammarval.Choice:
		return e.evalChoice(ex.Exprs, pos, g, flags, vars, fr)
	case grammarval.Repeat:
		return e.evalRepeat(ex, pos, g, flags, vars, fr)
	case grammarval.NameBind:
		r := e.parseExpr(ex.Expr, pos, g, flags, vars, fr)
		if !r.OK {
			return r
		}
		r.Vars = r.Vars.With(ex.Name, r.Value)
		return r
	case grammarval.Action:
		return e.evalAction(ex, pos, g, flags, vars, fr)
	case grammarval.SliceInput:
		r := e.parseExpr(ex.Expr, pos, g, flags, vars, fr)
		if !r.OK {
			return r
		}
		span := input.Span{Start: pos, Length: r.End.Offset - pos.Offset}
		r.Value = pvalue.Parsed{Span: span, Value: e.Files.Slice(span)}
		return r
	case grammarval.PosLookahead:
		r := e.parseExpr(ex.Expr, pos, g, flags, vars, fr)
		if r.OK {
			return Ok(pvalue.VoidValue(input.Span{Start: pos}), pos, pos, r.BestErr, vars)
		}
		return r
	case grammarval.NegLookahead:
		r := e.parseExpr(ex.Expr, pos, g, flags, vars, fr)
		if r.OK {
			return Fail(pos, perr.NewNegLookahead(pos))
		}
		return Ok(pvalue.VoidValue(input.Span{Start: pos}), pos, pos, nil, vars)
	case grammarval.This:
		if fr == nil {
			return Fail(pos, perr.NewExplicit(pos, "#this used outside of a rule block"))
		}
		r := e.parseBlockCached(fr.ruleName, fr.blockList, fr.blockIdx, pos, g, flags, vars, fr.argsKey)
		if r.OK {
			r.Vars = vars
		}
		return r
	case grammarval.Next:
		if fr == nil {
			return Fail(pos, perr.NewExplicit(pos, "#next used outside of a rule block"))
		}
		r := e.parseBlockCached(fr.ruleName, fr.blockList, fr.blockIdx+1, pos, g, flags, vars, fr.argsKey)
		if r.OK {
			r.Vars = vars
		}
		return r
	case grammarval.RunVar:
		return e.evalRunVar(ex, pos, g, flags, vars, fr)
	case grammarval.AtAdapt:
		return e.evalAtAdapt(ex, pos, g, flags, vars, fr)
	case grammarval.Guid:
		return Ok(pvalue.Parsed{Span: input.Span{Start: pos}, Value: e.Cache.NextGuid()}, pos, pos, nil, vars)
	}
	panic(fmt.Sprintf("eval: unhandled RuleExpr %T", expr))
}

// evalRunVar resolves ex.Name in vars and runs whatever it is bound to. A
// rule or closure invocation is fully scoped: whatever variable bindings it
// produces internally (its own rule-reference table, its own parameters,
// any NameBinds within its body) never leak back into the caller's vars, so
// the returned PResult always carries the caller's original vars back out
// unchanged -- only the matched Value and consumed span escape the call.
func (e *Evaluator) evalRunVar(ex grammarval.RunVar, pos input.Pos, g *adaptive.State, flags pcache.ContextFlags, vars pvalue.VarMap, fr *frame) PResult {
	v, ok := vars.Get(ex.Name)
	if !ok {
		return Fail(pos, perr.NewExplicit(pos, fmt.Sprintf("undefined rule or variable %q", ex.Name)))
	}
	switch bound := v.(type) {
	case ruleRef:
		r := e.parseRule(bound.name, ex.Args, pos, g, flags, vars, fr)
		if r.OK {
			r.Vars = vars
		}
		return r
	case pvalue.Closure:
		closureExpr, ok := bound.Expr.(grammarval.RuleExpr)
		if !ok {
			return Fail(pos, perr.NewExplicit(pos, fmt.Sprintf("%q is an unbound closure parameter", ex.Name)))
		}
		r := e.parseExpr(closureExpr, pos, g, flags, bound.Vars, nil)
		if r.OK {
			r.Vars = vars
		}
		return r
	case pvalue.Parsed:
		return Ok(bound, pos, pos, nil, vars)
	default:
		return Fail(pos, perr.NewExplicit(pos, fmt.Sprintf("%q is not runnable", ex.Name)))
	}
}
