package eval

import (
	"fmt"
	"unsafe"

	"github.com/prismlang/prism/internal/prism/adaptive"
	"github.com/prismlang/prism/internal/prism/grammarval"
	"github.com/prismlang/prism/internal/prism/input"
	"github.com/prismlang/prism/internal/prism/pcache"
	"github.com/prismlang/prism/internal/prism/perr"
	"github.com/prismlang/prism/internal/prism/pvalue"
)

// parseRule invokes rule name with args (unevaluated rule-expression
// arguments, bound as closures over callerVars so a parameter is re-parsed
// lazily in the caller's scope the first time it is referenced) at pos,
// entering at block 0 -- the outermost precedence layer, since a rule
// reference parses as the choice over its first block's contents.
func (e *Evaluator) parseRule(name string, args []grammarval.RuleExpr, pos input.Pos, g *adaptive.State, flags pcache.ContextFlags, callerVars pvalue.VarMap, _ *frame) PResult {
	rs, ok := g.Rule(name)
	if !ok {
		return Fail(pos, perr.NewExplicit(pos, fmt.Sprintf("undefined rule %q", name)))
	}

	newVars := e.ruleVarsFor(g)
	for i, p := range rs.Params {
		var argExpr grammarval.RuleExpr
		if i < len(args) {
			argExpr = args[i]
		}
		newVars = newVars.With(p.Name, pvalue.Closure{Expr: argExpr, Vars: callerVars})
	}

	r := e.parseBlockCached(name, rs.Blocks, 0, pos, g, flags, newVars, argsKeyFor(args))
	if !r.OK {
		r.Err = r.Err.WithTrace(name)
	}
	r.BestErr = r.BestErr.WithTrace(name)
	return r
}

// argsKeyFor fingerprints a rule call's argument expressions for packrat
// cache keying. Since a RunVar's Args slice is read directly off the same
// grammarval.File node at every dynamic invocation of that call site, the
// backing array's address is a stable identity for "same call site" -- this
// is an approximation (it does not also distinguish different callerVars
// closed over by otherwise-identical args), documented and accepted in
// DESIGN.md, since none of this engine's parameterized-rule use cases need
// finer-grained parameter memoization than that.
func argsKeyFor(args []grammarval.RuleExpr) string {
	if len(args) == 0 {
		return ""
	}
	return fmt.Sprintf("%p", unsafe.SliceData(args))
}

// parseBlockCached is the seed-and-grow left-recursion-aware entry point for
// a single (rule, block) precedence layer, shared by a plain rule
// invocation (block 0) and #this/#next re-entry.
func (e *Evaluator) parseBlockCached(ruleName string, blockList []adaptive.BlockState, blockIdx int, pos input.Pos, g *adaptive.State, flags pcache.ContextFlags, vars pvalue.VarMap, argsKey string) PResult {
	if blockIdx >= len(blockList) {
		return Fail(pos, perr.NewExpected(pos, fmt.Sprintf("further precedence block of %q", ruleName)))
	}

	key := pcache.Key{Pos: pos, Rule: ruleName, Block: blockIdx, GrammarID: g.ID, ArgsKey: argsKey, Context: flags}

	if res, status, ok := e.Cache.Lookup(key); ok {
		if status == pcache.StatusInProgress {
			if flag, tracked := e.leftRecFlags[key]; tracked {
				*flag = true
			}
			return Fail(pos, perr.NewExpected(pos, fmt.Sprintf("non-left-recursive continuation of %q", ruleName)))
		}
		return fromCacheResult(res)
	}

	flag := new(bool)
	e.leftRecFlags[key] = flag
	e.Cache.MarkInProgress(key)

	seed := e.parseBlockChoice(blockList, blockIdx, pos, g, flags, vars, ruleName, argsKey)
	e.Cache.Store(key, toCacheResult(seed))
	leftRecursive := *flag
	delete(e.leftRecFlags, key)

	if !leftRecursive || !seed.OK {
		return seed
	}

	// Seed-and-grow: the seed succeeded and at least one recursive descent
	// into this same key was observed, so keep re-parsing with the previous
	// result installed as the memoized answer until a grow attempt fails to
	// extend past the best result found so far.
	best := seed
	for {
		e.Cache.Store(key, toCacheResult(best))
		grown := e.parseBlockChoice(blockList, blockIdx, pos, g, flags, vars, ruleName, argsKey)
		if grown.OK && grown.End.Offset > best.End.Offset {
			best = grown
			continue
		}
		break
	}
	e.Cache.Store(key, toCacheResult(best))
	return best
}

// parseBlockChoice is one undecorated attempt at a (rule, block): the
// PEG choice over that block's annotated alternatives.
func (e *Evaluator) parseBlockChoice(blockList []adaptive.BlockState, blockIdx int, pos input.Pos, g *adaptive.State, flags pcache.ContextFlags, vars pvalue.VarMap, ruleName, argsKey string) PResult {
	fr := &frame{ruleName: ruleName, blockList: blockList, blockIdx: blockIdx, argsKey: argsKey}
	choices := blockList[blockIdx].Choices

	var bestErr *perr.Error
	var lastFailPos input.Pos
	for _, ac := range choices {
		r := e.parseAnnotated(ac, pos, g, flags, vars, fr)
		if r.OK {
			r.BestErr = perr.Merge(bestErr, r.BestErr)
			return r
		}
		bestErr = perr.Merge(bestErr, r.Err)
		lastFailPos = r.FailPos
	}
	return Fail(lastFailPos, bestErr)
}

// parseAnnotated evaluates one annotated alternative, applying
// disable/enable-layout and disable/enable-recovery flag overrides for its
// extent, and post-processing its failure with #[token(...)] suppression or
// @error(...) substitution.
func (e *Evaluator) parseAnnotated(ac grammarval.AnnotatedRuleExpr, pos input.Pos, g *adaptive.State, flags pcache.ContextFlags, vars pvalue.VarMap, fr *frame) PResult {
	local := flags
	if _, ok := grammarval.Has(ac.Annotations, grammarval.AnnotationDisableLayout); ok {
		local.LayoutDisabled = true
	}
	if _, ok := grammarval.Has(ac.Annotations, grammarval.AnnotationEnableLayout); ok {
		local.LayoutDisabled = false
	}
	if _, ok := grammarval.Has(ac.Annotations, grammarval.AnnotationDisableRecovery); ok {
		local.RecoveryDisabled = true
	}
	if _, ok := grammarval.Has(ac.Annotations, grammarval.AnnotationEnableRecovery); ok {
		local.RecoveryDisabled = false
	}

	r := e.parseExpr(ac.Expr, pos, g, local, vars, fr)
	if r.OK {
		return r
	}

	if kind, ok := grammarval.Has(ac.Annotations, grammarval.AnnotationToken); ok {
		r.Err = perr.NewExpected(r.FailPos, kind)
	}
	if msg, ok := grammarval.Has(ac.Annotations, grammarval.AnnotationError); ok {
		r.Err = perr.NewExplicit(r.FailPos, msg)
	}
	return r
}

func toCacheResult(r PResult) pcache.Result {
	if r.OK {
		return pcache.Result{OK: true, Value: r.Value, End: r.End, BestErrAny: r.BestErr}
	}
	return pcache.Result{OK: false, FailPos: r.FailPos, Err: r.Err}
}

func fromCacheResult(res pcache.Result) PResult {
	if res.OK {
		var bestErr *perr.Error
		if res.BestErrAny != nil {
			bestErr, _ = res.BestErrAny.(*perr.Error)
		}
		return Ok(res.Value, input.Pos{}, res.End, bestErr, pvalue.Empty)
	}
	var err *perr.Error
	if res.Err != nil {
		err, _ = res.Err.(*perr.Error)
	}
	return Fail(res.FailPos, err)
}
