package eval

import (
	"github.com/prismlang/prism/internal/prism/adaptive"
	"github.com/prismlang/prism/internal/prism/grammarval"
	"github.com/prismlang/prism/internal/prism/input"
	"github.com/prismlang/prism/internal/prism/pcache"
	"github.com/prismlang/prism/internal/prism/perr"
	"github.com/prismlang/prism/internal/prism/pvalue"
)

// evalSequence parses exprs left to right, threading the accumulated Vars
// (so later siblings and an enclosing Action see earlier NameBinds) and
// merging every attempted child's error into the running best_error.
func (e *Evaluator) evalSequence(exprs []grammarval.RuleExpr, pos input.Pos, g *adaptive.State, flags pcache.ContextFlags, vars pvalue.VarMap, fr *frame) PResult {
	cur := pos
	curVars := vars
	var bestErr *perr.Error
	var last pvalue.Parsed
	for _, ex := range exprs {
		r := e.parseExpr(ex, cur, g, flags, curVars, fr)
		if !r.OK {
			return Fail(r.FailPos, perr.Merge(bestErr, r.Err))
		}
		bestErr = perr.Merge(bestErr, r.BestErr)
		cur = r.End
		curVars = r.Vars
		last = r.Value
	}
	return Ok(last, pos, cur, bestErr, curVars)
}

// evalChoice tries exprs in document order. The first success is returned
// with best_error carrying every previously attempted alternative's error
// merged with its own internal best_error; an all-failing Choice returns the
// furthest-wins merge across every attempt.
func (e *Evaluator) evalChoice(exprs []grammarval.RuleExpr, pos input.Pos, g *adaptive.State, flags pcache.ContextFlags, vars pvalue.VarMap, fr *frame) PResult {
	var bestErr *perr.Error
	var lastFailPos input.Pos
	for _, ex := range exprs {
		r := e.parseExpr(ex, pos, g, flags, vars, fr)
		if r.OK {
			r.BestErr = perr.Merge(bestErr, r.BestErr)
			return r
		}
		bestErr = perr.Merge(bestErr, r.Err)
		lastFailPos = r.FailPos
	}
	return Fail(lastFailPos, bestErr)
}

// evalRepeat implements bounded (optionally delimited) repetition. A
// repetition that would make zero progress between successive items
// terminates after accepting that single zero-width item, rather than
// looping forever; below Min it propagates a failure, at or above Min it
// absorbs the terminating failure into best_error and returns what was
// collected so far.
func (e *Evaluator) evalRepeat(rep grammarval.Repeat, pos input.Pos, g *adaptive.State, flags pcache.ContextFlags, vars pvalue.VarMap, fr *frame) PResult {
	cur := pos
	curVars := vars
	var bestErr *perr.Error
	var items []pvalue.Parsed
	count := 0
	for rep.Max == -1 || count < rep.Max {
		tryPos := cur
		if count > 0 && rep.Delim != nil {
			dr := e.parseExpr(rep.Delim, cur, g, flags, curVars, fr)
			bestErr = mergeResultErr(bestErr, dr)
			if !dr.OK {
				break
			}
			tryPos = dr.End
		}
		er := e.parseExpr(rep.Expr, tryPos, g, flags, curVars, fr)
		bestErr = mergeResultErr(bestErr, er)
		if !er.OK {
			break
		}
		prevCur := cur
		cur = er.End
		curVars = er.Vars
		items = append(items, er.Value)
		count++
		if cur.Offset == prevCur.Offset {
			break
		}
	}
	if count < rep.Min {
		return Fail(cur, bestErr)
	}
	listVal := pvalue.Parsed{Span: input.Span{Start: pos, Length: cur.Offset - pos.Offset}, Value: items}
	return Ok(listVal, pos, cur, bestErr, curVars)
}

func mergeResultErr(best *perr.Error, r PResult) *perr.Error {
	if r.OK {
		return perr.Merge(best, r.BestErr)
	}
	return perr.Merge(best, r.Err)
}
