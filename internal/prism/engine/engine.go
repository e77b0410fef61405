// Package engine exposes the two public parsing entry points: ParseGrammar,
// which reads grammar source into a grammarval.File via
// internal/prism/metasyntax, and RunParserRule, which drives a single
// top-level parse of a rule from position zero of a loaded file, including
// the bounded single-rune insertion recovery loop and the trailing-layout
// consumption before end-of-input is checked.
package engine

import (
	"github.com/prismlang/prism/internal/prism/adaptive"
	"github.com/prismlang/prism/internal/prism/eval"
	"github.com/prismlang/prism/internal/prism/grammarval"
	"github.com/prismlang/prism/internal/prism/input"
	"github.com/prismlang/prism/internal/prism/metasyntax"
	"github.com/prismlang/prism/internal/prism/pcache"
	"github.com/prismlang/prism/internal/prism/perr"
	"github.com/prismlang/prism/internal/prism/pvalue"
)

// MaxRecoveryInsertions bounds the recovery loop's retries, so a file that
// never stops producing fresh mismatches cannot loop forever.
const MaxRecoveryInsertions = 25

// ParseGrammar reads grammar source text and returns the grammarval.File it
// describes, or a syntax error from internal/prism/metasyntax.
func ParseGrammar(files *input.Table, id input.FileID) (grammarval.File, error) {
	return metasyntax.Parse(files, id)
}

// Result is what RunParserRule returns: the top-level Parsed value (zero
// value on total failure), any diagnostics (recovered gaps, and -- on total
// failure -- the single furthest error), and whether the parse succeeded at
// all.
type Result struct {
	OK          bool
	Value       pvalue.Parsed
	Diagnostics []perr.Diagnostic
}

// RunParserRule parses startRule against fileID under grammar state g,
// registering registry's namespaces for Construct actions. It owns the
// recovery retry loop: each retry gets a fresh packrat cache and placeholder
// store (since the gap set changes the meaning of every memoized entry) but
// accumulates gap positions and recovered diagnostics across retries.
func RunParserRule(files *input.Table, fileID input.FileID, g *adaptive.State, startRule string, registry *pvalue.Registry) Result {
	gaps := eval.NewGapSet()
	startPos := input.Pos{File: fileID, Offset: 0}

	var lastFailure *perr.Error

	for attempt := 0; attempt <= MaxRecoveryInsertions; attempt++ {
		cache := pcache.New()
		ph := pvalue.NewPlaceholderStore()
		var log []perr.Diagnostic
		ev := eval.New(files, cache, registry, ph, gaps, &log)

		pr := ev.ParseTop(startRule, startPos, g)
		if pr.OK {
			diags := append([]perr.Diagnostic(nil), log...)
			trailing := parseTrailingLayout(ev, g, pr.End)
			if trailing.Offset < files.Len(fileID) {
				diags = append(diags, perr.Diagnostic{
					Span: input.Span{Start: trailing, Length: files.Len(fileID) - trailing.Offset},
					Err:  perr.NewExplicit(trailing, "unexpected trailing input"),
				})
			}
			perr.SortDiagnostics(diags)
			return Result{OK: true, Value: pr.Value, Diagnostics: diags}
		}

		lastFailure = pr.Err
		insPos := eval.FindInsertionPoint(files, pr.Err)
		if gaps.Has(insPos) {
			break
		}
		gaps.Add(insPos)
	}

	diags := []perr.Diagnostic{{Span: input.Span{Start: startPos}, Err: lastFailure}}
	if lastFailure != nil {
		diags[0].Span.Start = lastFailure.Pos
	}
	return Result{OK: false, Diagnostics: diags}
}

// parseTrailingLayout consumes one application of the grammar's "layout"
// rule (if any) starting at end, so trailing whitespace or comments don't
// register as unexpected trailing input.
func parseTrailingLayout(ev *eval.Evaluator, g *adaptive.State, end input.Pos) input.Pos {
	if _, ok := g.Rule("layout"); !ok {
		return end
	}
	r := ev.ParseTop("layout", end, g)
	if r.OK {
		return r.End
	}
	return end
}
