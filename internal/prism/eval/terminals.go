package eval

import (
	"unicode/utf8"

	"github.com/prismlang/prism/internal/prism/adaptive"
	"github.com/prismlang/prism/internal/prism/grammarval"
	"github.com/prismlang/prism/internal/prism/input"
	"github.com/prismlang/prism/internal/prism/pcache"
	"github.com/prismlang/prism/internal/prism/pvalue"
)

// parseTerminal wraps a single-shot terminal matcher (Literal or CharClass)
// with the layout re-try loop: try the matcher as-is; on failure, consume one
// application of the "layout" rule (if the grammar has one and layout is not
// disabled in flags) and retry, looping until either the matcher succeeds or
// a layout attempt fails or makes no progress.
func (e *Evaluator) parseTerminal(pos input.Pos, g *adaptive.State, flags pcache.ContextFlags, vars pvalue.VarMap, fr *frame, match func(input.Pos) PResult) PResult {
	cur := pos
	for {
		r := match(cur)
		if r.OK {
			return r
		}
		if flags.LayoutDisabled {
			return r
		}
		if _, ok := g.Rule("layout"); !ok {
			return r
		}
		layoutFlags := flags
		layoutFlags.LayoutDisabled = true
		lr := e.parseRule("layout", nil, cur, g, layoutFlags, vars, fr)
		if !lr.OK || lr.End.Offset == cur.Offset {
			return r
		}
		cur = lr.End
	}
}

// matchLiteral compares lit against the input at start rune-by-rune, so that
// recovery (when enabled and flags permit it) can tolerate a mismatch at an
// individual rune boundary already recorded in e.Gaps, rather than only at
// the start of the literal.
func (e *Evaluator) matchLiteral(lit string, start input.Pos, flags pcache.ContextFlags) PResult {
	content := e.Files.Contents(start.File)
	cur := start
	for _, want := range []rune(lit) {
		if cur.Offset >= len(content) {
			if e.allowGap(cur, flags) {
				e.logRecovery(input.Span{Start: cur, Length: 0}, want, start, lit)
				continue
			}
			return Fail(start, quoteLit(lit, start))
		}
		got, size := utf8.DecodeRuneInString(content[cur.Offset:])
		if got == want {
			cur = input.Pos{File: cur.File, Offset: cur.Offset + size}
			continue
		}
		if e.allowGap(cur, flags) {
			e.logRecovery(input.Span{Start: cur, Length: size}, want, start, lit)
			cur = input.Pos{File: cur.File, Offset: cur.Offset + size}
			continue
		}
		return Fail(start, quoteLit(lit, start))
	}
	end := cur
	return Ok(pvalue.Parsed{Span: input.Span{Start: start, Length: end.Offset - start.Offset}, Value: lit}, start, end, nil, pvalue.Empty)
}

// matchCharClass consumes one rune satisfying cc at pos.
func (e *Evaluator) matchCharClass(cc grammarval.CharClass, pos input.Pos, flags pcache.ContextFlags) PResult {
	content := e.Files.Contents(pos.File)
	if pos.Offset >= len(content) {
		if e.allowGap(pos, flags) {
			e.logRecoveryClass(pos, cc)
			return Ok(pvalue.Parsed{Span: input.Span{Start: pos, Length: 0}, Value: ""}, pos, pos, nil, pvalue.Empty)
		}
		return Fail(pos, classErr(pos, cc))
	}
	r, size := utf8.DecodeRuneInString(content[pos.Offset:])
	if r != utf8.RuneError && cc.Contains(r) {
		end := input.Pos{File: pos.File, Offset: pos.Offset + size}
		return Ok(pvalue.Parsed{Span: input.Span{Start: pos, Length: size}, Value: string(r)}, pos, end, nil, pvalue.Empty)
	}
	if e.allowGap(pos, flags) {
		e.logRecoveryClass(pos, cc)
		end := input.Pos{File: pos.File, Offset: pos.Offset + size}
		if size == 0 {
			end = pos
		}
		return Ok(pvalue.Parsed{Span: input.Span{Start: pos, Length: size}, Value: string(r)}, pos, end, nil, pvalue.Empty)
	}
	return Fail(pos, classErr(pos, cc))
}
