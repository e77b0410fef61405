package eval

import (
	"fmt"
	"unicode/utf8"

	"github.com/prismlang/prism/internal/prism/grammarval"
	"github.com/prismlang/prism/internal/prism/input"
	"github.com/prismlang/prism/internal/prism/pcache"
	"github.com/prismlang/prism/internal/prism/perr"
)

// GapSet is the set of byte offsets at which a terminal match may tolerate a
// single-rune mismatch by treating the actual input rune as a recovered
// "inserted" token -- a logical gap inserted at a learned failure position.
// internal/prism/engine grows this set one position at a time across
// bounded recovery retries.
type GapSet struct {
	offsets map[input.Pos]bool
}

// NewGapSet returns an empty GapSet.
func NewGapSet() *GapSet {
	return &GapSet{offsets: make(map[input.Pos]bool)}
}

// Add records p as a tolerated insertion point.
func (g *GapSet) Add(p input.Pos) { g.offsets[p] = true }

// Has reports whether p has already been recorded.
func (g *GapSet) Has(p input.Pos) bool { return g.offsets[p] }

func (e *Evaluator) allowGap(p input.Pos, flags pcache.ContextFlags) bool {
	if flags.RecoveryDisabled || e.Gaps == nil {
		return false
	}
	return e.Gaps.Has(p)
}

func (e *Evaluator) logRecovery(span input.Span, want rune, litStart input.Pos, lit string) {
	if e.RecoveryLog == nil {
		return
	}
	*e.RecoveryLog = append(*e.RecoveryLog, perr.Diagnostic{
		Span:      span,
		Err:       perr.NewExpected(span.Start, fmt.Sprintf("%q (within %q)", want, lit)),
		Recovered: true,
	})
}

func (e *Evaluator) logRecoveryClass(pos input.Pos, cc grammarval.CharClass) {
	if e.RecoveryLog == nil {
		return
	}
	*e.RecoveryLog = append(*e.RecoveryLog, perr.Diagnostic{
		Span:      input.Span{Start: pos, Length: 1},
		Err:       perr.NewExpected(pos, cc.Description),
		Recovered: true,
	})
}

func quoteLit(lit string, pos input.Pos) *perr.Error {
	return perr.NewExpected(pos, fmt.Sprintf("%q", lit))
}

func classErr(pos input.Pos, cc grammarval.CharClass) *perr.Error {
	return perr.NewExpected(pos, cc.Description)
}

// FindInsertionPoint locates the offset at which a furthest failure should
// be tolerated next, given the files table and the failing error. Error.Pos
// always points at the start of the failing terminal, since a literal
// failure is reported at the literal's start rather than the first
// mismatching byte -- too coarse a grain for recovery; when the failure's
// sole label is a quoted
// literal, this walks forward from Error.Pos comparing rune-by-rune against
// the literal text and returns the offset of the first actual mismatch. For
// any other failure shape (a CharClass, which already fails exactly at the
// mismatching rune, or an explicit/EOF error), Error.Pos is already the
// right grain and is returned unchanged.
func FindInsertionPoint(files *input.Table, err *perr.Error) input.Pos {
	if err.Kind != perr.KindExpected || len(err.Labels) != 1 {
		return err.Pos
	}
	lit, ok := unquote(err.Labels[0])
	if !ok {
		return err.Pos
	}
	content := files.Contents(err.Pos.File)
	cur := err.Pos
	for _, want := range []rune(lit) {
		if cur.Offset >= len(content) {
			return cur
		}
		got, size := utf8.DecodeRuneInString(content[cur.Offset:])
		if got != want {
			return cur
		}
		cur = input.Pos{File: cur.File, Offset: cur.Offset + size}
	}
	return cur
}

func unquote(s string) (string, bool) {
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		return s[1 : len(s)-1], true
	}
	return "", false
}
