// Package perr implements the error taxonomy, furthest-failure tracking,
// and diagnostic types used throughout parsing: the evaluator's Err/best-
// error propagation, furthest-wins merging, and the human/technical message
// split grounded on internal/tqerrors.
package perr

import (
	"fmt"
	"sort"
	"strings"

	"github.com/prismlang/prism/internal/prism/input"
)

// Kind enumerates the parser's error taxonomy. These are kinds, not wrapped
// Go error types, because furthest-failure merging needs to compare and
// union errors structurally rather than via errors.Is chains.
type Kind int

const (
	KindExpected       Kind = iota // expected literal / char class
	KindExplicit                   // @error("msg") annotation
	KindLeftRecNoGrowth            // seed-grow iteration made no progress (informational)
	KindUnexpectedEOF
	KindGrammarCycle
	KindTagMismatch
	KindNegativeLookahead
)

// Error is the furthest-failure-tracked error value threaded through the
// evaluator. It is deliberately a plain struct rather than an interface so
// that Merge can be a pure value operation.
type Error struct {
	Pos    input.Pos
	Labels []string // union of expected-thing descriptions at Pos
	Kind   Kind
	// Trace is the chain of rule names active when this failure was
	// recorded, innermost first, for tree-flavored diagnostics. nil/empty
	// for set-flavored errors that never populate it.
	Trace []string
}

// NewExpected returns a KindExpected Error expecting label at pos.
func NewExpected(pos input.Pos, label string) *Error {
	return &Error{Pos: pos, Labels: []string{label}, Kind: KindExpected}
}

// NewExplicit returns a KindExplicit Error for an @error("msg") annotation.
func NewExplicit(pos input.Pos, msg string) *Error {
	return &Error{Pos: pos, Labels: []string{msg}, Kind: KindExplicit}
}

// NewEOF returns a KindUnexpectedEOF Error at pos.
func NewEOF(pos input.Pos) *Error {
	return &Error{Pos: pos, Labels: []string{"end of input"}, Kind: KindUnexpectedEOF}
}

// NewNegLookahead returns the synthetic error a successful NegLookahead
// child produces.
func NewNegLookahead(pos input.Pos) *Error {
	return &Error{Pos: pos, Labels: []string{"negative lookahead"}, Kind: KindNegativeLookahead}
}

// WithTrace returns a copy of e with rule pushed onto the front of Trace,
// called as the evaluator unwinds out of each rule invocation so a furthest
// failure accumulates the chain of rules it occurred within.
func (e *Error) WithTrace(rule string) *Error {
	if e == nil {
		return nil
	}
	cp := *e
	cp.Trace = append([]string{rule}, e.Trace...)
	return &cp
}

// Merge implements the furthest-wins policy: the error at the later
// position wins outright; at equal positions, label sets union (and traces
// are kept from whichever side had one, preferring a's if both do, since a
// is conventionally "the more specific/inner" side in this engine's calls).
// Either argument may be nil, meaning "no error recorded yet".
func Merge(a, b *Error) *Error {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	if a.Pos.Before(b.Pos) {
		return b
	}
	if b.Pos.Before(a.Pos) {
		return a
	}

	// equal positions: union labels, keep the more informative kind/trace.
	merged := &Error{Pos: a.Pos, Kind: a.Kind, Trace: a.Trace}
	if merged.Trace == nil {
		merged.Trace = b.Trace
	}
	seen := make(map[string]bool)
	for _, l := range a.Labels {
		if !seen[l] {
			seen[l] = true
			merged.Labels = append(merged.Labels, l)
		}
	}
	for _, l := range b.Labels {
		if !seen[l] {
			seen[l] = true
			merged.Labels = append(merged.Labels, l)
		}
	}
	return merged
}

// Error implements the standard error interface with a technical message
// suitable for logs.
func (e *Error) Error() string {
	labels := strings.Join(e.Labels, " or ")
	msg := fmt.Sprintf("at %s: expected %s", e.Pos, labels)
	if len(e.Trace) > 0 {
		msg += " (while parsing " + strings.Join(e.Trace, " < ") + ")"
	}
	return msg
}

// Message returns a short, presentable diagnostic message for CLI/API
// responses, mirroring interpreterError.GameMessage()'s split between a
// technical Error() and a presentable message.
func (e *Error) Message() string {
	return "expected " + strings.Join(e.Labels, " or ")
}

// Diagnostic is a user-facing report of either a hard failure or a
// recovered gap, returned alongside a (possibly partial) Parsed result.
type Diagnostic struct {
	Span      input.Span
	Err       *Error
	Recovered bool // true if this diagnostic describes a recovery insertion
}

func (d Diagnostic) String() string {
	kind := "error"
	if d.Recovered {
		kind = "recovered"
	}
	return fmt.Sprintf("[%s] %s", kind, d.Err.Error())
}

// SortDiagnostics orders diagnostics by position, for stable CLI/API output.
func SortDiagnostics(ds []Diagnostic) {
	sort.SliceStable(ds, func(i, j int) bool {
		return ds[i].Span.Start.Before(ds[j].Span.Start)
	})
}
