// Package pvalue implements the typed value bus: Parsed, the
// reference-counted dynamically-typed handle exchanged between
// the engine and user-supplied "parsable" handlers, the persistent VarMap
// environment threaded through expression evaluation, and the namespace
// registry of construction handlers.
package pvalue

import (
	"fmt"

	"github.com/prismlang/prism/internal/prism/input"
)

// Void is the sentinel type tag for zero-width results (lookahead success,
// This/Next re-entry with no action, etc.)
type Void struct{}

// Parsed is a reference-counted, dynamically typed handle. It is immutable
// once constructed; EnvCapture and Closure values are the only variants that
// carry a VarMap, and that map is itself persistent/immutable.
type Parsed struct {
	// Namespace is the handler namespace that produced Value, or "" for the
	// built-in Void/EnvCapture/Closure/slice kinds that need no handler.
	Namespace string
	// Tag identifies the concrete shape of Value within Namespace (e.g. a
	// construct name like "Add" or "Num"). Ignored for built-in kinds.
	Tag string
	// Span is the source span that produced this value, used for
	// diagnostics and for #str slices.
	Span input.Span
	// Value is the opaque payload. Its dynamic type is whatever the
	// handler's From Construct returned, or one of the built-in kinds
	// below (Void, string for #str, *EnvCapture, *Closure).
	Value any
}

// EnvCapture wraps a Parsed value together with the variable map in scope
// when it was embedded via RuleAction.Value, enabling late closure
// evaluation.
type EnvCapture struct {
	Inner Parsed
	Vars  VarMap
}

// Closure is the value a rule argument is bound to when a caller passes a
// rule expression (rather than an already-evaluated value) as an argument;
// RunVar restores Vars and evaluates Expr when the closure is invoked,
// grounded in original_source/jonla-parser's parser_rule.rs.
type Closure struct {
	Expr interface{} // grammarval.RuleExpr; any to avoid an import cycle
	Vars VarMap
}

// VoidValue returns the canonical Void-tagged Parsed value for span.
func VoidValue(span input.Span) Parsed {
	return Parsed{Span: span, Value: Void{}}
}

// IsVoid reports whether p holds the Void sentinel.
func (p Parsed) IsVoid() bool {
	_, ok := p.Value.(Void)
	return ok
}

// TryAs attempts to view p's Value as T, returning ok=false on a type
// mismatch instead of panicking.
func TryAs[T any](p Parsed) (T, bool) {
	v, ok := p.Value.(T)
	return v, ok
}

// As views p's Value as T, panicking if the tag mismatches. This is for use
// by handler code that has already checked Namespace/Tag and is certain of
// the underlying type; a mismatch here is a bug in the handler, matching
// the convention that a type-tag mismatch on a Parsed value is a fatal bug
// in the handler, not a recoverable parse error.
func As[T any](p Parsed) T {
	v, ok := p.Value.(T)
	if !ok {
		var zero T
		panic(fmt.Sprintf("pvalue: Parsed tag mismatch: want %T, have %T (namespace=%q tag=%q)", zero, p.Value, p.Namespace, p.Tag))
	}
	return v
}

// VarMap is an immutable persistent map from name to Parsed, implemented as
// a linked list of frames (grounded on util.Stack's frame-linking
// style rather than a HAMT, since rule scopes are typically small and the
// lookup is almost always followed immediately by a single With call).
type VarMap struct {
	name  string
	value any
	next  *VarMap
}

// Empty is the empty VarMap.
var Empty = VarMap{}

// With returns a new VarMap with name bound to value, shadowing (not
// mutating) any existing binding of name. The receiver is unaffected, so
// backtracking a choice alternative is simply "stop using the returned map."
func (m VarMap) With(name string, value any) VarMap {
	return VarMap{name: name, value: value, next: &m}
}

// Get looks up name, walking outward through enclosing frames.
func (m VarMap) Get(name string) (any, bool) {
	for f := &m; f != nil && f.name != ""; f = f.next {
		if f.name == name {
			return f.value, true
		}
	}
	return nil, false
}

// Namespace is the v-table a caller registers to build semantic values of a
// given kind from Construct actions.
type Namespace interface {
	// FromConstruct builds a Parsed value from a constructor tag and its
	// already-evaluated argument values.
	FromConstruct(span input.Span, ctor string, args []Parsed) (Parsed, error)
}

// Registry maps namespace name to its handler, consulted by the evaluator
// when executing a Construct action.
type Registry struct {
	handlers map[string]Namespace
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{handlers: make(map[string]Namespace)}
}

// Register installs handler under name, overwriting any previous handler
// registered under the same name.
func (r *Registry) Register(name string, handler Namespace) {
	r.handlers[name] = handler
}

// Lookup returns the handler registered for name, or ok=false if none is
// registered -- a parse-time error.
func (r *Registry) Lookup(name string) (Namespace, bool) {
	h, ok := r.handlers[name]
	return h, ok
}
