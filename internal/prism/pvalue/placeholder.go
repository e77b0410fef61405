package pvalue

import "github.com/prismlang/prism/internal/prism/input"

// PlaceholderID identifies a deferred Parsed value issued by a
// PlaceholderStore.
type PlaceholderID int

// pendingConstruct records a Construct action waiting on its children to
// resolve before it can fire.
type pendingConstruct struct {
	span      input.Span
	namespace string
	ctor      string
	handler   Namespace
	children  []PlaceholderID // positional; may include already-resolved ids
	parent    PlaceholderID
}

// PlaceholderStore exists because actions may be evaluated before
// all children are available (the recovery path and the @adapt path both
// need this), so construction is modeled as a small dataflow graph keyed by
// child count rather than requiring eager, in-order evaluation.
type PlaceholderStore struct {
	resolved map[PlaceholderID]Parsed
	pending  map[PlaceholderID]*pendingConstruct
	waiters  map[PlaceholderID][]PlaceholderID // child -> parents awaiting it
	remain   map[PlaceholderID]int             // parent -> unresolved child count
	next     PlaceholderID
	// Errs collects construction errors raised while firing a deferred
	// construct whose firing was triggered transitively by a sibling
	// resolving, where there is no synchronous caller to return the error
	// to. The evaluator checks this after a top-level parse completes.
	Errs []error
}

// NewPlaceholderStore returns an empty store.
func NewPlaceholderStore() *PlaceholderStore {
	return &PlaceholderStore{
		resolved: make(map[PlaceholderID]Parsed),
		pending:  make(map[PlaceholderID]*pendingConstruct),
		waiters:  make(map[PlaceholderID][]PlaceholderID),
		remain:   make(map[PlaceholderID]int),
	}
}

// PushEmpty returns a placeholder for a value to be filled later via
// PlaceInto or PlaceConstructInfo.
func (s *PlaceholderStore) PushEmpty() PlaceholderID {
	id := s.next
	s.next++
	return id
}

// PushResolved wraps an already-known Parsed value as a placeholder, useful
// for mixing resolved children in with deferred ones in a single
// PlaceConstructInfo call.
func (s *PlaceholderStore) PushResolved(v Parsed) PlaceholderID {
	id := s.PushEmpty()
	s.resolved[id] = v
	return id
}

// IsResolved reports whether id has a final value yet.
func (s *PlaceholderStore) IsResolved(id PlaceholderID) bool {
	_, ok := s.resolved[id]
	return ok
}

// Resolved returns id's value. It panics if id is not yet resolved; callers
// must check IsResolved (or rely on the construction-firing protocol, which
// only reads children after they are marked resolved).
func (s *PlaceholderStore) Resolved(id PlaceholderID) Parsed {
	v, ok := s.resolved[id]
	if !ok {
		panic("pvalue: read of unresolved placeholder")
	}
	return v
}

// PlaceConstructInfo records that parent will be built from children via
// handler.FromConstruct(ctor, ...) once every child resolves, and wires
// parent as a waiter on each unresolved child.
func (s *PlaceholderStore) PlaceConstructInfo(parent PlaceholderID, span input.Span, namespace, ctor string, handler Namespace, children []PlaceholderID) {
	s.pending[parent] = &pendingConstruct{
		span: span, namespace: namespace, ctor: ctor, handler: handler, children: children, parent: parent,
	}

	remaining := 0
	for _, c := range children {
		if !s.IsResolved(c) {
			remaining++
			s.waiters[c] = append(s.waiters[c], parent)
		}
	}
	s.remain[parent] = remaining
	if remaining == 0 {
		if err := s.fire(parent); err != nil {
			s.Errs = append(s.Errs, err)
		}
	}
}

// PlaceInto fills id with value. If any pending parent was awaiting id, its
// child count is decremented, and its own construction fires (recursively,
// transitively resolving ancestors) once it reaches zero.
func (s *PlaceholderStore) PlaceInto(id PlaceholderID, value Parsed) {
	s.resolved[id] = value

	parents := s.waiters[id]
	delete(s.waiters, id)
	for _, p := range parents {
		s.remain[p]--
		if s.remain[p] <= 0 {
			if err := s.fire(p); err != nil {
				s.Errs = append(s.Errs, err)
			}
		}
	}
}

// fire invokes the construction function for parent now that all of its
// children are resolved.
func (s *PlaceholderStore) fire(parent PlaceholderID) error {
	pc, ok := s.pending[parent]
	if !ok {
		// Not a deferred construction (e.g. PushResolved); nothing to do.
		return nil
	}
	delete(s.pending, parent)

	args := make([]Parsed, len(pc.children))
	for i, c := range pc.children {
		args[i] = s.Resolved(c)
	}

	v, err := pc.handler.FromConstruct(pc.span, pc.ctor, args)
	if err != nil {
		return err
	}
	v.Namespace = pc.namespace
	v.Tag = pc.ctor
	s.PlaceInto(parent, v)
	return nil
}
