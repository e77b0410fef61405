// Package pcache implements the packrat cache and per-parse state:
// memoization keyed by (position, rule, grammar-state, parameters,
// context), left-recursion detection via an InProgress sentinel, and the
// checkpoint/rollback discipline that scopes a @adapt sub-parse's cache
// installations.
package pcache

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/prismlang/prism/internal/prism/input"
	"github.com/prismlang/prism/internal/prism/pvalue"
)

// Key identifies one memoized parse attempt. ArgsKey and Context are opaque
// comparable fingerprints computed by the caller (internal/prism/eval),
// since the cache package has no business knowing how rule arguments or
// context flags are shaped.
type Key struct {
	Pos       input.Pos
	Rule      string
	Block     int // which block index this entry is for (precedence layer)
	GrammarID uuid.UUID
	ArgsKey   string
	Context   ContextFlags
}

// ContextFlags captures the ambient evaluation context that participates in
// cache keying: whether layout is currently disabled and whether recovery is
// currently disabled. Both flags can change the result of parsing the same
// rule at the same position, so both must be part of the key.
type ContextFlags struct {
	LayoutDisabled   bool
	RecoveryDisabled bool
}

// Status distinguishes an in-flight (left-recursion guard) entry from a
// finished one.
type Status int

const (
	StatusInProgress Status = iota
	StatusDone
)

// Result is a memoized parse outcome: either a success (with the furthest
// error seen along the accepted path) or a failure.
type Result struct {
	OK bool

	// success fields
	Value      pvalue.Parsed
	End        input.Pos
	BestErrAny any // *perr.Error; any to avoid an import cycle

	// failure fields
	FailPos input.Pos
	Err     any // *perr.Error
}

// entry is the cache slot for a Key: either InProgress (a left-recursion
// guard) or Done with a Result.
type entry struct {
	status Status
	result Result
}

// Cache is the per-parse memoization table plus the installation stack used
// for @adapt scoping.
type Cache struct {
	table map[Key]*entry
	stack []Key // installation order, for checkpoint/rollback

	guidCounter int
}

// New returns an empty Cache.
func New() *Cache {
	return &Cache{table: make(map[Key]*entry)}
}

// Lookup returns the memoized entry for k, if any.
func (c *Cache) Lookup(k Key) (Result, Status, bool) {
	e, ok := c.table[k]
	if !ok {
		return Result{}, 0, false
	}
	return e.result, e.status, true
}

// MarkInProgress installs an InProgress guard for k, used to detect left
// recursion: a second entry to the same key while the first is still
// in-flight is the seed-and-grow trigger.
func (c *Cache) MarkInProgress(k Key) {
	c.table[k] = &entry{status: StatusInProgress}
	c.stack = append(c.stack, k)
}

// Store finalizes k with result, overwriting any InProgress guard. This
// installation is recorded for rollback. A key may be stored multiple times
// in a row (left-recursion seed-grow re-parses into the same key); each call
// pushes a fresh stack entry so rollback still unwinds them all.
func (c *Cache) Store(k Key, result Result) {
	c.table[k] = &entry{status: StatusDone, result: result}
	c.stack = append(c.stack, k)
}

// Checkpoint returns the current installation-stack depth.
func (c *Cache) Checkpoint() int {
	return len(c.stack)
}

// Rollback removes every installation made since depth was recorded by
// Checkpoint, deleting those keys from the table entirely (not merely
// marking them stale) so that a @adapt sub-parse that fails never leaves
// behind cache entries keyed on a grammar state nothing else will ever see
// again.
func (c *Cache) Rollback(depth int) {
	if depth > len(c.stack) {
		panic(fmt.Sprintf("pcache: rollback depth %d exceeds stack size %d", depth, len(c.stack)))
	}
	for i := len(c.stack) - 1; i >= depth; i-- {
		delete(c.table, c.stack[i])
	}
	c.stack = c.stack[:depth]
}

// NextGuid returns a fresh process-unique integer for this parse, backing
// the Guid expression.
func (c *Cache) NextGuid() int {
	c.guidCounter++
	return c.guidCounter
}
