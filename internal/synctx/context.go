// Package synctx holds the per-solve context: fresh-id allocators, the
// type/variant registry, and the solver adapter pair. Everything the
// original tool kept as process-wide globals lives here instead, behind
// explicit New/Reinit entry points, so the CLI and the multi-configuration
// driver can both thread a context through without fighting shared state.
package synctx

import (
	"strconv"
	"sync/atomic"

	"github.com/synduce/synduce/internal/solver"
	"github.com/synduce/synduce/internal/typeterm"
)

// Context bundles the mutable state a single solve (or a race of several
// solves sharing adapters) needs. It is safe to read concurrently; the
// counters are atomic so a Context may be shared between goroutines
// without separate synchronization.
type Context struct {
	Registry *typeterm.Registry

	freshVar  atomic.Int64
	freshName atomic.Int64
	freshTerm atomic.Int64
	freshRule atomic.Int64
	freshBox  atomic.Int64

	Solvers Adapters
}

// Adapters groups the SyGuS and SMT ports a Context was constructed with.
// Either may be nil for contexts used only up to the point a solver call
// would be made (e.g. in tests exercising C1-C5 alone).
type Adapters struct {
	SyGuS solver.SyGuSSolver
	SMT   solver.SMTSolver
}

// New creates a fresh Context with an empty registry.
func New(adapters Adapters) *Context {
	return &Context{
		Registry: typeterm.NewRegistry(),
		Solvers:  adapters,
	}
}

// Reinit resets every fresh-id counter. When full is true the type/variant
// registry is also cleared; otherwise it is kept, since it is read-mostly
// after the problem definition was parsed and the multi-configuration
// driver reuses it across instances of the same problem.
func (c *Context) Reinit(full bool) {
	c.freshVar.Store(0)
	c.freshName.Store(0)
	c.freshTerm.Store(0)
	c.freshRule.Store(0)
	c.freshBox.Store(0)

	if full {
		c.Registry = typeterm.NewRegistry()
	}
}

// FreshTypeVar allocates a new, globally unique type variable id.
func (c *Context) FreshTypeVar() typeterm.VarID {
	return typeterm.VarID(c.freshVar.Add(1))
}

// FreshName allocates a fresh ASCII identifier with the given prefix,
// guaranteed collision-free within this context's lifetime. Used for the
// fresh scalar variables of most-general terms (C2), of expansions (C3)
// and of the refinement loop's initial terms (C10).
func (c *Context) FreshName(prefix string) string {
	n := c.freshName.Add(1)

	return prefix + "_" + strconv.FormatInt(n, 10)
}

// FreshTermID allocates a fresh term id.
func (c *Context) FreshTermID() int64 { return c.freshTerm.Add(1) }

// FreshRuleID allocates a fresh PMRS rule id.
func (c *Context) FreshRuleID() int64 { return c.freshRule.Add(1) }

// FreshBoxID allocates a fresh C7 box id.
func (c *Context) FreshBoxID() int64 { return c.freshBox.Add(1) }
