// Package expansion implements C3: bounded pointwise expansion of terms
// into maximally-reducible (MR) and non-MR (U) sets, used by C10 to seed
// and grow the representative term set T that drives equation generation.
package expansion

import (
	"sort"

	"github.com/synduce/synduce/internal/pmrs"
	"github.com/synduce/synduce/internal/synctx"
	"github.com/synduce/synduce/internal/term"
	"github.com/synduce/synduce/internal/typeterm"
)

// ExpandOne produces the one-step expansions of t: it finds the free
// variable of a declared sum type whose name sorts first and replaces it by one application
// per variant of that type, each with fresh scalar variables for the
// variant's payload fields. If no free variable of sum type remains, t is
// already fully expanded and ExpandOne returns nil.
func ExpandOne(ctx *synctx.Context, reg *typeterm.Registry, t *term.Term) []*term.Term {
	name, typ := leftmostSumVar(t)
	if name == "" {
		return nil
	}

	decl, ok := reg.Lookup(typ.Name)
	if !ok {
		return nil
	}

	fieldsByVariant := decl.Instantiate(typ.Args)

	out := make([]*term.Term, 0, len(decl.Variants))

	for _, v := range decl.Variants {
		fields := fieldsByVariant[v.Name]
		args := make([]*term.Term, len(fields))

		for i, ft := range fields {
			args[i] = term.Var(ctx.FreshName("e"), ft)
		}

		ctor := term.App(v.Name, args...)
		out = append(out, term.Substitute(t, map[string]*term.Term{name: ctor}))
	}

	return out
}

func leftmostSumVar(t *term.Term) (string, *typeterm.Type) {
	free := term.FreeVars(t)

	names := make([]string, 0, len(free))
	for n := range free {
		names = append(names, n)
	}

	sort.Strings(names)

	for _, n := range names {
		if typ := free[n]; typ != nil && typ.Kind == typeterm.KSum {
			return n, typ
		}
	}

	return "", nil
}

// ToMaximallyReducible partitions the one-step expansions of t into
// (T', U'): T' holds expansions that fully reduce under p, U' the rest
// (spec.md §4.3).
func ToMaximallyReducible(ctx *synctx.Context, reg *typeterm.Registry, p *pmrs.PMRS, t *term.Term, reductionLimit int) (mr, nonMR []*term.Term) {
	for _, e := range ExpandOne(ctx, reg, t) {
		if ok, _ := pmrs.IsMR(p, e, reductionLimit); ok {
			mr = append(mr, e)
		} else {
			nonMR = append(nonMR, e)
		}
	}

	return mr, nonMR
}

// Config bounds an expansion loop.
type Config struct {
	MaxDepth        int // expand_depth
	MaxCumulative   int // expand_cut
	ReductionLimit  int
}

// ExpandLoop iterates ToMaximallyReducible over the non-MR frontier,
// breadth-first, until every frontier term is MR, the depth bound is hit,
// or the cumulative term count bound is hit. Ties (several expansions
// available at the same depth) are broken by minimum depth first, then by
// the lexicographic order of the terms' generated fresh-variable ids —
// since ctx.FreshName allocates monotonically, insertion order already
// satisfies this; ExpandLoop preserves it rather than re-sorting.
func ExpandLoop(ctx *synctx.Context, reg *typeterm.Registry, p *pmrs.PMRS, initial []*term.Term, cfg Config) (T, U []*term.Term) {
	type item struct {
		t     *term.Term
		depth int
	}

	var frontier []item

	for _, t := range initial {
		if ok, _ := pmrs.IsMR(p, t, cfg.ReductionLimit); ok {
			T = append(T, t)
		} else {
			frontier = append(frontier, item{t: t, depth: 0})
		}
	}

	total := len(T)

	for len(frontier) > 0 {
		cur := frontier[0]
		frontier = frontier[1:]

		if cur.depth >= cfg.MaxDepth || total >= cfg.MaxCumulative {
			U = append(U, cur.t)
			continue
		}

		mr, nonMR := ToMaximallyReducible(ctx, reg, p, cur.t, cfg.ReductionLimit)

		if len(mr) == 0 && len(nonMR) == 0 {
			// No sum-typed free variable left to expand: the term is its
			// own frontier and stays in U until it is otherwise resolved.
			U = append(U, cur.t)
			continue
		}

		for _, m := range mr {
			T = append(T, m)
			total++
		}

		for _, n := range nonMR {
			if total >= cfg.MaxCumulative {
				U = append(U, n)
				continue
			}

			frontier = append(frontier, item{t: n, depth: cur.depth + 1})
			total++
		}
	}

	return T, U
}

// IsMRAll delegates to the PMRS engine's predicate of the same name.
func IsMRAll(p *pmrs.PMRS, ts []*term.Term, reductionLimit int) bool {
	return pmrs.IsMRAll(p, ts, reductionLimit)
}
