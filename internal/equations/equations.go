// Package equations implements C4: given the current representative term
// set T, derive pure first-order equations between reductions of the
// reference (composed with the representation) and the target.
package equations

import (
	"fmt"

	"github.com/synduce/synduce/internal/pmrs"
	"github.com/synduce/synduce/internal/term"
)

// Equation is one `(t, precondition?, lhs, rhs)` entry (spec.md §4.4).
type Equation struct {
	Term       *term.Term
	Pre        *term.Term // nil if no precondition established yet.
	LHS, RHS   *term.Term
	ScalarVars map[string]bool // variables introduced by recursion elimination.
}

// Diagnostic records why an equation was dropped (its purity check
// failed — the reduction limit was hit before every reference/target
// application disappeared from one side).
type Diagnostic struct {
	Term   *term.Term
	Reason string
}

// Config controls detupling and the reduction budget.
type Config struct {
	ReductionLimit int
	Detuple        bool
}

// Build derives one equation per term in T: lhs = reduce(reference∘repr,
// t), rhs = reduce(target, t), with every occurrence of a recursive call
// on a common sub-variable rewritten, identically on both sides, to a
// fresh scalar variable (recursion elimination). Equations whose purity
// check fails (a reference/target application survives — the reduction
// limit was hit) are dropped and reported as diagnostics, never silently
// included (spec.md §4.4, and the equation-purity testable property of
// spec.md §8).
func Build(refP, tgtP, reprP *pmrs.PMRS, T []*term.Term, precondition map[*term.Term]*term.Term, cfg Config) ([]Equation, []Diagnostic) {
	var (
		eqs  []Equation
		diag []Diagnostic
	)

	refMain := refP.NTs[refP.Main].Name
	tgtMain := tgtP.NTs[tgtP.Main].Name

	for _, t := range T {
		composed := composeReprRef(reprP, refP, t)

		lhs, lhsOK := pmrs.Reduce(refP, composed, cfg.ReductionLimit)
		rhs, rhsOK := pmrs.Reduce(tgtP, t, cfg.ReductionLimit)

		if !lhsOK || !rhsOK {
			diag = append(diag, Diagnostic{Term: t, Reason: "reduction limit exhausted before reaching normal form"})
			continue
		}

		lhs, rhs, scalars := eliminateRecursion(refP, tgtP, t, lhs, rhs)

		if term.ContainsApp(lhs, refMain) || term.ContainsApp(rhs, tgtMain) {
			diag = append(diag, Diagnostic{Term: t, Reason: "equation is impure: a reference/target application remains"})
			continue
		}

		eq := Equation{Term: t, Pre: precondition[t], LHS: lhs, RHS: rhs, ScalarVars: scalars}

		if cfg.Detuple {
			eqs = append(eqs, detuple(eq)...)
		} else {
			eqs = append(eqs, eq)
		}
	}

	return eqs, diag
}

// composeReprRef builds `reference(representation(t))` as a single term
// application, so Reduce can normalize the composition in one pass.
func composeReprRef(reprP, refP *pmrs.PMRS, t *term.Term) *term.Term {
	if reprP == nil {
		return t // identity-representation flag: repr = id.
	}

	reprMain := reprP.NTs[reprP.Main].Name
	refMain := refP.NTs[refP.Main].Name

	return term.App(refMain, term.App(reprMain, t))
}

// eliminateRecursion replaces every maximal recursive subterm shared by
// lhs and rhs (an application of the reference or target main symbol to a
// common sub-variable) by a single fresh scalar variable, substituted
// identically on both sides, so the resulting equation is first-order.
func eliminateRecursion(refP, tgtP *pmrs.PMRS, t, lhs, rhs *term.Term) (*term.Term, *term.Term, map[string]bool) {
	refMain := refP.NTs[refP.Main].Name
	tgtMain := tgtP.NTs[tgtP.Main].Name

	scalars := map[string]bool{}
	counter := 0

	fresh := func() string {
		counter++
		return fmt.Sprintf("__rec%d", counter)
	}

	seen := map[string]string{}

	replace := func(n *term.Term) *term.Term { return replaceRecCalls(n, refMain, tgtMain, seen, fresh, scalars) }

	return replace(lhs), replace(rhs), scalars
}

func replaceRecCalls(t *term.Term, refMain, tgtMain string, seen map[string]string, fresh func() string, scalars map[string]bool) *term.Term {
	if t == nil {
		return nil
	}

	if t.Kind == term.KApp && (t.Fn == refMain || t.Fn == tgtMain) {
		key := t.String()
		if name, ok := seen[key]; ok {
			return term.Var(name, t.Type)
		}

		name := fresh()
		seen[key] = name
		scalars[name] = true

		return term.Var(name, t.Type)
	}

	switch t.Kind {
	case term.KTuple:
		elems := make([]*term.Term, len(t.Elems))
		for i, e := range t.Elems {
			elems[i] = replaceRecCalls(e, refMain, tgtMain, seen, fresh, scalars)
		}

		return term.TupleOf(elems...)
	case term.KBinop:
		return term.Binop(t.BOp,
			replaceRecCalls(t.L, refMain, tgtMain, seen, fresh, scalars),
			replaceRecCalls(t.R, refMain, tgtMain, seen, fresh, scalars))
	case term.KUnop:
		return term.Unop(t.UOp, replaceRecCalls(t.X, refMain, tgtMain, seen, fresh, scalars))
	case term.KIte:
		return term.Ite(
			replaceRecCalls(t.Cond, refMain, tgtMain, seen, fresh, scalars),
			replaceRecCalls(t.Then, refMain, tgtMain, seen, fresh, scalars),
			replaceRecCalls(t.Else, refMain, tgtMain, seen, fresh, scalars))
	case term.KApp:
		args := make([]*term.Term, len(t.Args))
		for i, a := range t.Args {
			args[i] = replaceRecCalls(a, refMain, tgtMain, seen, fresh, scalars)
		}

		return term.App(t.Fn, args...)
	case term.KMatch:
		cases := make([]term.MatchCase, len(t.Cases))
		for i, c := range t.Cases {
			cases[i] = term.MatchCase{
				Variant: c.Variant, Binders: c.Binders,
				Body: replaceRecCalls(c.Body, refMain, tgtMain, seen, fresh, scalars),
			}
		}

		return term.Match(replaceRecCalls(t.Scrutinee, refMain, tgtMain, seen, fresh, scalars), cases...)
	default:
		return t
	}
}

// detuple splits a hole of tuple return type into one hole per component,
// emitting one equation per component, if eq's LHS/RHS are themselves
// tuples of matching arity (spec.md §4.4).
func detuple(eq Equation) []Equation {
	if eq.LHS.Kind != term.KTuple || eq.RHS.Kind != term.KTuple || len(eq.LHS.Elems) != len(eq.RHS.Elems) {
		return []Equation{eq}
	}

	out := make([]Equation, len(eq.LHS.Elems))
	for i := range eq.LHS.Elems {
		out[i] = Equation{Term: eq.Term, Pre: eq.Pre, LHS: eq.LHS.Elems[i], RHS: eq.RHS.Elems[i], ScalarVars: eq.ScalarVars}
	}

	return out
}
