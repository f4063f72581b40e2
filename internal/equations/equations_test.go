package equations

import (
	"testing"

	"github.com/synduce/synduce/internal/pmrs"
	"github.com/synduce/synduce/internal/term"
	"github.com/synduce/synduce/internal/typeterm"
)

// natCounter builds a one-rule-per-variant PMRS computing the length of a
// Peano natural under the non-terminal name given, so ref and target can be
// told apart by main-symbol name alone.
func natCounter(ntName string) *pmrs.PMRS {
	p := pmrs.New()

	nat := typeterm.Sum("nat")
	f := p.AddNT(ntName, []*typeterm.Type{nat}, typeterm.Int())
	p.Main = f

	p.AddRule(pmrs.Rule{NT: f, Params: []string{"x"}, PatternVariant: "Zero", RHS: term.Int(0)})
	p.AddRule(pmrs.Rule{
		NT: f, Params: []string{"x"}, PatternVariant: "Succ", PatternBinders: []string{"n"},
		RHS: term.Binop(term.OpAdd, term.Int(1), term.App(ntName, term.Var("n", nil))),
	})

	return p
}

func two() *term.Term {
	return term.App("Succ", term.App("Succ", term.App("Zero")))
}

func TestBuildDerivesPureEquationWithIdentityRepresentation(t *testing.T) {
	// Under the identity representation, composeReprRef returns a term of
	// the target's own App(tgtMain, ...) shape unchanged, so it only
	// reduces under the reference PMRS if the two share one main-NT name
	// (see DESIGN.md's C4 "open item" on composeReprRef) — the same
	// same-name convention internal/refine's own fixtures rely on.
	ref := natCounter("f")
	tgt := natCounter("f")

	eqs, diags := Build(ref, tgt, nil, []*term.Term{term.App("f", two())}, nil, Config{ReductionLimit: 100})

	if len(diags) != 0 {
		t.Fatalf("expected no diagnostics, got %v", diags)
	}

	if len(eqs) != 1 {
		t.Fatalf("expected one equation, got %d", len(eqs))
	}

	if got, want := eqs[0].LHS.String(), "2"; got != want {
		t.Fatalf("LHS = %q, want %q (both sides fully reduce to the same constant)", got, want)
	}

	if got, want := eqs[0].RHS.String(), "2"; got != want {
		t.Fatalf("RHS = %q, want %q", got, want)
	}
}

func TestBuildDropsEquationWhenReductionLimitExhausted(t *testing.T) {
	ref := natCounter("f")
	tgt := natCounter("f")

	eqs, diags := Build(ref, tgt, nil, []*term.Term{term.App("f", two())}, nil, Config{ReductionLimit: 0})

	if len(eqs) != 0 {
		t.Fatalf("expected the equation to be dropped, not included, got %d", len(eqs))
	}

	if len(diags) != 1 {
		t.Fatalf("expected one diagnostic explaining the drop, got %d", len(diags))
	}
}

func TestBuildCarriesThePreconditionForItsTerm(t *testing.T) {
	ref := natCounter("f")
	tgt := natCounter("f")

	term2 := two()
	pre := term.Bool(true)

	eqs, _ := Build(ref, tgt, nil, []*term.Term{term2}, map[*term.Term]*term.Term{term2: pre}, Config{ReductionLimit: 100})

	if len(eqs) != 1 {
		t.Fatalf("expected one equation, got %d", len(eqs))
	}

	if eqs[0].Pre != pre {
		t.Fatalf("expected the equation's Pre to be the supplied precondition")
	}
}

func TestDetupleSplitsMatchingTuplesIntoOneEquationPerComponent(t *testing.T) {
	eq := Equation{
		LHS: term.TupleOf(term.Int(1), term.Bool(true)),
		RHS: term.TupleOf(term.Int(1), term.Bool(true)),
	}

	out := detuple(eq)
	if len(out) != 2 {
		t.Fatalf("expected 2 component equations, got %d", len(out))
	}

	if out[0].LHS.String() != "1" || out[1].LHS.String() != "true" {
		t.Fatalf("expected component equations in tuple order, got %q and %q", out[0].LHS, out[1].LHS)
	}
}

func TestDetupleLeavesNonTupleEquationUnsplit(t *testing.T) {
	eq := Equation{LHS: term.Int(1), RHS: term.Int(1)}

	out := detuple(eq)
	if len(out) != 1 {
		t.Fatalf("expected a scalar equation to pass through unsplit, got %d", len(out))
	}
}
