package expansion

import (
	"testing"

	"github.com/synduce/synduce/internal/pmrs"
	"github.com/synduce/synduce/internal/synctx"
	"github.com/synduce/synduce/internal/term"
	"github.com/synduce/synduce/internal/typeterm"
)

// natRegistry declares nat = Zero | Succ(nat).
func natRegistry(t *testing.T) *typeterm.Registry {
	t.Helper()

	reg := typeterm.NewRegistry()

	decl := &typeterm.TypeDecl{
		Name: "nat",
		Variants: []typeterm.VariantDecl{
			{Name: "Zero"},
			{Name: "Succ", Fields: []*typeterm.Type{typeterm.Sum("nat")}},
		},
	}

	if err := reg.Declare(decl); err != nil {
		t.Fatalf("unexpected error declaring nat: %v", err)
	}

	return reg
}

// natIdentity builds a PMRS whose f(Zero) = 0 and f(Succ n) = f(n) — the
// second rule is deliberately not reducible to a value until n is itself a
// constructor, so a freshly-expanded Succ argument stays stuck (non-MR).
func natIdentity() *pmrs.PMRS {
	p := pmrs.New()

	nat := typeterm.Sum("nat")
	f := p.AddNT("f", []*typeterm.Type{nat}, typeterm.Int())
	p.Main = f

	p.AddRule(pmrs.Rule{NT: f, Params: []string{"x"}, PatternVariant: "Zero", RHS: term.Int(0)})
	p.AddRule(pmrs.Rule{
		NT: f, Params: []string{"x"}, PatternVariant: "Succ", PatternBinders: []string{"n"},
		RHS: term.App("f", term.Var("n", nil)),
	})

	return p
}

func TestExpandOneProducesOneTermPerVariant(t *testing.T) {
	ctx := synctx.New(synctx.Adapters{SMT: nil, SyGuS: nil})
	reg := natRegistry(t)

	x := term.App("f", term.Var("x", typeterm.Sum("nat")))

	out := ExpandOne(ctx, reg, x)
	if len(out) != 2 {
		t.Fatalf("expected one expansion per variant (Zero, Succ), got %d", len(out))
	}
}

func TestExpandOneReturnsNilWhenNoSumVariableRemains(t *testing.T) {
	ctx := synctx.New(synctx.Adapters{})
	reg := natRegistry(t)

	if out := ExpandOne(ctx, reg, term.Int(0)); out != nil {
		t.Fatalf("expected nil for a term with no free sum-typed variable, got %v", out)
	}
}

func TestToMaximallyReduciblePartitionsMRAndNonMR(t *testing.T) {
	ctx := synctx.New(synctx.Adapters{})
	reg := natRegistry(t)
	p := natIdentity()

	x := term.App("f", term.Var("x", typeterm.Sum("nat")))

	mr, nonMR := ToMaximallyReducible(ctx, reg, p, x, 100)

	if len(mr) != 1 {
		t.Fatalf("expected the Zero expansion to be MR, got %d MR terms", len(mr))
	}

	if len(nonMR) != 1 {
		t.Fatalf("expected the Succ expansion to be non-MR (stuck on a free recursion argument), got %d", len(nonMR))
	}
}

func TestExpandLoopSeedsTAndTerminatesWithinBounds(t *testing.T) {
	ctx := synctx.New(synctx.Adapters{})
	reg := natRegistry(t)
	p := natIdentity()

	x := term.App("f", term.Var("x", typeterm.Sum("nat")))

	T, U := ExpandLoop(ctx, reg, p, []*term.Term{x}, Config{MaxDepth: 3, MaxCumulative: 10, ReductionLimit: 100})

	if len(T) == 0 {
		t.Fatalf("expected at least one maximally-reducible term to land in T")
	}

	if !IsMRAll(p, T, 100) {
		t.Fatalf("every term ExpandLoop places in T must be MR")
	}

	_ = U // U may legitimately be empty once depth-3 expansion bottoms out in constants.
}

func TestExpandLoopRespectsMaxDepth(t *testing.T) {
	ctx := synctx.New(synctx.Adapters{})
	reg := natRegistry(t)
	p := natIdentity()

	x := term.App("f", term.Var("x", typeterm.Sum("nat")))

	// Depth 0: the seed itself is non-MR and must not be expanded at all.
	T, U := ExpandLoop(ctx, reg, p, []*term.Term{x}, Config{MaxDepth: 0, MaxCumulative: 10, ReductionLimit: 100})

	if len(T) != 0 {
		t.Fatalf("expected no MR terms to be discovered at depth 0, got %d", len(T))
	}

	if len(U) != 1 {
		t.Fatalf("expected the seed term to be reported stuck in U, got %d", len(U))
	}
}
