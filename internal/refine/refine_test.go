package refine

import (
	"context"
	"testing"

	"github.com/synduce/synduce/internal/grammar"
	"github.com/synduce/synduce/internal/pmrs"
	"github.com/synduce/synduce/internal/solver"
	"github.com/synduce/synduce/internal/solver/stub"
	"github.com/synduce/synduce/internal/synctx"
	"github.com/synduce/synduce/internal/term"
	"github.com/synduce/synduce/internal/typeterm"
)

// incPair builds the smallest nontrivial reference/target pair exercised by
// every scenario below: a reference f(x) = x+1, and a target f(x) = h(x)
// with a single hole h. Reference and target share the non-terminal name
// "f" so the identity representation (reprP == nil) composes correctly —
// the scalar analogue of the teacher problems' abstract-type sharing.
func incPair() (refP, tgtP *pmrs.PMRS) {
	refP = pmrs.New()
	f := refP.AddNT("f", []*typeterm.Type{typeterm.Int()}, typeterm.Int())
	refP.Main = f
	refP.AddRule(pmrs.Rule{
		NT:     f,
		Params: []string{"x"},
		RHS:    term.Binop(term.OpAdd, term.Var("x", typeterm.Int()), term.Int(1)),
	})

	tgtP = pmrs.New("h")
	g := tgtP.AddNT("f", []*typeterm.Type{typeterm.Int()}, typeterm.Int())
	tgtP.Main = g
	tgtP.AddRule(pmrs.Rule{
		NT:     g,
		Params: []string{"x"},
		RHS:    term.App("h", term.Var("x", typeterm.Int())),
	})

	return refP, tgtP
}

func baseConfig() Config {
	return Config{
		ReductionLimit:          50,
		ExpandDepth:             3,
		ExpandCut:               30,
		NumExpansionsCheck:      10,
		LemmaAttempts:           3,
		OpSet:                   grammar.OpSet{Ops: []string{"+", "-"}},
		UseSyntacticDefinitions: true,
		PartialCorrectness:      true,
		Lifting:                 false,
		MaxLiftAttempts:         0,
		SimpleInit:              true,
		MaxRefinementSteps:      5,
	}
}

// A direct a0+1 is a subterm-for-subterm rearrangement of the reference's
// own body, so C7's deduction closes it without ever reaching C6.
func TestRunRealizableViaDeduction(t *testing.T) {
	refP, tgtP := incPair()

	sctx := synctx.New(synctx.Adapters{SMT: stub.New(), SyGuS: &stub.SyGuS{}})

	res, err := Run(context.Background(), sctx, refP, tgtP, nil, nil, baseConfig())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if res.Status != Realizable {
		t.Fatalf("expected Realizable, got %v", res.Status)
	}

	if len(sctx.Solvers.SyGuS.(*stub.SyGuS).Calls) != 0 {
		t.Fatalf("expected deduction to close the hole without a SyGuS call")
	}
}

// With syntactic deduction turned off, solveHoles has nothing to try but
// the SyGuS fallback; a correct scripted response still drives the loop to
// Realizable.
func TestRunRealizableViaSyGuSFallback(t *testing.T) {
	refP, tgtP := incPair()

	cfg := baseConfig()
	cfg.UseSyntacticDefinitions = false

	sv := &stub.SyGuS{Respond: stub.FixedBody("(+ a0 1)")}
	sctx := synctx.New(synctx.Adapters{SMT: stub.New(), SyGuS: sv})

	res, err := Run(context.Background(), sctx, refP, tgtP, nil, nil, cfg)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if res.Status != Realizable {
		t.Fatalf("expected Realizable, got %v", res.Status)
	}

	if len(sv.Calls) == 0 {
		t.Fatalf("expected the SyGuS fallback to have been consulted")
	}
}

// The first scripted SyGuS answer is wrong (off by one): verification finds
// a counterexample and the loop returns to BuildEqs. The second answer is
// correct, and the loop converges to Realizable on its second pass.
func TestRunCtexsThenRealizable(t *testing.T) {
	refP, tgtP := incPair()

	cfg := baseConfig()
	cfg.UseSyntacticDefinitions = false

	calls := 0
	sv := &stub.SyGuS{Respond: func(_ context.Context, script solver.Script) (solver.Response, error) {
		calls++

		body := "(+ a0 1)"
		if calls == 1 {
			body = "(+ a0 2)"
		}

		bodies := make(map[string]string, len(script.SynthFuns))
		for _, f := range script.SynthFuns {
			bodies[f.Name] = body
		}

		return solver.Response{Status: solver.StatusSuccess, Bodies: bodies}, nil
	}}

	sctx := synctx.New(synctx.Adapters{SMT: stub.New(), SyGuS: sv})

	res, err := Run(context.Background(), sctx, refP, tgtP, nil, nil, cfg)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if res.Status != Realizable {
		t.Fatalf("expected Realizable after a counterexample-driven retry, got %v", res.Status)
	}

	if res.Steps < 2 {
		t.Fatalf("expected at least two refinement steps, got %d", res.Steps)
	}

	if calls < 2 {
		t.Fatalf("expected the wrong first candidate to provoke a second SyGuS call, got %d calls", calls)
	}
}

// A tinv PMRS whose precondition reduces to the constant false poisons
// checkPreconditionSatisfiable on the very first Verify call. The loop
// retries once with partial-correctness and syntactic-definition
// optimizations disabled (spec.md's documented retry), but the poisoned
// precondition it already committed is never retracted, so the retry hits
// the same contradiction and the run ends in Failed rather than looping
// forever.
func TestRunIncorrectAssumptionsRetriesOnceThenFails(t *testing.T) {
	refP, tgtP := incPair()

	tinvP := pmrs.New()
	tv := tinvP.AddNT("tinv", []*typeterm.Type{typeterm.Int()}, typeterm.Bool())
	tinvP.Main = tv
	tinvP.AddRule(pmrs.Rule{
		NT:     tv,
		Params: []string{"x"},
		RHS: term.Binop(term.OpAnd,
			term.Binop(term.OpGt, term.Int(5), term.Int(0)),
			term.Binop(term.OpLt, term.Int(5), term.Int(0))),
	})

	cfg := baseConfig()

	// The retry turns syntactic deduction off, so the second BuildEqs pass
	// needs a working SyGuS fallback to reach Verify again at all — it
	// scripts the correct candidate throughout; only the poisoned
	// precondition should be able to stop the run.
	sv := &stub.SyGuS{Respond: stub.FixedBody("(+ a0 1)")}
	sctx := synctx.New(synctx.Adapters{SMT: stub.New(), SyGuS: sv})

	res, err := Run(context.Background(), sctx, refP, tgtP, nil, tinvP, cfg)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if res.Status != Failed {
		t.Fatalf("expected Failed after the retry also hits the contradictory precondition, got %v", res.Status)
	}

	if res.Steps != 2 {
		t.Fatalf("expected exactly the initial attempt plus one retry, got %d steps", res.Steps)
	}
}

// Every call the solve step can make fails deterministically (deduction
// never applies since syntactic definitions are off, and the scripted
// SyGuS answer is infeasible), so the loop falls to LemmaSynth; lemma
// synthesis fails too (same infeasible solver), exhausting the only term
// in T and reporting the unrealizability certificate with lifting disabled.
func TestRunUnrealizableAfterLemmaPhaseExhausted(t *testing.T) {
	refP, tgtP := incPair()

	cfg := baseConfig()
	cfg.UseSyntacticDefinitions = false
	cfg.Lifting = false

	sv := &stub.SyGuS{Respond: func(context.Context, solver.Script) (solver.Response, error) {
		return solver.Response{Status: solver.StatusInfeasible}, nil
	}}

	sctx := synctx.New(synctx.Adapters{SMT: stub.New(), SyGuS: sv})

	res, err := Run(context.Background(), sctx, refP, tgtP, nil, nil, cfg)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if res.Status != Unrealizable {
		t.Fatalf("expected Unrealizable, got %v", res.Status)
	}

	if len(res.Ctexs) == 0 {
		t.Fatalf("expected the unrealizability certificate to name the term the lemma phase gave up on")
	}
}

// No SMT port is configured. The scripted (wrong) SyGuS candidate forces
// Verify to need a semantic disequality check it cannot perform, which it
// reports as an error; the loop treats that as the resource/solver-failure
// soft outcome rather than propagating the error to the caller.
func TestRunUnknownWhenSMTPortUnavailable(t *testing.T) {
	refP, tgtP := incPair()

	cfg := baseConfig()
	cfg.UseSyntacticDefinitions = false

	sv := &stub.SyGuS{Respond: stub.FixedBody("(+ a0 2)")}
	sctx := synctx.New(synctx.Adapters{SMT: nil, SyGuS: sv})

	res, err := Run(context.Background(), sctx, refP, tgtP, nil, nil, cfg)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if res.Status != Unknown {
		t.Fatalf("expected Unknown, got %v", res.Status)
	}
}

// With no SyGuS port configured at all, solveHoles cannot even attempt the
// fallback and lemmaPhase declines outright (its own Solver==nil guard) —
// the Solve state's default branch reports Unknown on the very first step,
// never silently looping.
func TestRunUnknownWhenNoSolverConfigured(t *testing.T) {
	refP, tgtP := incPair()

	cfg := baseConfig()
	cfg.UseSyntacticDefinitions = false
	cfg.MaxRefinementSteps = 5

	sctx := synctx.New(synctx.Adapters{})

	res, err := Run(context.Background(), sctx, refP, tgtP, nil, nil, cfg)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if res.Status != Unknown {
		t.Fatalf("expected Unknown, got %v", res.Status)
	}

	if res.Steps != 1 {
		t.Fatalf("expected the loop to give up on its first step, got %d", res.Steps)
	}
}
