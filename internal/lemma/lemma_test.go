package lemma

import (
	"context"
	"testing"

	"github.com/synduce/synduce/internal/grammar"
	"github.com/synduce/synduce/internal/solver"
	"github.com/synduce/synduce/internal/solver/stub"
	"github.com/synduce/synduce/internal/term"
	"github.com/synduce/synduce/internal/typeterm"
)

func infeasible(_ context.Context, _ solver.Script) (solver.Response, error) {
	return solver.Response{Status: solver.StatusInfeasible}, nil
}

// A candidate of "true" is always accepted by the bounded check when no
// precondition or invariant constrains the scalar — exercising the
// accept path without needing a real SyGuS solver to pick a non-trivial
// shape.
func TestSynthesizeAcceptsVacuouslyTrueCandidate(t *testing.T) {
	st := &TermState{
		ScalarVars: []string{"n"},
		VarTypes:   map[string]*typeterm.Type{"n": typeterm.Int()},
	}

	sv := &stub.SyGuS{Respond: stub.FixedBody("true")}
	smt := stub.New()

	res, err := Synthesize(context.Background(), sv, smt, st, Config{MaxAttempts: 3, OpSet: grammar.OpSet{Ops: []string{"+", "-"}}})
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}

	if res.Outcome != Accepted {
		t.Fatalf("expected Accepted, got %v", res.Outcome)
	}

	if st.Invariant == nil {
		t.Fatalf("expected the accepted lemma to be conjoined into the term's invariant")
	}
}

// A candidate of "false" can never hold (¬false is a tautology), so the
// bounded check always finds a counterexample and the loop exhausts its
// attempt budget, recording a rejecting example each time.
func TestSynthesizeExhaustsBudgetOnUnsatisfiableCandidate(t *testing.T) {
	st := &TermState{
		ScalarVars: []string{"n"},
		VarTypes:   map[string]*typeterm.Type{"n": typeterm.Int()},
	}

	sv := &stub.SyGuS{Respond: stub.FixedBody("false")}
	smt := stub.New()

	res, err := Synthesize(context.Background(), sv, smt, st, Config{MaxAttempts: 2, OpSet: grammar.OpSet{}})
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}

	if res.Outcome != BudgetExhausted {
		t.Fatalf("expected BudgetExhausted, got %v", res.Outcome)
	}

	if len(st.Examples) == 0 {
		t.Fatalf("expected a rejecting example to have been recorded")
	}
}

// A solver-reported infeasibility terminates the inner loop immediately
// with Failed, never retrying.
func TestSynthesizeFailsOnSolverInfeasibleStatus(t *testing.T) {
	st := &TermState{ScalarVars: []string{"n"}, VarTypes: map[string]*typeterm.Type{"n": typeterm.Int()}}

	sv := &stub.SyGuS{Respond: infeasible}
	smt := stub.New()

	res, err := Synthesize(context.Background(), sv, smt, st, Config{MaxAttempts: 5})
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}

	if res.Outcome != Failed {
		t.Fatalf("expected Failed, got %v", res.Outcome)
	}

	if len(sv.Calls) != 1 {
		t.Fatalf("expected exactly one solver call before giving up, got %d", len(sv.Calls))
	}
}

func TestBuildScriptRendersExamplesAsConstraints(t *testing.T) {
	st := &TermState{
		ScalarVars: []string{"n"},
		VarTypes:   map[string]*typeterm.Type{"n": typeterm.Int()},
		Examples: []Example{
			{Bindings: map[string]*term.Term{"n": term.Int(0)}, Positive: true},
			{Bindings: map[string]*term.Term{"n": term.Int(-1)}, Positive: false},
		},
	}

	script := buildScript(st, grammar.OpSet{})

	if len(script.Constraints) != 2 {
		t.Fatalf("expected one constraint per example, got %d", len(script.Constraints))
	}

	if script.Constraints[0] != "(lemma 0)" {
		t.Fatalf("positive example rendered as %q", script.Constraints[0])
	}

	if script.Constraints[1] != "(not (lemma -1))" {
		t.Fatalf("negative example rendered as %q", script.Constraints[1])
	}
}
