package deduction

import (
	"testing"

	"github.com/synduce/synduce/internal/equations"
	"github.com/synduce/synduce/internal/term"
)

// lhs = a0 + 1, rhs = hole(a0) — the deduction loop should box the bound
// argument and return a closed-form body "#1 + 1".
func TestDeduceBoxesBoundArgument(t *testing.T) {
	a0 := term.Var("n", nil)
	eq := equations.Equation{
		LHS: term.Binop(term.OpAdd, a0, term.Int(1)),
		RHS: term.App("h", a0),
	}

	res := Deduce(eq, "h", nil)

	if res.Outcome != First {
		t.Fatalf("expected First, got %v", res.Outcome)
	}

	if len(res.Args) != 1 {
		t.Fatalf("expected one hole argument, got %d", len(res.Args))
	}

	if got, want := res.Body.String(), "(#1 + 1)"; got != want {
		t.Fatalf("body = %q, want %q", got, want)
	}
}

// An equation whose RHS does not apply the hole is not this engine's
// business; it must decline rather than guess.
func TestDeduceDeclinesWrongShapedEquation(t *testing.T) {
	eq := equations.Equation{
		LHS: term.Int(1),
		RHS: term.Int(2),
	}

	res := Deduce(eq, "h", nil)

	if res.Outcome != Third {
		t.Fatalf("expected Third for a non-hole RHS, got %v", res.Outcome)
	}
}

// A free scalar carried over from recursion elimination (e.g. the pivot
// in a BST insert) should be boxed as a free box when it appears
// unaccompanied by any bound argument.
func TestDeduceBoxesFreeScalar(t *testing.T) {
	a0 := term.Var("n", nil)
	y := term.Var("y", nil)

	eq := equations.Equation{
		LHS:        term.Binop(term.OpAdd, a0, y),
		RHS:        term.App("h", a0),
		ScalarVars: map[string]bool{"y": true},
	}

	res := Deduce(eq, "h", []string{"y"})

	if res.Outcome != First {
		t.Fatalf("expected First, got %v", res.Outcome)
	}
}

func TestDeduceRejectsOversizedCandidate(t *testing.T) {
	lhs := term.Var("n", nil)
	for i := 0; i < 20; i++ {
		lhs = term.Binop(term.OpAdd, lhs, term.Int(int64(i)))
	}

	eq := equations.Equation{LHS: lhs, RHS: term.App("h", term.Var("n", nil))}

	res := Deduce(eq, "h", nil)

	if res.Outcome == First {
		t.Fatalf("expected the cheap-Occam bound to reject an oversized body, got First")
	}
}

func TestCrossValidateAgreesOnIdenticalBodies(t *testing.T) {
	body := term.Binop(term.OpAdd, term.Box(1, true), term.Int(1))

	results := []Result{
		{Outcome: First, Name: "h", Body: body},
		{Outcome: First, Name: "h", Body: term.Binop(term.OpAdd, term.Box(1, true), term.Int(1))},
	}

	got, ok := CrossValidate(nil, nil, results)
	if !ok {
		t.Fatalf("expected agreement across identical guesses")
	}

	if !term.Equal(got.Body, body) {
		t.Fatalf("merged body mismatch: got %s", got.Body)
	}
}

func TestCrossValidateRejectsDisagreementWithoutSolver(t *testing.T) {
	results := []Result{
		{Outcome: First, Name: "h", Body: term.Int(1)},
		{Outcome: First, Name: "h", Body: term.Int(2)},
	}

	_, ok := CrossValidate(nil, nil, results)
	if ok {
		t.Fatalf("expected disagreeing guesses to be rejected without an SMT port")
	}
}
