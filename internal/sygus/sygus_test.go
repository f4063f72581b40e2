package sygus

import (
	"strings"
	"testing"

	"github.com/synduce/synduce/internal/equations"
	"github.com/synduce/synduce/internal/grammar"
	"github.com/synduce/synduce/internal/term"
	"github.com/synduce/synduce/internal/typeterm"
)

func TestBuildScriptDeclaresOneSynthFunPerHole(t *testing.T) {
	eq := equations.Equation{
		LHS: term.App("h", term.Var("x", typeterm.Int())),
		RHS: term.Binop(term.OpAdd, term.Var("x", typeterm.Int()), term.Int(1)),
	}

	script := BuildScript(
		[]equations.Equation{eq},
		[]Hole{{Name: "h", Locals: []grammar.Local{{Name: "x", Sort: "Int"}}, Sort: "Int"}},
		nil, grammar.OpSet{Ops: []string{"+"}}, false,
	)

	if len(script.SynthFuns) != 1 || script.SynthFuns[0].Name != "h" {
		t.Fatalf("expected exactly one synth-fun named 'h', got %+v", script.SynthFuns)
	}

	if len(script.Constraints) != 1 {
		t.Fatalf("expected one constraint per equation, got %d", len(script.Constraints))
	}

	if !strings.Contains(script.Constraints[0], "(= (h x) (+ x 1))") {
		t.Fatalf("unexpected constraint: %s", script.Constraints[0])
	}
}

func TestBuildScriptDeclaresFreeVariablesOnce(t *testing.T) {
	x := term.Var("x", typeterm.Int())

	eqs := []equations.Equation{
		{LHS: x, RHS: term.Int(1)},
		{LHS: x, RHS: term.Int(2)},
	}

	script := BuildScript(eqs, nil, nil, grammar.OpSet{}, false)

	if len(script.DeclareVars) != 1 {
		t.Fatalf("expected 'x' to be declared exactly once across both equations, got %d", len(script.DeclareVars))
	}
}

func TestBuildScriptWrapsConstraintInPreconditionImplication(t *testing.T) {
	eq := equations.Equation{
		Pre: term.Bool(true),
		LHS: term.Int(1),
		RHS: term.Int(1),
	}

	script := BuildScript([]equations.Equation{eq}, nil, nil, grammar.OpSet{}, false)

	if !strings.HasPrefix(script.Constraints[0], "(=> true ") {
		t.Fatalf("expected a precondition-guarded constraint, got %s", script.Constraints[0])
	}
}

func TestBuildScriptChoosesLogicFromDatatypeUsage(t *testing.T) {
	if got := BuildScript(nil, nil, nil, grammar.OpSet{}, true).Logic; got != "DTLIA" {
		t.Errorf("expected DTLIA when datatypes are in scope, got %q", got)
	}

	if got := BuildScript(nil, nil, nil, grammar.OpSet{}, false).Logic; got != "LIA" {
		t.Errorf("expected LIA with no datatypes in scope, got %q", got)
	}
}

func TestRenderRoundTripsThroughParseSExprTerm(t *testing.T) {
	original := term.Ite(
		term.Binop(term.OpLt, term.Var("x", nil), term.Int(0)),
		term.Unop(term.OpNeg, term.Var("x", nil)),
		term.Var("x", nil),
	)

	parsed, err := ParseSExprTerm(Render(original))
	if err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}

	if !term.Equal(parsed, original) {
		t.Fatalf("round trip mismatch: rendered %q, parsed back as %s", Render(original), parsed)
	}
}

func TestParseSExprTermParsesTuplesAndBooleans(t *testing.T) {
	got, err := ParseSExprTerm("(mkTuple 1 true)")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := term.TupleOf(term.Int(1), term.Bool(true))
	if !term.Equal(got, want) {
		t.Fatalf("got %s, want %s", got, want)
	}
}

func TestParseSExprTermRejectsTrailingTokens(t *testing.T) {
	if _, err := ParseSExprTerm("1 2"); err == nil {
		t.Fatalf("expected an error for trailing tokens after a complete expression")
	}
}

func TestSortOfMapsBoolAndTuplesAndDefaultsToInt(t *testing.T) {
	if got := SortOf(typeterm.Bool()); got != "Bool" {
		t.Errorf("SortOf(Bool) = %q, want Bool", got)
	}

	if got := SortOf(typeterm.Tuple(typeterm.Int(), typeterm.Bool())); got != "(Tuple Int Bool)" {
		t.Errorf("SortOf(tuple) = %q, want (Tuple Int Bool)", got)
	}

	if got := SortOf(nil); got != "Int" {
		t.Errorf("SortOf(nil) = %q, want Int", got)
	}
}
