package grammar

import (
	"strings"
	"testing"
)

func TestGenerateIncludesIntLocalsAndOperators(t *testing.T) {
	g := Generate("Int", []Local{{Name: "x", Sort: "Int"}}, OpSet{Ops: []string{"+", "-"}}, nil)

	for _, want := range []string{"Ix Int", "x", "(+ Ix Ix)", "(- Ix Ix)"} {
		if !strings.Contains(g.String(), want) {
			t.Errorf("expected grammar to contain %q, got %s", want, g.String())
		}
	}
}

func TestGenerateMultiplicationGatedByOpSet(t *testing.T) {
	withConst := Generate("Int", nil, OpSet{Ops: []string{"*"}, AllowMultiplicationByConst: true}, nil)
	if !strings.Contains(withConst.String(), "(* Ic Ix)") {
		t.Fatalf("expected (* Ic Ix) when AllowMultiplicationByConst is set")
	}

	withoutConst := Generate("Int", nil, OpSet{Ops: []string{"*"}}, nil)
	if strings.Contains(withoutConst.String(), "(* Ic Ix)") {
		t.Fatalf("did not expect (* Ic Ix) when neither multiplication flag is set")
	}

	nonlinear := Generate("Int", nil, OpSet{Ops: []string{"*"}, AllowNonlinear: true}, nil)
	if !strings.Contains(nonlinear.String(), "(* Ix Ix)") {
		t.Fatalf("expected (* Ix Ix) when AllowNonlinear is set")
	}
}

func TestGenerateProjectsTupleArgsIntoSelectors(t *testing.T) {
	g := Generate("Int", []Local{{Name: "p", Sort: "(Tuple Int Bool)"}}, OpSet{}, nil)

	if !strings.Contains(g.String(), "tupSel") {
		t.Fatalf("expected a tuple-typed local to be projected into selector expressions, got %s", g.String())
	}
}

func TestGenerateAddsIStartFromGuessSkeleton(t *testing.T) {
	g := Generate("Int", nil, OpSet{}, &Skeleton{Shapes: []string{"(+ x 1)", "x"}})

	if !strings.Contains(g.String(), "IStart") {
		t.Fatalf("expected a guess skeleton to add an IStart nonterminal")
	}
}

func TestGenerateOmitsIStartWithoutGuess(t *testing.T) {
	g := Generate("Int", nil, OpSet{}, nil)

	if strings.Contains(g.String(), "IStart") {
		t.Fatalf("did not expect an IStart nonterminal with no guess skeleton")
	}
}

func TestRecomputeLogic(t *testing.T) {
	if got, want := RecomputeLogic(true), "DTLIA"; got != want {
		t.Errorf("RecomputeLogic(true) = %q, want %q", got, want)
	}

	if got, want := RecomputeLogic(false), "LIA"; got != want {
		t.Errorf("RecomputeLogic(false) = %q, want %q", got, want)
	}
}
