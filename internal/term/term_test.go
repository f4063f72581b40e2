package term

import (
	"testing"

	"github.com/synduce/synduce/internal/typeterm"
)

func TestStringRendersEachKind(t *testing.T) {
	cases := []struct {
		name string
		t    *Term
		want string
	}{
		{"int", Int(3), "3"},
		{"bool", Bool(true), "true"},
		{"str", Str("x"), `"x"`},
		{"var", Var("n", nil), "n"},
		{"tuple", TupleOf(Int(1), Int(2)), "(1, 2)"},
		{"binop", Binop(OpAdd, Int(1), Int(2)), "(1 + 2)"},
		{"unop", Unop(OpNeg, Int(1)), "-1"},
		{"ite", Ite(Bool(true), Int(1), Int(2)), "(if true then 1 else 2)"},
		{"app", App("f", Int(1), Int(2)), "f 1 2"},
		{"box-positive", Box(1, true), "#1"},
		{"box-free", Box(1, false), "?1"},
		{"nil", nil, "<nil>"},
	}

	for _, tc := range cases {
		if got := tc.t.String(); got != tc.want {
			t.Errorf("%s: String() = %q, want %q", tc.name, got, tc.want)
		}
	}
}

func TestFreeVarsExcludesAppNameAndMatchBinders(t *testing.T) {
	n := Var("n", nil)
	acc := Var("acc", nil)

	body := Match(n,
		MatchCase{Variant: "Zero", Binders: nil, Body: acc},
		MatchCase{Variant: "Succ", Binders: []string{"m"}, Body: App("f", Var("m", nil), acc)},
	)

	fv := FreeVars(body)

	if _, ok := fv["n"]; !ok {
		t.Errorf("expected scrutinee 'n' to be free")
	}

	if _, ok := fv["acc"]; !ok {
		t.Errorf("expected 'acc' to be free (used in both case bodies)")
	}

	if _, ok := fv["m"]; ok {
		t.Errorf("'m' is bound by the Succ case, must not be free")
	}

	if _, ok := fv["f"]; ok {
		t.Errorf("KApp's Fn is a function name, not a free variable")
	}
}

func TestSubstituteRespectsMatchBinderShadowing(t *testing.T) {
	// match n with | Succ m -> m  -- substituting m=7 from outside must not
	// touch the case-local binder m.
	body := Match(Var("n", nil), MatchCase{Variant: "Succ", Binders: []string{"m"}, Body: Var("m", nil)})

	out := Substitute(body, map[string]*Term{"m": Int(7)})

	got := out.Cases[0].Body
	if got.Kind != KVar || got.Name != "m" {
		t.Fatalf("shadowed binder was substituted: got %s", got)
	}
}

func TestSubstituteReplacesFreeOccurrence(t *testing.T) {
	out := Substitute(Binop(OpAdd, Var("x", nil), Int(1)), map[string]*Term{"x": Int(5)})

	if got, want := out.String(), "(5 + 1)"; got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestEqualIgnoresTypeAnnotations(t *testing.T) {
	a := Var("x", nil)
	b := &Term{Kind: KVar, Name: "x", Type: typeterm.Int()}

	if !Equal(a, b) {
		t.Fatalf("expected structurally identical terms to be Equal regardless of Type")
	}

	if Equal(Int(1), Int(2)) {
		t.Fatalf("distinct constants must not be Equal")
	}
}

func TestSizeCountsNodes(t *testing.T) {
	// (1 + 2) has 3 nodes: the binop plus its two operands.
	if got, want := Size(Binop(OpAdd, Int(1), Int(2))), 3; got != want {
		t.Fatalf("Size = %d, want %d", got, want)
	}

	if got, want := Size(nil), 0; got != want {
		t.Fatalf("Size(nil) = %d, want %d", got, want)
	}
}

func TestMatchesSubpatternBindsPatternVariables(t *testing.T) {
	// pattern: x + x (same variable twice) should only match a concrete
	// term whose two operands are equal.
	x := Var("x", nil)
	pattern := Binop(OpAdd, x, x)

	if _, ok := MatchesSubpattern(Binop(OpAdd, Int(3), Int(4)), pattern); ok {
		t.Fatalf("expected mismatch: operands differ but pattern reuses one variable")
	}

	sub, ok := MatchesSubpattern(Binop(OpAdd, Int(3), Int(3)), pattern)
	if !ok {
		t.Fatalf("expected match when both operands agree with the repeated pattern variable")
	}

	if got := sub["x"].String(); got != "3" {
		t.Fatalf("bound x = %q, want %q", got, "3")
	}
}

func TestContainsAppFindsNestedApplication(t *testing.T) {
	body := Ite(Bool(true), App("f", Int(1)), Int(0))

	if !ContainsApp(body, "f") {
		t.Fatalf("expected to find application of 'f' nested under ite")
	}

	if ContainsApp(body, "g") {
		t.Fatalf("must not report an application that isn't present")
	}
}
