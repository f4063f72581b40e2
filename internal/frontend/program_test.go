package frontend

import "testing"

func TestBuildProgramScalarHole(t *testing.T) {
	src := `let spec (x: int) : int = x + 1
let target (x: int) : int = h x`

	f, errs := ParseFile("t.ml", src)
	if len(errs) != 0 {
		t.Fatalf("parse errors: %v", errs)
	}

	prog, errs := BuildProgram(f, DefaultNames())
	if len(errs) != 0 {
		t.Fatalf("build errors: %v", errs)
	}

	if prog.Target == nil || prog.Spec == nil {
		t.Fatalf("expected both target and spec to be built")
	}

	if len(prog.Holes) != 1 || prog.Holes[0] != "h" {
		t.Fatalf("expected hole set {h}, got %v", prog.Holes)
	}

	if len(prog.Target.Params) != 1 || prog.Target.Params[0] != "h" {
		t.Fatalf("expected target.Params = [h], got %v", prog.Target.Params)
	}

	mainNT := prog.Target.NTs[prog.Target.Main]
	if mainNT.Name != "target" {
		t.Fatalf("expected main non-terminal \"target\", got %q", mainNT.Name)
	}
}

func TestBuildProgramUndefinedReferenceInSpecIsError(t *testing.T) {
	src := `let spec (x: int) : int = undefinedHelper x
let target (x: int) : int = h x`

	f, _ := ParseFile("t.ml", src)

	_, errs := BuildProgram(f, DefaultNames())
	if len(errs) == 0 {
		t.Fatalf("expected an undefined-reference error for spec, which may not contain holes")
	}
}

func TestBuildProgramWithMatchLowersToPerVariantRules(t *testing.T) {
	src := `type ilist = | Nil | Cons of int * ilist
let rec spec (l: ilist) : int =
  match l with
  | Nil -> 0
  | Cons hd tl -> hd + spec tl
let target (l: ilist) : int = h l`

	f, errs := ParseFile("t.ml", src)
	if len(errs) != 0 {
		t.Fatalf("parse errors: %v", errs)
	}

	prog, errs := BuildProgram(f, DefaultNames())
	if len(errs) != 0 {
		t.Fatalf("build errors: %v", errs)
	}

	specNT, ok := prog.Spec.NT("spec")
	if !ok {
		t.Fatalf("expected spec non-terminal to exist")
	}

	rules := prog.Spec.RulesOf(specNT.ID)
	if len(rules) != 2 {
		t.Fatalf("expected 2 rules (Nil, Cons), got %d", len(rules))
	}

	if rules[0].PatternVariant != "Nil" || rules[1].PatternVariant != "Cons" {
		t.Fatalf("unexpected pattern variants: %q, %q", rules[0].PatternVariant, rules[1].PatternVariant)
	}

	if len(rules[1].PatternBinders) != 2 {
		t.Fatalf("expected 2 binders on the Cons rule, got %v", rules[1].PatternBinders)
	}
}

func TestLowerPMRSFileRoundTrips(t *testing.T) {
	src := `nt f(int): int
f x (Z) -> x
f x -> h x`

	pf, errs := ParsePMRSFile("t.pmrs", src)
	if len(errs) != 0 {
		t.Fatalf("parse errors: %v", errs)
	}

	p, errs := LowerPMRSFile(pf, "f", true)
	if len(errs) != 0 {
		t.Fatalf("lowering errors: %v", errs)
	}

	nt, ok := p.NT("f")
	if !ok || p.Main != nt.ID {
		t.Fatalf("expected main non-terminal f, got %+v", p.NTs)
	}

	rules := p.Rules()
	if len(rules) != 2 {
		t.Fatalf("expected 2 rules, got %d", len(rules))
	}

	if len(p.Params) != 1 || p.Params[0] != "h" {
		t.Fatalf("expected hole set {h}, got %v", p.Params)
	}
}
