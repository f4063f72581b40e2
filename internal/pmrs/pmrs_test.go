package pmrs

import (
	"testing"

	"github.com/synduce/synduce/internal/term"
	"github.com/synduce/synduce/internal/typeterm"
)

// natLen builds a one non-terminal PMRS computing the length of a
// Peano-encoded natural: f(Zero) -> 0, f(Succ n) -> 1 + f(n).
func natLen() *PMRS {
	p := New()

	nat := typeterm.Sum("nat")
	f := p.AddNT("f", []*typeterm.Type{nat}, typeterm.Int())
	p.Main = f

	p.AddRule(Rule{NT: f, Params: []string{"x"}, PatternVariant: "Zero", RHS: term.Int(0)})
	p.AddRule(Rule{
		NT: f, Params: []string{"x"}, PatternVariant: "Succ", PatternBinders: []string{"n"},
		RHS: term.Binop(term.OpAdd, term.Int(1), term.App("f", term.Var("n", nil))),
	})

	return p
}

func TestReduceRecursesThroughMatchedRules(t *testing.T) {
	p := natLen()

	three := term.App("Succ", term.App("Succ", term.App("Succ", term.App("Zero"))))
	got, complete := Reduce(p, term.App("f", three), 100)

	if !complete {
		t.Fatalf("expected reduction to complete within the step limit")
	}

	if got.Kind != term.KConst || got.IntVal != 3 {
		t.Fatalf("got %s, want 3", got)
	}
}

func TestReduceStopsAtStepLimit(t *testing.T) {
	p := natLen()

	three := term.App("Succ", term.App("Succ", term.App("Succ", term.App("Zero"))))

	// One rule application isn't enough to reach a normal form three deep.
	_, complete := Reduce(p, term.App("f", three), 1)
	if complete {
		t.Fatalf("expected an incomplete reduction when the step limit is too small")
	}
}

func TestReduceLeavesStuckApplicationOnFreeVariable(t *testing.T) {
	p := natLen()

	// f(x) where x is a free variable can't match either pattern: the
	// engine must return a stuck application, not panic or silently fold.
	got, complete := Reduce(p, term.App("f", term.Var("x", nil)), 100)

	if !complete {
		t.Fatalf("a stuck (not over-limit) reduction is still 'complete'")
	}

	if got.Kind != term.KApp || got.Fn != "f" {
		t.Fatalf("expected a stuck application of 'f', got %s", got)
	}
}

func TestRulesOfOrdersWildcardLast(t *testing.T) {
	p := New()
	g := p.AddNT("g", nil, typeterm.Int())

	p.Main = g

	wildcard := p.AddRule(Rule{NT: g, RHS: term.Int(0)})
	matched := p.AddRule(Rule{NT: g, PatternVariant: "Foo", RHS: term.Int(1)})

	rules := p.RulesOf(g)
	if len(rules) != 2 {
		t.Fatalf("expected 2 rules, got %d", len(rules))
	}

	if rules[0].ID != matched || rules[1].ID != wildcard {
		t.Fatalf("expected the matched-variant rule before the wildcard")
	}
}

func TestValidateRejectsMainWithoutRecursionArgument(t *testing.T) {
	p := New()
	p.Main = p.AddNT("f", nil, typeterm.Int())

	if err := p.Validate(); err == nil {
		t.Fatalf("expected Validate to reject a main non-terminal with no parameters")
	}
}

func TestValidateRejectsHoleCollidingWithNonTerminal(t *testing.T) {
	p := New("f")
	p.Main = p.AddNT("f", []*typeterm.Type{typeterm.Int()}, typeterm.Int())

	if err := p.Validate(); err == nil {
		t.Fatalf("expected Validate to reject a hole name that collides with a non-terminal")
	}
}

func TestValidateAcceptsWellFormedPMRS(t *testing.T) {
	p := natLen()

	if err := p.Validate(); err != nil {
		t.Fatalf("unexpected error validating a well-formed PMRS: %v", err)
	}
}

func TestIsHole(t *testing.T) {
	p := New("h1", "h2")

	if !p.IsHole("h1") || !p.IsHole("h2") {
		t.Fatalf("expected declared params to be recognized as holes")
	}

	if p.IsHole("f") {
		t.Fatalf("a non-terminal name must not be reported as a hole")
	}
}
