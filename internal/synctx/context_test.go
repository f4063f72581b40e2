package synctx

import "testing"

func TestNewStartsCountersAtZeroWithFreshRegistry(t *testing.T) {
	c := New(Adapters{})

	if c.Registry == nil {
		t.Fatalf("expected New to construct a registry")
	}

	if got := c.FreshTermID(); got != 1 {
		t.Fatalf("expected the first fresh term id to be 1, got %d", got)
	}
}

func TestFreshAllocatorsAreMonotonicAndDistinct(t *testing.T) {
	c := New(Adapters{})

	if c.FreshTypeVar() == c.FreshTypeVar() {
		t.Fatalf("expected successive FreshTypeVar calls to differ")
	}

	if a, b := c.FreshRuleID(), c.FreshRuleID(); a == b {
		t.Fatalf("expected successive FreshRuleID calls to differ, got %d twice", a)
	}

	if a, b := c.FreshBoxID(), c.FreshBoxID(); a == b {
		t.Fatalf("expected successive FreshBoxID calls to differ, got %d twice", a)
	}
}

func TestFreshNameIsPrefixedAndUnique(t *testing.T) {
	c := New(Adapters{})

	a := c.FreshName("h")
	b := c.FreshName("h")

	if a == b {
		t.Fatalf("expected two FreshName(\"h\") calls to produce distinct names")
	}

	if a[0] != 'h' || b[0] != 'h' {
		t.Fatalf("expected both fresh names to carry the given prefix, got %q and %q", a, b)
	}
}

func TestReinitResetsCountersAndPreservesRegistryUnlessFull(t *testing.T) {
	c := New(Adapters{})
	c.FreshTermID()
	c.FreshTermID()

	registry := c.Registry

	c.Reinit(false)

	if c.Registry != registry {
		t.Fatalf("expected Reinit(false) to keep the existing registry")
	}

	if got := c.FreshTermID(); got != 1 {
		t.Fatalf("expected Reinit to reset the fresh-term counter, got %d", got)
	}

	c.Reinit(true)

	if c.Registry == registry {
		t.Fatalf("expected Reinit(true) to replace the registry")
	}
}
