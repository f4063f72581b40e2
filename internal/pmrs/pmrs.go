// Package pmrs implements the Pattern-Matching Recursion Scheme
// representation (C2): a tuple (params, non-terminals, main, rules),
// outermost-leftmost reduction under a configurable step limit, the
// ordinary-function projection used for SMT encoding, and most-general-term
// computation for hole coverage.
//
// Rules and non-terminals are addressed by small integer ids into slices
// owned by the PMRS value itself — an arena, per this project's design
// note on representing rule graphs without pointer-ownership cycles
// (spec.md §9design note 1) — rather than by *Rule pointers, since
// non-terminals may be mutually recursive.
package pmrs

import (
	"fmt"

	"github.com/synduce/synduce/internal/term"
	"github.com/synduce/synduce/internal/typeterm"
)

// NTID addresses a non-terminal in a PMRS's arena.
type NTID int

// RuleID addresses a rule in a PMRS's arena.
type RuleID int

// NTDecl declares one non-terminal: its name, the types of its bound
// parameters (the recursion argument is conventionally Params[0]), and its
// return type.
type NTDecl struct {
	ID         NTID
	Name       string
	ParamTypes []*typeterm.Type
	ReturnType *typeterm.Type
}

// Rule has the shape `nt a1…ak (C b1…bm)? -> rhs`. PatternVariant == ""
// marks a rule with no constructor pattern (applies unconditionally —
// used for non-terminals whose recursion argument is already scalar, such
// as an identity representation function).
type Rule struct {
	ID             RuleID
	NT             NTID
	Params         []string
	PatternVariant string
	PatternBinders []string
	RHS            *term.Term
}

// PMRS is the (params, non-terminals, main, rules) tuple. Params are the
// holes ξ (free variables distinct from any non-terminal or bound
// variable) — empty for the reference and representation PMRSs, non-empty
// for the target.
type PMRS struct {
	Params []string
	NTs    []NTDecl
	Main   NTID
	rules  []Rule
}

// New creates an empty PMRS with the given holes.
func New(params ...string) *PMRS {
	return &PMRS{Params: params}
}

// AddNT declares a new non-terminal and returns its id.
func (p *PMRS) AddNT(name string, paramTypes []*typeterm.Type, ret *typeterm.Type) NTID {
	id := NTID(len(p.NTs))
	p.NTs = append(p.NTs, NTDecl{ID: id, Name: name, ParamTypes: paramTypes, ReturnType: ret})

	return id
}

// AddRule appends a rule to the arena and returns its id.
func (p *PMRS) AddRule(r Rule) RuleID {
	r.ID = RuleID(len(p.rules))
	p.rules = append(p.rules, r)

	return r.ID
}

// Rule dereferences a RuleID.
func (p *PMRS) Rule(id RuleID) *Rule { return &p.rules[id] }

// Rules returns every rule in insertion order (deterministic, per spec.md
// §5's ordering guarantee).
func (p *PMRS) Rules() []Rule { return p.rules }

// RulesOf returns every rule belonging to a non-terminal, in insertion
// order, with the wildcard (no-pattern) rule last if present.
func (p *PMRS) RulesOf(nt NTID) []*Rule {
	var (
		matched  []*Rule
		wildcard *Rule
	)

	for i := range p.rules {
		r := &p.rules[i]
		if r.NT != nt {
			continue
		}

		if r.PatternVariant == "" {
			wildcard = r
		} else {
			matched = append(matched, r)
		}
	}

	if wildcard != nil {
		matched = append(matched, wildcard)
	}

	return matched
}

// NT looks up a non-terminal declaration by name.
func (p *PMRS) NT(name string) (NTDecl, bool) {
	for _, nt := range p.NTs {
		if nt.Name == name {
			return nt, true
		}
	}

	return NTDecl{}, false
}

// IsHole reports whether name is one of this PMRS's params (an unknown
// scalar function to synthesize).
func (p *PMRS) IsHole(name string) bool {
	for _, h := range p.Params {
		if h == name {
			return true
		}
	}

	return false
}

// Validate checks that Main is a known non-terminal taking at least one
// (recursion) argument and that params are disjoint from non-terminal
// names. Pattern variants are not checked against any type declaration.
func (p *PMRS) Validate() error {
	if int(p.Main) >= len(p.NTs) {
		return fmt.Errorf("pmrs: main non-terminal id %d out of range", p.Main)
	}

	main := p.NTs[p.Main]
	if len(main.ParamTypes) == 0 {
		return fmt.Errorf("pmrs: main non-terminal %q must take a recursion argument", main.Name)
	}

	ntNames := map[string]bool{}
	for _, nt := range p.NTs {
		ntNames[nt.Name] = true
	}

	for _, h := range p.Params {
		if ntNames[h] {
			return fmt.Errorf("pmrs: hole %q collides with a non-terminal name", h)
		}
	}

	return nil
}
