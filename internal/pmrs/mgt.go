package pmrs

import (
	"github.com/synduce/synduce/internal/synctx"
	"github.com/synduce/synduce/internal/term"
	"github.com/synduce/synduce/internal/typeterm"
)

// SubstRuleRHS rebuilds a rule's right-hand side under a substitution,
// returning a new Rule value (rules are arena entries, not shared
// pointers, so this never mutates the original).
func SubstRuleRHS(r Rule, sub map[string]*term.Term) Rule {
	r.RHS = term.Substitute(r.RHS, sub)
	return r
}

// FuncDef is the ordinary-function projection of one non-terminal's rule
// set, used by C6 to encode a PMRS as SMT-LIB define-fun bodies: a single
// parameter list plus a body that pattern-matches explicitly on the
// recursion argument (its shape mirrors what the SMT-LIB `match` term
// needs once a datatype declaration exists for the scrutinee's sum type).
type FuncDef struct {
	Name   string
	Params []string
	Body   *term.Term // term.KMatch over Params[0] if the non-terminal pattern-matches, else a plain body.
}

// FuncOfPMRS projects every non-terminal of p to its FuncDef, keyed by
// non-terminal name.
func FuncOfPMRS(p *PMRS) map[string]FuncDef {
	out := make(map[string]FuncDef, len(p.NTs))

	for _, nt := range p.NTs {
		rules := p.RulesOf(nt.ID)
		if len(rules) == 0 {
			continue
		}

		params := freshParamNames(len(rules[0].Params))

		var body *term.Term

		hasPattern := false

		for _, r := range rules {
			if r.PatternVariant != "" {
				hasPattern = true
			}
		}

		if !hasPattern {
			sub := renameSub(rules[0].Params, params)
			body = term.Substitute(rules[0].RHS, sub)
		} else {
			cases := make([]term.MatchCase, 0, len(rules))

			for _, r := range rules {
				if r.PatternVariant == "" {
					continue
				}

				sub := renameSub(r.Params, params)
				for _, b := range r.PatternBinders {
					sub[b] = term.Var(b, nil)
				}

				cases = append(cases, term.MatchCase{
					Variant: r.PatternVariant,
					Binders: r.PatternBinders,
					Body:    term.Substitute(r.RHS, sub),
				})
			}

			body = term.Match(term.Var(params[0], nil), cases...)
		}

		out[nt.Name] = FuncDef{Name: nt.Name, Params: params, Body: body}
	}

	return out
}

func freshParamNames(n int) []string {
	names := make([]string, n)
	for i := range names {
		if i == 0 {
			names[i] = "x"
		} else {
			names[i] = "a" + string(rune('0'+i))
		}
	}

	return names
}

func renameSub(from, to []string) map[string]*term.Term {
	sub := make(map[string]*term.Term, len(from))

	for i, f := range from {
		if i < len(to) {
			sub[f] = term.Var(to[i], nil)
		}
	}

	return sub
}

// UnifyTwoWithUpdate unifies the reference's domain against the
// representation's codomain, and the target's domain against the
// representation's domain, committing both results into a single
// substitution (spec.md §4.2: "commit the resulting substitution to the
// global variable-type environment" — here, the caller applies the
// returned substitution to whatever types it holds, since typeterm.Type
// values are immutable and not mutated in place).
func UnifyTwoWithUpdate(refDomain, reprCodomain, tgtDomain, reprDomain *typeterm.Type) (typeterm.VarSubst, error) {
	s, err := typeterm.UnifyOne(refDomain, reprCodomain, typeterm.VarSubst{})
	if err != nil {
		return nil, err
	}

	return typeterm.UnifyOne(tgtDomain, reprDomain, s)
}

// MostGeneralTerms computes, for each hole of the target PMRS, the family
// of most-general terms at the input of Main that exercise every pattern
// arm reachable from Main — one term per top-level rule of Main, with
// fresh scalar variables standing in for constructor payload fields and
// for non-recursion-argument parameters.
//
// This is the initial term set C10 seeds BuildEqs with (spec.md §4.10,
// Init -> BuildEqs). The full construction sketched in spec.md §4.2 walks
// the rule dependency graph backwards from every rule that mentions a
// hole; this implementation specializes that to the common case where
// holes occur directly in Main's own rules (true of every scenario in
// spec.md §8).
func MostGeneralTerms(ctx *synctx.Context, p *PMRS) []*term.Term {
	main := p.NTs[p.Main]

	var out []*term.Term

	for _, r := range p.RulesOf(p.Main) {
		args := make([]*term.Term, len(main.ParamTypes))

		if r.PatternVariant == "" {
			for i := range args {
				typ := paramType(main, i)
				args[i] = term.Var(ctx.FreshName("x"), typ)
			}
		} else {
			fields := make([]*term.Term, len(r.PatternBinders))
			for i := range fields {
				fields[i] = term.Var(ctx.FreshName("b"), nil)
			}

			args[0] = term.App(r.PatternVariant, fields...)

			for i := 1; i < len(args); i++ {
				args[i] = term.Var(ctx.FreshName("x"), paramType(main, i))
			}
		}

		out = append(out, term.App(main.Name, args...))
	}

	return out
}

func paramType(nt NTDecl, i int) *typeterm.Type {
	if i < len(nt.ParamTypes) {
		return nt.ParamTypes[i]
	}

	return nil
}
