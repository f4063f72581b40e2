package pmrs

import (
	"github.com/synduce/synduce/internal/term"
)

// Reduce rewrites t under p by outermost-leftmost application of every
// rule reachable from p.Main, up to a configurable step limit. It returns
// the reduced term and false if the limit was exhausted before reaching a
// form containing no further redexes (an incomplete reduction, reported
// to the loop rather than silently truncated, per spec.md §4.1).
func Reduce(p *PMRS, t *term.Term, limit int) (*term.Term, bool) {
	steps := 0

	return reduceTerm(p, t, &steps, limit)
}

func reduceTerm(p *PMRS, t *term.Term, steps *int, limit int) (*term.Term, bool) {
	if t == nil {
		return nil, true
	}

	if *steps > limit {
		return t, false
	}

	switch t.Kind {
	case term.KConst, term.KVar, term.KBox:
		return t, true

	case term.KTuple:
		elems := make([]*term.Term, len(t.Elems))

		ok := true

		for i, e := range t.Elems {
			var eok bool

			elems[i], eok = reduceTerm(p, e, steps, limit)
			ok = ok && eok
		}

		return term.TupleOf(elems...), ok

	case term.KBinop:
		l, okl := reduceTerm(p, t.L, steps, limit)
		r, okr := reduceTerm(p, t.R, steps, limit)

		if v, folded := foldBinop(t.BOp, l, r); folded {
			return v, okl && okr
		}

		return term.Binop(t.BOp, l, r), okl && okr

	case term.KUnop:
		x, ok := reduceTerm(p, t.X, steps, limit)
		if v, folded := foldUnop(t.UOp, x); folded {
			return v, ok
		}

		return term.Unop(t.UOp, x), ok

	case term.KIte:
		cond, ok := reduceTerm(p, t.Cond, steps, limit)
		if !ok {
			return t, false
		}

		if cond.Kind == term.KConst && cond.ConstKind == term.CBool {
			if cond.BoolVal {
				return reduceTerm(p, t.Then, steps, limit)
			}

			return reduceTerm(p, t.Else, steps, limit)
		}

		then, okT := reduceTerm(p, t.Then, steps, limit)
		els, okE := reduceTerm(p, t.Else, steps, limit)

		return term.Ite(cond, then, els), okT && okE

	case term.KApp:
		return reduceApp(p, t, steps, limit)

	case term.KMatch:
		return reduceMatch(p, t, steps, limit)

	default:
		return t, true
	}
}

func reduceApp(p *PMRS, t *term.Term, steps *int, limit int) (*term.Term, bool) {
	nt, isNT := p.NT(t.Fn)
	if !isNT {
		// Constructor application, a hole ξ, or a free (not-yet-bound)
		// function symbol: leave the head alone, reduce the arguments.
		args := make([]*term.Term, len(t.Args))

		ok := true

		for i, a := range t.Args {
			var aok bool

			args[i], aok = reduceTerm(p, a, steps, limit)
			ok = ok && aok
		}

		return term.App(t.Fn, args...), ok
	}

	if len(t.Args) == 0 {
		return t, true
	}

	recArg, ok := reduceTerm(p, t.Args[0], steps, limit)
	if !ok {
		return t, false
	}

	rule := matchRule(p, nt.ID, recArg)
	if rule == nil {
		// Stuck: the recursion argument is not (yet) in constructor form,
		// e.g. it is a free scalar variable. Return the application with
		// its arguments reduced as far as possible.
		args := make([]*term.Term, len(t.Args))
		args[0] = recArg

		okAll := true

		for i := 1; i < len(t.Args); i++ {
			var aok bool

			args[i], aok = reduceTerm(p, t.Args[i], steps, limit)
			okAll = okAll && aok
		}

		return term.App(t.Fn, args...), okAll
	}

	*steps++
	if *steps > limit {
		return t, false
	}

	sub := map[string]*term.Term{}

	for i, pname := range rule.Params {
		if i == 0 {
			sub[pname] = recArg
		} else if i < len(t.Args) {
			sub[pname] = t.Args[i]
		}
	}

	if rule.PatternVariant != "" {
		for i, b := range rule.PatternBinders {
			if i < len(recArg.Args) {
				sub[b] = recArg.Args[i]
			}
		}
	}

	return reduceTerm(p, term.Substitute(rule.RHS, sub), steps, limit)
}

func reduceMatch(p *PMRS, t *term.Term, steps *int, limit int) (*term.Term, bool) {
	scrut, ok := reduceTerm(p, t.Scrutinee, steps, limit)
	if !ok {
		return t, false
	}

	if scrut.Kind == term.KApp {
		for _, c := range t.Cases {
			if c.Variant != scrut.Fn {
				continue
			}

			sub := map[string]*term.Term{}

			for i, b := range c.Binders {
				if i < len(scrut.Args) {
					sub[b] = scrut.Args[i]
				}
			}

			return reduceTerm(p, term.Substitute(c.Body, sub), steps, limit)
		}
	}

	cases := make([]term.MatchCase, len(t.Cases))
	okAll := true

	for i, c := range t.Cases {
		body, bok := reduceTerm(p, c.Body, steps, limit)
		okAll = okAll && bok
		cases[i] = term.MatchCase{Variant: c.Variant, Binders: c.Binders, Body: body}
	}

	return term.Match(scrut, cases...), okAll
}

// matchRule finds the rule of nt whose pattern matches recArg's head
// constructor, falling back to a wildcard (no-pattern) rule if present.
func matchRule(p *PMRS, nt NTID, recArg *term.Term) *Rule {
	for _, r := range p.RulesOf(nt) {
		if r.PatternVariant == "" {
			return r
		}

		if recArg.Kind == term.KApp && recArg.Fn == r.PatternVariant {
			return r
		}
	}

	return nil
}

func foldBinop(op term.BinOp, l, r *term.Term) (*term.Term, bool) {
	if l.Kind != term.KConst || r.Kind != term.KConst {
		return nil, false
	}

	switch op {
	case term.OpAdd:
		return term.Int(l.IntVal + r.IntVal), true
	case term.OpSub:
		return term.Int(l.IntVal - r.IntVal), true
	case term.OpMul:
		return term.Int(l.IntVal * r.IntVal), true
	case term.OpDiv:
		if r.IntVal == 0 {
			return nil, false
		}

		return term.Int(l.IntVal / r.IntVal), true
	case term.OpMod:
		if r.IntVal == 0 {
			return nil, false
		}

		return term.Int(l.IntVal % r.IntVal), true
	case term.OpMin:
		if l.IntVal < r.IntVal {
			return term.Int(l.IntVal), true
		}

		return term.Int(r.IntVal), true
	case term.OpMax:
		if l.IntVal > r.IntVal {
			return term.Int(l.IntVal), true
		}

		return term.Int(r.IntVal), true
	case term.OpEq:
		return term.Bool(constEqual(l, r)), true
	case term.OpNeq:
		return term.Bool(!constEqual(l, r)), true
	case term.OpLt:
		return term.Bool(l.IntVal < r.IntVal), true
	case term.OpLe:
		return term.Bool(l.IntVal <= r.IntVal), true
	case term.OpGt:
		return term.Bool(l.IntVal > r.IntVal), true
	case term.OpGe:
		return term.Bool(l.IntVal >= r.IntVal), true
	case term.OpAnd:
		return term.Bool(l.BoolVal && r.BoolVal), true
	case term.OpOr:
		return term.Bool(l.BoolVal || r.BoolVal), true
	default:
		return nil, false
	}
}

func constEqual(l, r *term.Term) bool {
	if l.ConstKind != r.ConstKind {
		return false
	}

	switch l.ConstKind {
	case term.CInt:
		return l.IntVal == r.IntVal
	case term.CBool:
		return l.BoolVal == r.BoolVal
	default:
		return l.StrVal == r.StrVal
	}
}

func foldUnop(op term.UnOp, x *term.Term) (*term.Term, bool) {
	if x.Kind != term.KConst {
		return nil, false
	}

	switch op {
	case term.OpNeg:
		return term.Int(-x.IntVal), true
	case term.OpNot:
		return term.Bool(!x.BoolVal), true
	default:
		return nil, false
	}
}
