package sygus

import (
	"github.com/synduce/synduce/internal/equations"
	"github.com/synduce/synduce/internal/term"
)

// Simplify canonicalizes an equation's sides: it folds +, -, *, and, or
// over constant operands, drops identity operands (0 in +, 1 in *, true in
// and, false in or), and folds `not` of a constant and an ite with a
// constant condition. Associative chains are not flattened. Simplification
// preserves logical equivalence (spec.md §4.6); it never drops a side
// condition or reorders operands across a non-commutative operator.
func Simplify(eq equations.Equation) equations.Equation {
	eq.LHS = simplifyTerm(eq.LHS)
	eq.RHS = simplifyTerm(eq.RHS)

	if eq.Pre != nil {
		eq.Pre = simplifyTerm(eq.Pre)
	}

	return eq
}

func simplifyTerm(t *term.Term) *term.Term {
	if t == nil {
		return nil
	}

	switch t.Kind {
	case term.KBinop:
		l := simplifyTerm(t.L)
		r := simplifyTerm(t.R)

		if folded := foldConstBinop(t.BOp, l, r); folded != nil {
			return folded
		}

		return term.Binop(t.BOp, l, r)
	case term.KUnop:
		x := simplifyTerm(t.X)
		if x.Kind == term.KConst && x.ConstKind == term.CBool && t.UOp == term.OpNot {
			return term.Bool(!x.BoolVal)
		}

		return term.Unop(t.UOp, x)
	case term.KIte:
		cond := simplifyTerm(t.Cond)
		then := simplifyTerm(t.Then)
		els := simplifyTerm(t.Else)

		if cond.Kind == term.KConst && cond.ConstKind == term.CBool {
			if cond.BoolVal {
				return then
			}

			return els
		}

		return term.Ite(cond, then, els)
	case term.KTuple:
		elems := make([]*term.Term, len(t.Elems))
		for i, e := range t.Elems {
			elems[i] = simplifyTerm(e)
		}

		return term.TupleOf(elems...)
	case term.KApp:
		args := make([]*term.Term, len(t.Args))
		for i, a := range t.Args {
			args[i] = simplifyTerm(a)
		}

		return term.App(t.Fn, args...)
	default:
		return t
	}
}

func foldConstBinop(op term.BinOp, l, r *term.Term) *term.Term {
	if l.Kind != term.KConst || r.Kind != term.KConst {
		// Associative-identity simplifications that do not require both
		// sides to be constant: x+0, x*1, x&&true, x||false.
		switch op {
		case term.OpAdd:
			if isIntConst(r, 0) {
				return l
			}

			if isIntConst(l, 0) {
				return r
			}
		case term.OpMul:
			if isIntConst(r, 1) {
				return l
			}

			if isIntConst(l, 1) {
				return r
			}
		case term.OpAnd:
			if isBoolConst(r, true) {
				return l
			}

			if isBoolConst(l, true) {
				return r
			}
		case term.OpOr:
			if isBoolConst(r, false) {
				return l
			}

			if isBoolConst(l, false) {
				return r
			}
		}

		return nil
	}

	switch op {
	case term.OpAdd:
		return term.Int(l.IntVal + r.IntVal)
	case term.OpSub:
		return term.Int(l.IntVal - r.IntVal)
	case term.OpMul:
		return term.Int(l.IntVal * r.IntVal)
	case term.OpAnd:
		return term.Bool(l.BoolVal && r.BoolVal)
	case term.OpOr:
		return term.Bool(l.BoolVal || r.BoolVal)
	default:
		return nil
	}
}

func isIntConst(t *term.Term, v int64) bool {
	return t.Kind == term.KConst && t.ConstKind == term.CInt && t.IntVal == v
}

func isBoolConst(t *term.Term, v bool) bool {
	return t.Kind == term.KConst && t.ConstKind == term.CBool && t.BoolVal == v
}
