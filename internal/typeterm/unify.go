package typeterm

import "fmt"

// VarSubst maps a fresh inference variable to the type it was bound to.
type VarSubst map[VarID]*Type

// UnifyError is returned by UnifyOne/Unify on failure; it is a diagnostic
// value, never a panic, per the core's error taxonomy (class 2/3 errors
// never crash the loop — only class 5 internal-invariant violations do).
type UnifyError struct {
	Reason string
	A, B   *Type
}

func (e *UnifyError) Error() string {
	return fmt.Sprintf("cannot unify %s with %s: %s", e.A, e.B, e.Reason)
}

// Eq is one equation in a unification problem.
type Eq struct{ A, B *Type }

// Apply substitutes every free variable in t according to s.
func Apply(t *Type, s VarSubst) *Type {
	if t == nil || len(s) == 0 {
		return t
	}

	switch t.Kind {
	case KVar:
		if repl, ok := s[t.Var]; ok {
			return Apply(repl, s)
		}

		return t
	case KSum, KApp:
		args := make([]*Type, len(t.Args))
		for i, a := range t.Args {
			args[i] = Apply(a, s)
		}

		return &Type{Kind: t.Kind, Name: t.Name, Args: args}
	case KFun:
		return &Type{Kind: KFun, Dom: Apply(t.Dom, s), Cod: Apply(t.Cod, s)}
	case KTuple:
		elems := make([]*Type, len(t.Elems))
		for i, e := range t.Elems {
			elems[i] = Apply(e, s)
		}

		return &Type{Kind: KTuple, Elems: elems}
	default:
		return t
	}
}

// occurs reports whether v occurs free in t, under the substitutions
// already committed in s (so chained bindings are followed).
func occurs(v VarID, t *Type, s VarSubst) bool {
	t = Apply(t, s)

	switch t.Kind {
	case KVar:
		return t.Var == v
	case KSum, KApp:
		for _, a := range t.Args {
			if occurs(v, a, s) {
				return true
			}
		}

		return false
	case KFun:
		return occurs(v, t.Dom, s) || occurs(v, t.Cod, s)
	case KTuple:
		for _, e := range t.Elems {
			if occurs(v, e, s) {
				return true
			}
		}

		return false
	default:
		return false
	}
}

// UnifyOne unifies a single pair of types against an existing
// substitution, returning an extended substitution or a diagnostic error.
// This is the single-step primitive Unify folds over a list of equations.
func UnifyOne(a, b *Type, s VarSubst) (VarSubst, error) {
	a, b = Apply(a, s), Apply(b, s)

	switch {
	case a.Kind == KVar && b.Kind == KVar && a.Var == b.Var:
		return s, nil
	case a.Kind == KVar:
		if occurs(a.Var, b, s) {
			return nil, &UnifyError{Reason: "circular binding (occurs check)", A: a, B: b}
		}

		return bind(s, a.Var, b), nil
	case b.Kind == KVar:
		if occurs(b.Var, a, s) {
			return nil, &UnifyError{Reason: "circular binding (occurs check)", A: a, B: b}
		}

		return bind(s, b.Var, a), nil
	case a.Kind != b.Kind:
		return nil, &UnifyError{Reason: "kind mismatch", A: a, B: b}
	}

	switch a.Kind {
	case KInt, KBool, KString, KChar:
		return s, nil
	case KSum, KApp:
		if a.Name != b.Name || len(a.Args) != len(b.Args) {
			return nil, &UnifyError{Reason: "constructor mismatch", A: a, B: b}
		}

		var err error

		for i := range a.Args {
			if s, err = UnifyOne(a.Args[i], b.Args[i], s); err != nil {
				return nil, err
			}
		}

		return s, nil
	case KFun:
		s, err := UnifyOne(a.Dom, b.Dom, s)
		if err != nil {
			return nil, err
		}

		return UnifyOne(a.Cod, b.Cod, s)
	case KTuple:
		if len(a.Elems) != len(b.Elems) {
			return nil, &UnifyError{Reason: "tuple arity mismatch", A: a, B: b}
		}

		var err error

		for i := range a.Elems {
			if s, err = UnifyOne(a.Elems[i], b.Elems[i], s); err != nil {
				return nil, err
			}
		}

		return s, nil
	default:
		return nil, &UnifyError{Reason: "unknown type kind", A: a, B: b}
	}
}

func bind(s VarSubst, v VarID, t *Type) VarSubst {
	out := make(VarSubst, len(s)+1)
	for k, val := range s {
		out[k] = val
	}

	out[v] = t

	return out
}

// Unify solves a list of equations with standard Robinson unification,
// folding UnifyOne over the list left to right. Applying the returned
// substitution to every equation yields syntactically equal pairs
// (unification soundness, spec.md §8).
func Unify(eqs []Eq) (VarSubst, error) {
	s := VarSubst{}

	for _, eq := range eqs {
		var err error

		s, err = UnifyOne(eq.A, eq.B, s)
		if err != nil {
			return nil, err
		}
	}

	return s, nil
}
