package term

import "github.com/synduce/synduce/internal/typeterm"

// FreeVars returns the set of variable names free in t, together with
// their inferred type where known. KApp's Fn is a function/non-terminal
// name, not a variable, and is excluded; KMatch binders are bound within
// their case body and are excluded from that case's contribution.
func FreeVars(t *Term) map[string]*typeterm.Type {
	out := map[string]*typeterm.Type{}
	freeVars(t, out)

	return out
}

func freeVars(t *Term, out map[string]*typeterm.Type) {
	if t == nil {
		return
	}

	switch t.Kind {
	case KConst, KBox:
		return
	case KVar:
		out[t.Name] = t.Type
	case KTuple:
		for _, e := range t.Elems {
			freeVars(e, out)
		}
	case KBinop:
		freeVars(t.L, out)
		freeVars(t.R, out)
	case KUnop:
		freeVars(t.X, out)
	case KIte:
		freeVars(t.Cond, out)
		freeVars(t.Then, out)
		freeVars(t.Else, out)
	case KApp:
		for _, a := range t.Args {
			freeVars(a, out)
		}
	case KMatch:
		freeVars(t.Scrutinee, out)

		for _, c := range t.Cases {
			bound := make(map[string]bool, len(c.Binders))
			for _, b := range c.Binders {
				bound[b] = true
			}

			inner := map[string]*typeterm.Type{}
			freeVars(c.Body, inner)

			for k, v := range inner {
				if !bound[k] {
					out[k] = v
				}
			}
		}
	}
}

// Substitute replaces every free occurrence of a variable named in sub by
// its mapped term, respecting KMatch binder scoping.
func Substitute(t *Term, sub map[string]*Term) *Term {
	if t == nil || len(sub) == 0 {
		return t
	}

	switch t.Kind {
	case KConst, KBox:
		return t
	case KVar:
		if r, ok := sub[t.Name]; ok {
			return r
		}

		return t
	case KTuple:
		elems := make([]*Term, len(t.Elems))
		for i, e := range t.Elems {
			elems[i] = Substitute(e, sub)
		}

		return &Term{Kind: KTuple, Type: t.Type, Elems: elems}
	case KBinop:
		return &Term{Kind: KBinop, Type: t.Type, BOp: t.BOp, L: Substitute(t.L, sub), R: Substitute(t.R, sub)}
	case KUnop:
		return &Term{Kind: KUnop, Type: t.Type, UOp: t.UOp, X: Substitute(t.X, sub)}
	case KIte:
		return &Term{
			Kind: KIte, Type: t.Type,
			Cond: Substitute(t.Cond, sub), Then: Substitute(t.Then, sub), Else: Substitute(t.Else, sub),
		}
	case KApp:
		args := make([]*Term, len(t.Args))
		for i, a := range t.Args {
			args[i] = Substitute(a, sub)
		}

		return &Term{Kind: KApp, Type: t.Type, Fn: t.Fn, Args: args}
	case KMatch:
		cases := make([]MatchCase, len(t.Cases))

		for i, c := range t.Cases {
			inner := sub

			for _, b := range c.Binders {
				if _, shadowed := sub[b]; shadowed {
					inner = withoutKeys(sub, c.Binders)
					break
				}
			}

			cases[i] = MatchCase{Variant: c.Variant, Binders: c.Binders, Body: Substitute(c.Body, inner)}
		}

		return &Term{Kind: KMatch, Type: t.Type, Scrutinee: Substitute(t.Scrutinee, sub), Cases: cases}
	default:
		return t
	}
}

func withoutKeys(m map[string]*Term, keys []string) map[string]*Term {
	drop := make(map[string]bool, len(keys))
	for _, k := range keys {
		drop[k] = true
	}

	out := make(map[string]*Term, len(m))

	for k, v := range m {
		if !drop[k] {
			out[k] = v
		}
	}

	return out
}

// Equal is structural equality, ignoring inferred Type annotations (two
// terms built before and after type inference should compare equal).
func Equal(a, b *Term) bool {
	if a == b {
		return true
	}

	if a == nil || b == nil || a.Kind != b.Kind {
		return false
	}

	switch a.Kind {
	case KConst:
		return a.ConstKind == b.ConstKind && a.IntVal == b.IntVal && a.BoolVal == b.BoolVal && a.StrVal == b.StrVal
	case KVar:
		return a.Name == b.Name
	case KTuple:
		return equalSlice(a.Elems, b.Elems)
	case KBinop:
		return a.BOp == b.BOp && Equal(a.L, b.L) && Equal(a.R, b.R)
	case KUnop:
		return a.UOp == b.UOp && Equal(a.X, b.X)
	case KIte:
		return Equal(a.Cond, b.Cond) && Equal(a.Then, b.Then) && Equal(a.Else, b.Else)
	case KApp:
		return a.Fn == b.Fn && equalSlice(a.Args, b.Args)
	case KMatch:
		if !Equal(a.Scrutinee, b.Scrutinee) || len(a.Cases) != len(b.Cases) {
			return false
		}

		for i := range a.Cases {
			ca, cb := a.Cases[i], b.Cases[i]
			if ca.Variant != cb.Variant || len(ca.Binders) != len(cb.Binders) || !Equal(ca.Body, cb.Body) {
				return false
			}
		}

		return true
	case KBox:
		return a.BoxID == b.BoxID && a.BoxPositive == b.BoxPositive
	default:
		return false
	}
}

func equalSlice(a, b []*Term) bool {
	if len(a) != len(b) {
		return false
	}

	for i := range a {
		if !Equal(a[i], b[i]) {
			return false
		}
	}

	return true
}

// Size counts the term's nodes; the deduction engine's "cheap Occam"
// validation (spec.md §4.7) rejects any candidate guess whose size
// exceeds 15.
func Size(t *Term) int {
	if t == nil {
		return 0
	}

	n := 1

	switch t.Kind {
	case KTuple:
		for _, e := range t.Elems {
			n += Size(e)
		}
	case KBinop:
		n += Size(t.L) + Size(t.R)
	case KUnop:
		n += Size(t.X)
	case KIte:
		n += Size(t.Cond) + Size(t.Then) + Size(t.Else)
	case KApp:
		for _, a := range t.Args {
			n += Size(a)
		}
	case KMatch:
		n += Size(t.Scrutinee)

		for _, c := range t.Cases {
			n += Size(c.Body)
		}
	}

	return n
}

// MatchesSubpattern reports whether t is a structural subpattern of
// pattern — i.e. pattern can be obtained from t by replacing some
// subterms with fresh pattern variables (KVar nodes not bound elsewhere
// in pattern) — returning the witnessing substitution from those pattern
// variables to the concrete subterms of t.
func MatchesSubpattern(t, pattern *Term) (map[string]*Term, bool) {
	out := map[string]*Term{}
	if matchesSubpattern(t, pattern, out) {
		return out, true
	}

	return nil, false
}

func matchesSubpattern(t, pattern *Term, out map[string]*Term) bool {
	if pattern.Kind == KVar {
		if existing, ok := out[pattern.Name]; ok {
			return Equal(existing, t)
		}

		out[pattern.Name] = t

		return true
	}

	if t.Kind != pattern.Kind {
		return false
	}

	switch pattern.Kind {
	case KConst:
		return Equal(t, pattern)
	case KTuple:
		if len(t.Elems) != len(pattern.Elems) {
			return false
		}

		for i := range pattern.Elems {
			if !matchesSubpattern(t.Elems[i], pattern.Elems[i], out) {
				return false
			}
		}

		return true
	case KBinop:
		return t.BOp == pattern.BOp && matchesSubpattern(t.L, pattern.L, out) && matchesSubpattern(t.R, pattern.R, out)
	case KUnop:
		return t.UOp == pattern.UOp && matchesSubpattern(t.X, pattern.X, out)
	case KIte:
		return matchesSubpattern(t.Cond, pattern.Cond, out) &&
			matchesSubpattern(t.Then, pattern.Then, out) &&
			matchesSubpattern(t.Else, pattern.Else, out)
	case KApp:
		if t.Fn != pattern.Fn || len(t.Args) != len(pattern.Args) {
			return false
		}

		for i := range pattern.Args {
			if !matchesSubpattern(t.Args[i], pattern.Args[i], out) {
				return false
			}
		}

		return true
	default:
		return Equal(t, pattern)
	}
}

// ContainsApp reports whether t contains an application of fn anywhere in
// its tree — used by C4's purity check (an equation side must contain no
// application of the reference or target's main symbol).
func ContainsApp(t *Term, fn string) bool {
	if t == nil {
		return false
	}

	if t.Kind == KApp && t.Fn == fn {
		return true
	}

	switch t.Kind {
	case KTuple:
		for _, e := range t.Elems {
			if ContainsApp(e, fn) {
				return true
			}
		}
	case KBinop:
		return ContainsApp(t.L, fn) || ContainsApp(t.R, fn)
	case KUnop:
		return ContainsApp(t.X, fn)
	case KIte:
		return ContainsApp(t.Cond, fn) || ContainsApp(t.Then, fn) || ContainsApp(t.Else, fn)
	case KApp:
		for _, a := range t.Args {
			if ContainsApp(a, fn) {
				return true
			}
		}
	case KMatch:
		if ContainsApp(t.Scrutinee, fn) {
			return true
		}

		for _, c := range t.Cases {
			if ContainsApp(c.Body, fn) {
				return true
			}
		}
	}

	return false
}
