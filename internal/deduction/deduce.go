// Package deduction implements C7: a solver-free attempt to extract a
// hole's implementation directly from an equation by "boxing" —
// progressively replacing subexpressions that depend only on a bound
// argument, or only on a known-allowed set of free scalars, by indexed
// placeholders, until the left-hand side is a function of the hole's
// bound arguments alone.
package deduction

import (
	"context"
	"fmt"

	"github.com/synduce/synduce/internal/equations"
	"github.com/synduce/synduce/internal/grammar"
	"github.com/synduce/synduce/internal/solver"
	"github.com/synduce/synduce/internal/term"
)

// Outcome discriminates the engine's three possible results.
type Outcome int

const (
	// Third: give up, fall through to C6's full SyGuS solve.
	Third Outcome = iota
	// First: a closed-form hole implementation was extracted.
	First
	// Second: a partial shape usable as a C5 grammar guess.
	Second
)

// Result is C7's return value.
type Result struct {
	Outcome Outcome
	Name    string
	Args    []string
	Body    *term.Term
	// Boxes maps a free box's id to the original subexpression it stood
	// in for — a positional box's content is instead recovered from Args
	// by convention (box id i refers to Args[i-1]). Callers that turn
	// Body into a concrete hole implementation (C10) resolve both box
	// kinds back into real terms before handing Body to C8/C9.
	Boxes    map[int64]*term.Term
	Skeleton *grammar.Skeleton
}

const (
	stepLimit   = 20
	occamLimit  = 15
)

type deduceState struct {
	expr          *term.Term
	boundRemaining map[int]*term.Term // position -> the argument expression at that position, not yet boxed.
	boundArgNames []string
	freeBoxes     map[int64][]string // box id -> allowed free variable names.
	fullBoxes     map[int64]*term.Term
	nextFreeBox   int64
}

// Deduce runs the deduction loop against a single equation whose RHS is
// `hole(a1,...,an)`. allowedFree lists the scalar variables (typically
// recursion-elimination scalars) a free box may legally depend on.
func Deduce(eq equations.Equation, hole string, allowedFree []string) Result {
	if eq.RHS.Kind != term.KApp || eq.RHS.Fn != hole {
		return Result{Outcome: Third}
	}

	st := &deduceState{
		expr:           eq.LHS,
		boundRemaining: map[int]*term.Term{},
		freeBoxes:      map[int64][]string{},
		fullBoxes:      map[int64]*term.Term{},
	}

	st.boundArgNames = make([]string, len(eq.RHS.Args))

	for i, a := range eq.RHS.Args {
		st.boundRemaining[i] = a
		st.boundArgNames[i] = fmt.Sprintf("a%d", i)
	}

	if len(allowedFree) > 0 {
		st.freeBoxes[st.nextFreeBox] = allowedFree
		st.nextFreeBox++
	}

	for step := 0; step < stepLimit; step++ {
		progressed := st.tryBoundMatch()
		if !progressed {
			progressed = st.tryFreeBoxMatch()
		}

		if st.isClosed() {
			if term.Size(st.expr) <= occamLimit {
				return Result{Outcome: First, Name: hole, Args: st.boundArgNames, Body: st.expr, Boxes: st.fullBoxes}
			}

			return Result{Outcome: Second, Name: hole, Boxes: st.fullBoxes, Skeleton: &grammar.Skeleton{Shapes: []string{renderSkeleton(st.expr)}}}
		}

		if !progressed {
			break
		}
	}

	if term.Size(st.expr) <= occamLimit {
		return Result{Outcome: Second, Name: hole, Boxes: st.fullBoxes, Skeleton: &grammar.Skeleton{Shapes: []string{renderSkeleton(st.expr)}}}
	}

	return Result{Outcome: Third}
}

// tryBoundMatch looks for a bound argument whose expression occurs as a
// subterm of the current expression and boxes every occurrence
// positionally.
func (st *deduceState) tryBoundMatch() bool {
	for pos, argExpr := range st.boundRemaining {
		if occursStructurally(st.expr, argExpr) {
			st.expr = replaceStructural(st.expr, argExpr, term.Box(int64(pos)+1, true))
			delete(st.boundRemaining, pos)

			return true
		}
	}

	return false
}

// tryFreeBoxMatch searches for the smallest subexpression whose free
// variables all lie within some free box's allowed set, and boxes it. It
// prefers the narrowest match (typically a bare variable reference) so a
// free box captures only the auxiliary scalar it stands for, leaving the
// surrounding shape of the expression visible to the caller.
func (st *deduceState) tryFreeBoxMatch() bool {
	for id, allowed := range st.freeBoxes {
		if sub, ok := smallestAllowedSubterm(st.expr, allowed); ok && sub.Kind != term.KBox {
			st.fullBoxes[id] = sub
			st.expr = replaceStructural(st.expr, sub, term.Box(id, false))

			return true
		}
	}

	return false
}

// isClosed reports whether expr mentions no remaining free variables —
// everything left is either a constant, an operator over closed
// subterms, or a box (bound-argument or free-scalar placeholder).
func (st *deduceState) isClosed() bool {
	return len(term.FreeVars(st.expr)) == 0
}

func renderSkeleton(t *term.Term) string { return t.String() }

// occursStructurally reports whether needle appears as a subterm of
// haystack (structural equality).
func occursStructurally(haystack, needle *term.Term) bool {
	if term.Equal(haystack, needle) {
		return true
	}

	switch haystack.Kind {
	case term.KTuple:
		for _, e := range haystack.Elems {
			if occursStructurally(e, needle) {
				return true
			}
		}
	case term.KBinop:
		return occursStructurally(haystack.L, needle) || occursStructurally(haystack.R, needle)
	case term.KUnop:
		return occursStructurally(haystack.X, needle)
	case term.KIte:
		return occursStructurally(haystack.Cond, needle) ||
			occursStructurally(haystack.Then, needle) ||
			occursStructurally(haystack.Else, needle)
	case term.KApp:
		for _, a := range haystack.Args {
			if occursStructurally(a, needle) {
				return true
			}
		}
	}

	return false
}

func replaceStructural(t, needle, repl *term.Term) *term.Term {
	if term.Equal(t, needle) {
		return repl
	}

	switch t.Kind {
	case term.KTuple:
		elems := make([]*term.Term, len(t.Elems))
		for i, e := range t.Elems {
			elems[i] = replaceStructural(e, needle, repl)
		}

		return term.TupleOf(elems...)
	case term.KBinop:
		return term.Binop(t.BOp, replaceStructural(t.L, needle, repl), replaceStructural(t.R, needle, repl))
	case term.KUnop:
		return term.Unop(t.UOp, replaceStructural(t.X, needle, repl))
	case term.KIte:
		return term.Ite(
			replaceStructural(t.Cond, needle, repl),
			replaceStructural(t.Then, needle, repl),
			replaceStructural(t.Else, needle, repl))
	case term.KApp:
		args := make([]*term.Term, len(t.Args))
		for i, a := range t.Args {
			args[i] = replaceStructural(a, needle, repl)
		}

		return term.App(t.Fn, args...)
	default:
		return t
	}
}

// smallestAllowedSubterm returns the smallest subterm of t all of whose
// free variables lie within allowed (and at least one such variable
// occurs), preferring a bare variable reference over any composite
// expression that happens to qualify too.
func smallestAllowedSubterm(t *term.Term, allowed []string) (*term.Term, bool) {
	allowedSet := map[string]bool{}
	for _, a := range allowed {
		allowedSet[a] = true
	}

	var best *term.Term

	var walk func(n *term.Term)

	walk = func(n *term.Term) {
		if n == nil {
			return
		}

		free := term.FreeVars(n)

		ok := len(free) > 0

		for name := range free {
			if !allowedSet[name] {
				ok = false
				break
			}
		}

		if ok && (best == nil || term.Size(n) < term.Size(best)) {
			best = n
		}

		switch n.Kind {
		case term.KTuple:
			for _, e := range n.Elems {
				walk(e)
			}
		case term.KBinop:
			walk(n.L)
			walk(n.R)
		case term.KUnop:
			walk(n.X)
		case term.KIte:
			walk(n.Cond)
			walk(n.Then)
			walk(n.Else)
		case term.KApp:
			for _, a := range n.Args {
				walk(a)
			}
		}
	}

	walk(t)

	if best == nil {
		return nil, false
	}

	return best, true
}

// CrossValidate checks that guesses derived from several equations agree:
// it accepts only when the bodies of all First results are structurally
// equal. It makes no SMT check; sv is not consulted, and disagreeing
// bodies are always declined.
func CrossValidate(ctx context.Context, sv solver.SMTSolver, results []Result) (Result, bool) {
	var first *Result

	for i := range results {
		if results[i].Outcome != First {
			continue
		}

		if first == nil {
			first = &results[i]
			continue
		}

		if !term.Equal(first.Body, results[i].Body) {
			if sv == nil {
				return Result{Outcome: Third}, false
			}
			// A full cross-term UNSAT check belongs to the verifier (C8);
			// here we conservatively decline to merge disagreeing guesses.
			return Result{Outcome: Third}, false
		}
	}

	if first == nil {
		return Result{Outcome: Third}, false
	}

	return *first, true
}
