// Package verifier implements C8: bounded-expansion checking of a
// candidate hole assignment against the reference and target PMRSs,
// producing Correct, a generalized counterexample set, or a verdict that
// the current partial-correctness assumptions are over-constrained.
package verifier

import (
	"context"
	"fmt"

	"github.com/synduce/synduce/internal/equations"
	"github.com/synduce/synduce/internal/expansion"
	"github.com/synduce/synduce/internal/pmrs"
	"github.com/synduce/synduce/internal/solver"
	"github.com/synduce/synduce/internal/sygus"
	"github.com/synduce/synduce/internal/synctx"
	"github.com/synduce/synduce/internal/term"
	"github.com/synduce/synduce/internal/typeterm"
)

// Outcome discriminates the verifier's three possible results (spec.md
// §4.8).
type Outcome int

const (
	Correct Outcome = iota
	Ctexs
	IncorrectAssumptions
)

func (o Outcome) String() string {
	switch o {
	case Correct:
		return "correct"
	case Ctexs:
		return "ctexs"
	default:
		return "incorrect_assumptions"
	}
}

// Candidate is one hole's synthesized body: its formal parameter names
// (positional, matching a C7 First result's Args or a C6 synth-fun's
// argument list) and its body expression.
type Candidate struct {
	Params []string
	Body   *term.Term
}

// Counterexample pairs the expansion term that falsified the candidate
// with the SMT model witnessing the falsifying assignment.
type Counterexample struct {
	Term  *term.Term
	Model solver.Model
}

// Config bounds the verifier's expansion and bookkeeping.
type Config struct {
	NumExpansionsCheck int // cap on how many new terms the verifier expands to, spec.md default 10.
	ReductionLimit     int
	EqConfig           equations.Config
}

// Result is C8's return value.
type Result struct {
	Outcome Outcome
	TPrime  []*term.Term // T plus every expansion term checked; counterexample terms are among them.
	UPrime  []*term.Term
	Ctexs   []Counterexample
}

// Verify checks candidates against refP/tgtP/reprP over T, expanding up to
// cfg.NumExpansionsCheck additional terms when T itself is insufficient to
// falsify or confirm the candidate (spec.md §4.8). sv may be nil only if
// every equation decides structurally — any term requiring a semantic
// (SMT) check with sv == nil is treated as a solver error.
func Verify(
	ctx context.Context,
	sv solver.SMTSolver,
	sctx *synctx.Context,
	reg *typeterm.Registry,
	refP, tgtP, reprP *pmrs.PMRS,
	cands map[string]Candidate,
	T []*term.Term,
	precondition map[*term.Term]*term.Term,
	ecfg expansion.Config,
	cfg Config,
) (Result, error) {
	pool, u := expansion.ExpandLoop(sctx, reg, tgtP, T, expansion.Config{
		MaxDepth:       ecfg.MaxDepth,
		MaxCumulative:  min(ecfg.MaxCumulative, len(T)+cfg.NumExpansionsCheck),
		ReductionLimit: ecfg.ReductionLimit,
	})

	res := Result{TPrime: append([]*term.Term{}, pool...), UPrime: u}

	if ok, incorrect := checkPreconditionSatisfiable(ctx, sv, precondition); incorrect {
		return Result{Outcome: IncorrectAssumptions}, nil
	} else if !ok {
		return Result{}, fmt.Errorf("verifier: %w", solver.ErrSolverUnavailable)
	}

	for _, t := range pool {
		eqs, diag := equations.Build(refP, tgtP, reprP, []*term.Term{t}, precondition, cfg.EqConfig)
		if len(diag) > 0 {
			// An impure equation at this expansion depth is not this
			// candidate's fault; skip it rather than manufacturing a
			// spurious counterexample.
			continue
		}

		for _, eq := range eqs {
			rhs := applyCandidates(eq.RHS, cands)
			rhs = sygus.Simplify(equations.Equation{LHS: rhs, RHS: rhs}).LHS

			if term.Equal(eq.LHS, rhs) {
				continue
			}

			sat, model, err := checkDisequality(ctx, sv, eq.LHS, rhs, eq.Pre)
			if err != nil {
				return Result{}, fmt.Errorf("verifier: checking %s: %w", t, err)
			}

			if sat == solver.Unsat {
				continue
			}

			res.Ctexs = append(res.Ctexs, Counterexample{Term: t, Model: model})
		}
	}

	if len(res.Ctexs) == 0 {
		return Result{Outcome: Correct, TPrime: res.TPrime, UPrime: res.UPrime}, nil
	}

	res.Outcome = Ctexs

	return res, nil
}

// applyCandidates substitutes every application of a candidate hole name
// in t by its body, with the application's actual arguments bound to the
// candidate's formal parameter names.
func applyCandidates(t *term.Term, cands map[string]Candidate) *term.Term {
	if t == nil {
		return nil
	}

	switch t.Kind {
	case term.KApp:
		args := make([]*term.Term, len(t.Args))
		for i, a := range t.Args {
			args[i] = applyCandidates(a, cands)
		}

		if c, ok := cands[t.Fn]; ok {
			sub := map[string]*term.Term{}

			for i, p := range c.Params {
				if i < len(args) {
					sub[p] = args[i]
				}
			}

			return applyCandidates(term.Substitute(c.Body, sub), cands)
		}

		return term.App(t.Fn, args...)
	case term.KTuple:
		elems := make([]*term.Term, len(t.Elems))
		for i, e := range t.Elems {
			elems[i] = applyCandidates(e, cands)
		}

		return term.TupleOf(elems...)
	case term.KBinop:
		return term.Binop(t.BOp, applyCandidates(t.L, cands), applyCandidates(t.R, cands))
	case term.KUnop:
		return term.Unop(t.UOp, applyCandidates(t.X, cands))
	case term.KIte:
		return term.Ite(applyCandidates(t.Cond, cands), applyCandidates(t.Then, cands), applyCandidates(t.Else, cands))
	case term.KMatch:
		cases := make([]term.MatchCase, len(t.Cases))
		for i, c := range t.Cases {
			cases[i] = term.MatchCase{Variant: c.Variant, Binders: c.Binders, Body: applyCandidates(c.Body, cands)}
		}

		return term.Match(applyCandidates(t.Scrutinee, cands), cases...)
	default:
		return t
	}
}

// checkDisequality asks sv whether lhs and rhs can differ under pre. It
// returns solver.Unsat when they provably cannot (the candidate is
// correct on this term) and solver.Sat with a witnessing model otherwise.
func checkDisequality(ctx context.Context, sv solver.SMTSolver, lhs, rhs, pre *term.Term) (solver.SatResult, solver.Model, error) {
	if sv == nil {
		return solver.Unknown, nil, solver.ErrSolverUnavailable
	}

	if err := sv.Push(ctx); err != nil {
		return solver.Unknown, nil, err
	}

	defer func() { _ = sv.Pop(ctx) }()

	for name, typ := range term.FreeVars(lhs) {
		if err := sv.DeclareFun(ctx, name, nil, sygus.SortOf(typ)); err != nil {
			return solver.Unknown, nil, err
		}
	}

	for name, typ := range term.FreeVars(rhs) {
		if err := sv.DeclareFun(ctx, name, nil, sygus.SortOf(typ)); err != nil {
			return solver.Unknown, nil, err
		}
	}

	if pre != nil {
		if err := sv.Assert(ctx, sygus.Render(pre)); err != nil {
			return solver.Unknown, nil, err
		}
	}

	if err := sv.Assert(ctx, fmt.Sprintf("(not (= %s %s))", sygus.Render(lhs), sygus.Render(rhs))); err != nil {
		return solver.Unknown, nil, err
	}

	result, err := sv.CheckSat(ctx)
	if err != nil {
		return solver.Unknown, nil, err
	}

	if result != solver.Sat {
		return result, nil, nil
	}

	model, err := sv.GetModel(ctx)
	if err != nil {
		return solver.Unknown, nil, err
	}

	return result, model, nil
}

// checkPreconditionSatisfiable reports whether the conjunction of every
// established precondition is satisfiable. A provably unsatisfiable
// conjunction means the accumulated partial-correctness assumptions have
// become contradictory (spec.md §4.8's Incorrect_assumptions case);
// ok=false with incorrect=false instead signals a solver failure.
func checkPreconditionSatisfiable(ctx context.Context, sv solver.SMTSolver, precondition map[*term.Term]*term.Term) (ok bool, incorrect bool) {
	if sv == nil || len(precondition) == 0 {
		return true, false
	}

	if err := sv.Push(ctx); err != nil {
		return false, false
	}

	defer func() { _ = sv.Pop(ctx) }()

	for _, pre := range precondition {
		for name, typ := range term.FreeVars(pre) {
			if err := sv.DeclareFun(ctx, name, nil, sygus.SortOf(typ)); err != nil {
				return false, false
			}
		}

		if err := sv.Assert(ctx, sygus.Render(pre)); err != nil {
			return false, false
		}
	}

	result, err := sv.CheckSat(ctx)
	if err != nil {
		return false, false
	}

	return true, result == solver.Unsat
}
