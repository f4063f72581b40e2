// Package lemma implements C9: synthesizing a per-term boolean invariant
// from positive/negative examples when C8 reports counterexamples, and
// validating a candidate invariant by racing a bounded instance check
// against an SMT induction schema.
package lemma

import (
	"context"
	"fmt"
	"sort"

	"github.com/synduce/synduce/internal/grammar"
	"github.com/synduce/synduce/internal/solver"
	"github.com/synduce/synduce/internal/sygus"
	"github.com/synduce/synduce/internal/term"
	"github.com/synduce/synduce/internal/typeterm"
)

// Example is one scalar-variable instantiation accepted (Positive) or
// rejected (!Positive) for the lemma being synthesized.
type Example struct {
	Bindings map[string]*term.Term
	Positive bool
}

// TermState is the per-term invariant-synthesis state C10 threads through
// repeated LemmaSynth visits for the same counterexample-admitting term.
type TermState struct {
	ScalarVars   []string
	VarTypes     map[string]*typeterm.Type
	Examples     []Example
	Invariant    *term.Term // the conjoined, accepted lemmas so far; nil until the first is accepted.
	Precondition *term.Term
}

// Config bounds the inner lemma-refinement loop.
type Config struct {
	MaxAttempts int
	OpSet       grammar.OpSet
}

// Outcome discriminates Synthesize's result.
type Outcome int

const (
	Accepted Outcome = iota
	Failed
	BudgetExhausted
)

// Result is C9's per-round return value.
type Result struct {
	Outcome Outcome
	Lemma   *term.Term // the accepted predicate (pre ⇒ lemma framing is the caller's to apply), set iff Outcome == Accepted.
}

// Synthesize runs the inner lemma-refinement loop: propose a candidate via
// sv, validate it via smt, and either accept it (conjoining into
// st.Invariant), add a fresh example and retry, or give up after
// cfg.MaxAttempts or a solver-reported infeasibility (spec.md §4.9).
func Synthesize(ctx context.Context, sv solver.SyGuSSolver, smt solver.SMTSolver, st *TermState, cfg Config) (Result, error) {
	for attempt := 0; attempt < cfg.MaxAttempts; attempt++ {
		script := buildScript(st, cfg.OpSet)

		resp, err := sv.Solve(ctx, script)
		if err != nil {
			return Result{}, fmt.Errorf("lemma synthesis: %w", err)
		}

		if resp.Status != solver.StatusSuccess {
			return Result{Outcome: Failed}, nil
		}

		raw, ok := resp.Bodies["lemma"]
		if !ok {
			return Result{Outcome: Failed}, nil
		}

		candidate, err := sygus.ParseSExprTerm(raw)
		if err != nil {
			return Result{}, fmt.Errorf("lemma synthesis: parsing candidate: %w", err)
		}

		holds, example, err := check(ctx, smt, st, candidate)
		if err != nil {
			return Result{}, fmt.Errorf("lemma synthesis: %w", err)
		}

		if holds {
			st.Invariant = conjoin(st.Invariant, candidate)
			return Result{Outcome: Accepted, Lemma: candidate}, nil
		}

		st.Examples = append(st.Examples, example)
	}

	return Result{Outcome: BudgetExhausted}, nil
}

func conjoin(existing, next *term.Term) *term.Term {
	if existing == nil {
		return next
	}

	return term.Binop(term.OpAnd, existing, next)
}

// buildScript renders one synth-fun over st.ScalarVars plus one constraint
// per recorded example (spec.md §4.9: positive examples become `(constraint
// (lemma args))`, negative examples `(constraint (not (lemma args)))`).
func buildScript(st *TermState, opset grammar.OpSet) solver.Script {
	locals := make([]grammar.Local, len(st.ScalarVars))
	for i, v := range st.ScalarVars {
		locals[i] = grammar.Local{Name: v, Sort: sygus.SortOf(st.VarTypes[v])}
	}

	g := grammar.Generate("Bool", locals, opset, nil)

	args := make([]solver.VarDecl, len(locals))
	for i, l := range locals {
		args[i] = solver.VarDecl{Name: l.Name, Sort: l.Sort}
	}

	script := solver.Script{
		Logic: grammar.RecomputeLogic(false),
		SynthFuns: []solver.SynthFunDecl{
			{Name: "lemma", Args: args, Sort: "Bool", Grammar: g.String()},
		},
	}

	for _, v := range st.ScalarVars {
		script.DeclareVars = append(script.DeclareVars, solver.VarDecl{Name: v, Sort: sygus.SortOf(st.VarTypes[v])})
	}

	for _, ex := range st.Examples {
		call := lemmaCall(st.ScalarVars, ex.Bindings)
		if ex.Positive {
			script.Constraints = append(script.Constraints, call)
		} else {
			script.Constraints = append(script.Constraints, fmt.Sprintf("(not %s)", call))
		}
	}

	return script
}

func lemmaCall(scalarVars []string, bindings map[string]*term.Term) string {
	args := make([]string, len(scalarVars))
	for i, v := range scalarVars {
		if b, ok := bindings[v]; ok {
			args[i] = sygus.Render(b)
		} else {
			args[i] = v
		}
	}

	out := "(lemma"
	for _, a := range args {
		out += " " + a
	}

	return out + ")"
}

// check races a bounded instance check against an SMT induction schema;
// the first to resolve wins (spec.md §5's pick combinator), and the other
// is abandoned via context cancellation.
func check(ctx context.Context, smt solver.SMTSolver, st *TermState, candidate *term.Term) (bool, Example, error) {
	type outcome struct {
		holds bool
		model solver.Model
		err   error
	}

	boundedCh := make(chan outcome, 1)
	unboundedCh := make(chan outcome, 1)

	cctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go func() {
		holds, model, err := boundedCheck(cctx, smt, st, candidate)
		boundedCh <- outcome{holds, model, err}
	}()

	go func() {
		holds, model, ok, err := unboundedCheck(cctx, smt, st, candidate)
		if !ok {
			// No inductive scalar present: contribute nothing, let the
			// bounded check decide alone.
			return
		}

		unboundedCh <- outcome{holds, model, err}
	}()

	var res outcome

	select {
	case res = <-boundedCh:
	case res = <-unboundedCh:
	}

	if res.err != nil {
		return false, Example{}, res.err
	}

	if res.holds {
		return true, Example{}, nil
	}

	return false, Example{Bindings: modelToBindings(st, res.model), Positive: true}, nil
}

func modelToBindings(st *TermState, model solver.Model) map[string]*term.Term {
	bindings := map[string]*term.Term{}

	for _, v := range st.ScalarVars {
		raw, ok := model[v]
		if !ok {
			continue
		}

		parsed, err := sygus.ParseSExprTerm(raw)
		if err != nil {
			continue
		}

		bindings[v] = parsed
	}

	return bindings
}

// boundedCheck asserts precondition ∧ TInv ∧ ¬candidate and checks for
// unsatisfiability — holds==true means no instance within the current
// theory refutes the candidate.
func boundedCheck(ctx context.Context, smt solver.SMTSolver, st *TermState, candidate *term.Term) (holds bool, model solver.Model, err error) {
	if smt == nil {
		return false, nil, solver.ErrSolverUnavailable
	}

	if err := smt.Push(ctx); err != nil {
		return false, nil, err
	}

	defer func() { _ = smt.Pop(ctx) }()

	names := scalarNames(st)
	sort.Strings(names)

	for _, name := range names {
		if err := smt.DeclareFun(ctx, name, nil, sygus.SortOf(st.VarTypes[name])); err != nil {
			return false, nil, err
		}
	}

	if st.Precondition != nil {
		if err := smt.Assert(ctx, sygus.Render(st.Precondition)); err != nil {
			return false, nil, err
		}
	}

	if st.Invariant != nil {
		if err := smt.Assert(ctx, sygus.Render(st.Invariant)); err != nil {
			return false, nil, err
		}
	}

	if err := smt.Assert(ctx, fmt.Sprintf("(not %s)", sygus.Render(candidate))); err != nil {
		return false, nil, err
	}

	result, err := smt.CheckSat(ctx)
	if err != nil {
		return false, nil, err
	}

	if result != solver.Sat {
		return true, nil, nil
	}

	model, err = smt.GetModel(ctx)
	if err != nil {
		return false, nil, err
	}

	return false, model, nil
}

// unboundedCheck runs a two-step SMT induction over the first integer
// scalar variable: a base case at 0 and an inductive step from n to n+1.
// ok is false when no integer scalar is available to induct on, in which
// case the caller relies on the bounded check alone.
func unboundedCheck(ctx context.Context, smt solver.SMTSolver, st *TermState, candidate *term.Term) (holds bool, model solver.Model, ok bool, err error) {
	if smt == nil {
		return false, nil, false, solver.ErrSolverUnavailable
	}

	inductionVar := ""

	for _, v := range st.ScalarVars {
		if t := st.VarTypes[v]; t != nil && t.Kind == typeterm.KInt {
			inductionVar = v
			break
		}
	}

	if inductionVar == "" {
		return false, nil, false, nil
	}

	base := map[string]*term.Term{inductionVar: term.Int(0)}

	baseHolds, baseModel, err := instanceCheck(ctx, smt, st, candidate, base)
	if err != nil {
		return false, nil, true, err
	}

	if !baseHolds {
		return false, baseModel, true, nil
	}

	succ := map[string]*term.Term{inductionVar: term.Binop(term.OpAdd, term.Var(inductionVar, typeterm.Int()), term.Int(1))}

	stepHolds, stepModel, err := inductiveStepCheck(ctx, smt, st, candidate, inductionVar, succ[inductionVar])
	if err != nil {
		return false, nil, true, err
	}

	return stepHolds, stepModel, true, nil
}

// instanceCheck asserts precondition ∧ TInv ∧ ¬candidate with every
// scalar substituted by bindings, and reports whether it is unsatisfiable.
func instanceCheck(ctx context.Context, smt solver.SMTSolver, st *TermState, candidate *term.Term, bindings map[string]*term.Term) (bool, solver.Model, error) {
	sub := func(t *term.Term) *term.Term {
		if t == nil {
			return nil
		}

		return term.Substitute(t, bindings)
	}

	if err := smt.Push(ctx); err != nil {
		return false, nil, err
	}

	defer func() { _ = smt.Pop(ctx) }()

	if st.Precondition != nil {
		if err := smt.Assert(ctx, sygus.Render(sub(st.Precondition))); err != nil {
			return false, nil, err
		}
	}

	if st.Invariant != nil {
		if err := smt.Assert(ctx, sygus.Render(sub(st.Invariant))); err != nil {
			return false, nil, err
		}
	}

	if err := smt.Assert(ctx, fmt.Sprintf("(not %s)", sygus.Render(sub(candidate)))); err != nil {
		return false, nil, err
	}

	result, err := smt.CheckSat(ctx)
	if err != nil {
		return false, nil, err
	}

	if result != solver.Sat {
		return true, nil, nil
	}

	model, err := smt.GetModel(ctx)
	if err != nil {
		return false, nil, err
	}

	return false, model, nil
}

// inductiveStepCheck asserts the induction hypothesis (precondition ∧
// TInv ∧ candidate at the current scalar) together with the successor's
// premises and the negated candidate at the successor, and reports
// whether that combination is unsatisfiable.
func inductiveStepCheck(ctx context.Context, smt solver.SMTSolver, st *TermState, candidate *term.Term, inductionVar string, successor *term.Term) (bool, solver.Model, error) {
	if err := smt.Push(ctx); err != nil {
		return false, nil, err
	}

	defer func() { _ = smt.Pop(ctx) }()

	names := scalarNames(st)
	sort.Strings(names)

	for _, name := range names {
		if err := smt.DeclareFun(ctx, name, nil, sygus.SortOf(st.VarTypes[name])); err != nil {
			return false, nil, err
		}
	}

	if st.Precondition != nil {
		if err := smt.Assert(ctx, sygus.Render(st.Precondition)); err != nil {
			return false, nil, err
		}
	}

	if st.Invariant != nil {
		if err := smt.Assert(ctx, sygus.Render(st.Invariant)); err != nil {
			return false, nil, err
		}
	}

	if err := smt.Assert(ctx, sygus.Render(candidate)); err != nil {
		return false, nil, err
	}

	succBindings := map[string]*term.Term{inductionVar: successor}

	if st.Precondition != nil {
		if err := smt.Assert(ctx, sygus.Render(term.Substitute(st.Precondition, succBindings))); err != nil {
			return false, nil, err
		}
	}

	if err := smt.Assert(ctx, fmt.Sprintf("(not %s)", sygus.Render(term.Substitute(candidate, succBindings)))); err != nil {
		return false, nil, err
	}

	result, err := smt.CheckSat(ctx)
	if err != nil {
		return false, nil, err
	}

	if result != solver.Sat {
		return true, nil, nil
	}

	model, err := smt.GetModel(ctx)
	if err != nil {
		return false, nil, err
	}

	return false, model, nil
}

func scalarNames(st *TermState) []string {
	out := make([]string, len(st.ScalarVars))
	copy(out, st.ScalarVars)

	return out
}
