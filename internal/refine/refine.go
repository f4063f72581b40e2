// Package refine implements C10: the refinement-loop state machine that
// drives C3 (expansion), C4 (equations), C7 (deduction), C6 (sygus
// synthesis), C8 (verification), and C9 (lemma synthesis) to a
// Realizable, Unrealizable, Failed, or Unknown outcome.
package refine

import (
	"context"
	"fmt"
	"sort"

	"github.com/synduce/synduce/internal/deduction"
	"github.com/synduce/synduce/internal/equations"
	"github.com/synduce/synduce/internal/expansion"
	"github.com/synduce/synduce/internal/grammar"
	"github.com/synduce/synduce/internal/lemma"
	"github.com/synduce/synduce/internal/pmrs"
	"github.com/synduce/synduce/internal/solver"
	"github.com/synduce/synduce/internal/sygus"
	"github.com/synduce/synduce/internal/synctx"
	"github.com/synduce/synduce/internal/term"
	"github.com/synduce/synduce/internal/verifier"
)

// Status is the loop's terminal outcome.
type Status int

const (
	Realizable Status = iota
	Unrealizable
	Failed
	Unknown
)

func (s Status) String() string {
	switch s {
	case Realizable:
		return "realizable"
	case Unrealizable:
		return "unrealizable"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Config bounds every stage of the loop (spec.md §4.14's CLI knobs).
type Config struct {
	ReductionLimit     int
	ExpandDepth        int
	ExpandCut          int
	NumExpansionsCheck int
	LemmaAttempts      int
	OpSet              grammar.OpSet

	UseSyntacticDefinitions bool
	PartialCorrectness      bool
	Lifting                 bool
	MaxLiftAttempts         int
	SimpleInit              bool

	// MaxRefinementSteps bounds BuildEqs re-entries; breaching it is a
	// soft failure (Unknown), never a crash (spec.md §4.10, §7 class 2).
	MaxRefinementSteps int
}

// Result is the loop's final state.
type Result struct {
	Status     Status
	Candidates map[string]verifier.Candidate
	Ctexs      []verifier.Counterexample
	Steps      int
}

// Run drives the state machine to completion for one target/reference/
// representation triple, optionally guarded by a tinv precondition PMRS
// (nil if the problem declares none).
func Run(
	ctx context.Context,
	sctx *synctx.Context,
	refP, tgtP, reprP, tinvP *pmrs.PMRS,
	cfg Config,
) (Result, error) {
	initial := initialTerms(sctx, tgtP, cfg)

	T, _ := expansion.ExpandLoop(sctx, sctx.Registry, tgtP, initial, expansion.Config{
		MaxDepth:       cfg.ExpandDepth,
		MaxCumulative:  cfg.ExpandCut,
		ReductionLimit: cfg.ReductionLimit,
	})

	precondition := map[*term.Term]*term.Term{}
	lstates := map[*term.Term]*lemma.TermState{}
	givenUp := map[*term.Term]bool{}

	useSyntactic := cfg.UseSyntacticDefinitions
	partialCorrectness := cfg.PartialCorrectness
	opset := cfg.OpSet

	retriedIncorrectAssumptions := false
	liftAttempts := 0
	steps := 0

	for steps < cfg.MaxRefinementSteps {
		steps++

		if partialCorrectness {
			applyPrecondition(tinvP, T, precondition, cfg.ReductionLimit)
		}

		eqs, _ := equations.Build(refP, tgtP, reprP, T, precondition, equations.Config{
			ReductionLimit: cfg.ReductionLimit,
			Detuple:        true,
		})

		cands, solved := solveHoles(ctx, sctx, tgtP, eqs, opset, useSyntactic)
		if !solved {
			switch progressed, unrealizable := lemmaPhase(ctx, sctx, T, precondition, lstates, givenUp, cfg); {
			case progressed:
				continue
			case unrealizable:
				if cfg.Lifting && liftAttempts < cfg.MaxLiftAttempts {
					liftAttempts++
					opset = liftedOpSet(opset)

					for t := range givenUp {
						delete(givenUp, t)
					}

					continue
				}

				return Result{Status: Unrealizable, Ctexs: certificate(givenUp), Steps: steps}, nil
			default:
				return Result{Status: Unknown, Steps: steps}, nil
			}
		}

		vres, err := verifier.Verify(ctx, sctx.Solvers.SMT, sctx, sctx.Registry, refP, tgtP, reprP, cands, T, precondition,
			expansion.Config{MaxDepth: cfg.ExpandDepth, MaxCumulative: cfg.ExpandCut, ReductionLimit: cfg.ReductionLimit},
			verifier.Config{NumExpansionsCheck: cfg.NumExpansionsCheck, ReductionLimit: cfg.ReductionLimit,
				EqConfig: equations.Config{ReductionLimit: cfg.ReductionLimit, Detuple: true}})
		if err != nil {
			return Result{Status: Unknown, Steps: steps}, nil
		}

		switch vres.Outcome {
		case verifier.Correct:
			return Result{Status: Realizable, Candidates: cands, Steps: steps}, nil
		case verifier.Ctexs:
			T = vres.TPrime
			continue
		case verifier.IncorrectAssumptions:
			if retriedIncorrectAssumptions {
				return Result{Status: Failed, Steps: steps}, nil
			}

			retriedIncorrectAssumptions = true
			useSyntactic = false
			partialCorrectness = false

			continue
		}
	}

	return Result{Status: Unknown, Steps: steps}, nil
}

// initialTerms seeds Init's raw term set: every most-general term of the
// target, or a single variable of the target's recursion-argument type
// under simple_init (spec.md §4.10 Init -> BuildEqs).
func initialTerms(sctx *synctx.Context, tgtP *pmrs.PMRS, cfg Config) []*term.Term {
	if cfg.SimpleInit {
		main := tgtP.NTs[tgtP.Main]

		args := make([]*term.Term, len(main.ParamTypes))
		for i, typ := range main.ParamTypes {
			args[i] = term.Var(sctx.FreshName("x"), typ)
		}

		return []*term.Term{term.App(main.Name, args...)}
	}

	return pmrs.MostGeneralTerms(sctx, tgtP)
}

// applyPrecondition fills in precondition[t] for every term not yet
// covered, by reducing tinv(t) under tinvP. Terms whose reduction does not
// complete are left unguarded rather than blocked on a partial result.
func applyPrecondition(tinvP *pmrs.PMRS, T []*term.Term, precondition map[*term.Term]*term.Term, reductionLimit int) {
	if tinvP == nil {
		return
	}

	tinvMain := tinvP.NTs[tinvP.Main].Name

	for _, t := range T {
		if _, ok := precondition[t]; ok {
			continue
		}

		reduced, complete := pmrs.Reduce(tinvP, term.App(tinvMain, t), reductionLimit)
		if complete {
			precondition[t] = reduced
		}
	}
}

// solveHoles is the Solve state: it first tries C7's solver-free deduction
// on every single-term equation whose RHS is a direct hole application,
// cross-validating agreement across equations that share a hole, and
// falls back to a single SyGuS call (biased by any deduction skeletons)
// for every hole deduction left unresolved.
func solveHoles(ctx context.Context, sctx *synctx.Context, tgtP *pmrs.PMRS, eqs []equations.Equation, opset grammar.OpSet, useSyntactic bool) (map[string]verifier.Candidate, bool) {
	cands := map[string]verifier.Candidate{}
	guesses := map[string]*grammar.Skeleton{}

	remaining := map[string]bool{}
	for _, h := range tgtP.Params {
		remaining[h] = true
	}

	if useSyntactic {
		perHole := map[string][]deduction.Result{}

		for _, eq := range eqs {
			if eq.RHS.Kind != term.KApp || !tgtP.IsHole(eq.RHS.Fn) {
				continue
			}

			allowed := make([]string, 0, len(eq.ScalarVars))
			for v := range eq.ScalarVars {
				allowed = append(allowed, v)
			}

			perHole[eq.RHS.Fn] = append(perHole[eq.RHS.Fn], deduction.Deduce(eq, eq.RHS.Fn, allowed))
		}

		for name, results := range perHole {
			if best, ok := deduction.CrossValidate(ctx, sctx.Solvers.SMT, results); ok {
				cands[name] = verifier.Candidate{Params: best.Args, Body: resolveBoxes(best.Body, best.Args, best.Boxes)}
				delete(remaining, name)

				continue
			}

			for _, r := range results {
				if r.Outcome == deduction.Second && r.Skeleton != nil {
					guesses[name] = r.Skeleton
				}
			}
		}
	}

	if len(remaining) == 0 {
		return cands, true
	}

	if sctx.Solvers.SyGuS == nil {
		return nil, false
	}

	holes := holeDescriptors(eqs, remaining)
	if len(holes) < len(remaining) {
		// No equation directly applies one of the remaining holes (it
		// appears only nested inside another expression) — C6 has
		// nothing to synthesize a signature against.
		return nil, false
	}

	script := sygus.BuildScript(eqs, holes, guesses, opset, false)

	result, err := sygus.Solve(ctx, sctx.Solvers.SyGuS, script)
	if err != nil || result.Status != solver.StatusSuccess {
		return nil, false
	}

	for name := range remaining {
		body, ok := result.Bodies[name]
		if !ok {
			return nil, false
		}

		cands[name] = verifier.Candidate{Params: localNames(holes, name), Body: body}
	}

	return cands, true
}

// resolveBoxes turns a C7 guess's boxed body into a concrete term: a
// positional box #i becomes the candidate's i-th formal parameter, and a
// free box is replaced by the original subexpression it stood in for.
func resolveBoxes(t *term.Term, args []string, boxes map[int64]*term.Term) *term.Term {
	if t == nil {
		return nil
	}

	switch t.Kind {
	case term.KBox:
		if t.BoxPositive {
			idx := int(t.BoxID) - 1
			if idx >= 0 && idx < len(args) {
				return term.Var(args[idx], nil)
			}

			return t
		}

		if sub, ok := boxes[t.BoxID]; ok {
			return sub
		}

		return t
	case term.KTuple:
		elems := make([]*term.Term, len(t.Elems))
		for i, e := range t.Elems {
			elems[i] = resolveBoxes(e, args, boxes)
		}

		return term.TupleOf(elems...)
	case term.KBinop:
		return term.Binop(t.BOp, resolveBoxes(t.L, args, boxes), resolveBoxes(t.R, args, boxes))
	case term.KUnop:
		return term.Unop(t.UOp, resolveBoxes(t.X, args, boxes))
	case term.KIte:
		return term.Ite(resolveBoxes(t.Cond, args, boxes), resolveBoxes(t.Then, args, boxes), resolveBoxes(t.Else, args, boxes))
	case term.KApp:
		newArgs := make([]*term.Term, len(t.Args))
		for i, a := range t.Args {
			newArgs[i] = resolveBoxes(a, args, boxes)
		}

		return term.App(t.Fn, newArgs...)
	default:
		return t
	}
}

func holeDescriptors(eqs []equations.Equation, remaining map[string]bool) []sygus.Hole {
	var holes []sygus.Hole

	seen := map[string]bool{}

	for _, eq := range eqs {
		if eq.RHS.Kind != term.KApp || !remaining[eq.RHS.Fn] || seen[eq.RHS.Fn] {
			continue
		}

		locals := make([]grammar.Local, len(eq.RHS.Args))
		for i, a := range eq.RHS.Args {
			locals[i] = grammar.Local{Name: fmt.Sprintf("a%d", i), Sort: sygus.SortOf(a.Type)}
		}

		holes = append(holes, sygus.Hole{Name: eq.RHS.Fn, Locals: locals, Sort: sygus.SortOf(eq.LHS.Type)})
		seen[eq.RHS.Fn] = true
	}

	return holes
}

func localNames(holes []sygus.Hole, name string) []string {
	for _, h := range holes {
		if h.Name != name {
			continue
		}

		names := make([]string, len(h.Locals))
		for i, l := range h.Locals {
			names[i] = l.Name
		}

		return names
	}

	return nil
}

// lemmaPhase is the LemmaSynth state: it tries, in T's order, every term
// not already given up on, attempting to synthesize a strengthening
// per-term invariant. Accepting one conjoins it into that term's
// precondition and reports progress (-> BuildEqs). Exhausting every term
// without an acceptance reports the unrealizability certificate case.
func lemmaPhase(
	ctx context.Context,
	sctx *synctx.Context,
	T []*term.Term,
	precondition map[*term.Term]*term.Term,
	lstates map[*term.Term]*lemma.TermState,
	givenUp map[*term.Term]bool,
	cfg Config,
) (progressed bool, unrealizable bool) {
	if sctx.Solvers.SyGuS == nil {
		return false, false
	}

	attempted := false

	for _, t := range T {
		if givenUp[t] {
			continue
		}

		attempted = true

		st, ok := lstates[t]
		if !ok {
			st = newTermState(t, precondition[t])
			lstates[t] = st
		}

		res, err := lemma.Synthesize(ctx, sctx.Solvers.SyGuS, sctx.Solvers.SMT, st, lemma.Config{
			MaxAttempts: cfg.LemmaAttempts,
			OpSet:       cfg.OpSet,
		})
		if err != nil {
			givenUp[t] = true
			continue
		}

		if res.Outcome == lemma.Accepted {
			precondition[t] = conjoinPrecondition(precondition[t], res.Lemma)
			return true, false
		}

		givenUp[t] = true
	}

	if !attempted {
		return false, false
	}

	return false, true
}

func newTermState(t *term.Term, pre *term.Term) *lemma.TermState {
	free := term.FreeVars(t)

	names := make([]string, 0, len(free))
	for n := range free {
		names = append(names, n)
	}

	sort.Strings(names)

	return &lemma.TermState{ScalarVars: names, VarTypes: free, Precondition: pre}
}

func conjoinPrecondition(existing, next *term.Term) *term.Term {
	if existing == nil {
		return next
	}

	return term.Binop(term.OpAnd, existing, next)
}

// liftedOpSet is the best-effort stand-in for C10's lifting transition: the
// source's lifting mechanism (widening a hole's domain by extra tuple
// components) has no complete normal form in spec.md (§9 open question),
// so this instead broadens the search — allowing nonlinear combinations
// the base OpSet excluded — before returning to BuildEqs with a cleared
// attempt history.
func liftedOpSet(opset grammar.OpSet) grammar.OpSet {
	lifted := opset
	lifted.AllowNonlinear = true
	lifted.AllowMultiplicationByConst = true

	return lifted
}

// certificate packages the terms the lemma phase gave up on as the
// unrealizability certificate's witnessing set (spec.md §8 scenario 4).
func certificate(givenUp map[*term.Term]bool) []verifier.Counterexample {
	out := make([]verifier.Counterexample, 0, len(givenUp))

	for t := range givenUp {
		out = append(out, verifier.Counterexample{Term: t})
	}

	return out
}
