package diagnostics

import (
	"fmt"
	"runtime"

	"github.com/synduce/synduce/internal/position"
)

// Reporter is the narrow façade the rest of the module reports through:
// one method per ErrorClass, instead of one method per compiler phase.
// C11 (frontend) reports through Input*, the solver adapters (C12)
// through Resource/Solver, the refinement loop (C10) through Infeasible,
// and any package guarding an invariant reports through Internal.
type Reporter struct {
	manager *Manager
}

func NewReporter() *Reporter {
	return &Reporter{manager: NewManager()}
}

func (r *Reporter) Manager() *Manager { return r.manager }

// InputError reports a class-1 error: malformed syntax, an undefined
// reference, a hole outside the target, or any other defect in the
// problem source itself. Fatal — callers should not proceed to BuildEqs.
func (r *Reporter) InputError(message string, span position.Span, sourceFile string) {
	r.manager.Add(NewBuilder().
		Error().
		WithClass(ClassInput).
		WithCode("E-INPUT").
		WithMessage(message).
		WithSpan(span).
		WithSourceFile(sourceFile).
		Build())
}

func (r *Reporter) InputErrorf(span position.Span, sourceFile, format string, args ...interface{}) {
	r.InputError(fmt.Sprintf(format, args...), span, sourceFile)
}

// MissingVariantCoverage reports a non-terminal whose rules don't cover
// every variant of a matched type — an input error, since Synduce
// requires total pattern coverage on every non-terminal (spec.md's PMRS
// well-formedness condition).
func (r *Reporter) MissingVariantCoverage(ntName, variant string, span position.Span, sourceFile string) {
	r.manager.Add(NewBuilder().
		Error().
		WithClass(ClassInput).
		WithCode("E-INPUT-COVERAGE").
		WithMessagef("non-terminal %q has no rule for variant %q", ntName, variant).
		WithSpan(span).
		WithSourceFile(sourceFile).
		WithExplanation("every non-terminal must match every variant of the type it scrutinizes, either by name or by a trailing wildcard rule").
		Build())
}

// ResourceError reports a class-2 error: something about the execution
// environment, not the problem, went wrong — a missing solver binary, a
// subprocess timeout, an unreachable remote gateway. Soft: the caller
// reports Unknown rather than aborting.
func (r *Reporter) ResourceError(message string, detail string) {
	d := NewBuilder().
		Warning().
		WithClass(ClassResource).
		WithCode("W-RESOURCE").
		WithMessage(message)

	if detail != "" {
		d = d.WithExplanation(detail)
	}

	r.manager.Add(d.Build())
}

func (r *Reporter) ResourceErrorf(detail string, format string, args ...interface{}) {
	r.ResourceError(fmt.Sprintf(format, args...), detail)
}

// SolverError reports a class-3 error: a backend solver ran but returned
// something the loop can't interpret — a malformed model, a bare
// "unknown", a crash in the solver process itself. Soft, same as
// ResourceError.
func (r *Reporter) SolverError(message string, backendOutput string) {
	d := NewBuilder().
		Warning().
		WithClass(ClassSolver).
		WithCode("W-SOLVER").
		WithMessage(message)

	if backendOutput != "" {
		d = d.WithExplanation(backendOutput)
	}

	r.manager.Add(d.Build())
}

// Infeasible reports a class-4 conclusion: the equation system has been
// proven to admit no solution in the current search space. related, if
// given, is reported as related information pointing at the
// counterexample terms that drove the proof.
func (r *Reporter) Infeasible(message string, related []RelatedInformation) {
	r.manager.Add(Diagnostic{
		Level:       LevelInfo,
		Class:       ClassInfeasibility,
		Code:        "I-UNREALIZABLE",
		Message:     message,
		RelatedInfo: related,
	})
}

// Internal reports a class-5 bug: an invariant the synthesis engine
// itself is supposed to maintain was violated. Captures a stack trace
// since, unlike the other four classes, there is no expectation this
// ever fires on well-formed input — whoever reads it next is debugging
// the engine, not the problem.
func (r *Reporter) Internal(message string) {
	r.manager.Add(NewBuilder().
		Error().
		WithClass(ClassInternal).
		WithCode("E-INTERNAL").
		WithMessage(message).
		WithStackTrace(captureStackTrace()).
		Build())
}

func (r *Reporter) Internalf(format string, args ...interface{}) {
	r.Internal(fmt.Sprintf(format, args...))
}

func captureStackTrace() []string {
	const maxFrames = 32

	pcs := make([]uintptr, maxFrames)
	n := runtime.Callers(3, pcs) // skip Callers, captureStackTrace, the Internal*/Reporter caller

	frames := runtime.CallersFrames(pcs[:n])

	var out []string

	for {
		frame, more := frames.Next()
		out = append(out, fmt.Sprintf("%s (%s:%d)", frame.Function, frame.File, frame.Line))

		if !more {
			break
		}
	}

	return out
}
