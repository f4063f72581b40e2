package stub

import (
	"context"
	"fmt"

	"github.com/synduce/synduce/internal/solver"
)

// SyGuS is a scripted solver.SyGuSSolver: each call to Solve is handed to
// Respond, so package tests can script exact solver behavior (success with
// a fixed body, StatusInfeasible, or a simulated crash) without depending
// on an external synthesizer binary. A nil Respond answers every query
// with StatusUnknown, matching a solver that is configured but not yet
// primed for a given test.
type SyGuS struct {
	Respond func(ctx context.Context, script solver.Script) (solver.Response, error)

	// Calls records every script this stub was asked to solve, in order,
	// so a test can assert on exactly what C6 sent.
	Calls []solver.Script
}

func (s *SyGuS) Solve(ctx context.Context, script solver.Script) (solver.Response, error) {
	s.Calls = append(s.Calls, script)

	if s.Respond == nil {
		return solver.Response{Status: solver.StatusUnknown}, nil
	}

	return s.Respond(ctx, script)
}

// FixedBody returns a Respond function that answers StatusSuccess with the
// same body for every synth-fun the script declares — convenient when a
// test only cares about a single hole.
func FixedBody(body string) func(context.Context, solver.Script) (solver.Response, error) {
	return func(_ context.Context, script solver.Script) (solver.Response, error) {
		bodies := make(map[string]string, len(script.SynthFuns))
		for _, f := range script.SynthFuns {
			bodies[f.Name] = body
		}

		return solver.Response{Status: solver.StatusSuccess, Bodies: bodies}, nil
	}
}

// Crash returns a Respond function simulating an unavailable solver.
func Crash() func(context.Context, solver.Script) (solver.Response, error) {
	return func(context.Context, solver.Script) (solver.Response, error) {
		return solver.Response{}, fmt.Errorf("stub sygus solver: %w", solver.ErrSolverUnavailable)
	}
}

var _ solver.SyGuSSolver = (*SyGuS)(nil)
