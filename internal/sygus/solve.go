package sygus

import (
	"context"
	"fmt"

	"github.com/synduce/synduce/internal/solver"
	"github.com/synduce/synduce/internal/term"
)

// Result is C6's outcome: the solver's status and, on success, each hole's
// synthesized body as a typed term.
type Result struct {
	Status solver.SyGuSStatus
	Bodies map[string]*term.Term
}

// Solve submits script to the given port and parses a successful
// response's bodies into terms. A solver error (crash, timeout, garbled
// output) is returned as an error wrapping solver.ErrSolverUnavailable —
// C10 treats it exactly like StatusFail/StatusUnknown.
func Solve(ctx context.Context, sv solver.SyGuSSolver, script Script) (Result, error) {
	resp, err := sv.Solve(ctx, solver.Script(script))
	if err != nil {
		return Result{Status: solver.StatusUnknown}, fmt.Errorf("sygus solve: %w", err)
	}

	if resp.Status != solver.StatusSuccess {
		return Result{Status: resp.Status}, nil
	}

	bodies := make(map[string]*term.Term, len(resp.Bodies))

	for name, raw := range resp.Bodies {
		t, perr := ParseSExprTerm(raw)
		if perr != nil {
			return Result{Status: solver.StatusFail}, fmt.Errorf("parsing synthesized body for %q: %w", name, perr)
		}

		bodies[name] = t
	}

	return Result{Status: solver.StatusSuccess, Bodies: bodies}, nil
}

// Script is a type alias so callers in this package can build a script
// with sygus.BuildScript and pass it straight to Solve without repeating
// the solver package qualifier everywhere.
type Script = solver.Script
