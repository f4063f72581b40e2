// Package z3adapter implements the C12 in-process SMT adapter: it drives
// github.com/vhavlena/z3-go directly (Context/Solver/Model over Z3's C
// API via cgo) instead of spawning a separate solver binary, avoiding a
// subprocess round-trip for the small bounded checks C8/C9 issue
// constantly. The Context/Solver/Model shape mirrors both
// _examples/vhavlena-z3-go and _examples/Z3Prover-z3/src/api/go.
package z3adapter

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/vhavlena/z3-go/z3"

	"github.com/synduce/synduce/internal/solver"
)

// SMT drives one Z3 context and one incremental solver. Every call is
// serialized behind mu for the same "exclusive per call" reason the
// subprocess adapter documents, even though an in-process solver has no
// OS pipe to corrupt — two goroutines pushing/popping the same scope
// stack concurrently would still interleave incorrectly.
type SMT struct {
	mu     sync.Mutex
	ctx    *z3.Context
	solver *z3.Solver
	names  []string // declared constant names, for GetModel.
}

// New creates a fresh Z3 context and attached solver.
func New() *SMT {
	cfg := z3.NewConfig()
	ctx := z3.NewContext(cfg)

	return &SMT{ctx: ctx, solver: ctx.NewSolver()}
}

func (s *SMT) Close() {
	s.solver.Close()
	s.ctx.Close()
}

func (s *SMT) Push(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.solver.Push()

	return nil
}

func (s *SMT) Pop(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.solver.Pop(1)

	return nil
}

func (s *SMT) Assert(_ context.Context, smtlibTerm string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.solver.AssertSMTLIB2String(fmt.Sprintf("(assert %s)", smtlibTerm)); err != nil {
		return fmt.Errorf("%w: %v", solver.ErrSolverUnavailable, err)
	}

	return nil
}

func (s *SMT) DeclareFun(_ context.Context, name string, argSorts []string, retSort string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	decl := fmt.Sprintf("(declare-fun %s (%s) %s)", name, strings.Join(argSorts, " "), retSort)
	if err := s.solver.AssertSMTLIB2String(decl); err != nil {
		return fmt.Errorf("%w: %v", solver.ErrSolverUnavailable, err)
	}

	if len(argSorts) == 0 {
		s.names = append(s.names, name)
	}

	return nil
}

func (s *SMT) SetOption(_ context.Context, name, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.solver.SetOption(name, value); err != nil {
		return fmt.Errorf("%w: %v", solver.ErrSolverUnavailable, err)
	}

	return nil
}

// SetLogic is a no-op for z3: the in-process API has no separate
// set-logic call, Z3 infers the theory combination from the assertions
// it is given. The method still exists to satisfy solver.SMTSolver.
func (s *SMT) SetLogic(_ context.Context, _ string) error {
	return nil
}

func (s *SMT) CheckSat(_ context.Context) (solver.SatResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.solver.Check()
	if err != nil {
		// Z3 reports "unknown" with a reason string through err; that is
		// a legitimate answer, not a solver failure, per the SMTSolver
		// contract.
		return solver.Unknown, nil
	}

	switch res {
	case z3.Sat:
		return solver.Sat, nil
	case z3.Unsat:
		return solver.Unsat, nil
	default:
		return solver.Unknown, nil
	}
}

func (s *SMT) GetModel(_ context.Context) (solver.Model, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m := s.solver.Model()
	if m == nil {
		return nil, fmt.Errorf("%w: no model available", solver.ErrSolverUnavailable)
	}
	defer m.Close()

	model := solver.Model{}

	for _, name := range s.names {
		decl, ok := s.ctx.ConstDecl(name)
		if !ok {
			continue
		}

		val := m.Eval(decl, true)

		model[name] = val.String()
	}

	return model, nil
}
