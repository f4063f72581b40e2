// Package stub implements C12's deterministic, in-process SMT port: a
// small bounded-domain brute-force model finder over the quantifier-free
// integer/boolean fragment C8/C9 actually emit (+,-,*,div,mod,min,max,
// comparisons, and/or/not, ite). It exists so package tests can exercise
// the verifier and lemma synthesizer end to end without a solver binary;
// it is never wired into cmd/synduce's production solver selection.
package stub

import (
	"context"
	"fmt"
	"sort"

	"github.com/synduce/synduce/internal/solver"
	"github.com/synduce/synduce/internal/sygus"
	"github.com/synduce/synduce/internal/term"
)

// domain bounds the brute-force search space per integer variable.
var domain = []int64{-3, -2, -1, 0, 1, 2, 3}

// maxVars caps how many free variables CheckSat is willing to enumerate
// before giving up with solver.Unknown — 4 vars * 7 values already yields
// 2401 integer assignments per boolean combination.
const maxVars = 6

type frame struct {
	varMark int
	assertN int
}

// SMT is the scripted/brute-force solver.SMTSolver implementation.
type SMT struct {
	varNames []string
	varSorts map[string]string
	asserts  []string
	frames   []frame
	logic    string
	lastSat  solver.Model
}

// New returns an empty solver state, ready for Push/Assert/CheckSat.
func New() *SMT {
	return &SMT{varSorts: map[string]string{}}
}

func (s *SMT) Push(_ context.Context) error {
	s.frames = append(s.frames, frame{varMark: len(s.varNames), assertN: len(s.asserts)})
	return nil
}

func (s *SMT) Pop(_ context.Context) error {
	if len(s.frames) == 0 {
		return fmt.Errorf("stub solver: pop without matching push")
	}

	f := s.frames[len(s.frames)-1]
	s.frames = s.frames[:len(s.frames)-1]

	for _, name := range s.varNames[f.varMark:] {
		delete(s.varSorts, name)
	}

	s.varNames = s.varNames[:f.varMark]
	s.asserts = s.asserts[:f.assertN]

	return nil
}

func (s *SMT) Assert(_ context.Context, smtlibTerm string) error {
	s.asserts = append(s.asserts, smtlibTerm)
	return nil
}

func (s *SMT) DeclareFun(_ context.Context, name string, argSorts []string, retSort string) error {
	if len(argSorts) > 0 {
		return fmt.Errorf("stub solver: uninterpreted functions of nonzero arity are not supported")
	}

	if _, seen := s.varSorts[name]; !seen {
		s.varNames = append(s.varNames, name)
	}

	s.varSorts[name] = retSort

	return nil
}

func (s *SMT) SetOption(_ context.Context, _, _ string) error { return nil }

func (s *SMT) SetLogic(_ context.Context, logic string) error {
	s.logic = logic
	return nil
}

// CheckSat parses every asserted constraint and brute-force searches for a
// satisfying assignment over the bounded integer/boolean domain.
func (s *SMT) CheckSat(_ context.Context) (solver.SatResult, error) {
	if len(s.varNames) > maxVars {
		return solver.Unknown, nil
	}

	parsed := make([]*term.Term, len(s.asserts))

	for i, a := range s.asserts {
		t, err := sygus.ParseSExprTerm(a)
		if err != nil {
			return solver.Unknown, fmt.Errorf("stub solver: parsing assertion %q: %w", a, err)
		}

		parsed[i] = t
	}

	names := append([]string{}, s.varNames...)
	sort.Strings(names)

	model, ok := search(names, s.varSorts, parsed, 0, map[string]int64{}, map[string]bool{})
	if !ok {
		s.lastSat = nil
		return solver.Unsat, nil
	}

	s.lastSat = model

	return solver.Sat, nil
}

func (s *SMT) GetModel(_ context.Context) (solver.Model, error) {
	if s.lastSat == nil {
		return solver.Model{}, nil
	}

	return s.lastSat, nil
}

func search(names []string, sorts map[string]string, asserts []*term.Term, idx int, ints map[string]int64, bools map[string]bool) (solver.Model, bool) {
	if idx == len(names) {
		if satisfies(asserts, ints, bools) {
			return renderModel(ints, bools), true
		}

		return nil, false
	}

	name := names[idx]

	if sorts[name] == "Bool" {
		for _, b := range []bool{false, true} {
			bools[name] = b

			if model, ok := search(names, sorts, asserts, idx+1, ints, bools); ok {
				return model, true
			}
		}

		delete(bools, name)

		return nil, false
	}

	for _, v := range domain {
		ints[name] = v

		if model, ok := search(names, sorts, asserts, idx+1, ints, bools); ok {
			return model, true
		}
	}

	delete(ints, name)

	return nil, false
}

func satisfies(asserts []*term.Term, ints map[string]int64, bools map[string]bool) bool {
	for _, a := range asserts {
		v, err := eval(a, ints, bools)
		if err != nil || !v.isBool || !v.b {
			return false
		}
	}

	return true
}

func renderModel(ints map[string]int64, bools map[string]bool) solver.Model {
	m := solver.Model{}

	for name, v := range ints {
		m[name] = fmt.Sprintf("%d", v)
	}

	for name, v := range bools {
		m[name] = fmt.Sprintf("%t", v)
	}

	return m
}

type val struct {
	isBool bool
	i      int64
	b      bool
}

func eval(t *term.Term, ints map[string]int64, bools map[string]bool) (val, error) {
	switch t.Kind {
	case term.KConst:
		switch t.ConstKind {
		case term.CBool:
			return val{isBool: true, b: t.BoolVal}, nil
		case term.CInt:
			return val{i: t.IntVal}, nil
		default:
			return val{}, fmt.Errorf("stub solver: unsupported constant kind")
		}
	case term.KVar:
		if b, ok := bools[t.Name]; ok {
			return val{isBool: true, b: b}, nil
		}

		if i, ok := ints[t.Name]; ok {
			return val{i: i}, nil
		}

		return val{}, fmt.Errorf("stub solver: unbound variable %q", t.Name)
	case term.KUnop:
		x, err := eval(t.X, ints, bools)
		if err != nil {
			return val{}, err
		}

		if t.UOp == term.OpNot {
			return val{isBool: true, b: !x.b}, nil
		}

		return val{i: -x.i}, nil
	case term.KBinop:
		l, err := eval(t.L, ints, bools)
		if err != nil {
			return val{}, err
		}

		r, err := eval(t.R, ints, bools)
		if err != nil {
			return val{}, err
		}

		return evalBinop(t.BOp, l, r)
	case term.KIte:
		c, err := eval(t.Cond, ints, bools)
		if err != nil {
			return val{}, err
		}

		if c.b {
			return eval(t.Then, ints, bools)
		}

		return eval(t.Else, ints, bools)
	default:
		return val{}, fmt.Errorf("stub solver: unsupported term shape in brute-force evaluation")
	}
}

func evalBinop(op term.BinOp, l, r val) (val, error) {
	switch op {
	case term.OpAdd:
		return val{i: l.i + r.i}, nil
	case term.OpSub:
		return val{i: l.i - r.i}, nil
	case term.OpMul:
		return val{i: l.i * r.i}, nil
	case term.OpDiv:
		if r.i == 0 {
			return val{}, fmt.Errorf("stub solver: division by zero")
		}

		return val{i: l.i / r.i}, nil
	case term.OpMod:
		if r.i == 0 {
			return val{}, fmt.Errorf("stub solver: modulo by zero")
		}

		return val{i: l.i % r.i}, nil
	case term.OpMin:
		if l.i < r.i {
			return val{i: l.i}, nil
		}

		return val{i: r.i}, nil
	case term.OpMax:
		if l.i > r.i {
			return val{i: l.i}, nil
		}

		return val{i: r.i}, nil
	case term.OpEq:
		if l.isBool {
			return val{isBool: true, b: l.b == r.b}, nil
		}

		return val{isBool: true, b: l.i == r.i}, nil
	case term.OpNeq:
		if l.isBool {
			return val{isBool: true, b: l.b != r.b}, nil
		}

		return val{isBool: true, b: l.i != r.i}, nil
	case term.OpLt:
		return val{isBool: true, b: l.i < r.i}, nil
	case term.OpLe:
		return val{isBool: true, b: l.i <= r.i}, nil
	case term.OpGt:
		return val{isBool: true, b: l.i > r.i}, nil
	case term.OpGe:
		return val{isBool: true, b: l.i >= r.i}, nil
	case term.OpAnd:
		return val{isBool: true, b: l.b && r.b}, nil
	case term.OpOr:
		return val{isBool: true, b: l.b || r.b}, nil
	default:
		return val{}, fmt.Errorf("stub solver: unsupported operator")
	}
}

var _ solver.SMTSolver = (*SMT)(nil)
