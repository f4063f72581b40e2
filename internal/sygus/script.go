// Package sygus implements C6: translating equations into a SyGuS
// constraint script, invoking the abstract solver.SyGuSSolver port, and
// parsing successful responses back into typed terms.
package sygus

import (
	"fmt"
	"sort"
	"strings"

	"github.com/synduce/synduce/internal/equations"
	"github.com/synduce/synduce/internal/grammar"
	"github.com/synduce/synduce/internal/solver"
	"github.com/synduce/synduce/internal/term"
	"github.com/synduce/synduce/internal/typeterm"
)

// Hole describes one unknown function to synthesize: its name, the locals
// available to it (its bound arguments plus the free scalar variables
// introduced by recursion elimination), and its return sort.
type Hole struct {
	Name   string
	Locals []grammar.Local
	Sort   string
}

// BuildScript renders equations into a solver.Script: one synth-fun per
// hole (with its generated grammar), one declare-var per free variable
// appearing across the equations, and one constraint per equation
// (spec.md §4.6, §6).
func BuildScript(eqs []equations.Equation, holes []Hole, guesses map[string]*grammar.Skeleton, opset grammar.OpSet, usesDatatypes bool) solver.Script {
	script := solver.Script{Logic: grammar.RecomputeLogic(usesDatatypes)}

	for _, h := range holes {
		g := grammar.Generate(h.Sort, h.Locals, opset, guesses[h.Name])

		args := make([]solver.VarDecl, len(h.Locals))
		for i, l := range h.Locals {
			args[i] = solver.VarDecl{Name: l.Name, Sort: l.Sort}
		}

		script.SynthFuns = append(script.SynthFuns, solver.SynthFunDecl{
			Name: h.Name, Args: args, Sort: h.Sort, Grammar: g.String(),
		})
	}

	varSorts := map[string]string{}

	for _, eq := range eqs {
		collectVars(eq.LHS, varSorts)
		collectVars(eq.RHS, varSorts)

		if eq.Pre != nil {
			collectVars(eq.Pre, varSorts)
		}
	}

	names := make([]string, 0, len(varSorts))
	for n := range varSorts {
		names = append(names, n)
	}

	sort.Strings(names)

	for _, n := range names {
		script.DeclareVars = append(script.DeclareVars, solver.VarDecl{Name: n, Sort: varSorts[n]})
	}

	for _, eq := range eqs {
		lhs := render(eq.LHS)
		rhs := render(eq.RHS)

		constraint := fmt.Sprintf("(= %s %s)", lhs, rhs)
		if eq.Pre != nil {
			constraint = fmt.Sprintf("(=> %s %s)", render(eq.Pre), constraint)
		}

		script.Constraints = append(script.Constraints, constraint)
	}

	return script
}

func collectVars(t *term.Term, out map[string]string) {
	for name, typ := range term.FreeVars(t) {
		if _, seen := out[name]; seen {
			continue
		}

		out[name] = sortOf(typ)
	}
}

// SortOf maps a type to its SMT-LIB sort name, exported so C8/C9 can
// declare free variables against the same SMT port the synth-fun
// constraints were built against.
func SortOf(t *typeterm.Type) string { return sortOf(t) }

func sortOf(t *typeterm.Type) string {
	if t == nil {
		return "Int"
	}

	switch t.Kind {
	case typeterm.KBool:
		return "Bool"
	case typeterm.KTuple:
		parts := make([]string, len(t.Elems))
		for i, e := range t.Elems {
			parts[i] = sortOf(e)
		}

		return "(Tuple " + strings.Join(parts, " ") + ")"
	default:
		return "Int"
	}
}

// Render renders a term as an SMT-LIB2/SyGuS S-expression, for callers
// outside this package that need to hand a term to an SMT port (C8's
// counterexample checks, C9's lemma constraints).
func Render(t *term.Term) string { return render(t) }

// render renders a term as an SMT-LIB2/SyGuS S-expression.
func render(t *term.Term) string {
	if t == nil {
		return "0"
	}

	switch t.Kind {
	case term.KConst:
		switch t.ConstKind {
		case term.CBool:
			if t.BoolVal {
				return "true"
			}

			return "false"
		case term.CString:
			return fmt.Sprintf("%q", t.StrVal)
		default:
			return fmt.Sprintf("%d", t.IntVal)
		}
	case term.KVar:
		return t.Name
	case term.KTuple:
		parts := make([]string, len(t.Elems))
		for i, e := range t.Elems {
			parts[i] = render(e)
		}

		return "(mkTuple " + strings.Join(parts, " ") + ")"
	case term.KBinop:
		return fmt.Sprintf("(%s %s %s)", smtBinop(t.BOp), render(t.L), render(t.R))
	case term.KUnop:
		if t.UOp == term.OpNot {
			return fmt.Sprintf("(not %s)", render(t.X))
		}

		return fmt.Sprintf("(- %s)", render(t.X))
	case term.KIte:
		return fmt.Sprintf("(ite %s %s %s)", render(t.Cond), render(t.Then), render(t.Else))
	case term.KApp:
		parts := make([]string, len(t.Args))
		for i, a := range t.Args {
			parts[i] = render(a)
		}

		if len(parts) == 0 {
			return t.Fn
		}

		return "(" + t.Fn + " " + strings.Join(parts, " ") + ")"
	default:
		return "0"
	}
}

func smtBinop(op term.BinOp) string {
	switch op {
	case term.OpAdd:
		return "+"
	case term.OpSub:
		return "-"
	case term.OpMul:
		return "*"
	case term.OpDiv:
		return "div"
	case term.OpMod:
		return "mod"
	case term.OpMin:
		return "min"
	case term.OpMax:
		return "max"
	case term.OpEq:
		return "="
	case term.OpNeq:
		return "distinct"
	case term.OpLt:
		return "<"
	case term.OpLe:
		return "<="
	case term.OpGt:
		return ">"
	case term.OpGe:
		return ">="
	case term.OpAnd:
		return "and"
	case term.OpOr:
		return "or"
	default:
		return "+"
	}
}
