// Package grammar implements C5: SyGuS grammar generation from an operator
// set, the argument locals available to a hole, and an optional guess
// skeleton produced by the deduction engine (C7) to bias the search.
package grammar

import (
	"fmt"
	"sort"
	"strings"
)

// Local is one argument a synthesized hole body may reference, plus its
// sort. Tuple-typed arguments are projected into their component selector
// expressions automatically (spec.md §4.5).
type Local struct {
	Name string
	Sort string // "Int", "Bool", or a tuple sort "(Tuple S1 S2 ...)".
}

// OpSet parameterizes which operators the grammar offers.
type OpSet struct {
	Ops                      []string // e.g. "+","-","*","min","max","ite", comparison/boolean connectives.
	AllowMultiplicationByConst bool
	AllowNonlinear           bool
	BooleanRequired          bool
}

// Skeleton is a partial shape produced by C7's deduction loop (a "Second"
// result) used to bias the grammar: each hole in the skeleton becomes an
// IStart production.
type Skeleton struct {
	Shapes []string // Pre-rendered S-expression productions.
}

// Grammar is a rendered SyGuS `((Ix Int) (Ic Int) (Ipred Bool) ...)`
// grammar declaration together with its per-nonterminal productions, ready
// to splice into a synth-fun command.
type Grammar struct {
	ReturnSort string
	text       string
}

// String renders the full `(Ix Int (...)) (Ic Int (...)) ...` grammar
// body, for embedding after a synth-fun's argument/sort lists.
func (g Grammar) String() string { return g.text }

// Generate produces a three-nonterminal grammar (Ix integers, Ic integer
// constants, Ipred booleans), projecting tuple-sorted args into selector
// expressions, optionally adding an IStart nonterminal seeded from guess.
func Generate(returnSort string, args []Local, opset OpSet, guess *Skeleton) Grammar {
	projected := projectTuples(args)

	ixTerms := []string{"Ic"}
	for _, a := range projected {
		if a.Sort == "Int" {
			ixTerms = append(ixTerms, a.Name)
		}
	}

	for _, op := range opset.Ops {
		switch op {
		case "+", "-", "min", "max":
			ixTerms = append(ixTerms, fmt.Sprintf("(%s Ix Ix)", op))
		case "*":
			if opset.AllowMultiplicationByConst {
				ixTerms = append(ixTerms, "(* Ic Ix)")
			}

			if opset.AllowNonlinear {
				ixTerms = append(ixTerms, "(* Ix Ix)")
			}
		}
	}

	ixTerms = append(ixTerms, "(ite Ipred Ix Ix)")

	predTerms := []string{}
	for _, cmp := range []string{"=", "<", "<=", ">", ">="} {
		predTerms = append(predTerms, fmt.Sprintf("(%s Ix Ix)", cmp))
	}

	for _, a := range projected {
		if a.Sort == "Bool" {
			predTerms = append(predTerms, a.Name)
		}
	}

	predTerms = append(predTerms, "(and Ipred Ipred)", "(or Ipred Ipred)", "(not Ipred)")

	var b strings.Builder

	fmt.Fprintf(&b, "((Ix Int (%s)) (Ic Int (0 1 2 -1)) (Ipred Bool (%s))",
		strings.Join(ixTerms, " "), strings.Join(predTerms, " "))

	if guess != nil && len(guess.Shapes) > 0 {
		sort.Strings(guess.Shapes)
		fmt.Fprintf(&b, " (IStart %s (%s))", returnSort, strings.Join(guess.Shapes, " "))
	}

	if returnSort == "(Tuple)" || strings.HasPrefix(returnSort, "(Tuple ") {
		b.WriteString(fmt.Sprintf(" (ITuple %s ((mkTuple Ix Ix)))", returnSort))
	}

	b.WriteString(")")

	return Grammar{ReturnSort: returnSort, text: b.String()}
}

// projectTuples unfolds tuple-sorted args into synthetic selector locals
// `((_ tupSel 0) name)`, `((_ tupSel 1) name)`, ... of their component
// sorts, followed by the tuple arg itself.
func projectTuples(args []Local) []Local {
	out := make([]Local, 0, len(args))

	for _, a := range args {
		if !strings.HasPrefix(a.Sort, "(Tuple") {
			out = append(out, a)
			continue
		}

		sorts := strings.Fields(strings.TrimSuffix(strings.TrimPrefix(a.Sort, "(Tuple"), ")"))
		for i, s := range sorts {
			out = append(out, Local{Name: fmt.Sprintf("((_ tupSel %d) %s)", i, a.Name), Sort: s})
		}

		out = append(out, a)
	}

	return out
}

// RecomputeLogic returns "DTLIA" when algebraic data types appear in the
// query and "LIA" otherwise. The operator set is not consulted.
func RecomputeLogic(usesDatatypes bool) string {
	if usesDatatypes {
		return "DTLIA"
	}

	return "LIA"
}
