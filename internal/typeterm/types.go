// Package typeterm implements the surface and internal type language: base
// types, named sum types with variant payloads, function arrows,
// parametric constructor application, and fresh type variables, plus
// Robinson unification with an occurs-check.
//
// Grounded on the teacher's internal/types package — specifically
// algorithm_w.go's expression/type split and constraint_solver.go's
// unification-constraint shape — but narrowed to a closed tagged-variant
// Type instead of an open expression hierarchy, per this project's design
// note on closed sums (see DESIGN.md). The teacher's internal/types
// package itself implements an unrelated effect/session/linear-type
// system and is not reused here beyond that grounding.
package typeterm

import "fmt"

// VarID names a fresh type variable, allocated by synctx.Context.
type VarID int64

// Kind discriminates the closed set of type forms.
type Kind int

const (
	KInt Kind = iota
	KBool
	KString
	KChar
	KVar
	KSum // named sum type, e.g. list<int>
	KFun // domain -> codomain
	KTuple
	KApp // parametric constructor application, e.g. Tree<a>
)

func (k Kind) String() string {
	switch k {
	case KInt:
		return "int"
	case KBool:
		return "bool"
	case KString:
		return "string"
	case KChar:
		return "char"
	case KVar:
		return "var"
	case KSum:
		return "sum"
	case KFun:
		return "fun"
	case KTuple:
		return "tuple"
	case KApp:
		return "app"
	default:
		return "?"
	}
}

// Type is the closed tagged-variant type term. Only the fields relevant to
// Kind are populated; all others are left zero.
type Type struct {
	Kind Kind

	Var VarID // KVar

	Name string  // KSum / KApp: type name
	Args []*Type // KSum / KApp: type-parameter instantiation

	Dom, Cod *Type // KFun

	Elems []*Type // KTuple
}

func Int() *Type    { return &Type{Kind: KInt} }
func Bool() *Type   { return &Type{Kind: KBool} }
func String() *Type { return &Type{Kind: KString} }
func Char() *Type   { return &Type{Kind: KChar} }

func Var(id VarID) *Type { return &Type{Kind: KVar, Var: id} }

func Sum(name string, args ...*Type) *Type { return &Type{Kind: KSum, Name: name, Args: args} }

func App(name string, args ...*Type) *Type { return &Type{Kind: KApp, Name: name, Args: args} }

func Fun(dom, cod *Type) *Type { return &Type{Kind: KFun, Dom: dom, Cod: cod} }

func Tuple(elems ...*Type) *Type { return &Type{Kind: KTuple, Elems: elems} }

// String renders a type in ML-ish surface syntax, for diagnostics.
func (t *Type) String() string {
	if t == nil {
		return "<nil>"
	}

	switch t.Kind {
	case KInt:
		return "int"
	case KBool:
		return "bool"
	case KString:
		return "string"
	case KChar:
		return "char"
	case KVar:
		return fmt.Sprintf("'t%d", t.Var)
	case KSum, KApp:
		if len(t.Args) == 0 {
			return t.Name
		}

		s := t.Name + "<"

		for i, a := range t.Args {
			if i > 0 {
				s += ", "
			}

			s += a.String()
		}

		return s + ">"
	case KFun:
		return fmt.Sprintf("(%s -> %s)", t.Dom.String(), t.Cod.String())
	case KTuple:
		s := "("

		for i, e := range t.Elems {
			if i > 0 {
				s += " * "
			}

			s += e.String()
		}

		return s + ")"
	default:
		return "?"
	}
}

// Equal is structural equality.
func Equal(a, b *Type) bool {
	if a == b {
		return true
	}

	if a == nil || b == nil || a.Kind != b.Kind {
		return false
	}

	switch a.Kind {
	case KVar:
		return a.Var == b.Var
	case KSum, KApp:
		if a.Name != b.Name || len(a.Args) != len(b.Args) {
			return false
		}

		for i := range a.Args {
			if !Equal(a.Args[i], b.Args[i]) {
				return false
			}
		}

		return true
	case KFun:
		return Equal(a.Dom, b.Dom) && Equal(a.Cod, b.Cod)
	case KTuple:
		if len(a.Elems) != len(b.Elems) {
			return false
		}

		for i := range a.Elems {
			if !Equal(a.Elems[i], b.Elems[i]) {
				return false
			}
		}

		return true
	default:
		return true
	}
}
