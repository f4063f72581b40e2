// Package term implements the typed term tree C1 operates over: a closed
// tagged variant of constants, variables, tuples, binary/unary/ite
// operators, function application, pattern-match/data-constructor form,
// and boxes (C7's indexed placeholders). Terms are value objects — sharing
// is by pointer identity for efficiency, equality is structural (Equal).
//
// Grounded on the teacher's internal/ast package: the closed Kind-tagged
// struct here plays the role ast.Node's visitor-dispatched interface
// hierarchy plays there, narrowed to a fixed sum type per this project's
// design note (an open class hierarchy does not fit a system that must
// exhaustively pattern-match on term shape during reduction and boxing).
package term

import (
	"fmt"
	"strings"

	"github.com/synduce/synduce/internal/typeterm"
)

// Kind discriminates the closed set of term forms.
type Kind int

const (
	KConst Kind = iota
	KVar
	KTuple
	KBinop
	KUnop
	KIte
	KApp
	KMatch
	KBox
)

// ConstKind discriminates the literal constants a term may carry.
type ConstKind int

const (
	CInt ConstKind = iota
	CBool
	CString
	CChar
)

type BinOp int

const (
	OpAdd BinOp = iota
	OpSub
	OpMul
	OpDiv
	OpMod
	OpMin
	OpMax
	OpEq
	OpNeq
	OpLt
	OpLe
	OpGt
	OpGe
	OpAnd
	OpOr
)

var binopNames = map[BinOp]string{
	OpAdd: "+", OpSub: "-", OpMul: "*", OpDiv: "/", OpMod: "%",
	OpMin: "min", OpMax: "max", OpEq: "=", OpNeq: "!=", OpLt: "<",
	OpLe: "<=", OpGt: ">", OpGe: ">=", OpAnd: "&&", OpOr: "||",
}

func (o BinOp) String() string { return binopNames[o] }

type UnOp int

const (
	OpNeg UnOp = iota
	OpNot
)

func (o UnOp) String() string {
	if o == OpNot {
		return "!"
	}

	return "-"
}

// MatchCase is one arm of a KMatch term: a data-constructor pattern and
// the body to evaluate with its binders in scope.
type MatchCase struct {
	Variant string
	Binders []string
	Body    *Term
}

// Term is the closed tagged-variant term. Only the fields relevant to Kind
// are populated.
type Term struct {
	Kind Kind
	Type *typeterm.Type

	// KConst
	ConstKind ConstKind
	IntVal    int64
	BoolVal   bool
	StrVal    string

	// KVar
	Name string

	// KTuple
	Elems []*Term

	// KBinop / KUnop
	BOp  BinOp
	UOp  UnOp
	L, R *Term // KBinop
	X    *Term // KUnop

	// KIte
	Cond, Then, Else *Term

	// KApp: application of a non-terminal/function/hole name to arguments.
	Fn   string
	Args []*Term

	// KMatch
	Scrutinee *Term
	Cases     []MatchCase

	// KBox (C7): an indexed or positional placeholder.
	BoxID       int64
	BoxPositive bool // true = positional box (bound argument), false = free box
}

func Const(k ConstKind, i int64, b bool, s string, t *typeterm.Type) *Term {
	return &Term{Kind: KConst, ConstKind: k, IntVal: i, BoolVal: b, StrVal: s, Type: t}
}

func Int(v int64) *Term    { return Const(CInt, v, false, "", typeterm.Int()) }
func Bool(v bool) *Term    { return Const(CBool, 0, v, "", typeterm.Bool()) }
func Str(v string) *Term   { return Const(CString, 0, false, v, typeterm.String()) }

func Var(name string, t *typeterm.Type) *Term { return &Term{Kind: KVar, Name: name, Type: t} }

func TupleOf(elems ...*Term) *Term { return &Term{Kind: KTuple, Elems: elems} }

func Binop(op BinOp, l, r *Term) *Term { return &Term{Kind: KBinop, BOp: op, L: l, R: r} }

func Unop(op UnOp, x *Term) *Term { return &Term{Kind: KUnop, UOp: op, X: x} }

func Ite(cond, then, els *Term) *Term { return &Term{Kind: KIte, Cond: cond, Then: then, Else: els} }

func App(fn string, args ...*Term) *Term { return &Term{Kind: KApp, Fn: fn, Args: args} }

func Match(scrutinee *Term, cases ...MatchCase) *Term {
	return &Term{Kind: KMatch, Scrutinee: scrutinee, Cases: cases}
}

func Box(id int64, positional bool) *Term { return &Term{Kind: KBox, BoxID: id, BoxPositive: positional} }

// String renders a term for diagnostics and for the persisted solution
// file (C6.3: "name args = body").
func (t *Term) String() string {
	if t == nil {
		return "<nil>"
	}

	switch t.Kind {
	case KConst:
		switch t.ConstKind {
		case CInt:
			return fmt.Sprintf("%d", t.IntVal)
		case CBool:
			return fmt.Sprintf("%t", t.BoolVal)
		default:
			return fmt.Sprintf("%q", t.StrVal)
		}
	case KVar:
		return t.Name
	case KTuple:
		parts := make([]string, len(t.Elems))
		for i, e := range t.Elems {
			parts[i] = e.String()
		}

		return "(" + strings.Join(parts, ", ") + ")"
	case KBinop:
		return fmt.Sprintf("(%s %s %s)", t.L, t.BOp, t.R)
	case KUnop:
		return fmt.Sprintf("%s%s", t.UOp, t.X)
	case KIte:
		return fmt.Sprintf("(if %s then %s else %s)", t.Cond, t.Then, t.Else)
	case KApp:
		parts := make([]string, len(t.Args))
		for i, a := range t.Args {
			parts[i] = a.String()
		}

		return t.Fn + " " + strings.Join(parts, " ")
	case KMatch:
		var b strings.Builder

		fmt.Fprintf(&b, "match %s with", t.Scrutinee)

		for _, c := range t.Cases {
			fmt.Fprintf(&b, " | %s %s -> %s", c.Variant, strings.Join(c.Binders, " "), c.Body)
		}

		return b.String()
	case KBox:
		if t.BoxPositive {
			return fmt.Sprintf("#%d", t.BoxID)
		}

		return fmt.Sprintf("?%d", t.BoxID)
	default:
		return "?"
	}
}
