package frontend

import "github.com/synduce/synduce/internal/position"

// File is one parsed ".ml" source file: the type declarations and
// function definitions it contains, in source order.
type File struct {
	Types     []*TypeDecl
	Functions []*FuncDecl
}

// TypeDecl is a surface "type name<params> = | C1 of t1 * t2 | C2 ..."
// declaration.
type TypeDecl struct {
	Name     string
	Params   []string
	Variants []VariantDecl
	Span     position.Span
}

// VariantDecl is one data-constructor alternative of a TypeDecl.
type VariantDecl struct {
	Name   string
	Fields []TypeExpr
	Span   position.Span
}

// TypeExpr is the surface type-annotation grammar: base names (int, bool,
// string, char), applied constructors (list<int>), tuples, and arrows.
// It is resolved against the Registry during lowering (program.go), not
// during parsing — the parser only records what the source text says.
type TypeExpr struct {
	Name  string     // base type or constructor name
	Args  []TypeExpr // constructor arguments, e.g. the <...> of list<int>
	Dom   *TypeExpr  // function domain, non-nil iff this is an arrow
	Cod   *TypeExpr  // function codomain, non-nil iff this is an arrow
	Elems []TypeExpr // tuple element types, non-nil iff this is a tuple
	Span  position.Span
}

// Param is one function parameter: a name and its declared type.
type Param struct {
	Name string
	Type TypeExpr
	Span position.Span
}

// FuncDecl is a surface "let [rec] name (p1 : t1) ... : tret = body"
// definition. A body that is exactly a bare "[%synt name]" marker lexes
// and parses as an ordinary EHole expression with no Args — lowering
// (program.go) recognizes that shape and treats the whole function as a
// hole to be synthesized rather than a concrete rule body.
type FuncDecl struct {
	Name    string
	Rec     bool
	Params  []Param
	RetType *TypeExpr // nil if unannotated
	Body    Expr
	Span    position.Span
}

// ExprKind discriminates the closed set of surface expression forms.
type ExprKind int

const (
	EConst ExprKind = iota
	EVar
	ETuple
	EBinop
	EUnop
	EIf
	ELet
	EMatch
	EApp
	EHole
)

// ConstLit is a literal constant as written in source.
type ConstLit struct {
	IsInt   bool
	IsBool  bool
	IsStr   bool
	IntVal  int64
	BoolVal bool
	StrVal  string
}

// MatchArm is one "| Variant b1 b2 -> expr" alternative of an EMatch.
type MatchArm struct {
	Variant string
	Binders []string
	Body    Expr
	Span    position.Span
}

// Expr is the closed tagged-variant surface expression. Only the fields
// relevant to Kind are populated. Every node carries its source Span so
// lowering and elaboration errors can point back at the ".ml" text.
type Expr struct {
	Kind ExprKind
	Span position.Span

	// EConst
	Const ConstLit

	// EVar / EHole: the referenced or declared name. For EHole this is
	// the bare hole name lexed out of "[%synt name]".
	Name string

	// ETuple
	Elems []Expr

	// EBinop / EUnop
	Op   string // one of the operator lexemes: "+", "-", "*", "/", "%",
	// "=", "!=", "<", "<=", ">", ">=", "&&", "||", unary "-"/"!"
	L, R *Expr // EBinop
	X    *Expr // EUnop

	// EIf
	Cond, Then, Else *Expr

	// ELet: "let name = value in body" (no recursion — local lets are not
	// PMRS non-terminals, only top-level FuncDecls are).
	LetName string
	Value   *Expr
	Body    *Expr

	// EMatch
	Scrutinee *Expr
	Arms      []MatchArm

	// EApp: application of a named function/hole to a spine of arguments.
	// The callee is always a bare identifier in this dialect (no partial
	// application, no higher-order values), matching the PMRS term model's
	// own App(name, args...) shape.
	Fn   string
	Args []Expr
}
