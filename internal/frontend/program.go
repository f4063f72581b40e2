// Lowering converts a parsed File (".ml") or PMRSFile (".pmrs") into a
// Program: a shared typeterm.Registry plus one pmrs.PMRS per designated
// role (target/spec/repr/tinv), matching the four-argument shape
// internal/refine.Run already expects. Front-end failures detected
// during lowering, such as a hole appearing outside the target, are
// reported the same way parse errors are: as Error values anchored at a Span, never
// as panics, since a malformed problem file is an ordinary input error
// (§7 class 1), not a bug in this program.
package frontend

import (
	"fmt"
	"sort"

	"github.com/synduce/synduce/internal/pmrs"
	"github.com/synduce/synduce/internal/position"
	"github.com/synduce/synduce/internal/term"
	"github.com/synduce/synduce/internal/typeterm"
)

// Program is the front end's output: everything internal/refine.Run
// needs to start a solve.
type Program struct {
	Registry *typeterm.Registry

	Target *pmrs.PMRS
	Spec   *pmrs.PMRS
	Repr   *pmrs.PMRS // nil if the problem uses the identity representation
	TInv   *pmrs.PMRS // nil if the problem declares no target invariant

	// Holes names every free ψ-variable referenced from the target, the
	// same set recorded on Target.Params.
	Holes []string
}

// Names is the CLI-overridable set of role -> function-name bindings
// (SPEC_FULL.md §4.14's -target/-spec/-repr/-tinv flags).
type Names struct {
	Target, Spec, Repr, TInv string
}

// DefaultNames is the role-name convention assumed absent a CLI override.
func DefaultNames() Names {
	return Names{Target: "target", Spec: "spec", Repr: "repr", TInv: "tinv"}
}

// BuildProgram lowers a parsed ".ml" file into a Program using names to
// resolve which function plays which role.
func BuildProgram(f *File, names Names) (*Program, []Error) {
	b := &builder{
		registry: typeterm.NewRegistry(),
		funcs:    make(map[string]*FuncDecl, len(f.Functions)),
	}

	for _, td := range f.Types {
		b.declareType(td)
	}

	for _, fd := range f.Functions {
		if _, dup := b.funcs[fd.Name]; dup {
			b.errorf(fd.Span, "function %q already defined", fd.Name)
			continue
		}

		b.funcs[fd.Name] = fd
	}

	prog := &Program{Registry: b.registry}

	if tgt, ok := b.funcs[names.Target]; ok {
		prog.Target = b.buildRole(tgt.Name, true)
	} else {
		b.errorf(position.Span{}, "no target function %q", names.Target)
	}

	if spec, ok := b.funcs[names.Spec]; ok {
		prog.Spec = b.buildRole(spec.Name, false)
	} else {
		b.errorf(position.Span{}, "no reference function %q", names.Spec)
	}

	if _, ok := b.funcs[names.Repr]; ok {
		prog.Repr = b.buildRole(names.Repr, false)
	}

	if _, ok := b.funcs[names.TInv]; ok {
		prog.TInv = b.buildRole(names.TInv, false)
	}

	if prog.Target != nil {
		prog.Holes = append([]string(nil), prog.Target.Params...)
	}

	return prog, b.errs
}

type builder struct {
	registry *typeterm.Registry
	funcs    map[string]*FuncDecl
	errs     []Error
}

func (b *builder) errorf(span position.Span, format string, args ...interface{}) {
	b.errs = append(b.errs, Error{Span: span, Msg: fmt.Sprintf(format, args...)})
}

func (b *builder) declareType(td *TypeDecl) {
	decl := &typeterm.TypeDecl{Name: td.Name, Params: td.Params}

	for _, v := range td.Variants {
		fields := make([]*typeterm.Type, len(v.Fields))
		for i, ft := range v.Fields {
			fields[i] = b.resolveType(ft)
		}

		decl.Variants = append(decl.Variants, typeterm.VariantDecl{Name: v.Name, Fields: fields})
	}

	if err := b.registry.Declare(decl); err != nil {
		b.errorf(td.Span, "%v", err)
	}
}

// resolveType converts a surface TypeExpr to a typeterm.Type. A bare name
// that is neither a scalar keyword nor (yet) a declared ADT is still
// accepted as a named reference — it may be the enclosing TypeDecl's own
// type parameter, substituted later by TypeDecl.Instantiate at each use
// site, or a forward reference to a type declared later in the file.
func (b *builder) resolveType(te TypeExpr) *typeterm.Type {
	switch {
	case te.Dom != nil:
		return typeterm.Fun(b.resolveType(*te.Dom), b.resolveType(*te.Cod))
	case te.Elems != nil:
		elems := make([]*typeterm.Type, len(te.Elems))
		for i, e := range te.Elems {
			elems[i] = b.resolveType(e)
		}

		return typeterm.Tuple(elems...)
	}

	switch te.Name {
	case "int":
		return typeterm.Int()
	case "bool":
		return typeterm.Bool()
	case "string":
		return typeterm.String()
	case "char":
		return typeterm.Char()
	}

	args := make([]*typeterm.Type, len(te.Args))
	for i, a := range te.Args {
		args[i] = b.resolveType(a)
	}

	return typeterm.Sum(te.Name, args...)
}

// buildRole lowers rootName and every function it transitively calls
// (by name, within this file) into one PMRS, with rootName's rule set as
// Main. allowHoles permits App heads with no matching NT or constructor
// to be treated as holes rather than reported as undefined references —
// true only for the target, per spec.md's restriction that holes are a
// target-only construct.
func (b *builder) buildRole(rootName string, allowHoles bool) *pmrs.PMRS {
	reachable := b.closure(rootName)

	p := &pmrs.PMRS{}
	ntIDs := make(map[string]pmrs.NTID, len(reachable))

	for _, name := range reachable {
		fd := b.funcs[name]

		paramTypes := make([]*typeterm.Type, len(fd.Params))
		for i, prm := range fd.Params {
			paramTypes[i] = b.resolveType(prm.Type)
		}

		var ret *typeterm.Type
		if fd.RetType != nil {
			ret = b.resolveType(*fd.RetType)
		}

		ntIDs[name] = p.AddNT(name, paramTypes, ret)
	}

	p.Main = ntIDs[rootName]

	holeSet := map[string]bool{}

	for _, name := range reachable {
		fd := b.funcs[name]
		b.lowerBody(p, ntIDs, fd, holeSet, allowHoles)
	}

	if allowHoles {
		holes := make([]string, 0, len(holeSet))
		for h := range holeSet {
			holes = append(holes, h)
		}

		sort.Strings(holes)
		p.Params = holes
	}

	return p
}

// closure computes the set of function names reachable from root by
// following EApp call targets that name another declared function,
// root included, in a stable (first-seen) order.
func (b *builder) closure(root string) []string {
	var order []string

	seen := map[string]bool{}

	var visit func(name string)

	visit = func(name string) {
		if seen[name] {
			return
		}

		seen[name] = true

		fd, ok := b.funcs[name]
		if !ok {
			return
		}

		order = append(order, name)
		walkCalls(fd.Body, func(callee string) {
			if _, ok := b.funcs[callee]; ok {
				visit(callee)
			}
		})
	}

	visit(root)

	return order
}

// walkCalls invokes fn for every EApp/EHole head referenced anywhere in
// e, including inside nested let/match/if bodies.
func walkCalls(e Expr, fn func(name string)) {
	switch e.Kind {
	case EApp:
		fn(e.Fn)

		for _, a := range e.Args {
			walkCalls(a, fn)
		}
	case EHole:
		fn(e.Name)
	case ETuple:
		for _, el := range e.Elems {
			walkCalls(el, fn)
		}
	case EBinop:
		walkCalls(*e.L, fn)
		walkCalls(*e.R, fn)
	case EUnop:
		walkCalls(*e.X, fn)
	case EIf:
		walkCalls(*e.Cond, fn)
		walkCalls(*e.Then, fn)
		walkCalls(*e.Else, fn)
	case ELet:
		walkCalls(*e.Value, fn)
		walkCalls(*e.Body, fn)
	case EMatch:
		walkCalls(*e.Scrutinee, fn)

		for _, arm := range e.Arms {
			walkCalls(arm.Body, fn)
		}
	}
}

// lowerBody emits one pmrs.Rule per match arm of fd's body (after
// inlining any top-level lets), or a single wildcard rule if the body is
// not a top-level match.
func (b *builder) lowerBody(p *pmrs.PMRS, nts map[string]pmrs.NTID, fd *FuncDecl, holes map[string]bool, allowHoles bool) {
	nt := nts[fd.Name]

	params := make([]string, len(fd.Params))
	for i, prm := range fd.Params {
		params[i] = prm.Name
	}

	body := inlineLets(fd.Body)

	if body.Kind == EMatch {
		for _, arm := range body.Arms {
			p.AddRule(pmrs.Rule{
				NT:             nt,
				Params:         params,
				PatternVariant: arm.Variant,
				PatternBinders: arm.Binders,
				RHS:            b.lowerExpr(arm.Body, nts, holes, allowHoles),
			})
		}

		return
	}

	p.AddRule(pmrs.Rule{
		NT:     nt,
		Params: params,
		RHS:    b.lowerExpr(body, nts, holes, allowHoles),
	})
}

// inlineLets substitutes away non-recursive "let name = value in body"
// expressions, since term.Term (C1) has no let-binding form of its own —
// PMRS rule right-hand sides are plain expressions over their rule's
// bound parameters and pattern binders.
func inlineLets(e Expr) Expr {
	switch e.Kind {
	case ELet:
		value := inlineLets(*e.Value)
		body := inlineLets(*e.Body)

		return inlineLets(substitute(body, e.LetName, value))
	case EIf:
		cond, then, els := inlineLets(*e.Cond), inlineLets(*e.Then), inlineLets(*e.Else)
		e.Cond, e.Then, e.Else = &cond, &then, &els

		return e
	case EMatch:
		scrutinee := inlineLets(*e.Scrutinee)
		e.Scrutinee = &scrutinee

		for i := range e.Arms {
			e.Arms[i].Body = inlineLets(e.Arms[i].Body)
		}

		return e
	case EBinop:
		l, r := inlineLets(*e.L), inlineLets(*e.R)
		e.L, e.R = &l, &r

		return e
	case EUnop:
		x := inlineLets(*e.X)
		e.X = &x

		return e
	case EApp:
		args := make([]Expr, len(e.Args))
		for i, a := range e.Args {
			args[i] = inlineLets(a)
		}

		e.Args = args

		return e
	case ETuple:
		elems := make([]Expr, len(e.Elems))
		for i, el := range e.Elems {
			elems[i] = inlineLets(el)
		}

		e.Elems = elems

		return e
	default:
		return e
	}
}

// substitute replaces every free occurrence of name with value in e,
// stopping at a binder that shadows it (a match arm rebinding the same
// name, or a nested let rebinding it).
func substitute(e Expr, name string, value Expr) Expr {
	switch e.Kind {
	case EVar:
		if e.Name == name {
			return value
		}

		return e
	case EApp:
		args := make([]Expr, len(e.Args))
		for i, a := range e.Args {
			args[i] = substitute(a, name, value)
		}

		e.Args = args

		return e
	case ETuple:
		elems := make([]Expr, len(e.Elems))
		for i, el := range e.Elems {
			elems[i] = substitute(el, name, value)
		}

		e.Elems = elems

		return e
	case EBinop:
		l, r := substitute(*e.L, name, value), substitute(*e.R, name, value)
		e.L, e.R = &l, &r

		return e
	case EUnop:
		x := substitute(*e.X, name, value)
		e.X = &x

		return e
	case EIf:
		cond, then, els := substitute(*e.Cond, name, value), substitute(*e.Then, name, value), substitute(*e.Else, name, value)
		e.Cond, e.Then, e.Else = &cond, &then, &els

		return e
	case ELet:
		v := substitute(*e.Value, name, value)
		e.Value = &v

		if e.LetName == name {
			return e // shadowed: body unchanged
		}

		body := substitute(*e.Body, name, value)
		e.Body = &body

		return e
	case EMatch:
		scrutinee := substitute(*e.Scrutinee, name, value)
		e.Scrutinee = &scrutinee

		for i := range e.Arms {
			if containsBinder(e.Arms[i].Binders, name) {
				continue // shadowed in this arm
			}

			e.Arms[i].Body = substitute(e.Arms[i].Body, name, value)
		}

		return e
	default:
		return e
	}
}

func containsBinder(binders []string, name string) bool {
	for _, b := range binders {
		if b == name {
			return true
		}
	}

	return false
}

var binopByLexeme = map[string]term.BinOp{
	"+": term.OpAdd, "-": term.OpSub, "*": term.OpMul, "/": term.OpDiv, "%": term.OpMod,
	"=": term.OpEq, "!=": term.OpNeq, "<": term.OpLt, "<=": term.OpLe, ">": term.OpGt, ">=": term.OpGe,
	"&&": term.OpAnd, "||": term.OpOr,
}

// lowerExpr converts a surface Expr (with lets already inlined) to a
// term.Term. App heads that name neither a known non-terminal (nts) nor
// a registered data constructor are holes: recorded into holes, and
// (only when allowHoles) left as an ordinary App term for C3-C10 to treat
// as a ψ-application, per the target-only restriction on synthesized
// holes.
func (b *builder) lowerExpr(e Expr, nts map[string]pmrs.NTID, holes map[string]bool, allowHoles bool) *term.Term {
	switch e.Kind {
	case EConst:
		c := e.Const

		switch {
		case c.IsInt:
			return term.Int(c.IntVal)
		case c.IsBool:
			return term.Bool(c.BoolVal)
		default:
			return term.Str(c.StrVal)
		}
	case EVar:
		return term.Var(e.Name, nil)
	case ETuple:
		elems := make([]*term.Term, len(e.Elems))
		for i, el := range e.Elems {
			elems[i] = b.lowerExpr(el, nts, holes, allowHoles)
		}

		return term.TupleOf(elems...)
	case EBinop:
		op, ok := binopByLexeme[e.Op]
		if !ok {
			b.errorf(e.Span, "unknown operator %q", e.Op)
		}

		return term.Binop(op, b.lowerExpr(*e.L, nts, holes, allowHoles), b.lowerExpr(*e.R, nts, holes, allowHoles))
	case EUnop:
		op := term.OpNeg
		if e.Op == "!" {
			op = term.OpNot
		}

		return term.Unop(op, b.lowerExpr(*e.X, nts, holes, allowHoles))
	case EIf:
		return term.Ite(
			b.lowerExpr(*e.Cond, nts, holes, allowHoles),
			b.lowerExpr(*e.Then, nts, holes, allowHoles),
			b.lowerExpr(*e.Else, nts, holes, allowHoles),
		)
	case EMatch:
		cases := make([]term.MatchCase, len(e.Arms))
		for i, arm := range e.Arms {
			cases[i] = term.MatchCase{
				Variant: arm.Variant,
				Binders: arm.Binders,
				Body:    b.lowerExpr(arm.Body, nts, holes, allowHoles),
			}
		}

		return term.Match(b.lowerExpr(*e.Scrutinee, nts, holes, allowHoles), cases...)
	case EApp:
		b.classifyCall(e.Fn, e.Span, nts, holes, allowHoles)

		args := make([]*term.Term, len(e.Args))
		for i, a := range e.Args {
			args[i] = b.lowerExpr(a, nts, holes, allowHoles)
		}

		return term.App(e.Fn, args...)
	case EHole:
		b.classifyCall(e.Name, e.Span, nts, holes, allowHoles)

		return term.App(e.Name)
	default:
		return term.Int(0)
	}
}

func (b *builder) classifyCall(name string, span position.Span, nts map[string]pmrs.NTID, holes map[string]bool, allowHoles bool) {
	if _, isNT := nts[name]; isNT {
		return
	}

	if _, _, isCtor := b.registry.TypeOfVariant(name); isCtor {
		return
	}

	if !allowHoles {
		b.errorf(span, "undefined reference %q", name)
		return
	}

	holes[name] = true
}

// LowerPMRSFile converts a parsed ".pmrs" file directly into one
// pmrs.PMRS, for a role whose problem is already expressed in
// rule-listing form rather than as a functional program to compile down
// to one. mainName selects the entry non-terminal; if empty, the first
// declared "nt" wins. allowHoles mirrors BuildProgram's restriction:
// true only for the role that may carry ψ-holes (conventionally the
// target).
func LowerPMRSFile(f *PMRSFile, mainName string, allowHoles bool) (*pmrs.PMRS, []Error) {
	b := &builder{registry: typeterm.NewRegistry(), funcs: map[string]*FuncDecl{}}

	p := &pmrs.PMRS{}
	ntIDs := make(map[string]pmrs.NTID, len(f.NTs))

	for _, decl := range f.NTs {
		paramTypes := make([]*typeterm.Type, len(decl.ParamTypes))
		for i, pt := range decl.ParamTypes {
			paramTypes[i] = b.resolveType(pt)
		}

		var ret *typeterm.Type
		if decl.RetType.Name != "" {
			ret = b.resolveType(decl.RetType)
		}

		ntIDs[decl.Name] = p.AddNT(decl.Name, paramTypes, ret)
	}

	if mainName == "" && len(f.NTs) > 0 {
		mainName = f.NTs[0].Name
	}

	if id, ok := ntIDs[mainName]; ok {
		p.Main = id
	} else if mainName != "" {
		b.errorf(position.Span{}, "no non-terminal %q declared", mainName)
	}

	holeSet := map[string]bool{}

	for _, r := range f.Rules {
		nt, ok := ntIDs[r.NTName]
		if !ok {
			b.errorf(r.Span, "rule for undeclared non-terminal %q", r.NTName)
			continue
		}

		p.AddRule(pmrs.Rule{
			NT:             nt,
			Params:         r.Params,
			PatternVariant: r.PatternVariant,
			PatternBinders: r.PatternBinders,
			RHS:            b.lowerExpr(r.RHS, ntIDs, holeSet, allowHoles),
		})
	}

	if allowHoles {
		holes := make([]string, 0, len(holeSet))
		for h := range holeSet {
			holes = append(holes, h)
		}

		sort.Strings(holes)
		p.Params = holes
	}

	return p, b.errs
}
