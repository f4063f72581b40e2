// Parser implements the ".ml" dialect's recursive-descent top level
// (type and function declarations) plus a Pratt-style expression parser,
// grounded on the teacher's internal/parser split between statement-level
// recursive descent and precedence-climbing expression parsing
// (parser.go's parseExpression/precedences/parsePrefixExpression), here
// narrowed to this dialect's much smaller operator set (no bitwise,
// assignment, ternary, or postfix operators — spec.md §6.1 names only
// arithmetic, comparison, and boolean connectives).
package frontend

import (
	"fmt"

	"github.com/synduce/synduce/internal/position"
)

// Error is one front-end input error (§7 class 1): a message anchored at
// a source span.
type Error struct {
	Span position.Span
	Msg  string
}

func (e Error) String() string { return fmt.Sprintf("%s: %s", e.Span, e.Msg) }

// Parser consumes a token stream from a Lexer and builds a File, keeping
// going past a recognizable error at statement boundaries so one bad
// declaration doesn't hide the rest of the file's errors.
type Parser struct {
	lex  *Lexer
	cur  Token
	peek Token
	errs []Error
}

// NewParser creates a parser over src, attributing filename to every
// span and error.
func NewParser(filename, src string) *Parser {
	p := &Parser{lex: NewLexer(filename, src)}
	p.advance()
	p.advance()

	return p
}

func (p *Parser) advance() {
	p.cur = p.peek
	p.peek = p.lex.Next()
}

func (p *Parser) errorf(span position.Span, format string, args ...interface{}) {
	p.errs = append(p.errs, Error{Span: span, Msg: fmt.Sprintf(format, args...)})
}

func (p *Parser) expect(k TokenKind, what string) Token {
	tok := p.cur
	if tok.Kind != k {
		p.errorf(tok.Span, "expected %s, found %q", what, tok.Literal)
	} else {
		p.advance()
	}

	return tok
}

// ParseFile parses a complete ".ml" source file, returning whatever
// declarations it could recover even when errs is non-empty.
func ParseFile(filename, src string) (*File, []Error) {
	p := NewParser(filename, src)
	f := &File{}

	for p.cur.Kind != TokEOF {
		switch p.cur.Kind {
		case TokType:
			if td := p.parseTypeDecl(); td != nil {
				f.Types = append(f.Types, td)
			}
		case TokLet:
			if fd := p.parseFuncDecl(); fd != nil {
				f.Functions = append(f.Functions, fd)
			}
		default:
			p.errorf(p.cur.Span, "expected a type or let declaration, found %q", p.cur.Literal)
			p.advance()
		}
	}

	return f, p.errs
}

// --- Type declarations ---

func (p *Parser) parseTypeDecl() *TypeDecl {
	start := p.cur.Span.Start
	p.advance() // 'type'

	name := p.expect(TokIdent, "type name").Literal

	var params []string
	if p.cur.Kind == TokLt {
		p.advance()

		for p.cur.Kind != TokGt && p.cur.Kind != TokEOF {
			params = append(params, p.expect(TokIdent, "type parameter").Literal)

			if p.cur.Kind == TokComma {
				p.advance()
			}
		}

		p.expect(TokGt, "'>'")
	}

	p.expect(TokEquals, "'='")

	if p.cur.Kind == TokPipe {
		p.advance()
	}

	var variants []VariantDecl

	for {
		variants = append(variants, p.parseVariantDecl())

		if p.cur.Kind != TokPipe {
			break
		}

		p.advance()
	}

	return &TypeDecl{
		Name:     name,
		Params:   params,
		Variants: variants,
		Span:     position.Span{Start: start, End: p.cur.Span.Start},
	}
}

func (p *Parser) parseVariantDecl() VariantDecl {
	start := p.cur.Span.Start
	name := p.expect(TokIdent, "constructor name").Literal

	var fields []TypeExpr

	if p.cur.Kind == TokOf {
		p.advance()

		fields = append(fields, p.parseTypeTuple())
		for p.cur.Kind == TokStar {
			p.advance()

			fields = append(fields, p.parseTypeAtom())
		}
	}

	return VariantDecl{Name: name, Fields: fields, Span: position.Span{Start: start, End: p.cur.Span.Start}}
}

// parseTypeTuple parses a single field's type atom in variant-field
// position, where "of a * b" lists fields rather than a tuple type; the
// caller (parseVariantDecl) consumes the "*" separators itself.
func (p *Parser) parseTypeTuple() TypeExpr {
	return p.parseTypeAtom()
}

func (p *Parser) parseTypeExpr() TypeExpr {
	start := p.cur.Span.Start

	elems := []TypeExpr{p.parseTypeAtom()}
	for p.cur.Kind == TokStar {
		p.advance()

		elems = append(elems, p.parseTypeAtom())
	}

	var dom TypeExpr
	if len(elems) == 1 {
		dom = elems[0]
	} else {
		dom = TypeExpr{Elems: elems, Span: position.Span{Start: start, End: p.cur.Span.Start}}
	}

	if p.cur.Kind == TokArrow {
		p.advance()

		cod := p.parseTypeExpr()

		return TypeExpr{Dom: &dom, Cod: &cod, Span: position.Span{Start: start, End: p.cur.Span.Start}}
	}

	return dom
}

func (p *Parser) parseTypeAtom() TypeExpr {
	start := p.cur.Span.Start
	name := p.expect(TokIdent, "type name").Literal

	var args []TypeExpr
	if p.cur.Kind == TokLt {
		p.advance()

		for p.cur.Kind != TokGt && p.cur.Kind != TokEOF {
			args = append(args, p.parseTypeExpr())

			if p.cur.Kind == TokComma {
				p.advance()
			}
		}

		p.expect(TokGt, "'>'")
	}

	return TypeExpr{Name: name, Args: args, Span: position.Span{Start: start, End: p.cur.Span.Start}}
}

// --- Function declarations ---

func (p *Parser) parseFuncDecl() *FuncDecl {
	start := p.cur.Span.Start
	p.advance() // 'let'

	rec := false
	if p.cur.Kind == TokRec {
		rec = true

		p.advance()
	}

	name := p.expect(TokIdent, "function name").Literal

	var params []Param

	for p.cur.Kind == TokLParen {
		p.advance()

		pname := p.expect(TokIdent, "parameter name").Literal
		p.expect(TokColon, "':'")

		ptype := p.parseTypeExpr()

		p.expect(TokRParen, "')'")

		params = append(params, Param{Name: pname, Type: ptype})
	}

	var ret *TypeExpr
	if p.cur.Kind == TokColon {
		p.advance()

		t := p.parseTypeExpr()
		ret = &t
	}

	p.expect(TokEquals, "'='")

	body := p.parseExpr(precLowest)

	return &FuncDecl{
		Name:    name,
		Rec:     rec,
		Params:  params,
		RetType: ret,
		Body:    body,
		Span:    position.Span{Start: start, End: p.cur.Span.Start},
	}
}

// --- Expressions ---

type prec int

const (
	precLowest prec = iota
	precOr
	precAnd
	precCompare
	precSum
	precProduct
	precApp
)

var binPrec = map[TokenKind]prec{
	TokOrOr:    precOr,
	TokAndAnd:  precAnd,
	TokEquals:  precCompare,
	TokNeq:     precCompare,
	TokLt:      precCompare,
	TokLe:      precCompare,
	TokGt:      precCompare,
	TokGe:      precCompare,
	TokPlus:    precSum,
	TokMinus:   precSum,
	TokStar:    precProduct,
	TokSlash:   precProduct,
	TokPercent: precProduct,
}

var binLexeme = map[TokenKind]string{
	TokOrOr: "||", TokAndAnd: "&&", TokEquals: "=", TokNeq: "!=",
	TokLt: "<", TokLe: "<=", TokGt: ">", TokGe: ">=",
	TokPlus: "+", TokMinus: "-", TokStar: "*", TokSlash: "/", TokPercent: "%",
}

func (p *Parser) parseExpr(minPrec prec) Expr {
	left := p.parseUnary()

	for {
		pr, ok := binPrec[p.cur.Kind]
		if !ok || pr < minPrec {
			break
		}

		op := binLexeme[p.cur.Kind]
		opSpan := p.cur.Span
		p.advance()

		right := p.parseExpr(pr + 1)
		l, r := left, right
		left = Expr{Kind: EBinop, Op: op, L: &l, R: &r, Span: position.Span{Start: l.Span.Start, End: opSpan.End}}
	}

	return left
}

func (p *Parser) parseUnary() Expr {
	start := p.cur.Span.Start

	switch p.cur.Kind {
	case TokMinus:
		p.advance()

		x := p.parseUnary()

		return Expr{Kind: EUnop, Op: "-", X: &x, Span: position.Span{Start: start, End: x.Span.End}}
	case TokNot:
		p.advance()

		x := p.parseUnary()

		return Expr{Kind: EUnop, Op: "!", X: &x, Span: position.Span{Start: start, End: x.Span.End}}
	}

	return p.parseApp()
}

// parseApp parses an application spine: an atom followed by zero or more
// further atoms, e.g. "f x (g y) 3" — the standard ML juxtaposition
// convention. Only an identifier or hole head can take arguments; this
// dialect has no higher-order values, matching the PMRS term model's
// App(name, args...) shape (C1).
func (p *Parser) parseApp() Expr {
	head := p.parseAtom()

	if head.Kind != EVar && head.Kind != EHole {
		return head
	}

	var args []Expr

	for p.startsAtom() {
		args = append(args, p.parseAtom())
	}

	if len(args) == 0 {
		return head
	}

	end := args[len(args)-1].Span.End

	return Expr{Kind: EApp, Fn: head.Name, Args: args, Span: position.Span{Start: head.Span.Start, End: end}}
}

func (p *Parser) startsAtom() bool {
	switch p.cur.Kind {
	case TokIdent, TokInt, TokString, TokTrue, TokFalse, TokHole, TokLParen:
		return true
	default:
		return false
	}
}

func (p *Parser) parseAtom() Expr {
	start := p.cur.Span.Start

	switch p.cur.Kind {
	case TokInt:
		lit := p.cur.Literal
		p.advance()

		var v int64
		fmt.Sscanf(lit, "%d", &v)

		return Expr{Kind: EConst, Const: ConstLit{IsInt: true, IntVal: v}, Span: p.spanFrom(start)}
	case TokTrue:
		p.advance()

		return Expr{Kind: EConst, Const: ConstLit{IsBool: true, BoolVal: true}, Span: p.spanFrom(start)}
	case TokFalse:
		p.advance()

		return Expr{Kind: EConst, Const: ConstLit{IsBool: true, BoolVal: false}, Span: p.spanFrom(start)}
	case TokString:
		lit := p.cur.Literal
		p.advance()

		return Expr{Kind: EConst, Const: ConstLit{IsStr: true, StrVal: lit}, Span: p.spanFrom(start)}
	case TokHole:
		lit := p.cur.Literal
		p.advance()

		return Expr{Kind: EHole, Name: lit, Span: p.spanFrom(start)}
	case TokIdent:
		lit := p.cur.Literal
		p.advance()

		return Expr{Kind: EVar, Name: lit, Span: p.spanFrom(start)}
	case TokIf:
		return p.parseIf()
	case TokLet:
		return p.parseLetExpr()
	case TokMatch:
		return p.parseMatch()
	case TokLParen:
		return p.parseParenOrTuple()
	default:
		p.errorf(p.cur.Span, "expected an expression, found %q", p.cur.Literal)
		tok := p.cur

		p.advance()

		return Expr{Kind: EConst, Const: ConstLit{IsInt: true}, Span: tok.Span}
	}
}

func (p *Parser) spanFrom(start position.Position) position.Span {
	return position.Span{Start: start, End: p.cur.Span.Start}
}

func (p *Parser) parseIf() Expr {
	start := p.cur.Span.Start
	p.advance() // 'if'

	cond := p.parseExpr(precLowest)
	p.expect(TokThen, "'then'")

	then := p.parseExpr(precLowest)
	p.expect(TokElse, "'else'")

	els := p.parseExpr(precLowest)

	return Expr{Kind: EIf, Cond: &cond, Then: &then, Else: &els, Span: p.spanFrom(start)}
}

func (p *Parser) parseLetExpr() Expr {
	start := p.cur.Span.Start
	p.advance() // 'let'

	name := p.expect(TokIdent, "binding name").Literal
	p.expect(TokEquals, "'='")

	value := p.parseExpr(precLowest)
	p.expect(TokIn, "'in'")

	body := p.parseExpr(precLowest)

	return Expr{Kind: ELet, LetName: name, Value: &value, Body: &body, Span: p.spanFrom(start)}
}

func (p *Parser) parseMatch() Expr {
	start := p.cur.Span.Start
	p.advance() // 'match'

	scrutinee := p.parseExpr(precLowest)
	p.expect(TokWith, "'with'")

	if p.cur.Kind == TokPipe {
		p.advance()
	}

	var arms []MatchArm

	for {
		arms = append(arms, p.parseMatchArm())

		if p.cur.Kind != TokPipe {
			break
		}

		p.advance()
	}

	return Expr{Kind: EMatch, Scrutinee: &scrutinee, Arms: arms, Span: p.spanFrom(start)}
}

func (p *Parser) parseMatchArm() MatchArm {
	start := p.cur.Span.Start
	variant := p.expect(TokIdent, "constructor pattern").Literal

	var binders []string
	for p.cur.Kind == TokIdent {
		binders = append(binders, p.cur.Literal)
		p.advance()
	}

	p.expect(TokArrow, "'->'")

	body := p.parseExpr(precLowest)

	return MatchArm{Variant: variant, Binders: binders, Body: body, Span: p.spanFrom(start)}
}

func (p *Parser) parseParenOrTuple() Expr {
	start := p.cur.Span.Start
	p.advance() // '('

	first := p.parseExpr(precLowest)

	if p.cur.Kind != TokComma {
		p.expect(TokRParen, "')'")

		first.Span = p.spanFrom(start)

		return first
	}

	elems := []Expr{first}

	for p.cur.Kind == TokComma {
		p.advance()

		elems = append(elems, p.parseExpr(precLowest))
	}

	p.expect(TokRParen, "')'")

	return Expr{Kind: ETuple, Elems: elems, Span: p.spanFrom(start)}
}
