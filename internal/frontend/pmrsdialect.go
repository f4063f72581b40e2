// The ".pmrs" dialect is a rule-listing syntax parsed straight into the
// C2 pmrs.PMRS representation, for problems already expressed as a
// pattern-matching recursion scheme rather than a functional program to
// be compiled down to one. It reuses the ".ml" Lexer for tokens (the
// rule grammar is a strict subset of the expression grammar) but its own
// top-level parser, since a ".pmrs" file has no type/function
// declarations — only non-terminal declarations and rules.
//
// Concrete syntax, one declaration or rule per top-level item:
//
//	nt name(t1, t2) : tret
//	name a1 a2 (C b1 b2) -> rhs
//	name a1 a2 -> rhs          // wildcard rule, no pattern
package frontend

import (
	"fmt"

	"github.com/synduce/synduce/internal/position"
)

// RawRule is one parsed ".pmrs" rule, before the non-terminal name is
// resolved to an NTID (done once every "nt" declaration has been seen).
type RawRule struct {
	NTName         string
	Params         []string
	PatternVariant string
	PatternBinders []string
	RHS            Expr
	Span           position.Span
}

// RawNTDecl is one parsed ".pmrs" non-terminal declaration.
type RawNTDecl struct {
	Name       string
	ParamTypes []TypeExpr
	RetType    TypeExpr
	Span       position.Span
}

// PMRSFile is everything a ".pmrs" file declares, prior to resolving
// TypeExpr against a Registry and lowering RHS expressions to term.Term —
// both done by program.go alongside the ".ml" lowering path, so the two
// dialects converge on one intermediate.
type PMRSFile struct {
	NTs   []RawNTDecl
	Rules []RawRule
}

type pmrsParser struct {
	lex  *Lexer
	cur  Token
	peek Token
	errs []Error
}

// ParsePMRSFile parses a ".pmrs" source file. Unlike the ".ml" dialect's
// expression grammar, a rule's right-hand side has no closing delimiter
// of its own (no "in", no terminating keyword) — so each declaration or
// rule is parsed from its own source line, with that line's TokEOF
// naturally bounding the application-spine grammar instead of it
// spilling into the next line's rule. This is the one point where the
// two dialects' lexers are NOT shared verbatim: the ".ml" side consumes
// one continuous token stream across line breaks, the ".pmrs" side
// resets the lexer at every newline.
func ParsePMRSFile(filename, src string) (*PMRSFile, []Error) {
	f := &PMRSFile{}

	var errs []Error

	for i, line := range splitLines(src) {
		p := &pmrsParser{lex: NewLexer(filename, line)}
		p.advance()
		p.advance()

		if p.cur.Kind == TokEOF {
			continue // blank line, or a line that was only a comment
		}

		if p.cur.Kind == TokIdent && p.cur.Literal == "nt" {
			decl := p.parseNTDecl()
			decl.Span.Start.Line, decl.Span.End.Line = i+1, i+1
			f.NTs = append(f.NTs, decl)
		} else {
			r := p.parseRule()
			r.Span.Start.Line, r.Span.End.Line = i+1, i+1
			f.Rules = append(f.Rules, r)
		}

		for _, e := range p.errs {
			e.Span.Start.Line, e.Span.End.Line = i+1, i+1
			errs = append(errs, e)
		}
	}

	return f, errs
}

// splitLines splits src on '\n', trimming a trailing '\r' from each line
// so the dialect tolerates CRLF input.
func splitLines(src string) []string {
	var lines []string

	start := 0

	for i := 0; i < len(src); i++ {
		if src[i] == '\n' {
			lines = append(lines, trimCR(src[start:i]))
			start = i + 1
		}
	}

	lines = append(lines, trimCR(src[start:]))

	return lines
}

func trimCR(s string) string {
	if len(s) > 0 && s[len(s)-1] == '\r' {
		return s[:len(s)-1]
	}

	return s
}

func (p *pmrsParser) advance() {
	p.cur = p.peek
	p.peek = p.lex.Next()
}

func (p *pmrsParser) errorf(span position.Span, format string, args ...interface{}) {
	p.errs = append(p.errs, Error{Span: span, Msg: fmt.Sprintf(format, args...)})
}

func (p *pmrsParser) expect(k TokenKind, what string) Token {
	tok := p.cur
	if tok.Kind != k {
		p.errorf(tok.Span, "expected %s, found %q", what, tok.Literal)
	} else {
		p.advance()
	}

	return tok
}

func (p *pmrsParser) parseNTDecl() RawNTDecl {
	start := p.cur.Span.Start
	p.advance() // 'nt'

	name := p.expect(TokIdent, "non-terminal name").Literal

	var params []TypeExpr

	if p.cur.Kind == TokLParen {
		p.advance()

		for p.cur.Kind != TokRParen && p.cur.Kind != TokEOF {
			params = append(params, p.parseTypeName())

			if p.cur.Kind == TokComma {
				p.advance()
			}
		}

		p.expect(TokRParen, "')'")
	}

	var ret TypeExpr
	if p.cur.Kind == TokColon {
		p.advance()

		ret = p.parseTypeName()
	}

	return RawNTDecl{Name: name, ParamTypes: params, RetType: ret, Span: position.Span{Start: start, End: p.cur.Span.Start}}
}

func (p *pmrsParser) parseTypeName() TypeExpr {
	start := p.cur.Span.Start
	name := p.expect(TokIdent, "type name").Literal

	var args []TypeExpr
	if p.cur.Kind == TokLt {
		p.advance()

		for p.cur.Kind != TokGt && p.cur.Kind != TokEOF {
			args = append(args, p.parseTypeName())

			if p.cur.Kind == TokComma {
				p.advance()
			}
		}

		p.expect(TokGt, "'>'")
	}

	return TypeExpr{Name: name, Args: args, Span: position.Span{Start: start, End: p.cur.Span.Start}}
}

// parseRule parses "name a1 a2 (C b1 b2) -> rhs" or the wildcard form
// "name a1 a2 -> rhs". The pattern group, if present, is always the last
// parameter position — matching pmrs.Rule's own "(params..., pattern?)"
// shape.
func (p *pmrsParser) parseRule() RawRule {
	start := p.cur.Span.Start
	ntName := p.expect(TokIdent, "non-terminal name").Literal

	var params []string

	variant := ""

	var binders []string

	for p.cur.Kind == TokIdent || p.cur.Kind == TokLParen {
		if p.cur.Kind == TokLParen {
			p.advance()

			variant = p.expect(TokIdent, "constructor pattern").Literal

			for p.cur.Kind == TokIdent {
				binders = append(binders, p.cur.Literal)
				p.advance()
			}

			p.expect(TokRParen, "')'")

			break
		}

		params = append(params, p.cur.Literal)
		p.advance()
	}

	p.expect(TokArrow, "'->'")

	rhs := p.parseRuleExpr()

	return RawRule{
		NTName: ntName, Params: params, PatternVariant: variant, PatternBinders: binders,
		RHS: rhs, Span: position.Span{Start: start, End: p.cur.Span.Start},
	}
}

// parseRuleExpr parses a rule's right-hand side using the same
// expression grammar as the ".ml" dialect, by driving a throwaway
// Parser seeded at the rule parser's current token position. The two
// parsers share a Lexer-compatible token stream by construction (both
// read from the same underlying source), so reusing the expression
// grammar here keeps rule bodies and ".ml" function bodies in exact
// lockstep rather than maintaining two expression parsers.
func (p *pmrsParser) parseRuleExpr() Expr {
	inner := &Parser{lex: p.lex, cur: p.cur, peek: p.peek}
	e := inner.parseExpr(precLowest)
	p.cur, p.peek, p.errs = inner.cur, inner.peek, append(p.errs, inner.errs...)

	return e
}
