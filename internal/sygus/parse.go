package sygus

import (
	"fmt"
	"strconv"

	"github.com/synduce/synduce/internal/term"
)

// ParseSExprTerm parses a SyGuS/SMT-LIB2 S-expression (as returned in a
// synth-fun solution body, or embedded in a counterexample model) into a
// term.Term. It supports the operator vocabulary C5's grammars can
// produce: +, -, *, div, mod, min, max, ite, comparisons, and/or/not,
// mkTuple, integer/boolean literals, and identifiers.
func ParseSExprTerm(s string) (*term.Term, error) {
	toks := tokenize(s)
	if len(toks) == 0 {
		return nil, fmt.Errorf("empty expression")
	}

	p := &sexprParser{toks: toks}

	t, err := p.parseExpr()
	if err != nil {
		return nil, err
	}

	if p.pos != len(p.toks) {
		return nil, fmt.Errorf("trailing tokens after expression: %v", p.toks[p.pos:])
	}

	return t, nil
}

func tokenize(s string) []string {
	var toks []string

	i := 0
	for i < len(s) {
		c := s[i]

		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			i++
		case c == '(' || c == ')':
			toks = append(toks, string(c))
			i++
		default:
			j := i
			for j < len(s) && s[j] != ' ' && s[j] != '\t' && s[j] != '\n' && s[j] != '\r' && s[j] != '(' && s[j] != ')' {
				j++
			}

			toks = append(toks, s[i:j])
			i = j
		}
	}

	return toks
}

type sexprParser struct {
	toks []string
	pos  int
}

func (p *sexprParser) peek() string {
	if p.pos >= len(p.toks) {
		return ""
	}

	return p.toks[p.pos]
}

func (p *sexprParser) next() string {
	t := p.peek()
	p.pos++

	return t
}

func (p *sexprParser) parseExpr() (*term.Term, error) {
	tok := p.peek()

	switch {
	case tok == "(":
		return p.parseList()
	case tok == "true":
		p.next()
		return term.Bool(true), nil
	case tok == "false":
		p.next()
		return term.Bool(false), nil
	case tok == "":
		return nil, fmt.Errorf("unexpected end of expression")
	default:
		p.next()

		if n, err := strconv.ParseInt(tok, 10, 64); err == nil {
			return term.Int(n), nil
		}

		return term.Var(tok, nil), nil
	}
}

func (p *sexprParser) parseList() (*term.Term, error) {
	p.next() // consume "("

	head := p.next()
	if head == "" {
		return nil, fmt.Errorf("unexpected end after '('")
	}

	if head == "-" {
		// Unary negation when only one operand follows before the close paren.
		first, err := p.parseExpr()
		if err != nil {
			return nil, err
		}

		if p.peek() == ")" {
			p.next()
			return term.Unop(term.OpNeg, first), nil
		}

		second, err := p.parseExpr()
		if err != nil {
			return nil, err
		}

		if err := p.expectClose(); err != nil {
			return nil, err
		}

		return term.Binop(term.OpSub, first, second), nil
	}

	if op, ok := binopOf(head); ok {
		l, err := p.parseExpr()
		if err != nil {
			return nil, err
		}

		r, err := p.parseExpr()
		if err != nil {
			return nil, err
		}

		if err := p.expectClose(); err != nil {
			return nil, err
		}

		return term.Binop(op, l, r), nil
	}

	switch head {
	case "not":
		x, err := p.parseExpr()
		if err != nil {
			return nil, err
		}

		if err := p.expectClose(); err != nil {
			return nil, err
		}

		return term.Unop(term.OpNot, x), nil
	case "ite":
		c, err := p.parseExpr()
		if err != nil {
			return nil, err
		}

		th, err := p.parseExpr()
		if err != nil {
			return nil, err
		}

		el, err := p.parseExpr()
		if err != nil {
			return nil, err
		}

		if err := p.expectClose(); err != nil {
			return nil, err
		}

		return term.Ite(c, th, el), nil
	case "mkTuple":
		var elems []*term.Term

		for p.peek() != ")" && p.peek() != "" {
			e, err := p.parseExpr()
			if err != nil {
				return nil, err
			}

			elems = append(elems, e)
		}

		if err := p.expectClose(); err != nil {
			return nil, err
		}

		return term.TupleOf(elems...), nil
	default:
		var args []*term.Term

		for p.peek() != ")" && p.peek() != "" {
			a, err := p.parseExpr()
			if err != nil {
				return nil, err
			}

			args = append(args, a)
		}

		if err := p.expectClose(); err != nil {
			return nil, err
		}

		return term.App(head, args...), nil
	}
}

func (p *sexprParser) expectClose() error {
	if p.peek() != ")" {
		return fmt.Errorf("expected ')', got %q", p.peek())
	}

	p.next()

	return nil
}

func binopOf(tok string) (term.BinOp, bool) {
	switch tok {
	case "+":
		return term.OpAdd, true
	case "-":
		return term.OpSub, true
	case "*":
		return term.OpMul, true
	case "div":
		return term.OpDiv, true
	case "mod":
		return term.OpMod, true
	case "min":
		return term.OpMin, true
	case "max":
		return term.OpMax, true
	case "=":
		return term.OpEq, true
	case "distinct":
		return term.OpNeq, true
	case "<":
		return term.OpLt, true
	case "<=":
		return term.OpLe, true
	case ">":
		return term.OpGt, true
	case ">=":
		return term.OpGe, true
	case "and":
		return term.OpAnd, true
	case "or":
		return term.OpOr, true
	default:
		return 0, false
	}
}
