package frontend

import "testing"

func TestLexerBasicTokens(t *testing.T) {
	lx := NewLexer("t.ml", "let rec f (x: int) : int = x + 1")

	want := []TokenKind{
		TokLet, TokRec, TokIdent, TokLParen, TokIdent, TokColon, TokIdent, TokRParen,
		TokColon, TokIdent, TokEquals, TokIdent, TokPlus, TokInt, TokEOF,
	}

	for i, k := range want {
		tok := lx.Next()
		if tok.Kind != k {
			t.Fatalf("token %d: got kind %v (%q), want %v", i, tok.Kind, tok.Literal, k)
		}
	}
}

func TestLexerHole(t *testing.T) {
	lx := NewLexer("t.ml", "[%synt h1] x")

	tok := lx.Next()
	if tok.Kind != TokHole || tok.Literal != "h1" {
		t.Fatalf("got %v %q, want TokHole \"h1\"", tok.Kind, tok.Literal)
	}

	tok = lx.Next()
	if tok.Kind != TokIdent || tok.Literal != "x" {
		t.Fatalf("got %v %q, want ident x", tok.Kind, tok.Literal)
	}
}

func TestLexerComment(t *testing.T) {
	lx := NewLexer("t.ml", "(* a comment *) let")

	tok := lx.Next()
	if tok.Kind != TokLet {
		t.Fatalf("comment not skipped: got %v %q", tok.Kind, tok.Literal)
	}
}

func TestLexerMultiCharOperators(t *testing.T) {
	lx := NewLexer("t.ml", "-> => <= >= != && ||")

	want := []TokenKind{TokArrow, TokFatArrow, TokLe, TokGe, TokNeq, TokAndAnd, TokOrOr, TokEOF}
	for i, k := range want {
		tok := lx.Next()
		if tok.Kind != k {
			t.Fatalf("token %d: got %v (%q), want %v", i, tok.Kind, tok.Literal, k)
		}
	}
}

func TestLexerSpanTracksLineColumn(t *testing.T) {
	lx := NewLexer("t.ml", "a\nbb")

	first := lx.Next()
	if first.Span.Start.Line != 1 || first.Span.Start.Column != 1 {
		t.Fatalf("first token span = %+v, want line 1 col 1", first.Span.Start)
	}

	second := lx.Next()
	if second.Span.Start.Line != 2 || second.Span.Start.Column != 1 {
		t.Fatalf("second token span = %+v, want line 2 col 1", second.Span.Start)
	}
}
