package frontend

import "testing"

func TestParseFuncDeclArithmetic(t *testing.T) {
	src := `let f (x: int) : int = x + 1 * 2`

	f, errs := ParseFile("t.ml", src)
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}

	if len(f.Functions) != 1 {
		t.Fatalf("got %d functions, want 1", len(f.Functions))
	}

	fd := f.Functions[0]
	if fd.Name != "f" || len(fd.Params) != 1 || fd.Params[0].Name != "x" {
		t.Fatalf("unexpected decl shape: %+v", fd)
	}

	body := fd.Body
	if body.Kind != EBinop || body.Op != "+" {
		t.Fatalf("expected top-level '+', got %+v", body)
	}

	// precedence: "*" should bind tighter, so RHS of "+" is "1 * 2" as a
	// whole, not "(x + 1) * 2".
	if body.R.Kind != EBinop || body.R.Op != "*" {
		t.Fatalf("expected '*' nested under '+', got %+v", body.R)
	}
}

func TestParseMatchExpression(t *testing.T) {
	src := `type list = | Nil | Cons of int * list
let rec sum (l: list) : int =
  match l with
  | Nil -> 0
  | Cons hd tl -> hd + sum tl`

	f, errs := ParseFile("t.ml", src)
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}

	if len(f.Types) != 1 || len(f.Types[0].Variants) != 2 {
		t.Fatalf("unexpected type decl: %+v", f.Types)
	}

	fd := f.Functions[0]
	if fd.Body.Kind != EMatch || len(fd.Body.Arms) != 2 {
		t.Fatalf("expected a 2-arm match, got %+v", fd.Body)
	}

	consArm := fd.Body.Arms[1]
	if consArm.Variant != "Cons" || len(consArm.Binders) != 2 {
		t.Fatalf("unexpected Cons arm: %+v", consArm)
	}

	if consArm.Body.Kind != EBinop || consArm.Body.R.Kind != EApp || consArm.Body.R.Fn != "sum" {
		t.Fatalf("expected 'hd + sum tl', got %+v", consArm.Body)
	}
}

func TestParseHoleApplication(t *testing.T) {
	src := `let target (x: int) : int = if x = 0 then [%synt h1] x else [%synt h2] x`

	f, errs := ParseFile("t.ml", src)
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}

	body := f.Functions[0].Body
	if body.Kind != EIf {
		t.Fatalf("expected if, got %+v", body)
	}

	if body.Then.Kind != EApp || body.Then.Fn != "h1" || len(body.Then.Args) != 1 {
		t.Fatalf("expected hole application h1 x, got %+v", body.Then)
	}
}

func TestParseLetIn(t *testing.T) {
	src := `let f (x: int) : int = let y = x + 1 in y * y`

	f, errs := ParseFile("t.ml", src)
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}

	body := f.Functions[0].Body
	if body.Kind != ELet || body.LetName != "y" {
		t.Fatalf("expected let y = ..., got %+v", body)
	}
}

func TestParseErrorRecoversAtStatementBoundary(t *testing.T) {
	src := `type broken =
let g (y: int) : int = y`

	f, errs := ParseFile("t.ml", src)
	if len(errs) == 0 {
		t.Fatalf("expected a parse error from the malformed type declaration")
	}

	var names []string
	for _, fd := range f.Functions {
		names = append(names, fd.Name)
	}

	found := false

	for _, n := range names {
		if n == "g" {
			found = true
		}
	}

	if !found {
		t.Fatalf("expected recovery to still parse 'g', got functions %v", names)
	}
}
