package diagnostics

import (
	"testing"

	"github.com/synduce/synduce/internal/position"
)

func span(line int) position.Span {
	return position.Span{
		Start: position.Position{Filename: "t.ml", Line: line, Column: 1},
		End:   position.Position{Filename: "t.ml", Line: line, Column: 5},
	}
}

func TestReporterClassification(t *testing.T) {
	r := NewReporter()

	r.InputError("undefined reference 'foo'", span(3), "t.ml")
	r.ResourceError("solver binary not found", "exec: \"z3\": executable file not found in $PATH")
	r.SolverError("model did not parse", "(error \"bad sexpr\")")
	r.Infeasible("no skeleton of depth <= 2 satisfies the equation system", nil)
	r.Internal("rule coverage invariant violated after lowering")

	cases := []struct {
		class ErrorClass
		want  int
	}{
		{ClassInput, 1},
		{ClassResource, 1},
		{ClassSolver, 1},
		{ClassInfeasibility, 1},
		{ClassInternal, 1},
	}

	for _, tc := range cases {
		if got := len(r.Manager().ByClass(tc.class)); got != tc.want {
			t.Fatalf("class %s: got %d diagnostics, want %d", tc.class, got, tc.want)
		}
	}

	if r.Manager().ErrorCount() != 2 { // InputError and Internal report at LevelError; ResourceError/SolverError are warnings, Infeasible is info
		t.Fatalf("expected 2 errors, got %d", r.Manager().ErrorCount())
	}

	internal := r.Manager().ByClass(ClassInternal)[0]
	if len(internal.StackTrace) == 0 {
		t.Fatalf("expected a captured stack trace on an internal diagnostic")
	}
}

func TestManagerSourceContext(t *testing.T) {
	m := NewManager()
	m.AddSource("t.ml", "let a = 1\nlet b = 2\nlet c = undefined\n")

	m.Add(NewBuilder().
		Error().
		WithClass(ClassInput).
		WithMessage("undefined reference 'undefined'").
		WithSpan(span(3)).
		WithSourceFile("t.ml").
		Build())

	d := m.Diagnostics()[0]
	if len(d.Context) == 0 {
		t.Fatalf("expected source context to be filled in for a known source file")
	}
}

func TestManagerSuppressionAndLimits(t *testing.T) {
	m := NewManager()
	m.Suppress(ClassResource)
	m.Add(Diagnostic{Level: LevelWarning, Class: ClassResource, Message: "should be suppressed"})

	if len(m.Diagnostics()) != 0 {
		t.Fatalf("expected suppressed class to produce no diagnostic")
	}

	m.SetErrorLimit(1)
	m.Add(Diagnostic{Level: LevelError, Class: ClassInput, Message: "first"})
	m.Add(Diagnostic{Level: LevelError, Class: ClassInput, Message: "second, should be dropped"})

	if m.ErrorCount() != 1 {
		t.Fatalf("expected error limit to cap reported errors at 1, got %d", m.ErrorCount())
	}
}
