package frontend

import "github.com/synduce/synduce/internal/diagnostics"

// Report files every front-end Error — lexer, parser, or lowering
// failure alike — as a class-1 input error diagnostic. Front-end
// failures never fall into any other ErrorClass: a malformed ".ml"/
// ".pmrs" file is a defect in the problem source, not in the run's
// environment or in the engine itself.
func Report(r *diagnostics.Reporter, sourceFile string, errs []Error) {
	for _, e := range errs {
		r.InputError(e.Msg, e.Span, sourceFile)
	}
}
