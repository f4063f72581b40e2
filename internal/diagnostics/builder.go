package diagnostics

import (
	"fmt"

	"github.com/synduce/synduce/internal/position"
)

// Builder provides a fluent interface for assembling a Diagnostic one
// field at a time, mirroring the way Reporter's per-class helpers below
// are themselves built.
type Builder struct {
	d Diagnostic
}

func NewBuilder() *Builder {
	return &Builder{}
}

func (b *Builder) Error() *Builder   { b.d.Level = LevelError; return b }
func (b *Builder) Warning() *Builder { b.d.Level = LevelWarning; return b }
func (b *Builder) Info() *Builder    { b.d.Level = LevelInfo; return b }

func (b *Builder) WithClass(class ErrorClass) *Builder { b.d.Class = class; return b }
func (b *Builder) WithCode(code string) *Builder       { b.d.Code = code; return b }

func (b *Builder) WithMessage(message string) *Builder { b.d.Message = message; return b }

func (b *Builder) WithMessagef(format string, args ...interface{}) *Builder {
	b.d.Message = fmt.Sprintf(format, args...)
	return b
}

func (b *Builder) WithSpan(span position.Span) *Builder { b.d.Span = span; return b }

func (b *Builder) WithSourceFile(filename string) *Builder { b.d.SourceFile = filename; return b }

func (b *Builder) WithExplanation(explanation string) *Builder {
	b.d.Explanation = explanation
	return b
}

func (b *Builder) WithExplanationf(format string, args ...interface{}) *Builder {
	b.d.Explanation = fmt.Sprintf(format, args...)
	return b
}

func (b *Builder) AddRelatedInfo(message string, location position.Span) *Builder {
	b.d.RelatedInfo = append(b.d.RelatedInfo, RelatedInformation{Message: message, Location: location})
	return b
}

func (b *Builder) WithStackTrace(trace []string) *Builder {
	b.d.StackTrace = trace
	return b
}

func (b *Builder) Build() Diagnostic { return b.d }
