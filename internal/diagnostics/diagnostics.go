// Package diagnostics collects and renders the error reports synthesis
// runs produce, anchored to source spans the way a compiler's diagnostic
// system is. Where a compiler classifies by syntax/type/memory/etc., this
// package classifies by the five outcome classes a synthesis run can end
// in (input errors, resource errors, solver errors, logical infeasibility,
// internal invariant violations) — everything downstream (exit codes,
// -json output, the refinement loop's own soft-failure handling) keys off
// that same ErrorClass rather than a free-form category string.
package diagnostics

import (
	"fmt"
	"sort"
	"strings"

	"github.com/synduce/synduce/internal/position"
)

// DiagnosticLevel is the severity of a single diagnostic, independent of
// its ErrorClass: an ErrorClass can still be reported at Warning or Info
// (e.g. a resource hiccup that was retried successfully).
type DiagnosticLevel int

const (
	LevelError DiagnosticLevel = iota
	LevelWarning
	LevelInfo
)

func (l DiagnosticLevel) String() string {
	switch l {
	case LevelError:
		return "error"
	case LevelWarning:
		return "warning"
	case LevelInfo:
		return "info"
	default:
		return "unknown"
	}
}

// ErrorClass is one of the five outcome classes a synthesis run can
// report.
type ErrorClass int

const (
	// ClassInput covers malformed or ill-typed input: a lexer/parser
	// failure, an undefined reference, a hole outside the target, a
	// non-terminal whose rules don't cover every variant. Fatal — the
	// run never reaches the refinement loop.
	ClassInput ErrorClass = iota

	// ClassResource covers environment trouble unrelated to the problem
	// itself: the solver binary is missing, a subprocess timed out, a
	// remote gateway is unreachable. Soft — the run reports Unknown
	// rather than aborting.
	ClassResource

	// ClassSolver covers a backend SMT/SyGuS solver returning something
	// the loop can't interpret: a malformed model, an "unknown" result,
	// a solver-internal error. Soft — also folds into Unknown.
	ClassSolver

	// ClassInfeasibility covers a proof that no skeleton in the search
	// space satisfies the equation system: the loop concludes
	// Unrealizable rather than failing.
	ClassInfeasibility

	// ClassInternal covers an invariant violation inside the synthesis
	// engine itself — a bug, not a property of the input problem. These
	// are never expected to fire; when one does, the run aborts rather
	// than reporting a class-1..4 outcome.
	ClassInternal
)

func (c ErrorClass) String() string {
	switch c {
	case ClassInput:
		return "input"
	case ClassResource:
		return "resource"
	case ClassSolver:
		return "solver"
	case ClassInfeasibility:
		return "infeasibility"
	case ClassInternal:
		return "internal"
	default:
		return "unknown"
	}
}

// RelatedInformation points at a second span relevant to a diagnostic —
// e.g. the counterexample input that refuted a candidate, or the
// non-terminal declaration a missing-rule error is about.
type RelatedInformation struct {
	Message  string
	Location position.Span
}

// Diagnostic is one reported error, warning, or note.
type Diagnostic struct {
	ID      string
	Level   DiagnosticLevel
	Class   ErrorClass
	Message string
	Span    position.Span
	Code    string // short stable code, e.g. "E-INPUT-003"

	Context     []string // source lines around Span, filled by enhance
	ContextSpan position.Span

	Explanation string
	RelatedInfo []RelatedInformation

	SourceFile string
	StackTrace []string // only ever populated for ClassInternal
}

// Manager accumulates diagnostics for one synthesis run and renders them
// on demand. It never aborts a run itself — callers decide what an
// accumulated ClassInput or ClassInternal diagnostic means for control
// flow (cmd/synduce maps the collected diagnostics to an exit code).
type Manager struct {
	diagnostics  []Diagnostic
	errorCount   int
	warningCount int
	maxErrors    int
	maxWarnings  int
	sources      map[string][]string
	suppressions map[ErrorClass]bool
}

// NewManager creates an empty diagnostic manager with generous default
// limits (a synthesis run producing more than a handful of diagnostics is
// already not going to recover; the limits exist to bound pathological
// input, not to be tuned in the common case).
func NewManager() *Manager {
	return &Manager{
		maxErrors:    100,
		maxWarnings:  1000,
		sources:      make(map[string][]string),
		suppressions: make(map[ErrorClass]bool),
	}
}

func (m *Manager) SetErrorLimit(limit int)   { m.maxErrors = limit }
func (m *Manager) SetWarningLimit(limit int) { m.maxWarnings = limit }

// Suppress silences every future diagnostic of the given class.
func (m *Manager) Suppress(class ErrorClass) { m.suppressions[class] = true }

// AddSource registers a file's text so later diagnostics anchored to it
// get source-line context. Call once per parsed input file.
func (m *Manager) AddSource(filename, text string) {
	m.sources[filename] = strings.Split(text, "\n")
}

// Add appends a diagnostic, enforcing suppression and error/warning
// limits and filling in source context.
func (m *Manager) Add(d Diagnostic) {
	if m.suppressions[d.Class] {
		return
	}

	switch d.Level {
	case LevelError:
		if m.errorCount >= m.maxErrors {
			return
		}

		m.errorCount++
	case LevelWarning:
		if m.warningCount >= m.maxWarnings {
			return
		}

		m.warningCount++
	}

	m.enhance(&d)
	m.diagnostics = append(m.diagnostics, d)
}

func (m *Manager) enhance(d *Diagnostic) {
	lines, ok := m.sources[d.SourceFile]
	if !ok || len(lines) == 0 {
		return
	}

	start := max(0, d.Span.Start.Line-3)
	end := min(len(lines)-1, d.Span.End.Line+1)

	for i := start; i <= end && i < len(lines); i++ {
		d.Context = append(d.Context, lines[i])
	}

	d.ContextSpan = position.Span{
		Start: position.Position{Filename: d.SourceFile, Line: start + 1},
		End:   position.Position{Filename: d.SourceFile, Line: end + 1},
	}
}

func (m *Manager) Diagnostics() []Diagnostic { return m.diagnostics }
func (m *Manager) ErrorCount() int           { return m.errorCount }
func (m *Manager) WarningCount() int         { return m.warningCount }
func (m *Manager) HasErrors() bool           { return m.errorCount > 0 }

// ByClass returns every diagnostic of the given class, in report order.
func (m *Manager) ByClass(class ErrorClass) []Diagnostic {
	var out []Diagnostic

	for _, d := range m.diagnostics {
		if d.Class == class {
			out = append(out, d)
		}
	}

	return out
}

// Sort orders diagnostics by file, then line, then column, then severity
// (errors before warnings before info) — the order a reader scanning
// top-to-bottom through their source would expect.
func (m *Manager) Sort() {
	sort.Slice(m.diagnostics, func(i, j int) bool {
		a, b := m.diagnostics[i], m.diagnostics[j]

		if a.SourceFile != b.SourceFile {
			return a.SourceFile < b.SourceFile
		}

		if a.Span.Start.Line != b.Span.Start.Line {
			return a.Span.Start.Line < b.Span.Start.Line
		}

		if a.Span.Start.Column != b.Span.Start.Column {
			return a.Span.Start.Column < b.Span.Start.Column
		}

		return a.Level < b.Level
	})
}

// Format renders one diagnostic as a multi-line human-readable report.
func (m *Manager) Format(d Diagnostic, colorize bool) string {
	var out strings.Builder

	if colorize {
		out.WriteString(colorFor(d.Level))
	}

	out.WriteString(d.Level.String())
	out.WriteString("[" + d.Class.String())

	if d.Code != "" {
		out.WriteString(" " + d.Code)
	}

	out.WriteString("]")

	if colorize {
		out.WriteString(resetColor)
	}

	out.WriteString(": " + d.Message)

	if d.SourceFile != "" {
		fmt.Fprintf(&out, "\n  --> %s:%d:%d", d.SourceFile, d.Span.Start.Line, d.Span.Start.Column)
	}

	if len(d.Context) > 0 {
		out.WriteString("\n")

		lineNum := d.ContextSpan.Start.Line
		for _, line := range d.Context {
			fmt.Fprintf(&out, "%4d | %s\n", lineNum, line)

			if lineNum == d.Span.Start.Line {
				pointer := strings.Repeat(" ", 7+d.Span.Start.Column) + strings.Repeat("^", max(1, d.Span.End.Column-d.Span.Start.Column))
				out.WriteString(pointer + "\n")
			}

			lineNum++
		}
	}

	if d.Explanation != "" {
		out.WriteString("\n" + d.Explanation + "\n")
	}

	for _, info := range d.RelatedInfo {
		fmt.Fprintf(&out, "  note: %s:%d:%d: %s\n", info.Location.Start.Filename, info.Location.Start.Line, info.Location.Start.Column, info.Message)
	}

	if len(d.StackTrace) > 0 {
		out.WriteString("\ninternal invariant violation, stack trace:\n")
		for _, frame := range d.StackTrace {
			out.WriteString("  " + frame + "\n")
		}
	}

	return out.String()
}

const resetColor = "\033[0m"

func colorFor(level DiagnosticLevel) string {
	switch level {
	case LevelError:
		return "\033[31m"
	case LevelWarning:
		return "\033[33m"
	case LevelInfo:
		return "\033[34m"
	default:
		return ""
	}
}

// Summary reports counts by class.
type Summary struct {
	TotalCount   int
	ErrorCount   int
	WarningCount int
	ByClass      map[string]int
}

func (m *Manager) Summary() Summary {
	s := Summary{
		TotalCount:   len(m.diagnostics),
		ErrorCount:   m.errorCount,
		WarningCount: m.warningCount,
		ByClass:      make(map[string]int),
	}

	for _, d := range m.diagnostics {
		s.ByClass[d.Class.String()]++
	}

	return s
}

func (m *Manager) FormatSummary() string {
	if len(m.diagnostics) == 0 {
		return "no diagnostics"
	}

	var out strings.Builder

	fmt.Fprintf(&out, "%d error(s), %d warning(s)", m.errorCount, m.warningCount)

	s := m.Summary()

	classes := make([]string, 0, len(s.ByClass))
	for c := range s.ByClass {
		classes = append(classes, c)
	}

	sort.Strings(classes)

	for _, c := range classes {
		fmt.Fprintf(&out, "\n  %s: %d", c, s.ByClass[c])
	}

	return out.String()
}

func max(a, b int) int {
	if a > b {
		return a
	}

	return b
}

func min(a, b int) int {
	if a < b {
		return a
	}

	return b
}
