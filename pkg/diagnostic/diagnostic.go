// Package diagnostic carries structured compile-time and run-time
// problem reports out of the core so a host can render them however it
// likes: color and frame rendering stay an external, host-side concern.
package diagnostic

import "fmt"

// Diagnostic is the host-facing carrier for a single reported problem.
// There are no machine-readable error codes — title and message are
// meant to be read by a human, and lines point back into the offending
// source.
type Diagnostic struct {
	Title   string
	Message string
	Lines   []int
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s: %s", d.Title, d.Message)
}

// CompileErrorKind enumerates the closed taxonomy of parse/compile
// failures.
type CompileErrorKind int

const (
	SyntaxError CompileErrorKind = iota
	UnterminatedString
	InvalidIndentation
	DuplicateDeclaration
	AssignTarget
	JumpTooLarge
	ImportNotFound
)

func (k CompileErrorKind) String() string {
	switch k {
	case SyntaxError:
		return "SyntaxError"
	case UnterminatedString:
		return "UnterminatedString"
	case InvalidIndentation:
		return "InvalidIndentation"
	case DuplicateDeclaration:
		return "DuplicateDeclaration"
	case AssignTarget:
		return "AssignTarget"
	case JumpTooLarge:
		return "JumpTooLarge"
	case ImportNotFound:
		return "ImportNotFound"
	default:
		return "UnknownCompileError"
	}
}

// CompileError is returned by the parser (which also wraps a lexer
// failure as a SyntaxError) or the compiler on the first unrecoverable
// failure; recovery is not attempted. It carries
// enough to build a Diagnostic without re-deriving anything from the
// AST.
type CompileError struct {
	Kind    CompileErrorKind
	Message string
	Line    int
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("%s: %s (line %d)", e.Kind, e.Message, e.Line)
}

// ToDiagnostic renders a CompileError as a host-facing Diagnostic.
func (e *CompileError) ToDiagnostic() Diagnostic {
	return Diagnostic{
		Title:   e.Kind.String(),
		Message: e.Message,
		Lines:   []int{e.Line},
	}
}

// New constructs a CompileError of the given kind.
func New(kind CompileErrorKind, line int, format string, args ...interface{}) *CompileError {
	return &CompileError{Kind: kind, Line: line, Message: fmt.Sprintf(format, args...)}
}
