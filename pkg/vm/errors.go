// Package vm implements the bang stack machine: its error handling
// mirrors the call-stack-annotated RuntimeError shape kept throughout
// this codebase, adapted to a closed taxonomy of runtime failure kinds
// rather than a single free-text message.
package vm

import (
	"fmt"
	"strings"
)

// RuntimeErrorKind enumerates the closed set of failures the VM can
// raise during execution.
type RuntimeErrorKind int

const (
	TypeMismatch RuntimeErrorKind = iota
	UndefinedVariable
	ArityMismatch
	IndexOutOfRange
	IndexNotSupported
	StackOverflow
	DestructureLength
)

func (k RuntimeErrorKind) String() string {
	switch k {
	case TypeMismatch:
		return "TypeMismatch"
	case UndefinedVariable:
		return "UndefinedVariable"
	case ArityMismatch:
		return "ArityMismatch"
	case IndexOutOfRange:
		return "IndexOutOfRange"
	case IndexNotSupported:
		return "IndexNotSupported"
	case StackOverflow:
		return "StackOverflow"
	case DestructureLength:
		return "DestructureLength"
	default:
		return "UnknownRuntimeError"
	}
}

// StackFrame captures one call frame's identity at the moment an error
// unwound through it, used purely to build a readable trace.
type StackFrame struct {
	Name       string
	SourceLine int
}

// RuntimeError is what a faulting VM returns instead of a globals map.
// It is a plain value, never a panic: the dispatch loop checks for it
// after every opcode that can fail and returns early.
type RuntimeError struct {
	Kind       RuntimeErrorKind
	Message    string
	StackTrace []StackFrame
}

func (e *RuntimeError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s", e.Kind, e.Message)

	if len(e.StackTrace) > 0 {
		b.WriteString("\n\nStack trace:")
		for i := len(e.StackTrace) - 1; i >= 0; i-- {
			frame := e.StackTrace[i]
			fmt.Fprintf(&b, "\n  at %s", frame.Name)
			if frame.SourceLine > 0 {
				fmt.Fprintf(&b, " [line %d]", frame.SourceLine)
			}
		}
	}
	return b.String()
}

func newRuntimeError(kind RuntimeErrorKind, stack []StackFrame, format string, args ...interface{}) *RuntimeError {
	return &RuntimeError{
		Kind:       kind,
		Message:    fmt.Sprintf(format, args...),
		StackTrace: stack,
	}
}
