// Package logging is a small leveled-Printf helper for cmd/bang. The
// core packages (lexer, parser, compiler, vm) stay silent — a library
// has no business writing to a stream the host doesn't control — so
// this exists purely for the driver to report compile and runtime
// failures distinctly from ordinary REPL output.
package logging

import (
	"fmt"
	"io"
)

// Logger writes leveled lines to a single output stream.
type Logger struct {
	out io.Writer
}

// New builds a Logger writing to out.
func New(out io.Writer) *Logger {
	return &Logger{out: out}
}

func (l *Logger) printf(level, format string, args ...interface{}) {
	fmt.Fprintf(l.out, "%s: %s\n", level, fmt.Sprintf(format, args...))
}

// Infof logs an informational line (REPL banners, compile confirmations).
func (l *Logger) Infof(format string, args ...interface{}) {
	l.printf("INFO", format, args...)
}

// CompileErrorf logs a parse/compile failure.
func (l *Logger) CompileErrorf(format string, args ...interface{}) {
	l.printf("COMPILE ERROR", format, args...)
}

// RuntimeErrorf logs a VM failure.
func (l *Logger) RuntimeErrorf(format string, args ...interface{}) {
	l.printf("RUNTIME ERROR", format, args...)
}
