// Package ast defines the abstract syntax tree bang's parser produces
// and its linter and compiler walk.
package ast

// Position is a column within a source line, copied by the parser from
// lexer.Token.Column. It is not a byte offset into the whole source.
type Position int

// Span records where a node was parsed from, carried by every statement
// and expression for diagnostics. Start is the column of the node's
// first token and End is the column of the token the parser stood on
// once the node was complete, which may lie on a later line; Start and
// End therefore do not form a character range of the source. Line is
// the source line of Start, which the compiler uses directly to
// populate the chunk's per-instruction line table.
type Span struct {
	Start Position
	End   Position
	Line  int
}

// Node is implemented by every statement and expression. Every
// concrete node embeds a Span field directly, giving callers field
// access to its source range without a method indirection.
type Node interface {
	isNode()
}

func (Span) isNode() {}

// SourceLine reports the line a node starts on. Every concrete
// statement and expression embeds Span, so this method is promoted to
// all of them, letting callers get a line number from a bare Node
// without a type switch.
func (s Span) SourceLine() int { return s.Line }

// Statement is implemented by every statement node.
type Statement interface {
	Node
	statementNode()
}

// Expression is implemented by every expression node.
type Expression interface {
	Node
	expressionNode()
}

// Program is the root of a parsed source file.
type Program struct {
	Statements []Statement
}
