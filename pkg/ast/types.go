package ast

// TypeKind discriminates the shape of a TypeExpression.
type TypeKind int

const (
	TypeNamed TypeKind = iota
	TypeUnion
	TypeFunction
	TypeOptional
	TypeGroup
	TypeList
)

// TypeExpression is a parsed (never checked) type annotation, kept on
// Parameter and Function nodes purely so the surface syntax round
// trips; an optional type-checker consuming these is out of scope.
type TypeExpression struct {
	Span
	Kind TypeKind

	// Named
	Ident string
	// Union: Left | Right. Function: Parameters -> Return.
	// Optional, Group, List: Inner.
	Left, Right, Inner *TypeExpression
	Parameters         []*TypeExpression
	Return             *TypeExpression
}
