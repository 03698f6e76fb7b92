package linter

import (
	"github.com/kristofer/bang/pkg/ast"
	"github.com/kristofer/bang/pkg/diagnostic"
)

// noYodaEquality flags `literal == variable`, the reversed form of the
// usual `variable == literal` that reads awkwardly and often signals
// code translated from a language where it guards against a typo'd
// `=`. bang has no such typo risk (assignment and equality are always
// unambiguous in this grammar), so the form is pure style noise here.
type noYodaEquality struct {
	ast.Base
	issues []diagnostic.Diagnostic
}

func newNoYodaEquality() *noYodaEquality { return &noYodaEquality{} }

func (r *noYodaEquality) EnterExpression(e ast.Expression) {
	b, ok := e.(*ast.Binary)
	if !ok || b.Operator != "==" {
		return
	}
	if _, leftIsLiteral := b.Left.(*ast.Literal); !leftIsLiteral {
		return
	}
	if _, rightIsVariable := b.Right.(*ast.Variable); !rightIsVariable {
		return
	}
	r.issues = append(r.issues, diagnostic.Diagnostic{
		Title:   "NoYodaEquality",
		Message: "compare the variable first: `x == literal`, not `literal == x`",
		Lines:   []int{lineOf(e)},
	})
}

func (r *noYodaEquality) Issues() []diagnostic.Diagnostic { return r.issues }
