package linter

import (
	"github.com/kristofer/bang/pkg/ast"
	"github.com/kristofer/bang/pkg/diagnostic"
)

// noNegativeZero flags `-0` and `-0.0`: negating a zero literal
// produces a value indistinguishable from positive zero by this
// language's equality (value.Equal compares numbers with ==), so the
// negation can never have been intentional.
type noNegativeZero struct {
	ast.Base
	issues []diagnostic.Diagnostic
}

func newNoNegativeZero() *noNegativeZero { return &noNegativeZero{} }

func (r *noNegativeZero) EnterExpression(e ast.Expression) {
	u, ok := e.(*ast.Unary)
	if !ok || u.Operator != "-" {
		return
	}
	lit, ok := u.Expression.(*ast.Literal)
	if !ok {
		return
	}
	if n, ok := lit.Value.(float64); ok && n == 0 {
		r.issues = append(r.issues, diagnostic.Diagnostic{
			Title:   "NoNegativeZero",
			Message: "negating 0 has no observable effect",
			Lines:   []int{lineOf(e)},
		})
	}
}

func (r *noNegativeZero) Issues() []diagnostic.Diagnostic { return r.issues }
