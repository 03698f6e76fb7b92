package linter

import (
	"github.com/kristofer/bang/pkg/ast"
	"github.com/kristofer/bang/pkg/diagnostic"
)

// noSelfAssign flags `x = x`: a plain (non-compound) assignment whose
// right-hand side is the same bare variable as its target, which has
// no effect beyond the expression's own evaluation.
type noSelfAssign struct {
	ast.Base
	issues []diagnostic.Diagnostic
}

func newNoSelfAssign() *noSelfAssign { return &noSelfAssign{} }

func (r *noSelfAssign) EnterExpression(e ast.Expression) {
	a, ok := e.(*ast.Assignment)
	if !ok || a.Operator != "" {
		return
	}
	target, ok := a.Target.(*ast.Variable)
	if !ok {
		return
	}
	value, ok := a.Value.(*ast.Variable)
	if !ok {
		return
	}
	if target.Name == value.Name {
		r.issues = append(r.issues, diagnostic.Diagnostic{
			Title:   "NoSelfAssign",
			Message: "assigning " + target.Name + " to itself has no effect",
			Lines:   []int{lineOf(e)},
		})
	}
}

func (r *noSelfAssign) Issues() []diagnostic.Diagnostic { return r.issues }
