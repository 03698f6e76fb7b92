package linter

import (
	"github.com/kristofer/bang/pkg/ast"
	"github.com/kristofer/bang/pkg/diagnostic"
)

// noConstantCondition flags an if/while whose condition is built
// entirely from literals and operators over them — it always branches
// (or never loops) the same way, so the condition is almost certainly
// a leftover from debugging or an incomplete edit.
type noConstantCondition struct {
	ast.Base
	issues []diagnostic.Diagnostic
}

func newNoConstantCondition() *noConstantCondition { return &noConstantCondition{} }

func (r *noConstantCondition) EnterStatement(s ast.Statement) {
	var cond ast.Expression
	switch n := s.(type) {
	case *ast.If:
		cond = n.Condition
	case *ast.While:
		cond = n.Condition
	default:
		return
	}
	if isConstant(cond) {
		r.issues = append(r.issues, diagnostic.Diagnostic{
			Title:   "NoConstantCondition",
			Message: "condition never depends on a variable or call result",
			Lines:   []int{lineOf(s)},
		})
	}
}

func (r *noConstantCondition) Issues() []diagnostic.Diagnostic { return r.issues }
