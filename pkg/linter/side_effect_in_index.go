package linter

import (
	"github.com/kristofer/bang/pkg/ast"
	"github.com/kristofer/bang/pkg/diagnostic"
)

// noSideEffectInIndex flags a call or assignment buried inside the
// index expression of an IndexAssignment (`xs[f()] = v`,
// `xs[i = 0] = v`): since the receiver and index are each evaluated
// exactly once by the compiler regardless of the assignment's own
// operator, burying a side effect there reads as if it runs every time
// the assignment's operator re-reads the index, which it does not.
type noSideEffectInIndex struct {
	ast.Base
	issues []diagnostic.Diagnostic
}

func newNoSideEffectInIndex() *noSideEffectInIndex { return &noSideEffectInIndex{} }

func (r *noSideEffectInIndex) EnterExpression(e ast.Expression) {
	ia, ok := e.(*ast.IndexAssignment)
	if !ok {
		return
	}
	if hasSideEffect(ia.IndexExpr) {
		r.issues = append(r.issues, diagnostic.Diagnostic{
			Title:   "NoSideEffectInIndex",
			Message: "index expression contains a call or assignment",
			Lines:   []int{lineOf(e)},
		})
	}
}

func hasSideEffect(e ast.Expression) bool {
	found := false
	var v sideEffectScan
	v.found = &found
	ast.WalkExpression(&v, e)
	return found
}

type sideEffectScan struct {
	ast.Base
	found *bool
}

func (v *sideEffectScan) EnterExpression(e ast.Expression) {
	switch e.(type) {
	case *ast.Call, *ast.Assignment, *ast.IndexAssignment:
		*v.found = true
	}
}

func (r *noSideEffectInIndex) Issues() []diagnostic.Diagnostic { return r.issues }
