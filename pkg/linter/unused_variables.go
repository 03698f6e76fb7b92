package linter

import (
	"strings"

	"github.com/kristofer/bang/pkg/ast"
	"github.com/kristofer/bang/pkg/diagnostic"
)

type varInfo struct {
	line int
	used bool
}

// noUnusedVariables tracks a scope stack mirroring the compiler's own
// block/function nesting: a `let`-bound name (or function parameter)
// that is never referenced by a Variable node is reported when its
// scope closes; an assignment target counts as a reference, so a
// variable that is only written to is not reported. A leading underscore suppresses the check, the
// conventional "intentionally unused" marker.
type noUnusedVariables struct {
	ast.Base
	scopes [][]namedVar
	issues []diagnostic.Diagnostic
}

type namedVar struct {
	name string
	info *varInfo
}

func newNoUnusedVariables() *noUnusedVariables {
	r := &noUnusedVariables{}
	r.pushScope()
	return r
}

func (r *noUnusedVariables) pushScope() {
	r.scopes = append(r.scopes, nil)
}

func (r *noUnusedVariables) popScope() {
	top := r.scopes[len(r.scopes)-1]
	r.scopes = r.scopes[:len(r.scopes)-1]
	for _, nv := range top {
		if nv.info.used || nv.name == "" || strings.HasPrefix(nv.name, "_") {
			continue
		}
		r.issues = append(r.issues, diagnostic.Diagnostic{
			Title:   "NoUnusedVariables",
			Message: nv.name + " is declared but never used",
			Lines:   []int{nv.info.line},
		})
	}
}

func (r *noUnusedVariables) declare(name string, line int) {
	i := len(r.scopes) - 1
	r.scopes[i] = append(r.scopes[i], namedVar{name: name, info: &varInfo{line: line}})
}

func (r *noUnusedVariables) use(name string) {
	for i := len(r.scopes) - 1; i >= 0; i-- {
		scope := r.scopes[i]
		for j := len(scope) - 1; j >= 0; j-- {
			if scope[j].name == name {
				scope[j].info.used = true
				return
			}
		}
	}
}

func (r *noUnusedVariables) EnterStatement(s ast.Statement) {
	switch n := s.(type) {
	case *ast.Block:
		r.pushScope()
	case *ast.Declaration:
		for _, name := range n.Names {
			r.declare(name, lineOf(n))
		}
	}
}

func (r *noUnusedVariables) ExitStatement(s ast.Statement) {
	if _, ok := s.(*ast.Block); ok {
		r.popScope()
	}
}

func (r *noUnusedVariables) EnterExpression(e ast.Expression) {
	switch n := e.(type) {
	case *ast.Function:
		r.pushScope()
		for _, p := range n.Parameters {
			r.declare(p.Name, lineOf(n))
		}
	case *ast.Variable:
		r.use(n.Name)
	}
}

func (r *noUnusedVariables) ExitExpression(e ast.Expression) {
	if _, ok := e.(*ast.Function); ok {
		r.popScope()
	}
}

func (r *noUnusedVariables) ExitProgram(*ast.Program) {
	r.popScope()
}

func (r *noUnusedVariables) Issues() []diagnostic.Diagnostic { return r.issues }
