// Package linter walks a parsed bang program looking for patterns that
// are legal but almost always a mistake: constant conditions, yoda
// equality, unreachable code after a return, and the like. Each rule is
// its own ast.Visitor; Run fans a program out across all of them and
// collects their Diagnostics.
package linter

import (
	"github.com/kristofer/bang/pkg/ast"
	"github.com/kristofer/bang/pkg/diagnostic"
)

// Rule is one lint check: an ast.Visitor that accumulates issues as it
// walks, surfaced once the walk completes.
type Rule interface {
	ast.Visitor
	Issues() []diagnostic.Diagnostic
}

// Rules returns a fresh instance of every built-in rule. Fresh
// instances per call because rules carry per-walk state (scope stacks,
// seen-unreachable flags).
func Rules() []Rule {
	return []Rule{
		newNoConstantCondition(),
		newNoNegativeZero(),
		newNoSelfAssign(),
		newNoUnreachableCode(),
		newNoYodaEquality(),
		newNoSideEffectInIndex(),
		newNoUnusedVariables(),
	}
}

// Run walks program with every built-in rule and returns the combined,
// unsorted list of Diagnostics.
func Run(program *ast.Program) []diagnostic.Diagnostic {
	var all []diagnostic.Diagnostic
	for _, r := range Rules() {
		ast.Walk(r, program)
		all = append(all, r.Issues()...)
	}
	return all
}

func lineOf(n ast.Node) int {
	if s, ok := n.(interface{ SourceLine() int }); ok {
		return s.SourceLine()
	}
	return 0
}

// isConstant reports whether e's value can be determined without
// running the program: literals, and unary/binary operators over
// other constants. Calls, pipelines, variables, and indexing are never
// constant.
func isConstant(e ast.Expression) bool {
	switch n := e.(type) {
	case *ast.Literal:
		return true
	case *ast.Group:
		return isConstant(n.Expression)
	case *ast.Unary:
		return isConstant(n.Expression)
	case *ast.Binary:
		if n.Operator == ">>" {
			return false
		}
		return isConstant(n.Left) && isConstant(n.Right)
	default:
		return false
	}
}
