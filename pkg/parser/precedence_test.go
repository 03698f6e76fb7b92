package parser

import (
	"fmt"
	"testing"

	"github.com/kristofer/bang/pkg/ast"
)

// render prints an expression (or an expression statement) back as a
// fully-parenthesised string, so precedence tests can assert shape
// without deep type-asserting each node by hand.
func render(s ast.Statement) string {
	stmt, ok := s.(*ast.ExpressionStatement)
	if !ok {
		return fmt.Sprintf("<%T>", s)
	}
	return renderExpr(stmt.Expression)
}

func renderExpr(e ast.Expression) string {
	switch n := e.(type) {
	case *ast.Literal:
		return fmt.Sprintf("%v", n.Value)
	case *ast.Variable:
		return n.Name
	case *ast.Unary:
		return fmt.Sprintf("(%s%s)", n.Operator, renderExpr(n.Expression))
	case *ast.Binary:
		return fmt.Sprintf("(%s %s %s)", renderExpr(n.Left), n.Operator, renderExpr(n.Right))
	case *ast.Assignment:
		return fmt.Sprintf("(%s = %s)", renderExpr(n.Target), renderExpr(n.Value))
	case *ast.Group:
		return renderExpr(n.Expression)
	default:
		return fmt.Sprintf("<%T>", e)
	}
}

func TestOperatorPrecedenceMatrix(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"1 + 2 + 3", "((1 + 2) + 3)"},
		{"1 + 2 * 3", "(1 + (2 * 3))"},
		{"1 < 2 == 3 < 4", "((1 < 2) == (3 < 4))"},
		{"a && b || c", "((a && b) || c)"},
		{"a || b && c", "(a || (b && c))"},
		{"a ?? b || c", "(a ?? (b || c))"},
		{"a >> b ?? c", "(a >> (b ?? c))"},
		{"-a + b", "((-a) + b)"},
		{"!a && b", "((!a) && b)"},
		{"a = b = c", "(a = (b = c))"},
	}

	for _, tt := range tests {
		program := parseProgram(t, tt.input+"\n")
		got := render(program.Statements[0])
		if got != tt.want {
			t.Errorf("%s: got %s, want %s", tt.input, got, tt.want)
		}
	}
}
