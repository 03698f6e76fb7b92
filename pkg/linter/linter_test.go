package linter

import (
	"testing"

	"github.com/kristofer/bang/pkg/ast"
	"github.com/kristofer/bang/pkg/parser"
)

func parseProgram(t *testing.T, src string) *ast.Program {
	t.Helper()
	p, err := parser.New(src)
	if err != nil {
		t.Fatalf("tokenize error: %v", err)
	}
	program, err := p.Parse()
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	return program
}

func titles(t *testing.T, src string) []string {
	t.Helper()
	program := parseProgram(t, src)
	var got []string
	for _, d := range Run(program) {
		got = append(got, d.Title)
	}
	return got
}

func hasIssue(issues []string, title string) bool {
	for _, i := range issues {
		if i == title {
			return true
		}
	}
	return false
}

func TestNoConstantConditionFiresOnLiteralIf(t *testing.T) {
	issues := titles(t, "if true\n    let x = 1\n")
	if !hasIssue(issues, "NoConstantCondition") {
		t.Fatalf("expected NoConstantCondition, got %v", issues)
	}
}

func TestNoConstantConditionFiresOnLiteralWhile(t *testing.T) {
	issues := titles(t, "while 4 > 5\n    let x = 1\n")
	if !hasIssue(issues, "NoConstantCondition") {
		t.Fatalf("expected NoConstantCondition, got %v", issues)
	}
}

func TestNoConstantConditionSilentOnVariableCondition(t *testing.T) {
	issues := titles(t, "let flag = true\nif flag\n    let x = 1\n")
	if hasIssue(issues, "NoConstantCondition") {
		t.Fatalf("did not expect NoConstantCondition, got %v", issues)
	}
}

func TestNoConstantConditionSilentOnCallCondition(t *testing.T) {
	issues := titles(t, "let ready = () -> bool\n    return true\nif ready()\n    let x = 1\n")
	if hasIssue(issues, "NoConstantCondition") {
		t.Fatalf("did not expect NoConstantCondition, got %v", issues)
	}
}

func TestNoNegativeZeroFires(t *testing.T) {
	issues := titles(t, "let x = -0\n")
	if !hasIssue(issues, "NoNegativeZero") {
		t.Fatalf("expected NoNegativeZero, got %v", issues)
	}
}

func TestNoNegativeZeroSilentOnOtherNegatives(t *testing.T) {
	issues := titles(t, "let x = -5\n")
	if hasIssue(issues, "NoNegativeZero") {
		t.Fatalf("did not expect NoNegativeZero, got %v", issues)
	}
}

func TestNoSelfAssignFires(t *testing.T) {
	issues := titles(t, "let x = 1\nx = x\n")
	if !hasIssue(issues, "NoSelfAssign") {
		t.Fatalf("expected NoSelfAssign, got %v", issues)
	}
}

func TestNoSelfAssignSilentOnCompoundOperator(t *testing.T) {
	issues := titles(t, "let x = 1\nx += 1\n")
	if hasIssue(issues, "NoSelfAssign") {
		t.Fatalf("did not expect NoSelfAssign, got %v", issues)
	}
}

func TestNoUnreachableCodeFires(t *testing.T) {
	issues := titles(t, "let f = () -> number\n    return 1\n    return 2\n")
	if !hasIssue(issues, "NoUnreachableCode") {
		t.Fatalf("expected NoUnreachableCode, got %v", issues)
	}
}

func TestNoUnreachableCodeSilentWithoutReturn(t *testing.T) {
	issues := titles(t, "let f = () -> number\n    let x = 1\n    return x\n")
	if hasIssue(issues, "NoUnreachableCode") {
		t.Fatalf("did not expect NoUnreachableCode, got %v", issues)
	}
}

func TestNoYodaEqualityFires(t *testing.T) {
	issues := titles(t, "let x = 1\nlet y = 5 == x\n")
	if !hasIssue(issues, "NoYodaEquality") {
		t.Fatalf("expected NoYodaEquality, got %v", issues)
	}
}

func TestNoYodaEqualitySilentInNormalOrder(t *testing.T) {
	issues := titles(t, "let x = 1\nlet y = x == 5\n")
	if hasIssue(issues, "NoYodaEquality") {
		t.Fatalf("did not expect NoYodaEquality, got %v", issues)
	}
}

func TestNoSideEffectInIndexFiresOnCall(t *testing.T) {
	issues := titles(t, "let xs = [1, 2]\nlet nextIndex = () -> number\n    return 0\nxs[nextIndex()] = 9\n")
	if !hasIssue(issues, "NoSideEffectInIndex") {
		t.Fatalf("expected NoSideEffectInIndex, got %v", issues)
	}
}

func TestNoSideEffectInIndexSilentOnPlainIndex(t *testing.T) {
	issues := titles(t, "let xs = [1, 2]\nlet i = 0\nxs[i] = 9\n")
	if hasIssue(issues, "NoSideEffectInIndex") {
		t.Fatalf("did not expect NoSideEffectInIndex, got %v", issues)
	}
}

func TestNoUnusedVariablesFiresOnGlobal(t *testing.T) {
	issues := titles(t, "let unused = 5\nlet used = 1\nlet result = used\n")
	if !hasIssue(issues, "NoUnusedVariables") {
		t.Fatalf("expected NoUnusedVariables, got %v", issues)
	}
}

func TestNoUnusedVariablesSilentWithUnderscorePrefix(t *testing.T) {
	issues := titles(t, "let _ignored = 5\n")
	if hasIssue(issues, "NoUnusedVariables") {
		t.Fatalf("did not expect NoUnusedVariables, got %v", issues)
	}
}

func TestNoUnusedVariablesFlagsUnusedParameter(t *testing.T) {
	issues := titles(t, "let f = (used, unused) -> number\n    return used\nlet x = f(1, 2)\n")
	if !hasIssue(issues, "NoUnusedVariables") {
		t.Fatalf("expected NoUnusedVariables for unused parameter, got %v", issues)
	}
}
