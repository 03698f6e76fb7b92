package vm_test

import (
	"testing"

	"github.com/kristofer/bang/pkg/compiler"
	"github.com/kristofer/bang/pkg/parser"
	"github.com/kristofer/bang/pkg/value"
	"github.com/kristofer/bang/pkg/vm"
)

func compileAndRun(t *testing.T, src string, opts ...vm.Option) (map[string]value.Value, error) {
	t.Helper()
	p, err := parser.New(src)
	if err != nil {
		t.Fatalf("tokenize error: %v", err)
	}
	program, err := p.Parse()
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	chunk, err := compiler.Compile(program, vm.Empty{})
	if err != nil {
		t.Fatalf("compile error: %v", err)
	}
	return vm.New(opts...).Run(chunk)
}

func run(t *testing.T, src string) map[string]value.Value {
	t.Helper()
	globals, err := compileAndRun(t, src)
	if err != nil {
		t.Fatalf("run error: %v", err)
	}
	return globals
}

func wantNumber(t *testing.T, globals map[string]value.Value, name string, want float64) {
	t.Helper()
	v, ok := globals[name]
	if !ok {
		t.Fatalf("global %q not set", name)
	}
	if !v.IsNumber() || v.AsNumber() != want {
		t.Fatalf("global %q: got %v, want %v", name, v, want)
	}
}

func wantBool(t *testing.T, globals map[string]value.Value, name string, want bool) {
	t.Helper()
	v, ok := globals[name]
	if !ok {
		t.Fatalf("global %q not set", name)
	}
	if !v.IsBool() || v.AsBool() != want {
		t.Fatalf("global %q: got %v, want %v", name, v, want)
	}
}

// Scenario 1: a while loop mutating globals through compound assignment.
func TestScenarioWhileLoopAccumulator(t *testing.T) {
	globals := run(t, "let result = 0\nlet i = 0\n"+
		"while i < 10\n"+
		"    result += 11\n"+
		"    result *= 10\n"+
		"    result -= (result / 100) * 99\n"+
		"    i += 1\n")
	wantNumber(t, globals, "i", 10)
	wantNumber(t, globals, "result", 110)
}

// Scenario 2: a closure that captures and mutates an enclosing local.
func TestScenarioClosureCaptureAndSet(t *testing.T) {
	globals := run(t, "let outer = () -> number\n"+
		"    let a = 77\n"+
		"    let b = () => a = 66\n"+
		"    b()\n"+
		"    return a\n"+
		"let x = outer()\n")
	wantNumber(t, globals, "x", 66)
}

// Scenario 3: list destructuring, with extras ignored and too-short lists
// faulting with DestructureLength.
func TestScenarioListDestructuringWithExtras(t *testing.T) {
	globals := run(t, "let [a, b, c] = [5, 6, 7, 8, 9]\n")
	wantNumber(t, globals, "a", 5)
	wantNumber(t, globals, "b", 6)
	wantNumber(t, globals, "c", 7)
}

func TestScenarioListDestructuringTooShort(t *testing.T) {
	_, err := compileAndRun(t, "let [a, b, c] = [1, 2]\n")
	if err == nil {
		t.Fatalf("expected a runtime error")
	}
	rtErr, ok := err.(*vm.RuntimeError)
	if !ok {
		t.Fatalf("expected *vm.RuntimeError, got %T", err)
	}
	if rtErr.Kind != vm.DestructureLength {
		t.Fatalf("expected DestructureLength, got %v", rtErr.Kind)
	}
}

// Scenario 4: negative and fractional string indexing, and out-of-range
// indexing faulting with IndexOutOfRange.
func TestScenarioStringIndexing(t *testing.T) {
	globals := run(t, "let a = 'hello'[-1]\nlet b = 'hello'[1.5]\n")
	if v := globals["a"]; !v.IsString() || v.AsString() != "o" {
		t.Fatalf("a: got %v, want \"o\"", v)
	}
	if v := globals["b"]; !v.IsString() || v.AsString() != "l" {
		t.Fatalf("b: got %v, want \"l\"", v)
	}
}

func TestScenarioStringIndexOutOfRange(t *testing.T) {
	_, err := compileAndRun(t, "let a = 'hello'[77]\n")
	if err == nil {
		t.Fatalf("expected a runtime error")
	}
	rtErr, ok := err.(*vm.RuntimeError)
	if !ok {
		t.Fatalf("expected *vm.RuntimeError, got %T", err)
	}
	if rtErr.Kind != vm.IndexOutOfRange {
		t.Fatalf("expected IndexOutOfRange, got %v", rtErr.Kind)
	}
}

// Scenario 5: `or` short-circuits before evaluating its right operand
// once the left is truthy.
func TestScenarioShortCircuitOr(t *testing.T) {
	globals := run(t, "let a = 'x'\nlet b = 'x'\n"+
		"(a = false) or (b = true) or (a = 'bad')\n")
	wantBool(t, globals, "a", false)
	wantBool(t, globals, "b", true)
}

// Scenario 6: nested format strings splice correctly.
func TestScenarioNestedFormatString(t *testing.T) {
	globals := run(t, "let greeting = `hello ${`world ${'nested'}`}`\n")
	v := globals["greeting"]
	if !v.IsString() || v.AsString() != "hello world nested" {
		t.Fatalf("greeting: got %v, want \"hello world nested\"", v)
	}
}

// Invariant: arity checking rejects wrong argument counts for a
// non-variadic function, and accepts count-1 or count for a variadic
// one.
func TestArityMismatchOnNonVariadicFunction(t *testing.T) {
	_, err := compileAndRun(t, "let f = (a, b) -> number\n    return a + b\nlet x = f(1)\n")
	if err == nil {
		t.Fatalf("expected a runtime error")
	}
	rtErr, ok := err.(*vm.RuntimeError)
	if !ok {
		t.Fatalf("expected *vm.RuntimeError, got %T", err)
	}
	if rtErr.Kind != vm.ArityMismatch {
		t.Fatalf("expected ArityMismatch, got %v", rtErr.Kind)
	}
}

func TestVariadicAcceptsOmittedTrailingArgument(t *testing.T) {
	globals := run(t, "let describe = (name, extra...) -> any\n"+
		"    if extra == null\n"+
		"        return name\n"+
		"    return extra\n"+
		"let a = describe('x')\n"+
		"let b = describe('x', 'y')\n")
	if v := globals["a"]; !v.IsString() || v.AsString() != "x" {
		t.Fatalf("a: got %v, want \"x\"", v)
	}
	if v := globals["b"]; !v.IsString() || v.AsString() != "y" {
		t.Fatalf("b: got %v, want \"y\"", v)
	}
}

// Invariant: the index expression of a compound index-assignment is
// evaluated exactly once, even though the assignment reads then writes
// through it.
func TestCompoundIndexAssignmentEvaluatesIndexOnce(t *testing.T) {
	globals := run(t, "let calls = 0\n"+
		"let xs = [1, 2, 3]\n"+
		"let nextIndex = () -> number\n"+
		"    calls += 1\n"+
		"    return 0\n"+
		"xs[nextIndex()] += 10\n")
	wantNumber(t, globals, "calls", 1)
}

// Invariant: equality is reflexive on non-NaN values and symmetric
// across pairs of differing kinds.
func TestEqualityReflexiveAndSymmetric(t *testing.T) {
	a := value.Number(3)
	b := value.String("3")
	if !a.Equal(a) {
		t.Fatalf("expected a.Equal(a)")
	}
	if a.Equal(b) || b.Equal(a) {
		t.Fatalf("expected no cross-type equality between %v and %v", a, b)
	}
	c := value.Number(3)
	if !a.Equal(c) || !c.Equal(a) {
		t.Fatalf("expected symmetric equality between %v and %v", a, c)
	}
}
