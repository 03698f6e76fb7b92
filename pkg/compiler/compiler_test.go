package compiler

import (
	"testing"

	"github.com/kristofer/bang/pkg/parser"
	"github.com/kristofer/bang/pkg/value"
	"github.com/kristofer/bang/pkg/vm"
)

// run parses, compiles, and executes src, returning the script's final
// global bindings.
func run(t *testing.T, src string) map[string]value.Value {
	t.Helper()
	p, err := parser.New(src)
	if err != nil {
		t.Fatalf("tokenize error: %v", err)
	}
	program, err := p.Parse()
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	chunk, err := Compile(program, vm.Empty{})
	if err != nil {
		t.Fatalf("compile error: %v", err)
	}
	machine := vm.New()
	globals, err := machine.Run(chunk)
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

func TestCompileArithmetic(t *testing.T) {
	globals := run(t, "let x = 1 + 2 * 3\n")
	wantNumber(t, globals, "x", 7)
}

func TestCompileStringConcatViaFormat(t *testing.T) {
	globals := run(t, "let name = \"world\"\nlet greeting = `hi ${name}!`\n")
	v := globals["greeting"]
	if !v.IsString() || v.AsString() != "hi world!" {
		t.Fatalf("unexpected greeting: %+v", v)
	}
}

func TestCompileIfElse(t *testing.T) {
	globals := run(t, "let x = 0\nif 1 < 2\n    x = 10\nelse\n    x = 20\n")
	wantNumber(t, globals, "x", 10)
}

func TestCompileWhileLoop(t *testing.T) {
	globals := run(t, "let i = 0\nlet sum = 0\nwhile i < 5\n    sum = sum + i\n    i = i + 1\n")
	wantNumber(t, globals, "sum", 10)
	wantNumber(t, globals, "i", 5)
}

func TestCompileFunctionCallAndClosureUpvalue(t *testing.T) {
	globals := run(t, "let makeAdder = (n) => (x) => x + n\nlet add5 = makeAdder(5)\nlet result = add5(10)\n")
	wantNumber(t, globals, "result", 15)
}

func TestCompileRecursiveFunction(t *testing.T) {
	src := "let fact = (n) -> number\n" +
		"    if n <= 1\n" +
		"        return 1\n" +
		"    return n * fact(n - 1)\n" +
		"let result = fact(5)\n"
	globals := run(t, src)
	wantNumber(t, globals, "result", 120)
}

func TestCompileListDestructuring(t *testing.T) {
	globals := run(t, "let xs = [1, 2, 3]\nlet [a, b, c] = xs\nlet total = a + b + c\n")
	wantNumber(t, globals, "total", 6)
}

func TestCompileListDestructuringTooShortIsRuntimeError(t *testing.T) {
	p, err := parser.New("let [a, b, c] = [1, 2]\n")
	if err != nil {
		t.Fatalf("tokenize error: %v", err)
	}
	program, err := p.Parse()
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	chunk, err := Compile(program, vm.Empty{})
	if err != nil {
		t.Fatalf("compile error: %v", err)
	}
	machine := vm.New()
	if _, err := machine.Run(chunk); err == nil {
		t.Fatal("expected a destructure-length runtime error")
	}
}

func TestCompileIndexAssignment(t *testing.T) {
	globals := run(t, "let xs = [1, 2, 3]\nxs[1] = 99\nlet middle = xs[1]\n")
	wantNumber(t, globals, "middle", 99)
}

func TestCompileCompoundIndexAssignment(t *testing.T) {
	globals := run(t, "let xs = [1, 2, 3]\nxs[0] += 10\nlet first = xs[0]\n")
	wantNumber(t, globals, "first", 11)
}

func TestCompileShortCircuitAnd(t *testing.T) {
	src := "let calls = 0\nlet bump = () -> bool\n    calls = calls + 1\n    return true\nlet result = false && bump()\n"
	globals := run(t, src)
	wantNumber(t, globals, "calls", 0)
	v := globals["result"]
	if v.IsTruthy() {
		t.Fatalf("expected falsy result, got %+v", v)
	}
}

func TestCompileShortCircuitOr(t *testing.T) {
	src := "let calls = 0\nlet bump = () -> bool\n    calls = calls + 1\n    return true\nlet result = true || bump()\n"
	globals := run(t, src)
	wantNumber(t, globals, "calls", 0)
	v := globals["result"]
	if !v.IsTruthy() {
		t.Fatalf("expected truthy result, got %+v", v)
	}
}

func TestCompileNullishCoalescing(t *testing.T) {
	globals := run(t, "let x = null ?? 5\nlet y = 3 ?? 5\n")
	wantNumber(t, globals, "x", 5)
	wantNumber(t, globals, "y", 3)
}

func TestCompilePipelineOperator(t *testing.T) {
	globals := run(t, "let double = (x) => x * 2\nlet result = 10 >> double\n")
	wantNumber(t, globals, "result", 20)
}

func TestCompileVariadicOmittedArgumentIsNull(t *testing.T) {
	src := "let describe = (name, extra...) -> any\n" +
		"    if extra == null\n" +
		"        return name\n" +
		"    return extra\n" +
		"let a = describe(\"x\")\n" +
		"let b = describe(\"x\", \"y\")\n"
	globals := run(t, src)
	if globals["a"].AsString() != "x" {
		t.Fatalf("expected name on omitted variadic arg, got %+v", globals["a"])
	}
	if globals["b"].AsString() != "y" {
		t.Fatalf("expected supplied variadic arg, got %+v", globals["b"])
	}
}

func TestCompileModuleAccessUnresolvedIsCompileError(t *testing.T) {
	p, err := parser.New("math.pi\n")
	if err != nil {
		t.Fatalf("tokenize error: %v", err)
	}
	program, err := p.Parse()
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	if _, err := Compile(program, vm.Empty{}); err == nil {
		t.Fatal("expected ImportNotFound from an empty context")
	}
}

func TestCompileNestedBlockScopeDoesNotLeakLocals(t *testing.T) {
	src := "let total = 0\n" +
		"if true\n" +
		"    let inner = 5\n" +
		"    total = inner\n" +
		"total = total + 1\n"
	globals := run(t, src)
	wantNumber(t, globals, "total", 6)
	if _, ok := globals["inner"]; ok {
		t.Fatal("block-scoped local leaked into globals")
	}
}
