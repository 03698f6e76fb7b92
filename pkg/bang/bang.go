// Package bang is the one-call embedding surface over the pipeline
// the rest of this module builds piecewise: lex, parse, lint, compile,
// run. A host that just wants to execute a source string does not
// need to know the pipeline has five stages; cmd/bang and anything
// else embedding the interpreter can use this package instead of
// wiring pkg/lexer through pkg/vm by hand.
package bang

import (
	"github.com/pkg/errors"

	"github.com/kristofer/bang/pkg/ast"
	"github.com/kristofer/bang/pkg/bytecode"
	"github.com/kristofer/bang/pkg/compiler"
	"github.com/kristofer/bang/pkg/diagnostic"
	"github.com/kristofer/bang/pkg/linter"
	"github.com/kristofer/bang/pkg/parser"
	"github.com/kristofer/bang/pkg/value"
	"github.com/kristofer/bang/pkg/vm"
)

// Parse tokenizes and parses src, returning diagnostics a caller can
// surface without running anything.
func Parse(src string) (*ast.Program, error) {
	p, err := parser.New(src)
	if err != nil {
		return nil, errors.Wrap(err, "tokenize")
	}
	program, err := p.Parse()
	if err != nil {
		return nil, errors.Wrap(err, "parse")
	}
	return program, nil
}

// Lint parses src and runs the static checks in pkg/linter against it.
// Lint issues are advisory: a program with issues still compiles and
// runs.
func Lint(src string) ([]diagnostic.Diagnostic, error) {
	p, err := parser.New(src)
	if err != nil {
		return nil, errors.Wrap(err, "tokenize")
	}
	program, err := p.Parse()
	if err != nil {
		return nil, errors.Wrap(err, "parse")
	}
	return linter.Run(program), nil
}

// Compile parses and compiles src against ctx, returning the resulting
// chunk without executing it. A nil ctx compiles against vm.Empty{},
// so `from module import [...]` and `Module.symbol` access always fail
// to resolve.
func Compile(src string, ctx vm.Context) (*bytecode.Chunk, error) {
	if ctx == nil {
		ctx = vm.Empty{}
	}
	p, err := parser.New(src)
	if err != nil {
		return nil, errors.Wrap(err, "tokenize")
	}
	program, err := p.Parse()
	if err != nil {
		return nil, errors.Wrap(err, "parse")
	}
	chunk, err := compiler.Compile(program, ctx)
	if err != nil {
		return nil, errors.Wrap(err, "compile")
	}
	return chunk, nil
}

// Run parses, compiles, and executes src against ctx, returning the
// final global bindings or the first runtime error encountered.
func Run(src string, ctx vm.Context) (map[string]value.Value, error) {
	chunk, err := Compile(src, ctx)
	if err != nil {
		return nil, err
	}
	opts := []vm.Option{}
	if ctx != nil {
		opts = append(opts, vm.WithContext(ctx))
	}
	machine := vm.New(opts...)
	return machine.Run(chunk)
}
