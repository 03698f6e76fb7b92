package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/kristofer/bang/internal/logging"
	"github.com/kristofer/bang/internal/stdlib"
	"github.com/kristofer/bang/pkg/bang"
	"github.com/kristofer/bang/pkg/compiler"
	"github.com/kristofer/bang/pkg/linter"
	"github.com/kristofer/bang/pkg/parser"
	"github.com/kristofer/bang/pkg/vm"
)

const version = "0.1.0"

var log = logging.New(os.Stdout)

func main() {
	if len(os.Args) < 2 {
		runREPL()
		return
	}

	switch os.Args[1] {
	case "version", "-v", "--version":
		fmt.Printf("bang version %s\n", version)
	case "help", "-h", "--help":
		printUsage()
	case "repl":
		runREPL()
	case "run":
		if len(os.Args) < 3 {
			fmt.Println("Error: no file specified")
			printUsage()
			os.Exit(1)
		}
		runFile(os.Args[2])
	case "disassemble", "disasm":
		if len(os.Args) < 3 {
			fmt.Println("Error: no file specified")
			fmt.Println("\nUsage: bang disassemble <file>")
			os.Exit(1)
		}
		disassembleFile(os.Args[2])
	case "debug":
		if len(os.Args) < 3 {
			fmt.Println("Error: no file specified")
			fmt.Println("\nUsage: bang debug <file>")
			os.Exit(1)
		}
		debugFile(os.Args[2])
	default:
		runFile(os.Args[1])
	}
}

func printUsage() {
	fmt.Println("bang - an expression-oriented scripting language")
	fmt.Println("\nUsage:")
	fmt.Println("  bang                    Start interactive REPL")
	fmt.Println("  bang [file]             Run a source file")
	fmt.Println("  bang run [file]         Run a source file")
	fmt.Println("  bang disassemble [file] Print compiled bytecode for a source file")
	fmt.Println("  bang debug [file]       Run a source file paused at instruction 0")
	fmt.Println("  bang repl               Start interactive REPL")
	fmt.Println("  bang version            Show version")
	fmt.Println("  bang help               Show this help")
}

func runFile(filename string) {
	src, err := os.ReadFile(filename)
	if err != nil {
		log.CompileErrorf("reading %s: %v", filename, err)
		os.Exit(1)
	}

	ctx := stdlib.Context{}
	// A program that fails to parse will fail again, more informatively,
	// at compile time below, so lint errors here are skipped rather than
	// duplicated.
	if issues, err := bang.Lint(string(src)); err == nil {
		for _, d := range issues {
			log.Infof("lint: %s: %s", d.Title, d.Message)
		}
	}

	if _, err := bang.Run(string(src), ctx); err != nil {
		log.RuntimeErrorf("%v", err)
		os.Exit(1)
	}
}

func disassembleFile(filename string) {
	src, err := os.ReadFile(filename)
	if err != nil {
		log.CompileErrorf("reading %s: %v", filename, err)
		os.Exit(1)
	}

	chunk, err := bang.Compile(string(src), stdlib.Context{})
	if err != nil {
		log.CompileErrorf("%v", err)
		os.Exit(1)
	}
	fmt.Println(chunk.Disassemble(filename))
}

// debugFile compiles a source file and runs it paused at the first
// instruction, dropping into the interactive debugger prompt so a user
// can step, set breakpoints, and inspect the stack/frames/globals.
func debugFile(filename string) {
	src, err := os.ReadFile(filename)
	if err != nil {
		log.CompileErrorf("reading %s: %v", filename, err)
		os.Exit(1)
	}

	chunk, err := bang.Compile(string(src), stdlib.Context{})
	if err != nil {
		log.CompileErrorf("%v", err)
		os.Exit(1)
	}

	debugger := vm.NewDebugger()
	debugger.AddBreakpoint(0)
	machine := vm.New(vm.WithContext(stdlib.Context{}), vm.WithDebugger(debugger))
	if _, err := machine.Run(chunk); err != nil {
		log.RuntimeErrorf("%v", err)
		os.Exit(1)
	}
}

// runREPL reads one line at a time, compiling and running each
// against a persisted VM so `let` bindings from earlier lines stay in
// scope. Each line is parsed and compiled standalone (pkg/compiler has
// no incremental-compile entry point), but the VM's global table
// carries forward across Run calls, so the net effect is the same as
// an incrementally extended session. A faulted VM must not be reused
// (per vm.Run's contract), so a runtime error rebuilds a fresh VM
// seeded from the faulted one's last-known globals.
func runREPL() {
	log.Infof("bang %s -- Ctrl-D to exit", version)
	machine := vm.New(vm.WithContext(stdlib.Context{}))

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			fmt.Println()
			return
		}
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		if faulted := evalREPLLine(machine, line); faulted {
			machine = rebuild(machine)
		}
	}
}

func rebuild(faulted *vm.VM) *vm.VM {
	fresh := vm.New(vm.WithContext(stdlib.Context{}))
	for name, v := range faulted.Globals() {
		fresh.DefineGlobal(name, v)
	}
	return fresh
}

func evalREPLLine(machine *vm.VM, line string) bool {
	p, err := parser.New(line)
	if err != nil {
		log.CompileErrorf("%v", err)
		return false
	}
	program, err := p.Parse()
	if err != nil {
		log.CompileErrorf("%v", err)
		return false
	}
	for _, d := range linter.Run(program) {
		log.Infof("lint: %s: %s", d.Title, d.Message)
	}

	chunk, err := compiler.Compile(program, stdlib.Context{})
	if err != nil {
		log.CompileErrorf("%v", err)
		return false
	}

	if _, err := machine.Run(chunk); err != nil {
		log.RuntimeErrorf("%v", err)
		return true
	}
	return false
}
