// Package vm implements bang's stack-based bytecode virtual machine:
// its operand stack, call-frame stack, arithmetic/comparison/indexing
// semantics, and upvalue lifecycle.
//
// The VM executes a single Chunk (the compiler's sole output — every
// function body in a program lives in one flat instruction stream,
// addressed by instruction index) from a given entry point. Execution
// is single-threaded and cooperative-free: no opcode suspends, native
// functions run synchronously, and cancellation is external (the
// caller simply stops calling Run). Multiple independent VMs may
// run on separate goroutines so long as they don't share a Chunk while
// one of them is executing it.
package vm

import (
	"github.com/kristofer/bang/pkg/bytecode"
	"github.com/kristofer/bang/pkg/value"
)

const defaultMaxFrames = 256

// Context is the host boundary: it resolves `from M import [...]` at
// compile time (GetValue) and seeds the VM's globals before execution
// (DefineGlobals). The core ships only Empty; a real module system
// (math/string/fs/list functions) is a host concern.
type Context interface {
	GetValue(module, symbol string) (value.Value, bool)
	DefineGlobals(vm *VM)
}

// Empty is a Context that resolves nothing.
type Empty struct{}

func (Empty) GetValue(_, _ string) (value.Value, bool) { return value.Null, false }
func (Empty) DefineGlobals(_ *VM)                      {}

// frame is one call's activation record. Frames share the VM's single
// Chunk; only the instruction pointer and stack base differ.
type frame struct {
	ip     int
	base   int         // stack index of the callee slot itself
	callee value.Value // the Closure (or Null at the top-level frame)
	name   string
}

// VM is a stack machine over one Chunk at a time. A VM is reusable
// across Run calls; globals persist, the operand stack and call
// frames are reset at the start of each Run.
type VM struct {
	chunk     *bytecode.Chunk
	stack     []value.Value
	sp        int
	frames    []frame
	globals   map[string]value.Value
	open      []*value.Upvalue
	maxFrames int
	ctx       Context
	debugger  *Debugger
}

// Option configures a VM at construction time.
type Option func(*VM)

// WithMaxFrames overrides the call-depth bound (default 256); a
// program that would exceed it instead faults with StackOverflow.
func WithMaxFrames(n int) Option {
	return func(vm *VM) { vm.maxFrames = n }
}

// WithContext installs the host Context used to seed globals before
// the first Run. Without this option the VM behaves as if given Empty.
func WithContext(ctx Context) Option {
	return func(vm *VM) { vm.ctx = ctx }
}

// WithDebugger attaches an interactive debugger that the run loop
// consults before every instruction.
func WithDebugger(d *Debugger) Option {
	return func(vm *VM) { vm.debugger = d }
}

// New builds a VM ready to Run compiled chunks.
func New(opts ...Option) *VM {
	vm := &VM{
		stack:     make([]value.Value, 0, 256),
		globals:   make(map[string]value.Value),
		maxFrames: defaultMaxFrames,
	}
	for _, opt := range opts {
		opt(vm)
	}
	if vm.ctx != nil {
		vm.ctx.DefineGlobals(vm)
	}
	return vm
}

// DefineGlobal installs a native or constant value as a global,
// retaining it. Intended for use from Context.DefineGlobals.
func (vm *VM) DefineGlobal(name string, v value.Value) {
	v.Retain()
	vm.globals[name] = v
}

// Global looks up a global by name, e.g. for a host to inspect the
// result of a Run.
func (vm *VM) Global(name string) (value.Value, bool) {
	v, ok := vm.globals[name]
	return v, ok
}

// Globals returns the full globals map built by the most recent Run,
// keyed by name. Callers must not mutate it.
func (vm *VM) Globals() map[string]value.Value {
	return vm.globals
}

func (vm *VM) push(v value.Value) {
	if vm.sp < len(vm.stack) {
		vm.stack[vm.sp] = v
	} else {
		vm.stack = append(vm.stack, v)
	}
	vm.sp++
}

func (vm *VM) pop() value.Value {
	vm.sp--
	v := vm.stack[vm.sp]
	vm.stack[vm.sp] = value.Null
	return v
}

func (vm *VM) peek(distance int) value.Value {
	return vm.stack[vm.sp-1-distance]
}

func (vm *VM) currentFrame() *frame {
	return &vm.frames[len(vm.frames)-1]
}

// Run executes chunk from instruction 0 and returns the globals map
// built along the way, or the RuntimeError that faulted execution. A
// faulted VM must not be resumed; its globals and top error remain
// available for inspection but Run should not be called again on it
// with the same chunk.
func (vm *VM) Run(chunk *bytecode.Chunk) (map[string]value.Value, error) {
	vm.chunk = chunk
	vm.sp = 0
	vm.frames = append(vm.frames[:0], frame{ip: 0, base: 0, callee: value.Null, name: "script"})
	vm.open = vm.open[:0]

	if err := vm.run(); err != nil {
		return vm.globals, err
	}
	return vm.globals, nil
}

// run is the fetch-decode-execute loop. It returns nil once the
// bottom (script) frame returns, or the RuntimeError that faulted.
func (vm *VM) run() error {
	for {
		f := vm.currentFrame()
		if f.ip >= len(vm.chunk.Instructions) {
			return nil
		}

		if vm.debugger != nil && vm.debugger.ShouldPause(f.ip) {
			if !vm.debugger.Prompt(vm) {
				return vm.typeError("debugging session aborted")
			}
		}

		ins := vm.chunk.Instructions[f.ip]
		f.ip++

		switch ins.Op {
		case bytecode.OpConstant:
			c := vm.chunk.Constants[ins.Operand]
			c.Retain()
			vm.push(c)

		case bytecode.OpNull:
			vm.push(value.Null)
		case bytecode.OpTrue:
			vm.push(value.True)
		case bytecode.OpFalse:
			vm.push(value.False)

		case bytecode.OpPop:
			vm.pop().Release()
		case bytecode.OpDup:
			top := vm.peek(0)
			top.Retain()
			vm.push(top)

		case bytecode.OpAdd:
			if err := vm.add(); err != nil {
				return err
			}
		case bytecode.OpSubtract:
			if err := vm.numericBinary(func(a, b float64) float64 { return a - b }); err != nil {
				return err
			}
		case bytecode.OpMultiply:
			if err := vm.numericBinary(func(a, b float64) float64 { return a * b }); err != nil {
				return err
			}
		case bytecode.OpDivide:
			if err := vm.numericBinary(func(a, b float64) float64 { return a / b }); err != nil {
				return err
			}
		case bytecode.OpNegate:
			a := vm.pop()
			if !a.IsNumber() {
				return vm.typeError("cannot negate a %s", a.TypeName())
			}
			vm.push(value.Number(-a.AsNumber()))

		case bytecode.OpEqual:
			b, a := vm.pop(), vm.pop()
			vm.push(value.Bool(a.Equal(b)))
			a.Release()
			b.Release()
		case bytecode.OpNotEqual:
			b, a := vm.pop(), vm.pop()
			vm.push(value.Bool(!a.Equal(b)))
			a.Release()
			b.Release()
		case bytecode.OpLess:
			if err := vm.ordering(func(c int) bool { return c < 0 }); err != nil {
				return err
			}
		case bytecode.OpGreater:
			if err := vm.ordering(func(c int) bool { return c > 0 }); err != nil {
				return err
			}
		case bytecode.OpLessEqual:
			if err := vm.ordering(func(c int) bool { return c <= 0 }); err != nil {
				return err
			}
		case bytecode.OpGreaterEqual:
			if err := vm.ordering(func(c int) bool { return c >= 0 }); err != nil {
				return err
			}

		case bytecode.OpNot:
			a := vm.pop()
			vm.push(value.Bool(!a.IsTruthy()))
			a.Release()

		case bytecode.OpGetLocal:
			v := vm.stack[f.base+ins.Operand]
			v.Retain()
			vm.push(v)
		case bytecode.OpSetLocal:
			top := vm.peek(0)
			top.Retain()
			idx := f.base + ins.Operand
			vm.stack[idx].Release()
			vm.stack[idx] = top

		case bytecode.OpGetGlobal:
			name := vm.chunk.Constants[ins.Operand].AsString()
			v, ok := vm.globals[name]
			if !ok {
				return vm.undefinedVariable(name)
			}
			v.Retain()
			vm.push(v)
		case bytecode.OpSetGlobal:
			name := vm.chunk.Constants[ins.Operand].AsString()
			if _, ok := vm.globals[name]; !ok {
				return vm.undefinedVariable(name)
			}
			top := vm.peek(0)
			top.Retain()
			vm.globals[name].Release()
			vm.globals[name] = top
		case bytecode.OpDefineGlobal, bytecode.OpImport:
			name := vm.chunk.Constants[ins.Operand].AsString()
			v := vm.pop()
			vm.globals[name] = v

		case bytecode.OpGetUpvalue:
			up := f.callee.ClosureUpvalue(ins.Operand)
			v := vm.upvalueGet(up)
			v.Retain()
			vm.push(v)
		case bytecode.OpSetUpvalue:
			up := f.callee.ClosureUpvalue(ins.Operand)
			top := vm.peek(0)
			vm.upvalueSet(up, top)
		case bytecode.OpCloseUpvalue:
			vm.closeUpvalues(f.base + ins.Operand)
			vm.pop().Release()

		case bytecode.OpJump:
			f.ip = ins.Operand
		case bytecode.OpJumpIfFalse:
			if !vm.peek(0).IsTruthy() {
				f.ip = ins.Operand
			}
		case bytecode.OpJumpIfNull:
			if vm.peek(0).IsNull() {
				f.ip = ins.Operand
			}
		case bytecode.OpLoop:
			f.ip = ins.Operand

		case bytecode.OpCall:
			if err := vm.call(ins.Operand); err != nil {
				return err
			}
		case bytecode.OpReturn:
			if done := vm.doReturn(); done {
				return nil
			}

		case bytecode.OpList:
			n := ins.Operand
			items := make([]value.Value, n)
			for i := n - 1; i >= 0; i-- {
				items[i] = vm.pop()
			}
			vm.push(value.List(items))

		case bytecode.OpIndex:
			index := vm.pop()
			receiver := vm.pop()
			result, res := receiver.GetProperty(index)
			index.Release()
			switch res {
			case value.Found:
				vm.push(result)
			case value.NotFound:
				receiver.Release()
				return vm.indexOutOfRange(receiver)
			default:
				receiver.Release()
				return vm.indexNotSupported(receiver)
			}
			receiver.Release()

		case bytecode.OpIndexSet:
			newValue := vm.pop()
			index := vm.pop()
			receiver := vm.pop()
			switch receiver.SetProperty(index, newValue) {
			case value.Set:
				vm.push(newValue)
			case value.SetNotFound:
				index.Release()
				receiver.Release()
				return vm.indexOutOfRange(receiver)
			default:
				index.Release()
				receiver.Release()
				return vm.indexNotSupported(receiver)
			}
			index.Release()
			receiver.Release()

		case bytecode.OpCheckLength:
			list := vm.peek(0)
			if !list.IsList() || len(*list.AsList()) < ins.Operand {
				got := 0
				if list.IsList() {
					got = len(*list.AsList())
				}
				return vm.destructureError(ins.Operand, got)
			}

		case bytecode.OpClosure:
			fn := vm.chunk.Constants[ins.Operand]
			descriptors := fn.FunctionUpvalues()
			upvalues := make([]*value.Upvalue, len(descriptors))
			for i, d := range descriptors {
				if d.IsLocal {
					upvalues[i] = vm.captureUpvalue(f.base + int(d.Index))
				} else {
					upvalues[i] = f.callee.ClosureUpvalue(int(d.Index))
				}
			}
			vm.push(value.NewClosure(fn, upvalues))

		case bytecode.OpConcat:
			n := ins.Operand
			parts := make([]value.Value, n)
			for i := n - 1; i >= 0; i-- {
				parts[i] = vm.pop()
			}
			var b []byte
			for _, p := range parts {
				b = append(b, p.String()...)
				p.Release()
			}
			vm.push(value.String(string(b)))

		default:
			return vm.typeError("unknown opcode %v", ins.Op)
		}
	}
}

func (vm *VM) add() error {
	b, a := vm.pop(), vm.pop()
	switch {
	case a.IsNumber() && b.IsNumber():
		vm.push(value.Number(a.AsNumber() + b.AsNumber()))
	case a.IsString() && b.IsString():
		vm.push(value.String(a.AsString() + b.AsString()))
	default:
		a.Release()
		b.Release()
		return vm.typeError("cannot add %s and %s", a.TypeName(), b.TypeName())
	}
	a.Release()
	b.Release()
	return nil
}

func (vm *VM) numericBinary(op func(a, b float64) float64) error {
	b, a := vm.pop(), vm.pop()
	if !a.IsNumber() || !b.IsNumber() {
		t1, t2 := a.TypeName(), b.TypeName()
		a.Release()
		b.Release()
		return vm.typeError("expected two numbers, got %s and %s", t1, t2)
	}
	vm.push(value.Number(op(a.AsNumber(), b.AsNumber())))
	return nil
}

// ordering implements <,>,<=,>= : two numbers, or two strings compared
// lexicographically; anything else is a TypeMismatch.
func (vm *VM) ordering(satisfies func(cmp int) bool) error {
	b, a := vm.pop(), vm.pop()
	defer func() { a.Release(); b.Release() }()

	switch {
	case a.IsNumber() && b.IsNumber():
		av, bv := a.AsNumber(), b.AsNumber()
		cmp := 0
		switch {
		case av < bv:
			cmp = -1
		case av > bv:
			cmp = 1
		}
		vm.push(value.Bool(satisfies(cmp)))
		return nil
	case a.IsString() && b.IsString():
		as, bs := a.AsString(), b.AsString()
		cmp := 0
		switch {
		case as < bs:
			cmp = -1
		case as > bs:
			cmp = 1
		}
		vm.push(value.Bool(satisfies(cmp)))
		return nil
	default:
		return vm.typeError("cannot order %s and %s", a.TypeName(), b.TypeName())
	}
}

// call implements OP_CALL argc: the callee sits argc slots below the
// top of stack, with its arguments above it.
func (vm *VM) call(argc int) error {
	callee := vm.peek(argc)
	base := vm.sp - argc - 1

	switch {
	case callee.IsNative():
		if !callee.NativeArity().Check(uint8(argc)) {
			return vm.arityError(argc)
		}
		args := make([]value.Value, argc)
		copy(args, vm.stack[base+1:vm.sp])
		result, err := callee.CallNative(args)
		for _, a := range args {
			a.Release()
		}
		if err != nil {
			return vm.typeError("%s", err)
		}
		callee.Release()
		vm.sp = base
		vm.push(result)
		return nil

	case callee.IsClosure():
		if !callee.ClosureArity().Check(uint8(argc)) {
			return vm.arityError(argc)
		}
		if len(vm.frames) >= vm.maxFrames {
			return vm.stackOverflow()
		}
		vm.padVariadic(callee.ClosureArity(), argc)
		vm.frames = append(vm.frames, frame{
			ip:     callee.ClosureStart(),
			base:   base,
			callee: callee,
			name:   callee.ClosureName(),
		})
		return nil

	case callee.IsFunction():
		if !callee.FunctionArity().Check(uint8(argc)) {
			return vm.arityError(argc)
		}
		if len(vm.frames) >= vm.maxFrames {
			return vm.stackOverflow()
		}
		vm.padVariadic(callee.FunctionArity(), argc)
		vm.frames = append(vm.frames, frame{
			ip:     callee.FunctionStart(),
			base:   base,
			callee: value.Null,
			name:   callee.FunctionName(),
		})
		return nil

	default:
		return vm.typeError("%s is not callable", callee.TypeName())
	}
}

// padVariadic pushes null for each declared parameter slot the caller
// left unfilled. A variadic arity only guarantees at least Count-1
// arguments were supplied (Arity.Check); the trailing parameter slot
// itself is only physically present on the stack when the caller
// actually wrote it, so a caller that omits it gets null bound to its
// name rather than the compiler's GET_LOCAL reading stale stack data.
func (vm *VM) padVariadic(arity value.Arity, argc int) {
	if !arity.Variadic {
		return
	}
	for i := argc; i < int(arity.Count); i++ {
		vm.push(value.Null)
	}
}

// doReturn pops the current frame, closing any upvalues that captured
// its locals and leaving the returned value on the caller's stack. It
// reports true once the bottom (script) frame itself returns.
func (vm *VM) doReturn() bool {
	f := vm.currentFrame()

	var result value.Value
	if vm.sp > f.base+1 {
		result = vm.pop()
	} else {
		result = value.Null
	}

	vm.closeUpvalues(f.base)
	for i := f.base; i < vm.sp; i++ {
		vm.stack[i].Release()
	}
	vm.sp = f.base

	bottom := len(vm.frames) == 1
	vm.frames = vm.frames[:len(vm.frames)-1]

	if bottom {
		return true
	}
	vm.push(result)
	return false
}

// captureUpvalue returns the open upvalue already tracking stackIndex,
// or creates one. Upvalues are kept in a flat, unordered slice;
// closeUpvalues only needs to close every upvalue at or above a
// threshold, which a linear scan satisfies without needing the list
// sorted.
func (vm *VM) captureUpvalue(stackIndex int) *value.Upvalue {
	for _, up := range vm.open {
		if !up.IsClosed() && up.StackIndex == stackIndex {
			return up
		}
	}
	up := value.NewOpenUpvalue(stackIndex)
	vm.open = append(vm.open, up)
	return up
}

// closeUpvalues promotes every still-open upvalue at or above
// threshold to closed (heap) storage, severing its link to the stack
// slot that's about to be destroyed.
func (vm *VM) closeUpvalues(threshold int) {
	kept := vm.open[:0]
	for _, up := range vm.open {
		if !up.IsClosed() && up.StackIndex >= threshold {
			up.Close(vm.stack[up.StackIndex])
		} else {
			kept = append(kept, up)
		}
	}
	vm.open = kept
}

func (vm *VM) upvalueGet(up *value.Upvalue) value.Value {
	if up.IsClosed() {
		return up.Closed
	}
	return vm.stack[up.StackIndex]
}

func (vm *VM) upvalueSet(up *value.Upvalue, v value.Value) {
	v.Retain()
	if up.IsClosed() {
		up.Closed.Release()
		up.Closed = v
		return
	}
	vm.stack[up.StackIndex].Release()
	vm.stack[up.StackIndex] = v
}

func (vm *VM) stackTrace() []StackFrame {
	trace := make([]StackFrame, 0, len(vm.frames))
	for _, f := range vm.frames {
		trace = append(trace, StackFrame{
			Name:       f.name,
			SourceLine: vm.chunk.LineFor(f.ip - 1),
		})
	}
	return trace
}

func (vm *VM) typeError(format string, args ...interface{}) *RuntimeError {
	return newRuntimeError(TypeMismatch, vm.stackTrace(), format, args...)
}

func (vm *VM) undefinedVariable(name string) *RuntimeError {
	return newRuntimeError(UndefinedVariable, vm.stackTrace(), "undefined variable %q", name)
}

func (vm *VM) arityError(got int) *RuntimeError {
	return newRuntimeError(ArityMismatch, vm.stackTrace(), "wrong number of arguments: got %d", got)
}

func (vm *VM) indexOutOfRange(receiver value.Value) *RuntimeError {
	return newRuntimeError(IndexOutOfRange, vm.stackTrace(), "index out of range for %s", receiver.TypeName())
}

func (vm *VM) indexNotSupported(receiver value.Value) *RuntimeError {
	return newRuntimeError(IndexNotSupported, vm.stackTrace(), "%s does not support indexing", receiver.TypeName())
}

func (vm *VM) stackOverflow() *RuntimeError {
	return newRuntimeError(StackOverflow, vm.stackTrace(), "call stack exceeded %d frames", vm.maxFrames)
}

func (vm *VM) destructureError(want, got int) *RuntimeError {
	return newRuntimeError(DestructureLength, vm.stackTrace(), "expected at least %d elements, got %d", want, got)
}

// Chunk returns the chunk currently executing, for debugger use.
func (vm *VM) Chunk() *bytecode.Chunk { return vm.chunk }

// StackSlots returns the live operand stack, top last, for debugger
// and disassembly use. Callers must not mutate the returned slice.
func (vm *VM) StackSlots() []value.Value { return vm.stack[:vm.sp] }

// FrameNames returns the call-frame stack's names, outermost first.
func (vm *VM) FrameNames() []string {
	names := make([]string, len(vm.frames))
	for i, f := range vm.frames {
		names[i] = f.name
	}
	return names
}
