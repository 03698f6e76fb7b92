// Package bytecode defines the bytecode format the bang compiler emits
// and the bang virtual machine executes.
//
// A Chunk is the unit of compilation: a flat instruction sequence, an
// indexed constant pool (for literals, function objects resolved at
// compile time, and imported names), and a per-instruction line table
// used purely for diagnostics. Instructions are a (Opcode, Operand)
// pair rather than a packed byte stream — addressing is by instruction
// index, not byte offset, which keeps jump targets trivially "at a
// valid opcode boundary" without a separate decode pass, at the cost
// of a slightly larger in-memory representation than a packed encoding
// would use. Jump targets are still bounds-checked against a 16-bit
// limit at compile time (see diagnostic.JumpTooLarge) even though this
// representation never needs that limit to address memory.
//
// Architecture:
//
//   1. Values are pushed onto and popped from the VM's operand stack.
//   2. Most opcodes consume values from the stack and push a result.
//   3. Locals and upvalues live in VM-managed slots; globals live in a
//      by-name map owned by the VM.
//   4. Calls dispatch to a Function, Closure, or NativeFunction value
//      already on the stack below its arguments.
package bytecode

import "github.com/kristofer/bang/pkg/value"

// Opcode identifies a single bytecode operation.
type Opcode byte

const (
	// === Constants & literals ===

	// OpConstant pushes constants[operand] onto the stack.
	OpConstant Opcode = iota
	// OpNull pushes the null value.
	OpNull
	// OpTrue pushes true.
	OpTrue
	// OpFalse pushes false.
	OpFalse

	// === Stack manipulation ===

	// OpPop discards the top of the stack.
	OpPop
	// OpDup duplicates the top of the stack.
	OpDup

	// === Arithmetic ===

	OpAdd
	OpSubtract
	OpMultiply
	OpDivide
	OpNegate

	// === Comparison ===

	OpEqual
	OpNotEqual
	OpLess
	OpGreater
	OpLessEqual
	OpGreaterEqual

	// === Logical ===

	OpNot

	// === Locals ===

	// OpGetLocal pushes the value at stack slot (frame-relative) operand.
	OpGetLocal
	// OpSetLocal overwrites the value at stack slot operand with the top
	// of stack, without popping (assignment is itself an expression).
	OpSetLocal

	// === Globals ===

	// OpGetGlobal pushes the value of the global named constants[operand].
	// Raises RuntimeError.UndefinedVariable if unset.
	OpGetGlobal
	// OpSetGlobal stores the top of stack into the global named
	// constants[operand], without popping.
	OpSetGlobal
	// OpDefineGlobal pops the top of stack and defines the global named
	// constants[operand]; used once per `let` at top level.
	OpDefineGlobal

	// === Upvalues ===

	// OpGetUpvalue pushes the value of the current closure's upvalue at
	// index operand.
	OpGetUpvalue
	// OpSetUpvalue overwrites the current closure's upvalue at index
	// operand with the top of stack, without popping.
	OpSetUpvalue
	// OpCloseUpvalue promotes the open upvalue (if any) pointing at the
	// stack slot given by operand into closed (heap) storage, then pops
	// that slot.
	OpCloseUpvalue

	// === Control flow ===

	// OpJump unconditionally sets the instruction pointer to operand.
	OpJump
	// OpJumpIfFalse sets the instruction pointer to operand if the top
	// of stack is falsy, without popping.
	OpJumpIfFalse
	// OpJumpIfNull sets the instruction pointer to operand if the top of
	// stack is null, without popping (used for `??`).
	OpJumpIfNull
	// OpLoop is OpJump's back-edge counterpart; semantically identical,
	// kept distinct purely for disassembly readability.
	OpLoop

	// === Calls ===

	// OpCall invokes the callable operand slots below the top of stack
	// (i.e. argc=operand arguments sit above the callee) and replaces
	// the callee+args region with the call's result.
	OpCall
	// OpReturn pops the current frame, returning the top of stack (or
	// null if the stack is empty at that point) to the caller.
	OpReturn

	// === Structures ===

	// OpList pops operand values and pushes a new list containing them,
	// in the order they were pushed.
	OpList
	// OpIndex pops an index and a receiver and pushes receiver[index].
	OpIndex
	// OpIndexSet pops a value, an index, and a receiver (in that order
	// from the top) and stores value into receiver[index], pushing
	// value back (index-assignment is itself an expression).
	OpIndexSet
	// OpCheckLength peeks the top of stack (a list, left in place) and
	// raises RuntimeError.DestructureLength unless its length is at
	// least operand; used once before a `let [a, b, c] = ...` pattern
	// indexes into it.
	OpCheckLength

	// === Closures ===

	// OpClosure pushes a new closure built from the Function constant at
	// constants[operand], resolving each of its upvalue descriptors
	// against the enclosing frame.
	OpClosure

	// === Strings ===

	// OpConcat pops operand values, converts each to its string form,
	// concatenates them in order, and pushes the result.
	OpConcat

	// === Modules ===

	// OpImport pops the imported value (resolved from the host Context
	// at compile time and pushed by a preceding OpConstant) and defines
	// it as a global named by the string constants[operand].
	OpImport
)

var opcodeNames = map[Opcode]string{
	OpConstant:     "CONSTANT",
	OpNull:         "NULL",
	OpTrue:         "TRUE",
	OpFalse:        "FALSE",
	OpPop:          "POP",
	OpDup:          "DUP",
	OpAdd:          "ADD",
	OpSubtract:     "SUBTRACT",
	OpMultiply:     "MULTIPLY",
	OpDivide:       "DIVIDE",
	OpNegate:       "NEGATE",
	OpEqual:        "EQUAL",
	OpNotEqual:     "NOT_EQUAL",
	OpLess:         "LESS",
	OpGreater:      "GREATER",
	OpLessEqual:    "LESS_EQUAL",
	OpGreaterEqual: "GREATER_EQUAL",
	OpNot:          "NOT",
	OpGetLocal:     "GET_LOCAL",
	OpSetLocal:     "SET_LOCAL",
	OpGetGlobal:    "GET_GLOBAL",
	OpSetGlobal:    "SET_GLOBAL",
	OpDefineGlobal: "DEFINE_GLOBAL",
	OpGetUpvalue:   "GET_UPVALUE",
	OpSetUpvalue:   "SET_UPVALUE",
	OpCloseUpvalue: "CLOSE_UPVALUE",
	OpJump:         "JUMP",
	OpJumpIfFalse:  "JUMP_IF_FALSE",
	OpJumpIfNull:   "JUMP_IF_NULL",
	OpLoop:         "LOOP",
	OpCall:         "CALL",
	OpReturn:       "RETURN",
	OpList:         "LIST",
	OpIndex:        "INDEX",
	OpIndexSet:     "INDEX_SET",
	OpCheckLength:  "CHECK_LENGTH",
	OpClosure:      "CLOSURE",
	OpConcat:       "CONCAT",
	OpImport:       "IMPORT",
}

// String returns a human-readable opcode mnemonic, used by the
// disassembler and by error messages that include the failing
// instruction.
func (op Opcode) String() string {
	if name, ok := opcodeNames[op]; ok {
		return name
	}
	return "UNKNOWN"
}

// Instruction is a single bytecode operation plus its operand. Not
// every opcode uses Operand; unused operands are conventionally zero.
type Instruction struct {
	Op      Opcode
	Operand int
}

// Chunk is a complete compiled program or function body: its
// instruction stream, constant pool, and a parallel line-number table
// used only for diagnostics (never consulted by the dispatch loop).
type Chunk struct {
	Instructions []Instruction
	Constants    []value.Value
	Lines        []int
}

// New returns an empty Chunk ready for emission.
func New() *Chunk {
	return &Chunk{}
}

// Emit appends an instruction at the given source line and returns its
// index (used by the compiler for back-patching jump targets).
func (c *Chunk) Emit(op Opcode, operand int, line int) int {
	c.Instructions = append(c.Instructions, Instruction{Op: op, Operand: operand})
	c.Lines = append(c.Lines, line)
	return len(c.Instructions) - 1
}

// Patch overwrites the operand of a previously emitted instruction,
// used once a forward jump's target offset becomes known.
func (c *Chunk) Patch(index, operand int) {
	c.Instructions[index].Operand = operand
}

// AddConstant appends a value to the constant pool and returns its
// index. Equal scalar constants are not deduplicated.
func (c *Chunk) AddConstant(v value.Value) int {
	c.Constants = append(c.Constants, v)
	return len(c.Constants) - 1
}

// Len reports the number of emitted instructions, i.e. the instruction
// index a jump emitted right now would need to target to fall through
// to "the end".
func (c *Chunk) Len() int {
	return len(c.Instructions)
}

// LineFor returns the source line an instruction was compiled from, or
// 0 if ip is out of range.
func (c *Chunk) LineFor(ip int) int {
	if ip < 0 || ip >= len(c.Lines) {
		return 0
	}
	return c.Lines[ip]
}

// MaxJumpTarget is the largest instruction index a 16-bit jump operand
// can address; a jump target beyond it is a compile error
// (diagnostic.JumpTooLarge).
const MaxJumpTarget = 0xFFFF
