// Package compiler compiles a parsed bang program into a single flat
// bytecode.Chunk: scope and upvalue resolution, jump back-patching, and
// opcode emission, in one pass over the AST with no intermediate IR.
//
// Every function literal compiles inline at the point it's defined,
// guarded by a JUMP that skips its body during normal fall-through
// execution; the function constant records the instruction index right
// after that jump as its entry point. This keeps the whole program in
// one Chunk, addressed by instruction index, rather than the one
// chunk-per-function layout a tree-walking bytecode VM more commonly
// uses.
package compiler

import (
	"github.com/pkg/errors"

	"github.com/kristofer/bang/pkg/ast"
	"github.com/kristofer/bang/pkg/bytecode"
	"github.com/kristofer/bang/pkg/diagnostic"
	"github.com/kristofer/bang/pkg/value"
	"github.com/kristofer/bang/pkg/vm"
)

// localVar is one occupied stack slot relative to its function's frame
// base: named (bound by a `let` or a function parameter) or anonymous
// (a destructuring pattern's source list, or a compound index-assignment
// temporary), tracked either way so later GET_LOCAL/SET_LOCAL operands
// stay correct.
type localVar struct {
	name     string
	depth    int
	captured bool
}

// funcState is the compiler's per-function (or per-script) scope: its
// own locals list, upvalue descriptor table, and block-nesting depth.
// The outermost funcState (enclosing == nil) is the script itself; its
// depth-0 declarations become globals instead of locals.
type funcState struct {
	enclosing *funcState
	locals    []localVar
	upvalues  []value.UpvalueDescriptor
	depth     int
	isScript  bool
}

func newFuncState(enclosing *funcState, isScript bool) *funcState {
	return &funcState{enclosing: enclosing, isScript: isScript}
}

// Compiler turns a *ast.Program into a *bytecode.Chunk. A Compiler
// compiles exactly one program; build a new one per compilation.
type Compiler struct {
	chunk *bytecode.Chunk
	fs    *funcState
	ctx   vm.Context
}

// New builds a Compiler. ctx resolves `from M import [...]` and
// `Module.symbol` at compile time; pass vm.Empty{} for a host with no
// importable modules.
func New(ctx vm.Context) *Compiler {
	return &Compiler{
		chunk: bytecode.New(),
		fs:    newFuncState(nil, true),
		ctx:   ctx,
	}
}

// Compile compiles program and returns the completed chunk, or the
// first diagnostic.CompileError encountered (compilation does not
// attempt recovery past the first failure).
func Compile(program *ast.Program, ctx vm.Context) (*bytecode.Chunk, error) {
	c := New(ctx)
	for _, stmt := range program.Statements {
		if err := c.compileStatement(stmt); err != nil {
			return nil, err
		}
	}
	c.emit(bytecode.OpNull, 0, 0)
	c.emit(bytecode.OpReturn, 0, 0)
	return c.chunk, nil
}

func (c *Compiler) emit(op bytecode.Opcode, operand int, line int) int {
	return c.chunk.Emit(op, operand, line)
}

func (c *Compiler) emitJump(op bytecode.Opcode, line int) int {
	return c.emit(op, 0, line)
}

func (c *Compiler) patchJump(index int) error {
	target := c.chunk.Len()
	if target > bytecode.MaxJumpTarget {
		return diagnostic.New(diagnostic.JumpTooLarge, 0, "jump target %d exceeds the 16-bit limit", target)
	}
	c.chunk.Patch(index, target)
	return nil
}

func (c *Compiler) constant(v value.Value) int {
	return c.chunk.AddConstant(v)
}

// --- scopes & locals ---

func (c *Compiler) enterScope() {
	c.fs.depth++
}

// exitScope pops every local declared at the scope being left, in
// reverse declaration order, closing upvalues for any that were
// captured rather than plainly discarding them.
func (c *Compiler) exitScope(line int) {
	fs := c.fs
	fs.depth--
	for len(fs.locals) > 0 && fs.locals[len(fs.locals)-1].depth > fs.depth {
		last := fs.locals[len(fs.locals)-1]
		slot := len(fs.locals) - 1
		if last.captured {
			c.emit(bytecode.OpCloseUpvalue, slot, line)
		} else {
			c.emit(bytecode.OpPop, 0, line)
		}
		fs.locals = fs.locals[:slot]
	}
}

// atGlobalScope reports whether a `let` compiled right now binds a
// global rather than a local: true only at the script's own top level,
// never inside any block (even a top-level if/while body) or function.
func (c *Compiler) atGlobalScope() bool {
	return c.fs.isScript && c.fs.depth == 0
}

// declareLocal reserves the next stack slot for name at the current
// scope depth and returns its slot index. Duplicate-declaration checks
// happen in checkDuplicate before this is called.
func (c *Compiler) declareLocal(name string) int {
	slot := len(c.fs.locals)
	c.fs.locals = append(c.fs.locals, localVar{name: name, depth: c.fs.depth})
	return slot
}

func (c *Compiler) checkDuplicate(name string, line int) error {
	if c.atGlobalScope() {
		return nil
	}
	for _, l := range c.fs.locals {
		if l.depth == c.fs.depth && l.name == name {
			return diagnostic.New(diagnostic.DuplicateDeclaration, line, "%q is already declared in this scope", name)
		}
	}
	return nil
}

// reserveTemp and releaseTemp bracket an anonymous, compiler-internal
// stack slot (a destructuring pattern's source list, or a compound
// index-assignment's receiver/index) addressed by GET_LOCAL without
// ever being visible to resolveVariable.
func (c *Compiler) reserveTemp() int {
	return c.declareLocal("")
}

func (c *Compiler) releaseTemp() {
	c.fs.locals = c.fs.locals[:len(c.fs.locals)-1]
}

// variableKind is the outcome of resolving a name: where the compiler
// decided it lives.
type variableKind int

const (
	kindGlobal variableKind = iota
	kindLocal
	kindUpvalue
)

// resolveLocal searches fs's own locals (innermost first) for name.
func resolveLocal(fs *funcState, name string) (int, bool) {
	for i := len(fs.locals) - 1; i >= 0; i-- {
		if fs.locals[i].name == name {
			return i, true
		}
	}
	return 0, false
}

// resolveUpvalue implements closure upvalue resolution: a
// name found as a local in an enclosing function is marked captured and
// recorded as an {index=slot, isLocal=true} descriptor; a name found as
// an upvalue of an enclosing function (recursively) is recorded as
// {index=enclosingUpvalueIndex, isLocal=false}. Existing descriptors
// are reused rather than duplicated.
func resolveUpvalue(fs *funcState, name string) (int, bool) {
	if fs.enclosing == nil {
		return 0, false
	}
	if slot, ok := resolveLocal(fs.enclosing, name); ok {
		fs.enclosing.locals[slot].captured = true
		return addUpvalue(fs, uint8(slot), true), true
	}
	if idx, ok := resolveUpvalue(fs.enclosing, name); ok {
		return addUpvalue(fs, uint8(idx), false), true
	}
	return 0, false
}

func addUpvalue(fs *funcState, index uint8, isLocal bool) int {
	for i, up := range fs.upvalues {
		if up.Index == index && up.IsLocal == isLocal {
			return i
		}
	}
	fs.upvalues = append(fs.upvalues, value.UpvalueDescriptor{Index: index, IsLocal: isLocal})
	return len(fs.upvalues) - 1
}

func (c *Compiler) resolveVariable(name string) (variableKind, int) {
	if slot, ok := resolveLocal(c.fs, name); ok {
		return kindLocal, slot
	}
	if idx, ok := resolveUpvalue(c.fs, name); ok {
		return kindUpvalue, idx
	}
	return kindGlobal, 0
}

// --- statements ---

func (c *Compiler) compileStatement(stmt ast.Statement) error {
	switch s := stmt.(type) {
	case *ast.Block:
		c.enterScope()
		if err := c.compileBlockBody(s.Body); err != nil {
			return err
		}
		c.exitScope(lineOf(s))
		return nil
	case *ast.Declaration:
		return c.compileDeclaration(s)
	case *ast.ExpressionStatement:
		if err := c.compileExpression(s.Expression); err != nil {
			return err
		}
		c.emit(bytecode.OpPop, 0, lineOf(s))
		return nil
	case *ast.If:
		return c.compileIf(s)
	case *ast.While:
		return c.compileWhile(s)
	case *ast.Return:
		return c.compileReturn(s)
	case *ast.Import:
		return c.compileImport(s)
	case *ast.Comment:
		return nil
	default:
		return errors.Errorf("compiler: unhandled statement type %T", stmt)
	}
}

func (c *Compiler) compileBlockBody(body []ast.Statement) error {
	for _, stmt := range body {
		if err := c.compileStatement(stmt); err != nil {
			return err
		}
	}
	return nil
}

func (c *Compiler) compileDeclaration(d *ast.Declaration) error {
	line := lineOf(d)

	if !d.Destructure {
		name := d.Names[0]
		if err := c.checkDuplicate(name, line); err != nil {
			return err
		}
		if err := c.compileExpression(d.Expression); err != nil {
			return err
		}
		if c.atGlobalScope() {
			c.emit(bytecode.OpDefineGlobal, c.constant(value.String(name)), line)
		} else {
			c.declareLocal(name)
		}
		return nil
	}

	for _, name := range d.Names {
		if err := c.checkDuplicate(name, line); err != nil {
			return err
		}
	}
	if err := c.compileExpression(d.Expression); err != nil {
		return err
	}
	listSlot := c.reserveTemp()
	c.emit(bytecode.OpCheckLength, len(d.Names), line)
	for _, name := range d.Names {
		c.emit(bytecode.OpGetLocal, listSlot, line)
		c.emit(bytecode.OpConstant, c.constant(value.Number(float64(indexOf(d.Names, name)))), line)
		c.emit(bytecode.OpIndex, 0, line)
		if c.atGlobalScope() {
			c.emit(bytecode.OpDefineGlobal, c.constant(value.String(name)), line)
		} else {
			c.declareLocal(name)
		}
	}
	if c.atGlobalScope() {
		c.releaseTemp()
		c.emit(bytecode.OpPop, 0, line)
	}
	return nil
}

func indexOf(names []string, name string) int {
	for i, n := range names {
		if n == name {
			return i
		}
	}
	return -1
}

func (c *Compiler) compileIf(s *ast.If) error {
	line := lineOf(s)
	if err := c.compileExpression(s.Condition); err != nil {
		return err
	}
	thenJump := c.emitJump(bytecode.OpJumpIfFalse, line)
	c.emit(bytecode.OpPop, 0, line)
	if err := c.compileStatement(s.Then); err != nil {
		return err
	}
	elseJump := c.emitJump(bytecode.OpJump, line)
	if err := c.patchJump(thenJump); err != nil {
		return err
	}
	c.emit(bytecode.OpPop, 0, line)
	if s.Otherwise != nil {
		if err := c.compileStatement(s.Otherwise); err != nil {
			return err
		}
	}
	return c.patchJump(elseJump)
}

func (c *Compiler) compileWhile(s *ast.While) error {
	line := lineOf(s)
	loopStart := c.chunk.Len()
	if err := c.compileExpression(s.Condition); err != nil {
		return err
	}
	exitJump := c.emitJump(bytecode.OpJumpIfFalse, line)
	c.emit(bytecode.OpPop, 0, line)
	if err := c.compileStatement(s.Body); err != nil {
		return err
	}
	if loopStart > bytecode.MaxJumpTarget {
		return diagnostic.New(diagnostic.JumpTooLarge, line, "loop target %d exceeds the 16-bit limit", loopStart)
	}
	c.emit(bytecode.OpLoop, loopStart, line)
	if err := c.patchJump(exitJump); err != nil {
		return err
	}
	c.emit(bytecode.OpPop, 0, line)
	return nil
}

func (c *Compiler) compileReturn(s *ast.Return) error {
	line := lineOf(s)
	if s.Expression != nil {
		if err := c.compileExpression(s.Expression); err != nil {
			return err
		}
	} else {
		c.emit(bytecode.OpNull, 0, line)
	}
	c.emit(bytecode.OpReturn, 0, line)
	return nil
}

// compileImport resolves each imported name against the Context at
// compile time and defines it as a global constant; a name the Context
// does not provide is CompileError.ImportNotFound.
func (c *Compiler) compileImport(s *ast.Import) error {
	line := lineOf(s)
	for _, n := range s.Names {
		v, ok := c.ctx.GetValue(s.Module, n.Name)
		if !ok {
			return diagnostic.New(diagnostic.ImportNotFound, line, "%s.%s is not provided by this context", s.Module, n.Name)
		}
		idx := c.constant(v)
		c.emit(bytecode.OpConstant, idx, line)
		c.emit(bytecode.OpImport, c.constant(value.String(n.Alias)), line)
	}
	return nil
}

// --- expressions ---

func (c *Compiler) compileExpression(expr ast.Expression) error {
	switch e := expr.(type) {
	case *ast.Literal:
		return c.compileLiteral(e)
	case *ast.Variable:
		kind, idx := c.resolveVariable(e.Name)
		switch kind {
		case kindLocal:
			c.emit(bytecode.OpGetLocal, idx, lineOf(e))
		case kindUpvalue:
			c.emit(bytecode.OpGetUpvalue, idx, lineOf(e))
		default:
			c.emit(bytecode.OpGetGlobal, c.constant(value.String(e.Name)), lineOf(e))
		}
		return nil
	case *ast.Assignment:
		return c.compileAssignment(e)
	case *ast.Binary:
		return c.compileBinary(e)
	case *ast.Unary:
		return c.compileUnary(e)
	case *ast.Group:
		return c.compileExpression(e.Expression)
	case *ast.Call:
		return c.compileCall(e)
	case *ast.Function:
		return c.compileFunction(e)
	case *ast.FormatString:
		return c.compileFormatString(e)
	case *ast.List:
		return c.compileList(e)
	case *ast.Index:
		if err := c.compileExpression(e.Expression); err != nil {
			return err
		}
		if err := c.compileExpression(e.IndexExpr); err != nil {
			return err
		}
		c.emit(bytecode.OpIndex, 0, lineOf(e))
		return nil
	case *ast.IndexAssignment:
		return c.compileIndexAssignment(e)
	case *ast.ModuleAccess:
		return c.compileModuleAccess(e)
	case *ast.ExpressionComment:
		return c.compileExpression(e.Expression)
	default:
		return errors.Errorf("compiler: unhandled expression type %T", expr)
	}
}

func (c *Compiler) compileLiteral(e *ast.Literal) error {
	line := lineOf(e)
	switch v := e.Value.(type) {
	case nil:
		c.emit(bytecode.OpNull, 0, line)
	case bool:
		if v {
			c.emit(bytecode.OpTrue, 0, line)
		} else {
			c.emit(bytecode.OpFalse, 0, line)
		}
	case float64:
		c.emit(bytecode.OpConstant, c.constant(value.Number(v)), line)
	case string:
		c.emit(bytecode.OpConstant, c.constant(value.String(v)), line)
	default:
		return errors.Errorf("compiler: unhandled literal payload %T", e.Value)
	}
	return nil
}

func (c *Compiler) compileAssignment(e *ast.Assignment) error {
	line := lineOf(e)
	target, ok := e.Target.(*ast.Variable)
	if !ok {
		return diagnostic.New(diagnostic.AssignTarget, line, "cannot assign to %T", e.Target)
	}

	// An unresolved name falls through to SET_GLOBAL by name; the VM
	// raises UndefinedVariable at runtime if it was never declared.
	kind, idx := c.resolveVariable(target.Name)

	if e.Operator != "" {
		switch kind {
		case kindLocal:
			c.emit(bytecode.OpGetLocal, idx, line)
		case kindUpvalue:
			c.emit(bytecode.OpGetUpvalue, idx, line)
		default:
			c.emit(bytecode.OpGetGlobal, c.constant(value.String(target.Name)), line)
		}
	}

	if err := c.compileExpression(e.Value); err != nil {
		return err
	}

	if e.Operator != "" {
		if err := c.emitBinaryOp(e.Operator, line); err != nil {
			return err
		}
	}

	switch kind {
	case kindLocal:
		c.emit(bytecode.OpSetLocal, idx, line)
	case kindUpvalue:
		c.emit(bytecode.OpSetUpvalue, idx, line)
	default:
		c.emit(bytecode.OpSetGlobal, c.constant(value.String(target.Name)), line)
	}
	return nil
}

func (c *Compiler) compileBinary(e *ast.Binary) error {
	line := lineOf(e)
	switch e.Operator {
	case "&&", "and":
		return c.compileAnd(e, line)
	case "||", "or":
		return c.compileOr(e, line)
	case "??":
		return c.compileNullish(e, line)
	case ">>":
		// Pipeline: `a >> f` compiles as `f(a)`.
		if err := c.compileExpression(e.Right); err != nil {
			return err
		}
		if err := c.compileExpression(e.Left); err != nil {
			return err
		}
		c.emit(bytecode.OpCall, 1, line)
		return nil
	default:
		if err := c.compileExpression(e.Left); err != nil {
			return err
		}
		if err := c.compileExpression(e.Right); err != nil {
			return err
		}
		return c.emitBinaryOp(e.Operator, line)
	}
}

func (c *Compiler) emitBinaryOp(op string, line int) error {
	switch op {
	case "+":
		c.emit(bytecode.OpAdd, 0, line)
	case "-":
		c.emit(bytecode.OpSubtract, 0, line)
	case "*":
		c.emit(bytecode.OpMultiply, 0, line)
	case "/":
		c.emit(bytecode.OpDivide, 0, line)
	case "==":
		c.emit(bytecode.OpEqual, 0, line)
	case "!=":
		c.emit(bytecode.OpNotEqual, 0, line)
	case "<":
		c.emit(bytecode.OpLess, 0, line)
	case ">":
		c.emit(bytecode.OpGreater, 0, line)
	case "<=":
		c.emit(bytecode.OpLessEqual, 0, line)
	case ">=":
		c.emit(bytecode.OpGreaterEqual, 0, line)
	default:
		return errors.Errorf("compiler: unhandled binary operator %q", op)
	}
	return nil
}

// compileAnd: left kept on the stack when falsy (short-circuit);
// otherwise discarded in favor of right's value.
func (c *Compiler) compileAnd(e *ast.Binary, line int) error {
	if err := c.compileExpression(e.Left); err != nil {
		return err
	}
	endJump := c.emitJump(bytecode.OpJumpIfFalse, line)
	c.emit(bytecode.OpPop, 0, line)
	if err := c.compileExpression(e.Right); err != nil {
		return err
	}
	return c.patchJump(endJump)
}

// compileOr: left kept on the stack when truthy (short-circuit);
// otherwise discarded in favor of right's value.
func (c *Compiler) compileOr(e *ast.Binary, line int) error {
	if err := c.compileExpression(e.Left); err != nil {
		return err
	}
	elseJump := c.emitJump(bytecode.OpJumpIfFalse, line)
	endJump := c.emitJump(bytecode.OpJump, line)
	if err := c.patchJump(elseJump); err != nil {
		return err
	}
	c.emit(bytecode.OpPop, 0, line)
	if err := c.compileExpression(e.Right); err != nil {
		return err
	}
	return c.patchJump(endJump)
}

// compileNullish: left kept on the stack unless null, in which case
// right is evaluated instead.
func (c *Compiler) compileNullish(e *ast.Binary, line int) error {
	if err := c.compileExpression(e.Left); err != nil {
		return err
	}
	nullJump := c.emitJump(bytecode.OpJumpIfNull, line)
	endJump := c.emitJump(bytecode.OpJump, line)
	if err := c.patchJump(nullJump); err != nil {
		return err
	}
	c.emit(bytecode.OpPop, 0, line)
	if err := c.compileExpression(e.Right); err != nil {
		return err
	}
	return c.patchJump(endJump)
}

func (c *Compiler) compileUnary(e *ast.Unary) error {
	if err := c.compileExpression(e.Expression); err != nil {
		return err
	}
	line := lineOf(e)
	switch e.Operator {
	case "-":
		c.emit(bytecode.OpNegate, 0, line)
	case "!":
		c.emit(bytecode.OpNot, 0, line)
	default:
		return errors.Errorf("compiler: unhandled unary operator %q", e.Operator)
	}
	return nil
}

func (c *Compiler) compileCall(e *ast.Call) error {
	if err := c.compileExpression(e.Callee); err != nil {
		return err
	}
	for _, arg := range e.Arguments {
		if err := c.compileExpression(arg); err != nil {
			return err
		}
	}
	c.emit(bytecode.OpCall, len(e.Arguments), lineOf(e))
	return nil
}

func (c *Compiler) compileList(e *ast.List) error {
	for _, item := range e.Items {
		if err := c.compileExpression(item); err != nil {
			return err
		}
	}
	c.emit(bytecode.OpList, len(e.Items), lineOf(e))
	return nil
}

func (c *Compiler) compileIndexAssignment(e *ast.IndexAssignment) error {
	line := lineOf(e)

	if e.Operator == "" {
		if err := c.compileExpression(e.Expression); err != nil {
			return err
		}
		if err := c.compileExpression(e.IndexExpr); err != nil {
			return err
		}
		if err := c.compileExpression(e.Value); err != nil {
			return err
		}
		c.emit(bytecode.OpIndexSet, 0, line)
		return nil
	}

	// Compound index assignment: receiver and index are each evaluated
	// exactly once, held in anonymous local slots so the read (for the
	// current value) and the write (INDEX_SET) can both address them
	// without re-running any side effect in the receiver/index
	// expressions.
	if err := c.compileExpression(e.Expression); err != nil {
		return err
	}
	receiverSlot := c.reserveTemp()
	if err := c.compileExpression(e.IndexExpr); err != nil {
		return err
	}
	indexSlot := c.reserveTemp()

	c.emit(bytecode.OpGetLocal, receiverSlot, line)
	c.emit(bytecode.OpGetLocal, indexSlot, line)
	c.emit(bytecode.OpIndex, 0, line)
	if err := c.compileExpression(e.Value); err != nil {
		return err
	}
	if err := c.emitBinaryOp(e.Operator, line); err != nil {
		return err
	}
	c.emit(bytecode.OpIndexSet, 0, line)

	c.releaseTemp()
	c.releaseTemp()
	return nil
}

func (c *Compiler) compileModuleAccess(e *ast.ModuleAccess) error {
	v, ok := c.ctx.GetValue(e.Module, e.Symbol)
	if !ok {
		return diagnostic.New(diagnostic.ImportNotFound, lineOf(e), "%s.%s is not provided by this context", e.Module, e.Symbol)
	}
	c.emit(bytecode.OpConstant, c.constant(v), lineOf(e))
	return nil
}

func (c *Compiler) compileFormatString(e *ast.FormatString) error {
	line := lineOf(e)
	n := 0
	for i, lit := range e.Strings {
		c.emit(bytecode.OpConstant, c.constant(value.String(lit)), line)
		n++
		if i < len(e.Expressions) {
			if err := c.compileExpression(e.Expressions[i]); err != nil {
				return err
			}
			n++
		}
	}
	c.emit(bytecode.OpConcat, n, line)
	return nil
}

// compileFunction emits a JUMP that skips the function's body, compiles
// the body as its own funcState, and leaves a CLOSURE on the stack
// built from the resulting Function constant.
func (c *Compiler) compileFunction(e *ast.Function) error {
	line := lineOf(e)
	skip := c.emitJump(bytecode.OpJump, line)
	start := c.chunk.Len()

	parent := c.fs
	c.fs = newFuncState(parent, false)
	c.fs.locals = append(c.fs.locals, localVar{name: ""}) // slot 0: the callee itself
	for _, p := range e.Parameters {
		c.fs.locals = append(c.fs.locals, localVar{name: p.Name})
	}

	if err := c.compileBlockBody(e.Body.Body); err != nil {
		c.fs = parent
		return err
	}
	c.emit(bytecode.OpNull, 0, line)
	c.emit(bytecode.OpReturn, 0, line)

	upvalues := c.fs.upvalues
	c.fs = parent

	if err := c.patchJump(skip); err != nil {
		return err
	}

	arity := value.NewArity(uint8(len(e.Parameters)))
	if e.Variadic {
		arity = value.NewVariadicArity(uint8(len(e.Parameters)))
	}
	fn := value.NewFunction(e.Name, arity, start, upvalues)
	c.emit(bytecode.OpClosure, c.constant(fn), line)
	return nil
}

// lineOf reads the source line a node starts on, for populating the
// chunk's per-instruction line table.
func lineOf(n ast.Node) int {
	if s, ok := n.(interface{ SourceLine() int }); ok {
		return s.SourceLine()
	}
	return 0
}
