package value

// Arity describes how many arguments a callable expects: a fixed count,
// or a count whose last parameter is optional (Variadic) and bound to
// null when the caller omits it. The opcode set has no way to pack a
// runtime-variable number of trailing arguments into a list, so a
// variadic parameter is a single optional slot, not a collector.
type Arity struct {
	Count    uint8
	Variadic bool
}

// NewArity builds a fixed (non-variadic) arity.
func NewArity(count uint8) Arity { return Arity{Count: count} }

// NewVariadicArity builds an arity whose last declared parameter is
// optional.
func NewVariadicArity(count uint8) Arity { return Arity{Count: count, Variadic: true} }

// Check reports whether provided arguments satisfy this arity: exact
// match when not variadic, or at least Count-1 when variadic (the
// trailing optional parameter may be omitted).
func (a Arity) Check(provided uint8) bool {
	if a.Variadic {
		min := a.Count - 1
		if a.Count == 0 {
			min = 0
		}
		return provided >= min
	}
	return provided == a.Count
}

// UpvalueDescriptor records, for one slot in a Function's upvalue list,
// whether the compiler resolved it to a local slot of the immediately
// enclosing function (IsLocal) or to an upvalue slot of that enclosing
// function itself (propagated transitively outward).
type UpvalueDescriptor struct {
	Index   uint8
	IsLocal bool
}

// functionObj is a compiled, named routine: its entry point is an
// offset into the owning Chunk's instruction stream, and its upvalue
// descriptor list says how OP_CLOSURE should build a Closure from it.
type functionObj struct {
	name      string
	arity     Arity
	start     int
	upvalues  []UpvalueDescriptor
}

func (*functionObj) kind() objKind { return objKindFunction }

// NewFunction wraps a compiled function as a Value.
func NewFunction(name string, arity Arity, start int, upvalues []UpvalueDescriptor) Value {
	return fromOwnedObject(newObject(&functionObj{
		name: name, arity: arity, start: start, upvalues: upvalues,
	}))
}

// FunctionName, FunctionArity, FunctionStart, and FunctionUpvalues
// extract a function object's fields. Each panics if v is not a
// function; callers are expected to check IsObject/Kind first, the
// same contract the VM's own dispatch already relies on.
func (v Value) FunctionName() string   { return v.object.data.(*functionObj).name }
func (v Value) FunctionArity() Arity   { return v.object.data.(*functionObj).arity }
func (v Value) FunctionStart() int     { return v.object.data.(*functionObj).start }
func (v Value) FunctionUpvalues() []UpvalueDescriptor {
	return v.object.data.(*functionObj).upvalues
}

// IsFunction reports whether v is a compiled (non-native, non-closure)
// function constant.
func (v Value) IsFunction() bool { return v.kind == KindObject && v.object.isKind(objKindFunction) }

// nativeObj is a host-provided callable, invoked synchronously and
// given the argument slice directly (see the Context interface).
type nativeObj struct {
	name  string
	arity Arity
	fn    func(args []Value) (Value, error)
}

func (*nativeObj) kind() objKind { return objKindNative }

// NewNative wraps a Go function as a bang-callable native function
// Value. The VM passes fn a fresh copy of the argument slots and
// releases each argument once fn returns, so fn must Retain any
// argument it keeps.
func NewNative(name string, arity Arity, fn func(args []Value) (Value, error)) Value {
	return fromOwnedObject(newObject(&nativeObj{name: name, arity: arity, fn: fn}))
}

// IsNative reports whether v is a host-provided native function.
func (v Value) IsNative() bool { return v.kind == KindObject && v.object.isKind(objKindNative) }

// NativeArity returns a native function's declared arity.
func (v Value) NativeArity() Arity { return v.object.data.(*nativeObj).arity }

// CallNative invokes a native function Value with the given arguments.
func (v Value) CallNative(args []Value) (Value, error) {
	return v.object.data.(*nativeObj).fn(args)
}

// closureObj pairs a compiled Function with the resolved storage
// location of each of its captured upvalues.
type closureObj struct {
	fn       *functionObj
	upvalues []*Upvalue
}

func (*closureObj) kind() objKind { return objKindClosure }

// NewClosure builds a closure Value from a function Value (which must
// satisfy IsFunction) and its resolved upvalues, one per entry in the
// function's upvalue descriptor list.
func NewClosure(fn Value, upvalues []*Upvalue) Value {
	f := fn.object.data.(*functionObj)
	for _, up := range upvalues {
		up.retain()
	}
	return fromOwnedObject(newObject(&closureObj{fn: f, upvalues: upvalues}))
}

// IsClosure reports whether v is a closure.
func (v Value) IsClosure() bool { return v.kind == KindObject && v.object.isKind(objKindClosure) }

// ClosureName, ClosureArity, ClosureStart expose the wrapped function's
// fields directly, so callers of the call protocol don't need to
// distinguish bare functions from closures except at dispatch time.
func (v Value) ClosureName() string  { return v.object.data.(*closureObj).fn.name }
func (v Value) ClosureArity() Arity  { return v.object.data.(*closureObj).fn.arity }
func (v Value) ClosureStart() int    { return v.object.data.(*closureObj).fn.start }
func (v Value) ClosureUpvalue(i int) *Upvalue {
	return v.object.data.(*closureObj).upvalues[i]
}

// Upvalue is a captured variable reference. While Open it points at a
// live stack slot (identified by StackIndex) owned by some still-live
// frame; once that frame's scope ends, the VM "closes" it (Close),
// moving the value into Closed and severing the link to the stack.
// Every read/write through a Closure goes through whichever state the
// Upvalue currently holds, so all closures sharing one Upvalue observe
// the same cell.
type Upvalue struct {
	refCount   int
	StackIndex int
	closed     bool
	Closed     Value
}

// NewOpenUpvalue creates an upvalue pointing at a live stack slot.
func NewOpenUpvalue(stackIndex int) *Upvalue {
	return &Upvalue{refCount: 1, StackIndex: stackIndex}
}

func (u *Upvalue) retain()  { u.refCount++ }
func (u *Upvalue) release() {
	u.refCount--
	if u.refCount <= 0 {
		u.Closed.Release()
	}
}

// IsClosed reports whether this upvalue has been promoted to heap
// storage (its defining stack frame has since returned).
func (u *Upvalue) IsClosed() bool { return u.closed }

// Close promotes the upvalue to own v directly, severing its link to
// the stack. Called by OP_CLOSE_UPVALUE when a scope containing a
// captured local ends.
func (u *Upvalue) Close(v Value) {
	v.Retain()
	u.Closed = v
	u.closed = true
}
