// Package value implements the dynamic value representation for bang.
//
// A Value is a discriminated scalar: it holds exactly one of null, a
// boolean, a double-precision number, or a handle to a heap-allocated
// Object. The language's data model permits two encodings of this
// union: a NaN-boxed 64-bit word, or a tagged pair on platforms where a
// pointer-sized field cannot also hold a double.
//
// This implementation takes the tagged-pair branch deliberately. A true
// NaN-box hides a heap pointer inside the bit pattern of a float64; the
// Go garbage collector cannot see a pointer encoded that way, so the
// instant a boxed Value became the *only* reference to its Object, the
// collector would be free to reclaim it out from under the reference
// count kept here. The tagged struct below is two extra machine words
// wide but gives byte-for-byte the same external behaviour (identity,
// truthiness, equality, indexing) without lying to the collector about
// what it's holding.
package value

import "fmt"

// Kind identifies which variant of Value is populated.
type Kind byte

const (
	// KindNull is the null value. There is exactly one null.
	KindNull Kind = iota
	// KindBool is a boolean (true or false).
	KindBool
	// KindNumber is an IEEE-754 double.
	KindNumber
	// KindObject is a handle to a heap-allocated, reference-counted Object.
	KindObject
)

// Value is a dynamically-typed scalar.
//
// Exactly one of the fields below is meaningful, selected by kind:
//   - KindNull:   no payload
//   - KindBool:   boolean
//   - KindNumber: number
//   - KindObject: object (never nil when kind is KindObject)
type Value struct {
	kind    Kind
	boolean bool
	number  float64
	object  *Object
}

// Null is the singular null value.
var Null = Value{kind: KindNull}

// True is the boolean true value.
var True = Value{kind: KindBool, boolean: true}

// False is the boolean false value.
var False = Value{kind: KindBool, boolean: false}

// Bool returns True or False for the given Go bool.
func Bool(b bool) Value {
	if b {
		return True
	}
	return False
}

// Number wraps a float64 as a Value.
func Number(n float64) Value {
	return Value{kind: KindNumber, number: n}
}

// FromObject wraps a heap Object as a Value, taking a reference to it.
//
// Callers that already own a reference (i.e. created the Object via one
// of the New* constructors, which start at refcount 1) should use
// fromOwnedObject instead so the count isn't bumped twice.
func FromObject(o *Object) Value {
	o.retain()
	return Value{kind: KindObject, object: o}
}

// fromOwnedObject wraps a freshly allocated Object (refcount already 1)
// without an additional retain.
func fromOwnedObject(o *Object) Value {
	return Value{kind: KindObject, object: o}
}

// String wraps a Go string as a new bang string Object.
func String(s string) Value {
	return fromOwnedObject(newObject(&stringObj{s: s}))
}

// List wraps a slice of Values as a new bang list Object.
func List(items []Value) Value {
	return fromOwnedObject(newObject(&listObj{items: items}))
}

// IsNull reports whether v is the null value.
func (v Value) IsNull() bool { return v.kind == KindNull }

// IsBool reports whether v is a boolean.
func (v Value) IsBool() bool { return v.kind == KindBool }

// IsNumber reports whether v is a number.
func (v Value) IsNumber() bool { return v.kind == KindNumber }

// IsObject reports whether v is a heap object handle.
func (v Value) IsObject() bool { return v.kind == KindObject }

// IsString reports whether v is a string object.
func (v Value) IsString() bool {
	return v.kind == KindObject && v.object.isKind(objKindString)
}

// IsList reports whether v is a list object.
func (v Value) IsList() bool {
	return v.kind == KindObject && v.object.isKind(objKindList)
}

// IsCallable reports whether v can be the callee of a call expression.
func (v Value) IsCallable() bool {
	if v.kind != KindObject {
		return false
	}
	switch v.object.data.(type) {
	case *functionObj, *closureObj, *nativeObj:
		return true
	default:
		return false
	}
}

// AsBool returns the boolean payload. Only valid when IsBool() is true.
func (v Value) AsBool() bool { return v.boolean }

// AsNumber returns the numeric payload. Only valid when IsNumber() is true.
func (v Value) AsNumber() float64 { return v.number }

// AsString returns the Go string payload. Only valid when IsString() is true.
func (v Value) AsString() string {
	return v.object.data.(*stringObj).s
}

// AsList returns the underlying mutable slice of a list object.
// Only valid when IsList() is true. Mutations through the returned
// pointer are visible to every Value sharing this Object (interior
// mutability — the language's lists are reference types).
func (v Value) AsList() *[]Value {
	return &v.object.data.(*listObj).items
}

// Object returns the underlying heap object handle.
// Only valid when IsObject() is true.
func (v Value) Object() *Object { return v.object }

// Kind reports the discriminant of v, for diagnostics and the `type`
// builtin a host Context may choose to expose.
func (v Value) Kind() Kind { return v.kind }

// TypeName returns a short lowercase type name, as used by error
// messages and the conventional `type` native function.
func (v Value) TypeName() string {
	switch v.kind {
	case KindNull:
		return "null"
	case KindBool:
		return "boolean"
	case KindNumber:
		return "number"
	case KindObject:
		return v.object.typeName()
	default:
		return "unknown"
	}
}

// IsTruthy implements the language's truthiness rules: null and false
// are falsy; the empty string and the empty list are falsy; every
// number (including zero) and every function is truthy.
func (v Value) IsTruthy() bool {
	switch v.kind {
	case KindNull:
		return false
	case KindBool:
		return v.boolean
	case KindNumber:
		return true
	case KindObject:
		return !v.object.isFalsy()
	default:
		return false
	}
}

// Retain increments the refcount of v's backing object, if any.
// Scalars (null/bool/number) are no-ops.
func (v Value) Retain() {
	if v.kind == KindObject {
		v.object.retain()
	}
}

// Release decrements the refcount of v's backing object, freeing its
// children on reaching zero. Scalars are no-ops. Every Value popped
// from the operand stack, overwritten in a slot, or dropped at frame
// teardown must be released exactly once.
func (v Value) Release() {
	if v.kind == KindObject {
		v.object.release()
	}
}

// Equal implements the language's structural equality: same tag is
// required (no cross-type equality), lists compare element-wise,
// strings byte-wise, functions/closures/natives by identity, numbers
// by IEEE rules (so NaN != NaN, contra Go's default float equality
// being used directly would already give this for free, but we keep
// the comparison explicit here for clarity).
func (v Value) Equal(other Value) bool {
	if v.kind != other.kind {
		return false
	}
	switch v.kind {
	case KindNull:
		return true
	case KindBool:
		return v.boolean == other.boolean
	case KindNumber:
		return v.number == other.number
	case KindObject:
		return v.object.equal(other.object)
	default:
		return false
	}
}

// String implements fmt.Stringer, producing the same textual form the
// VM's implicit toString conversion (used by format strings and the
// CONCAT opcode) produces.
func (v Value) String() string {
	switch v.kind {
	case KindNull:
		return "null"
	case KindBool:
		if v.boolean {
			return "true"
		}
		return "false"
	case KindNumber:
		return formatNumber(v.number)
	case KindObject:
		return v.object.String()
	default:
		return "<invalid value>"
	}
}

func formatNumber(n float64) string {
	if n == float64(int64(n)) {
		return fmt.Sprintf("%d", int64(n))
	}
	return fmt.Sprintf("%g", n)
}
