package value

import "strings"

// objKind distinguishes the variants an Object can hold.
type objKind byte

const (
	objKindString objKind = iota
	objKindList
	objKindFunction
	objKindNative
	objKindClosure
)

// Object is a heap-allocated, reference-counted variant holding a
// string, a list, a compiled function, a host-provided native
// function, or a closure. Objects are never copied; Values hold a
// handle (pointer) to one and share ownership via refCount.
type Object struct {
	refCount int
	data     interface{ kind() objKind }
}

func newObject(data interface{ kind() objKind }) *Object {
	return &Object{refCount: 1, data: data}
}

func (o *Object) isKind(k objKind) bool { return o.data.kind() == k }

// retain increments the object's reference count. Called whenever a
// Value referring to this object is duplicated (pushed again, stored
// into a second slot, captured by a closure, ...).
func (o *Object) retain() { o.refCount++ }

// release decrements the reference count, deterministically releasing
// any Values this object holds (list elements, a closure's captured
// upvalues) once the count reaches zero: every Object with refcount=0
// is freed immediately, with no finalizers and no weak references.
func (o *Object) release() {
	o.refCount--
	if o.refCount > 0 {
		return
	}

	switch d := o.data.(type) {
	case *listObj:
		for _, item := range d.items {
			item.Release()
		}
	case *closureObj:
		for _, up := range d.upvalues {
			up.release()
		}
	}
}

func (o *Object) isFalsy() bool {
	switch d := o.data.(type) {
	case *stringObj:
		return d.s == ""
	case *listObj:
		return len(d.items) == 0
	default:
		// functions, natives, closures are always truthy
		return false
	}
}

func (o *Object) typeName() string {
	switch o.data.(type) {
	case *stringObj:
		return "string"
	case *listObj:
		return "list"
	case *functionObj, *nativeObj, *closureObj:
		return "function"
	default:
		return "unknown"
	}
}

// equal implements Object equality: same concrete kind required,
// strings compare byte-wise, lists element-wise, functions/natives/
// closures by identity (pointer equality on the Object itself covers
// this since each instance is allocated once).
func (o *Object) equal(other *Object) bool {
	if o == other {
		return true
	}
	switch a := o.data.(type) {
	case *stringObj:
		b, ok := other.data.(*stringObj)
		return ok && a.s == b.s
	case *listObj:
		b, ok := other.data.(*listObj)
		if !ok || len(a.items) != len(b.items) {
			return false
		}
		for i := range a.items {
			if !a.items[i].Equal(b.items[i]) {
				return false
			}
		}
		return true
	default:
		// functions, natives, closures: identity only, and we already
		// failed the pointer-equality fast path above.
		return false
	}
}

func (o *Object) String() string {
	switch d := o.data.(type) {
	case *stringObj:
		return d.s
	case *listObj:
		var b strings.Builder
		b.WriteByte('[')
		for i, item := range d.items {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(item.debugString())
		}
		b.WriteByte(']')
		return b.String()
	case *functionObj:
		return "<function " + d.name + ">"
	case *nativeObj:
		return "<function " + d.name + ">"
	case *closureObj:
		return "<function " + d.fn.name + ">"
	default:
		return "<object>"
	}
}

// debugString renders a Value the way it appears nested inside a list:
// strings keep their quotes, unlike their top-level String() form.
func (v Value) debugString() string {
	if v.IsString() {
		return "'" + v.AsString() + "'"
	}
	return v.String()
}

type stringObj struct{ s string }

func (*stringObj) kind() objKind { return objKindString }

type listObj struct{ items []Value }

func (*listObj) kind() objKind { return objKindList }
