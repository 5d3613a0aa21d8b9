// Package value implements the tagged Value union that flows through
// the compiler's constant pool and the VM's stack: nil, bool, number,
// or a reference to a heap object.
//
// This package deliberately knows nothing about *which* object kinds
// exist — pkg/object supplies concrete types that satisfy Obj. That
// keeps the tagged union (and the hot-path Equal/IsFalsey checks the
// VM runs per instruction) free of a dependency on the heap.
package value

import "strconv"

// Kind discriminates the tag of a Value.
type Kind byte

const (
	Nil Kind = iota
	Bool
	Number
	ObjRef
)

// ObjKind discriminates the concrete type behind an Obj reference.
type ObjKind byte

const (
	ObjString ObjKind = iota
	ObjFunction
	ObjNative
	ObjClosure
	ObjUpvalue
	ObjClass
	ObjInstance
	ObjBoundMethod
)

// Obj is satisfied by every heap object kind in pkg/object. Equality
// of two Values holding an Obj is pointer (identity) equality, which
// is exactly why strings must be interned: two literal "foo"s are
// only value-equal if they are the same Obj.
type Obj interface {
	ObjKind() ObjKind
	Inspect() string
}

// Value is a tagged union: exactly one of the following is
// meaningful, selected by Kind.
type Value struct {
	kind   Kind
	bool_  bool
	number float64
	obj    Obj
}

// NilValue is the singleton nil value.
var NilValue = Value{kind: Nil}

// BoolValue constructs a boolean Value.
func BoolValue(b bool) Value { return Value{kind: Bool, bool_: b} }

// NumberValue constructs a numeric (float64) Value.
func NumberValue(n float64) Value { return Value{kind: Number, number: n} }

// ObjValue constructs a Value wrapping a heap object reference.
func ObjValue(o Obj) Value { return Value{kind: ObjRef, obj: o} }

// Kind reports the Value's tag.
func (v Value) Kind() Kind { return v.kind }

// IsNil reports whether v is the nil value.
func (v Value) IsNil() bool { return v.kind == Nil }

// IsBool reports whether v holds a bool.
func (v Value) IsBool() bool { return v.kind == Bool }

// IsNumber reports whether v holds a number.
func (v Value) IsNumber() bool { return v.kind == Number }

// IsObj reports whether v holds a heap object reference.
func (v Value) IsObj() bool { return v.kind == ObjRef }

// IsObjKind reports whether v holds a heap object of the given kind.
func (v Value) IsObjKind(kind ObjKind) bool {
	return v.kind == ObjRef && v.obj.ObjKind() == kind
}

// AsBool returns the boolean payload. The caller must have checked
// IsBool first; like clox, accessors trust the caller.
func (v Value) AsBool() bool { return v.bool_ }

// AsNumber returns the numeric payload.
func (v Value) AsNumber() float64 { return v.number }

// AsObj returns the heap object reference.
func (v Value) AsObj() Obj { return v.obj }

// IsFalsey implements truthiness: nil and false are falsey, every
// other value (including 0 and "") is truthy.
func (v Value) IsFalsey() bool {
	return v.kind == Nil || (v.kind == Bool && !v.bool_)
}

// Equal implements value equality: same tag and same content; object
// references compare by identity.
func Equal(a, b Value) bool {
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case Nil:
		return true
	case Bool:
		return a.bool_ == b.bool_
	case Number:
		return a.number == b.number
	case ObjRef:
		return a.obj == b.obj
	default:
		return false
	}
}

// Print formats v the way the VM's PRINT opcode and REPL do.
func Print(v Value) string {
	switch v.kind {
	case Nil:
		return "nil"
	case Bool:
		if v.bool_ {
			return "true"
		}
		return "false"
	case Number:
		return FormatNumber(v.number)
	case ObjRef:
		return v.obj.Inspect()
	default:
		return "<invalid value>"
	}
}

// FormatNumber renders a float64 using the shortest decimal that
// round-trips back to the same value.
func FormatNumber(n float64) string {
	return strconv.FormatFloat(n, 'g', -1, 64)
}
