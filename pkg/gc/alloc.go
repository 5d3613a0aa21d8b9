package gc

import (
	"unsafe"

	"github.com/kristofer/embervm/pkg/object"
	"github.com/kristofer/embervm/pkg/value"
)

// NewString interns chars: if an equal string already exists, its
// canonical *object.String is returned and nothing is allocated;
// otherwise a fresh String is created, tracked on the heap, and
// entered into the intern table.
func (g *GC) NewString(chars string) *object.String {
	hash := object.HashString(chars)
	if canonical := g.strings.FindString(chars, hash); canonical != nil {
		return canonical
	}
	s := &object.String{Chars: chars, Hash: hash}
	g.track(s, int(unsafe.Sizeof(*s))+len(chars))
	g.strings.Set(s, value.NilValue)
	return s
}

// NewFunction allocates an empty Function for the compiler to fill
// in.
func (g *GC) NewFunction() *object.Function {
	f := object.NewFunction()
	g.track(f, int(unsafe.Sizeof(*f)))
	return f
}

// NewNative wraps fn as a callable Native object.
func (g *GC) NewNative(name string, fn object.NativeFn) *object.Native {
	n := &object.Native{Name: name, Fn: fn}
	g.track(n, int(unsafe.Sizeof(*n)))
	return n
}

// NewClosure allocates a Closure over fn.
func (g *GC) NewClosure(fn *object.Function) *object.Closure {
	c := object.NewClosure(fn)
	g.track(c, int(unsafe.Sizeof(*c))+len(c.Upvalues)*int(unsafe.Sizeof((*object.Upvalue)(nil))))
	return c
}

// NewUpvalue allocates an open Upvalue over the stack slot at
// location.
func (g *GC) NewUpvalue(location *value.Value) *object.Upvalue {
	u := object.NewUpvalue(location)
	g.track(u, int(unsafe.Sizeof(*u)))
	return u
}

// NewClass allocates an empty Class named name.
func (g *GC) NewClass(name *object.String) *object.Class {
	c := object.NewClass(name)
	g.track(c, int(unsafe.Sizeof(*c)))
	return c
}

// NewInstance allocates a fieldless Instance of class.
func (g *GC) NewInstance(class *object.Class) *object.Instance {
	i := object.NewInstance(class)
	g.track(i, int(unsafe.Sizeof(*i)))
	return i
}

// NewBoundMethod allocates a BoundMethod pairing receiver with method.
func (g *GC) NewBoundMethod(receiver value.Value, method *object.Closure) *object.BoundMethod {
	b := object.NewBoundMethod(receiver, method)
	g.track(b, int(unsafe.Sizeof(*b)))
	return b
}
