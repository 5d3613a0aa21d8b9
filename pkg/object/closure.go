package object

import "github.com/kristofer/embervm/pkg/value"

// Closure pairs a Function with the Upvalues it captured at creation
// time. Every VM-visible callable "function value" is actually a
// Closure, even one that captures nothing.
type Closure struct {
	Header
	Function *Function
	Upvalues []*Upvalue
}

// NewClosure allocates a Closure over fn with an upvalue slice sized
// for fn's upvalue count, to be filled in by OP_CLOSURE.
func NewClosure(fn *Function) *Closure {
	return &Closure{Function: fn, Upvalues: make([]*Upvalue, fn.NumUpvalues)}
}

// ObjKind implements value.Obj.
func (*Closure) ObjKind() value.ObjKind { return value.ObjClosure }

// Inspect implements value.Obj: a closure prints like its function.
func (c *Closure) Inspect() string { return c.Function.Inspect() }
