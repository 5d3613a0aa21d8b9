package object

import "github.com/kristofer/embervm/pkg/value"

// BoundMethod pairs a receiver Value with the Closure looked up on
// its class, produced by OP_GET_PROPERTY when the property named a
// method rather than a field. Calling it replaces the
// callee slot with Receiver and dispatches Method like any other
// closure call.
type BoundMethod struct {
	Header
	Receiver value.Value
	Method   *Closure
}

// NewBoundMethod allocates a BoundMethod.
func NewBoundMethod(receiver value.Value, method *Closure) *BoundMethod {
	return &BoundMethod{Receiver: receiver, Method: method}
}

// ObjKind implements value.Obj.
func (*BoundMethod) ObjKind() value.ObjKind { return value.ObjBoundMethod }

// Inspect implements value.Obj: a bound method prints like its
// underlying closure.
func (b *BoundMethod) Inspect() string { return b.Method.Inspect() }
