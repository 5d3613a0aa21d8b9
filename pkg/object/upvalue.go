package object

import "github.com/kristofer/embervm/pkg/value"

// Upvalue is a captured variable shared between a closure and the
// stack slot it closed over. While open, Location
// points directly at the live stack slot so sibling closures created
// in the same scope observe each other's writes; closeUpvalues moves
// the value into Closed and redirects Location to point at it.
//
// The VM threads every open Upvalue into a single list ordered by
// descending stack address (Next), which is how captureUpvalue finds
// an existing Upvalue to share instead of creating a duplicate.
type Upvalue struct {
	Header
	Location *value.Value
	Closed   value.Value
	Next     *Upvalue
}

// NewUpvalue allocates an open Upvalue pointing at slot.
func NewUpvalue(slot *value.Value) *Upvalue {
	return &Upvalue{Location: slot}
}

// ObjKind implements value.Obj.
func (*Upvalue) ObjKind() value.ObjKind { return value.ObjUpvalue }

// Inspect implements value.Obj.
func (*Upvalue) Inspect() string { return "upvalue" }

// Close moves the current value out of the stack slot and into the
// Upvalue's own storage, then repoints Location at it. After Close,
// the Upvalue no longer depends on the stack slot staying alive.
func (u *Upvalue) Close() {
	u.Closed = *u.Location
	u.Location = &u.Closed
}
