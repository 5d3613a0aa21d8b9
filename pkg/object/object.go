// Package object implements the heap object kinds that back
// value.ObjRef values: strings, functions, closures, upvalues,
// classes, instances, and bound methods, plus the open-addressed
// Table used for string interning, globals, class method tables, and
// instance fields.
//
// Every kind embeds Header, which carries the mark bit and the
// singly-linked all-objects pointer the GC needs to sweep the heap.
// Allocation itself lives in pkg/gc — this package only defines
// shapes and their Inspect/ObjKind behavior.
package object

import "github.com/kristofer/embervm/pkg/value"

// Header is the common heap-object prologue: a mark bit and a link
// to the next object ever allocated. It is
// embedded (never referenced directly) by every concrete Obj kind, so
// each kind automatically satisfies gc.Traceable via method
// promotion.
type Header struct {
	marked bool
	next   value.Obj
	size   int
}

// IsMarked reports whether the GC has reached this object in the
// current mark phase.
func (h *Header) IsMarked() bool { return h.marked }

// Mark sets the mark bit.
func (h *Header) Mark() { h.marked = true }

// Unmark clears the mark bit; called by sweep on every surviving
// object so the bit is white again for the next cycle.
func (h *Header) Unmark() { h.marked = false }

// Next returns the next object in the all-objects allocation list.
func (h *Header) Next() value.Obj { return h.next }

// SetNext links this object to the next one in the all-objects list.
func (h *Header) SetNext(o value.Obj) { h.next = o }

// Size returns the byte count charged against the heap budget when
// this object was allocated.
func (h *Header) Size() int { return h.size }

// SetSize records the byte count charged against the heap budget;
// called once by pkg/gc at allocation time.
func (h *Header) SetSize(n int) { h.size = n }
