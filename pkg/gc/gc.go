// Package gc implements the heap: allocation of every object.Obj
// kind, the string intern table, and a tri-color mark-and-sweep
// collector.
//
// Go's own runtime already manages the memory behind each object, so
// this package does not call a manual reallocate/free pair — there is
// no malloc to wrap. What it reproduces faithfully is the part that is
// actually observable and testable: an explicit mark bit per object,
// an explicit gray worklist, an explicit heap-size budget that
// triggers a collection and grows by HeapGrowFactor afterward, and an
// explicit sweep that drops references to unreached objects so the
// *Go* GC can reclaim them. Roots are supplied by VMs and by the
// compiler's per-function state registering themselves as
// RootProvider — including mid-compile, since each function being
// compiled stays registered until its compilation ends.
package gc

import (
	"github.com/rs/zerolog"

	"github.com/kristofer/embervm/pkg/object"
	"github.com/kristofer/embervm/pkg/value"
)

// HeapGrowFactor is the multiplier applied to bytesAllocated after a
// collection to compute the next collection threshold.
const HeapGrowFactor = 2

// initialNextGC is the first heap-size budget, chosen so a handful of
// allocations don't immediately trigger a collection.
const initialNextGC = 1 << 20

// Traceable is satisfied automatically by every object.* kind, since
// each embeds object.Header: it is the GC's view of a heap object —
// mark bit plus the all-objects singly-linked list.
type Traceable interface {
	value.Obj
	IsMarked() bool
	Mark()
	Unmark()
	Next() value.Obj
	SetNext(value.Obj)
	Size() int
	SetSize(int)
}

// RootProvider is implemented by anything the GC must trace as a root
// set: the VM (stack, frames, open upvalues, globals) and the
// Compiler (the function(s) currently being compiled, reachable only
// from the compiler's own state while they are mid-construction).
type RootProvider interface {
	MarkRoots(gc *GC)
}

// GC owns the heap: the all-objects list, the string intern table,
// byte-budget bookkeeping, and the gray worklist used during a
// collection.
type GC struct {
	objects value.Obj
	strings *object.Table

	bytesAllocated int
	nextGC         int
	stress         bool

	gray []value.Obj

	roots      []RootProvider
	initString *object.String

	log zerolog.Logger
}

// New creates an empty heap. stress, when true, forces a collection
// before every allocation (the "stress GC" debug flag) — used to test
// that a collection never changes a program's observable behavior.
func New(stress bool, logger zerolog.Logger) *GC {
	g := &GC{
		strings: object.NewTable(),
		nextGC:  initialNextGC,
		stress:  stress,
		log:     logger,
	}
	g.initString = g.NewString("init")
	return g
}

// InitString returns the interned "init" string used by the VM's fast
// initializer lookup.
func (g *GC) InitString() *object.String { return g.initString }

// AddRoot registers p so MarkRoots(g) is called on it during every
// collection. The compiler calls this on entry to a new function
// scope; the VM calls it once at construction.
func (g *GC) AddRoot(p RootProvider) {
	g.roots = append(g.roots, p)
}

// RemoveRoot unregisters p — called when a Compiler finishes
// compiling a function and pops back to its enclosing compiler.
func (g *GC) RemoveRoot(p RootProvider) {
	for i, r := range g.roots {
		if r == p {
			g.roots = append(g.roots[:i], g.roots[i+1:]...)
			return
		}
	}
}

// track links obj into the all-objects list and charges size against
// the heap budget, collecting first if the budget (or stress mode)
// demands it.
func (g *GC) track(obj Traceable, size int) {
	if g.stress || g.bytesAllocated+size > g.nextGC {
		g.Collect()
	}
	obj.SetNext(g.objects)
	obj.SetSize(size)
	g.objects = obj
	g.bytesAllocated += size
	g.log.Debug().Str("kind", kindName(obj.ObjKind())).Int("size", size).Msg("alloc")
}

func kindName(k value.ObjKind) string {
	switch k {
	case value.ObjString:
		return "string"
	case value.ObjFunction:
		return "function"
	case value.ObjNative:
		return "native"
	case value.ObjClosure:
		return "closure"
	case value.ObjUpvalue:
		return "upvalue"
	case value.ObjClass:
		return "class"
	case value.ObjInstance:
		return "instance"
	case value.ObjBoundMethod:
		return "bound_method"
	default:
		return "unknown"
	}
}
