package gc

import (
	"reflect"

	"github.com/kristofer/embervm/pkg/object"
	"github.com/kristofer/embervm/pkg/value"
)

// Collect runs one full mark-and-sweep cycle: mark every registered
// root (and the interned "init" string), blacken the gray worklist
// until it drains, drop weakly-held intern-table entries for strings
// that turned out unreachable, then sweep the all-objects list.
func (g *GC) Collect() {
	g.log.Debug().Int("bytesAllocated", g.bytesAllocated).Msg("gc begin")

	for _, root := range g.roots {
		root.MarkRoots(g)
	}
	g.MarkObject(g.initString)

	for len(g.gray) > 0 {
		obj := g.gray[len(g.gray)-1]
		g.gray = g.gray[:len(g.gray)-1]
		g.blacken(obj)
	}

	g.strings.RemoveWhite(func(s *object.String) bool { return s.IsMarked() })

	g.sweep()

	g.nextGC = g.bytesAllocated * HeapGrowFactor
	g.log.Debug().Int("bytesAllocated", g.bytesAllocated).Int("nextGC", g.nextGC).Msg("gc end")
}

// MarkValue marks v's underlying object, if it holds one.
func (g *GC) MarkValue(v value.Value) {
	if v.IsObj() {
		g.MarkObject(v.AsObj())
	}
}

// MarkObject marks obj gray: sets its mark bit and pushes it onto the
// worklist for blacken to scan later. A nil or already-marked object
// is a no-op, which is what makes cyclic structures safe to mark.
func (g *GC) MarkObject(obj value.Obj) {
	if obj == nil || reflect.ValueOf(obj).IsNil() {
		return
	}
	t, ok := obj.(Traceable)
	if !ok || t.IsMarked() {
		return
	}
	t.Mark()
	g.gray = append(g.gray, obj)
}

// blacken marks every object obj itself references.
func (g *GC) blacken(obj value.Obj) {
	switch o := obj.(type) {
	case *object.String, *object.Native:
		// no outgoing references
	case *object.Function:
		g.MarkObject(o.Name)
		for _, c := range o.Chunk.Constants {
			g.MarkValue(c)
		}
	case *object.Closure:
		g.MarkObject(o.Function)
		for _, uv := range o.Upvalues {
			g.MarkObject(uv)
		}
	case *object.Upvalue:
		g.MarkValue(o.Closed)
	case *object.Class:
		g.MarkObject(o.Name)
		o.Methods.Each(func(key *object.String, v value.Value) {
			g.MarkObject(key)
			g.MarkValue(v)
		})
	case *object.Instance:
		g.MarkObject(o.Class)
		o.Fields.Each(func(key *object.String, v value.Value) {
			g.MarkObject(key)
			g.MarkValue(v)
		})
	case *object.BoundMethod:
		g.MarkValue(o.Receiver)
		g.MarkObject(o.Method)
	}
}

// sweep walks the all-objects list, dropping any object whose mark
// bit was never set this cycle (so the Go runtime can reclaim it) and
// clearing the mark bit on every survivor.
func (g *GC) sweep() {
	var prev Traceable
	obj := g.objects
	for obj != nil {
		t := obj.(Traceable)
		next := t.Next()
		if t.IsMarked() {
			t.Unmark()
			prev = t
		} else {
			if prev == nil {
				g.objects = next
			} else {
				prev.SetNext(next)
			}
			g.bytesAllocated -= t.Size()
		}
		obj = next
	}
}
