package gc

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kristofer/embervm/pkg/object"
	"github.com/kristofer/embervm/pkg/value"
)

func TestNewStringInterns(t *testing.T) {
	g := New(false, zerolog.Nop())
	a := g.NewString("hello")
	b := g.NewString("hello")
	assert.Same(t, a, b)

	c := g.NewString("world")
	assert.NotSame(t, a, c)
}

func TestCollectSweepsUnreachableString(t *testing.T) {
	g := New(false, zerolog.Nop())
	g.NewString("garbage")

	before := g.bytesAllocated
	g.Collect()
	assert.Less(t, g.bytesAllocated, before)
}

func TestCollectKeepsRootedObjects(t *testing.T) {
	g := New(false, zerolog.Nop())
	keep := g.NewString("kept")
	root := &fakeRoot{obj: keep}
	g.AddRoot(root)

	g.Collect()

	found := g.strings.FindString("kept", object.HashString("kept"))
	require.NotNil(t, found)
	assert.Same(t, keep, found)
}

func TestRemoveRootStopsTracing(t *testing.T) {
	g := New(false, zerolog.Nop())
	kept := g.NewString("transient")
	root := &fakeRoot{obj: kept}
	g.AddRoot(root)
	g.RemoveRoot(root)

	g.Collect()

	assert.Nil(t, g.strings.FindString("transient", object.HashString("transient")))
}

func TestStressModeCollectsOnEveryAllocation(t *testing.T) {
	g := New(true, zerolog.Nop())
	a := g.NewString("alpha")
	b := g.NewString("beta")
	assert.NotEqual(t, a.Chars, b.Chars)
}

func TestInitStringIsInterned(t *testing.T) {
	g := New(false, zerolog.Nop())
	again := g.NewString("init")
	assert.Same(t, g.InitString(), again)
}

type fakeRoot struct {
	obj value.Obj
}

func (f *fakeRoot) MarkRoots(g *GC) {
	g.MarkObject(f.obj)
}
