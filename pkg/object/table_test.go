package object

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kristofer/embervm/pkg/value"
)

func internedPair(chars string) *String {
	return &String{Chars: chars, Hash: HashString(chars)}
}

func TestTableSetGetDelete(t *testing.T) {
	tbl := NewTable()
	key := internedPair("name")

	_, ok := tbl.Get(key)
	assert.False(t, ok)

	isNew := tbl.Set(key, value.NumberValue(42))
	assert.True(t, isNew)

	val, ok := tbl.Get(key)
	assert.True(t, ok)
	assert.Equal(t, float64(42), val.AsNumber())

	isNew = tbl.Set(key, value.NumberValue(43))
	assert.False(t, isNew)

	assert.True(t, tbl.Delete(key))
	_, ok = tbl.Get(key)
	assert.False(t, ok)
}

func TestTableGrowsAndKeepsAllEntries(t *testing.T) {
	tbl := NewTable()
	keys := make([]*String, 0, 64)
	for i := 0; i < 64; i++ {
		k := internedPair(string(rune('a' + i%26)) + string(rune(i)))
		keys = append(keys, k)
		tbl.Set(k, value.NumberValue(float64(i)))
	}
	for i, k := range keys {
		val, ok := tbl.Get(k)
		assert.True(t, ok)
		assert.Equal(t, float64(i), val.AsNumber())
	}
}

func TestTableFindStringByContent(t *testing.T) {
	tbl := NewTable()
	key := internedPair("hello")
	tbl.Set(key, value.NilValue)

	found := tbl.FindString("hello", HashString("hello"))
	assert.Same(t, key, found)

	assert.Nil(t, tbl.FindString("goodbye", HashString("goodbye")))
}

func TestTableRemoveWhiteDropsUnmarked(t *testing.T) {
	tbl := NewTable()
	marked := internedPair("keep")
	unmarked := internedPair("drop")
	tbl.Set(marked, value.NilValue)
	tbl.Set(unmarked, value.NilValue)

	tbl.RemoveWhite(func(s *String) bool { return s == marked })

	_, ok := tbl.Get(marked)
	assert.True(t, ok)
	_, ok = tbl.Get(unmarked)
	assert.False(t, ok)
}

func TestTableEachVisitsEveryLiveEntry(t *testing.T) {
	tbl := NewTable()
	a := internedPair("a")
	b := internedPair("b")
	tbl.Set(a, value.NumberValue(1))
	tbl.Set(b, value.NumberValue(2))

	seen := map[string]float64{}
	tbl.Each(func(key *String, v value.Value) {
		seen[key.Chars] = v.AsNumber()
	})
	assert.Equal(t, map[string]float64{"a": 1, "b": 2}, seen)
}
