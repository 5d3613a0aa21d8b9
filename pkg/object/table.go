package object

import "github.com/kristofer/embervm/pkg/value"

const (
	initialTableCapacity = 8
	tableMaxLoad         = 0.75
)

// entry is one slot in a Table: an empty entry has a nil Key and a
// Nil Value; a tombstone has a nil Key and a Bool(true) Value. Keys
// are always *String, so keyed lookups in Get/Set/Delete compare by
// pointer identity — cheap, and correct because every String reaching
// a Table is already canonical (interned).
type entry struct {
	Key   *String
	Value value.Value
}

// Table is an open-addressed, linear-probing hash table: it backs
// string interning, VM globals, class method tables, and instance
// field tables.
type Table struct {
	count   int // occupied slots, INCLUDING tombstones
	entries []entry
}

// NewTable returns an empty Table. Storage is allocated lazily on
// first insert.
func NewTable() *Table {
	return &Table{}
}

// Count returns the number of occupied slots, tombstones included.
func (t *Table) Count() int { return t.count }

// Get looks up key and reports whether it was present.
func (t *Table) Get(key *String) (value.Value, bool) {
	if len(t.entries) == 0 {
		return value.NilValue, false
	}
	e := t.findEntry(t.entries, key)
	if e.Key == nil {
		return value.NilValue, false
	}
	return e.Value, true
}

// Set stores val under key, growing the table first if the load
// factor would exceed 0.75. Reports true iff key was not already
// present, whether it went into an empty slot or reused a tombstone.
func (t *Table) Set(key *String, val value.Value) bool {
	if float64(t.count+1) > float64(len(t.entries))*tableMaxLoad {
		t.grow()
	}
	e := t.findEntry(t.entries, key)
	isNewKey := e.Key == nil
	if isNewKey && e.Value.IsNil() {
		t.count++
	}
	e.Key = key
	e.Value = val
	return isNewKey
}

// Delete writes a tombstone over key's entry, if present.
func (t *Table) Delete(key *String) bool {
	if t.count == 0 {
		return false
	}
	e := t.findEntry(t.entries, key)
	if e.Key == nil {
		return false
	}
	e.Key = nil
	e.Value = value.BoolValue(true)
	return true
}

// FindString probes the table by content rather than by pointer: it
// is the operation the intern layer uses to discover whether a
// freshly-scanned string already has a canonical String object.
// Empty slots terminate the probe; tombstones do not.
func (t *Table) FindString(chars string, hash uint32) *String {
	if len(t.entries) == 0 {
		return nil
	}
	mask := uint32(len(t.entries) - 1)
	index := hash & mask
	for {
		e := &t.entries[index]
		if e.Key == nil {
			if e.Value.IsNil() {
				return nil
			}
		} else if e.Key.Hash == hash && e.Key.Chars == chars {
			return e.Key
		}
		index = (index + 1) & mask
	}
}

// RemoveWhite deletes every entry whose key is not reported marked by
// isMarked. Called between the GC's mark and sweep phases so unmarked
// (unreachable) interned strings can be freed in the same cycle.
func (t *Table) RemoveWhite(isMarked func(*String) bool) {
	for i := range t.entries {
		e := &t.entries[i]
		if e.Key != nil && !isMarked(e.Key) {
			t.Delete(e.Key)
		}
	}
}

// Each calls fn for every live (key, value) pair. Used by the GC's
// mark phase to mark every key and value reachable through a Table.
func (t *Table) Each(fn func(key *String, val value.Value)) {
	for _, e := range t.entries {
		if e.Key != nil {
			fn(e.Key, e.Value)
		}
	}
}

func (t *Table) findEntry(entries []entry, key *String) *entry {
	mask := uint32(len(entries) - 1)
	index := key.Hash & mask
	var tombstone *entry
	for {
		e := &entries[index]
		switch {
		case e.Key == nil:
			if e.Value.IsNil() {
				if tombstone != nil {
					return tombstone
				}
				return e
			}
			if tombstone == nil {
				tombstone = e
			}
		case e.Key == key:
			return e
		}
		index = (index + 1) & mask
	}
}

func (t *Table) grow() {
	newCap := initialTableCapacity
	if len(t.entries) > 0 {
		newCap = len(t.entries) * 2
	}
	newEntries := make([]entry, newCap)
	newCount := 0
	for _, e := range t.entries {
		if e.Key == nil {
			continue
		}
		dst := t.findEntry(newEntries, e.Key)
		dst.Key = e.Key
		dst.Value = e.Value
		newCount++
	}
	t.entries = newEntries
	t.count = newCount
}
