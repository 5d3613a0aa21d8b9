package object

import "github.com/kristofer/embervm/pkg/value"

// String is an interned, immutable byte string. Two live Strings are
// never byte-equal — the intern table guarantees that every distinct
// text has exactly one canonical String, which is what lets Value
// equality use pointer identity for strings.
type String struct {
	Header
	Chars string
	Hash  uint32
}

// ObjKind implements value.Obj.
func (*String) ObjKind() value.ObjKind { return value.ObjString }

// Inspect implements value.Obj: a string prints as its raw bytes.
func (s *String) Inspect() string { return s.Chars }

// HashString computes the FNV-1a hash used for every String, both at
// construction time and when probing the intern table for an existing
// canonical string.
func HashString(chars string) uint32 {
	var hash uint32 = 2166136261
	for i := 0; i < len(chars); i++ {
		hash ^= uint32(chars[i])
		hash *= 16777619
	}
	return hash
}
