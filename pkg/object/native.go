package object

import "github.com/kristofer/embervm/pkg/value"

// NativeFn is a host function exposed to embervm programs. It
// receives the argument slice (receiver-less) and returns a Value or
// an error, which the VM turns into a runtime error.
type NativeFn func(args []value.Value) (value.Value, error)

// Native wraps a Go function so it can be called like any other
// callable from embervm code.
type Native struct {
	Header
	Name string
	Fn   NativeFn
}

// ObjKind implements value.Obj.
func (*Native) ObjKind() value.ObjKind { return value.ObjNative }

// Inspect implements value.Obj.
func (*Native) Inspect() string { return "<native fn>" }
