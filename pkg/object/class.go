package object

import "github.com/kristofer/embervm/pkg/value"

// Class is a runtime class object: a name and a method table mapping
// interned selector Strings to Closures. Single
// inheritance is modeled by copying the superclass's method table
// into the subclass's at OP_INHERIT time, so method lookup at a call
// site never has to walk a superclass chain.
type Class struct {
	Header
	Name    *String
	Methods *Table
}

// NewClass allocates an empty class named name.
func NewClass(name *String) *Class {
	return &Class{Name: name, Methods: NewTable()}
}

// ObjKind implements value.Obj.
func (*Class) ObjKind() value.ObjKind { return value.ObjClass }

// Inspect implements value.Obj: a class prints as its name.
func (c *Class) Inspect() string { return c.Name.Chars }
