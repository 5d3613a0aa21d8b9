package object

import "github.com/kristofer/embervm/pkg/value"

// Instance is a runtime object: a reference to the Class it was
// constructed from and a Table of its own fields, keyed by interned
// field-name Strings.
type Instance struct {
	Header
	Class  *Class
	Fields *Table
}

// NewInstance allocates a new, fieldless Instance of class.
func NewInstance(class *Class) *Instance {
	return &Instance{Class: class, Fields: NewTable()}
}

// ObjKind implements value.Obj.
func (*Instance) ObjKind() value.ObjKind { return value.ObjInstance }

// Inspect implements value.Obj, printing "NAME instance".
func (i *Instance) Inspect() string { return i.Class.Name.Chars + " instance" }
