package object

import (
	"github.com/kristofer/embervm/pkg/chunk"
	"github.com/kristofer/embervm/pkg/value"
)

// Function is a compiled function body: its arity, the number of
// upvalues its closures must capture, its bytecode Chunk, and an
// optional name (nil for the implicit top-level script).
type Function struct {
	Header
	Arity       int
	NumUpvalues int
	Chunk       *chunk.Chunk
	Name        *String
}

// NewFunction allocates a bare Function ready for the compiler to
// emit into via Chunk.
func NewFunction() *Function {
	return &Function{Chunk: chunk.New()}
}

// ObjKind implements value.Obj.
func (*Function) ObjKind() value.ObjKind { return value.ObjFunction }

// UpvalueCount reports how many upvalues closures over this function
// must capture. Exposed as a method (rather than a bare field read)
// so pkg/chunk's disassembler can introspect OP_CLOSURE operands
// through a narrow structural interface without importing pkg/object.
func (f *Function) UpvalueCount() int { return f.NumUpvalues }

// Inspect implements value.Obj: "<script>" for the unnamed top-level
// function, "<fn NAME>" otherwise.
func (f *Function) Inspect() string {
	if f.Name == nil {
		return "<script>"
	}
	return "<fn " + f.Name.Chars + ">"
}
