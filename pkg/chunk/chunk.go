// Package chunk implements the bytecode container: a growable byte
// array of opcodes and operands, a parallel per-byte line table, and
// a constant pool addressed by a single byte (so a chunk holds at
// most 256 constants).
package chunk

import "github.com/kristofer/embervm/pkg/value"

// OpCode is a single bytecode instruction tag.
type OpCode byte

const (
	OpConstant OpCode = iota
	OpNil
	OpTrue
	OpFalse
	OpPop
	OpGetLocal
	OpSetLocal
	OpGetGlobal
	OpSetGlobal
	OpDefineGlobal
	OpGetUpvalue
	OpSetUpvalue
	OpGetProperty
	OpSetProperty
	OpGetSuper
	OpEqual
	OpGreater
	OpLess
	OpAdd
	OpSubtract
	OpMultiply
	OpDivide
	OpNot
	OpNegate
	OpPrint
	OpJump
	OpJumpIfFalse
	OpLoop
	OpCall
	OpInvoke
	OpSuperInvoke
	OpClosure
	OpCloseUpvalue
	OpReturn
	OpClass
	OpInherit
	OpMethod
)

// opNames mirrors the OpCode order above; used by the disassembler.
var opNames = [...]string{
	OpConstant:      "OP_CONSTANT",
	OpNil:           "OP_NIL",
	OpTrue:          "OP_TRUE",
	OpFalse:         "OP_FALSE",
	OpPop:           "OP_POP",
	OpGetLocal:      "OP_GET_LOCAL",
	OpSetLocal:      "OP_SET_LOCAL",
	OpGetGlobal:     "OP_GET_GLOBAL",
	OpSetGlobal:     "OP_SET_GLOBAL",
	OpDefineGlobal:  "OP_DEFINE_GLOBAL",
	OpGetUpvalue:    "OP_GET_UPVALUE",
	OpSetUpvalue:    "OP_SET_UPVALUE",
	OpGetProperty:   "OP_GET_PROPERTY",
	OpSetProperty:   "OP_SET_PROPERTY",
	OpGetSuper:      "OP_GET_SUPER",
	OpEqual:         "OP_EQUAL",
	OpGreater:       "OP_GREATER",
	OpLess:          "OP_LESS",
	OpAdd:           "OP_ADD",
	OpSubtract:      "OP_SUBTRACT",
	OpMultiply:      "OP_MULTIPLY",
	OpDivide:        "OP_DIVIDE",
	OpNot:           "OP_NOT",
	OpNegate:        "OP_NEGATE",
	OpPrint:         "OP_PRINT",
	OpJump:          "OP_JUMP",
	OpJumpIfFalse:   "OP_JUMP_IF_FALSE",
	OpLoop:          "OP_LOOP",
	OpCall:          "OP_CALL",
	OpInvoke:        "OP_INVOKE",
	OpSuperInvoke:   "OP_SUPER_INVOKE",
	OpClosure:       "OP_CLOSURE",
	OpCloseUpvalue:  "OP_CLOSE_UPVALUE",
	OpReturn:        "OP_RETURN",
	OpClass:         "OP_CLASS",
	OpInherit:       "OP_INHERIT",
	OpMethod:        "OP_METHOD",
}

// String returns the opcode's mnemonic, used by the disassembler and
// by -trace execution output.
func (op OpCode) String() string {
	if int(op) < len(opNames) && opNames[op] != "" {
		return opNames[op]
	}
	return "OP_UNKNOWN"
}

// maxConstants is the hard limit of a chunk's constant pool: constants
// are addressed by a single operand byte.
const maxConstants = 256

// Chunk is one compiled function's bytecode: a flat byte stream, a
// same-length line table (one source line per byte), and a constant
// pool.
type Chunk struct {
	Code      []byte
	Lines     []int
	Constants []value.Value
}

// New returns an empty Chunk.
func New() *Chunk {
	return &Chunk{}
}

// Write appends one byte (an opcode or an operand byte) tagged with
// the source line it came from.
func (c *Chunk) Write(b byte, line int) {
	c.Code = append(c.Code, b)
	c.Lines = append(c.Lines, line)
}

// WriteOp appends an opcode byte.
func (c *Chunk) WriteOp(op OpCode, line int) {
	c.Write(byte(op), line)
}

// AddConstant appends v to the constant pool and returns its index.
// Returns false if the pool is already full (256 entries) — the
// caller (the compiler) turns that into a compile error.
func (c *Chunk) AddConstant(v value.Value) (int, bool) {
	if len(c.Constants) >= maxConstants {
		return 0, false
	}
	c.Constants = append(c.Constants, v)
	return len(c.Constants) - 1, true
}

// Count returns the number of bytes emitted so far.
func (c *Chunk) Count() int { return len(c.Code) }
