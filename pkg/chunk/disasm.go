package chunk

import (
	"fmt"
	"strings"

	"github.com/kristofer/embervm/pkg/value"
)

// Disassemble renders every instruction in c as one line per
// instruction, prefixed with name as a banner. It backs the
// -print-code debug flag; offsets strictly increase and cover
// [0, c.Count()).
func Disassemble(c *Chunk, name string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "== %s ==\n", name)
	for offset := 0; offset < c.Count(); {
		var line string
		line, offset = DisassembleInstruction(c, offset)
		b.WriteString(line)
		b.WriteByte('\n')
	}
	return b.String()
}

// DisassembleInstruction formats the single instruction at offset and
// returns the offset of the next instruction.
func DisassembleInstruction(c *Chunk, offset int) (string, int) {
	var b strings.Builder
	fmt.Fprintf(&b, "%04d ", offset)
	if offset > 0 && c.Lines[offset] == c.Lines[offset-1] {
		b.WriteString("   | ")
	} else {
		fmt.Fprintf(&b, "%4d ", c.Lines[offset])
	}

	op := OpCode(c.Code[offset])
	switch op {
	case OpConstant, OpGetGlobal, OpSetGlobal, OpDefineGlobal,
		OpGetProperty, OpSetProperty, OpGetSuper, OpClass, OpMethod:
		return constantInstruction(b.String(), c, op, offset)
	case OpGetLocal, OpSetLocal, OpGetUpvalue, OpSetUpvalue, OpCall:
		return byteInstruction(b.String(), op, c, offset)
	case OpJump, OpJumpIfFalse:
		return jumpInstruction(b.String(), op, 1, c, offset)
	case OpLoop:
		return jumpInstruction(b.String(), op, -1, c, offset)
	case OpInvoke, OpSuperInvoke:
		return invokeInstruction(b.String(), c, offset)
	case OpClosure:
		return closureInstruction(b.String(), c, offset)
	default:
		b.WriteString(op.String())
		return b.String(), offset + 1
	}
}

func simpleValue(c *Chunk, idx int) string {
	if idx < 0 || idx >= len(c.Constants) {
		return "<invalid>"
	}
	return value.Print(c.Constants[idx])
}

func constantInstruction(prefix string, c *Chunk, op OpCode, offset int) (string, int) {
	idx := c.Code[offset+1]
	return fmt.Sprintf("%s%-16s %4d '%s'", prefix, op, idx, simpleValue(c, int(idx))), offset + 2
}

func byteInstruction(prefix string, op OpCode, c *Chunk, offset int) (string, int) {
	slot := c.Code[offset+1]
	return fmt.Sprintf("%s%-16s %4d", prefix, op, slot), offset + 2
}

func jumpInstruction(prefix string, op OpCode, sign int, c *Chunk, offset int) (string, int) {
	jump := int(uint16(c.Code[offset+1])<<8 | uint16(c.Code[offset+2]))
	target := offset + 3 + sign*jump
	return fmt.Sprintf("%s%-16s %4d -> %d", prefix, op, offset, target), offset + 3
}

func invokeInstruction(prefix string, c *Chunk, offset int) (string, int) {
	constant := c.Code[offset+1]
	argCount := c.Code[offset+2]
	return fmt.Sprintf("%s%-16s (%d args) %4d '%s'", prefix, OpCode(c.Code[offset]), argCount, constant, simpleValue(c, int(constant))), offset + 3
}

func closureInstruction(prefix string, c *Chunk, offset int) (string, int) {
	offset++
	constant := c.Code[offset]
	offset++
	var b strings.Builder
	fmt.Fprintf(&b, "%s%-16s %4d '%s'", prefix, OpCode(c.Code[offset-2]), constant, simpleValue(c, int(constant)))

	fn, ok := c.Constants[constant].AsObj().(interface{ UpvalueCount() int })
	upvalueCount := 0
	if ok {
		upvalueCount = fn.UpvalueCount()
	}
	for j := 0; j < upvalueCount; j++ {
		isLocal := c.Code[offset]
		offset++
		index := c.Code[offset]
		offset++
		kind := "upvalue"
		if isLocal != 0 {
			kind = "local"
		}
		fmt.Fprintf(&b, " (%s %d)", kind, index)
	}
	return b.String(), offset
}
