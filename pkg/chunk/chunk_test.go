package chunk

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kristofer/embervm/pkg/value"
)

func TestWriteAndCount(t *testing.T) {
	c := New()
	c.WriteOp(OpNil, 1)
	c.WriteOp(OpReturn, 1)
	assert.Equal(t, 2, c.Count())
	assert.Equal(t, []int{1, 1}, c.Lines)
}

func TestAddConstantRespectsLimit(t *testing.T) {
	c := New()
	for i := 0; i < 256; i++ {
		idx, ok := c.AddConstant(value.NumberValue(float64(i)))
		require.True(t, ok)
		assert.Equal(t, i, idx)
	}
	_, ok := c.AddConstant(value.NumberValue(999))
	assert.False(t, ok)
}

func TestOpCodeStringMnemonics(t *testing.T) {
	assert.Equal(t, "OP_CONSTANT", OpConstant.String())
	assert.Equal(t, "OP_RETURN", OpReturn.String())
	assert.Equal(t, "OP_UNKNOWN", OpCode(255).String())
}

func TestDisassembleConstantInstruction(t *testing.T) {
	c := New()
	idx, _ := c.AddConstant(value.NumberValue(7))
	c.WriteOp(OpConstant, 3)
	c.Write(byte(idx), 3)
	c.WriteOp(OpReturn, 3)

	out := Disassemble(c, "test")
	assert.True(t, strings.Contains(out, "== test =="))
	assert.True(t, strings.Contains(out, "OP_CONSTANT"))
	assert.True(t, strings.Contains(out, "'7'"))
}

func TestDisassembleInstructionAdvancesOffset(t *testing.T) {
	c := New()
	c.WriteOp(OpNil, 1)
	c.WriteOp(OpReturn, 1)

	_, next := DisassembleInstruction(c, 0)
	assert.Equal(t, 1, next)
	_, next = DisassembleInstruction(c, next)
	assert.Equal(t, 2, next)
}

func TestDisassembleJumpInstruction(t *testing.T) {
	c := New()
	c.WriteOp(OpJumpIfFalse, 1)
	c.Write(0, 1)
	c.Write(5, 1)

	line, next := DisassembleInstruction(c, 0)
	assert.True(t, strings.Contains(line, "OP_JUMP_IF_FALSE"))
	assert.Equal(t, 3, next)
}

func TestDisassembleSameLineOmitsRepeat(t *testing.T) {
	c := New()
	c.WriteOp(OpNil, 1)
	c.WriteOp(OpTrue, 1)
	out := Disassemble(c, "lines")
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.Contains(lines[2], "|"))
}
