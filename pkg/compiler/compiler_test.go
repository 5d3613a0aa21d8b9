package compiler

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kristofer/embervm/pkg/chunk"
	"github.com/kristofer/embervm/pkg/gc"
	"github.com/rs/zerolog"
)

func compileOK(t *testing.T, source string) *chunkAndErr {
	t.Helper()
	heap := gc.New(false, zerolog.Nop())
	var errOut strings.Builder
	fn, ok := Compile(source, heap, &errOut, false)
	require.True(t, ok, "expected compile success, got errors:\n%s", errOut.String())
	return &chunkAndErr{chunk: fn.Chunk, errOut: errOut.String()}
}

type chunkAndErr struct {
	chunk  *chunk.Chunk
	errOut string
}

func opsOf(c *chunk.Chunk) []chunk.OpCode {
	var ops []chunk.OpCode
	for offset := 0; offset < c.Count(); {
		op := chunk.OpCode(c.Code[offset])
		ops = append(ops, op)
		_, next := chunk.DisassembleInstruction(c, offset)
		offset = next
	}
	return ops
}

func TestCompileNumberLiteral(t *testing.T) {
	cx := compileOK(t, "1;")
	ops := opsOf(cx.chunk)
	assert.Equal(t, []chunk.OpCode{chunk.OpConstant, chunk.OpPop, chunk.OpNil, chunk.OpReturn}, ops)
}

func TestCompileStringLiteralInterns(t *testing.T) {
	heap := gc.New(false, zerolog.Nop())
	var errOut strings.Builder
	fn, ok := Compile(`"hi";`, heap, &errOut, false)
	require.True(t, ok)
	require.Len(t, fn.Chunk.Constants, 1)
	assert.Equal(t, "hi", fn.Chunk.Constants[0].AsObj().Inspect())
}

func TestCompileGlobalVarDeclaration(t *testing.T) {
	cx := compileOK(t, "var x = 1;")
	ops := opsOf(cx.chunk)
	assert.Equal(t, []chunk.OpCode{chunk.OpConstant, chunk.OpDefineGlobal, chunk.OpNil, chunk.OpReturn}, ops)
}

func TestCompileLocalVarNoGlobalOp(t *testing.T) {
	cx := compileOK(t, "{ var x = 1; print x; }")
	ops := opsOf(cx.chunk)
	for _, op := range ops {
		assert.NotEqual(t, chunk.OpDefineGlobal, op)
	}
	assert.Contains(t, ops, chunk.OpGetLocal)
}

func TestCompileReadOwnInitializerError(t *testing.T) {
	heap := gc.New(false, zerolog.Nop())
	var errOut strings.Builder
	_, ok := Compile("{ var a = a; }", heap, &errOut, false)
	assert.False(t, ok)
	assert.Contains(t, errOut.String(), "Can't read local variable in its own initializer.")
}

func TestCompileDuplicateLocalError(t *testing.T) {
	heap := gc.New(false, zerolog.Nop())
	var errOut strings.Builder
	_, ok := Compile("{ var a = 1; var a = 2; }", heap, &errOut, false)
	assert.False(t, ok)
	assert.Contains(t, errOut.String(), "Already a variable with this name in this scope.")
}

func TestCompileClosureCapturesUpvalue(t *testing.T) {
	source := `
fun outer() {
  var x = 1;
  fun inner() { return x; }
  return inner;
}
`
	cx := compileOK(t, source)
	ops := opsOf(cx.chunk)
	assert.Contains(t, ops, chunk.OpClosure)
}

func TestCompileClassAndMethod(t *testing.T) {
	source := `
class Greeter {
  init(name) { this.name = name; }
  greet() { return this.name; }
}
`
	cx := compileOK(t, source)
	ops := opsOf(cx.chunk)
	assert.Contains(t, ops, chunk.OpClass)
	assert.Contains(t, ops, chunk.OpMethod)
}

func TestCompileInheritanceEmitsInherit(t *testing.T) {
	source := `
class Animal { speak() { return "..."; } }
class Dog < Animal {}
`
	cx := compileOK(t, source)
	ops := opsOf(cx.chunk)
	assert.Contains(t, ops, chunk.OpInherit)
}

func TestCompileSelfInheritanceError(t *testing.T) {
	heap := gc.New(false, zerolog.Nop())
	var errOut strings.Builder
	_, ok := Compile("class Oops < Oops {}", heap, &errOut, false)
	assert.False(t, ok)
	assert.Contains(t, errOut.String(), "A class can't inherit from itself.")
}

func TestCompileInvokeFastPath(t *testing.T) {
	source := `
class Greeter { greet() { return "hi"; } }
var g = Greeter();
g.greet();
`
	cx := compileOK(t, source)
	ops := opsOf(cx.chunk)
	assert.Contains(t, ops, chunk.OpInvoke)
}

func TestCompileReturnOutsideFunctionError(t *testing.T) {
	heap := gc.New(false, zerolog.Nop())
	var errOut strings.Builder
	_, ok := Compile("return 1;", heap, &errOut, false)
	assert.False(t, ok)
	assert.Contains(t, errOut.String(), "Can't return from top-level code.")
}

func TestCompileThisOutsideClassError(t *testing.T) {
	heap := gc.New(false, zerolog.Nop())
	var errOut strings.Builder
	_, ok := Compile("print this;", heap, &errOut, false)
	assert.False(t, ok)
	assert.Contains(t, errOut.String(), "Can't use 'this' outside of a class.")
}

func TestCompileSuperOutsideClassError(t *testing.T) {
	heap := gc.New(false, zerolog.Nop())
	var errOut strings.Builder
	_, ok := Compile("super.foo();", heap, &errOut, false)
	assert.False(t, ok)
	assert.Contains(t, errOut.String(), "Can't use 'super' outside of a class.")
}
