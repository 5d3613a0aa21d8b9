// Package compiler implements a single-pass Pratt-style compiler: it
// scans tokens via pkg/lexer and emits pkg/chunk bytecode directly,
// with no intermediate AST. Scope resolution (locals, upvalue
// capture, class method binding) happens inline as tokens are
// consumed.
package compiler

import (
	"fmt"
	"io"

	"github.com/kristofer/embervm/pkg/chunk"
	"github.com/kristofer/embervm/pkg/gc"
	"github.com/kristofer/embervm/pkg/lexer"
	"github.com/kristofer/embervm/pkg/object"
	"github.com/kristofer/embervm/pkg/token"
	"github.com/kristofer/embervm/pkg/value"
)

const (
	maxLocals   = 256
	maxUpvalues = 256
	maxArgs     = 255
)

// funcType distinguishes the kind of function a funcCompiler is
// producing — it changes how slot 0 is named and what "return" means.
type funcType int

const (
	typeFunction funcType = iota
	typeInitializer
	typeMethod
	typeScript
)

// local is one entry in a funcCompiler's fixed-size locals array.
// depth is -1 between declaration and initializer completion, which
// is what makes `var a = a;` a compile error.
type local struct {
	name       string
	depth      int
	isCaptured bool
}

// upvalueRef records how a funcCompiler captures one upvalue: either
// directly from a local slot in the immediately enclosing function, or
// by forwarding an upvalue the enclosing function already captures.
type upvalueRef struct {
	index   byte
	isLocal bool
}

// funcCompiler holds all per-function compiler state: the
// object.Function being built, the locals/upvalues arrays, and a link
// to the enclosing funcCompiler. It implements gc.RootProvider so the
// GC can trace its in-progress Function even if a collection runs
// mid-compile.
type funcCompiler struct {
	enclosing *funcCompiler
	function  *object.Function
	fnType    funcType

	locals     []local
	upvalues   []upvalueRef
	scopeDepth int
}

// MarkRoots implements gc.RootProvider.
func (fc *funcCompiler) MarkRoots(g *gc.GC) {
	g.MarkObject(fc.function)
}

// classCompiler tracks the class currently being compiled, so `this`
// and `super` resolve correctly and nested class declarations restore
// the outer class on exit.
type classCompiler struct {
	enclosing     *classCompiler
	hasSuperclass bool
}

// Compiler is the whole single-pass compiling engine: token stream,
// parser error state, and the chain of funcCompiler/classCompiler
// scopes currently open.
type Compiler struct {
	heap *gc.GC
	lex  *lexer.Lexer

	previous token.Token
	current  token.Token

	hadError  bool
	panicMode bool
	errOut    io.Writer

	fc *funcCompiler
	cc *classCompiler

	printCode bool
}

// Compile compiles source into a top-level script Function. The
// second return value is false if any compile error occurred, in
// which case the Function should be discarded.
func Compile(source string, heap *gc.GC, errOut io.Writer, printCode bool) (*object.Function, bool) {
	c := &Compiler{heap: heap, lex: lexer.New(source), errOut: errOut, printCode: printCode}
	c.beginFunctionCompiler(typeScript, "")

	c.advance()
	for !c.match(token.EOF) {
		c.declaration()
	}
	c.consume(token.EOF, "Expect end of expression.")

	fn := c.endFunctionCompiler()
	return fn, !c.hadError
}

func (c *Compiler) beginFunctionCompiler(fnType funcType, name string) {
	fc := &funcCompiler{enclosing: c.fc, fnType: fnType, function: c.heap.NewFunction()}
	if name != "" {
		fc.function.Name = c.heap.NewString(name)
	}
	slotName := ""
	if fnType == typeMethod || fnType == typeInitializer {
		slotName = "this"
	}
	fc.locals = append(fc.locals, local{name: slotName, depth: 0})
	c.fc = fc
	c.heap.AddRoot(fc)
}

func (c *Compiler) endFunctionCompiler() *object.Function {
	c.emitReturn()
	fn := c.fc.function
	fn.NumUpvalues = len(c.fc.upvalues)

	if c.printCode && !c.hadError {
		name := "<script>"
		if fn.Name != nil {
			name = fn.Name.Chars
		}
		fmt.Fprint(c.errOut, chunk.Disassemble(fn.Chunk, name))
	}

	c.heap.RemoveRoot(c.fc)
	c.fc = c.fc.enclosing
	return fn
}

func (c *Compiler) currentChunk() *chunk.Chunk { return c.fc.function.Chunk }

// --- emission helpers ---

func (c *Compiler) emitByte(b byte) {
	c.currentChunk().Write(b, c.previous.Line)
}

func (c *Compiler) emitOp(op chunk.OpCode) {
	c.emitByte(byte(op))
}

func (c *Compiler) emitOpByte(op chunk.OpCode, operand byte) {
	c.emitOp(op)
	c.emitByte(operand)
}

func (c *Compiler) emitReturn() {
	if c.fc.fnType == typeInitializer {
		c.emitOpByte(chunk.OpGetLocal, 0)
	} else {
		c.emitOp(chunk.OpNil)
	}
	c.emitOp(chunk.OpReturn)
}

func (c *Compiler) emitConstant(v value.Value) {
	c.emitOpByte(chunk.OpConstant, c.makeConstant(v))
}

func (c *Compiler) makeConstant(v value.Value) byte {
	idx, ok := c.currentChunk().AddConstant(v)
	if !ok {
		c.errorAtPrevious("Too many constants in one chunk.")
		return 0
	}
	return byte(idx)
}

// emitJump emits a two-operand-byte jump instruction with a
// placeholder offset and returns the offset of the first operand byte
// so patchJump can fill it in once the target is known.
func (c *Compiler) emitJump(op chunk.OpCode) int {
	c.emitOp(op)
	c.emitByte(0xff)
	c.emitByte(0xff)
	return c.currentChunk().Count() - 2
}

func (c *Compiler) patchJump(offset int) {
	jump := c.currentChunk().Count() - offset - 2
	if jump > 0xffff {
		c.errorAtPrevious("Too much code to jump over.")
		return
	}
	code := c.currentChunk().Code
	code[offset] = byte(jump >> 8)
	code[offset+1] = byte(jump & 0xff)
}

func (c *Compiler) emitLoop(loopStart int) {
	c.emitOp(chunk.OpLoop)
	offset := c.currentChunk().Count() - loopStart + 2
	if offset > 0xffff {
		c.errorAtPrevious("Loop body too large.")
	}
	c.emitByte(byte(offset >> 8))
	c.emitByte(byte(offset & 0xff))
}

// --- scope management ---

func (c *Compiler) beginScope() { c.fc.scopeDepth++ }

func (c *Compiler) endScope() {
	c.fc.scopeDepth--
	for len(c.fc.locals) > 0 && c.fc.locals[len(c.fc.locals)-1].depth > c.fc.scopeDepth {
		last := c.fc.locals[len(c.fc.locals)-1]
		if last.isCaptured {
			c.emitOp(chunk.OpCloseUpvalue)
		} else {
			c.emitOp(chunk.OpPop)
		}
		c.fc.locals = c.fc.locals[:len(c.fc.locals)-1]
	}
}

// --- identifier/constant helpers ---

func (c *Compiler) identifierConstant(name string) byte {
	return c.makeConstant(value.ObjValue(c.heap.NewString(name)))
}

func identifiersEqual(a, b string) bool { return a == b }

func (c *Compiler) addLocal(name string) {
	if len(c.fc.locals) >= maxLocals {
		c.errorAtPrevious("Too many local variables in function.")
		return
	}
	c.fc.locals = append(c.fc.locals, local{name: name, depth: -1})
}

func (c *Compiler) declareVariable(name string) {
	if c.fc.scopeDepth == 0 {
		return
	}
	for i := len(c.fc.locals) - 1; i >= 0; i-- {
		l := c.fc.locals[i]
		if l.depth != -1 && l.depth < c.fc.scopeDepth {
			break
		}
		if identifiersEqual(name, l.name) {
			c.errorAtPrevious("Already a variable with this name in this scope.")
		}
	}
	c.addLocal(name)
}

func (c *Compiler) parseVariable(errMsg string) byte {
	c.consume(token.Identifier, errMsg)
	name := c.previous.Lexeme
	c.declareVariable(name)
	if c.fc.scopeDepth > 0 {
		return 0
	}
	return c.identifierConstant(name)
}

func (c *Compiler) markInitialized() {
	if c.fc.scopeDepth == 0 {
		return
	}
	c.fc.locals[len(c.fc.locals)-1].depth = c.fc.scopeDepth
}

func (c *Compiler) defineVariable(global byte) {
	if c.fc.scopeDepth > 0 {
		c.markInitialized()
		return
	}
	c.emitOpByte(chunk.OpDefineGlobal, global)
}

func (c *Compiler) resolveLocal(fc *funcCompiler, name string) int {
	for i := len(fc.locals) - 1; i >= 0; i-- {
		l := fc.locals[i]
		if identifiersEqual(name, l.name) {
			if l.depth == -1 {
				c.errorAtPrevious("Can't read local variable in its own initializer.")
			}
			return i
		}
	}
	return -1
}

func (c *Compiler) addUpvalue(fc *funcCompiler, index byte, isLocal bool) int {
	for i, uv := range fc.upvalues {
		if uv.index == index && uv.isLocal == isLocal {
			return i
		}
	}
	if len(fc.upvalues) >= maxUpvalues {
		c.errorAtPrevious("Too many closure variables in function.")
		return 0
	}
	fc.upvalues = append(fc.upvalues, upvalueRef{index: index, isLocal: isLocal})
	fc.function.NumUpvalues = len(fc.upvalues)
	return len(fc.upvalues) - 1
}

func (c *Compiler) resolveUpvalue(fc *funcCompiler, name string) int {
	if fc.enclosing == nil {
		return -1
	}
	if local := c.resolveLocal(fc.enclosing, name); local != -1 {
		fc.enclosing.locals[local].isCaptured = true
		return c.addUpvalue(fc, byte(local), true)
	}
	if upvalue := c.resolveUpvalue(fc.enclosing, name); upvalue != -1 {
		return c.addUpvalue(fc, byte(upvalue), false)
	}
	return -1
}

func (c *Compiler) currentChunkCount() int { return c.currentChunk().Count() }
