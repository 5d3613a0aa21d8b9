// Package vm implements the stack-based bytecode interpreter: call
// frames, the value stack, global/method dispatch, upvalue capture,
// and the runtime error/stack-trace path. It is the consumer of
// pkg/chunk's opcodes and pkg/gc's heap.
package vm

import (
	"fmt"
	"io"
	"unsafe"

	"github.com/rs/zerolog"

	"github.com/kristofer/embervm/pkg/chunk"
	"github.com/kristofer/embervm/pkg/compiler"
	"github.com/kristofer/embervm/pkg/gc"
	"github.com/kristofer/embervm/pkg/object"
	"github.com/kristofer/embervm/pkg/value"
)

const (
	framesMax = 64
	stackMax  = framesMax * 256
)

// InterpretResult reports how a top-level Interpret call finished.
type InterpretResult int

const (
	InterpretOK InterpretResult = iota
	InterpretCompileError
	InterpretRuntimeError
)

// CallFrame is one live invocation: the closure being executed, its
// instruction pointer, and the base slot of its locals in the value
// stack.
type CallFrame struct {
	closure *object.Closure
	ip      int
	slots   int
}

// Options configures a VM's I/O and debug behavior.
type Options struct {
	Stdout         io.Writer
	Stderr         io.Writer
	TraceExecution bool
	PrintCode      bool
	Logger         zerolog.Logger
}

// VM owns the value stack, call frames, globals, and the open-upvalue
// list for one interpreter instance. It registers itself with heap as
// a gc.RootProvider so a collection mid-run can trace everything it
// holds live.
type VM struct {
	heap *gc.GC

	stack    [stackMax]value.Value
	stackTop int

	frames     [framesMax]CallFrame
	frameCount int

	globals      *object.Table
	openUpvalues *object.Upvalue

	stdout io.Writer
	stderr io.Writer

	traceExecution bool
	printCode      bool
	log            zerolog.Logger
}

// New creates a VM backed by heap, registers its native functions, and
// registers it as a GC root.
func New(heap *gc.GC, opts Options) *VM {
	vm := &VM{
		heap:           heap,
		globals:        object.NewTable(),
		stdout:         opts.Stdout,
		stderr:         opts.Stderr,
		traceExecution: opts.TraceExecution,
		printCode:      opts.PrintCode,
		log:            opts.Logger,
	}
	heap.AddRoot(vm)
	vm.defineNatives()
	vm.log.Debug().Msg("vm ready")
	return vm
}

// MarkRoots implements gc.RootProvider.
func (vm *VM) MarkRoots(g *gc.GC) {
	for i := 0; i < vm.stackTop; i++ {
		g.MarkValue(vm.stack[i])
	}
	for i := 0; i < vm.frameCount; i++ {
		g.MarkObject(vm.frames[i].closure)
	}
	for uv := vm.openUpvalues; uv != nil; uv = uv.Next {
		g.MarkObject(uv)
	}
	vm.globals.Each(func(key *object.String, v value.Value) {
		g.MarkObject(key)
		g.MarkValue(v)
	})
}

// Interpret compiles source and runs it to completion (or to the
// first runtime error), sharing this VM's globals and heap with any
// prior call — the behavior the REPL depends on.
func (vm *VM) Interpret(source string) InterpretResult {
	fn, ok := compiler.Compile(source, vm.heap, vm.stderr, vm.printCode)
	if !ok {
		return InterpretCompileError
	}

	vm.push(value.ObjValue(fn))
	closure := vm.heap.NewClosure(fn)
	vm.pop()
	vm.push(value.ObjValue(closure))
	vm.call(closure, 0)

	return vm.run()
}

func (vm *VM) resetStack() {
	vm.stackTop = 0
	vm.frameCount = 0
	vm.openUpvalues = nil
}

func (vm *VM) push(v value.Value) {
	vm.stack[vm.stackTop] = v
	vm.stackTop++
}

func (vm *VM) pop() value.Value {
	vm.stackTop--
	return vm.stack[vm.stackTop]
}

func (vm *VM) peek(distance int) value.Value {
	return vm.stack[vm.stackTop-1-distance]
}

// run executes bytecode starting from the current top call frame
// until it returns to frame zero, a runtime error occurs, or (for
// natives raising host errors) an I/O failure propagates as one.
func (vm *VM) run() InterpretResult {
	frame := &vm.frames[vm.frameCount-1]

	for {
		if vm.traceExecution {
			vm.traceStack()
			line, _ := chunk.DisassembleInstruction(frame.closure.Function.Chunk, frame.ip)
			fmt.Fprintln(vm.stderr, line)
		}

		op := chunk.OpCode(vm.readByte(frame))
		switch op {
		case chunk.OpConstant:
			vm.push(vm.readConstant(frame))
		case chunk.OpNil:
			vm.push(value.NilValue)
		case chunk.OpTrue:
			vm.push(value.BoolValue(true))
		case chunk.OpFalse:
			vm.push(value.BoolValue(false))
		case chunk.OpPop:
			vm.pop()
		case chunk.OpGetLocal:
			slot := vm.readByte(frame)
			vm.push(vm.stack[frame.slots+int(slot)])
		case chunk.OpSetLocal:
			slot := vm.readByte(frame)
			vm.stack[frame.slots+int(slot)] = vm.peek(0)
		case chunk.OpGetGlobal:
			name := vm.readString(frame)
			val, ok := vm.globals.Get(name)
			if !ok {
				vm.runtimeError(frame, "Undefined variable '%s'.", name.Chars)
				return InterpretRuntimeError
			}
			vm.push(val)
		case chunk.OpSetGlobal:
			name := vm.readString(frame)
			if vm.globals.Set(name, vm.peek(0)) {
				vm.globals.Delete(name)
				vm.runtimeError(frame, "Undefined variable '%s'.", name.Chars)
				return InterpretRuntimeError
			}
		case chunk.OpDefineGlobal:
			name := vm.readString(frame)
			vm.globals.Set(name, vm.peek(0))
			vm.pop()
		case chunk.OpGetUpvalue:
			slot := vm.readByte(frame)
			vm.push(*frame.closure.Upvalues[slot].Location)
		case chunk.OpSetUpvalue:
			slot := vm.readByte(frame)
			*frame.closure.Upvalues[slot].Location = vm.peek(0)
		case chunk.OpGetProperty:
			if !vm.peek(0).IsObjKind(value.ObjInstance) {
				vm.runtimeError(frame, "Only instances have properties.")
				return InterpretRuntimeError
			}
			instance := vm.peek(0).AsObj().(*object.Instance)
			name := vm.readString(frame)
			if val, ok := instance.Fields.Get(name); ok {
				vm.pop()
				vm.push(val)
				break
			}
			if !vm.bindMethod(instance.Class, name, frame) {
				return InterpretRuntimeError
			}
		case chunk.OpSetProperty:
			if !vm.peek(1).IsObjKind(value.ObjInstance) {
				vm.runtimeError(frame, "Only instances have fields.")
				return InterpretRuntimeError
			}
			instance := vm.peek(1).AsObj().(*object.Instance)
			name := vm.readString(frame)
			instance.Fields.Set(name, vm.peek(0))
			val := vm.pop()
			vm.pop()
			vm.push(val)
		case chunk.OpGetSuper:
			name := vm.readString(frame)
			superclass := vm.pop().AsObj().(*object.Class)
			if !vm.bindMethod(superclass, name, frame) {
				return InterpretRuntimeError
			}
		case chunk.OpEqual:
			b := vm.pop()
			a := vm.pop()
			vm.push(value.BoolValue(value.Equal(a, b)))
		case chunk.OpGreater:
			if !vm.binaryNumberOp(frame, func(a, b float64) value.Value { return value.BoolValue(a > b) }) {
				return InterpretRuntimeError
			}
		case chunk.OpLess:
			if !vm.binaryNumberOp(frame, func(a, b float64) value.Value { return value.BoolValue(a < b) }) {
				return InterpretRuntimeError
			}
		case chunk.OpAdd:
			if !vm.add(frame) {
				return InterpretRuntimeError
			}
		case chunk.OpSubtract:
			if !vm.binaryNumberOp(frame, func(a, b float64) value.Value { return value.NumberValue(a - b) }) {
				return InterpretRuntimeError
			}
		case chunk.OpMultiply:
			if !vm.binaryNumberOp(frame, func(a, b float64) value.Value { return value.NumberValue(a * b) }) {
				return InterpretRuntimeError
			}
		case chunk.OpDivide:
			if !vm.binaryNumberOp(frame, func(a, b float64) value.Value { return value.NumberValue(a / b) }) {
				return InterpretRuntimeError
			}
		case chunk.OpNot:
			vm.push(value.BoolValue(vm.pop().IsFalsey()))
		case chunk.OpNegate:
			if !vm.peek(0).IsNumber() {
				vm.runtimeError(frame, "Operand must be a number.")
				return InterpretRuntimeError
			}
			vm.push(value.NumberValue(-vm.pop().AsNumber()))
		case chunk.OpPrint:
			fmt.Fprintln(vm.stdout, value.Print(vm.pop()))
		case chunk.OpJump:
			offset := vm.readShort(frame)
			frame.ip += int(offset)
		case chunk.OpJumpIfFalse:
			offset := vm.readShort(frame)
			if vm.peek(0).IsFalsey() {
				frame.ip += int(offset)
			}
		case chunk.OpLoop:
			offset := vm.readShort(frame)
			frame.ip -= int(offset)
		case chunk.OpCall:
			argCount := int(vm.readByte(frame))
			if !vm.callValue(vm.peek(argCount), argCount, frame) {
				return InterpretRuntimeError
			}
			frame = &vm.frames[vm.frameCount-1]
		case chunk.OpInvoke:
			name := vm.readString(frame)
			argCount := int(vm.readByte(frame))
			if !vm.invoke(name, argCount, frame) {
				return InterpretRuntimeError
			}
			frame = &vm.frames[vm.frameCount-1]
		case chunk.OpSuperInvoke:
			name := vm.readString(frame)
			argCount := int(vm.readByte(frame))
			superclass := vm.pop().AsObj().(*object.Class)
			if !vm.invokeFromClass(superclass, name, argCount, frame) {
				return InterpretRuntimeError
			}
			frame = &vm.frames[vm.frameCount-1]
		case chunk.OpClosure:
			fn := vm.readConstant(frame).AsObj().(*object.Function)
			closure := vm.heap.NewClosure(fn)
			vm.push(value.ObjValue(closure))
			for i := 0; i < fn.NumUpvalues; i++ {
				isLocal := vm.readByte(frame)
				index := vm.readByte(frame)
				if isLocal == 1 {
					closure.Upvalues[i] = vm.captureUpvalue(&vm.stack[frame.slots+int(index)])
				} else {
					closure.Upvalues[i] = frame.closure.Upvalues[index]
				}
			}
		case chunk.OpCloseUpvalue:
			vm.closeUpvalues(&vm.stack[vm.stackTop-1])
			vm.pop()
		case chunk.OpReturn:
			result := vm.pop()
			vm.closeUpvalues(&vm.stack[frame.slots])
			vm.frameCount--
			if vm.frameCount == 0 {
				vm.pop()
				return InterpretOK
			}
			vm.stackTop = frame.slots
			vm.push(result)
			frame = &vm.frames[vm.frameCount-1]
		case chunk.OpClass:
			name := vm.readString(frame)
			vm.push(value.ObjValue(vm.heap.NewClass(name)))
		case chunk.OpInherit:
			superclassVal := vm.peek(1)
			if !superclassVal.IsObjKind(value.ObjClass) {
				vm.runtimeError(frame, "Superclass must be a class.")
				return InterpretRuntimeError
			}
			superclass := superclassVal.AsObj().(*object.Class)
			subclass := vm.peek(0).AsObj().(*object.Class)
			superclass.Methods.Each(func(key *object.String, v value.Value) {
				subclass.Methods.Set(key, v)
			})
			vm.pop()
		case chunk.OpMethod:
			name := vm.readString(frame)
			vm.defineMethod(name)
		default:
			vm.runtimeError(frame, "Unknown opcode %d.", op)
			return InterpretRuntimeError
		}
	}
}

func (vm *VM) readByte(frame *CallFrame) byte {
	b := frame.closure.Function.Chunk.Code[frame.ip]
	frame.ip++
	return b
}

func (vm *VM) readShort(frame *CallFrame) uint16 {
	hi := frame.closure.Function.Chunk.Code[frame.ip]
	lo := frame.closure.Function.Chunk.Code[frame.ip+1]
	frame.ip += 2
	return uint16(hi)<<8 | uint16(lo)
}

func (vm *VM) readConstant(frame *CallFrame) value.Value {
	idx := vm.readByte(frame)
	return frame.closure.Function.Chunk.Constants[idx]
}

func (vm *VM) readString(frame *CallFrame) *object.String {
	return vm.readConstant(frame).AsObj().(*object.String)
}

func (vm *VM) binaryNumberOp(frame *CallFrame, op func(a, b float64) value.Value) bool {
	if !vm.peek(0).IsNumber() || !vm.peek(1).IsNumber() {
		vm.runtimeError(frame, "Operands must be numbers.")
		return false
	}
	b := vm.pop().AsNumber()
	a := vm.pop().AsNumber()
	vm.push(op(a, b))
	return true
}

// add implements OP_ADD: numbers add, strings concatenate (interning
// the result), anything else is a runtime error.
func (vm *VM) add(frame *CallFrame) bool {
	switch {
	case vm.peek(0).IsNumber() && vm.peek(1).IsNumber():
		b := vm.pop().AsNumber()
		a := vm.pop().AsNumber()
		vm.push(value.NumberValue(a + b))
		return true
	case vm.peek(0).IsObjKind(value.ObjString) && vm.peek(1).IsObjKind(value.ObjString):
		b := vm.peek(0).AsObj().(*object.String)
		a := vm.peek(1).AsObj().(*object.String)
		result := vm.heap.NewString(a.Chars + b.Chars)
		vm.pop()
		vm.pop()
		vm.push(value.ObjValue(result))
		return true
	default:
		vm.runtimeError(frame, "Operands must be two numbers or two strings.")
		return false
	}
}

func (vm *VM) defineMethod(name *object.String) {
	method := vm.peek(0).AsObj().(*object.Closure)
	class := vm.peek(1).AsObj().(*object.Class)
	class.Methods.Set(name, value.ObjValue(method))
	vm.pop()
}

func (vm *VM) bindMethod(class *object.Class, name *object.String, frame *CallFrame) bool {
	method, ok := class.Methods.Get(name)
	if !ok {
		vm.runtimeError(frame, "Undefined property '%s'.", name.Chars)
		return false
	}
	bound := vm.heap.NewBoundMethod(vm.peek(0), method.AsObj().(*object.Closure))
	vm.pop()
	vm.push(value.ObjValue(bound))
	return true
}

// callValue dispatches a call to whatever kind of callee sits at
// stackTop-argCount-1, per the per-kind protocol.
func (vm *VM) callValue(callee value.Value, argCount int, frame *CallFrame) bool {
	if callee.IsObj() {
		switch obj := callee.AsObj().(type) {
		case *object.Closure:
			return vm.call(obj, argCount)
		case *object.Native:
			args := vm.stack[vm.stackTop-argCount : vm.stackTop]
			result, err := obj.Fn(args)
			if err != nil {
				vm.runtimeError(frame, "%s", err.Error())
				return false
			}
			vm.stackTop -= argCount + 1
			vm.push(result)
			return true
		case *object.Class:
			instance := vm.heap.NewInstance(obj)
			vm.stack[vm.stackTop-argCount-1] = value.ObjValue(instance)
			if initializer, ok := obj.Methods.Get(vm.heap.InitString()); ok {
				return vm.call(initializer.AsObj().(*object.Closure), argCount)
			} else if argCount != 0 {
				vm.runtimeError(frame, "Expected 0 arguments but got %d.", argCount)
				return false
			}
			return true
		case *object.BoundMethod:
			vm.stack[vm.stackTop-argCount-1] = obj.Receiver
			return vm.call(obj.Method, argCount)
		}
	}
	vm.runtimeError(frame, "Can only call functions and classes.")
	return false
}

func (vm *VM) call(closure *object.Closure, argCount int) bool {
	if argCount != closure.Function.Arity {
		vm.runtimeError(&vm.frames[vm.frameCount-1], "Expected %d arguments but got %d.", closure.Function.Arity, argCount)
		return false
	}
	if vm.frameCount == framesMax {
		vm.runtimeError(&vm.frames[vm.frameCount-1], "Stack overflow.")
		return false
	}
	frame := &vm.frames[vm.frameCount]
	vm.frameCount++
	frame.closure = closure
	frame.ip = 0
	frame.slots = vm.stackTop - argCount - 1
	return true
}

// invoke is the OP_INVOKE fast path for `receiver.name(args)`: a field
// that shadows a method is still called through (field-then-call),
// otherwise the method is looked up and called directly, skipping the
// BoundMethod allocation the general property-then-call path needs.
func (vm *VM) invoke(name *object.String, argCount int, frame *CallFrame) bool {
	receiver := vm.peek(argCount)
	if !receiver.IsObjKind(value.ObjInstance) {
		vm.runtimeError(frame, "Only instances have methods.")
		return false
	}
	instance := receiver.AsObj().(*object.Instance)

	if field, ok := instance.Fields.Get(name); ok {
		vm.stack[vm.stackTop-argCount-1] = field
		return vm.callValue(field, argCount, frame)
	}
	return vm.invokeFromClass(instance.Class, name, argCount, frame)
}

func (vm *VM) invokeFromClass(class *object.Class, name *object.String, argCount int, frame *CallFrame) bool {
	method, ok := class.Methods.Get(name)
	if !ok {
		vm.runtimeError(frame, "Undefined property '%s'.", name.Chars)
		return false
	}
	return vm.call(method.AsObj().(*object.Closure), argCount)
}

func slotAddr(p *value.Value) uintptr { return uintptr(unsafe.Pointer(p)) }

// captureUpvalue finds or creates the Upvalue sharing local, keeping
// vm.openUpvalues sorted by descending slot address so sibling
// closures over the same slot converge on one Upvalue.
func (vm *VM) captureUpvalue(local *value.Value) *object.Upvalue {
	var prev *object.Upvalue
	uv := vm.openUpvalues
	for uv != nil && slotAddr(uv.Location) > slotAddr(local) {
		prev = uv
		uv = uv.Next
	}
	if uv != nil && uv.Location == local {
		return uv
	}

	created := vm.heap.NewUpvalue(local)
	created.Next = uv
	if prev == nil {
		vm.openUpvalues = created
	} else {
		prev.Next = created
	}
	return created
}

// closeUpvalues closes every open upvalue at or above last, copying
// each one's current stack value into its own storage before the
// underlying stack slot goes out of scope.
func (vm *VM) closeUpvalues(last *value.Value) {
	for vm.openUpvalues != nil && slotAddr(vm.openUpvalues.Location) >= slotAddr(last) {
		uv := vm.openUpvalues
		uv.Close()
		vm.openUpvalues = uv.Next
	}
}

func (vm *VM) traceStack() {
	fmt.Fprint(vm.stderr, "          ")
	for i := 0; i < vm.stackTop; i++ {
		fmt.Fprintf(vm.stderr, "[ %s ]", value.Print(vm.stack[i]))
	}
	fmt.Fprintln(vm.stderr)
}
