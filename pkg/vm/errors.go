package vm

import (
	"fmt"
	"strings"
)

// StackFrame is one line of a runtime stack trace: the line in source
// the frame was executing, and the function (or "script") it belongs
// to.
type StackFrame struct {
	FunctionName string
	Line         int
}

// RuntimeError carries a formatted failure message plus the call
// stack captured at the moment it was raised, top frame first.
type RuntimeError struct {
	Message string
	Frames  []StackFrame
}

// Error implements the error interface, rendering the message
// followed by one "[line N] in NAME" line per frame.
func (e *RuntimeError) Error() string {
	var b strings.Builder
	b.WriteString(e.Message)
	for _, f := range e.Frames {
		fmt.Fprintf(&b, "\n[line %d] in %s", f.Line, f.FunctionName)
	}
	return b.String()
}

// runtimeError builds a RuntimeError from the current call stack,
// prints it to stderr, and resets the VM to a clean, empty-stack
// state so a REPL session can keep going after the failure.
func (vm *VM) runtimeError(current *CallFrame, format string, args ...interface{}) {
	current.ip-- // the faulting instruction's line, not the next one

	err := &RuntimeError{Message: fmt.Sprintf(format, args...)}
	for i := vm.frameCount - 1; i >= 0; i-- {
		frame := &vm.frames[i]
		fn := frame.closure.Function
		line := 0
		if frame.ip >= 0 && frame.ip < len(fn.Chunk.Lines) {
			line = fn.Chunk.Lines[frame.ip]
		}
		name := "script"
		if fn.Name != nil {
			name = fn.Name.Chars
		}
		err.Frames = append(err.Frames, StackFrame{FunctionName: name, Line: line})
	}

	vm.log.Debug().Str("message", err.Message).Int("frames", len(err.Frames)).Msg("runtime error")
	fmt.Fprintln(vm.stderr, err.Error())
	vm.resetStack()
}
