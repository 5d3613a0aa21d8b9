package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/chzyer/readline"

	"github.com/kristofer/embervm/pkg/vm"
)

// runREPL reads one line at a time and interprets it immediately
// against the same VM instance, so globals and functions declared on
// one line are visible on the next. EOF (Ctrl-D) exits cleanly.
func runREPL(interp *vm.VM) int {
	rl, err := readline.NewEx(&readline.Config{Prompt: "> "})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error starting REPL: %v\n", err)
		return exitIOError
	}
	defer rl.Close()

	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			continue
		}
		if errors.Is(err, io.EOF) {
			return exitOK
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error reading input: %v\n", err)
			return exitIOError
		}
		if line == "" {
			continue
		}

		// Runtime errors reset the VM's stack and frames but don't end
		// the session; a REPL line's compile errors are likewise just
		// reported, not fatal.
		interp.Interpret(line)
	}
}
