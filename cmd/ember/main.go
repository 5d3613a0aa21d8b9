// Command ember is the embervm CLI: a REPL when run with no
// arguments, a script interpreter when given one file path.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/kristofer/embervm/pkg/gc"
	"github.com/kristofer/embervm/pkg/vm"
)

const (
	exitOK           = 0
	exitUsage        = 64
	exitCompileError = 65
	exitRuntimeError = 70
	exitIOError      = 74
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	flags := flag.NewFlagSet("ember", flag.ContinueOnError)
	trace := flags.Bool("trace", false, "print the stack and the current instruction before each step")
	printCode := flags.Bool("print-code", false, "disassemble every compiled function")
	stressGC := flags.Bool("stress-gc", false, "collect garbage before every allocation")
	logGC := flags.Bool("log-gc", false, "trace allocations and the start and end of each collection to stderr (individual marks and sweeps are not logged)")
	flags.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: ember [path]\n")
		flags.PrintDefaults()
	}
	if err := flags.Parse(args); err != nil {
		return exitUsage
	}

	rest := flags.Args()
	if len(rest) > 1 {
		fmt.Fprintln(os.Stderr, "Usage: ember [path]")
		return exitUsage
	}

	logger := zerolog.Nop()
	if *logGC {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"}).With().Timestamp().Logger()
	}

	heap := gc.New(*stressGC, logger)
	interp := vm.New(heap, vm.Options{
		Stdout:         os.Stdout,
		Stderr:         os.Stderr,
		TraceExecution: *trace,
		PrintCode:      *printCode,
		Logger:         logger,
	})

	if len(rest) == 0 {
		return runREPL(interp)
	}
	return runFile(interp, rest[0])
}

func runFile(interp *vm.VM, path string) int {
	source, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintln(os.Stderr, errors.Wrapf(err, "reading '%s'", path))
		return exitIOError
	}

	switch interp.Interpret(string(source)) {
	case vm.InterpretCompileError:
		return exitCompileError
	case vm.InterpretRuntimeError:
		return exitRuntimeError
	default:
		return exitOK
	}
}
