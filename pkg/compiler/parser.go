package compiler

import (
	"fmt"
	"os"

	"github.com/kristofer/embervm/pkg/token"
)

// advance pulls the next non-error token from the lexer into current,
// reporting (and skipping) any error tokens along the way.
func (c *Compiler) advance() {
	c.previous = c.current
	for {
		c.current = c.lex.Scan()
		if c.current.Kind != token.Error {
			break
		}
		c.errorAtCurrent(c.current.Lexeme)
	}
}

// consume advances past current if it has the expected kind, else
// reports msg as a compile error at the current token.
func (c *Compiler) consume(kind token.Kind, msg string) {
	if c.current.Kind == kind {
		c.advance()
		return
	}
	c.errorAtCurrent(msg)
}

func (c *Compiler) check(kind token.Kind) bool {
	return c.current.Kind == kind
}

func (c *Compiler) match(kind token.Kind) bool {
	if !c.check(kind) {
		return false
	}
	c.advance()
	return true
}

func (c *Compiler) errorAtCurrent(msg string) { c.errorAt(c.current, msg) }
func (c *Compiler) errorAtPrevious(msg string) { c.errorAt(c.previous, msg) }

// errorAt reports a compile error at tok, suppressing any further
// errors until synchronize resets panicMode — so a whole program's
// errors are collected in one pass instead of stopping at the first.
func (c *Compiler) errorAt(tok token.Token, msg string) {
	if c.panicMode {
		return
	}
	c.panicMode = true
	c.hadError = true

	out := c.errOut
	if out == nil {
		out = os.Stderr
	}
	fmt.Fprintf(out, "[line %d] Error", tok.Line)
	switch tok.Kind {
	case token.EOF:
		fmt.Fprint(out, " at end")
	case token.Error:
		// lexeme is already the message
	default:
		fmt.Fprintf(out, " at '%s'", tok.Lexeme)
	}
	fmt.Fprintf(out, ": %s\n", msg)
}

// synchronize discards tokens until it reaches a likely statement
// boundary, so one compile error doesn't cascade into a wall of
// spurious follow-on errors.
func (c *Compiler) synchronize() {
	c.panicMode = false
	for c.current.Kind != token.EOF {
		if c.previous.Kind == token.Semicolon {
			return
		}
		switch c.current.Kind {
		case token.Class, token.Fun, token.Var, token.For, token.If, token.While, token.Print, token.Return:
			return
		}
		c.advance()
	}
}
