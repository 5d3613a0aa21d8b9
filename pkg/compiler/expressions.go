package compiler

import (
	"strconv"

	"github.com/kristofer/embervm/pkg/chunk"
	"github.com/kristofer/embervm/pkg/token"
	"github.com/kristofer/embervm/pkg/value"
)

// precedence orders binding strength from loosest to tightest, used
// by parsePrecedence to decide how far an infix chain should extend.
type precedence int

const (
	precNone       precedence = iota
	precAssignment            // =
	precOr                    // or
	precAnd                   // and
	precEquality              // == !=
	precComparison            // < > <= >=
	precTerm                  // + -
	precFactor                // * /
	precUnary                 // ! -
	precCall                  // . ()
	precPrimary
)

type parseFn func(c *Compiler, canAssign bool)

type parseRule struct {
	prefix     parseFn
	infix      parseFn
	precedence precedence
}

// rules is the static Pratt table: for every token kind, how to parse
// it as a prefix expression, how to parse it as an infix operator
// continuing a left operand, and at what precedence it binds.
var rules map[token.Kind]parseRule

func init() {
	rules = map[token.Kind]parseRule{
		token.LeftParen:    {grouping, call, precCall},
		token.Dot:          {nil, dot, precCall},
		token.Minus:        {unary, binary, precTerm},
		token.Plus:         {nil, binary, precTerm},
		token.Slash:        {nil, binary, precFactor},
		token.Star:         {nil, binary, precFactor},
		token.Bang:         {unary, nil, precNone},
		token.BangEqual:    {nil, binary, precEquality},
		token.EqualEqual:   {nil, binary, precEquality},
		token.Greater:      {nil, binary, precComparison},
		token.GreaterEqual: {nil, binary, precComparison},
		token.Less:         {nil, binary, precComparison},
		token.LessEqual:    {nil, binary, precComparison},
		token.Identifier:   {variable, nil, precNone},
		token.String:       {stringLit, nil, precNone},
		token.Number:       {number, nil, precNone},
		token.And:          {nil, and_, precAnd},
		token.Or:           {nil, or_, precOr},
		token.False:        {literal, nil, precNone},
		token.Nil:          {literal, nil, precNone},
		token.True:         {literal, nil, precNone},
		token.This:         {this_, nil, precNone},
		token.Super:        {super_, nil, precNone},
	}
}

func getRule(kind token.Kind) parseRule {
	if r, ok := rules[kind]; ok {
		return r
	}
	return parseRule{}
}

func (c *Compiler) expression() {
	c.parsePrecedence(precAssignment)
}

func (c *Compiler) parsePrecedence(prec precedence) {
	c.advance()
	prefix := getRule(c.previous.Kind).prefix
	if prefix == nil {
		c.errorAtPrevious("Expect expression.")
		return
	}

	canAssign := prec <= precAssignment
	prefix(c, canAssign)

	for prec <= getRule(c.current.Kind).precedence {
		c.advance()
		infix := getRule(c.previous.Kind).infix
		infix(c, canAssign)
	}

	if canAssign && c.match(token.Equal) {
		c.errorAtPrevious("Invalid assignment target.")
	}
}

func grouping(c *Compiler, _ bool) {
	c.expression()
	c.consume(token.RightParen, "Expect ')' after expression.")
}

func number(c *Compiler, _ bool) {
	n, err := strconv.ParseFloat(c.previous.Lexeme, 64)
	if err != nil {
		c.errorAtPrevious("Invalid number literal.")
		return
	}
	c.emitConstant(value.NumberValue(n))
}

func stringLit(c *Compiler, _ bool) {
	lexeme := c.previous.Lexeme
	chars := lexeme[1 : len(lexeme)-1]
	c.emitConstant(value.ObjValue(c.heap.NewString(chars)))
}

func literal(c *Compiler, _ bool) {
	switch c.previous.Kind {
	case token.False:
		c.emitOp(chunk.OpFalse)
	case token.Nil:
		c.emitOp(chunk.OpNil)
	case token.True:
		c.emitOp(chunk.OpTrue)
	}
}

func unary(c *Compiler, _ bool) {
	opKind := c.previous.Kind
	c.parsePrecedence(precUnary)
	switch opKind {
	case token.Bang:
		c.emitOp(chunk.OpNot)
	case token.Minus:
		c.emitOp(chunk.OpNegate)
	}
}

func binary(c *Compiler, _ bool) {
	opKind := c.previous.Kind
	rule := getRule(opKind)
	c.parsePrecedence(rule.precedence + 1)

	switch opKind {
	case token.BangEqual:
		c.emitOp(chunk.OpEqual)
		c.emitOp(chunk.OpNot)
	case token.EqualEqual:
		c.emitOp(chunk.OpEqual)
	case token.Greater:
		c.emitOp(chunk.OpGreater)
	case token.GreaterEqual:
		c.emitOp(chunk.OpLess)
		c.emitOp(chunk.OpNot)
	case token.Less:
		c.emitOp(chunk.OpLess)
	case token.LessEqual:
		c.emitOp(chunk.OpGreater)
		c.emitOp(chunk.OpNot)
	case token.Plus:
		c.emitOp(chunk.OpAdd)
	case token.Minus:
		c.emitOp(chunk.OpSubtract)
	case token.Star:
		c.emitOp(chunk.OpMultiply)
	case token.Slash:
		c.emitOp(chunk.OpDivide)
	}
}

func and_(c *Compiler, _ bool) {
	endJump := c.emitJump(chunk.OpJumpIfFalse)
	c.emitOp(chunk.OpPop)
	c.parsePrecedence(precAnd)
	c.patchJump(endJump)
}

func or_(c *Compiler, _ bool) {
	elseJump := c.emitJump(chunk.OpJumpIfFalse)
	endJump := c.emitJump(chunk.OpJump)

	c.patchJump(elseJump)
	c.emitOp(chunk.OpPop)

	c.parsePrecedence(precOr)
	c.patchJump(endJump)
}

// argumentList compiles a parenthesized, comma-separated expression
// list and returns how many expressions were emitted.
func (c *Compiler) argumentList() byte {
	var argCount int
	if !c.check(token.RightParen) {
		for {
			c.expression()
			if argCount == maxArgs {
				c.errorAtPrevious("Can't have more than 255 arguments.")
			}
			argCount++
			if !c.match(token.Comma) {
				break
			}
		}
	}
	c.consume(token.RightParen, "Expect ')' after arguments.")
	return byte(argCount)
}

func call(c *Compiler, _ bool) {
	argCount := c.argumentList()
	c.emitOpByte(chunk.OpCall, argCount)
}

// dot compiles a property access. A directly-called method access
// (`expr.name(args)`) is recognized here and compiled straight to
// OP_INVOKE, skipping the separate OP_GET_PROPERTY + OP_CALL pair the
// general case needs.
func dot(c *Compiler, canAssign bool) {
	c.consume(token.Identifier, "Expect property name after '.'.")
	name := c.identifierConstant(c.previous.Lexeme)

	switch {
	case canAssign && c.match(token.Equal):
		c.expression()
		c.emitOpByte(chunk.OpSetProperty, name)
	case c.match(token.LeftParen):
		argCount := c.argumentList()
		c.emitOpByte(chunk.OpInvoke, name)
		c.emitByte(argCount)
	default:
		c.emitOpByte(chunk.OpGetProperty, name)
	}
}

func variable(c *Compiler, canAssign bool) {
	c.namedVariable(c.previous.Lexeme, canAssign)
}

func (c *Compiler) namedVariable(name string, canAssign bool) {
	var getOp, setOp chunk.OpCode
	arg := c.resolveLocal(c.fc, name)
	if arg != -1 {
		getOp, setOp = chunk.OpGetLocal, chunk.OpSetLocal
	} else if arg = c.resolveUpvalue(c.fc, name); arg != -1 {
		getOp, setOp = chunk.OpGetUpvalue, chunk.OpSetUpvalue
	} else {
		arg = int(c.identifierConstant(name))
		getOp, setOp = chunk.OpGetGlobal, chunk.OpSetGlobal
	}

	if canAssign && c.match(token.Equal) {
		c.expression()
		c.emitOpByte(setOp, byte(arg))
	} else {
		c.emitOpByte(getOp, byte(arg))
	}
}

func this_(c *Compiler, _ bool) {
	if c.cc == nil {
		c.errorAtPrevious("Can't use 'this' outside of a class.")
		return
	}
	variable(c, false)
}

// super_ compiles `super.name` (plain lookup) or `super.name(args)`
// (invoked directly via OP_SUPER_INVOKE). `super` always resolves to
// an upvalue/local named "super" that the enclosing class body
// synthesizes when it has a superclass.
func super_(c *Compiler, _ bool) {
	if c.cc == nil {
		c.errorAtPrevious("Can't use 'super' outside of a class.")
	} else if !c.cc.hasSuperclass {
		c.errorAtPrevious("Can't use 'super' in a class with no superclass.")
	}

	c.consume(token.Dot, "Expect '.' after 'super'.")
	c.consume(token.Identifier, "Expect superclass method name.")
	name := c.identifierConstant(c.previous.Lexeme)

	c.namedVariable("this", false)
	if c.match(token.LeftParen) {
		argCount := c.argumentList()
		c.namedVariable("super", false)
		c.emitOpByte(chunk.OpSuperInvoke, name)
		c.emitByte(argCount)
	} else {
		c.namedVariable("super", false)
		c.emitOpByte(chunk.OpGetSuper, name)
	}
}
