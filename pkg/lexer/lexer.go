// Package lexer implements the scanner for embervm: source bytes in,
// a Token stream out. It has no dependency on the compiler and knows
// nothing of bytecode.
package lexer

import (
	"github.com/kristofer/embervm/pkg/token"
)

// Lexer turns source text into a stream of Tokens, one at a time via
// Scan. It never looks ahead past two characters and never allocates
// per-token beyond the Token's Lexeme slice (a substring of source).
type Lexer struct {
	source  string
	start   int // start of the token currently being scanned
	current int // next unread byte
	line    int
}

// New creates a Lexer over source. Scan must be called repeatedly
// until it returns a token of kind token.EOF.
func New(source string) *Lexer {
	return &Lexer{source: source, line: 1}
}

// Scan returns the next token in the source. Whitespace and line
// comments are consumed silently. An unterminated string or an
// unrecognized character yields a token.Error token whose Lexeme
// carries the diagnostic message.
func (l *Lexer) Scan() token.Token {
	l.skipWhitespace()
	l.start = l.current

	if l.atEnd() {
		return l.make(token.EOF)
	}

	c := l.advance()

	if isAlpha(c) {
		return l.identifier()
	}
	if isDigit(c) {
		return l.number()
	}

	switch c {
	case '(':
		return l.make(token.LeftParen)
	case ')':
		return l.make(token.RightParen)
	case '{':
		return l.make(token.LeftBrace)
	case '}':
		return l.make(token.RightBrace)
	case ';':
		return l.make(token.Semicolon)
	case ',':
		return l.make(token.Comma)
	case '.':
		return l.make(token.Dot)
	case '-':
		return l.make(token.Minus)
	case '+':
		return l.make(token.Plus)
	case '/':
		return l.make(token.Slash)
	case '*':
		return l.make(token.Star)
	case '!':
		return l.make(l.ifMatch('=', token.BangEqual, token.Bang))
	case '=':
		return l.make(l.ifMatch('=', token.EqualEqual, token.Equal))
	case '<':
		return l.make(l.ifMatch('=', token.LessEqual, token.Less))
	case '>':
		return l.make(l.ifMatch('=', token.GreaterEqual, token.Greater))
	case '"':
		return l.string()
	}

	return l.errorToken("Unexpected character.")
}

func (l *Lexer) atEnd() bool { return l.current >= len(l.source) }

func (l *Lexer) advance() byte {
	c := l.source[l.current]
	l.current++
	return c
}

func (l *Lexer) peek() byte {
	if l.atEnd() {
		return 0
	}
	return l.source[l.current]
}

func (l *Lexer) peekNext() byte {
	if l.current+1 >= len(l.source) {
		return 0
	}
	return l.source[l.current+1]
}

func (l *Lexer) match(expected byte) bool {
	if l.atEnd() || l.source[l.current] != expected {
		return false
	}
	l.current++
	return true
}

func (l *Lexer) ifMatch(expected byte, yes, no token.Kind) token.Kind {
	if l.match(expected) {
		return yes
	}
	return no
}

func (l *Lexer) skipWhitespace() {
	for {
		switch l.peek() {
		case ' ', '\r', '\t':
			l.advance()
		case '\n':
			l.line++
			l.advance()
		case '/':
			if l.peekNext() == '/' {
				for l.peek() != '\n' && !l.atEnd() {
					l.advance()
				}
			} else {
				return
			}
		default:
			return
		}
	}
}

func (l *Lexer) string() token.Token {
	for l.peek() != '"' && !l.atEnd() {
		if l.peek() == '\n' {
			l.line++
		}
		l.advance()
	}
	if l.atEnd() {
		return l.errorToken("Unterminated string.")
	}
	l.advance() // closing quote
	return l.make(token.String)
}

func (l *Lexer) number() token.Token {
	for isDigit(l.peek()) {
		l.advance()
	}
	if l.peek() == '.' && isDigit(l.peekNext()) {
		l.advance() // consume '.'
		for isDigit(l.peek()) {
			l.advance()
		}
	}
	return l.make(token.Number)
}

func (l *Lexer) identifier() token.Token {
	for isAlpha(l.peek()) || isDigit(l.peek()) {
		l.advance()
	}
	text := l.source[l.start:l.current]
	if kind, ok := token.Keywords[text]; ok {
		return l.make(kind)
	}
	return l.make(token.Identifier)
}

func (l *Lexer) make(kind token.Kind) token.Token {
	return token.Token{Kind: kind, Lexeme: l.source[l.start:l.current], Line: l.line}
}

func (l *Lexer) errorToken(message string) token.Token {
	return token.Token{Kind: token.Error, Lexeme: message, Line: l.line}
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isAlpha(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}
