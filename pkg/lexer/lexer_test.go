package lexer

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kristofer/embervm/pkg/token"
)

func collect(src string) []token.Token {
	l := New(src)
	var toks []token.Token
	for {
		tok := l.Scan()
		toks = append(toks, tok)
		if tok.Kind == token.EOF {
			break
		}
	}
	return toks
}

func TestScanPunctuationAndOperators(t *testing.T) {
	toks := collect("(){};,.-+*/ ! != = == < <= > >=")
	kinds := make([]token.Kind, 0, len(toks))
	for _, tok := range toks {
		kinds = append(kinds, tok.Kind)
	}
	assert.Equal(t, []token.Kind{
		token.LeftParen, token.RightParen, token.LeftBrace, token.RightBrace,
		token.Semicolon, token.Comma, token.Dot, token.Minus, token.Plus,
		token.Star, token.Slash, token.Bang, token.BangEqual, token.Equal,
		token.EqualEqual, token.Less, token.LessEqual, token.Greater,
		token.GreaterEqual, token.EOF,
	}, kinds)
}

func TestScanKeywordsAndIdentifiers(t *testing.T) {
	toks := collect("class fun myVar _underscore")
	assert.Equal(t, token.Class, toks[0].Kind)
	assert.Equal(t, token.Fun, toks[1].Kind)
	assert.Equal(t, token.Identifier, toks[2].Kind)
	assert.Equal(t, "myVar", toks[2].Lexeme)
	assert.Equal(t, token.Identifier, toks[3].Kind)
}

func TestScanNumbers(t *testing.T) {
	toks := collect("123 45.67 89.")
	assert.Equal(t, token.Number, toks[0].Kind)
	assert.Equal(t, "123", toks[0].Lexeme)
	assert.Equal(t, token.Number, toks[1].Kind)
	assert.Equal(t, "45.67", toks[1].Lexeme)
	// A trailing '.' with no following digit is NOT consumed as part
	// of the number.
	assert.Equal(t, token.Number, toks[2].Kind)
	assert.Equal(t, "89", toks[2].Lexeme)
	assert.Equal(t, token.Dot, toks[3].Kind)
}

func TestScanStrings(t *testing.T) {
	toks := collect(`"hello world"`)
	assert.Equal(t, token.String, toks[0].Kind)
	assert.Equal(t, `"hello world"`, toks[0].Lexeme)
}

func TestScanMultilineString(t *testing.T) {
	toks := collect("\"line one\nline two\"\nprint")
	assert.Equal(t, token.String, toks[0].Kind)
	assert.Equal(t, token.Print, toks[1].Kind)
	assert.Equal(t, 3, toks[1].Line)
}

func TestScanUnterminatedString(t *testing.T) {
	toks := collect(`"never closed`)
	assert.Equal(t, token.Error, toks[0].Kind)
	assert.Equal(t, "Unterminated string.", toks[0].Lexeme)
}

func TestScanLineComment(t *testing.T) {
	toks := collect("1 // a comment\n2")
	assert.Equal(t, token.Number, toks[0].Kind)
	assert.Equal(t, token.Number, toks[1].Kind)
	assert.Equal(t, "2", toks[1].Lexeme)
	assert.Equal(t, 2, toks[1].Line)
}

func TestScanUnexpectedCharacter(t *testing.T) {
	toks := collect("@")
	assert.Equal(t, token.Error, toks[0].Kind)
}
