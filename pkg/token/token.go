// Package token defines the lexical token kinds shared by the scanner
// and the compiler.
package token

// Kind identifies the lexical category of a Token.
type Kind int

const (
	// Single-character punctuation.
	LeftParen Kind = iota
	RightParen
	LeftBrace
	RightBrace
	Comma
	Dot
	Minus
	Plus
	Semicolon
	Slash
	Star

	// One or two character punctuation.
	Bang
	BangEqual
	Equal
	EqualEqual
	Greater
	GreaterEqual
	Less
	LessEqual

	// Literals.
	Identifier
	String
	Number

	// Keywords.
	And
	Class
	Else
	False
	For
	Fun
	If
	Nil
	Or
	Print
	Return
	Super
	This
	True
	Var
	While

	// Sentinels.
	Error
	EOF
)

// Keywords maps reserved words to their token Kind. The scanner
// consults this after reading a full identifier.
var Keywords = map[string]Kind{
	"and":    And,
	"class":  Class,
	"else":   Else,
	"false":  False,
	"for":    For,
	"fun":    Fun,
	"if":     If,
	"nil":    Nil,
	"or":     Or,
	"print":  Print,
	"return": Return,
	"super":  Super,
	"this":   This,
	"true":   True,
	"var":    Var,
	"while":  While,
}

// Token is a lexeme span plus its kind and source line. Lexeme is a
// substring of the source buffer, not a copy of its bytes.
type Token struct {
	Kind   Kind
	Lexeme string
	Line   int
}
