// Package lexer tokenizes .webc source text.
//
// The lexer is deliberately permissive: whitespace is skipped and any
// character that does not start a known token is dropped without an error.
// Tokenize always returns a slice terminated by a single EOF token.
package lexer

import (
	"fmt"
	"unicode"
	"unicode/utf8"
)

// TokenType represents different types of .webc tokens
type TokenType int

const (
	// Special tokens
	EOF TokenType = iota

	// Literals
	IDENT  // button, on:click, MainLayout
	STRING // "hello"
	NUMBER // 42, 1.5

	// Delimiters
	LBRACE // {
	RBRACE // }
	LPAREN // (
	RPAREN // )
	COLON  // :
	ASSIGN // =
	COMMA  // ,
	DOT    // .
	ARROW  // =>

	// Operators
	PLUS  // +
	MINUS // -
)

// Token represents a single .webc token
type Token struct {
	Type    TokenType
	Literal string
	Line    int
	Column  int
}

// String returns a string representation of the token type
func (t TokenType) String() string {
	switch t {
	case EOF:
		return "EOF"
	case IDENT:
		return "IDENT"
	case STRING:
		return "STRING"
	case NUMBER:
		return "NUMBER"
	case LBRACE:
		return "LBRACE"
	case RBRACE:
		return "RBRACE"
	case LPAREN:
		return "LPAREN"
	case RPAREN:
		return "RPAREN"
	case COLON:
		return "COLON"
	case ASSIGN:
		return "ASSIGN"
	case COMMA:
		return "COMMA"
	case DOT:
		return "DOT"
	case ARROW:
		return "ARROW"
	case PLUS:
		return "PLUS"
	case MINUS:
		return "MINUS"
	default:
		return fmt.Sprintf("TokenType(%d)", t)
	}
}

// String renders a token for diagnostics, e.g. IDENT(button) or LBRACE.
func (t Token) String() string {
	switch t.Type {
	case IDENT, NUMBER:
		return fmt.Sprintf("%s(%s)", t.Type, t.Literal)
	case STRING:
		return fmt.Sprintf("%s(%q)", t.Type, t.Literal)
	default:
		return t.Type.String()
	}
}

// Lexer tokenizes .webc input
type Lexer struct {
	input        string
	position     int  // current position in input (points to current char)
	readPosition int  // current reading position in input (after current char)
	ch           rune // current char under examination
	line         int  // current line number (1-indexed)
	column       int  // current column number (1-indexed)
}

// New creates a new lexer
func New(input string) *Lexer {
	l := &Lexer{input: input, line: 1, column: 0}
	l.readChar()
	return l
}

// Tokenize consumes the whole input and returns its tokens, ending with EOF.
func Tokenize(input string) []Token {
	l := New(input)
	var tokens []Token
	for {
		tok := l.NextToken()
		tokens = append(tokens, tok)
		if tok.Type == EOF {
			return tokens
		}
	}
}

// readChar reads the next character and advances position
func (l *Lexer) readChar() {
	if l.ch == '\n' {
		l.line++
		l.column = 0
	}

	l.position = l.readPosition
	if l.readPosition >= len(l.input) {
		l.ch = 0
		l.column++
		return
	}

	r, size := utf8.DecodeRuneInString(l.input[l.readPosition:])
	l.ch = r
	l.readPosition += size
	l.column++
}

// peekChar returns the next character without advancing
func (l *Lexer) peekChar() rune {
	if l.readPosition >= len(l.input) {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(l.input[l.readPosition:])
	return r
}

func (l *Lexer) atEnd() bool {
	return l.position >= len(l.input)
}

// NextToken returns the next token from the input
func (l *Lexer) NextToken() Token {
	for {
		l.skipWhitespace()

		tok := Token{Line: l.line, Column: l.column}
		if l.atEnd() {
			tok.Type = EOF
			return tok
		}

		switch l.ch {
		case '{':
			tok.Type, tok.Literal = LBRACE, "{"
		case '}':
			tok.Type, tok.Literal = RBRACE, "}"
		case '(':
			tok.Type, tok.Literal = LPAREN, "("
		case ')':
			tok.Type, tok.Literal = RPAREN, ")"
		case ':':
			tok.Type, tok.Literal = COLON, ":"
		case ',':
			tok.Type, tok.Literal = COMMA, ","
		case '.':
			tok.Type, tok.Literal = DOT, "."
		case '+':
			tok.Type, tok.Literal = PLUS, "+"
		case '-':
			tok.Type, tok.Literal = MINUS, "-"
		case '=':
			if l.peekChar() == '>' {
				l.readChar()
				tok.Type, tok.Literal = ARROW, "=>"
			} else {
				tok.Type, tok.Literal = ASSIGN, "="
			}
		case '"':
			tok.Type = STRING
			tok.Literal = l.readString()
			return tok
		default:
			if isLetter(l.ch) {
				tok.Type = IDENT
				tok.Literal = l.readIdentifier()
				return tok
			}
			if unicode.IsDigit(l.ch) {
				tok.Type = NUMBER
				tok.Literal = l.readNumber()
				return tok
			}
			// Unknown characters are dropped.
			l.readChar()
			continue
		}

		l.readChar()
		return tok
	}
}

func (l *Lexer) skipWhitespace() {
	for !l.atEnd() && unicode.IsSpace(l.ch) {
		l.readChar()
	}
}

// readString reads a double-quoted string. There are no escapes: the next
// quote ends the string, and an unterminated string runs to end of input.
func (l *Lexer) readString() string {
	l.readChar() // skip opening "
	start := l.position
	for !l.atEnd() && l.ch != '"' {
		l.readChar()
	}
	s := l.input[start:l.position]
	if !l.atEnd() {
		l.readChar() // skip closing "
	}
	return s
}

func (l *Lexer) readIdentifier() string {
	start := l.position
	for !l.atEnd() && isIdentChar(l.ch) {
		l.readChar()
	}
	return l.input[start:l.position]
}

func (l *Lexer) readNumber() string {
	start := l.position
	for !l.atEnd() && (unicode.IsDigit(l.ch) || l.ch == '.') {
		l.readChar()
	}
	return l.input[start:l.position]
}

func isLetter(ch rune) bool {
	return unicode.IsLetter(ch) || ch == '_'
}

func isIdentChar(ch rune) bool {
	return unicode.IsLetter(ch) || unicode.IsDigit(ch) || ch == '_' || ch == '-' || ch == ':'
}
