package lexer

import (
	"testing"
)

func types(tokens []Token) []TokenType {
	out := make([]TokenType, len(tokens))
	for i, t := range tokens {
		out[i] = t.Type
	}
	return out
}

func TestTokenize(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []Token
	}{
		{
			name:     "empty input",
			input:    "",
			expected: []Token{{EOF, "", 1, 1}},
		},
		{
			name:  "identifier with colon and dash",
			input: "on:click data-id",
			expected: []Token{
				{IDENT, "on:click", 1, 1},
				{IDENT, "data-id", 1, 10},
				{EOF, "", 1, 17},
			},
		},
		{
			name:  "string without escapes",
			input: `"hello {name}"`,
			expected: []Token{
				{STRING, "hello {name}", 1, 1},
				{EOF, "", 1, 15},
			},
		},
		{
			name:  "number with dots",
			input: "1.5",
			expected: []Token{
				{NUMBER, "1.5", 1, 1},
				{EOF, "", 1, 4},
			},
		},
		{
			name:  "arrow and assign",
			input: "= =>",
			expected: []Token{
				{ASSIGN, "=", 1, 1},
				{ARROW, "=>", 1, 3},
				{EOF, "", 1, 5},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Tokenize(tt.input)
			if len(got) != len(tt.expected) {
				t.Fatalf("got %d tokens %v, want %d", len(got), got, len(tt.expected))
			}
			for i, want := range tt.expected {
				if got[i] != want {
					t.Errorf("token[%d] = %+v, want %+v", i, got[i], want)
				}
			}
		})
	}
}

func TestTokenizeKinds(t *testing.T) {
	tests := []struct {
		input    string
		expected []TokenType
	}{
		{"{ } ( ) : = , .", []TokenType{LBRACE, RBRACE, LPAREN, RPAREN, COLON, ASSIGN, COMMA, DOT, EOF}},
		{"count += 1", []TokenType{IDENT, PLUS, ASSIGN, NUMBER, EOF}},
		{"x -= 2", []TokenType{IDENT, MINUS, ASSIGN, NUMBER, EOF}},
		{"max(a, b)", []TokenType{IDENT, LPAREN, IDENT, COMMA, IDENT, RPAREN, EOF}},
		{"_private", []TokenType{IDENT, EOF}},
		{"a ; b # c", []TokenType{IDENT, IDENT, IDENT, EOF}},
		{"\n\t\r  ", []TokenType{EOF}},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := types(Tokenize(tt.input))
			if len(got) != len(tt.expected) {
				t.Fatalf("Tokenize(%q) = %v, want %v", tt.input, got, tt.expected)
			}
			for i := range got {
				if got[i] != tt.expected[i] {
					t.Errorf("Tokenize(%q)[%d] = %s, want %s", tt.input, i, got[i], tt.expected[i])
				}
			}
		})
	}
}

func TestUnterminatedString(t *testing.T) {
	got := Tokenize(`"abc`)
	if len(got) != 2 || got[0].Type != STRING || got[0].Literal != "abc" || got[1].Type != EOF {
		t.Errorf("unexpected tokens: %v", got)
	}
}

func TestEmbeddedQuoteTerminates(t *testing.T) {
	got := Tokenize(`"a"b"`)
	want := []TokenType{STRING, IDENT, STRING, EOF}
	if kinds := types(got); len(kinds) != len(want) {
		t.Fatalf("got %v, want %v", kinds, want)
	}
	if got[0].Literal != "a" || got[1].Literal != "b" || got[2].Literal != "" {
		t.Errorf("unexpected literals: %v", got)
	}
}

func TestUnicodeIdentifiers(t *testing.T) {
	got := Tokenize("café ÉtatPage")
	if got[0].Literal != "café" || got[1].Literal != "ÉtatPage" {
		t.Errorf("unexpected tokens: %v", got)
	}
	if got[1].Column != 6 {
		t.Errorf("column = %d, want 6", got[1].Column)
	}
}

func TestLineTracking(t *testing.T) {
	got := Tokenize("page \"home\" {\n  h1 \"Hi\"\n}")
	want := []struct {
		typ  TokenType
		line int
		col  int
	}{
		{IDENT, 1, 1},
		{STRING, 1, 6},
		{LBRACE, 1, 13},
		{IDENT, 2, 3},
		{STRING, 2, 6},
		{RBRACE, 3, 1},
		{EOF, 3, 2},
	}
	if len(got) != len(want) {
		t.Fatalf("got %d tokens, want %d", len(got), len(want))
	}
	for i, w := range want {
		if got[i].Type != w.typ || got[i].Line != w.line || got[i].Column != w.col {
			t.Errorf("token[%d] = %+v, want %s at %d:%d", i, got[i], w.typ, w.line, w.col)
		}
	}
}

func TestTokenString(t *testing.T) {
	tests := []struct {
		tok  Token
		want string
	}{
		{Token{Type: IDENT, Literal: "div"}, "IDENT(div)"},
		{Token{Type: STRING, Literal: "x"}, `STRING("x")`},
		{Token{Type: LBRACE, Literal: "{"}, "LBRACE"},
		{Token{Type: EOF}, "EOF"},
	}
	for _, tt := range tests {
		if got := tt.tok.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}
