package lex

import (
	"fmt"
)

type (
	Kind int

	Token struct {
		Kind Kind
		Lex  string
		Line int
	}

	Lexer struct {
		b    []byte
		pos  int
		line int
	}
)

const (
	EOF Kind = iota
	Unknown

	Int
	Bool
	String
	Func
	For
	To
	While
	If
	Else
	Return
	Print
	Input
	Newline
	Pattern

	IntLit
	BoolLit
	StringLit

	Ident

	Plus
	Minus
	Mul
	Div
	Mod
	Assign
	Eq
	Neq
	Lt
	Gt
	Leq
	Geq
	And
	Or
	Not

	LParen
	RParen
	LBrace
	RBrace
	Comma
	Semicolon
)

var keywords = map[string]Kind{
	"int":     Int,
	"bool":    Bool,
	"string":  String,
	"func":    Func,
	"for":     For,
	"to":      To,
	"while":   While,
	"if":      If,
	"else":    Else,
	"return":  Return,
	"print":   Print,
	"input":   Input,
	"newline": Newline,
	"pattern": Pattern,
}

func New(text []byte) *Lexer {
	return &Lexer{b: text, line: 1}
}

// Tokenize scans the whole input. Unrecognized characters become
// Unknown tokens; the parser turns those into diagnostics.
func Tokenize(text []byte) []Token {
	l := New(text)

	var tokens []Token

	for {
		tk := l.Next()
		tokens = append(tokens, tk)

		if tk.Kind == EOF {
			return tokens
		}
	}
}

func (l *Lexer) Next() Token {
	l.skipSpacesAndComments()

	if l.pos == len(l.b) {
		return Token{Kind: EOF, Lex: "EOF", Line: l.line}
	}

	c := l.b[l.pos]
	l.pos++

	switch {
	case isAlpha(c) || c == '_':
		return l.ident()
	case isDigit(c):
		return l.number()
	case c == '"':
		return l.stringLit()
	}

	switch c {
	case '+':
		return l.tok(Plus, "+")
	case '-':
		return l.tok(Minus, "-")
	case '*':
		return l.tok(Mul, "*")
	case '/':
		return l.tok(Div, "/")
	case '%':
		return l.tok(Mod, "%")
	case '=':
		if l.match('=') {
			return l.tok(Eq, "==")
		}

		return l.tok(Assign, "=")
	case '!':
		if l.match('=') {
			return l.tok(Neq, "!=")
		}

		return l.tok(Not, "!")
	case '<':
		if l.match('=') {
			return l.tok(Leq, "<=")
		}

		return l.tok(Lt, "<")
	case '>':
		if l.match('=') {
			return l.tok(Geq, ">=")
		}

		return l.tok(Gt, ">")
	case '&':
		if l.match('&') {
			return l.tok(And, "&&")
		}

		return l.tok(Unknown, "&")
	case '|':
		if l.match('|') {
			return l.tok(Or, "||")
		}

		return l.tok(Unknown, "|")
	case '(':
		return l.tok(LParen, "(")
	case ')':
		return l.tok(RParen, ")")
	case '{':
		return l.tok(LBrace, "{")
	case '}':
		return l.tok(RBrace, "}")
	case ',':
		return l.tok(Comma, ",")
	case ';':
		return l.tok(Semicolon, ";")
	}

	return l.tok(Unknown, string(c))
}

func (l *Lexer) ident() Token {
	st := l.pos - 1

	for l.pos < len(l.b) && (isAlpha(l.b[l.pos]) || isDigit(l.b[l.pos]) || l.b[l.pos] == '_') {
		l.pos++
	}

	text := string(l.b[st:l.pos])

	if text == "true" || text == "false" {
		return l.tok(BoolLit, text)
	}

	if k, ok := keywords[text]; ok {
		return l.tok(k, text)
	}

	return l.tok(Ident, text)
}

func (l *Lexer) number() Token {
	st := l.pos - 1

	for l.pos < len(l.b) && isDigit(l.b[l.pos]) {
		l.pos++
	}

	return l.tok(IntLit, string(l.b[st:l.pos]))
}

func (l *Lexer) stringLit() Token {
	st := l.pos

	for l.pos < len(l.b) && l.b[l.pos] != '"' {
		if l.b[l.pos] == '\\' {
			l.pos++
		}

		l.pos++
	}

	text := string(l.b[st:min(l.pos, len(l.b))])

	if l.pos < len(l.b) {
		l.pos++ // closing quote
	}

	return l.tok(StringLit, text)
}

func (l *Lexer) skipSpacesAndComments() {
	for l.pos < len(l.b) {
		switch c := l.b[l.pos]; {
		case c == ' ' || c == '\t' || c == '\r':
			l.pos++
		case c == '\n':
			l.line++
			l.pos++
		case c == '/' && l.pos+1 < len(l.b) && l.b[l.pos+1] == '/':
			for l.pos < len(l.b) && l.b[l.pos] != '\n' {
				l.pos++
			}
		case c == '/' && l.pos+1 < len(l.b) && l.b[l.pos+1] == '*':
			l.pos += 2

			for l.pos < len(l.b) {
				if l.b[l.pos] == '*' && l.pos+1 < len(l.b) && l.b[l.pos+1] == '/' {
					l.pos += 2
					break
				}

				if l.b[l.pos] == '\n' {
					l.line++
				}

				l.pos++
			}
		default:
			return
		}
	}
}

func (l *Lexer) match(c byte) bool {
	if l.pos == len(l.b) || l.b[l.pos] != c {
		return false
	}

	l.pos++

	return true
}

func (l *Lexer) tok(k Kind, lex string) Token {
	return Token{Kind: k, Lex: lex, Line: l.line}
}

func (t Token) String() string {
	return fmt.Sprintf("%v:%d", t.Lex, t.Line)
}

func isAlpha(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z'
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}
