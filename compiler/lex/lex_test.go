package lex

import (
	"testing"
)

func TestTokenize(t *testing.T) {
	tokens := Tokenize([]byte(`int x = 5; print x;`))

	want := []Kind{Int, Ident, Assign, IntLit, Semicolon, Print, Ident, Semicolon, EOF}

	if len(tokens) != len(want) {
		t.Fatalf("got %d tokens, wanted %d: %v", len(tokens), len(want), tokens)
	}

	for i, k := range want {
		if tokens[i].Kind != k {
			t.Errorf("token %d: got %v (kind %d), wanted kind %d", i, tokens[i], tokens[i].Kind, k)
		}
	}
}

func TestOperators(t *testing.T) {
	tokens := Tokenize([]byte(`== != <= >= < > && || ! =`))

	want := []Kind{Eq, Neq, Leq, Geq, Lt, Gt, And, Or, Not, Assign, EOF}

	for i, k := range want {
		if tokens[i].Kind != k {
			t.Errorf("token %d: got %v, wanted kind %d", i, tokens[i], k)
		}
	}
}

func TestComments(t *testing.T) {
	tokens := Tokenize([]byte("// line comment\n/* block\ncomment */ x = 1;"))

	if tokens[0].Kind != Ident || tokens[0].Lex != "x" {
		t.Errorf("first token: got %v, wanted ident x", tokens[0])
	}

	if tokens[0].Line != 3 {
		t.Errorf("line: got %d, wanted 3", tokens[0].Line)
	}
}

func TestStringLit(t *testing.T) {
	tokens := Tokenize([]byte(`s = "hello world";`))

	if tokens[2].Kind != StringLit || tokens[2].Lex != "hello world" {
		t.Errorf("got %v, wanted string literal", tokens[2])
	}
}

func TestBoolLit(t *testing.T) {
	tokens := Tokenize([]byte(`true false trueish`))

	if tokens[0].Kind != BoolLit || tokens[1].Kind != BoolLit {
		t.Errorf("got %v %v, wanted bool literals", tokens[0], tokens[1])
	}

	if tokens[2].Kind != Ident {
		t.Errorf("got %v, wanted ident", tokens[2])
	}
}

func TestUnknown(t *testing.T) {
	tokens := Tokenize([]byte(`@ & |`))

	for i := 0; i < 3; i++ {
		if tokens[i].Kind != Unknown {
			t.Errorf("token %d: got %v, wanted Unknown", i, tokens[i])
		}
	}
}
