package main

import "testing"

func TestScanLine(t *testing.T) {
	toks, err := scanLine(`bind s "two words" 1:3 4.5`)
	if err != nil {
		t.Fatal(err)
	}
	want := []token{
		{typ: tokIdent, lexeme: "bind"},
		{typ: tokIdent, lexeme: "s"},
		{typ: tokString, lexeme: "two words"},
		{typ: tokNumber, lexeme: "1", literal: 1},
		{typ: tokColon, lexeme: ":"},
		{typ: tokNumber, lexeme: "3", literal: 3},
		{typ: tokNumber, lexeme: "4.5", literal: 4.5},
	}
	if len(toks) != len(want) {
		t.Fatalf("got %d tokens, want %d: %v", len(toks), len(want), toks)
	}
	for i := range want {
		if toks[i] != want[i] {
			t.Errorf("token %d = %+v, want %+v", i, toks[i], want[i])
		}
	}
}

func TestScanLineEdges(t *testing.T) {
	// comments scan to nothing
	toks, err := scanLine("# a comment")
	if err != nil || len(toks) != 0 {
		t.Errorf("comment line: %v, %v", toks, err)
	}

	// filenames are identifiers
	toks, err = scanLine("svg out.svg")
	if err != nil || len(toks) != 2 || toks[1].lexeme != "out.svg" {
		t.Errorf("filename scan: %v, %v", toks, err)
	}

	if _, err := scanLine(`bind s "unclosed`); err != errUnclosedString {
		t.Errorf("unclosed string: %v", err)
	}
	if _, err := scanLine("bind x @"); err != errIllegalChar {
		t.Errorf("illegal char: %v", err)
	}
}
