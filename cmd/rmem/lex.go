package main

import (
	"errors"
	"strconv"
)

type tokenType int

const (
	tokIdent tokenType = iota
	tokNumber
	tokString
	tokColon
)

type token struct {
	typ     tokenType
	lexeme  string
	literal float64
}

var errUnclosedString = errors.New("closing \" was expected")
var errIllegalChar = errors.New("illegal character")

type lexer struct {
	source  string
	start   int
	current int

	tokens []token
}

// scanLine tokenizes one REPL command line into identifiers, numbers,
// quoted strings and the ':' of range literals like 1:5.
func scanLine(line string) ([]token, error) {
	l := &lexer{source: line}
	for !l.isAtEnd() {
		l.start = l.current
		if err := l.scanToken(); err != nil {
			return nil, err
		}
	}
	return l.tokens, nil
}

func (l *lexer) scanToken() error {
	c := l.advance()
	switch c {
	case ':':
		l.emit(tokColon, 0)

	case '#':
		for !l.isAtEnd() {
			l.advance()
		}

	// Ignore whitespace
	case ' ':
	case '\r':
	case '\t':

	case '"':
		return l.string()

	default:
		if isDigit(c) || c == '-' {
			return l.number()
		}
		if isAlpha(c) {
			l.identifier()
			return nil
		}
		return errIllegalChar
	}
	return nil
}

func (l *lexer) string() error {
	for !l.isAtEnd() && l.peek() != '"' {
		l.advance()
	}
	if l.isAtEnd() {
		return errUnclosedString
	}
	literal := l.source[l.start+1 : l.current]

	// Consume ending "
	l.advance()

	l.tokens = append(l.tokens, token{typ: tokString, lexeme: literal})
	return nil
}

func (l *lexer) number() error {
	for !l.isAtEnd() && isDigit(l.peek()) {
		l.advance()
	}
	if !l.isAtEnd() && l.peek() == '.' {
		l.advance()
		for !l.isAtEnd() && isDigit(l.peek()) {
			l.advance()
		}
	}
	literal, err := strconv.ParseFloat(l.source[l.start:l.current], 64)
	if err != nil {
		return errIllegalChar
	}
	l.emit(tokNumber, literal)
	return nil
}

func (l *lexer) identifier() {
	for !l.isAtEnd() && (isAlpha(l.peek()) || isDigit(l.peek())) {
		l.advance()
	}
	l.emit(tokIdent, 0)
}

func (l *lexer) advance() byte {
	current := l.source[l.current]
	l.current++
	return current
}

func (l *lexer) peek() byte {
	return l.source[l.current]
}

func (l *lexer) emit(typ tokenType, literal float64) {
	l.tokens = append(l.tokens, token{
		typ:     typ,
		lexeme:  l.source[l.start:l.current],
		literal: literal,
	})
}

func (l *lexer) isAtEnd() bool {
	return l.current >= len(l.source)
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isAlpha(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c == '_' || c == '.'
}
