// Package lexer implements the lexical analysis (tokenization) for lox-lang.
package lexer

import (
	"strconv"

	"lox-lang/internal/diag"
	"lox-lang/internal/token"
	"lox-lang/internal/value"
)

// Lexer tokenizes source code into a sequence of tokens.
type Lexer struct {
	source   string
	filename string

	start   int // offset of the first character of the lexeme being scanned
	current int // offset of the character about to be consumed
	line    int // current line (1-based)
	col     int // current column (1-based)

	startLine int
	startCol  int

	tokens []token.Token
	diags  []diag.Diagnostic
}

// New creates a new Lexer for the given source text.
func New(source, filename string) *Lexer {
	return &Lexer{
		source:   source,
		filename: filename,
		line:     1,
		col:      1,
	}
}

// Scan tokenizes source in one call.
func Scan(source string) ([]token.Token, []diag.Diagnostic) {
	return New(source, "").Tokenize()
}

// Tokenize scans the entire source and returns all tokens and diagnostics.
// The returned slice always ends with exactly one EOF token.
func (l *Lexer) Tokenize() ([]token.Token, []diag.Diagnostic) {
	for !l.isAtEnd() {
		l.start = l.current
		l.startLine, l.startCol = l.line, l.col
		l.scanToken()
	}
	l.tokens = append(l.tokens, token.Token{Kind: token.EOF, Line: l.line, Column: l.col})
	return l.tokens, l.diags
}

// ---- internal helpers ----

func (l *Lexer) isAtEnd() bool {
	return l.current >= len(l.source)
}

// peek returns the current character without advancing, or 0 if at end.
func (l *Lexer) peek() byte {
	if l.isAtEnd() {
		return 0
	}
	return l.source[l.current]
}

// peekNext returns the character after current, or 0 if at end.
func (l *Lexer) peekNext() byte {
	if l.current+1 >= len(l.source) {
		return 0
	}
	return l.source[l.current+1]
}

// advance consumes the current character and returns it.
func (l *Lexer) advance() byte {
	ch := l.source[l.current]
	l.current++
	if ch == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}
	return ch
}

// matchNext consumes the current character only if it equals expected.
func (l *Lexer) matchNext(expected byte) bool {
	if l.isAtEnd() || l.source[l.current] != expected {
		return false
	}
	l.advance()
	return true
}

func (l *Lexer) addToken(kind token.Kind) {
	l.addLiteral(kind, nil)
}

func (l *Lexer) addLiteral(kind token.Kind, literal value.Value) {
	l.tokens = append(l.tokens, token.Token{
		Kind:    kind,
		Lexeme:  l.source[l.start:l.current],
		Literal: literal,
		Line:    l.startLine,
		Column:  l.startCol,
	})
}

// addError records a diagnostic at the start of the current lexeme.
func (l *Lexer) addError(code, format string, args ...interface{}) {
	d := diag.Errorf(code, l.startLine, l.startCol, format, args...)
	d.File = l.filename
	l.diags = append(l.diags, d)
}

// ---- token reading ----

func (l *Lexer) scanToken() {
	ch := l.advance()

	switch ch {
	case '(':
		l.addToken(token.LEFT_PAREN)
	case ')':
		l.addToken(token.RIGHT_PAREN)
	case '{':
		l.addToken(token.LEFT_BRACE)
	case '}':
		l.addToken(token.RIGHT_BRACE)
	case ',':
		l.addToken(token.COMMA)
	case '.':
		l.addToken(token.DOT)
	case '-':
		l.addToken(token.MINUS)
	case '+':
		l.addToken(token.PLUS)
	case ';':
		l.addToken(token.SEMICOLON)
	case '*':
		l.addToken(token.STAR)
	case '!':
		l.addToken(l.either('=', token.BANG_EQUAL, token.BANG))
	case '=':
		l.addToken(l.either('=', token.EQUAL_EQUAL, token.EQUAL))
	case '<':
		l.addToken(l.either('=', token.LESS_EQUAL, token.LESS))
	case '>':
		l.addToken(l.either('=', token.GREATER_EQUAL, token.GREATER))
	case '/':
		if l.matchNext('/') {
			l.skipLineComment()
		} else {
			l.addToken(token.SLASH)
		}
	case ' ', '\t', '\r', '\n':
		// whitespace; advance already counted the newline
	case '"':
		l.readString()
	default:
		switch {
		case isDigit(ch):
			l.readNumber()
		case isIdentStart(ch):
			l.readIdentifier()
		default:
			l.addError("E1003", "Unexpected character '%c'.", ch)
		}
	}
}

// either picks the two-character kind when the next character is second.
func (l *Lexer) either(second byte, two, one token.Kind) token.Kind {
	if l.matchNext(second) {
		return two
	}
	return one
}

// skipLineComment skips from // to end of line, leaving the newline in place.
func (l *Lexer) skipLineComment() {
	for !l.isAtEnd() && l.peek() != '\n' {
		l.advance()
	}
}

// readString reads a double-quoted string. Strings may span lines and
// have no escape sequences.
func (l *Lexer) readString() {
	for !l.isAtEnd() && l.peek() != '"' {
		l.advance()
	}

	if l.isAtEnd() {
		l.addError("E1001", "Unterminated string.")
		return
	}

	l.advance() // closing "
	text := l.source[l.start+1 : l.current-1]
	l.addLiteral(token.STRING, value.String(text))
}

// readNumber reads digits with an optional fractional part. A '.' is only
// part of the number when a digit follows it.
func (l *Lexer) readNumber() {
	for isDigit(l.peek()) {
		l.advance()
	}

	if l.peek() == '.' && isDigit(l.peekNext()) {
		l.advance() // skip '.'
		for isDigit(l.peek()) {
			l.advance()
		}
	}

	lexeme := l.source[l.start:l.current]
	n, err := strconv.ParseFloat(lexeme, 64)
	if err != nil {
		l.addError("E1002", "Invalid number literal '%s'.", lexeme)
		return
	}
	l.addLiteral(token.NUMBER, value.Number(n))
}

// readIdentifier reads an identifier or keyword.
func (l *Lexer) readIdentifier() {
	for isIdentPart(l.peek()) {
		l.advance()
	}
	l.addToken(token.LookupIdent(l.source[l.start:l.current]))
}

// ---- character classification ----

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}

func isIdentStart(ch byte) bool {
	return ch == '_' || (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z')
}

func isIdentPart(ch byte) bool {
	return isIdentStart(ch) || isDigit(ch)
}
