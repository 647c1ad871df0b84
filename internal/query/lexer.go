// Package query implements the document filter expression language: parsing,
// evaluation against a document's frontmatter, and static analysis of the
// comparisons an expression contains.
package query

import "unicode"

// TokenType identifies a lexer token.
type TokenType int

const (
	TokenEOF TokenType = iota
	TokenIdent
	TokenString // quoted literal, Value holds the unquoted text
	TokenNumber
	TokenEq  // ==
	TokenNeq // !=
	TokenAnd // &&
	TokenOr  // ||
	TokenBang
	TokenLParen
	TokenRParen
	TokenComma
	TokenPlus
	TokenMinus
	TokenIllegal
)

// Token is one lexer token.
type Token struct {
	Type  TokenType
	Value string
	Pos   int
}

// Lexer tokenizes an expression string.
type Lexer struct {
	input string
	pos   int
}

// NewLexer creates a lexer for the given input.
func NewLexer(input string) *Lexer {
	return &Lexer{input: input}
}

// NextToken returns the next token.
func (l *Lexer) NextToken() Token {
	l.skipWhitespace()

	if l.pos >= len(l.input) {
		return Token{Type: TokenEOF, Pos: l.pos}
	}

	start := l.pos
	ch := l.input[l.pos]

	switch ch {
	case '(':
		l.pos++
		return Token{Type: TokenLParen, Value: "(", Pos: start}
	case ')':
		l.pos++
		return Token{Type: TokenRParen, Value: ")", Pos: start}
	case ',':
		l.pos++
		return Token{Type: TokenComma, Value: ",", Pos: start}
	case '+':
		l.pos++
		return Token{Type: TokenPlus, Value: "+", Pos: start}
	case '-':
		l.pos++
		return Token{Type: TokenMinus, Value: "-", Pos: start}
	case '=':
		if l.peekAt(1) == '=' {
			l.pos += 2
			return Token{Type: TokenEq, Value: "==", Pos: start}
		}
		l.pos++
		return Token{Type: TokenIllegal, Value: "=", Pos: start}
	case '!':
		if l.peekAt(1) == '=' {
			l.pos += 2
			return Token{Type: TokenNeq, Value: "!=", Pos: start}
		}
		l.pos++
		return Token{Type: TokenBang, Value: "!", Pos: start}
	case '&':
		if l.peekAt(1) == '&' {
			l.pos += 2
			return Token{Type: TokenAnd, Value: "&&", Pos: start}
		}
		l.pos++
		return Token{Type: TokenIllegal, Value: "&", Pos: start}
	case '|':
		if l.peekAt(1) == '|' {
			l.pos += 2
			return Token{Type: TokenOr, Value: "||", Pos: start}
		}
		l.pos++
		return Token{Type: TokenIllegal, Value: "|", Pos: start}
	case '\'', '"':
		return l.scanString(ch)
	}

	if isDigit(ch) {
		return l.scanNumber()
	}
	if isIdentStart(ch) {
		return l.scanIdent()
	}

	l.pos++
	return Token{Type: TokenIllegal, Value: string(ch), Pos: start}
}

func (l *Lexer) peekAt(offset int) byte {
	if l.pos+offset >= len(l.input) {
		return 0
	}
	return l.input[l.pos+offset]
}

func (l *Lexer) skipWhitespace() {
	for l.pos < len(l.input) && unicode.IsSpace(rune(l.input[l.pos])) {
		l.pos++
	}
}

func (l *Lexer) scanString(quote byte) Token {
	start := l.pos
	l.pos++ // opening quote
	for l.pos < len(l.input) {
		if l.input[l.pos] == quote {
			value := l.input[start+1 : l.pos]
			l.pos++
			return Token{Type: TokenString, Value: value, Pos: start}
		}
		l.pos++
	}
	// Unbalanced quote: a user mistake, not a fallback value.
	return Token{Type: TokenIllegal, Value: l.input[start:], Pos: start}
}

func (l *Lexer) scanNumber() Token {
	start := l.pos
	for l.pos < len(l.input) && (isDigit(l.input[l.pos]) || l.input[l.pos] == '.') {
		l.pos++
	}
	return Token{Type: TokenNumber, Value: l.input[start:l.pos], Pos: start}
}

func (l *Lexer) scanIdent() Token {
	start := l.pos
	for l.pos < len(l.input) && isIdentChar(l.input[l.pos]) {
		l.pos++
	}
	return Token{Type: TokenIdent, Value: l.input[start:l.pos], Pos: start}
}

func isDigit(ch byte) bool { return ch >= '0' && ch <= '9' }

func isIdentStart(ch byte) bool {
	return ch == '_' || (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z')
}

func isIdentChar(ch byte) bool { return isIdentStart(ch) || isDigit(ch) }
