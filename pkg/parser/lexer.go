package parser

import (
	"strings"

	"ng/interpreter-go/pkg/ast"
)

type lexer struct {
	input []byte

	offset int
	line   int
	column int
}

func newLexer(input []byte) *lexer {
	return &lexer{input: input, line: 1, column: 1}
}

func (l *lexer) peek(n int) byte {
	if l.offset+n >= len(l.input) {
		return 0
	}
	return l.input[l.offset+n]
}

func (l *lexer) advance() byte {
	if l.offset >= len(l.input) {
		return 0
	}
	ch := l.input[l.offset]
	l.offset++
	if ch == '\n' {
		l.line++
		l.column = 1
	} else {
		l.column++
	}
	return ch
}

func (l *lexer) pos() ast.Span { return ast.Span{Line: l.line, Column: l.column} }

// NextToken scans the next token, skipping whitespace and comments.
func (l *lexer) NextToken() Token {
	if msg := l.skipWhitespaceAndComments(); msg != "" {
		return Token{Type: tokenIllegal, Literal: msg, Pos: l.pos()}
	}
	pos := l.pos()
	ch := l.peek(0)

	two := func(second byte, double, single TokenType) Token {
		l.advance()
		if l.peek(0) == second {
			l.advance()
			return Token{Type: double, Literal: string(double), Pos: pos}
		}
		return Token{Type: single, Literal: string(single), Pos: pos}
	}

	switch {
	case ch == 0:
		return Token{Type: tokenEOF, Pos: pos}
	case ch == '=':
		return two('=', tokenEQ, tokenAssign)
	case ch == '!':
		return two('=', tokenNotEQ, tokenBang)
	case ch == '<':
		if l.peek(1) == '<' {
			l.advance()
			l.advance()
			return Token{Type: tokenShl, Literal: "<<", Pos: pos}
		}
		return two('=', tokenLTE, tokenLT)
	case ch == '>':
		if l.peek(1) == '>' {
			l.advance()
			l.advance()
			return Token{Type: tokenShr, Literal: ">>", Pos: pos}
		}
		return two('=', tokenGTE, tokenGT)
	case ch == '&' && l.peek(1) == '&':
		l.advance()
		l.advance()
		return Token{Type: tokenAnd, Literal: "&&", Pos: pos}
	case ch == '|' && l.peek(1) == '|':
		l.advance()
		l.advance()
		return Token{Type: tokenOr, Literal: "||", Pos: pos}
	case ch == '"':
		literal, msg := l.readQuoted('"')
		if msg != "" {
			return Token{Type: tokenIllegal, Literal: msg, Pos: pos}
		}
		return Token{Type: tokenString, Literal: literal, Pos: pos}
	case ch == '\'':
		literal, msg := l.readQuoted('\'')
		if msg == "" && len(literal) != 1 {
			msg = "character literal must hold exactly one byte"
		}
		if msg != "" {
			return Token{Type: tokenIllegal, Literal: msg, Pos: pos}
		}
		return Token{Type: tokenChar, Literal: literal, Pos: pos}
	case isDigit(ch):
		literal, isFloat := l.readNumber()
		if isFloat {
			return Token{Type: tokenFloat, Literal: literal, Pos: pos}
		}
		return Token{Type: tokenInt, Literal: literal, Pos: pos}
	case isIdentifierStart(ch):
		literal := l.readIdentifier()
		return Token{Type: lookupIdent(literal), Literal: literal, Pos: pos}
	}

	l.advance()
	switch tt := TokenType(string(ch)); tt {
	case tokenPlus, tokenMinus, tokenAsterisk, tokenSlash, tokenPercent,
		tokenComma, tokenColon, tokenSemicolon, tokenDot,
		tokenLParen, tokenRParen, tokenLBrace, tokenRBrace, tokenLBracket, tokenRBracket:
		return Token{Type: tt, Literal: string(ch), Pos: pos}
	}
	return Token{Type: tokenIllegal, Literal: "unexpected character " + string(ch), Pos: pos}
}

func (l *lexer) skipWhitespaceAndComments() string {
	for {
		switch ch := l.peek(0); {
		case ch == ' ' || ch == '\t' || ch == '\r' || ch == '\n':
			l.advance()
		case ch == '/' && l.peek(1) == '/':
			for l.peek(0) != 0 && l.peek(0) != '\n' {
				l.advance()
			}
		case ch == '/' && l.peek(1) == '*':
			l.advance()
			l.advance()
			for !(l.peek(0) == '*' && l.peek(1) == '/') {
				if l.peek(0) == 0 {
					return "unterminated block comment"
				}
				l.advance()
			}
			l.advance()
			l.advance()
		default:
			return ""
		}
	}
}

func (l *lexer) readIdentifier() string {
	start := l.offset
	for isIdentifierRune(l.peek(0)) {
		l.advance()
	}
	return string(l.input[start:l.offset])
}

// readNumber scans digits, an optional fraction and an optional width suffix
// such as u8 or f32. The suffix stays in the literal.
func (l *lexer) readNumber() (string, bool) {
	start := l.offset
	isFloat := false
	for isDigit(l.peek(0)) || (l.peek(0) == '_' && isDigit(l.peek(1))) {
		l.advance()
	}
	if l.peek(0) == '.' && isDigit(l.peek(1)) {
		isFloat = true
		l.advance()
		for isDigit(l.peek(0)) {
			l.advance()
		}
	}
	if ch := l.peek(0); (ch == 'i' || ch == 'u' || ch == 'f') && isDigit(l.peek(1)) {
		if ch == 'f' {
			isFloat = true
		}
		l.advance()
		for isDigit(l.peek(0)) {
			l.advance()
		}
	}
	return strings.ReplaceAll(string(l.input[start:l.offset]), "_", ""), isFloat
}

func (l *lexer) readQuoted(quote byte) (string, string) {
	var sb strings.Builder
	l.advance()
	for {
		ch := l.advance()
		switch ch {
		case 0:
			return "", "unterminated literal"
		case quote:
			return sb.String(), ""
		case '\\':
			switch next := l.advance(); next {
			case 'n':
				sb.WriteByte('\n')
			case 't':
				sb.WriteByte('\t')
			case 'r':
				sb.WriteByte('\r')
			case '0':
				sb.WriteByte(0)
			case 0:
				return "", "unterminated literal"
			default:
				sb.WriteByte(next)
			}
		default:
			sb.WriteByte(ch)
		}
	}
}

func isDigit(ch byte) bool { return ch >= '0' && ch <= '9' }

func isIdentifierStart(ch byte) bool {
	return ch == '_' || (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z')
}

func isIdentifierRune(ch byte) bool { return isIdentifierStart(ch) || isDigit(ch) }
