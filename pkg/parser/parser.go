package parser

import (
	"fmt"
	"strings"

	"ng/interpreter-go/pkg/ast"
)

// Error is one syntax error with the position it was detected at.
type Error struct {
	Pos ast.Span
	Msg string
}

func (e *Error) Error() string {
	return fmt.Sprintf("parse error at %s: %s", e.Pos, e.Msg)
}

// ErrorList collects every syntax error of one parse.
type ErrorList []*Error

func (l ErrorList) Error() string {
	msgs := make([]string, len(l))
	for i, e := range l {
		msgs[i] = e.Error()
	}
	return strings.Join(msgs, "\n")
}

// ModuleParser turns NG source into the canonical AST module.
type ModuleParser struct{}

func NewModuleParser() *ModuleParser { return &ModuleParser{} }

// ParseModule parses a complete compile unit.
func (ModuleParser) ParseModule(source []byte) (*ast.Module, error) {
	p := newParser(source)
	mod := p.parseModule()
	if len(p.errors) > 0 {
		return nil, p.errors
	}
	return mod, nil
}

type (
	prefixParseFn func() ast.Expression
	infixParseFn  func(ast.Expression) ast.Expression
)

type parser struct {
	l *lexer

	curToken  Token
	peekToken Token

	errors ErrorList

	prefixFns map[TokenType]prefixParseFn
	infixFns  map[TokenType]infixParseFn
}

func newParser(source []byte) *parser {
	p := &parser{l: newLexer(source)}

	p.prefixFns = map[TokenType]prefixParseFn{
		tokenIdent:    p.parseIdentifier,
		tokenInt:      p.parseIntegerLiteral,
		tokenFloat:    p.parseFloatLiteral,
		tokenString:   p.parseStringLiteral,
		tokenChar:     p.parseCharLiteral,
		tokenTrue:     p.parseBooleanLiteral,
		tokenFalse:    p.parseBooleanLiteral,
		tokenLParen:   p.parseParenthesized,
		tokenLBracket: p.parseArrayLiteral,
		tokenNew:      p.parseNewExpression,
		tokenBang:     p.parsePrefixExpression,
		tokenMinus:    p.parsePrefixExpression,
	}
	p.infixFns = make(map[TokenType]infixParseFn)
	for tt := range precedences {
		p.infixFns[tt] = p.parseInfixExpression
	}
	p.infixFns[tokenLParen] = p.parseCallExpression
	p.infixFns[tokenDot] = p.parseMemberExpression
	p.infixFns[tokenLBracket] = p.parseIndexExpression

	p.nextToken()
	p.nextToken()
	return p
}

func (p *parser) nextToken() {
	p.curToken = p.peekToken
	p.peekToken = p.l.NextToken()
	if p.peekToken.Type == tokenIllegal {
		p.addError(p.peekToken.Pos, p.peekToken.Literal)
	}
}

func (p *parser) curIs(tt TokenType) bool  { return p.curToken.Type == tt }
func (p *parser) peekIs(tt TokenType) bool { return p.peekToken.Type == tt }

// expectPeek advances when the next token has the wanted type and records an error otherwise.
func (p *parser) expectPeek(tt TokenType) bool {
	if p.peekIs(tt) {
		p.nextToken()
		return true
	}
	p.errorExpected(p.peekToken, tokenLabel(tt))
	return false
}

// endStatement consumes an optional trailing semicolon.
func (p *parser) endStatement() {
	if p.peekIs(tokenSemicolon) {
		p.nextToken()
	}
}

func (p *parser) addError(pos ast.Span, msg string) {
	p.errors = append(p.errors, &Error{Pos: pos, Msg: msg})
}

func (p *parser) errorExpected(tok Token, expected string) {
	if tok.Type == tokenIllegal {
		return
	}
	p.addError(tok.Pos, fmt.Sprintf("expected %s, got %s", expected, tokenLabel(tok.Type)))
}

func (p *parser) errorUnexpected(tok Token) {
	if tok.Type == tokenIllegal {
		return
	}
	p.addError(tok.Pos, fmt.Sprintf("unexpected token %s", tokenLabel(tok.Type)))
}

func annotate[T ast.Node](node T, pos ast.Span) T {
	ast.SetSpan(node, pos)
	return node
}
