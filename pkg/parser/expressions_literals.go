package parser

import (
	"strconv"
	"strings"

	"ng/interpreter-go/pkg/ast"
)

func (p *parser) parseIdentifier() ast.Expression {
	return annotate(ast.NewIdentifier(p.curToken.Literal), p.curToken.Pos)
}

// splitSuffix separates a numeric literal from its width suffix (10u8 -> 10, u8).
func splitSuffix(literal string) (string, string) {
	if i := strings.IndexAny(literal, "iuf"); i >= 0 {
		return literal[:i], literal[i:]
	}
	return literal, ""
}

func (p *parser) parseIntegerLiteral() ast.Expression {
	digits, suffix := splitSuffix(p.curToken.Literal)
	switch t := ast.IntegerType(suffix); t {
	case "", ast.IntegerTypeI8, ast.IntegerTypeI16, ast.IntegerTypeI32, ast.IntegerTypeI64,
		ast.IntegerTypeU8, ast.IntegerTypeU16, ast.IntegerTypeU32, ast.IntegerTypeU64:
		v, err := strconv.ParseUint(digits, 10, 64)
		if err != nil {
			p.addError(p.curToken.Pos, "integer literal out of range: "+p.curToken.Literal)
			return nil
		}
		return annotate(ast.NewIntegerLiteral(v, t), p.curToken.Pos)
	}
	p.addError(p.curToken.Pos, "unknown integer suffix "+suffix)
	return nil
}

func (p *parser) parseFloatLiteral() ast.Expression {
	digits, suffix := splitSuffix(p.curToken.Literal)
	t := ast.FloatType(suffix)
	bitSize := 64
	switch t {
	case "", ast.FloatTypeF64:
	case ast.FloatTypeF32:
		bitSize = 32
	default:
		p.addError(p.curToken.Pos, "unknown float suffix "+suffix)
		return nil
	}
	v, err := strconv.ParseFloat(digits, bitSize)
	if err != nil {
		p.addError(p.curToken.Pos, "invalid float literal "+p.curToken.Literal)
		return nil
	}
	return annotate(ast.NewFloatLiteral(v, t), p.curToken.Pos)
}

func (p *parser) parseStringLiteral() ast.Expression {
	return annotate(ast.NewStringLiteral(p.curToken.Literal), p.curToken.Pos)
}

func (p *parser) parseCharLiteral() ast.Expression {
	return annotate(ast.NewCharLiteral(p.curToken.Literal[0]), p.curToken.Pos)
}

func (p *parser) parseBooleanLiteral() ast.Expression {
	return annotate(ast.NewBooleanLiteral(p.curIs(tokenTrue)), p.curToken.Pos)
}

// parseParenthesized handles `()`, `(e)`, `(e,)` and `(a, b, ...)`.
func (p *parser) parseParenthesized() ast.Expression {
	pos := p.curToken.Pos
	if p.peekIs(tokenRParen) {
		p.nextToken()
		return annotate(ast.NewUnitLiteral(), pos)
	}
	p.nextToken()
	first := p.parseExpression(lowestPrec)
	if first == nil {
		return nil
	}
	if p.peekIs(tokenRParen) {
		p.nextToken()
		return first
	}
	if !p.expectPeek(tokenComma) {
		return nil
	}
	elems := []ast.Expression{first}
	if !p.peekIs(tokenRParen) {
		rest, ok := p.parseExpressionList(tokenRParen)
		if !ok {
			return nil
		}
		elems = append(elems, rest...)
	} else {
		p.nextToken()
	}
	return annotate(ast.NewTupleLiteral(elems), pos)
}

func (p *parser) parseArrayLiteral() ast.Expression {
	pos := p.curToken.Pos
	elems, ok := p.parseExpressionList(tokenRBracket)
	if !ok {
		return nil
	}
	return annotate(ast.NewArrayLiteral(elems), pos)
}

// new T { a: e, b: e }
func (p *parser) parseNewExpression() ast.Expression {
	pos := p.curToken.Pos
	if !p.expectPeek(tokenIdent) {
		return nil
	}
	typeName := annotate(ast.NewIdentifier(p.curToken.Literal), p.curToken.Pos)
	var props []*ast.PropertyInitializer
	if !p.peekIs(tokenLBrace) {
		return annotate(ast.NewNewExpression(typeName, props), pos)
	}
	p.nextToken()
	for !p.peekIs(tokenRBrace) {
		if !p.expectPeek(tokenIdent) {
			return nil
		}
		namePos := p.curToken.Pos
		name := annotate(ast.NewIdentifier(p.curToken.Literal), namePos)
		if !p.expectPeek(tokenColon) {
			return nil
		}
		p.nextToken()
		value := p.parseExpression(lowestPrec)
		if value == nil {
			return nil
		}
		props = append(props, annotate(ast.NewPropertyInitializer(name, value), namePos))
		if !p.peekIs(tokenComma) {
			break
		}
		p.nextToken()
	}
	if !p.expectPeek(tokenRBrace) {
		return nil
	}
	return annotate(ast.NewNewExpression(typeName, props), pos)
}
