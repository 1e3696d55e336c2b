package parser

import "ng/interpreter-go/pkg/ast"

func (p *parser) parseDefinition() ast.Definition {
	switch p.curToken.Type {
	case tokenFun:
		if fn := p.parseFunctionDefinition(); fn != nil {
			return fn
		}
	case tokenType:
		if td := p.parseTypeDefinition(); td != nil {
			return td
		}
	case tokenVal:
		if val := p.parseValDefinition(); val != nil {
			return val
		}
	default:
		p.errorUnexpected(p.curToken)
	}
	return nil
}

// fun name(a, b) { ... }
func (p *parser) parseFunctionDefinition() *ast.FunctionDefinition {
	pos := p.curToken.Pos
	if !p.expectPeek(tokenIdent) {
		return nil
	}
	id := annotate(ast.NewIdentifier(p.curToken.Literal), p.curToken.Pos)
	if !p.expectPeek(tokenLParen) {
		return nil
	}
	var params []*ast.Identifier
	if p.peekIs(tokenRParen) {
		p.nextToken()
	} else {
		for {
			if !p.expectPeek(tokenIdent) {
				return nil
			}
			params = append(params, annotate(ast.NewIdentifier(p.curToken.Literal), p.curToken.Pos))
			if !p.peekIs(tokenComma) {
				break
			}
			p.nextToken()
		}
		if !p.expectPeek(tokenRParen) {
			return nil
		}
	}
	if !p.expectPeek(tokenLBrace) {
		return nil
	}
	body := p.parseBlock()
	if body == nil {
		return nil
	}
	return annotate(ast.NewFunctionDefinition(id, params, body), pos)
}

// type T { property a; property b, c; fun m(x) { ... } }
func (p *parser) parseTypeDefinition() *ast.TypeDefinition {
	pos := p.curToken.Pos
	if !p.expectPeek(tokenIdent) {
		return nil
	}
	id := annotate(ast.NewIdentifier(p.curToken.Literal), p.curToken.Pos)
	if !p.expectPeek(tokenLBrace) {
		return nil
	}
	var (
		props   []*ast.Identifier
		methods []*ast.FunctionDefinition
	)
	for !p.peekIs(tokenRBrace) {
		p.nextToken()
		switch p.curToken.Type {
		case tokenSemicolon:
		case tokenProperty:
			for {
				if !p.expectPeek(tokenIdent) {
					return nil
				}
				props = append(props, annotate(ast.NewIdentifier(p.curToken.Literal), p.curToken.Pos))
				if !p.peekIs(tokenComma) {
					break
				}
				p.nextToken()
			}
			p.endStatement()
		case tokenFun:
			fn := p.parseFunctionDefinition()
			if fn == nil {
				return nil
			}
			methods = append(methods, fn)
		default:
			p.errorExpected(p.curToken, "'property' or 'fun'")
			return nil
		}
	}
	p.nextToken()
	return annotate(ast.NewTypeDefinition(id, props, methods), pos)
}

// val name = expr;
func (p *parser) parseValDefinition() *ast.ValDefinition {
	pos := p.curToken.Pos
	if !p.expectPeek(tokenIdent) {
		return nil
	}
	id := annotate(ast.NewIdentifier(p.curToken.Literal), p.curToken.Pos)
	if !p.expectPeek(tokenAssign) {
		return nil
	}
	p.nextToken()
	value := p.parseExpression(lowestPrec)
	if value == nil {
		return nil
	}
	p.endStatement()
	return annotate(ast.NewValDefinition(id, value), pos)
}
