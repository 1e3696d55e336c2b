package parser

import "ng/interpreter-go/pkg/ast"

func (p *parser) parseStatement() ast.Statement {
	switch p.curToken.Type {
	case tokenLBrace:
		if block := p.parseBlock(); block != nil {
			return block
		}
	case tokenIf:
		if stmt := p.parseIfStatement(); stmt != nil {
			return stmt
		}
	case tokenReturn:
		if stmt := p.parseReturnStatement(); stmt != nil {
			return stmt
		}
	case tokenLoop:
		if stmt := p.parseLoopStatement(); stmt != nil {
			return stmt
		}
	case tokenNext:
		if stmt := p.parseNextStatement(); stmt != nil {
			return stmt
		}
	case tokenFun, tokenType, tokenVal:
		if def := p.parseDefinition(); def != nil {
			return def.(ast.Statement)
		}
	case tokenImport, tokenExport:
		p.addError(p.curToken.Pos, tokenLabel(p.curToken.Type)+" is only allowed at module level")
	default:
		return p.parseExpressionOrAssignStatement()
	}
	return nil
}

// parseBlock reads `{ stmt* }`, starting on the opening brace and ending on the closing one.
func (p *parser) parseBlock() *ast.CompoundStatement {
	pos := p.curToken.Pos
	var body []ast.Statement
	for !p.peekIs(tokenRBrace) {
		if p.peekIs(tokenEOF) {
			p.errorExpected(p.peekToken, "'}'")
			return nil
		}
		p.nextToken()
		if p.curIs(tokenSemicolon) {
			continue
		}
		stmt := p.parseStatement()
		if stmt == nil {
			return nil
		}
		body = append(body, stmt)
	}
	p.nextToken()
	return annotate(ast.NewCompoundStatement(body), pos)
}

// if (cond) stmt [else stmt]
func (p *parser) parseIfStatement() *ast.IfStatement {
	pos := p.curToken.Pos
	if !p.expectPeek(tokenLParen) {
		return nil
	}
	p.nextToken()
	cond := p.parseExpression(lowestPrec)
	if cond == nil || !p.expectPeek(tokenRParen) {
		return nil
	}
	p.nextToken()
	then := p.parseStatement()
	if then == nil {
		return nil
	}
	var els ast.Statement
	if p.peekIs(tokenElse) {
		p.nextToken()
		p.nextToken()
		if els = p.parseStatement(); els == nil {
			return nil
		}
	}
	return annotate(ast.NewIfStatement(cond, then, els), pos)
}

// return; | return expr;
func (p *parser) parseReturnStatement() *ast.ReturnStatement {
	pos := p.curToken.Pos
	var arg ast.Expression
	if !p.peekIs(tokenSemicolon) && !p.peekIs(tokenRBrace) && !p.peekIs(tokenEOF) {
		p.nextToken()
		if arg = p.parseExpression(lowestPrec); arg == nil {
			return nil
		}
	}
	p.endStatement()
	return annotate(ast.NewReturnStatement(arg), pos)
}

// loop [a = e, b = e] stmt
func (p *parser) parseLoopStatement() *ast.LoopStatement {
	pos := p.curToken.Pos
	var bindings []*ast.LoopBinding
	if p.peekIs(tokenLBracket) {
		p.nextToken()
		for !p.peekIs(tokenRBracket) {
			if !p.expectPeek(tokenIdent) {
				return nil
			}
			namePos := p.curToken.Pos
			name := annotate(ast.NewIdentifier(p.curToken.Literal), namePos)
			if !p.expectPeek(tokenAssign) {
				return nil
			}
			p.nextToken()
			value := p.parseExpression(lowestPrec)
			if value == nil {
				return nil
			}
			bindings = append(bindings, annotate(ast.NewLoopBinding(name, value), namePos))
			if !p.peekIs(tokenComma) {
				break
			}
			p.nextToken()
		}
		if !p.expectPeek(tokenRBracket) {
			return nil
		}
	}
	p.nextToken()
	body := p.parseStatement()
	if body == nil {
		return nil
	}
	return annotate(ast.NewLoopStatement(bindings, body), pos)
}

// next; | next [e, e];
func (p *parser) parseNextStatement() *ast.NextStatement {
	pos := p.curToken.Pos
	var values []ast.Expression
	if p.peekIs(tokenLBracket) {
		p.nextToken()
		var ok bool
		if values, ok = p.parseExpressionList(tokenRBracket); !ok {
			return nil
		}
	}
	p.endStatement()
	return annotate(ast.NewNextStatement(values), pos)
}

// parseExpressionOrAssignStatement handles `expr;`, `x = e;`, `a[i] = e;` and `o.p = e;`.
func (p *parser) parseExpressionOrAssignStatement() ast.Statement {
	pos := p.curToken.Pos
	expr := p.parseExpression(lowestPrec)
	if expr == nil {
		return nil
	}
	if !p.peekIs(tokenAssign) {
		p.endStatement()
		return expr
	}
	p.nextToken()
	p.nextToken()
	value := p.parseExpression(lowestPrec)
	if value == nil {
		return nil
	}
	p.endStatement()
	switch target := expr.(type) {
	case *ast.Identifier:
		return annotate(ast.NewAssignment(target, value), pos)
	case *ast.IndexExpression:
		return annotate(ast.NewIndexAssignment(target.Receiver, target.Index, value), pos)
	case *ast.MemberAccess:
		return annotate(ast.NewMemberAssignment(target.Receiver, target.Member, value), pos)
	}
	p.addError(pos, "invalid assignment target")
	return nil
}
