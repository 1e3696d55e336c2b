package parser

import "ng/interpreter-go/pkg/ast"

const (
	lowestPrec = iota
	precOr
	precAnd
	precEquality
	precComparison
	precShift
	precSum
	precProduct
	precPrefix
	precCall
)

var precedences = map[TokenType]int{
	tokenOr:       precOr,
	tokenAnd:      precAnd,
	tokenEQ:       precEquality,
	tokenNotEQ:    precEquality,
	tokenLT:       precComparison,
	tokenLTE:      precComparison,
	tokenGT:       precComparison,
	tokenGTE:      precComparison,
	tokenShl:      precShift,
	tokenShr:      precShift,
	tokenPlus:     precSum,
	tokenMinus:    precSum,
	tokenSlash:    precProduct,
	tokenAsterisk: precProduct,
	tokenPercent:  precProduct,
	tokenLParen:   precCall,
	tokenDot:      precCall,
	tokenLBracket: precCall,
}

var binaryOperators = map[TokenType]ast.Operator{
	tokenOr:       ast.OpOr,
	tokenAnd:      ast.OpAnd,
	tokenEQ:       ast.OpEq,
	tokenNotEQ:    ast.OpNe,
	tokenLT:       ast.OpLt,
	tokenLTE:      ast.OpLe,
	tokenGT:       ast.OpGt,
	tokenGTE:      ast.OpGe,
	tokenShl:      ast.OpShl,
	tokenShr:      ast.OpShr,
	tokenPlus:     ast.OpAdd,
	tokenMinus:    ast.OpSub,
	tokenSlash:    ast.OpDiv,
	tokenAsterisk: ast.OpMul,
	tokenPercent:  ast.OpMod,
}

func (p *parser) peekPrecedence() int {
	if prec, ok := precedences[p.peekToken.Type]; ok {
		return prec
	}
	return lowestPrec
}

func (p *parser) curPrecedence() int {
	if prec, ok := precedences[p.curToken.Type]; ok {
		return prec
	}
	return lowestPrec
}

func (p *parser) parseExpression(precedence int) ast.Expression {
	prefix := p.prefixFns[p.curToken.Type]
	if prefix == nil {
		p.errorUnexpected(p.curToken)
		return nil
	}
	left := prefix()
	if left == nil {
		return nil
	}
	for !p.peekIs(tokenSemicolon) && precedence < p.peekPrecedence() {
		infix := p.infixFns[p.peekToken.Type]
		if infix == nil {
			return left
		}
		p.nextToken()
		if left = infix(left); left == nil {
			return nil
		}
	}
	return left
}

func (p *parser) parsePrefixExpression() ast.Expression {
	pos := p.curToken.Pos
	op := ast.OpNot
	if p.curIs(tokenMinus) {
		op = ast.OpNeg
	}
	p.nextToken()
	operand := p.parseExpression(precPrefix)
	if operand == nil {
		return nil
	}
	return annotate(ast.NewUnaryExpression(op, operand), pos)
}

func (p *parser) parseInfixExpression(left ast.Expression) ast.Expression {
	pos := p.curToken.Pos
	op := binaryOperators[p.curToken.Type]
	prec := p.curPrecedence()
	p.nextToken()
	right := p.parseExpression(prec)
	if right == nil {
		return nil
	}
	return annotate(ast.NewBinaryExpression(op, left, right), pos)
}

// parseCallExpression handles `name(args)`; only named functions are callable.
func (p *parser) parseCallExpression(callee ast.Expression) ast.Expression {
	id, ok := callee.(*ast.Identifier)
	if !ok {
		p.addError(p.curToken.Pos, "only named functions can be called")
		return nil
	}
	args, ok := p.parseExpressionList(tokenRParen)
	if !ok {
		return nil
	}
	return annotate(ast.NewFunctionCall(id, args), id.Span())
}

// parseMemberExpression handles `recv.name` and `recv.name(args)`.
func (p *parser) parseMemberExpression(receiver ast.Expression) ast.Expression {
	pos := p.curToken.Pos
	if !p.expectPeek(tokenIdent) {
		return nil
	}
	member := annotate(ast.NewIdentifier(p.curToken.Literal), p.curToken.Pos)
	if !p.peekIs(tokenLParen) {
		return annotate(ast.NewMemberAccess(receiver, member), pos)
	}
	p.nextToken()
	args, ok := p.parseExpressionList(tokenRParen)
	if !ok {
		return nil
	}
	return annotate(ast.NewMethodCall(receiver, member, args), pos)
}

func (p *parser) parseIndexExpression(receiver ast.Expression) ast.Expression {
	pos := p.curToken.Pos
	p.nextToken()
	index := p.parseExpression(lowestPrec)
	if index == nil || !p.expectPeek(tokenRBracket) {
		return nil
	}
	return annotate(ast.NewIndexExpression(receiver, index), pos)
}

// parseExpressionList reads comma separated expressions. It starts on the
// opening token and ends on end.
func (p *parser) parseExpressionList(end TokenType) ([]ast.Expression, bool) {
	var list []ast.Expression
	if p.peekIs(end) {
		p.nextToken()
		return list, true
	}
	for {
		p.nextToken()
		expr := p.parseExpression(lowestPrec)
		if expr == nil {
			return nil, false
		}
		list = append(list, expr)
		if !p.peekIs(tokenComma) {
			break
		}
		p.nextToken()
		if p.peekIs(end) {
			break
		}
	}
	if !p.expectPeek(end) {
		return nil, false
	}
	return list, true
}
