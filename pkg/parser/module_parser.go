package parser

import "ng/interpreter-go/pkg/ast"

// parseModule reads top-level items until end of input. Parsing stops at the
// first error; later errors would only echo it.
func (p *parser) parseModule() *ast.Module {
	var (
		imports []*ast.ImportStatement
		exports []*ast.ExportStatement
		defs    []ast.Definition
		body    []ast.Statement
	)
	for !p.curIs(tokenEOF) && len(p.errors) == 0 {
		switch p.curToken.Type {
		case tokenSemicolon:
		case tokenImport:
			if imp := p.parseImport(); imp != nil {
				imports = append(imports, imp)
			}
		case tokenExport:
			if exp := p.parseExport(); exp != nil {
				exports = append(exports, exp)
			}
		case tokenFun, tokenType, tokenVal:
			if def := p.parseDefinition(); def != nil {
				defs = append(defs, def)
			}
		default:
			if stmt := p.parseStatement(); stmt != nil {
				body = append(body, stmt)
			}
		}
		p.nextToken()
	}
	return ast.NewModule(imports, exports, defs, body)
}

// import a.b.c;  import a.b.c as x;  import a.b.c (f, g);  import a.b.c (*);
func (p *parser) parseImport() *ast.ImportStatement {
	pos := p.curToken.Pos
	path := p.parseDottedPath()
	if path == nil {
		return nil
	}
	var (
		names []string
		alias *ast.Identifier
	)
	switch {
	case p.peekIs(tokenAs):
		p.nextToken()
		if !p.expectPeek(tokenIdent) {
			return nil
		}
		alias = annotate(ast.NewIdentifier(p.curToken.Literal), p.curToken.Pos)
	case p.peekIs(tokenLParen):
		p.nextToken()
		names = p.parseNameList(tokenRParen)
		if names == nil {
			return nil
		}
	}
	p.endStatement()
	return annotate(ast.NewImportStatement(path, names, alias), pos)
}

func (p *parser) parseDottedPath() []string {
	if !p.expectPeek(tokenIdent) {
		return nil
	}
	path := []string{p.curToken.Literal}
	for p.peekIs(tokenDot) {
		p.nextToken()
		if !p.expectPeek(tokenIdent) {
			return nil
		}
		path = append(path, p.curToken.Literal)
	}
	return path
}

// parseNameList reads `name, name` or `*` up to the closing token. With end
// set to tokenEOF the list ends at the first token that is not a comma.
func (p *parser) parseNameList(end TokenType) []string {
	var names []string
	if p.peekIs(tokenAsterisk) {
		p.nextToken()
		names = append(names, ast.Wildcard)
	} else {
		if !p.expectPeek(tokenIdent) {
			return nil
		}
		names = append(names, p.curToken.Literal)
		for p.peekIs(tokenComma) {
			p.nextToken()
			if !p.expectPeek(tokenIdent) {
				return nil
			}
			names = append(names, p.curToken.Literal)
		}
	}
	if end != tokenEOF && !p.expectPeek(end) {
		return nil
	}
	return names
}

// export f, g;  export *;
func (p *parser) parseExport() *ast.ExportStatement {
	pos := p.curToken.Pos
	names := p.parseNameList(tokenEOF)
	if names == nil {
		return nil
	}
	p.endStatement()
	return annotate(ast.NewExportStatement(names), pos)
}
