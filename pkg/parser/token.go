package parser

import "ng/interpreter-go/pkg/ast"

// TokenType identifies the lexical category of a token.
type TokenType string

const (
	tokenIllegal TokenType = "ILLEGAL"
	tokenEOF     TokenType = "EOF"

	tokenIdent  TokenType = "IDENT"
	tokenInt    TokenType = "INT"
	tokenFloat  TokenType = "FLOAT"
	tokenString TokenType = "STRING"
	tokenChar   TokenType = "CHAR"

	tokenAssign   TokenType = "="
	tokenPlus     TokenType = "+"
	tokenMinus    TokenType = "-"
	tokenBang     TokenType = "!"
	tokenAsterisk TokenType = "*"
	tokenSlash    TokenType = "/"
	tokenPercent  TokenType = "%"
	tokenLT       TokenType = "<"
	tokenGT       TokenType = ">"
	tokenLTE      TokenType = "<="
	tokenGTE      TokenType = ">="
	tokenEQ       TokenType = "=="
	tokenNotEQ    TokenType = "!="
	tokenShl      TokenType = "<<"
	tokenShr      TokenType = ">>"
	tokenAnd      TokenType = "&&"
	tokenOr       TokenType = "||"

	tokenComma     TokenType = ","
	tokenColon     TokenType = ":"
	tokenSemicolon TokenType = ";"
	tokenDot       TokenType = "."
	tokenLParen    TokenType = "("
	tokenRParen    TokenType = ")"
	tokenLBrace    TokenType = "{"
	tokenRBrace    TokenType = "}"
	tokenLBracket  TokenType = "["
	tokenRBracket  TokenType = "]"

	tokenImport   TokenType = "IMPORT"
	tokenExport   TokenType = "EXPORT"
	tokenAs       TokenType = "AS"
	tokenFun      TokenType = "FUN"
	tokenType     TokenType = "TYPE"
	tokenProperty TokenType = "PROPERTY"
	tokenVal      TokenType = "VAL"
	tokenIf       TokenType = "IF"
	tokenElse     TokenType = "ELSE"
	tokenReturn   TokenType = "RETURN"
	tokenLoop     TokenType = "LOOP"
	tokenNext     TokenType = "NEXT"
	tokenNew      TokenType = "NEW"
	tokenTrue     TokenType = "TRUE"
	tokenFalse    TokenType = "FALSE"
)

var keywords = map[string]TokenType{
	"import":   tokenImport,
	"export":   tokenExport,
	"as":       tokenAs,
	"fun":      tokenFun,
	"type":     tokenType,
	"property": tokenProperty,
	"val":      tokenVal,
	"if":       tokenIf,
	"else":     tokenElse,
	"return":   tokenReturn,
	"loop":     tokenLoop,
	"next":     tokenNext,
	"new":      tokenNew,
	"true":     tokenTrue,
	"false":    tokenFalse,
}

func lookupIdent(ident string) TokenType {
	if tt, ok := keywords[ident]; ok {
		return tt
	}
	return tokenIdent
}

// Token captures lexical information for the parser.
type Token struct {
	Type    TokenType
	Literal string
	Pos     ast.Span
}

func tokenLabel(tt TokenType) string {
	switch tt {
	case tokenIllegal:
		return "invalid token"
	case tokenEOF:
		return "end of input"
	case tokenIdent:
		return "identifier"
	case tokenInt:
		return "integer"
	case tokenFloat:
		return "float"
	case tokenString:
		return "string"
	case tokenChar:
		return "character"
	}
	for word, kw := range keywords {
		if kw == tt {
			return "'" + word + "'"
		}
	}
	return "'" + string(tt) + "'"
}
