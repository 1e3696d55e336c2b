package ast

import "strings"

// Short constructors for building trees by hand (embedders and tests).

func ID(name string) *Identifier { return NewIdentifier(name) }

func Int(v int64) Expression {
	if v < 0 {
		return NewUnaryExpression(OpNeg, NewIntegerLiteral(uint64(-v), ""))
	}
	return NewIntegerLiteral(uint64(v), "")
}

func IntT(v uint64, t IntegerType) *IntegerLiteral { return NewIntegerLiteral(v, t) }

func Flt(v float64) *FloatLiteral { return NewFloatLiteral(v, "") }

func FltT(v float64, t FloatType) *FloatLiteral { return NewFloatLiteral(v, t) }

func Str(s string) *StringLiteral { return NewStringLiteral(s) }

func Chr(c byte) *CharLiteral { return NewCharLiteral(c) }

func Bool(b bool) *BooleanLiteral { return NewBooleanLiteral(b) }

func Unit() *UnitLiteral { return NewUnitLiteral() }

func Arr(elements ...Expression) *ArrayLiteral { return NewArrayLiteral(elements) }

func Tup(elements ...Expression) *TupleLiteral { return NewTupleLiteral(elements) }

func Bin(op Operator, left, right Expression) *BinaryExpression {
	return NewBinaryExpression(op, left, right)
}

func Un(op Operator, operand Expression) *UnaryExpression { return NewUnaryExpression(op, operand) }

func Call(name string, args ...Expression) *FunctionCall {
	return NewFunctionCall(NewIdentifier(name), args)
}

func Method(receiver Expression, name string, args ...Expression) *MethodCall {
	return NewMethodCall(receiver, NewIdentifier(name), args)
}

func Member(receiver Expression, name string) *MemberAccess {
	return NewMemberAccess(receiver, NewIdentifier(name))
}

func Idx(receiver, index Expression) *IndexExpression { return NewIndexExpression(receiver, index) }

func Prop(name string, value Expression) *PropertyInitializer {
	return NewPropertyInitializer(NewIdentifier(name), value)
}

func New(typeName string, props ...*PropertyInitializer) *NewExpression {
	return NewNewExpression(NewIdentifier(typeName), props)
}

func Block(body ...Statement) *CompoundStatement { return NewCompoundStatement(body) }

func If(cond Expression, then, els Statement) *IfStatement { return NewIfStatement(cond, then, els) }

func Ret(arg Expression) *ReturnStatement { return NewReturnStatement(arg) }

func Set(name string, value Expression) *Assignment { return NewAssignment(NewIdentifier(name), value) }

func IdxSet(receiver, index, value Expression) *IndexAssignment {
	return NewIndexAssignment(receiver, index, value)
}

func MemberSet(receiver Expression, name string, value Expression) *MemberAssignment {
	return NewMemberAssignment(receiver, NewIdentifier(name), value)
}

func Bind(name string, value Expression) *LoopBinding {
	return NewLoopBinding(NewIdentifier(name), value)
}

func Loop(bindings []*LoopBinding, body Statement) *LoopStatement {
	return NewLoopStatement(bindings, body)
}

func Next(values ...Expression) *NextStatement { return NewNextStatement(values) }

func Val(name string, value Expression) *ValDefinition {
	return NewValDefinition(NewIdentifier(name), value)
}

func Fn(name string, params []string, body ...Statement) *FunctionDefinition {
	ids := make([]*Identifier, 0, len(params))
	for _, p := range params {
		ids = append(ids, NewIdentifier(p))
	}
	return NewFunctionDefinition(NewIdentifier(name), ids, NewCompoundStatement(body))
}

func TypeDef(name string, properties []string, methods ...*FunctionDefinition) *TypeDefinition {
	ids := make([]*Identifier, 0, len(properties))
	for _, p := range properties {
		ids = append(ids, NewIdentifier(p))
	}
	return NewTypeDefinition(NewIdentifier(name), ids, methods)
}

// Imp builds an import of a dotted path such as "std.io".
func Imp(path string, names []string, alias string) *ImportStatement {
	var id *Identifier
	if alias != "" {
		id = NewIdentifier(alias)
	}
	return NewImportStatement(strings.Split(path, "."), names, id)
}

func Exp(names ...string) *ExportStatement { return NewExportStatement(names) }

// Mod assembles a module, routing definitions and statements the way the parser does.
func Mod(imports []*ImportStatement, exports []*ExportStatement, items ...Node) *Module {
	var defs []Definition
	var body []Statement
	for _, item := range items {
		switch n := item.(type) {
		case Definition:
			defs = append(defs, n)
		case Statement:
			body = append(body, n)
		}
	}
	return NewModule(imports, exports, defs, body)
}
