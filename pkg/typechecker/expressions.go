package typechecker

import (
	"fmt"
	"strings"

	"ng/interpreter-go/pkg/ast"
)

func (c *Checker) checkExpression(env *Environment, expr ast.Expression) ([]Diagnostic, Type) {
	diags, typ := c.inferExpression(env, expr)
	if typ == nil {
		typ = UnknownType{}
	}
	c.infer.set(expr, typ)
	return diags, typ
}

func (c *Checker) inferExpression(env *Environment, expr ast.Expression) ([]Diagnostic, Type) {
	switch e := expr.(type) {
	case *ast.IntegerLiteral:
		suffix := string(e.IntegerType)
		if suffix == "" {
			suffix = string(ast.IntegerTypeI32)
		}
		return nil, IntegerType{Suffix: suffix}
	case *ast.FloatLiteral:
		suffix := string(e.FloatType)
		if suffix == "" {
			suffix = string(ast.FloatTypeF64)
		}
		return nil, FloatType{Suffix: suffix}
	case *ast.CharLiteral:
		return nil, IntegerType{Suffix: string(ast.IntegerTypeU8)}
	case *ast.StringLiteral:
		return nil, PrimitiveType{Kind: PrimitiveString}
	case *ast.BooleanLiteral:
		return nil, PrimitiveType{Kind: PrimitiveBool}
	case *ast.UnitLiteral:
		return nil, PrimitiveType{Kind: PrimitiveUnit}
	case *ast.ArrayLiteral:
		return c.checkAll(env, e.Elements), ArrayType{}
	case *ast.TupleLiteral:
		var diags []Diagnostic
		elems := make([]Type, len(e.Elements))
		for i, el := range e.Elements {
			elDiags, typ := c.checkExpression(env, el)
			diags = append(diags, elDiags...)
			elems[i] = typ
		}
		return diags, TupleType{Elements: elems}
	case *ast.Identifier:
		typ, ok := env.Lookup(e.Name)
		if !ok {
			if c.allowDynamicLookups {
				return nil, UnknownType{}
			}
			return []Diagnostic{{
				Message: fmt.Sprintf("typechecker: undefined identifier '%s'", e.Name),
				Node:    e,
			}}, UnknownType{}
		}
		return nil, typ
	case *ast.UnaryExpression:
		return c.checkUnaryExpression(env, e)
	case *ast.BinaryExpression:
		return c.checkBinaryExpression(env, e)
	case *ast.FunctionCall:
		return c.checkFunctionCall(env, e)
	case *ast.MethodCall:
		diags, recv := c.checkExpression(env, e.Receiver)
		diags = append(diags, c.checkAll(env, e.Arguments)...)
		memberDiags, typ := c.memberType(recv, e.Member.Name, len(e.Arguments), e)
		return append(diags, memberDiags...), typ
	case *ast.MemberAccess:
		diags, recv := c.checkExpression(env, e.Receiver)
		memberDiags, typ := c.memberType(recv, e.Member.Name, 0, e)
		return append(diags, memberDiags...), typ
	case *ast.IndexExpression:
		diags, recv := c.checkExpression(env, e.Receiver)
		idxDiags, idx := c.checkExpression(env, e.Index)
		diags = append(diags, idxDiags...)
		if !isUnknownType(idx) && !isIntegerType(idx) {
			diags = append(diags, Diagnostic{
				Message: fmt.Sprintf("typechecker: index must be integral (got %s)", typeName(idx)),
				Node:    e.Index,
			})
		}
		if isStringType(recv) {
			return diags, IntegerType{Suffix: string(ast.IntegerTypeU8)}
		}
		return diags, UnknownType{}
	case *ast.NewExpression:
		return c.checkNewExpression(env, e)
	default:
		return []Diagnostic{{
			Message: fmt.Sprintf("typechecker: unsupported expression %T", expr),
			Node:    expr,
		}}, UnknownType{}
	}
}

func (c *Checker) checkAll(env *Environment, exprs []ast.Expression) []Diagnostic {
	var diags []Diagnostic
	for _, e := range exprs {
		d, _ := c.checkExpression(env, e)
		diags = append(diags, d...)
	}
	return diags
}

func (c *Checker) checkUnaryExpression(env *Environment, expr *ast.UnaryExpression) ([]Diagnostic, Type) {
	diags, operand := c.checkExpression(env, expr.Operand)
	if expr.Operator == ast.OpNot {
		return diags, PrimitiveType{Kind: PrimitiveBool}
	}
	if isUnknownType(operand) {
		return diags, UnknownType{}
	}
	if !isNumericType(operand) {
		diags = append(diags, Diagnostic{
			Message: fmt.Sprintf("typechecker: unary '-' requires numeric operand (got %s)", typeName(operand)),
			Node:    expr,
		})
		return diags, UnknownType{}
	}
	return diags, operand
}

func (c *Checker) checkBinaryExpression(env *Environment, expr *ast.BinaryExpression) ([]Diagnostic, Type) {
	leftDiags, left := c.checkExpression(env, expr.Left)
	rightDiags, right := c.checkExpression(env, expr.Right)
	diags := append(leftDiags, rightDiags...)

	if expr.Operator.IsRelational() || expr.Operator.IsLogical() {
		return diags, PrimitiveType{Kind: PrimitiveBool}
	}
	if isUnknownType(left) || isUnknownType(right) {
		if _, ok := left.(ArrayType); ok && expr.Operator == ast.OpShl {
			return diags, left
		}
		return diags, UnknownType{}
	}
	switch {
	case isStringType(left) && isStringType(right) && expr.Operator == ast.OpAdd:
		return diags, left
	case isNumericType(left) && isNumericType(right):
		if expr.Operator == ast.OpMod && (!isIntegerType(left) || !isIntegerType(right)) {
			diags = append(diags, Diagnostic{Message: "typechecker: '%' is not defined for floating point operands", Node: expr})
			return diags, UnknownType{}
		}
		if (expr.Operator == ast.OpShl || expr.Operator == ast.OpShr) && (!isIntegerType(left) || !isIntegerType(right)) {
			diags = append(diags, Diagnostic{Message: fmt.Sprintf("typechecker: '%s' requires integral operands", expr.Operator), Node: expr})
			return diags, UnknownType{}
		}
		return diags, promoteNumeric(left, right)
	case expr.Operator == ast.OpShl:
		if _, ok := left.(ArrayType); ok {
			return diags, left
		}
	}
	diags = append(diags, Diagnostic{
		Message: fmt.Sprintf("typechecker: operator '%s' is not defined for %s and %s", expr.Operator, typeName(left), typeName(right)),
		Node:    expr,
	})
	return diags, UnknownType{}
}

func (c *Checker) checkFunctionCall(env *Environment, call *ast.FunctionCall) ([]Diagnostic, Type) {
	diags := c.checkAll(env, call.Arguments)
	typ, ok := env.Lookup(call.Callee.Name)
	if !ok {
		if c.allowDynamicLookups {
			return diags, UnknownType{}
		}
		return append(diags, Diagnostic{
			Message: fmt.Sprintf("typechecker: undefined function '%s'", call.Callee.Name),
			Node:    call,
		}), UnknownType{}
	}
	fn, ok := typ.(*FunctionType)
	if !ok {
		if isUnknownType(typ) {
			return diags, UnknownType{}
		}
		return append(diags, Diagnostic{
			Message: fmt.Sprintf("typechecker: '%s' is not a function (got %s)", call.Callee.Name, typeName(typ)),
			Node:    call,
		}), UnknownType{}
	}
	if len(fn.Params) != len(call.Arguments) {
		diags = append(diags, Diagnostic{
			Message: fmt.Sprintf("typechecker: %s expects %d argument(s), got %d", call.Callee.Name, len(fn.Params), len(call.Arguments)),
			Node:    call,
		})
	}
	return diags, fn.Return
}

// memberType resolves `recv.name` for receivers whose shape is known.
func (c *Checker) memberType(recv Type, name string, argc int, node ast.Node) ([]Diagnostic, Type) {
	missing := func(owner string) []Diagnostic {
		return []Diagnostic{{
			Message: fmt.Sprintf("typechecker: %s has no member '%s'", owner, name),
			Node:    node,
		}}
	}
	switch r := recv.(type) {
	case PrimitiveType:
		if r.Kind != PrimitiveString {
			return missing(r.Name()), UnknownType{}
		}
		switch name {
		case "size":
			return nil, IntegerType{Suffix: string(ast.IntegerTypeI32)}
		case "charAt":
			return nil, IntegerType{Suffix: string(ast.IntegerTypeU8)}
		case "substr":
			return nil, r
		}
		return missing("string"), UnknownType{}
	case ArrayType:
		switch name {
		case "size":
			return nil, IntegerType{Suffix: string(ast.IntegerTypeI32)}
		case "pop":
			return nil, UnknownType{}
		}
		return missing("array"), UnknownType{}
	case TupleType:
		if name == "size" {
			return nil, IntegerType{Suffix: string(ast.IntegerTypeI32)}
		}
		return missing("tuple"), UnknownType{}
	case StructInstanceType:
		if r.Struct.HasProperty(name) {
			return nil, UnknownType{}
		}
		if m, ok := r.Struct.Methods[name]; ok {
			if len(m.Params) != argc {
				return []Diagnostic{{
					Message: fmt.Sprintf("typechecker: %s.%s expects %d argument(s), got %d", r.Struct.TypeName, name, len(m.Params), argc),
					Node:    node,
				}}, m.Return
			}
			return nil, m.Return
		}
		return missing(r.Struct.TypeName), UnknownType{}
	case ModuleType:
		if r.Symbols == nil {
			return nil, UnknownType{}
		}
		typ, ok := r.Symbols[name]
		if !ok {
			return missing(r.Name()), UnknownType{}
		}
		if fn, ok := typ.(*FunctionType); ok {
			return nil, fn.Return
		}
		return nil, typ
	}
	return nil, UnknownType{}
}

func (c *Checker) checkNewExpression(env *Environment, expr *ast.NewExpression) ([]Diagnostic, Type) {
	var diags []Diagnostic
	for _, p := range expr.Properties {
		d, _ := c.checkExpression(env, p.Value)
		diags = append(diags, d...)
	}
	typ, ok := env.Lookup(expr.TypeName.Name)
	if !ok {
		if c.allowDynamicLookups {
			return diags, UnknownType{}
		}
		return append(diags, Diagnostic{
			Message: fmt.Sprintf("typechecker: unknown type '%s'", expr.TypeName.Name),
			Node:    expr,
		}), UnknownType{}
	}
	st, ok := typ.(StructType)
	if !ok {
		if isUnknownType(typ) {
			return diags, UnknownType{}
		}
		return append(diags, Diagnostic{
			Message: fmt.Sprintf("typechecker: '%s' is not a type", expr.TypeName.Name),
			Node:    expr,
		}), UnknownType{}
	}
	for _, p := range expr.Properties {
		if !st.HasProperty(p.Name.Name) {
			diags = append(diags, Diagnostic{
				Message: fmt.Sprintf("typechecker: type %s has no property '%s'", st.TypeName, p.Name.Name),
				Node:    p,
			})
		}
	}
	return diags, StructInstanceType{Struct: st}
}

var numericWidths = map[string]int{
	"i8": 1, "u8": 1, "i16": 2, "u16": 2, "i32": 4, "u32": 4, "i64": 8, "u64": 8,
	"f32": 4, "f64": 8,
}

// promoteNumeric mirrors the runtime promotion: the wider operand wins, unsigned
// wins at equal width, and a float with an 8-byte integral becomes f64.
func promoteNumeric(left, right Type) Type {
	lw, rw := numericWidths[left.Name()], numericWidths[right.Name()]
	lf, rf := !isIntegerType(left), !isIntegerType(right)
	switch {
	case lf && rf:
		if lw >= rw {
			return left
		}
		return right
	case lf || rf:
		width := lw
		if rw > width {
			width = rw
		}
		if !lf && lw == 8 || !rf && rw == 8 || width == 8 {
			return FloatType{Suffix: string(ast.FloatTypeF64)}
		}
		return FloatType{Suffix: string(ast.FloatTypeF32)}
	}
	if lw != rw {
		if lw > rw {
			return left
		}
		return right
	}
	if strings.HasPrefix(left.Name(), "u") {
		return left
	}
	return right
}
