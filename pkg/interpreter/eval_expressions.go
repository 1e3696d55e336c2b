package interpreter

import (
	"ng/interpreter-go/pkg/ast"
	"ng/interpreter-go/pkg/runtime"
)

func (i *Interpreter) evaluateExpression(node ast.Expression, ctx *runtime.Context) (runtime.Object, error) {
	v, err := i.dispatchExpression(node, ctx)
	if err != nil {
		return nil, runtime.Locate(err, node.Span())
	}
	return v, nil
}

func (i *Interpreter) dispatchExpression(node ast.Expression, ctx *runtime.Context) (runtime.Object, error) {
	switch n := node.(type) {
	case *ast.IntegerLiteral:
		return runtime.IntegralFromLiteral(n.Value, n.IntegerType)
	case *ast.FloatLiteral:
		return runtime.FloatFromLiteral(n.Value, n.FloatType)
	case *ast.StringLiteral:
		return runtime.NewString(n.Value), nil
	case *ast.CharLiteral:
		return runtime.NewU8(n.Value), nil
	case *ast.BooleanLiteral:
		return runtime.NewBoolean(n.Value), nil
	case *ast.UnitLiteral:
		return runtime.UnitValue, nil
	case *ast.ArrayLiteral:
		elems, err := i.evaluateAll(n.Elements, ctx)
		if err != nil {
			return nil, err
		}
		return runtime.NewArray(elems), nil
	case *ast.TupleLiteral:
		elems, err := i.evaluateAll(n.Elements, ctx)
		if err != nil {
			return nil, err
		}
		return runtime.NewTuple(elems), nil
	case *ast.Identifier:
		return i.evaluateIdentifier(n, ctx)
	case *ast.UnaryExpression:
		return i.evaluateUnaryExpression(n, ctx)
	case *ast.BinaryExpression:
		return i.evaluateBinaryExpression(n, ctx)
	case *ast.FunctionCall:
		return i.evaluateFunctionCall(n, ctx)
	case *ast.MethodCall:
		recv, err := i.evaluateExpression(n.Receiver, ctx)
		if err != nil {
			return nil, err
		}
		args, err := i.evaluateAll(n.Arguments, ctx)
		if err != nil {
			return nil, err
		}
		return runtime.Respond(recv, n.Member.Name, ctx, args)
	case *ast.MemberAccess:
		recv, err := i.evaluateExpression(n.Receiver, ctx)
		if err != nil {
			return nil, err
		}
		return runtime.Respond(recv, n.Member.Name, ctx, nil)
	case *ast.IndexExpression:
		recv, err := i.evaluateExpression(n.Receiver, ctx)
		if err != nil {
			return nil, err
		}
		idx, err := i.evaluateExpression(n.Index, ctx)
		if err != nil {
			return nil, err
		}
		return runtime.GetIndex(recv, idx)
	case *ast.NewExpression:
		return i.evaluateNewExpression(n, ctx)
	default:
		return nil, runtime.NotImplementedf("unsupported expression %s", node.NodeType())
	}
}

func (i *Interpreter) evaluateAll(exprs []ast.Expression, ctx *runtime.Context) ([]runtime.Object, error) {
	out := make([]runtime.Object, 0, len(exprs))
	for _, e := range exprs {
		v, err := i.evaluateExpression(e, ctx)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// evaluateIdentifier resolves objects first, then modules, then types.
func (i *Interpreter) evaluateIdentifier(id *ast.Identifier, ctx *runtime.Context) (runtime.Object, error) {
	if v, ok := ctx.Object(id.Name, true); ok {
		return v, nil
	}
	if m, ok := ctx.Module(id.Name, true); ok {
		return m, nil
	}
	if td, ok := ctx.Type(id.Name, true); ok {
		return runtime.NewTypeValue(td), nil
	}
	if ctx.HasFunction(id.Name, true) {
		return nil, runtime.IllegalTypef("function '%s' is not a value", id.Name)
	}
	return nil, runtime.RuntimeErrorf("undefined identifier '%s'", id.Name)
}

func (i *Interpreter) evaluateUnaryExpression(expr *ast.UnaryExpression, ctx *runtime.Context) (runtime.Object, error) {
	if lit, ok := expr.Operand.(*ast.IntegerLiteral); ok && expr.Operator == ast.OpNeg {
		return runtime.NegatedIntegralFromLiteral(lit.Value, lit.IntegerType)
	}
	operand, err := i.evaluateExpression(expr.Operand, ctx)
	if err != nil {
		return nil, err
	}
	switch expr.Operator {
	case ast.OpNot:
		return runtime.NewBoolean(!operand.Bool()), nil
	case ast.OpNeg:
		return runtime.Negate(operand)
	default:
		return nil, runtime.NotImplementedf("unsupported unary operator %s", expr.Operator)
	}
}

func (i *Interpreter) evaluateBinaryExpression(expr *ast.BinaryExpression, ctx *runtime.Context) (runtime.Object, error) {
	left, err := i.evaluateExpression(expr.Left, ctx)
	if err != nil {
		return nil, err
	}
	switch expr.Operator {
	case ast.OpAnd:
		if !left.Bool() {
			return runtime.False, nil
		}
		return i.evaluateCondition(expr.Right, ctx)
	case ast.OpOr:
		if left.Bool() {
			return runtime.True, nil
		}
		return i.evaluateCondition(expr.Right, ctx)
	}
	right, err := i.evaluateExpression(expr.Right, ctx)
	if err != nil {
		return nil, err
	}
	return runtime.Apply(expr.Operator, left, right)
}

func (i *Interpreter) evaluateCondition(expr ast.Expression, ctx *runtime.Context) (runtime.Object, error) {
	v, err := i.evaluateExpression(expr, ctx)
	if err != nil {
		return nil, err
	}
	return runtime.NewBoolean(v.Bool()), nil
}

// evaluateFunctionCall evaluates arguments left to right before invoking the
// named function.
func (i *Interpreter) evaluateFunctionCall(call *ast.FunctionCall, ctx *runtime.Context) (runtime.Object, error) {
	fn, ok := ctx.Function(call.Callee.Name, true)
	if !ok {
		return nil, runtime.RuntimeErrorf("undefined function '%s'", call.Callee.Name)
	}
	args, err := i.evaluateAll(call.Arguments, ctx)
	if err != nil {
		return nil, err
	}
	return fn.Invoke(ctx, nil, args)
}

func (i *Interpreter) evaluateNewExpression(expr *ast.NewExpression, ctx *runtime.Context) (runtime.Object, error) {
	td, ok := ctx.Type(expr.TypeName.Name, true)
	if !ok {
		return nil, runtime.RuntimeErrorf("unknown type '%s'", expr.TypeName.Name)
	}
	props := make(map[string]runtime.Object, len(expr.Properties))
	for _, p := range expr.Properties {
		if _, dup := props[p.Name.Name]; dup {
			return nil, runtime.Locate(runtime.RuntimeErrorf("property '%s' initialized twice", p.Name.Name), p.Span())
		}
		v, err := i.evaluateExpression(p.Value, ctx)
		if err != nil {
			return nil, err
		}
		props[p.Name.Name] = v
	}
	return runtime.NewStructuralObject(td, props)
}
