package interpreter

import (
	"ng/interpreter-go/pkg/ast"
	"ng/interpreter-go/pkg/runtime"
)

type signal int

const (
	signalNormal signal = iota
	signalReturned
	signalNext
)

// outcome is how a statement finished: normally, through `return` with a value,
// or through `next` with the loop's new binding values.
type outcome struct {
	signal signal
	value  runtime.Object
	next   []runtime.Object
}

var normal = outcome{signal: signalNormal}

func (i *Interpreter) executeStatement(node ast.Statement, ctx *runtime.Context) (outcome, error) {
	out, err := i.dispatchStatement(node, ctx)
	if err != nil {
		return outcome{}, runtime.Locate(err, node.Span())
	}
	return out, nil
}

func (i *Interpreter) dispatchStatement(node ast.Statement, ctx *runtime.Context) (outcome, error) {
	switch n := node.(type) {
	case nil:
		return normal, nil
	case *ast.CompoundStatement:
		return i.executeCompound(n, ctx)
	case *ast.IfStatement:
		return i.executeIf(n, ctx)
	case *ast.ReturnStatement:
		return i.executeReturn(n, ctx)
	case *ast.ValDefinition:
		return normal, i.defineVal(n, ctx)
	case *ast.FunctionDefinition:
		return normal, i.defineFunction(n, ctx)
	case *ast.TypeDefinition:
		return normal, i.defineType(n, ctx)
	case *ast.Assignment:
		v, err := i.evaluateExpression(n.Value, ctx)
		if err != nil {
			return outcome{}, err
		}
		return normal, ctx.Set(n.Target.Name, v)
	case *ast.IndexAssignment:
		return normal, i.executeIndexAssignment(n, ctx)
	case *ast.MemberAssignment:
		return normal, i.executeMemberAssignment(n, ctx)
	case *ast.LoopStatement:
		return i.executeLoop(n, ctx)
	case *ast.NextStatement:
		values, err := i.evaluateAll(n.Values, ctx)
		if err != nil {
			return outcome{}, err
		}
		return outcome{signal: signalNext, next: values}, nil
	case ast.Expression:
		_, err := i.evaluateExpression(n, ctx)
		return normal, err
	default:
		return outcome{}, runtime.NotImplementedf("unsupported statement %s", node.NodeType())
	}
}

// executeCompound runs the body in the current frame and stops at the first
// return or next.
func (i *Interpreter) executeCompound(block *ast.CompoundStatement, ctx *runtime.Context) (outcome, error) {
	for _, stmt := range block.Body {
		out, err := i.executeStatement(stmt, ctx)
		if err != nil {
			return outcome{}, err
		}
		if out.signal != signalNormal {
			return out, nil
		}
	}
	return normal, nil
}

func (i *Interpreter) executeIf(stmt *ast.IfStatement, ctx *runtime.Context) (outcome, error) {
	cond, err := i.evaluateExpression(stmt.Condition, ctx)
	if err != nil {
		return outcome{}, err
	}
	if cond.Bool() {
		return i.executeStatement(stmt.Then, ctx)
	}
	if stmt.Else != nil {
		return i.executeStatement(stmt.Else, ctx)
	}
	return normal, nil
}

func (i *Interpreter) executeReturn(stmt *ast.ReturnStatement, ctx *runtime.Context) (outcome, error) {
	var v runtime.Object = runtime.UnitValue
	if stmt.Argument != nil {
		var err error
		if v, err = i.evaluateExpression(stmt.Argument, ctx); err != nil {
			return outcome{}, err
		}
	}
	ctx.SetReturn(v)
	return outcome{signal: signalReturned, value: v}, nil
}

func (i *Interpreter) executeIndexAssignment(stmt *ast.IndexAssignment, ctx *runtime.Context) error {
	recv, err := i.evaluateExpression(stmt.Receiver, ctx)
	if err != nil {
		return err
	}
	idx, err := i.evaluateExpression(stmt.Index, ctx)
	if err != nil {
		return err
	}
	v, err := i.evaluateExpression(stmt.Value, ctx)
	if err != nil {
		return err
	}
	return runtime.PutIndex(recv, idx, v)
}

func (i *Interpreter) executeMemberAssignment(stmt *ast.MemberAssignment, ctx *runtime.Context) error {
	recv, err := i.evaluateExpression(stmt.Receiver, ctx)
	if err != nil {
		return err
	}
	v, err := i.evaluateExpression(stmt.Value, ctx)
	if err != nil {
		return err
	}
	obj, ok := recv.(*runtime.StructuralObject)
	if !ok {
		return runtime.IllegalTypef("cannot assign member '%s' on %s", stmt.Member.Name, runtime.TypeName(recv))
	}
	return obj.SetProperty(stmt.Member.Name, v)
}

// executeLoop binds the loop variables in a fresh frame per iteration. `next`
// rebinds them and repeats; finishing the body without `next` ends the loop.
func (i *Interpreter) executeLoop(loop *ast.LoopStatement, ctx *runtime.Context) (outcome, error) {
	values := make([]runtime.Object, len(loop.Bindings))
	for idx, b := range loop.Bindings {
		v, err := i.evaluateExpression(b.Value, ctx)
		if err != nil {
			return outcome{}, err
		}
		values[idx] = v
	}
	for iteration := 0; ; iteration++ {
		frame := ctx.Fork()
		for idx, b := range loop.Bindings {
			if err := frame.DefineObject(b.Name.Name, values[idx]); err != nil {
				return outcome{}, runtime.Locate(err, b.Span())
			}
		}
		out, err := i.executeStatement(loop.Body, frame)
		if err != nil {
			return outcome{}, err
		}
		switch out.signal {
		case signalReturned:
			return out, nil
		case signalNext:
			if len(out.next) != len(loop.Bindings) {
				return outcome{}, runtime.RuntimeErrorf("next expects %d value(s), got %d", len(loop.Bindings), len(out.next))
			}
			values = out.next
		default:
			i.logger.Debug("loop finished", "iterations", iteration+1)
			return normal, nil
		}
	}
}
