package typechecker

import (
	"fmt"

	"ng/interpreter-go/pkg/ast"
)

func (c *Checker) checkStatement(env *Environment, stmt ast.Statement) []Diagnostic {
	switch s := stmt.(type) {
	case nil:
		return nil
	case *ast.CompoundStatement:
		blockEnv := env.Extend()
		var diags []Diagnostic
		for _, child := range s.Body {
			diags = append(diags, c.checkStatement(blockEnv, child)...)
		}
		return diags
	case *ast.IfStatement:
		diags, _ := c.checkExpression(env, s.Condition)
		diags = append(diags, c.checkStatement(env, s.Then)...)
		return append(diags, c.checkStatement(env, s.Else)...)
	case *ast.ReturnStatement:
		var (
			diags []Diagnostic
			typ   Type = PrimitiveType{Kind: PrimitiveUnit}
		)
		if s.Argument != nil {
			diags, typ = c.checkExpression(env, s.Argument)
		}
		if n := len(c.returnTypeStack); n > 0 {
			c.returnTypeStack[n-1] = append(c.returnTypeStack[n-1], typ)
		}
		return diags
	case *ast.ValDefinition:
		return c.checkValDefinition(env, s)
	case *ast.FunctionDefinition:
		var diags []Diagnostic
		if env.DefinesLocally(s.ID.Name) {
			diags = append(diags, Diagnostic{
				Message: fmt.Sprintf("typechecker: '%s' is already defined", s.ID.Name),
				Node:    s,
			})
		}
		env.Define(s.ID.Name, functionTypeOf(s))
		return append(diags, c.checkFunctionBody(env, s, nil)...)
	case *ast.TypeDefinition:
		env.Define(s.ID.Name, structTypeOf(s))
		return c.checkTypeBodies(env, s)
	case *ast.Assignment:
		diags, _ := c.checkExpression(env, s.Value)
		if _, ok := env.Lookup(s.Target.Name); !ok && !c.allowDynamicLookups {
			diags = append(diags, Diagnostic{
				Message: fmt.Sprintf("typechecker: cannot assign to undefined name '%s'", s.Target.Name),
				Node:    s,
			})
		}
		return diags
	case *ast.IndexAssignment:
		diags, recv := c.checkExpression(env, s.Receiver)
		idxDiags, idx := c.checkExpression(env, s.Index)
		valDiags, _ := c.checkExpression(env, s.Value)
		diags = append(append(diags, idxDiags...), valDiags...)
		if !isUnknownType(idx) && !isIntegerType(idx) {
			diags = append(diags, Diagnostic{
				Message: fmt.Sprintf("typechecker: index must be integral (got %s)", typeName(idx)),
				Node:    s.Index,
			})
		}
		if isStringType(recv) {
			diags = append(diags, Diagnostic{Message: "typechecker: strings are immutable", Node: s})
		}
		return diags
	case *ast.MemberAssignment:
		diags, recv := c.checkExpression(env, s.Receiver)
		valDiags, _ := c.checkExpression(env, s.Value)
		diags = append(diags, valDiags...)
		if inst, ok := recv.(StructInstanceType); ok && !inst.Struct.HasProperty(s.Member.Name) {
			diags = append(diags, Diagnostic{
				Message: fmt.Sprintf("typechecker: type %s has no property '%s'", inst.Struct.TypeName, s.Member.Name),
				Node:    s,
			})
		}
		return diags
	case *ast.LoopStatement:
		var diags []Diagnostic
		loopEnv := env.Extend()
		for _, b := range s.Bindings {
			bDiags, typ := c.checkExpression(env, b.Value)
			diags = append(diags, bDiags...)
			loopEnv.Define(b.Name.Name, typ)
		}
		c.loopDepth++
		diags = append(diags, c.checkStatement(loopEnv, s.Body)...)
		c.loopDepth--
		return diags
	case *ast.NextStatement:
		var diags []Diagnostic
		if c.loopDepth == 0 {
			diags = append(diags, Diagnostic{Message: "typechecker: next outside of a loop", Node: s})
		}
		for _, v := range s.Values {
			vDiags, _ := c.checkExpression(env, v)
			diags = append(diags, vDiags...)
		}
		return diags
	case ast.Expression:
		diags, _ := c.checkExpression(env, s)
		return diags
	default:
		return []Diagnostic{{
			Message: fmt.Sprintf("typechecker: unsupported statement %T", stmt),
			Node:    stmt,
		}}
	}
}
