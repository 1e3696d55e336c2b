package interpreter

import (
	"ng/interpreter-go/pkg/ast"
	"ng/interpreter-go/pkg/runtime"
)

// closure is an NG function captured over the context it was declared in.
// owner is set for type members; module is the id of the declaring module.
type closure struct {
	interp *Interpreter
	def    *ast.FunctionDefinition
	env    *runtime.Context
	owner  *runtime.TypeDescriptor
	module string
}

func (c *closure) Name() string { return c.def.ID.Name }

func (c *closure) qualifiedName() string {
	if c.owner != nil {
		return c.owner.Name + "." + c.def.ID.Name
	}
	return c.def.ID.Name
}

func (c *closure) Arity() int { return len(c.def.Params) }

// Invoke forks the declaring context, binds arguments positionally and runs the
// body. Members also see self and the receiver's properties as locals; property
// locals reassigned by the body are written back on return.
func (c *closure) Invoke(caller *runtime.Context, self runtime.Object, args []runtime.Object) (runtime.Object, error) {
	if err := runtime.CheckArity(c, len(args)); err != nil {
		return nil, err
	}
	i := c.interp
	if i.callDepth >= i.maxCallDepth {
		return nil, runtime.RuntimeErrorf("maximum call depth %d exceeded calling %s", i.maxCallDepth, c.qualifiedName())
	}
	i.callDepth++
	prevModule := i.current
	i.current = c.module
	defer func() {
		i.callDepth--
		i.current = prevModule
	}()

	frame := c.env.Fork()
	i.logger.Debug("call", "function", c.qualifiedName(), "depth", i.callDepth)
	if c.owner != nil && self != nil {
		if err := frame.DefineObject("self", self); err != nil {
			return nil, err
		}
	}
	for idx, p := range c.def.Params {
		if err := frame.DefineObject(p.Name, args[idx]); err != nil {
			return nil, runtime.Locate(err, p.Span())
		}
	}
	receiver, spread := c.spreadProperties(frame, self)

	out, err := i.executeCompound(c.def.Body, frame)
	if err != nil {
		if c.module != "" {
			return nil, runtime.InModule(err, c.module)
		}
		return nil, err
	}
	if out.signal == signalNext {
		return nil, runtime.RuntimeErrorf("next outside of a loop in %s", c.qualifiedName())
	}
	if receiver != nil {
		if err := writeBack(frame, receiver, spread); err != nil {
			return nil, err
		}
	}
	i.logger.Debug("return", "function", c.qualifiedName(), "depth", i.callDepth)
	if out.signal == signalReturned {
		return out.value, nil
	}
	return frame.ReturnValue(), nil
}

// spreadProperties binds every property of a structural receiver that is not
// already a parameter, recording the values it bound.
func (c *closure) spreadProperties(frame *runtime.Context, self runtime.Object) (*runtime.StructuralObject, map[string]runtime.Object) {
	if c.owner == nil {
		return nil, nil
	}
	obj, ok := self.(*runtime.StructuralObject)
	if !ok {
		return nil, nil
	}
	spread := make(map[string]runtime.Object, len(c.owner.Properties))
	for _, name := range obj.Type().Properties {
		if frame.IsLocal(name) {
			continue
		}
		v, _ := obj.Property(name)
		if err := frame.DefineObject(name, v); err != nil {
			continue
		}
		spread[name] = v
	}
	return obj, spread
}

// writeBack stores rebound property locals on the receiver. A property the body
// assigned through self keeps that value.
func writeBack(frame *runtime.Context, obj *runtime.StructuralObject, spread map[string]runtime.Object) error {
	for name, before := range spread {
		after, ok := frame.Object(name, false)
		if !ok || after == before {
			continue
		}
		if current, _ := obj.Property(name); current != before {
			continue
		}
		if err := obj.SetProperty(name, after); err != nil {
			return err
		}
	}
	return nil
}

func (i *Interpreter) defineFunction(def *ast.FunctionDefinition, ctx *runtime.Context) error {
	return ctx.DefineFunction(def.ID.Name, &closure{interp: i, def: def, env: ctx, module: i.current})
}

func (i *Interpreter) defineType(def *ast.TypeDefinition, ctx *runtime.Context) error {
	props := make([]string, 0, len(def.Properties))
	seen := make(map[string]bool, len(def.Properties))
	for _, p := range def.Properties {
		if seen[p.Name] {
			return runtime.Locate(runtime.RuntimeErrorf("duplicate property '%s' in type %s", p.Name, def.ID.Name), p.Span())
		}
		seen[p.Name] = true
		props = append(props, p.Name)
	}
	td := runtime.NewTypeDescriptor(def.ID.Name, props)
	for _, m := range def.Methods {
		if _, exists := td.Method(m.ID.Name); exists {
			return runtime.Locate(runtime.RuntimeErrorf("duplicate member '%s' in type %s", m.ID.Name, def.ID.Name), m.Span())
		}
		td.DefineMethod(&closure{interp: i, def: m, env: ctx, owner: td, module: i.current})
	}
	return ctx.DefineType(def.ID.Name, td)
}

func (i *Interpreter) defineVal(def *ast.ValDefinition, ctx *runtime.Context) error {
	v, err := i.evaluateExpression(def.Value, ctx)
	if err != nil {
		return err
	}
	return ctx.DefineObject(def.ID.Name, v)
}
