package runtime

import "sort"

// Context is one evaluation frame: four namespaces, the set of names local to
// this frame, a return slot and a link to the enclosing frame.
type Context struct {
	parent    *Context
	objects   map[string]Object
	functions map[string]Function
	types     map[string]*TypeDescriptor
	modules   map[string]*Module
	locals    map[string]struct{}
	ret       Object
	returned  bool
	depth     int
}

// NewContext creates a root frame.
func NewContext() *Context {
	return &Context{
		objects:   make(map[string]Object),
		functions: make(map[string]Function),
		types:     make(map[string]*TypeDescriptor),
		modules:   make(map[string]*Module),
		locals:    make(map[string]struct{}),
	}
}

// Fork creates a child frame; the parent reference is its only link to c.
func (c *Context) Fork() *Context {
	child := NewContext()
	child.parent = c
	child.depth = c.depth + 1
	return child
}

// Parent exposes the enclosing frame (nil for a root).
func (c *Context) Parent() *Context { return c.parent }

// Depth is the number of frames between c and its root.
func (c *Context) Depth() int { return c.depth }

func (c *Context) IsLocal(name string) bool {
	_, ok := c.locals[name]
	return ok
}

func (c *Context) claim(name string) error {
	if c.IsLocal(name) {
		return RuntimeErrorf("'%s' is already defined in this scope", name)
	}
	c.locals[name] = struct{}{}
	return nil
}

func (c *Context) DefineObject(name string, v Object) error {
	if err := c.claim(name); err != nil {
		return err
	}
	c.objects[name] = v
	return nil
}

func (c *Context) DefineFunction(name string, fn Function) error {
	if err := c.claim(name); err != nil {
		return err
	}
	c.functions[name] = fn
	return nil
}

func (c *Context) DefineType(name string, td *TypeDescriptor) error {
	if err := c.claim(name); err != nil {
		return err
	}
	c.types[name] = td
	return nil
}

func (c *Context) DefineModule(name string, m *Module) error {
	if err := c.claim(name); err != nil {
		return err
	}
	c.modules[name] = m
	return nil
}

func lookup[T any](c *Context, name string, global bool, table func(*Context) map[string]T) (T, bool) {
	for frame := c; frame != nil; frame = frame.parent {
		if v, ok := table(frame)[name]; ok {
			return v, true
		}
		if !global {
			break
		}
	}
	var zero T
	return zero, false
}

func (c *Context) Object(name string, global bool) (Object, bool) {
	return lookup(c, name, global, func(f *Context) map[string]Object { return f.objects })
}

func (c *Context) Function(name string, global bool) (Function, bool) {
	return lookup(c, name, global, func(f *Context) map[string]Function { return f.functions })
}

func (c *Context) Type(name string, global bool) (*TypeDescriptor, bool) {
	return lookup(c, name, global, func(f *Context) map[string]*TypeDescriptor { return f.types })
}

func (c *Context) Module(name string, global bool) (*Module, bool) {
	return lookup(c, name, global, func(f *Context) map[string]*Module { return f.modules })
}

func (c *Context) HasObject(name string, global bool) bool {
	_, ok := c.Object(name, global)
	return ok
}

func (c *Context) HasFunction(name string, global bool) bool {
	_, ok := c.Function(name, global)
	return ok
}

func (c *Context) HasType(name string, global bool) bool {
	_, ok := c.Type(name, global)
	return ok
}

func (c *Context) HasModule(name string, global bool) bool {
	_, ok := c.Module(name, global)
	return ok
}

// Set rebinds the value of name in the first frame (starting at c) where it is local.
func (c *Context) Set(name string, v Object) error {
	for frame := c; frame != nil; frame = frame.parent {
		if !frame.IsLocal(name) {
			continue
		}
		if _, ok := frame.objects[name]; !ok {
			return RuntimeErrorf("cannot assign to '%s': not a value", name)
		}
		frame.objects[name] = v
		return nil
	}
	return RuntimeErrorf("cannot assign to undefined name '%s'", name)
}

func (c *Context) SetReturn(v Object) {
	c.ret = v
	c.returned = true
}

// ReturnValue is the value stored by SetReturn, or Unit.
func (c *Context) ReturnValue() Object {
	if c.ret == nil {
		return UnitValue
	}
	return c.ret
}

func (c *Context) Returned() bool { return c.returned }

func (c *Context) ClearReturn() {
	c.ret = nil
	c.returned = false
}

// Locals lists the names introduced in this frame, sorted.
func (c *Context) Locals() []string {
	names := make([]string, 0, len(c.locals))
	for name := range c.locals {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (c *Context) LocalObjects() map[string]Object {
	out := make(map[string]Object, len(c.objects))
	for k, v := range c.objects {
		out[k] = v
	}
	return out
}

func (c *Context) LocalFunctions() map[string]Function {
	out := make(map[string]Function, len(c.functions))
	for k, v := range c.functions {
		out[k] = v
	}
	return out
}

func (c *Context) LocalTypes() map[string]*TypeDescriptor {
	out := make(map[string]*TypeDescriptor, len(c.types))
	for k, v := range c.types {
		out[k] = v
	}
	return out
}

func (c *Context) LocalModules() map[string]*Module {
	out := make(map[string]*Module, len(c.modules))
	for k, v := range c.modules {
		out[k] = v
	}
	return out
}
