package runtime

import (
	"sort"

	"ng/interpreter-go/pkg/ast"
)

// Module is the snapshot of a module's bindings taken when its evaluation finished.
type Module struct {
	Base
	Name      string
	Imports   []string
	Exports   map[string]struct{}
	Objects   map[string]Object
	Functions map[string]Function
	Types     map[string]*TypeDescriptor
	Natives   map[string]*NativeFunction
}

// SnapshotModule copies the local bindings of ctx into a Module.
func SnapshotModule(name string, ctx *Context, imports, exports []string) *Module {
	m := &Module{
		Name:      name,
		Imports:   append([]string(nil), imports...),
		Exports:   make(map[string]struct{}, len(exports)),
		Objects:   make(map[string]Object, len(ctx.objects)),
		Functions: make(map[string]Function, len(ctx.functions)),
		Types:     make(map[string]*TypeDescriptor, len(ctx.types)),
		Natives:   make(map[string]*NativeFunction),
	}
	for _, e := range exports {
		m.Exports[e] = struct{}{}
	}
	for k, v := range ctx.objects {
		m.Objects[k] = v
	}
	for k, fn := range ctx.functions {
		m.Functions[k] = fn
		if native, ok := fn.(*NativeFunction); ok {
			m.Natives[k] = native
		}
	}
	for k, td := range ctx.types {
		m.Types[k] = td
	}
	return m
}

// NewNativeModule builds a module from natively implemented functions; it exports everything.
func NewNativeModule(name string, funcs map[string]NativeFunc) *Module {
	m := &Module{
		Name:      name,
		Exports:   map[string]struct{}{ast.Wildcard: {}},
		Objects:   map[string]Object{},
		Functions: make(map[string]Function, len(funcs)),
		Types:     map[string]*TypeDescriptor{},
		Natives:   make(map[string]*NativeFunction, len(funcs)),
	}
	for name, impl := range funcs {
		fn := NewNativeFunction(name, -1, impl)
		m.Functions[name] = fn
		m.Natives[name] = fn
	}
	return m
}

func (m *Module) ExportsAll() bool {
	_, ok := m.Exports[ast.Wildcard]
	return ok
}

// ExportedNames is the declared export set, or every defined name when the module exports *.
func (m *Module) ExportedNames() []string {
	var names []string
	if m.ExportsAll() {
		for k := range m.Objects {
			names = append(names, k)
		}
		for k := range m.Functions {
			names = append(names, k)
		}
		for k := range m.Types {
			names = append(names, k)
		}
	} else {
		for k := range m.Exports {
			names = append(names, k)
		}
	}
	sort.Strings(names)
	return names
}

func (m *Module) IsExported(name string) bool {
	if m.ExportsAll() {
		return m.Defines(name)
	}
	_, ok := m.Exports[name]
	return ok
}

// Defines reports whether the module binds name in any namespace.
func (m *Module) Defines(name string) bool {
	if _, ok := m.Objects[name]; ok {
		return true
	}
	if _, ok := m.Functions[name]; ok {
		return true
	}
	_, ok := m.Types[name]
	return ok
}

func (m *Module) Kind() Kind            { return KindModule }
func (m *Module) Bool() bool            { return true }
func (m *Module) Show() string          { return "module " + m.Name }
func (m *Module) Type() *TypeDescriptor { return builtinType("module") }

func (m *Module) Equal(rhs Object) bool {
	o, ok := rhs.(*Module)
	return ok && o == m
}

// Respond reaches exported names only: functions are called, objects and
// types answer a zero-argument access.
func (m *Module) Respond(name string, ctx *Context, args []Object) (Object, error) {
	if !m.IsExported(name) {
		return nil, RuntimeErrorf("module %s does not export '%s'", m.Name, name)
	}
	if fn, ok := m.Functions[name]; ok {
		return fn.Invoke(ctx, nil, args)
	}
	if len(args) != 0 {
		return nil, RuntimeErrorf("'%s' of module %s is not callable", name, m.Name)
	}
	if v, ok := m.Objects[name]; ok {
		return v, nil
	}
	if td, ok := m.Types[name]; ok {
		return NewTypeValue(td), nil
	}
	return nil, RuntimeErrorf("module %s does not define '%s'", m.Name, name)
}
