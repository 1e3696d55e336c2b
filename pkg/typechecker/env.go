package typechecker

import "ng/interpreter-go/pkg/ast"

// Environment represents a lexical scope used during typechecking.
type Environment struct {
	parent  *Environment
	symbols map[string]Type
}

// NewEnvironment creates a new environment with an optional parent.
func NewEnvironment(parent *Environment) *Environment {
	return &Environment{
		parent:  parent,
		symbols: make(map[string]Type),
	}
}

// Define binds a name to a type in the current scope.
func (e *Environment) Define(name string, typ Type) {
	e.symbols[name] = typ
}

// DefinesLocally reports whether name is bound in this exact scope.
func (e *Environment) DefinesLocally(name string) bool {
	_, ok := e.symbols[name]
	return ok
}

// Lookup searches for a name in the current scope chain.
func (e *Environment) Lookup(name string) (Type, bool) {
	for env := e; env != nil; env = env.parent {
		if typ, ok := env.symbols[name]; ok {
			return typ, true
		}
	}
	return nil, false
}

// Extend returns a child environment.
func (e *Environment) Extend() *Environment {
	return NewEnvironment(e)
}

func (e *Environment) snapshot() Index {
	out := make(Index, len(e.symbols))
	for k, v := range e.symbols {
		out[k] = v
	}
	return out
}

// InferenceMap records the type inferred for each expression node.
type InferenceMap map[ast.Node]Type

func (m InferenceMap) set(node ast.Node, typ Type) {
	if node != nil {
		m[node] = typ
	}
}

func (m InferenceMap) get(node ast.Node) (Type, bool) {
	typ, ok := m[node]
	return typ, ok
}
