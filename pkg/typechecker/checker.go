package typechecker

import (
	"fmt"
	"strings"

	"ng/interpreter-go/pkg/ast"
)

// ImportResolver returns the index of an already checked module, keyed by dotted path.
type ImportResolver func(path string) (Index, bool)

// Checker traverses NG AST nodes and records diagnostics.
type Checker struct {
	infer               InferenceMap
	global              *Environment
	resolve             ImportResolver
	returnTypeStack     [][]Type
	loopDepth           int
	allowDynamicLookups bool
}

// Diagnostic represents a type-checking error or warning.
type Diagnostic struct {
	Message string
	Node    ast.Node
}

func (d Diagnostic) String() string {
	if d.Node != nil && !d.Node.Span().IsZero() {
		return fmt.Sprintf("%s: %s", d.Node.Span(), d.Message)
	}
	return d.Message
}

// New returns a checker instance. resolver may be nil, in which case imported
// names are typed as unknown.
func New(resolver ImportResolver) *Checker {
	return &Checker{
		infer:   make(InferenceMap),
		global:  NewEnvironment(nil),
		resolve: resolver,
	}
}

// TypeOf returns the type inferred for an expression during the last check.
func (c *Checker) TypeOf(expr ast.Expression) (Type, bool) {
	return c.infer.get(expr)
}

// CheckModule typechecks a module and returns its module-level index with the diagnostics.
func (c *Checker) CheckModule(module *ast.Module) (Index, []Diagnostic, error) {
	if module == nil {
		return nil, nil, fmt.Errorf("typechecker: module is nil")
	}
	c.infer = make(InferenceMap)
	c.returnTypeStack = nil
	c.loopDepth = 0
	c.allowDynamicLookups = false

	env := c.global.Extend()
	diagnostics := c.applyImports(env, module.Imports)
	diagnostics = append(diagnostics, c.collectDeclarations(env, module.Definitions)...)

	for _, def := range module.Definitions {
		switch d := def.(type) {
		case *ast.FunctionDefinition:
			diagnostics = append(diagnostics, c.checkFunctionBody(env, d, nil)...)
		case *ast.TypeDefinition:
			diagnostics = append(diagnostics, c.checkTypeBodies(env, d)...)
		}
	}
	for _, def := range module.Definitions {
		if val, ok := def.(*ast.ValDefinition); ok {
			diags, typ := c.checkExpression(env, val.Value)
			diagnostics = append(diagnostics, diags...)
			env.Define(val.ID.Name, typ)
		}
	}
	diagnostics = append(diagnostics, c.checkExports(env, module)...)
	for _, stmt := range module.Body {
		diagnostics = append(diagnostics, c.checkStatement(env, stmt)...)
	}
	return env.snapshot(), diagnostics, nil
}

func (c *Checker) applyImports(env *Environment, imports []*ast.ImportStatement) []Diagnostic {
	var diags []Diagnostic
	placeholder := Type(UnknownType{})
	for _, imp := range imports {
		if imp == nil {
			continue
		}
		path := strings.Join(imp.Path, ".")
		var symbols Index
		if c.resolve != nil {
			symbols, _ = c.resolve(path)
		}
		switch {
		case imp.Alias != nil:
			env.Define(imp.Alias.Name, ModuleType{Module: path, Symbols: symbols})
		case len(imp.Names) == 0:
			env.Define(imp.Path[len(imp.Path)-1], ModuleType{Module: path, Symbols: symbols})
		default:
			for _, name := range imp.Names {
				if name == ast.Wildcard {
					if symbols == nil {
						c.allowDynamicLookups = true
						continue
					}
					for sym, typ := range symbols {
						env.Define(sym, typ)
					}
					continue
				}
				typ, ok := symbols[name]
				if symbols != nil && !ok {
					diags = append(diags, Diagnostic{
						Message: fmt.Sprintf("typechecker: module %s does not export '%s'", path, name),
						Node:    imp,
					})
				}
				if !ok {
					typ = placeholder
				}
				env.Define(name, typ)
			}
		}
	}
	return diags
}

// collectDeclarations binds every module-level name before any body is checked.
// Vals stay unknown until their initializers are checked.
func (c *Checker) collectDeclarations(env *Environment, defs []ast.Definition) []Diagnostic {
	var diags []Diagnostic
	declare := func(node ast.Node, name string, typ Type) {
		if env.DefinesLocally(name) {
			diags = append(diags, Diagnostic{
				Message: fmt.Sprintf("typechecker: '%s' is already defined", name),
				Node:    node,
			})
		}
		env.Define(name, typ)
	}
	for _, def := range defs {
		switch d := def.(type) {
		case *ast.FunctionDefinition:
			declare(d, d.ID.Name, functionTypeOf(d))
		case *ast.TypeDefinition:
			declare(d, d.ID.Name, structTypeOf(d))
		case *ast.ValDefinition:
			declare(d, d.ID.Name, UnknownType{})
		}
	}
	return diags
}

func functionTypeOf(def *ast.FunctionDefinition) *FunctionType {
	params := make([]string, len(def.Params))
	for i, p := range def.Params {
		params[i] = p.Name
	}
	return &FunctionType{Params: params, Return: UnknownType{}}
}

func structTypeOf(def *ast.TypeDefinition) StructType {
	props := make([]string, len(def.Properties))
	for i, p := range def.Properties {
		props[i] = p.Name
	}
	methods := make(map[string]*FunctionType, len(def.Methods))
	for _, m := range def.Methods {
		methods[m.ID.Name] = functionTypeOf(m)
	}
	return StructType{TypeName: def.ID.Name, Properties: props, Methods: methods}
}

func (c *Checker) checkExports(env *Environment, module *ast.Module) []Diagnostic {
	var diags []Diagnostic
	for _, exp := range module.Exports {
		for _, name := range exp.Names {
			if name == ast.Wildcard || env.DefinesLocally(name) {
				continue
			}
			diags = append(diags, Diagnostic{
				Message: fmt.Sprintf("typechecker: exported name '%s' is not defined", name),
				Node:    exp,
			})
		}
	}
	return diags
}

func (c *Checker) checkValDefinition(env *Environment, def *ast.ValDefinition) []Diagnostic {
	diags, typ := c.checkExpression(env, def.Value)
	if env.DefinesLocally(def.ID.Name) {
		diags = append(diags, Diagnostic{
			Message: fmt.Sprintf("typechecker: '%s' is already defined", def.ID.Name),
			Node:    def,
		})
	}
	env.Define(def.ID.Name, typ)
	return diags
}

// checkFunctionBody checks a function in a child scope and fills in its return type.
// self is non-nil for type members.
func (c *Checker) checkFunctionBody(env *Environment, def *ast.FunctionDefinition, self *StructType) []Diagnostic {
	fnType := functionTypeOf(def)
	if existing, ok := env.Lookup(def.ID.Name); ok && self == nil {
		if ft, ok := existing.(*FunctionType); ok {
			fnType = ft
		}
	}
	if self != nil {
		fnType = self.Methods[def.ID.Name]
	}

	fnEnv := env.Extend()
	if self != nil {
		fnEnv.Define("self", StructInstanceType{Struct: *self})
		for _, p := range self.Properties {
			fnEnv.Define(p, UnknownType{})
		}
	}
	var diags []Diagnostic
	for _, p := range def.Params {
		if fnEnv.DefinesLocally(p.Name) && (self == nil || !self.HasProperty(p.Name)) {
			diags = append(diags, Diagnostic{
				Message: fmt.Sprintf("typechecker: duplicate parameter '%s'", p.Name),
				Node:    p,
			})
		}
		fnEnv.Define(p.Name, UnknownType{})
	}

	c.returnTypeStack = append(c.returnTypeStack, nil)
	loopDepth := c.loopDepth
	c.loopDepth = 0
	diags = append(diags, c.checkStatement(fnEnv, def.Body)...)
	c.loopDepth = loopDepth
	returns := c.returnTypeStack[len(c.returnTypeStack)-1]
	c.returnTypeStack = c.returnTypeStack[:len(c.returnTypeStack)-1]

	fnType.Return = unifyReturns(returns)
	return diags
}

func unifyReturns(returns []Type) Type {
	if len(returns) == 0 {
		return PrimitiveType{Kind: PrimitiveUnit}
	}
	var known Type
	for _, r := range returns {
		if isUnknownType(r) {
			continue
		}
		if known == nil {
			known = r
			continue
		}
		if !sameType(known, r) {
			return UnknownType{}
		}
	}
	if known == nil {
		return UnknownType{}
	}
	return known
}

func (c *Checker) checkTypeBodies(env *Environment, def *ast.TypeDefinition) []Diagnostic {
	typ, ok := env.Lookup(def.ID.Name)
	st, isStruct := typ.(StructType)
	if !ok || !isStruct {
		return nil
	}
	var diags []Diagnostic
	seen := make(map[string]bool, len(def.Properties))
	for _, p := range def.Properties {
		if seen[p.Name] {
			diags = append(diags, Diagnostic{
				Message: fmt.Sprintf("typechecker: duplicate property '%s' in type %s", p.Name, st.TypeName),
				Node:    p,
			})
		}
		seen[p.Name] = true
	}
	for _, m := range def.Methods {
		diags = append(diags, c.checkFunctionBody(env, m, &st)...)
	}
	return diags
}
