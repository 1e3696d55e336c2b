package interpreter

import (
	"io"
	"log/slog"
	"os"

	"ng/interpreter-go/pkg/ast"
	"ng/interpreter-go/pkg/driver"
	"ng/interpreter-go/pkg/runtime"
	"ng/interpreter-go/pkg/stdlib"
)

// DefaultMaxCallDepth bounds nested NG function calls.
const DefaultMaxCallDepth = 4096

// Interpreter evaluates NG modules against a session registry. It is not safe
// for concurrent use.
type Interpreter struct {
	registry     *driver.Registry
	root         *runtime.Context
	logger       *slog.Logger
	out          io.Writer
	maxCallDepth int
	callDepth    int
	evaluating   map[string]bool
	current      string
}

// Option configures an Interpreter.
type Option func(*Interpreter)

// WithLogger routes evaluation tracing to logger.
func WithLogger(logger *slog.Logger) Option {
	return func(i *Interpreter) {
		if logger != nil {
			i.logger = logger
		}
	}
}

// WithMaxCallDepth overrides DefaultMaxCallDepth. Non-positive values are ignored.
func WithMaxCallDepth(depth int) Option {
	return func(i *Interpreter) {
		if depth > 0 {
			i.maxCallDepth = depth
		}
	}
}

// WithOutput sets the writer used by std.io.
func WithOutput(w io.Writer) Option {
	return func(i *Interpreter) {
		if w != nil {
			i.out = w
		}
	}
}

// New returns an interpreter with an empty root context. The built-in native
// libraries are registered on registry unless it already provides them.
func New(registry *driver.Registry, opts ...Option) *Interpreter {
	if registry == nil {
		registry = driver.NewRegistry()
	}
	i := &Interpreter{
		registry:     registry,
		root:         runtime.NewContext(),
		logger:       slog.New(slog.DiscardHandler),
		out:          os.Stdout,
		maxCallDepth: DefaultMaxCallDepth,
		evaluating:   make(map[string]bool),
	}
	for _, opt := range opts {
		opt(i)
	}
	if err := stdlib.Install(registry, i.out); err != nil {
		i.logger.Warn("native library registration failed", "err", err)
	}
	return i
}

// Context returns the root context that entry modules are evaluated into.
func (i *Interpreter) Context() *runtime.Context {
	return i.root
}

// Registry returns the module registry backing imports.
func (i *Interpreter) Registry() *driver.Registry {
	return i.registry
}

// EvaluateModule evaluates module into the root context and returns the value of
// its last expression statement.
func (i *Interpreter) EvaluateModule(module *ast.Module) (runtime.Object, *runtime.Context, error) {
	last, err := i.evaluateModuleInto(module, i.root, "")
	if err != nil {
		return nil, i.root, err
	}
	return last, i.root, nil
}

// EvaluateEntry evaluates a registry entry as the program's main module in the
// root context and caches the resulting module.
func (i *Interpreter) EvaluateEntry(info *driver.ModuleInfo) (*runtime.Module, error) {
	if info.Module != nil {
		return info.Module, nil
	}
	i.logger.Debug("evaluating entry", "module", info.ID, "path", info.Path)
	i.evaluating[info.ID] = true
	defer delete(i.evaluating, info.ID)
	if _, err := i.evaluateModuleInto(info.AST, i.root, info.ID); err != nil {
		return nil, runtime.InModule(err, info.ID)
	}
	mod := runtime.SnapshotModule(info.ID, i.root, importIDs(info.AST), info.AST.ExportedNames())
	i.registry.Store(info, mod)
	return mod, nil
}

// RunFile loads path through the registry and evaluates it as the entry module.
func (i *Interpreter) RunFile(path string) (*runtime.Module, error) {
	info, err := i.registry.LoadFile(path)
	if err != nil {
		return nil, err
	}
	return i.EvaluateEntry(info)
}

// evaluateModuleInto runs imports, definitions, export validation and then the
// module statements against ctx. Functions defined meanwhile belong to id.
func (i *Interpreter) evaluateModuleInto(module *ast.Module, ctx *runtime.Context, id string) (runtime.Object, error) {
	if module == nil {
		return nil, runtime.RuntimeErrorf("module is nil")
	}
	prev := i.current
	i.current = id
	defer func() { i.current = prev }()
	for _, imp := range module.Imports {
		if err := i.evaluateImport(imp, ctx); err != nil {
			return nil, runtime.Locate(err, imp.Span())
		}
	}
	for _, def := range module.Definitions {
		var err error
		switch d := def.(type) {
		case *ast.FunctionDefinition:
			err = i.defineFunction(d, ctx)
		case *ast.TypeDefinition:
			err = i.defineType(d, ctx)
		}
		if err != nil {
			return nil, runtime.Locate(err, def.Span())
		}
	}
	for _, def := range module.Definitions {
		if val, ok := def.(*ast.ValDefinition); ok {
			if err := i.defineVal(val, ctx); err != nil {
				return nil, runtime.Locate(err, val.Span())
			}
		}
	}
	if err := validateExports(module, ctx); err != nil {
		return nil, err
	}

	var last runtime.Object = runtime.UnitValue
	for _, stmt := range module.Body {
		if expr, ok := stmt.(ast.Expression); ok {
			v, err := i.evaluateExpression(expr, ctx)
			if err != nil {
				return nil, err
			}
			last = v
			continue
		}
		out, err := i.executeStatement(stmt, ctx)
		if err != nil {
			return nil, err
		}
		switch out.signal {
		case signalReturned:
			return nil, runtime.Locate(runtime.RuntimeErrorf("return outside of a function"), stmt.Span())
		case signalNext:
			return nil, runtime.Locate(runtime.RuntimeErrorf("next outside of a loop"), stmt.Span())
		}
	}
	return last, nil
}

func validateExports(module *ast.Module, ctx *runtime.Context) error {
	for _, exp := range module.Exports {
		for _, name := range exp.Names {
			if name == ast.Wildcard || ctx.IsLocal(name) {
				continue
			}
			return runtime.Locate(runtime.RuntimeErrorf("exported name '%s' is not defined", name), exp.Span())
		}
	}
	return nil
}
