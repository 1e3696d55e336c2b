package interpreter

import (
	"strings"

	"ng/interpreter-go/pkg/ast"
	"ng/interpreter-go/pkg/runtime"
)

func (i *Interpreter) evaluateImport(imp *ast.ImportStatement, ctx *runtime.Context) error {
	id := strings.Join(imp.Path, ".")
	mod, err := i.importModule(id)
	if err != nil {
		return err
	}
	switch {
	case imp.Alias != nil:
		return ctx.DefineModule(imp.Alias.Name, mod)
	case len(imp.Names) == 0:
		return ctx.DefineModule(imp.Path[len(imp.Path)-1], mod)
	}
	for _, name := range imp.Names {
		if name == ast.Wildcard {
			for _, exported := range mod.ExportedNames() {
				if err := bindImported(ctx, mod, exported); err != nil {
					return err
				}
			}
			continue
		}
		if !mod.IsExported(name) {
			return runtime.RuntimeErrorf("module %s does not export '%s'", id, name)
		}
		if err := bindImported(ctx, mod, name); err != nil {
			return err
		}
	}
	return nil
}

func bindImported(ctx *runtime.Context, mod *runtime.Module, name string) error {
	if fn, ok := mod.Functions[name]; ok {
		return ctx.DefineFunction(name, fn)
	}
	if td, ok := mod.Types[name]; ok {
		return ctx.DefineType(name, td)
	}
	if v, ok := mod.Objects[name]; ok {
		return ctx.DefineObject(name, v)
	}
	return runtime.RuntimeErrorf("module %s exports '%s' but does not define it", mod.Name, name)
}

// importModule evaluates id in a fresh root context on first use and caches the
// snapshot in the registry.
func (i *Interpreter) importModule(id string) (*runtime.Module, error) {
	if mod, ok := i.registry.Evaluated(id); ok {
		return mod, nil
	}
	if i.evaluating[id] {
		return nil, runtime.RuntimeErrorf("circular import of module %s", id)
	}
	info, err := i.registry.Load(id)
	if err != nil {
		return nil, runtime.WrapRuntimeError(err, "cannot import %s: %v", id, err)
	}
	if info.Module != nil {
		return info.Module, nil
	}

	i.logger.Debug("importing module", "module", id, "path", info.Path)
	i.evaluating[id] = true
	defer delete(i.evaluating, id)
	ctx := runtime.NewContext()
	if _, err := i.evaluateModuleInto(info.AST, ctx, id); err != nil {
		return nil, runtime.InModule(err, id)
	}
	mod := runtime.SnapshotModule(id, ctx, importIDs(info.AST), info.AST.ExportedNames())
	i.registry.Store(info, mod)
	return mod, nil
}

func importIDs(module *ast.Module) []string {
	ids := make([]string, 0, len(module.Imports))
	for _, imp := range module.Imports {
		ids = append(ids, strings.Join(imp.Path, "."))
	}
	return ids
}
