package interpreter

import (
	"fmt"
	"sort"
	"strings"

	"ng/interpreter-go/pkg/runtime"
)

// Summary renders the root context: objects with their values, functions with
// their arity, types with their properties and members, and bound modules.
func (i *Interpreter) Summary() string {
	return summarize(i.root)
}

func summarize(ctx *runtime.Context) string {
	var b strings.Builder

	objects := ctx.LocalObjects()
	section(&b, "objects", sortedKeys(objects), func(name string) string {
		return fmt.Sprintf("%s = %s", name, objects[name].Show())
	})

	functions := ctx.LocalFunctions()
	section(&b, "functions", sortedKeys(functions), func(name string) string {
		arity := functions[name].Arity()
		if arity < 0 {
			return name + "/*"
		}
		return fmt.Sprintf("%s/%d", name, arity)
	})

	types := ctx.LocalTypes()
	section(&b, "types", sortedKeys(types), func(name string) string {
		td := types[name]
		line := fmt.Sprintf("%s {%s}", name, strings.Join(td.Properties, ", "))
		if methods := td.MethodNames(); len(methods) > 0 {
			line += " [" + strings.Join(methods, ", ") + "]"
		}
		return line
	})

	modules := ctx.LocalModules()
	section(&b, "modules", sortedKeys(modules), func(name string) string {
		mod := modules[name]
		if mod.Name == name {
			return name
		}
		return fmt.Sprintf("%s (%s)", name, mod.Name)
	})
	return b.String()
}

func section(b *strings.Builder, title string, names []string, line func(string) string) {
	if len(names) == 0 {
		return
	}
	b.WriteString(title)
	b.WriteString(":\n")
	for _, name := range names {
		b.WriteString("  ")
		b.WriteString(line(name))
		b.WriteByte('\n')
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
