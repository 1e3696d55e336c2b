package interpreter

import (
	"bytes"
	"testing"

	"ng/interpreter-go/pkg/ast"
	"ng/interpreter-go/pkg/driver"
	"ng/interpreter-go/pkg/parser"
	"ng/interpreter-go/pkg/runtime"
)

// newTestInterpreter builds an interpreter whose registry serves modules from
// memory, keyed by dotted id. std.io output is captured in the returned buffer.
func newTestInterpreter(t *testing.T, modules map[string]string, opts ...Option) (*Interpreter, *bytes.Buffer) {
	t.Helper()
	reg := driver.NewRegistry()
	for id, source := range modules {
		if _, err := reg.RegisterSource(id, []byte(source)); err != nil {
			t.Fatalf("RegisterSource(%s): %v", id, err)
		}
	}
	var out bytes.Buffer
	opts = append([]Option{WithOutput(&out)}, opts...)
	return New(reg, opts...), &out
}

func parseSource(t *testing.T, source string) *ast.Module {
	t.Helper()
	mod, err := parser.NewModuleParser().ParseModule([]byte(source))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return mod
}

func evalSource(t *testing.T, interp *Interpreter, source string) runtime.Object {
	t.Helper()
	v, _, err := interp.EvaluateModule(parseSource(t, source))
	if err != nil {
		t.Fatalf("evaluation failed: %v", err)
	}
	return v
}

func evalError(t *testing.T, interp *Interpreter, source string) error {
	t.Helper()
	_, _, err := interp.EvaluateModule(parseSource(t, source))
	if err == nil {
		t.Fatalf("expected evaluation of %q to fail", source)
	}
	return err
}

func lookupObject(t *testing.T, interp *Interpreter, name string) runtime.Object {
	t.Helper()
	v, ok := interp.Context().Object(name, false)
	if !ok {
		t.Fatalf("object %s is not defined; locals: %v", name, interp.Context().Locals())
	}
	return v
}

func expectIntegral(t *testing.T, v runtime.Object, want int64) {
	t.Helper()
	n, ok := v.(runtime.Integral)
	if !ok {
		t.Fatalf("expected integral %d, got %s (%s)", want, v.Show(), runtime.TypeName(v))
	}
	if n.Int64() != want {
		t.Fatalf("expected %d, got %d", want, n.Int64())
	}
}

func expectBool(t *testing.T, v runtime.Object, want bool) {
	t.Helper()
	b, ok := v.(runtime.Boolean)
	if !ok || b.Val != want {
		t.Fatalf("expected boolean %v, got %s", want, v.Show())
	}
}
