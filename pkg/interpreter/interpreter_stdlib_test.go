package interpreter

import (
	"errors"
	"io"
	"path/filepath"
	"strings"
	"testing"

	"ng/interpreter-go/pkg/driver"
	"ng/interpreter-go/pkg/runtime"
)

func newBundledLibInterpreter(t *testing.T) *Interpreter {
	t.Helper()
	lib, err := filepath.Abs(filepath.Join("..", "..", "lib"))
	if err != nil {
		t.Fatal(err)
	}
	reg := driver.NewRegistry()
	if err := reg.AddSearchPath(lib); err != nil {
		t.Fatalf("AddSearchPath: %v", err)
	}
	return New(reg, WithOutput(io.Discard))
}

func TestBundledMathModule(t *testing.T) {
	interp := newBundledLibInterpreter(t)
	evalSource(t, interp, `
import std.math as m;
val a = m.abs(-7);
val lo = m.min(3, 9);
val hi = m.max(3, 9);
val p = m.pow(3, 5);
val g = m.gcd(84, -36);
val c = m.clamp(42, 0, 10);
`)
	for name, want := range map[string]int64{"a": 7, "lo": 3, "hi": 9, "p": 243, "g": 12, "c": 10} {
		expectIntegral(t, lookupObject(t, interp, name), want)
	}

	err := evalError(t, interp, `val bad = m.pow(2, -1);`)
	if !errors.Is(err, runtime.ErrRuntime) || !strings.Contains(err.Error(), "pow: negative exponent") {
		t.Fatalf("unexpected error: %v", err)
	}
	var rtErr *runtime.Error
	if !errors.As(err, &rtErr) || rtErr.Module != "std.math" {
		t.Fatalf("error should be attributed to std.math, got %#v", rtErr)
	}
}
