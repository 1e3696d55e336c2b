package typechecker_test

import (
	"strings"
	"testing"

	"ng/interpreter-go/pkg/ast"
	"ng/interpreter-go/pkg/parser"
	"ng/interpreter-go/pkg/typechecker"
)

func checkSource(t *testing.T, resolver typechecker.ImportResolver, source string) (typechecker.Index, []typechecker.Diagnostic) {
	t.Helper()
	mod, err := parser.NewModuleParser().ParseModule([]byte(source))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	index, diags, err := typechecker.New(resolver).CheckModule(mod)
	if err != nil {
		t.Fatalf("CheckModule returned error: %v", err)
	}
	return index, diags
}

func expectDiagnostic(t *testing.T, diags []typechecker.Diagnostic, fragment string) {
	t.Helper()
	for _, d := range diags {
		if strings.Contains(d.Message, fragment) {
			return
		}
	}
	t.Fatalf("expected diagnostic containing %q, got %v", fragment, diags)
}

func expectClean(t *testing.T, diags []typechecker.Diagnostic) {
	t.Helper()
	if len(diags) != 0 {
		t.Fatalf("expected no diagnostics, got %v", diags)
	}
}

func TestCheckModuleInfersFunctionReturn(t *testing.T) {
	index, diags := checkSource(t, nil, `
fun fact(x) {
	if (x <= 1) return 1;
	return x * fact(x - 1);
}
val answer = fact(5);
`)
	expectClean(t, diags)
	if got := index["fact"].Name(); got != "fun(x) -> i32" {
		t.Fatalf("fact typed as %q", got)
	}
	if got := index["answer"].Name(); got != "i32" {
		t.Fatalf("answer typed as %q", got)
	}
}

func TestCheckModuleNumericPromotion(t *testing.T) {
	index, diags := checkSource(t, nil, `
val a = 5i8 + 10;
val b = 1u32 + 2i32;
val c = 1i64 + 2.0f32;
val d = 1i16 + 2.0f32;
val s = "a" + "b";
`)
	expectClean(t, diags)
	want := map[string]string{"a": "i32", "b": "u32", "c": "f64", "d": "f32", "s": "string"}
	for name, typ := range want {
		if got := index[name].Name(); got != typ {
			t.Errorf("%s typed as %s, want %s", name, got, typ)
		}
	}
}

func TestCheckModuleReportsUndefinedNames(t *testing.T) {
	_, diags := checkSource(t, nil, `
val x = y + 1;
missing(1);
`)
	expectDiagnostic(t, diags, "undefined identifier 'y'")
	expectDiagnostic(t, diags, "undefined function 'missing'")
}

func TestCheckModuleReportsArityMismatch(t *testing.T) {
	_, diags := checkSource(t, nil, `
fun add(a, b) { return a + b; }
add(1);
`)
	expectDiagnostic(t, diags, "add expects 2 argument(s), got 1")
}

func TestCheckModuleReportsUndefinedExport(t *testing.T) {
	_, diags := checkSource(t, nil, `
export square, nope;
fun square(x) { return x * x; }
`)
	expectDiagnostic(t, diags, "exported name 'nope' is not defined")
	for _, d := range diags {
		if strings.Contains(d.Message, "square") {
			t.Fatalf("unexpected diagnostic for defined export: %v", d)
		}
	}
}

func TestCheckModuleLoopAndNext(t *testing.T) {
	_, diags := checkSource(t, nil, `
fun sum(n) {
	loop [i = 0, acc = 0] {
		if (i > n) return acc;
		next [i + 1, acc + i];
	}
}
`)
	expectClean(t, diags)

	_, diags = checkSource(t, nil, `
fun bad() { next [1]; }
`)
	expectDiagnostic(t, diags, "next outside of a loop")
}

func TestCheckModuleTypesAndMembers(t *testing.T) {
	index, diags := checkSource(t, nil, `
type Point {
	property x, y;
	fun norm() { return x * x + y * y; }
	fun label() { return "point"; }
}
val p = new Point { x: 3, z: 4 };
val l = p.label();
p.w;
p.norm(1);
`)
	expectDiagnostic(t, diags, "type Point has no property 'z'")
	expectDiagnostic(t, diags, "Point has no member 'w'")
	expectDiagnostic(t, diags, "Point.norm expects 0 argument(s), got 1")
	if got := index["l"].Name(); got != "string" {
		t.Fatalf("label typed as %q", got)
	}
	if got := index["p"].Name(); got != "Point" {
		t.Fatalf("p typed as %q", got)
	}
}

func TestCheckModuleBuiltinMembers(t *testing.T) {
	index, diags := checkSource(t, nil, `
val s = "123";
val n = s.size();
val c = s.charAt(1);
val first = s[0];
val arr = [1, 2] << 3;
val count = arr.size();
`)
	expectClean(t, diags)
	want := map[string]string{"n": "i32", "c": "u8", "first": "u8", "arr": "array", "count": "i32"}
	for name, typ := range want {
		if got := index[name].Name(); got != typ {
			t.Errorf("%s typed as %s, want %s", name, got, typ)
		}
	}

	_, diags = checkSource(t, nil, `
val s = "abc";
s[0] = 1;
s["x"];
`)
	expectDiagnostic(t, diags, "strings are immutable")
	expectDiagnostic(t, diags, "index must be integral")
}

func TestCheckModuleImportsThroughResolver(t *testing.T) {
	math := typechecker.Index{
		"square": &typechecker.FunctionType{Params: []string{"x"}, Return: typechecker.IntegerType{Suffix: "i32"}},
	}
	resolver := func(path string) (typechecker.Index, bool) {
		if path == "util.math" {
			return math, true
		}
		return nil, false
	}

	index, diags := checkSource(t, resolver, `
import util.math (square);
import util.math as m;
val a = square(2);
val b = m.square(3);
`)
	expectClean(t, diags)
	if got := index["b"].Name(); got != "i32" {
		t.Fatalf("b typed as %q", got)
	}
	if got := index["m"].Name(); got != "module util.math" {
		t.Fatalf("m typed as %q", got)
	}

	_, diags = checkSource(t, resolver, `
import util.math (cube);
import util.math as m;
m.cube(1);
`)
	expectDiagnostic(t, diags, "module util.math does not export 'cube'")
	expectDiagnostic(t, diags, "module util.math has no member 'cube'")
}

func TestCheckModuleWildcardWithoutIndexAllowsDynamicNames(t *testing.T) {
	_, diags := checkSource(t, nil, `
import std.io (*);
println("hi");
`)
	expectClean(t, diags)
}

func TestTypeOfRecordsExpressions(t *testing.T) {
	lit := ast.IntT(7, ast.IntegerTypeU16)
	mod := ast.Mod(nil, nil, ast.Val("x", lit))
	checker := typechecker.New(nil)
	if _, _, err := checker.CheckModule(mod); err != nil {
		t.Fatalf("CheckModule: %v", err)
	}
	typ, ok := checker.TypeOf(lit)
	if !ok || typ.Name() != "u16" {
		t.Fatalf("expected u16, got %v (ok=%v)", typ, ok)
	}
}

func TestDiagnosticStringIncludesPosition(t *testing.T) {
	_, diags := checkSource(t, nil, "\n\nval x = nope;")
	if len(diags) != 1 {
		t.Fatalf("expected one diagnostic, got %v", diags)
	}
	if got := diags[0].String(); !strings.HasPrefix(got, "3:") {
		t.Fatalf("expected position prefix, got %q", got)
	}
}
