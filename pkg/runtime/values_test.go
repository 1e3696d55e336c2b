package runtime

import (
	"errors"
	"testing"

	"ng/interpreter-go/pkg/ast"
)

func TestCollectionIndexRoundTrip(t *testing.T) {
	collections := map[string]Object{
		"array": NewArray([]Object{NewI32(1), NewI32(2), NewI32(3)}),
		"tuple": NewTuple([]Object{NewI32(1), NewString("b"), True}),
	}
	for name, coll := range collections {
		idx := NewIntegral(1, false, 2)
		if err := PutIndex(coll, idx, NewString("v")); err != nil {
			t.Fatalf("%s set: %v", name, err)
		}
		got, err := GetIndex(coll, idx)
		if err != nil {
			t.Fatalf("%s get: %v", name, err)
		}
		if !got.Equal(NewString("v")) {
			t.Fatalf("%s: expected round-trip value, got %s", name, got.Show())
		}
		if _, err := GetIndex(coll, NewI32(3)); !errors.Is(err, ErrRuntime) {
			t.Fatalf("%s: expected out-of-range get to fail, got %v", name, err)
		}
		if err := PutIndex(coll, NewI32(-1), UnitValue); !errors.Is(err, ErrRuntime) {
			t.Fatalf("%s: expected out-of-range set to fail, got %v", name, err)
		}
		if _, err := GetIndex(coll, NewString("0")); !errors.Is(err, ErrIllegalType) {
			t.Fatalf("%s: expected non-integral index to fail, got %v", name, err)
		}
	}
}

func TestArrayAppendMutatesInPlace(t *testing.T) {
	arr := NewArray(nil)
	res := mustApply(t, ast.OpShl, arr, NewI32(7))
	if res != Object(arr) {
		t.Fatalf("append should return the receiver")
	}
	if len(arr.Elements) != 1 || arr.Show() != "[7]" {
		t.Fatalf("unexpected array %s", arr.Show())
	}
	if _, err := Apply(ast.OpShl, NewTuple(nil), NewI32(1)); !errors.Is(err, ErrNotImplemented) {
		t.Fatalf("tuples have no append operator, got %v", err)
	}
}

func TestCollectionEqualityIsDeep(t *testing.T) {
	a := NewArray([]Object{NewI32(1), NewArray([]Object{NewString("x")})})
	b := NewArray([]Object{NewIntegral(8, true, 1), NewArray([]Object{NewString("x")})})
	if !a.Equal(b) {
		t.Fatalf("expected deep equality of %s and %s", a.Show(), b.Show())
	}
	c := NewArray([]Object{NewI32(1)})
	if a.Equal(c) {
		t.Fatalf("arrays of different size must differ")
	}
	if NewTuple([]Object{NewI32(1)}).Equal(NewArray([]Object{NewI32(1)})) {
		t.Fatalf("tuple and array must differ")
	}
}

func TestStringMembers(t *testing.T) {
	ctx := NewContext()
	s := NewString("123")
	size, err := Respond(s, "size", ctx, nil)
	if err != nil {
		t.Fatalf("size: %v", err)
	}
	if !size.Equal(NewI32(3)) {
		t.Fatalf("expected size 3, got %s", size.Show())
	}
	ch, err := Respond(s, "charAt", ctx, []Object{NewI32(1)})
	if err != nil {
		t.Fatalf("charAt: %v", err)
	}
	if !ch.Equal(NewI32(50)) {
		t.Fatalf("expected code 50, got %s", ch.Show())
	}
	sub, err := Respond(NewString("hello"), "substr", ctx, []Object{NewI32(1), NewI32(3)})
	if err != nil || sub.Show() != "ell" {
		t.Fatalf("substr: %v %v", sub, err)
	}
	if _, err := Respond(s, "missing", ctx, nil); !errors.Is(err, ErrRuntime) {
		t.Fatalf("expected missing member to fail, got %v", err)
	}
	if NewString("a").Type() != NewString("b").Type() {
		t.Fatalf("string descriptor should be shared")
	}
}

func TestStringOperators(t *testing.T) {
	if got := mustApply(t, ast.OpAdd, NewString("ab"), NewString("c")); got.Show() != "abc" {
		t.Fatalf("unexpected concatenation %s", got.Show())
	}
	if !Relate(ast.OpLt, NewString("abc"), NewString("abd")) {
		t.Fatalf("expected lexicographic ordering")
	}
	if _, err := Apply(ast.OpSub, NewString("a"), NewString("b")); !errors.Is(err, ErrNotImplemented) {
		t.Fatalf("expected not implemented, got %v", err)
	}
}

func TestStructuralOmittedPropertyIsUnit(t *testing.T) {
	td := NewTypeDescriptor("T", []string{"n", "m"})
	obj, err := NewStructuralObject(td, map[string]Object{"m": NewI32(2)})
	if err != nil {
		t.Fatalf("construct: %v", err)
	}
	n, ok := obj.Property("n")
	if !ok || !n.Equal(UnitValue) {
		t.Fatalf("expected unit placeholder, got %v", n)
	}
	if obj.Show() != "T{n: (), m: 2}" {
		t.Fatalf("unexpected show %q", obj.Show())
	}
	if _, err := NewStructuralObject(td, map[string]Object{"zzz": True}); err == nil {
		t.Fatalf("expected unknown property to fail")
	}
}

func TestStructuralDispatchOrder(t *testing.T) {
	td := NewTypeDescriptor("Point", []string{"x"})
	td.DefineMethod(NewNativeFunction("describe", 0, func(call *NativeCallContext, _ []Object) (Object, error) {
		return NewString("type method"), nil
	}))
	obj, err := NewStructuralObject(td, map[string]Object{"x": NewI32(4)})
	if err != nil {
		t.Fatalf("construct: %v", err)
	}
	ctx := NewContext()

	x, err := Respond(obj, "x", ctx, nil)
	if err != nil || !x.Equal(NewI32(4)) {
		t.Fatalf("property dispatch: %v %v", x, err)
	}
	res, err := Respond(obj, "describe", ctx, nil)
	if err != nil || res.Show() != "type method" {
		t.Fatalf("descriptor dispatch: %v %v", res, err)
	}
	obj.bind(NewNativeFunction("describe", 0, func(call *NativeCallContext, _ []Object) (Object, error) {
		if call.Self != Object(obj) {
			t.Fatalf("bound member should receive the instance as self")
		}
		return NewString("bound"), nil
	}))
	res, err = Respond(obj, "describe", ctx, nil)
	if err != nil || res.Show() != "bound" {
		t.Fatalf("bound dispatch: %v %v", res, err)
	}
	if _, err := Respond(obj, "nothing", ctx, nil); err == nil {
		t.Fatalf("expected unknown member to fail")
	}
}

func TestTypeDescriptorEquality(t *testing.T) {
	noop := func(*NativeCallContext, []Object) (Object, error) { return UnitValue, nil }
	a := NewTypeDescriptor("T", []string{"a"})
	a.DefineMethod(NewNativeFunction("m", 0, noop))
	b := NewTypeDescriptor("T", []string{"a"})
	b.DefineMethod(NewNativeFunction("m", 3, noop))
	if !a.Equal(b) {
		t.Fatalf("descriptors differing only in member bodies should be equal")
	}
	b.DefineMethod(NewNativeFunction("other", 0, noop))
	if a.Equal(b) {
		t.Fatalf("descriptors with different member sets should differ")
	}
	if NewTypeValue(a).Equal(NewTypeValue(b)) {
		t.Fatalf("type values should follow descriptor equality")
	}
	if !NewTypeValue(a).Equal(NewTypeValue(a)) {
		t.Fatalf("a type value should equal itself")
	}
}

func TestModuleRespondReachesExportsOnly(t *testing.T) {
	ctx := NewContext()
	_ = ctx.DefineObject("public", NewI32(1))
	_ = ctx.DefineObject("private", NewI32(2))
	mod := SnapshotModule("lib", ctx, nil, []string{"public"})

	v, err := Respond(mod, "public", ctx, nil)
	if err != nil || !v.Equal(NewI32(1)) {
		t.Fatalf("exported value: %v %v", v, err)
	}
	if _, err := Respond(mod, "private", ctx, nil); !errors.Is(err, ErrRuntime) {
		t.Fatalf("expected private access to fail, got %v", err)
	}

	all := SnapshotModule("lib", ctx, nil, []string{ast.Wildcard})
	if names := all.ExportedNames(); len(names) != 2 {
		t.Fatalf("wildcard export should expose every defined name, got %v", names)
	}
}

func TestUnitValue(t *testing.T) {
	if UnitValue.Bool() || UnitValue.Show() != "()" {
		t.Fatalf("unexpected unit behaviour")
	}
	if UnitValue.Equal(False) || !UnitValue.Equal(Unit{}) {
		t.Fatalf("unit should equal only unit")
	}
}
