// Package stdlib holds the natively implemented NG libraries.
package stdlib

import (
	"errors"
	"fmt"
	"io"
	"math"
	"strings"

	"ng/interpreter-go/pkg/driver"
	"ng/interpreter-go/pkg/runtime"
)

// maxRange bounds the array std.core.range may allocate.
const maxRange = math.MaxInt32

// Library ids.
const (
	IO     = "std.io"
	Assert = "std.assert"
	Core   = "std.core"
)

// Install registers every native library missing from reg. out receives std.io output.
func Install(reg *driver.Registry, out io.Writer) error {
	libs := map[string]map[string]runtime.NativeFunc{
		IO:     IOFunctions(out),
		Assert: AssertFunctions(),
		Core:   CoreFunctions(),
	}
	var errs []error
	for _, id := range []string{IO, Assert, Core} {
		if _, ok := reg.Lookup(id); ok {
			continue
		}
		if err := reg.RegisterNativeLibrary(id, libs[id]); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// IOFunctions implements std.io over out.
func IOFunctions(out io.Writer) map[string]runtime.NativeFunc {
	write := func(args []runtime.Object, newline bool) (runtime.Object, error) {
		parts := make([]string, len(args))
		for i, a := range args {
			parts[i] = Display(a)
		}
		line := strings.Join(parts, " ")
		if newline {
			line += "\n"
		}
		if _, err := io.WriteString(out, line); err != nil {
			return nil, runtime.RuntimeErrorf("write failed: %v", err)
		}
		return runtime.UnitValue, nil
	}
	return map[string]runtime.NativeFunc{
		"print": func(_ *runtime.NativeCallContext, args []runtime.Object) (runtime.Object, error) {
			return write(args, false)
		},
		"println": func(_ *runtime.NativeCallContext, args []runtime.Object) (runtime.Object, error) {
			return write(args, true)
		},
	}
}

// AssertFunctions implements std.assert.
func AssertFunctions() map[string]runtime.NativeFunc {
	return map[string]runtime.NativeFunc{
		"assert": func(_ *runtime.NativeCallContext, args []runtime.Object) (runtime.Object, error) {
			if len(args) == 0 || len(args) > 2 {
				return nil, runtime.RuntimeErrorf("assert expects 1 or 2 argument(s), got %d", len(args))
			}
			if args[0].Bool() {
				return runtime.UnitValue, nil
			}
			if len(args) == 2 {
				return nil, runtime.AssertionErrorf("%s", Display(args[1]))
			}
			return nil, runtime.AssertionErrorf("assertion failed")
		},
		"assertEqual": func(_ *runtime.NativeCallContext, args []runtime.Object) (runtime.Object, error) {
			if len(args) != 2 {
				return nil, runtime.RuntimeErrorf("assertEqual expects 2 argument(s), got %d", len(args))
			}
			if !runtime.Relate("==", args[0], args[1]) {
				return nil, runtime.AssertionErrorf("expected %s, got %s", inspect(args[0]), inspect(args[1]))
			}
			return runtime.UnitValue, nil
		},
	}
}

// CoreFunctions implements std.core.
func CoreFunctions() map[string]runtime.NativeFunc {
	return map[string]runtime.NativeFunc{
		"typeOf": func(_ *runtime.NativeCallContext, args []runtime.Object) (runtime.Object, error) {
			if len(args) != 1 {
				return nil, runtime.RuntimeErrorf("typeOf expects 1 argument(s), got %d", len(args))
			}
			return runtime.NewString(runtime.TypeName(args[0])), nil
		},
		"show": func(_ *runtime.NativeCallContext, args []runtime.Object) (runtime.Object, error) {
			if len(args) != 1 {
				return nil, runtime.RuntimeErrorf("show expects 1 argument(s), got %d", len(args))
			}
			return runtime.NewString(Display(args[0])), nil
		},
		"fail": func(_ *runtime.NativeCallContext, args []runtime.Object) (runtime.Object, error) {
			parts := make([]string, len(args))
			for i, a := range args {
				parts[i] = Display(a)
			}
			return nil, runtime.RuntimeErrorf("%s", strings.Join(parts, " "))
		},
		"range": func(_ *runtime.NativeCallContext, args []runtime.Object) (runtime.Object, error) {
			if len(args) != 1 {
				return nil, runtime.RuntimeErrorf("range expects 1 argument(s), got %d", len(args))
			}
			n, ok := args[0].(runtime.Integral)
			if !ok {
				return nil, runtime.IllegalTypef("range expects an integral, got %s", runtime.TypeName(args[0]))
			}
			count := n.Int64()
			if count < 0 {
				return nil, runtime.RuntimeErrorf("range count %d is negative", count)
			}
			if count > maxRange {
				return nil, runtime.RuntimeErrorf("range count %d exceeds %d", count, maxRange)
			}
			elems := make([]runtime.Object, 0, count)
			for i := int64(0); i < count; i++ {
				elems = append(elems, runtime.NewI32(i))
			}
			return runtime.NewArray(elems), nil
		},
	}
}

// Display renders v for output: strings unquoted, everything else as shown.
func Display(v runtime.Object) string {
	if v == nil {
		return fmt.Sprint(nil)
	}
	if s, ok := v.(runtime.String); ok {
		return s.Val
	}
	return v.Show()
}

// inspect is Display with strings quoted, so mismatches stay readable.
func inspect(v runtime.Object) string {
	if s, ok := v.(runtime.String); ok {
		return fmt.Sprintf("%q", s.Val)
	}
	return Display(v)
}
