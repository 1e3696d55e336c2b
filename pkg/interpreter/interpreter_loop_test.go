package interpreter

import (
	"errors"
	"strings"
	"testing"

	"ng/interpreter-go/pkg/runtime"
)

func TestLoopAccumulatesThroughNext(t *testing.T) {
	interp, _ := newTestInterpreter(t, nil)
	evalSource(t, interp, `
fun sum(n) {
	loop [i = 1, acc = 0] {
		if (i > n) return acc;
		next [i + 1, acc + i];
	}
	return 0;
}
val total = sum(10);
`)
	expectIntegral(t, lookupObject(t, interp, "total"), 55)
}

func TestLoopEndsWhenBodyCompletes(t *testing.T) {
	interp, _ := newTestInterpreter(t, nil)
	evalSource(t, interp, `
val seen = [];
loop [i = 0] {
	seen << i;
	if (i < 3) next [i + 1];
}
`)
	if got := lookupObject(t, interp, "seen").Show(); got != "[0, 1, 2, 3]" {
		t.Fatalf("seen = %s", got)
	}
}

func TestLoopBindingsAreFreshPerIteration(t *testing.T) {
	interp, _ := newTestInterpreter(t, nil)
	evalSource(t, interp, `
val last = 0;
loop [i = 0] {
	val doubled = i * 2;
	last = doubled;
	if (i < 2) next [i + 1];
}
`)
	expectIntegral(t, lookupObject(t, interp, "last"), 4)
	if interp.Context().IsLocal("doubled") || interp.Context().IsLocal("i") {
		t.Fatalf("loop locals leaked into the module frame: %v", interp.Context().Locals())
	}
}

func TestNextMisuse(t *testing.T) {
	cases := map[string]struct {
		source string
		want   string
	}{
		"module level": {
			source: `next;`,
			want:   "next outside of a loop",
		},
		"inside function": {
			source: `fun f() { next; } f();`,
			want:   "next outside of a loop in f",
		},
		"function called from loop body": {
			source: `fun g() { next [1]; } fun h() { loop [i = 0] { g(); } } h();`,
			want:   "next outside of a loop in g",
		},
		"wrong value count": {
			source: `loop [i = 0] { next [1, 2]; }`,
			want:   "next expects 1 value(s), got 2",
		},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			interp, _ := newTestInterpreter(t, nil)
			err := evalError(t, interp, tc.source)
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected %q, got %v", tc.want, err)
			}
			if !errors.Is(err, runtime.ErrRuntime) {
				t.Fatalf("expected a runtime error, got %v", err)
			}
		})
	}
}

func TestReturnOutsideFunction(t *testing.T) {
	interp, _ := newTestInterpreter(t, nil)
	err := evalError(t, interp, `return 1;`)
	if !strings.Contains(err.Error(), "return outside of a function") {
		t.Fatalf("unexpected error: %v", err)
	}
}
