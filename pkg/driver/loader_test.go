package driver

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"ng/interpreter-go/pkg/runtime"
)

func writeSource(t *testing.T, root, rel, source string) string {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(source), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

func newRegistry(t *testing.T, roots ...string) *Registry {
	t.Helper()
	reg := NewRegistry()
	for _, root := range roots {
		if err := reg.AddSearchPath(root); err != nil {
			t.Fatalf("AddSearchPath(%s): %v", root, err)
		}
	}
	return reg
}

func TestRegistryResolvesInSearchOrder(t *testing.T) {
	first := t.TempDir()
	second := t.TempDir()
	writeSource(t, second, "geo/shapes.ng", "fun area() { return 1; }")
	shadow := writeSource(t, first, "geo/shapes.ng", "fun area() { return 2; }")
	writeSource(t, second, "util/math.ng", "fun square(x) { return x * x; }")

	reg := newRegistry(t, first, second, first)
	if got := len(reg.SearchPaths()); got != 2 {
		t.Fatalf("expected duplicate search path to be ignored, got %d paths", got)
	}

	path, err := reg.Resolve("geo.shapes")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if path != shadow {
		t.Fatalf("Resolve = %s, want %s", path, shadow)
	}

	info, err := reg.Load("util.math")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if info.Name != "math" || info.AST == nil || len(info.AST.Definitions) != 1 {
		t.Fatalf("unexpected module info %+v", info)
	}
	again, err := reg.Load("util.math")
	if err != nil || again != info {
		t.Fatalf("expected cached entry, got %p (%v)", again, err)
	}
}

func TestRegistryMissingModule(t *testing.T) {
	reg := newRegistry(t, t.TempDir())
	_, err := reg.Load("no.such.module")
	if !errors.Is(err, ErrModuleNotFound) {
		t.Fatalf("expected ErrModuleNotFound, got %v", err)
	}
	if !strings.Contains(err.Error(), filepath.Join("no", "such", "module.ng")) {
		t.Fatalf("error should name the relative path: %v", err)
	}
	if _, err := reg.Load("bad..id"); err == nil {
		t.Fatal("expected invalid id error")
	}
}

func TestRegistrySharesEntryForSamePath(t *testing.T) {
	root := t.TempDir()
	path := writeSource(t, root, "app/main.ng", "val x = 1;")
	reg := newRegistry(t, root)

	byFile, err := reg.LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if byFile.ID != "app.main" {
		t.Fatalf("LoadFile id = %q, want app.main", byFile.ID)
	}
	byID, err := reg.Load("app.main")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if byID != byFile {
		t.Fatal("expected one entry for the same file")
	}
	if got := len(reg.Modules()); got != 1 {
		t.Fatalf("Modules() length = %d, want 1", got)
	}
}

func TestRegistryLoadFileOutsideSearchPaths(t *testing.T) {
	path := writeSource(t, t.TempDir(), "script.ng", "val x = 1;")
	reg := NewRegistry()
	info, err := reg.LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if info.ID != "script" || info.Path != path {
		t.Fatalf("unexpected entry %+v", info)
	}
}

func TestRegistryParseErrorNamesFile(t *testing.T) {
	path := writeSource(t, t.TempDir(), "broken.ng", "fun f( {")
	_, err := NewRegistry().LoadFile(path)
	if err == nil || !strings.Contains(err.Error(), "broken.ng") {
		t.Fatalf("expected parse error naming the file, got %v", err)
	}
}

func TestRegisterSourceAndNativeLibrary(t *testing.T) {
	reg := NewRegistry()
	info, err := reg.RegisterSource("repl.session", []byte("val greeting = \"hi\";"))
	if err != nil {
		t.Fatalf("RegisterSource: %v", err)
	}
	if info.Path != "" || info.Name != "session" {
		t.Fatalf("unexpected source entry %+v", info)
	}

	double := func(_ *runtime.NativeCallContext, args []runtime.Object) (runtime.Object, error) {
		return runtime.Apply("+", args[0], args[0])
	}
	if err := reg.RegisterNativeLibrary("ext.math", map[string]runtime.NativeFunc{"double": double}); err != nil {
		t.Fatalf("RegisterNativeLibrary: %v", err)
	}
	if err := reg.RegisterNativeLibrary("ext.math", nil); err == nil {
		t.Fatal("expected duplicate registration to fail")
	}
	mod, ok := reg.Evaluated("ext.math")
	if !ok || !mod.IsExported("double") {
		t.Fatalf("native module not available: %v", mod)
	}
	if _, err := reg.RegisterSource("ext.math", []byte("val x = 1;")); err == nil {
		t.Fatal("expected source registration over a native library to fail")
	}
}

func TestRegistryInvalidate(t *testing.T) {
	root := t.TempDir()
	libPath := writeSource(t, root, "lib.ng", "export *; val v = 1;")
	writeSource(t, root, "main.ng", "import lib (*);")
	reg := newRegistry(t, root)

	lib, err := reg.Load("lib")
	if err != nil {
		t.Fatalf("Load lib: %v", err)
	}
	main, err := reg.Load("main")
	if err != nil {
		t.Fatalf("Load main: %v", err)
	}
	reg.Store(main, runtime.NewNativeModule("main", nil))

	if !reg.Invalidate(libPath) {
		t.Fatal("expected lib to be invalidated")
	}
	if reg.Invalidate(libPath) {
		t.Fatal("second invalidation should report false")
	}
	if _, ok := reg.Lookup("lib"); ok {
		t.Fatal("lib should be dropped from the registry")
	}
	if _, ok := reg.Evaluated("main"); ok {
		t.Fatal("dependent evaluated module should be forgotten")
	}
	reloaded, err := reg.Load("lib")
	if err != nil || reloaded == lib {
		t.Fatalf("expected a fresh entry, got %p (%v)", reloaded, err)
	}
}

func TestRegistryTypecheck(t *testing.T) {
	root := t.TempDir()
	writeSource(t, root, "util/math.ng", "export square; fun square(x) { return x * x; }")
	writeSource(t, root, "app.ng", "import util.math (square, cube); val y = square(2);")
	reg := NewRegistry(WithTypecheck(true))
	if err := reg.AddSearchPath(root); err != nil {
		t.Fatalf("AddSearchPath: %v", err)
	}

	info, err := reg.Load("app")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if info.Types == nil {
		t.Fatal("expected a type index")
	}
	if _, ok := info.Types["y"]; !ok {
		t.Fatalf("index missing y: %v", info.Types.Names())
	}
	found := false
	for _, d := range info.Diagnostics {
		if strings.Contains(d.Message, "does not export 'cube'") {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected diagnostic for cube, got %v", info.Diagnostics)
	}
}

func TestStdlibBeside(t *testing.T) {
	root := t.TempDir()
	bin := filepath.Join(root, "bin")
	if err := os.MkdirAll(bin, 0o755); err != nil {
		t.Fatal(err)
	}
	if _, ok := stdlibBeside(bin); ok {
		t.Fatal("no lib directory exists yet")
	}
	if err := os.MkdirAll(filepath.Join(bin, "lib"), 0o755); err != nil {
		t.Fatal(err)
	}
	got, ok := stdlibBeside(bin)
	if !ok || got != filepath.Join(bin, "lib") {
		t.Fatalf("stdlibBeside = %q, %v", got, ok)
	}
	if err := os.MkdirAll(filepath.Join(root, "lib"), 0o755); err != nil {
		t.Fatal(err)
	}
	got, _ = stdlibBeside(bin)
	if got != filepath.Join(root, "lib") {
		t.Fatalf("expected sibling lib to win, got %q", got)
	}
}

func TestEnvSearchPaths(t *testing.T) {
	a, b := t.TempDir(), t.TempDir()
	t.Setenv(PathEnv, a+string(filepath.ListSeparator)+" "+string(filepath.ListSeparator)+b)
	got := EnvSearchPaths()
	if len(got) != 2 || got[0] != a || got[1] != b {
		t.Fatalf("EnvSearchPaths = %v", got)
	}
}
