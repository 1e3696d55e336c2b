package main

import (
	"context"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"

	"ng/interpreter-go/pkg/driver"
)

func TestResolveHomeEnv(t *testing.T) {
	target := filepath.Join(t.TempDir(), "cache")
	t.Setenv(homeEnv, target)

	got, err := resolveHome()
	if err != nil {
		t.Fatalf("resolveHome error: %v", err)
	}
	if got != target {
		t.Fatalf("resolveHome = %q, want %q", got, target)
	}
}

func TestResolveHomeDefault(t *testing.T) {
	tmp := t.TempDir()
	t.Setenv(homeEnv, "")
	t.Setenv("HOME", tmp)

	got, err := resolveHome()
	if err != nil {
		t.Fatalf("resolveHome error: %v", err)
	}
	if want := filepath.Join(tmp, ".ng"); got != want {
		t.Fatalf("resolveHome = %q, want %q", got, want)
	}
}

func TestLoadLockfileForManifest_NoDepsMissingLock(t *testing.T) {
	manifest := &driver.Manifest{Path: filepath.Join(t.TempDir(), driver.ManifestFile), Name: "demo"}
	lock, err := loadLockfileForManifest(manifest)
	if err != nil {
		t.Fatalf("loadLockfileForManifest returned error: %v", err)
	}
	if lock != nil {
		t.Fatalf("expected nil lock when no dependencies, got %#v", lock)
	}
}

func TestLoadLockfileForManifest_WithDepsMissingLock(t *testing.T) {
	manifest := &driver.Manifest{
		Path: filepath.Join(t.TempDir(), driver.ManifestFile),
		Name: "demo",
		Dependencies: map[string]*driver.DependencySpec{
			"util": {Path: "../util"},
		},
	}
	_, err := loadLockfileForManifest(manifest)
	if err == nil || !strings.Contains(err.Error(), "ng.lock missing") {
		t.Fatalf("expected missing lockfile error, got %v", err)
	}
}

func TestExtractLogLevel(t *testing.T) {
	rest, level, err := extractLogLevel([]string{"--log-level=debug", "run", "main.ng"})
	if err != nil || level != "debug" || strings.Join(rest, " ") != "run main.ng" {
		t.Fatalf("extractLogLevel = %v %q %v", rest, level, err)
	}
	rest, level, err = extractLogLevel([]string{"run", "--log-level", "info"})
	if err != nil || level != "info" || strings.Join(rest, " ") != "run" {
		t.Fatalf("extractLogLevel = %v %q %v", rest, level, err)
	}
	if _, _, err := extractLogLevel([]string{"--log-level"}); err == nil {
		t.Fatalf("expected an error for a missing level")
	}
}

func TestNewLoggerLevels(t *testing.T) {
	t.Setenv(logEnv, "error")
	logger, err := newLogger("")
	if err != nil {
		t.Fatalf("newLogger: %v", err)
	}
	if logger.Enabled(context.Background(), slog.LevelWarn) {
		t.Fatalf("NG_LOG=error should disable warnings")
	}
	logger, err = newLogger("debug")
	if err != nil || !logger.Enabled(context.Background(), slog.LevelDebug) {
		t.Fatalf("flag level should win over NG_LOG (err %v)", err)
	}
	if _, err := newLogger("chatty"); err == nil {
		t.Fatalf("expected an error for an unknown level")
	}
}

func TestRunDirectFileNoManifest(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	writeFile(t, filepath.Join(dir, "main.ng"), `
import std.io (println);
fun greet(name) { return "hello " + name; }
println(greet("ng"));
`)

	code, stdout, stderr := captureCLI(t, []string{"main.ng"})
	if code != 0 {
		t.Fatalf("run returned %d, stderr: %s", code, stderr)
	}
	if !strings.Contains(stdout, "hello ng") {
		t.Fatalf("unexpected stdout %q", stdout)
	}
}

func TestRunManifestMainWithSearchPaths(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	if err := os.MkdirAll(filepath.Join(dir, "src", "text"), 0o755); err != nil {
		t.Fatal(err)
	}
	writeFile(t, filepath.Join(dir, driver.ManifestFile), `
name: demo
main: src/app.ng
paths: src
`)
	writeFile(t, filepath.Join(dir, "src", "text", "shout.ng"), `
export shout;
fun shout(s) { return s + "!"; }
`)
	writeFile(t, filepath.Join(dir, "src", "app.ng"), `
import std.io (println);
import text.shout (shout);
println(shout("hey"));
`)

	code, stdout, stderr := captureCLI(t, []string{"run"})
	if code != 0 {
		t.Fatalf("run returned %d, stderr: %s", code, stderr)
	}
	if !strings.Contains(stdout, "hey!") {
		t.Fatalf("unexpected stdout %q", stdout)
	}
}

func TestRunWithoutEntryOrManifestFails(t *testing.T) {
	t.Chdir(t.TempDir())
	code, _, stderr := captureCLI(t, []string{"run"})
	if code != 1 || !strings.Contains(stderr, "requires a source file") {
		t.Fatalf("code %d, stderr %q", code, stderr)
	}
}

func TestRunReportsRuntimeErrors(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "broken.ng")
	writeFile(t, path, `
val a = 1;
val b = a / 0;
`)
	code, _, stderr := captureCLI(t, []string{"run", path})
	if code != 1 {
		t.Fatalf("expected exit code 1, got %d", code)
	}
	for _, want := range []string{"RuntimeError", "broken:2:", "division by zero"} {
		if !strings.Contains(stderr, want) {
			t.Fatalf("stderr %q does not mention %q", stderr, want)
		}
	}
}

func TestRunSummary(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "defs.ng")
	writeFile(t, path, `
type Point { property x, y; }
fun origin() { return new Point { x: 0, y: 0 }; }
val answer = 42;
`)
	code, stdout, stderr := captureCLI(t, []string{"run", "--summary", path})
	if code != 0 {
		t.Fatalf("run returned %d, stderr: %s", code, stderr)
	}
	for _, want := range []string{"answer = 42", "origin/0", "Point {x, y}"} {
		if !strings.Contains(stdout, want) {
			t.Fatalf("summary %q does not mention %q", stdout, want)
		}
	}
}

func TestManifestRuntimeSettings(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, driver.ManifestFile), `
name: deep
runtime:
  max_call_depth: 20
`)
	path := filepath.Join(dir, "deep.ng")
	writeFile(t, path, `
fun down(n) { if (n > 0) return down(n - 1); return 0; }
down(100);
`)
	code, _, stderr := captureCLI(t, []string{"run", path})
	if code != 1 || !strings.Contains(stderr, "maximum call depth 20") {
		t.Fatalf("code %d, stderr %q", code, stderr)
	}
}

func TestCheckCommand(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "good.ng")
	writeFile(t, good, `
import std.io (println);
fun double(x) { return x * 2; }
println(double(2));
`)
	code, stdout, stderr := captureCLI(t, []string{"check", good})
	if code != 0 {
		t.Fatalf("check returned %d, stderr: %s", code, stderr)
	}
	if strings.Contains(stdout, "4") {
		t.Fatalf("check must not evaluate the program, stdout %q", stdout)
	}
	if !strings.Contains(stdout, "ok: 1 module(s) checked") {
		t.Fatalf("unexpected stdout %q", stdout)
	}

	bad := filepath.Join(dir, "bad.ng")
	writeFile(t, bad, `
fun double(x) { return x * 2; }
val y = triple(2);
val z = double(1, 2);
`)
	code, _, stderr = captureCLI(t, []string{"check", bad})
	if code != 1 {
		t.Fatalf("expected check failure")
	}
	for _, want := range []string{"undefined function 'triple'", "double expects 1 argument(s), got 2"} {
		if !strings.Contains(stderr, want) {
			t.Fatalf("stderr %q does not mention %q", stderr, want)
		}
	}
}

func TestVersionAndUsage(t *testing.T) {
	code, stdout, _ := captureCLI(t, []string{"version"})
	if code != 0 || strings.TrimSpace(stdout) != cliToolVersion {
		t.Fatalf("version: code %d stdout %q", code, stdout)
	}
	code, _, stderr := captureCLI(t, nil)
	if code != 1 || !strings.Contains(stderr, "Usage:") {
		t.Fatalf("usage: code %d stderr %q", code, stderr)
	}
	code, _, stderr = captureCLI(t, []string{"run", "--bogus"})
	if code != 1 || !strings.Contains(stderr, "unknown flag --bogus") {
		t.Fatalf("bad flag: code %d stderr %q", code, stderr)
	}
}

func TestDependencyInstaller_PathDependency(t *testing.T) {
	root := t.TempDir()
	lib := filepath.Join(root, "lib")
	nested := filepath.Join(root, "nested")
	for _, dir := range []string{lib, nested, filepath.Join(root, "app")} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatal(err)
		}
	}
	writeFile(t, filepath.Join(lib, driver.ManifestFile), `
name: lib
dependencies:
  nested-util:
    path: ../nested
`)
	writeFile(t, filepath.Join(root, "app", driver.ManifestFile), `
name: app
dependencies:
  lib:
    path: ../lib
`)
	manifest, err := driver.LoadManifest(filepath.Join(root, "app", driver.ManifestFile))
	if err != nil {
		t.Fatalf("LoadManifest: %v", err)
	}

	lock := driver.NewLockfile(manifest.Name, cliToolVersion)
	installer := newDependencyInstaller(manifest, filepath.Join(root, "cache"))
	changed, logs, err := installer.Install(lock)
	if err != nil {
		t.Fatalf("Install error: %v", err)
	}
	if !changed || len(logs) != 2 {
		t.Fatalf("changed=%v logs=%v", changed, logs)
	}
	libPkg, ok := lock.Find("lib")
	if !ok || libPkg.Dir != lib || libPkg.Source != "path:"+lib {
		t.Fatalf("unexpected lib entry %#v", libPkg)
	}
	nestedPkg, ok := lock.Find("nested_util")
	if !ok || nestedPkg.Dir != nested {
		t.Fatalf("transitive dependency missing: %#v", lock.Packages)
	}

	changed, _, err = installer.Install(lock)
	if err != nil || changed {
		t.Fatalf("second install should be a no-op (changed=%v err=%v)", changed, err)
	}
}

func TestDependencyInstaller_MissingPath(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, driver.ManifestFile), `
name: app
dependencies:
  ghost:
    path: ./ghost
`)
	manifest, err := driver.LoadManifest(filepath.Join(root, driver.ManifestFile))
	if err != nil {
		t.Fatalf("LoadManifest: %v", err)
	}
	_, _, err = newDependencyInstaller(manifest, t.TempDir()).Install(driver.NewLockfile("app", cliToolVersion))
	if err == nil || !strings.Contains(err.Error(), "does not exist") {
		t.Fatalf("expected missing path error, got %v", err)
	}
}

func TestDependencyInstaller_GitDependency(t *testing.T) {
	root := t.TempDir()
	repo := filepath.Join(root, "repo")
	if err := os.MkdirAll(filepath.Join(repo, "gitpkg"), 0o755); err != nil {
		t.Fatalf("mkdir repo: %v", err)
	}
	writeFile(t, filepath.Join(repo, "gitpkg", "core.ng"), `
export value;
fun value() { return "git"; }
`)
	rev := initGitRepo(t, repo)

	appDir := filepath.Join(root, "app")
	if err := os.MkdirAll(appDir, 0o755); err != nil {
		t.Fatal(err)
	}
	writeFile(t, filepath.Join(appDir, driver.ManifestFile), `
name: app
dependencies:
  gitpkg:
    git: `+repo+`
    rev: `+rev+`
`)
	manifest, err := driver.LoadManifest(filepath.Join(appDir, driver.ManifestFile))
	if err != nil {
		t.Fatalf("LoadManifest: %v", err)
	}

	cacheDir := filepath.Join(root, "cache")
	lock := driver.NewLockfile(manifest.Name, cliToolVersion)
	changed, _, err := newDependencyInstaller(manifest, cacheDir).Install(lock)
	if err != nil {
		t.Fatalf("Install error: %v", err)
	}
	if !changed || len(lock.Packages) != 1 {
		t.Fatalf("unexpected lock packages %#v", lock.Packages)
	}
	pkg := lock.Packages[0]
	if pkg.Name != "gitpkg" || pkg.Source != "git+"+repo || pkg.Commit != rev || pkg.Ref != rev {
		t.Fatalf("unexpected locked package %#v", pkg)
	}
	want := filepath.Join(cacheDir, "deps", "gitpkg", rev)
	if pkg.Dir != want {
		t.Fatalf("pkg.Dir = %q, want %q", pkg.Dir, want)
	}
	if _, err := os.Stat(filepath.Join(want, "gitpkg", "core.ng")); err != nil {
		t.Fatalf("expected checked out source: %v", err)
	}
}

func TestDependencyInstaller_GitDependencyBranch(t *testing.T) {
	root := t.TempDir()
	repo := filepath.Join(root, "repo")
	if err := os.MkdirAll(repo, 0o755); err != nil {
		t.Fatalf("mkdir repo: %v", err)
	}
	writeFile(t, filepath.Join(repo, "branchy.ng"), `export b; val b = 1;`)
	rev := initGitRepo(t, repo)

	writeFile(t, filepath.Join(root, driver.ManifestFile), `
name: app
dependencies:
  branchy:
    git: `+repo+`
    branch: master
`)
	manifest, err := driver.LoadManifest(filepath.Join(root, driver.ManifestFile))
	if err != nil {
		t.Fatalf("LoadManifest: %v", err)
	}
	cacheDir := filepath.Join(root, "cache")
	lock := driver.NewLockfile(manifest.Name, cliToolVersion)
	if _, _, err := newDependencyInstaller(manifest, cacheDir).Install(lock); err != nil {
		t.Fatalf("Install error: %v", err)
	}
	pkg, ok := lock.Find("branchy")
	if !ok || pkg.Commit != rev || pkg.Ref != "master" {
		t.Fatalf("unexpected locked package %#v", pkg)
	}
	if want := filepath.Join(cacheDir, "deps", "branchy", sanitizePathSegment("master@"+rev)); pkg.Dir != want {
		t.Fatalf("pkg.Dir = %q, want %q", pkg.Dir, want)
	}
}

func TestDepsInstallAndRunWithGitDependency(t *testing.T) {
	root := t.TempDir()
	t.Setenv(homeEnv, filepath.Join(root, "home"))

	repo := filepath.Join(root, "repo")
	if err := os.MkdirAll(filepath.Join(repo, "colors"), 0o755); err != nil {
		t.Fatal(err)
	}
	writeFile(t, filepath.Join(repo, "colors", "names.ng"), `
export favourite;
fun favourite() { return "teal"; }
`)
	initGitRepo(t, repo)

	app := filepath.Join(root, "app")
	if err := os.MkdirAll(app, 0o755); err != nil {
		t.Fatal(err)
	}
	writeFile(t, filepath.Join(app, driver.ManifestFile), `
name: app
main: main.ng
dependencies:
  colors: `+repo+`
`)
	writeFile(t, filepath.Join(app, "main.ng"), `
import std.io (println);
import colors.names (favourite);
println(favourite());
`)
	t.Chdir(app)

	code, _, stderr := captureCLI(t, []string{"run"})
	if code != 1 || !strings.Contains(stderr, "ng deps install") {
		t.Fatalf("run before install: code %d stderr %q", code, stderr)
	}

	code, stdout, stderr := captureCLI(t, []string{"deps", "install"})
	if code != 0 {
		t.Fatalf("deps install returned %d, stderr: %s", code, stderr)
	}
	if !strings.Contains(stdout, "Locked colors") {
		t.Fatalf("unexpected install output %q", stdout)
	}
	lock, err := driver.LoadLockfile(filepath.Join(app, driver.LockfileName))
	if err != nil {
		t.Fatalf("LoadLockfile: %v", err)
	}
	if pkg, ok := lock.Find("colors"); !ok || pkg.Commit == "" {
		t.Fatalf("lockfile missing colors: %#v", lock.Packages)
	}

	code, stdout, stderr = captureCLI(t, []string{"run"})
	if code != 0 {
		t.Fatalf("run returned %d, stderr: %s", code, stderr)
	}
	if !strings.Contains(stdout, "teal") {
		t.Fatalf("unexpected stdout %q", stdout)
	}

	code, stdout, _ = captureCLI(t, []string{"deps", "install"})
	if code != 0 || !strings.Contains(stdout, "already up to date") {
		t.Fatalf("second install: code %d stdout %q", code, stdout)
	}
	code, stdout, _ = captureCLI(t, []string{"deps", "list"})
	if code != 0 || !strings.Contains(stdout, "colors") {
		t.Fatalf("deps list: code %d stdout %q", code, stdout)
	}
	code, _, stderr = captureCLI(t, []string{"deps", "update", "shapes"})
	if code != 1 || !strings.Contains(stderr, `dependency "shapes" not declared`) {
		t.Fatalf("update of unknown dependency: code %d stderr %q", code, stderr)
	}
}

func TestReplSession(t *testing.T) {
	s := &session{logger: slog.New(slog.DiscardHandler)}
	reg, err := s.newRegistry(false)
	if err != nil {
		t.Fatal(err)
	}
	repl := newReplSession(s.newInterpreter(reg))

	steps := []struct {
		input string
		want  string
	}{
		{"val x = 2;", ""},
		{"fun twice(n) { return n * 2; }", ""},
		{"twice(x) * 10 + 2", "42"},
		{`"s" + "t"`, `"st"`},
		{"[x, (1, 2)]", "[2, (1, 2)]"},
	}
	for _, step := range steps {
		got, err := repl.eval(step.input)
		if err != nil {
			t.Fatalf("eval(%q): %v", step.input, err)
		}
		if got != step.want {
			t.Fatalf("eval(%q) = %q, want %q", step.input, got, step.want)
		}
	}
	if _, err := repl.eval("val x = 3;"); err == nil || !strings.Contains(err.Error(), "already defined") {
		t.Fatalf("redefinition should fail, got %v", err)
	}

	if got := repl.complete("print(tw"); len(got) != 1 || got[0] != "print(twice" {
		t.Fatalf("complete = %v", got)
	}
	if got := repl.complete("ty"); len(got) != 1 || got[0] != "type" {
		t.Fatalf("complete = %v", got)
	}
}

func TestNeedsMoreInput(t *testing.T) {
	cases := map[string]bool{
		"val x = 1;":                 false,
		"fun f() {":                  true,
		"fun f() {\n return 1;\n}":   false,
		`val s = "{";`:               false,
		"val c = '(';":               false,
		"val a = [1,\n":              true,
		"// {\nval x = 1;":           false,
		"/* ( */ val x = 1;":         false,
		"/* unterminated":            true,
		"loop [i = 0] { next [i]; }": false,
	}
	for input, want := range cases {
		if got := needsMoreInput(input); got != want {
			t.Fatalf("needsMoreInput(%q) = %v, want %v", input, got, want)
		}
	}
}

func TestWatchDirsSkipsHidden(t *testing.T) {
	root := t.TempDir()
	for _, dir := range []string{"a/b", ".git/objects", "c"} {
		if err := os.MkdirAll(filepath.Join(root, dir), 0o755); err != nil {
			t.Fatal(err)
		}
	}
	dirs := watchDirs([]string{root, root})
	want := map[string]bool{root: true}
	for _, d := range []string{"a", filepath.Join("a", "b"), "c"} {
		want[filepath.Join(root, d)] = true
	}
	if len(dirs) != len(want) {
		t.Fatalf("watchDirs = %v", dirs)
	}
	for _, d := range dirs {
		if !want[d] {
			t.Fatalf("unexpected watched dir %s", d)
		}
	}
}

func TestWatchRerunsAfterSourceChange(t *testing.T) {
	dir := t.TempDir()
	entry := filepath.Join(dir, "main.ng")
	writeFile(t, entry, `val x = 1;`)

	s := &session{entry: entry, logger: slog.New(slog.DiscardHandler)}
	reg, err := s.newRegistry(false)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := reg.LoadFile(entry); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	reran := make(chan struct{}, 8)
	done := make(chan error, 1)
	go func() {
		done <- s.watchUntil(ctx, reg, func() { reran <- struct{}{} })
	}()

	ticker := time.NewTicker(200 * time.Millisecond)
	defer ticker.Stop()
	for waiting := true; waiting; {
		select {
		case <-reran:
			waiting = false
		case <-ticker.C:
			writeFile(t, entry, `val x = 2;`)
		case <-ctx.Done():
			t.Fatalf("watcher never re-ran the entry")
		}
	}
	cancel()
	if err := <-done; err != nil {
		t.Fatalf("watchUntil: %v", err)
	}
	if _, ok := reg.Lookup("main"); ok {
		t.Fatalf("changed entry should have been invalidated")
	}
}

func writeFile(t *testing.T, path, contents string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(strings.TrimSpace(contents)+"\n"), 0o644); err != nil {
		t.Fatalf("write file %s: %v", path, err)
	}
}

func initGitRepo(t *testing.T, dir string) string {
	t.Helper()
	repo, err := git.PlainInit(dir, false)
	if err != nil {
		t.Fatalf("PlainInit: %v", err)
	}
	worktree, err := repo.Worktree()
	if err != nil {
		t.Fatalf("Worktree: %v", err)
	}
	if err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path == filepath.Join(dir, ".git") {
				return filepath.SkipDir
			}
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		_, err = worktree.Add(rel)
		return err
	}); err != nil {
		t.Fatalf("stage files: %v", err)
	}
	hash, err := worktree.Commit("init", &git.CommitOptions{
		Author: &object.Signature{
			Name:  "NG CLI",
			Email: "ng@example.com",
			When:  time.Now(),
		},
	})
	if err != nil {
		t.Fatalf("Commit: %v", err)
	}
	return hash.String()
}

func captureCLI(t *testing.T, args []string) (int, string, string) {
	t.Helper()

	stdout := os.Stdout
	stderr := os.Stderr

	rOut, wOut, err := os.Pipe()
	if err != nil {
		t.Fatalf("stdout pipe: %v", err)
	}
	rErr, wErr, err := os.Pipe()
	if err != nil {
		t.Fatalf("stderr pipe: %v", err)
	}

	os.Stdout = wOut
	os.Stderr = wErr

	outCh := make(chan []byte, 1)
	errCh := make(chan []byte, 1)
	go func() {
		data, _ := io.ReadAll(rOut)
		outCh <- data
	}()
	go func() {
		data, _ := io.ReadAll(rErr)
		errCh <- data
	}()

	code := run(args)

	os.Stdout = stdout
	os.Stderr = stderr
	if err := wOut.Close(); err != nil {
		t.Fatalf("stdout close: %v", err)
	}
	if err := wErr.Close(); err != nil {
		t.Fatalf("stderr close: %v", err)
	}
	outBytes := <-outCh
	errBytes := <-errCh
	_ = rOut.Close()
	_ = rErr.Close()

	return code, string(outBytes), string(errBytes)
}
