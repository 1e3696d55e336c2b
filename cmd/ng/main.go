package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"ng/interpreter-go/pkg/driver"
	"ng/interpreter-go/pkg/interpreter"
	"ng/interpreter-go/pkg/stdlib"
)

const (
	cliToolVersion = "ng-cli 0.1.0-dev"
	logEnv         = "NG_LOG"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	args, level, err := extractLogLevel(args)
	if err != nil {
		printError(err.Error())
		return 1
	}
	logger, err := newLogger(level)
	if err != nil {
		printError(err.Error())
		return 1
	}

	if len(args) == 0 {
		printUsage()
		return 1
	}
	switch args[0] {
	case "--help", "-h", "help":
		printUsage()
		return 0
	case "--version", "-V", "version":
		fmt.Fprintln(os.Stdout, cliToolVersion)
		return 0
	case "run":
		return runEntry(args[1:], logger)
	case "check":
		return runCheck(args[1:], logger)
	case "repl":
		return runRepl(args[1:], logger)
	case "deps":
		return runDeps(args[1:])
	default:
		return runEntry(args, logger)
	}
}

// extractLogLevel strips --log-level=<level> or --log-level <level> from args.
func extractLogLevel(args []string) ([]string, string, error) {
	var (
		rest  []string
		level string
	)
	for i := 0; i < len(args); i++ {
		arg := args[i]
		switch {
		case strings.HasPrefix(arg, "--log-level="):
			level = strings.TrimPrefix(arg, "--log-level=")
		case arg == "--log-level":
			if i+1 >= len(args) {
				return nil, "", fmt.Errorf("--log-level requires a value")
			}
			i++
			level = args[i]
		default:
			rest = append(rest, arg)
		}
	}
	return rest, level, nil
}

// newLogger builds the stderr text logger. The level comes from the flag, then
// NG_LOG, then defaults to warn.
func newLogger(level string) (*slog.Logger, error) {
	if level == "" {
		level = os.Getenv(logEnv)
	}
	lvl := slog.LevelWarn
	if level != "" {
		if err := lvl.UnmarshalText([]byte(level)); err != nil {
			return nil, fmt.Errorf("invalid log level %q", level)
		}
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})), nil
}

type runOptions struct {
	entry   string
	watch   bool
	summary bool
}

func parseRunArgs(command string, args []string) (runOptions, error) {
	var opts runOptions
	for _, arg := range args {
		switch arg {
		case "--watch", "-w":
			opts.watch = true
		case "--summary":
			opts.summary = true
		default:
			if strings.HasPrefix(arg, "-") {
				return opts, fmt.Errorf("ng %s: unknown flag %s", command, arg)
			}
			if opts.entry != "" {
				return opts, fmt.Errorf("ng %s: unexpected argument %s", command, arg)
			}
			opts.entry = arg
		}
	}
	return opts, nil
}

func runEntry(args []string, logger *slog.Logger) int {
	opts, err := parseRunArgs("run", args)
	if err != nil {
		printError(err.Error())
		return 1
	}
	s, err := openSession(opts.entry, logger)
	if err != nil {
		printError(err.Error())
		return 1
	}
	reg, err := s.newRegistry(false)
	if err != nil {
		printError(err.Error())
		return 1
	}
	code := s.execute(reg, opts.summary)
	if !opts.watch {
		return code
	}
	if err := s.watch(reg, opts.summary); err != nil {
		printError(err.Error())
		return 1
	}
	return 0
}

func runCheck(args []string, logger *slog.Logger) int {
	opts, err := parseRunArgs("check", args)
	if err != nil {
		printError(err.Error())
		return 1
	}
	s, err := openSession(opts.entry, logger)
	if err != nil {
		printError(err.Error())
		return 1
	}
	reg, err := s.newRegistry(true)
	if err != nil {
		printError(err.Error())
		return 1
	}
	if err := stdlib.Install(reg, io.Discard); err != nil {
		printError(err.Error())
		return 1
	}
	if _, err := reg.LoadFile(s.entry); err != nil {
		printError(err.Error())
		return 1
	}
	if reportDiagnostics(reg) > 0 {
		return 1
	}
	fmt.Fprintln(os.Stdout, successStyle.Render(fmt.Sprintf("ok: %d module(s) checked", countSourceModules(reg))))
	return 0
}

// session is the resolved project context of one CLI invocation.
type session struct {
	entry    string
	manifest *driver.Manifest
	lock     *driver.Lockfile
	logger   *slog.Logger
}

// openProject loads the manifest governing start, if any, and its lockfile.
func openProject(start string, logger *slog.Logger) (*session, error) {
	s := &session{logger: logger}
	if path, ok := driver.FindManifest(start); ok {
		m, err := driver.LoadManifest(path)
		if err != nil {
			return nil, err
		}
		s.manifest = m
	}
	lock, err := loadLockfileForManifest(s.manifest)
	if err != nil {
		return nil, err
	}
	s.lock = lock
	return s, nil
}

// openSession resolves the project around entry. Without an entry the manifest
// in the working directory must name a main file.
func openSession(entry string, logger *slog.Logger) (*session, error) {
	entry = strings.TrimSpace(entry)
	start := "."
	if entry != "" {
		start = filepath.Dir(entry)
	}
	s, err := openProject(start, logger)
	if err != nil {
		return nil, err
	}
	if entry == "" {
		if s.manifest == nil || s.manifest.MainPath() == "" {
			return nil, fmt.Errorf("ng run requires a source file (no %s with a main entry found)", driver.ManifestFile)
		}
		entry = s.manifest.MainPath()
	}
	s.entry = entry
	return s, nil
}

// searchPaths orders module roots: manifest paths (or the manifest directory),
// locked dependencies, the entry directory (or the working directory), NG_PATH,
// then the standard library.
func (s *session) searchPaths() []string {
	var paths []string
	if s.manifest != nil {
		if extra := s.manifest.SearchPaths(); len(extra) > 0 {
			paths = append(paths, extra...)
		} else {
			paths = append(paths, s.manifest.Dir())
		}
	}
	paths = append(paths, s.lock.SearchPaths()...)
	if s.entry != "" {
		paths = append(paths, filepath.Dir(s.entry))
	} else if cwd, err := os.Getwd(); err == nil {
		paths = append(paths, cwd)
	}
	paths = append(paths, driver.EnvSearchPaths()...)
	if s.manifest != nil && s.manifest.Stdlib != "" {
		lib := s.manifest.Stdlib
		if !filepath.IsAbs(lib) {
			lib = filepath.Join(s.manifest.Dir(), lib)
		}
		paths = append(paths, lib)
	} else if lib, ok := driver.StdlibPath(); ok {
		paths = append(paths, lib)
	}
	return paths
}

func (s *session) newRegistry(forceTypecheck bool) (*driver.Registry, error) {
	typecheck := forceTypecheck || (s.manifest != nil && s.manifest.Runtime.Typecheck)
	reg := driver.NewRegistry(driver.WithLogger(s.logger), driver.WithTypecheck(typecheck))
	for _, path := range s.searchPaths() {
		if !dirExists(path) {
			s.logger.Debug("skipping missing search path", "path", path)
			continue
		}
		if err := reg.AddSearchPath(path); err != nil {
			return nil, err
		}
	}
	return reg, nil
}

func (s *session) newInterpreter(reg *driver.Registry) *interpreter.Interpreter {
	opts := []interpreter.Option{
		interpreter.WithLogger(s.logger),
		interpreter.WithOutput(os.Stdout),
	}
	if s.manifest != nil {
		opts = append(opts, interpreter.WithMaxCallDepth(s.manifest.Runtime.MaxCallDepth))
	}
	return interpreter.New(reg, opts...)
}

// execute loads and evaluates the entry file with a fresh interpreter.
func (s *session) execute(reg *driver.Registry, summary bool) int {
	interp := s.newInterpreter(reg)
	info, err := reg.LoadFile(s.entry)
	if err != nil {
		printError(err.Error())
		return 1
	}
	if reportDiagnostics(reg) > 0 {
		return 1
	}
	if _, err := interp.EvaluateEntry(info); err != nil {
		fmt.Fprintln(os.Stderr, renderError(err))
		return 1
	}
	if summary {
		fmt.Fprintln(os.Stdout, renderSummary(info.ID, interp.Summary()))
	}
	return 0
}

func reportDiagnostics(reg *driver.Registry) int {
	count := 0
	for _, info := range reg.Modules() {
		for _, d := range info.Diagnostics {
			fmt.Fprintln(os.Stderr, renderDiagnostic(info.ID, d))
			count++
		}
	}
	return count
}

func countSourceModules(reg *driver.Registry) int {
	n := 0
	for _, info := range reg.Modules() {
		if !info.Native {
			n++
		}
	}
	return n
}

func printUsage() {
	lines := []string{
		"Usage:",
		"  ng [--log-level <level>] <command>",
		"",
		"Commands:",
		"  ng run [--watch] [--summary] [file.ng]",
		"  ng <file.ng>",
		"  ng check [file.ng]",
		"  ng repl",
		"  ng deps install",
		"  ng deps update [dependency ...]",
		"  ng deps list",
		"  ng version",
	}
	fmt.Fprintln(os.Stderr, strings.Join(lines, "\n"))
}
