package driver

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"ng/interpreter-go/pkg/ast"
	"ng/interpreter-go/pkg/parser"
	"ng/interpreter-go/pkg/runtime"
	"ng/interpreter-go/pkg/typechecker"
)

// SourceExt is the file extension of NG modules.
const SourceExt = ".ng"

// PathEnv lists extra search roots, separated like PATH.
const PathEnv = "NG_PATH"

// ErrModuleNotFound is wrapped by lookups that exhaust every search root.
var ErrModuleNotFound = errors.New("module not found")

// Parser turns NG source into a module AST.
type Parser interface {
	ParseModule(source []byte) (*ast.Module, error)
}

// ModuleInfo is one registry entry. Module stays nil until the interpreter has
// evaluated the entry; native libraries carry it from registration.
type ModuleInfo struct {
	ID          string
	Name        string
	Source      []byte
	AST         *ast.Module
	Path        string
	Types       typechecker.Index
	Diagnostics []typechecker.Diagnostic
	Module      *runtime.Module
	Native      bool
}

// Option configures a Registry.
type Option func(*Registry)

// WithParser replaces the default NG parser.
func WithParser(p Parser) Option {
	return func(r *Registry) { r.parser = p }
}

// WithLogger routes registry logging to logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Registry) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithTypecheck runs the checker on every parsed module.
func WithTypecheck(enabled bool) Option {
	return func(r *Registry) { r.typecheck = enabled }
}

// Registry caches modules for one session. Entries are keyed by dotted id; the
// path index makes two ids that resolve to one file share an entry.
type Registry struct {
	mu          sync.Mutex
	parser      Parser
	logger      *slog.Logger
	typecheck   bool
	searchPaths []string
	byID        map[string]*ModuleInfo
	byPath      map[string]*ModuleInfo
	checking    map[string]bool
}

// NewRegistry constructs an empty registry.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		parser:   parser.NewModuleParser(),
		logger:   slog.New(slog.DiscardHandler),
		byID:     make(map[string]*ModuleInfo),
		byPath:   make(map[string]*ModuleInfo),
		checking: make(map[string]bool),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// AddSearchPath appends a base directory; duplicates are ignored.
func (r *Registry) AddSearchPath(path string) error {
	if path == "" {
		return nil
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("driver: resolve search path %q: %w", path, err)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.searchPaths {
		if existing == abs {
			return nil
		}
	}
	r.searchPaths = append(r.searchPaths, abs)
	r.logger.Debug("search path added", "path", abs)
	return nil
}

// SearchPaths returns the base directories in lookup order.
func (r *Registry) SearchPaths() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.searchPaths...)
}

// Resolve maps a dotted id to the first a/b/c.ng found under the search paths.
func (r *Registry) Resolve(id string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.resolveLocked(id)
}

func (r *Registry) resolveLocked(id string) (string, error) {
	rel, err := relativeSourcePath(id)
	if err != nil {
		return "", err
	}
	for _, base := range r.searchPaths {
		candidate := filepath.Join(base, rel)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("driver: %s (looked for %s in %s): %w", id, rel, strings.Join(r.searchPaths, string(filepath.ListSeparator)), ErrModuleNotFound)
}

func relativeSourcePath(id string) (string, error) {
	segments := strings.Split(id, ".")
	for _, seg := range segments {
		if seg == "" {
			return "", fmt.Errorf("driver: invalid module id %q", id)
		}
	}
	return filepath.Join(segments...) + SourceExt, nil
}

// Load returns the entry for id, parsing it from the search paths on first use.
func (r *Registry) Load(id string) (*ModuleInfo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.loadLocked(id)
}

func (r *Registry) loadLocked(id string) (*ModuleInfo, error) {
	if info, ok := r.byID[id]; ok {
		return info, nil
	}
	path, err := r.resolveLocked(id)
	if err != nil {
		return nil, err
	}
	if info, ok := r.byPath[path]; ok {
		r.byID[id] = info
		return info, nil
	}
	return r.loadPathLocked(id, path)
}

// LoadFile registers an entry file directly. Its id is the dotted path relative to
// the first search root containing it, or the bare file name otherwise.
func (r *Registry) LoadFile(path string) (*ModuleInfo, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("driver: resolve %s: %w", path, err)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if info, ok := r.byPath[abs]; ok {
		return info, nil
	}
	id := r.idForPathLocked(abs)
	if existing, ok := r.byID[id]; ok && existing.Path != abs {
		return nil, fmt.Errorf("driver: module id %s already maps to %s", id, existing.Path)
	}
	return r.loadPathLocked(id, abs)
}

func (r *Registry) idForPathLocked(abs string) string {
	for _, base := range r.searchPaths {
		rel, err := filepath.Rel(base, abs)
		if err != nil || strings.HasPrefix(rel, "..") {
			continue
		}
		return strings.ReplaceAll(strings.TrimSuffix(rel, SourceExt), string(filepath.Separator), ".")
	}
	return strings.TrimSuffix(filepath.Base(abs), SourceExt)
}

func (r *Registry) loadPathLocked(id, path string) (*ModuleInfo, error) {
	source, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("driver: read %s: %w", path, err)
	}
	info, err := r.parseLocked(id, path, source)
	if err != nil {
		return nil, err
	}
	r.byPath[path] = info
	r.logger.Debug("module loaded", "id", id, "path", path)
	return info, nil
}

// RegisterSource installs an in-memory module under id, replacing any earlier
// source entry with that id.
func (r *Registry) RegisterSource(id string, source []byte) (*ModuleInfo, error) {
	if _, err := relativeSourcePath(id); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.byID[id]; ok && existing.Native {
		return nil, fmt.Errorf("driver: %s is a native library", id)
	}
	delete(r.byID, id)
	return r.parseLocked(id, "", source)
}

func (r *Registry) parseLocked(id, path string, source []byte) (*ModuleInfo, error) {
	mod, err := r.parser.ParseModule(source)
	if err != nil {
		where := path
		if where == "" {
			where = id
		}
		return nil, fmt.Errorf("driver: parse %s: %w", where, err)
	}
	info := &ModuleInfo{
		ID:     id,
		Name:   lastSegment(id),
		Source: source,
		AST:    mod,
		Path:   path,
	}
	r.byID[id] = info
	if r.typecheck {
		r.checkLocked(info)
	}
	return info, nil
}

func (r *Registry) checkLocked(info *ModuleInfo) {
	r.checking[info.ID] = true
	defer delete(r.checking, info.ID)
	checker := typechecker.New(func(dep string) (typechecker.Index, bool) {
		if r.checking[dep] {
			return nil, false
		}
		target, err := r.loadLocked(dep)
		if err != nil || target.Types == nil {
			return nil, false
		}
		return exportedIndex(target), true
	})
	index, diags, err := checker.CheckModule(info.AST)
	if err != nil {
		r.logger.Warn("typecheck failed", "module", info.ID, "err", err)
		return
	}
	info.Types = index
	info.Diagnostics = diags
	for _, d := range diags {
		r.logger.Debug("typecheck diagnostic", "module", info.ID, "diagnostic", d.String())
	}
}

func exportedIndex(info *ModuleInfo) typechecker.Index {
	names := info.AST.ExportedNames()
	out := make(typechecker.Index, len(names))
	for _, name := range names {
		if name == ast.Wildcard {
			return info.Types
		}
		if typ, ok := info.Types[name]; ok {
			out[name] = typ
		}
	}
	return out
}

// RegisterNativeLibrary installs a natively implemented module importable like
// any NG module.
func (r *Registry) RegisterNativeLibrary(id string, funcs map[string]runtime.NativeFunc) error {
	if _, err := relativeSourcePath(id); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[id]; ok {
		return fmt.Errorf("driver: module %s is already registered", id)
	}
	r.byID[id] = &ModuleInfo{
		ID:     id,
		Name:   lastSegment(id),
		Module: runtime.NewNativeModule(id, funcs),
		Native: true,
	}
	r.logger.Debug("native library registered", "id", id, "functions", len(funcs))
	return nil
}

// Lookup returns a cached entry without touching the file system.
func (r *Registry) Lookup(id string) (*ModuleInfo, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	info, ok := r.byID[id]
	return info, ok
}

// Store records the evaluated runtime module for an entry.
func (r *Registry) Store(info *ModuleInfo, mod *runtime.Module) {
	r.mu.Lock()
	defer r.mu.Unlock()
	info.Module = mod
}

// Evaluated returns the runtime module of id if it has been evaluated.
func (r *Registry) Evaluated(id string) (*runtime.Module, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	info, ok := r.byID[id]
	if !ok || info.Module == nil {
		return nil, false
	}
	return info.Module, true
}

// Invalidate drops the entry loaded from path and forgets every evaluated source
// module, since importers hold snapshots of it. It reports whether path was cached.
func (r *Registry) Invalidate(path string) bool {
	abs, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	info, ok := r.byPath[abs]
	if !ok {
		return false
	}
	delete(r.byPath, abs)
	for id, entry := range r.byID {
		if entry == info {
			delete(r.byID, id)
			continue
		}
		if !entry.Native {
			entry.Module = nil
		}
	}
	r.logger.Debug("module invalidated", "path", abs)
	return true
}

// Modules lists every cached entry ordered by id.
func (r *Registry) Modules() []*ModuleInfo {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*ModuleInfo, 0, len(r.byID))
	seen := make(map[*ModuleInfo]bool, len(r.byID))
	for _, info := range r.byID {
		if seen[info] {
			continue
		}
		seen[info] = true
		out = append(out, info)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// StdlibPath locates the bundled standard library relative to the running
// executable: <exe dir>/../lib, then <exe dir>/lib.
func StdlibPath() (string, bool) {
	exe, err := os.Executable()
	if err != nil {
		return "", false
	}
	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	}
	return stdlibBeside(filepath.Dir(exe))
}

func stdlibBeside(dir string) (string, bool) {
	for _, candidate := range []string{
		filepath.Join(dir, "..", "lib"),
		filepath.Join(dir, "lib"),
	} {
		if info, err := os.Stat(candidate); err == nil && info.IsDir() {
			return filepath.Clean(candidate), true
		}
	}
	return "", false
}

// EnvSearchPaths splits NG_PATH.
func EnvSearchPaths() []string {
	raw := os.Getenv(PathEnv)
	if raw == "" {
		return nil
	}
	var out []string
	for _, p := range filepath.SplitList(raw) {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func lastSegment(id string) string {
	if idx := strings.LastIndexByte(id, '.'); idx >= 0 {
		return id[idx+1:]
	}
	return id
}
