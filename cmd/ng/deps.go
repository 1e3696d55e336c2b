package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"

	"ng/interpreter-go/pkg/driver"
)

const homeEnv = "NG_HOME"

// dependencyInstaller resolves the dependencies of a manifest, including the
// dependencies declared by their own ng.yml, into lockfile entries.
type dependencyInstaller struct {
	manifest *driver.Manifest
	cacheDir string
	git      *gitFetcher
}

func newDependencyInstaller(manifest *driver.Manifest, cacheDir string) *dependencyInstaller {
	return &dependencyInstaller{
		manifest: manifest,
		cacheDir: cacheDir,
		git:      newGitFetcher(cacheDir),
	}
}

type pendingDependency struct {
	name  string
	spec  *driver.DependencySpec
	owner *driver.Manifest
}

// Install brings lock up to date. Entries whose source and ref still match the
// manifest and whose directory exists are kept as they are. It reports whether
// the lockfile changed, plus a log line per dependency.
func (d *dependencyInstaller) Install(lock *driver.Lockfile) (bool, []string, error) {
	var (
		changed bool
		logs    []string
		queue   []pendingDependency
		seen    = make(map[string]bool)
	)
	enqueue := func(owner *driver.Manifest) {
		for _, name := range owner.DependencyNames() {
			queue = append(queue, pendingDependency{name: name, spec: owner.Dependencies[name], owner: owner})
		}
	}
	enqueue(d.manifest)

	for len(queue) > 0 {
		dep := queue[0]
		queue = queue[1:]
		key := sanitizeName(dep.name)
		if seen[key] {
			continue
		}
		seen[key] = true

		pkg, fresh, err := d.resolve(dep, lock)
		if err != nil {
			return false, logs, err
		}
		if fresh {
			lock.Upsert(pkg)
			changed = true
			logs = append(logs, fmt.Sprintf("Locked %s -> %s", pkg.Name, describeLocked(pkg)))
		} else {
			logs = append(logs, fmt.Sprintf("Using %s (%s)", pkg.Name, describeLocked(pkg)))
		}

		if nested, ok := nestedManifest(pkg.Dir); ok {
			enqueue(nested)
		}
	}

	kept := lock.Packages[:0]
	for _, pkg := range lock.Packages {
		if pkg != nil && seen[pkg.Name] {
			kept = append(kept, pkg)
			continue
		}
		changed = true
	}
	lock.Packages = kept
	return changed, logs, nil
}

func (d *dependencyInstaller) resolve(dep pendingDependency, lock *driver.Lockfile) (*driver.LockedPackage, bool, error) {
	name := sanitizeName(dep.name)
	if dep.spec.IsGit() {
		source := "git+" + strings.TrimSpace(dep.spec.Git)
		ref := dep.spec.Ref()
		if existing, ok := lock.Find(name); ok && existing.Source == source && existing.Ref == ref && dirExists(existing.Dir) {
			return existing, false, nil
		}
		pkg, err := d.git.Fetch(name, dep.spec)
		if err != nil {
			return nil, false, err
		}
		return pkg, true, nil
	}

	dir := dep.spec.Path
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(dep.owner.Dir(), filepath.FromSlash(dir))
	}
	dir = filepath.Clean(dir)
	if !dirExists(dir) {
		return nil, false, fmt.Errorf("dependency %q: path %s does not exist", dep.name, dir)
	}
	pkg := &driver.LockedPackage{Name: name, Source: "path:" + dir, Dir: dir}
	if existing, ok := lock.Find(name); ok && *existing == *pkg {
		return existing, false, nil
	}
	return pkg, true, nil
}

func describeLocked(pkg *driver.LockedPackage) string {
	if pkg.Commit == "" {
		return pkg.Source
	}
	return fmt.Sprintf("%s@%s", pkg.Source, shortCommit(pkg.Commit))
}

func shortCommit(commit string) string {
	if len(commit) > 12 {
		return commit[:12]
	}
	return commit
}

func nestedManifest(dir string) (*driver.Manifest, bool) {
	path := filepath.Join(dir, driver.ManifestFile)
	if _, err := os.Stat(path); err != nil {
		return nil, false
	}
	m, err := driver.LoadManifest(path)
	if err != nil {
		return nil, false
	}
	return m, true
}

type gitFetcher struct {
	cacheDir string
}

func newGitFetcher(cacheDir string) *gitFetcher {
	if cacheDir == "" {
		return nil
	}
	return &gitFetcher{cacheDir: cacheDir}
}

// Fetch clones spec.Git and checks out the requested revision into
// <cache>/deps/<name>/<version>. Existing checkouts of a pinned rev are reused.
func (g *gitFetcher) Fetch(name string, spec *driver.DependencySpec) (*driver.LockedPackage, error) {
	if g == nil {
		return nil, errors.New("git fetcher unavailable")
	}
	url := strings.TrimSpace(spec.Git)
	if url == "" {
		return nil, fmt.Errorf("dependency %q: git URL required", name)
	}

	baseDir := filepath.Join(g.cacheDir, "deps", sanitizeName(name))
	version, commit, err := ensureGitCheckout(baseDir, url, spec)
	if err != nil {
		return nil, fmt.Errorf("dependency %q: %w", name, err)
	}
	return &driver.LockedPackage{
		Name:   sanitizeName(name),
		Source: "git+" + url,
		Ref:    spec.Ref(),
		Commit: commit,
		Dir:    filepath.Join(baseDir, sanitizePathSegment(version)),
	}, nil
}

func ensureGitCheckout(baseDir, url string, spec *driver.DependencySpec) (string, string, error) {
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return "", "", err
	}

	revision, descriptor := gitRevisionFromSpec(spec)
	if rev := strings.TrimSpace(spec.Rev); rev != "" && dirExists(filepath.Join(baseDir, sanitizePathSegment(rev))) {
		return rev, rev, nil
	}

	tmpDir, err := os.MkdirTemp(baseDir, "git-fetch-*")
	if err != nil {
		return "", "", err
	}
	if err := os.RemoveAll(tmpDir); err != nil {
		return "", "", err
	}

	repo, err := git.PlainClone(tmpDir, false, &git.CloneOptions{URL: url})
	if err != nil {
		_ = os.RemoveAll(tmpDir)
		return "", "", fmt.Errorf("git clone %s: %w", url, err)
	}

	hash, err := repo.ResolveRevision(revision)
	if err != nil {
		_ = os.RemoveAll(tmpDir)
		return "", "", fmt.Errorf("resolve revision %s: %w", revision, err)
	}

	version := gitPinnedVersion(descriptor, hash.String())
	targetDir := filepath.Join(baseDir, sanitizePathSegment(version))
	if dirExists(targetDir) {
		_ = os.RemoveAll(tmpDir)
		return version, hash.String(), nil
	}

	worktree, err := repo.Worktree()
	if err != nil {
		_ = os.RemoveAll(tmpDir)
		return "", "", err
	}
	if err := worktree.Checkout(&git.CheckoutOptions{Hash: *hash, Force: true}); err != nil {
		_ = os.RemoveAll(tmpDir)
		return "", "", fmt.Errorf("git checkout %s: %w", revision, err)
	}

	if err := os.Rename(tmpDir, targetDir); err != nil {
		_ = os.RemoveAll(tmpDir)
		return "", "", err
	}
	return version, hash.String(), nil
}

func gitPinnedVersion(descriptor, commit string) string {
	commit = strings.TrimSpace(commit)
	descriptor = strings.TrimSpace(descriptor)
	if commit == "" {
		return descriptor
	}
	if descriptor == "" || descriptor == commit {
		return commit
	}
	return fmt.Sprintf("%s@%s", descriptor, commit)
}

// gitRevisionFromSpec picks rev, then tag, then branch, falling back to the
// remote HEAD.
func gitRevisionFromSpec(spec *driver.DependencySpec) (plumbing.Revision, string) {
	if rev := strings.TrimSpace(spec.Rev); rev != "" {
		return plumbing.Revision(rev), rev
	}
	if tag := strings.TrimSpace(spec.Tag); tag != "" {
		return plumbing.Revision("refs/tags/" + tag), tag
	}
	if branch := strings.TrimSpace(spec.Branch); branch != "" {
		return plumbing.Revision("refs/remotes/origin/" + branch), branch
	}
	return plumbing.Revision(plumbing.HEAD), ""
}

func sanitizePathSegment(segment string) string {
	segment = strings.TrimSpace(segment)
	if segment == "" {
		return "head"
	}
	var b strings.Builder
	for _, r := range segment {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '.' || r == '-' || r == '_' {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
	}
	return b.String()
}

func sanitizeName(name string) string {
	return strings.ReplaceAll(strings.TrimSpace(name), "-", "_")
}

func dirExists(path string) bool {
	if path == "" {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

func resolveHome() (string, error) {
	if home := strings.TrimSpace(os.Getenv(homeEnv)); home != "" {
		abs, err := filepath.Abs(home)
		if err != nil {
			return "", fmt.Errorf("resolve %s %q: %w", homeEnv, home, err)
		}
		return abs, nil
	}
	userHome, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve user home: %w", err)
	}
	return filepath.Join(userHome, ".ng"), nil
}

func runDeps(args []string) int {
	if len(args) == 0 {
		printError("ng deps requires a subcommand (install, update, list)")
		return 1
	}
	switch args[0] {
	case "install":
		if len(args) > 1 {
			printError(fmt.Sprintf("ng deps install does not take arguments (received %s)", strings.Join(args[1:], " ")))
			return 1
		}
		return runDepsInstall(nil, false)
	case "update":
		return runDepsInstall(args[1:], true)
	case "list":
		return runDepsList()
	default:
		printError(fmt.Sprintf("unknown deps subcommand %q", args[0]))
		return 1
	}
}

// runDepsInstall resolves the manifest's dependencies into ng.lock. With update
// set, the named dependencies (or all of them when none are named) are
// re-resolved instead of reused.
func runDepsInstall(targets []string, update bool) int {
	manifest, err := requireManifest()
	if err != nil {
		printError(err.Error())
		return 1
	}
	cacheDir, err := resolveHome()
	if err != nil {
		printError(err.Error())
		return 1
	}

	fmt.Fprintln(os.Stdout, mutedStyle.Render(fmt.Sprintf("Manifest: %s", manifest.Path)))
	fmt.Fprintln(os.Stdout, mutedStyle.Render(fmt.Sprintf("Cache directory: %s", cacheDir)))

	lockPath := filepath.Join(manifest.Dir(), driver.LockfileName)
	lock, err := driver.LoadLockfile(lockPath)
	lockCreated := false
	switch {
	case err == nil:
		if lock.Root != sanitizeName(manifest.Name) {
			printError(fmt.Sprintf("lockfile root %q does not match manifest name %q", lock.Root, manifest.Name))
			return 1
		}
	case errors.Is(err, os.ErrNotExist):
		lock = driver.NewLockfile(manifest.Name, cliToolVersion)
		lockCreated = true
	default:
		printError(fmt.Sprintf("failed to read lockfile: %v", err))
		return 1
	}
	lock.Path = lockPath
	lock.Tool = cliToolVersion

	if update {
		drop := make(map[string]bool, len(targets))
		for _, target := range targets {
			name := sanitizeName(target)
			if _, ok := manifest.Dependencies[target]; !ok {
				if _, ok := manifest.Dependencies[name]; !ok {
					printError(fmt.Sprintf("dependency %q not declared in manifest", target))
					return 1
				}
			}
			drop[name] = true
		}
		filtered := lock.Packages[:0]
		for _, pkg := range lock.Packages {
			if pkg == nil || len(drop) == 0 || drop[pkg.Name] {
				continue
			}
			filtered = append(filtered, pkg)
		}
		lock.Packages = filtered
	}

	changed, logs, err := newDependencyInstaller(manifest, cacheDir).Install(lock)
	for _, line := range logs {
		fmt.Fprintln(os.Stdout, line)
	}
	if err != nil {
		printError(fmt.Sprintf("failed to resolve dependencies: %v", err))
		return 1
	}

	if changed || lockCreated || update {
		if err := driver.WriteLockfile(lock, lockPath); err != nil {
			printError(err.Error())
			return 1
		}
		fmt.Fprintln(os.Stdout, successStyle.Render(fmt.Sprintf("Wrote %s", lock.Path)))
	} else {
		fmt.Fprintln(os.Stdout, successStyle.Render(fmt.Sprintf("%s already up to date", driver.LockfileName)))
	}
	return 0
}

func runDepsList() int {
	manifest, err := requireManifest()
	if err != nil {
		printError(err.Error())
		return 1
	}
	lock, err := loadLockfileForManifest(manifest)
	if err != nil {
		printError(err.Error())
		return 1
	}
	if lock == nil || len(lock.Packages) == 0 {
		fmt.Fprintln(os.Stdout, mutedStyle.Render("no dependencies"))
		return 0
	}
	packages := append([]*driver.LockedPackage(nil), lock.Packages...)
	sort.Slice(packages, func(i, j int) bool { return packages[i].Name < packages[j].Name })
	for _, pkg := range packages {
		fmt.Fprintf(os.Stdout, "%s  %s\n", nameStyle.Render(pkg.Name), describeLocked(pkg))
	}
	return 0
}

func requireManifest() (*driver.Manifest, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to determine working directory: %w", err)
	}
	path, ok := driver.FindManifest(cwd)
	if !ok {
		return nil, fmt.Errorf("unable to locate %s from %s", driver.ManifestFile, cwd)
	}
	return driver.LoadManifest(path)
}

// loadLockfileForManifest returns nil when the manifest has no dependencies and
// no lockfile was written yet.
func loadLockfileForManifest(manifest *driver.Manifest) (*driver.Lockfile, error) {
	if manifest == nil {
		return nil, nil
	}
	lockPath := filepath.Join(manifest.Dir(), driver.LockfileName)
	lock, err := driver.LoadLockfile(lockPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			if len(manifest.Dependencies) > 0 {
				return nil, fmt.Errorf("%s missing for %q; run `ng deps install`", driver.LockfileName, manifest.Name)
			}
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read lockfile %s: %w", lockPath, err)
	}
	if lock.Root != sanitizeName(manifest.Name) {
		return nil, fmt.Errorf("lockfile root %q does not match manifest name %q", lock.Root, manifest.Name)
	}
	return lock, nil
}
