package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"ng/interpreter-go/pkg/driver"
)

const watchDebounce = 100 * time.Millisecond

// watch re-runs the entry whenever a .ng file under the registry's search
// paths changes, until interrupted.
func (s *session) watch(reg *driver.Registry, summary bool) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	return s.watchUntil(ctx, reg, func() { s.execute(reg, summary) })
}

func (s *session) watchUntil(ctx context.Context, reg *driver.Registry, rerun func()) error {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch: %w", err)
	}
	defer fsWatcher.Close()

	for _, dir := range watchDirs(reg.SearchPaths()) {
		if err := fsWatcher.Add(dir); err != nil {
			s.logger.Warn("cannot watch directory", "dir", dir, "err", err)
		}
	}
	fmt.Fprintln(os.Stdout, mutedStyle.Render("[watch] waiting for changes (Ctrl+C to stop)"))

	var (
		timer   *time.Timer
		pending = make(map[string]bool)
		fire    = make(chan struct{}, 1)
	)
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-fsWatcher.Events:
			if !ok {
				return nil
			}
			if !isSourceEvent(event) {
				if event.Has(fsnotify.Create) && dirExists(event.Name) {
					_ = fsWatcher.Add(event.Name)
				}
				continue
			}
			pending[event.Name] = true
			if timer == nil {
				timer = time.AfterFunc(watchDebounce, func() {
					select {
					case fire <- struct{}{}:
					default:
					}
				})
			} else {
				timer.Reset(watchDebounce)
			}
		case <-fire:
			timer = nil
			if len(pending) == 0 {
				continue
			}
			for path := range pending {
				reg.Invalidate(path)
				s.logger.Debug("module invalidated", "path", path)
			}
			fmt.Fprintln(os.Stdout, mutedStyle.Render(fmt.Sprintf("[watch] %d file(s) changed, re-running %s", len(pending), s.entry)))
			clear(pending)
			rerun()
		case err, ok := <-fsWatcher.Errors:
			if !ok {
				return nil
			}
			s.logger.Warn("watcher error", "err", err)
		}
	}
}

// isSourceEvent reports whether event touches a .ng file in a way that can
// change its contents.
func isSourceEvent(event fsnotify.Event) bool {
	if filepath.Ext(event.Name) != driver.SourceExt {
		return false
	}
	return event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) || event.Has(fsnotify.Remove)
}

// watchDirs expands roots into every non-hidden directory beneath them.
func watchDirs(roots []string) []string {
	seen := make(map[string]bool)
	var dirs []string
	for _, root := range roots {
		_ = filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
			if err != nil || !d.IsDir() {
				return nil
			}
			if strings.HasPrefix(d.Name(), ".") && path != root {
				return filepath.SkipDir
			}
			if !seen[path] {
				seen[path] = true
				dirs = append(dirs, path)
			}
			return nil
		})
	}
	return dirs
}
