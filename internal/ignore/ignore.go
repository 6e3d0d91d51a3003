// Package ignore implements the layered ignore matcher (C3): built-in
// defaults, then a project's .gitignore, then its .indexignore, each
// layer able to re-include a path a prior layer excluded.
//
// Built-in defaults are compiled with gobwas/glob the way the file
// discovery walker does it (internal/indexer/discovery.go in the teacher
// tree). .gitignore/.indexignore parsing is handed to
// github.com/sabhiram/go-gitignore instead, because gobwas/glob has no
// concept of "!" re-inclusion or directory-anchored patterns and genuine
// gitignore semantics need both (grounded on
// other_examples/b3fe2da6_abdul-hamid-achik-vecgrep, whose buildIgnoreMatcher
// layers exactly .gitignore + a tool-specific ignore file this way).
package ignore

import (
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/gobwas/glob"
	gitignore "github.com/sabhiram/go-gitignore"
)

// DefaultPatterns are always-ignored paths, independent of any ignore
// file the project may or may not have.
var DefaultPatterns = []string{
	".git/**",
	".git",
	".indexd/**",
	".indexd",
	"node_modules/**",
	"node_modules",
	"vendor/**",
	"vendor",
	".venv/**",
	"__pycache__/**",
}

// Matcher answers whether a project-relative, slash-separated path
// should be excluded from indexing. It is safe for concurrent use; Reload
// swaps the compiled layers atomically under a lock.
type Matcher struct {
	root string

	mu       sync.RWMutex
	defaults []glob.Glob
	gitIgn   *gitignore.GitIgnore // .gitignore, nil if absent
	indexIgn *gitignore.GitIgnore // .indexignore, nil if absent

	watcher *fsnotify.Watcher
	stopCh  chan struct{}
}

// New builds a Matcher for the project rooted at root and performs an
// initial load of .gitignore/.indexignore if present.
func New(root string) (*Matcher, error) {
	m := &Matcher{root: root}
	for _, p := range DefaultPatterns {
		g, err := glob.Compile(p, '/')
		if err != nil {
			return nil, err
		}
		m.defaults = append(m.defaults, g)
	}
	if err := m.reload(); err != nil {
		return nil, err
	}
	return m, nil
}

// Match reports whether relPath (project-relative, slash-separated)
// should be excluded from indexing. Layers apply in order — defaults,
// then .gitignore, then .indexignore — and a later layer's verdict wins,
// so .indexignore can re-include a path .gitignore excludes and vice
// versa.
func (m *Matcher) Match(relPath string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ignored := matchesAny(m.defaults, relPath) || matchesAny(m.defaults, relPath+"/**")
	if m.gitIgn != nil {
		if decided, excluded := m.gitIgn.MatchesPathHow(relPath); decided {
			ignored = excluded
		}
	}
	if m.indexIgn != nil {
		if decided, excluded := m.indexIgn.MatchesPathHow(relPath); decided {
			ignored = excluded
		}
	}
	return ignored
}

func matchesAny(patterns []glob.Glob, path string) bool {
	for _, p := range patterns {
		if p.Match(path) {
			return true
		}
	}
	return false
}

func (m *Matcher) reload() error {
	gitIgn := loadIgnoreFile(filepath.Join(m.root, ".gitignore"))
	indexIgn := loadIgnoreFile(filepath.Join(m.root, ".indexignore"))

	m.mu.Lock()
	m.gitIgn = gitIgn
	m.indexIgn = indexIgn
	m.mu.Unlock()
	return nil
}

func loadIgnoreFile(path string) *gitignore.GitIgnore {
	ign, err := gitignore.CompileIgnoreFile(path)
	if err != nil {
		return nil
	}
	return ign
}

// WatchReload watches .gitignore and .indexignore for changes and
// recompiles the corresponding layer on write/create/remove/rename
// events. It returns immediately; call Close to stop watching.
func (m *Matcher) WatchReload() error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := w.Add(m.root); err != nil {
		w.Close()
		return err
	}
	m.watcher = w
	m.stopCh = make(chan struct{})

	go func() {
		for {
			select {
			case <-m.stopCh:
				return
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				base := filepath.Base(ev.Name)
				if base == ".gitignore" || base == ".indexignore" {
					m.reload()
				}
			case <-w.Errors:
				// ignore watch errors; the layer simply won't hot-reload
				// until the next successful event
			}
		}
	}()
	return nil
}

// Close stops the hot-reload watcher, if one was started.
func (m *Matcher) Close() error {
	if m.stopCh != nil {
		close(m.stopCh)
	}
	if m.watcher != nil {
		return m.watcher.Close()
	}
	return nil
}

// RelPath converts an absolute path under root to the slash-separated,
// root-relative form Match expects.
func RelPath(root, absPath string) (string, error) {
	rel, err := filepath.Rel(root, absPath)
	if err != nil {
		return "", err
	}
	return filepath.ToSlash(rel), nil
}

// IsHidden reports whether any path segment begins with "." other than
// "." and ".." themselves — used by the walker to skip dotdirs that
// aren't explicitly covered by an ignore pattern.
func IsHidden(relPath string) bool {
	for _, seg := range strings.Split(relPath, "/") {
		if strings.HasPrefix(seg, ".") && seg != "." && seg != ".." {
			return true
		}
	}
	return false
}
