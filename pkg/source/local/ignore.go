package local

import (
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	gitignore "github.com/denormal/go-gitignore"
)

// AlwaysIgnored lists directory names that are never scanned.
var AlwaysIgnored = []string{".git", "node_modules"}

// Matcher decides which paths a scan skips. It combines [AlwaysIgnored],
// doublestar exclude globs and the root .gitignore.
// Reload may run concurrently with Ignored.
type Matcher struct {
	mu        sync.RWMutex
	root      string
	excludes  []string
	gitignore bool
	gi        gitignore.GitIgnore
}

// NewMatcher returns a matcher for paths under root. Exclude patterns
// without a slash match any path segment; patterns with one match the whole
// relative path.
func NewMatcher(root string, excludes []string, respectGitignore bool) (*Matcher, error) {
	for _, p := range excludes {
		if !doublestar.ValidatePattern(p) {
			return nil, &PatternError{Pattern: p}
		}
	}
	m := &Matcher{root: root, excludes: excludes, gitignore: respectGitignore}
	m.Reload()
	return m, nil
}

// PatternError reports a malformed exclude glob.
type PatternError struct{ Pattern string }

func (e *PatternError) Error() string { return "invalid exclude pattern " + e.Pattern }

// Reload re-reads .gitignore from disk.
func (m *Matcher) Reload() {
	if !m.gitignore {
		return
	}
	gi := loadIgnoreFile(filepath.Join(m.root, ".gitignore"), m.root)
	m.mu.Lock()
	m.gi = gi
	m.mu.Unlock()
}

// Ignored reports whether the slash-separated path rel should be skipped.
func (m *Matcher) Ignored(rel string, isDir bool) bool {
	if rel == "" {
		return false
	}
	for _, seg := range strings.Split(rel, "/") {
		for _, name := range AlwaysIgnored {
			if strings.EqualFold(seg, name) {
				return true
			}
		}
	}
	if m.excluded(rel) {
		return true
	}

	m.mu.RLock()
	gi := m.gi
	m.mu.RUnlock()
	if gi != nil {
		if match := gi.Relative(rel, isDir); match != nil && match.Ignore() {
			return true
		}
	}
	return false
}

// IgnoredAbs is Ignored for an absolute path, statting it for its kind.
func (m *Matcher) IgnoredAbs(abs string) bool {
	rel, err := filepath.Rel(m.root, abs)
	if err != nil || strings.HasPrefix(rel, "..") {
		return true
	}
	isDir := false
	if info, err := os.Stat(abs); err == nil {
		isDir = info.IsDir()
	}
	return m.Ignored(filepath.ToSlash(rel), isDir)
}

func (m *Matcher) excluded(rel string) bool {
	base := path.Base(rel)
	for _, p := range m.excludes {
		p = strings.TrimSuffix(filepath.ToSlash(p), "/")
		if strings.Contains(p, "/") {
			if ok, _ := doublestar.Match(p, rel); ok {
				return true
			}
			continue
		}
		if ok, _ := doublestar.Match(p, base); ok {
			return true
		}
	}
	return false
}

func loadIgnoreFile(filePath, baseDir string) gitignore.GitIgnore {
	f, err := os.Open(filePath)
	if err != nil {
		return nil
	}
	defer f.Close()
	return gitignore.New(f, baseDir, nil)
}
