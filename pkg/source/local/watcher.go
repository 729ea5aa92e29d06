package local

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"

	"github.com/matzehuels/treepack/pkg/tree"
)

// DefaultDebounce is the quiet period before a batch of changes is emitted.
const DefaultDebounce = 300 * time.Millisecond

// Watcher watches a directory tree recursively and reports debounced changes
// with paths relative to the root.
type Watcher struct {
	fs        *fsnotify.Watcher
	debouncer *Debouncer
	matcher   *Matcher
	root      string
	logger    *log.Logger
}

// NewWatcher registers every non-ignored directory under root. A nil logger
// discards warnings.
func NewWatcher(root string, m *Matcher, interval time.Duration, logger *log.Logger) (*Watcher, error) {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	if interval <= 0 {
		interval = DefaultDebounce
	}
	root, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		fs:        fsw,
		debouncer: NewDebouncer(interval),
		matcher:   m,
		root:      root,
		logger:    logger,
	}

	err = filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil || !d.IsDir() {
			return nil
		}
		if path != root && m.IgnoredAbs(path) {
			return filepath.SkipDir
		}
		w.add(path)
		return nil
	})
	if err != nil {
		fsw.Close()
		return nil, err
	}
	return w, nil
}

// Events returns the channel of change batches.
func (w *Watcher) Events() <-chan []tree.Change {
	return w.debouncer.Output()
}

// Run dispatches filesystem events until ctx is done or the watcher is
// closed.
func (w *Watcher) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.fs.Events:
			if !ok {
				return
			}
			w.handle(event)
		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watcher error", "error", err)
		}
	}
}

func (w *Watcher) handle(event fsnotify.Event) {
	path := event.Name
	if filepath.Base(path) == ".gitignore" && filepath.Dir(path) == w.root {
		w.matcher.Reload()
	}

	rel, err := filepath.Rel(w.root, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return
	}
	rel = filepath.ToSlash(rel)

	isDir := false
	if info, err := os.Stat(path); err == nil {
		isDir = info.IsDir()
	}
	if w.matcher.Ignored(rel, isDir) {
		return
	}
	if isDir {
		if event.Has(fsnotify.Create) {
			w.add(path)
		}
		return
	}

	var kind tree.ChangeKind
	switch {
	case event.Has(fsnotify.Create):
		kind = tree.ChangeCreate
	case event.Has(fsnotify.Write):
		kind = tree.ChangeModify
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		kind = tree.ChangeDelete
	default:
		return
	}
	w.debouncer.Add(rel, kind)
}

func (w *Watcher) add(path string) {
	if err := w.fs.Add(path); err != nil {
		w.logger.Warn("failed to watch directory", "path", path, "error", err)
	}
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	w.debouncer.Stop()
	return w.fs.Close()
}
