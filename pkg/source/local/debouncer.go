package local

import (
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/matzehuels/treepack/pkg/tree"
)

// Debouncer collects changes and emits them as one batch after a quiet
// period. Repeated changes to a path collapse into the latest one, except
// that a path created and then modified stays a creation.
type Debouncer struct {
	interval time.Duration
	mu       sync.Mutex
	pending  map[string]tree.ChangeKind
	timer    *time.Timer
	output   chan []tree.Change
	done     chan struct{}
	stopOnce sync.Once
}

// NewDebouncer creates a debouncer with the given quiet interval.
func NewDebouncer(interval time.Duration) *Debouncer {
	return &Debouncer{
		interval: interval,
		pending:  make(map[string]tree.ChangeKind),
		output:   make(chan []tree.Change, 16),
		done:     make(chan struct{}),
	}
}

// Output returns the channel receiving batches sorted by path.
func (d *Debouncer) Output() <-chan []tree.Change {
	return d.output
}

// Add records a change and restarts the quiet period. It does nothing
// after Stop.
func (d *Debouncer) Add(path string, kind tree.ChangeKind) {
	d.mu.Lock()
	defer d.mu.Unlock()
	select {
	case <-d.done:
		return
	default:
	}

	if prev, ok := d.pending[path]; ok && prev == tree.ChangeCreate && kind == tree.ChangeModify {
		kind = tree.ChangeCreate
	}
	d.pending[path] = kind

	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.interval, d.flush)
}

// Stop cancels a pending flush and releases a flush blocked on a full
// output channel. It is safe to call more than once.
func (d *Debouncer) Stop() {
	d.stopOnce.Do(func() { close(d.done) })
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
	}
}

func (d *Debouncer) flush() {
	d.mu.Lock()
	if len(d.pending) == 0 {
		d.mu.Unlock()
		return
	}
	batch := make([]tree.Change, 0, len(d.pending))
	for p, k := range d.pending {
		batch = append(batch, tree.Change{Path: p, Kind: k})
	}
	d.pending = make(map[string]tree.ChangeKind)
	d.mu.Unlock()

	slices.SortFunc(batch, func(a, b tree.Change) int { return strings.Compare(a.Path, b.Path) })
	select {
	case d.output <- batch:
	case <-d.done:
	}
}
