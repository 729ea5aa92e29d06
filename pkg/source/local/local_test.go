package local

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/treepack/pkg/tree"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	p := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
}

func testRepo(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	writeFile(t, root, "README.md", "hello")
	writeFile(t, root, "src/main.go", "package main\n")
	writeFile(t, root, "src/util/strings.go", "package util\n")
	writeFile(t, root, "node_modules/left-pad/index.js", "x")
	writeFile(t, root, ".git/HEAD", "ref: refs/heads/main\n")
	writeFile(t, root, "dist/bundle.js", "y")
	writeFile(t, root, "tmp/scratch.txt", "z")
	writeFile(t, root, ".gitignore", "tmp/\n*.log\n")
	writeFile(t, root, "debug.log", "log")
	return root
}

func paths(n *tree.Node) []string {
	var out []string
	n.Walk(func(c *tree.Node) bool {
		out = append(out, c.Path)
		return true
	})
	return out
}

func TestScan(t *testing.T) {
	root := testRepo(t)
	got, err := Scan(context.Background(), Options{Root: root, Exclude: []string{"dist"}, RespectGitignore: true})
	require.NoError(t, err)

	assert.Equal(t, "", got.Path)
	assert.Equal(t, filepath.Base(root), got.Name)
	assert.Equal(t, []string{
		"", ".gitignore", "README.md", "src", "src/main.go", "src/util", "src/util/strings.go",
	}, paths(got))

	assert.Equal(t, int64(5), got.Find("README.md").Size)
	assert.Equal(t, int64(0), got.Find("src").Size)
	assert.Equal(t, "strings.go", got.Find("src/util/strings.go").Name)
}

func TestScanWithoutGitignore(t *testing.T) {
	root := testRepo(t)
	got, err := Scan(context.Background(), Options{Root: root})
	require.NoError(t, err)

	all := strings.Join(paths(got), ",")
	assert.Contains(t, all, "tmp/scratch.txt")
	assert.Contains(t, all, "debug.log")
	assert.Contains(t, all, "dist/bundle.js")
	assert.NotContains(t, all, "node_modules")
	assert.NotContains(t, all, ".git/")
}

func TestScanErrors(t *testing.T) {
	root := testRepo(t)

	_, err := Scan(context.Background(), Options{Root: filepath.Join(root, "missing")})
	assert.Error(t, err)

	_, err = Scan(context.Background(), Options{Root: filepath.Join(root, "README.md")})
	assert.Error(t, err)

	_, err = Scan(context.Background(), Options{Root: root, Exclude: []string{"[unclosed"}})
	var pe *PatternError
	assert.ErrorAs(t, err, &pe)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = Scan(ctx, Options{Root: root})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMatcher(t *testing.T) {
	root := testRepo(t)
	m, err := NewMatcher(root, []string{"**/*_test.go", "docs/generated"}, true)
	require.NoError(t, err)

	tests := []struct {
		path  string
		isDir bool
		want  bool
	}{
		{"", true, false},
		{"src/main.go", false, false},
		{"src/main_test.go", false, true},
		{"a/node_modules/x.js", false, true},
		{"NODE_MODULES", true, true},
		{".git", true, true},
		{"docs/generated", true, true},
		{"docs/guide.md", false, false},
		{"tmp", true, true},
		{"server.log", false, true},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, m.Ignored(tt.path, tt.isDir))
		})
	}

	assert.True(t, m.IgnoredAbs(filepath.Join(filepath.Dir(root), "elsewhere")))
}

func TestParseHistory(t *testing.T) {
	log := "\x001700000300\n\nsrc/main.go\nREADME.md\n\x001700000200\n\nsrc/main.go\n\x001700000100\n\nsrc/old.go\n"
	hist, err := parseHistory(strings.NewReader(log))
	require.NoError(t, err)

	assert.Len(t, hist, 3)
	assert.Equal(t, 2, hist["src/main.go"].Count)
	assert.Equal(t, time.Unix(1700000300, 0).UTC(), hist["src/main.go"].LastChange)
	assert.Equal(t, 1, hist["README.md"].Count)
	assert.Equal(t, time.Unix(1700000100, 0).UTC(), hist["src/old.go"].LastChange)

	_, err = parseHistory(strings.NewReader("\x00yesterday\n"))
	assert.Error(t, err)
}

func TestParseCommits(t *testing.T) {
	out := "abc123\x1fAda\x1f1700000000\x1fFix: handle a|b\nmalformed\ndef456\x1fGrace\x1f1690000000\x1fInitial\n"
	commits, err := parseCommits(strings.NewReader(out))
	require.NoError(t, err)
	require.Len(t, commits, 2)
	assert.Equal(t, Commit{SHA: "abc123", Author: "Ada", Date: time.Unix(1700000000, 0).UTC(), Message: "Fix: handle a|b"}, commits[0])
	assert.Equal(t, "def456", commits[1].SHA)
}

func TestParseNameStatus(t *testing.T) {
	out := "M\tsrc/main.go\nA\tsrc/new.go\nD\told.go\nT\tlink\n\n"
	changes, err := parseNameStatus(strings.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, []tree.Change{
		{Path: "src/main.go", Kind: tree.ChangeModify},
		{Path: "src/new.go", Kind: tree.ChangeCreate},
		{Path: "old.go", Kind: tree.ChangeDelete},
		{Path: "link", Kind: tree.ChangeModify},
	}, changes)
}

func TestCommitChangesRejectsOptions(t *testing.T) {
	_, err := CommitChanges(context.Background(), t.TempDir(), "--output=/tmp/x")
	assert.Error(t, err)
}

const testInterval = 50 * time.Millisecond

func receiveBatch(t *testing.T, ch <-chan []tree.Change, timeout time.Duration) []tree.Change {
	t.Helper()
	select {
	case batch := <-ch:
		return batch
	case <-time.After(timeout):
		t.Fatal("timed out waiting for batch")
		return nil
	}
}

func TestDebouncer(t *testing.T) {
	d := NewDebouncer(testInterval)
	d.Add("b.go", tree.ChangeModify)
	d.Add("a.go", tree.ChangeCreate)
	d.Add("a.go", tree.ChangeModify)
	d.Add("c.go", tree.ChangeModify)
	d.Add("c.go", tree.ChangeDelete)

	batch := receiveBatch(t, d.Output(), time.Second)
	assert.Equal(t, []tree.Change{
		{Path: "a.go", Kind: tree.ChangeCreate},
		{Path: "b.go", Kind: tree.ChangeModify},
		{Path: "c.go", Kind: tree.ChangeDelete},
	}, batch)

	d.Add("d.go", tree.ChangeModify)
	batch = receiveBatch(t, d.Output(), time.Second)
	assert.Equal(t, []tree.Change{{Path: "d.go", Kind: tree.ChangeModify}}, batch)
}

func TestDebouncerStop(t *testing.T) {
	d := NewDebouncer(testInterval)
	d.Add("a.go", tree.ChangeModify)
	d.Stop()

	select {
	case batch := <-d.Output():
		t.Fatalf("unexpected batch %v", batch)
	case <-time.After(4 * testInterval):
	}
}

func TestDebouncerStopReleasesBlockedFlush(t *testing.T) {
	d := NewDebouncer(time.Hour)
	for i := 0; i < cap(d.output); i++ {
		d.Add(fmt.Sprintf("f%d.go", i), tree.ChangeModify)
		d.flush()
	}
	d.Add("late.go", tree.ChangeModify)

	returned := make(chan struct{})
	go func() {
		d.flush()
		close(returned)
	}()
	select {
	case <-returned:
		t.Fatal("flush returned although nobody reads the full output")
	case <-time.After(4 * testInterval):
	}

	d.Stop()
	select {
	case <-returned:
	case <-time.After(time.Second):
		t.Fatal("flush still blocked after Stop")
	}
	assert.Len(t, d.Output(), cap(d.output))

	d.Stop()
	d.Add("after.go", tree.ChangeModify)
	d.mu.Lock()
	assert.Empty(t, d.pending)
	d.mu.Unlock()
}

func TestWatcher(t *testing.T) {
	root := testRepo(t)
	m, err := NewMatcher(root, nil, true)
	require.NoError(t, err)
	w, err := NewWatcher(root, m, testInterval, nil)
	require.NoError(t, err)
	defer w.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)

	writeFile(t, root, "tmp/ignored.txt", "ignored")
	writeFile(t, root, "src/added.go", "package main\n")

	batch := receiveBatch(t, w.Events(), 5*time.Second)
	assert.Contains(t, batch, tree.Change{Path: "src/added.go", Kind: tree.ChangeCreate})
	for _, c := range batch {
		assert.False(t, strings.HasPrefix(c.Path, "tmp/"), c.Path)
	}
}
