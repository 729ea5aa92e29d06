package cli

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/treepack/pkg/pipeline"
	"github.com/matzehuels/treepack/pkg/scene"
	"github.com/matzehuels/treepack/pkg/session"
)

// testCLI returns a CLI whose config keeps sessions and cache under dir.
func testCLI(t *testing.T, dir string) *CLI {
	t.Helper()
	cfgPath := filepath.Join(dir, "config.toml")
	cfg := fmt.Sprintf("[session]\nbackend = \"file\"\ndir = %q\n\n[cache]\nbackend = \"file\"\ndir = %q\n",
		filepath.Join(dir, "sessions"), filepath.Join(dir, "cache"))
	require.NoError(t, os.WriteFile(cfgPath, []byte(cfg), 0o644))

	c := New(io.Discard, LogInfo)
	c.ConfigPath = cfgPath
	return c
}

func execute(t *testing.T, c *CLI, args ...string) error {
	t.Helper()
	root := c.RootCommand()
	root.SetArgs(append([]string{"--config", c.ConfigPath}, args...))
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	return root.ExecuteContext(context.Background())
}

func writeProject(t *testing.T, dir string) string {
	t.Helper()
	project := filepath.Join(dir, "project")
	files := map[string]string{
		"src/main.go":   "package main\n\nfunc main() {}\n",
		"src/util.go":   "package main\n",
		"docs/guide.md": "# guide\n",
		"docs/faq.md":   "# faq\n",
		"README.md":     "# project\n",
	}
	for name, body := range files {
		path := filepath.Join(project, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	}
	return project
}

func TestRootCommandRegistersSubcommands(t *testing.T) {
	root := New(io.Discard, LogInfo).RootCommand()
	for _, name := range []string{"scan", "layout", "visualize", "render", "watch", "explore", "serve", "session", "cache", "completion"} {
		cmd, _, err := root.Find([]string{name})
		require.NoError(t, err, name)
		assert.Equal(t, name, cmd.Name())
	}
}

func TestCompletionCommand(t *testing.T) {
	for _, shell := range []string{"bash", "zsh", "fish", "powershell"} {
		t.Run(shell, func(t *testing.T) {
			root := New(io.Discard, LogInfo).RootCommand()
			var out bytes.Buffer
			root.SetOut(&out)
			root.SetArgs([]string{"completion", shell})
			require.NoError(t, root.Execute())
			assert.Contains(t, out.String(), "treepack")
		})
	}

	root := New(io.Discard, LogInfo).RootCommand()
	root.SetArgs([]string{"completion", "tcsh"})
	root.SetErr(io.Discard)
	assert.Error(t, root.Execute())
}

func TestLayoutVisualizeAndSessions(t *testing.T) {
	dir := t.TempDir()
	project := writeProject(t, dir)
	c := testCLI(t, dir)

	layoutPath := filepath.Join(dir, "project.layout.json")
	require.NoError(t, execute(t, c, "layout", project, "-o", layoutPath))

	l, err := scene.ReadLayoutFile(layoutPath)
	require.NoError(t, err)
	_, ok := l.Find("src/main.go")
	assert.True(t, ok)

	// The layout pass is stored under the id derived from the project path.
	id, err := sourceSessionID(pipeline.Options{Root: project})
	require.NoError(t, err)
	store, err := session.NewFileStore(filepath.Join(dir, "sessions"))
	require.NoError(t, err)
	sess, err := store.Get(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, sess)
	assert.Equal(t, 1, sess.Passes)

	require.NoError(t, execute(t, c, "layout", project, "-o", layoutPath))
	sess, err = store.Get(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, 2, sess.Passes)

	svgPath := filepath.Join(dir, "out.svg")
	require.NoError(t, execute(t, c, "visualize", layoutPath, "-f", "svg", "-o", svgPath))
	data, err := os.ReadFile(svgPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "<svg")

	require.NoError(t, execute(t, c, "session", "show", project))
	require.NoError(t, execute(t, c, "session", "clear", id))
	sess, err = store.Get(context.Background(), id)
	require.NoError(t, err)
	assert.Nil(t, sess)
}

func TestNoSessionLeavesStoreEmpty(t *testing.T) {
	dir := t.TempDir()
	project := writeProject(t, dir)
	c := testCLI(t, dir)

	require.NoError(t, execute(t, c, "layout", project, "--no-session", "-o", filepath.Join(dir, "l.json")))

	store, err := session.NewFileStore(filepath.Join(dir, "sessions"))
	require.NoError(t, err)
	all, err := store.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestSessionClearNeedsTarget(t *testing.T) {
	dir := t.TempDir()
	c := testCLI(t, dir)

	assert.Error(t, execute(t, c, "session", "clear"))
	assert.Error(t, execute(t, c, "session", "clear", "some-id", "--all"))
	assert.NoError(t, execute(t, c, "session", "clear", "--all"))
}

func TestCacheClear(t *testing.T) {
	dir := t.TempDir()
	project := writeProject(t, dir)
	c := testCLI(t, dir)

	require.NoError(t, execute(t, c, "render", project, "-f", "svg", "-o", filepath.Join(dir, "r.svg")))
	entries, err := os.ReadDir(filepath.Join(dir, "cache"))
	require.NoError(t, err)
	assert.NotEmpty(t, entries)

	require.NoError(t, execute(t, c, "cache", "clear"))
	entries, err = os.ReadDir(filepath.Join(dir, "cache"))
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestScanThenLayoutTreeFile(t *testing.T) {
	dir := t.TempDir()
	project := writeProject(t, dir)
	require.NoError(t, os.MkdirAll(filepath.Join(project, "node_modules", "x"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(project, "node_modules", "x", "i.js"), []byte("x"), 0o644))
	c := testCLI(t, dir)

	treePath := filepath.Join(dir, "tree.yaml")
	require.NoError(t, execute(t, c, "scan", project, "-o", treePath))
	data, err := os.ReadFile(treePath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "src/main.go")
	assert.NotContains(t, string(data), "node_modules")

	layoutPath := filepath.Join(dir, "tree.layout.json")
	require.NoError(t, execute(t, c, "layout", treePath, "--no-session", "-o", layoutPath))
	l, err := scene.ReadLayoutFile(layoutPath)
	require.NoError(t, err)
	_, ok := l.Find("docs/faq.md")
	assert.True(t, ok)

	assert.Error(t, execute(t, c, "scan", project, "--format", "toml"))
}
