package cli

import (
	"context"
	"io"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/treepack/pkg/core/annotate"
	"github.com/matzehuels/treepack/pkg/core/palette"
	"github.com/matzehuels/treepack/pkg/pipeline"
	"github.com/matzehuels/treepack/pkg/scene"
	"github.com/matzehuels/treepack/pkg/session"
	"github.com/matzehuels/treepack/pkg/tree"
)

func exploreTree() *tree.Node {
	return &tree.Node{Name: "repo", Children: []*tree.Node{
		{Name: "src", Path: "src", Children: []*tree.Node{
			{Name: "main.go", Path: "src/main.go", Size: 4000},
			{Name: "util.go", Path: "src/util.go", Size: 1500},
		}},
		{Name: "docs", Path: "docs", Children: []*tree.Node{
			{Name: "a.md", Path: "docs/a.md", Size: 300},
			{Name: "b.md", Path: "docs/b.md", Size: 200},
		}},
		{Name: "README.md", Path: "README.md", Size: 900},
	}}
}

func newTestExploreModel(t *testing.T) exploreModel {
	t.Helper()
	runner := pipeline.NewRunner(nil, nil, newLogger(io.Discard, LogInfo))
	opts := pipeline.Options{TreeFile: "repo.json", SessionID: session.NewID(), Formats: []string{"svg"}}
	require.NoError(t, opts.ValidateAndSetDefaults())
	sess := session.NewWithID(opts.SessionID, session.DefaultTTL)
	m := newExploreModel(context.Background(), runner, exploreTree(), sess, opts)
	m.input = "repo.json"
	return m
}

// step runs cmd and feeds its message back into the model.
func step(t *testing.T, m exploreModel, cmd tea.Cmd) exploreModel {
	t.Helper()
	require.NotNil(t, cmd)
	next, _ := m.Update(cmd())
	return next.(exploreModel)
}

func press(m exploreModel, key string) (exploreModel, tea.Cmd) {
	var msg tea.KeyMsg
	switch key {
	case "up":
		msg = tea.KeyMsg{Type: tea.KeyUp}
	case "down":
		msg = tea.KeyMsg{Type: tea.KeyDown}
	default:
		msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(key)}
	}
	next, cmd := m.Update(msg)
	return next.(exploreModel), cmd
}

func TestExploreModelFirstPass(t *testing.T) {
	m := newTestExploreModel(t)
	m = step(t, m, m.Init())

	require.Empty(t, m.status)
	assert.False(t, m.busy)
	assert.Equal(t, 1, m.sess.Passes)
	assert.NotEmpty(t, m.layout.Nodes)

	paths := make([]string, len(m.rows))
	for i, r := range m.rows {
		paths[i] = r.path
	}
	assert.ElementsMatch(t, []string{"src", "docs", annotate.LooseFilesPath}, paths)
	assert.Equal(t, "src", m.rows[0].path, "largest entry first")
	assert.Equal(t, 3, m.rows[0].drawn)

	stored, err := m.runner.Sessions.Get(context.Background(), m.sess.ID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, 1, stored.Passes)

	assert.Contains(t, m.View(), "src")
}

func TestExploreModelKeys(t *testing.T) {
	m := newTestExploreModel(t)
	m = step(t, m, m.Init())
	depth := m.opts.MaxDepth

	m, cmd := press(m, "down")
	assert.Nil(t, cmd)
	assert.Equal(t, 1, m.cursor)
	sel, ok := m.selected()
	require.True(t, ok)
	assert.Equal(t, m.rows[1].path, sel)

	m, _ = press(m, "up")
	m, _ = press(m, "up")
	assert.Equal(t, 0, m.cursor)

	m, cmd = press(m, "+")
	assert.Equal(t, depth+1, m.opts.MaxDepth)
	assert.True(t, m.busy)

	// Layout-changing keys are ignored until the pass finishes.
	m, ignored := press(m, "e")
	assert.Nil(t, ignored)
	assert.Equal(t, string(palette.EncodingType), m.opts.Encoding)

	m = step(t, m, cmd)
	assert.Equal(t, 2, m.sess.Passes)

	m, cmd = press(m, "e")
	assert.Equal(t, nextEncoding(string(palette.EncodingType)), m.opts.Encoding)
	m = step(t, m, cmd)

	m, cmd = press(m, "r")
	assert.True(t, m.reset)
	m = step(t, m, cmd)
	assert.False(t, m.reset)
	assert.Equal(t, 4, m.sess.Passes)

	_, cmd = press(m, "q")
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestExploreModelDepthFloor(t *testing.T) {
	m := newTestExploreModel(t)
	m = step(t, m, m.Init())
	m.opts.MaxDepth = 1

	m, cmd := press(m, "-")
	assert.Nil(t, cmd)
	assert.Equal(t, 1, m.opts.MaxDepth)
}

func TestNextEncoding(t *testing.T) {
	seen := map[string]bool{}
	enc := string(palette.EncodingType)
	for range palette.Encodings {
		seen[enc] = true
		enc = nextEncoding(enc)
	}
	assert.Equal(t, string(palette.EncodingType), enc, "cycle returns to the start")
	assert.Len(t, seen, len(palette.Encodings))
	assert.Equal(t, encodingNames[0], nextEncoding("unknown"))
}

func TestExploreRows(t *testing.T) {
	l := scene.Layout{Nodes: []scene.Node{
		{Path: "", Depth: 0, R: 100},
		{Path: "a", Depth: 1, R: 10, Kind: "folder"},
		{Path: "a/x", Depth: 2, R: 4, Kind: "file"},
		{Path: "b", Depth: 1, R: 30, Kind: "file"},
	}}
	rows := exploreRows(l)
	require.Len(t, rows, 2)
	assert.Equal(t, exploreRow{path: "b", kind: "file", radius: 30, drawn: 1}, rows[0])
	assert.Equal(t, exploreRow{path: "a", kind: "folder", radius: 10, drawn: 2}, rows[1])
}
