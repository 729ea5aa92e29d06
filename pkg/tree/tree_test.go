package tree

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sample() *Node {
	return &Node{
		Name: "repo",
		Children: []*Node{
			{Name: "main.go", Path: "main.go", Size: 1200, History: &History{Count: 3}},
			{Name: "pkg", Path: "pkg", Children: []*Node{
				{Name: "a.go", Path: "pkg/a.go", Size: 10},
				{Name: "b.go", Path: "pkg/b.go", Size: 20},
			}},
		},
	}
}

func TestNodeWalkAndCount(t *testing.T) {
	root := sample()
	assert.Equal(t, 5, root.Count())

	var paths []string
	root.Walk(func(n *Node) bool {
		paths = append(paths, n.Path)
		return n.Path != "pkg"
	})
	assert.Equal(t, []string{"", "main.go", "pkg"}, paths)

	leaves := root.Leaves()
	require.Len(t, leaves, 3)
	assert.Equal(t, "pkg/b.go", leaves[2].Path)
}

func TestNodeFind(t *testing.T) {
	root := sample()
	require.NotNil(t, root.Find("pkg/a.go"))
	assert.Equal(t, "a.go", root.Find("pkg/a.go").Name)
	assert.Nil(t, root.Find("missing"))
}

func TestNodeClone(t *testing.T) {
	root := sample()
	c := root.Clone()
	c.Children[0].History.Count = 99
	c.Children[1].Children[0].Name = "changed"

	assert.Equal(t, 3, root.Children[0].History.Count)
	assert.Equal(t, "a.go", root.Children[1].Children[0].Name)
}

func TestApplyHistory(t *testing.T) {
	root := sample()
	when := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	root.ApplyHistory(map[string]History{
		"pkg/a.go": {Count: 7, LastChange: when},
		"pkg":      {Count: 1},
	})

	assert.Equal(t, 7, root.Find("pkg/a.go").CommitCount())
	assert.Equal(t, when, root.Find("pkg/a.go").LastChange())
	assert.Nil(t, root.Find("pkg").History, "folders never receive history")
	assert.Equal(t, 3, root.Find("main.go").CommitCount())
}

func TestParentPath(t *testing.T) {
	tests := []struct {
		path, want string
	}{
		{"", ""},
		{"a", ""},
		{"a/b", "a"},
		{"a/b/c.txt", "a/b"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := ParentPath(tt.path); got != tt.want {
				t.Errorf("ParentPath(%q) = %q, want %q", tt.path, got, tt.want)
			}
		})
	}
}

func TestReadFillsPaths(t *testing.T) {
	in := `{"name":"root","children":[{"name":"a","children":[{"name":"b.txt","size":5}, null]}]}`
	root, err := Read(strings.NewReader(in), FormatJSON)
	require.NoError(t, err)

	assert.Equal(t, "", root.Path)
	assert.Equal(t, "a", root.Children[0].Path)
	require.Len(t, root.Children[0].Children, 1)
	assert.Equal(t, "a/b.txt", root.Children[0].Children[0].Path)
}

func TestReadYAML(t *testing.T) {
	in := `
name: root
children:
  - name: docs
    path: docs
    children:
      - name: README.md
        path: docs/README.md
        size: 42
        history:
          count: 4
`
	root, err := Read(strings.NewReader(in), FormatYAML)
	require.NoError(t, err)
	leaf := root.Find("docs/README.md")
	require.NotNil(t, leaf)
	assert.EqualValues(t, 42, leaf.Size)
	assert.Equal(t, 4, leaf.CommitCount())
}

func TestWriteRead(t *testing.T) {
	for _, format := range []Format{FormatJSON, FormatYAML} {
		t.Run(string(format), func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, Write(sample(), &buf, format))
			got, err := Read(&buf, format)
			require.NoError(t, err)
			assert.Equal(t, sample().Count(), got.Count())
			assert.EqualValues(t, 20, got.Find("pkg/b.go").Size)
		})
	}
}

func TestReadInvalid(t *testing.T) {
	_, err := Read(strings.NewReader("{"), FormatJSON)
	assert.Error(t, err)
}

func TestFormatFromPath(t *testing.T) {
	assert.Equal(t, FormatYAML, FormatFromPath("tree.YML"))
	assert.Equal(t, FormatYAML, FormatFromPath("tree.yaml"))
	assert.Equal(t, FormatJSON, FormatFromPath("tree.json"))
	assert.Equal(t, FormatJSON, FormatFromPath("tree"))
}

func TestChanges(t *testing.T) {
	k, err := ParseChangeKind(" create ")
	require.NoError(t, err)
	assert.Equal(t, ChangeCreate, k)

	_, err = ParseChangeKind("rename")
	assert.Error(t, err)

	idx := IndexChanges([]Change{
		{Path: `src\main.go`, Kind: ChangeModify},
		{Path: "README.md", Kind: ChangeDelete},
	})
	got, ok := idx.Lookup("src/main.go")
	assert.True(t, ok)
	assert.Equal(t, ChangeModify, got)
	_, ok = idx.Lookup("other")
	assert.False(t, ok)
}
