package layout

import (
	"fmt"
	"math"
	"math/rand"
	"strings"
	"testing"

	"github.com/matzehuels/treepack/pkg/core/circle"
	"github.com/matzehuels/treepack/pkg/core/history"
	"github.com/matzehuels/treepack/pkg/core/palette"
	"github.com/matzehuels/treepack/pkg/core/reflow"
	"github.com/matzehuels/treepack/pkg/errors"
	"github.com/matzehuels/treepack/pkg/tree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sepTolerance absorbs the floating point slack of the final projection.
const sepTolerance = 1e-3

var extensions = []string{"go", "md", "ts", "py", "json", "bin"}

func file(parent, name string, size int64) *tree.Node {
	return &tree.Node{Name: name, Path: join(parent, name), Size: size}
}

func join(parent, name string) string {
	if parent == "" {
		return name
	}
	return parent + "/" + name
}

// repo builds a deterministic tree with top folders, each holding files
// and a nested folder, plus a few loose files at the root.
func repo(folders, filesPer int) *tree.Node {
	root := &tree.Node{Name: "repo"}
	for f := 0; f < folders; f++ {
		name := fmt.Sprintf("pkg%d", f)
		dir := &tree.Node{Name: name, Path: name}
		for i := 0; i < filesPer; i++ {
			ext := extensions[(f+i)%len(extensions)]
			dir.Children = append(dir.Children, file(name, fmt.Sprintf("f%d.%s", i, ext), int64(200+((f*37+i*91)%40)*150)))
		}
		sub := &tree.Node{Name: "internal", Path: join(name, "internal")}
		for i := 0; i < filesPer; i++ {
			sub.Children = append(sub.Children, file(sub.Path, fmt.Sprintf("g%d.go", i), int64(300+i*120)))
		}
		dir.Children = append(dir.Children, sub)
		root.Children = append(root.Children, dir)
	}
	root.Children = append(root.Children,
		file("", "README.md", 4000),
		file("", "go.mod", 300),
		file("", "Makefile", 900),
	)
	return root
}

// randomTree builds a seeded tree of mixed files and folders up to five
// levels deep. Every folder holds at least one entry.
func randomTree(seed int64) *tree.Node {
	rng := rand.New(rand.NewSource(seed))
	root := &tree.Node{Name: "repo"}
	var grow func(dir *tree.Node, depth int)
	grow = func(dir *tree.Node, depth int) {
		n := 1 + rng.Intn(12)
		for i := 0; i < n; i++ {
			if depth < 5 && rng.Float64() < 0.3 {
				name := fmt.Sprintf("d%d", i)
				sub := &tree.Node{Name: name, Path: join(dir.Path, name)}
				grow(sub, depth+1)
				dir.Children = append(dir.Children, sub)
				continue
			}
			name := fmt.Sprintf("f%d.%s", i, extensions[rng.Intn(len(extensions))])
			dir.Children = append(dir.Children, file(dir.Path, name, int64(50+rng.Intn(20000))))
		}
	}
	grow(root, 0)
	return root
}

func byPath(nodes []*circle.Node) map[string]*circle.Node {
	m := make(map[string]*circle.Node, len(nodes))
	for _, n := range nodes {
		m[n.Path] = n
	}
	return m
}

func compute(t *testing.T, root *tree.Node, prev history.Context) Result {
	t.Helper()
	res, err := Compute(root, prev, DefaultOptions())
	require.NoError(t, err)
	return res
}

func TestComputeNilRoot(t *testing.T) {
	res, err := Compute(nil, history.Empty(), DefaultOptions())
	require.NoError(t, err)
	assert.Empty(t, res.Nodes)
	assert.True(t, res.Context.IsEmpty())
}

func TestComputeRejectsInvalidOptions(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Options)
		code   errors.Code
	}{
		{"zero depth", func(o *Options) { o.MaxDepth = 0 }, errors.ErrCodeInvalidDepth},
		{"unknown encoding", func(o *Options) { o.Encoding = "rainbow" }, errors.ErrCodeInvalidEncoding},
		{"zero width", func(o *Options) { o.Width = 0 }, errors.ErrCodeInvalidCanvas},
		{"negative height", func(o *Options) { o.Height = -1 }, errors.ErrCodeInvalidCanvas},
		{"NaN width", func(o *Options) { o.Width = math.NaN() }, errors.ErrCodeInvalidCanvas},
		{"zero cap", func(o *Options) { o.MaxNodes = 0 }, errors.ErrCodeInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := DefaultOptions()
			tt.mutate(&opts)
			_, err := Compute(repo(2, 3), history.Empty(), opts)
			require.Error(t, err)
			assert.Equal(t, tt.code, errors.GetCode(err))
		})
	}
}

// assertLayoutInvariants checks positive radii, sibling separation and
// containment on every returned node.
func assertLayoutInvariants(t *testing.T, res Result) {
	t.Helper()
	require.NotEmpty(t, res.Nodes)

	for _, n := range res.Nodes {
		assert.Greater(t, n.R, 0.0, "radius of %q", n.Path)

		kids := n.Children
		for i := 0; i < len(kids); i++ {
			for j := i + 1; j < len(kids); j++ {
				d := kids[i].Center().Dist(kids[j].Center())
				assert.GreaterOrEqual(t, d, kids[i].R+kids[j].R-sepTolerance,
					"siblings %q and %q overlap", kids[i].Path, kids[j].Path)
			}
		}

		if p := n.Parent; p != nil {
			slack := sepTolerance
			if n.IsLeaf() {
				slack += n.R * reflow.LeafBulge
			}
			d := n.Center().Dist(p.Center())
			assert.LessOrEqual(t, d+n.R, p.R+slack, "%q escapes %q", n.Path, p.Path)
		}
	}
}

func TestComputeInvariants(t *testing.T) {
	assertLayoutInvariants(t, compute(t, repo(6, 7), history.Empty()))
}

func TestComputeInvariantsRandomTrees(t *testing.T) {
	for seed := int64(1); seed <= 12; seed++ {
		t.Run(fmt.Sprintf("seed %d", seed), func(t *testing.T) {
			root := randomTree(seed)
			res := compute(t, root, history.Empty())
			assertLayoutInvariants(t, res)
			assertLayoutInvariants(t, compute(t, root, res.Context))
		})
	}
}

func TestComputeDeterministic(t *testing.T) {
	a := compute(t, repo(5, 6), history.Empty())
	b := compute(t, repo(5, 6), history.Empty())
	require.Len(t, b.Nodes, len(a.Nodes))
	for i := range a.Nodes {
		assert.Equal(t, a.Nodes[i].Path, b.Nodes[i].Path)
		assert.Equal(t, a.Nodes[i].Center(), b.Nodes[i].Center())
		assert.Equal(t, a.Nodes[i].R, b.Nodes[i].R)
	}
	assert.Equal(t, a.Context, b.Context)
}

func displacement(a, b history.Context) (sum, max float64) {
	for p, pa := range a.Positions {
		pb, ok := b.Positions[p]
		if !ok {
			continue
		}
		d := pa.Dist(pb)
		sum += d
		max = math.Max(max, d)
	}
	return sum, max
}

// passes feeds root its own context n times and returns every context.
func passes(t *testing.T, root *tree.Node, n int) []history.Context {
	t.Helper()
	ctx := history.Empty()
	out := make([]history.Context, 0, n)
	for i := 0; i < n; i++ {
		ctx = compute(t, root, ctx).Context
		out = append(out, ctx)
	}
	return out
}

func TestRepeatedPassesConverge(t *testing.T) {
	contexts := passes(t, repo(5, 6), 4)

	first, _ := displacement(contexts[0], contexts[1])
	last, lastMax := displacement(contexts[2], contexts[3])
	assert.LessOrEqual(t, last, first)
	assert.Less(t, lastMax, 1e-6, "an unchanged tree should stay put")
}

func TestPerNodeMovementNeverGrows(t *testing.T) {
	for seed := int64(1); seed <= 8; seed++ {
		t.Run(fmt.Sprintf("seed %d", seed), func(t *testing.T) {
			contexts := passes(t, randomTree(seed), 6)
			for path := range contexts[0].Positions {
				prevStep := math.Inf(1)
				for k := 0; k+1 < len(contexts); k++ {
					a, _ := contexts[k].Position(path)
					b, _ := contexts[k+1].Position(path)
					step := a.Dist(b)
					assert.LessOrEqual(t, step, prevStep+1e-9, "%q moved more on pass %d than on pass %d", path, k+2, k+1)
					prevStep = step
				}
				assert.Less(t, prevStep, 1e-6, "%q never settled", path)
			}
		})
	}
}

func under(path, dir string) bool {
	return path == dir || strings.HasPrefix(path, dir+"/")
}

func TestLocalityMovingLeaf(t *testing.T) {
	root := repo(6, 7)
	warm := compute(t, root, history.Empty())
	baseline := compute(t, root, warm.Context)

	// Move pkg3/f1.json into pkg4.
	moved := root.Clone()
	from, to := moved.Find("pkg3"), moved.Find("pkg4")
	require.NotNil(t, from)
	require.NotNil(t, to)
	var kept []*tree.Node
	var leaf *tree.Node
	for _, c := range from.Children {
		if c.Path == "pkg3/f1.json" {
			leaf = c
			continue
		}
		kept = append(kept, c)
	}
	require.NotNil(t, leaf)
	from.Children = kept
	leaf.Path = "pkg4/f1.json"
	to.Children = append(to.Children, leaf)

	next := compute(t, moved, warm.Context)
	_, ok := next.Context.Position("pkg4/f1.json")
	assert.True(t, ok)
	_, ok = next.Context.Position("pkg3/f1.json")
	assert.False(t, ok)

	for path, before := range warm.Context.Positions {
		if path == "" || under(path, "pkg3") || under(path, "pkg4") {
			continue
		}
		after, ok := next.Context.Position(path)
		require.True(t, ok, path)
		still, _ := baseline.Context.Position(path)
		assert.LessOrEqual(t, before.Dist(after), before.Dist(still)+0.5, "%q moved after an unrelated leaf move", path)
	}
}

func TestLocalityAddingFile(t *testing.T) {
	root := repo(6, 7)
	warm := compute(t, root, history.Empty())

	changed := root.Clone()
	target := changed.Find("pkg3")
	require.NotNil(t, target)
	target.Children = append(target.Children, file("pkg3", "new.go", 500))

	next := compute(t, changed, warm.Context)
	assert.Contains(t, byPath(next.Nodes), "pkg3/new.go")
	for _, path := range []string{"pkg0", "pkg1", "pkg5", "pkg0/internal"} {
		b, _ := warm.Context.Position(path)
		a, ok := next.Context.Position(path)
		require.True(t, ok, path)
		assert.Less(t, b.Dist(a), 0.5, "%s moved after an unrelated change", path)
	}
}

func TestSingleChildChainCollapses(t *testing.T) {
	root := &tree.Node{Name: "root", Children: []*tree.Node{
		{Name: "a", Path: "a", Children: []*tree.Node{
			{Name: "b", Path: "a/b", Children: []*tree.Node{
				{Name: "c.txt", Path: "a/b/c.txt", Size: 10},
			}},
		}},
	}}
	res := compute(t, root, history.Empty())
	nodes := byPath(res.Nodes)

	ab, ok := nodes["a/b"]
	require.True(t, ok)
	assert.Equal(t, "a/b", ab.Label)
	assert.Equal(t, circle.Folder, ab.Kind)
	require.Len(t, ab.Children, 1)
	assert.Equal(t, "a/b/c.txt", ab.Children[0].Path)
	_, hasA := nodes["a"]
	assert.False(t, hasA)
}

func TestTypeColorStableAcrossTrees(t *testing.T) {
	a := byPath(compute(t, repo(3, 5), history.Empty()).Nodes)
	b := byPath(compute(t, repo(6, 2), history.Empty()).Nodes)
	assert.Equal(t, a["pkg0/f0.go"].Color, b["pkg0/f0.go"].Color)
	assert.Equal(t, palette.TypeColor("go"), a["pkg0/f0.go"].Color)
}

func TestNodeCapIsExact(t *testing.T) {
	root := repo(6, 7)
	full := compute(t, root, history.Empty())
	require.Greater(t, len(full.Nodes), 20)

	opts := DefaultOptions()
	opts.MaxNodes = 20
	capped, err := Compute(root, history.Empty(), opts)
	require.NoError(t, err)
	assert.Len(t, capped.Nodes, 20)
	for i := range capped.Nodes {
		assert.Equal(t, full.Nodes[i].Path, capped.Nodes[i].Path)
	}
	assert.Equal(t, full.Context.Len(), capped.Context.Len(), "context covers the whole tree")

	opts.MaxNodes = full.Total + 100
	all, err := Compute(root, history.Empty(), opts)
	require.NoError(t, err)
	assert.Len(t, all.Nodes, full.Total)
}

func TestMaxDepthFiltersOutputNotContext(t *testing.T) {
	root := repo(3, 5)
	opts := DefaultOptions()
	opts.MaxDepth = 1
	res, err := Compute(root, history.Empty(), opts)
	require.NoError(t, err)

	for _, n := range res.Nodes {
		assert.LessOrEqual(t, n.Depth, 1)
	}
	_, ok := res.Context.Position("pkg0/internal/g0.go")
	assert.True(t, ok)
	assert.Equal(t, res.Total, res.Context.Len())
}

func TestOutputIsDepthFirst(t *testing.T) {
	res := compute(t, repo(2, 5), history.Empty())
	require.NotEmpty(t, res.Nodes)
	assert.Equal(t, 0, res.Nodes[0].Depth)
	for i := 1; i < len(res.Nodes); i++ {
		n := res.Nodes[i]
		assert.LessOrEqual(t, n.Depth, res.Nodes[i-1].Depth+1, "%q breaks depth-first order", n.Path)
	}
}

func TestComputeDoesNotMutatePrevious(t *testing.T) {
	root := repo(3, 5)
	first := compute(t, root, history.Empty())
	snapshot := first.Context.Clone()

	compute(t, repo(4, 5), first.Context)
	assert.Equal(t, snapshot, first.Context)
}

func TestLooseFilesGroup(t *testing.T) {
	res := compute(t, repo(2, 5), history.Empty())
	nodes := byPath(res.Nodes)
	group, ok := nodes["__loose_files__"]
	require.True(t, ok)
	assert.Equal(t, circle.SyntheticGroup, group.Kind)
	assert.Len(t, group.Children, 3)
	_, cached := res.Context.Position("__loose_files__")
	assert.True(t, cached)
}
