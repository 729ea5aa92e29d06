package sink

import (
	"bytes"
	"context"
	"image/png"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/treepack/pkg/scene"
	"github.com/matzehuels/treepack/pkg/tree"
)

func testLayout() scene.Layout {
	return scene.Layout{
		Width: 400, Height: 300, MaxDepth: 9, Encoding: "type",
		Nodes: []scene.Node{
			{Path: "", Kind: "folder", Depth: 0, X: 200, Y: 150, R: 150},
			{Path: "src", Label: "src", Kind: "folder", Depth: 1, X: 150, Y: 150, R: 80, Parent: "", Children: 2},
			{Path: "src/main.go", Label: "main.go", Extension: "go", Color: "#00ADD8", Kind: "leaf", Depth: 2, X: 120, Y: 150, R: 30, Parent: "src"},
			{Path: "src/a<b>.go", Label: "a<b>.go", Extension: "go", Color: "#00ADD8", Kind: "leaf", Depth: 2, X: 190, Y: 150, R: 10, Parent: "src"},
			{Path: "__loose_files__", Kind: "group", Depth: 1, X: 300, Y: 150, R: 40},
			{Path: "README.md", Label: "README.md", Extension: "md", Color: "#083fa1", Kind: "leaf", Depth: 2, X: 300, Y: 150, R: 20, Parent: "__loose_files__"},
		},
		Legend: scene.Legend{Encoding: "type", Entries: []scene.LegendEntry{
			{Extension: "go", Color: "#00ADD8"},
			{Extension: "md", Color: "#083fa1"},
		}},
	}
}

func TestRenderSVG(t *testing.T) {
	svg := string(RenderSVG(testLayout()))

	assert.True(t, strings.HasPrefix(svg, "<svg "))
	assert.True(t, strings.HasSuffix(svg, "</svg>\n"))
	assert.Contains(t, svg, `viewBox="0 0 400.0 300.0"`)
	// root and group are not drawn
	assert.Equal(t, 4, strings.Count(svg, "<circle cx="))
	assert.NotContains(t, svg, `data-path="__loose_files__"`)
	assert.Contains(t, svg, `fill="#00ADD8"`)
	assert.Contains(t, svg, `a&lt;b&gt;.go`)
	assert.Contains(t, svg, "each dot sized by file size")
	assert.Contains(t, svg, ">.go<")
}

func TestRenderSVGLabels(t *testing.T) {
	svg := string(RenderSVG(testLayout()))

	// folder label on the rim
	assert.Contains(t, svg, `startOffset="50%">src</textPath>`)
	// large leaf gets a truncated label, small leaf none
	assert.Contains(t, svg, ">main.go</text>")
	assert.NotContains(t, svg, ">a&lt;b&gt;.go</text>")
	assert.NotContains(t, svg, ">README.md</text>")
}

func TestRenderSVGHighlights(t *testing.T) {
	changes := []tree.Change{
		{Path: `src\a<b>.go`, Kind: tree.ChangeCreate},
		{Path: "README.md", Kind: tree.ChangeDelete},
	}
	svg := string(RenderSVG(testLayout(), WithChanges(changes)))

	assert.Contains(t, svg, `fill="`+ColorCreated+`" filter="url(#glow)"`)
	assert.Contains(t, svg, `fill="`+ColorDeleted+`" filter="url(#glow)"`)
	assert.Contains(t, svg, `fill="`+ColorUnchanged+`"`)
	assert.NotContains(t, svg, `fill="#00ADD8"`)

	// changed leaves are always labeled; unchanged ones never
	assert.Contains(t, svg, ">a&lt;b&gt;.go</text>")
	assert.Contains(t, svg, ">README.md</text>")
	assert.NotContains(t, svg, ">main.go</text>")

	// no legend while highlighting
	assert.NotContains(t, svg, `class="legend"`)
}

func TestRenderSVGScaleLegend(t *testing.T) {
	l := testLayout()
	l.Encoding = "change-frequency"
	l.Legend = scene.Legend{
		Encoding: "change-frequency",
		Stops:    []string{"#f4f4f4", "#ff0000"},
		Min:      1, Max: 12, MinLabel: "1", MaxLabel: "12",
	}
	svg := string(RenderSVG(l))

	assert.Contains(t, svg, "Number of changes")
	assert.Contains(t, svg, `<stop offset="0%" stop-color="#f4f4f4"/>`)
	assert.Contains(t, svg, `<stop offset="100%" stop-color="#ff0000"/>`)
	assert.Contains(t, svg, ">12</text>")

	svg = string(RenderSVG(l, WithoutLegend()))
	assert.NotContains(t, svg, "Number of changes")
}

func TestRenderSVGSelected(t *testing.T) {
	svg := string(RenderSVG(testLayout(), WithSelected("src/main.go")))
	assert.Contains(t, svg, `stroke="`+selectedStroke+`" stroke-width="3" data-path="src/main.go"`)
}

func TestFolderLabel(t *testing.T) {
	l := testLayout()
	tests := []struct {
		name  string
		node  scene.Node
		want  string
		shown bool
	}{
		{"large", scene.Node{Label: "internal", Kind: "folder", Depth: 1, R: 80}, "internal", true},
		{"too small", scene.Node{Label: "x", Kind: "folder", Depth: 1, R: 15}, "", false},
		{"too long", scene.Node{Label: "abcdefghijklmnop", Kind: "folder", Depth: 1, R: 20}, "", false},
		{"truncated", scene.Node{Label: "abcdefghijklmn", Kind: "folder", Depth: 1, R: 28}, "abcdefghij...", true},
		{"deepest", scene.Node{Label: "deep", Kind: "folder", Depth: 9, R: 80}, "", false},
		{"leaf", scene.Node{Label: "a.go", Kind: "leaf", Depth: 1, R: 80}, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := folderLabel(&l, &tt.node, "")
			assert.Equal(t, tt.shown, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcd...", truncate("abcdefghij", 7))
	assert.Equal(t, "ab", truncate("abcdef", 2))
	assert.Equal(t, "äöü...", truncate("äöüßäöüß", 6))
}

func TestRenderPNG(t *testing.T) {
	data, err := RenderPNG(testLayout(), WithScale(2))
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 800, img.Bounds().Dx())
	assert.Equal(t, 600, img.Bounds().Dy())

	// center of main.go, clear of its label, is filled with its color
	r, g, b, _ := img.At(2*120, 2*(150-20)).RGBA()
	assert.Equal(t, [3]uint32{0x00, 0xAD, 0xD8}, [3]uint32{r >> 8, g >> 8, b >> 8})

	// corner stays white
	r, g, b, _ = img.At(2, 2).RGBA()
	assert.Equal(t, [3]uint32{0xFF, 0xFF, 0xFF}, [3]uint32{r >> 8, g >> 8, b >> 8})
}

func TestRenderPNGInvalidCanvas(t *testing.T) {
	_, err := RenderPNG(scene.Layout{})
	assert.Error(t, err)
}

func TestRender(t *testing.T) {
	ctx := context.Background()
	l := testLayout()

	data, err := Render(ctx, FormatSVG, l)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("<svg")))

	data, err = Render(ctx, FormatJSON, l)
	require.NoError(t, err)
	back, err := scene.UnmarshalLayout(data)
	require.NoError(t, err)
	assert.Equal(t, l.Nodes, back.Nodes)

	_, err = Render(ctx, "gif", l)
	assert.Error(t, err)
}

func TestParseFormats(t *testing.T) {
	got, err := ParseFormats("SVG, png,svg")
	require.NoError(t, err)
	assert.Equal(t, []string{"svg", "png"}, got)

	_, err = ParseFormats("svg,gif")
	assert.Error(t, err)
	_, err = ParseFormats(" , ")
	assert.Error(t, err)
}

func TestContentType(t *testing.T) {
	assert.Equal(t, "image/svg+xml", ContentType(FormatSVG))
	assert.Equal(t, "image/png", ContentType(FormatPNG))
	assert.Equal(t, "application/pdf", ContentType(FormatPDF))
	assert.Equal(t, "application/json", ContentType(FormatJSON))
}
