package sink

import (
	"bytes"
	"fmt"
	"html"

	"github.com/matzehuels/treepack/pkg/fonts"
	"github.com/matzehuels/treepack/pkg/scene"
)

// RenderSVG renders l as a standalone SVG document.
func RenderSVG(l scene.Layout, opts ...Option) []byte {
	o := newOptions(opts)

	var buf bytes.Buffer
	fmt.Fprintf(&buf, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.1f %.1f" width="%.0f" height="%.0f" font-family="%s">`+"\n",
		l.Width, l.Height, l.Width, l.Height, fonts.FontFamily)
	renderDefs(&buf)
	fmt.Fprintf(&buf, `  <rect width="%.1f" height="%.1f" fill="white"/>`+"\n", l.Width, l.Height)

	renderCircles(&buf, &l, o)
	renderFolderLabels(&buf, &l, o)
	renderLeafLabels(&buf, &l, o)
	if !o.noLegend && !o.highlighting() {
		renderLegend(&buf, &l)
	}

	buf.WriteString("</svg>\n")
	return buf.Bytes()
}

func renderDefs(buf *bytes.Buffer) {
	buf.WriteString(`  <defs>
    <filter id="glow" x="-50%" y="-50%" width="200%" height="200%">
      <feGaussianBlur stdDeviation="4" result="blur"/>
      <feMerge><feMergeNode in="blur"/><feMergeNode in="SourceGraphic"/></feMerge>
    </filter>
  </defs>
`)
}

// =============================================================================
// Circles
// =============================================================================

func renderCircles(buf *bytes.Buffer, l *scene.Layout, o Options) {
	buf.WriteString(`  <g class="circles">` + "\n")
	for i := range l.Nodes {
		n := &l.Nodes[i]
		if !drawable(l, n) {
			continue
		}
		if n.IsLeaf() {
			renderLeaf(buf, n, o)
		} else {
			renderFolder(buf, n, o)
		}
	}
	buf.WriteString("  </g>\n")
}

func renderFolder(buf *bytes.Buffer, n *scene.Node, o Options) {
	width := 1.0
	if n.Path == o.selected {
		width = 3
	}
	fmt.Fprintf(buf, `    <circle cx="%.2f" cy="%.2f" r="%.2f" fill="white" stroke="%s" stroke-opacity="%.1f" stroke-width="%.0f" data-path="%s"/>`+"\n",
		n.X, n.Y, n.R, folderStroke, folderStrokeOpacity, width, html.EscapeString(n.Path))
}

func renderLeaf(buf *bytes.Buffer, n *scene.Node, o Options) {
	attrs := ""
	if o.highlighting() {
		if _, changed := o.highlight(n.Path); changed {
			attrs = ` filter="url(#glow)"`
		}
	}
	if n.Path == o.selected {
		attrs += fmt.Sprintf(` stroke="%s" stroke-width="3"`, selectedStroke)
	}
	fmt.Fprintf(buf, `    <circle cx="%.2f" cy="%.2f" r="%.2f" fill="%s"%s data-path="%s"/>`+"\n",
		n.X, n.Y, n.R, o.fill(n), attrs, html.EscapeString(n.Path))
}

// =============================================================================
// Labels
// =============================================================================

// renderFolderLabels sets folder names along the upper rim. Each label gets
// its own arc so the text follows the circle.
func renderFolderLabels(buf *bytes.Buffer, l *scene.Layout, o Options) {
	buf.WriteString(`  <g class="folder-labels" text-anchor="middle" pointer-events="none">` + "\n")
	for i := range l.Nodes {
		n := &l.Nodes[i]
		if !drawable(l, n) {
			continue
		}
		label, ok := folderLabel(l, n, o.selected)
		if !ok {
			continue
		}
		radius, size := folderLabelGeometry(n)
		id := fmt.Sprintf("arc-%d", i)
		fmt.Fprintf(buf, `    <path id="%s" d="M %.2f %.2f A %.2f %.2f 0 0 1 %.2f %.2f" fill="none"/>`+"\n",
			id, n.X-radius, n.Y, radius, radius, n.X+radius, n.Y)
		text := html.EscapeString(label)
		fmt.Fprintf(buf, `    <text font-size="%.0f" stroke="white" stroke-width="5" stroke-linejoin="round" fill="white"><textPath href="#%s" startOffset="50%%">%s</textPath></text>`+"\n",
			size, id, text)
		fmt.Fprintf(buf, `    <text font-size="%.0f" fill="%s"><textPath href="#%s" startOffset="50%%">%s</textPath></text>`+"\n",
			size, labelColor, id, text)
	}
	buf.WriteString("  </g>\n")
}

func renderLeafLabels(buf *bytes.Buffer, l *scene.Layout, o Options) {
	buf.WriteString(`  <g class="leaf-labels" text-anchor="middle" dominant-baseline="middle" pointer-events="none">` + "\n")
	for i := range l.Nodes {
		n := &l.Nodes[i]
		if !drawable(l, n) {
			continue
		}
		label, ok := leafLabel(n, o)
		if !ok {
			continue
		}
		text := html.EscapeString(label)
		fmt.Fprintf(buf, `    <text x="%.2f" y="%.2f" font-size="%.0f" stroke="white" stroke-width="3" stroke-linejoin="round" fill="white">%s</text>`+"\n",
			n.X, n.Y, leafFontSize, text)
		fmt.Fprintf(buf, `    <text x="%.2f" y="%.2f" font-size="%.0f" fill="%s">%s</text>`+"\n",
			n.X, n.Y, leafFontSize, leafLabelColor, text)
	}
	buf.WriteString("  </g>\n")
}

// =============================================================================
// Legend
// =============================================================================

func renderLegend(buf *bytes.Buffer, l *scene.Layout) {
	if l.Legend.IsScale() {
		renderScaleLegend(buf, l)
		return
	}
	renderTypeLegend(buf, l)
}

func renderTypeLegend(buf *bytes.Buffer, l *scene.Layout) {
	entries := l.Legend.Entries
	if len(entries) == 0 {
		return
	}
	x, y := typeLegendOrigin(l)
	fmt.Fprintf(buf, `  <g class="legend" transform="translate(%.1f,%.1f)">`+"\n", x, y)
	for i, e := range entries {
		fmt.Fprintf(buf, `    <circle r="5" cx="0" cy="%d" fill="%s"/>`+"\n", i*15, e.Color)
		fmt.Fprintf(buf, `    <text x="10" y="%d" font-size="14" dominant-baseline="middle" fill="%s">.%s</text>`+"\n",
			i*15, labelColor, html.EscapeString(e.Extension))
	}
	fmt.Fprintf(buf, `    <text x="-5" y="%d" font-size="12" font-style="italic" fill="%s">%s</text>`+"\n",
		len(entries)*15+10, legendNoteColor, legendNote)
	buf.WriteString("  </g>\n")
}

func renderScaleLegend(buf *bytes.Buffer, l *scene.Layout) {
	lg := l.Legend
	x, y := scaleLegendOrigin(l)
	fmt.Fprintf(buf, `  <g class="legend" transform="translate(%.1f,%.1f)">`+"\n", x, y)
	buf.WriteString(`    <defs><linearGradient id="legend-gradient">` + "\n")
	for i, stop := range lg.Stops {
		offset := 0.0
		if len(lg.Stops) > 1 {
			offset = float64(i) / float64(len(lg.Stops)-1) * 100
		}
		fmt.Fprintf(buf, `      <stop offset="%.0f%%" stop-color="%s"/>`+"\n", offset, stop)
	}
	buf.WriteString("    </linearGradient></defs>\n")
	fmt.Fprintf(buf, `    <text x="0" y="0" font-size="12" fill="%s">%s</text>`+"\n", labelColor, scaleTitle(lg.Encoding))
	fmt.Fprintf(buf, `    <rect x="0" y="10" width="%.0f" height="%.0f" fill="url(#legend-gradient)"/>`+"\n", scaleWidth, scaleHeight)
	fmt.Fprintf(buf, `    <text x="0" y="40" font-size="11" fill="%s">%s</text>`+"\n", labelColor, html.EscapeString(lg.MinLabel))
	fmt.Fprintf(buf, `    <text x="%.0f" y="40" font-size="11" text-anchor="end" fill="%s">%s</text>`+"\n",
		scaleWidth, labelColor, html.EscapeString(lg.MaxLabel))
	buf.WriteString("  </g>\n")
}
