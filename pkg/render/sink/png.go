package sink

import (
	"bytes"
	"fmt"
	"image/color"
	"math"

	"github.com/fogleman/gg"
	"github.com/lucasb-eyer/go-colorful"

	"github.com/matzehuels/treepack/pkg/fonts"
	"github.com/matzehuels/treepack/pkg/scene"
)

type pngRenderer struct {
	dc    *gg.Context
	l     *scene.Layout
	o     Options
	faces *fonts.Faces
}

// RenderPNG rasterizes l natively. The canvas is scaled by [WithScale],
// default 1.
func RenderPNG(l scene.Layout, opts ...Option) ([]byte, error) {
	o := newOptions(opts)
	w := int(math.Ceil(l.Width * o.scale))
	h := int(math.Ceil(l.Height * o.scale))
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("invalid canvas %gx%g", l.Width, l.Height)
	}

	r := &pngRenderer{dc: gg.NewContext(w, h), l: &l, o: o, faces: fonts.NewFaces()}
	defer r.faces.Close()
	r.dc.Scale(o.scale, o.scale)
	r.dc.SetColor(color.White)
	r.dc.Clear()

	r.circles()
	if err := r.folderLabels(); err != nil {
		return nil, err
	}
	if err := r.leafLabels(); err != nil {
		return nil, err
	}
	if !o.noLegend && !o.highlighting() {
		if err := r.legend(); err != nil {
			return nil, err
		}
	}

	var buf bytes.Buffer
	if err := r.dc.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

func (r *pngRenderer) circles() {
	dc := r.dc
	for i := range r.l.Nodes {
		n := &r.l.Nodes[i]
		if !drawable(r.l, n) {
			continue
		}
		dc.DrawCircle(n.X, n.Y, n.R)
		if n.IsLeaf() {
			dc.SetColor(parseColor(r.o.fill(n)))
			if n.Path == r.o.selected {
				dc.FillPreserve()
				dc.SetColor(parseColor(selectedStroke))
				dc.SetLineWidth(3)
				dc.Stroke()
				continue
			}
			dc.Fill()
			continue
		}
		dc.SetColor(color.White)
		dc.FillPreserve()
		stroke := parseColor(folderStroke)
		stroke.A = uint8(folderStrokeOpacity * 255)
		dc.SetColor(stroke)
		dc.SetLineWidth(1)
		if n.Path == r.o.selected {
			dc.SetLineWidth(3)
		}
		dc.Stroke()
	}
}

// folderLabels draws each label glyph by glyph along the upper rim.
func (r *pngRenderer) folderLabels() error {
	dc := r.dc
	for i := range r.l.Nodes {
		n := &r.l.Nodes[i]
		if !drawable(r.l, n) {
			continue
		}
		label, ok := folderLabel(r.l, n, r.o.selected)
		if !ok {
			continue
		}
		radius, size := folderLabelGeometry(n)
		face, err := r.faces.Get(size)
		if err != nil {
			return err
		}
		dc.SetFontFace(face)

		total, _ := dc.MeasureString(label)
		theta := -math.Pi/2 - total/radius/2
		for _, ch := range label {
			s := string(ch)
			w, _ := dc.MeasureString(s)
			mid := theta + w/radius/2
			x, y := n.X+radius*math.Cos(mid), n.Y+radius*math.Sin(mid)
			dc.Push()
			dc.RotateAbout(mid+math.Pi/2, x, y)
			r.haloString(s, x, y, 0.5, 0, parseColor(labelColor))
			dc.Pop()
			theta += w / radius
		}
	}
	return nil
}

func (r *pngRenderer) leafLabels() error {
	face, err := r.faces.Get(leafFontSize)
	if err != nil {
		return err
	}
	r.dc.SetFontFace(face)
	for i := range r.l.Nodes {
		n := &r.l.Nodes[i]
		if !drawable(r.l, n) {
			continue
		}
		if label, ok := leafLabel(n, r.o); ok {
			r.haloString(label, n.X, n.Y, 0.5, 0.35, parseColor(leafLabelColor))
		}
	}
	return nil
}

// haloString draws s with a white outline.
func (r *pngRenderer) haloString(s string, x, y, ax, ay float64, c color.Color) {
	dc := r.dc
	dc.SetColor(color.White)
	for dy := -1.5; dy <= 1.5; dy += 1.5 {
		for dx := -1.5; dx <= 1.5; dx += 1.5 {
			if dx != 0 || dy != 0 {
				dc.DrawStringAnchored(s, x+dx, y+dy, ax, ay)
			}
		}
	}
	dc.SetColor(c)
	dc.DrawStringAnchored(s, x, y, ax, ay)
}

func (r *pngRenderer) legend() error {
	lg := r.l.Legend
	dc := r.dc
	if lg.IsScale() {
		x, y := scaleLegendOrigin(r.l)
		face, err := r.faces.Get(12)
		if err != nil {
			return err
		}
		dc.SetFontFace(face)
		dc.SetColor(parseColor(labelColor))
		dc.DrawString(scaleTitle(lg.Encoding), x, y)

		grad := gg.NewLinearGradient(x, 0, x+scaleWidth, 0)
		for i, stop := range lg.Stops {
			offset := 0.0
			if len(lg.Stops) > 1 {
				offset = float64(i) / float64(len(lg.Stops)-1)
			}
			grad.AddColorStop(offset, parseColor(stop))
		}
		dc.SetFillStyle(grad)
		dc.DrawRectangle(x, y+10, scaleWidth, scaleHeight)
		dc.Fill()

		dc.SetColor(parseColor(labelColor))
		dc.DrawStringAnchored(lg.MinLabel, x, y+40, 0, 0)
		dc.DrawStringAnchored(lg.MaxLabel, x+scaleWidth, y+40, 1, 0)
		return nil
	}

	if len(lg.Entries) == 0 {
		return nil
	}
	x, y := typeLegendOrigin(r.l)
	face, err := r.faces.Get(14)
	if err != nil {
		return err
	}
	dc.SetFontFace(face)
	for i, e := range lg.Entries {
		cy := y + float64(i*15)
		dc.DrawCircle(x, cy, 5)
		dc.SetColor(parseColor(e.Color))
		dc.Fill()
		dc.SetColor(parseColor(labelColor))
		dc.DrawStringAnchored("."+e.Extension, x+10, cy, 0, 0.35)
	}
	note, err := r.faces.Get(12)
	if err != nil {
		return err
	}
	dc.SetFontFace(note)
	dc.SetColor(parseColor(legendNoteColor))
	dc.DrawString(legendNote, x-5, y+float64(len(lg.Entries)*15+10))
	return nil
}

// parseColor parses a hex color, falling back to black.
func parseColor(hex string) color.NRGBA {
	c, err := colorful.Hex(hex)
	if err != nil {
		return color.NRGBA{A: 255}
	}
	r, g, b := c.RGB255()
	return color.NRGBA{R: r, G: g, B: b, A: 255}
}
