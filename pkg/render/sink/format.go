package sink

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/matzehuels/treepack/pkg/render"
	"github.com/matzehuels/treepack/pkg/scene"
)

// Output formats.
const (
	FormatSVG  = "svg"
	FormatPNG  = "png"
	FormatPDF  = "pdf"
	FormatJSON = "json"
)

// Formats lists the supported output formats.
var Formats = []string{FormatSVG, FormatPNG, FormatPDF, FormatJSON}

// ValidFormat reports whether f is a supported format.
func ValidFormat(f string) bool { return slices.Contains(Formats, f) }

// ContentType returns the MIME type of format f.
func ContentType(f string) string {
	switch f {
	case FormatSVG:
		return "image/svg+xml"
	case FormatPNG:
		return "image/png"
	case FormatPDF:
		return "application/pdf"
	}
	return "application/json"
}

// ParseFormats splits a comma-separated format list, dropping duplicates.
func ParseFormats(s string) ([]string, error) {
	var out []string
	for _, f := range strings.Split(s, ",") {
		f = strings.ToLower(strings.TrimSpace(f))
		if f == "" || slices.Contains(out, f) {
			continue
		}
		if !ValidFormat(f) {
			return nil, fmt.Errorf("unknown format %q (want one of %s)", f, strings.Join(Formats, ", "))
		}
		out = append(out, f)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no output format given")
	}
	return out, nil
}

// RenderJSON serializes l.
func RenderJSON(l scene.Layout) ([]byte, error) {
	return scene.MarshalLayout(l)
}

// RenderPDF renders l as SVG and converts it with rsvg-convert.
func RenderPDF(ctx context.Context, l scene.Layout, opts ...Option) ([]byte, error) {
	return render.ToPDF(ctx, RenderSVG(l, opts...))
}

// Render renders l in the given format.
func Render(ctx context.Context, format string, l scene.Layout, opts ...Option) ([]byte, error) {
	switch format {
	case FormatSVG:
		return RenderSVG(l, opts...), nil
	case FormatPNG:
		return RenderPNG(l, opts...)
	case FormatPDF:
		return RenderPDF(ctx, l, opts...)
	case FormatJSON:
		return RenderJSON(l)
	}
	return nil, fmt.Errorf("unsupported format %q", format)
}
