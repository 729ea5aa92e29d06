// Package fonts provides the label font shared by the SVG and PNG sinks.
//
// SVG output names [FontFamily] and leaves glyph lookup to the viewer. PNG
// output rasterizes the embedded Go Regular face, so labels measure and draw
// the same on every machine.
package fonts

import (
	"fmt"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
)

// FontFamily is the CSS font-family used for SVG labels.
const FontFamily = `'Go', 'Helvetica Neue', Arial, sans-serif`

var (
	regularOnce sync.Once
	regular     *opentype.Font
	regularErr  error
)

// Regular returns the parsed Go Regular font. It is parsed on first use.
func Regular() (*opentype.Font, error) {
	regularOnce.Do(func() {
		regular, regularErr = opentype.Parse(goregular.TTF)
		if regularErr != nil {
			regularErr = fmt.Errorf("parse font: %w", regularErr)
		}
	})
	return regular, regularErr
}

// Faces caches font faces by size. A Faces is not safe for concurrent use;
// each render keeps its own.
type Faces struct {
	bySize map[float64]font.Face
}

// NewFaces returns an empty face cache.
func NewFaces() *Faces {
	return &Faces{bySize: make(map[float64]font.Face)}
}

// Get returns the face for size in points at 72 DPI.
func (f *Faces) Get(size float64) (font.Face, error) {
	if face, ok := f.bySize[size]; ok {
		return face, nil
	}
	fnt, err := Regular()
	if err != nil {
		return nil, err
	}
	face, err := opentype.NewFace(fnt, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingNone,
	})
	if err != nil {
		return nil, fmt.Errorf("font face: %w", err)
	}
	f.bySize[size] = face
	return face, nil
}

// Close releases every cached face.
func (f *Faces) Close() error {
	for size, face := range f.bySize {
		face.Close()
		delete(f.bySize, size)
	}
	return nil
}
