// Package palette assigns fill colors to annotated nodes.
//
// Three encodings are supported:
//
//   - [EncodingType]: a static per-extension table; folders take the color of
//     their most frequent direct-child extension.
//   - [EncodingChangeFrequency]: a linear scale over per-file commit counts.
//   - [EncodingRecency]: a linear scale over per-file last-change dates.
//
// Scales interpolate in RGB between five stops spaced evenly over the
// (trimmed) data extent and clamp outside it.
package palette

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/lucasb-eyer/go-colorful"
)

// Encoding selects how nodes are colored.
type Encoding string

// Supported encodings.
const (
	EncodingType            Encoding = "type"
	EncodingChangeFrequency Encoding = "change-frequency"
	EncodingRecency         Encoding = "recency"
)

// Encodings lists the valid encodings in display order.
var Encodings = []Encoding{EncodingType, EncodingChangeFrequency, EncodingRecency}

// ParseEncoding parses an encoding name. The legacy names
// "number-of-changes" and "last-change" are accepted as aliases.
func ParseEncoding(s string) (Encoding, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "type":
		return EncodingType, nil
	case "change-frequency", "number-of-changes":
		return EncodingChangeFrequency, nil
	case "recency", "last-change":
		return EncodingRecency, nil
	}
	return "", fmt.Errorf("unknown color encoding %q", s)
}

// Valid reports whether e is a known encoding.
func (e Encoding) Valid() bool {
	for _, v := range Encodings {
		if e == v {
			return true
		}
	}
	return false
}

// Floor is the low end of every scale and the fill for nodes a scale cannot
// place.
const Floor = "#f4f4f4"

// Scale stop colors.
const (
	frequencyMid = "#FEEAA7"
	frequencyTop = "#3C40C6"
	recencyMid   = "#C7ECEE"
	recencyTop   = "#823471"
)

// Trim amounts applied to the sorted samples before taking the extent.
const (
	frequencyTrimLow  = 2
	frequencyTrimHigh = 2
	recencyTrimOldest = 8
)

// Scale is a clamped piecewise-linear color scale.
type Scale struct {
	domain []float64
	stops  []colorful.Color
	hex    []string
}

// NewScale spreads the given hex colors evenly over [min, max].
func NewScale(min, max float64, colors ...string) (*Scale, error) {
	if len(colors) < 2 {
		return nil, fmt.Errorf("scale needs at least two colors, got %d", len(colors))
	}
	s := &Scale{
		domain: make([]float64, len(colors)),
		stops:  make([]colorful.Color, len(colors)),
		hex:    colors,
	}
	for i, h := range colors {
		c, err := colorful.Hex(h)
		if err != nil {
			return nil, fmt.Errorf("parse color %q: %w", h, err)
		}
		s.stops[i] = c
		s.domain[i] = min + (max-min)*float64(i)/float64(len(colors)-1)
	}
	return s, nil
}

// Extent returns the low and high ends of the domain.
func (s *Scale) Extent() (float64, float64) {
	return s.domain[0], s.domain[len(s.domain)-1]
}

// Stops returns the stop colors, low to high.
func (s *Scale) Stops() []string {
	return append([]string(nil), s.hex...)
}

// At returns the color for v as a lowercase hex string.
func (s *Scale) At(v float64) string {
	lo, hi := s.Extent()
	last := len(s.stops) - 1
	switch {
	case v <= lo && lo < hi:
		return s.stops[0].Hex()
	case v >= hi:
		return s.stops[last].Hex()
	case lo >= hi:
		return s.stops[0].Hex()
	}
	i := sort.SearchFloat64s(s.domain, v)
	if i == 0 {
		i = 1
	}
	a, b := s.domain[i-1], s.domain[i]
	t := 0.0
	if b > a {
		t = (v - a) / (b - a)
	}
	return s.stops[i-1].BlendRgb(s.stops[i], t).Clamped().Hex()
}

// FrequencyScale builds the change-frequency scale from per-file commit
// counts. The two lowest and two highest counts are ignored when computing
// the extent; with too few samples the untrimmed extent is used.
func FrequencyScale(counts []float64) *Scale {
	lo, hi := trimmedExtent(counts, frequencyTrimHigh, frequencyTrimLow)
	s, _ := NewScale(lo, hi, Floor, Floor, Floor, frequencyMid, frequencyTop)
	return s
}

// RecencyScale builds the recency scale from per-file last-change dates.
// The eight oldest dates are ignored when computing the extent. Zero times
// are skipped.
func RecencyScale(dates []time.Time) *Scale {
	var vals []float64
	for _, d := range dates {
		if !d.IsZero() {
			vals = append(vals, TimeValue(d))
		}
	}
	lo, hi := trimmedExtent(vals, 0, recencyTrimOldest)
	s, _ := NewScale(lo, hi, Floor, Floor, Floor, recencyMid, recencyTop)
	return s
}

// TimeValue converts a date into the scalar used by recency scales.
func TimeValue(t time.Time) float64 {
	return float64(t.Unix())
}

// trimmedExtent sorts vals descending, drops the first dropHigh and the last
// dropLow entries and returns the extent of what remains.
func trimmedExtent(vals []float64, dropHigh, dropLow int) (float64, float64) {
	if len(vals) == 0 {
		return 0, 0
	}
	sorted := append([]float64(nil), vals...)
	sort.Sort(sort.Reverse(sort.Float64Slice(sorted)))
	if len(sorted) > dropHigh+dropLow {
		sorted = sorted[dropHigh : len(sorted)-dropLow]
	}
	return sorted[len(sorted)-1], sorted[0]
}
