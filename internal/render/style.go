// Package render produces the three static SVG visualizations: the Bezier
// flow map, the spatially-ordered OD matrix, and the spatially-ordered
// choropleth grid.
package render

import (
	"fmt"
	"math"
)

// Style holds the visual-tuning knobs shared by the renderers.
type Style struct {
	// WeightExponent compresses the dynamic range of flow counts. Values
	// in (0, 1) lift small flows into visibility; 0.4 matches the source
	// maps.
	WeightExponent float64

	// MaxStrokeWidth is the stroke width of the heaviest flow, in pixels.
	MaxStrokeWidth float64

	// LowColor and HighColor are the ends of the color ramp.
	LowColor  RGB
	HighColor RGB
}

// DefaultStyle returns the tuning used by the source visualization.
func DefaultStyle() Style {
	return Style{
		WeightExponent: 0.4,
		MaxStrokeWidth: 4,
		LowColor:       RGB{R: 0x2b, G: 0x2b, B: 0x45},
		HighColor:      RGB{R: 0xff, G: 0xb3, B: 0x47},
	}
}

// RGB is an 8-bit color.
type RGB struct {
	R, G, B uint8
}

// Hex renders the color as an SVG hex literal.
func (c RGB) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// Lerp interpolates toward other by t in [0, 1].
func (c RGB) Lerp(other RGB, t float64) RGB {
	t = clamp01(t)
	mix := func(a, b uint8) uint8 {
		return uint8(math.Round(float64(a) + (float64(b)-float64(a))*t))
	}
	return RGB{R: mix(c.R, other.R), G: mix(c.G, other.G), B: mix(c.B, other.B)}
}

// WeightScale maps raw weights to [0, 1] salience values using the style's
// exponent transform.
type WeightScale struct {
	max      float64
	exponent float64
}

// NewWeightScale builds a scale over the observed weights. A zero or
// non-positive exponent falls back to the default 0.4.
func NewWeightScale(weights []float64, exponent float64) WeightScale {
	if exponent <= 0 {
		exponent = 0.4
	}
	var maxW float64
	for _, w := range weights {
		if w > maxW {
			maxW = w
		}
	}
	return WeightScale{max: maxW, exponent: exponent}
}

// Salience returns weight normalized and compressed into [0, 1].
func (s WeightScale) Salience(weight float64) float64 {
	if s.max <= 0 || weight <= 0 {
		return 0
	}
	return math.Pow(clamp01(weight/s.max), s.exponent)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
