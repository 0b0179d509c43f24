package render

import (
	"fmt"
	"strings"

	"github.com/flowatlas/flowmap-cli/internal/trajectory"
)

// Canvas accumulates SVG markup with a viewport transform from projected
// planar coordinates to pixel space. North increases upward in projected
// space but downward in SVG, so the transform flips the vertical axis.
type Canvas struct {
	buf    strings.Builder
	width  float64
	height float64

	scale   float64
	offsetE float64
	offsetN float64
}

// Bounds is an axis-aligned box in projected coordinates.
type Bounds struct {
	MinEast, MinNorth, MaxEast, MaxNorth float64
}

// BoundsOf computes the bounding box of a point set. Returns the zero
// Bounds for an empty input.
func BoundsOf(points []trajectory.Point) Bounds {
	if len(points) == 0 {
		return Bounds{}
	}
	b := Bounds{
		MinEast: points[0].East, MaxEast: points[0].East,
		MinNorth: points[0].North, MaxNorth: points[0].North,
	}
	for _, p := range points[1:] {
		if p.East < b.MinEast {
			b.MinEast = p.East
		}
		if p.East > b.MaxEast {
			b.MaxEast = p.East
		}
		if p.North < b.MinNorth {
			b.MinNorth = p.North
		}
		if p.North > b.MaxNorth {
			b.MaxNorth = p.North
		}
	}
	return b
}

// NewCanvas creates a canvas of the given pixel size fitted to bounds with a
// margin on every side, preserving aspect ratio.
func NewCanvas(width, height, margin float64, bounds Bounds) *Canvas {
	c := &Canvas{width: width, height: height}

	spanE := bounds.MaxEast - bounds.MinEast
	spanN := bounds.MaxNorth - bounds.MinNorth
	if spanE <= 0 {
		spanE = 1
	}
	if spanN <= 0 {
		spanN = 1
	}

	scaleE := (width - 2*margin) / spanE
	scaleN := (height - 2*margin) / spanN
	c.scale = scaleE
	if scaleN < scaleE {
		c.scale = scaleN
	}

	// Center the fitted extent.
	c.offsetE = bounds.MinEast - (width/c.scale-spanE)/2
	c.offsetN = bounds.MaxNorth + (height/c.scale-spanN)/2

	c.buf.WriteString(fmt.Sprintf(
		`<svg xmlns="http://www.w3.org/2000/svg" width="%g" height="%g" viewBox="0 0 %g %g">`+"\n",
		width, height, width, height))
	return c
}

// Pixel converts a projected point to pixel coordinates.
func (c *Canvas) Pixel(p trajectory.Point) (x, y float64) {
	return (p.East - c.offsetE) * c.scale, (c.offsetN - p.North) * c.scale
}

// Background fills the canvas with a color.
func (c *Canvas) Background(color RGB) {
	fmt.Fprintf(&c.buf, `<rect width="%g" height="%g" fill="%s"/>`+"\n", c.width, c.height, color.Hex())
}

// QuadBezier draws a quadratic Bezier path in projected coordinates.
func (c *Canvas) QuadBezier(origin, control, dest trajectory.Point, stroke RGB, width, opacity float64) {
	x0, y0 := c.Pixel(origin)
	cx, cy := c.Pixel(control)
	x1, y1 := c.Pixel(dest)
	fmt.Fprintf(&c.buf,
		`<path d="M %.2f %.2f Q %.2f %.2f %.2f %.2f" fill="none" stroke="%s" stroke-width="%.2f" stroke-opacity="%.3f" stroke-linecap="round"/>`+"\n",
		x0, y0, cx, cy, x1, y1, stroke.Hex(), width, opacity)
}

// RawRect draws a rectangle in pixel coordinates.
func (c *Canvas) RawRect(x, y, w, h float64, fill RGB) {
	fmt.Fprintf(&c.buf, `<rect x="%.2f" y="%.2f" width="%.2f" height="%.2f" fill="%s"/>`+"\n",
		x, y, w, h, fill.Hex())
}

// RawText draws a text label in pixel coordinates.
func (c *Canvas) RawText(x, y float64, size float64, fill RGB, anchor, text string) {
	fmt.Fprintf(&c.buf,
		`<text x="%.2f" y="%.2f" font-size="%.1f" font-family="sans-serif" fill="%s" text-anchor="%s">%s</text>`+"\n",
		x, y, size, fill.Hex(), anchor, escapeText(text))
}

// Bytes closes the document and returns the SVG markup.
func (c *Canvas) Bytes() []byte {
	return []byte(c.buf.String() + "</svg>\n")
}

func escapeText(s string) string {
	r := strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")
	return r.Replace(s)
}
