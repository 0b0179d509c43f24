package render

import (
	"sort"

	"github.com/rotisserie/eris"

	"github.com/flowatlas/flowmap-cli/internal/trajectory"
)

// FlowMapOptions configures the flow map renderer.
type FlowMapOptions struct {
	Width  float64
	Height float64
	Margin float64
	Style  Style
	Title  string
}

// DefaultFlowMapOptions returns a 1600x1200 canvas with the default style.
func DefaultFlowMapOptions() FlowMapOptions {
	return FlowMapOptions{Width: 1600, Height: 1200, Margin: 40, Style: DefaultStyle()}
}

// FlowMap draws every trajectory as a quadratic Bezier, heaviest flows last
// so they sit on top. Stroke width, opacity, and color all follow the
// weight transform.
func FlowMap(paths []trajectory.Path, opts FlowMapOptions) ([]byte, error) {
	if len(paths) == 0 {
		return nil, eris.New("render: no trajectories to draw")
	}

	pts := make([]trajectory.Point, 0, len(paths)*2)
	weights := make([]float64, 0, len(paths))
	for _, p := range paths {
		pts = append(pts, p.Origin(), p.Destination())
		weights = append(weights, p.Weight)
	}
	scale := NewWeightScale(weights, opts.Style.WeightExponent)

	// Light flows first, heavy flows on top.
	ordered := make([]trajectory.Path, len(paths))
	copy(ordered, paths)
	sortPathsByWeight(ordered)

	canvas := NewCanvas(opts.Width, opts.Height, opts.Margin, BoundsOf(pts))
	canvas.Background(RGB{R: 0x10, G: 0x10, B: 0x18})

	for _, p := range ordered {
		t := scale.Salience(p.Weight)
		width := 0.3 + t*(opts.Style.MaxStrokeWidth-0.3)
		opacity := 0.08 + t*0.72
		color := opts.Style.LowColor.Lerp(opts.Style.HighColor, t)
		canvas.QuadBezier(p.Origin(), p.Control(), p.Destination(), color, width, opacity)
	}

	if opts.Title != "" {
		canvas.RawText(opts.Width/2, 28, 18, RGB{R: 0xee, G: 0xee, B: 0xee}, "middle", opts.Title)
	}

	return canvas.Bytes(), nil
}

// sortPathsByWeight orders ascending by weight; stability keeps equal-weight
// pairs in the PairID order BuildAll produced.
func sortPathsByWeight(paths []trajectory.Path) {
	sort.SliceStable(paths, func(i, j int) bool { return paths[i].Weight < paths[j].Weight })
}
