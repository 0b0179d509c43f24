package render

import (
	"github.com/rotisserie/eris"

	"github.com/flowatlas/flowmap-cli/internal/od"
)

// MatrixOptions configures the OD matrix renderer.
type MatrixOptions struct {
	CellSize   float64
	LabelSpace float64
	Style      Style
	MaxZones   int // cap on matrix dimension, 0 = no cap
}

// DefaultMatrixOptions returns the default matrix layout.
func DefaultMatrixOptions() MatrixOptions {
	return MatrixOptions{CellSize: 14, LabelSpace: 110, Style: DefaultStyle(), MaxZones: 120}
}

// Matrix renders the OD weights as a square matrix with rows (origins) and
// columns (destinations) in spatial order, so clusters of nearby zones show
// up as blocks. Returns an error when no flow connects the given zones.
func Matrix(flows []od.Flow, zones []ZonePoint, opts MatrixOptions) ([]byte, error) {
	ordered := SpatialOrder(zones)
	if opts.MaxZones > 0 && len(ordered) > opts.MaxZones {
		ordered = ordered[:opts.MaxZones]
	}
	if len(ordered) == 0 {
		return nil, eris.New("render: no zones for matrix")
	}

	index := make(map[string]int, len(ordered))
	for i, z := range ordered {
		index[z.GeoID] = i
	}

	n := len(ordered)
	cells := make([]float64, n*n)
	var weights []float64
	for _, f := range flows {
		i, okI := index[f.OriginGeoID]
		j, okJ := index[f.DestGeoID]
		if !okI || !okJ {
			continue
		}
		cells[i*n+j] += f.Weight
		weights = append(weights, f.Weight)
	}
	if len(weights) == 0 {
		return nil, eris.New("render: no flows intersect the matrix zones")
	}
	scale := NewWeightScale(weights, opts.Style.WeightExponent)

	size := opts.LabelSpace + float64(n)*opts.CellSize + 20
	canvas := NewCanvas(size, size, 0, Bounds{MaxEast: 1, MaxNorth: 1})
	canvas.Background(RGB{R: 0xfa, G: 0xfa, B: 0xf7})

	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			w := cells[i*n+j]
			if w <= 0 {
				continue
			}
			color := opts.Style.LowColor.Lerp(opts.Style.HighColor, scale.Salience(w))
			canvas.RawRect(
				opts.LabelSpace+float64(j)*opts.CellSize,
				opts.LabelSpace+float64(i)*opts.CellSize,
				opts.CellSize-1, opts.CellSize-1, color)
		}
	}

	labelColor := RGB{R: 0x33, G: 0x33, B: 0x33}
	for i, z := range ordered {
		label := z.Label
		if label == "" {
			label = z.GeoID
		}
		y := opts.LabelSpace + float64(i)*opts.CellSize + opts.CellSize*0.7
		canvas.RawText(opts.LabelSpace-6, y, opts.CellSize*0.6, labelColor, "end", label)
	}

	return canvas.Bytes(), nil
}
