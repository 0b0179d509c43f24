package render

import (
	"math"

	"github.com/rotisserie/eris"

	"github.com/flowatlas/flowmap-cli/internal/od"
	"github.com/flowatlas/flowmap-cli/internal/trajectory"
)

// ChoroplethOptions configures the spatially-ordered choropleth grid.
type ChoroplethOptions struct {
	CellSize float64
	Style    Style
}

// DefaultChoroplethOptions returns the default grid layout.
func DefaultChoroplethOptions() ChoroplethOptions {
	return ChoroplethOptions{CellSize: 34, Style: DefaultStyle()}
}

// gridPos is a cell assignment on the choropleth grid.
type gridPos struct {
	col, row int
}

// Choropleth lays each zone out as one grid cell positioned by its centroid,
// shaded by total outbound flow. Zones competing for a cell cascade to the
// nearest free one, so the grid stays a small-multiple approximation of the
// real map.
func Choropleth(flows []od.Flow, zones []ZonePoint, opts ChoroplethOptions) ([]byte, error) {
	if len(zones) == 0 {
		return nil, eris.New("render: no zones for choropleth")
	}

	totals := od.TotalsByZone(flows)
	weights := make([]float64, 0, len(totals))
	for _, w := range totals {
		weights = append(weights, w)
	}
	scale := NewWeightScale(weights, opts.Style.WeightExponent)

	side := int(math.Ceil(math.Sqrt(float64(len(zones)) * 1.6)))
	positions := assignGrid(zones, side)

	size := float64(side)*opts.CellSize + 40
	canvas := NewCanvas(size, size, 0, Bounds{MaxEast: 1, MaxNorth: 1})
	canvas.Background(RGB{R: 0xfa, G: 0xfa, B: 0xf7})

	empty := RGB{R: 0xe2, G: 0xe2, B: 0xdc}
	for i, z := range zones {
		pos := positions[i]
		color := empty
		if w, ok := totals[z.GeoID]; ok && w > 0 {
			color = opts.Style.LowColor.Lerp(opts.Style.HighColor, scale.Salience(w))
		}
		x := 20 + float64(pos.col)*opts.CellSize
		y := 20 + float64(pos.row)*opts.CellSize
		canvas.RawRect(x, y, opts.CellSize-2, opts.CellSize-2, color)

		label := z.Label
		if label == "" {
			label = z.GeoID
		}
		if len(label) > 6 {
			label = label[:6]
		}
		canvas.RawText(x+opts.CellSize/2, y+opts.CellSize*0.6, opts.CellSize*0.22,
			RGB{R: 0x22, G: 0x22, B: 0x22}, "middle", label)
	}

	return canvas.Bytes(), nil
}

// assignGrid maps each zone's centroid into a side x side grid, resolving
// collisions by spiraling outward to the nearest free cell. Assignment order
// is spatial, so the result is deterministic.
func assignGrid(zones []ZonePoint, side int) map[int]gridPos {
	b := BoundsOf(points(zones))
	spanE := b.MaxEast - b.MinEast
	spanN := b.MaxNorth - b.MinNorth
	if spanE <= 0 {
		spanE = 1
	}
	if spanN <= 0 {
		spanN = 1
	}

	taken := make(map[gridPos]bool, len(zones))
	positions := make(map[int]gridPos, len(zones))

	ordered := SpatialOrder(zones)
	orderIdx := make(map[string]int, len(zones))
	for i, z := range zones {
		orderIdx[z.GeoID] = i
	}

	for _, z := range ordered {
		col := int(math.Floor((z.Point.East - b.MinEast) / spanE * float64(side-1)))
		row := int(math.Floor((b.MaxNorth - z.Point.North) / spanN * float64(side-1)))
		pos := nearestFree(taken, gridPos{col: col, row: row}, side)
		taken[pos] = true
		positions[orderIdx[z.GeoID]] = pos
	}
	return positions
}

// nearestFree scans rings of increasing radius around the target cell.
func nearestFree(taken map[gridPos]bool, want gridPos, side int) gridPos {
	for radius := 0; radius < 2*side; radius++ {
		best := gridPos{col: -1, row: -1}
		bestDist := math.Inf(1)
		for dr := -radius; dr <= radius; dr++ {
			for dc := -radius; dc <= radius; dc++ {
				p := gridPos{col: want.col + dc, row: want.row + dr}
				if p.col < 0 || p.row < 0 || p.col >= side || p.row >= side || taken[p] {
					continue
				}
				d := math.Hypot(float64(dc), float64(dr))
				if d < bestDist {
					best, bestDist = p, d
				}
			}
		}
		if best.col >= 0 {
			return best
		}
	}
	// Grid is full; should not happen since side*side >= len(zones).
	return want
}

func points(zones []ZonePoint) []trajectory.Point {
	pts := make([]trajectory.Point, len(zones))
	for i, z := range zones {
		pts[i] = z.Point
	}
	return pts
}
