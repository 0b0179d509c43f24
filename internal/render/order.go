package render

import (
	"sort"

	"github.com/flowatlas/flowmap-cli/internal/trajectory"
)

// ZonePoint is a zone reduced to its projected centroid, the unit the
// matrix and choropleth renderers lay out spatially.
type ZonePoint struct {
	GeoID string
	Label string
	Point trajectory.Point
}

// SpatialOrder sorts zones north to south, breaking ties west to east, so
// adjacency on the map roughly survives into row/column order. The input is
// not modified.
func SpatialOrder(zones []ZonePoint) []ZonePoint {
	out := make([]ZonePoint, len(zones))
	copy(out, zones)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Point.North != out[j].Point.North {
			return out[i].Point.North > out[j].Point.North
		}
		if out[i].Point.East != out[j].Point.East {
			return out[i].Point.East < out[j].Point.East
		}
		return out[i].GeoID < out[j].GeoID
	})
	return out
}
