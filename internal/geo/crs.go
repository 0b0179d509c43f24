// Package geo carries coordinates between the geographic world and the
// planar projection the trajectory math requires. Every projected value is
// tagged with its SRID so mixed-CRS input is rejected at the API boundary
// instead of silently producing garbage geometry.
package geo

import (
	"github.com/rotisserie/eris"

	"github.com/flowatlas/flowmap-cli/internal/trajectory"
)

// Well-known SRIDs used by the pipeline.
const (
	SRIDWGS84       = 4326 // geographic lon/lat
	SRIDAlbersCONUS = 5070 // planar meters, contiguous US
)

// LonLat is a geographic coordinate in degrees (SRID 4326).
type LonLat struct {
	Lon float64 `json:"lon"`
	Lat float64 `json:"lat"`
}

// Projected is a planar point tagged with the SRID it was projected into.
type Projected struct {
	Point trajectory.Point `json:"point"`
	SRID  int              `json:"srid"`
}

// SameCRS reports whether all points share the given SRID.
func SameCRS(srid int, pts ...Projected) bool {
	for _, p := range pts {
		if p.SRID != srid {
			return false
		}
	}
	return true
}

// CheckCRS returns an error naming the first point whose SRID differs from
// the expected one.
func CheckCRS(srid int, pts ...Projected) error {
	for i, p := range pts {
		if p.SRID != srid {
			return eris.Errorf("geo: point %d has SRID %d, want %d", i, p.SRID, srid)
		}
	}
	return nil
}
