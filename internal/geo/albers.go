package geo

import (
	"math"

	"github.com/rotisserie/eris"

	"github.com/flowatlas/flowmap-cli/internal/trajectory"
)

// Albers is an Albers equal-area conic projection on a spherical earth.
// The sphere is accurate to well under a kilometer at continental scale,
// which is far below the visual resolution of a flow map.
type Albers struct {
	srid       int
	radius     float64
	n, c, rho0 float64
	lambda0    float64
	falseEast  float64
	falseNorth float64
}

// AlbersCONUS returns the projection used for the contiguous United States
// (EPSG:5070 parameters: standard parallels 29.5 and 45.5, origin 23N 96W).
func AlbersCONUS() *Albers {
	return NewAlbers(SRIDAlbersCONUS, 29.5, 45.5, 23, -96)
}

// NewAlbers builds an Albers projection from standard parallels and origin,
// all in degrees, tagging output with the given SRID.
func NewAlbers(srid int, stdParallel1, stdParallel2, latOrigin, lonOrigin float64) *Albers {
	const earthRadius = 6378137.0

	phi1 := trajectory.ToRadians(stdParallel1)
	phi2 := trajectory.ToRadians(stdParallel2)
	phi0 := trajectory.ToRadians(latOrigin)

	n := (math.Sin(phi1) + math.Sin(phi2)) / 2
	c := math.Cos(phi1)*math.Cos(phi1) + 2*n*math.Sin(phi1)
	rho0 := earthRadius * math.Sqrt(c-2*n*math.Sin(phi0)) / n

	return &Albers{
		srid:    srid,
		radius:  earthRadius,
		n:       n,
		c:       c,
		rho0:    rho0,
		lambda0: trajectory.ToRadians(lonOrigin),
	}
}

// SRID returns the identifier tagged onto projected output.
func (a *Albers) SRID() int { return a.srid }

// Project converts a geographic coordinate to planar meters. Coordinates
// outside the valid lon/lat range are rejected.
func (a *Albers) Project(ll LonLat) (Projected, error) {
	if ll.Lon < -180 || ll.Lon > 180 || ll.Lat < -90 || ll.Lat > 90 {
		return Projected{}, eris.Errorf("geo: coordinate out of range: lon=%g lat=%g", ll.Lon, ll.Lat)
	}

	phi := trajectory.ToRadians(ll.Lat)
	lambda := trajectory.ToRadians(ll.Lon)

	rho := a.radius * math.Sqrt(a.c-2*a.n*math.Sin(phi)) / a.n
	theta := a.n * (lambda - a.lambda0)

	return Projected{
		Point: trajectory.Point{
			East:  a.falseEast + rho*math.Sin(theta),
			North: a.falseNorth + a.rho0 - rho*math.Cos(theta),
		},
		SRID: a.srid,
	}, nil
}
