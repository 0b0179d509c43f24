package geo

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowatlas/flowmap-cli/internal/trajectory"
)

func TestAlbersCONUS_Origin(t *testing.T) {
	a := AlbersCONUS()

	p, err := a.Project(LonLat{Lon: -96, Lat: 23})
	require.NoError(t, err)

	// The projection origin maps to (0, 0).
	assert.InDelta(t, 0, p.Point.East, 1e-6)
	assert.InDelta(t, 0, p.Point.North, 1e-6)
	assert.Equal(t, SRIDAlbersCONUS, p.SRID)
}

func TestAlbersCONUS_EastWestSign(t *testing.T) {
	a := AlbersCONUS()

	ny, err := a.Project(LonLat{Lon: -74.0, Lat: 40.7})
	require.NoError(t, err)
	la, err := a.Project(LonLat{Lon: -118.2, Lat: 34.1})
	require.NoError(t, err)

	// New York is east of the central meridian, Los Angeles west of it.
	assert.Positive(t, ny.Point.East)
	assert.Negative(t, la.Point.East)

	// Cross-country distance should come out near 3,950 km.
	d := ny.Point.Sub(la.Point)
	km := math.Hypot(d.East, d.North) / 1000
	assert.InDelta(t, 3950, km, 150)
}

func TestAlbers_EqualArea_PreservesNorthOrdering(t *testing.T) {
	a := AlbersCONUS()

	south, err := a.Project(LonLat{Lon: -90, Lat: 30})
	require.NoError(t, err)
	north, err := a.Project(LonLat{Lon: -90, Lat: 45})
	require.NoError(t, err)

	assert.Greater(t, north.Point.North, south.Point.North)
}

func TestAlbers_RejectsOutOfRange(t *testing.T) {
	a := AlbersCONUS()

	_, err := a.Project(LonLat{Lon: -200, Lat: 40})
	assert.Error(t, err)
	_, err = a.Project(LonLat{Lon: -90, Lat: 95})
	assert.Error(t, err)
}

func TestCheckCRS(t *testing.T) {
	ok := Projected{Point: trajectory.Point{East: 1, North: 2}, SRID: SRIDAlbersCONUS}
	bad := Projected{Point: trajectory.Point{East: 3, North: 4}, SRID: SRIDWGS84}

	assert.NoError(t, CheckCRS(SRIDAlbersCONUS, ok, ok))
	assert.True(t, SameCRS(SRIDAlbersCONUS, ok))

	err := CheckCRS(SRIDAlbersCONUS, ok, bad)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SRID 4326")
	assert.False(t, SameCRS(SRIDAlbersCONUS, ok, bad))
}
