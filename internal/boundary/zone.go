// Package boundary downloads census boundary archives, reads the shapefiles
// inside them, and reduces each zone polygon to an area-weighted centroid.
package boundary

import (
	"github.com/twpayne/go-geom"

	"github.com/flowatlas/flowmap-cli/internal/geo"
)

// Zone is one geographic area from a boundary file: a census tract, county,
// or block group depending on the product loaded.
type Zone struct {
	GeoID    string
	Name     string
	Centroid geo.LonLat
	Geometry *geom.MultiPolygon
}

// ZoneSet is an immutable collection of zones keyed by GeoID.
type ZoneSet struct {
	zones map[string]Zone
	order []string
}

// NewZoneSet builds a ZoneSet, keeping the first zone per GeoID.
func NewZoneSet(zones []Zone) *ZoneSet {
	set := &ZoneSet{zones: make(map[string]Zone, len(zones))}
	for _, z := range zones {
		if _, ok := set.zones[z.GeoID]; ok {
			continue
		}
		set.zones[z.GeoID] = z
		set.order = append(set.order, z.GeoID)
	}
	return set
}

// Get returns the zone for a GeoID.
func (s *ZoneSet) Get(geoID string) (Zone, bool) {
	z, ok := s.zones[geoID]
	return z, ok
}

// Len returns the number of zones.
func (s *ZoneSet) Len() int { return len(s.zones) }

// GeoIDs returns zone ids in file order.
func (s *ZoneSet) GeoIDs() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// Zones returns the zones in file order.
func (s *ZoneSet) Zones() []Zone {
	out := make([]Zone, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.zones[id])
	}
	return out
}
