// Package od models origin-destination commuting flows: ingesting them from
// LODES-style CSV files, validating and aggregating them, and joining them to
// projected zone centroids for trajectory building.
package od

import "fmt"

// Flow is one origin-destination record keyed by zone GeoIDs. Origin is the
// home zone, destination the workplace zone.
type Flow struct {
	OriginGeoID string
	DestGeoID   string
	Weight      float64
}

// PairID is the direction-specific grouping key for a flow.
func (f Flow) PairID() string {
	return fmt.Sprintf("%s-%s", f.OriginGeoID, f.DestGeoID)
}

// IsSelf reports whether the flow starts and ends in the same zone.
func (f Flow) IsSelf() bool {
	return f.OriginGeoID == f.DestGeoID
}
