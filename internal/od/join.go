package od

import (
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/flowatlas/flowmap-cli/internal/boundary"
	"github.com/flowatlas/flowmap-cli/internal/geo"
	"github.com/flowatlas/flowmap-cli/internal/trajectory"
)

// Projector takes geographic centroids into a planar CRS.
type Projector interface {
	Project(geo.LonLat) (geo.Projected, error)
	SRID() int
}

// JoinStats counts join outcomes. Unmatched flows reference a GeoID absent
// from the boundary file and are rejected before trajectory building.
type JoinStats struct {
	Matched   int
	Unmatched int
}

// Join resolves each flow's zone GeoIDs to projected centroids, producing
// trajectory inputs. Every output coordinate is verified to share the
// projector's SRID; flows with unknown zones are dropped and counted.
func Join(flows []Flow, zones *boundary.ZoneSet, proj Projector) ([]trajectory.ODRecord, JoinStats, error) {
	var stats JoinStats

	centroids := make(map[string]geo.Projected, zones.Len())
	lookup := func(geoID string) (geo.Projected, bool, error) {
		if p, ok := centroids[geoID]; ok {
			return p, true, nil
		}
		zone, ok := zones.Get(geoID)
		if !ok {
			return geo.Projected{}, false, nil
		}
		p, err := proj.Project(zone.Centroid)
		if err != nil {
			return geo.Projected{}, false, eris.Wrapf(err, "od: project centroid of %s", geoID)
		}
		centroids[geoID] = p
		return p, true, nil
	}

	records := make([]trajectory.ODRecord, 0, len(flows))
	for _, f := range flows {
		origin, ok, err := lookup(f.OriginGeoID)
		if err != nil {
			return nil, stats, err
		}
		if !ok {
			stats.Unmatched++
			continue
		}
		dest, ok, err := lookup(f.DestGeoID)
		if err != nil {
			return nil, stats, err
		}
		if !ok {
			stats.Unmatched++
			continue
		}

		if err := geo.CheckCRS(proj.SRID(), origin, dest); err != nil {
			return nil, stats, err
		}

		stats.Matched++
		records = append(records, trajectory.ODRecord{
			Origin:      origin.Point,
			Destination: dest.Point,
			PairID:      f.PairID(),
			Weight:      f.Weight,
		})
	}

	if stats.Unmatched > 0 {
		zap.L().Warn("od: flows referencing unknown zones were dropped",
			zap.Int("unmatched", stats.Unmatched),
			zap.Int("matched", stats.Matched),
		)
	}

	return records, stats, nil
}
