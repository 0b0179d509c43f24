package od

import "sort"

// AggregateOptions configures flow aggregation.
type AggregateOptions struct {
	// DropSelf removes flows whose origin and destination zone coincide.
	// Self-flows carry no directional curve information, so the pipeline
	// drops them before trajectory building.
	DropSelf bool

	// MinWeight drops aggregated pairs below this total. Large OD matrices
	// are dominated by single-commuter pairs that add clutter, not signal.
	MinWeight float64
}

// Aggregate sums weights per (origin, destination) pair and returns a new
// slice ordered by PairID. The input is left unmodified; trajectory building
// always sees pre-aggregated pairs, so a pair's representative weight is
// never arbitrary.
func Aggregate(flows []Flow, opts AggregateOptions) []Flow {
	sums := make(map[string]Flow, len(flows))
	for _, f := range flows {
		if opts.DropSelf && f.IsSelf() {
			continue
		}
		key := f.PairID()
		agg, ok := sums[key]
		if !ok {
			agg = Flow{OriginGeoID: f.OriginGeoID, DestGeoID: f.DestGeoID}
		}
		agg.Weight += f.Weight
		sums[key] = agg
	}

	out := make([]Flow, 0, len(sums))
	for _, f := range sums {
		if f.Weight < opts.MinWeight {
			continue
		}
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PairID() < out[j].PairID() })
	return out
}

// TotalsByZone sums outbound weight per origin zone, used by the choropleth
// renderer.
func TotalsByZone(flows []Flow) map[string]float64 {
	totals := make(map[string]float64)
	for _, f := range flows {
		totals[f.OriginGeoID] += f.Weight
	}
	return totals
}
