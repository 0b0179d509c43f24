package trajectory

import (
	"context"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"
)

// BuildAll computes one Path per distinct PairID, skipping self-pairs
// (origin == destination). When several records share a PairID the first
// occurrence is the representative, so callers feeding un-aggregated data
// must sum weights per pair beforehand. Each record's trajectory depends
// only on that record, so the work is sharded across GOMAXPROCS workers;
// output order is deterministic (ascending PairID).
func (b Builder) BuildAll(ctx context.Context, records []ODRecord) ([]Path, error) {
	reps := make([]ODRecord, 0, len(records))
	seen := make(map[string]struct{}, len(records))
	for _, rec := range records {
		if rec.Origin == rec.Destination {
			continue
		}
		if _, ok := seen[rec.PairID]; ok {
			continue
		}
		seen[rec.PairID] = struct{}{}
		reps = append(reps, rec)
	}

	paths := make([]Path, len(reps))

	g, ctx := errgroup.WithContext(ctx)
	workers := runtime.GOMAXPROCS(0)
	if workers > len(reps) {
		workers = len(reps)
	}

	chunk := func(lo, hi int) func() error {
		return func() error {
			for i := lo; i < hi; i++ {
				if err := ctx.Err(); err != nil {
					return err
				}
				paths[i] = b.Build(reps[i])
			}
			return nil
		}
	}

	if workers > 0 {
		size := (len(reps) + workers - 1) / workers
		for lo := 0; lo < len(reps); lo += size {
			hi := lo + size
			if hi > len(reps) {
				hi = len(reps)
			}
			g.Go(chunk(lo, hi))
		}
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.Slice(paths, func(i, j int) bool { return paths[i].PairID < paths[j].PairID })
	return paths, nil
}
