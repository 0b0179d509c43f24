package od

import (
	"context"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/flowatlas/flowmap-cli/internal/fetcher"
)

// IngestOptions configures CSV ingestion. Column names follow the LODES OD
// file layout by default.
type IngestOptions struct {
	WorkColumn   string // destination geocode, default w_geocode
	HomeColumn   string // origin geocode, default h_geocode
	WeightColumn string // flow count, default S000 (total jobs)

	// GeoIDLength truncates block-level geocodes to a coarser unit:
	// 11 for tract, 5 for county. 0 keeps the full code.
	GeoIDLength int

	Gzipped bool
}

// DefaultIngestOptions returns options for a LODES OD main file aggregated
// to census tracts.
func DefaultIngestOptions() IngestOptions {
	return IngestOptions{
		WorkColumn:   "w_geocode",
		HomeColumn:   "h_geocode",
		WeightColumn: "S000",
		GeoIDLength:  11,
	}
}

// IngestStats counts ingestion outcomes. Rejected rows are data-quality
// failures (missing geocode, non-finite or negative weight).
type IngestStats struct {
	Rows     int
	Accepted int
	Rejected int
}

// Ingest streams OD rows from r into validated flows. Rows that fail
// validation are counted and dropped; the reader itself failing is an error.
func Ingest(ctx context.Context, r io.Reader, opts IngestOptions) ([]Flow, IngestStats, error) {
	headerCh := make(chan []string, 1)
	rowCh, errCh := fetcher.StreamCSV(ctx, r, fetcher.CSVOptions{
		HasHeader: true,
		HeaderCh:  headerCh,
		Gzipped:   opts.Gzipped,
		TrimSpace: true,
	})

	var stats IngestStats
	var flows []Flow
	workIdx, homeIdx, weightIdx := -1, -1, -1

	for row := range rowCh {
		if workIdx == -1 {
			header, ok := <-headerCh
			if !ok {
				return nil, stats, eris.New("od: missing csv header")
			}
			var err error
			workIdx, homeIdx, weightIdx, err = columnIndexes(header, opts)
			if err != nil {
				// Drain so the stream goroutine can exit.
				for range rowCh {
				}
				<-errCh
				return nil, stats, err
			}
		}

		stats.Rows++
		flow, ok := parseRow(row, workIdx, homeIdx, weightIdx, opts.GeoIDLength)
		if !ok {
			stats.Rejected++
			continue
		}
		stats.Accepted++
		flows = append(flows, flow)
	}

	if err := <-errCh; err != nil {
		return nil, stats, eris.Wrap(err, "od: ingest")
	}

	if stats.Rejected > 0 {
		zap.L().Warn("od: rejected rows during ingest",
			zap.Int("rejected", stats.Rejected),
			zap.Int("rows", stats.Rows),
		)
	}

	return flows, stats, nil
}

func columnIndexes(header []string, opts IngestOptions) (work, home, weight int, err error) {
	work, home, weight = -1, -1, -1
	for i, name := range header {
		switch strings.ToLower(name) {
		case strings.ToLower(opts.WorkColumn):
			work = i
		case strings.ToLower(opts.HomeColumn):
			home = i
		case strings.ToLower(opts.WeightColumn):
			weight = i
		}
	}
	if work == -1 || home == -1 || weight == -1 {
		return 0, 0, 0, eris.Errorf("od: header missing required columns %s/%s/%s",
			opts.WorkColumn, opts.HomeColumn, opts.WeightColumn)
	}
	return work, home, weight, nil
}

func parseRow(row []string, workIdx, homeIdx, weightIdx, geoIDLen int) (Flow, bool) {
	maxIdx := workIdx
	if homeIdx > maxIdx {
		maxIdx = homeIdx
	}
	if weightIdx > maxIdx {
		maxIdx = weightIdx
	}
	if len(row) <= maxIdx {
		return Flow{}, false
	}

	origin := truncateGeoID(row[homeIdx], geoIDLen)
	dest := truncateGeoID(row[workIdx], geoIDLen)
	if origin == "" || dest == "" {
		return Flow{}, false
	}

	weight, err := strconv.ParseFloat(row[weightIdx], 64)
	if err != nil || math.IsNaN(weight) || math.IsInf(weight, 0) || weight < 0 {
		return Flow{}, false
	}

	return Flow{OriginGeoID: origin, DestGeoID: dest, Weight: weight}, true
}

func truncateGeoID(geoID string, length int) string {
	if length <= 0 || len(geoID) <= length {
		return geoID
	}
	return geoID[:length]
}
