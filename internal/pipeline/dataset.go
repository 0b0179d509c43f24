package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/flowatlas/flowmap-cli/internal/boundary"
	"github.com/flowatlas/flowmap-cli/internal/od"
)

// DatasetStats summarizes what the build stage produced.
type DatasetStats struct {
	Zones     int
	Rows      int
	Rejected  int
	Pairs     int
	SelfFlows int
}

// BuildDataset parses the boundary shapefile and the OD file into the cache
// store: zones with centroids, and flows aggregated per pair with self-flows
// dropped.
func (p *Pipeline) BuildDataset(ctx context.Context, fetched *Fetched) (*DatasetStats, error) {
	var stats DatasetStats

	if err := stage("load-zones", func() error {
		zones, err := boundary.ParseShapefile(fetched.ShapefilePath, boundary.ShapefileOptions{
			GeoIDField: p.cfg.Data.GeoIDField,
			NameField:  p.cfg.Data.NameField,
		})
		if err != nil {
			return err
		}
		if len(zones) == 0 {
			return eris.New("pipeline: boundary file produced no zones")
		}
		p.applyLabels(zones)
		stats.Zones = len(zones)
		return p.store.ReplaceZones(ctx, zones)
	}); err != nil {
		return nil, err
	}

	if err := stage("ingest-od", func() error {
		f, err := os.Open(fetched.ODPath)
		if err != nil {
			return eris.Wrap(err, "pipeline: open od file")
		}
		defer f.Close() //nolint:errcheck

		flows, ingestStats, err := od.Ingest(ctx, f, od.IngestOptions{
			WorkColumn:   p.cfg.Data.WorkColumn,
			HomeColumn:   p.cfg.Data.HomeColumn,
			WeightColumn: p.cfg.Data.WeightColumn,
			GeoIDLength:  p.cfg.Data.GeoIDLength,
			Gzipped:      strings.HasSuffix(fetched.ODPath, ".gz"),
		})
		if err != nil {
			return err
		}
		stats.Rows = ingestStats.Rows
		stats.Rejected = ingestStats.Rejected

		for _, f := range flows {
			if f.IsSelf() {
				stats.SelfFlows++
			}
		}

		aggregated := od.Aggregate(flows, od.AggregateOptions{
			DropSelf:  true,
			MinWeight: p.cfg.Data.MinWeight,
		})
		stats.Pairs = len(aggregated)
		return p.store.ReplaceFlows(ctx, aggregated)
	}); err != nil {
		return nil, err
	}

	zap.L().Info("pipeline: dataset built",
		zap.Int("zones", stats.Zones),
		zap.Int("rows", stats.Rows),
		zap.Int("rejected", stats.Rejected),
		zap.Int("pairs", stats.Pairs),
		zap.Int("self_flows", stats.SelfFlows),
	)
	return &stats, nil
}

// applyLabels overrides zone names from the optional label workbook.
func (p *Pipeline) applyLabels(zones []boundary.Zone) {
	if p.cfg.Data.LabelsPath == "" {
		return
	}
	path := p.cfg.Data.LabelsPath
	if !filepath.IsAbs(path) {
		path = filepath.Clean(path)
	}
	labels, err := od.LoadLabels(path)
	if err != nil {
		zap.L().Warn("pipeline: label workbook unavailable", zap.String("path", path), zap.Error(err))
		return
	}
	for i := range zones {
		if label, ok := labels[zones[i].GeoID]; ok {
			zones[i].Name = label
		}
	}
}
