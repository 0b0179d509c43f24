package pipeline

import (
	"context"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"

	"github.com/flowatlas/flowmap-cli/internal/boundary"
	"github.com/flowatlas/flowmap-cli/internal/od"
	"github.com/flowatlas/flowmap-cli/internal/render"
	"github.com/flowatlas/flowmap-cli/internal/store"
	"github.com/flowatlas/flowmap-cli/internal/trajectory"
)

// Render loads the cached dataset, builds trajectories, and writes the three
// SVG outputs plus a YAML run manifest.
func (p *Pipeline) Render(ctx context.Context) (*Manifest, error) {
	run, err := p.store.CreateRun(ctx)
	if err != nil {
		return nil, err
	}

	manifest, err := p.renderAll(ctx, run.ID)
	if err != nil {
		_ = p.store.FinishRun(ctx, run.ID, store.RunStatusFailed, "")
		return nil, err
	}

	encoded, err := manifest.Encode()
	if err != nil {
		return nil, err
	}
	if err := p.store.FinishRun(ctx, run.ID, store.RunStatusComplete, string(encoded)); err != nil {
		return nil, err
	}
	return manifest, nil
}

func (p *Pipeline) renderAll(ctx context.Context, runID string) (*Manifest, error) {
	zones, err := p.store.ListZones(ctx)
	if err != nil {
		return nil, err
	}
	flows, err := p.store.ListFlows(ctx)
	if err != nil {
		return nil, err
	}
	if len(zones) == 0 || len(flows) == 0 {
		return nil, eris.New("pipeline: dataset is empty, run the build step first")
	}

	zoneSet := boundary.NewZoneSet(zones)

	var records []trajectory.ODRecord
	var joinStats od.JoinStats
	if err := stage("join", func() error {
		var joinErr error
		records, joinStats, joinErr = od.Join(flows, zoneSet, p.projector)
		if joinErr != nil {
			return joinErr
		}
		if len(records) == 0 {
			return eris.New("pipeline: no flows matched the boundary zones")
		}
		return nil
	}); err != nil {
		return nil, err
	}

	var paths []trajectory.Path
	if err := stage("trajectories", func() error {
		builder := trajectory.Builder{
			CurveAngleDeg: p.cfg.Trajectory.CurveAngleDeg,
			Divisor:       p.cfg.Trajectory.Divisor,
		}
		var buildErr error
		paths, buildErr = builder.BuildAll(ctx, records)
		return buildErr
	}); err != nil {
		return nil, err
	}

	zonePoints, err := p.projectZonePoints(zones)
	if err != nil {
		return nil, err
	}

	manifest := NewManifest(runID, p.cfg)
	manifest.Stats.Pairs = len(paths)
	manifest.Stats.Zones = len(zones)
	manifest.Stats.Unmatched = joinStats.Unmatched

	style := render.Style{
		WeightExponent: p.cfg.Render.WeightExponent,
		MaxStrokeWidth: p.cfg.Render.MaxStrokeWidth,
		LowColor:       render.DefaultStyle().LowColor,
		HighColor:      render.DefaultStyle().HighColor,
	}

	if err := stage("render", func() error {
		if err := os.MkdirAll(p.cfg.Render.OutputDir, 0o755); err != nil {
			return eris.Wrap(err, "pipeline: create output dir")
		}

		flowOpts := render.FlowMapOptions{
			Width:  p.cfg.Render.Width,
			Height: p.cfg.Render.Height,
			Margin: 40,
			Style:  style,
			Title:  p.cfg.Render.Title,
		}
		flowSVG, err := render.FlowMap(paths, flowOpts)
		if err != nil {
			return err
		}
		if err := p.writeOutput(manifest, "flowmap.svg", flowSVG); err != nil {
			return err
		}

		matrixOpts := render.DefaultMatrixOptions()
		matrixOpts.Style = style
		matrixOpts.MaxZones = p.cfg.Render.MatrixMaxZones
		matrixSVG, err := render.Matrix(flows, zonePoints, matrixOpts)
		if err != nil {
			return err
		}
		if err := p.writeOutput(manifest, "matrix.svg", matrixSVG); err != nil {
			return err
		}

		choroOpts := render.DefaultChoroplethOptions()
		choroOpts.Style = style
		choroSVG, err := render.Choropleth(flows, zonePoints, choroOpts)
		if err != nil {
			return err
		}
		return p.writeOutput(manifest, "choropleth.svg", choroSVG)
	}); err != nil {
		return nil, err
	}

	return manifest, nil
}

func (p *Pipeline) writeOutput(manifest *Manifest, name string, data []byte) error {
	path := filepath.Join(p.cfg.Render.OutputDir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return eris.Wrapf(err, "pipeline: write %s", name)
	}
	manifest.Outputs = append(manifest.Outputs, path)
	return nil
}

// projectZonePoints projects every zone centroid for the grid renderers.
func (p *Pipeline) projectZonePoints(zones []boundary.Zone) ([]render.ZonePoint, error) {
	out := make([]render.ZonePoint, 0, len(zones))
	for _, z := range zones {
		proj, err := p.projector.Project(z.Centroid)
		if err != nil {
			return nil, eris.Wrapf(err, "pipeline: project zone %s", z.GeoID)
		}
		out = append(out, render.ZonePoint{GeoID: z.GeoID, Label: z.Name, Point: proj.Point})
	}
	return out, nil
}
