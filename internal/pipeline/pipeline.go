// Package pipeline orchestrates the analysis as an explicit sequence of
// stages, each taking an immutable input set and producing a new one:
// fetch, ingest, aggregate, join, project, trajectories, render.
package pipeline

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/flowatlas/flowmap-cli/internal/boundary"
	"github.com/flowatlas/flowmap-cli/internal/config"
	"github.com/flowatlas/flowmap-cli/internal/fetcher"
	"github.com/flowatlas/flowmap-cli/internal/geo"
	"github.com/flowatlas/flowmap-cli/internal/od"
	"github.com/flowatlas/flowmap-cli/internal/store"
)

// Pipeline wires the stages to their dependencies.
type Pipeline struct {
	cfg        *config.Config
	store      store.Store
	httpF      *fetcher.HTTPFetcher
	downloader *boundary.Downloader
	projector  od.Projector
}

// New creates a Pipeline from configuration.
func New(cfg *config.Config, st store.Store) *Pipeline {
	httpF := fetcher.NewHTTPFetcher(fetcher.HTTPOptions{
		UserAgent:  cfg.Fetch.UserAgent,
		Timeout:    time.Duration(cfg.Fetch.TimeoutSecs) * time.Second,
		MaxRetries: cfg.Fetch.MaxRetries,
	})
	ftpF := fetcher.NewFTPFetcher(time.Duration(cfg.Fetch.TimeoutSecs) * time.Second)

	return &Pipeline{
		cfg:        cfg,
		store:      st,
		httpF:      httpF,
		downloader: boundary.NewDownloader(httpF, ftpF, cfg.Fetch.CacheDir),
		projector:  geo.AlbersCONUS(),
	}
}

// stage runs fn with timed logging, in the same shape for every stage.
func stage(name string, fn func() error) error {
	log := zap.L().With(zap.String("stage", name))
	log.Info("pipeline: stage starting")
	start := time.Now()

	err := fn()
	duration := time.Since(start)

	if err != nil {
		log.Error("pipeline: stage failed", zap.Duration("duration", duration), zap.Error(err))
		return err
	}
	log.Info("pipeline: stage complete", zap.Duration("duration", duration))
	return nil
}

// Run executes the full analysis: fetch sources, build the dataset, render
// the visualizations.
func (p *Pipeline) Run(ctx context.Context) (*Manifest, error) {
	fetched, err := p.Fetch(ctx)
	if err != nil {
		return nil, err
	}
	if _, err := p.BuildDataset(ctx, fetched); err != nil {
		return nil, err
	}
	return p.Render(ctx)
}
