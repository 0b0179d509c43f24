// Package store caches downloaded artifacts and derived datasets in SQLite
// so repeated runs of the analysis are incremental and reproducible.
package store

import (
	"context"
	"time"

	"github.com/flowatlas/flowmap-cli/internal/boundary"
	"github.com/flowatlas/flowmap-cli/internal/od"
)

// Download records a cached remote artifact.
type Download struct {
	URL       string
	ETag      string
	Path      string
	FetchedAt time.Time
}

// RunStatus tracks a render run through its lifecycle.
type RunStatus string

// Run statuses.
const (
	RunStatusRunning  RunStatus = "running"
	RunStatusComplete RunStatus = "complete"
	RunStatusFailed   RunStatus = "failed"
)

// Run is one invocation of the pipeline, keyed by UUID.
type Run struct {
	ID        string
	Status    RunStatus
	Manifest  string // YAML manifest of parameters and outputs
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Store persists downloads, zones, aggregated flows, and runs.
type Store interface {
	Migrate(ctx context.Context) error
	Close() error

	UpsertDownload(ctx context.Context, d Download) error
	GetDownload(ctx context.Context, url string) (*Download, error)

	ReplaceZones(ctx context.Context, zones []boundary.Zone) error
	ListZones(ctx context.Context) ([]boundary.Zone, error)

	ReplaceFlows(ctx context.Context, flows []od.Flow) error
	ListFlows(ctx context.Context) ([]od.Flow, error)

	CreateRun(ctx context.Context) (*Run, error)
	FinishRun(ctx context.Context, runID string, status RunStatus, manifest string) error
	ListRuns(ctx context.Context) ([]Run, error)
}
