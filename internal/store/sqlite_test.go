package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-geom"

	"github.com/flowatlas/flowmap-cli/internal/boundary"
	geopkg "github.com/flowatlas/flowmap-cli/internal/geo"
	"github.com/flowatlas/flowmap-cli/internal/od"
)

func testStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLite(filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	require.NoError(t, s.Migrate(context.Background()))
	return s
}

func TestDownloads(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	got, err := s.GetDownload(ctx, "https://example.com/a.zip")
	require.NoError(t, err)
	assert.Nil(t, got)

	d := Download{
		URL:       "https://example.com/a.zip",
		ETag:      `"v1"`,
		Path:      "/tmp/a.zip",
		FetchedAt: time.Now().UTC().Truncate(time.Second),
	}
	require.NoError(t, s.UpsertDownload(ctx, d))

	got, err = s.GetDownload(ctx, d.URL)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, `"v1"`, got.ETag)

	d.ETag = `"v2"`
	require.NoError(t, s.UpsertDownload(ctx, d))
	got, err = s.GetDownload(ctx, d.URL)
	require.NoError(t, err)
	assert.Equal(t, `"v2"`, got.ETag)
}

func TestZonesRoundTrip(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	mp := geom.NewMultiPolygon(geom.XY).SetSRID(geopkg.SRIDWGS84)
	poly := geom.NewPolygon(geom.XY)
	require.NoError(t, poly.Push(geom.NewLinearRingFlat(geom.XY, []float64{0, 0, 0, 1, 1, 1, 1, 0, 0, 0})))
	require.NoError(t, mp.Push(poly))

	zones := []boundary.Zone{
		{GeoID: "36047", Name: "Kings", Centroid: geopkg.LonLat{Lon: -73.9, Lat: 40.6}, Geometry: mp},
		{GeoID: "36061", Name: "New York", Centroid: geopkg.LonLat{Lon: -73.97, Lat: 40.78}},
	}
	require.NoError(t, s.ReplaceZones(ctx, zones))

	got, err := s.ListZones(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "36047", got[0].GeoID)
	assert.NotNil(t, got[0].Geometry)
	assert.Nil(t, got[1].Geometry)
	assert.InDelta(t, -73.9, got[0].Centroid.Lon, 1e-9)

	// Replace is a full swap.
	require.NoError(t, s.ReplaceZones(ctx, zones[:1]))
	got, err = s.ListZones(ctx)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestFlowsRoundTrip(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	flows := []od.Flow{
		{OriginGeoID: "a", DestGeoID: "b", Weight: 12},
		{OriginGeoID: "b", DestGeoID: "a", Weight: 3},
	}
	require.NoError(t, s.ReplaceFlows(ctx, flows))

	got, err := s.ListFlows(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "a-b", got[0].PairID())
	assert.Equal(t, float64(12), got[0].Weight)
}

func TestRunLifecycle(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	run, err := s.CreateRun(ctx)
	require.NoError(t, err)
	assert.Equal(t, RunStatusRunning, run.Status)
	assert.NotEmpty(t, run.ID)

	require.NoError(t, s.FinishRun(ctx, run.ID, RunStatusComplete, "outputs:\n- flowmap.svg\n"))

	runs, err := s.ListRuns(ctx)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, RunStatusComplete, runs[0].Status)
	assert.Contains(t, runs[0].Manifest, "flowmap.svg")

	err = s.FinishRun(ctx, "missing-id", RunStatusFailed, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}
