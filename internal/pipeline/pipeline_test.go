package pipeline

import (
	"archive/zip"
	"compress/gzip"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/jonas-p/go-shp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowatlas/flowmap-cli/internal/boundary"
	"github.com/flowatlas/flowmap-cli/internal/config"
	"github.com/flowatlas/flowmap-cli/internal/geo"
	"github.com/flowatlas/flowmap-cli/internal/od"
	"github.com/flowatlas/flowmap-cli/internal/store"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	cfg := &config.Config{}
	cfg.Store.Path = filepath.Join(dir, "cache.db")
	cfg.Fetch.CacheDir = filepath.Join(dir, "downloads")
	cfg.Fetch.TimeoutSecs = 5
	cfg.Data.WorkColumn = "w_geocode"
	cfg.Data.HomeColumn = "h_geocode"
	cfg.Data.WeightColumn = "S000"
	cfg.Data.GeoIDLength = 5
	cfg.Data.GeoIDField = "GEOID"
	cfg.Data.NameField = "NAME"
	cfg.Trajectory.CurveAngleDeg = -90
	cfg.Trajectory.Divisor = 6
	cfg.Render.OutputDir = filepath.Join(dir, "out")
	cfg.Render.Width = 800
	cfg.Render.Height = 600
	cfg.Render.WeightExponent = 0.4
	cfg.Render.MaxStrokeWidth = 4
	cfg.Render.MatrixMaxZones = 50
	return cfg
}

func testStore(t *testing.T, cfg *config.Config) *store.SQLiteStore {
	t.Helper()
	st, err := store.NewSQLite(cfg.Store.Path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.Migrate(context.Background()))
	return st
}

// writeZoneShapefile writes small square zones around CONUS coordinates.
func writeZoneShapefile(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "zones.shp")

	w, err := shp.Create(path, shp.POLYGON)
	require.NoError(t, err)
	w.SetFields([]shp.Field{
		shp.StringField("GEOID", 20),
		shp.StringField("NAME", 40),
	})

	zones := []struct {
		geoid, name string
		lon, lat    float64
	}{
		{"36061", "New York", -73.97, 40.78},
		{"36047", "Kings", -73.94, 40.65},
		{"36081", "Queens", -73.79, 40.70},
	}
	for i, z := range zones {
		w.Write(&shp.Polygon{
			Box:       shp.Box{MinX: z.lon, MinY: z.lat, MaxX: z.lon + 0.1, MaxY: z.lat + 0.1},
			NumParts:  1,
			NumPoints: 5,
			Parts:     []int32{0},
			Points: []shp.Point{
				{X: z.lon, Y: z.lat},
				{X: z.lon, Y: z.lat + 0.1},
				{X: z.lon + 0.1, Y: z.lat + 0.1},
				{X: z.lon + 0.1, Y: z.lat},
				{X: z.lon, Y: z.lat},
			},
		})
		w.WriteAttribute(i, 0, z.geoid)
		w.WriteAttribute(i, 1, z.name)
	}
	w.Close()
	return path
}

const testODCSV = `w_geocode,h_geocode,S000
360610001001000,360470002001000,120
360470002001000,360610001001000,45
360810003001000,360470002001000,60
360470002001000,360470002002000,999
`

func TestBuildDataset(t *testing.T) {
	cfg := testConfig(t)
	st := testStore(t, cfg)
	p := New(cfg, st)

	dir := t.TempDir()
	shpPath := writeZoneShapefile(t, dir)
	odPath := filepath.Join(dir, "od.csv")
	require.NoError(t, os.WriteFile(odPath, []byte(testODCSV), 0o644))

	stats, err := p.BuildDataset(context.Background(), &Fetched{ODPath: odPath, ShapefilePath: shpPath})
	require.NoError(t, err)

	assert.Equal(t, 3, stats.Zones)
	assert.Equal(t, 4, stats.Rows)
	assert.Equal(t, 0, stats.Rejected)
	// Last row collapses to a county self-flow and is dropped.
	assert.Equal(t, 1, stats.SelfFlows)
	assert.Equal(t, 3, stats.Pairs)

	flows, err := st.ListFlows(context.Background())
	require.NoError(t, err)
	require.Len(t, flows, 3)
	assert.Equal(t, "36047-36061", flows[0].PairID())
	assert.Equal(t, float64(120), flows[0].Weight)
}

func TestRender(t *testing.T) {
	cfg := testConfig(t)
	st := testStore(t, cfg)
	p := New(cfg, st)
	ctx := context.Background()

	require.NoError(t, st.ReplaceZones(ctx, []boundary.Zone{
		{GeoID: "36061", Name: "New York", Centroid: geo.LonLat{Lon: -73.97, Lat: 40.78}},
		{GeoID: "36047", Name: "Kings", Centroid: geo.LonLat{Lon: -73.94, Lat: 40.65}},
		{GeoID: "36081", Name: "Queens", Centroid: geo.LonLat{Lon: -73.79, Lat: 40.70}},
	}))
	require.NoError(t, st.ReplaceFlows(ctx, []od.Flow{
		{OriginGeoID: "36047", DestGeoID: "36061", Weight: 120},
		{OriginGeoID: "36061", DestGeoID: "36047", Weight: 45},
		{OriginGeoID: "36081", DestGeoID: "36061", Weight: 60},
	}))

	manifest, err := p.Render(ctx)
	require.NoError(t, err)

	assert.Equal(t, 3, manifest.Stats.Pairs)
	assert.Equal(t, 3, manifest.Stats.Zones)
	assert.Zero(t, manifest.Stats.Unmatched)
	require.Len(t, manifest.Outputs, 3)
	for _, out := range manifest.Outputs {
		info, err := os.Stat(out)
		require.NoError(t, err)
		assert.Positive(t, info.Size())
	}

	runs, err := st.ListRuns(ctx)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, store.RunStatusComplete, runs[0].Status)

	decoded, err := DecodeManifest([]byte(runs[0].Manifest))
	require.NoError(t, err)
	assert.Equal(t, manifest.RunID, decoded.RunID)
	assert.Equal(t, float64(-90), decoded.Parameters.CurveAngleDeg)
}

func TestRender_EmptyDataset(t *testing.T) {
	cfg := testConfig(t)
	st := testStore(t, cfg)
	p := New(cfg, st)

	_, err := p.Render(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dataset is empty")

	runs, listErr := st.ListRuns(context.Background())
	require.NoError(t, listErr)
	require.Len(t, runs, 1)
	assert.Equal(t, store.RunStatusFailed, runs[0].Status)
}

func TestFetch(t *testing.T) {
	cfg := testConfig(t)
	st := testStore(t, cfg)

	// Gzip the OD CSV like LODES does.
	var odCalls int
	shpDir := t.TempDir()
	shpPath := writeZoneShapefile(t, shpDir)

	mux := http.NewServeMux()
	mux.HandleFunc("/od.csv.gz", func(w http.ResponseWriter, r *http.Request) {
		odCalls++
		if r.Header.Get("If-None-Match") == `"od-v1"` {
			w.WriteHeader(http.StatusNotModified)
			return
		}
		w.Header().Set("ETag", `"od-v1"`)
		gz := gzip.NewWriter(w)
		_, _ = gz.Write([]byte(testODCSV))
		_ = gz.Close()
	})
	mux.HandleFunc("/tl_2021_36_tract.zip", func(w http.ResponseWriter, _ *http.Request) {
		zw := zip.NewWriter(w)
		for _, ext := range []string{".shp", ".shx", ".dbf"} {
			data, err := os.ReadFile(shpPath[:len(shpPath)-4] + ext)
			require.NoError(t, err)
			entry, err := zw.Create("tl_2021_36_tract" + ext)
			require.NoError(t, err)
			_, err = entry.Write(data)
			require.NoError(t, err)
		}
		_ = zw.Close()
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	cfg.Data.ODURL = srv.URL + "/od.csv.gz"
	cfg.Data.BoundaryURL = srv.URL + "/tl_2021_36_tract.zip"
	p := New(cfg, st)
	ctx := context.Background()

	fetched, err := p.Fetch(ctx)
	require.NoError(t, err)
	assert.FileExists(t, fetched.ODPath)
	assert.FileExists(t, fetched.ShapefilePath)

	// Full run over the fetched files.
	stats, err := p.BuildDataset(ctx, fetched)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Zones)
	assert.Equal(t, 3, stats.Pairs)

	// Second fetch rides the ETag cache.
	_, err = p.Fetch(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, odCalls)
}
