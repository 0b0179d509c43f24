package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/flowatlas/flowmap-cli/internal/boundary"
	"github.com/flowatlas/flowmap-cli/internal/od"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS downloads (
	url        TEXT PRIMARY KEY,
	etag       TEXT NOT NULL DEFAULT '',
	path       TEXT NOT NULL,
	fetched_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS zones (
	geoid TEXT PRIMARY KEY,
	name  TEXT NOT NULL DEFAULT '',
	lon   REAL NOT NULL,
	lat   REAL NOT NULL,
	geom  BLOB
);

CREATE TABLE IF NOT EXISTS flows (
	origin_geoid TEXT NOT NULL,
	dest_geoid   TEXT NOT NULL,
	weight       REAL NOT NULL,
	PRIMARY KEY (origin_geoid, dest_geoid)
);

CREATE TABLE IF NOT EXISTS runs (
	id         TEXT PRIMARY KEY,
	status     TEXT NOT NULL DEFAULT 'running',
	manifest   TEXT NOT NULL DEFAULT '',
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_flows_origin ON flows(origin_geoid);
CREATE INDEX IF NOT EXISTS idx_runs_status ON runs(status);
`

// Migrate applies the schema.
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// UpsertDownload records a fetched artifact, replacing any prior entry.
func (s *SQLiteStore) UpsertDownload(ctx context.Context, d Download) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO downloads (url, etag, path, fetched_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(url) DO UPDATE SET etag = excluded.etag, path = excluded.path, fetched_at = excluded.fetched_at`,
		d.URL, d.ETag, d.Path, d.FetchedAt.UTC(),
	)
	return eris.Wrapf(err, "sqlite: upsert download %s", d.URL)
}

// GetDownload returns the cached entry for the URL, or nil when absent.
func (s *SQLiteStore) GetDownload(ctx context.Context, url string) (*Download, error) {
	var d Download
	err := s.db.QueryRowContext(ctx,
		`SELECT url, etag, path, fetched_at FROM downloads WHERE url = ?`, url,
	).Scan(&d.URL, &d.ETag, &d.Path, &d.FetchedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get download %s", url)
	}
	return &d, nil
}

// ReplaceZones swaps the cached zone table for the given set in one
// transaction.
func (s *SQLiteStore) ReplaceZones(ctx context.Context, zones []boundary.Zone) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin zones tx")
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, `DELETE FROM zones`); err != nil {
		return eris.Wrap(err, "sqlite: clear zones")
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO zones (geoid, name, lon, lat, geom) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return eris.Wrap(err, "sqlite: prepare zone insert")
	}
	defer stmt.Close() //nolint:errcheck

	for _, z := range zones {
		wkb, err := boundary.EncodeWKB(z.Geometry)
		if err != nil {
			return err
		}
		if _, err := stmt.ExecContext(ctx, z.GeoID, z.Name, z.Centroid.Lon, z.Centroid.Lat, wkb); err != nil {
			return eris.Wrapf(err, "sqlite: insert zone %s", z.GeoID)
		}
	}

	return eris.Wrap(tx.Commit(), "sqlite: commit zones")
}

// ListZones returns all cached zones in GeoID order.
func (s *SQLiteStore) ListZones(ctx context.Context) ([]boundary.Zone, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT geoid, name, lon, lat, geom FROM zones ORDER BY geoid`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list zones")
	}
	defer rows.Close() //nolint:errcheck

	var zones []boundary.Zone
	for rows.Next() {
		var z boundary.Zone
		var wkb []byte
		if err := rows.Scan(&z.GeoID, &z.Name, &z.Centroid.Lon, &z.Centroid.Lat, &wkb); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan zone")
		}
		geom, err := boundary.DecodeWKB(wkb)
		if err != nil {
			return nil, err
		}
		z.Geometry = geom
		zones = append(zones, z)
	}
	return zones, eris.Wrap(rows.Err(), "sqlite: iterate zones")
}

// ReplaceFlows swaps the cached aggregated flows in one transaction.
func (s *SQLiteStore) ReplaceFlows(ctx context.Context, flows []od.Flow) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin flows tx")
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, `DELETE FROM flows`); err != nil {
		return eris.Wrap(err, "sqlite: clear flows")
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO flows (origin_geoid, dest_geoid, weight) VALUES (?, ?, ?)`)
	if err != nil {
		return eris.Wrap(err, "sqlite: prepare flow insert")
	}
	defer stmt.Close() //nolint:errcheck

	for _, f := range flows {
		if _, err := stmt.ExecContext(ctx, f.OriginGeoID, f.DestGeoID, f.Weight); err != nil {
			return eris.Wrapf(err, "sqlite: insert flow %s", f.PairID())
		}
	}

	return eris.Wrap(tx.Commit(), "sqlite: commit flows")
}

// ListFlows returns all cached flows ordered by pair.
func (s *SQLiteStore) ListFlows(ctx context.Context) ([]od.Flow, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT origin_geoid, dest_geoid, weight FROM flows ORDER BY origin_geoid, dest_geoid`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list flows")
	}
	defer rows.Close() //nolint:errcheck

	var flows []od.Flow
	for rows.Next() {
		var f od.Flow
		if err := rows.Scan(&f.OriginGeoID, &f.DestGeoID, &f.Weight); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan flow")
		}
		flows = append(flows, f)
	}
	return flows, eris.Wrap(rows.Err(), "sqlite: iterate flows")
}

// CreateRun inserts a new running run.
func (s *SQLiteStore) CreateRun(ctx context.Context) (*Run, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, status, created_at, updated_at) VALUES (?, ?, ?, ?)`,
		id, string(RunStatusRunning), now, now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert run")
	}
	return &Run{ID: id, Status: RunStatusRunning, CreatedAt: now, UpdatedAt: now}, nil
}

// FinishRun records the final status and manifest of a run.
func (s *SQLiteStore) FinishRun(ctx context.Context, runID string, status RunStatus, manifest string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET status = ?, manifest = ?, updated_at = ? WHERE id = ?`,
		string(status), manifest, time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: finish run %s", runID)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "sqlite: rows affected")
	}
	if n == 0 {
		return eris.Errorf("sqlite: run %s not found", runID)
	}
	return nil
}

// ListRuns returns runs, newest first.
func (s *SQLiteStore) ListRuns(ctx context.Context) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, status, manifest, created_at, updated_at FROM runs ORDER BY created_at DESC`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list runs")
	}
	defer rows.Close() //nolint:errcheck

	var runs []Run
	for rows.Next() {
		var r Run
		var status string
		if err := rows.Scan(&r.ID, &status, &r.Manifest, &r.CreatedAt, &r.UpdatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan run")
		}
		r.Status = RunStatus(status)
		runs = append(runs, r)
	}
	return runs, eris.Wrap(rows.Err(), "sqlite: iterate runs")
}

var _ Store = (*SQLiteStore)(nil)
