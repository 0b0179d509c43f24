package pipeline

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/flowatlas/flowmap-cli/internal/store"
)

// Fetched holds the local paths of the downloaded sources.
type Fetched struct {
	ODPath        string
	ShapefilePath string
}

// Fetch downloads the OD file and the boundary archive concurrently,
// reusing cached copies when ETags match.
func (p *Pipeline) Fetch(ctx context.Context) (*Fetched, error) {
	var out Fetched

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return stage("fetch-od", func() error {
			path, err := p.fetchOD(gctx)
			if err != nil {
				return err
			}
			out.ODPath = path
			return nil
		})
	})

	g.Go(func() error {
		return stage("fetch-boundary", func() error {
			shpPath, err := p.downloader.Fetch(gctx, p.cfg.Data.BoundaryURL)
			if err != nil {
				return err
			}
			out.ShapefilePath = shpPath
			return p.store.UpsertDownload(gctx, store.Download{
				URL:       p.cfg.Data.BoundaryURL,
				Path:      shpPath,
				FetchedAt: time.Now().UTC(),
			})
		})
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &out, nil
}

// fetchOD downloads the OD CSV with conditional requests against the cached
// ETag, keeping the raw (possibly gzipped) payload on disk.
func (p *Pipeline) fetchOD(ctx context.Context) (string, error) {
	url := p.cfg.Data.ODURL
	localPath := filepath.Join(p.cfg.Fetch.CacheDir, filepath.Base(url))

	cached, err := p.store.GetDownload(ctx, url)
	if err != nil {
		return "", err
	}

	etag := ""
	if cached != nil {
		if _, statErr := os.Stat(cached.Path); statErr == nil {
			etag = cached.ETag
			localPath = cached.Path
		}
	}

	body, newETag, changed, err := p.httpF.DownloadIfChanged(ctx, url, etag)
	if err != nil {
		return "", err
	}
	if !changed {
		zap.L().Info("pipeline: od file unchanged, using cache", zap.String("path", localPath))
		return localPath, nil
	}
	defer body.Close() //nolint:errcheck

	if err := os.MkdirAll(filepath.Dir(localPath), 0o755); err != nil {
		return "", eris.Wrap(err, "pipeline: create cache dir")
	}
	file, err := os.Create(localPath)
	if err != nil {
		return "", eris.Wrap(err, "pipeline: create od file")
	}
	defer file.Close() //nolint:errcheck

	if _, err := io.Copy(file, body); err != nil {
		return "", eris.Wrap(err, "pipeline: write od file")
	}

	if err := p.store.UpsertDownload(ctx, store.Download{
		URL:       url,
		ETag:      newETag,
		Path:      localPath,
		FetchedAt: time.Now().UTC(),
	}); err != nil {
		return "", err
	}
	return localPath, nil
}
