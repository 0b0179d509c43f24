package boundary

import (
	"context"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/flowatlas/flowmap-cli/internal/fetcher"
)

// Downloader retrieves boundary ZIPs over HTTP or the census FTP mirror.
type Downloader struct {
	httpFetcher *fetcher.HTTPFetcher
	ftpFetcher  *fetcher.FTPFetcher
	cacheDir    string
}

// NewDownloader creates a Downloader caching archives under cacheDir.
func NewDownloader(httpF *fetcher.HTTPFetcher, ftpF *fetcher.FTPFetcher, cacheDir string) *Downloader {
	return &Downloader{httpFetcher: httpF, ftpFetcher: ftpF, cacheDir: cacheDir}
}

// Fetch downloads the boundary archive (unless already cached), extracts it,
// and returns the path to the contained .shp file.
func (d *Downloader) Fetch(ctx context.Context, rawURL string) (string, error) {
	log := zap.L().With(zap.String("component", "boundary.download"), zap.String("url", rawURL))

	u, err := url.Parse(rawURL)
	if err != nil {
		return "", eris.Wrapf(err, "boundary: parse url %s", rawURL)
	}
	zipName := filepath.Base(u.Path)
	if !strings.HasSuffix(zipName, ".zip") {
		return "", eris.Errorf("boundary: expected .zip url, got %s", rawURL)
	}
	zipPath := filepath.Join(d.cacheDir, zipName)

	if info, statErr := os.Stat(zipPath); statErr == nil && info.Size() > 0 {
		log.Debug("boundary: archive cached, skipping download", zap.String("path", zipPath))
	} else {
		log.Info("boundary: downloading archive")
		var dlErr error
		switch u.Scheme {
		case "ftp":
			_, dlErr = d.ftpFetcher.DownloadToFile(ctx, rawURL, zipPath)
		case "http", "https":
			_, dlErr = d.httpFetcher.DownloadToFile(ctx, rawURL, zipPath)
		default:
			return "", eris.Errorf("boundary: unsupported scheme %q", u.Scheme)
		}
		if dlErr != nil {
			return "", eris.Wrap(dlErr, "boundary: download archive")
		}
	}

	extractDir := filepath.Join(d.cacheDir, strings.TrimSuffix(zipName, ".zip"))
	if err := os.MkdirAll(extractDir, 0o755); err != nil {
		return "", eris.Wrap(err, "boundary: create extract dir")
	}

	extracted, err := fetcher.ExtractZIP(zipPath, extractDir)
	if err != nil {
		return "", eris.Wrap(err, "boundary: extract archive")
	}

	shpPath, err := fetcher.FindByExt(extracted, ".shp")
	if err != nil {
		return "", eris.Wrap(err, "boundary: locate shapefile")
	}
	return shpPath, nil
}
