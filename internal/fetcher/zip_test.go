package fetcher

import (
	"archive/zip"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTestZIP(t *testing.T, entries map[string]string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.zip")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	w := zip.NewWriter(f)
	for name, content := range entries {
		entry, err := w.Create(name)
		require.NoError(t, err)
		_, err = entry.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return path
}

func TestExtractZIP(t *testing.T) {
	zipPath := writeTestZIP(t, map[string]string{
		"tl_2023_36_tract.shp": "shape data",
		"tl_2023_36_tract.dbf": "attr data",
	})
	destDir := t.TempDir()

	paths, err := ExtractZIP(zipPath, destDir)
	require.NoError(t, err)
	require.Len(t, paths, 2)

	shpPath, err := FindByExt(paths, ".shp")
	require.NoError(t, err)
	data, err := os.ReadFile(shpPath)
	require.NoError(t, err)
	assert.Equal(t, "shape data", string(data))
}

func TestExtractZIP_ZipSlip(t *testing.T) {
	zipPath := writeTestZIP(t, map[string]string{"../evil.txt": "nope"})

	_, err := ExtractZIP(zipPath, t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "illegal zip path")
}

func TestFindByExt_Missing(t *testing.T) {
	_, err := FindByExt([]string{"a.dbf", "b.prj"}, ".shp")
	assert.Error(t, err)
}
