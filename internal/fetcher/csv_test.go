package fetcher

import (
	"bytes"
	"compress/gzip"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func drain(t *testing.T, rowCh <-chan []string, errCh <-chan error) [][]string {
	t.Helper()
	var rows [][]string
	for row := range rowCh {
		rows = append(rows, row)
	}
	require.NoError(t, <-errCh)
	return rows
}

func TestStreamCSV_Basic(t *testing.T) {
	input := "w_geocode,h_geocode,S000\n360610001001000,360470002001000,25\n360610001001000,360610003002000,3\n"
	headerCh := make(chan []string, 1)

	rowCh, errCh := StreamCSV(context.Background(), strings.NewReader(input), CSVOptions{
		HasHeader: true,
		HeaderCh:  headerCh,
	})
	rows := drain(t, rowCh, errCh)

	assert.Equal(t, []string{"w_geocode", "h_geocode", "S000"}, <-headerCh)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"360610001001000", "360470002001000", "25"}, rows[0])
}

func TestStreamCSV_Gzipped(t *testing.T) {
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	_, err := gz.Write([]byte("a,b\n1,2\n"))
	require.NoError(t, err)
	require.NoError(t, gz.Close())

	rowCh, errCh := StreamCSV(context.Background(), &buf, CSVOptions{Gzipped: true, HasHeader: true})
	rows := drain(t, rowCh, errCh)

	require.Len(t, rows, 1)
	assert.Equal(t, []string{"1", "2"}, rows[0])
}

func TestStreamCSV_TrimSpace(t *testing.T) {
	rowCh, errCh := StreamCSV(context.Background(), strings.NewReader("x , y\n"), CSVOptions{TrimSpace: true})
	rows := drain(t, rowCh, errCh)

	require.Len(t, rows, 1)
	assert.Equal(t, []string{"x", "y"}, rows[0])
}

func TestStreamCSV_BadGzip(t *testing.T) {
	rowCh, errCh := StreamCSV(context.Background(), strings.NewReader("not gzip"), CSVOptions{Gzipped: true})
	for range rowCh {
	}
	assert.Error(t, <-errCh)
}

func TestStreamCSV_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rowCh, errCh := StreamCSV(ctx, strings.NewReader("a\nb\nc\n"), CSVOptions{})
	for range rowCh {
	}
	assert.Error(t, <-errCh)
}

func TestOpenMaybeGzip(t *testing.T) {
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	_, err := gz.Write([]byte("payload"))
	require.NoError(t, err)
	require.NoError(t, gz.Close())

	r, err := OpenMaybeGzip(&buf, "ny_od_main_JT00_2021.csv.gz")
	require.NoError(t, err)
	out := make([]byte, 16)
	n, _ := r.Read(out)
	assert.Equal(t, "payload", string(out[:n]))

	plain, err := OpenMaybeGzip(strings.NewReader("raw"), "file.csv")
	require.NoError(t, err)
	out = make([]byte, 16)
	n, _ = plain.Read(out)
	assert.Equal(t, "raw", string(out[:n]))
}
