package fetcher

import (
	"compress/gzip"
	"context"
	"encoding/csv"
	"io"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
)

// CSVOptions configures the streaming CSV parser.
type CSVOptions struct {
	Delimiter rune            // default ','
	HasHeader bool            // first row is skipped but sent to HeaderCh
	HeaderCh  chan<- []string // optional, receives the header row
	Gzipped   bool            // wrap the reader in a gzip decoder
	TrimSpace bool
}

// OpenMaybeGzip wraps r in a gzip reader when the file name carries a .gz
// suffix. LODES distributes every OD file gzipped.
func OpenMaybeGzip(r io.Reader, name string) (io.Reader, error) {
	if filepath.Ext(name) != ".gz" {
		return r, nil
	}
	gz, err := gzip.NewReader(r)
	if err != nil {
		return nil, eris.Wrapf(err, "fetcher: gzip open %s", name)
	}
	return gz, nil
}

// StreamCSV reads CSV rows from r and sends them to the returned channel.
// The caller must drain the row channel; both channels close when parsing
// finishes or fails.
func StreamCSV(ctx context.Context, r io.Reader, opts CSVOptions) (<-chan []string, <-chan error) {
	rowCh := make(chan []string, 64)
	errCh := make(chan error, 1)

	go func() {
		defer close(rowCh)
		defer close(errCh)

		src := r
		if opts.Gzipped {
			gz, err := gzip.NewReader(r)
			if err != nil {
				errCh <- eris.Wrap(err, "fetcher: csv gzip open")
				return
			}
			defer gz.Close() //nolint:errcheck
			src = gz
		}

		reader := csv.NewReader(src)
		if opts.Delimiter != 0 {
			reader.Comma = opts.Delimiter
		}
		reader.FieldsPerRecord = -1

		first := true
		for {
			if ctx.Err() != nil {
				errCh <- eris.Wrap(ctx.Err(), "fetcher: csv cancelled")
				return
			}

			record, err := reader.Read()
			if err == io.EOF {
				return
			}
			if err != nil {
				errCh <- eris.Wrap(err, "fetcher: csv read row")
				return
			}

			if opts.TrimSpace {
				for i, field := range record {
					record[i] = strings.TrimSpace(field)
				}
			}

			if first && opts.HasHeader {
				first = false
				if opts.HeaderCh != nil {
					select {
					case opts.HeaderCh <- record:
					case <-ctx.Done():
						errCh <- eris.Wrap(ctx.Err(), "fetcher: csv cancelled sending header")
						return
					}
				}
				continue
			}
			first = false

			select {
			case rowCh <- record:
			case <-ctx.Done():
				errCh <- eris.Wrap(ctx.Err(), "fetcher: csv cancelled")
				return
			}
		}
	}()

	return rowCh, errCh
}
