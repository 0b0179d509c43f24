package od

import (
	"github.com/rotisserie/eris"

	"github.com/flowatlas/flowmap-cli/internal/fetcher"
)

// LoadLabels reads a zone label workbook (GeoID in the first column, label
// in the second) into a lookup map. Rows with an empty GeoID are skipped.
func LoadLabels(xlsxPath string) (map[string]string, error) {
	rows, err := fetcher.ReadXLSX(xlsxPath, fetcher.XLSXOptions{SkipRows: 1})
	if err != nil {
		return nil, eris.Wrap(err, "od: load labels")
	}

	labels := make(map[string]string, len(rows))
	for _, row := range rows {
		if len(row) < 2 || row[0] == "" {
			continue
		}
		labels[row[0]] = row[1]
	}
	return labels, nil
}
