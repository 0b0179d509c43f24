package boundary

import (
	"strings"

	"github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/xy"
	"go.uber.org/zap"
	"golang.org/x/text/encoding/charmap"

	"github.com/flowatlas/flowmap-cli/internal/geo"
)

// ShapefileOptions names the DBF attributes holding the zone id and label.
// TIGER/Line products use GEOID and NAME.
type ShapefileOptions struct {
	GeoIDField string
	NameField  string
}

// DefaultShapefileOptions returns field names for TIGER/Line products.
func DefaultShapefileOptions() ShapefileOptions {
	return ShapefileOptions{GeoIDField: "GEOID", NameField: "NAME"}
}

// ParseShapefile reads polygon zones from a shapefile. Records without an
// id or without usable polygon geometry are skipped and counted. DBF text
// in TIGER files is Latin-1, so attributes are decoded before use.
func ParseShapefile(shpPath string, opts ShapefileOptions) ([]Zone, error) {
	reader, err := shp.Open(shpPath)
	if err != nil {
		return nil, eris.Wrapf(err, "boundary: open shapefile %s", shpPath)
	}
	defer func() { _ = reader.Close() }()

	fields := reader.Fields()
	fieldIdx := make(map[string]int, len(fields))
	for i, f := range fields {
		name := strings.TrimRight(f.String(), "\x00")
		fieldIdx[strings.ToLower(name)] = i
	}

	geoIDIdx, ok := fieldIdx[strings.ToLower(opts.GeoIDField)]
	if !ok {
		return nil, eris.Errorf("boundary: shapefile has no %q attribute", opts.GeoIDField)
	}
	nameIdx, hasName := fieldIdx[strings.ToLower(opts.NameField)]

	var zones []Zone
	var skipped int

	for reader.Next() {
		_, shape := reader.Shape()

		geoID := attribute(reader, geoIDIdx)
		if geoID == "" {
			skipped++
			continue
		}

		poly, ok := shape.(*shp.Polygon)
		if !ok {
			skipped++
			continue
		}
		mp := polygonToMultiPolygon(poly)
		if mp == nil {
			skipped++
			continue
		}

		centroid, err := areaCentroid(mp)
		if err != nil {
			skipped++
			continue
		}

		z := Zone{GeoID: geoID, Centroid: centroid, Geometry: mp}
		if hasName {
			z.Name = attribute(reader, nameIdx)
		}
		zones = append(zones, z)
	}

	if skipped > 0 {
		zap.L().Debug("boundary: skipped shapefile records",
			zap.String("path", shpPath),
			zap.Int("skipped", skipped),
		)
	}

	return zones, nil
}

// attribute reads a DBF attribute, trimming padding and decoding Latin-1.
func attribute(reader *shp.Reader, idx int) string {
	raw := strings.TrimRight(reader.Attribute(idx), "\x00")
	raw = strings.TrimSpace(raw)
	decoded, err := charmap.ISO8859_1.NewDecoder().String(raw)
	if err != nil {
		return raw
	}
	return decoded
}

// polygonToMultiPolygon converts a shapefile Polygon to a geom.MultiPolygon.
// Shapefile polygons store every ring as a "part"; each part becomes its own
// single-ring polygon, which is enough for centroid extraction.
func polygonToMultiPolygon(p *shp.Polygon) *geom.MultiPolygon {
	if p == nil || p.NumParts == 0 || len(p.Points) == 0 {
		return nil
	}

	mp := geom.NewMultiPolygon(geom.XY).SetSRID(geo.SRIDWGS84)

	for i := int32(0); i < p.NumParts; i++ {
		start := p.Parts[i]
		end := int32(len(p.Points))
		if i+1 < p.NumParts {
			end = p.Parts[i+1]
		}

		flat := make([]float64, 0, (end-start)*2)
		for j := start; j < end; j++ {
			flat = append(flat, p.Points[j].X, p.Points[j].Y)
		}

		ring := geom.NewLinearRingFlat(geom.XY, flat)
		poly := geom.NewPolygon(geom.XY)
		if err := poly.Push(ring); err != nil {
			zap.L().Debug("boundary: skipping malformed ring", zap.Int32("part", i), zap.Error(err))
			continue
		}
		if err := mp.Push(poly); err != nil {
			zap.L().Debug("boundary: skipping malformed polygon part", zap.Int32("part", i), zap.Error(err))
			continue
		}
	}

	if mp.NumPolygons() == 0 {
		return nil
	}
	return mp
}

// areaCentroid computes the area-weighted centroid of a multipolygon.
func areaCentroid(mp *geom.MultiPolygon) (geo.LonLat, error) {
	c, err := xy.Centroid(mp)
	if err != nil {
		return geo.LonLat{}, eris.Wrap(err, "boundary: centroid")
	}
	return geo.LonLat{Lon: c.X(), Lat: c.Y()}, nil
}
