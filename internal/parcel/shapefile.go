package parcel

import (
	"strings"

	shp "github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"

	"github.com/riskatlas/riskmap-cli/internal/crs"
)

// loadShapefile reads a cadastral shapefile with projected EPSG:5179
// geometry. UID and PNU attributes are matched case-insensitively; absent
// attributes leave blank identifiers rather than failing the load.
func loadShapefile(tr *crs.Transformer, path string) ([]Parcel, error) {
	reader, err := shp.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "parcel: open shapefile %s", path)
	}
	defer func() { _ = reader.Close() }()

	uidIdx := fieldIndex(reader, "UID")
	pnuIdx := fieldIndex(reader, "PNU")

	var parcels []Parcel
	for reader.Next() {
		n, shape := reader.Shape()
		poly, ok := shape.(*shp.Polygon)
		if !ok || poly == nil {
			continue
		}

		rings := splitRings(tr, poly)
		assembled, err := assemblePolygon(rings)
		if err != nil {
			return nil, eris.Wrapf(err, "parcel: shapefile %s record %d", path, n)
		}
		if assembled == nil {
			continue
		}

		p := Parcel{Geometry: assembled}
		if uidIdx >= 0 {
			p.UID = strings.TrimSpace(reader.Attribute(uidIdx))
		}
		if pnuIdx >= 0 {
			p.PNU = strings.TrimSpace(reader.Attribute(pnuIdx))
		}
		parcels = append(parcels, p)
	}
	if err := reader.Err(); err != nil {
		return nil, eris.Wrapf(err, "parcel: read shapefile %s", path)
	}

	return parcels, nil
}

// splitRings breaks a shapefile polygon into its parts and reprojects each
// vertex to lon/lat.
func splitRings(tr *crs.Transformer, poly *shp.Polygon) [][]geom.Coord {
	rings := make([][]geom.Coord, 0, poly.NumParts)
	for i := int32(0); i < poly.NumParts; i++ {
		start := poly.Parts[i]
		end := int32(len(poly.Points))
		if i+1 < poly.NumParts {
			end = poly.Parts[i+1]
		}

		coords := make([]geom.Coord, 0, end-start)
		for _, pt := range poly.Points[start:end] {
			lon, lat := tr.ToGeographic(pt.X, pt.Y)
			coords = append(coords, geom.Coord{lon, lat})
		}
		rings = append(rings, coords)
	}
	return rings
}

// fieldIndex returns the index of a DBF field by name, -1 when absent.
func fieldIndex(reader *shp.Reader, name string) int {
	for i, f := range reader.Fields() {
		if strings.EqualFold(strings.TrimRight(f.String(), "\x00"), name) {
			return i
		}
	}
	return -1
}
