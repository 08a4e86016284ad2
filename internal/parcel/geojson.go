package parcel

import (
	"os"

	geojson "github.com/paulmach/go.geojson"
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
)

// loadGeoJSON reads a FeatureCollection whose coordinates are already
// geographic lon/lat. One script variant shipped parcels this way; uid and
// pnu ride along as feature properties.
func loadGeoJSON(path string) ([]Parcel, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "parcel: open geojson %s", path)
	}

	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, eris.Wrapf(err, "parcel: parse geojson %s", path)
	}

	parcels := make([]Parcel, 0, len(fc.Features))
	for _, feat := range fc.Features {
		if feat.Geometry == nil {
			continue
		}

		var ringSets [][][]float64
		switch {
		case feat.Geometry.IsPolygon():
			ringSets = feat.Geometry.Polygon
		case feat.Geometry.IsMultiPolygon():
			for _, poly := range feat.Geometry.MultiPolygon {
				ringSets = append(ringSets, poly...)
			}
		default:
			continue // points and lines are not parcels
		}

		rings := make([][]geom.Coord, 0, len(ringSets))
		for _, ring := range ringSets {
			coords := make([]geom.Coord, 0, len(ring))
			for _, pos := range ring {
				if len(pos) < 2 {
					continue
				}
				coords = append(coords, geom.Coord{pos[0], pos[1]})
			}
			rings = append(rings, coords)
		}

		poly, err := assemblePolygon(rings)
		if err != nil {
			return nil, eris.Wrapf(err, "parcel: geojson %s", path)
		}
		if poly == nil {
			continue
		}

		parcels = append(parcels, Parcel{
			UID:      propertyString(feat, "uid"),
			PNU:      propertyString(feat, "pnu"),
			Geometry: poly,
		})
	}

	return parcels, nil
}

func propertyString(feat *geojson.Feature, key string) string {
	v, err := feat.PropertyString(key)
	if err != nil {
		return ""
	}
	return v
}
