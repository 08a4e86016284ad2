package parcel

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"

	"github.com/riskatlas/riskmap-cli/internal/crs"
)

// farmmapFile mirrors the farmmap export envelope:
// {output: {farmmapData: {data: [{uid, pnu, geometry: [{xy: [{x, y}...]}...]}...]}}}
type farmmapFile struct {
	Output struct {
		FarmmapData struct {
			Data []farmmapItem `json:"data"`
		} `json:"farmmapData"`
	} `json:"output"`
}

type farmmapItem struct {
	UID      string        `json:"uid"`
	PNU      string        `json:"pnu"`
	Geometry []farmmapRing `json:"geometry"`
}

type farmmapRing struct {
	XY []farmmapVertex `json:"xy"`
}

type farmmapVertex struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// loadFarmmap reads a farmmap JSON export whose vertices are projected
// EPSG:5179 coordinates, reprojecting every ring to lon/lat.
func loadFarmmap(tr *crs.Transformer, path string) ([]Parcel, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "parcel: open farmmap %s", path)
	}

	var file farmmapFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, eris.Wrapf(err, "parcel: parse farmmap %s", path)
	}

	parcels := make([]Parcel, 0, len(file.Output.FarmmapData.Data))
	for _, item := range file.Output.FarmmapData.Data {
		rings := make([][]geom.Coord, 0, len(item.Geometry))
		for _, ring := range item.Geometry {
			coords := make([]geom.Coord, 0, len(ring.XY))
			for _, v := range ring.XY {
				lon, lat := tr.ToGeographic(v.X, v.Y)
				coords = append(coords, geom.Coord{lon, lat})
			}
			rings = append(rings, coords)
		}

		poly, err := assemblePolygon(rings)
		if err != nil {
			return nil, eris.Wrapf(err, "parcel: farmmap %s uid %s", path, item.UID)
		}
		if poly == nil {
			continue
		}
		parcels = append(parcels, Parcel{UID: item.UID, PNU: item.PNU, Geometry: poly})
	}

	return parcels, nil
}
