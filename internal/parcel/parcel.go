// Package parcel loads cadastral parcel polygons from per-category source
// files and reprojects them to geographic coordinates.
//
// Three source formats are accepted, selected by file extension: farmmap
// .json exports (projected EPSG:5179 vertices), .geojson FeatureCollections
// (already geographic), and .shp cadastral shapefiles (projected). A missing
// or malformed source file fails the whole load; parcels are transient and
// re-read on every rendering pass.
package parcel

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/riskatlas/riskmap-cli/internal/crs"
)

// Source is one configured parcel file plus the fill color for its category.
type Source struct {
	Path  string
	Color string
}

// Parcel is a single cadastral unit. Geometry is carried in geographic
// lon/lat (XY) coordinates; each linear ring is drawn as an independent
// filled shape downstream, so rings never act as holes here.
type Parcel struct {
	UID      string
	PNU      string
	Geometry *geom.Polygon
}

// Group holds all parcels of one source file together with its color.
// Groups preserve configured source order.
type Group struct {
	Name    string // base name of the source file
	Color   string
	Parcels []Parcel
}

const loadConcurrency = 4

// LoadSources reads every configured source, reprojecting projected formats
// through tr. Files load concurrently but the returned slice follows the
// configured order, which downstream consumers rely on for stacking.
func LoadSources(ctx context.Context, tr *crs.Transformer, sources []Source) ([]Group, error) {
	if len(sources) == 0 {
		return nil, nil
	}

	groups := make([]Group, len(sources))

	eg, gCtx := errgroup.WithContext(ctx)
	eg.SetLimit(loadConcurrency)

	for i, src := range sources {
		i, src := i, src
		eg.Go(func() error {
			if err := gCtx.Err(); err != nil {
				return eris.Wrap(err, "parcel: load cancelled")
			}

			parcels, err := loadFile(tr, src.Path)
			if err != nil {
				return err
			}
			groups[i] = Group{
				Name:    filepath.Base(src.Path),
				Color:   src.Color,
				Parcels: parcels,
			}
			zap.L().Debug("parcel source loaded",
				zap.String("path", src.Path),
				zap.Int("parcels", len(parcels)),
			)
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return groups, nil
}

// loadFile dispatches on the source file extension.
func loadFile(tr *crs.Transformer, path string) ([]Parcel, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return loadFarmmap(tr, path)
	case ".geojson":
		return loadGeoJSON(path)
	case ".shp":
		return loadShapefile(tr, path)
	default:
		return nil, eris.Errorf("parcel: unsupported source extension %q", filepath.Ext(path))
	}
}

// assemblePolygon builds a geographic polygon from lon/lat rings, dropping
// degenerate rings with fewer than three vertices. Returns nil when nothing
// usable remains.
func assemblePolygon(rings [][]geom.Coord) (*geom.Polygon, error) {
	p := geom.NewPolygon(geom.XY)
	for _, ring := range rings {
		if len(ring) < 3 {
			continue
		}
		// Rings are assumed closed; close them if the source left them open.
		if !ring[0].Equal(geom.XY, ring[len(ring)-1]) {
			ring = append(ring, ring[0])
		}
		lr := geom.NewLinearRing(geom.XY)
		if _, err := lr.SetCoords(ring); err != nil {
			return nil, eris.Wrap(err, "parcel: assemble ring")
		}
		if err := p.Push(lr); err != nil {
			return nil, eris.Wrap(err, "parcel: push ring")
		}
	}
	if p.NumLinearRings() == 0 {
		return nil, nil
	}
	return p, nil
}
