package overlay

import (
	geojson "github.com/paulmach/go.geojson"
)

// Feature kinds emitted by EncodeGeoJSON.
const (
	KindCircle  = "circle"
	KindAddress = "address"
	KindParcel  = "parcel"
)

// EncodeGeoJSON flattens the overlay into a FeatureCollection for the map
// page. Feature order equals overlay insertion order: circles, then the
// optional address marker, then parcel shapes; the renderer draws in order
// so the last feature stacks on top.
//
// Circles become Point features carrying a radius property in meters, the
// contract Leaflet's L.circle expects.
func EncodeGeoJSON(o *MapOverlay) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()

	for _, c := range o.Circles {
		f := geojson.NewPointFeature([]float64{c.Center.Lon, c.Center.Lat})
		f.SetProperty("kind", KindCircle)
		f.SetProperty("radius", c.Radius)
		f.SetProperty("color", c.Color)
		f.SetProperty("popup", c.Popup)
		fc.AddFeature(f)
	}

	if m := o.AddressMarker; m != nil {
		f := geojson.NewPointFeature([]float64{m.Point.Lon, m.Point.Lat})
		f.SetProperty("kind", KindAddress)
		f.SetProperty("popup", m.Label)
		fc.AddFeature(f)
	}

	for _, p := range o.Polygons {
		f := geojson.NewPolygonFeature([][][]float64{p.Coords})
		f.SetProperty("kind", KindParcel)
		f.SetProperty("color", p.Color)
		f.SetProperty("popup", p.Popup)
		f.SetProperty("source", p.Source)
		fc.AddFeature(f)
	}

	return fc
}
