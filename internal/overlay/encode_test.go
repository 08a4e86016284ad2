package overlay

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/riskatlas/riskmap-cli/internal/model"
)

func TestEncodeGeoJSON_OrderAndProperties(t *testing.T) {
	t.Parallel()

	o := &MapOverlay{
		Center: model.GeoPoint{Lon: 126.71, Lat: 35.03},
		Zoom:   CloseZoom,
		Circles: []Circle{
			{Center: model.GeoPoint{Lon: 126.71, Lat: 35.03}, Radius: 10, Color: "purple", Popup: "지구"},
			{Center: model.GeoPoint{Lon: 127.0, Lat: 36.0}, Radius: 50, Color: "blue", Popup: "다른 지구"},
		},
		AddressMarker: &Marker{Point: model.GeoPoint{Lon: 126.9779, Lat: 37.5663}, Label: "세종대로 110"},
		Polygons: []PolygonShape{
			{
				Coords: [][]float64{{127.0, 36.0}, {127.01, 36.0}, {127.01, 36.01}, {127.0, 36.0}},
				Color:  "yellow",
				Popup:  "UID: u-1<br>PNU: pnu-1",
				Source: "paddy.json",
			},
		},
	}

	fc := EncodeGeoJSON(o)
	require.Len(t, fc.Features, 4)

	// Insertion order: circles, marker, polygons.
	assert.Equal(t, KindCircle, fc.Features[0].Properties["kind"])
	assert.Equal(t, KindCircle, fc.Features[1].Properties["kind"])
	assert.Equal(t, KindAddress, fc.Features[2].Properties["kind"])
	assert.Equal(t, KindParcel, fc.Features[3].Properties["kind"])

	circle := fc.Features[0]
	require.True(t, circle.Geometry.IsPoint())
	assert.Equal(t, []float64{126.71, 35.03}, circle.Geometry.Point)
	assert.Equal(t, 10.0, circle.Properties["radius"])
	assert.Equal(t, "purple", circle.Properties["color"])

	marker := fc.Features[2]
	assert.Equal(t, "세종대로 110", marker.Properties["popup"])

	poly := fc.Features[3]
	require.True(t, poly.Geometry.IsPolygon())
	assert.Equal(t, "yellow", poly.Properties["color"])
	assert.Equal(t, "paddy.json", poly.Properties["source"])
	assert.Len(t, poly.Geometry.Polygon, 1)
	assert.Len(t, poly.Geometry.Polygon[0], 4)
}

func TestEncodeGeoJSON_EmptyOverlay(t *testing.T) {
	t.Parallel()

	fc := EncodeGeoJSON(&MapOverlay{})
	assert.Empty(t, fc.Features)

	// Still a valid FeatureCollection on the wire.
	data, err := json.Marshal(fc)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"FeatureCollection"`)
}
