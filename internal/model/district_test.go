package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func ptr[T any](v T) *T { return &v }

func TestHasGeometry(t *testing.T) {
	t.Parallel()

	full := RiskDistrictRecord{Lon: ptr(126.71), Lat: ptr(35.03), DesignatedArea: ptr(100.0)}
	assert.True(t, full.HasGeometry())
	assert.Equal(t, GeoPoint{Lon: 126.71, Lat: 35.03}, full.Point())

	cases := map[string]RiskDistrictRecord{
		"no lon":  {Lat: ptr(35.03), DesignatedArea: ptr(100.0)},
		"no lat":  {Lon: ptr(126.71), DesignatedArea: ptr(100.0)},
		"no area": {Lon: ptr(126.71), Lat: ptr(35.03)},
		"empty":   {},
	}
	for name, r := range cases {
		assert.False(t, r.HasGeometry(), name)
	}
}

func TestMeanCenter(t *testing.T) {
	t.Parallel()

	records := []RiskDistrictRecord{
		{Lon: ptr(126.0), Lat: ptr(35.0)},
		{Lon: ptr(128.0), Lat: ptr(37.0)},
		{Name: "좌표 없음"}, // ignored
		{Lon: ptr(127.0)}, // half a pair, ignored
	}

	p, ok := MeanCenter(records)
	assert.True(t, ok)
	assert.InDelta(t, 127.0, p.Lon, 1e-9)
	assert.InDelta(t, 36.0, p.Lat, 1e-9)
}

func TestMeanCenter_NoCoordinates(t *testing.T) {
	t.Parallel()

	_, ok := MeanCenter(nil)
	assert.False(t, ok)

	_, ok = MeanCenter([]RiskDistrictRecord{{Name: "가"}, {Name: "나"}})
	assert.False(t, ok)
}
