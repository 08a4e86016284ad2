// Package overlay composes the map artifact of one rendering pass: risk
// district circles, at most one address marker, and parcel polygons, in a
// deterministic stacking order the renderer must preserve.
package overlay

import (
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/riskatlas/riskmap-cli/internal/model"
	"github.com/riskatlas/riskmap-cli/internal/parcel"
)

// Zoom levels of the two centering modes.
const (
	CloseZoom = 15 // centered on a geocoded address
	WideZoom  = 8  // centered on the dataset centroid
)

// typeColors keys circle colors on the district type code. Unknown codes get
// the fallback so they stay visible and visually distinct.
var typeColors = map[int]string{
	1: "blue",
	2: "purple",
	3: "gray",
	4: "orange",
	5: "green",
	6: "darkblue",
}

const fallbackColor = "red"

// Circle is one risk district drawn as a filled circle.
type Circle struct {
	Center model.GeoPoint
	Radius float64 // meters, sqrt of the designated area
	Color  string
	Popup  string
}

// Marker is the single optional address pin.
type Marker struct {
	Point model.GeoPoint
	Label string
}

// PolygonShape is one filled parcel ring. Multi-ring parcels contribute one
// shape per ring; rings never act as holes.
type PolygonShape struct {
	Coords [][]float64 // lon/lat ring, closed
	Color  string
	Popup  string
	Source string // base name of the parcel file
}

// MapOverlay is the mutable artifact of a single rendering pass. It is owned
// by the pass that builds it and discarded after encoding; insertion order
// is the stacking order (last added draws on top).
type MapOverlay struct {
	Center        model.GeoPoint
	Zoom          int
	Circles       []Circle
	AddressMarker *Marker
	Polygons      []PolygonShape
	Warnings      []string
}

// AddressPin carries the raw address text a user typed plus the geocoded
// point, nil when geocoding failed or no address was given. Splitting the
// two is what lets the build degrade instead of aborting.
type AddressPin struct {
	Text  string
	Point *model.GeoPoint
}

// Build assembles the overlay: center and zoom, circles for every row with
// geometry, the address marker when geocoding succeeded, then parcel shapes
// in configured group order.
func Build(records []model.RiskDistrictRecord, addr AddressPin, groups []parcel.Group) *MapOverlay {
	o := &MapOverlay{}

	o.Center, o.Zoom = center(records, addr, o)

	for i := range records {
		r := &records[i]
		if !r.HasGeometry() {
			continue // intentional tolerance, the dataset ships rows without coordinates
		}
		o.Circles = append(o.Circles, Circle{
			Center: r.Point(),
			Radius: math.Sqrt(*r.DesignatedArea),
			Color:  colorForType(r.TypeCode),
			Popup:  districtPopup(r),
		})
	}

	if addr.Point != nil {
		o.AddressMarker = &Marker{Point: *addr.Point, Label: addr.Text}
	}

	for _, g := range groups {
		for _, p := range g.Parcels {
			popup := fmt.Sprintf("UID: %s<br>PNU: %s", p.UID, p.PNU)
			for i := 0; i < p.Geometry.NumLinearRings(); i++ {
				ring := p.Geometry.LinearRing(i)
				coords := make([][]float64, 0, ring.NumCoords())
				for _, c := range ring.Coords() {
					coords = append(coords, []float64{c[0], c[1]})
				}
				o.Polygons = append(o.Polygons, PolygonShape{
					Coords: coords,
					Color:  g.Color,
					Popup:  popup,
					Source: g.Name,
				})
			}
		}
	}

	zap.L().Debug("overlay built",
		zap.Int("circles", len(o.Circles)),
		zap.Int("polygons", len(o.Polygons)),
		zap.Bool("address_marker", o.AddressMarker != nil),
		zap.Int("zoom", o.Zoom),
	)
	return o
}

// center picks the map center: the geocoded address zoomed in, else the
// dataset centroid zoomed out. The centroid fallback on geocode failure is
// contractual, with a user-visible warning appended.
func center(records []model.RiskDistrictRecord, addr AddressPin, o *MapOverlay) (model.GeoPoint, int) {
	if addr.Point != nil {
		return *addr.Point, CloseZoom
	}
	if addr.Text != "" {
		o.Warnings = append(o.Warnings,
			fmt.Sprintf("주소 %q 의 좌표를 찾지 못했습니다. 지도 중심을 데이터 평균 좌표로 대체합니다.", addr.Text))
	}

	if mean, ok := model.MeanCenter(records); ok {
		return mean, WideZoom
	}

	// Nothing to center on at all; fall back to the Unified CS natural origin.
	o.Warnings = append(o.Warnings, "데이터셋에 좌표가 없어 기본 중심을 사용합니다.")
	return model.GeoPoint{Lon: 127.5, Lat: 38.0}, WideZoom
}

// colorForType returns the circle color for a district type code.
func colorForType(code *int) string {
	if code == nil {
		return fallbackColor
	}
	if c, ok := typeColors[*code]; ok {
		return c
	}
	return fallbackColor
}

// districtPopup renders the popup body with every descriptive field of the
// record, mirroring the upstream dashboard labels.
func districtPopup(r *model.RiskDistrictRecord) string {
	return fmt.Sprintf(
		"<b>재해위험지구관리번호:</b> %s<br>"+
			"<b>재해위험지구등급코드:</b> %s<br>"+
			"<b>재해위험지구유형코드:</b> %s<br>"+
			"<b>재해위험지구코드:</b> %s<br>"+
			"<b>재해위험지구지역코드:</b> %s<br>"+
			"<b>시설명:</b> %s<br>"+
			"<b>지정일자:</b> %s<br>"+
			"<b>지정사유:</b> %s",
		r.Name,
		intCell(r.GradeCode),
		intCell(r.TypeCode),
		r.DistrictCode,
		r.RegionCode,
		r.FacilityName,
		r.DesignatedDate,
		r.DesignationReason,
	)
}

func intCell(v *int) string {
	if v == nil {
		return ""
	}
	return fmt.Sprintf("%d", *v)
}
