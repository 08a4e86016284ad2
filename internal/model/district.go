// Package model holds the domain types shared across the rendering pipeline.
package model

// GeoPoint is a longitude/latitude pair in geographic (EPSG:4326) coordinates.
type GeoPoint struct {
	Lon float64 `json:"lon"`
	Lat float64 `json:"lat"`
}

// RiskDistrictRecord is one row of the risk-district dataset. Pointer fields
// correspond to nullable CSV columns; a nil pointer means the cell was blank,
// never a zero value.
type RiskDistrictRecord struct {
	Name              string   `json:"name"`               // DST_RSK_DSTRCT_NM
	GradeCode         *int     `json:"grade_code"`         // DST_RSK_DSTRCT_GRD_CD
	TypeCode          *int     `json:"type_code"`          // DST_RSK_DSTRCT_TYPE_CD
	DistrictCode      string   `json:"district_code"`      // DST_RSK_DSTRCTCD
	RegionCode        string   `json:"region_code"`        // DST_RSK_DSTRCT_RGN_CD
	FacilityName      string   `json:"facility_name"`      // FCLT_NM
	DesignatedDate    string   `json:"designated_date"`    // DSGN_YMD
	DesignationReason string   `json:"designation_reason"` // DSGN_RSN
	DesignatedArea    *float64 `json:"designated_area"`    // DSGN_AREA, square meters
	RiskFactor        *string  `json:"risk_factor"`        // RSK_FACTR_CN, optional
	Lon               *float64 `json:"lon"`                // x
	Lat               *float64 `json:"lat"`                // y
}

// HasGeometry reports whether the row carries everything needed to draw a
// circle. Rows failing this predicate are skipped silently; that tolerance is
// intentional, the upstream dataset ships rows without coordinates.
func (r *RiskDistrictRecord) HasGeometry() bool {
	return r.Lat != nil && r.Lon != nil && r.DesignatedArea != nil
}

// Point returns the record's coordinate pair. Only valid when HasGeometry.
func (r *RiskDistrictRecord) Point() GeoPoint {
	return GeoPoint{Lon: *r.Lon, Lat: *r.Lat}
}

// MeanCenter returns the arithmetic mean of all non-null coordinate pairs.
// It is the map-center fallback when no address was geocoded. The second
// return is false when no row has usable coordinates.
func MeanCenter(records []RiskDistrictRecord) (GeoPoint, bool) {
	var sumLon, sumLat float64
	var n int
	for i := range records {
		if records[i].Lon == nil || records[i].Lat == nil {
			continue
		}
		sumLon += *records[i].Lon
		sumLat += *records[i].Lat
		n++
	}
	if n == 0 {
		return GeoPoint{}, false
	}
	return GeoPoint{Lon: sumLon / float64(n), Lat: sumLat / float64(n)}, true
}
