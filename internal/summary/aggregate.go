// Package summary aggregates risk-district records into the presentation
// tables and chart-ready series shown next to the map. Aggregation is a pure
// function of the input; an empty dataset yields empty groupings, never an
// error.
package summary

import (
	"sort"
	"strings"

	"github.com/riskatlas/riskmap-cli/internal/model"
)

// CodeCount is one frequency-table row keyed by a small integer code.
type CodeCount struct {
	Code  int `json:"code"`
	Count int `json:"count"`
}

// ReasonCount is one designation-reason frequency row.
type ReasonCount struct {
	Reason string `json:"reason"`
	Count  int    `json:"count"`
}

// DistrictArea is the summed designated area for one district.
type DistrictArea struct {
	District  string  `json:"district"`
	TotalArea float64 `json:"total_area"`
}

// DistrictRiskFactors joins every risk-factor description of one district.
type DistrictRiskFactors struct {
	District    string `json:"district"`
	RiskFactors string `json:"risk_factors"`
}

// TypeGradeCount is one cell of the type-by-grade pivot.
type TypeGradeCount struct {
	TypeCode  int `json:"type_code"`
	GradeCode int `json:"grade_code"`
	Count     int `json:"count"`
}

// Summary holds every aggregation of one rendering pass.
type Summary struct {
	GradeCounts           []CodeCount           `json:"grade_counts"`
	TypeCounts            []CodeCount           `json:"type_counts"`
	ReasonCounts          []ReasonCount         `json:"reason_counts"`
	AreaByDistrict        []DistrictArea        `json:"area_by_district"`
	RiskFactorsByDistrict []DistrictRiskFactors `json:"risk_factors_by_district"`
	TypeGradeCounts       []TypeGradeCount      `json:"type_grade_counts"`
}

// Aggregate computes every summary table in one pass over the records.
// Frequency tables are ordered by descending count with ties broken by first
// encounter; per-district tables keep first-encounter order.
func Aggregate(records []model.RiskDistrictRecord) *Summary {
	s := &Summary{
		GradeCounts:           []CodeCount{},
		TypeCounts:            []CodeCount{},
		ReasonCounts:          []ReasonCount{},
		AreaByDistrict:        []DistrictArea{},
		RiskFactorsByDistrict: []DistrictRiskFactors{},
		TypeGradeCounts:       []TypeGradeCount{},
	}

	grades := newCodeTally()
	types := newCodeTally()
	reasons := newStringTally()

	areaIdx := map[string]int{}
	factorIdx := map[string]int{}
	var factors [][]string
	var factorDistricts []string

	typeGrade := map[[2]int]int{}
	var typeGradeOrder [][2]int

	for i := range records {
		r := &records[i]

		if r.GradeCode != nil {
			grades.add(*r.GradeCode)
		}
		if r.TypeCode != nil {
			types.add(*r.TypeCode)
		}
		if reason := strings.TrimSpace(r.DesignationReason); reason != "" {
			reasons.add(reason)
		}

		if name := strings.TrimSpace(r.Name); name != "" {
			if idx, ok := areaIdx[name]; ok {
				if r.DesignatedArea != nil {
					s.AreaByDistrict[idx].TotalArea += *r.DesignatedArea
				}
			} else {
				row := DistrictArea{District: name}
				if r.DesignatedArea != nil {
					row.TotalArea = *r.DesignatedArea
				}
				areaIdx[name] = len(s.AreaByDistrict)
				s.AreaByDistrict = append(s.AreaByDistrict, row)
			}

			if _, ok := factorIdx[name]; !ok {
				factorIdx[name] = len(factors)
				factors = append(factors, nil)
				factorDistricts = append(factorDistricts, name)
			}
			if r.RiskFactor != nil {
				idx := factorIdx[name]
				factors[idx] = append(factors[idx], *r.RiskFactor)
			}
		}

		if r.TypeCode != nil && r.GradeCode != nil {
			key := [2]int{*r.TypeCode, *r.GradeCode}
			if _, ok := typeGrade[key]; !ok {
				typeGradeOrder = append(typeGradeOrder, key)
			}
			typeGrade[key]++
		}
	}

	s.GradeCounts = grades.rows()
	s.TypeCounts = types.rows()
	s.ReasonCounts = reasons.rows()

	for i, name := range factorDistricts {
		s.RiskFactorsByDistrict = append(s.RiskFactorsByDistrict, DistrictRiskFactors{
			District:    name,
			RiskFactors: strings.Join(factors[i], " | "),
		})
	}

	// Pivot cells ordered by type code then grade code.
	sort.Slice(typeGradeOrder, func(i, j int) bool {
		if typeGradeOrder[i][0] != typeGradeOrder[j][0] {
			return typeGradeOrder[i][0] < typeGradeOrder[j][0]
		}
		return typeGradeOrder[i][1] < typeGradeOrder[j][1]
	})
	for _, key := range typeGradeOrder {
		s.TypeGradeCounts = append(s.TypeGradeCounts, TypeGradeCount{
			TypeCode:  key[0],
			GradeCode: key[1],
			Count:     typeGrade[key],
		})
	}

	return s
}

// codeTally counts integer codes preserving first-encounter order for ties.
type codeTally struct {
	counts map[int]int
	order  []int
}

func newCodeTally() *codeTally {
	return &codeTally{counts: map[int]int{}}
}

func (t *codeTally) add(code int) {
	if _, ok := t.counts[code]; !ok {
		t.order = append(t.order, code)
	}
	t.counts[code]++
}

func (t *codeTally) rows() []CodeCount {
	rows := make([]CodeCount, 0, len(t.order))
	for _, code := range t.order {
		rows = append(rows, CodeCount{Code: code, Count: t.counts[code]})
	}
	// SliceStable keeps first-encounter order inside equal counts.
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Count > rows[j].Count })
	return rows
}

type stringTally struct {
	counts map[string]int
	order  []string
}

func newStringTally() *stringTally {
	return &stringTally{counts: map[string]int{}}
}

func (t *stringTally) add(key string) {
	if _, ok := t.counts[key]; !ok {
		t.order = append(t.order, key)
	}
	t.counts[key]++
}

func (t *stringTally) rows() []ReasonCount {
	rows := make([]ReasonCount, 0, len(t.order))
	for _, key := range t.order {
		rows = append(rows, ReasonCount{Reason: key, Count: t.counts[key]})
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Count > rows[j].Count })
	return rows
}
