package summary

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"

	"github.com/riskatlas/riskmap-cli/internal/model"
)

func fptr(v float64) *float64 { return &v }
func iptr(v int) *int         { return &v }
func sptr(v string) *string   { return &v }

func row(name string, grade, typeCode int, reason string, area float64, factor *string) model.RiskDistrictRecord {
	return model.RiskDistrictRecord{
		Name:              name,
		GradeCode:         iptr(grade),
		TypeCode:          iptr(typeCode),
		DesignationReason: reason,
		DesignatedArea:    fptr(area),
		RiskFactor:        factor,
	}
}

func TestAggregate_Empty(t *testing.T) {
	t.Parallel()

	s := Aggregate(nil)
	require.NotNil(t, s)
	assert.Empty(t, s.GradeCounts)
	assert.Empty(t, s.TypeCounts)
	assert.Empty(t, s.ReasonCounts)
	assert.Empty(t, s.AreaByDistrict)
	assert.Empty(t, s.RiskFactorsByDistrict)
	assert.Empty(t, s.TypeGradeCounts)

	// Non-nil groupings so the JSON encodes [] rather than null.
	assert.NotNil(t, s.GradeCounts)
	assert.NotNil(t, s.AreaByDistrict)
}

func TestAggregate_FrequencyOrdering(t *testing.T) {
	t.Parallel()

	records := []model.RiskDistrictRecord{
		row("가", 2, 1, "침수위험", 10, nil),
		row("나", 1, 2, "붕괴위험", 10, nil),
		row("다", 1, 2, "침수위험", 10, nil),
		row("라", 3, 3, "해일위험", 10, nil),
		row("마", 2, 1, "붕괴위험", 10, nil),
		row("바", 1, 2, "침수위험", 10, nil),
	}
	s := Aggregate(records)

	// Descending count; ties keep first-encounter order (grade 2 seen before 3).
	require.Len(t, s.GradeCounts, 3)
	assert.Equal(t, CodeCount{Code: 1, Count: 3}, s.GradeCounts[0])
	assert.Equal(t, CodeCount{Code: 2, Count: 2}, s.GradeCounts[1])
	assert.Equal(t, CodeCount{Code: 3, Count: 1}, s.GradeCounts[2])

	require.Len(t, s.TypeCounts, 3)
	assert.Equal(t, CodeCount{Code: 2, Count: 3}, s.TypeCounts[0])

	require.Len(t, s.ReasonCounts, 3)
	assert.Equal(t, ReasonCount{Reason: "침수위험", Count: 3}, s.ReasonCounts[0])
	assert.Equal(t, ReasonCount{Reason: "붕괴위험", Count: 2}, s.ReasonCounts[1])
	assert.Equal(t, ReasonCount{Reason: "해일위험", Count: 1}, s.ReasonCounts[2])
}

func TestAggregate_TieBreakIsFirstEncounter(t *testing.T) {
	t.Parallel()

	records := []model.RiskDistrictRecord{
		row("가", 5, 1, "", 0, nil),
		row("나", 4, 1, "", 0, nil),
		row("다", 9, 1, "", 0, nil),
	}
	s := Aggregate(records)

	require.Len(t, s.GradeCounts, 3)
	assert.Equal(t, 5, s.GradeCounts[0].Code)
	assert.Equal(t, 4, s.GradeCounts[1].Code)
	assert.Equal(t, 9, s.GradeCounts[2].Code)
}

func TestAggregate_NullCodesAreDropped(t *testing.T) {
	t.Parallel()

	r := row("가", 1, 1, "침수위험", 10, nil)
	r.GradeCode = nil
	r.TypeCode = nil

	s := Aggregate([]model.RiskDistrictRecord{r})
	assert.Empty(t, s.GradeCounts)
	assert.Empty(t, s.TypeCounts)
	assert.Empty(t, s.TypeGradeCounts)
	// The reason and district tables still see the row.
	assert.Len(t, s.ReasonCounts, 1)
	assert.Len(t, s.AreaByDistrict, 1)
}

func TestAggregate_AreaByDistrict(t *testing.T) {
	t.Parallel()

	noArea := row("학산지구", 1, 1, "침수위험", 0, nil)
	noArea.DesignatedArea = nil

	records := []model.RiskDistrictRecord{
		row("학산지구", 1, 1, "침수위험", 100.5, nil),
		row("금천지구", 2, 2, "붕괴위험", 200, nil),
		row("학산지구", 1, 1, "침수위험", 49.5, nil),
		noArea,
	}
	s := Aggregate(records)

	require.Len(t, s.AreaByDistrict, 2)
	assert.Equal(t, "학산지구", s.AreaByDistrict[0].District)
	assert.InDelta(t, 150.0, s.AreaByDistrict[0].TotalArea, 1e-9)
	assert.Equal(t, "금천지구", s.AreaByDistrict[1].District)
	assert.InDelta(t, 200.0, s.AreaByDistrict[1].TotalArea, 1e-9)
}

func TestAggregate_RiskFactorsPipeJoined(t *testing.T) {
	t.Parallel()

	records := []model.RiskDistrictRecord{
		row("학산지구", 1, 1, "", 0, sptr("호우 시 침수")),
		row("금천지구", 1, 1, "", 0, nil),
		row("학산지구", 1, 1, "", 0, nil), // absent factor is skipped, row still counted
		row("학산지구", 1, 1, "", 0, sptr("배수 불량")),
	}
	s := Aggregate(records)

	require.Len(t, s.RiskFactorsByDistrict, 2)
	assert.Equal(t, "학산지구", s.RiskFactorsByDistrict[0].District)
	assert.Equal(t, "호우 시 침수 | 배수 불량", s.RiskFactorsByDistrict[0].RiskFactors)
	assert.Equal(t, "금천지구", s.RiskFactorsByDistrict[1].District)
	assert.Equal(t, "", s.RiskFactorsByDistrict[1].RiskFactors)
}

func TestAggregate_TypeGradePivot(t *testing.T) {
	t.Parallel()

	records := []model.RiskDistrictRecord{
		row("가", 2, 3, "", 0, nil),
		row("나", 1, 1, "", 0, nil),
		row("다", 2, 3, "", 0, nil),
		row("라", 1, 3, "", 0, nil),
	}
	s := Aggregate(records)

	require.Len(t, s.TypeGradeCounts, 3)
	assert.Equal(t, TypeGradeCount{TypeCode: 1, GradeCode: 1, Count: 1}, s.TypeGradeCounts[0])
	assert.Equal(t, TypeGradeCount{TypeCode: 3, GradeCode: 1, Count: 1}, s.TypeGradeCounts[1])
	assert.Equal(t, TypeGradeCount{TypeCode: 3, GradeCode: 2, Count: 2}, s.TypeGradeCounts[2])
}

func TestWriteXLSX(t *testing.T) {
	t.Parallel()

	records := []model.RiskDistrictRecord{
		row("학산지구", 1, 2, "침수위험", 100, sptr("호우 시 침수")),
		row("금천지구", 2, 2, "붕괴위험", 200, nil),
	}
	s := Aggregate(records)

	path := filepath.Join(t.TempDir(), "summary.xlsx")
	require.NoError(t, WriteXLSX(s, path))

	file, err := xlsx.OpenFile(path)
	require.NoError(t, err)
	require.Len(t, file.Sheets, 6)

	types := file.Sheets[1]
	assert.Equal(t, "유형 코드별 지구 수", types.Name)
	require.GreaterOrEqual(t, len(types.Rows), 2)
	assert.Equal(t, "2", types.Rows[1].Cells[0].Value)
	assert.Equal(t, "2", types.Rows[1].Cells[1].Value)
}

func TestWriteXLSX_EmptySummaryWritesHeaders(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "empty.xlsx")
	require.NoError(t, WriteXLSX(Aggregate(nil), path))

	file, err := xlsx.OpenFile(path)
	require.NoError(t, err)
	require.Len(t, file.Sheets, 6)
	for _, sheet := range file.Sheets {
		require.Len(t, sheet.Rows, 1, "sheet %s should carry only its header", sheet.Name)
	}
}
