package summary

import (
	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
)

// WriteXLSX exports every summary table to one workbook, one sheet per
// table, for offline review. Headers are written even when a table is empty.
func WriteXLSX(s *Summary, path string) error {
	file := xlsx.NewFile()

	if err := writeCodeSheet(file, "재해등급 코드 빈도", "등급 코드", s.GradeCounts); err != nil {
		return err
	}
	if err := writeCodeSheet(file, "유형 코드별 지구 수", "유형 코드", s.TypeCounts); err != nil {
		return err
	}

	sheet, err := file.AddSheet("지정사유 빈도")
	if err != nil {
		return eris.Wrap(err, "summary: add reason sheet")
	}
	header := sheet.AddRow()
	header.AddCell().Value = "지정사유"
	header.AddCell().Value = "빈도"
	for _, r := range s.ReasonCounts {
		row := sheet.AddRow()
		row.AddCell().Value = r.Reason
		row.AddCell().SetInt(r.Count)
	}

	sheet, err = file.AddSheet("지구별 총 지정 면적")
	if err != nil {
		return eris.Wrap(err, "summary: add area sheet")
	}
	header = sheet.AddRow()
	header.AddCell().Value = "지구명"
	header.AddCell().Value = "총 지정 면적"
	for _, a := range s.AreaByDistrict {
		row := sheet.AddRow()
		row.AddCell().Value = a.District
		row.AddCell().SetFloat(a.TotalArea)
	}

	sheet, err = file.AddSheet("지구별 위험 요인")
	if err != nil {
		return eris.Wrap(err, "summary: add risk factor sheet")
	}
	header = sheet.AddRow()
	header.AddCell().Value = "지구명"
	header.AddCell().Value = "위험 요인"
	for _, f := range s.RiskFactorsByDistrict {
		row := sheet.AddRow()
		row.AddCell().Value = f.District
		row.AddCell().Value = f.RiskFactors
	}

	sheet, err = file.AddSheet("유형별 등급 분포")
	if err != nil {
		return eris.Wrap(err, "summary: add pivot sheet")
	}
	header = sheet.AddRow()
	header.AddCell().Value = "유형 코드"
	header.AddCell().Value = "등급 코드"
	header.AddCell().Value = "지구 수"
	for _, tg := range s.TypeGradeCounts {
		row := sheet.AddRow()
		row.AddCell().SetInt(tg.TypeCode)
		row.AddCell().SetInt(tg.GradeCode)
		row.AddCell().SetInt(tg.Count)
	}

	if err := file.Save(path); err != nil {
		return eris.Wrapf(err, "summary: save %s", path)
	}
	return nil
}

func writeCodeSheet(file *xlsx.File, name, keyHeader string, rows []CodeCount) error {
	sheet, err := file.AddSheet(name)
	if err != nil {
		return eris.Wrapf(err, "summary: add sheet %s", name)
	}
	header := sheet.AddRow()
	header.AddCell().Value = keyHeader
	header.AddCell().Value = "빈도"
	for _, r := range rows {
		row := sheet.AddRow()
		row.AddCell().SetInt(r.Code)
		row.AddCell().SetInt(r.Count)
	}
	return nil
}
