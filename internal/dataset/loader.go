// Package dataset reads the risk-district CSV into domain records.
//
// The file is read fresh on every rendering pass; records are never mutated
// or written back. A missing file or a missing required column is fatal for
// the pass, while blank cells in nullable columns are preserved as nil
// pointers so the overlay builder can filter them.
package dataset

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/text/encoding/korean"
	"golang.org/x/text/transform"

	"github.com/riskatlas/riskmap-cli/internal/model"
)

// Required columns of the risk-district dataset.
const (
	colLon            = "x"
	colLat            = "y"
	colName           = "DST_RSK_DSTRCT_NM"
	colGradeCode      = "DST_RSK_DSTRCT_GRD_CD"
	colTypeCode       = "DST_RSK_DSTRCT_TYPE_CD"
	colDistrictCode   = "DST_RSK_DSTRCTCD"
	colRegionCode     = "DST_RSK_DSTRCT_RGN_CD"
	colFacilityName   = "FCLT_NM"
	colDesignatedDate = "DSGN_YMD"
	colReason         = "DSGN_RSN"
	colArea           = "DSGN_AREA"
	colRiskFactor     = "RSK_FACTR_CN"
)

var requiredColumns = []string{
	colLon, colLat, colName, colGradeCode, colTypeCode, colDistrictCode,
	colRegionCode, colFacilityName, colDesignatedDate, colReason, colArea,
	colRiskFactor,
}

// Option configures the loader.
type Option func(*loader)

// WithEncoding sets the source encoding. "utf-8" (default) reads the file as
// is; "euc-kr" decodes legacy Korean exports through x/text before parsing.
func WithEncoding(enc string) Option {
	return func(l *loader) {
		l.encoding = strings.ToLower(strings.TrimSpace(enc))
	}
}

type loader struct {
	encoding string
}

// Load reads the CSV at path and returns one record per data row.
func Load(path string, opts ...Option) ([]model.RiskDistrictRecord, error) {
	l := &loader{encoding: "utf-8"}
	for _, opt := range opts {
		opt(l)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "dataset: open %s", path)
	}
	defer f.Close() //nolint:errcheck

	var r io.Reader = f
	switch l.encoding {
	case "", "utf-8", "utf8":
		// as is
	case "euc-kr", "euckr", "cp949":
		r = transform.NewReader(f, korean.EUCKR.NewDecoder())
	default:
		return nil, eris.Errorf("dataset: unsupported encoding %q", l.encoding)
	}

	return parse(r, path)
}

func parse(r io.Reader, path string) ([]model.RiskDistrictRecord, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1 // ragged rows happen; missing cells become blanks

	header, err := reader.Read()
	if err != nil {
		return nil, eris.Wrapf(err, "dataset: read header of %s", path)
	}
	idx, err := columnIndex(header)
	if err != nil {
		return nil, eris.Wrapf(err, "dataset: %s", path)
	}

	var records []model.RiskDistrictRecord
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, eris.Wrapf(err, "dataset: read row of %s", path)
		}

		cell := func(col string) string {
			i := idx[col]
			if i >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[i])
		}

		records = append(records, model.RiskDistrictRecord{
			Name:              cell(colName),
			GradeCode:         parseIntCell(cell(colGradeCode)),
			TypeCode:          parseIntCell(cell(colTypeCode)),
			DistrictCode:      cell(colDistrictCode),
			RegionCode:        cell(colRegionCode),
			FacilityName:      cell(colFacilityName),
			DesignatedDate:    cell(colDesignatedDate),
			DesignationReason: cell(colReason),
			DesignatedArea:    parseFloatCell(cell(colArea)),
			RiskFactor:        parseStringCell(cell(colRiskFactor)),
			Lon:               parseFloatCell(cell(colLon)),
			Lat:               parseFloatCell(cell(colLat)),
		})
	}

	zap.L().Debug("dataset loaded",
		zap.String("path", path),
		zap.Int("records", len(records)),
	)
	return records, nil
}

// columnIndex maps required column names to positions, failing on any
// missing column.
func columnIndex(header []string) (map[string]int, error) {
	idx := make(map[string]int, len(header))
	for i, name := range header {
		idx[strings.TrimSpace(name)] = i
	}

	var missing []string
	for _, col := range requiredColumns {
		if _, ok := idx[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, eris.Errorf("missing required columns %s", strings.Join(missing, ", "))
	}
	return idx, nil
}

// parseFloatCell returns nil for blank or unparseable cells. Garbage in a
// numeric column is treated like a blank, matching the silent row-skip
// tolerance downstream.
func parseFloatCell(s string) *float64 {
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &v
}

func parseIntCell(s string) *int {
	if s == "" {
		return nil
	}
	// Some exports carry integer codes as "2.0".
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		v := int(f)
		return &v
	}
	return nil
}

func parseStringCell(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
