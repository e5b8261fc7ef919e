package detectors

import (
	"math"

	"claimsight/internal/dataset"
)

// StatisticalDetector flags numeric outliers per column with two independent
// tests, Z-score and IQR, and unions them. Missing and unparseable values
// never count as anomalies.
type StatisticalDetector struct {
	ZScoreThreshold float64
	IQRMultiplier   float64
}

// NewStatisticalDetector returns a detector with the standard thresholds.
func NewStatisticalDetector() *StatisticalDetector {
	return &StatisticalDetector{
		ZScoreThreshold: 3.0,
		IQRMultiplier:   1.5,
	}
}

// DetectColumnZScore flags rows where |value - mean| / std exceeds the
// threshold. A constant or empty column has no spread, so it reports no
// anomalies instead of dividing by zero.
func (d *StatisticalDetector) DetectColumnZScore(t *dataset.Table, column string) []int {
	values, rowIDs := columnFloats(t, column)
	mean := calculateMean(values)
	std := calculateStdDev(values, mean)
	if std == 0 || math.IsNaN(std) {
		return []int{}
	}

	flagged := []int{}
	for i, v := range values {
		if math.Abs(v-mean)/std > d.ZScoreThreshold {
			flagged = append(flagged, rowIDs[i])
		}
	}
	return flagged
}

// DetectColumnIQR flags rows outside [Q1 - m*IQR, Q3 + m*IQR]. Zero IQR
// reports no anomalies.
func (d *StatisticalDetector) DetectColumnIQR(t *dataset.Table, column string) []int {
	values, rowIDs := columnFloats(t, column)
	if len(values) == 0 {
		return []int{}
	}
	q1 := quantileOf(values, 0.25)
	q3 := quantileOf(values, 0.75)
	iqr := q3 - q1
	if iqr == 0 || math.IsNaN(iqr) {
		return []int{}
	}

	lower := q1 - d.IQRMultiplier*iqr
	upper := q3 + d.IQRMultiplier*iqr
	flagged := []int{}
	for i, v := range values {
		if v < lower || v > upper {
			flagged = append(flagged, rowIDs[i])
		}
	}
	return flagged
}

// Detect runs both tests over the given numeric columns, unioning per column
// and then across columns. Columns absent from the table are skipped.
func (d *StatisticalDetector) Detect(t *dataset.Table, columns []string) StatisticalReport {
	report := StatisticalReport{
		ZScore:  make(map[string][]int, len(columns)),
		IQR:     make(map[string][]int, len(columns)),
		RowIDs:  []int{},
		Details: []ColumnOutliers{},
	}

	union := make(map[int]struct{})
	for _, column := range columns {
		if !t.HasColumn(column) {
			continue
		}

		zFlagged := d.DetectColumnZScore(t, column)
		iqrFlagged := d.DetectColumnIQR(t, column)
		report.ZScore[column] = zFlagged
		report.IQR[column] = iqrFlagged

		combined := make(map[int]struct{}, len(zFlagged)+len(iqrFlagged))
		for _, id := range zFlagged {
			combined[id] = struct{}{}
		}
		for _, id := range iqrFlagged {
			combined[id] = struct{}{}
		}
		for id := range combined {
			union[id] = struct{}{}
		}

		if len(combined) > 0 {
			report.Details = append(report.Details, ColumnOutliers{
				Column:      column,
				Method:      "statistical",
				ZScoreCount: len(zFlagged),
				IQRCount:    len(iqrFlagged),
				TotalCount:  len(combined),
				RowIDs:      dataset.SortedRowIDs(combined),
			})
		}
	}

	report.RowIDs = dataset.SortedRowIDs(union)
	report.TotalAnomalies = len(report.RowIDs)
	if t.NumRows() > 0 {
		report.AnomalyRate = float64(report.TotalAnomalies) / float64(t.NumRows())
	}
	report.ColumnsChecked = len(report.ZScore)
	return report
}
