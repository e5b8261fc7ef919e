package detectors

import (
	"claimsight/internal/dataset"
)

// MissingDetector flags rows with at least one missing cell. It is pure and
// carries no configuration.
type MissingDetector struct{}

// NewMissingDetector returns the detector.
func NewMissingDetector() *MissingDetector {
	return &MissingDetector{}
}

// Detect counts missing cells per column and flags every row with one or
// more missing cells. A row flagged through several columns still appears
// once in RowIDs.
func (d *MissingDetector) Detect(t *dataset.Table) MissingReport {
	report := MissingReport{
		Counts:      make(map[string]int, t.NumCols()),
		Percentages: make(map[string]float64, t.NumCols()),
		RowIDs:      []int{},
		Columns:     []string{},
	}

	flagged := make(map[int]struct{})
	for _, column := range t.Columns() {
		count := 0
		for i, cell := range t.Column(column) {
			if cell.IsMissing() {
				count++
				flagged[i] = struct{}{}
			}
		}
		report.Counts[column] = count
		if t.NumRows() > 0 {
			report.Percentages[column] = float64(count) / float64(t.NumRows()) * 100
		} else {
			report.Percentages[column] = 0
		}
		if count > 0 {
			report.Columns = append(report.Columns, column)
		}
	}

	report.RowIDs = dataset.SortedRowIDs(flagged)
	report.RowCount = len(report.RowIDs)
	return report
}
