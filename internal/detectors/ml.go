package detectors

import (
	"errors"
	"math"

	"claimsight/internal/dataset"
)

// ErrNoNumericColumns is returned when feature extraction finds nothing to
// build a matrix from.
var ErrNoNumericColumns = errors.New("no numeric columns available for feature extraction")

// MLDetector flags outliers with two unsupervised models, isolation forest
// and local outlier factor, over a shared standardized feature matrix. Each
// model's failure is downgraded to a zeroed result carrying the message, so
// a degenerate input never aborts the detection run.
type MLDetector struct {
	Contamination float64
	Trees         int
	Neighbors     int
	Seed          int64
}

// NewMLDetector returns a detector with the standard hyperparameters and a
// fixed seed, so reruns over the same table flag the same rows.
func NewMLDetector() *MLDetector {
	return &MLDetector{
		Contamination: 0.1,
		Trees:         100,
		Neighbors:     20,
		Seed:          42,
	}
}

// featureMatrix builds one feature row per table row from the given numeric
// columns. Missing and unparseable cells are imputed with the column median,
// then every column is standardized to zero mean and unit variance. Scaling
// statistics are computed from scratch on every call; nothing leaks between
// tables.
func (d *MLDetector) featureMatrix(t *dataset.Table, columns []string) ([][]float64, []string, error) {
	used := make([]string, 0, len(columns))
	for _, column := range columns {
		if t.HasColumn(column) {
			used = append(used, column)
		}
	}
	if len(used) == 0 {
		return nil, nil, ErrNoNumericColumns
	}

	n := t.NumRows()
	matrix := make([][]float64, n)
	for i := range matrix {
		matrix[i] = make([]float64, len(used))
	}

	for c, column := range used {
		cells := t.Column(column)
		valid := make([]float64, 0, n)
		for _, cell := range cells {
			if f, ok := dataset.ToFloat(cell); ok && !math.IsInf(f, 0) {
				valid = append(valid, f)
			}
		}
		median := calculateMedian(valid)

		for i, cell := range cells {
			f, ok := dataset.ToFloat(cell)
			if !ok || math.IsInf(f, 0) {
				f = median
			}
			matrix[i][c] = f
		}

		standardizeColumn(matrix, c)
	}
	return matrix, used, nil
}

// standardizeColumn rescales one matrix column in place to zero mean and
// unit variance. A zero-variance column collapses to all zeros.
func standardizeColumn(matrix [][]float64, c int) {
	n := len(matrix)
	if n == 0 {
		return
	}
	mean := 0.0
	for i := range matrix {
		mean += matrix[i][c]
	}
	mean /= float64(n)

	variance := 0.0
	for i := range matrix {
		d := matrix[i][c] - mean
		variance += d * d
	}
	std := math.Sqrt(variance / float64(n))

	for i := range matrix {
		if std > 0 {
			matrix[i][c] = (matrix[i][c] - mean) / std
		} else {
			matrix[i][c] = 0
		}
	}
}

// DetectIsolationForest trains a fresh forest and flags the rows scoring in
// the contamination tail. Reported scores are negated normalized depths, so
// lower means more anomalous.
func (d *MLDetector) DetectIsolationForest(t *dataset.Table, columns []string) ModelResult {
	matrix, used, err := d.featureMatrix(t, columns)
	if err != nil {
		return failedModelResult("isolation_forest", t.NumRows(), err)
	}

	forest := newIsolationForest(d.Trees, d.Contamination, d.Seed)
	if err := forest.fit(matrix); err != nil {
		return failedModelResult("isolation_forest", t.NumRows(), err)
	}

	raw := forest.scores(matrix)
	scores := make([]float64, len(raw))
	for i, s := range raw {
		scores[i] = -s
	}

	flagged := forest.anomalies(raw)
	return ModelResult{
		Model:    "isolation_forest",
		RowIDs:   flagged,
		Scores:   scores,
		Features: used,
		Count:    len(flagged),
	}
}

// DetectLOF trains a fresh local-outlier-factor model and flags the rows in
// the contamination tail. Reported scores are the positive factors, so
// higher means more anomalous.
func (d *MLDetector) DetectLOF(t *dataset.Table, columns []string) ModelResult {
	matrix, used, err := d.featureMatrix(t, columns)
	if err != nil {
		return failedModelResult("lof", t.NumRows(), err)
	}

	lof := newLocalOutlierFactor(d.Neighbors, d.Contamination)
	factors, err := lof.factors(matrix)
	if err != nil {
		return failedModelResult("lof", t.NumRows(), err)
	}

	flagged := lof.anomalies(factors)
	return ModelResult{
		Model:    "lof",
		RowIDs:   flagged,
		Scores:   factors,
		Features: used,
		Count:    len(flagged),
	}
}

// Detect runs both models and unions their flagged rows.
func (d *MLDetector) Detect(t *dataset.Table, columns []string) MLReport {
	iso := d.DetectIsolationForest(t, columns)
	lof := d.DetectLOF(t, columns)

	union := make(map[int]struct{}, len(iso.RowIDs)+len(lof.RowIDs))
	for _, id := range iso.RowIDs {
		union[id] = struct{}{}
	}
	for _, id := range lof.RowIDs {
		union[id] = struct{}{}
	}

	report := MLReport{
		IsolationForest: iso,
		LOF:             lof,
		RowIDs:          dataset.SortedRowIDs(union),
	}
	report.Count = len(report.RowIDs)
	if t.NumRows() > 0 {
		report.AnomalyRate = float64(report.Count) / float64(t.NumRows())
	}
	return report
}

// failedModelResult is the zeroed fallback for a model that could not run.
func failedModelResult(model string, rows int, err error) ModelResult {
	return ModelResult{
		Model:  model,
		RowIDs: []int{},
		Scores: make([]float64, rows),
		Error:  err.Error(),
	}
}
