package detectors

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"claimsight/internal/dataset"
)

func outlierTable(t *testing.T) *dataset.Table {
	t.Helper()
	tbl, err := dataset.New([]string{"claim_amount"})
	require.NoError(t, err)
	for i := 0; i < 60; i++ {
		require.NoError(t, tbl.AppendRow([]dataset.Value{dataset.Number(5000 + float64(i%7)*10)}))
	}
	require.NoError(t, tbl.AppendRow([]dataset.Value{dataset.Number(500000)}))
	return tbl
}

func TestMLDetector_FeatureMatrix(t *testing.T) {
	tbl := buildTable(t, []string{"claim_amount", "age"},
		[]dataset.Value{dataset.Number(100), dataset.Number(30)},
		[]dataset.Value{dataset.Missing(), dataset.Number(40)},
		[]dataset.Value{dataset.Number(300), dataset.Number(50)},
	)

	d := NewMLDetector()
	matrix, used, err := d.featureMatrix(tbl, []string{"claim_amount", "age", "absent"})
	require.NoError(t, err)
	assert.Equal(t, []string{"claim_amount", "age"}, used, "absent columns are dropped")
	require.Len(t, matrix, 3)

	// Median imputation happens before standardization, so the imputed
	// middle row sits exactly at the column mean.
	assert.InDelta(t, 0.0, matrix[1][0], 1e-9)
	// Columns are standardized: zero mean, unit variance.
	for c := 0; c < 2; c++ {
		sum := 0.0
		sumSq := 0.0
		for i := 0; i < 3; i++ {
			sum += matrix[i][c]
			sumSq += matrix[i][c] * matrix[i][c]
		}
		assert.InDelta(t, 0.0, sum, 1e-9)
		assert.InDelta(t, 3.0, sumSq, 1e-9)
	}
}

func TestMLDetector_FeatureMatrixNoColumns(t *testing.T) {
	tbl := buildTable(t, []string{"patient_name"},
		[]dataset.Value{dataset.String("John Smith")},
	)

	d := NewMLDetector()
	_, _, err := d.featureMatrix(tbl, []string{"claim_amount"})
	assert.ErrorIs(t, err, ErrNoNumericColumns)
}

func TestMLDetector_IsolationForestFlagsOutlier(t *testing.T) {
	tbl := outlierTable(t)

	result := NewMLDetector().DetectIsolationForest(tbl, []string{"claim_amount"})
	require.False(t, result.Failed())
	assert.Equal(t, "isolation_forest", result.Model)
	assert.Equal(t, []string{"claim_amount"}, result.Features)
	assert.Contains(t, result.RowIDs, 60)
	assert.Equal(t, len(result.RowIDs), result.Count)
	require.Len(t, result.Scores, tbl.NumRows())

	// Reported scores are negated, lower meaning more anomalous, so the
	// outlier carries the minimum.
	min := result.Scores[0]
	for _, s := range result.Scores {
		if s < min {
			min = s
		}
	}
	assert.Equal(t, min, result.Scores[60])
}

func TestMLDetector_LOFFlagsOutlier(t *testing.T) {
	tbl := outlierTable(t)

	result := NewMLDetector().DetectLOF(tbl, []string{"claim_amount"})
	require.False(t, result.Failed())
	assert.Equal(t, "lof", result.Model)
	assert.Contains(t, result.RowIDs, 60)

	// LOF factors are reported as-is, higher meaning more anomalous.
	max := result.Scores[0]
	for _, s := range result.Scores {
		if s > max {
			max = s
		}
	}
	assert.Equal(t, max, result.Scores[60])
}

func TestMLDetector_FailurePathZeroed(t *testing.T) {
	tbl := buildTable(t, []string{"patient_name"},
		[]dataset.Value{dataset.String("John Smith")},
		[]dataset.Value{dataset.String("Jane Doe")},
	)

	d := NewMLDetector()
	result := d.DetectIsolationForest(tbl, []string{"claim_amount"})
	assert.True(t, result.Failed())
	assert.Equal(t, ErrNoNumericColumns.Error(), result.Error)
	assert.Empty(t, result.RowIDs)
	assert.Equal(t, 0, result.Count)
	assert.Equal(t, []float64{0, 0}, result.Scores, "zeroed score vector, one per row")
}

func TestMLDetector_LOFFailureOnSingleRow(t *testing.T) {
	tbl := buildTable(t, []string{"claim_amount"},
		[]dataset.Value{dataset.Number(100)},
	)

	result := NewMLDetector().DetectLOF(tbl, []string{"claim_amount"})
	assert.True(t, result.Failed())
	assert.Empty(t, result.RowIDs)
	assert.Len(t, result.Scores, 1)
}

func TestMLDetector_DetectCombinesModels(t *testing.T) {
	tbl := outlierTable(t)

	report := NewMLDetector().Detect(tbl, []string{"claim_amount"})
	assert.Contains(t, report.RowIDs, 60)
	assert.Equal(t, len(report.RowIDs), report.Count)
	assert.InDelta(t, float64(report.Count)/61.0, report.AnomalyRate, 1e-9)

	// The union covers both models.
	for _, id := range report.IsolationForest.RowIDs {
		assert.Contains(t, report.RowIDs, id)
	}
	for _, id := range report.LOF.RowIDs {
		assert.Contains(t, report.RowIDs, id)
	}
}

func TestMLDetector_OneModelFailureDoesNotBlankTheOther(t *testing.T) {
	// A single row: the forest still runs, LOF cannot form a neighborhood.
	tbl := buildTable(t, []string{"claim_amount"},
		[]dataset.Value{dataset.Number(100)},
	)

	report := NewMLDetector().Detect(tbl, []string{"claim_amount"})
	assert.False(t, report.IsolationForest.Failed())
	assert.True(t, report.LOF.Failed())
	assert.Empty(t, report.RowIDs)
}

func TestMLDetector_Deterministic(t *testing.T) {
	tbl := outlierTable(t)
	d := NewMLDetector()

	first := d.Detect(tbl, []string{"claim_amount"})
	second := d.Detect(tbl, []string{"claim_amount"})
	assert.Equal(t, first.RowIDs, second.RowIDs, "fixed seed, fixed flags")
	assert.Equal(t, first.IsolationForest.Scores, second.IsolationForest.Scores)
}
