package detectors

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"claimsight/internal/dataset"
)

func TestStatisticalDetector_ConstantColumn(t *testing.T) {
	tbl, err := dataset.New([]string{"claim_amount"})
	require.NoError(t, err)
	for i := 0; i < 50; i++ {
		require.NoError(t, tbl.AppendRow([]dataset.Value{dataset.Number(5000)}))
	}

	d := NewStatisticalDetector()
	assert.Empty(t, d.DetectColumnZScore(tbl, "claim_amount"), "zero std reports nothing")
	assert.Empty(t, d.DetectColumnIQR(tbl, "claim_amount"), "zero IQR reports nothing")

	report := d.Detect(tbl, []string{"claim_amount"})
	assert.Empty(t, report.RowIDs)
	assert.Equal(t, 0, report.TotalAnomalies)
	assert.Equal(t, 1, report.ColumnsChecked)
	assert.Empty(t, report.Details)
}

func TestStatisticalDetector_ExtremeOutliers(t *testing.T) {
	// 98 amounts spread through the normal band plus two far outside it.
	// Both tests must flag exactly the two extremes.
	tbl, err := dataset.New([]string{"claim_amount"})
	require.NoError(t, err)
	for i := 0; i < 98; i++ {
		amount := 2000 + float64(i)*(6000.0/97.0)
		require.NoError(t, tbl.AppendRow([]dataset.Value{dataset.Number(amount)}))
	}
	require.NoError(t, tbl.AppendRow([]dataset.Value{dataset.Number(500000)}))
	require.NoError(t, tbl.AppendRow([]dataset.Value{dataset.Number(500000)}))

	d := NewStatisticalDetector()
	assert.Equal(t, []int{98, 99}, d.DetectColumnZScore(tbl, "claim_amount"))
	assert.Equal(t, []int{98, 99}, d.DetectColumnIQR(tbl, "claim_amount"))

	report := d.Detect(tbl, []string{"claim_amount"})
	assert.Equal(t, []int{98, 99}, report.RowIDs)
	assert.Equal(t, 2, report.TotalAnomalies)
	assert.InDelta(t, 0.02, report.AnomalyRate, 1e-9)

	require.Len(t, report.Details, 1)
	detail := report.Details[0]
	assert.Equal(t, "claim_amount", detail.Column)
	assert.Equal(t, "statistical", detail.Method)
	assert.Equal(t, 2, detail.ZScoreCount)
	assert.Equal(t, 2, detail.IQRCount)
	assert.Equal(t, 2, detail.TotalCount)
	assert.Equal(t, []int{98, 99}, detail.RowIDs)
}

func TestStatisticalDetector_MissingValuesIgnored(t *testing.T) {
	tbl, err := dataset.New([]string{"claim_amount"})
	require.NoError(t, err)
	for i := 0; i < 30; i++ {
		require.NoError(t, tbl.AppendRow([]dataset.Value{dataset.Number(1000 + float64(i))}))
	}
	require.NoError(t, tbl.AppendRow([]dataset.Value{dataset.Missing()}))
	require.NoError(t, tbl.AppendRow([]dataset.Value{dataset.Number(1000000)}))

	d := NewStatisticalDetector()
	report := d.Detect(tbl, []string{"claim_amount"})
	assert.NotContains(t, report.RowIDs, 30, "missing cells are never anomalous")
	assert.Contains(t, report.RowIDs, 31)
}

func TestStatisticalDetector_StringCellsCoerced(t *testing.T) {
	tbl, err := dataset.New([]string{"claim_amount"})
	require.NoError(t, err)
	for i := 0; i < 30; i++ {
		require.NoError(t, tbl.AppendRow([]dataset.Value{dataset.Number(1000 + float64(i))}))
	}
	require.NoError(t, tbl.AppendRow([]dataset.Value{dataset.String("900000")}))
	require.NoError(t, tbl.AppendRow([]dataset.Value{dataset.String("n/a")}))

	d := NewStatisticalDetector()
	report := d.Detect(tbl, []string{"claim_amount"})
	assert.Contains(t, report.RowIDs, 30, "parseable strings join the test")
	assert.NotContains(t, report.RowIDs, 31, "unparseable strings become missing")
}

func TestStatisticalDetector_UnionAcrossColumns(t *testing.T) {
	tbl, err := dataset.New([]string{"claim_amount", "age"})
	require.NoError(t, err)
	for i := 0; i < 40; i++ {
		require.NoError(t, tbl.AppendRow([]dataset.Value{
			dataset.Number(1000 + float64(i)),
			dataset.Number(40 + float64(i%10)),
		}))
	}
	// Row 40 is extreme in claim_amount only, row 41 in age only.
	require.NoError(t, tbl.AppendRow([]dataset.Value{dataset.Number(2000000), dataset.Number(45)}))
	require.NoError(t, tbl.AppendRow([]dataset.Value{dataset.Number(1020), dataset.Number(5000)}))

	report := NewStatisticalDetector().Detect(tbl, []string{"claim_amount", "age"})
	assert.Contains(t, report.RowIDs, 40)
	assert.Contains(t, report.RowIDs, 41)
	assert.Equal(t, 2, report.ColumnsChecked)
	assert.Len(t, report.Details, 2)
}

func TestStatisticalDetector_AbsentColumnSkipped(t *testing.T) {
	tbl := claimsTable(t, 10, 100, 1000)

	report := NewStatisticalDetector().Detect(tbl, []string{"claim_amount", "not_there"})
	assert.Equal(t, 1, report.ColumnsChecked)
	assert.NotContains(t, report.ZScore, "not_there")
}

func TestStatisticalDetector_EmptyTable(t *testing.T) {
	tbl := buildTable(t, []string{"claim_amount"})

	report := NewStatisticalDetector().Detect(tbl, []string{"claim_amount"})
	assert.Empty(t, report.RowIDs)
	assert.Equal(t, 0.0, report.AnomalyRate)
}

func TestQuantileInterpolation(t *testing.T) {
	values := []float64{1, 2, 3, 4}
	assert.InDelta(t, 1.75, quantileOf(values, 0.25), 1e-9)
	assert.InDelta(t, 3.25, quantileOf(values, 0.75), 1e-9)
	assert.InDelta(t, 2.5, quantileOf(values, 0.5), 1e-9)
	assert.Equal(t, 1.0, quantileOf(values, 0))
	assert.Equal(t, 4.0, quantileOf(values, 1))
}

func TestCalculateMedian(t *testing.T) {
	assert.Equal(t, 0.0, calculateMedian(nil))
	assert.Equal(t, 7.0, calculateMedian([]float64{7}))
	assert.Equal(t, 2.5, calculateMedian([]float64{4, 1, 2, 3}))
	assert.Equal(t, 3.0, calculateMedian([]float64{5, 1, 3}))
}

func TestCalculateStdDev(t *testing.T) {
	values := []float64{2, 4, 4, 4, 5, 5, 7, 9}
	mean := calculateMean(values)
	assert.InDelta(t, 5.0, mean, 1e-9)
	assert.InDelta(t, 2.138, calculateStdDev(values, mean), 1e-3, "sample deviation, n-1 denominator")
	assert.Equal(t, 0.0, calculateStdDev([]float64{42}, 42))
}

func TestColumnFloats(t *testing.T) {
	tbl := buildTable(t, []string{"v"},
		[]dataset.Value{dataset.Number(1)},
		[]dataset.Value{dataset.Missing()},
		[]dataset.Value{dataset.String("2.5")},
		[]dataset.Value{dataset.String("junk")},
		[]dataset.Value{dataset.Number(3)},
	)

	values, rowIDs := columnFloats(tbl, "v")
	assert.Equal(t, []float64{1, 2.5, 3}, values)
	assert.Equal(t, []int{0, 2, 4}, rowIDs)
}
