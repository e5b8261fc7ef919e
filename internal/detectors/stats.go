package detectors

import (
	"math"
	"sort"

	"claimsight/internal/dataset"
)

// columnFloats coerces a column to floats. Missing and unparseable cells are
// excluded from values; rowIDs keeps the originating row of each value.
func columnFloats(t *dataset.Table, column string) (values []float64, rowIDs []int) {
	cells := t.Column(column)
	values = make([]float64, 0, len(cells))
	rowIDs = make([]int, 0, len(cells))
	for i, cell := range cells {
		f, ok := dataset.ToFloat(cell)
		if !ok || math.IsInf(f, 0) {
			continue
		}
		values = append(values, f)
		rowIDs = append(rowIDs, i)
	}
	return values, rowIDs
}

// calculateMean computes the arithmetic mean.
func calculateMean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// calculateStdDev computes the sample standard deviation. Fewer than two
// values yield 0, which callers treat as "no spread, no anomalies".
func calculateStdDev(values []float64, mean float64) float64 {
	if len(values) <= 1 {
		return 0
	}
	sumSquaredDeviations := 0.0
	for _, v := range values {
		deviation := v - mean
		sumSquaredDeviations += deviation * deviation
	}
	return math.Sqrt(sumSquaredDeviations / float64(len(values)-1))
}

// calculateMedian computes the median over a copy of the input.
func calculateMedian(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	n := len(sorted)
	if n%2 == 0 {
		return (sorted[n/2-1] + sorted[n/2]) / 2
	}
	return sorted[n/2]
}

// percentileValue returns the value at the given quantile (0..1) of a sorted
// slice, linearly interpolating between neighbors.
func percentileValue(sorted []float64, quantile float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if quantile <= 0 {
		return sorted[0]
	}
	if quantile >= 1 {
		return sorted[n-1]
	}

	index := quantile * float64(n-1)
	lower := int(math.Floor(index))
	upper := int(math.Ceil(index))
	if lower == upper {
		return sorted[lower]
	}

	weight := index - float64(lower)
	return sorted[lower]*(1-weight) + sorted[upper]*weight
}

// quantileOf computes the quantile of an unsorted slice.
func quantileOf(values []float64, quantile float64) float64 {
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)
	return percentileValue(sorted, quantile)
}
