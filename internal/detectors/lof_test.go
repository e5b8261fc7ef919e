package detectors

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalOutlierFactor_TooFewRows(t *testing.T) {
	lof := newLocalOutlierFactor(20, 0.1)

	_, err := lof.factors(nil)
	assert.Error(t, err)

	_, err = lof.factors([][]float64{{1, 2}})
	assert.Error(t, err, "one row has no neighbors")
}

func TestLocalOutlierFactor_NeighborCapping(t *testing.T) {
	// Three rows cap the neighborhood at two; the call must not fail.
	lof := newLocalOutlierFactor(20, 0.5)
	factors, err := lof.factors([][]float64{{0}, {1}, {2}})
	require.NoError(t, err)
	assert.Len(t, factors, 3)
}

func TestLocalOutlierFactor_FlagsDistantPoint(t *testing.T) {
	// A tight grid plus one far-away point.
	var data [][]float64
	for x := 0; x < 5; x++ {
		for y := 0; y < 5; y++ {
			data = append(data, []float64{float64(x), float64(y)})
		}
	}
	data = append(data, []float64{100, 100})

	lof := newLocalOutlierFactor(5, 0.1)
	factors, err := lof.factors(data)
	require.NoError(t, err)

	distant := factors[len(factors)-1]
	for _, f := range factors[:len(factors)-1] {
		assert.Greater(t, distant, f, "the distant point has the largest factor")
	}

	flagged := lof.anomalies(factors)
	assert.Contains(t, flagged, 25)
}

func TestLocalOutlierFactor_UniformData(t *testing.T) {
	data := make([][]float64, 20)
	for i := range data {
		data[i] = []float64{3, 3}
	}

	lof := newLocalOutlierFactor(5, 0.1)
	factors, err := lof.factors(data)
	require.NoError(t, err)

	for _, f := range factors {
		assert.InDelta(t, 1.0, f, 1e-6, "coincident points are all equally dense")
	}
	assert.Empty(t, lof.anomalies(factors), "no factor is strictly above the shared threshold")
}

func TestLocalOutlierFactor_InlierFactorsNearOne(t *testing.T) {
	var data [][]float64
	for x := 0; x < 6; x++ {
		for y := 0; y < 6; y++ {
			data = append(data, []float64{float64(x), float64(y)})
		}
	}

	lof := newLocalOutlierFactor(5, 0.1)
	factors, err := lof.factors(data)
	require.NoError(t, err)

	for _, f := range factors {
		assert.InDelta(t, 1.0, f, 0.5, "grid points are locally uniform")
	}
}

func TestEuclidean(t *testing.T) {
	assert.Equal(t, 5.0, euclidean([]float64{0, 0}, []float64{3, 4}))
	assert.Equal(t, 0.0, euclidean([]float64{1, 1}, []float64{1, 1}))
}
