package detectors

import (
	"fmt"
	"math"
	"sort"
)

// localOutlierFactor is the density-based outlier model. It compares each
// row's local density against its neighbors'; factors near 1 are inliers,
// larger factors are outliers.
type localOutlierFactor struct {
	neighbors     int
	contamination float64
}

func newLocalOutlierFactor(neighbors int, contamination float64) *localOutlierFactor {
	return &localOutlierFactor{
		neighbors:     neighbors,
		contamination: contamination,
	}
}

// factors computes the outlier factor of every row. The neighbor count is
// capped at rowCount-1; fewer than two rows cannot form a neighborhood.
func (l *localOutlierFactor) factors(data [][]float64) ([]float64, error) {
	n := len(data)
	k := l.neighbors
	if k > n-1 {
		k = n - 1
	}
	if k < 1 {
		return nil, fmt.Errorf("local outlier factor requires at least 2 rows, got %d", n)
	}

	// Pairwise distances, then each row's k nearest neighbors. Ties are
	// broken by row order so the neighborhood is deterministic.
	neighborIDs := make([][]int, n)
	neighborDists := make([][]float64, n)
	kDistance := make([]float64, n)

	for i := 0; i < n; i++ {
		type candidate struct {
			id   int
			dist float64
		}
		candidates := make([]candidate, 0, n-1)
		for j := 0; j < n; j++ {
			if j == i {
				continue
			}
			candidates = append(candidates, candidate{id: j, dist: euclidean(data[i], data[j])})
		}
		sort.Slice(candidates, func(a, b int) bool {
			if candidates[a].dist != candidates[b].dist {
				return candidates[a].dist < candidates[b].dist
			}
			return candidates[a].id < candidates[b].id
		})

		neighborIDs[i] = make([]int, k)
		neighborDists[i] = make([]float64, k)
		for j := 0; j < k; j++ {
			neighborIDs[i][j] = candidates[j].id
			neighborDists[i][j] = candidates[j].dist
		}
		kDistance[i] = candidates[k-1].dist
	}

	// Local reachability density. The epsilon keeps coincident points from
	// producing an infinite density.
	lrd := make([]float64, n)
	for i := 0; i < n; i++ {
		sumReach := 0.0
		for j, neighbor := range neighborIDs[i] {
			reach := neighborDists[i][j]
			if kDistance[neighbor] > reach {
				reach = kDistance[neighbor]
			}
			sumReach += reach
		}
		lrd[i] = 1.0 / (sumReach/float64(k) + 1e-10)
	}

	factors := make([]float64, n)
	for i := 0; i < n; i++ {
		sumRatio := 0.0
		for _, neighbor := range neighborIDs[i] {
			sumRatio += lrd[neighbor]
		}
		factors[i] = sumRatio / float64(k) / lrd[i]
	}
	return factors, nil
}

// anomalies flags the rows whose factor lies strictly above the
// contamination percentile.
func (l *localOutlierFactor) anomalies(factors []float64) []int {
	threshold := quantileOf(factors, 1-l.contamination)
	flagged := []int{}
	for i, f := range factors {
		if f > threshold {
			flagged = append(flagged, i)
		}
	}
	return flagged
}

func euclidean(a, b []float64) float64 {
	sum := 0.0
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return math.Sqrt(sum)
}
