package detectors

import (
	"errors"
	"math"
	"math/rand"
)

// isolationForest is the isolation-based outlier model. It is built fresh
// for every detection call; nothing is cached between tables.
type isolationForest struct {
	trees         int
	sampleSize    int
	contamination float64
	maxDepth      int
	rng           *rand.Rand

	forest        []*isoNode
	refPathLength float64
}

// isoNode is a node of one isolation tree. Leaves carry the sample count
// that reached them.
type isoNode struct {
	splitFeature int
	splitValue   float64
	left         *isoNode
	right        *isoNode
	size         int
}

func newIsolationForest(trees int, contamination float64, seed int64) *isolationForest {
	return &isolationForest{
		trees:         trees,
		sampleSize:    256,
		contamination: contamination,
		rng:           rand.New(rand.NewSource(seed)),
	}
}

// fit builds the ensemble over the feature matrix. Trees are built
// sequentially from one seeded source so a fixed seed gives a fixed forest.
func (f *isolationForest) fit(data [][]float64) error {
	if len(data) == 0 {
		return errors.New("empty feature matrix")
	}

	nSamples := len(data)
	nFeatures := len(data[0])

	sampleSize := f.sampleSize
	if sampleSize > nSamples {
		sampleSize = nSamples
	}
	f.maxDepth = int(math.Ceil(math.Log2(float64(sampleSize))))
	if f.maxDepth < 1 {
		f.maxDepth = 1
	}

	f.forest = make([]*isoNode, f.trees)
	for i := 0; i < f.trees; i++ {
		indices := f.rng.Perm(nSamples)[:sampleSize]
		sample := make([][]float64, sampleSize)
		for j, idx := range indices {
			sample[j] = data[idx]
		}
		f.forest[i] = f.buildNode(sample, nFeatures, 0)
	}

	f.refPathLength = averagePathLength(float64(sampleSize))
	return nil
}

func (f *isolationForest) buildNode(data [][]float64, nFeatures, depth int) *isoNode {
	n := len(data)
	if depth >= f.maxDepth || n <= 1 {
		return &isoNode{size: n}
	}

	feature := f.rng.Intn(nFeatures)
	minVal, maxVal := data[0][feature], data[0][feature]
	for _, row := range data[1:] {
		if row[feature] < minVal {
			minVal = row[feature]
		}
		if row[feature] > maxVal {
			maxVal = row[feature]
		}
	}
	if minVal == maxVal {
		return &isoNode{size: n}
	}

	splitValue := minVal + f.rng.Float64()*(maxVal-minVal)

	var leftData, rightData [][]float64
	for _, row := range data {
		if row[feature] < splitValue {
			leftData = append(leftData, row)
		} else {
			rightData = append(rightData, row)
		}
	}

	return &isoNode{
		splitFeature: feature,
		splitValue:   splitValue,
		left:         f.buildNode(leftData, nFeatures, depth+1),
		right:        f.buildNode(rightData, nFeatures, depth+1),
	}
}

// scores returns per-row anomaly scores in (0, 1], higher meaning more
// isolated. A degenerate reference path length (single-row fit) yields a
// uniform 0.5.
func (f *isolationForest) scores(data [][]float64) []float64 {
	out := make([]float64, len(data))
	for i, sample := range data {
		if f.refPathLength == 0 {
			out[i] = 0.5
			continue
		}
		var totalPath float64
		for _, tree := range f.forest {
			totalPath += isoPathLength(sample, tree, 0)
		}
		avgPath := totalPath / float64(len(f.forest))
		out[i] = math.Pow(2, -avgPath/f.refPathLength)
	}
	return out
}

// anomalies flags the rows scoring strictly above the contamination
// percentile of the score distribution.
func (f *isolationForest) anomalies(scores []float64) []int {
	threshold := quantileOf(scores, 1-f.contamination)
	flagged := []int{}
	for i, s := range scores {
		if s > threshold {
			flagged = append(flagged, i)
		}
	}
	return flagged
}

func isoPathLength(sample []float64, n *isoNode, depth int) float64 {
	if n.left == nil && n.right == nil {
		return float64(depth) + averagePathLength(float64(n.size))
	}
	if sample[n.splitFeature] < n.splitValue {
		return isoPathLength(sample, n.left, depth+1)
	}
	return isoPathLength(sample, n.right, depth+1)
}

// averagePathLength is the expected path length of an unsuccessful BST
// search over n values: c(n) = 2*H(n-1) - 2*(n-1)/n, with the harmonic
// number approximated via the Euler-Mascheroni constant.
func averagePathLength(n float64) float64 {
	if n <= 1 {
		return 0
	}
	return 2*(math.Log(n-1)+0.5772156649) - 2*(n-1)/n
}
