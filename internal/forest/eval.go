package forest

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/stat"
)

// TrainTestSplit shuffles row positions with the seed and holds out
// ceil(testFraction*n) of them.
func TrainTestSplit(n int, testFraction float64, seed int64) (train, test []int) {
	perm := rand.New(rand.NewSource(seed)).Perm(n)
	nTest := int(math.Ceil(testFraction * float64(n)))
	if nTest > n {
		nTest = n
	}
	return perm[nTest:], perm[:nTest]
}

// MeanAbsoluteError is mean(|yTrue - yPred|); NaN for empty input.
func MeanAbsoluteError(yTrue, yPred []float64) float64 {
	if len(yTrue) == 0 || len(yTrue) != len(yPred) {
		return math.NaN()
	}
	diffs := make([]float64, len(yTrue))
	for i := range yTrue {
		diffs[i] = math.Abs(yTrue[i] - yPred[i])
	}
	return stat.Mean(diffs, nil)
}

// Select gathers rows and targets at the given positions.
func Select(X [][]float64, y []float64, idx []int) ([][]float64, []float64) {
	xs := make([][]float64, len(idx))
	ys := make([]float64, len(idx))
	for k, i := range idx {
		xs[k] = X[i]
		ys[k] = y[i]
	}
	return xs, ys
}
