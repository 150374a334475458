package forest

import (
	"encoding/json"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func linearData(n int, seed int64) ([][]float64, []float64) {
	rng := rand.New(rand.NewSource(seed))
	X := make([][]float64, n)
	y := make([]float64, n)
	for i := range X {
		a, b := rng.Float64()*10, rng.Float64()*10
		X[i] = []float64{a, b, rng.Float64()}
		y[i] = 3*a + b
	}
	return X, y
}

func TestFit_LearnsSimpleRelationship(t *testing.T) {
	X, y := linearData(400, 1)
	train, test := TrainTestSplit(len(y), 0.2, 42)
	Xtr, ytr := Select(X, y, train)
	Xte, yte := Select(X, y, test)

	f, err := Fit(Xtr, ytr, Params{NTrees: 30, Seed: 42, Bootstrap: true})
	require.NoError(t, err)

	mae := MeanAbsoluteError(yte, f.PredictAll(Xte))
	assert.Less(t, mae, 3.0, "forest should fit a smooth target closely (range is 0-40)")
}

func TestFit_Deterministic(t *testing.T) {
	X, y := linearData(100, 2)
	p := Params{NTrees: 10, Seed: 7, Bootstrap: true}

	a, err := Fit(X, y, p)
	require.NoError(t, err)
	b, err := Fit(X, y, p)
	require.NoError(t, err)

	for _, x := range X[:10] {
		assert.Equal(t, a.Predict(x), b.Predict(x), "same seed should give identical models")
	}
}

func TestFit_ConstantTarget(t *testing.T) {
	X := [][]float64{{1}, {2}, {3}, {4}}
	y := []float64{5, 5, 5, 5}

	f, err := Fit(X, y, Params{NTrees: 3, Seed: 1})
	require.NoError(t, err)
	for _, tree := range f.Trees {
		assert.Len(t, tree.Nodes, 1, "pure nodes are leaves")
	}
	assert.Equal(t, 5.0, f.Predict([]float64{100}))
}

func TestFit_SingleTreeExactSplit(t *testing.T) {
	X := [][]float64{{1}, {2}, {10}, {11}}
	y := []float64{0, 0, 10, 10}

	f, err := Fit(X, y, Params{NTrees: 1, Bootstrap: false})
	require.NoError(t, err)
	assert.Equal(t, 0.0, f.Predict([]float64{1.5}))
	assert.Equal(t, 10.0, f.Predict([]float64{10.5}))
	assert.Equal(t, 6.0, f.Trees[0].Nodes[0].Threshold, "threshold is the midpoint between 2 and 10")
}

func TestFit_MinSamplesSplit(t *testing.T) {
	X := [][]float64{{1}, {2}, {3}, {4}}
	y := []float64{1, 2, 3, 4}

	f, err := Fit(X, y, Params{NTrees: 1, MinSamplesSplit: 10})
	require.NoError(t, err)
	assert.Len(t, f.Trees[0].Nodes, 1)
}

func TestFit_Errors(t *testing.T) {
	_, err := Fit(nil, nil, DefaultParams())
	assert.ErrorIs(t, err, ErrNoData)

	_, err = Fit([][]float64{{1}, {2, 3}}, []float64{1, 2}, DefaultParams())
	assert.Error(t, err)

	_, err = Fit([][]float64{{1}}, []float64{1, 2}, DefaultParams())
	assert.Error(t, err)
}

func TestForest_JSONRoundTrip(t *testing.T) {
	X, y := linearData(60, 3)
	f, err := Fit(X, y, Params{NTrees: 5, Seed: 3, Bootstrap: true})
	require.NoError(t, err)

	raw, err := json.Marshal(f)
	require.NoError(t, err)
	var back Forest
	require.NoError(t, json.Unmarshal(raw, &back))

	for _, x := range X[:5] {
		assert.Equal(t, f.Predict(x), back.Predict(x))
	}
}

func TestTrainTestSplit(t *testing.T) {
	train, test := TrainTestSplit(10, 0.2, 42)
	assert.Len(t, test, 2)
	assert.Len(t, train, 8)

	seen := map[int]bool{}
	for _, i := range append(append([]int{}, train...), test...) {
		assert.False(t, seen[i], "positions are not repeated")
		seen[i] = true
	}
	assert.Len(t, seen, 10)

	train2, test2 := TrainTestSplit(10, 0.2, 42)
	assert.Equal(t, train, train2)
	assert.Equal(t, test, test2)
}

func TestMeanAbsoluteError(t *testing.T) {
	assert.InDelta(t, 1.5, MeanAbsoluteError([]float64{1, 2}, []float64{2, 4}), 1e-12)
	assert.True(t, math.IsNaN(MeanAbsoluteError(nil, nil)))
}
