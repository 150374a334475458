// Package forest implements a bagged ensemble of CART regression trees.
package forest

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Params configures training.
type Params struct {
	NTrees          int     `json:"n_trees"`
	MaxDepth        int     `json:"max_depth"` // 0 means unlimited
	MinSamplesSplit int     `json:"min_samples_split"`
	MinSamplesLeaf  int     `json:"min_samples_leaf"`
	MaxFeatures     float64 `json:"max_features"` // fraction of features tried per split, (0,1]
	Bootstrap       bool    `json:"bootstrap"`
	Seed            int64   `json:"seed"`
}

// DefaultParams mirrors the usual random forest regressor defaults.
func DefaultParams() Params {
	return Params{
		NTrees:          100,
		MinSamplesSplit: 2,
		MinSamplesLeaf:  1,
		MaxFeatures:     1.0,
		Bootstrap:       true,
		Seed:            42,
	}
}

// ErrNoData is returned when there is nothing to fit.
var ErrNoData = errors.New("no training rows")

const leaf = -1

// Node is a tree node in flat-array form. Feature is -1 for leaves.
type Node struct {
	Feature   int     `json:"f"`
	Threshold float64 `json:"t,omitempty"`
	Left      int     `json:"l,omitempty"`
	Right     int     `json:"r,omitempty"`
	Value     float64 `json:"v"`
}

// Tree is a fitted regression tree; Nodes[0] is the root.
type Tree struct {
	Nodes []Node `json:"nodes"`
}

// Predict walks the tree for one sample. Missing feature positions read as zero.
func (t *Tree) Predict(x []float64) float64 {
	if len(t.Nodes) == 0 {
		return 0
	}
	i := 0
	for {
		n := &t.Nodes[i]
		if n.Feature == leaf {
			return n.Value
		}
		v := 0.0
		if n.Feature < len(x) {
			v = x[n.Feature]
		}
		if v <= n.Threshold {
			i = n.Left
		} else {
			i = n.Right
		}
	}
}

// Forest is a fitted ensemble.
type Forest struct {
	Trees     []Tree `json:"trees"`
	NFeatures int    `json:"n_features"`
	Params    Params `json:"params"`
}

// Fit trains a forest on X (rows of equal width) and y.
func Fit(X [][]float64, y []float64, p Params) (*Forest, error) {
	if len(X) == 0 {
		return nil, ErrNoData
	}
	if len(X) != len(y) {
		return nil, fmt.Errorf("feature rows (%d) and targets (%d) differ", len(X), len(y))
	}
	nf := len(X[0])
	for i, row := range X {
		if len(row) != nf {
			return nil, fmt.Errorf("row %d has %d features, want %d", i, len(row), nf)
		}
	}

	p = p.withDefaults()
	rng := rand.New(rand.NewSource(p.Seed))

	f := &Forest{Trees: make([]Tree, p.NTrees), NFeatures: nf, Params: p}
	for t := range f.Trees {
		b := &builder{
			X:   X,
			y:   y,
			p:   p,
			rng: rand.New(rand.NewSource(rng.Int63())),
		}
		f.Trees[t] = Tree{Nodes: b.grow(b.sample(len(y)))}
	}
	return f, nil
}

func (p Params) withDefaults() Params {
	d := DefaultParams()
	if p.NTrees <= 0 {
		p.NTrees = d.NTrees
	}
	if p.MinSamplesSplit < 2 {
		p.MinSamplesSplit = d.MinSamplesSplit
	}
	if p.MinSamplesLeaf < 1 {
		p.MinSamplesLeaf = d.MinSamplesLeaf
	}
	if p.MaxFeatures <= 0 || p.MaxFeatures > 1 {
		p.MaxFeatures = d.MaxFeatures
	}
	return p
}

// Predict averages the trees' predictions for one sample.
func (f *Forest) Predict(x []float64) float64 {
	if f == nil || len(f.Trees) == 0 {
		return 0
	}
	var sum float64
	for i := range f.Trees {
		sum += f.Trees[i].Predict(x)
	}
	return sum / float64(len(f.Trees))
}

// PredictAll predicts every row of X.
func (f *Forest) PredictAll(X [][]float64) []float64 {
	out := make([]float64, len(X))
	for i, x := range X {
		out[i] = f.Predict(x)
	}
	return out
}

type builder struct {
	X     [][]float64
	y     []float64
	p     Params
	rng   *rand.Rand
	nodes []Node
}

func (b *builder) sample(n int) []int {
	idx := make([]int, n)
	for i := range idx {
		if b.p.Bootstrap {
			idx[i] = b.rng.Intn(n)
		} else {
			idx[i] = i
		}
	}
	return idx
}

func (b *builder) grow(idx []int) []Node {
	b.nodes = b.nodes[:0]
	b.build(idx, 0)
	return b.nodes
}

func (b *builder) build(idx []int, depth int) int {
	id := len(b.nodes)
	b.nodes = append(b.nodes, Node{Feature: leaf, Value: b.mean(idx)})

	if len(idx) < b.p.MinSamplesSplit || len(idx) < 2*b.p.MinSamplesLeaf {
		return id
	}
	if b.p.MaxDepth > 0 && depth >= b.p.MaxDepth {
		return id
	}
	if b.pure(idx) {
		return id
	}

	feature, threshold, ok := b.bestSplit(idx)
	if !ok {
		return id
	}

	var left, right []int
	for _, i := range idx {
		if b.X[i][feature] <= threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}

	l := b.build(left, depth+1)
	r := b.build(right, depth+1)
	n := &b.nodes[id]
	n.Feature, n.Threshold, n.Left, n.Right = feature, threshold, l, r
	return id
}

func (b *builder) mean(idx []int) float64 {
	vals := make([]float64, len(idx))
	for k, i := range idx {
		vals[k] = b.y[i]
	}
	return stat.Mean(vals, nil)
}

func (b *builder) pure(idx []int) bool {
	first := b.y[idx[0]]
	for _, i := range idx[1:] {
		if math.Abs(b.y[i]-first) > 1e-12 {
			return false
		}
	}
	return true
}

func (b *builder) candidates() []int {
	nf := len(b.X[0])
	k := int(math.Ceil(b.p.MaxFeatures * float64(nf)))
	if k >= nf {
		out := make([]int, nf)
		for i := range out {
			out[i] = i
		}
		return out
	}
	if k < 1 {
		k = 1
	}
	return b.rng.Perm(nf)[:k]
}

// bestSplit picks the feature and threshold minimizing the summed squared error
// of the two children, which is the same as maximizing sum_l^2/n_l + sum_r^2/n_r.
func (b *builder) bestSplit(idx []int) (int, float64, bool) {
	n := len(idx)
	var total float64
	for _, i := range idx {
		total += b.y[i]
	}
	parentScore := total * total / float64(n)

	bestScore := math.Inf(-1)
	bestFeature, bestThreshold := -1, 0.0
	order := make([]int, n)
	minLeaf := b.p.MinSamplesLeaf

	for _, f := range b.candidates() {
		copy(order, idx)
		sort.Slice(order, func(a, c int) bool { return b.X[order[a]][f] < b.X[order[c]][f] })

		var leftSum float64
		for k := 0; k < n-1; k++ {
			leftSum += b.y[order[k]]
			nl := k + 1
			nr := n - nl
			if nl < minLeaf || nr < minLeaf {
				continue
			}
			lo, hi := b.X[order[k]][f], b.X[order[k+1]][f]
			if lo == hi {
				continue
			}
			rightSum := total - leftSum
			score := leftSum*leftSum/float64(nl) + rightSum*rightSum/float64(nr)
			if score > bestScore {
				bestScore = score
				bestFeature = f
				bestThreshold = lo + (hi-lo)/2
				if bestThreshold >= hi {
					bestThreshold = lo
				}
			}
		}
	}

	if bestFeature < 0 || bestScore < parentScore-1e-9*math.Abs(parentScore) {
		return 0, 0, false
	}
	return bestFeature, bestThreshold, true
}
