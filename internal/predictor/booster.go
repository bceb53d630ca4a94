package predictor

import (
	"fmt"
	"math"
	"sort"
)

// Node is one node of a regression tree. Leaves carry the already scaled
// contribution to the log-odds.
type Node struct {
	Leaf      bool    `json:"leaf,omitempty"`
	Value     float64 `json:"value,omitempty"`
	Feature   int     `json:"feature,omitempty"`
	Threshold float64 `json:"threshold,omitempty"`
	Left      int     `json:"left,omitempty"`
	Right     int     `json:"right,omitempty"`
}

// Tree is a flat array of nodes rooted at index 0.
type Tree struct {
	Nodes []Node `json:"nodes"`
}

func (t *Tree) predict(x []float64) float64 {
	i := 0
	for {
		n := &t.Nodes[i]
		if n.Leaf {
			return n.Value
		}
		if x[n.Feature] <= n.Threshold {
			i = n.Left
		} else {
			i = n.Right
		}
	}
}

// Booster is a gradient boosted tree ensemble trained with logistic loss.
// Training is deterministic: the same inputs always produce the same trees.
type Booster struct {
	BaseScore float64   `json:"base_score"`
	Trees     []Tree    `json:"trees"`
	Gains     []float64 `json:"gains"`
	Features  int       `json:"features"`
}

// PredictProba returns the probability of the positive class.
func (b *Booster) PredictProba(x []float64) float64 {
	return sigmoid(b.margin(x))
}

func (b *Booster) margin(x []float64) float64 {
	f := b.BaseScore
	for i := range b.Trees {
		f += b.Trees[i].predict(x)
	}
	return f
}

// Importance returns each feature's share of total split gain.
func (b *Booster) Importance() []float64 {
	out := make([]float64, len(b.Gains))
	var total float64
	for _, g := range b.Gains {
		total += g
	}
	if total <= 0 {
		return out
	}
	for i, g := range b.Gains {
		out[i] = g / total
	}
	return out
}

// TrainBooster fits a booster on rows x with binary labels y. w may be nil
// for unit weights.
func TrainBooster(x [][]float64, y, w []float64, cfg BoosterConfig) (*Booster, error) {
	n := len(x)
	if n == 0 {
		return nil, fmt.Errorf("no training rows")
	}
	if len(y) != n || (w != nil && len(w) != n) {
		return nil, fmt.Errorf("rows, labels and weights differ in length")
	}
	nf := len(x[0])
	if cfg.MinLeaf < 1 {
		cfg.MinLeaf = 1
	}
	if w == nil {
		w = make([]float64, n)
		for i := range w {
			w[i] = 1
		}
	}

	var sw, swy float64
	for i := range y {
		sw += w[i]
		swy += w[i] * y[i]
	}
	prior := clamp(swy/sw, 1e-6, 1-1e-6)

	b := &Booster{
		BaseScore: math.Log(prior / (1 - prior)),
		Gains:     make([]float64, nf),
		Features:  nf,
	}

	thresholds := make([][]float64, nf)
	bins := make([][]uint8, nf)
	for j := 0; j < nf; j++ {
		col := make([]float64, n)
		for i := range x {
			col[i] = x[i][j]
		}
		thresholds[j] = binThresholds(col, cfg.MaxBins)
		bins[j] = make([]uint8, n)
		for i, v := range col {
			bins[j][i] = uint8(sort.SearchFloat64s(thresholds[j], v))
		}
	}

	t := &trainer{
		cfg:        cfg,
		thresholds: thresholds,
		bins:       bins,
		grad:       make([]float64, n),
		hess:       make([]float64, n),
		booster:    b,
	}

	score := make([]float64, n)
	for i := range score {
		score[i] = b.BaseScore
	}
	all := make([]int, n)
	for i := range all {
		all[i] = i
	}

	for round := 0; round < cfg.Trees; round++ {
		for i := range score {
			p := sigmoid(score[i])
			t.grad[i] = w[i] * (p - y[i])
			t.hess[i] = math.Max(w[i]*p*(1-p), 1e-12)
		}
		tree := Tree{}
		idx := make([]int, n)
		copy(idx, all)
		t.grow(&tree, idx, 0, score)
		b.Trees = append(b.Trees, tree)
	}
	return b, nil
}

type trainer struct {
	cfg        BoosterConfig
	thresholds [][]float64
	bins       [][]uint8
	grad       []float64
	hess       []float64
	booster    *Booster
}

// grow appends the subtree for rows idx and returns its root index. score is
// updated in place with the leaf values.
func (t *trainer) grow(tree *Tree, idx []int, depth int, score []float64) int {
	var G, H float64
	for _, i := range idx {
		G += t.grad[i]
		H += t.hess[i]
	}

	self := len(tree.Nodes)
	tree.Nodes = append(tree.Nodes, Node{})

	feature, bin, gain := -1, 0, 0.0
	if depth < t.cfg.MaxDepth && len(idx) >= 2*t.cfg.MinLeaf {
		feature, bin, gain = t.bestSplit(idx, G, H)
	}

	if feature < 0 {
		value := -G / (H + t.cfg.L2) * t.cfg.LearningRate
		tree.Nodes[self] = Node{Leaf: true, Value: value}
		for _, i := range idx {
			score[i] += value
		}
		return self
	}

	t.booster.Gains[feature] += gain
	var left, right []int
	for _, i := range idx {
		if int(t.bins[feature][i]) <= bin {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}
	l := t.grow(tree, left, depth+1, score)
	r := t.grow(tree, right, depth+1, score)
	tree.Nodes[self] = Node{
		Feature:   feature,
		Threshold: t.thresholds[feature][bin],
		Left:      l,
		Right:     r,
	}
	return self
}

func (t *trainer) bestSplit(idx []int, G, H float64) (int, int, float64) {
	lambda := t.cfg.L2
	parent := G * G / (H + lambda)
	bestFeature, bestBin, bestGain := -1, 0, 1e-9

	for j := range t.bins {
		nb := len(t.thresholds[j])
		if nb == 0 {
			continue
		}
		hg := make([]float64, nb+1)
		hh := make([]float64, nb+1)
		hc := make([]int, nb+1)
		col := t.bins[j]
		for _, i := range idx {
			b := col[i]
			hg[b] += t.grad[i]
			hh[b] += t.hess[i]
			hc[b]++
		}

		var gl, hl float64
		cl := 0
		// A split at bin b sends bins 0..b left. The last bin has no
		// threshold to split on.
		for b := 0; b < nb; b++ {
			gl += hg[b]
			hl += hh[b]
			cl += hc[b]
			cr := len(idx) - cl
			if cl < t.cfg.MinLeaf {
				continue
			}
			if cr < t.cfg.MinLeaf {
				break
			}
			gr, hr := G-gl, H-hl
			gain := gl*gl/(hl+lambda) + gr*gr/(hr+lambda) - parent
			if gain > bestGain {
				bestFeature, bestBin, bestGain = j, b, gain
			}
		}
	}
	return bestFeature, bestBin, bestGain
}

// binThresholds returns ascending split candidates for a column: midpoints
// between distinct values when there are few, quantile cut points otherwise.
func binThresholds(col []float64, maxBins int) []float64 {
	sorted := make([]float64, len(col))
	copy(sorted, col)
	sort.Float64s(sorted)

	uniq := sorted[:0:0]
	for i, v := range sorted {
		if i == 0 || v != sorted[i-1] {
			uniq = append(uniq, v)
		}
	}
	if len(uniq) <= 1 {
		return nil
	}
	if len(uniq) <= maxBins {
		out := make([]float64, len(uniq)-1)
		for i := range out {
			out[i] = (uniq[i] + uniq[i+1]) / 2
		}
		return out
	}

	var out []float64
	n := len(sorted)
	for k := 1; k < maxBins; k++ {
		cut := sorted[k*n/maxBins]
		if len(out) == 0 || cut > out[len(out)-1] {
			out = append(out, cut)
		}
	}
	// A cut at the maximum separates nothing.
	if out[len(out)-1] >= sorted[n-1] {
		out = out[:len(out)-1]
	}
	return out
}

func sigmoid(z float64) float64 {
	return 1 / (1 + math.Exp(-z))
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
