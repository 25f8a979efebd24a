// Package ml implements a gradient-boosted tree classifier for scoring
// signal quality. Trees learn a default direction per split so missing
// feature values (NaN) route without imputation. Training is fully
// deterministic: no subsampling, ties broken by feature order.
package ml

import (
	"math"
	"sort"
)

// Node is one node of a regression tree. Leaves carry the output value
// (learning rate already applied); internal nodes route on a feature
// threshold, with DefaultLeft deciding where missing values go.
type Node struct {
	IsLeaf      bool    `json:"is_leaf"`
	Value       float64 `json:"value,omitempty"`
	Feature     int     `json:"feature,omitempty"`
	Threshold   float64 `json:"threshold,omitempty"`
	DefaultLeft bool    `json:"default_left,omitempty"`
	Left        int     `json:"left,omitempty"`
	Right       int     `json:"right,omitempty"`
}

// Tree is a flattened regression tree; the root is node 0.
type Tree struct {
	Nodes []Node `json:"nodes"`
}

// Predict walks the tree for one feature vector.
func (t *Tree) Predict(x []float64) float64 {
	i := 0
	for {
		n := t.Nodes[i]
		if n.IsLeaf {
			return n.Value
		}
		v := x[n.Feature]
		if math.IsNaN(v) {
			if n.DefaultLeft {
				i = n.Left
			} else {
				i = n.Right
			}
			continue
		}
		if v <= n.Threshold {
			i = n.Left
		} else {
			i = n.Right
		}
	}
}

// treeBuilder grows one tree on gradient/hessian statistics.
type treeBuilder struct {
	x       [][]float64
	grad    []float64
	hess    []float64
	maxDepth int
	minLeaf  int
	lambda   float64
	shrink   float64

	nodes []Node
}

type splitResult struct {
	found       bool
	feature     int
	threshold   float64
	defaultLeft bool
	gain        float64
	left, right []int
}

func (b *treeBuilder) build(indices []int) Tree {
	b.nodes = b.nodes[:0]
	b.grow(indices, 0)
	return Tree{Nodes: append([]Node(nil), b.nodes...)}
}

// grow appends the subtree for the index set and returns its node id.
func (b *treeBuilder) grow(indices []int, depth int) int {
	id := len(b.nodes)
	b.nodes = append(b.nodes, Node{})

	if depth >= b.maxDepth || len(indices) < 2*b.minLeaf {
		b.nodes[id] = Node{IsLeaf: true, Value: b.leafValue(indices)}
		return id
	}

	best := b.bestSplit(indices)
	if !best.found {
		b.nodes[id] = Node{IsLeaf: true, Value: b.leafValue(indices)}
		return id
	}

	left := b.grow(best.left, depth+1)
	right := b.grow(best.right, depth+1)
	b.nodes[id] = Node{
		Feature:     best.feature,
		Threshold:   best.threshold,
		DefaultLeft: best.defaultLeft,
		Left:        left,
		Right:       right,
	}
	return id
}

func (b *treeBuilder) leafValue(indices []int) float64 {
	var g, h float64
	for _, i := range indices {
		g += b.grad[i]
		h += b.hess[i]
	}
	return b.shrink * (-g / (h + b.lambda))
}

func (b *treeBuilder) bestSplit(indices []int) splitResult {
	var totalG, totalH float64
	for _, i := range indices {
		totalG += b.grad[i]
		totalH += b.hess[i]
	}
	parentScore := totalG * totalG / (totalH + b.lambda)

	var best splitResult
	nFeatures := len(b.x[0])

	type entry struct {
		idx int
		v   float64
	}

	for f := 0; f < nFeatures; f++ {
		present := make([]entry, 0, len(indices))
		var missing []int
		var missG, missH float64
		for _, i := range indices {
			v := b.x[i][f]
			if math.IsNaN(v) {
				missing = append(missing, i)
				missG += b.grad[i]
				missH += b.hess[i]
				continue
			}
			present = append(present, entry{i, v})
		}
		if len(present) < 2 {
			continue
		}
		sort.Slice(present, func(a, c int) bool { return present[a].v < present[c].v })

		var leftG, leftH float64
		leftCount := 0
		for pos := 0; pos < len(present)-1; pos++ {
			i := present[pos].idx
			leftG += b.grad[i]
			leftH += b.hess[i]
			leftCount++
			if present[pos].v == present[pos+1].v {
				continue
			}

			// Try routing missing values to each side; keep the better.
			for _, missLeft := range []bool{true, false} {
				lg, lh, lc := leftG, leftH, leftCount
				rg := totalG - missG - leftG
				rh := totalH - missH - leftH
				rc := len(present) - leftCount
				if missLeft {
					lg += missG
					lh += missH
					lc += len(missing)
				} else {
					rg += missG
					rh += missH
					rc += len(missing)
				}
				if lc < b.minLeaf || rc < b.minLeaf {
					continue
				}
				gain := lg*lg/(lh+b.lambda) + rg*rg/(rh+b.lambda) - parentScore
				if gain > best.gain+1e-12 {
					best = splitResult{
						found:       true,
						feature:     f,
						threshold:   (present[pos].v + present[pos+1].v) / 2,
						defaultLeft: missLeft,
						gain:        gain,
					}
				}
			}
		}
	}

	if !best.found {
		return best
	}

	// Partition indices by the winning split.
	for _, i := range indices {
		v := b.x[i][best.feature]
		goLeft := false
		switch {
		case math.IsNaN(v):
			goLeft = best.defaultLeft
		case v <= best.threshold:
			goLeft = true
		}
		if goLeft {
			best.left = append(best.left, i)
		} else {
			best.right = append(best.right, i)
		}
	}
	return best
}
