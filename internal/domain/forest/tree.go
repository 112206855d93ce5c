package forest

import (
	"math/rand/v2"
	"sort"
)

// Node is one decision point or leaf. Leaves carry a class probability
// distribution (Probs non-nil); internal nodes route on a single feature
// threshold.
type Node struct {
	Feature   int       `json:"f"`
	Threshold float64   `json:"t"`
	Left      int       `json:"l"`
	Right     int       `json:"r"`
	Probs     []float64 `json:"p,omitempty"`
}

// Tree is a fitted CART classifier stored as a flat node array; node 0 is
// the root.
type Tree struct {
	Nodes []Node `json:"nodes"`
}

// Proba walks the tree and returns the leaf's class distribution.
func (t *Tree) Proba(x []float64) []float64 {
	i := 0
	for {
		n := &t.Nodes[i]
		if n.Probs != nil {
			return n.Probs
		}
		if x[n.Feature] <= n.Threshold {
			i = n.Left
		} else {
			i = n.Right
		}
	}
}

type treeParams struct {
	maxDepth        int
	minSamplesSplit int
	minSamplesLeaf  int
	maxFeatures     int
	numClasses      int
}

// builder grows one tree on a bootstrap sample. Sample weights are the
// class-balance weights; all impurity math is weight-aware so minority
// classes are not drowned out by the 40/35/20/5 label skew.
type builder struct {
	x   [][]float64
	y   []int
	w   []float64
	p   treeParams
	rng *rand.Rand

	nodes       []Node
	importance  []float64
	totalWeight float64
}

func (b *builder) fit(indices []int) *Tree {
	b.totalWeight = 0
	for _, i := range indices {
		b.totalWeight += b.w[i]
	}
	b.grow(indices, 0)
	return &Tree{Nodes: b.nodes}
}

// grow appends the subtree for indices and returns its root node index.
func (b *builder) grow(indices []int, depth int) int {
	counts := b.classWeights(indices)
	total := sum(counts)
	imp := gini(counts, total)

	if depth >= b.p.maxDepth || len(indices) < b.p.minSamplesSplit || imp == 0 {
		return b.leaf(counts, total)
	}

	split, ok := b.bestSplit(indices, counts, total, imp)
	if !ok {
		return b.leaf(counts, total)
	}

	b.importance[split.feature] += total / b.totalWeight * split.gain

	left := make([]int, 0, len(indices))
	right := make([]int, 0, len(indices))
	for _, i := range indices {
		if b.x[i][split.feature] <= split.threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}

	node := len(b.nodes)
	b.nodes = append(b.nodes, Node{Feature: split.feature, Threshold: split.threshold})
	l := b.grow(left, depth+1)
	r := b.grow(right, depth+1)
	b.nodes[node].Left = l
	b.nodes[node].Right = r
	return node
}

func (b *builder) leaf(counts []float64, total float64) int {
	probs := make([]float64, len(counts))
	for c, w := range counts {
		probs[c] = w / total
	}
	node := len(b.nodes)
	b.nodes = append(b.nodes, Node{Feature: -1, Probs: probs})
	return node
}

type splitCandidate struct {
	feature   int
	threshold float64
	gain      float64
}

// bestSplit scans a random feature subset for the threshold with the
// lowest weighted child impurity, honoring the minimum leaf size.
func (b *builder) bestSplit(indices []int, counts []float64, total, imp float64) (splitCandidate, bool) {
	numFeatures := len(b.x[indices[0]])
	perm := b.rng.Perm(numFeatures)
	features := perm[:b.p.maxFeatures]

	best := splitCandidate{gain: 0}
	found := false
	sorted := make([]int, len(indices))
	left := make([]float64, b.p.numClasses)

	for _, f := range features {
		copy(sorted, indices)
		sort.Slice(sorted, func(a, c int) bool { return b.x[sorted[a]][f] < b.x[sorted[c]][f] })

		for c := range left {
			left[c] = 0
		}
		leftW := 0.0

		for i := 1; i < len(sorted); i++ {
			prev := sorted[i-1]
			left[b.y[prev]] += b.w[prev]
			leftW += b.w[prev]

			if b.x[sorted[i]][f] == b.x[prev][f] {
				continue
			}
			if i < b.p.minSamplesLeaf || len(sorted)-i < b.p.minSamplesLeaf {
				continue
			}

			rightW := total - leftW
			childImp := (leftW*gini(left, leftW) + rightW*giniRight(left, counts, rightW)) / total
			gain := imp - childImp
			if gain > best.gain {
				best = splitCandidate{
					feature:   f,
					threshold: (b.x[prev][f] + b.x[sorted[i]][f]) / 2,
					gain:      gain,
				}
				found = true
			}
		}
	}
	return best, found
}

func (b *builder) classWeights(indices []int) []float64 {
	counts := make([]float64, b.p.numClasses)
	for _, i := range indices {
		counts[b.y[i]] += b.w[i]
	}
	return counts
}

func gini(counts []float64, total float64) float64 {
	if total == 0 {
		return 0
	}
	g := 1.0
	for _, w := range counts {
		p := w / total
		g -= p * p
	}
	return g
}

// giniRight computes impurity of the right child from the running left
// counts without materializing a second slice.
func giniRight(left, counts []float64, rightW float64) float64 {
	if rightW == 0 {
		return 0
	}
	g := 1.0
	for c := range counts {
		p := (counts[c] - left[c]) / rightW
		g -= p * p
	}
	return g
}

func sum(xs []float64) float64 {
	var s float64
	for _, v := range xs {
		s += v
	}
	return s
}
