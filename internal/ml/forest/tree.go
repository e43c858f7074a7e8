package forest

import (
	"math/rand"
	"sort"
)

// leaf marks a terminal node in Node.Feature.
const leaf = -1

// Node is one entry of a flattened decision tree. Internal nodes route
// x[Feature] <= Threshold to Left, everything else to Right. Leaves carry the
// class distribution of the training samples that reached them.
type Node struct {
	Feature   int
	Threshold float64
	Left      int
	Right     int
	Value     []float64
}

// Tree is a CART classifier stored as a slice of nodes rooted at index 0.
type Tree struct {
	Nodes []Node
}

// proba walks x down to a leaf and returns that leaf's distribution.
func (t *Tree) proba(x []float64) []float64 {
	i := 0
	for {
		n := &t.Nodes[i]
		if n.Feature == leaf {
			return n.Value
		}
		if x[n.Feature] <= n.Threshold {
			i = n.Left
		} else {
			i = n.Right
		}
	}
}

// Depth returns the longest root-to-leaf path.
func (t *Tree) Depth() int {
	var walk func(i int) int
	walk = func(i int) int {
		n := t.Nodes[i]
		if n.Feature == leaf {
			return 0
		}
		return 1 + max(walk(n.Left), walk(n.Right))
	}
	return walk(0)
}

// builder grows one tree over a bootstrap sample.
type builder struct {
	x           [][]float64
	y           []int
	numClasses  int
	maxFeatures int
	maxDepth    int
	minSplit    int
	rng         *rand.Rand
	nodes       []Node
}

func (b *builder) build(idx []int, depth int) int {
	counts := b.counts(idx)
	self := len(b.nodes)
	b.nodes = append(b.nodes, Node{Feature: leaf})

	if b.pure(counts) || len(idx) < b.minSplit || (b.maxDepth > 0 && depth >= b.maxDepth) {
		b.nodes[self].Value = distribution(counts, len(idx))
		return self
	}

	feature, threshold, ok := b.bestSplit(idx)
	if !ok {
		b.nodes[self].Value = distribution(counts, len(idx))
		return self
	}

	var left, right []int
	for _, i := range idx {
		if b.x[i][feature] <= threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}

	l := b.build(left, depth+1)
	r := b.build(right, depth+1)
	b.nodes[self] = Node{Feature: feature, Threshold: threshold, Left: l, Right: r}
	return self
}

func (b *builder) counts(idx []int) []int {
	c := make([]int, b.numClasses)
	for _, i := range idx {
		c[b.y[i]]++
	}
	return c
}

func (b *builder) pure(counts []int) bool {
	nonzero := 0
	for _, c := range counts {
		if c > 0 {
			nonzero++
		}
	}
	return nonzero <= 1
}

func distribution(counts []int, n int) []float64 {
	v := make([]float64, len(counts))
	for k, c := range counts {
		v[k] = float64(c) / float64(n)
	}
	return v
}

// bestSplit samples candidate features in random order and returns the split
// with the lowest weighted gini impurity. Constant features do not count
// toward maxFeatures, so the search keeps drawing until it has examined
// maxFeatures splittable features or run out.
func (b *builder) bestSplit(idx []int) (int, float64, bool) {
	var (
		bestFeature   = -1
		bestThreshold float64
		bestScore     = -1.0
		examined      int
	)

	order := make([]int, len(idx))
	for _, f := range b.rng.Perm(len(b.x[0])) {
		if examined >= b.maxFeatures {
			break
		}
		copy(order, idx)
		sort.Slice(order, func(i, j int) bool { return b.x[order[i]][f] < b.x[order[j]][f] })
		if b.x[order[0]][f] == b.x[order[len(order)-1]][f] {
			continue
		}
		examined++

		score, threshold := b.scanFeature(order, f)
		if score > bestScore {
			bestScore, bestFeature, bestThreshold = score, f, threshold
		}
	}
	return bestFeature, bestThreshold, bestFeature >= 0
}

// scanFeature sweeps the sorted samples once. Minimizing weighted gini is
// equivalent to maximizing sum(left^2)/nl + sum(right^2)/nr, which is what
// the returned score holds.
func (b *builder) scanFeature(order []int, f int) (float64, float64) {
	n := len(order)
	left := make([]int, b.numClasses)
	right := b.counts(order)

	var sqLeft, sqRight float64
	for _, c := range right {
		sqRight += float64(c * c)
	}

	best := -1.0
	var threshold float64
	for i := 0; i < n-1; i++ {
		k := b.y[order[i]]
		sqLeft += float64(2*left[k] + 1)
		left[k]++
		sqRight -= float64(2*right[k] - 1)
		right[k]--

		v, next := b.x[order[i]][f], b.x[order[i+1]][f]
		if v == next {
			continue
		}
		nl, nr := float64(i+1), float64(n-i-1)
		score := sqLeft/nl + sqRight/nr
		if score > best {
			best = score
			threshold = v + (next-v)/2
			if threshold == next {
				threshold = v
			}
		}
	}
	return best, threshold
}
