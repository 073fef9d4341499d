package classifier

import (
	"cmp"
	"math"
	"math/rand/v2"
	"slices"

	"gonum.org/v1/gonum/mat"
)

type treeParams struct {
	maxFeatures int // non-constant features examined per split
	maxDepth    int // 0 is unlimited
	minSplit    int
	random      bool // draw one threshold per feature instead of searching
}

// node is a leaf when feature < 0.
type node struct {
	feature     int
	threshold   float64
	left, right int
	proba       []float64
}

// tree is a CART classification tree split on Gini impurity.
type tree struct {
	nodes []node
}

func (t *tree) proba(row []float64) []float64 {
	i := 0
	for {
		n := &t.nodes[i]
		if n.feature < 0 {
			return n.proba
		}
		if row[n.feature] <= n.threshold {
			i = n.left
		} else {
			i = n.right
		}
	}
}

type sample struct {
	v float64
	c int
}

type split struct {
	feature   int
	threshold float64
	score     float64
}

type treeBuilder struct {
	p       treeParams
	x       *mat.Dense
	y       []int
	classes int
	rng     *rand.Rand

	features []int
	pairs    []sample
	left     []int
	right    []int
	t        *tree
}

// fitTree grows a tree on the rows of x listed in idx. idx is reordered.
func fitTree(x *mat.Dense, y []int, idx []int, classes int, p treeParams, rng *rand.Rand) *tree {
	_, d := x.Dims()
	b := &treeBuilder{
		p:        p,
		x:        x,
		y:        y,
		classes:  classes,
		rng:      rng,
		features: make([]int, d),
		pairs:    make([]sample, 0, len(idx)),
		left:     make([]int, classes),
		right:    make([]int, classes),
		t:        &tree{},
	}
	for i := range b.features {
		b.features[i] = i
	}
	if b.p.maxFeatures <= 0 || b.p.maxFeatures > d {
		b.p.maxFeatures = d
	}
	b.grow(idx, 0)
	return b.t
}

func (b *treeBuilder) grow(idx []int, depth int) int {
	counts := make([]int, b.classes)
	for _, i := range idx {
		counts[b.y[i]]++
	}

	id := len(b.t.nodes)
	b.t.nodes = append(b.t.nodes, node{feature: -1, proba: frequencies(counts, len(idx))})

	if len(idx) < b.p.minSplit || (b.p.maxDepth > 0 && depth >= b.p.maxDepth) || pure(counts) {
		return id
	}
	s, ok := b.bestSplit(idx, counts)
	if !ok {
		return id
	}

	k := 0
	for j, i := range idx {
		if b.x.At(i, s.feature) <= s.threshold {
			idx[k], idx[j] = idx[j], idx[k]
			k++
		}
	}
	l := b.grow(idx[:k], depth+1)
	r := b.grow(idx[k:], depth+1)
	b.t.nodes[id] = node{feature: s.feature, threshold: s.threshold, left: l, right: r}
	return id
}

// bestSplit examines features in random order until maxFeatures of them
// have proved non-constant on idx.
func (b *treeBuilder) bestSplit(idx []int, counts []int) (split, bool) {
	best := split{score: math.Inf(1)}
	found := false
	visited := 0
	for j := 0; j < len(b.features) && visited < b.p.maxFeatures; j++ {
		swap := j + b.rng.IntN(len(b.features)-j)
		b.features[j], b.features[swap] = b.features[swap], b.features[j]
		f := b.features[j]

		var s split
		var ok bool
		if b.p.random {
			s, ok = b.randomSplit(idx, counts, f)
		} else {
			s, ok = b.searchSplit(idx, counts, f)
		}
		if !ok {
			continue
		}
		visited++
		if s.score < best.score {
			best, found = s, true
		}
	}
	return best, found
}

// searchSplit finds the threshold on f with the lowest weighted Gini.
func (b *treeBuilder) searchSplit(idx []int, counts []int, f int) (split, bool) {
	b.pairs = b.pairs[:0]
	for _, i := range idx {
		b.pairs = append(b.pairs, sample{v: b.x.At(i, f), c: b.y[i]})
	}
	slices.SortFunc(b.pairs, func(a, c sample) int { return cmp.Compare(a.v, c.v) })
	n := len(b.pairs)
	if b.pairs[0].v == b.pairs[n-1].v {
		return split{}, false
	}

	clear(b.left)
	copy(b.right, counts)
	var sqL, sqR float64
	for _, c := range counts {
		sqR += float64(c * c)
	}

	best := split{feature: f, score: math.Inf(1)}
	for i := 0; i < n-1; i++ {
		c := b.pairs[i].c
		sqL += float64(2*b.left[c] + 1)
		b.left[c]++
		sqR -= float64(2*b.right[c] - 1)
		b.right[c]--

		lo, hi := b.pairs[i].v, b.pairs[i+1].v
		if lo == hi {
			continue
		}
		nL, nR := float64(i+1), float64(n-i-1)
		score := nL - sqL/nL + nR - sqR/nR
		if score < best.score {
			thr := lo + (hi-lo)/2
			if thr >= hi {
				thr = lo
			}
			best.score, best.threshold = score, thr
		}
	}
	return best, true
}

// randomSplit scores one threshold drawn uniformly between the extremes of f.
func (b *treeBuilder) randomSplit(idx []int, counts []int, f int) (split, bool) {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, i := range idx {
		v := b.x.At(i, f)
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	if lo == hi {
		return split{}, false
	}
	thr := lo + b.rng.Float64()*(hi-lo)
	if thr >= hi {
		thr = lo
	}

	clear(b.left)
	nL := 0
	for _, i := range idx {
		if b.x.At(i, f) <= thr {
			b.left[b.y[i]]++
			nL++
		}
	}
	nR := len(idx) - nL
	var sqL, sqR float64
	for c, total := range counts {
		l := b.left[c]
		r := total - l
		sqL += float64(l * l)
		sqR += float64(r * r)
	}
	score := float64(nL) - sqL/float64(nL) + float64(nR) - sqR/float64(nR)
	return split{feature: f, threshold: thr, score: score}, true
}

func pure(counts []int) bool {
	seen := 0
	for _, c := range counts {
		if c > 0 {
			seen++
		}
	}
	return seen <= 1
}

func frequencies(counts []int, n int) []float64 {
	p := make([]float64, len(counts))
	if n == 0 {
		return p
	}
	for i, c := range counts {
		p[i] = float64(c) / float64(n)
	}
	return p
}
