package classifier

import (
	"math"
	"math/rand/v2"
	"sync"

	"theme-mapper/internal/domain"

	"gonum.org/v1/gonum/mat"
)

// Forest is an ensemble of trees whose class probabilities are averaged.
//
// A random forest fits each tree on a bootstrap sample and searches the best
// threshold of sqrt(d) random features per split. Extra trees fit every tree
// on the full set and draw the threshold of each candidate feature at random.
type Forest struct {
	trees     int
	bootstrap bool
	random    bool
	maxDepth  int
	minSplit  int
	workers   int
	seed      uint64

	fitted  []*tree
	classes int
	width   int
}

// NewRandomForest returns an unfitted random forest of n trees.
func NewRandomForest(n int, cfg Config) *Forest {
	return newForest(n, cfg, true, false)
}

// NewExtraTrees returns an unfitted extremely randomized forest of n trees.
func NewExtraTrees(n int, cfg Config) *Forest {
	return newForest(n, cfg, false, true)
}

func newForest(n int, cfg Config, bootstrap, random bool) *Forest {
	minSplit := cfg.MinSamplesSplit
	if minSplit < 2 {
		minSplit = 2
	}
	return &Forest{
		trees:     n,
		bootstrap: bootstrap,
		random:    random,
		maxDepth:  cfg.MaxDepth,
		minSplit:  minSplit,
		workers:   cfg.workers(),
		seed:      cfg.Seed,
	}
}

// Fit grows every tree. Tree t draws from its own generator seeded with
// (seed, t), so the result does not depend on the number of workers.
func (f *Forest) Fit(X mat.Matrix, y []int, classes int) error {
	x, err := checkFit(X, y, classes)
	if err != nil {
		return err
	}
	n, d := x.Dims()
	p := treeParams{
		maxFeatures: max(1, int(math.Sqrt(float64(d)))),
		maxDepth:    f.maxDepth,
		minSplit:    f.minSplit,
		random:      f.random,
	}

	fitted := make([]*tree, f.trees)
	jobs := make(chan int)
	var wg sync.WaitGroup
	for range min(f.workers, f.trees) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for t := range jobs {
				rng := rand.New(rand.NewPCG(f.seed, uint64(t)))
				fitted[t] = fitTree(x, y, f.sample(n, rng), classes, p, rng)
			}
		}()
	}
	for t := range f.trees {
		jobs <- t
	}
	close(jobs)
	wg.Wait()

	f.fitted, f.classes, f.width = fitted, classes, d
	return nil
}

func (f *Forest) sample(n int, rng *rand.Rand) []int {
	idx := make([]int, n)
	for i := range idx {
		if f.bootstrap {
			idx[i] = rng.IntN(n)
		} else {
			idx[i] = i
		}
	}
	return idx
}

// PredictProba averages the leaf frequencies of every tree.
func (f *Forest) PredictProba(X mat.Matrix) (*mat.Dense, error) {
	if f.fitted == nil {
		return nil, ErrNotTrained
	}
	r, c := X.Dims()
	if r == 0 {
		return nil, &domain.EmptyInputError{What: "prediction rows"}
	}
	if c != f.width {
		return nil, &domain.ShapeMismatchError{What: "forest input", Want: f.width, Got: c}
	}
	out := mat.NewDense(r, f.classes, nil)
	row := make([]float64, c)
	scale := 1 / float64(len(f.fitted))
	for i := range r {
		mat.Row(row, i, X)
		dst := out.RawRowView(i)
		for _, t := range f.fitted {
			for k, p := range t.proba(row) {
				dst[k] += p * scale
			}
		}
	}
	return out, nil
}
