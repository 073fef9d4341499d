// Package classifier trains the photo theme classifier and predicts a theme
// index for each feature vector.
//
// Three estimators are available: a random forest, an extremely randomized
// forest, and a weighted soft vote over a random forest, an extra-trees
// forest and an RBF kernel classifier.
package classifier

import (
	"errors"
	"fmt"
	"runtime"
	"strings"

	"gonum.org/v1/gonum/mat"
)

// ErrNotTrained is returned when predicting with a model that was never fit.
var ErrNotTrained = errors.New("classifier is not trained")

// Mode selects the estimator.
type Mode int

const (
	ModeRandomForest Mode = iota
	ModeExtraTrees
	ModeSoftVoting
)

var modeNames = map[Mode]string{
	ModeRandomForest: "random_forest",
	ModeExtraTrees:   "extra_trees",
	ModeSoftVoting:   "soft_voting",
}

func (m Mode) String() string {
	if s, ok := modeNames[m]; ok {
		return s
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// ParseMode maps a configuration name to a Mode.
func ParseMode(s string) (Mode, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for m, name := range modeNames {
		if name == s {
			return m, nil
		}
	}
	return 0, fmt.Errorf("unknown classifier mode %q (want random_forest, extra_trees or soft_voting)", s)
}

// Model is a probabilistic multi-class estimator.
type Model interface {
	// Fit trains on the rows of X labelled y, with labels in [0, classes).
	Fit(X mat.Matrix, y []int, classes int) error
	// PredictProba returns one row of class probabilities per row of X.
	PredictProba(X mat.Matrix) (*mat.Dense, error)
}

// Weights are the soft voting weights of the three members.
type Weights struct {
	Forest float64
	Extra  float64
	Kernel float64
}

// KernelConfig configures the RBF kernel classifier.
type KernelConfig struct {
	Gamma float64 // 0 selects 1 / (features * variance of X)
	C     float64 // regularization; larger fits the training set harder
}

// Config configures the estimator built by New.
type Config struct {
	Mode       Mode
	Trees      int // forest size for random_forest and extra_trees
	BlendTrees int // forest size of each soft voting forest
	Weights    Weights
	Kernel     KernelConfig

	MaxDepth        int // 0 grows trees until leaves are pure
	MinSamplesSplit int
	Workers         int // trees fit concurrently; 0 uses every CPU
	Seed            uint64
}

// DefaultConfig returns the random forest configuration.
func DefaultConfig() Config {
	return Config{
		Mode:            ModeRandomForest,
		Trees:           100,
		BlendTrees:      30,
		Weights:         Weights{Forest: 2, Extra: 1, Kernel: 2},
		Kernel:          KernelConfig{C: 1},
		MinSamplesSplit: 2,
	}
}

// Validate checks the configuration can build a model.
func (c Config) Validate() error {
	if _, ok := modeNames[c.Mode]; !ok {
		return fmt.Errorf("unknown classifier mode %d", int(c.Mode))
	}
	if c.MaxDepth < 0 || c.Workers < 0 {
		return fmt.Errorf("max depth and workers must not be negative")
	}
	if c.MinSamplesSplit < 2 {
		return fmt.Errorf("min samples split must be at least 2, got %d", c.MinSamplesSplit)
	}
	switch c.Mode {
	case ModeRandomForest, ModeExtraTrees:
		if c.Trees < 1 {
			return fmt.Errorf("%s needs at least one tree, got %d", c.Mode, c.Trees)
		}
	case ModeSoftVoting:
		if c.BlendTrees < 1 {
			return fmt.Errorf("soft voting needs at least one tree per forest, got %d", c.BlendTrees)
		}
		w := c.Weights
		if w.Forest < 0 || w.Extra < 0 || w.Kernel < 0 {
			return fmt.Errorf("voting weights must not be negative")
		}
		if w.Forest+w.Extra+w.Kernel == 0 {
			return fmt.Errorf("voting weights must not all be zero")
		}
		if c.Kernel.C <= 0 || c.Kernel.Gamma < 0 {
			return fmt.Errorf("kernel C must be positive and gamma not negative")
		}
	}
	return nil
}

func (c Config) workers() int {
	if c.Workers > 0 {
		return c.Workers
	}
	return runtime.NumCPU()
}

// New builds the estimator selected by cfg.Mode.
func New(cfg Config) (Model, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	switch cfg.Mode {
	case ModeExtraTrees:
		return NewExtraTrees(cfg.Trees, cfg), nil
	case ModeSoftVoting:
		extra := cfg
		extra.Seed = cfg.Seed + 1
		kernel := cfg
		kernel.Seed = cfg.Seed + 2
		return NewVoting(
			Member{Model: NewRandomForest(cfg.BlendTrees, cfg), Weight: cfg.Weights.Forest},
			Member{Model: NewExtraTrees(cfg.BlendTrees, extra), Weight: cfg.Weights.Extra},
			Member{Model: NewKernel(cfg.Kernel), Weight: cfg.Weights.Kernel},
		), nil
	default:
		return NewRandomForest(cfg.Trees, cfg), nil
	}
}

// checkFit validates a training set and returns it as a dense matrix.
func checkFit(X mat.Matrix, y []int, classes int) (*mat.Dense, error) {
	r, c := X.Dims()
	if r == 0 || c == 0 {
		return nil, fmt.Errorf("empty training matrix")
	}
	if r != len(y) {
		return nil, fmt.Errorf("training matrix has %d rows but %d labels", r, len(y))
	}
	if classes < 1 {
		return nil, fmt.Errorf("need at least one class, got %d", classes)
	}
	for i, v := range y {
		if v < 0 || v >= classes {
			return nil, fmt.Errorf("label %d at row %d outside [0, %d)", v, i, classes)
		}
	}
	return asDense(X), nil
}

func asDense(X mat.Matrix) *mat.Dense {
	if d, ok := X.(*mat.Dense); ok {
		return d
	}
	return mat.DenseCopyOf(X)
}
