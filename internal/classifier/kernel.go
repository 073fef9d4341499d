package classifier

import (
	"fmt"
	"math"

	"theme-mapper/internal/domain"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// Kernel is a one-vs-rest least-squares support vector classifier with an
// RBF kernel. Each class c gets a decision function
//
//	f_c(x) = sum_i alpha_ci k(x, x_i) + b_c
//
// fit by solving (K + I/C) alpha_c = y_c - b_c with sum(alpha_c) = 0, where
// y_c is +1 on class c and -1 elsewhere. Decision values are turned into
// probabilities with a softmax.
type Kernel struct {
	cfg KernelConfig

	gamma   float64
	train   *mat.Dense
	norms   []float64
	alpha   *mat.Dense // rows x classes
	bias    []float64
	classes int
}

// NewKernel returns an unfitted kernel classifier.
func NewKernel(cfg KernelConfig) *Kernel {
	if cfg.C <= 0 {
		cfg.C = 1
	}
	return &Kernel{cfg: cfg}
}

// Gamma returns the RBF width used by the last Fit.
func (k *Kernel) Gamma() float64 { return k.gamma }

// Fit factors the regularized kernel matrix once and solves every class
// against it.
func (k *Kernel) Fit(X mat.Matrix, y []int, classes int) error {
	x, err := checkFit(X, y, classes)
	if err != nil {
		return err
	}
	n, _ := x.Dims()

	gamma := k.cfg.Gamma
	if gamma == 0 {
		gamma = scaleGamma(x)
	}

	var gram mat.Dense
	gram.Mul(x, x.T())
	norms := make([]float64, n)
	for i := range n {
		norms[i] = gram.At(i, i)
	}

	h := mat.NewSymDense(n, nil)
	for i := range n {
		for j := i; j < n; j++ {
			v := rbf(gamma, norms[i], norms[j], gram.At(i, j))
			if i == j {
				v += 1 / k.cfg.C
			}
			h.SetSym(i, j, v)
		}
	}
	var chol mat.Cholesky
	if ok := chol.Factorize(h); !ok {
		return fmt.Errorf("kernel matrix of %d rows is not positive definite", n)
	}

	rhs := mat.NewDense(n, classes+1, nil)
	for i := range n {
		rhs.Set(i, 0, 1)
		for c := range classes {
			if y[i] == c {
				rhs.Set(i, c+1, 1)
			} else {
				rhs.Set(i, c+1, -1)
			}
		}
	}
	var sol mat.Dense
	if err := chol.SolveTo(&sol, rhs); err != nil {
		return fmt.Errorf("failed to solve kernel system: %w", err)
	}

	eta := mat.Col(nil, 0, &sol)
	var etaSum float64
	for _, v := range eta {
		etaSum += v
	}
	alpha := mat.NewDense(n, classes, nil)
	bias := make([]float64, classes)
	for c := range classes {
		nu := mat.Col(nil, c+1, &sol)
		var nuSum float64
		for _, v := range nu {
			nuSum += v
		}
		b := nuSum / etaSum
		bias[c] = b
		for i := range n {
			alpha.Set(i, c, nu[i]-b*eta[i])
		}
	}

	train := mat.DenseCopyOf(x)
	k.gamma, k.train, k.norms, k.alpha, k.bias, k.classes = gamma, train, norms, alpha, bias, classes
	return nil
}

// PredictProba returns the softmax of the per-class decision values.
func (k *Kernel) PredictProba(X mat.Matrix) (*mat.Dense, error) {
	scores, err := k.Decision(X)
	if err != nil {
		return nil, err
	}
	r, _ := scores.Dims()
	for i := range r {
		softmax(scores.RawRowView(i))
	}
	return scores, nil
}

// Decision returns the raw one-vs-rest decision values.
func (k *Kernel) Decision(X mat.Matrix) (*mat.Dense, error) {
	if k.train == nil {
		return nil, ErrNotTrained
	}
	r, c := X.Dims()
	if r == 0 {
		return nil, &domain.EmptyInputError{What: "prediction rows"}
	}
	_, width := k.train.Dims()
	if c != width {
		return nil, &domain.ShapeMismatchError{What: "kernel input", Want: width, Got: c}
	}

	var cross mat.Dense
	cross.Mul(X, k.train.T())
	n := len(k.norms)
	row := make([]float64, c)
	km := mat.NewDense(r, n, nil)
	for i := range r {
		mat.Row(row, i, X)
		self := dot(row, row)
		dst := km.RawRowView(i)
		for j := range n {
			dst[j] = rbf(k.gamma, self, k.norms[j], cross.At(i, j))
		}
	}

	scores := mat.NewDense(r, k.classes, nil)
	scores.Mul(km, k.alpha)
	for i := range r {
		dst := scores.RawRowView(i)
		for cl := range dst {
			dst[cl] += k.bias[cl]
		}
	}
	return scores, nil
}

// scaleGamma is 1 / (features * var(X)), or 1 when X is constant.
func scaleGamma(x *mat.Dense) float64 {
	r, c := x.Dims()
	all := make([]float64, 0, r*c)
	for i := range r {
		all = append(all, x.RawRowView(i)...)
	}
	v := stat.PopVariance(all, nil)
	if v == 0 {
		return 1
	}
	return 1 / (float64(c) * v)
}

func rbf(gamma, a, b, ab float64) float64 {
	d := a + b - 2*ab
	if d < 0 {
		d = 0
	}
	return math.Exp(-gamma * d)
}

func dot(a, b []float64) float64 {
	var s float64
	for i := range a {
		s += a[i] * b[i]
	}
	return s
}

func softmax(v []float64) {
	m := math.Inf(-1)
	for _, x := range v {
		m = math.Max(m, x)
	}
	var sum float64
	for i, x := range v {
		v[i] = math.Exp(x - m)
		sum += v[i]
	}
	for i := range v {
		v[i] /= sum
	}
}
