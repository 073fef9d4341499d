package evaluate

import (
	"context"
	"sort"
	"testing"

	"theme-mapper/internal/classifier"
	"theme-mapper/internal/dataset"
	"theme-mapper/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

// separable has n rows per theme; every feature of theme c equals 10*c
// plus a small row-dependent offset.
func separable(t *testing.T, n int) *dataset.TrainingMatrix {
	t.Helper()
	labels, err := domain.NewLabelTable([]string{"beach", "mountain"})
	require.NoError(t, err)
	x := mat.NewDense(2*n, 3, nil)
	y := make([]int, 2*n)
	for c := range 2 {
		for i := range n {
			r := c*n + i
			y[r] = c
			for j := range 3 {
				x.Set(r, j, 10*float64(c)+float64(i)/float64(n))
			}
		}
	}
	return &dataset.TrainingMatrix{X: x, Y: y, Labels: labels}
}

func TestSplitSizesAndDisjoint(t *testing.T) {
	tm := separable(t, 5)
	train, test, err := Split(tm, 0.3, 42)
	require.NoError(t, err)
	assert.Equal(t, 3, test.Rows())
	assert.Equal(t, 7, train.Rows())

	seen := map[float64]int{}
	for _, part := range []*dataset.TrainingMatrix{train, test} {
		for i := range part.Rows() {
			seen[part.X.At(i, 0)+100*float64(part.Y[i])]++
		}
	}
	assert.Len(t, seen, 10)
}

func TestSplitIsSeeded(t *testing.T) {
	tm := separable(t, 10)
	_, a, err := Split(tm, 0.3, 42)
	require.NoError(t, err)
	_, b, err := Split(tm, 0.3, 42)
	require.NoError(t, err)
	assert.True(t, mat.Equal(a.X, b.X))
	assert.Equal(t, a.Y, b.Y)
}

func TestSplitRejects(t *testing.T) {
	tm := separable(t, 1)
	_, _, err := Split(tm, 0, 1)
	assert.Error(t, err)
	_, _, err = Split(tm, 1, 1)
	assert.Error(t, err)

	labels, err := domain.NewLabelTable([]string{"beach"})
	require.NoError(t, err)
	single := &dataset.TrainingMatrix{X: mat.NewDense(1, 1, nil), Y: []int{0}, Labels: labels}
	_, _, err = Split(single, 0.3, 1)
	assert.Error(t, err)
}

func TestRunOnSeparableData(t *testing.T) {
	tm := separable(t, 20)
	model := classifier.DefaultConfig()
	model.Trees = 10
	model.Seed = 1

	rep, err := Run(context.Background(), tm, model, DefaultConfig())
	require.NoError(t, err)
	assert.Equal(t, "random_forest", rep.Mode)
	assert.Equal(t, 12, rep.Test)
	assert.Equal(t, 28, rep.Train)
	assert.Equal(t, rep.Test, rep.Correct)
	assert.Equal(t, 1.0, rep.Accuracy)

	themes := make([]string, 0, len(rep.PerTheme))
	for k, v := range rep.PerTheme {
		themes = append(themes, k)
		assert.Equal(t, 1.0, v)
	}
	sort.Strings(themes)
	assert.Subset(t, []string{"beach", "mountain"}, themes)

	total := 0
	for _, row := range rep.Confusion {
		for _, v := range row {
			total += v
		}
	}
	assert.Equal(t, rep.Test, total)
}

func TestRunHonorsCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	model := classifier.DefaultConfig()
	model.Trees = 2
	_, err := Run(ctx, separable(t, 5), model, DefaultConfig())
	assert.ErrorIs(t, err, context.Canceled)
}
