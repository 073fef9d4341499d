// Package evaluate measures classifier accuracy on a held-out part of the
// training photos.
package evaluate

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"

	"theme-mapper/internal/classifier"
	"theme-mapper/internal/dataset"
	"theme-mapper/internal/logging"
)

// Config controls the train/test split.
type Config struct {
	TestFraction float64
	Seed         uint64
}

// DefaultConfig holds out 30% of the rows with seed 42.
func DefaultConfig() Config {
	return Config{TestFraction: 0.3, Seed: 42}
}

// Report summarizes one evaluation run.
type Report struct {
	Mode     string             `json:"mode"`
	Train    int                `json:"train"`
	Test     int                `json:"test"`
	Correct  int                `json:"correct"`
	Accuracy float64            `json:"accuracy"`
	PerTheme map[string]float64 `json:"per_theme"` // recall of each theme present in the test rows
	// Confusion[i][j] counts test rows of theme i predicted as theme j.
	Confusion [][]int `json:"confusion"`
}

// Split shuffles the rows of tm and holds out ceil(n*fraction) of them.
// Both partitions are non-empty.
func Split(tm *dataset.TrainingMatrix, fraction float64, seed uint64) (train, test *dataset.TrainingMatrix, err error) {
	if fraction <= 0 || fraction >= 1 {
		return nil, nil, fmt.Errorf("test fraction must be in (0, 1), got %v", fraction)
	}
	n := tm.Rows()
	k := int(math.Ceil(float64(n) * fraction))
	if k < 1 || k >= n {
		return nil, nil, fmt.Errorf("cannot hold out %v of %d rows", fraction, n)
	}
	perm := rand.New(rand.NewPCG(seed, seed)).Perm(n)
	return tm.Subset(perm[k:]), tm.Subset(perm[:k]), nil
}

// Run trains a model configured by model on the training split and scores
// it on the held-out split.
func Run(ctx context.Context, tm *dataset.TrainingMatrix, model classifier.Config, cfg Config) (Report, error) {
	train, test, err := Split(tm, cfg.TestFraction, cfg.Seed)
	if err != nil {
		return Report{}, err
	}
	c, err := classifier.NewClassifier(model)
	if err != nil {
		return Report{}, err
	}
	if err := c.Train(ctx, train); err != nil {
		return Report{}, err
	}
	if err := ctx.Err(); err != nil {
		return Report{}, err
	}
	pred, err := c.PredictBatch(test.X)
	if err != nil {
		return Report{}, fmt.Errorf("failed to predict held-out rows: %w", err)
	}

	k := tm.Labels.Len()
	rep := Report{
		Mode:      model.Mode.String(),
		Train:     train.Rows(),
		Test:      test.Rows(),
		PerTheme:  make(map[string]float64),
		Confusion: make([][]int, k),
	}
	for i := range rep.Confusion {
		rep.Confusion[i] = make([]int, k)
	}
	for i, p := range pred {
		rep.Confusion[test.Y[i]][p]++
		if p == test.Y[i] {
			rep.Correct++
		}
	}
	rep.Accuracy = float64(rep.Correct) / float64(rep.Test)
	for i, row := range rep.Confusion {
		total := 0
		for _, v := range row {
			total += v
		}
		if total == 0 {
			continue
		}
		label, _ := tm.Labels.Label(i)
		rep.PerTheme[label] = float64(row[i]) / float64(total)
	}

	logging.Ctx(ctx).Info().
		Str("mode", rep.Mode).
		Int("train", rep.Train).
		Int("test", rep.Test).
		Float64("accuracy", rep.Accuracy).
		Msg("evaluation finished")
	return rep, nil
}
