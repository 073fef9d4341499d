// Command accuracy trains the configured classifier on part of the training
// matrix and reports how well it predicts the held-out photos.
package main

import (
	"context"
	"fmt"
	"os"
	"sort"

	"theme-mapper/internal/config"
	"theme-mapper/internal/logging"
	"theme-mapper/internal/pipeline"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	logging.Init(cfg.Logging.Logging())

	rep, err := pipeline.New(cfg).Evaluate(context.Background())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Classifier: %s\n", rep.Mode)
	fmt.Printf("Train/test: %d/%d photos\n", rep.Train, rep.Test)
	fmt.Printf("Accuracy:   %.4f (%d correct)\n", rep.Accuracy, rep.Correct)

	themes := make([]string, 0, len(rep.PerTheme))
	for name := range rep.PerTheme {
		themes = append(themes, name)
	}
	sort.Strings(themes)
	fmt.Println("\nPer theme recall:")
	for _, name := range themes {
		fmt.Printf("  %-20s %.2f\n", name, rep.PerTheme[name])
	}
}
