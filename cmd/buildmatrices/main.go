// Command buildmatrices extracts a feature vector from every training and
// test photo and writes the training matrix, the theme list and one matrix
// per country.
//
// Photos are read from paths.train_images/<theme>/ and
// paths.test_images/visit_<country>/.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

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

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sum, err := pipeline.New(cfg).BuildMatrices(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error building matrices: %v\n", err)
		stop()
		os.Exit(1)
	}

	fmt.Printf("Themes:    %d\n", sum.Themes)
	fmt.Printf("Photos:    %d\n", sum.Photos)
	fmt.Printf("Countries: %d\n", sum.Countries)
	fmt.Printf("Features:  %d per photo\n", sum.Width)
	fmt.Printf("Wrote %s and %s\n",
		cfg.Paths.Resolve(cfg.Paths.TrainMatrices), cfg.Paths.Resolve(cfg.Paths.TestMatrices))
}
