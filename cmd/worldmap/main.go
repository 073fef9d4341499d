// Command worldmap redraws the world map from an existing assignments file
// without classifying again.
package main

import (
	"context"
	"fmt"
	"os"

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

	skipped, err := pipeline.New(cfg).PlotWorldMap(context.Background())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	for _, name := range skipped {
		fmt.Printf("Not on map: %s\n", name)
	}
	fmt.Printf("Wrote %s\n", cfg.Paths.Resolve(cfg.Paths.WorldMap))
}
