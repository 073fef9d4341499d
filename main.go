// Package main provides the entry point for theme-mapper. It classifies the
// test photos of every country into tourist themes, draws a bar chart per
// country and colors a world map by each country's dominant theme.
//
// Configuration comes from theme-mapper.yaml (or $THEMES_CONFIG) and
// THEMES_* environment variables. Set pipeline.build_matrices to rebuild
// the feature matrices from the photo folders first.
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
	"theme-mapper/internal/version"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	logging.Init(cfg.Logging.Logging())
	logging.Info().Str("version", version.String()).Str("config", cfg.String()).Msg("starting")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, pipeline.New(cfg), cfg); err != nil {
		logging.Err(err).Msg("theme-mapper failed")
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, r *pipeline.Runner, cfg *config.Config) error {
	if cfg.Pipeline.BuildMatrices {
		sum, err := r.BuildMatrices(ctx)
		if err != nil {
			return fmt.Errorf("build matrices: %w", err)
		}
		fmt.Printf("Built matrices: %d photos in %d themes, %d countries, %d features\n",
			sum.Photos, sum.Themes, sum.Countries, sum.Width)
	}

	rep, err := r.ClassifyCountries(ctx)
	if err != nil {
		return fmt.Errorf("classify countries: %w", err)
	}
	for _, c := range rep.Countries {
		fmt.Printf("  %-24s %-16s (%d photos)\n", c.Country, c.Theme, c.Photos)
	}
	fmt.Printf("Wrote %s\n", rep.Assignments)

	if !cfg.Pipeline.WorldMap {
		return nil
	}
	skipped, err := r.PlotWorldMap(ctx)
	if err != nil {
		return fmt.Errorf("world map: %w", err)
	}
	for _, name := range skipped {
		fmt.Printf("Not on map: %s\n", name)
	}
	fmt.Printf("Wrote %s\n", cfg.Paths.Resolve(cfg.Paths.WorldMap))
	return nil
}
