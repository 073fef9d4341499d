// Package config loads the theme-mapper configuration.
//
// Values are layered, later layers winning:
//
//  1. built-in defaults
//  2. a YAML file: $THEMES_CONFIG, or theme-mapper.yaml if present
//  3. THEMES_ environment variables, with "__" separating sections:
//     THEMES_CLASSIFIER__MODE=soft_voting, THEMES_PATHS__ROOT=/data
package config

import (
	"fmt"
	"path/filepath"

	"theme-mapper/internal/classifier"
	"theme-mapper/internal/dataset"
	"theme-mapper/internal/evaluate"
	"theme-mapper/internal/features"
	"theme-mapper/internal/logging"
	"theme-mapper/internal/photo"
	"theme-mapper/internal/render"

	"github.com/paulmach/orb"
)

// Config is the complete configuration.
type Config struct {
	Paths      PathsConfig      `koanf:"paths"`
	Features   FeaturesConfig   `koanf:"features"`
	Classifier ClassifierConfig `koanf:"classifier"`
	Evaluation EvaluationConfig `koanf:"evaluation"`
	Aggregate  AggregateConfig  `koanf:"aggregate"`
	WorldMap   WorldMapConfig   `koanf:"worldmap"`
	Logging    LoggingConfig    `koanf:"logging"`
	Pipeline   PipelineConfig   `koanf:"pipeline"`
}

// PathsConfig locates inputs and outputs. Relative paths resolve against Root.
type PathsConfig struct {
	Root             string `koanf:"root"`
	TrainImages      string `koanf:"train_images" validate:"required"`
	TestImages       string `koanf:"test_images" validate:"required"`
	CountryPrefix    string `koanf:"country_prefix"`
	TrainMatrices    string `koanf:"train_matrices" validate:"required"`
	TestMatrices     string `koanf:"test_matrices" validate:"required"`
	Assignments      string `koanf:"assignments" validate:"required"`
	Charts           string `koanf:"charts" validate:"required"`
	WorldMap         string `koanf:"world_map" validate:"required"`
	CountriesGeoJSON string `koanf:"countries_geojson" validate:"required"`
	Report           string `koanf:"report" validate:"required"`
	AccuracyReport   string `koanf:"accuracy_report" validate:"required"`
}

// Resolve returns p joined to Root unless it is absolute or empty.
func (c PathsConfig) Resolve(p string) string {
	if p == "" || filepath.IsAbs(p) || c.Root == "" {
		return p
	}
	return filepath.Join(c.Root, p)
}

// Store returns the matrix store rooted at the configured directories.
func (c PathsConfig) Store() dataset.Store {
	return dataset.Store{TrainDir: c.Resolve(c.TrainMatrices), TestDir: c.Resolve(c.TestMatrices)}
}

// FeaturesConfig configures the per-photo feature vector.
type FeaturesConfig struct {
	ImageSize     int       `koanf:"image_size" validate:"gt=0"`
	Interpolation string    `koanf:"interpolation" validate:"oneof=nearest bilinear catmullrom bicubic"`
	HOG           HOGConfig `koanf:"hog"`
}

// HOGConfig configures the gradient histogram.
type HOGConfig struct {
	Orientations  int    `koanf:"orientations" validate:"gt=0"`
	PixelsPerCell int    `koanf:"pixels_per_cell" validate:"gt=0"`
	CellsPerBlock int    `koanf:"cells_per_block" validate:"gt=0"`
	BlockNorm     string `koanf:"block_norm" validate:"oneof=L1 L2-Hys l1 l2-hys"`
}

// Params converts the section to extractor parameters.
func (c FeaturesConfig) Params() (features.Params, error) {
	interp, err := photo.ParseInterpolation(c.Interpolation)
	if err != nil {
		return features.Params{}, err
	}
	norm, err := features.ParseBlockNorm(c.HOG.BlockNorm)
	if err != nil {
		return features.Params{}, err
	}
	p := features.Params{
		ImageSize:     c.ImageSize,
		Interpolation: interp,
		HOG: features.HOGParams{
			Orientations:  c.HOG.Orientations,
			PixelsPerCell: c.HOG.PixelsPerCell,
			CellsPerBlock: c.HOG.CellsPerBlock,
			BlockNorm:     norm,
		},
	}
	return p, p.Validate()
}

// ClassifierConfig selects and sizes the estimator.
type ClassifierConfig struct {
	Mode            string       `koanf:"mode" validate:"oneof=random_forest extra_trees soft_voting"`
	Trees           int          `koanf:"trees" validate:"gt=0"`
	BlendTrees      int          `koanf:"blend_trees" validate:"gt=0"`
	Weights         WeightConfig `koanf:"weights"`
	Kernel          KernelConfig `koanf:"kernel"`
	MaxDepth        int          `koanf:"max_depth" validate:"gte=0"`
	MinSamplesSplit int          `koanf:"min_samples_split" validate:"gte=2"`
	Workers         int          `koanf:"workers" validate:"gte=0"`
	Seed            uint64       `koanf:"seed"`
}

// WeightConfig holds the soft voting weights.
type WeightConfig struct {
	Forest float64 `koanf:"forest" validate:"gte=0"`
	Extra  float64 `koanf:"extra" validate:"gte=0"`
	Kernel float64 `koanf:"kernel" validate:"gte=0"`
}

// KernelConfig configures the RBF kernel classifier. Gamma 0 means "scale".
type KernelConfig struct {
	Gamma float64 `koanf:"gamma" validate:"gte=0"`
	C     float64 `koanf:"c" validate:"gt=0"`
}

// Model converts the section to a classifier configuration.
func (c ClassifierConfig) Model() (classifier.Config, error) {
	mode, err := classifier.ParseMode(c.Mode)
	if err != nil {
		return classifier.Config{}, err
	}
	m := classifier.Config{
		Mode:            mode,
		Trees:           c.Trees,
		BlendTrees:      c.BlendTrees,
		Weights:         classifier.Weights{Forest: c.Weights.Forest, Extra: c.Weights.Extra, Kernel: c.Weights.Kernel},
		Kernel:          classifier.KernelConfig{Gamma: c.Kernel.Gamma, C: c.Kernel.C},
		MaxDepth:        c.MaxDepth,
		MinSamplesSplit: c.MinSamplesSplit,
		Workers:         c.Workers,
		Seed:            c.Seed,
	}
	return m, m.Validate()
}

// EvaluationConfig controls the offline accuracy check.
type EvaluationConfig struct {
	TestFraction float64 `koanf:"test_fraction" validate:"gt=0,lt=1"`
	Seed         uint64  `koanf:"seed"`
}

// Split returns the evaluate package configuration.
func (c EvaluationConfig) Split() evaluate.Config {
	return evaluate.Config{TestFraction: c.TestFraction, Seed: c.Seed}
}

// AggregateConfig seeds the tie-break between equally voted themes.
// Seed 0 draws a fresh seed per run.
type AggregateConfig struct {
	Seed uint64 `koanf:"seed"`
}

// WorldMapConfig configures the map renderer.
type WorldMapConfig struct {
	LonMin    float64           `koanf:"lon_min" validate:"gte=-180,lte=180"`
	LonMax    float64           `koanf:"lon_max" validate:"gte=-180,lte=180,gtfield=LonMin"`
	LatMin    float64           `koanf:"lat_min" validate:"gte=-90,lte=90"`
	LatMax    float64           `koanf:"lat_max" validate:"gte=-90,lte=90,gtfield=LatMin"`
	CodeKey   string            `koanf:"code_key" validate:"required"`
	Overrides map[string]string `koanf:"overrides" validate:"dive,len=3"`
	ColorSeed uint64            `koanf:"color_seed"`
}

// Options returns the render options for the configured extent.
func (c WorldMapConfig) Options() render.MapOptions {
	opts := render.DefaultMapOptions()
	opts.Extent = orb.Bound{Min: orb.Point{c.LonMin, c.LatMin}, Max: orb.Point{c.LonMax, c.LatMax}}
	opts.Seed = c.ColorSeed
	return opts
}

// LoggingConfig mirrors logging.Config.
type LoggingConfig struct {
	Level  string `koanf:"level" validate:"oneof=trace debug info warn warning error disabled"`
	Format string `koanf:"format" validate:"oneof=console json"`
}

// Logging returns the logger configuration.
func (c LoggingConfig) Logging() logging.Config {
	return logging.Config{Level: c.Level, Format: c.Format}
}

// PipelineConfig selects the stages main runs.
type PipelineConfig struct {
	BuildMatrices bool `koanf:"build_matrices"`
	Charts        bool `koanf:"charts"`
	WorldMap      bool `koanf:"world_map"`
}

func defaultConfig() *Config {
	model := classifier.DefaultConfig()
	eval := evaluate.DefaultConfig()
	params := features.DefaultParams()
	mapOpts := render.DefaultMapOptions()
	return &Config{
		Paths: PathsConfig{
			TrainImages:      "train_data",
			TestImages:       "test_data",
			CountryPrefix:    dataset.CountryPrefix,
			TrainMatrices:    "train_data_matrices",
			TestMatrices:     "test_data_matrices",
			Assignments:      "country_main_themes.txt",
			Charts:           "countries_graphs",
			WorldMap:         "world_map.png",
			CountriesGeoJSON: "ne_110m_admin_0_countries.geojson",
			Report:           "run_report.json",
			AccuracyReport:   "accuracy_report.json",
		},
		Features: FeaturesConfig{
			ImageSize:     params.ImageSize,
			Interpolation: params.Interpolation.String(),
			HOG: HOGConfig{
				Orientations:  params.HOG.Orientations,
				PixelsPerCell: params.HOG.PixelsPerCell,
				CellsPerBlock: params.HOG.CellsPerBlock,
				BlockNorm:     params.HOG.BlockNorm.String(),
			},
		},
		Classifier: ClassifierConfig{
			Mode:            model.Mode.String(),
			Trees:           model.Trees,
			BlendTrees:      model.BlendTrees,
			Weights:         WeightConfig{Forest: model.Weights.Forest, Extra: model.Weights.Extra, Kernel: model.Weights.Kernel},
			Kernel:          KernelConfig{Gamma: model.Kernel.Gamma, C: model.Kernel.C},
			MinSamplesSplit: model.MinSamplesSplit,
		},
		Evaluation: EvaluationConfig{TestFraction: eval.TestFraction, Seed: eval.Seed},
		WorldMap: WorldMapConfig{
			LonMin:  mapOpts.Extent.Min.Lon(),
			LonMax:  mapOpts.Extent.Max.Lon(),
			LatMin:  mapOpts.Extent.Min.Lat(),
			LatMax:  mapOpts.Extent.Max.Lat(),
			CodeKey: "ADM0_A3",
		},
		Logging:  LoggingConfig{Level: "info", Format: "console"},
		Pipeline: PipelineConfig{Charts: true, WorldMap: true},
	}
}

// Default returns the built-in configuration.
func Default() *Config {
	return defaultConfig()
}

// String summarizes the stages and classifier.
func (c *Config) String() string {
	return fmt.Sprintf("mode=%s trees=%d image_size=%d build=%v", c.Classifier.Mode, c.Classifier.Trees,
		c.Features.ImageSize, c.Pipeline.BuildMatrices)
}
