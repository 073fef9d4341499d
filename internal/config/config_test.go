package config

import (
	"os"
	"path/filepath"
	"testing"

	"theme-mapper/internal/classifier"
	"theme-mapper/internal/features"
	"theme-mapper/internal/photo"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeYAML(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "theme-mapper.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestDefaultsValidate(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	p, err := cfg.Features.Params()
	require.NoError(t, err)
	assert.Equal(t, features.DefaultParams(), p)
	assert.Equal(t, 8652, p.VectorLen())

	m, err := cfg.Classifier.Model()
	require.NoError(t, err)
	assert.Equal(t, classifier.ModeRandomForest, m.Mode)
	assert.Equal(t, 100, m.Trees)

	assert.Equal(t, 0.3, cfg.Evaluation.Split().TestFraction)
	assert.Equal(t, uint64(42), cfg.Evaluation.Split().Seed)
}

func TestLoadFileWithoutFile(t *testing.T) {
	cfg, err := LoadFile("")
	require.NoError(t, err)
	want := Default()
	assert.Equal(t, want.Paths, cfg.Paths)
	assert.Equal(t, want.Features, cfg.Features)
	assert.Equal(t, want.Classifier, cfg.Classifier)
	assert.Equal(t, want.Pipeline, cfg.Pipeline)
	assert.Empty(t, cfg.WorldMap.Overrides)
}

func TestLoadFileOverrides(t *testing.T) {
	path := writeYAML(t, `
features:
  image_size: 64
  interpolation: bilinear
  hog:
    block_norm: L2-Hys
classifier:
  mode: soft_voting
  blend_trees: 10
worldmap:
  overrides:
    Atlantis: ATL
`)
	cfg, err := LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, filepath.Dir(path), cfg.Paths.Root)
	assert.Equal(t, filepath.Join(filepath.Dir(path), "train_data"), cfg.Paths.Resolve(cfg.Paths.TrainImages))

	p, err := cfg.Features.Params()
	require.NoError(t, err)
	assert.Equal(t, 64, p.ImageSize)
	assert.Equal(t, photo.InterpBilinear, p.Interpolation)
	assert.Equal(t, features.NormL2Hys, p.HOG.BlockNorm)
	assert.Equal(t, 8, p.HOG.Orientations)

	m, err := cfg.Classifier.Model()
	require.NoError(t, err)
	assert.Equal(t, classifier.ModeSoftVoting, m.Mode)
	assert.Equal(t, 10, m.BlendTrees)
	assert.Equal(t, classifier.Weights{Forest: 2, Extra: 1, Kernel: 2}, m.Weights)

	assert.Equal(t, "ATL", cfg.WorldMap.Overrides["atlantis"]+cfg.WorldMap.Overrides["Atlantis"])
}

func TestEnvironmentWins(t *testing.T) {
	path := writeYAML(t, "classifier:\n  mode: soft_voting\n")
	t.Setenv("THEMES_CLASSIFIER__MODE", "extra_trees")
	t.Setenv("THEMES_CLASSIFIER__TREES", "25")
	t.Setenv("THEMES_PATHS__ROOT", "/data")
	t.Setenv("THEMES_PIPELINE__BUILD_MATRICES", "true")

	cfg, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "extra_trees", cfg.Classifier.Mode)
	assert.Equal(t, 25, cfg.Classifier.Trees)
	assert.True(t, cfg.Pipeline.BuildMatrices)
	assert.Equal(t, filepath.Join("/data", "world_map.png"), cfg.Paths.Resolve(cfg.Paths.WorldMap))
	assert.Equal(t, "/abs/x", cfg.Paths.Resolve("/abs/x"))
}

func TestLoadUsesConfigEnv(t *testing.T) {
	path := writeYAML(t, "evaluation:\n  seed: 7\n")
	t.Setenv(PathEnvVar, path)
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, uint64(7), cfg.Evaluation.Seed)
}

func TestValidationFailures(t *testing.T) {
	cases := map[string]string{
		"mode":     "classifier:\n  mode: svm\n",
		"fraction": "evaluation:\n  test_fraction: 1.5\n",
		"extent":   "worldmap:\n  lon_min: 50\n  lon_max: 10\n",
		"tiny":     "features:\n  image_size: 8\n",
		"norm":     "features:\n  hog:\n    block_norm: L3\n",
		"override": "worldmap:\n  overrides:\n    Atlantis: ATLA\n",
	}
	for name, body := range cases {
		_, err := LoadFile(writeYAML(t, body))
		assert.Error(t, err, name)
	}
}

func TestMissingFile(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestWorldMapOptions(t *testing.T) {
	opts := Default().WorldMap.Options()
	assert.Equal(t, -150.0, opts.Extent.Min.Lon())
	assert.Equal(t, 60.0, opts.Extent.Max.Lat())
}
