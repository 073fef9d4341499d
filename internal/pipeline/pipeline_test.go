package pipeline

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"theme-mapper/internal/config"
	"theme-mapper/internal/dataset"
	"theme-mapper/internal/domain"
	"theme-mapper/internal/logging"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Paths.Root = t.TempDir()
	cfg.Classifier.Trees = 8
	cfg.Classifier.Seed = 5
	cfg.Aggregate.Seed = 9
	cfg.Pipeline.Charts = false
	return cfg
}

// seedMatrices writes a two-theme training set where every feature of
// "beach" rows is near 0 and of "mountain" rows near 10, plus one country
// per theme.
func seedMatrices(t *testing.T, cfg *config.Config) {
	t.Helper()
	labels, err := domain.NewLabelTable([]string{"beach", "mountain"})
	require.NoError(t, err)

	const n, width = 12, 4
	x := mat.NewDense(2*n, width, nil)
	y := make([]int, 2*n)
	for c := range 2 {
		for i := range n {
			r := c*n + i
			y[r] = c
			for j := range width {
				x.Set(r, j, 10*float64(c)+float64(i)/n)
			}
		}
	}
	store := cfg.Paths.Store()
	require.NoError(t, store.SaveTraining(&dataset.TrainingMatrix{X: x, Y: y, Labels: labels}))

	country := func(name, slug string, v float64, rows int) *dataset.CountryMatrix {
		m := mat.NewDense(rows, width, nil)
		for i := range rows {
			for j := range width {
				m.Set(i, j, v)
			}
		}
		return &dataset.CountryMatrix{Country: name, Slug: slug, X: m}
	}
	require.NoError(t, store.SaveCountries([]*dataset.CountryMatrix{
		country("Greece", "greece", 0.3, 5),
		country("Austria", "austria", 10.4, 3),
	}))
}

func TestClassifyCountries(t *testing.T) {
	cfg := testConfig(t)
	seedMatrices(t, cfg)
	r := New(cfg)

	rep, err := r.ClassifyCountries(context.Background())
	require.NoError(t, err)
	assert.Equal(t, r.RunID(), rep.RunID)
	assert.Equal(t, "random_forest", rep.Mode)
	assert.Equal(t, uint64(9), rep.AggregateSeed)
	require.Len(t, rep.Countries, 2)
	assert.Equal(t, "Austria", rep.Countries[0].Country)
	assert.Equal(t, 3, rep.Countries[0].Counts["mountain"])
	assert.Equal(t, 1.0, rep.Countries[1].Proportions["beach"])

	data, err := os.ReadFile(cfg.Paths.Resolve(cfg.Paths.Assignments))
	require.NoError(t, err)
	assert.Equal(t, "Austria:mountain\nGreece:beach\n", string(data))

	saved, err := LoadReport(cfg.Paths.Resolve(cfg.Paths.Report))
	require.NoError(t, err)
	assert.Equal(t, rep.RunID, saved.RunID)
	assert.Len(t, saved.Countries, 2)
}

func TestClassifyCountriesWritesCharts(t *testing.T) {
	cfg := testConfig(t)
	cfg.Pipeline.Charts = true
	seedMatrices(t, cfg)

	rep, err := New(cfg).ClassifyCountries(context.Background())
	require.NoError(t, err)
	for _, c := range rep.Countries {
		assert.FileExists(t, c.Chart)
		assert.Equal(t, "graph_"+c.Slug+".png", filepath.Base(c.Chart))
	}
}

func TestClassifyCountriesEmptyCountryIsFatal(t *testing.T) {
	cfg := testConfig(t)
	seedMatrices(t, cfg)
	store := cfg.Paths.Store()
	require.NoError(t, os.WriteFile(filepath.Join(store.TestDir, dataset.CountryFile("greece")), nil, 0644))

	_, err := New(cfg).ClassifyCountries(context.Background())
	var empty *domain.EmptyInputError
	require.True(t, errors.As(err, &empty), "got %v", err)
	assert.NoFileExists(t, cfg.Paths.Resolve(cfg.Paths.Assignments))
}

func TestClassifyCountriesFailureWritesNoCharts(t *testing.T) {
	cfg := testConfig(t)
	cfg.Pipeline.Charts = true
	seedMatrices(t, cfg)
	store := cfg.Paths.Store()
	require.NoError(t, os.WriteFile(filepath.Join(store.TestDir, dataset.CountryFile("greece")), nil, 0644))

	_, err := New(cfg).ClassifyCountries(context.Background())
	require.Error(t, err)
	// Austria sorts before Greece and classified fine.
	assert.NoFileExists(t, filepath.Join(cfg.Paths.Resolve(cfg.Paths.Charts), "graph_austria.png"))
}

func TestClassifyCountriesCancelled(t *testing.T) {
	cfg := testConfig(t)
	seedMatrices(t, cfg)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(cfg).ClassifyCountries(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.NoFileExists(t, cfg.Paths.Resolve(cfg.Paths.Assignments))
}

func TestClassifyCountriesMissingMatrices(t *testing.T) {
	_, err := New(testConfig(t)).ClassifyCountries(context.Background())
	var missing *domain.MissingFileError
	assert.True(t, errors.As(err, &missing))
}

const shapes = `{"type":"FeatureCollection","features":[
 {"type":"Feature","properties":{"ADM0_A3":"AUT"},
  "geometry":{"type":"Polygon","coordinates":[[[9,46],[17,46],[17,49],[9,49],[9,46]]]}},
 {"type":"Feature","properties":{"ADM0_A3":"GRC"},
  "geometry":{"type":"Polygon","coordinates":[[[20,36],[26,36],[26,41],[20,41],[20,36]]]}}
]}`

func TestPlotWorldMap(t *testing.T) {
	cfg := testConfig(t)
	seedMatrices(t, cfg)
	require.NoError(t, os.WriteFile(cfg.Paths.Resolve(cfg.Paths.CountriesGeoJSON), []byte(shapes), 0644))
	require.NoError(t, dataset.WriteAssignments(cfg.Paths.Resolve(cfg.Paths.Assignments), map[string]string{
		"Austria":      "mountain",
		"Greece":       "beach",
		"Middle Earth": "beach",
	}))

	skipped, err := New(cfg).PlotWorldMap(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Middle Earth"}, skipped)
	assert.FileExists(t, cfg.Paths.Resolve(cfg.Paths.WorldMap))
}

func TestEvaluate(t *testing.T) {
	cfg := testConfig(t)
	seedMatrices(t, cfg)

	rep, err := New(cfg).Evaluate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 8, rep.Test)
	assert.Equal(t, 1.0, rep.Accuracy)
	assert.FileExists(t, cfg.Paths.Resolve(cfg.Paths.AccuracyReport))
}

func writePNG(t *testing.T, path string, c color.RGBA) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	img := image.NewRGBA(image.Rect(0, 0, 30, 30))
	for y := range 30 {
		for x := range 30 {
			if (x/5+y/5)%2 == 0 {
				img.Set(x, y, c)
			} else {
				img.Set(x, y, color.RGBA{A: 255})
			}
		}
	}
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
}

func TestBuildMatrices(t *testing.T) {
	cfg := testConfig(t)
	cfg.Features.ImageSize = 24
	root := cfg.Paths.Root
	writePNG(t, filepath.Join(root, "train_data", "beach", "1.png"), color.RGBA{B: 255, A: 255})
	writePNG(t, filepath.Join(root, "train_data", "beach", "2.png"), color.RGBA{B: 200, A: 255})
	writePNG(t, filepath.Join(root, "train_data", "mountain", "1.png"), color.RGBA{G: 255, A: 255})
	writePNG(t, filepath.Join(root, "test_data", "visit_south_korea", "1.png"), color.RGBA{R: 255, A: 255})

	sum, err := New(cfg).BuildMatrices(context.Background())
	require.NoError(t, err)
	assert.Equal(t, BuildSummary{Themes: 2, Photos: 3, Countries: 1, Width: 24*24*3 + 72}, sum)

	tm, err := cfg.Paths.Store().LoadTraining()
	require.NoError(t, err)
	assert.Equal(t, []int{0, 0, 1}, tm.Y)
	assert.Equal(t, []string{"beach", "mountain"}, tm.Labels.Labels())

	man, err := cfg.Paths.Store().LoadManifest()
	require.NoError(t, err)
	require.Len(t, man.Countries, 1)
	assert.Equal(t, "South Korea", man.Countries[0].Country)
	assert.Equal(t, "south_korea", man.Countries[0].Slug)
}

func TestBuildMatricesBadCountryPhotoWritesNothing(t *testing.T) {
	cfg := testConfig(t)
	cfg.Features.ImageSize = 24
	root := cfg.Paths.Root
	writePNG(t, filepath.Join(root, "train_data", "beach", "1.png"), color.RGBA{B: 255, A: 255})
	writePNG(t, filepath.Join(root, "train_data", "mountain", "1.png"), color.RGBA{G: 255, A: 255})
	writePNG(t, filepath.Join(root, "test_data", "visit_austria", "1.png"), color.RGBA{R: 255, A: 255})
	bad := filepath.Join(root, "test_data", "visit_peru", "1.png")
	require.NoError(t, os.MkdirAll(filepath.Dir(bad), 0o755))
	require.NoError(t, os.WriteFile(bad, []byte("not a png"), 0o644))

	_, err := New(cfg).BuildMatrices(context.Background())
	require.Error(t, err)

	store := cfg.Paths.Store()
	assert.NoFileExists(t, filepath.Join(store.TrainDir, dataset.TrainFeaturesFile))
	assert.NoFileExists(t, filepath.Join(store.TrainDir, dataset.ThemesFile))
	assert.NoFileExists(t, filepath.Join(store.TestDir, dataset.ManifestFile))
	assert.NoFileExists(t, filepath.Join(store.TestDir, dataset.CountryFile("austria")))
}

func TestRunLogsCarryRunID(t *testing.T) {
	var buf bytes.Buffer
	prev := logging.Logger()
	logging.SetLogger(logging.NewTestLogger(&buf))
	t.Cleanup(func() { logging.SetLogger(prev) })

	cfg := testConfig(t)
	seedMatrices(t, cfg)
	r := New(cfg)
	_, err := r.Evaluate(context.Background())
	require.NoError(t, err)
	_, err = r.ClassifyCountries(context.Background())
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.NotEmpty(t, lines)
	var sawTraining bool
	for _, line := range lines {
		assert.Contains(t, line, `"run_id":"`+r.RunID()+`"`)
		sawTraining = sawTraining || strings.Contains(line, "training classifier")
	}
	assert.True(t, sawTraining)
}
