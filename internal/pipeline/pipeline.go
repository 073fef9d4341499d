// Package pipeline runs the theme-mapper stages: building feature matrices,
// classifying each country, drawing the world map, and offline evaluation.
package pipeline

import (
	"context"
	"fmt"
	"math/rand/v2"
	"os"
	"path/filepath"
	"time"

	"theme-mapper/internal/classifier"
	"theme-mapper/internal/config"
	"theme-mapper/internal/dataset"
	"theme-mapper/internal/domain"
	"theme-mapper/internal/evaluate"
	"theme-mapper/internal/features"
	"theme-mapper/internal/geo"
	"theme-mapper/internal/logging"
	"theme-mapper/internal/render"
	"theme-mapper/internal/version"
	"theme-mapper/internal/vote"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Runner executes pipeline stages against one configuration.
type Runner struct {
	cfg   *config.Config
	runID string
	log   zerolog.Logger
	now   func() time.Time
}

// New returns a runner with a fresh run id.
func New(cfg *config.Config) *Runner {
	id := uuid.NewString()
	return &Runner{
		cfg:   cfg,
		runID: id,
		log:   logging.With().Str("run_id", id).Logger(),
		now:   time.Now,
	}
}

// RunID identifies this runner in logs and reports.
func (r *Runner) RunID() string { return r.runID }

func (r *Runner) path(p string) string { return r.cfg.Paths.Resolve(p) }

func (r *Runner) store() dataset.Store { return r.cfg.Paths.Store() }

// BuildSummary describes the matrices written by BuildMatrices.
type BuildSummary struct {
	Themes    int `json:"themes"`
	Photos    int `json:"photos"`
	Countries int `json:"countries"`
	Width     int `json:"width"`
}

// BuildMatrices extracts features from every training and test photo and
// writes the matrices, the theme list and the country manifest. Every photo
// is described and every country checked before the first file is written,
// so a failed build leaves the previous matrices in place.
func (r *Runner) BuildMatrices(ctx context.Context) (BuildSummary, error) {
	ctx = logging.ContextWithLogger(ctx, r.log)
	params, err := r.cfg.Features.Params()
	if err != nil {
		return BuildSummary{}, err
	}
	ex, err := features.NewExtractor(params)
	if err != nil {
		return BuildSummary{}, err
	}

	themes, err := dataset.DiscoverThemes(r.path(r.cfg.Paths.TrainImages))
	if err != nil {
		return BuildSummary{}, fmt.Errorf("failed to discover themes: %w", err)
	}
	prefix := r.cfg.Paths.CountryPrefix
	if prefix == "" {
		prefix = dataset.CountryPrefix
	}
	countries, err := dataset.DiscoverCountries(r.path(r.cfg.Paths.TestImages), prefix)
	if err != nil {
		return BuildSummary{}, fmt.Errorf("failed to discover countries: %w", err)
	}
	r.log.Info().
		Int("themes", len(themes)).
		Int("countries", len(countries)).
		Int("width", params.VectorLen()).
		Msg("building feature matrices")

	b := dataset.NewBuilder(ex, params.VectorLen())
	tm, err := b.BuildTraining(ctx, themes)
	if err != nil {
		return BuildSummary{}, err
	}
	cms, err := b.BuildCountries(ctx, countries)
	if err != nil {
		return BuildSummary{}, err
	}
	width, err := dataset.CheckCountries(cms)
	if err != nil {
		return BuildSummary{}, err
	}
	if width != tm.Width() {
		return BuildSummary{}, &domain.ShapeMismatchError{What: "country matrices", Want: tm.Width(), Got: width}
	}
	if err := ctx.Err(); err != nil {
		return BuildSummary{}, err
	}

	store := r.store()
	if err := store.SaveTraining(tm); err != nil {
		return BuildSummary{}, err
	}
	if err := store.SaveCountries(cms); err != nil {
		return BuildSummary{}, err
	}

	return BuildSummary{
		Themes:    tm.Labels.Len(),
		Photos:    tm.Rows(),
		Countries: len(cms),
		Width:     tm.Width(),
	}, nil
}

// ClassifyCountries trains on the training matrix, assigns every country in
// the manifest its dominant theme, draws the bar charts when enabled, and
// writes the assignments file and the run report. Charts, assignments and
// report are only written once every country succeeded.
func (r *Runner) ClassifyCountries(ctx context.Context) (*RunReport, error) {
	ctx = logging.ContextWithLogger(ctx, r.log)
	started := r.now()
	store := r.store()

	tm, err := store.LoadTraining()
	if err != nil {
		return nil, fmt.Errorf("failed to load training matrices: %w", err)
	}
	man, err := store.LoadManifest()
	if err != nil {
		return nil, fmt.Errorf("failed to load country manifest: %w", err)
	}
	if len(man.Countries) == 0 {
		return nil, &domain.EmptyInputError{What: "country manifest", Name: store.TestDir}
	}
	if man.Width != tm.Width() {
		return nil, &domain.ShapeMismatchError{What: "country matrices", Want: tm.Width(), Got: man.Width}
	}

	model, err := r.cfg.Classifier.Model()
	if err != nil {
		return nil, err
	}
	clf, err := classifier.NewClassifier(model)
	if err != nil {
		return nil, err
	}
	if err := clf.Train(ctx, tm); err != nil {
		return nil, err
	}

	seed := r.cfg.Aggregate.Seed
	if seed == 0 {
		seed = rand.Uint64()
	}
	chooser := rand.New(rand.NewPCG(seed, seed))

	report := &RunReport{
		RunID:         r.runID,
		Version:       version.Version,
		Mode:          model.Mode.String(),
		AggregateSeed: seed,
		Started:       started,
	}
	assignments := make(map[string]string, len(man.Countries))
	var tallies [][]float64

	for _, item := range man.Countries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		cm, err := store.LoadCountry(item)
		if err != nil {
			return nil, fmt.Errorf("country %s: %w", item.Country, err)
		}
		if cm.Rows() == 0 {
			return nil, &domain.EmptyInputError{What: "country", Name: item.Country}
		}
		preds, err := clf.PredictBatch(cm.X)
		if err != nil {
			return nil, fmt.Errorf("failed to classify %s: %w", item.Country, err)
		}
		res, err := vote.Aggregate(cm.Country, preds, tm.Labels, chooser)
		if err != nil {
			return nil, err
		}

		cr := newCountryReport(cm, res, tm.Labels)
		tallies = append(tallies, res.Tally.Proportions())
		assignments[cm.Country] = res.Assignment.Theme.Label
		report.Countries = append(report.Countries, cr)

		ev := r.log.Info().
			Str("country", cm.Country).
			Int("photos", cm.Rows()).
			Str("theme", res.Assignment.Theme.Label)
		if len(res.Tied) > 1 {
			ev = ev.Int("tied", len(res.Tied))
		}
		ev.Msg("country classified")
	}

	if r.cfg.Pipeline.Charts {
		chartsDir := r.path(r.cfg.Paths.Charts)
		if err := os.MkdirAll(chartsDir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create %s: %w", chartsDir, err)
		}
		for i := range report.Countries {
			cr := &report.Countries[i]
			cr.Chart = render.ChartFile(chartsDir, cr.Slug)
			if err := render.BarChart(cr.Chart, cr.Country, tallies[i], tm.Labels); err != nil {
				return nil, err
			}
		}
	}

	assignPath := r.path(r.cfg.Paths.Assignments)
	if err := dataset.WriteAssignments(assignPath, assignments); err != nil {
		return nil, err
	}
	report.Assignments = assignPath
	report.Finished = r.now()
	if err := writeJSON(r.path(r.cfg.Paths.Report), report); err != nil {
		return nil, err
	}
	return report, nil
}

// PlotWorldMap draws the world map from the assignments file. It returns
// the countries that could not be placed on the map.
func (r *Runner) PlotWorldMap(ctx context.Context) ([]string, error) {
	ctx = logging.ContextWithLogger(ctx, r.log)
	assignments, err := dataset.ReadAssignments(r.path(r.cfg.Paths.Assignments))
	if err != nil {
		return nil, fmt.Errorf("failed to read assignments: %w", err)
	}
	labels, err := r.store().LoadLabels()
	if err != nil {
		return nil, fmt.Errorf("failed to read themes: %w", err)
	}
	shapes, err := geo.LoadCountries(r.path(r.cfg.Paths.CountriesGeoJSON), r.cfg.WorldMap.CodeKey)
	if err != nil {
		return nil, fmt.Errorf("failed to load country shapes: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out := r.path(r.cfg.Paths.WorldMap)
	if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", filepath.Dir(out), err)
	}
	resolver := geo.NewResolver(r.cfg.WorldMap.Overrides)
	return render.WorldMap(ctx, out, assignments, labels, shapes, resolver, r.cfg.WorldMap.Options())
}

// Evaluate holds out part of the training matrix, scores the configured
// classifier on it and writes the accuracy report.
func (r *Runner) Evaluate(ctx context.Context) (evaluate.Report, error) {
	ctx = logging.ContextWithLogger(ctx, r.log)
	tm, err := r.store().LoadTraining()
	if err != nil {
		return evaluate.Report{}, fmt.Errorf("failed to load training matrices: %w", err)
	}
	model, err := r.cfg.Classifier.Model()
	if err != nil {
		return evaluate.Report{}, err
	}
	rep, err := evaluate.Run(ctx, tm, model, r.cfg.Evaluation.Split())
	if err != nil {
		return evaluate.Report{}, err
	}
	if err := writeJSON(r.path(r.cfg.Paths.AccuracyReport), rep); err != nil {
		return evaluate.Report{}, err
	}
	return rep, nil
}
