package classifier

import (
	"context"
	"fmt"

	"theme-mapper/internal/dataset"
	"theme-mapper/internal/domain"
	"theme-mapper/internal/logging"

	"gonum.org/v1/gonum/mat"
)

// Classifier maps feature vectors to theme indexes of a label table.
type Classifier struct {
	cfg    Config
	model  Model
	labels *domain.LabelTable
	width  int
}

// NewClassifier builds an untrained classifier for cfg.
func NewClassifier(cfg Config) (*Classifier, error) {
	m, err := New(cfg)
	if err != nil {
		return nil, err
	}
	return &Classifier{cfg: cfg, model: m}, nil
}

// Mode returns the configured estimator.
func (c *Classifier) Mode() Mode { return c.cfg.Mode }

// Labels returns the table the classifier was trained with, or nil.
func (c *Classifier) Labels() *domain.LabelTable { return c.labels }

// Width returns the trained feature vector length.
func (c *Classifier) Width() int { return c.width }

// Train fits the model on every row of tm.
func (c *Classifier) Train(ctx context.Context, tm *dataset.TrainingMatrix) error {
	if tm == nil || tm.Rows() == 0 {
		return &domain.EmptyInputError{What: "training matrix"}
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	logging.Ctx(ctx).Info().
		Str("mode", c.cfg.Mode.String()).
		Int("rows", tm.Rows()).
		Int("width", tm.Width()).
		Int("themes", tm.Labels.Len()).
		Msg("training classifier")
	if err := c.model.Fit(tm.X, tm.Y, tm.Labels.Len()); err != nil {
		return fmt.Errorf("failed to train %s: %w", c.cfg.Mode, err)
	}
	c.labels, c.width = tm.Labels, tm.Width()
	return nil
}

// PredictProba returns per-theme probabilities for each row of X.
func (c *Classifier) PredictProba(X mat.Matrix) (*mat.Dense, error) {
	if c.labels == nil {
		return nil, ErrNotTrained
	}
	rows, cols := X.Dims()
	if rows == 0 {
		return nil, &domain.EmptyInputError{What: "prediction rows"}
	}
	if cols != c.width {
		return nil, &domain.ShapeMismatchError{What: "feature vector", Want: c.width, Got: cols}
	}
	return c.model.PredictProba(X)
}

// PredictBatch returns the most probable theme index of each row of X.
// Ties go to the lower index.
func (c *Classifier) PredictBatch(X mat.Matrix) ([]int, error) {
	p, err := c.PredictProba(X)
	if err != nil {
		return nil, err
	}
	rows, _ := p.Dims()
	out := make([]int, rows)
	for i := range rows {
		out[i] = argmax(p.RawRowView(i))
	}
	return out, nil
}

// Predict classifies a single feature vector.
func (c *Classifier) Predict(vec []float64) (int, error) {
	if len(vec) == 0 {
		return 0, &domain.EmptyInputError{What: "feature vector"}
	}
	out, err := c.PredictBatch(mat.NewDense(1, len(vec), vec))
	if err != nil {
		return 0, err
	}
	return out[0], nil
}

func argmax(v []float64) int {
	best := 0
	for i := 1; i < len(v); i++ {
		if v[i] > v[best] {
			best = i
		}
	}
	return best
}
