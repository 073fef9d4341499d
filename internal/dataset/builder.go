package dataset

import (
	"context"
	"fmt"

	"theme-mapper/internal/domain"
	"theme-mapper/internal/logging"
)

// Extractor describes one photo file as a feature vector.
type Extractor interface {
	ExtractFile(path string) ([]float64, error)
}

// Builder turns photo batches into feature matrices.
type Builder struct {
	Extractor Extractor
	width     int
}

// NewBuilder returns a Builder that checks every vector against width. A
// width of zero adopts the length of the first vector.
func NewBuilder(ex Extractor, width int) *Builder {
	return &Builder{Extractor: ex, width: width}
}

// BuildTraining describes every photo of every theme. Theme indices follow
// batch order.
func (b *Builder) BuildTraining(ctx context.Context, batches []ThemeBatch) (*TrainingMatrix, error) {
	if len(batches) == 0 {
		return nil, &domain.EmptyInputError{What: "training batches"}
	}

	names := make([]string, len(batches))
	for i, tb := range batches {
		names[i] = tb.Theme
	}
	labels, err := domain.NewLabelTable(names)
	if err != nil {
		return nil, err
	}

	var rows [][]float64
	var y []int
	for i, tb := range batches {
		if len(tb.Paths) == 0 {
			return nil, &domain.EmptyInputError{What: "theme", Name: tb.Theme}
		}
		vecs, err := b.describe(ctx, "theme "+tb.Theme, tb.Paths)
		if err != nil {
			return nil, err
		}
		rows = append(rows, vecs...)
		for range vecs {
			y = append(y, i)
		}
		logging.Ctx(ctx).Info().Str("theme", tb.Theme).Int("index", i).Int("photos", len(vecs)).Msg("described training photos")
	}

	x, err := DenseFromRows("training matrix", rows)
	if err != nil {
		return nil, err
	}
	return &TrainingMatrix{X: x, Y: y, Labels: labels}, nil
}

// BuildCountries describes each country's photos into its own matrix.
func (b *Builder) BuildCountries(ctx context.Context, batches []CountryBatch) ([]*CountryMatrix, error) {
	out := make([]*CountryMatrix, 0, len(batches))
	for _, cb := range batches {
		if len(cb.Paths) == 0 {
			return nil, &domain.EmptyInputError{What: "country", Name: cb.Country}
		}
		vecs, err := b.describe(ctx, "country "+cb.Country, cb.Paths)
		if err != nil {
			return nil, err
		}
		x, err := DenseFromRows("country "+cb.Country, vecs)
		if err != nil {
			return nil, err
		}
		out = append(out, &CountryMatrix{Country: cb.Country, Slug: cb.Slug, X: x})
		logging.Ctx(ctx).Info().Str("country", cb.Country).Int("photos", len(vecs)).Msg("described test photos")
	}
	return out, nil
}

func (b *Builder) describe(ctx context.Context, what string, paths []string) ([][]float64, error) {
	rows := make([][]float64, 0, len(paths))
	for _, p := range paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		vec, err := b.Extractor.ExtractFile(p)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", what, err)
		}
		if b.width == 0 {
			b.width = len(vec)
		}
		if len(vec) != b.width {
			return nil, &domain.ShapeMismatchError{What: p, Want: b.width, Got: len(vec)}
		}
		rows = append(rows, vec)
	}
	return rows, nil
}
