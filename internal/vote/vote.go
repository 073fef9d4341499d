// Package vote turns per-photo theme predictions into a per-country tally
// and a single dominant theme.
package vote

import (
	"errors"
	"fmt"

	"theme-mapper/internal/domain"
)

// Chooser picks an index in [0, n). *rand.Rand from math/rand/v2 satisfies it.
type Chooser interface {
	IntN(n int) int
}

// Result is the outcome of aggregating one country's predictions.
type Result struct {
	Assignment domain.Assignment `json:"assignment"`
	Tally      domain.Tally      `json:"tally"`
	Tied       []domain.Theme    `json:"tied,omitempty"` // set when more than one theme held the maximum
}

// Count tallies predictions against the known themes.
func Count(predictions []int, labels *domain.LabelTable) (domain.Tally, error) {
	if len(predictions) == 0 {
		return domain.Tally{}, &domain.EmptyInputError{What: "predictions"}
	}

	tally := domain.Tally{Counts: make([]int, labels.Len())}
	for i, p := range predictions {
		if p < 0 || p >= labels.Len() {
			return domain.Tally{}, fmt.Errorf("prediction %d: %w: index %d", i, domain.ErrUnknownTheme, p)
		}
		tally.Counts[p]++
	}
	return tally, nil
}

// Aggregate picks the dominant theme for a country. Ties for the maximum are
// broken by a uniform choice among the tied themes only.
func Aggregate(country string, predictions []int, labels *domain.LabelTable, chooser Chooser) (Result, error) {
	tally, err := Count(predictions, labels)
	if err != nil {
		var empty *domain.EmptyInputError
		if errors.As(err, &empty) {
			empty.Name = country
		}
		return Result{}, err
	}

	best := tally.Max()
	var tied []int
	for i, c := range tally.Counts {
		if c == best {
			tied = append(tied, i)
		}
	}

	pick := tied[0]
	res := Result{Tally: tally}
	if len(tied) > 1 {
		pick = tied[chooser.IntN(len(tied))]
		for _, i := range tied {
			th, _ := labels.Theme(i)
			res.Tied = append(res.Tied, th)
		}
	}

	theme, err := labels.Theme(pick)
	if err != nil {
		return Result{}, err
	}
	res.Assignment = domain.Assignment{Country: country, Theme: theme}
	return res, nil
}
