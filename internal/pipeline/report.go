package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"theme-mapper/internal/dataset"
	"theme-mapper/internal/domain"
	"theme-mapper/internal/vote"

	"github.com/goccy/go-json"
)

// RunReport records one ClassifyCountries run.
type RunReport struct {
	RunID         string          `json:"run_id"`
	Version       string          `json:"version"`
	Mode          string          `json:"mode"`
	AggregateSeed uint64          `json:"aggregate_seed"`
	Started       time.Time       `json:"started"`
	Finished      time.Time       `json:"finished"`
	Assignments   string          `json:"assignments"`
	Countries     []CountryReport `json:"countries"`
}

// CountryReport is the vote breakdown of one country.
type CountryReport struct {
	Country     string             `json:"country"`
	Slug        string             `json:"slug"`
	Photos      int                `json:"photos"`
	Theme       string             `json:"theme"`
	Counts      map[string]int     `json:"counts"`
	Proportions map[string]float64 `json:"proportions"`
	Tied        []string           `json:"tied,omitempty"`
	Chart       string             `json:"chart,omitempty"`
}

func newCountryReport(cm *dataset.CountryMatrix, res vote.Result, labels *domain.LabelTable) CountryReport {
	cr := CountryReport{
		Country:     cm.Country,
		Slug:        cm.Slug,
		Photos:      cm.Rows(),
		Theme:       res.Assignment.Theme.Label,
		Counts:      make(map[string]int, labels.Len()),
		Proportions: make(map[string]float64, labels.Len()),
	}
	props := res.Tally.Proportions()
	for i, label := range labels.Labels() {
		cr.Counts[label] = res.Tally.Counts[i]
		cr.Proportions[label] = props[i]
	}
	if len(res.Tied) > 1 {
		for _, t := range res.Tied {
			cr.Tied = append(cr.Tied, t.Label)
		}
	}
	return cr
}

// LoadReport reads a report written by ClassifyCountries.
func LoadReport(path string) (*RunReport, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var rep RunReport
	if err := json.Unmarshal(data, &rep); err != nil {
		return nil, fmt.Errorf("unmarshal run report: %w", err)
	}
	return &rep, nil
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", filepath.Base(path), err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", filepath.Dir(path), err)
	}
	return os.WriteFile(path, data, 0644)
}
