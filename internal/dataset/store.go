package dataset

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"theme-mapper/internal/domain"

	"github.com/goccy/go-json"
)

// File names inside the matrix directories.
const (
	TrainFeaturesFile = "train_X.txt"
	TrainLabelsFile   = "train_y.txt"
	ThemesFile        = "class_themes.txt"
	ManifestFile      = "countries.json"
)

// CountryFile returns the test matrix file name for a country slug.
func CountryFile(slug string) string {
	return "test_X_" + slug + ".txt"
}

// Manifest lists the country test matrices in a directory, with the country
// display names captured when the matrices were built.
type Manifest struct {
	Width     int            `json:"width"`
	Countries []ManifestItem `json:"countries"`
}

// ManifestItem describes one country test matrix.
type ManifestItem struct {
	Country string `json:"country"`
	Slug    string `json:"slug"`
	File    string `json:"file"`
	Rows    int    `json:"rows"`
}

// Store reads and writes matrices under a training and a test directory.
type Store struct {
	TrainDir string
	TestDir  string
}

// SaveTraining writes train_X, train_y and the theme list.
func (s Store) SaveTraining(tm *TrainingMatrix) error {
	if err := os.MkdirAll(s.TrainDir, 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", s.TrainDir, err)
	}
	if err := WriteMatrix(filepath.Join(s.TrainDir, TrainFeaturesFile), tm.X); err != nil {
		return err
	}
	if err := WriteIndices(filepath.Join(s.TrainDir, TrainLabelsFile), tm.Y); err != nil {
		return err
	}
	return WriteLabels(filepath.Join(s.TrainDir, ThemesFile), tm.Labels)
}

// LoadTraining reads the files written by SaveTraining and checks they agree.
func (s Store) LoadTraining() (*TrainingMatrix, error) {
	labels, err := ReadLabels(filepath.Join(s.TrainDir, ThemesFile))
	if err != nil {
		return nil, err
	}
	x, err := ReadMatrix(filepath.Join(s.TrainDir, TrainFeaturesFile))
	if err != nil {
		return nil, err
	}
	y, err := ReadIndices(filepath.Join(s.TrainDir, TrainLabelsFile))
	if err != nil {
		return nil, err
	}

	rows, _ := x.Dims()
	if len(y) != rows {
		return nil, &domain.ShapeMismatchError{What: "training labels", Want: rows, Got: len(y)}
	}
	for i, v := range y {
		if _, ok := labels.Label(v); !ok {
			return nil, fmt.Errorf("%s row %d: %w: index %d", TrainLabelsFile, i+1, domain.ErrUnknownTheme, v)
		}
	}
	return &TrainingMatrix{X: x, Y: y, Labels: labels}, nil
}

// LoadLabels reads only the theme list.
func (s Store) LoadLabels() (*domain.LabelTable, error) {
	return ReadLabels(filepath.Join(s.TrainDir, ThemesFile))
}

// CheckCountries verifies that every country matrix is non-empty, that all
// share one width and that no two share a slug. It returns the width.
func CheckCountries(countries []*CountryMatrix) (int, error) {
	width := 0
	seen := make(map[string]string, len(countries))
	for _, cm := range countries {
		if cm.Rows() == 0 {
			return 0, &domain.EmptyInputError{What: "country", Name: cm.Country}
		}
		if other, ok := seen[cm.Slug]; ok {
			return 0, fmt.Errorf("countries %s and %s share slug %q", other, cm.Country, cm.Slug)
		}
		seen[cm.Slug] = cm.Country

		_, c := cm.X.Dims()
		if width == 0 {
			width = c
		} else if c != width {
			return 0, &domain.ShapeMismatchError{What: "country " + cm.Country, Want: width, Got: c}
		}
	}
	return width, nil
}

// SaveCountries writes one test matrix per country and the manifest. Nothing
// is written unless every country passes CheckCountries.
func (s Store) SaveCountries(countries []*CountryMatrix) error {
	width, err := CheckCountries(countries)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(s.TestDir, 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", s.TestDir, err)
	}

	man := Manifest{Width: width}
	for _, cm := range countries {
		file := CountryFile(cm.Slug)
		if err := WriteMatrix(filepath.Join(s.TestDir, file), cm.X); err != nil {
			return err
		}
		man.Countries = append(man.Countries, ManifestItem{
			Country: cm.Country,
			Slug:    cm.Slug,
			File:    file,
			Rows:    cm.Rows(),
		})
	}
	sort.Slice(man.Countries, func(i, j int) bool { return man.Countries[i].Country < man.Countries[j].Country })

	data, err := json.MarshalIndent(man, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize manifest: %w", err)
	}
	return os.WriteFile(filepath.Join(s.TestDir, ManifestFile), data, 0o644)
}

// LoadManifest reads the country manifest.
func (s Store) LoadManifest() (*Manifest, error) {
	path := filepath.Join(s.TestDir, ManifestFile)
	data, err := readInput(path)
	if err != nil {
		return nil, err
	}
	var man Manifest
	if err := json.Unmarshal(data, &man); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return &man, nil
}

// LoadCountry reads one country's test matrix.
func (s Store) LoadCountry(item ManifestItem) (*CountryMatrix, error) {
	x, err := ReadMatrix(filepath.Join(s.TestDir, item.File))
	if err != nil {
		return nil, err
	}
	return &CountryMatrix{Country: item.Country, Slug: item.Slug, X: x}, nil
}
