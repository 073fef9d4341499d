package dataset

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode"

	"theme-mapper/internal/domain"
	"theme-mapper/internal/photo"
)

// CountryPrefix marks the test photo folder of a country: visit_<slug>.
const CountryPrefix = "visit_"

// ThemeBatch is the set of training photos of one theme.
type ThemeBatch struct {
	Theme string
	Paths []string
}

// CountryBatch is the set of test photos of one country.
type CountryBatch struct {
	Country string // display name, e.g. "United Kingdom"
	Slug    string // file-safe identifier, e.g. "united_kingdom"
	Paths   []string
}

// DiscoverThemes treats every subdirectory of dir as a theme whose photos are
// the images directly inside it. Themes are returned sorted by name so the
// label indices are stable across runs.
func DiscoverThemes(dir string) ([]ThemeBatch, error) {
	names, err := subdirs(dir)
	if err != nil {
		return nil, err
	}

	var batches []ThemeBatch
	for _, name := range names {
		paths, err := photo.List(filepath.Join(dir, name))
		if err != nil {
			return nil, err
		}
		if len(paths) == 0 {
			return nil, &domain.EmptyInputError{What: "theme", Name: name}
		}
		batches = append(batches, ThemeBatch{Theme: name, Paths: paths})
	}
	if len(batches) == 0 {
		return nil, &domain.EmptyInputError{What: "training directory", Name: dir}
	}
	return batches, nil
}

// DiscoverCountries treats every subdirectory of dir named prefix+slug as a
// country. Directories without the prefix are ignored. Two folders whose
// slugs differ only in case are rejected.
func DiscoverCountries(dir, prefix string) ([]CountryBatch, error) {
	names, err := subdirs(dir)
	if err != nil {
		return nil, err
	}

	var batches []CountryBatch
	folders := make(map[string]string)
	for _, name := range names {
		if !strings.HasPrefix(name, prefix) || len(name) == len(prefix) {
			continue
		}
		slug := strings.ToLower(strings.TrimPrefix(name, prefix))
		if other, ok := folders[slug]; ok {
			return nil, fmt.Errorf("country folders %s and %s both map to %q", other, name, slug)
		}
		folders[slug] = name
		country := CountryName(slug)
		paths, err := photo.List(filepath.Join(dir, name))
		if err != nil {
			return nil, err
		}
		if len(paths) == 0 {
			return nil, &domain.EmptyInputError{What: "country", Name: country}
		}
		batches = append(batches, CountryBatch{Country: country, Slug: slug, Paths: paths})
	}
	if len(batches) == 0 {
		return nil, &domain.EmptyInputError{What: "test directory", Name: dir}
	}
	return batches, nil
}

// CountryName turns a folder slug into a display name: underscores and
// dashes become spaces and each word is capitalized.
func CountryName(slug string) string {
	words := strings.FieldsFunc(slug, func(r rune) bool { return r == '_' || r == '-' || r == ' ' })
	for i, w := range words {
		r := []rune(strings.ToLower(w))
		r[0] = unicode.ToUpper(r[0])
		words[i] = string(r)
	}
	return strings.Join(words, " ")
}

func subdirs(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &domain.MissingFileError{Path: dir, Err: err}
		}
		return nil, fmt.Errorf("failed to list %s: %w", dir, err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() && !strings.HasPrefix(e.Name(), ".") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}
