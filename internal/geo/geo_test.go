package geo

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"theme-mapper/internal/domain"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolverNames(t *testing.T) {
	r := NewResolver(map[string]string{"Atlantis": "atl"})

	cases := map[string]string{
		"Austria":        "AUT",
		"  greece ":      "GRC",
		"United Kingdom": "GBR",
		"England":        "GBR",
		"atlantis":       "ATL",
		"usa":            "USA",
	}
	for name, want := range cases {
		got, err := r.Alpha3(name)
		require.NoError(t, err, name)
		assert.Equal(t, want, got, name)
	}
}

func TestResolverFailure(t *testing.T) {
	r := NewResolver(nil)
	for _, name := range []string{"Middle Earth", ""} {
		_, err := r.Alpha3(name)
		var res *domain.NameResolutionError
		require.True(t, errors.As(err, &res), name)
		assert.Equal(t, name, res.Name)
	}
}

const collection = `{
  "type": "FeatureCollection",
  "features": [
    {"type": "Feature", "properties": {"ADM0_A3": "AUT", "NAME": "Austria"},
     "geometry": {"type": "Polygon", "coordinates": [[[9,46],[17,46],[17,49],[9,49],[9,46]]]}},
    {"type": "Feature", "properties": {"adm0_a3": "grc", "name": "Greece"},
     "geometry": {"type": "MultiPolygon", "coordinates": [
       [[[20,36],[26,36],[26,41],[20,41],[20,36]]],
       [[[24,35],[26,35],[26,35.5],[24,35.5],[24,35]]]]}},
    {"type": "Feature", "properties": {"ADM0_A3": "-99"},
     "geometry": {"type": "Polygon", "coordinates": [[[0,0],[1,0],[1,1],[0,0]]]}},
    {"type": "Feature", "properties": {"ADM0_A3": "PNT"},
     "geometry": {"type": "Point", "coordinates": [1,1]}}
  ]
}`

func TestLoadCountries(t *testing.T) {
	path := filepath.Join(t.TempDir(), "countries.geojson")
	require.NoError(t, os.WriteFile(path, []byte(collection), 0644))

	shapes, err := LoadCountries(path, "")
	require.NoError(t, err)
	require.Len(t, shapes, 2)

	assert.Equal(t, "AUT", shapes[0].Code)
	assert.Equal(t, "Austria", shapes[0].Name)
	assert.Len(t, shapes[0].Polygons, 1)
	assert.Equal(t, orb.Bound{Min: orb.Point{9, 46}, Max: orb.Point{17, 49}}, shapes[0].Bound())

	assert.Equal(t, "GRC", shapes[1].Code)
	assert.Equal(t, "Greece", shapes[1].Name)
	assert.Len(t, shapes[1].Polygons, 2)
}

func TestLoadCountriesErrors(t *testing.T) {
	_, err := LoadCountries(filepath.Join(t.TempDir(), "nope.geojson"), "")
	var missing *domain.MissingFileError
	assert.True(t, errors.As(err, &missing))

	path := filepath.Join(t.TempDir(), "empty.geojson")
	require.NoError(t, os.WriteFile(path, []byte(`{"type":"FeatureCollection","features":[]}`), 0644))
	_, err = LoadCountries(path, "")
	var empty *domain.EmptyInputError
	assert.True(t, errors.As(err, &empty))

	bad := filepath.Join(t.TempDir(), "bad.geojson")
	require.NoError(t, os.WriteFile(bad, []byte(`{`), 0644))
	_, err = LoadCountries(bad, "")
	assert.Error(t, err)
}
