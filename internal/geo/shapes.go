package geo

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"theme-mapper/internal/domain"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// DefaultCodeKey is the Natural Earth admin-0 property holding the alpha-3 code.
const DefaultCodeKey = "ADM0_A3"

// Shape is one country outline.
type Shape struct {
	Code     string
	Name     string
	Polygons []orb.Polygon
}

// Bound returns the bounding box of every polygon.
func (s Shape) Bound() orb.Bound {
	mp := orb.MultiPolygon(s.Polygons)
	return mp.Bound()
}

// LoadCountries reads a GeoJSON feature collection and returns every
// feature with a polygonal geometry and a non-empty codeKey property.
// The property key matches in its given, upper and lower case forms.
func LoadCountries(path, codeKey string) ([]Shape, error) {
	if codeKey == "" {
		codeKey = DefaultCodeKey
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, &domain.MissingFileError{Path: path, Err: err}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	var shapes []Shape
	for _, f := range fc.Features {
		code := property(f.Properties, codeKey)
		if code == "" || code == "-99" {
			continue
		}
		var polys []orb.Polygon
		switch g := f.Geometry.(type) {
		case orb.Polygon:
			polys = []orb.Polygon{g}
		case orb.MultiPolygon:
			polys = g
		default:
			continue
		}
		shapes = append(shapes, Shape{
			Code:     strings.ToUpper(code),
			Name:     firstProperty(f.Properties, "NAME", "ADMIN", "name"),
			Polygons: polys,
		})
	}
	if len(shapes) == 0 {
		return nil, &domain.EmptyInputError{What: "country shapes", Name: path}
	}
	return shapes, nil
}

func property(p geojson.Properties, key string) string {
	return firstProperty(p, key, strings.ToUpper(key), strings.ToLower(key))
}

func firstProperty(p geojson.Properties, keys ...string) string {
	for _, k := range keys {
		if v := p.MustString(k, ""); v != "" {
			return v
		}
	}
	return ""
}
