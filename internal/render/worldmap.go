package render

import (
	"context"
	"fmt"
	"image/color"
	"math/rand/v2"
	"sort"

	"theme-mapper/internal/domain"
	"theme-mapper/internal/geo"
	"theme-mapper/internal/logging"
	"theme-mapper/pkg/colorutil"

	"github.com/paulmach/orb"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// MapTitle is the world map title.
const MapTitle = "World map of countries colored in main tourist theme"

// NotTestedLabel is the legend entry for countries without a theme.
const NotTestedLabel = "not tested"

var ocean = color.RGBA{R: 152, G: 183, B: 226, A: 255}

// NameResolver maps a country display name to the code used by the shapes.
type NameResolver interface {
	Alpha3(name string) (string, error)
}

// MapOptions configures WorldMap.
type MapOptions struct {
	// Extent is the lon/lat window drawn, in plate carrée.
	Extent orb.Bound
	Width  vg.Length
	Height vg.Length
	// Colors holds one color per theme. Any other length draws a palette
	// from Seed.
	Colors []color.Color
	Seed   uint64
}

// DefaultMapOptions covers the Americas, Europe and Africa.
func DefaultMapOptions() MapOptions {
	return MapOptions{
		Extent: orb.Bound{Min: orb.Point{-150, -25}, Max: orb.Point{60, 60}},
		Width:  12 * vg.Inch,
		Height: 6 * vg.Inch,
	}
}

// WorldMap fills each country of assignments with its theme color and every
// other shape with colorutil.NotTested. Countries whose name cannot be
// resolved are logged and skipped; their names are returned sorted. Log
// lines go to the logger carried by ctx.
func WorldMap(
	ctx context.Context,
	path string,
	assignments map[string]string,
	labels *domain.LabelTable,
	shapes []geo.Shape,
	resolver NameResolver,
	opts MapOptions,
) ([]string, error) {
	if opts.Extent.Min == opts.Extent.Max {
		opts.Extent = DefaultMapOptions().Extent
	}
	palette := opts.Colors
	if len(palette) != labels.Len() {
		palette = make([]color.Color, 0, labels.Len())
		for _, c := range colorutil.Palette(labels.Len(), rand.New(rand.NewPCG(opts.Seed, opts.Seed))) {
			palette = append(palette, c)
		}
	}

	countries := make([]string, 0, len(assignments))
	for c := range assignments {
		countries = append(countries, c)
	}
	sort.Strings(countries)

	fill := make(map[string]color.Color, len(countries))
	var skipped []string
	for _, country := range countries {
		theme := assignments[country]
		idx, ok := labels.Index(theme)
		if !ok {
			return nil, fmt.Errorf("country %q has theme %q: %w", country, theme, domain.ErrUnknownTheme)
		}
		code, err := resolver.Alpha3(country)
		if err != nil {
			logging.Ctx(ctx).Warn().Err(err).Str("country", country).Msg("country left off the map")
			skipped = append(skipped, country)
			continue
		}
		fill[code] = palette[idx]
	}

	p := plot.New()
	p.Title.Text = MapTitle
	p.BackgroundColor = ocean
	p.HideAxes()

	drawn := 0
	for _, s := range shapes {
		if !s.Bound().Intersects(opts.Extent) {
			continue
		}
		c, ok := fill[s.Code]
		if !ok {
			c = colorutil.NotTested
		}
		for _, poly := range s.Polygons {
			pg, err := countryPolygon(poly, c)
			if err != nil {
				return nil, fmt.Errorf("shape %s: %w", s.Code, err)
			}
			p.Add(pg)
		}
		drawn++
	}
	// Set after Add, which widens the axes to every polygon.
	p.X.Min, p.X.Max = opts.Extent.Min.Lon(), opts.Extent.Max.Lon()
	p.Y.Min, p.Y.Max = opts.Extent.Min.Lat(), opts.Extent.Max.Lat()

	for i, label := range labels.Labels() {
		p.Legend.Add(label, swatch(palette[i]))
	}
	p.Legend.Add(NotTestedLabel, swatch(colorutil.NotTested))
	p.Legend.Top = false
	p.Legend.Left = true
	p.Legend.ThumbnailWidth = vg.Points(10)

	w, h := opts.Width, opts.Height
	if w == 0 || h == 0 {
		d := DefaultMapOptions()
		w, h = d.Width, d.Height
	}
	if err := p.Save(w, h, path); err != nil {
		return nil, fmt.Errorf("failed to save map %s: %w", path, err)
	}
	logging.Ctx(ctx).Info().
		Str("path", path).
		Int("shapes", drawn).
		Int("colored", len(fill)).
		Int("skipped", len(skipped)).
		Msg("world map written")
	return skipped, nil
}

func countryPolygon(poly orb.Polygon, c color.Color) (*plotter.Polygon, error) {
	rings := make([]plotter.XYer, 0, len(poly))
	for _, ring := range poly {
		xys := make(plotter.XYs, len(ring))
		for i, pt := range ring {
			xys[i] = plotter.XY{X: pt.Lon(), Y: pt.Lat()}
		}
		rings = append(rings, xys)
	}
	pg, err := plotter.NewPolygon(rings...)
	if err != nil {
		return nil, err
	}
	pg.Color = c
	pg.LineStyle.Color = colorutil.White
	pg.LineStyle.Width = vg.Points(0.5)
	return pg, nil
}

func swatch(c color.Color) *plotter.Polygon {
	sq := plotter.XYs{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 1}, {X: 0, Y: 1}}
	pg, _ := plotter.NewPolygon(sq)
	pg.Color = c
	pg.LineStyle.Width = 0
	return pg
}
