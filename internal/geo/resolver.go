// Package geo resolves country names to ISO 3166 alpha-3 codes and loads
// admin-0 country outlines from GeoJSON.
package geo

import (
	"errors"
	"strings"

	"theme-mapper/internal/domain"

	"github.com/pariz/gountries"
)

// DefaultOverrides covers names gountries does not know and codes where
// Natural Earth departs from ISO 3166.
var DefaultOverrides = map[string]string{
	"uk":       "GBR",
	"england":  "GBR",
	"scotland": "GBR",
	"wales":    "GBR",
	"holland":  "NLD",
	"kosovo":   "KOS",
}

// Resolver maps country display names to alpha-3 codes. Lookups try the
// overrides first, then the common and official names, then the name as an
// alpha-2 or alpha-3 code.
type Resolver struct {
	query     *gountries.Query
	overrides map[string]string
}

// NewResolver returns a resolver with DefaultOverrides extended by
// overrides. Keys match case-insensitively.
func NewResolver(overrides map[string]string) *Resolver {
	r := &Resolver{
		query:     gountries.New(),
		overrides: make(map[string]string, len(DefaultOverrides)+len(overrides)),
	}
	for k, v := range DefaultOverrides {
		r.overrides[normalize(k)] = strings.ToUpper(v)
	}
	for k, v := range overrides {
		r.overrides[normalize(k)] = strings.ToUpper(v)
	}
	return r
}

// Alpha3 returns the alpha-3 code of name or a *domain.NameResolutionError.
func (r *Resolver) Alpha3(name string) (string, error) {
	key := normalize(name)
	if key == "" {
		return "", &domain.NameResolutionError{Name: name, Err: errors.New("empty name")}
	}
	if code, ok := r.overrides[key]; ok {
		return code, nil
	}
	c, err := r.query.FindCountryByName(key)
	if err == nil {
		return c.Alpha3, nil
	}
	if n := len(key); n == 2 || n == 3 {
		if c, alphaErr := r.query.FindCountryByAlpha(key); alphaErr == nil {
			return c.Alpha3, nil
		}
	}
	return "", &domain.NameResolutionError{Name: name, Err: err}
}

func normalize(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}
