// Package catalog serves the bundled sample countries used when the remote
// region data source is unavailable or not configured.
package catalog

import (
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"geo-jigsaw/internal/domain"
	"geo-jigsaw/internal/registry"
	"sort"

	"github.com/rs/zerolog"
)

//go:embed data/*.json
var files embed.FS

var ErrUnknownCountry = errors.New("country not in bundled catalogue")

// Bundle is everything needed to build one country's puzzle.
type Bundle struct {
	Country domain.Country           `json:"country"`
	Regions []registry.RegionData    `json:"regions"`
	Display []registry.DisplayRegion `json:"display"`
}

type Catalog struct {
	countries []domain.Country
	bundles   map[string]Bundle
}

type index struct {
	Countries []domain.Country `json:"countries"`
}

func New(logger zerolog.Logger) (*Catalog, error) {
	raw, err := files.ReadFile("data/countries.json")
	if err != nil {
		return nil, fmt.Errorf("failed to read country index: %w", err)
	}
	var idx index
	if err := json.Unmarshal(raw, &idx); err != nil {
		return nil, fmt.Errorf("failed to decode country index: %w", err)
	}

	c := &Catalog{bundles: make(map[string]Bundle, len(idx.Countries))}
	for _, country := range idx.Countries {
		raw, err := files.ReadFile("data/" + country.ID + ".json")
		if err != nil {
			return nil, fmt.Errorf("failed to read bundle %s: %w", country.ID, err)
		}
		var b Bundle
		if err := json.Unmarshal(raw, &b); err != nil {
			return nil, fmt.Errorf("failed to decode bundle %s: %w", country.ID, err)
		}
		b.Country = country
		c.bundles[country.ID] = b
		c.countries = append(c.countries, country)
	}
	sort.Slice(c.countries, func(i, j int) bool { return c.countries[i].ID < c.countries[j].ID })

	logger.Info().Int("countries", len(c.countries)).Msg("bundled catalogue loaded")
	return c, nil
}

func (c *Catalog) Countries() []domain.Country {
	out := make([]domain.Country, len(c.countries))
	copy(out, c.countries)
	return out
}

func (c *Catalog) Bundle(countryID string) (Bundle, error) {
	b, ok := c.bundles[countryID]
	if !ok {
		return Bundle{}, fmt.Errorf("%w: %s", ErrUnknownCountry, countryID)
	}
	return b, nil
}

// Default is the first bundled country, used when a request names none.
func (c *Catalog) Default() (Bundle, error) {
	if len(c.countries) == 0 {
		return Bundle{}, ErrUnknownCountry
	}
	return c.bundles[c.countries[0].ID], nil
}
