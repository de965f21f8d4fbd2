// Package registry holds the authoritative region catalogue of one country.
//
// A Registry is built once per country load and is read-only afterwards, so
// it can be shared by every game session started for that country.
package registry

import (
	"errors"
	"fmt"
	"geo-jigsaw/internal/constants"
	"geo-jigsaw/internal/domain"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/text/cases"
)

var ErrEmptyCatalogue = errors.New("country has no regions")

// RegionData is one raw entry of a shape dataset. Target coordinates are
// optional; missing ones get a default grid layout.
type RegionData struct {
	ID          int      `json:"id"`
	Name        string   `json:"name"`
	OutlinePath string   `json:"outlinePath"`
	CorrectX    *float64 `json:"correctX,omitempty"`
	CorrectY    *float64 `json:"correctY,omitempty"`
	FillColor   string   `json:"fillColor,omitempty"`
	StrokeColor string   `json:"strokeColor,omitempty"`
}

// LoadReport lists the data-quality fixes applied while loading.
type LoadReport struct {
	Duplicates []domain.RegionID
	Defaulted  int
	Padded     int
	Truncated  int
}

type Registry struct {
	country domain.Country
	regions []domain.Region
	byID    map[domain.RegionID]int
	folded  []string
}

var palette = []string{"#8ecae6", "#ffb703", "#90be6d", "#f28482", "#cdb4db", "#f6bd60", "#84a59d"}

// Load validates data and builds the registry for country. Duplicated ids
// keep their first occurrence. When country.ExpectedCount is positive the
// list is padded with placeholder regions or truncated to that size.
func Load(country domain.Country, data []RegionData, logger zerolog.Logger) (*Registry, LoadReport, error) {
	var report LoadReport

	seen := make(map[domain.RegionID]struct{}, len(data))
	regions := make([]domain.Region, 0, len(data))
	maxID := domain.RegionID(0)
	for _, d := range data {
		id := domain.RegionID(d.ID)
		if _, dup := seen[id]; dup {
			report.Duplicates = append(report.Duplicates, id)
			logger.Warn().
				Str("country_id", country.ID).
				Int("region_id", d.ID).
				Str("name", d.Name).
				Msg("duplicate region id in dataset, dropping")
			continue
		}
		seen[id] = struct{}{}
		if id > maxID {
			maxID = id
		}

		r := domain.Region{
			ID:          id,
			Name:        strings.TrimSpace(d.Name),
			Outline:     d.OutlinePath,
			FillColor:   d.FillColor,
			StrokeColor: d.StrokeColor,
		}
		if d.CorrectX != nil && d.CorrectY != nil {
			r.Target = domain.Point{X: *d.CorrectX, Y: *d.CorrectY}
		} else {
			r.Target = gridPosition(len(regions))
			report.Defaulted++
		}
		regions = append(regions, r)
	}

	if want := country.ExpectedCount; want > 0 {
		if len(regions) > want {
			report.Truncated = len(regions) - want
			regions = regions[:want]
		}
		for len(regions) < want {
			maxID++
			target := gridPosition(len(regions))
			regions = append(regions, domain.Region{
				ID:      maxID,
				Name:    fmt.Sprintf("Region %d", maxID),
				Target:  target,
				Outline: placeholderOutline(target),
			})
			report.Padded++
		}
	}

	if len(regions) == 0 {
		return nil, report, fmt.Errorf("load %s: %w", country.ID, ErrEmptyCatalogue)
	}

	if report.Padded > 0 || report.Truncated > 0 || report.Defaulted > 0 {
		logger.Warn().
			Str("country_id", country.ID).
			Int("padded", report.Padded).
			Int("truncated", report.Truncated).
			Int("defaulted_targets", report.Defaulted).
			Msg("region catalogue adjusted")
	}

	reg := &Registry{
		country: country,
		regions: regions,
		byID:    make(map[domain.RegionID]int, len(regions)),
		folded:  make([]string, len(regions)),
	}
	caser := cases.Fold()
	for i := range reg.regions {
		r := &reg.regions[i]
		if r.FillColor == "" {
			r.FillColor = palette[i%len(palette)]
		}
		if r.StrokeColor == "" {
			r.StrokeColor = "#333333"
		}
		reg.byID[r.ID] = i
		reg.folded[i] = caser.String(r.Name)
	}
	if reg.country.ExpectedCount == 0 {
		reg.country.ExpectedCount = len(regions)
	}

	logger.Info().
		Str("country_id", country.ID).
		Int("regions", len(regions)).
		Msg("region registry loaded")
	return reg, report, nil
}

func gridPosition(i int) domain.Point {
	return domain.Point{
		X: constants.DefaultGridOrigin + float64(i%constants.DefaultGridColumns)*constants.DefaultGridSpacing,
		Y: constants.DefaultGridOrigin + float64(i/constants.DefaultGridColumns)*constants.DefaultGridSpacing,
	}
}

func placeholderOutline(c domain.Point) string {
	const half = 60.0
	return fmt.Sprintf("M%.0f %.0f L%.0f %.0f L%.0f %.0f L%.0f %.0f Z",
		c.X-half, c.Y-half, c.X+half, c.Y-half, c.X+half, c.Y+half, c.X-half, c.Y+half)
}

func (r *Registry) Country() domain.Country {
	return r.country
}

func (r *Registry) Len() int {
	return len(r.regions)
}

// Regions returns a copy of the catalogue in display order.
func (r *Registry) Regions() []domain.Region {
	out := make([]domain.Region, len(r.regions))
	copy(out, r.regions)
	return out
}

func (r *Registry) Region(id domain.RegionID) (domain.Region, bool) {
	i, ok := r.byID[id]
	if !ok {
		return domain.Region{}, false
	}
	return r.regions[i], true
}

func (r *Registry) FindTarget(id domain.RegionID) (domain.Point, bool) {
	i, ok := r.byID[id]
	if !ok {
		return domain.Point{}, false
	}
	return r.regions[i].Target, true
}

// MatchByName finds the region whose name equals candidate ignoring case,
// falling back to the first region in display order where either name
// contains the other.
func (r *Registry) MatchByName(candidate string) (domain.Region, bool) {
	i := r.matchIndex(cases.Fold().String(strings.TrimSpace(candidate)))
	if i < 0 {
		return domain.Region{}, false
	}
	return r.regions[i], true
}

func (r *Registry) matchIndex(folded string) int {
	if folded == "" {
		return -1
	}
	for i, name := range r.folded {
		if name == folded {
			return i
		}
	}
	for i, name := range r.folded {
		if name == "" {
			continue
		}
		if strings.Contains(name, folded) || strings.Contains(folded, name) {
			return i
		}
	}
	return -1
}
