package registry

import (
	"geo-jigsaw/internal/domain"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/text/cases"
)

// DisplayRegion is an entry of the independently sourced display dataset
// (rendering outlines, label centroids).
type DisplayRegion struct {
	ID       string        `json:"id"`
	Name     string        `json:"name"`
	Centroid *domain.Point `json:"centroid,omitempty"`
}

// Reconciliation maps gameplay region ids onto display region ids. It is
// computed once at load time; unmatched entries on either side are reported
// rather than resolved later.
type Reconciliation struct {
	Matches          map[domain.RegionID]DisplayRegion
	UnmatchedRegions []domain.RegionID
	UnmatchedDisplay []string
}

// DisplayPosition returns where guidance for id should be drawn: the display
// centroid when one was reconciled, otherwise the registry target. Snapping
// never uses this.
func (rc Reconciliation) DisplayPosition(reg *Registry, id domain.RegionID) (domain.Point, bool) {
	if d, ok := rc.Matches[id]; ok && d.Centroid != nil {
		return *d.Centroid, true
	}
	return reg.FindTarget(id)
}

// Reconcile matches every registry region to at most one display region by
// name. A display region is claimed by the first registry region that
// matches it.
func (r *Registry) Reconcile(display []DisplayRegion, logger zerolog.Logger) Reconciliation {
	rc := Reconciliation{Matches: make(map[domain.RegionID]DisplayRegion, len(r.regions))}

	caser := cases.Fold()
	foldedDisplay := make([]string, len(display))
	for i, d := range display {
		foldedDisplay[i] = caser.String(strings.TrimSpace(d.Name))
	}
	claimed := make([]bool, len(display))

	for i, region := range r.regions {
		j := pickDisplay(r.folded[i], foldedDisplay, claimed)
		if j < 0 {
			rc.UnmatchedRegions = append(rc.UnmatchedRegions, region.ID)
			continue
		}
		claimed[j] = true
		rc.Matches[region.ID] = display[j]
	}
	for j, d := range display {
		if !claimed[j] {
			rc.UnmatchedDisplay = append(rc.UnmatchedDisplay, d.ID)
		}
	}

	if len(rc.UnmatchedRegions) > 0 || len(rc.UnmatchedDisplay) > 0 {
		logger.Warn().
			Str("country_id", r.country.ID).
			Int("unmatched_regions", len(rc.UnmatchedRegions)).
			Strs("unmatched_display", rc.UnmatchedDisplay).
			Msg("display catalogue only partially reconciled")
	}
	return rc
}

func pickDisplay(name string, display []string, claimed []bool) int {
	if name == "" {
		return -1
	}
	for j, d := range display {
		if !claimed[j] && d == name {
			return j
		}
	}
	for j, d := range display {
		if claimed[j] || d == "" {
			continue
		}
		if strings.Contains(d, name) || strings.Contains(name, d) {
			return j
		}
	}
	return -1
}
