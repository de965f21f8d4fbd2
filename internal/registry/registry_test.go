package registry

import (
	"errors"
	"geo-jigsaw/internal/domain"
	"testing"

	"github.com/rs/zerolog"
)

func f(v float64) *float64 { return &v }

func sampleData() []RegionData {
	return []RegionData{
		{ID: 1, Name: "Kerala", CorrectX: f(100), CorrectY: f(400)},
		{ID: 2, Name: "Tamil Nadu", CorrectX: f(180), CorrectY: f(420)},
		{ID: 3, Name: "Karnataka", CorrectX: f(120), CorrectY: f(330)},
	}
}

func TestLoadDeduplicatesFirstWins(t *testing.T) {
	data := append(sampleData(), RegionData{ID: 2, Name: "Duplicate", CorrectX: f(1), CorrectY: f(1)})

	reg, report, err := Load(domain.Country{ID: "in"}, data, zerolog.Nop())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if reg.Len() != 3 {
		t.Fatalf("Len = %d, want 3", reg.Len())
	}
	if len(report.Duplicates) != 1 || report.Duplicates[0] != 2 {
		t.Errorf("Duplicates = %v, want [2]", report.Duplicates)
	}
	r, ok := reg.Region(2)
	if !ok || r.Name != "Tamil Nadu" {
		t.Errorf("Region(2) = %+v, want first occurrence", r)
	}
}

func TestLoadDefaultsMissingTargets(t *testing.T) {
	data := []RegionData{{ID: 10, Name: "A"}, {ID: 11, Name: "B"}}
	reg, report, err := Load(domain.Country{ID: "x"}, data, zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}
	if report.Defaulted != 2 {
		t.Errorf("Defaulted = %d, want 2", report.Defaulted)
	}
	a, _ := reg.FindTarget(10)
	b, _ := reg.FindTarget(11)
	if a == b {
		t.Errorf("default targets collide: %+v", a)
	}
}

func TestLoadPadsAndTruncates(t *testing.T) {
	t.Run("pad", func(t *testing.T) {
		reg, report, err := Load(domain.Country{ID: "in", ExpectedCount: 5}, sampleData(), zerolog.Nop())
		if err != nil {
			t.Fatal(err)
		}
		if reg.Len() != 5 || report.Padded != 2 {
			t.Fatalf("Len = %d Padded = %d, want 5 and 2", reg.Len(), report.Padded)
		}
		regions := reg.Regions()
		if regions[3].ID != 4 || regions[4].ID != 5 {
			t.Errorf("padded ids = %d,%d want 4,5", regions[3].ID, regions[4].ID)
		}
	})
	t.Run("truncate", func(t *testing.T) {
		reg, report, err := Load(domain.Country{ID: "in", ExpectedCount: 2}, sampleData(), zerolog.Nop())
		if err != nil {
			t.Fatal(err)
		}
		if reg.Len() != 2 || report.Truncated != 1 {
			t.Fatalf("Len = %d Truncated = %d, want 2 and 1", reg.Len(), report.Truncated)
		}
		if _, ok := reg.Region(3); ok {
			t.Error("truncated region 3 still present")
		}
	})
}

func TestLoadEmpty(t *testing.T) {
	_, _, err := Load(domain.Country{ID: "none"}, nil, zerolog.Nop())
	if !errors.Is(err, ErrEmptyCatalogue) {
		t.Fatalf("err = %v, want ErrEmptyCatalogue", err)
	}
}

func TestRegionsReturnsCopy(t *testing.T) {
	reg, _, _ := Load(domain.Country{ID: "in"}, sampleData(), zerolog.Nop())
	regions := reg.Regions()
	regions[0].Name = "mutated"
	if r, _ := reg.Region(1); r.Name != "Kerala" {
		t.Errorf("registry aliased by Regions(): %q", r.Name)
	}
}

func TestMatchByName(t *testing.T) {
	reg, _, err := Load(domain.Country{ID: "us"}, []RegionData{
		{ID: 1, Name: "West Virginia"},
		{ID: 2, Name: "Virginia"},
		{ID: 3, Name: "New York"},
	}, zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		candidate string
		wantID    domain.RegionID
		wantOK    bool
	}{
		{"virginia", 2, true},
		{"  NEW YORK ", 3, true},
		{"New York State", 3, true},
		{"york", 3, true},
		{"Virg", 1, true},
		{"Texas", 0, false},
		{"", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.candidate, func(t *testing.T) {
			got, ok := reg.MatchByName(tt.candidate)
			if ok != tt.wantOK || got.ID != tt.wantID {
				t.Errorf("MatchByName(%q) = (%d, %v), want (%d, %v)", tt.candidate, got.ID, ok, tt.wantID, tt.wantOK)
			}
		})
	}
}

// A candidate equal to a region name wins over an earlier region that only
// contains it; substring ties still go to the first region in order.
func TestMatchByNamePrefersExactOverEarlierSubstring(t *testing.T) {
	reg, _, err := Load(domain.Country{ID: "us"}, []RegionData{
		{ID: 1, Name: "West Virginia"},
		{ID: 2, Name: "Virginia"},
		{ID: 3, Name: "North Carolina"},
		{ID: 4, Name: "South Carolina"},
	}, zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}

	if got, _ := reg.MatchByName("Virginia"); got.ID != 2 {
		t.Errorf("MatchByName(Virginia) = %d, want 2", got.ID)
	}
	if got, _ := reg.MatchByName("VIRGINIA"); got.ID != 2 {
		t.Errorf("MatchByName(VIRGINIA) = %d, want 2", got.ID)
	}
	if got, _ := reg.MatchByName("Carolina"); got.ID != 3 {
		t.Errorf("MatchByName(Carolina) = %d, want first in order (3)", got.ID)
	}
}

func TestReconcile(t *testing.T) {
	reg, _, _ := Load(domain.Country{ID: "in"}, sampleData(), zerolog.Nop())
	centroid := domain.Point{X: 7, Y: 8}
	rc := reg.Reconcile([]DisplayRegion{
		{ID: "IN-TN", Name: "tamil nadu", Centroid: &centroid},
		{ID: "IN-KL", Name: "Kerala State"},
		{ID: "IN-GA", Name: "Goa"},
	}, zerolog.Nop())

	if got := rc.Matches[2].ID; got != "IN-TN" {
		t.Errorf("region 2 -> %q, want IN-TN", got)
	}
	if got := rc.Matches[1].ID; got != "IN-KL" {
		t.Errorf("region 1 -> %q, want IN-KL", got)
	}
	if len(rc.UnmatchedRegions) != 1 || rc.UnmatchedRegions[0] != 3 {
		t.Errorf("UnmatchedRegions = %v, want [3]", rc.UnmatchedRegions)
	}
	if len(rc.UnmatchedDisplay) != 1 || rc.UnmatchedDisplay[0] != "IN-GA" {
		t.Errorf("UnmatchedDisplay = %v, want [IN-GA]", rc.UnmatchedDisplay)
	}

	if p, _ := rc.DisplayPosition(reg, 2); p != centroid {
		t.Errorf("DisplayPosition(2) = %+v, want centroid", p)
	}
	target, _ := reg.FindTarget(1)
	if p, _ := rc.DisplayPosition(reg, 1); p != target {
		t.Errorf("DisplayPosition(1) = %+v, want registry target", p)
	}
}
