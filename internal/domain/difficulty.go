package domain

import (
	"fmt"
	"geo-jigsaw/internal/constants"
	"strings"
)

// Difficulty is the closed set of puzzle levels. The zero value means the
// level was not chosen (for example an unrecognised query parameter).
type Difficulty int

const (
	DifficultyUnset Difficulty = iota
	DifficultyEasy
	DifficultyMedium
	DifficultyHard
	DifficultyVeryHard
)

var difficultyNames = map[Difficulty]string{
	DifficultyEasy:     "easy",
	DifficultyMedium:   "medium",
	DifficultyHard:     "hard",
	DifficultyVeryHard: "very_hard",
}

// ParseDifficulty accepts the query-parameter spellings ("very hard",
// "very_hard", "very-hard") case-insensitively. Anything else yields
// DifficultyUnset and false.
func ParseDifficulty(s string) (Difficulty, bool) {
	norm := strings.ToLower(strings.TrimSpace(s))
	norm = strings.NewReplacer(" ", "_", "-", "_").Replace(norm)
	for d, name := range difficultyNames {
		if name == norm {
			return d, true
		}
	}
	return DifficultyUnset, false
}

func (d Difficulty) String() string {
	if name, ok := difficultyNames[d]; ok {
		return name
	}
	return "unset"
}

func (d Difficulty) Valid() bool {
	_, ok := difficultyNames[d]
	return ok
}

// Next is the level offered after a completed puzzle. very_hard is capped.
func (d Difficulty) Next() Difficulty {
	switch d {
	case DifficultyEasy:
		return DifficultyMedium
	case DifficultyMedium:
		return DifficultyHard
	case DifficultyHard, DifficultyVeryHard:
		return DifficultyVeryHard
	}
	return DifficultyEasy
}

func (d Difficulty) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Difficulty) UnmarshalText(b []byte) error {
	if len(b) == 0 || string(b) == "unset" {
		*d = DifficultyUnset
		return nil
	}
	parsed, ok := ParseDifficulty(string(b))
	if !ok {
		return fmt.Errorf("unknown difficulty %q", string(b))
	}
	*d = parsed
	return nil
}

type DotMode int

const (
	// DotsDraggedOnly highlights only the target of the piece being dragged.
	DotsDraggedOnly DotMode = iota
	// DotsAllUnplaced shows an indicator for every unplaced region.
	DotsAllUnplaced
)

// Policy is the per-difficulty rule set shared by the placement evaluator
// and the guidance controller.
type Policy struct {
	ToleranceMultiplier float64
	// RotationBound is the maximum deviation from upright in degrees.
	// Negative means rotation is not checked.
	RotationBound       int
	RequireHintTarget   bool
	CountdownEnabled    bool
	Dots                DotMode
	RotationEnabled     bool
	ProximityFeedback   bool
	DragTargetHighlight bool
}

var policies = map[Difficulty]Policy{
	DifficultyEasy: {
		ToleranceMultiplier: 1,
		RotationBound:       -1,
		Dots:                DotsDraggedOnly,
		DragTargetHighlight: true,
	},
	DifficultyMedium: {
		ToleranceMultiplier: 1,
		RotationBound:       -1,
		RequireHintTarget:   true,
		CountdownEnabled:    true,
		Dots:                DotsAllUnplaced,
		ProximityFeedback:   true,
		DragTargetHighlight: true,
	},
	DifficultyHard: {
		ToleranceMultiplier: 1,
		RotationBound:       constants.HardRotationBound,
		Dots:                DotsAllUnplaced,
		RotationEnabled:     true,
		ProximityFeedback:   true,
		DragTargetHighlight: true,
	},
	DifficultyVeryHard: {
		ToleranceMultiplier: 1,
		RotationBound:       constants.VeryHardRotationBound,
		Dots:                DotsAllUnplaced,
		RotationEnabled:     true,
		ProximityFeedback:   true,
		DragTargetHighlight: true,
	},
}

// Policy returns the rule set for d. An unset difficulty gets the strictest
// table entry so that a missing level never loosens placement.
func (d Difficulty) Policy() Policy {
	if p, ok := policies[d]; ok {
		return p
	}
	return policies[DifficultyVeryHard]
}
