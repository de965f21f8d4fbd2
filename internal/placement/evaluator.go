// Package placement decides whether a dropped piece is correctly placed.
//
// Evaluate is a pure function of its input: it never mutates the board it
// reads. Applying the side effects of an accepted drop is the job of the
// game session.
package placement

import (
	"fmt"
	"geo-jigsaw/internal/constants"
	"geo-jigsaw/internal/domain"
	"geo-jigsaw/internal/geometry"
)

// Board is the read-only view of a game session the evaluator needs.
type Board interface {
	Region(id domain.RegionID) (domain.Region, bool)
	CurrentTarget() (domain.RegionID, bool)
	Finished() bool
}

type Input struct {
	PieceID    domain.RegionID
	Drop       domain.Point
	Rotation   int
	Difficulty domain.Difficulty
	ShapeSize  float64
	Board      Board
}

type Result struct {
	Accepted  bool          `json:"accepted"`
	Reason    domain.Reason `json:"reason"`
	Snap      domain.Point  `json:"snap"`
	Distance  float64       `json:"distance"`
	Tolerance float64       `json:"tolerance"`
	Deviation int           `json:"deviation"`
	Message   string        `json:"message,omitempty"`
}

// Tolerance is the acceptance radius in puzzle units for a shape size.
func Tolerance(shapeSize float64, policy domain.Policy) float64 {
	if shapeSize <= 0 {
		shapeSize = constants.DefaultShapeSize
	}
	return constants.BaseToleranceUnit * shapeSize * policy.ToleranceMultiplier
}

// Evaluate checks, in order: finished puzzle, unknown piece, already placed,
// hint target (medium), distance, rotation (hard and very hard).
func Evaluate(in Input) Result {
	if in.Board.Finished() {
		return Result{Reason: domain.ReasonFinished}
	}
	region, ok := in.Board.Region(in.PieceID)
	if !ok {
		return Result{Reason: domain.ReasonUnknownPiece}
	}
	if region.IsPlaced {
		return Result{Reason: domain.ReasonAlreadyPlaced}
	}

	policy := in.Difficulty.Policy()
	if policy.RequireHintTarget {
		target, ok := in.Board.CurrentTarget()
		if !ok || target != in.PieceID {
			return Result{
				Reason:  domain.ReasonWrongPiece,
				Message: wrongPieceMessage(in.Board, target, ok),
			}
		}
	}

	res := Result{
		Snap:      region.Target,
		Distance:  geometry.Distance(in.Drop, region.Target),
		Tolerance: Tolerance(in.ShapeSize, policy),
	}
	if res.Distance > res.Tolerance {
		res.Reason = domain.ReasonOutOfTolerance
		res.Message = distanceMessage(in.Difficulty, region.Name)
		return res
	}

	if policy.RotationBound >= 0 {
		res.Deviation = geometry.AngularDeviation(in.Rotation)
		if res.Deviation > policy.RotationBound {
			res.Reason = domain.ReasonOutOfTolerance
			res.Message = fmt.Sprintf("%s is in the right spot but rotated %d°. Straighten it to within %d° first.",
				region.Name, res.Deviation, policy.RotationBound)
			return res
		}
	}

	res.Accepted = true
	res.Reason = domain.ReasonAccepted
	return res
}

func wrongPieceMessage(b Board, target domain.RegionID, hasTarget bool) string {
	if !hasTarget {
		return "Wait for a region to be highlighted, or use a hint."
	}
	if r, ok := b.Region(target); ok {
		return fmt.Sprintf("That's not the highlighted region. Find %s first.", r.Name)
	}
	return "That's not the highlighted region."
}

func distanceMessage(d domain.Difficulty, name string) string {
	switch d {
	case domain.DifficultyEasy:
		return fmt.Sprintf("Not quite! Try dropping %s closer to its spot on the map.", name)
	case domain.DifficultyMedium:
		return fmt.Sprintf("Right region, wrong place. Look again for where %s belongs.", name)
	default:
		return fmt.Sprintf("%s does not belong there.", name)
	}
}
