package domain

// Reason classifies the outcome of a drop.
type Reason string

const (
	ReasonAccepted       Reason = "accepted"
	ReasonWrongPiece     Reason = "wrong_piece"
	ReasonOutOfTolerance Reason = "out_of_tolerance"
	ReasonAlreadyPlaced  Reason = "already_placed"
	ReasonUnknownPiece   Reason = "unknown_piece"
	ReasonNotStarted     Reason = "not_started"
	// ReasonFinished is returned for drops after completion or time-up.
	ReasonFinished Reason = "finished"
)

// UserVisible reports whether a rejection should surface as an error popup.
// Already placed pieces, unknown ids and puzzles that are not running are
// dropped silently.
func (r Reason) UserVisible() bool {
	return r == ReasonWrongPiece || r == ReasonOutOfTolerance
}
