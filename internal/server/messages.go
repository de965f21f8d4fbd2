package server

import (
	"geo-jigsaw/internal/domain"
	"geo-jigsaw/internal/drag"
	"geo-jigsaw/internal/geometry"
	"geo-jigsaw/internal/service"
	"time"
)

type StartGameRequest struct {
	CountryID  string  `json:"countryId"`
	Difficulty string  `json:"difficulty"`
	ShapeSize  float64 `json:"shapeSize"`
}

type GameRequest struct {
	GameID string `json:"gameId"`
}

type GameResponse struct {
	Game service.GameView `json:"game"`
}

// PointerRequest carries one pointer event. Container is the scroll
// container snapshot at the time of the event; a missing container on
// EndDrag cancels the drag.
type PointerRequest struct {
	GameID    string              `json:"gameId"`
	PieceID   int                 `json:"pieceId"`
	PointerID int                 `json:"pointerId"`
	ClientX   float64             `json:"clientX"`
	ClientY   float64             `json:"clientY"`
	Container *geometry.Container `json:"container,omitempty"`
}

func (r *PointerRequest) event() drag.PointerEvent {
	return drag.PointerEvent{
		PointerID: r.PointerID,
		ClientX:   r.ClientX,
		ClientY:   r.ClientY,
		Container: r.Container,
	}
}

type DragUpdateResponse struct {
	Update drag.MoveUpdate `json:"update"`
}

type EndDragResponse struct {
	Resolution drag.Resolution  `json:"resolution"`
	Game       service.GameView `json:"game"`
}

type CancelDragRequest struct {
	GameID    string `json:"gameId"`
	PointerID int    `json:"pointerId"`
}

type CancelDragResponse struct {
	Resolution drag.Resolution `json:"resolution"`
}

type UseHintResponse struct {
	RegionID domain.RegionID  `json:"regionId"`
	Game     service.GameView `json:"game"`
}

type RotatePieceRequest struct {
	GameID  string `json:"gameId"`
	PieceID int    `json:"pieceId"`
	Steps   int    `json:"steps"`
}

type RotatePieceResponse struct {
	Rotation int `json:"rotation"`
}

type SetShapeSizeRequest struct {
	GameID    string  `json:"gameId"`
	ShapeSize float64 `json:"shapeSize"`
}

type SetShapeSizeResponse struct {
	ShapeSize float64 `json:"shapeSize"`
}

type EndGameResponse struct {
	Ended bool `json:"ended"`
}

type ListCountriesRequest struct{}

type ListCountriesResponse struct {
	Countries []domain.Country `json:"countries"`
}

type LeaderboardRequest struct {
	CountryID  string `json:"countryId"`
	Difficulty string `json:"difficulty"`
	Limit      int    `json:"limit"`
}

type LeaderboardEntry struct {
	GameID     string     `json:"gameId"`
	Difficulty string     `json:"difficulty"`
	Score      int        `json:"score"`
	HintsUsed  int        `json:"hintsUsed"`
	EndedAt    *time.Time `json:"endedAt,omitempty"`
}

type LeaderboardResponse struct {
	CountryID string             `json:"countryId"`
	Entries   []LeaderboardEntry `json:"entries"`
}
