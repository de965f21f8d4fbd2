package domain

import (
	"time"
)

type RegionID int

type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type Region struct {
	ID          RegionID `json:"id"`
	Name        string   `json:"name"`
	Target      Point    `json:"target"`
	Current     *Point   `json:"current,omitempty"`
	Outline     string   `json:"outline"`
	IsPlaced    bool     `json:"isPlaced"`
	Rotation    int      `json:"rotation"` // degrees, 0-359
	FillColor   string   `json:"fillColor,omitempty"`
	StrokeColor string   `json:"strokeColor,omitempty"`
}

// DroppedItem is kept for every accepted placement so the client can
// highlight what was placed, in placement order.
type DroppedItem struct {
	RegionID RegionID `json:"regionId"`
	Position Point    `json:"position"`
	PathData string   `json:"pathData"`
}

type Country struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	ExpectedCount int    `json:"expectedCount"`
	Difficulty    int    `json:"difficulty"` // 1-5 rating from the catalogue
}

type GameState string

const (
	GameStateReady     GameState = "ready"
	GameStateRunning   GameState = "running"
	GameStateCompleted GameState = "completed"
	GameStateTimeUp    GameState = "time_up"
)

func (s GameState) Terminal() bool {
	return s == GameStateCompleted || s == GameStateTimeUp
}

type NotificationKind string

const (
	NotificationError  NotificationKind = "error"
	NotificationPlaced NotificationKind = "placed"
)

type Notification struct {
	Kind      NotificationKind `json:"kind"`
	RegionID  RegionID         `json:"regionId"`
	Message   string           `json:"message"`
	ExpiresAt time.Time        `json:"expiresAt"`
}

// GameSnapshot is a read-only copy of a game session. Mutating it has no
// effect on the session it was taken from.
type GameSnapshot struct {
	ID            string         `json:"id"`
	CountryID     string         `json:"countryId"`
	CountryName   string         `json:"countryName"`
	Difficulty    Difficulty     `json:"difficulty"`
	State         GameState      `json:"state"`
	Regions       []Region       `json:"regions"`
	PlacedPieces  []RegionID     `json:"placedPieces"`
	DroppedItems  []DroppedItem  `json:"droppedItems"`
	HintsUsed     int            `json:"hintsUsed"`
	CurrentTarget *RegionID      `json:"currentTarget,omitempty"`
	HintPopup     bool           `json:"hintPopup"`
	Notifications []Notification `json:"notifications"`
	ShapeSize     float64        `json:"shapeSize"`
	StartTime     time.Time      `json:"startTime"`
	EndTime       *time.Time     `json:"endTime,omitempty"`
	Elapsed       time.Duration  `json:"elapsed"`
	Score         *int           `json:"score,omitempty"`
	Degraded      bool           `json:"degraded"`
}

func (s GameSnapshot) IsCompleted() bool {
	return s.State == GameStateCompleted
}

func (s GameSnapshot) Unplaced() []Region {
	var out []Region
	for _, r := range s.Regions {
		if !r.IsPlaced {
			out = append(out, r)
		}
	}
	return out
}

// SessionRecord is the persisted summary of a game used for the leaderboard.
type SessionRecord struct {
	ID          string
	GameID      string
	CountryID   string
	CountryName string
	Difficulty  Difficulty
	State       GameState
	HintsUsed   int
	Score       *int
	StartedAt   time.Time
	EndedAt     *time.Time
	// PreviousGameID links a level-up game to the game it followed.
	PreviousGameID string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
