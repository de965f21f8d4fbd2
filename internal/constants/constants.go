package constants

import "time"

// placement
const (
	BaseToleranceUnit     = 250.0
	HardRotationBound     = 20
	VeryHardRotationBound = 12
	ProximityRadiusPx     = 60.0
)

// shape size preference
const (
	MinShapeSize     = 0.5
	MaxShapeSize     = 1.5
	DefaultShapeSize = 1.0
)

// guidance
const (
	MaxHints            = 3
	CountdownStart      = 9
	RotationHandleStep  = 12
	InitialRotationStep = 30
)

// scoring
const (
	ScoreBase        = 1000
	HintScorePenalty = 10
)

const (
	PuzzleTick        = 1 * time.Second
	CountdownTick     = 1 * time.Second
	ErrorPopupTTL     = 3 * time.Second
	PlacedPulseTTL    = 600 * time.Millisecond
	DragZoomDecay     = 300 * time.Millisecond
	DragStartZoom     = 1.15
	NearTargetZoom    = 1.1
	DefaultTimeLimit  = 10 * time.Minute
	DefaultSessionTTL = 30 * time.Minute
	JanitorInterval   = 1 * time.Minute
)

const (
	ExternalAPITimeout = 10 * time.Second
	DatabaseTimeout    = 5 * time.Second
	RequestTimeout     = 30 * time.Second
)

const (
	DBMaxOpenConns    = 100
	DBMaxIdleConns    = 10
	DBConnMaxLifetime = 1 * time.Hour
	DBMaxIdleTime     = 10 * time.Minute
)

const (
	ShutdownTimeout = 5 * time.Second
)

const (
	LeaderboardLimit = 10
	// default layout for catalogues that ship no target positions
	DefaultGridColumns = 5
	DefaultGridSpacing = 300.0
	DefaultGridOrigin  = 150.0
)
