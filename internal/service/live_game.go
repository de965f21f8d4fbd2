package service

import (
	"geo-jigsaw/internal/domain"
	"geo-jigsaw/internal/drag"
	"geo-jigsaw/internal/game"
	"geo-jigsaw/internal/guidance"
	"geo-jigsaw/internal/placement"
	"geo-jigsaw/internal/registry"
	"sync"
)

// liveGame bundles everything that belongs to one puzzle in memory. The
// session is authoritative; guidance and drags read from it and mutate it
// only through its methods.
type liveGame struct {
	session *game.Session
	guide   *guidance.Controller
	drags   *drag.Coordinator
	recon   registry.Reconciliation

	mu             sync.Mutex
	attempt        int
	previousGameID string
}

// GameView is the client-facing state of a game.
type GameView struct {
	domain.GameSnapshot
	HintsRemaining   int               `json:"hintsRemaining"`
	Countdown        int               `json:"countdown"`
	Dots             []guidance.Dot    `json:"dots"`
	Dragging         *domain.RegionID  `json:"dragging,omitempty"`
	UnmatchedRegions []domain.RegionID `json:"unmatchedRegions,omitempty"`
}

func (g *liveGame) view(maxHints int) GameView {
	v := GameView{
		GameSnapshot:     g.session.Snapshot(),
		HintsRemaining:   g.guide.HintsRemaining(maxHints),
		Countdown:        g.guide.Countdown(),
		UnmatchedRegions: g.recon.UnmatchedRegions,
	}
	if id, ok := g.drags.Active(); ok {
		v.Dragging = &id
	}
	v.Dots = g.guide.Dots(v.Dragging)
	return v
}

func (g *liveGame) recordKey() (string, int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.session.ID(), g.attempt
}

func (g *liveGame) nextAttempt() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.attempt++
}

func (g *liveGame) teardown() {
	g.guide.Stop()
	g.drags.Teardown()
	g.session.Teardown()
}

// drag.Resolver

func (g *liveGame) Draggable(id domain.RegionID) error {
	return g.session.Draggable(id)
}

func (g *liveGame) Target(id domain.RegionID) (domain.Point, bool) {
	return g.session.Registry().FindTarget(id)
}

func (g *liveGame) Rotation(id domain.RegionID) int {
	r, _ := g.session.Region(id)
	return r.Rotation
}

func (g *liveGame) Policy() domain.Policy {
	return g.session.Policy()
}

func (g *liveGame) Drop(id domain.RegionID, p domain.Point, rotation int) placement.Result {
	return g.session.PlacePiece(id, p, rotation)
}
