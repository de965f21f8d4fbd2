// Package guidance implements the difficulty dependent hint and feedback
// policy: random hints, the medium level countdown that forces a hint,
// guidance dots and rotation steps. None of it affects whether a drop is
// correct.
package guidance

import (
	"errors"
	"geo-jigsaw/internal/clock"
	"geo-jigsaw/internal/constants"
	"geo-jigsaw/internal/domain"
	"geo-jigsaw/internal/game"
	"math/rand/v2"
	"sync"

	"github.com/rs/zerolog"
)

var ErrNothingToHint = errors.New("every region is already placed")

// PositionFunc resolves where a region's guidance indicator is drawn.
type PositionFunc func(domain.RegionID) (domain.Point, bool)

type DotKind string

const (
	DotTarget  DotKind = "target"
	DotDragged DotKind = "dragged"
)

type Dot struct {
	RegionID domain.RegionID `json:"regionId"`
	Position domain.Point    `json:"position"`
	Kind     DotKind         `json:"kind"`
}

type Controller struct {
	mu        sync.Mutex
	session   *game.Session
	sched     clock.Scheduler
	rng       *rand.Rand
	position  PositionFunc
	countdown int
	task      clock.Task
	logger    zerolog.Logger
}

func NewController(session *game.Session, sched clock.Scheduler, rng *rand.Rand, position PositionFunc, logger zerolog.Logger) *Controller {
	if position == nil {
		position = session.Registry().FindTarget
	}
	return &Controller{
		session:   session,
		sched:     sched,
		rng:       rng,
		position:  position,
		countdown: constants.CountdownStart,
		logger:    logger.With().Str("game_id", session.ID()).Logger(),
	}
}

// UseHint picks a uniformly random unplaced region and makes it the current
// target. Callers enforce the hint cap; HintsUsed stays accurate either way.
func (c *Controller) UseHint() (domain.RegionID, error) {
	ids := c.session.UnplacedIDs()
	if len(ids) == 0 {
		return 0, ErrNothingToHint
	}
	c.mu.Lock()
	id := ids[c.rng.IntN(len(ids))]
	c.mu.Unlock()

	if err := c.session.ApplyHint(id); err != nil {
		return 0, err
	}
	return id, nil
}

// Start arms the forced-hint countdown when the difficulty uses one. It
// counts down from 9 once per second while the puzzle is running; reaching
// zero fires a hint and rearms at 9. While the puzzle is not running the
// countdown holds its value.
func (c *Controller) Start() {
	if !c.session.Policy().CountdownEnabled {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.task != nil {
		return
	}
	c.task = c.sched.Every(constants.CountdownTick, c.tick)
}

// Restart rearms the countdown at its initial value.
func (c *Controller) Restart() {
	c.Stop()
	c.mu.Lock()
	c.countdown = constants.CountdownStart
	c.mu.Unlock()
	c.Start()
}

func (c *Controller) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.task != nil {
		c.task.Stop()
		c.task = nil
	}
}

func (c *Controller) tick() {
	if !c.session.Running() {
		return
	}
	c.mu.Lock()
	if c.task == nil {
		c.mu.Unlock()
		return
	}
	c.countdown--
	fire := c.countdown <= 0
	if fire {
		c.countdown = constants.CountdownStart
	}
	c.mu.Unlock()

	if !fire {
		return
	}
	id, err := c.UseHint()
	if err != nil {
		c.logger.Debug().Err(err).Msg("countdown hint skipped")
		return
	}
	c.logger.Debug().Int("region_id", int(id)).Msg("countdown forced a hint")
}

// Countdown returns the seconds left before the next forced hint, or -1 when
// the difficulty has no countdown.
func (c *Controller) Countdown() int {
	if !c.session.Policy().CountdownEnabled {
		return -1
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.countdown
}

// HintsRemaining is the caller-side cap view of the session's hint counter.
func (c *Controller) HintsRemaining(max int) int {
	left := max - c.session.HintsUsed()
	if left < 0 {
		return 0
	}
	return left
}

// Dots lists the guidance indicators to draw. At easy only the dragged
// piece's target is highlighted; at medium and above every unplaced region
// gets an indicator and the dragged one is marked separately.
func (c *Controller) Dots(dragged *domain.RegionID) []Dot {
	snap := c.session.Snapshot()
	if snap.State.Terminal() {
		return nil
	}
	policy := c.session.Policy()

	var dots []Dot
	switch policy.Dots {
	case domain.DotsAllUnplaced:
		for _, r := range snap.Regions {
			if r.IsPlaced {
				continue
			}
			kind := DotTarget
			if dragged != nil && *dragged == r.ID {
				kind = DotDragged
			}
			if p, ok := c.position(r.ID); ok {
				dots = append(dots, Dot{RegionID: r.ID, Position: p, Kind: kind})
			}
		}
	case domain.DotsDraggedOnly:
		if dragged == nil || !policy.DragTargetHighlight {
			return nil
		}
		for _, r := range snap.Regions {
			if r.ID != *dragged || r.IsPlaced {
				continue
			}
			if p, ok := c.position(r.ID); ok {
				dots = append(dots, Dot{RegionID: r.ID, Position: p, Kind: DotDragged})
			}
		}
	}
	return dots
}

// RotateStep turns a piece by whole handle steps of 12 degrees.
func (c *Controller) RotateStep(id domain.RegionID, steps int) (int, error) {
	return c.session.RotateBy(id, steps*constants.RotationHandleStep)
}

// ScrambleRotations gives every unplaced piece a random non-zero multiple of
// 30 degrees. It does nothing at difficulties without rotation.
func (c *Controller) ScrambleRotations() error {
	if !c.session.Policy().RotationEnabled {
		return nil
	}
	steps := 360 / constants.InitialRotationStep
	for _, id := range c.session.UnplacedIDs() {
		c.mu.Lock()
		deg := (1 + c.rng.IntN(steps-1)) * constants.InitialRotationStep
		c.mu.Unlock()
		if _, err := c.session.Rotate(id, deg); err != nil && !errors.Is(err, game.ErrRegionPlaced) {
			return err
		}
	}
	return nil
}
