// Package game holds the authoritative state of one puzzle attempt.
//
// Session methods are the only way to mutate regions, placed pieces, hints,
// rotation, shape size, timers and the score. Every timer a session starts is
// owned by its task group and is stopped on reset, completion, time-up and
// teardown.
package game

import (
	"errors"
	"fmt"
	"geo-jigsaw/internal/clock"
	"geo-jigsaw/internal/constants"
	"geo-jigsaw/internal/domain"
	"geo-jigsaw/internal/geometry"
	"geo-jigsaw/internal/placement"
	"geo-jigsaw/internal/registry"
	"math"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

var (
	ErrUnknownRegion    = errors.New("unknown region")
	ErrRegionPlaced     = errors.New("region already placed")
	ErrFinished         = errors.New("puzzle already finished")
	ErrNotRunning       = errors.New("puzzle is not running")
	ErrRotationDisabled = errors.New("rotation is not used at this difficulty")
	ErrClosed           = errors.New("session closed")
)

const (
	taskClock = "puzzle-clock"
	taskError = "error-popup"
	taskPulse = "placed-pulse"
)

type Options struct {
	Difficulty domain.Difficulty
	// TimeLimit of zero disables time-up.
	TimeLimit time.Duration
	ShapeSize float64
	// Degraded marks a session built from bundled sample data.
	Degraded bool
}

// FinishFunc is called once, outside the session lock, when the session
// reaches completion or time-up.
type FinishFunc func(domain.GameSnapshot)

type Session struct {
	mu sync.Mutex

	id         string
	reg        *registry.Registry
	difficulty domain.Difficulty
	timeLimit  time.Duration
	degraded   bool

	regions []domain.Region
	index   map[domain.RegionID]int
	placed  []domain.RegionID
	dropped []domain.DroppedItem

	hintsUsed     int
	currentTarget *domain.RegionID
	hintPopup     bool
	errorNote     *domain.Notification
	pulseNote     *domain.Notification

	shapeSize float64
	state     domain.GameState
	startTime time.Time
	endTime   *time.Time
	score     *int
	closed    bool
	// gen is bumped on reset and teardown so callbacks scheduled against an
	// earlier generation become no-ops.
	gen          int
	lastActivity time.Time

	sched    clock.Scheduler
	tasks    *clock.Group
	onFinish []FinishFunc
	logger   zerolog.Logger
}

func New(id string, reg *registry.Registry, opts Options, sched clock.Scheduler, logger zerolog.Logger) *Session {
	if opts.ShapeSize == 0 {
		opts.ShapeSize = constants.DefaultShapeSize
	}
	s := &Session{
		id:         id,
		reg:        reg,
		difficulty: opts.Difficulty,
		timeLimit:  opts.TimeLimit,
		degraded:   opts.Degraded,
		regions:    reg.Regions(),
		shapeSize:  clampShapeSize(opts.ShapeSize),
		state:      domain.GameStateReady,
		sched:      sched,
		tasks:      clock.NewGroup(),
		logger: logger.With().
			Str("game_id", id).
			Str("country_id", reg.Country().ID).
			Str("difficulty", opts.Difficulty.String()).
			Logger(),
	}
	s.index = make(map[domain.RegionID]int, len(s.regions))
	for i, r := range s.regions {
		s.index[r.ID] = i
	}
	s.lastActivity = sched.Now()
	return s
}

func (s *Session) ID() string {
	return s.id
}

func (s *Session) Registry() *registry.Registry {
	return s.reg
}

func (s *Session) Difficulty() domain.Difficulty {
	return s.difficulty
}

func (s *Session) Policy() domain.Policy {
	return s.difficulty.Policy()
}

// OnFinish registers fn to run when the session completes or times out.
func (s *Session) OnFinish(fn FinishFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onFinish = append(s.onFinish, fn)
}

// Start begins the puzzle clock. Starting a running session is a no-op.
func (s *Session) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch {
	case s.closed:
		return ErrClosed
	case s.state.Terminal():
		return ErrFinished
	case s.state == domain.GameStateRunning:
		return nil
	}

	s.state = domain.GameStateRunning
	s.startTime = s.sched.Now()
	s.lastActivity = s.startTime
	gen := s.gen
	s.tasks.Set(taskClock, s.sched.Every(constants.PuzzleTick, func() { s.tick(gen) }))
	s.logger.Info().Int("regions", len(s.regions)).Msg("puzzle started")
	return nil
}

func (s *Session) tick(gen int) {
	s.mu.Lock()
	if gen != s.gen || s.state != domain.GameStateRunning {
		s.mu.Unlock()
		return
	}
	if s.timeLimit <= 0 || s.sched.Now().Sub(s.startTime) < s.timeLimit {
		s.mu.Unlock()
		return
	}
	finished := s.finishLocked(domain.GameStateTimeUp)
	snap, hooks := s.snapshotLocked(), s.onFinish
	s.mu.Unlock()

	if finished {
		runHooks(hooks, snap)
	}
}

// PlacePiece evaluates a drop and applies its side effects. It is the only
// path by which a region becomes placed.
func (s *Session) PlacePiece(id domain.RegionID, drop domain.Point, rotation int) placement.Result {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return placement.Result{Reason: domain.ReasonFinished}
	}
	if s.state == domain.GameStateReady {
		s.mu.Unlock()
		return placement.Result{Reason: domain.ReasonNotStarted}
	}
	s.lastActivity = s.sched.Now()

	res := placement.Evaluate(placement.Input{
		PieceID:    id,
		Drop:       drop,
		Rotation:   rotation,
		Difficulty: s.difficulty,
		ShapeSize:  s.shapeSize,
		Board:      board{s},
	})

	if !res.Accepted {
		if res.Reason.UserVisible() {
			s.notifyLocked(taskError, domain.NotificationError, id, res.Message, constants.ErrorPopupTTL)
		}
		s.logger.Debug().
			Int("region_id", int(id)).
			Str("reason", string(res.Reason)).
			Float64("distance", res.Distance).
			Float64("tolerance", res.Tolerance).
			Int("rotation", rotation).
			Msg("drop rejected")
		s.mu.Unlock()
		return res
	}

	i := s.index[id]
	r := &s.regions[i]
	r.IsPlaced = true
	r.Rotation = 0
	snap := r.Target
	r.Current = &snap
	s.placed = append(s.placed, id)
	s.dropped = append(s.dropped, domain.DroppedItem{RegionID: id, Position: snap, PathData: r.Outline})
	if s.currentTarget != nil && *s.currentTarget == id {
		s.currentTarget = nil
		s.hintPopup = false
	}
	s.notifyLocked(taskPulse, domain.NotificationPlaced, id, fmt.Sprintf("%s placed!", r.Name), constants.PlacedPulseTTL)
	s.logger.Info().
		Int("region_id", int(id)).
		Int("placed", len(s.placed)).
		Int("total", len(s.regions)).
		Msg("piece placed")

	var (
		finished bool
		final    domain.GameSnapshot
		hooks    []FinishFunc
	)
	if len(s.placed) == len(s.regions) {
		finished = s.finishLocked(domain.GameStateCompleted)
		final, hooks = s.snapshotLocked(), s.onFinish
	}
	s.mu.Unlock()

	if finished {
		runHooks(hooks, final)
	}
	return res
}

// CompleteGame ends the puzzle as completed once every region is placed. It
// returns false while pieces remain in the tray or when the session was
// already finished; endTime and score never change twice.
func (s *Session) CompleteGame() bool {
	s.mu.Lock()
	if len(s.placed) != len(s.regions) {
		s.mu.Unlock()
		return false
	}
	finished := s.finishLocked(domain.GameStateCompleted)
	snap, hooks := s.snapshotLocked(), s.onFinish
	s.mu.Unlock()
	if finished {
		runHooks(hooks, snap)
	}
	return finished
}

func (s *Session) finishLocked(state domain.GameState) bool {
	if s.closed || s.state.Terminal() || s.state == domain.GameStateReady {
		return false
	}
	now := s.sched.Now()
	s.state = state
	s.endTime = &now
	s.currentTarget = nil
	s.hintPopup = false
	s.tasks.Stop(taskClock)

	evt := s.logger.Info()
	if state == domain.GameStateCompleted {
		score := Score(now.Sub(s.startTime), s.hintsUsed)
		s.score = &score
		evt = evt.Int("score", score)
	}
	evt.Str("state", string(state)).
		Dur("elapsed", now.Sub(s.startTime)).
		Int("hints_used", s.hintsUsed).
		Msg("puzzle finished")
	return true
}

func runHooks(hooks []FinishFunc, snap domain.GameSnapshot) {
	for _, fn := range hooks {
		fn(snap)
	}
}

// Score is max(0, round(1000 - elapsedSeconds - hintsUsed*10)).
func Score(elapsed time.Duration, hintsUsed int) int {
	raw := float64(constants.ScoreBase) - elapsed.Seconds() - float64(hintsUsed*constants.HintScorePenalty)
	return int(math.Max(0, math.Round(raw)))
}

func (s *Session) notifyLocked(task string, kind domain.NotificationKind, id domain.RegionID, msg string, ttl time.Duration) {
	note := &domain.Notification{Kind: kind, RegionID: id, Message: msg, ExpiresAt: s.sched.Now().Add(ttl)}
	if kind == domain.NotificationError {
		s.errorNote = note
	} else {
		s.pulseNote = note
	}
	gen := s.gen
	s.tasks.Set(task, s.sched.AfterFunc(ttl, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if gen != s.gen {
			return
		}
		if kind == domain.NotificationError && s.errorNote == note {
			s.errorNote = nil
		}
		if kind == domain.NotificationPlaced && s.pulseNote == note {
			s.pulseNote = nil
		}
	}))
}

// ApplyHint makes id the current target, opens the guidance popup and
// counts one hint. The hint cap is enforced by callers.
func (s *Session) ApplyHint(id domain.RegionID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.mutableLocked(id); err != nil {
		return err
	}
	s.hintsUsed++
	target := id
	s.currentTarget = &target
	s.hintPopup = true
	s.lastActivity = s.sched.Now()
	s.logger.Debug().Int("region_id", int(id)).Int("hints_used", s.hintsUsed).Msg("hint applied")
	return nil
}

func (s *Session) CloseHintPopup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hintPopup = false
}

// Rotate sets the absolute rotation of an unplaced piece.
func (s *Session) Rotate(id domain.RegionID, degrees int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rotateLocked(id, func(int) int { return degrees })
}

// RotateBy turns an unplaced piece by delta degrees.
func (s *Session) RotateBy(id domain.RegionID, delta int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rotateLocked(id, func(cur int) int { return cur + delta })
}

func (s *Session) rotateLocked(id domain.RegionID, next func(int) int) (int, error) {
	if !s.difficulty.Policy().RotationEnabled {
		return 0, ErrRotationDisabled
	}
	if err := s.mutableLocked(id); err != nil {
		return 0, err
	}
	r := &s.regions[s.index[id]]
	r.Rotation = geometry.NormalizeDegrees(next(r.Rotation))
	s.lastActivity = s.sched.Now()
	return r.Rotation, nil
}

func (s *Session) mutableLocked(id domain.RegionID) error {
	if s.closed {
		return ErrClosed
	}
	if s.state.Terminal() {
		return ErrFinished
	}
	i, ok := s.index[id]
	if !ok {
		return fmt.Errorf("region %d: %w", id, ErrUnknownRegion)
	}
	if s.regions[i].IsPlaced {
		return fmt.Errorf("region %d: %w", id, ErrRegionPlaced)
	}
	return nil
}

// SetShapeSize stores the player's scale preference clamped to [0.5, 1.5]
// and returns the stored value.
func (s *Session) SetShapeSize(v float64) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.shapeSize = clampShapeSize(v)
	return s.shapeSize
}

func clampShapeSize(v float64) float64 {
	if math.IsNaN(v) {
		return constants.DefaultShapeSize
	}
	return math.Min(constants.MaxShapeSize, math.Max(constants.MinShapeSize, v))
}

// ResetGame clears placements, hints, timer and score while keeping the same
// region identities and targets. The session returns to the ready state.
func (s *Session) ResetGame() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	s.gen++
	s.tasks.StopAll()

	for i := range s.regions {
		s.regions[i].IsPlaced = false
		s.regions[i].Current = nil
		s.regions[i].Rotation = 0
	}
	s.placed = nil
	s.dropped = nil
	s.hintsUsed = 0
	s.currentTarget = nil
	s.hintPopup = false
	s.errorNote = nil
	s.pulseNote = nil
	s.state = domain.GameStateReady
	s.startTime = time.Time{}
	s.endTime = nil
	s.score = nil
	s.lastActivity = s.sched.Now()
	s.logger.Info().Msg("puzzle reset")
	return nil
}

// Teardown cancels every pending task. A torn-down session rejects all
// further mutation.
func (s *Session) Teardown() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	s.gen++
	s.tasks.StopAll()
	s.logger.Debug().Msg("session torn down")
}

func (s *Session) State() domain.GameState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.closed && s.state == domain.GameStateRunning
}

func (s *Session) HintsUsed() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hintsUsed
}

func (s *Session) LastActivity() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActivity
}

// Touch records player activity that does not mutate the puzzle.
func (s *Session) Touch() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastActivity = s.sched.Now()
}

// Draggable reports why id cannot be picked up right now, or nil.
func (s *Session) Draggable(id domain.RegionID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed && s.state == domain.GameStateReady {
		return ErrNotRunning
	}
	return s.mutableLocked(id)
}

// Region returns a copy of region id as currently held by the session.
func (s *Session) Region(id domain.RegionID) (domain.Region, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.index[id]
	if !ok {
		return domain.Region{}, false
	}
	return s.regions[i], true
}

func (s *Session) CurrentTarget() (domain.RegionID, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.currentTarget == nil {
		return 0, false
	}
	return *s.currentTarget, true
}

// UnplacedIDs lists unplaced regions in tray order.
func (s *Session) UnplacedIDs() []domain.RegionID {
	s.mu.Lock()
	defer s.mu.Unlock()
	var ids []domain.RegionID
	for _, r := range s.regions {
		if !r.IsPlaced {
			ids = append(ids, r.ID)
		}
	}
	return ids
}

func (s *Session) Snapshot() domain.GameSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Session) snapshotLocked() domain.GameSnapshot {
	country := s.reg.Country()
	snap := domain.GameSnapshot{
		ID:           s.id,
		CountryID:    country.ID,
		CountryName:  country.Name,
		Difficulty:   s.difficulty,
		State:        s.state,
		Regions:      make([]domain.Region, len(s.regions)),
		PlacedPieces: append([]domain.RegionID(nil), s.placed...),
		DroppedItems: append([]domain.DroppedItem(nil), s.dropped...),
		HintsUsed:    s.hintsUsed,
		HintPopup:    s.hintPopup,
		ShapeSize:    s.shapeSize,
		StartTime:    s.startTime,
		Degraded:     s.degraded,
	}
	for i, r := range s.regions {
		if r.Current != nil {
			cur := *r.Current
			r.Current = &cur
		}
		snap.Regions[i] = r
	}
	if s.currentTarget != nil {
		t := *s.currentTarget
		snap.CurrentTarget = &t
	}
	for _, n := range []*domain.Notification{s.errorNote, s.pulseNote} {
		if n != nil {
			snap.Notifications = append(snap.Notifications, *n)
		}
	}
	if s.endTime != nil {
		end := *s.endTime
		snap.EndTime = &end
		snap.Elapsed = end.Sub(s.startTime)
	} else if s.state == domain.GameStateRunning {
		snap.Elapsed = s.sched.Now().Sub(s.startTime)
	}
	if s.score != nil {
		score := *s.score
		snap.Score = &score
	}
	return snap
}

// board exposes the session to the evaluator while the lock is held.
type board struct{ s *Session }

func (b board) Region(id domain.RegionID) (domain.Region, bool) {
	i, ok := b.s.index[id]
	if !ok {
		return domain.Region{}, false
	}
	return b.s.regions[i], true
}

func (b board) CurrentTarget() (domain.RegionID, bool) {
	if b.s.currentTarget == nil {
		return 0, false
	}
	return *b.s.currentTarget, true
}

func (b board) Finished() bool {
	return b.s.state.Terminal()
}
