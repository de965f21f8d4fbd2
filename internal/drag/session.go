package drag

import (
	"geo-jigsaw/internal/constants"
	"geo-jigsaw/internal/domain"
	"geo-jigsaw/internal/geometry"
	"geo-jigsaw/internal/placement"
	"sync"
	"time"

	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
)

type State int

const (
	StateIdle State = iota
	StateDragging
	StateResolved
	StateCancelled
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateDragging:
		return "dragging"
	case StateResolved:
		return "resolved"
	case StateCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Resolver is the puzzle a drag session reads from and drops into.
type Resolver interface {
	// Draggable reports why id cannot be picked up, or nil. It runs while
	// the coordinator holds its token lock and must not call back into it.
	Draggable(id domain.RegionID) error
	Target(id domain.RegionID) (domain.Point, bool)
	Rotation(id domain.RegionID) int
	Policy() domain.Policy
	Drop(id domain.RegionID, p domain.Point, rotation int) placement.Result
}

// MoveUpdate is the presentational state after a move event.
type MoveUpdate struct {
	PieceID        domain.RegionID `json:"pieceId"`
	ClientX        float64         `json:"clientX"`
	ClientY        float64         `json:"clientY"`
	NearTarget     bool            `json:"nearTarget"`
	Scale          float64         `json:"scale"`
	ShowMatchPopup bool            `json:"showMatchPopup"`
}

// Resolution is the outcome of a finished drag. Cancelled drags carry no
// Result because nothing was evaluated.
type Resolution struct {
	PieceID   domain.RegionID  `json:"pieceId"`
	State     State            `json:"-"`
	Cancelled bool             `json:"cancelled"`
	Drop      *domain.Point    `json:"drop,omitempty"`
	Result    placement.Result `json:"result"`
	Err       error            `json:"-"`
}

// Session is one pointer gesture on one piece.
type Session struct {
	mu       sync.Mutex
	c        *Coordinator
	piece    domain.RegionID
	pointer  int
	state    State
	resolver Resolver

	clientX, clientY float64
	near             bool
	scale            float64
	zoom             *gween.Tween
	lastEvent        time.Time

	moveHandle Handle
	endHandle  Handle
	update     MoveUpdate
	resolution Resolution
	cleanup    sync.Once
}

func newSession(c *Coordinator, piece domain.RegionID, ev PointerEvent, r Resolver) *Session {
	s := &Session{
		c:         c,
		piece:     piece,
		pointer:   ev.PointerID,
		state:     StateDragging,
		resolver:  r,
		clientX:   ev.ClientX,
		clientY:   ev.ClientY,
		scale:     constants.DragStartZoom,
		zoom:      newZoom(constants.DragStartZoom, 1),
		lastEvent: c.now(),
	}
	s.update = s.updateLocked()
	return s
}

func newZoom(from, to float64) *gween.Tween {
	return gween.New(float32(from), float32(to), float32(constants.DragZoomDecay.Seconds()), ease.OutQuad)
}

func (s *Session) PieceID() domain.RegionID {
	return s.piece
}

func (s *Session) PointerID() int {
	return s.pointer
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) LastUpdate() MoveUpdate {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.update
}

func (s *Session) Resolution() Resolution {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.resolution
}

func (s *Session) onMove(kind eventKind, ev PointerEvent) {
	if kind != eventMove || ev.PointerID != s.pointer {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateDragging {
		return
	}

	now := s.c.now()
	dt := now.Sub(s.lastEvent)
	s.lastEvent = now
	s.clientX, s.clientY = ev.ClientX, ev.ClientY

	if s.zoom != nil {
		v, done := s.zoom.Update(float32(dt.Seconds()))
		s.scale = float64(v)
		if done {
			s.zoom = nil
		}
	}

	near := s.nearTargetLocked(ev)
	switch {
	case near && !s.near:
		s.zoom = newZoom(s.scale, constants.NearTargetZoom)
	case !near && s.near:
		s.zoom = nil
		s.scale = 1
	}
	s.near = near
	s.update = s.updateLocked()
}

// nearTargetLocked compares the pointer with the piece's target in viewport
// pixels, so the radius does not change with zoom.
func (s *Session) nearTargetLocked(ev PointerEvent) bool {
	if !s.resolver.Policy().ProximityFeedback || ev.Container == nil {
		return false
	}
	target, ok := s.resolver.Target(s.piece)
	if !ok {
		return false
	}
	vx, vy, err := geometry.ToViewport(target, ev.Container)
	if err != nil {
		return false
	}
	return geometry.Distance(domain.Point{X: vx, Y: vy}, domain.Point{X: ev.ClientX, Y: ev.ClientY}) <= constants.ProximityRadiusPx
}

func (s *Session) updateLocked() MoveUpdate {
	return MoveUpdate{
		PieceID:        s.piece,
		ClientX:        s.clientX,
		ClientY:        s.clientY,
		NearTarget:     s.near,
		Scale:          s.scale,
		ShowMatchPopup: s.near,
	}
}

func (s *Session) onEnd(kind eventKind, ev PointerEvent) {
	if ev.PointerID != s.pointer {
		return
	}
	switch kind {
	case eventEnd:
		s.resolve(ev)
	case eventCancel:
		s.cancel()
	}
}

// resolve converts the drop point once and evaluates it once. A missing
// container cancels the drag instead of rejecting the drop.
func (s *Session) resolve(ev PointerEvent) {
	s.mu.Lock()
	if s.state != StateDragging {
		s.mu.Unlock()
		return
	}
	p, err := geometry.ToPuzzle(ev.ClientX, ev.ClientY, ev.Container)
	if err != nil {
		s.state = StateCancelled
		s.resolution = Resolution{PieceID: s.piece, State: StateCancelled, Cancelled: true, Err: err}
		s.mu.Unlock()
		s.c.logger.Debug().Err(err).Int("piece_id", int(s.piece)).Msg("drop cancelled, no container")
		s.finish()
		return
	}
	s.state = StateResolved
	s.mu.Unlock()

	result := s.resolver.Drop(s.piece, p, s.resolver.Rotation(s.piece))

	s.mu.Lock()
	s.resolution = Resolution{PieceID: s.piece, State: StateResolved, Drop: &p, Result: result}
	s.mu.Unlock()
	s.finish()
}

func (s *Session) cancel() {
	s.mu.Lock()
	if s.state != StateDragging {
		s.mu.Unlock()
		return
	}
	s.state = StateCancelled
	s.resolution = Resolution{PieceID: s.piece, State: StateCancelled, Cancelled: true}
	s.mu.Unlock()
	s.c.logger.Debug().Int("piece_id", int(s.piece)).Msg("drag cancelled")
	s.finish()
}

// finish detaches the session's listeners and releases the drag token.
func (s *Session) finish() {
	s.cleanup.Do(func() {
		s.moveHandle.Remove()
		s.endHandle.Remove()
		s.c.release(s)
	})
}
