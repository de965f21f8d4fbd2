// Package drag tracks pointer gestures on puzzle pieces.
//
// A Coordinator owns the single "currently dragged piece" token: at most one
// drag session is live across the whole puzzle. Each session attaches its
// move and end listeners to the coordinator when it begins and removes them
// exactly once when it resolves or is cancelled.
package drag

import (
	"errors"
	"geo-jigsaw/internal/domain"
	"geo-jigsaw/internal/geometry"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

var (
	ErrDragInProgress  = errors.New("another piece is being dragged")
	ErrNoActiveDrag    = errors.New("no active drag")
	ErrPointerMismatch = errors.New("pointer does not own the active drag")
)

// PointerEvent is a raw pointer or touch event in viewport coordinates,
// together with the container snapshot taken when it fired.
type PointerEvent struct {
	PointerID int
	ClientX   float64
	ClientY   float64
	Container *geometry.Container
}

type eventKind int

const (
	eventMove eventKind = iota
	eventEnd
	eventCancel
)

type listener struct {
	id uint32
	fn func(eventKind, PointerEvent)
}

// Handle removes a listener registered on a Coordinator.
type Handle struct {
	id uint32
	c  *Coordinator
}

func (h Handle) Remove() bool {
	if h.c == nil {
		return false
	}
	return h.c.removeListener(h.id)
}

type Coordinator struct {
	mu        sync.Mutex
	active    *Session
	listeners []listener
	nextID    uint32
	now       func() time.Time
	logger    zerolog.Logger
}

func NewCoordinator(now func() time.Time, logger zerolog.Logger) *Coordinator {
	if now == nil {
		now = time.Now
	}
	return &Coordinator{now: now, logger: logger}
}

// Active returns the id of the piece being dragged, if any.
func (c *Coordinator) Active() (domain.RegionID, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active == nil {
		return 0, false
	}
	return c.active.piece, true
}

func (c *Coordinator) ListenerCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.listeners)
}

// Begin starts dragging pieceID with pointerID. It fails with
// ErrDragInProgress while any drag is live; the caller ignores that pointer.
//
// The piece is checked against r while the token lock is held, so a
// teardown racing with Begin always sees the new drag.
func (c *Coordinator) Begin(pieceID domain.RegionID, ev PointerEvent, r Resolver) (*Session, error) {
	c.mu.Lock()
	if c.active != nil {
		active := c.active
		c.mu.Unlock()
		c.logger.Debug().
			Int("piece_id", int(pieceID)).
			Int("pointer_id", ev.PointerID).
			Int("active_piece_id", int(active.piece)).
			Msg("pointer down ignored, drag in progress")
		return nil, ErrDragInProgress
	}
	if err := r.Draggable(pieceID); err != nil {
		c.mu.Unlock()
		return nil, err
	}
	s := newSession(c, pieceID, ev, r)
	c.active = s
	s.moveHandle = c.addListenerLocked(s.onMove)
	s.endHandle = c.addListenerLocked(s.onEnd)
	c.mu.Unlock()

	c.logger.Debug().Int("piece_id", int(pieceID)).Int("pointer_id", ev.PointerID).Msg("drag started")
	return s, nil
}

// Move dispatches a move event to the live drag.
func (c *Coordinator) Move(ev PointerEvent) (MoveUpdate, error) {
	s, err := c.owner(ev.PointerID)
	if err != nil {
		return MoveUpdate{}, err
	}
	c.dispatch(eventMove, ev)
	return s.LastUpdate(), nil
}

// End dispatches pointer-up, resolving the live drag.
func (c *Coordinator) End(ev PointerEvent) (Resolution, error) {
	s, err := c.owner(ev.PointerID)
	if err != nil {
		return Resolution{}, err
	}
	c.dispatch(eventEnd, ev)
	return s.Resolution(), nil
}

// Cancel handles touch-cancel for pointerID.
func (c *Coordinator) Cancel(pointerID int) (Resolution, error) {
	s, err := c.owner(pointerID)
	if err != nil {
		return Resolution{}, err
	}
	c.dispatch(eventCancel, PointerEvent{PointerID: pointerID})
	return s.Resolution(), nil
}

// Teardown cancels any live drag without evaluating it.
func (c *Coordinator) Teardown() {
	c.mu.Lock()
	s := c.active
	c.mu.Unlock()
	if s != nil {
		s.cancel()
	}
}

func (c *Coordinator) owner(pointerID int) (*Session, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active == nil {
		return nil, ErrNoActiveDrag
	}
	if c.active.pointer != pointerID {
		return nil, ErrPointerMismatch
	}
	return c.active, nil
}

func (c *Coordinator) dispatch(kind eventKind, ev PointerEvent) {
	c.mu.Lock()
	ls := make([]listener, len(c.listeners))
	copy(ls, c.listeners)
	c.mu.Unlock()
	for _, l := range ls {
		l.fn(kind, ev)
	}
}

func (c *Coordinator) addListenerLocked(fn func(eventKind, PointerEvent)) Handle {
	c.nextID++
	c.listeners = append(c.listeners, listener{id: c.nextID, fn: fn})
	return Handle{id: c.nextID, c: c}
}

func (c *Coordinator) removeListener(id uint32) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, l := range c.listeners {
		if l.id == id {
			c.listeners = append(c.listeners[:i], c.listeners[i+1:]...)
			return true
		}
	}
	return false
}

// release clears the token if s still holds it.
func (c *Coordinator) release(s *Session) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active == s {
		c.active = nil
	}
}
