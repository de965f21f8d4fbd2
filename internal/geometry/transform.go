// Package geometry converts pointer coordinates between the browser viewport
// and the puzzle's own coordinate space.
package geometry

import (
	"errors"
	"geo-jigsaw/internal/domain"
	"math"
)

var ErrMissingContainer = errors.New("scroll container not mounted")

// Rect is a bounding client rectangle in viewport pixels.
type Rect struct {
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Container is a snapshot of the scrollable, zoomable map container taken
// at the moment of an event.
type Container struct {
	Rect       Rect    `json:"rect"`
	ScrollLeft float64 `json:"scrollLeft"`
	ScrollTop  float64 `json:"scrollTop"`
	Scale      float64 `json:"scale"`
}

// Zoom is the container's scale factor, defaulting to 1 when unset or
// invalid.
func (c *Container) Zoom() float64 {
	if c.Scale <= 0 || math.IsNaN(c.Scale) || math.IsInf(c.Scale, 0) {
		return 1
	}
	return c.Scale
}

// ToPuzzle maps viewport coordinates into puzzle space:
//
//	x = (clientX - rect.left + scrollLeft) / scale
//
// and likewise for y. A nil container fails closed with ErrMissingContainer.
func ToPuzzle(clientX, clientY float64, c *Container) (domain.Point, error) {
	if c == nil {
		return domain.Point{}, ErrMissingContainer
	}
	s := c.Zoom()
	return domain.Point{
		X: (clientX - c.Rect.Left + c.ScrollLeft) / s,
		Y: (clientY - c.Rect.Top + c.ScrollTop) / s,
	}, nil
}

// ToViewport is the inverse of ToPuzzle.
func ToViewport(p domain.Point, c *Container) (float64, float64, error) {
	if c == nil {
		return 0, 0, ErrMissingContainer
	}
	s := c.Zoom()
	return p.X*s + c.Rect.Left - c.ScrollLeft, p.Y*s + c.Rect.Top - c.ScrollTop, nil
}

func Distance(a, b domain.Point) float64 {
	return math.Hypot(a.X-b.X, a.Y-b.Y)
}

// NormalizeDegrees folds any angle into [0, 360).
func NormalizeDegrees(deg int) int {
	deg %= 360
	if deg < 0 {
		deg += 360
	}
	return deg
}

// AngularDeviation is the smallest rotation in degrees that brings deg back
// to upright, so 350 deviates by 10.
func AngularDeviation(deg int) int {
	deg = NormalizeDegrees(deg)
	if deg > 180 {
		return 360 - deg
	}
	return deg
}
