package geometry

import (
	"errors"
	"geo-jigsaw/internal/domain"
	"math"
	"testing"
)

func TestToPuzzle(t *testing.T) {
	tests := []struct {
		name  string
		x, y  float64
		c     Container
		wantX float64
		wantY float64
	}{
		{"identity", 100, 50, Container{Scale: 1}, 100, 50},
		{"offset rect", 100, 50, Container{Rect: Rect{Left: 20, Top: 10}, Scale: 1}, 80, 40},
		{"scrolled", 100, 50, Container{ScrollLeft: 300, ScrollTop: 120, Scale: 1}, 400, 170},
		{"zoomed", 100, 50, Container{Scale: 2}, 50, 25},
		{"all combined", 120, 70, Container{Rect: Rect{Left: 20, Top: 10}, ScrollLeft: 100, ScrollTop: 40, Scale: 0.5}, 400, 200},
		{"zero scale defaults to 1", 100, 50, Container{}, 100, 50},
		{"negative scale defaults to 1", 100, 50, Container{Scale: -3}, 100, 50},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ToPuzzle(tt.x, tt.y, &tt.c)
			if err != nil {
				t.Fatalf("ToPuzzle returned error: %v", err)
			}
			if got.X != tt.wantX || got.Y != tt.wantY {
				t.Errorf("ToPuzzle(%v, %v) = (%v, %v), want (%v, %v)", tt.x, tt.y, got.X, got.Y, tt.wantX, tt.wantY)
			}
		})
	}
}

func TestToPuzzleMissingContainer(t *testing.T) {
	_, err := ToPuzzle(1, 2, nil)
	if !errors.Is(err, ErrMissingContainer) {
		t.Fatalf("err = %v, want ErrMissingContainer", err)
	}
	if _, _, err := ToViewport(domain.Point{}, nil); !errors.Is(err, ErrMissingContainer) {
		t.Fatalf("ToViewport err = %v, want ErrMissingContainer", err)
	}
}

func TestToViewportInvertsToPuzzle(t *testing.T) {
	c := &Container{Rect: Rect{Left: 33, Top: 17}, ScrollLeft: 250, ScrollTop: 90, Scale: 1.25}
	p := domain.Point{X: 412, Y: 318}
	vx, vy, err := ToViewport(p, c)
	if err != nil {
		t.Fatal(err)
	}
	back, err := ToPuzzle(vx, vy, c)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(back.X-p.X) > 1e-9 || math.Abs(back.Y-p.Y) > 1e-9 {
		t.Errorf("round trip = %+v, want %+v", back, p)
	}
}

func TestDistance(t *testing.T) {
	got := Distance(domain.Point{X: 200, Y: 200}, domain.Point{X: 230, Y: 230})
	if math.Abs(got-42.426) > 0.001 {
		t.Errorf("Distance = %v, want ~42.426", got)
	}
}

func TestAngularDeviation(t *testing.T) {
	tests := []struct {
		in, want int
	}{
		{0, 0}, {20, 20}, {180, 180}, {181, 179}, {350, 10}, {360, 0}, {-12, 12}, {732, 12},
	}
	for _, tt := range tests {
		if got := AngularDeviation(tt.in); got != tt.want {
			t.Errorf("AngularDeviation(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}
