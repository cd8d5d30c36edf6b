package shape

import (
	"math"
	"time"

	"github.com/tankTopTaro/greyzone-game-room-app/config"
	"github.com/tankTopTaro/greyzone-game-room-app/light"
)

// Point is a path waypoint, relative to the shape's starting position.
type Point struct {
	X, Y float64
}

// Shape is an animated rectangle that claims the color of the fixtures it
// overlaps.
type Shape struct {
	X, Y          float64
	Width, Height float64
	Kind          light.Kind
	Color         light.Color
	OnClick       light.ClickAction
	Path          []Point
	Speed         float64 // units per second
	Group         string
	Layer         int
	Active        bool
	ExpiresAt     time.Time // zero means never

	originX, originY float64
	next             int
}

// New returns an active shape anchored at (x, y).
func New(x, y, w, h float64, c light.Color, onClick light.ClickAction, group string) *Shape {
	return &Shape{
		X: x, Y: y, Width: w, Height: h,
		Kind:    light.Rectangle,
		Color:   c,
		OnClick: onClick,
		Group:   group,
		Active:  true,
		originX: x,
		originY: y,
	}
}

// FromConfig instantiates a level shape. TTL is measured from now.
func FromConfig(sc config.ShapeConfig, now time.Time) *Shape {
	onClick := light.ClickAction(sc.OnClick)
	if onClick == "" {
		onClick = light.ClickIgnore
	}
	s := New(sc.X, sc.Y, sc.Width, sc.Height, light.Color(sc.Color), onClick, sc.Group)
	if sc.Kind != "" {
		s.Kind = light.Kind(sc.Kind)
	}
	s.Speed = sc.Speed
	s.Layer = sc.Layer
	for _, p := range sc.Path {
		s.Path = append(s.Path, Point{X: p.X, Y: p.Y})
	}
	if sc.TTL > 0 {
		s.ExpiresAt = now.Add(sc.TTL)
	}
	return s
}

func (s *Shape) Bounds() light.Rect {
	return light.Rect{X: s.X, Y: s.Y, W: s.Width, H: s.Height}
}

func (s *Shape) expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

// move walks the shape along its path by dt at its speed. The path loops.
func (s *Shape) move(dt time.Duration) {
	if len(s.Path) == 0 || s.Speed <= 0 || dt <= 0 {
		return
	}
	step := s.Speed * dt.Seconds()
	for hops := 0; step > 0 && hops <= len(s.Path); hops++ {
		wp := s.Path[s.next]
		tx, ty := s.originX+wp.X, s.originY+wp.Y
		dx, dy := tx-s.X, ty-s.Y
		dist := math.Hypot(dx, dy)
		if dist <= step {
			s.X, s.Y = tx, ty
			step -= dist
			s.next = (s.next + 1) % len(s.Path)
			continue
		}
		s.X += dx / dist * step
		s.Y += dy / dist * step
		return
	}
}
