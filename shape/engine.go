package shape

import (
	"fmt"
	"time"

	"github.com/tankTopTaro/greyzone-game-room-app/config"
	"github.com/tankTopTaro/greyzone-game-room-app/light"
	"github.com/tankTopTaro/greyzone-game-room-app/logger"
)

// Engine holds the shapes of one session in insertion order. It is not
// safe for concurrent use; the owning session serializes access.
type Engine struct {
	shapes      []*Shape
	lastAdvance time.Time
}

func NewEngine() *Engine {
	return &Engine{}
}

// Load replaces the current shapes with those of a level. A level without
// a shapes array yields no shapes.
func (e *Engine) Load(lc config.LevelConfig, now time.Time) int {
	e.Reset()
	if lc.Shapes == nil {
		logger.Log.Warnf("level %s > %d > L%d has no shapes array", lc.RoomType, lc.Rule, lc.Level)
		return 0
	}
	for _, sc := range lc.Shapes {
		e.shapes = append(e.shapes, FromConfig(sc, now))
	}
	e.lastAdvance = now
	return len(e.shapes)
}

// Spawn adds a shape on top of every existing one.
func (e *Engine) Spawn(s *Shape) {
	e.shapes = append(e.shapes, s)
}

// Reset drops every shape.
func (e *Engine) Reset() {
	e.shapes = nil
	e.lastAdvance = time.Time{}
}

func (e *Engine) Len() int {
	return len(e.shapes)
}

// ActiveCount returns the number of shapes still taking part in painting.
func (e *Engine) ActiveCount() int {
	n := 0
	for _, s := range e.shapes {
		if s.Active {
			n++
		}
	}
	return n
}

// Shapes returns copies of the shapes in insertion order.
func (e *Engine) Shapes() []Shape {
	out := make([]Shape, len(e.shapes))
	for i, s := range e.shapes {
		out[i] = *s
	}
	return out
}

// Advance moves active shapes by the time elapsed since the previous call
// and deactivates expired ones. Shapes are never removed.
func (e *Engine) Advance(now time.Time) {
	var dt time.Duration
	if !e.lastAdvance.IsZero() {
		dt = now.Sub(e.lastAdvance)
	}
	e.lastAdvance = now

	for _, s := range e.shapes {
		if !s.Active {
			continue
		}
		if s.expired(now) {
			s.Active = false
			continue
		}
		s.move(dt)
	}
}

// Paint resolves every animation-affected fixture against the shapes of its
// group. The most recently added overlapping active shape wins; a fixture
// no shape overlaps goes black and ignores clicks.
func (e *Engine) Paint(grid *light.Grid) error {
	return grid.Apply(func(groups []*light.Group) error {
		for _, group := range groups {
			for _, f := range group.Fixtures {
				if !f.AffectedByAnimation {
					continue
				}
				painted, err := e.paintFixture(group.Name, f)
				if err != nil {
					return err
				}
				if !painted {
					f.Color = light.Black
					f.OnClick = light.ClickIgnore
				}
			}
		}
		return nil
	})
}

func (e *Engine) paintFixture(group string, f *light.Fixture) (bool, error) {
	for i := len(e.shapes) - 1; i >= 0; i-- {
		s := e.shapes[i]
		if !s.Active || s.Group != group {
			continue
		}
		hit, err := Intersects(s, f)
		if err != nil {
			return false, err
		}
		if hit {
			f.Color = s.Color
			f.OnClick = s.OnClick
			return true, nil
		}
	}
	return false, nil
}

// Intersects tests a shape against a fixture. Only rectangles are supported.
func Intersects(s *Shape, f *light.Fixture) (bool, error) {
	if s.Kind != light.Rectangle || f.Kind != light.Rectangle {
		return false, fmt.Errorf("%w: shape %s vs fixture %d %s", ErrIntersectionNotComputable, s.Kind, f.ID, f.Kind)
	}
	return s.Bounds().Overlaps(f.Bounds()), nil
}
