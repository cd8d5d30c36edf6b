package light

import (
	"fmt"
	"math"
	"sync"

	"github.com/tankTopTaro/greyzone-game-room-app/config"
	"github.com/tankTopTaro/greyzone-game-room-app/logger"
)

// Group is a named, ordered subset of fixtures.
type Group struct {
	Name     string
	Fixtures []*Fixture
}

// Grid owns every fixture of a room. All access goes through its methods,
// which hold the grid lock; fixtures handed to Apply callbacks must not be
// retained past the callback.
type Grid struct {
	mu       sync.RWMutex
	fixtures []*Fixture
	byID     map[int]*Fixture
	groups   []*Group
	byName   map[string]*Group

	width, height float64
	padLeft       float64
	padTop        float64
}

func NewGrid() *Grid {
	return &Grid{
		byID:   make(map[int]*Fixture),
		byName: make(map[string]*Group),
	}
}

// NewGridFromConfig lays out every matrix and measures the room. Matrices
// producing no fixtures are logged and skipped.
func NewGridFromConfig(matrices []config.MatrixConfig) *Grid {
	g := NewGrid()
	for _, m := range matrices {
		if n := g.AddMatrix(m); n == 0 {
			logger.Log.Warnf("light matrix %q produced no fixtures", m.Group)
		}
	}
	if len(matrices) == 0 {
		logger.Log.Warn("no light matrices configured for this room")
	}
	g.Measure()
	return g
}

// AddMatrix expands a matrix into fixtures and returns how many were added.
func (g *Grid) AddMatrix(m config.MatrixConfig) int {
	stepX := m.TileWidth + m.SpacingX
	stepY := m.TileHeight + m.SpacingY
	if stepX <= 0 || stepY <= 0 {
		return 0
	}
	cols := int(math.Floor(m.Width / stepX))
	rows := int(math.Floor(m.Height / stepY))

	kind := Kind(m.Shape)
	if kind == "" {
		kind = Rectangle
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	group, ok := g.byName[m.Group]
	if !ok {
		group = &Group{Name: m.Group}
		g.byName[m.Group] = group
		g.groups = append(g.groups, group)
	}

	added := 0
	for i := 0; i < cols; i++ {
		for j := 0; j < rows; j++ {
			f := &Fixture{
				ID:                  len(g.fixtures),
				X:                   m.X + float64(i)*stepX,
				Y:                   m.Y + float64(j)*stepY,
				Kind:                kind,
				Type:                m.Type,
				Width:               m.TileWidth,
				Height:              m.TileHeight,
				Color:               Black,
				OnClick:             ClickIgnore,
				Group:               m.Group,
				AffectedByAnimation: m.Animated,
			}
			g.fixtures = append(g.fixtures, f)
			g.byID[f.ID] = f
			group.Fixtures = append(group.Fixtures, f)
			added++
		}
	}
	return added
}

// Measure computes room bounds: the fixtures' extent plus the same margin
// on the far sides as on the near ones.
func (g *Grid) Measure() {
	g.mu.Lock()
	defer g.mu.Unlock()

	if len(g.fixtures) == 0 {
		g.width, g.height, g.padLeft, g.padTop = 0, 0, 0, 0
		return
	}
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, f := range g.fixtures {
		minX = math.Min(minX, f.X)
		minY = math.Min(minY, f.Y)
		maxX = math.Max(maxX, f.X+f.Width)
		maxY = math.Max(maxY, f.Y+f.Height)
	}
	g.padLeft, g.padTop = minX, minY
	g.width = maxX + minX
	g.height = maxY + minY
}

// Size returns the measured room dimensions.
func (g *Grid) Size() (width, height float64) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.width, g.height
}

func (g *Grid) Len() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.fixtures)
}

// Fixture returns a copy of the fixture with the given id.
func (g *Grid) Fixture(id int) (Fixture, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	f, ok := g.byID[id]
	if !ok {
		return Fixture{}, false
	}
	return *f, true
}

// Fixtures returns copies of all fixtures in id order.
func (g *Grid) Fixtures() []Fixture {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]Fixture, len(g.fixtures))
	for i, f := range g.fixtures {
		out[i] = *f
	}
	return out
}

// GroupIDs returns the fixture ids of a group in layout order.
func (g *Grid) GroupIDs(name string) []int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	group, ok := g.byName[name]
	if !ok {
		return nil
	}
	ids := make([]int, len(group.Fixtures))
	for i, f := range group.Fixtures {
		ids[i] = f.ID
	}
	return ids
}

// Set changes what a single fixture displays.
func (g *Grid) Set(id int, c Color, action ClickAction) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	f, ok := g.byID[id]
	if !ok {
		return fmt.Errorf("%w: %d", ErrFixtureUnknown, id)
	}
	f.Color = c
	f.OnClick = action
	return nil
}

// SetGroup applies the same color and action to every fixture of a group.
func (g *Grid) SetGroup(name string, c Color, action ClickAction) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	group, ok := g.byName[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrGroupUnknown, name)
	}
	for _, f := range group.Fixtures {
		f.Color = c
		f.OnClick = action
	}
	return nil
}

// Blackout turns every fixture off and makes it ignore clicks.
func (g *Grid) Blackout() {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, f := range g.fixtures {
		f.Color = Black
		f.OnClick = ClickIgnore
	}
}

// Apply runs fn with exclusive access to the groups.
func (g *Grid) Apply(fn func(groups []*Group) error) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return fn(g.groups)
}

// Layout is the initial render payload for displays.
type Layout struct {
	Room   RoomSize  `json:"room"`
	Lights []Fixture `json:"lights"`
}

type RoomSize struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

func (g *Grid) Layout() Layout {
	w, h := g.Size()
	return Layout{Room: RoomSize{Width: w, Height: h}, Lights: g.Fixtures()}
}
