package game

import (
	"fmt"
	"time"

	"github.com/tankTopTaro/greyzone-game-room-app/light"
	"github.com/tankTopTaro/greyzone-game-room-app/network"
	"github.com/tankTopTaro/greyzone-game-room-app/shape"
)

const (
	groupMainFloor   = "mainFloor"
	groupWallButtons = "wallButtons"
	groupWallScreens = "wallScreens"
)

var (
	blueGreen    = light.Color{0, 220, 150}
	danger       = light.Color{255, 0, 0}
	penaltyColor = light.Color{255, 100, 0}
)

const penaltyTTL = 2 * time.Second

// doubleGrid rule 1: wall screens show shuffled numbers and the players
// press the matching wall buttons in ascending order while avoiding red
// floor tiles.
type doubleGrid struct {
	sequence []int // light ids, next expected first
}

func newDoubleGrid(rule int) (Rules, error) {
	if rule != 1 {
		return nil, fmt.Errorf("%w: DoubleGrid rule %d", ErrUnsupportedRule, rule)
	}
	return &doubleGrid{}, nil
}

func (d *doubleGrid) Setup(c *Controller) error {
	grid := c.Grid()
	for _, group := range []string{groupWallButtons, groupWallScreens} {
		if len(grid.GroupIDs(group)) == 0 {
			return fmt.Errorf("%w: %s", light.ErrGroupUnknown, group)
		}
	}
	return nil
}

func (d *doubleGrid) Start(c *Controller) {
	grid := c.Grid()
	buttons := grid.GroupIDs(groupWallButtons)
	screens := grid.GroupIDs(groupWallScreens)

	n := len(buttons)
	if len(screens) < n {
		n = len(screens)
	}
	if n > 12 {
		n = 12
	}

	numbers := c.Rand().Perm(n)
	d.sequence = make([]int, n)
	for i := 0; i < n; i++ {
		number := numbers[i] + 1
		_ = grid.Set(screens[i], light.Color{0, 0, uint8(number)}, light.ClickIgnore)
		_ = grid.Set(buttons[i], blueGreen, light.ClickReport)
		d.sequence[number-1] = buttons[i]
	}
	c.Flush()
}

func (d *doubleGrid) HandleLightAction(c *Controller, f light.Fixture, whileColorWas light.Color) {
	switch f.Group {
	case groupMainFloor:
		if whileColorWas != danger {
			return
		}
		c.RemoveLife()
		penalty := shape.New(f.X+f.Width/4, f.Y+f.Height/4, f.Width/2, f.Height/2, penaltyColor, light.ClickIgnore, groupMainFloor)
		penalty.ExpiresAt = c.Now().Add(penaltyTTL)
		c.Spawn(penalty)
		c.Display(network.MsgPlayerFailed, nil)
	case groupWallButtons:
		if len(d.sequence) == 0 {
			return
		}
		if f.ID != d.sequence[0] {
			c.RemoveLife()
			c.Display(network.MsgPlayerFailed, nil)
			return
		}
		_ = c.Grid().Set(f.ID, light.Black, light.ClickIgnore)
		c.Flush()
		d.sequence = d.sequence[1:]
		c.Display(network.MsgPlayerSuccess, nil)
		if len(d.sequence) == 0 {
			c.CompleteLevel()
		}
	}
}
