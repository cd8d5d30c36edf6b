package game

import (
	"fmt"
	"time"

	"github.com/tankTopTaro/greyzone-game-room-app/light"
	"github.com/tankTopTaro/greyzone-game-room-app/network"
)

type namedColor struct {
	name string
	rgb  light.Color
}

var basketballPalette = []namedColor{
	{"red", light.Color{255, 0, 0}},
	{"green", light.Color{0, 255, 0}},
	{"blue", light.Color{0, 0, 255}},
	{"yellow", light.Color{255, 255, 0}},
	{"purple", light.Color{255, 0, 255}},
}

const (
	sequenceLength = 3
	colorStep      = time.Second
)

// basketball rule 1: a color sequence is called out on the wall buttons,
// then the buttons take shuffled colors and must be pressed in sequence.
type basketball struct {
	sequence []namedColor
	shown    int
	showing  bool
}

func newBasketball(rule int) (Rules, error) {
	if rule != 1 {
		return nil, fmt.Errorf("%w: Basketball rule %d", ErrUnsupportedRule, rule)
	}
	return &basketball{}, nil
}

// Setup needs a button per palette color so every called color can be
// pressed.
func (b *basketball) Setup(c *Controller) error {
	n := len(c.Grid().GroupIDs(groupWallButtons))
	if n == 0 {
		return fmt.Errorf("%w: %s", light.ErrGroupUnknown, groupWallButtons)
	}
	if n < len(basketballPalette) {
		return fmt.Errorf("%w: %d %s for %d colors", ErrLayoutTooSmall, n, groupWallButtons, len(basketballPalette))
	}
	return nil
}

func (b *basketball) Start(c *Controller) {
	b.sequence = make([]namedColor, sequenceLength)
	for i := range b.sequence {
		b.sequence[i] = basketballPalette[c.Rand().Intn(len(basketballPalette))]
	}
	b.shown = 0
	b.showing = true
	c.Every("showColor", colorStep, func() { b.showNext(c) })
}

func (b *basketball) showNext(c *Controller) {
	grid := c.Grid()
	if b.shown < len(b.sequence) {
		current := b.sequence[b.shown]
		c.Display(network.MsgColorNames, map[string]any{"cache-audio-file-and-play": current.name})
		_ = grid.SetGroup(groupWallButtons, current.rgb, light.ClickIgnore)
		c.Flush()
		b.shown++
		return
	}

	c.Cancel("showColor")
	palette := append([]namedColor(nil), basketballPalette...)
	c.Rand().Shuffle(len(palette), func(i, j int) { palette[i], palette[j] = palette[j], palette[i] })
	for i, id := range grid.GroupIDs(groupWallButtons) {
		_ = grid.Set(id, palette[i%len(palette)].rgb, light.ClickReport)
	}
	c.Flush()
	b.showing = false
	c.Display(network.MsgColorNamesEnd, nil)
	c.RestartCountdown()
}

// HandleMessage restarts the clock when a display reports the sequence
// announcement finished.
func (b *basketball) HandleMessage(c *Controller, msgType string, raw []byte) {
	if msgType == network.MsgColorNamesEnd && c.Running() && !b.showing {
		c.RestartCountdown()
	}
}

func (b *basketball) HandleLightAction(c *Controller, f light.Fixture, whileColorWas light.Color) {
	if f.Group != groupWallButtons || b.showing || len(b.sequence) == 0 {
		return
	}
	if whileColorWas != b.sequence[0].rgb {
		c.RemoveLife()
		c.Display(network.MsgPlayerFailed, nil)
		return
	}
	b.sequence = b.sequence[1:]
	c.Display(network.MsgPlayerSuccess, map[string]any{"cache-audio-file-and-play": "playerScored"})
	if len(b.sequence) == 0 {
		c.CompleteLevel()
	}
}
