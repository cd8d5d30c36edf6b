package game

import (
	"math/rand"
	"time"

	"github.com/tankTopTaro/greyzone-game-room-app/light"
	"github.com/tankTopTaro/greyzone-game-room-app/shape"
	"github.com/tankTopTaro/greyzone-game-room-app/state"
)

// Rules is the variant-specific part of a game. Methods are called with the
// session locked and must not block.
type Rules interface {
	// Setup runs once the level is loaded, before the session is prepared.
	Setup(c *Controller) error
	// Start runs when the level starts.
	Start(c *Controller)
	// HandleLightAction handles a click while the level runs.
	HandleLightAction(c *Controller, f light.Fixture, whileColorWas light.Color)
}

// MessageHandler is implemented by rules that listen to display messages.
type MessageHandler interface {
	HandleMessage(c *Controller, msgType string, raw []byte)
}

// Controller gives rules access to their session. It is only valid inside
// a Rules call or a timer scheduled through it.
type Controller struct {
	g *Game
}

func (c *Controller) Grid() *light.Grid { return c.g.room.Grid() }
func (c *Controller) Rand() *rand.Rand  { return c.g.rand }
func (c *Controller) Now() time.Time    { return c.g.room.Timers().Now() }
func (c *Controller) Rule() int         { return c.g.rule }
func (c *Controller) Level() int        { return c.g.level }
func (c *Controller) Running() bool     { return c.g.machine.Is(state.Running) }

// RemoveLife takes a life unless one was taken within the debounce window.
// It reports whether a life was taken.
func (c *Controller) RemoveLife() bool { return c.g.removeLifeLocked() }

// CompleteLevel ends the level as won.
func (c *Controller) CompleteLevel() { c.g.completeLevelLocked() }

// RestartCountdown restarts the level clock from now.
func (c *Controller) RestartCountdown() { c.g.restartCountdownLocked() }

// Spawn adds a shape on top of the level's shapes.
func (c *Controller) Spawn(s *shape.Shape) { c.g.engine.Spawn(s) }

// After runs fn once after d. Rule timers are cancelled when the level ends.
func (c *Controller) After(name string, d time.Duration, fn func()) {
	c.g.schedule(ruleTimer(name), d, 0, fn)
}

// Every runs fn every d, first after d.
func (c *Controller) Every(name string, d time.Duration, fn func()) {
	c.g.schedule(ruleTimer(name), d, d, fn)
}

func (c *Controller) Cancel(name string) { c.g.cancelLocked(ruleTimer(name)) }

// Display broadcasts msg to every display channel.
func (c *Controller) Display(msgType string, fields map[string]any) {
	c.g.displayLocked(msgType, fields)
}

// Flush pushes grid changes to the lights.
func (c *Controller) Flush() { c.g.room.Flush() }

// Event appends to the session event log.
func (c *Controller) Event(eventType string, data any) {
	c.g.eventLocked(eventType, data)
}

func ruleTimer(name string) string { return ruleTimerPrefix + name }

const ruleTimerPrefix = "rule:"
