package dispatch

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/tankTopTaro/greyzone-game-room-app/broadcast"
	"github.com/tankTopTaro/greyzone-game-room-app/light"
	"github.com/tankTopTaro/greyzone-game-room-app/logger"
	"github.com/tankTopTaro/greyzone-game-room-app/monitor"
)

// UpdateLight is the monitor message for one fixture change.
type UpdateLight struct {
	Type    string            `json:"type"`
	LightID int               `json:"lightId"`
	Color   light.Color       `json:"color"`
	OnClick light.ClickAction `json:"onClick"`
}

// Dispatcher pushes grid changes to the hardware and to the monitor channel.
// Each target only receives fixtures whose signature changed since its last
// successful delivery.
type Dispatcher struct {
	grid     *light.Grid
	hardware Hardware
	pub      broadcast.Broadcaster
	channel  string
	metrics  *monitor.Monitor

	busy    atomic.Bool
	pending atomic.Bool
}

func NewDispatcher(grid *light.Grid, hw Hardware, pub broadcast.Broadcaster, monitorChannel string, metrics *monitor.Monitor) *Dispatcher {
	if hw == nil {
		hw = NopHardware{}
	}
	return &Dispatcher{
		grid:     grid,
		hardware: hw,
		pub:      pub,
		channel:  monitorChannel,
		metrics:  metrics,
	}
}

// Request runs a flush unless one is already in progress. A request made
// during a flush marks one repeat pass; further requests are dropped. It
// reports whether this call performed the flush.
func (d *Dispatcher) Request(ctx context.Context) bool {
	if !d.busy.CompareAndSwap(false, true) {
		if d.pending.Swap(true) {
			logger.Log.Warn("animation frame lost: flush already pending")
			d.metrics.IncFramesLost()
		} else {
			logger.Log.Warn("animation frame delayed: flush in progress")
			d.metrics.IncFramesDelayed()
		}
		return false
	}

	for {
		d.Flush(ctx)
		d.busy.Store(false)

		if !d.pending.Swap(false) {
			return true
		}
		// another caller may have taken the gate between Store and Swap
		if !d.busy.CompareAndSwap(false, true) {
			return true
		}
		logger.Log.Debug("running a repeat flush")
	}
}

// Flush delivers pending changes to both targets. Hardware failures leave
// the fixture's hardware signature stale so the next flush retries it.
func (d *Dispatcher) Flush(ctx context.Context) {
	d.metrics.IncFlushes()

	for _, c := range d.grid.Pending(light.TargetHardware) {
		if err := d.hardware.Send(ctx, c.ID, c.Color); err != nil {
			logger.Log.Warnf("%s: %v", light.TargetHardware, fmt.Errorf("%w: light %d: %v", ErrHardwareWrite, c.ID, err))
			d.metrics.IncHardwareErrors()
			continue
		}
		d.grid.MarkDelivered(light.TargetHardware, c.ID, c.Signature)
	}

	if d.pub == nil {
		return
	}
	for _, c := range d.grid.Pending(light.TargetMonitor) {
		msg := UpdateLight{Type: "updateLight", LightID: c.ID, Color: c.Color, OnClick: c.OnClick}
		if err := d.pub.Broadcast(d.channel, msg); err != nil {
			logger.Log.Warnf("%s update for light %d failed: %v", light.TargetMonitor, c.ID, err)
			continue
		}
		d.grid.MarkDelivered(light.TargetMonitor, c.ID, c.Signature)
	}
}
