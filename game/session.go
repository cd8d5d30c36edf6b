package game

import (
	"context"
	"time"

	"github.com/tankTopTaro/greyzone-game-room-app/facility"
	"github.com/tankTopTaro/greyzone-game-room-app/light"
	"github.com/tankTopTaro/greyzone-game-room-app/models"
	"github.com/tankTopTaro/greyzone-game-room-app/snapshot"
	"github.com/tankTopTaro/greyzone-game-room-app/state"
	"github.com/tankTopTaro/greyzone-game-room-app/timer"
)

// Session is a game running in a room.
type Session interface {
	ID() string
	Init(ctx context.Context) error
	Start()
	HandleLightClick(lightID int, whileColorWas *light.Color)
	HandleMessage(msgType string, raw []byte)
	EndAndExit(reason string)
	Status() state.Status
	Snapshot() snapshot.Snapshot
}

// RoomContext is what a session needs from its room. It breaks the import
// cycle between room and game.
type RoomContext interface {
	ID() string
	Grid() *light.Grid
	Timers() *timer.TimerManager
	Broadcast(channel string, msg any) error
	DisplayChannels() []string
	Flush()
	Snapshots() snapshot.Store
	Facility() facility.Client
	// Release is called once, after teardown, without any session lock held.
	Release(s Session)
}

// Params are the start request of a session.
type Params struct {
	RoomType      string
	Rule          int
	Level         int
	Players       []*models.Player
	Team          *models.Team
	BookRoomUntil *time.Time // nil never expires
	Collaborative bool
	PrepDuration  int // seconds, 0 uses the configured default
}

func (p Params) validate() error {
	if p.RoomType == "" || p.Rule <= 0 || p.Level <= 0 || len(p.Players) == 0 {
		return ErrInvalidParams
	}
	return nil
}
