// room/room.go
package room

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/tankTopTaro/greyzone-game-room-app/broadcast"
	"github.com/tankTopTaro/greyzone-game-room-app/config"
	"github.com/tankTopTaro/greyzone-game-room-app/dispatch"
	"github.com/tankTopTaro/greyzone-game-room-app/facility"
	"github.com/tankTopTaro/greyzone-game-room-app/game"
	"github.com/tankTopTaro/greyzone-game-room-app/light"
	"github.com/tankTopTaro/greyzone-game-room-app/logger"
	"github.com/tankTopTaro/greyzone-game-room-app/monitor"
	"github.com/tankTopTaro/greyzone-game-room-app/network"
	"github.com/tankTopTaro/greyzone-game-room-app/snapshot"
	"github.com/tankTopTaro/greyzone-game-room-app/state"
	"github.com/tankTopTaro/greyzone-game-room-app/timer"
)

// Deps are the collaborators of a room. Nil fields get defaults.
type Deps struct {
	Games     *game.Manager
	Snapshots snapshot.Store
	Facility  facility.Client
	Hardware  dispatch.Hardware
	Metrics   *monitor.Monitor
	// Timers defaults to a wall-clock manager at the room's resolution.
	Timers    *timer.TimerManager
	Heartbeat time.Duration
}

// Room 是游戏房间的核心结构: one physical room, at most one running session
// and at most one queued start request.
type Room struct {
	id             string
	monitorChannel string
	screenChannel  string

	grid       *light.Grid
	hub        *broadcast.Hub
	dispatcher *dispatch.Dispatcher
	timers     *timer.TimerManager
	snapshots  snapshot.Store
	facility   facility.Client
	games      *game.Manager
	metrics    *monitor.Monitor

	mu      sync.Mutex
	enabled bool
	current game.Session
	loading bool
	waiting *game.Params
}

// NewRoom lays out the lights of cfg and wires the hub and dispatcher.
func NewRoom(cfg config.RoomConfig, deps Deps) *Room {
	grid := light.NewGridFromConfig(cfg.Matrices)
	if grid.Len() == 0 {
		logger.Log.Warnf("room %s has no lights configured", cfg.ID)
	}

	r := &Room{
		id:             cfg.ID,
		monitorChannel: cfg.MonitorChannel,
		screenChannel:  cfg.ScreenChannel,
		grid:           grid,
		timers:         deps.Timers,
		snapshots:      deps.Snapshots,
		facility:       deps.Facility,
		games:          deps.Games,
		metrics:        deps.Metrics,
		enabled:        true,
	}
	if r.timers == nil {
		r.timers = timer.NewTimerManager(cfg.TimerResolution)
	}
	if r.snapshots == nil {
		r.snapshots = snapshot.NewMemoryStore()
	}
	if r.facility == nil {
		r.facility = facility.Nop{}
	}

	r.hub = broadcast.NewHub(broadcast.Options{
		ReplayChannel: cfg.MonitorChannel,
		Replay:        r.replay,
		Heartbeat:     deps.Heartbeat,
		Metrics:       deps.Metrics,
	})
	r.dispatcher = dispatch.NewDispatcher(grid, deps.Hardware, r.hub, cfg.MonitorChannel, deps.Metrics)
	for _, ch := range r.DisplayChannels() {
		r.hub.OnMessage(ch, r.handleMessage)
	}
	return r
}

// --- game.RoomContext ---

func (r *Room) ID() string { return r.id }

func (r *Room) Grid() *light.Grid { return r.grid }

func (r *Room) Timers() *timer.TimerManager { return r.timers }

func (r *Room) Broadcast(channel string, msg any) error {
	return r.hub.Broadcast(channel, msg)
}

// DisplayChannels are the channels that follow the game.
func (r *Room) DisplayChannels() []string {
	if r.screenChannel == "" || r.screenChannel == r.monitorChannel {
		return []string{r.monitorChannel}
	}
	return []string{r.monitorChannel, r.screenChannel}
}

// Flush pushes grid changes through the dispatcher gate.
func (r *Room) Flush() {
	r.dispatcher.Request(context.Background())
}

func (r *Room) Snapshots() snapshot.Store { return r.snapshots }

func (r *Room) Facility() facility.Client { return r.facility }

// Release frees the room after s ended and starts the queued request, if any.
func (r *Room) Release(s game.Session) {
	r.mu.Lock()
	if r.current != s {
		r.mu.Unlock()
		return
	}
	r.current = nil
	queued := r.waiting != nil
	r.mu.Unlock()

	logger.Log.Infof("room %s released by session %s", r.id, s.ID())
	if queued {
		r.startQueued()
		return
	}
	go r.notifyAvailable()
}

// --- 房间核心逻辑 ---

// Hub is the room's WebSocket hub.
func (r *Room) Hub() *broadcast.Hub { return r.hub }

// ServeWS serves one display connection.
func (r *Room) ServeWS(w http.ResponseWriter, req *http.Request) { r.hub.ServeWS(w, req) }

// Games lists the playable variants.
func (r *Room) Games() []string { return r.games.Variants() }

// Layout is the room size and every light.
func (r *Room) Layout() light.Layout { return r.grid.Layout() }

// Current returns the running session, or nil.
func (r *Room) Current() game.Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current
}

// StartGame prepares and starts a session. While the room is busy the first
// request is queued (ErrQueued) and any further one is refused (ErrRoomBusy).
// It blocks until the session is running or failed to initialize.
func (r *Room) StartGame(ctx context.Context, p game.Params) (game.Session, error) {
	r.mu.Lock()
	if !r.enabled {
		r.mu.Unlock()
		return nil, ErrRoomDisabled
	}
	if r.current != nil || r.loading {
		if r.waiting != nil {
			r.mu.Unlock()
			return nil, ErrRoomBusy
		}
		queued := p
		r.waiting = &queued
		r.mu.Unlock()
		r.metrics.IncSessionsQueued()
		logger.Log.Infof("room %s busy, %s > %d > L%d queued", r.id, p.RoomType, p.Rule, p.Level)
		return nil, ErrQueued
	}
	r.loading = true
	r.mu.Unlock()

	return r.launch(ctx, p)
}

// launch runs with loading set. On failure the room stays free and a queued
// request gets its turn.
func (r *Room) launch(ctx context.Context, p game.Params) (game.Session, error) {
	s, err := r.games.LoadGame(ctx, r, p)

	r.mu.Lock()
	r.loading = false
	if err != nil {
		r.mu.Unlock()
		logger.Log.Warnf("room %s: session not started: %v", r.id, err)
		r.startQueued()
		return nil, err
	}
	if !r.enabled {
		r.mu.Unlock()
		s.EndAndExit("roomDisabled")
		return nil, ErrRoomDisabled
	}
	// a session that ended before it was attached already called Release
	if s.Status() == state.Ended {
		r.mu.Unlock()
		r.startQueued()
		return nil, game.ErrSessionEnded
	}
	r.current = s
	r.mu.Unlock()

	r.metrics.IncSessionsStarted()
	s.Start()
	return s, nil
}

// startQueued launches the queued request in the background if the room is
// free.
func (r *Room) startQueued() {
	r.mu.Lock()
	if r.waiting == nil || r.current != nil || r.loading || !r.enabled {
		r.mu.Unlock()
		return
	}
	p := *r.waiting
	r.waiting = nil
	r.loading = true
	r.mu.Unlock()

	logger.Log.Infof("room %s starting queued %s > %d > L%d", r.id, p.RoomType, p.Rule, p.Level)
	go func() {
		if _, err := r.launch(context.Background(), p); err != nil {
			logger.Log.Errorf("room %s: queued session failed: %v", r.id, err)
		}
	}()
}

func (r *Room) notifyAvailable() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := r.facility.NotifyAvailable(ctx); err != nil {
		logger.Log.Warnf("room %s availability not reported: %v", r.id, err)
	}
}

// Toggle enables or disables the room. Disabling drops the queued request
// and ends the running session.
func (r *Room) Toggle(enabled bool) {
	r.mu.Lock()
	r.enabled = enabled
	current := r.current
	if !enabled {
		r.waiting = nil
	}
	r.mu.Unlock()

	logger.Log.Infof("room %s enabled=%v", r.id, enabled)
	msg := map[string]any{"type": network.MsgRoomDisabled, "disabled": !enabled}
	for _, ch := range r.DisplayChannels() {
		if err := r.hub.Broadcast(ch, msg); err != nil {
			logger.Log.Warnf("roomDisabled to %s failed: %v", ch, err)
		}
	}
	if !enabled && current != nil {
		current.EndAndExit("roomDisabled")
	}
}

func (r *Room) Enabled() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.enabled
}

// Status is a point-in-time view of the room.
type Status struct {
	ID       string                 `json:"id"`
	Enabled  bool                   `json:"enabled"`
	Free     bool                   `json:"free"`
	Queued   bool                   `json:"queued"`
	Session  *SessionStatus         `json:"session,omitempty"`
	Channels map[string]int         `json:"channels"`
	Clients  []broadcast.ClientInfo `json:"clients"`
	Lights   int                    `json:"lights"`
}

type SessionStatus struct {
	ID       string            `json:"id"`
	Status   state.Status      `json:"status"`
	Snapshot snapshot.Snapshot `json:"snapshot"`
}

func (r *Room) Status() Status {
	r.mu.Lock()
	st := Status{
		ID:      r.id,
		Enabled: r.enabled,
		Free:    r.current == nil && !r.loading,
		Queued:  r.waiting != nil,
		Lights:  r.grid.Len(),
	}
	current := r.current
	r.mu.Unlock()

	if current != nil {
		st.Session = &SessionStatus{ID: current.ID(), Status: current.Status(), Snapshot: current.Snapshot()}
	}
	st.Channels = r.hub.Channels()
	st.Clients = r.hub.Clients()
	return st
}

// replay is the state sent to monitors joining mid-session.
func (r *Room) replay() (any, bool) {
	s, err := r.snapshots.Load()
	if err != nil {
		if !errors.Is(err, snapshot.ErrNoSnapshot) {
			logger.Log.Warnf("room %s snapshot unreadable: %v", r.id, err)
		}
		return nil, false
	}
	return s, true
}

// handleMessage routes display messages to the running session.
func (r *Room) handleMessage(msgType string, raw []byte) {
	current := r.Current()
	if current == nil {
		logger.Log.Debugf("room %s idle, %s ignored", r.id, msgType)
		return
	}
	if msgType != network.MsgLightClickAction {
		current.HandleMessage(msgType, raw)
		return
	}

	var click lightClickAction
	if err := json.Unmarshal(raw, &click); err != nil {
		logger.Log.Warnf("bad %s: %v", msgType, err)
		return
	}
	if click.LightID == nil {
		logger.Log.Warnf("%s without lightId ignored", msgType)
		return
	}
	current.HandleLightClick(int(*click.LightID), click.WhileColorWas)
}

// Close ends the running session and stops the room's timers.
func (r *Room) Close() {
	r.mu.Lock()
	current := r.current
	r.waiting = nil
	r.enabled = false
	r.mu.Unlock()

	if current != nil {
		current.EndAndExit("shutdown")
	}
	r.timers.Stop()
}
