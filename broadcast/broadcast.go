// broadcast/broadcast.go
package broadcast

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/tankTopTaro/greyzone-game-room-app/logger"
	"github.com/tankTopTaro/greyzone-game-room-app/monitor"
	"github.com/tankTopTaro/greyzone-game-room-app/network"
	"github.com/tankTopTaro/greyzone-game-room-app/session"
)

var (
	ErrNoChannel    = errors.New("first message must name a channel")
	ErrEncodeFailed = errors.New("message encoding failed")
)

// 广播接口
type Broadcaster interface {
	Broadcast(channel string, msg any) error
}

var _ Broadcaster = (*Hub)(nil)

// Handler receives a parsed inbound message of a channel.
type Handler func(msgType string, raw []byte)

// ReplaySource returns the state replayed to members joining the replay
// channel, and whether there is any.
type ReplaySource func() (any, bool)

type Options struct {
	ReplayChannel string
	Replay        ReplaySource
	Heartbeat     time.Duration
	Metrics       *monitor.Monitor
}

// Hub routes JSON messages between named channels of WebSocket clients.
type Hub struct {
	sessions *session.Manager
	handlers map[string]Handler
	mutex    sync.RWMutex
	opts     Options
	upgrader websocket.Upgrader
}

func NewHub(opts Options) *Hub {
	return &Hub{
		sessions: session.NewManager(),
		handlers: make(map[string]Handler),
		opts:     opts,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
}

// OnMessage sets the handler for messages arriving on channel.
func (h *Hub) OnMessage(channel string, handler Handler) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	h.handlers[channel] = handler
}

// Broadcast encodes msg once and queues it to every ready member of channel.
// A channel without members is a no-op.
func (h *Hub) Broadcast(channel string, msg any) error {
	members := h.sessions.GetByChannel(channel)
	if len(members) == 0 {
		return nil
	}
	data, err := encode(msg)
	if err != nil {
		return err
	}
	for _, s := range members {
		if !s.Ready() {
			continue
		}
		if err := s.Send(data); err != nil {
			logger.Log.Warnf("dropping message to %s client %s: %v", channel, s.ID, err)
		}
	}
	return nil
}

func encode(msg any) ([]byte, error) {
	switch m := msg.(type) {
	case []byte:
		return m, nil
	case json.RawMessage:
		return m, nil
	}
	data, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEncodeFailed, err)
	}
	return data, nil
}

// Channels maps each channel with members to its member count.
func (h *Hub) Channels() map[string]int {
	return h.sessions.Channels()
}

// ClientInfo describes one registered connection.
type ClientInfo struct {
	ID          string    `json:"id"`
	Channel     string    `json:"channel"`
	ConnectedAt time.Time `json:"connectedAt"`
	LastActive  time.Time `json:"lastActive"`
}

// Clients lists the members of every channel, oldest first.
func (h *Hub) Clients() []ClientInfo {
	var out []ClientInfo
	for channel := range h.sessions.Channels() {
		for _, s := range h.sessions.GetByChannel(channel) {
			out = append(out, ClientInfo{
				ID:          s.ID,
				Channel:     s.Channel,
				ConnectedAt: s.CreatedAt,
				LastActive:  s.LastSeen(),
			})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ConnectedAt.Equal(out[j].ConnectedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].ConnectedAt.Before(out[j].ConnectedAt)
	})
	return out
}

// Members returns the number of members of channel.
func (h *Hub) Members(channel string) int {
	return len(h.sessions.GetByChannel(channel))
}

// ServeWS upgrades the request and serves the connection until it closes.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Log.Errorf("websocket upgrade failed: %v", err)
		return
	}
	h.Serve(network.NewWSConnection(conn))
}

// Serve registers conn on the channel named by its first message, then
// dispatches its messages until it disconnects.
func (h *Hub) Serve(conn network.Connection) {
	first, err := conn.ReadMessage()
	if err != nil {
		conn.Close()
		return
	}
	env, err := network.DecodeEnvelope(first)
	if err != nil || env.Channel() == "" {
		logger.Log.Warnf("%v: closing %s", ErrNoChannel, conn.RemoteAddr())
		conn.Close()
		return
	}
	channel := env.Channel()

	s := session.NewSession(channel, conn)
	count := h.sessions.Add(s)
	h.opts.Metrics.SetConnectedClients(channel, count)
	logger.Log.Infof("client %s joined channel %s (%d members)", s.ID, channel, count)
	conn.SetHeartbeat(h.opts.Heartbeat)
	go s.WritePump()

	if channel == h.opts.ReplayChannel && h.opts.Replay != nil {
		if data, ok := h.opts.Replay(); ok {
			msg := map[string]any{"type": network.MsgStoredGameStates, "data": data}
			if encoded, err := encode(msg); err == nil {
				s.Send(encoded)
			}
		}
	}
	s.MarkReady()

	defer h.unregister(s)
	for {
		data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		h.opts.Metrics.IncMessagesReceived()
		s.Touch()
		h.dispatch(channel, data)
	}
}

func (h *Hub) dispatch(channel string, data []byte) {
	env, err := network.DecodeEnvelope(data)
	if err != nil || env.Type == "" {
		logger.Log.Warnf("unparsable message on %s dropped: %s", channel, data)
		return
	}
	h.mutex.RLock()
	handler, ok := h.handlers[channel]
	h.mutex.RUnlock()
	if !ok {
		logger.Log.Debugf("no handler for %s message %q on %s", env.Type, data, channel)
		return
	}
	handler(env.Type, data)
}

func (h *Hub) unregister(s *session.Session) {
	remaining := h.sessions.Remove(s)
	s.Close()
	h.opts.Metrics.SetConnectedClients(s.Channel, remaining)
	logger.Log.Infof("client %s left channel %s", s.ID, s.Channel)
}
