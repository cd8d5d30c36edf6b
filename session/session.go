package session

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/tankTopTaro/greyzone-game-room-app/logger"
	"github.com/tankTopTaro/greyzone-game-room-app/network"
)

var (
	ErrSessionClosed = errors.New("session closed")
	ErrSendQueueFull = errors.New("send queue full")
)

const defaultQueueDepth = 256

// Session is one registered hub connection. Writes go through a buffered
// queue drained by WritePump, so a slow peer never blocks a broadcaster.
type Session struct {
	ID         string
	Conn       network.Connection
	Channel    string
	CreatedAt  time.Time
	LastActive time.Time

	send      chan []byte
	ready     atomic.Bool
	closed    chan struct{}
	closeOnce sync.Once
	mutex     sync.RWMutex
}

func NewSession(channel string, conn network.Connection) *Session {
	now := time.Now()
	return &Session{
		ID:         uuid.NewString(),
		Conn:       conn,
		Channel:    channel,
		CreatedAt:  now,
		LastActive: now,
		send:       make(chan []byte, defaultQueueDepth),
		closed:     make(chan struct{}),
	}
}

// Send enqueues an encoded frame.
func (s *Session) Send(data []byte) error {
	select {
	case <-s.closed:
		return ErrSessionClosed
	default:
	}
	select {
	case s.send <- data:
		return nil
	default:
		return ErrSendQueueFull
	}
}

// WritePump writes queued frames until the session closes or a write fails.
func (s *Session) WritePump() {
	for {
		select {
		case data := <-s.send:
			if err := s.Conn.WriteMessage(data); err != nil {
				logger.Log.Debugf("session %s write failed: %v", s.ID, err)
				s.Close()
				return
			}
			s.Touch()
		case <-s.closed:
			return
		}
	}
}

// MarkReady makes the session eligible for broadcasts.
func (s *Session) MarkReady() { s.ready.Store(true) }

func (s *Session) Ready() bool {
	select {
	case <-s.closed:
		return false
	default:
		return s.ready.Load()
	}
}

func (s *Session) Touch() {
	s.mutex.Lock()
	s.LastActive = time.Now()
	s.mutex.Unlock()
}

// LastSeen is the time of the last frame read from or written to the peer.
func (s *Session) LastSeen() time.Time {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.LastActive
}

func (s *Session) Close() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.closed)
		err = s.Conn.Close()
	})
	return err
}

// Session管理器, indexed by channel.
type Manager struct {
	channels map[string]map[string]*Session
	mutex    sync.RWMutex
}

func NewManager() *Manager {
	return &Manager{
		channels: make(map[string]map[string]*Session),
	}
}

// Add registers a session under its channel and returns the member count.
func (m *Manager) Add(session *Session) int {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	members, ok := m.channels[session.Channel]
	if !ok {
		members = make(map[string]*Session)
		m.channels[session.Channel] = members
	}
	members[session.ID] = session
	return len(members)
}

// Remove unregisters a session, deleting its channel once empty, and
// returns the remaining member count.
func (m *Manager) Remove(session *Session) int {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	members, ok := m.channels[session.Channel]
	if !ok {
		return 0
	}
	delete(members, session.ID)
	if len(members) == 0 {
		delete(m.channels, session.Channel)
		return 0
	}
	return len(members)
}

// GetByChannel returns a copy of the channel's members.
func (m *Manager) GetByChannel(channel string) []*Session {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	members := m.channels[channel]
	result := make([]*Session, 0, len(members))
	for _, session := range members {
		result = append(result, session)
	}
	return result
}

// Channels maps each non-empty channel to its member count.
func (m *Manager) Channels() map[string]int {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	out := make(map[string]int, len(m.channels))
	for name, members := range m.channels {
		out[name] = len(members)
	}
	return out
}
