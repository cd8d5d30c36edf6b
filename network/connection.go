// network/connection.go
package network

import (
	"net"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Connection carries JSON text frames.
type Connection interface {
	WriteMessage(data []byte) error
	ReadMessage() ([]byte, error)
	Close() error
	RemoteAddr() net.Addr
	SetHeartbeat(interval time.Duration)
}

type WSConnection struct {
	conn      *websocket.Conn
	sendMutex sync.Mutex
	heartbeat time.Duration
	stop      chan struct{}
	closeOnce sync.Once
}

func NewWSConnection(conn *websocket.Conn) *WSConnection {
	return &WSConnection{conn: conn, stop: make(chan struct{})}
}

func (c *WSConnection) WriteMessage(data []byte) error {
	c.sendMutex.Lock()
	defer c.sendMutex.Unlock()
	if c.heartbeat > 0 {
		c.conn.SetWriteDeadline(time.Now().Add(c.heartbeat))
	}
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

// ReadMessage returns the next text or binary frame payload. Every frame
// read pushes the heartbeat deadline back.
func (c *WSConnection) ReadMessage() ([]byte, error) {
	_, data, err := c.conn.ReadMessage()
	if err != nil {
		return nil, err
	}
	if c.heartbeat > 0 {
		c.conn.SetReadDeadline(time.Now().Add(c.heartbeat * 2))
	}
	return data, nil
}

// SetHeartbeat pings the peer every interval and drops it when no frame or
// pong arrives within two intervals.
func (c *WSConnection) SetHeartbeat(interval time.Duration) {
	if interval <= 0 {
		return
	}
	c.heartbeat = interval
	c.conn.SetReadDeadline(time.Now().Add(interval * 2))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(interval * 2))
	})

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				c.sendMutex.Lock()
				err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(interval))
				c.sendMutex.Unlock()
				if err != nil {
					return
				}
			case <-c.stop:
				return
			}
		}
	}()
}

func (c *WSConnection) Close() error {
	c.closeOnce.Do(func() { close(c.stop) })
	return c.conn.Close()
}

func (c *WSConnection) RemoteAddr() net.Addr {
	return c.conn.RemoteAddr()
}
