package rpc

import (
	"context"
	"net/rpc"
	"strings"
	"sync"
	"testing"

	"github.com/tankTopTaro/greyzone-game-room-app/game"
	"github.com/tankTopTaro/greyzone-game-room-app/models"
	"github.com/tankTopTaro/greyzone-game-room-app/room"
)

type MockSession struct{ game.Session }

func (MockSession) ID() string { return "session-9" }

type MockRoom struct {
	mu      sync.Mutex
	enabled bool
	err     error
	got     game.Params
}

func (m *MockRoom) StartGame(ctx context.Context, p game.Params) (game.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.got = p
	if m.err != nil {
		return nil, m.err
	}
	return MockSession{}, nil
}

func (m *MockRoom) fail(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

func (m *MockRoom) Toggle(enabled bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.enabled = enabled
}

func (m *MockRoom) Status() room.Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return room.Status{ID: "room-1", Enabled: m.enabled, Free: true}
}

func dial(t *testing.T, rm *MockRoom) *rpc.Client {
	t.Helper()
	srv, err := NewServer("127.0.0.1:0", NewRoomService(rm))
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	go srv.Start()
	t.Cleanup(srv.Stop)

	client, err := rpc.Dial("tcp", srv.Addr())
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	t.Cleanup(func() { client.Close() })
	return client
}

func TestRoomService_StartGame(t *testing.T) {
	rm := &MockRoom{enabled: true}
	client := dial(t, rm)

	args := &StartGameArgs{RoomType: "DoubleGrid", Rule: 1, Level: 1, Players: []*models.Player{{ID: "p1"}}}
	var reply StartGameReply
	if err := client.Call("RoomService.StartGame", args, &reply); err != nil {
		t.Fatalf("StartGame: %v", err)
	}
	if reply.SessionID != "session-9" || reply.Queued {
		t.Errorf("Unexpected reply %+v", reply)
	}
	rm.mu.Lock()
	got := rm.got
	rm.mu.Unlock()
	if got.RoomType != "DoubleGrid" || len(got.Players) != 1 {
		t.Errorf("Unexpected params %+v", got)
	}

	rm.fail(room.ErrQueued)
	reply = StartGameReply{}
	if err := client.Call("RoomService.StartGame", args, &reply); err != nil || !reply.Queued {
		t.Errorf("Expected a queued reply, got %+v, %v", reply, err)
	}

	rm.fail(room.ErrRoomBusy)
	err := client.Call("RoomService.StartGame", args, &StartGameReply{})
	if err == nil || !strings.Contains(err.Error(), "gameroom-busy") {
		t.Errorf("Expected gameroom-busy, got %v", err)
	}
}

func TestRoomService_ToggleAndStatus(t *testing.T) {
	rm := &MockRoom{enabled: true}
	client := dial(t, rm)

	var st room.Status
	if err := client.Call("RoomService.Toggle", &ToggleArgs{Enabled: false}, &st); err != nil {
		t.Fatal(err)
	}
	if st.Enabled {
		t.Error("Expected the room disabled")
	}
	if err := client.Call("RoomService.Status", &StatusArgs{RoomID: "room-1"}, &st); err != nil {
		t.Fatal(err)
	}
	if st.ID != "room-1" || st.Enabled {
		t.Errorf("Unexpected status %+v", st)
	}
	if err := client.Call("RoomService.Status", &StatusArgs{RoomID: "room-2"}, &st); err == nil {
		t.Error("Expected an error for the wrong room")
	}
}
