package rpc

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/rpc"
	"time"

	"github.com/tankTopTaro/greyzone-game-room-app/game"
	"github.com/tankTopTaro/greyzone-game-room-app/logger"
	"github.com/tankTopTaro/greyzone-game-room-app/models"
	"github.com/tankTopTaro/greyzone-game-room-app/room"
)

var ErrWrongRoom = errors.New("wrong room")

// Server manages the RPC listener.
type Server struct {
	listener net.Listener
	address  string
	rpc      *rpc.Server
}

// NewServer listens on addr and registers the given services.
func NewServer(addr string, services ...any) (*Server, error) {
	srv := rpc.NewServer()
	for _, svc := range services {
		if err := srv.Register(svc); err != nil {
			return nil, err
		}
	}
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	return &Server{
		listener: listener,
		address:  listener.Addr().String(),
		rpc:      srv,
	}, nil
}

// Addr is the bound address.
func (s *Server) Addr() string { return s.address }

// Start begins listening for RPC requests.
func (s *Server) Start() {
	logger.Log.Infof("RPC server listening on %s", s.address)
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				logger.Log.Info("RPC server listener closed.")
				return
			}
			logger.Log.Errorf("RPC server accept error: %v", err)
			continue
		}
		go s.rpc.ServeConn(conn)
	}
}

// Stop closes the RPC listener.
func (s *Server) Stop() {
	if s.listener != nil {
		logger.Log.Info("Stopping RPC server.")
		s.listener.Close()
	}
}

// Room is the room control exposed over RPC.
type Room interface {
	StartGame(ctx context.Context, p game.Params) (game.Session, error)
	Toggle(enabled bool)
	Status() room.Status
}

// RoomService exposes room control to operator tooling.
// Methods follow the net/rpc signature.
type RoomService struct {
	room Room
}

func NewRoomService(r Room) *RoomService {
	return &RoomService{room: r}
}

type StartGameArgs struct {
	RoomType      string
	Rule          int
	Level         int
	Players       []*models.Player
	Team          *models.Team
	BookRoomUntil *time.Time
	Collaborative bool
	PrepDuration  int
}

type StartGameReply struct {
	SessionID string
	Queued    bool
}

// StartGame starts or queues a session. Refusals come back as errors.
func (rs *RoomService) StartGame(args *StartGameArgs, reply *StartGameReply) error {
	s, err := rs.room.StartGame(context.Background(), game.Params{
		RoomType:      args.RoomType,
		Rule:          args.Rule,
		Level:         args.Level,
		Players:       args.Players,
		Team:          args.Team,
		BookRoomUntil: args.BookRoomUntil,
		Collaborative: args.Collaborative,
		PrepDuration:  args.PrepDuration,
	})
	if errors.Is(err, room.ErrQueued) {
		reply.Queued = true
		return nil
	}
	if err != nil {
		return err
	}
	reply.SessionID = s.ID()
	return nil
}

// StatusArgs optionally names the room the caller expects to reach.
type StatusArgs struct {
	RoomID string
}

func (rs *RoomService) Status(args *StatusArgs, reply *room.Status) error {
	st := rs.room.Status()
	if args.RoomID != "" && args.RoomID != st.ID {
		return fmt.Errorf("%w: %s is not %s", ErrWrongRoom, st.ID, args.RoomID)
	}
	*reply = st
	return nil
}

type ToggleArgs struct {
	Enabled bool
}

func (rs *RoomService) Toggle(args *ToggleArgs, reply *room.Status) error {
	rs.room.Toggle(args.Enabled)
	*reply = rs.room.Status()
	return nil
}
