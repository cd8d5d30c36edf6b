package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/tankTopTaro/greyzone-game-room-app/config"
	"github.com/tankTopTaro/greyzone-game-room-app/game"
	"github.com/tankTopTaro/greyzone-game-room-app/light"
	"github.com/tankTopTaro/greyzone-game-room-app/logger"
	"github.com/tankTopTaro/greyzone-game-room-app/models"
	"github.com/tankTopTaro/greyzone-game-room-app/room"
)

var ErrBadRequest = errors.New("bad request")

// Room is what the HTTP boundary drives.
type Room interface {
	StartGame(ctx context.Context, p game.Params) (game.Session, error)
	Toggle(enabled bool)
	Enabled() bool
	Status() room.Status
	Layout() light.Layout
	Games() []string
	ServeWS(w http.ResponseWriter, r *http.Request)
}

// GameServer 是房间的HTTP入口
type GameServer struct {
	addr string
	room Room
	http *http.Server
}

func NewGameServer(addr string, rm Room) *GameServer {
	s := &GameServer{addr: addr, room: rm}
	s.http = &http.Server{
		Addr:              addr,
		Handler:           s.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Routes builds the router.
func (s *GameServer) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(requestLogger)
	r.Use(noCache)
	r.Use(s.enabledGate)

	r.Route("/api", func(r chi.Router) {
		r.Post("/start-game-session", s.handleStartGame)
		r.Get("/games-list", s.handleGamesList)
		r.Post("/toggle-room", s.handleToggle)
		r.Get("/room-status", s.handleStatus)
		r.Get("/health", handleHealth)
	})
	r.Get("/get/roomData", s.handleRoomData)
	r.Get("/ws", s.room.ServeWS)
	return r
}

func (s *GameServer) Start() error {
	logger.Log.Infof("Game room listening on %s", s.addr)
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *GameServer) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

// enabledGate refuses /api calls while the room is disabled, except the
// ones needed to inspect and re-enable it.
func (s *GameServer) enabledGate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.room.Enabled() && strings.HasPrefix(r.URL.Path, "/api/") {
			switch r.URL.Path {
			case "/api/toggle-room", "/api/health", "/api/room-status":
			default:
				writeJSON(w, http.StatusServiceUnavailable, errorBody("Room is currently disabled"))
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

func noCache(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-store, no-cache, must-revalidate")
		w.Header().Set("Access-Control-Allow-Origin", "*")
		next.ServeHTTP(w, r)
	})
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		began := time.Now()
		next.ServeHTTP(ww, r)
		logger.Log.Debugf("%s %s %d %s", r.Method, r.URL.Path, ww.Status(), time.Since(began))
	})
}

type startRequest struct {
	Room            string           `json:"room"`
	Players         []*models.Player `json:"players"`
	Team            *models.Team     `json:"team"`
	BookRoomUntil   string           `json:"book_room_until"`
	IsCollaborative bool             `json:"is_collaborative"`
	TimeToPrepare   int              `json:"time_to_prepare"`
}

func (s *GameServer) handleStartGame(w http.ResponseWriter, r *http.Request) {
	var req startRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("Missing data"))
		return
	}
	p, err := req.params()
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}

	// preparation outlives the request
	sess, err := s.room.StartGame(context.WithoutCancel(r.Context()), p)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, map[string]any{
			"message": fmt.Sprintf("Game started in %s with rule: %d, level: %d", p.RoomType, p.Rule, p.Level),
			"session": sess.ID(),
		})
	case errors.Is(err, room.ErrQueued):
		writeJSON(w, http.StatusAccepted, map[string]any{"message": "Game session queued"})
	case errors.Is(err, room.ErrRoomBusy):
		writeJSON(w, http.StatusForbidden, errorBody("gameroom-busy"))
	case errors.Is(err, room.ErrRoomDisabled):
		writeJSON(w, http.StatusServiceUnavailable, errorBody("Room is currently disabled"))
	case errors.Is(err, game.ErrInvalidParams),
		errors.Is(err, game.ErrUnknownVariant),
		errors.Is(err, game.ErrUnsupportedRule),
		errors.Is(err, config.ErrLevelNotFound):
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
	default:
		logger.Log.Errorf("start game failed: %v", err)
		writeJSON(w, http.StatusInternalServerError, errorBody(err.Error()))
	}
}

// params validates the request. room is "type,rule,level".
func (req startRequest) params() (game.Params, error) {
	if req.Room == "" || len(req.Players) == 0 {
		return game.Params{}, fmt.Errorf("%w: invalid room format or missing players", ErrBadRequest)
	}
	parts := strings.Split(req.Room, ",")
	if len(parts) != 3 {
		return game.Params{}, fmt.Errorf("%w: room must be \"type,rule,level\"", ErrBadRequest)
	}
	rule, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return game.Params{}, fmt.Errorf("%w: rule %q", ErrBadRequest, parts[1])
	}
	level, err := strconv.Atoi(strings.TrimSpace(parts[2]))
	if err != nil {
		return game.Params{}, fmt.Errorf("%w: level %q", ErrBadRequest, parts[2])
	}
	until, err := parseBooking(req.BookRoomUntil)
	if err != nil {
		return game.Params{}, err
	}
	return game.Params{
		RoomType:      strings.TrimSpace(parts[0]),
		Rule:          rule,
		Level:         level,
		Players:       req.Players,
		Team:          req.Team,
		BookRoomUntil: until,
		Collaborative: req.IsCollaborative,
		PrepDuration:  req.TimeToPrepare,
	}, nil
}

// parseBooking accepts RFC 3339 or the facility's local "2006-01-02 15:04:05".
// An empty value means no deadline.
func parseBooking(v string) (*time.Time, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return &t, nil
	}
	t, err := time.ParseInLocation(time.DateTime, v, time.Local)
	if err != nil {
		return nil, fmt.Errorf("%w: book_room_until %q", ErrBadRequest, v)
	}
	return &t, nil
}

func (s *GameServer) handleGamesList(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.room.Games())
}

func (s *GameServer) handleToggle(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Enabled *bool `json:"enabled"`
	}
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody("invalid body"))
			return
		}
	}
	enabled := !s.room.Enabled()
	if body.Enabled != nil {
		enabled = *body.Enabled
	}
	s.room.Toggle(enabled)
	writeJSON(w, http.StatusOK, map[string]bool{"enabled": enabled})
}

func (s *GameServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.room.Status())
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	hostname, _ := os.Hostname()
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "hostname": hostname})
}

func (s *GameServer) handleRoomData(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.room.Layout())
}

func errorBody(msg string) map[string]string {
	return map[string]string{"error": msg}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Log.Warnf("response not written: %v", err)
	}
}
