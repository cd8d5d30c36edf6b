package game

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/tankTopTaro/greyzone-game-room-app/config"
	"github.com/tankTopTaro/greyzone-game-room-app/facility"
	"github.com/tankTopTaro/greyzone-game-room-app/light"
	"github.com/tankTopTaro/greyzone-game-room-app/models"
	"github.com/tankTopTaro/greyzone-game-room-app/services"
	"github.com/tankTopTaro/greyzone-game-room-app/snapshot"
	"github.com/tankTopTaro/greyzone-game-room-app/state"
	"github.com/tankTopTaro/greyzone-game-room-app/timer"
)

var t0 = time.Date(2025, 6, 1, 15, 0, 0, 0, time.UTC)

// MockFacility records reports and answers the upcoming check.
type MockFacility struct {
	reports  chan facility.SessionReport
	upcoming bool
}

func (f *MockFacility) ReportSession(ctx context.Context, r facility.SessionReport) error {
	f.reports <- r
	return nil
}
func (f *MockFacility) UpcomingSession(context.Context) (bool, error) { return f.upcoming, nil }
func (f *MockFacility) NotifyAvailable(context.Context) error         { return nil }

// MockRoom is a RoomContext recording what sessions do to it.
type MockRoom struct {
	grid     *light.Grid
	timers   *timer.TimerManager
	store    *snapshot.MemoryStore
	facility *MockFacility

	mu       sync.Mutex
	msgs     []map[string]any
	flushes  int
	released []Session
}

var (
	mainFloor   = config.MatrixConfig{X: 0, Y: 0, Width: 30, Height: 20, TileWidth: 10, TileHeight: 10, Group: "mainFloor", Animated: true}
	wallButtons = config.MatrixConfig{X: 0, Y: 100, Width: 50, Height: 10, TileWidth: 10, TileHeight: 10, Group: "wallButtons"}
	wallScreens = config.MatrixConfig{X: 0, Y: 120, Width: 50, Height: 10, TileWidth: 10, TileHeight: 10, Group: "wallScreens"}
)

func NewMockRoom() *MockRoom {
	return newMockRoomWith(mainFloor, wallButtons, wallScreens)
}

func newMockRoomWith(matrices ...config.MatrixConfig) *MockRoom {
	return &MockRoom{
		grid:     light.NewGridFromConfig(matrices),
		timers:   timer.NewManualTimerManager(t0),
		store:    snapshot.NewMemoryStore(),
		facility: &MockFacility{reports: make(chan facility.SessionReport, 4), upcoming: true},
	}
}

func (r *MockRoom) ID() string                  { return "test-room" }
func (r *MockRoom) Grid() *light.Grid           { return r.grid }
func (r *MockRoom) Timers() *timer.TimerManager { return r.timers }
func (r *MockRoom) DisplayChannels() []string   { return []string{"monitor", "room-screen"} }
func (r *MockRoom) Snapshots() snapshot.Store   { return r.store }
func (r *MockRoom) Facility() facility.Client   { return r.facility }
func (r *MockRoom) Broadcast(channel string, msg any) error {
	// every display message goes to both channels; keep one copy
	if channel != "monitor" {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = append(r.msgs, msg.(map[string]any))
	return nil
}
func (r *MockRoom) Flush() {
	r.mu.Lock()
	r.flushes++
	r.mu.Unlock()
}
func (r *MockRoom) Release(s Session) {
	r.mu.Lock()
	r.released = append(r.released, s)
	r.mu.Unlock()
}

func (r *MockRoom) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.msgs))
	for i, m := range r.msgs {
		out[i] = m["type"].(string)
	}
	return out
}

func (r *MockRoom) count(msgType string) int {
	n := 0
	for _, typ := range r.types() {
		if typ == msgType {
			n++
		}
	}
	return n
}

func (r *MockRoom) last(msgType string) map[string]any {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.msgs) - 1; i >= 0; i-- {
		if r.msgs[i]["type"] == msgType {
			return r.msgs[i]
		}
	}
	return nil
}

func (r *MockRoom) flushCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.flushes
}

func (r *MockRoom) releasedCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.released)
}

func testConfig() config.GameConfig {
	return config.GameConfig{
		TickInterval:        40 * time.Millisecond,
		BookingInterval:     time.Second,
		BookingWarning:      3 * time.Minute,
		PrepDuration:        5,
		GreetingDelay:       2 * time.Second,
		LifeDebounce:        2 * time.Second,
		DefaultLives:        5,
		DefaultTimeForLevel: 60,
		Seed:                7,
		Choice: config.ChoiceConfig{
			Group:         "wallButtons",
			ContinueIndex: 0,
			ExitIndex:     1,
			ContinueColor: [3]uint8{0, 255, 0},
			ExitColor:     [3]uint8{255, 0, 0},
		},
	}
}

func testLevels() *config.Levels {
	floor := []config.ShapeConfig{{X: 0, Y: 0, Width: 10, Height: 10, Color: [3]uint8{255, 0, 0}, OnClick: "report", Group: "mainFloor"}}
	return config.NewLevels([]config.LevelConfig{
		{RoomType: "DoubleGrid", Rule: 1, Level: 1, TimeForLevel: 60, Lives: 5, Shapes: floor},
		{RoomType: "DoubleGrid", Rule: 1, Level: 2, TimeForLevel: 60, Lives: 5, Shapes: floor},
		{RoomType: "Basketball", Rule: 1, Level: 1, TimeForLevel: 30, Lives: 3, Shapes: []config.ShapeConfig{}},
		{RoomType: "DoubleGrid", Rule: 1, Level: 9, TimeForLevel: 60, Shapes: []config.ShapeConfig{{Kind: "circle", Width: 5, Height: 5, Group: "mainFloor"}}},
	})
}

type harness struct {
	room *MockRoom
	mgr  *Manager
}

func newHarness() *harness {
	return &harness{
		room: NewMockRoom(),
		mgr:  NewManager(testConfig(), testLevels(), services.NewHistoryService(nil), nil),
	}
}

func params(roomType string, level int) Params {
	return Params{
		RoomType: roomType,
		Rule:     1,
		Level:    level,
		Players:  []*models.Player{{ID: "p1", NickName: "zed"}},
		Team:     &models.Team{ID: "t1", Name: "Reds"},
	}
}

// load runs LoadGame while driving the manual clock through preparation.
func (h *harness) load(t *testing.T, p Params) (Session, error) {
	t.Helper()
	type result struct {
		s   Session
		err error
	}
	done := make(chan result, 1)
	go func() {
		s, err := h.mgr.LoadGame(context.Background(), h.room, p)
		done <- result{s, err}
	}()

	deadline := time.Now().Add(2 * time.Second)
	for h.room.timers.Pending() < 3 {
		select {
		case r := <-done:
			return r.s, r.err
		default:
		}
		if time.Now().After(deadline) {
			t.Fatal("preparation timers never scheduled")
		}
		time.Sleep(time.Millisecond)
	}

	h.room.timers.Advance(0)
	h.room.timers.Advance(5 * time.Second)

	select {
	case r := <-done:
		return r.s, r.err
	case <-time.After(2 * time.Second):
		t.Fatal("LoadGame did not return")
	}
	return nil, nil
}

func (h *harness) start(t *testing.T, p Params) *Game {
	t.Helper()
	s, err := h.load(t, p)
	if err != nil {
		t.Fatalf("LoadGame: %v", err)
	}
	s.Start()
	return s.(*Game)
}

func eventually(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("condition not met in time")
}

func TestLoadGame_ResolvesVariantCaseInsensitively(t *testing.T) {
	h := newHarness()
	s, err := h.load(t, params("DOUBLEgrid", 1))
	if err != nil {
		t.Fatalf("LoadGame: %v", err)
	}
	if s.Status() != state.Prepared {
		t.Errorf("Expected a prepared session, got %s", s.Status())
	}
	if got := h.room.count("updatePreparationInterval"); got != 6 {
		t.Errorf("Expected 6 preparation ticks (5..0), got %d", got)
	}
	if h.room.count("greeting") != 1 {
		t.Error("Expected one greeting")
	}
	if h.room.releasedCount() != 0 {
		t.Error("A prepared session must not release the room")
	}

	if got := h.mgr.Variants(); len(got) != 2 || got[0] != "Basketball" || got[1] != "DoubleGrid" {
		t.Errorf("Unexpected variants %v", got)
	}
}

func TestLoadGame_Errors(t *testing.T) {
	h := newHarness()
	ctx := context.Background()

	if _, err := h.mgr.LoadGame(ctx, h.room, params("pinball", 1)); !errors.Is(err, ErrUnknownVariant) {
		t.Errorf("Expected ErrUnknownVariant, got %v", err)
	}
	p := params("doublegrid", 1)
	p.Rule = 4
	if _, err := h.mgr.LoadGame(ctx, h.room, p); !errors.Is(err, ErrUnsupportedRule) {
		t.Errorf("Expected ErrUnsupportedRule, got %v", err)
	}
	if _, err := h.mgr.LoadGame(ctx, h.room, params("doublegrid", 3)); !errors.Is(err, config.ErrLevelNotFound) {
		t.Errorf("Expected ErrLevelNotFound, got %v", err)
	}
	p = params("doublegrid", 1)
	p.Players = nil
	if _, err := h.mgr.LoadGame(ctx, h.room, p); !errors.Is(err, ErrInvalidParams) {
		t.Errorf("Expected ErrInvalidParams, got %v", err)
	}
	if h.room.timers.Pending() != 0 || h.room.releasedCount() != 0 {
		t.Error("Rejected requests must not schedule anything or touch the room")
	}
}

func TestLoadGame_CancelledContext(t *testing.T) {
	h := newHarness()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s, err := h.mgr.LoadGame(ctx, h.room, params("doublegrid", 1))
	if err == nil || s != nil {
		t.Fatalf("Expected failure, got %v, %v", s, err)
	}
	if h.room.timers.Pending() != 0 {
		t.Error("Failed init must cancel its timers")
	}
	if h.room.releasedCount() != 1 {
		t.Error("Failed init releases exactly once")
	}
}

func TestStart_Idempotent(t *testing.T) {
	h := newHarness()
	g := h.start(t, params("doublegrid", 1))
	started := g.gameStartedAt

	h.room.timers.Advance(time.Second)
	g.Start()

	if g.Status() != state.Running {
		t.Errorf("Expected running, got %s", g.Status())
	}
	if !g.gameStartedAt.Equal(started) {
		t.Errorf("gameStartedAt moved from %v to %v", started, g.gameStartedAt)
	}
	if n := h.room.count("newLevelStarts"); n != 1 {
		t.Errorf("Expected one newLevelStarts, got %d", n)
	}
}

func TestTimeout_FailsLevel(t *testing.T) {
	h := newHarness()
	g := h.start(t, params("doublegrid", 1))

	h.room.timers.Advance(59 * time.Second)
	if h.room.count("levelFailed") != 0 {
		t.Fatal("level failed early")
	}
	h.room.timers.Advance(time.Second)

	types := h.room.types()
	timeIsUp, failed := -1, -1
	for i, typ := range types {
		switch typ {
		case "timeIsUp":
			timeIsUp = i
		case "levelFailed":
			if failed >= 0 {
				t.Fatal("levelFailed broadcast twice")
			}
			failed = i
		}
	}
	if timeIsUp < 0 || failed < 0 || timeIsUp > failed {
		t.Fatalf("Expected timeIsUp then levelFailed, got %v", types)
	}
	if c := h.room.last("levelFailed")["countdown"]; c != 0 {
		t.Errorf("Expected countdown 0, got %v", c)
	}
	if g.Status() != state.Offering {
		t.Errorf("Expected an offer after failure, got %s", g.Status())
	}
	if h.room.count("offerSameLevel") != 1 {
		t.Error("A failed level offers the same level")
	}

	entry := g.players[0].GamesHistory["DoubleGrid > 1 > L1"]
	if entry == nil || entry.TimesPlayed != 1 || entry.BestTime != nil {
		t.Errorf("Unexpected history after failure %+v", entry)
	}
}

func TestRemoveLife_Debounced(t *testing.T) {
	h := newHarness()
	g := h.start(t, params("doublegrid", 1))
	removeLife := func() (taken bool) {
		g.locked(func() { taken = g.ctrl.RemoveLife() })
		return taken
	}

	for i := 0; i < 5; i++ {
		if !removeLife() {
			t.Fatalf("life %d should be taken", i+1)
		}
		h.room.timers.Advance(500 * time.Millisecond)
		if i < 4 && removeLife() {
			t.Fatalf("a second loss within 2s must be debounced")
		}
		h.room.timers.Advance(1500 * time.Millisecond)
	}

	if g.lives != 0 {
		t.Errorf("Expected 0 lives, got %d", g.lives)
	}
	if n := h.room.count("updateLifes"); n != 5 {
		t.Errorf("Expected 5 updateLifes, got %d", n)
	}
	if n := h.room.count("levelFailed"); n != 1 {
		t.Errorf("Expected exactly one levelFailed, got %d", n)
	}
	if removeLife() {
		t.Error("No life can be taken after the level failed")
	}
}

func TestLevelFailed_OnceWhenTimeAndLivesRunOut(t *testing.T) {
	h := newHarness()
	g := h.start(t, params("doublegrid", 1))
	g.locked(func() { g.lives = 1 })

	h.room.timers.Advance(59960 * time.Millisecond)
	if h.room.count("levelFailed") != 0 {
		t.Fatal("The level must still be running one tick before time is up")
	}
	g.locked(func() {
		// the tick that reaches 60s sees the last life lost in the same turn
		g.levelStartedAt = g.levelStartedAt.Add(-40 * time.Millisecond)
		if !g.ctrl.RemoveLife() {
			t.Error("The last life should be taken")
		}
		g.tickLocked()
	})
	if n := h.room.count("levelFailed"); n != 1 {
		t.Fatalf("Expected exactly one levelFailed, got %d", n)
	}
	if reason := h.room.last("levelFailed")["reason"]; reason != "noLivesLeft" {
		t.Errorf("Expected the life loss to fail the level, got %v", reason)
	}
	if h.room.count("timeIsUp") != 0 {
		t.Error("A failed level no longer reports timeIsUp")
	}
}

func TestBookingInThePast_EndsBeforePreparation(t *testing.T) {
	h := newHarness()
	p := params("doublegrid", 1)
	past := t0.Add(-time.Second)
	p.BookRoomUntil = &past

	s, err := h.load(t, p)
	if err == nil || s != nil {
		t.Fatalf("Expected init failure, got %v, %v", s, err)
	}
	if !errors.Is(err, ErrSessionEnded) {
		t.Errorf("Expected ErrSessionEnded, got %v", err)
	}
	if h.room.count("bookRoomExpired") != 1 || h.room.count("endAndExit") != 1 {
		t.Errorf("Expected bookRoomExpired and endAndExit, got %v", h.room.types())
	}
	if h.room.count("updatePreparationInterval") != 0 || h.room.count("updateCountdown") != 0 {
		t.Errorf("No progress may be reported after expiry, got %v", h.room.types())
	}
	if h.room.releasedCount() != 1 {
		t.Error("Room should be released once")
	}
	if h.room.timers.Pending() != 0 {
		t.Errorf("All timers should be cancelled, %d pending", h.room.timers.Pending())
	}
	if _, err := h.room.store.Load(); !errors.Is(err, snapshot.ErrNoSnapshot) {
		t.Error("Snapshot should be cleared")
	}
}

func TestBooking_WarningThenExpiry(t *testing.T) {
	h := newHarness()
	p := params("doublegrid", 1)
	until := t0.Add(4 * time.Minute)
	p.BookRoomUntil = &until
	g := h.start(t, p)

	h.room.timers.Advance(70 * time.Second)
	if n := h.room.count("bookRoomWarning"); n != 1 {
		t.Fatalf("Expected one bookRoomWarning, got %d", n)
	}
	eventually(t, func() bool { return h.room.count("isUpcomingGameSession") == 1 })

	h.room.timers.Advance(3 * time.Minute)
	if n := h.room.count("bookRoomWarning"); n != 1 {
		t.Errorf("Warning must fire once, got %d", n)
	}
	if h.room.count("bookRoomExpired") != 1 {
		t.Errorf("Expected bookRoomExpired, got %v", h.room.count("bookRoomExpired"))
	}
	if g.Status() != state.Ended || h.room.releasedCount() != 1 {
		t.Errorf("Expected ended and released, got %s / %d", g.Status(), h.room.releasedCount())
	}
	select {
	case r := <-h.room.facility.reports:
		if r.Reason != "bookRoomExpired" {
			t.Errorf("Unexpected report reason %q", r.Reason)
		}
	case <-time.After(2 * time.Second):
		t.Error("session was not reported")
	}
}

func TestFacilitySessionExpiry_EndsRoom(t *testing.T) {
	h := newHarness()
	p := params("doublegrid", 1)
	end := t0.Add(10 * time.Second)
	p.Players[0].FacilitySession.DateEnd = &end
	g := h.start(t, p)

	h.room.timers.Advance(6 * time.Second)
	if g.Status() != state.Ended {
		t.Fatalf("Expected ended, got %s", g.Status())
	}
	if r := h.room.last("endAndExit"); r == nil || r["reason"] != "facilitySessionExpired" {
		t.Errorf("Unexpected endAndExit %v", r)
	}
}

func TestEndAndExit_Idempotent(t *testing.T) {
	h := newHarness()
	g := h.start(t, params("doublegrid", 1))

	g.EndAndExit("exit")
	g.EndAndExit("exit")
	if h.room.count("endAndExit") != 1 || h.room.releasedCount() != 1 {
		t.Errorf("Teardown must run once, got %d broadcasts / %d releases", h.room.count("endAndExit"), h.room.releasedCount())
	}
	if h.room.timers.Pending() != 0 {
		t.Errorf("Expected no pending timers, got %d", h.room.timers.Pending())
	}
	for _, f := range h.room.grid.Fixtures() {
		if f.Color != light.Black {
			t.Fatalf("light %d not blacked out", f.ID)
		}
	}
	h.room.timers.Advance(time.Second)
	if n := h.room.count("updateCountdown"); n != 0 {
		t.Errorf("No countdown after teardown, got %d", n)
	}
}

func TestScore(t *testing.T) {
	cases := map[int]int{0: 1000, 10: 980, 450: 100, 500: 100}
	for elapsed, want := range cases {
		if got := Score(elapsed); got != want {
			t.Errorf("Score(%d) = %d, want %d", elapsed, got, want)
		}
	}
}

func TestSnapshot_TracksProgress(t *testing.T) {
	h := newHarness()
	g := h.start(t, params("doublegrid", 1))
	h.room.timers.Advance(3 * time.Second)
	g.locked(func() { g.ctrl.RemoveLife() })

	s, err := h.room.store.Load()
	if err != nil {
		t.Fatal(err)
	}
	if s.Countdown != 57 || s.Lifes != 4 || s.Level != 1 || len(s.Players) != 1 || s.Team.Name != "Reds" {
		t.Errorf("Unexpected snapshot %+v", s)
	}
}

func TestPaintError_SkipsFlush(t *testing.T) {
	h := newHarness()
	g := h.start(t, params("doublegrid", 9))
	before := h.room.flushCount()
	h.room.timers.Advance(200 * time.Millisecond)

	if h.room.flushCount() != before {
		t.Errorf("A failed paint must not flush, %d -> %d", before, h.room.flushCount())
	}
	found := false
	for _, e := range g.events {
		if e.Type == "paintError" {
			found = true
		}
	}
	if !found {
		t.Error("paint error should be recorded in the event log")
	}
}

func TestCompleteLevel_OffersNextThenContinues(t *testing.T) {
	h := newHarness()
	g := h.start(t, params("doublegrid", 1))
	order := append([]int(nil), g.rules.(*doubleGrid).sequence...)
	if len(order) != 5 {
		t.Fatalf("Expected 5 numbered buttons, got %d", len(order))
	}

	h.room.timers.Advance(10 * time.Second)
	for _, id := range order {
		g.HandleLightClick(id, nil)
	}

	if g.Status() != state.Offering {
		t.Fatalf("Expected offering, got %s", g.Status())
	}
	if n := h.room.count("playerSuccess"); n != 5 {
		t.Errorf("Expected 5 playerSuccess, got %d", n)
	}
	if s := h.room.last("levelCompleted")["score"]; s != Score(10) {
		t.Errorf("Expected score %d, got %v", Score(10), s)
	}
	if m := h.room.last("offerNextLevel"); m == nil || m["level"] != 2 {
		t.Fatalf("Expected offerNextLevel for level 2, got %v", m)
	}
	entry := g.players[0].GamesHistory["DoubleGrid > 1 > L1"]
	if entry == nil || entry.BestTime == nil || *entry.BestTime != 10 {
		t.Errorf("Expected best time 10, got %+v", entry)
	}

	ids := h.room.grid.GroupIDs("wallButtons")
	cont, exit := ids[0], ids[1]
	black := light.Black
	g.HandleLightClick(exit, &black)
	if g.Status() != state.Offering {
		t.Fatal("A choice light clicked in the wrong color must be ignored")
	}

	g.HandleLightClick(cont, nil)
	g.HandleLightClick(exit, nil)
	if g.Status() != state.Preparing {
		t.Fatalf("Expected preparation after continue, got %s", g.Status())
	}
	if g.Snapshot().Level != 2 {
		t.Errorf("Expected level 2, got %d", g.Snapshot().Level)
	}

	h.room.timers.Advance(5 * time.Second)
	eventually(t, func() bool { return g.Status() == state.Running })
	if n := h.room.count("newLevelStarts"); n != 2 {
		t.Errorf("Expected a second newLevelStarts, got %d", n)
	}
	if h.room.count("greeting") != 1 {
		t.Error("Players are greeted once per session")
	}
	if h.room.releasedCount() != 0 {
		t.Error("Continuing must not release the room")
	}
}

func TestCompleteLevel_OffersSameWhenBookingTooShort(t *testing.T) {
	h := newHarness()
	p := params("doublegrid", 1)
	until := t0.Add(60 * time.Second)
	p.BookRoomUntil = &until
	g := h.start(t, p)

	for _, id := range append([]int(nil), g.rules.(*doubleGrid).sequence...) {
		g.HandleLightClick(id, nil)
	}
	if h.room.count("offerSameLevel") != 1 || h.room.count("offerNextLevel") != 0 {
		t.Errorf("Expected offerSameLevel, got %v", h.room.types())
	}
	if h.room.count("bookRoomWarning") != 1 {
		t.Errorf("Expected one warning under 3 minutes, got %d", h.room.count("bookRoomWarning"))
	}
}

func TestOffer_ExitEndsSession(t *testing.T) {
	h := newHarness()
	g := h.start(t, params("doublegrid", 1))
	h.room.timers.Advance(60 * time.Second)
	if g.Status() != state.Offering {
		t.Fatalf("Expected offering, got %s", g.Status())
	}

	ids := h.room.grid.GroupIDs("wallButtons")
	g.HandleLightClick(ids[1], nil)
	g.HandleLightClick(ids[0], nil)

	if g.Status() != state.Ended {
		t.Fatalf("Expected ended, got %s", g.Status())
	}
	if h.room.releasedCount() != 1 {
		t.Errorf("Expected one release, got %d", h.room.releasedCount())
	}
	select {
	case r := <-h.room.facility.reports:
		if r.Reason != "exit" || r.StartedAt == nil {
			t.Errorf("Unexpected report %+v", r)
		}
	case <-time.After(2 * time.Second):
		t.Error("session was not reported")
	}
}

func TestDoubleGrid_RedFloorCostsALife(t *testing.T) {
	h := newHarness()
	g := h.start(t, params("doublegrid", 1))
	h.room.timers.Advance(40 * time.Millisecond)

	floor := h.room.grid.GroupIDs("mainFloor")
	if f, _ := h.room.grid.Fixture(floor[0]); f.Color != danger {
		t.Fatalf("Expected a red tile under the shape, got %v", f.Color)
	}
	g.HandleLightClick(floor[0], nil)
	if g.Snapshot().Lifes != 4 || h.room.count("playerFailed") != 1 {
		t.Errorf("Expected a life lost, got %d lives", g.Snapshot().Lifes)
	}

	g.HandleLightClick(floor[len(floor)-1], nil)
	if g.Snapshot().Lifes != 4 {
		t.Error("A black tile is harmless")
	}
	g.HandleLightClick(999, nil)
}

func TestDoubleGrid_RequiresWallScreens(t *testing.T) {
	h := newHarness()
	h.room = newMockRoomWith(mainFloor, wallButtons)

	s, err := h.load(t, params("doublegrid", 1))
	if !errors.Is(err, light.ErrGroupUnknown) || s != nil {
		t.Fatalf("Expected ErrGroupUnknown, got %v, %v", s, err)
	}
	if !strings.Contains(err.Error(), "wallScreens") {
		t.Errorf("The error should name the missing group, got %v", err)
	}
	if h.room.releasedCount() != 1 || h.room.timers.Pending() != 0 {
		t.Error("A failed setup releases the room and cancels its timers")
	}
}

func TestBasketball_RequiresAButtonPerColor(t *testing.T) {
	h := newHarness()
	twoButtons := wallButtons
	twoButtons.Width = 20
	h.room = newMockRoomWith(mainFloor, twoButtons, wallScreens)

	s, err := h.load(t, params("basketball", 1))
	if !errors.Is(err, ErrLayoutTooSmall) || s != nil {
		t.Fatalf("Expected ErrLayoutTooSmall, got %v, %v", s, err)
	}
	if h.room.releasedCount() != 1 {
		t.Error("A failed setup releases the room")
	}
}

func TestBasketball_EveryCalledColorIsOnAButton(t *testing.T) {
	h := newHarness()
	g := h.start(t, params("basketball", 1))
	b := g.rules.(*basketball)
	h.room.timers.Advance(4 * time.Second)

	shown := map[light.Color]bool{}
	for _, id := range h.room.grid.GroupIDs("wallButtons") {
		f, _ := h.room.grid.Fixture(id)
		shown[f.Color] = true
	}
	for _, c := range b.sequence {
		if !shown[c.rgb] {
			t.Errorf("%s is called but shown on no button", c.name)
		}
	}
}

func TestHandleMessage_AfterBookingExpiredEndsSession(t *testing.T) {
	h := newHarness()
	g := h.start(t, params("basketball", 1))
	h.room.timers.Advance(4 * time.Second)
	countdowns := h.room.count("updateCountdown")

	// expired between two booking ticks
	g.locked(func() {
		until := g.now()
		g.bookRoomUntil = &until
	})
	g.HandleMessage("colorNamesEnd", nil)

	if g.Status() != state.Ended || h.room.count("bookRoomExpired") != 1 {
		t.Fatalf("Expected the booking to end the session, got %s", g.Status())
	}
	if h.room.count("updateCountdown") != countdowns {
		t.Error("An expired booking must not restart the countdown")
	}
	if h.room.releasedCount() != 1 {
		t.Error("Expected the room released once")
	}
}

func TestStart_AfterBookingExpiredEndsSession(t *testing.T) {
	h := newHarness()
	s, err := h.load(t, params("doublegrid", 1))
	if err != nil {
		t.Fatalf("LoadGame: %v", err)
	}
	g := s.(*Game)
	g.locked(func() {
		until := g.now()
		g.bookRoomUntil = &until
	})
	g.Start()

	if g.Status() != state.Ended || h.room.count("newLevelStarts") != 0 {
		t.Errorf("Expected no level started on an expired booking, got %s", g.Status())
	}
}

func TestBasketball_SequenceThenClicks(t *testing.T) {
	h := newHarness()
	g := h.start(t, params("basketball", 1))
	b := g.rules.(*basketball)

	h.room.timers.Advance(4 * time.Second)
	if n := h.room.count("colorNames"); n != 3 {
		t.Fatalf("Expected 3 colorNames, got %d", n)
	}
	if h.room.count("colorNamesEnd") != 1 {
		t.Fatal("Expected colorNamesEnd")
	}

	h.room.timers.Advance(5 * time.Second)
	g.HandleMessage("colorNamesEnd", nil)
	if c := h.room.last("updateCountdown")["countdown"]; c != 30 {
		t.Errorf("colorNamesEnd should restart the countdown, got %v", c)
	}

	seq := append([]namedColor(nil), b.sequence...)
	button := h.room.grid.GroupIDs("wallButtons")[0]
	for _, c := range basketballPalette {
		if c.rgb != seq[0].rgb {
			wrong := c.rgb
			g.HandleLightClick(button, &wrong)
			break
		}
	}
	if g.Snapshot().Lifes != 2 {
		t.Errorf("Expected 2 lives after a wrong color, got %d", g.Snapshot().Lifes)
	}

	for _, c := range seq {
		rgb := c.rgb
		g.HandleLightClick(button, &rgb)
	}
	if h.room.count("levelCompleted") != 1 || g.Status() != state.Offering {
		t.Errorf("Expected the level completed, got %s / %v", g.Status(), h.room.types())
	}
}
