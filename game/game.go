package game

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/tankTopTaro/greyzone-game-room-app/config"
	"github.com/tankTopTaro/greyzone-game-room-app/facility"
	"github.com/tankTopTaro/greyzone-game-room-app/light"
	"github.com/tankTopTaro/greyzone-game-room-app/logger"
	"github.com/tankTopTaro/greyzone-game-room-app/models"
	"github.com/tankTopTaro/greyzone-game-room-app/monitor"
	"github.com/tankTopTaro/greyzone-game-room-app/network"
	"github.com/tankTopTaro/greyzone-game-room-app/services"
	"github.com/tankTopTaro/greyzone-game-room-app/shape"
	"github.com/tankTopTaro/greyzone-game-room-app/snapshot"
	"github.com/tankTopTaro/greyzone-game-room-app/state"
)

const (
	timerBooking     = "booking"
	timerPreparation = "preparation"
	timerGreeting    = "greeting"
	timerAnimation   = "animation"
)

type offerKind int

const (
	offerNone offerKind = iota
	offerSame
	offerNext
)

func (o offerKind) String() string {
	switch o {
	case offerSame:
		return "same"
	case offerNext:
		return "next"
	}
	return "none"
}

// Game is a session of one variant in one room. Its state is guarded by mu;
// every timer it owns is tracked by name so teardown can cancel them all.
type Game struct {
	mu sync.Mutex

	id            string
	roomType      string
	rule          int
	level         int
	players       []*models.Player
	team          *models.Team
	collaborative bool
	prepDuration  int

	cfg     config.GameConfig
	levels  *config.Levels
	history *services.HistoryService
	metrics *monitor.Monitor
	room    RoomContext
	rules   Rules
	ctrl    *Controller

	machine *state.Machine
	engine  *shape.Engine
	rand    *rand.Rand
	current config.LevelConfig

	timeForLevel int
	prepTime     int
	countdown    int
	lives        int
	score        int

	createdAt      time.Time
	gameStartedAt  time.Time
	levelStartedAt time.Time
	lastLifeLostAt time.Time
	bookRoomUntil  *time.Time
	warned         bool

	offer            offerKind
	waitingForChoice bool
	choicePressed    bool

	timers    map[string]int64
	events    []models.Event
	prepDone  chan struct{}
	greetDone chan struct{}
	ended     chan struct{}

	releasePending bool
	pendingReport  *facility.SessionReport
}

func newGame(variant string, rules Rules, p Params, m *Manager, room RoomContext) *Game {
	seed := m.cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	prep := p.PrepDuration
	if prep <= 0 {
		prep = m.cfg.PrepDuration
	}
	g := &Game{
		id:            uuid.NewString(),
		roomType:      variant,
		rule:          p.Rule,
		level:         p.Level,
		players:       p.Players,
		team:          p.Team,
		collaborative: p.Collaborative,
		prepDuration:  prep,
		cfg:           m.cfg,
		levels:        m.levels,
		history:       m.history,
		metrics:       m.metrics,
		room:          room,
		rules:         rules,
		machine:       state.NewMachine(),
		engine:        shape.NewEngine(),
		rand:          rand.New(rand.NewSource(seed)),
		createdAt:     room.Timers().Now(),
		bookRoomUntil: p.BookRoomUntil,
		timers:        make(map[string]int64),
		ended:         make(chan struct{}),
	}
	g.ctrl = &Controller{g: g}
	g.machine.OnChange(func(from, to state.Status) {
		logger.Log.Debugf("session %s: %s -> %s", g.id, from, to)
	})
	return g
}

func (g *Game) ID() string { return g.id }

func (g *Game) Status() state.Status { return g.machine.GetCurrentState() }

// locked runs fn under the session lock, then performs the room release and
// facility report teardown queued, outside the lock.
func (g *Game) locked(fn func()) {
	g.mu.Lock()
	fn()
	release, report := g.releasePending, g.pendingReport
	g.releasePending, g.pendingReport = false, nil
	g.mu.Unlock()

	if report != nil {
		go g.report(*report)
	}
	if release {
		g.room.Release(g)
	}
}

func (g *Game) report(r facility.SessionReport) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := g.room.Facility().ReportSession(ctx, r); err != nil {
		logger.Log.Warnf("session %s report failed: %v", g.id, err)
	}
}

// schedule replaces the timer called name. The callback runs locked and is
// skipped once the timer is cancelled or replaced.
func (g *Game) schedule(name string, delay, interval time.Duration, fn func()) {
	g.cancelLocked(name)
	var id int64
	id = g.room.Timers().AddTimer(delay, interval, func() {
		g.locked(func() {
			if g.timers[name] != id {
				return
			}
			if interval <= 0 {
				delete(g.timers, name)
			}
			fn()
		})
	})
	g.timers[name] = id
}

func (g *Game) cancelLocked(name string) {
	if id, ok := g.timers[name]; ok {
		g.room.Timers().RemoveTimer(id)
		delete(g.timers, name)
	}
}

// cancelLevelTimersLocked stops the animation and every rule timer.
func (g *Game) cancelLevelTimersLocked() {
	g.cancelLocked(timerAnimation)
	for name := range g.timers {
		if strings.HasPrefix(name, ruleTimerPrefix) {
			g.cancelLocked(name)
		}
	}
}

func (g *Game) now() time.Time { return g.room.Timers().Now() }

func (g *Game) displayLocked(msgType string, fields map[string]any) {
	msg := make(map[string]any, len(fields)+1)
	for k, v := range fields {
		msg[k] = v
	}
	msg["type"] = msgType
	for _, ch := range g.room.DisplayChannels() {
		if err := g.room.Broadcast(ch, msg); err != nil {
			logger.Log.Warnf("broadcast %s to %s failed: %v", msgType, ch, err)
		}
	}
}

func (g *Game) eventLocked(eventType string, data any) {
	g.events = append(g.events, models.Event{Type: eventType, At: g.now(), Data: data})
}

func (g *Game) snapshotLocked() snapshot.Snapshot {
	return snapshot.Snapshot{
		Players:       g.players,
		Team:          g.team,
		RoomType:      g.roomType,
		Rule:          g.rule,
		Level:         g.level,
		BookRoomUntil: g.bookRoomUntil,
		Countdown:     g.countdown,
		Lifes:         g.lives,
		PrepTime:      g.prepTime,
		Score:         g.score,
	}
}

func (g *Game) Snapshot() snapshot.Snapshot {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.snapshotLocked()
}

func (g *Game) saveSnapshotLocked() {
	s := g.snapshotLocked()
	if err := g.room.Snapshots().Save(&s); err != nil {
		logger.Log.Warnf("session %s snapshot not saved: %v", g.id, err)
	}
}

// Init prepares the first level and blocks until the session is prepared.
// On failure the session is torn down and must not be used.
func (g *Game) Init(ctx context.Context) error {
	var err error
	g.locked(func() { err = g.beginPreparationLocked(true) })
	if err != nil {
		return err
	}
	if err := g.awaitPreparation(ctx); err != nil {
		g.EndAndExit("initFailed")
		return fmt.Errorf("init %s > %d > L%d: %w", g.roomType, g.rule, g.level, err)
	}
	return nil
}

// beginPreparationLocked starts the booking ticker (once per session), the
// 1 Hz preparation countdown and, when greet is set, the greeting step.
func (g *Game) beginPreparationLocked(greet bool) error {
	if err := g.machine.ChangeState(state.Preparing); err != nil {
		return fmt.Errorf("prepare from %s: %w", g.machine.GetCurrentState(), err)
	}
	if _, ok := g.timers[timerBooking]; !ok {
		g.schedule(timerBooking, 0, g.cfg.BookingInterval, g.bookingTickLocked)
	}

	g.prepTime = g.prepDuration
	g.prepDone = make(chan struct{})
	g.greetDone = make(chan struct{})
	g.eventLocked("preparationStarted", map[string]int{"level": g.level})
	g.saveSnapshotLocked()

	prepDone := g.prepDone
	g.schedule(timerPreparation, 0, time.Second, func() {
		g.displayLocked(network.MsgUpdatePreparationInterval, map[string]any{"prepTime": g.prepTime})
		g.saveSnapshotLocked()
		if g.prepTime <= 0 {
			g.cancelLocked(timerPreparation)
			close(prepDone)
			return
		}
		g.prepTime--
	})

	if greet {
		greetDone := g.greetDone
		g.displayLocked(network.MsgGreeting, map[string]any{"players": g.players, "team": g.team})
		g.schedule(timerGreeting, g.cfg.GreetingDelay, 0, func() { close(greetDone) })
	} else {
		close(g.greetDone)
	}
	return nil
}

// awaitPreparation joins the preparation countdown and the greeting, then
// loads the level.
func (g *Game) awaitPreparation(ctx context.Context) error {
	g.mu.Lock()
	steps := []chan struct{}{g.prepDone, g.greetDone}
	ended := g.ended
	g.mu.Unlock()

	eg, ectx := errgroup.WithContext(ctx)
	for _, step := range steps {
		step := step
		eg.Go(func() error {
			select {
			case <-step:
				return nil
			case <-ended:
				return ErrSessionEnded
			case <-ectx.Done():
				return ectx.Err()
			}
		})
	}
	if err := eg.Wait(); err != nil {
		return err
	}

	var err error
	g.locked(func() { err = g.finishPreparationLocked() })
	return err
}

func (g *Game) finishPreparationLocked() error {
	if g.machine.Is(state.Ended) {
		return ErrSessionEnded
	}
	lc, err := g.levels.Find(g.roomType, g.rule, g.level)
	if err != nil {
		g.teardownLocked("levelNotFound")
		return err
	}
	g.current = lc
	g.timeForLevel = lc.TimeForLevel
	if g.timeForLevel <= 0 {
		g.timeForLevel = g.cfg.DefaultTimeForLevel
	}
	g.lives = lc.Lives
	if g.lives <= 0 {
		g.lives = g.cfg.DefaultLives
	}
	g.countdown = g.timeForLevel
	g.lastLifeLostAt = time.Time{}

	g.room.Grid().Blackout()
	g.engine.Load(lc, g.now())
	if err := g.rules.Setup(g.ctrl); err != nil {
		g.teardownLocked("setupFailed")
		return fmt.Errorf("setup: %w", err)
	}
	if err := g.machine.ChangeState(state.Prepared); err != nil {
		return err
	}
	g.eventLocked("prepared", map[string]int{"level": g.level, "shapes": g.engine.Len()})
	g.saveSnapshotLocked()
	return nil
}

// Start runs the prepared level. Calling it while running only warns.
func (g *Game) Start() {
	g.locked(g.startLocked)
}

func (g *Game) startLocked() {
	if g.machine.Is(state.Running) {
		logger.Log.Warnf("session %s already running, start ignored", g.id)
		return
	}
	if g.bookingExpiredLocked(g.now()) {
		g.bookingTickLocked()
		return
	}
	if err := g.machine.ChangeState(state.Running); err != nil {
		logger.Log.Warnf("session %s cannot start from %s", g.id, g.machine.GetCurrentState())
		return
	}
	now := g.now()
	if g.gameStartedAt.IsZero() {
		g.gameStartedAt = now
	}
	g.levelStartedAt = now
	g.countdown = g.timeForLevel
	g.offer = offerNone

	g.displayLocked(network.MsgNewLevelStarts, map[string]any{
		"roomType":     g.roomType,
		"rule":         g.rule,
		"level":        g.level,
		"countdown":    g.countdown,
		"timeForLevel": g.timeForLevel,
		"lifes":        g.lives,
		"score":        g.score,
	})
	g.eventLocked("levelStarted", map[string]int{"level": g.level})

	g.rules.Start(g.ctrl)
	g.schedule(timerAnimation, g.cfg.TickInterval, g.cfg.TickInterval, g.tickLocked)
	g.saveSnapshotLocked()
	g.room.Flush()
}

// tickLocked advances shapes, updates the countdown, paints and flushes.
func (g *Game) tickLocked() {
	if !g.machine.Is(state.Running) {
		return
	}
	began := time.Now()
	defer func() { g.metrics.ObserveTickLatency(time.Since(began)) }()

	now := g.now()
	if g.bookingExpiredLocked(now) {
		g.bookingTickLocked()
		return
	}
	g.engine.Advance(now)

	remaining := g.timeForLevel - int(now.Sub(g.levelStartedAt)/time.Second)
	if remaining < 0 {
		remaining = 0
	}
	if remaining != g.countdown {
		g.countdown = remaining
		g.displayLocked(network.MsgUpdateCountdown, map[string]any{"countdown": g.countdown})
		g.saveSnapshotLocked()
	}
	if g.countdown <= 0 && g.current.HasTimePressure() {
		g.displayLocked(network.MsgTimeIsUp, nil)
		g.failLevelLocked("timeIsUp")
		return
	}

	if err := g.engine.Paint(g.room.Grid()); err != nil {
		logger.Log.Errorf("session %s paint failed: %v", g.id, err)
		g.eventLocked("paintError", err.Error())
		return
	}
	g.room.Flush()
}

func (g *Game) restartCountdownLocked() {
	g.levelStartedAt = g.now()
	g.countdown = g.timeForLevel
	g.displayLocked(network.MsgUpdateCountdown, map[string]any{"countdown": g.countdown})
}

func (g *Game) removeLifeLocked() bool {
	if !g.machine.Is(state.Running) {
		return false
	}
	now := g.now()
	if !g.lastLifeLostAt.IsZero() && now.Sub(g.lastLifeLostAt) < g.cfg.LifeDebounce {
		logger.Log.Debugf("session %s life loss debounced", g.id)
		return false
	}
	g.lastLifeLostAt = now
	g.lives--
	g.displayLocked(network.MsgUpdateLifes, map[string]any{"lifes": g.lives})
	g.saveSnapshotLocked()
	if g.lives <= 0 {
		g.failLevelLocked("noLivesLeft")
	}
	return true
}

// failLevelLocked fails the running level. The state machine only lets the
// first failure through.
func (g *Game) failLevelLocked(reason string) {
	if err := g.machine.ChangeState(state.LevelFailed); err != nil {
		return
	}
	g.cancelLevelTimersLocked()
	g.metrics.IncLevelsFailed()

	elapsed := g.elapsedLocked()
	g.displayLocked(network.MsgLevelFailed, map[string]any{
		"reason":    reason,
		"countdown": g.countdown,
		"lifes":     g.lives,
	})
	g.eventLocked("levelFailed", reason)
	g.recordLocked(services.OutcomeFailed, elapsed, 0)
	g.saveSnapshotLocked()
	g.offerLocked(offerSame)
}

func (g *Game) completeLevelLocked() {
	if err := g.machine.ChangeState(state.LevelCompleted); err != nil {
		logger.Log.Warnf("session %s cannot complete from %s", g.id, g.machine.GetCurrentState())
		return
	}
	g.cancelLevelTimersLocked()
	g.metrics.IncLevelsCompleted()

	elapsed := g.elapsedLocked()
	levelScore := Score(elapsed)
	g.score += levelScore
	g.displayLocked(network.MsgLevelCompleted, map[string]any{
		"level":      g.level,
		"elapsed":    elapsed,
		"score":      levelScore,
		"totalScore": g.score,
	})
	g.eventLocked("levelCompleted", map[string]int{"elapsed": elapsed, "score": levelScore})
	g.recordLocked(services.OutcomeCompleted, elapsed, levelScore)
	g.saveSnapshotLocked()

	if g.nextLevelFitsLocked() {
		g.offerLocked(offerNext)
	} else {
		g.offerLocked(offerSame)
	}
}

// Score is the reward for a level completed in elapsed seconds.
func Score(elapsed int) int {
	score := 1000 - 2*elapsed
	if score < 100 {
		return 100
	}
	return score
}

func (g *Game) elapsedLocked() int {
	return int(g.now().Sub(g.levelStartedAt) / time.Second)
}

func (g *Game) recordLocked(outcome string, elapsed, score int) {
	g.history.Record(g.players, g.team, services.LevelResult{
		RoomID:           g.room.ID(),
		SessionID:        g.id,
		RoomType:         g.roomType,
		Rule:             g.rule,
		Level:            g.level,
		Outcome:          outcome,
		Elapsed:          elapsed,
		Score:            score,
		SessionCreatedAt: g.createdAt,
		At:               g.now(),
	})
}

// nextLevelFitsLocked reports whether a next level exists and the booking
// leaves time to prepare and play it.
func (g *Game) nextLevelFitsLocked() bool {
	next, err := g.levels.Find(g.roomType, g.rule, g.level+1)
	if err != nil {
		return false
	}
	if g.bookRoomUntil == nil {
		return true
	}
	playTime := next.TimeForLevel
	if playTime <= 0 {
		playTime = g.cfg.DefaultTimeForLevel
	}
	need := time.Duration(playTime+g.prepDuration) * time.Second
	return g.bookRoomUntil.Sub(g.now()) >= need
}

// offerLocked asks the players to continue or exit and arms the choice lights.
func (g *Game) offerLocked(kind offerKind) {
	if err := g.machine.ChangeState(state.Offering); err != nil {
		logger.Log.Warnf("session %s cannot offer from %s", g.id, g.machine.GetCurrentState())
		return
	}
	g.offer = kind
	g.waitingForChoice = true
	g.choicePressed = false

	msgType, target := network.MsgOfferSameLevel, g.level
	if kind == offerNext {
		msgType, target = network.MsgOfferNextLevel, g.level+1
	}
	g.displayLocked(msgType, map[string]any{"level": target})

	g.engine.Reset()
	grid := g.room.Grid()
	grid.Blackout()
	if cont, exit, ok := g.choiceLightsLocked(); ok {
		_ = grid.Set(cont, light.Color(g.cfg.Choice.ContinueColor), light.ClickReport)
		_ = grid.Set(exit, light.Color(g.cfg.Choice.ExitColor), light.ClickReport)
	} else {
		logger.Log.Warnf("choice group %q lacks continue/exit lights", g.cfg.Choice.Group)
	}
	g.room.Flush()
}

func (g *Game) choiceLightsLocked() (cont, exit int, ok bool) {
	ids := g.room.Grid().GroupIDs(g.cfg.Choice.Group)
	ci, ei := g.cfg.Choice.ContinueIndex, g.cfg.Choice.ExitIndex
	if ci < 0 || ei < 0 || ci >= len(ids) || ei >= len(ids) {
		return 0, 0, false
	}
	return ids[ci], ids[ei], true
}

// HandleLightClick routes a click to the choice gate or to the rules.
// whileColorWas is the color the display saw when clicked; nil uses the
// fixture's current color.
func (g *Game) HandleLightClick(lightID int, whileColorWas *light.Color) {
	g.locked(func() {
		f, ok := g.room.Grid().Fixture(lightID)
		if !ok {
			logger.Log.Warnf("click on unknown light %d ignored", lightID)
			return
		}
		if g.bookingExpiredLocked(g.now()) {
			g.bookingTickLocked()
			return
		}
		color := f.Color
		if whileColorWas != nil {
			color = *whileColorWas
		}

		switch {
		case g.machine.Is(state.Offering) && g.waitingForChoice:
			g.handleChoiceLocked(lightID, color)
		case g.machine.Is(state.Offering):
			logger.Log.Debugf("choice already made, click on %d ignored", lightID)
		case g.machine.Is(state.Running):
			g.rules.HandleLightAction(g.ctrl, f, color)
		default:
			logger.Log.Debugf("click on %d ignored while %s", lightID, g.machine.GetCurrentState())
		}
	})
}

func (g *Game) handleChoiceLocked(lightID int, color light.Color) {
	cont, exit, ok := g.choiceLightsLocked()
	if !ok || g.choicePressed {
		return
	}
	switch {
	case lightID == cont && color == light.Color(g.cfg.Choice.ContinueColor):
		g.choicePressed = true
		g.waitingForChoice = false
		if g.offer == offerNext {
			g.level++
		}
		g.eventLocked("continue", g.offer.String())
		g.room.Grid().Blackout()
		g.room.Flush()
		if err := g.beginPreparationLocked(false); err != nil {
			logger.Log.Errorf("session %s cannot restart preparation: %v", g.id, err)
			g.teardownLocked("prepareFailed")
			return
		}
		go g.continueAfterPreparation()
	case lightID == exit && color == light.Color(g.cfg.Choice.ExitColor):
		g.choicePressed = true
		g.waitingForChoice = false
		g.teardownLocked("exit")
	default:
		logger.Log.Debugf("click on %d is not a choice light", lightID)
	}
}

func (g *Game) continueAfterPreparation() {
	if err := g.awaitPreparation(context.Background()); err != nil {
		if !errors.Is(err, ErrSessionEnded) {
			logger.Log.Errorf("session %s preparation failed: %v", g.id, err)
		}
		g.EndAndExit("prepareFailed")
		return
	}
	g.Start()
}

// HandleMessage forwards a display message to rules that listen.
func (g *Game) HandleMessage(msgType string, raw []byte) {
	h, ok := g.rules.(MessageHandler)
	if !ok {
		logger.Log.Debugf("message %s ignored by %s", msgType, g.roomType)
		return
	}
	g.locked(func() {
		if g.machine.Is(state.Ended) {
			return
		}
		if g.bookingExpiredLocked(g.now()) {
			g.bookingTickLocked()
			return
		}
		h.HandleMessage(g.ctrl, msgType, raw)
	})
}

// bookingTickLocked enforces the booking deadline and the players' facility
// sessions, whatever the game state.
func (g *Game) bookingTickLocked() {
	if g.machine.Is(state.Ended) {
		return
	}
	now := g.now()
	for _, p := range g.players {
		if p != nil && p.FacilitySession.Expired(now) {
			logger.Log.Infof("session %s: facility session of %s expired", g.id, p.ID)
			g.teardownLocked("facilitySessionExpired")
			return
		}
	}
	if g.bookRoomUntil == nil {
		return
	}

	remaining := g.bookRoomUntil.Sub(now)
	if remaining <= 0 {
		g.displayLocked(network.MsgBookRoomExpired, nil)
		g.teardownLocked("bookRoomExpired")
		return
	}
	secs := int(math.Ceil(remaining.Seconds()))
	g.displayLocked(network.MsgBookRoomCountdown, map[string]any{"remaining": secs})
	if !g.warned && remaining <= g.cfg.BookingWarning {
		g.warned = true
		g.displayLocked(network.MsgBookRoomWarning, map[string]any{"remaining": secs})
		go g.checkUpcoming()
	}
}

func (g *Game) bookingExpiredLocked(now time.Time) bool {
	return g.bookRoomUntil != nil && !now.Before(*g.bookRoomUntil)
}

func (g *Game) checkUpcoming() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	upcoming, err := g.room.Facility().UpcomingSession(ctx)
	if err != nil {
		logger.Log.Warnf("upcoming session check failed: %v", err)
		return
	}
	g.locked(func() {
		if !g.machine.Is(state.Ended) {
			g.displayLocked(network.MsgIsUpcomingGameSession, map[string]any{"upcoming": upcoming})
		}
	})
}

// EndAndExit tears the session down. Only the first call has any effect.
func (g *Game) EndAndExit(reason string) {
	g.locked(func() { g.teardownLocked(reason) })
}

// teardownLocked cancels every timer before touching the lights, then
// clears the snapshot and queues the room release.
func (g *Game) teardownLocked(reason string) {
	if g.machine.Is(state.Ended) {
		return
	}
	for name := range g.timers {
		g.cancelLocked(name)
	}
	if err := g.machine.ChangeState(state.Ended); err != nil {
		return
	}
	close(g.ended)
	g.waitingForChoice = false

	g.engine.Reset()
	g.room.Grid().Blackout()
	g.room.Flush()
	if err := g.room.Snapshots().Clear(); err != nil {
		logger.Log.Warnf("session %s snapshot not cleared: %v", g.id, err)
	}
	g.displayLocked(network.MsgEndAndExit, map[string]any{"reason": reason})
	g.eventLocked("ended", reason)
	logger.Log.Infof("session %s ended: %s", g.id, reason)

	if !g.gameStartedAt.IsZero() {
		started := g.gameStartedAt
		g.pendingReport = &facility.SessionReport{
			SessionID:     g.id,
			RoomType:      g.roomType,
			Rule:          g.rule,
			Level:         g.level,
			Score:         g.score,
			Reason:        reason,
			Players:       g.players,
			Team:          g.team,
			StartedAt:     &started,
			EndedAt:       g.now(),
			Events:        append([]models.Event(nil), g.events...),
			BookRoomUntil: g.bookRoomUntil,
		}
	}
	g.releasePending = true
}
