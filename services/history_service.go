// services/history_service.go
package services

import (
	"time"

	"github.com/tankTopTaro/greyzone-game-room-app/logger"
	"github.com/tankTopTaro/greyzone-game-room-app/models"
	"github.com/tankTopTaro/greyzone-game-room-app/persistence"
)

// Outcome of a level.
const (
	OutcomeCompleted = "completed"
	OutcomeFailed    = "failed"
)

// LevelResult describes one finished level.
type LevelResult struct {
	RoomID           string
	SessionID        string
	RoomType         string
	Rule             int
	Level            int
	Outcome          string
	Elapsed          int // seconds
	Score            int
	SessionCreatedAt time.Time
	At               time.Time
}

// HistoryService updates the games history of players and teams. Records
// are also archived when a database is configured.
type HistoryService struct {
	db persistence.Database
}

func NewHistoryService(db persistence.Database) *HistoryService {
	return &HistoryService{db: db}
}

// Record applies r to the team and every player.
func (s *HistoryService) Record(players []*models.Player, team *models.Team, r LevelResult) {
	key := models.HistoryKey(r.RoomType, r.Rule, r.Level)
	event := models.Event{Type: r.Outcome, Key: key, At: r.At, Data: map[string]int{"score": r.Score, "elapsed": r.Elapsed}}

	ids := make([]string, 0, len(players))
	for _, p := range players {
		if p == nil {
			continue
		}
		if p.GamesHistory == nil {
			p.GamesHistory = make(map[string]*models.HistoryEntry)
		}
		applyResult(p.GamesHistory, key, r)
		p.EventsToDebrief = append(p.EventsToDebrief, event)
		ids = append(ids, p.ID)
	}

	teamName := ""
	if team != nil {
		if team.GamesHistory == nil {
			team.GamesHistory = make(map[string]*models.HistoryEntry)
		}
		applyResult(team.GamesHistory, key, r)
		team.EventsToDebrief = append(team.EventsToDebrief, event)
		teamName = team.Name
	}

	if s == nil || s.db == nil {
		return
	}
	record := models.GameRecord{
		RoomID:    r.RoomID,
		SessionID: r.SessionID,
		RoomType:  r.RoomType,
		Rule:      r.Rule,
		Level:     r.Level,
		Outcome:   r.Outcome,
		Score:     r.Score,
		Elapsed:   r.Elapsed,
		Players:   ids,
		Team:      teamName,
		CreatedAt: r.At,
	}
	go func() {
		if err := s.db.SaveGameRecord(record); err != nil {
			logger.Log.Warnf("archiving game record for %s failed: %v", key, err)
		}
	}()
}

// applyResult counts the play and, on completion, keeps the best time.
// The same-day counter restarts when the session was created on another day.
func applyResult(history map[string]*models.HistoryEntry, key string, r LevelResult) {
	entry, ok := history[key]
	if !ok {
		entry = &models.HistoryEntry{}
		history[key] = entry
	}

	if r.Outcome == OutcomeCompleted {
		if entry.BestTime == nil || r.Elapsed < *entry.BestTime {
			best := r.Elapsed
			entry.BestTime = &best
		}
	}

	entry.TimesPlayed++
	if !sameDay(r.SessionCreatedAt, r.At) {
		entry.TimesPlayedToday = 0
	}
	entry.TimesPlayedToday++
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.In(a.Location()).Date()
	return ay == by && am == bm && ad == bd
}
