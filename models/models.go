// models/models.go
package models

import (
	"fmt"
	"time"
)

// FacilitySession is the player's paid session at the facility.
type FacilitySession struct {
	DateEnd *time.Time `json:"date_end,omitempty"`
}

// Expired reports whether the facility session ended before now. A session
// without an end date never expires.
func (f FacilitySession) Expired(now time.Time) bool {
	return f.DateEnd != nil && now.After(*f.DateEnd)
}

// HistoryEntry 单个关卡的历史记录
type HistoryEntry struct {
	BestTime         *int `json:"best_time"` // seconds, nil until a completion
	TimesPlayed      int  `json:"times_played"`
	TimesPlayedToday int  `json:"times_played_today"`
}

// Event is one debrief entry recorded during a session.
type Event struct {
	Type string    `json:"type"`
	Key  string    `json:"key,omitempty"`
	At   time.Time `json:"at"`
	Data any       `json:"data,omitempty"`
}

// Player 玩家数据模型
type Player struct {
	ID              string                   `json:"id"`
	NickName        string                   `json:"nick_name"`
	FirstName       string                   `json:"first_name,omitempty"`
	LastName        string                   `json:"last_name,omitempty"`
	Gender          string                   `json:"gender,omitempty"`
	BirthDate       string                   `json:"birth_date,omitempty"`
	League          map[string]any           `json:"league,omitempty"`
	FacilitySession FacilitySession          `json:"facility_session"`
	GamesHistory    map[string]*HistoryEntry `json:"games_history"`
	EventsToDebrief []Event                  `json:"events_to_debrief"`
}

// Team 队伍数据模型
type Team struct {
	ID              string                   `json:"id"`
	Name            string                   `json:"name"`
	GamesHistory    map[string]*HistoryEntry `json:"games_history"`
	EventsToDebrief []Event                  `json:"events_to_debrief"`
}

// HistoryKey identifies a level in a games history map.
func HistoryKey(roomType string, rule, level int) string {
	return fmt.Sprintf("%s > %d > L%d", roomType, rule, level)
}

// GameRecord 游戏记录模型, one finished level.
type GameRecord struct {
	RoomID    string    `json:"room_id"`
	SessionID string    `json:"session_id"`
	RoomType  string    `json:"room_type"`
	Rule      int       `json:"rule"`
	Level     int       `json:"level"`
	Outcome   string    `json:"outcome"` // completed/failed
	Score     int       `json:"score"`
	Elapsed   int       `json:"elapsed"` // seconds
	Players   []string  `json:"players"`
	Team      string    `json:"team,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
