// models/gorm_models.go
package models

import (
	"gorm.io/gorm"
)

// GormSnapshot 房间快照模型, at most one row per room.
type GormSnapshot struct {
	gorm.Model
	RoomID string `gorm:"uniqueIndex;not null"`
	Data   []byte `gorm:"type:jsonb;not null"`
}

// GormGameRecord 游戏记录模型
type GormGameRecord struct {
	gorm.Model
	RoomID    string   `gorm:"index;not null"`
	SessionID string   `gorm:"index;not null"`
	RoomType  string   `gorm:"not null"`
	Rule      int      `gorm:"not null"`
	Level     int      `gorm:"not null"`
	Outcome   string   `gorm:"not null"`
	Score     int      `gorm:"default:0"`
	Elapsed   int      `gorm:"default:0"` // 游戏时长(秒)
	Players   []string `gorm:"type:jsonb;serializer:json"`
	Team      string
}

func NewGormGameRecord(r GameRecord) *GormGameRecord {
	return &GormGameRecord{
		RoomID:    r.RoomID,
		SessionID: r.SessionID,
		RoomType:  r.RoomType,
		Rule:      r.Rule,
		Level:     r.Level,
		Outcome:   r.Outcome,
		Score:     r.Score,
		Elapsed:   r.Elapsed,
		Players:   r.Players,
		Team:      r.Team,
	}
}
