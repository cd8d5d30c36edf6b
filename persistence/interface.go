// persistence/interface.go
package persistence

import (
	"fmt"

	"github.com/tankTopTaro/greyzone-game-room-app/models"
)

// Database 数据库接口
type Database interface {
	SaveSnapshot(roomID string, data []byte) error
	LoadSnapshot(roomID string) ([]byte, error)
	DeleteSnapshot(roomID string) error
	SaveGameRecord(record models.GameRecord) error
	Close() error
}

// 错误定义
var (
	ErrRecordNotFound = fmt.Errorf("record not found")
)
