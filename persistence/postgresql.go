// persistence/postgresql.go
package persistence

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/lib/pq" // PostgreSQL 驱动

	"github.com/tankTopTaro/greyzone-game-room-app/config"
	"github.com/tankTopTaro/greyzone-game-room-app/models"
)

// PostgreSQL 数据库实现
type PostgreSQL struct {
	db *sql.DB
}

func dsn(c config.PostgresConfig) string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		c.Host, c.Port, c.User, c.Password, c.DBName)
}

// NewPostgreSQL 创建 PostgreSQL 数据库连接
func NewPostgreSQL(c config.PostgresConfig) (*PostgreSQL, error) {
	db, err := sql.Open("postgres", dsn(c))
	if err != nil {
		return nil, err
	}

	// 测试连接
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}

	// 设置连接池参数
	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	// 初始化表结构
	if err := initTables(db); err != nil {
		db.Close()
		return nil, err
	}

	return &PostgreSQL{db: db}, nil
}

// initTables 初始化数据库表结构
func initTables(db *sql.DB) error {
	_, err := db.Exec(`
        CREATE TABLE IF NOT EXISTS room_snapshots (
            id SERIAL PRIMARY KEY,
            room_id VARCHAR(255) UNIQUE NOT NULL,
            data JSONB NOT NULL,
            created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
            updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
        )
    `)
	if err != nil {
		return err
	}

	// 创建游戏记录表
	_, err = db.Exec(`
        CREATE TABLE IF NOT EXISTS game_records (
            id SERIAL PRIMARY KEY,
            room_id VARCHAR(255) NOT NULL,
            session_id VARCHAR(64) NOT NULL,
            room_type VARCHAR(100) NOT NULL,
            rule INT NOT NULL,
            level INT NOT NULL,
            outcome VARCHAR(20) NOT NULL,
            score INT NOT NULL DEFAULT 0,
            elapsed INT NOT NULL DEFAULT 0,
            players JSONB NOT NULL,
            team VARCHAR(255),
            created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
        )
    `)
	if err != nil {
		return err
	}

	// 创建索引以提高查询性能
	_, err = db.Exec(`
        CREATE INDEX IF NOT EXISTS idx_game_records_room_id ON game_records(room_id);
        CREATE INDEX IF NOT EXISTS idx_game_records_created_at ON game_records(created_at);
    `)

	return err
}

func (p *PostgreSQL) SaveSnapshot(roomID string, data []byte) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// 使用 UPSERT 操作 (PostgreSQL 9.5+)
	query := `
        INSERT INTO room_snapshots (room_id, data)
        VALUES ($1, $2)
        ON CONFLICT (room_id)
        DO UPDATE SET data = $2, updated_at = CURRENT_TIMESTAMP
    `

	_, err := p.db.ExecContext(ctx, query, roomID, data)
	return err
}

func (p *PostgreSQL) LoadSnapshot(roomID string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var data []byte
	query := `SELECT data FROM room_snapshots WHERE room_id = $1`
	err := p.db.QueryRowContext(ctx, query, roomID).Scan(&data)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}
	return data, nil
}

func (p *PostgreSQL) DeleteSnapshot(roomID string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := p.db.ExecContext(ctx, `DELETE FROM room_snapshots WHERE room_id = $1`, roomID)
	return err
}

// SaveGameRecord 保存游戏记录
func (p *PostgreSQL) SaveGameRecord(record models.GameRecord) error {
	players, err := json.Marshal(record.Players)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	query := `
        INSERT INTO game_records (room_id, session_id, room_type, rule, level, outcome, score, elapsed, players, team)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
    `

	_, err = p.db.ExecContext(ctx, query,
		record.RoomID,
		record.SessionID,
		record.RoomType,
		record.Rule,
		record.Level,
		record.Outcome,
		record.Score,
		record.Elapsed,
		players,
		record.Team)

	return err
}

// Close 关闭数据库连接
func (p *PostgreSQL) Close() error {
	return p.db.Close()
}
