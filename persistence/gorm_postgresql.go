// persistence/gorm_postgresql.go
package persistence

import (
	"errors"
	"log"
	"os"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/tankTopTaro/greyzone-game-room-app/config"
	"github.com/tankTopTaro/greyzone-game-room-app/models"
)

// GormPostgreSQL 使用GORM的PostgreSQL实现
type GormPostgreSQL struct {
	db *gorm.DB
}

// NewGormPostgreSQL 创建GORM PostgreSQL数据库连接
func NewGormPostgreSQL(c config.PostgresConfig) (*GormPostgreSQL, error) {
	// 配置GORM日志
	gormLogger := gormlogger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags), // io writer
		gormlogger.Config{
			SlowThreshold: time.Second,       // 慢SQL阈值
			LogLevel:      gormlogger.Silent, // 日志级别
			Colorful:      false,             // 禁用彩色打印
		},
	)

	db, err := gorm.Open(postgres.Open(dsn(c)), &gorm.Config{
		Logger: gormLogger,
	})
	if err != nil {
		return nil, err
	}

	// 获取通用数据库对象 sql.DB
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	// 设置连接池
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetMaxOpenConns(10)
	sqlDB.SetConnMaxLifetime(time.Hour)

	// 自动迁移表结构
	if err := db.AutoMigrate(&models.GormSnapshot{}, &models.GormGameRecord{}); err != nil {
		return nil, err
	}

	return &GormPostgreSQL{db: db}, nil
}

func (p *GormPostgreSQL) SaveSnapshot(roomID string, data []byte) error {
	var snap models.GormSnapshot
	result := p.db.Where("room_id = ?", roomID).First(&snap)

	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		// 创建新记录
		snap = models.GormSnapshot{RoomID: roomID, Data: data}
		return p.db.Create(&snap).Error
	} else if result.Error != nil {
		return result.Error
	}

	// 更新现有记录
	snap.Data = data
	return p.db.Save(&snap).Error
}

func (p *GormPostgreSQL) LoadSnapshot(roomID string) ([]byte, error) {
	var snap models.GormSnapshot
	if err := p.db.Where("room_id = ?", roomID).First(&snap).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}
	return snap.Data, nil
}

func (p *GormPostgreSQL) DeleteSnapshot(roomID string) error {
	return p.db.Unscoped().Where("room_id = ?", roomID).Delete(&models.GormSnapshot{}).Error
}

// SaveGameRecord 保存游戏记录
func (p *GormPostgreSQL) SaveGameRecord(record models.GameRecord) error {
	return p.db.Create(models.NewGormGameRecord(record)).Error
}

// Transaction 事务支持
func (p *GormPostgreSQL) Transaction(fn func(tx *gorm.DB) error) error {
	return p.db.Transaction(fn)
}

// Close 关闭数据库连接
func (p *GormPostgreSQL) Close() error {
	sqlDB, err := p.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
