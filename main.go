package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tankTopTaro/greyzone-game-room-app/config"
	"github.com/tankTopTaro/greyzone-game-room-app/facility"
	"github.com/tankTopTaro/greyzone-game-room-app/game"
	"github.com/tankTopTaro/greyzone-game-room-app/logger"
	"github.com/tankTopTaro/greyzone-game-room-app/monitor"
	"github.com/tankTopTaro/greyzone-game-room-app/persistence"
	"github.com/tankTopTaro/greyzone-game-room-app/room"
	"github.com/tankTopTaro/greyzone-game-room-app/rpc"
	"github.com/tankTopTaro/greyzone-game-room-app/server"
	"github.com/tankTopTaro/greyzone-game-room-app/services"
	"github.com/tankTopTaro/greyzone-game-room-app/snapshot"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig(".")
	if err != nil {
		logger.Init(logger.Options{})
		logger.Log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger.Init(logger.Options{
		Level:      cfg.Log.Level,
		File:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
	})
	defer logger.Sync()

	levels, err := config.LoadLevels(cfg.Game.LevelsFile)
	if err != nil {
		logger.Log.Errorf("No levels loaded: %v", err)
		levels = config.NewLevels(nil)
	}

	// Initialize snapshot storage and database
	store, db, err := openSnapshots(cfg)
	if err != nil {
		logger.Log.Fatalf("Failed to open snapshot store: %v", err)
	}
	if db != nil {
		defer db.Close()
		logger.Log.Info("Database connection successful.")
	}
	if s, err := store.Load(); err == nil {
		logger.Log.Infof("Found a stored %s > %d > L%d session, replaying it to monitors", s.RoomType, s.Rule, s.Level)
	} else if !errors.Is(err, snapshot.ErrNoSnapshot) {
		logger.Log.Warnf("Stored session unreadable: %v", err)
	}

	metrics := monitor.NewMonitor("greyzone")
	if cfg.Server.MetricsAddress != "" {
		metrics.StartServer(cfg.Server.MetricsAddress)
	}

	games := game.NewManager(cfg.Game, levels, services.NewHistoryService(db), metrics)
	if _, ok := games.Resolve(cfg.Room.Type); !ok {
		logger.Log.Warnf("Room type %q matches no game variant; available: %v", cfg.Room.Type, games.Variants())
	}

	rm := room.NewRoom(cfg.Room, room.Deps{
		Games:     games,
		Snapshots: store,
		Facility:  facility.New(cfg.Facility.BaseURL, cfg.Room.ID, cfg.Facility.Timeout),
		Metrics:   metrics,
		Heartbeat: 30 * time.Second,
	})

	rpcServer, err := rpc.NewServer(cfg.Server.RPCAddress, rpc.NewRoomService(rm))
	if err != nil {
		logger.Log.Fatalf("Failed to create RPC server: %v", err)
	}
	go rpcServer.Start()

	// Initialize Game Server
	gameServer := server.NewGameServer(cfg.Server.HTTPAddress, rm)
	go func() {
		if err := gameServer.Start(); err != nil {
			logger.Log.Fatalf("Failed to start server: %v", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	logger.Log.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := gameServer.Shutdown(shutdownCtx); err != nil {
		logger.Log.Warnf("HTTP shutdown: %v", err)
	}
	rpcServer.Stop()
	rm.Close()
}

// openSnapshots picks the snapshot backend. Database backends also archive
// game records.
func openSnapshots(cfg *config.Config) (snapshot.Store, persistence.Database, error) {
	switch cfg.Snapshot.Backend {
	case "memory":
		return snapshot.NewMemoryStore(), nil, nil
	case "postgres":
		db, err := persistence.NewPostgreSQL(cfg.Database.Postgres)
		if err != nil {
			return nil, nil, err
		}
		return persistence.NewSnapshotStore(db, cfg.Room.ID), db, nil
	case "gorm":
		db, err := persistence.NewGormPostgreSQL(cfg.Database.Postgres)
		if err != nil {
			return nil, nil, err
		}
		return persistence.NewSnapshotStore(db, cfg.Room.ID), db, nil
	default:
		return snapshot.NewFileStore(cfg.Snapshot.Path), nil, nil
	}
}
