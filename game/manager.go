package game

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/tankTopTaro/greyzone-game-room-app/config"
	"github.com/tankTopTaro/greyzone-game-room-app/logger"
	"github.com/tankTopTaro/greyzone-game-room-app/monitor"
	"github.com/tankTopTaro/greyzone-game-room-app/services"
)

// variant is a registered game kind. newRules fails for rules the variant
// does not implement.
type variant struct {
	name     string
	newRules func(rule int) (Rules, error)
}

var variants = map[string]variant{
	"doublegrid": {name: "DoubleGrid", newRules: newDoubleGrid},
	"basketball": {name: "Basketball", newRules: newBasketball},
}

// Manager builds sessions for a room.
type Manager struct {
	cfg     config.GameConfig
	levels  *config.Levels
	history *services.HistoryService
	metrics *monitor.Monitor
}

func NewManager(cfg config.GameConfig, levels *config.Levels, history *services.HistoryService, metrics *monitor.Monitor) *Manager {
	if levels == nil {
		levels = config.NewLevels(nil)
	}
	return &Manager{cfg: cfg, levels: levels, history: history, metrics: metrics}
}

// Variants lists the playable room types.
func (m *Manager) Variants() []string {
	names := make([]string, 0, len(variants))
	for _, v := range variants {
		names = append(names, v.name)
	}
	sort.Strings(names)
	return names
}

// Resolve maps a room type, in any case, to its variant name.
func (m *Manager) Resolve(roomType string) (string, bool) {
	v, ok := variants[strings.ToLower(strings.TrimSpace(roomType))]
	return v.name, ok
}

// LoadGame builds the session for p and initializes it. The session is
// returned only once prepared; on any error nothing is left running.
func (m *Manager) LoadGame(ctx context.Context, room RoomContext, p Params) (Session, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}
	v, ok := variants[strings.ToLower(strings.TrimSpace(p.RoomType))]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownVariant, p.RoomType)
	}
	rules, err := v.newRules(p.Rule)
	if err != nil {
		return nil, err
	}
	if !m.levels.Has(v.name, p.Rule, p.Level) {
		return nil, fmt.Errorf("%s > %d > L%d: %w", v.name, p.Rule, p.Level, config.ErrLevelNotFound)
	}

	logger.Log.Infof("loading %s > %d > L%d for %d players", v.name, p.Rule, p.Level, len(p.Players))
	g := newGame(v.name, rules, p, m, room)
	if err := g.Init(ctx); err != nil {
		return nil, err
	}
	return g, nil
}
