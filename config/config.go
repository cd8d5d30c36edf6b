package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Log      LogConfig      `mapstructure:"log"`
	Room     RoomConfig     `mapstructure:"room"`
	Game     GameConfig     `mapstructure:"game"`
	Snapshot SnapshotConfig `mapstructure:"snapshot"`
	Database DatabaseConfig `mapstructure:"database"`
	Facility FacilityConfig `mapstructure:"facility"`
}

type ServerConfig struct {
	HTTPAddress    string `mapstructure:"http_address"`
	RPCAddress     string `mapstructure:"rpc_address"`
	MetricsAddress string `mapstructure:"metrics_address"`
}

type LogConfig struct {
	Level      string `mapstructure:"level"`
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
}

// RoomConfig describes the physical room this process drives.
type RoomConfig struct {
	ID              string         `mapstructure:"id"`
	Type            string         `mapstructure:"type"`
	MonitorChannel  string         `mapstructure:"monitor_channel"`
	ScreenChannel   string         `mapstructure:"screen_channel"`
	TimerResolution time.Duration  `mapstructure:"timer_resolution"`
	Matrices        []MatrixConfig `mapstructure:"matrices"`
}

// MatrixConfig lays out a rectangular block of identical fixtures.
// Width and Height are the extent of the whole block; tiles are placed
// every TileWidth+SpacingX (resp. TileHeight+SpacingY) units.
type MatrixConfig struct {
	X          float64 `mapstructure:"x"`
	Y          float64 `mapstructure:"y"`
	Shape      string  `mapstructure:"shape"`
	Type       string  `mapstructure:"type"`
	Width      float64 `mapstructure:"w"`
	Height     float64 `mapstructure:"h"`
	TileWidth  float64 `mapstructure:"tile_w"`
	TileHeight float64 `mapstructure:"tile_h"`
	SpacingX   float64 `mapstructure:"spacing_x"`
	SpacingY   float64 `mapstructure:"spacing_y"`
	Group      string  `mapstructure:"group"`
	Animated   bool    `mapstructure:"animated"`
}

type GameConfig struct {
	TickInterval        time.Duration `mapstructure:"tick_interval"`
	BookingInterval     time.Duration `mapstructure:"booking_interval"`
	BookingWarning      time.Duration `mapstructure:"booking_warning"`
	PrepDuration        int           `mapstructure:"prep_duration"`
	GreetingDelay       time.Duration `mapstructure:"greeting_delay"`
	LifeDebounce        time.Duration `mapstructure:"life_debounce"`
	DefaultLives        int           `mapstructure:"default_lives"`
	DefaultTimeForLevel int           `mapstructure:"default_time_for_level"`
	Seed                int64         `mapstructure:"seed"`
	LevelsFile          string        `mapstructure:"levels_file"`
	Choice              ChoiceConfig  `mapstructure:"choice"`
}

// ChoiceConfig designates the two lights armed after a level ends.
type ChoiceConfig struct {
	Group         string   `mapstructure:"group"`
	ContinueIndex int      `mapstructure:"continue_index"`
	ExitIndex     int      `mapstructure:"exit_index"`
	ContinueColor [3]uint8 `mapstructure:"continue_color"`
	ExitColor     [3]uint8 `mapstructure:"exit_color"`
}

type SnapshotConfig struct {
	// Backend is one of "file", "memory", "postgres" or "gorm".
	Backend string `mapstructure:"backend"`
	Path    string `mapstructure:"path"`
}

type DatabaseConfig struct {
	Postgres PostgresConfig `mapstructure:"postgres"`
}

type PostgresConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
}

type FacilityConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.http_address", ":3002")
	v.SetDefault("server.rpc_address", ":3003")
	v.SetDefault("server.metrics_address", ":9102")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.max_size_mb", 10)
	v.SetDefault("log.max_backups", 3)
	v.SetDefault("log.max_age_days", 7)

	v.SetDefault("room.type", "DoubleGrid")
	v.SetDefault("room.monitor_channel", "monitor")
	v.SetDefault("room.screen_channel", "room-screen")
	v.SetDefault("room.timer_resolution", 10*time.Millisecond)

	v.SetDefault("game.tick_interval", 40*time.Millisecond)
	v.SetDefault("game.booking_interval", time.Second)
	v.SetDefault("game.booking_warning", 3*time.Minute)
	v.SetDefault("game.prep_duration", 5)
	v.SetDefault("game.greeting_delay", 2*time.Second)
	v.SetDefault("game.life_debounce", 2*time.Second)
	v.SetDefault("game.default_lives", 5)
	v.SetDefault("game.default_time_for_level", 60)
	v.SetDefault("game.levels_file", "levels.yaml")
	v.SetDefault("game.choice.group", "wallButtons")
	v.SetDefault("game.choice.continue_index", 0)
	v.SetDefault("game.choice.exit_index", 1)
	v.SetDefault("game.choice.continue_color", []int{0, 255, 0})
	v.SetDefault("game.choice.exit_color", []int{255, 0, 0})

	v.SetDefault("snapshot.backend", "file")
	v.SetDefault("snapshot.path", "game_states.json")

	v.SetDefault("facility.timeout", 3*time.Second)
}

// LoadConfig reads config.yaml from path. Environment variables override
// file values, e.g. GRA_SERVER_HTTP_ADDRESS.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.SetEnvPrefix("gra")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.Room.MonitorChannel == "" {
		return fmt.Errorf("%w: room.monitor_channel is empty", ErrInvalidConfig)
	}
	if c.Room.TimerResolution <= 0 {
		return fmt.Errorf("%w: room.timer_resolution must be positive", ErrInvalidConfig)
	}
	if c.Game.TickInterval <= 0 || c.Game.TickInterval > 100*time.Millisecond {
		return fmt.Errorf("%w: game.tick_interval must be in (0, 100ms]", ErrInvalidConfig)
	}
	if c.Game.BookingInterval < time.Second {
		return fmt.Errorf("%w: game.booking_interval must be at least 1s", ErrInvalidConfig)
	}
	if c.Game.DefaultLives <= 0 {
		return fmt.Errorf("%w: game.default_lives must be positive", ErrInvalidConfig)
	}
	if c.Game.Choice.ContinueIndex == c.Game.Choice.ExitIndex {
		return fmt.Errorf("%w: continue and exit choice lights must differ", ErrInvalidConfig)
	}
	switch c.Snapshot.Backend {
	case "file", "memory", "postgres", "gorm":
	default:
		return fmt.Errorf("%w: unknown snapshot backend %q", ErrInvalidConfig, c.Snapshot.Backend)
	}
	return nil
}
