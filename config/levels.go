package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// LevelConfig is one playable level of a rule of a room type.
type LevelConfig struct {
	RoomType     string        `mapstructure:"room_type"`
	Rule         int           `mapstructure:"rule"`
	Level        int           `mapstructure:"level"`
	TimeForLevel int           `mapstructure:"time_for_level"`
	Lives        int           `mapstructure:"lives"`
	TimePressure *bool         `mapstructure:"time_pressure"`
	Shapes       []ShapeConfig `mapstructure:"shapes"`
}

// HasTimePressure reports whether running out of countdown fails the level.
func (l LevelConfig) HasTimePressure() bool {
	return l.TimePressure == nil || *l.TimePressure
}

type ShapeConfig struct {
	X       float64       `mapstructure:"x"`
	Y       float64       `mapstructure:"y"`
	Width   float64       `mapstructure:"w"`
	Height  float64       `mapstructure:"h"`
	Kind    string        `mapstructure:"kind"`
	Color   [3]uint8      `mapstructure:"color"`
	OnClick string        `mapstructure:"on_click"`
	Path    []PointConfig `mapstructure:"path"`
	Speed   float64       `mapstructure:"speed"`
	Group   string        `mapstructure:"group"`
	TTL     time.Duration `mapstructure:"ttl"`
	Layer   int           `mapstructure:"layer"`
}

type PointConfig struct {
	X float64 `mapstructure:"x"`
	Y float64 `mapstructure:"y"`
}

// Levels indexes level configs by room type (case-insensitive), rule and level.
type Levels struct {
	index map[string]LevelConfig
}

func levelKey(roomType string, rule, level int) string {
	return fmt.Sprintf("%s/%d/%d", strings.ToLower(roomType), rule, level)
}

func NewLevels(levels []LevelConfig) *Levels {
	l := &Levels{index: make(map[string]LevelConfig, len(levels))}
	for _, lc := range levels {
		l.index[levelKey(lc.RoomType, lc.Rule, lc.Level)] = lc
	}
	return l
}

// LoadLevels reads the levels file (yaml or json, by extension).
func LoadLevels(file string) (*Levels, error) {
	v := viper.New()
	v.SetConfigFile(file)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read levels %s: %w", file, err)
	}
	var doc struct {
		Levels []LevelConfig `mapstructure:"levels"`
	}
	if err := v.Unmarshal(&doc); err != nil {
		return nil, fmt.Errorf("decode levels %s: %w", file, err)
	}
	return NewLevels(doc.Levels), nil
}

func (l *Levels) Find(roomType string, rule, level int) (LevelConfig, error) {
	if l != nil {
		if lc, ok := l.index[levelKey(roomType, rule, level)]; ok {
			return lc, nil
		}
	}
	return LevelConfig{}, fmt.Errorf("%w: %s > %d > L%d", ErrLevelNotFound, roomType, rule, level)
}

func (l *Levels) Has(roomType string, rule, level int) bool {
	_, err := l.Find(roomType, rule, level)
	return err == nil
}
