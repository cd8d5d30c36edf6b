package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

const testConfig = `
server:
  http_address: ":4000"
room:
  type: Basketball
  matrices:
    - x: 10
      y: 10
      shape: rectangle
      type: ledSwitch
      w: 100
      h: 50
      tile_w: 20
      tile_h: 20
      spacing_x: 5
      spacing_y: 5
      group: mainFloor
      animated: true
game:
  tick_interval: 50ms
  choice:
    continue_color: [0, 0, 255]
`

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "config.yaml", testConfig)

	cfg, err := LoadConfig(dir)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Server.HTTPAddress != ":4000" {
		t.Errorf("Expected http address :4000, got %s", cfg.Server.HTTPAddress)
	}
	if cfg.Room.Type != "Basketball" {
		t.Errorf("Expected room type Basketball, got %s", cfg.Room.Type)
	}
	if len(cfg.Room.Matrices) != 1 || cfg.Room.Matrices[0].Group != "mainFloor" || !cfg.Room.Matrices[0].Animated {
		t.Errorf("Unexpected matrices: %+v", cfg.Room.Matrices)
	}
	if cfg.Game.TickInterval != 50*time.Millisecond {
		t.Errorf("Expected tick interval 50ms, got %v", cfg.Game.TickInterval)
	}
	if cfg.Game.DefaultLives != 5 {
		t.Errorf("Expected default lives 5, got %d", cfg.Game.DefaultLives)
	}
	if cfg.Game.Choice.ContinueColor != [3]uint8{0, 0, 255} {
		t.Errorf("Expected continue color override, got %v", cfg.Game.Choice.ContinueColor)
	}
	if cfg.Game.Choice.ExitColor != [3]uint8{255, 0, 0} {
		t.Errorf("Expected default exit color, got %v", cfg.Game.Choice.ExitColor)
	}
	if cfg.Snapshot.Backend != "file" {
		t.Errorf("Expected file snapshot backend, got %s", cfg.Snapshot.Backend)
	}
}

func TestLoadConfig_Missing(t *testing.T) {
	if _, err := LoadConfig(t.TempDir()); err == nil {
		t.Fatal("Expected an error for a missing config file")
	}
}

func TestValidate(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "config.yaml", testConfig)
	cfg, err := LoadConfig(dir)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	cfg.Game.TickInterval = 200 * time.Millisecond
	if err := cfg.Validate(); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("Expected ErrInvalidConfig for a slow tick, got %v", err)
	}
	cfg.Game.TickInterval = 40 * time.Millisecond
	cfg.Snapshot.Backend = "redis"
	if err := cfg.Validate(); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("Expected ErrInvalidConfig for unknown backend, got %v", err)
	}
}

func TestLoadLevels(t *testing.T) {
	dir := t.TempDir()
	file := writeFile(t, dir, "levels.yaml", `
levels:
  - room_type: DoubleGrid
    rule: 1
    level: 1
    time_for_level: 60
    lives: 5
    shapes:
      - x: 0
        y: 0
        w: 10
        h: 10
        kind: rectangle
        color: [255, 0, 0]
        on_click: report
        group: mainFloor
        speed: 20
        path:
          - {x: 100, y: 0}
          - {x: 0, y: 0}
  - room_type: DoubleGrid
    rule: 1
    level: 2
    time_pressure: false
`)

	levels, err := LoadLevels(file)
	if err != nil {
		t.Fatalf("LoadLevels failed: %v", err)
	}

	lc, err := levels.Find("doublegrid", 1, 1)
	if err != nil {
		t.Fatalf("Find should be case-insensitive: %v", err)
	}
	if lc.TimeForLevel != 60 || len(lc.Shapes) != 1 || len(lc.Shapes[0].Path) != 2 {
		t.Errorf("Unexpected level: %+v", lc)
	}
	if lc.Shapes[0].Color != [3]uint8{255, 0, 0} {
		t.Errorf("Unexpected shape color %v", lc.Shapes[0].Color)
	}
	if !lc.HasTimePressure() {
		t.Error("Time pressure should default to true")
	}

	l2, err := levels.Find("DoubleGrid", 1, 2)
	if err != nil {
		t.Fatalf("Find level 2: %v", err)
	}
	if l2.HasTimePressure() {
		t.Error("Level 2 disables time pressure")
	}
	if l2.Shapes != nil {
		t.Error("Level 2 has no shapes array")
	}

	if _, err := levels.Find("DoubleGrid", 1, 3); !errors.Is(err, ErrLevelNotFound) {
		t.Errorf("Expected ErrLevelNotFound, got %v", err)
	}
	if levels.Has("Basketball", 1, 1) {
		t.Error("Basketball levels were not configured")
	}
}
