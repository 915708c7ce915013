package sim

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfigValid(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
}

func TestLoadConfigOverlaysDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tuning.yaml")
	data := `
economy:
  boss_at: 150000
enemies:
  whale:
    health: 500
    unlock_at: 90
weapons:
  missile:
    damage: 20
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	def := DefaultConfig()

	if cfg.Economy.BossAt != 150000 {
		t.Errorf("boss_at = %f, want 150000", cfg.Economy.BossAt)
	}
	if cfg.Economy.Start != def.Economy.Start {
		t.Errorf("unset start changed to %f", cfg.Economy.Start)
	}
	if cfg.Enemies.Whale.Health != 500 || cfg.Enemies.Whale.UnlockAt != 90 {
		t.Errorf("whale = %+v", cfg.Enemies.Whale)
	}
	if cfg.Enemies.Whale.Speed != def.Enemies.Whale.Speed {
		t.Errorf("unset whale speed changed to %f", cfg.Enemies.Whale.Speed)
	}
	if cfg.Weapons.Missile.Damage != 20 || cfg.Weapons.Missile.Speed != def.Weapons.Missile.Speed {
		t.Errorf("missile = %+v", cfg.Weapons.Missile)
	}
}

func TestLoadConfigErrors(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("missing file: got %v, want ErrNotExist", err)
	}

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(bad, []byte("weapons: [1, 2"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadConfig(bad); err == nil {
		t.Error("expected parse error")
	}

	invalid := filepath.Join(t.TempDir(), "invalid.yaml")
	if err := os.WriteFile(invalid, []byte("weapons:\n  max_level: 0\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadConfig(invalid); err == nil {
		t.Error("expected validation error")
	}
}

func TestThresholdTable(t *testing.T) {
	cfg := DefaultConfig()
	if got := cfg.Threshold(1); got != 5 {
		t.Errorf("threshold(1) = %f, want 5", got)
	}
	if got := cfg.Threshold(len(cfg.Leveling.Thresholds)); got != 600 {
		t.Errorf("last threshold = %f, want 600", got)
	}
	if got := cfg.Threshold(len(cfg.Leveling.Thresholds) + 1); !math.IsInf(got, 1) {
		t.Errorf("threshold past table = %f, want +Inf", got)
	}
}

func TestViewportWorldSize(t *testing.T) {
	w, h := Viewport{Width: 1280, Height: 720, Zoom: 2}.World()
	if w != 640 || h != 360 {
		t.Errorf("zoomed view = %fx%f, want 640x360", w, h)
	}
	w, h = Viewport{Width: 800, Height: 600}.World()
	if w != 800 || h != 600 {
		t.Errorf("zero zoom should act as 1, got %fx%f", w, h)
	}
}
