package main

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap/zapcore"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "server.toml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefaultsValidate(t *testing.T) {
	if err := defaults().validate(); err != nil {
		t.Fatalf("defaults invalid: %v", err)
	}
}

func TestLoadOverlaysDefaults(t *testing.T) {
	path := writeConfig(t, `
[server]
addr = ":9000"

[database]
dsn = "postgres://trench@localhost/trench"

[game]
tick_rate = 30
tuning_path = "tuning.yaml"

[auth]
token_ttl = "24h"

[logging]
format = "json"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Server.Addr != ":9000" {
		t.Errorf("addr = %q", cfg.Server.Addr)
	}
	if cfg.Game.TickRate != 30 || cfg.Game.TuningPath != "tuning.yaml" {
		t.Errorf("game = %+v", cfg.Game)
	}
	if !isPostgres(cfg.Database.DSN) {
		t.Errorf("dsn = %q", cfg.Database.DSN)
	}
	if cfg.Auth.TokenTTL != 24*time.Hour {
		t.Errorf("token ttl = %v, want 24h", cfg.Auth.TokenTTL)
	}
	if cfg.Logging.Format != "json" || cfg.Logging.Level != "info" {
		t.Errorf("logging = %+v", cfg.Logging)
	}

	// untouched keys keep their defaults
	def := defaults()
	if cfg.Server.MaxPerIP != def.Server.MaxPerIP || cfg.Game.BroadcastEvery != def.Game.BroadcastEvery {
		t.Errorf("defaults lost: server=%+v game=%+v", cfg.Server, cfg.Game)
	}
	if cfg.Game.ViewportWidth != 1280 || cfg.Game.Zoom != 1 {
		t.Errorf("viewport = %vx%v zoom %v", cfg.Game.ViewportWidth, cfg.Game.ViewportHeight, cfg.Game.Zoom)
	}
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("missing file err = %v, want ErrNotExist", err)
	}

	if _, err := Load(writeConfig(t, "[server\naddr=")); err == nil || !strings.Contains(err.Error(), "parse config") {
		t.Errorf("bad toml err = %v", err)
	}

	cases := []string{
		"[game]\ntick_rate = 0",
		"[game]\nbroadcast_every = 0",
		"[game]\nmax_runs = 0",
		"[server]\nmax_conns_per_ip = 0",
	}
	for _, body := range cases {
		if _, err := Load(writeConfig(t, body)); err == nil {
			t.Errorf("Load(%q) should fail validation", body)
		}
	}
}

func TestNewLogger(t *testing.T) {
	for _, lc := range []LoggingConfig{
		{Level: "debug", Format: "console"},
		{Level: "warn", Format: "json"},
	} {
		log, err := newLogger(lc)
		if err != nil {
			t.Errorf("newLogger(%+v): %v", lc, err)
			continue
		}
		log.Sync()
	}
	log, err := newLogger(LoggingConfig{Level: "loud"})
	if err != nil {
		t.Fatalf("unknown level: %v", err)
	}
	if log.Core().Enabled(zapcore.DebugLevel) || !log.Core().Enabled(zapcore.InfoLevel) {
		t.Error("unknown level should fall back to info")
	}
}
