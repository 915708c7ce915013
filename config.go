package main

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

// Config is the host configuration read from TOML. Simulation tuning lives
// in its own YAML file, referenced by Game.TuningPath.
type Config struct {
	Server   ServerConfig   `toml:"server"`
	Database DatabaseConfig `toml:"database"`
	Game     GameConfig     `toml:"game"`
	Auth     AuthConfig     `toml:"auth"`
	Logging  LoggingConfig  `toml:"logging"`
}

type ServerConfig struct {
	Addr      string `toml:"addr"`
	ClientDir string `toml:"client_dir"`
	PublicURL string `toml:"public_url"` // base URL encoded into controller QR codes
	MaxConns  int    `toml:"max_conns"`
	MaxPerIP  int    `toml:"max_conns_per_ip"`
}

type DatabaseConfig struct {
	DSN          string `toml:"dsn"` // file path for sqlite, postgres:// URL for pgx
	MaxOpenConns int    `toml:"max_open_conns"`
}

type GameConfig struct {
	TuningPath     string  `toml:"tuning_path"` // empty = built-in defaults
	TickRate       int     `toml:"tick_rate"`
	BroadcastEvery int     `toml:"broadcast_every"`
	MaxRuns        int     `toml:"max_runs"`
	ViewportWidth  float64 `toml:"viewport_width"`
	ViewportHeight float64 `toml:"viewport_height"`
	Zoom           float64 `toml:"zoom"`
}

type AuthConfig struct {
	JWTSecret string        `toml:"jwt_secret"` // empty = generated and stored in the database
	TokenTTL  time.Duration `toml:"token_ttl"`
}

type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // "json" or "console"
}

// Load reads path over the defaults. Keys missing from the file keep their
// default values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	cfg := defaults()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

func defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:      ":8080",
			ClientDir: "client",
			PublicURL: "http://localhost:8080",
			MaxConns:  1000,
			MaxPerIP:  5,
		},
		Database: DatabaseConfig{
			DSN:          "trench.db",
			MaxOpenConns: 4,
		},
		Game: GameConfig{
			TickRate:       60,
			BroadcastEvery: 2,
			MaxRuns:        100,
			ViewportWidth:  1280,
			ViewportHeight: 720,
			Zoom:           1,
		},
		Auth: AuthConfig{
			TokenTTL: 7 * 24 * time.Hour,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

func (c *Config) validate() error {
	switch {
	case c.Game.TickRate < 1:
		return fmt.Errorf("game.tick_rate must be >= 1, got %d", c.Game.TickRate)
	case c.Game.BroadcastEvery < 1:
		return fmt.Errorf("game.broadcast_every must be >= 1, got %d", c.Game.BroadcastEvery)
	case c.Game.MaxRuns < 1:
		return fmt.Errorf("game.max_runs must be >= 1, got %d", c.Game.MaxRuns)
	case c.Server.MaxConns < 1 || c.Server.MaxPerIP < 1:
		return fmt.Errorf("server connection limits must be >= 1")
	}
	return nil
}
