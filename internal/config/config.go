package config

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/playperu/geodrive/internal/geo"
	"github.com/playperu/geodrive/internal/kinematics"
	"github.com/playperu/geodrive/internal/leaderboard"
	"github.com/playperu/geodrive/internal/minigame"
)

// Server configures cmd/server.
type Server struct {
	HTTPAddr string        `env:"HTTP_ADDR" envDefault:":8080"`
	DBPath   string        `env:"DB_PATH" envDefault:"data/scores.db"`
	LogLevel slog.Level    `env:"LOG_LEVEL" envDefault:"INFO"`
	RedisURL string        `env:"REDIS_URL"`
	CacheTTL time.Duration `env:"CACHE_TTL" envDefault:"30s"`
	// SyncTokenHash is a bcrypt hash; when set, writes need the matching
	// bearer token.
	SyncTokenHash string `env:"SYNC_TOKEN_HASH"`
}

func LoadServer() (*Server, error) {
	cfg, err := env.ParseAs[Server]()
	if err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}
	return &cfg, nil
}

// Drive configures the headless client in cmd/drive.
type Drive struct {
	WorldFile  string     `env:"WORLD_FILE" envDefault:"world.json"`
	Location   string     `env:"LOCATION" envDefault:"Lima"`
	CustomLat  float64    `env:"CUSTOM_LAT"`
	CustomLon  float64    `env:"CUSTOM_LON"`
	WorldScale float64    `env:"WORLD_SCALE" envDefault:"100000"`
	StateDB    string     `env:"STATE_DB" envDefault:"data/drive.db"`
	LogLevel   slog.Level `env:"LOG_LEVEL" envDefault:"INFO"`

	RemoteURL   string `env:"REMOTE_URL"`
	RemoteToken string `env:"REMOTE_TOKEN"`
	CloudSync   bool   `env:"CLOUD_SYNC" envDefault:"true"`
	PlayerName  string `env:"PLAYER_NAME"`

	TickRate int           `env:"TICK_RATE" envDefault:"60"`
	Duration time.Duration `env:"DURATION" envDefault:"5m"`
	// ProbeInterval is how long to stay local after a remote failure.
	ProbeInterval time.Duration `env:"PROBE_INTERVAL" envDefault:"30s"`

	Tuning kinematics.Tuning     `envPrefix:"TUNING_"`
	Flower minigame.FlowerConfig `envPrefix:"FLOWER_"`
}

// LoadDrive starts from the built-in tuning and flower defaults and applies
// any overrides from the environment.
func LoadDrive() (*Drive, error) {
	cfg := Drive{
		Tuning:        kinematics.DefaultTuning(),
		Flower:        minigame.DefaultFlowerConfig(),
		ProbeInterval: leaderboard.DefaultProbeInterval,
	}
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}
	if cfg.TickRate <= 0 {
		return nil, fmt.Errorf("TICK_RATE must be positive, got %d", cfg.TickRate)
	}
	if !(cfg.WorldScale > 0) {
		return nil, fmt.Errorf("WORLD_SCALE must be positive, got %v", cfg.WorldScale)
	}
	return &cfg, nil
}

// Selection is the location chosen by LOCATION, or CUSTOM_LAT/CUSTOM_LON
// when LOCATION is "custom".
func (d *Drive) Selection() geo.Selection {
	if d.Location == geo.CustomKey {
		return geo.Custom(d.CustomLat, d.CustomLon)
	}
	return geo.Preset(d.Location)
}

// Remote returns the remote backend settings from the environment.
func (d *Drive) Remote() leaderboard.RemoteConfig {
	return leaderboard.RemoteConfig{BaseURL: d.RemoteURL, Token: d.RemoteToken}
}
