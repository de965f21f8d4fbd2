package config

import (
	"fmt"
	"geo-jigsaw/internal/domain"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"go.uber.org/fx"
)

type Config struct {
	ServerPort string `env:"SERVER_PORT" envDefault:"8080"`
	DBPath     string `env:"DB_PATH" envDefault:"geojigsaw.db"`
	LogLevel   string `env:"LOG_LEVEL" envDefault:"info"`

	// CatalogBaseURL is the remote region data source. Empty means only the
	// bundled sample data is used.
	CatalogBaseURL string        `env:"CATALOG_BASE_URL"`
	CatalogTimeout time.Duration `env:"CATALOG_TIMEOUT" envDefault:"5s"`

	DefaultDifficulty domain.Difficulty `env:"DEFAULT_DIFFICULTY" envDefault:"easy"`
	PuzzleTimeLimit   time.Duration     `env:"PUZZLE_TIME_LIMIT" envDefault:"10m"`
	SessionIdleTTL    time.Duration     `env:"SESSION_IDLE_TTL" envDefault:"30m"`
	MaxHints          int               `env:"MAX_HINTS" envDefault:"3"`
}

func Load(logger zerolog.Logger) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		logger.Debug().Msg(".env file not found, using environment variables or defaults")
	}

	cfg, err := Parse()
	if err != nil {
		return nil, err
	}

	logger.Info().
		Str("db_path", cfg.DBPath).
		Str("server_port", cfg.ServerPort).
		Str("log_level", cfg.LogLevel).
		Str("catalog_base_url", cfg.CatalogBaseURL).
		Str("default_difficulty", cfg.DefaultDifficulty.String()).
		Dur("puzzle_time_limit", cfg.PuzzleTimeLimit).
		Dur("session_idle_ttl", cfg.SessionIdleTTL).
		Int("max_hints", cfg.MaxHints).
		Msg("configuration loaded")

	return cfg, nil
}

// Parse reads the configuration from the environment only.
func Parse() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if !cfg.DefaultDifficulty.Valid() {
		return nil, fmt.Errorf("DEFAULT_DIFFICULTY must be set to a known difficulty")
	}
	if cfg.PuzzleTimeLimit < 0 {
		return nil, fmt.Errorf("PUZZLE_TIME_LIMIT must not be negative")
	}
	if cfg.SessionIdleTTL <= 0 {
		return nil, fmt.Errorf("SESSION_IDLE_TTL must be positive")
	}
	if cfg.MaxHints < 0 {
		return nil, fmt.Errorf("MAX_HINTS must not be negative")
	}
	return cfg, nil
}

var Module = fx.Provide(Load)
