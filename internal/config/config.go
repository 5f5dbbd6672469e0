package config

import (
	"fmt"
	"strings"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	Addr         string `env:"BACKEND_ADDR"`
	Port         string `env:"PORT"`
	DatabasePath string `env:"DATABASE_PATH"`

	AppEnv                string   `env:"APP_ENV" envDefault:"development"`
	WSAllowedOrigins      []string `env:"WS_ALLOWED_ORIGINS" envSeparator:","`
	DevWebSocketsAllowAll bool     `env:"DEV_WEBSOCKETS_ALLOW_ALL"`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"text"`
	LogFile   string `env:"LOG_FILE"`

	// RedisURL enables cross-instance broadcasting when set.
	RedisURL string `env:"REDIS_URL"`

	// GoalPoints ends a match once a player's total reaches it.
	GoalPoints int `env:"MATCH_GOAL_POINTS" envDefault:"62"`

	TracesExporter string `env:"OTEL_TRACES_EXPORTER" envDefault:"stdout"`
}

func (c Config) IsDevelopment() bool { return c.AppEnv == "development" }

func LoadFromEnv() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	cfg.AppEnv = strings.TrimSpace(cfg.AppEnv)
	if cfg.AppEnv == "" {
		cfg.AppEnv = "development"
	}

	origins := cfg.WSAllowedOrigins[:0]
	for _, o := range cfg.WSAllowedOrigins {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	cfg.WSAllowedOrigins = origins

	var missing []string
	if cfg.DatabasePath == "" {
		missing = append(missing, "DATABASE_PATH")
	}
	// BACKEND_ADDR is optional if PORT is set by the hosting environment.
	if cfg.Addr == "" {
		if port := strings.TrimSpace(cfg.Port); port != "" {
			if strings.Contains(port, ":") {
				cfg.Addr = port
			} else {
				cfg.Addr = ":" + port
			}
		}
	}
	if cfg.Addr == "" {
		missing = append(missing, "BACKEND_ADDR (or PORT)")
	}
	if cfg.GoalPoints <= 0 {
		missing = append(missing, "MATCH_GOAL_POINTS")
	}
	if len(missing) > 0 {
		return Config{}, fmt.Errorf("missing/invalid env: %s", strings.Join(missing, ", "))
	}

	return cfg, nil
}
