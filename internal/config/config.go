package config

import (
	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config is the full daemon configuration, loaded from environment variables
// with the TRACKER_ prefix. A .env file, when present, seeds the environment
// first; real environment variables win.
type Config struct {
	// Env names the deployment environment, surfaced in logs and /v1/info.
	Env string `env:"ENV" envDefault:"dev"`

	HTTP     HTTPConfig     `envPrefix:"HTTP_"`
	Postgres PostgresConfig `envPrefix:"PG_"`
	Auth     AuthConfig     `envPrefix:"AUTH_"`
}

// Load reads .env (best effort), parses the environment, and applies
// guardrails.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: "TRACKER_"}); err != nil {
		return nil, err
	}
	cfg.Sanitize()
	return &cfg, nil
}

// Sanitize clamps values loaded from the environment into safe ranges.
func (c *Config) Sanitize() {
	c.HTTP.Sanitize()
	c.Auth.Sanitize()
}
