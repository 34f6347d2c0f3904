package config

import "fmt"

// PostgresConfig contains database connection configuration.
type PostgresConfig struct {
	Host     string `env:"HOST"     envDefault:"localhost"`
	Port     int    `env:"PORT"     envDefault:"5432"`
	User     string `env:"USER"     envDefault:"tracker"`
	Password string `env:"PASSWORD" envDefault:"tracker"`
	Name     string `env:"NAME"     envDefault:"tracker"`
	SSLMode  string `env:"SSL_MODE" envDefault:"disable"`

	// DSNOverride, when set, replaces the assembled DSN wholesale.
	DSNOverride string `env:"DSN"`
}

// DSN assembles the connection string.
func (p *PostgresConfig) DSN() string {
	if p.DSNOverride != "" {
		return p.DSNOverride
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		p.User, p.Password, p.Host, p.Port, p.Name, p.SSLMode)
}
