package config

import "time"

// AuthConfig contains token issuing configuration.
type AuthConfig struct {
	// TokenSecret signs session tokens (HS256). Required; there is no safe
	// default for a signing key.
	TokenSecret string `env:"TOKEN_SECRET,required"`

	// TokenTTL bounds session lifetime. Tokens are never renewed in place.
	TokenTTL time.Duration `env:"TOKEN_TTL" envDefault:"15m"`

	// Issuer is the iss claim on minted tokens.
	Issuer string `env:"ISSUER" envDefault:"tracker"`
}

// Sanitize applies guardrails to auth configuration values.
func (a *AuthConfig) Sanitize() {
	if a.TokenTTL < time.Minute {
		a.TokenTTL = time.Minute
	}
	if a.TokenTTL > 24*time.Hour {
		a.TokenTTL = 24 * time.Hour
	}
	if a.Issuer == "" {
		a.Issuer = "tracker"
	}
}
