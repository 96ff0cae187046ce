package config

import (
	"encoding/json"
	"log/slog"
	"os"
	"strings"

	"github.com/caarlos0/env/v11"
)

// Config holds all configurable server parameters. Game rules (hints, lives,
// hand sizes, player limits) are fixed and live in the game package.
type Config struct {
	WSPort         int `json:"ws_port" env:"WS_PORT"`
	MaxNameLength  int `json:"max_name_length" env:"MAX_NAME_LENGTH"`
	LobbyIDLength  int `json:"lobby_id_length" env:"LOBBY_ID_LENGTH"`
	SendBufferSize int `json:"send_buffer_size" env:"SEND_BUFFER_SIZE"`
	HistoryLimit   int `json:"history_limit" env:"HISTORY_LIMIT"`

	// IdentityCookie is the cookie carrying the player's identity token.
	IdentityCookie string `json:"identity_cookie" env:"IDENTITY_COOKIE"`
	// IdentitySecret verifies HMAC-signed identity tokens. When both it and
	// AuthJWKSURL are empty, the raw cookie value is the identity (development only).
	IdentitySecret string `json:"-" env:"IDENTITY_SECRET"`
	// AuthJWKSURL verifies identity tokens against a remote key set.
	AuthJWKSURL string `json:"auth_jwks_url" env:"AUTH_JWKS_URL"`

	// DatabaseURL enables finished-game history: postgres://... or sqlite:<path>.
	DatabaseURL string `json:"-" env:"DATABASE_URL"`

	// AllowedOrigins restricts websocket origins; empty allows all.
	AllowedOrigins []string `json:"allowed_origins" env:"ALLOWED_ORIGINS" envSeparator:","`

	LogLevel string `json:"log_level" env:"LOG_LEVEL"`
}

// Defaults returns a Config with all default values.
func Defaults() *Config {
	return &Config{
		WSPort:         8080,
		MaxNameLength:  24,
		LobbyIDLength:  4,
		SendBufferSize: 256,
		HistoryLimit:   20,
		IdentityCookie: "hanabi_player",
		LogLevel:       "info",
	}
}

// Load reads configuration from an optional config.json file,
// then applies environment variable overrides. Fields not set
// in either source retain their default values.
func Load() *Config {
	cfg := Defaults()

	if f, err := os.Open("config.json"); err == nil {
		defer f.Close()
		if err := json.NewDecoder(f).Decode(cfg); err != nil {
			slog.Warn("failed to parse config.json", "tag", "config", "err", err)
		}
	}

	if err := env.Parse(cfg); err != nil {
		slog.Warn("invalid environment override", "tag", "config", "err", err)
	}
	return cfg
}

// SlogLevel maps LogLevel to a slog level, defaulting to info.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// OriginAllowed reports whether a websocket handshake from origin is accepted.
func (c *Config) OriginAllowed(origin string) bool {
	if len(c.AllowedOrigins) == 0 || origin == "" {
		return true
	}
	for _, o := range c.AllowedOrigins {
		if strings.TrimSpace(o) == origin {
			return true
		}
	}
	return false
}
