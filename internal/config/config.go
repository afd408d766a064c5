// Package config loads per-binary configuration from environment variables.
package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Game configures the single-player terminal binary.
type Game struct {
	EnvFile  string `env:"VOIDBELT_ENV_FILE"` // TOML environment settings overlay, empty for defaults
	Preset   string `env:"VOIDBELT_PRESET"`   // Scene preset applied at startup
	Quality  string `env:"VOIDBELT_QUALITY"`  // Quality override (potato..extreme)
	Callsign string `env:"VOIDBELT_CALLSIGN"` // HUD name; empty gets a generated one
	LogFile  string `env:"VOIDBELT_LOG_FILE"` // Debug log sink; stdout belongs to the game
}

// SSH configures the multiplayer SSH server binary.
type SSH struct {
	Host        string `env:"SSH_HOST" envDefault:"::"`
	Port        string `env:"SSH_PORT" envDefault:"2222"`
	HostKeyPath string `env:"SSH_HOST_KEY" envDefault:"/app/keys/host_key"`
	EnvFile     string `env:"VOIDBELT_ENV_FILE"`
	Preset      string `env:"VOIDBELT_PRESET"`
	Quality     string `env:"VOIDBELT_QUALITY"`
	DBPath      string `env:"VOIDBELT_DB"`        // Leaderboard SQLite path, empty disables persistence
	DiagAddr    string `env:"VOIDBELT_DIAG_ADDR"` // Telemetry websocket listen address, empty disables
	Debug       bool   `env:"VOIDBELT_DEBUG"`
}

// Web configures the landing page binary.
type Web struct {
	Host           string `env:"WEB_HOST" envDefault:"0.0.0.0"`
	Port           string `env:"WEB_PORT" envDefault:"8080"`
	SSHDisplayHost string `env:"SSH_DISPLAY_HOST" envDefault:"your-server.com"`
}

// LoadGame reads the single-player configuration from the environment.
func LoadGame() (Game, error) {
	var cfg Game
	if err := env.Parse(&cfg); err != nil {
		return Game{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// LoadSSH reads the SSH server configuration from the environment.
func LoadSSH() (SSH, error) {
	var cfg SSH
	if err := env.Parse(&cfg); err != nil {
		return SSH{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// LoadWeb reads the landing page configuration from the environment.
func LoadWeb() (Web, error) {
	var cfg Web
	if err := env.Parse(&cfg); err != nil {
		return Web{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}
