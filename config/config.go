/*
Package config loads server configuration from a TOML file.

PURPOSE:
  One file configures the listen address, the database location,
  logging, and the development token table. Flags on cmd/server
  override individual values.

EXAMPLE (config.toml):

  [server]
  addr = ":8080"

  [db]
  path = "./data/rewards.db"

  [log]
  level = "info"
  format = "text"

  [auth.tokens]
  "dev-token-alice" = "user-alice"
  "dev-token-bob" = "user-bob"
*/
package config

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/pelletier/go-toml/v2"
)

type Config struct {
	Server ServerConfig `toml:"server"`
	DB     DBConfig     `toml:"db"`
	Log    LogConfig    `toml:"log"`
	Auth   AuthConfig   `toml:"auth"`
}

type ServerConfig struct {
	Addr string `toml:"addr"`
}

type DBConfig struct {
	Path string `toml:"path"`
}

type LogConfig struct {
	Level  slog.Level `toml:"level"`
	Format string     `toml:"format"` // "text" or "json"
}

type AuthConfig struct {
	// Tokens maps bearer tokens to user IDs. Development stand-in for
	// the external identity provider.
	Tokens map[string]string `toml:"tokens"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Server: ServerConfig{Addr: ":8080"},
		DB:     DBConfig{Path: "rewards.db"},
		Log:    LogConfig{Level: slog.LevelInfo, Format: "text"},
	}
}

// Load reads a TOML config file, filling unset fields from Default.
func Load(path string) (Config, error) {
	cfg := Default()

	file, err := os.Open(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to open config: %w", err)
	}
	defer file.Close()

	if err := toml.NewDecoder(file).Decode(&cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}
