package config

import (
	"errors"
	"fmt"

	"github.com/joeshaw/envdecode"
)

// ServerConfig is read from the environment by the HTTP server.
type ServerConfig struct {
	Addr           string `env:"CRIBBAGE_ADDR,default=:8080"`
	DBDriver       string `env:"CRIBBAGE_DB_DRIVER,default=sqlite3"`
	DBDSN          string `env:"CRIBBAGE_DB_DSN,default=cribbage.db"`
	GameConfigPath string `env:"CRIBBAGE_GAME_CONFIG,default=data/game_config.json"`
	SnapshotSecret string `env:"CRIBBAGE_SNAPSHOT_SECRET"`
	LogLevel       string `env:"CRIBBAGE_LOG_LEVEL,default=info"`
	LogFormat      string `env:"CRIBBAGE_LOG_FORMAT,default=text"`
}

// LoadServerConfig decodes ServerConfig from the environment.
func LoadServerConfig() (ServerConfig, error) {
	var c ServerConfig
	if err := envdecode.Decode(&c); err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return ServerConfig{}, fmt.Errorf("failed to decode server config: %w", err)
	}
	return c, nil
}
