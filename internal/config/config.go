package config

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"
)

// GameConfig tunes pacing, bots and the analysis engine.
type GameConfig struct {
	// PacingMillis delays each bot action so humans can follow the table.
	PacingMillis          int    `json:"pacing_ms"`
	TwoPlayerCribTrials   int    `json:"two_player_crib_trials"`
	MultiPlayerCribTrials int    `json:"multi_player_crib_trials"`
	PublishAttempts       int    `json:"publish_attempts"`
	PublishBackoffMillis  int    `json:"publish_backoff_ms"`
	BotLevel              string `json:"bot_level"`
	CutForDeal            bool   `json:"cut_for_deal"`
	// BotAutoFillDelaySeconds configures how many seconds to wait before adding a bot to a solo human lobby.
	BotAutoFillDelaySeconds int `json:"bot_auto_fill_delay_seconds"`
}

// DefaultGameConfig mirrors data/game_config.json.
func DefaultGameConfig() GameConfig {
	return GameConfig{
		PacingMillis:            800,
		TwoPlayerCribTrials:     50,
		MultiPlayerCribTrials:   20,
		PublishAttempts:         4,
		PublishBackoffMillis:    100,
		BotLevel:                "good",
		BotAutoFillDelaySeconds: 10,
	}
}

// Pacing returns the bot action delay.
func (c *GameConfig) Pacing() time.Duration {
	return time.Duration(c.PacingMillis) * time.Millisecond
}

// PublishBackoff returns the first retry delay for replication sends.
func (c *GameConfig) PublishBackoff() time.Duration {
	return time.Duration(c.PublishBackoffMillis) * time.Millisecond
}

var (
	cfg      *GameConfig
	loadOnce sync.Once
	loadErr  error
)

// LoadGameConfig loads the game configuration from the given path. Missing
// fields keep their defaults.
func LoadGameConfig(path string) error {
	loadOnce.Do(func() {
		data, err := os.ReadFile(path)
		if err != nil {
			loadErr = fmt.Errorf("failed to read game config: %w", err)
			return
		}

		c := DefaultGameConfig()
		if err := json.Unmarshal(data, &c); err != nil {
			loadErr = fmt.Errorf("failed to unmarshal game config: %w", err)
			return
		}
		cfg = &c
	})
	return loadErr
}

// GetGameConfig returns the global game configuration, or the defaults when
// nothing was loaded.
func GetGameConfig() *GameConfig {
	if cfg == nil {
		c := DefaultGameConfig()
		return &c
	}
	return cfg
}
