package bot

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"
)

// botIDPrefix marks generated bot ids when no identity file is loaded.
const botIDPrefix = "cpu-"

type BotIdentity struct {
	UserID      string `json:"user_id"`
	DisplayName string `json:"display_name"`
	Difficulty  string `json:"difficulty"` // "easy", "good"
}

var (
	botIdentities []BotIdentity
	botConfigMap  map[string]BotIdentity
	loadOnce      sync.Once
	loadErr       error
)

// LoadIdentities loads the bot profiles from the given path.
func LoadIdentities(path string) error {
	loadOnce.Do(func() {
		data, err := os.ReadFile(path)
		if err != nil {
			loadErr = fmt.Errorf("failed to read bot identities: %w", err)
			return
		}

		var identities []BotIdentity
		if err := json.Unmarshal(data, &identities); err != nil {
			loadErr = fmt.Errorf("failed to unmarshal bot identities: %w", err)
			return
		}

		botIdentities = identities
		botConfigMap = make(map[string]BotIdentity, len(identities))
		for _, identity := range identities {
			if identity.UserID != "" {
				botConfigMap[identity.UserID] = identity
			}
		}
	})
	return loadErr
}

// GetBotIdentity returns an identity for a bot by index (mod pool size).
func GetBotIdentity(index int) BotIdentity {
	if len(botIdentities) == 0 {
		return BotIdentity{
			UserID:      fmt.Sprintf("%s%d", botIDPrefix, index),
			DisplayName: "CPU",
			Difficulty:  "good",
		}
	}
	return botIdentities[index%len(botIdentities)]
}

// GetBotConfig returns the full identity configuration for a given bot ID.
func GetBotConfig(userID string) (BotIdentity, bool) {
	identity, ok := botConfigMap[userID]
	return identity, ok
}

// GetBotDisplayName returns the display name for a bot ID, or "CPU" for generated ids.
func GetBotDisplayName(userID string) string {
	if identity, ok := botConfigMap[userID]; ok && identity.DisplayName != "" {
		return identity.DisplayName
	}
	if strings.HasPrefix(userID, botIDPrefix) {
		return "CPU"
	}
	return ""
}

// IsBot reports whether the given user ID belongs to the bot pool.
func IsBot(userID string) bool {
	if _, ok := botConfigMap[userID]; ok {
		return true
	}
	return strings.HasPrefix(userID, botIDPrefix)
}
