package bot

import (
	"errors"

	"cribbage/internal/domain"
)

// ErrNoDecision is returned when the bot has nothing to do in the current state.
var ErrNoDecision = errors.New("bot has no decision to make")

// Move represents the decision made by the AI.
type Move struct {
	Discard []domain.Card
	Card    *domain.Card
	Go      bool
}

// BotLevel selects how hard a bot tries.
type BotLevel int

const (
	BotLevelEasy BotLevel = iota
	BotLevelGood
)

// ParseBotLevel maps a config string to a level; unknown values fall back to good.
func ParseBotLevel(s string) BotLevel {
	if s == "easy" {
		return BotLevelEasy
	}
	return BotLevelGood
}
