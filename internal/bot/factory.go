package bot

import (
	"fmt"
	"math/rand"
	"time"

	"cribbage/internal/analysis"
)

// NewBrain creates a new AI brain based on the specified level.
func NewBrain(level BotLevel, rng *rand.Rand) (Brain, error) {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	switch level {
	case BotLevelEasy:
		return &EasyBot{rng: rng}, nil
	case BotLevelGood:
		return &GoodBot{analyzer: analysis.NewConfiguredAnalyzer(rng), tuning: DefaultPeggingTuning}, nil
	default:
		return nil, fmt.Errorf("unknown bot level: %d", level)
	}
}

// NewAgent builds an agent for the given player id.
func NewAgent(id string, level BotLevel, rng *rand.Rand) (*Agent, error) {
	brain, err := NewBrain(level, rng)
	if err != nil {
		return nil, err
	}
	return &Agent{ID: id, Name: GetBotDisplayName(id), Strategy: brain}, nil
}
