package bot

import (
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"cribbage/internal/config"
)

func TestNewBrainUsesConfiguredCribTrials(t *testing.T) {
	path := filepath.Join(t.TempDir(), "game_config.json")
	if err := os.WriteFile(path, []byte(`{"two_player_crib_trials": 12, "multi_player_crib_trials": 6}`), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if err := config.LoadGameConfig(path); err != nil {
		t.Fatalf("load config: %v", err)
	}

	brain, err := NewBrain(BotLevelGood, rand.New(rand.NewSource(1)))
	if err != nil {
		t.Fatalf("NewBrain() error: %v", err)
	}
	good, ok := brain.(*GoodBot)
	if !ok {
		t.Fatalf("NewBrain(good) = %T, want *GoodBot", brain)
	}
	if good.analyzer.TwoPlayerCribTrials != 12 || good.analyzer.MultiPlayerCribTrials != 6 {
		t.Fatalf("crib trials = %d/%d, want 12/6", good.analyzer.TwoPlayerCribTrials, good.analyzer.MultiPlayerCribTrials)
	}
}
