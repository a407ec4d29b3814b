package nakama

import (
	"context"
	"database/sql"

	"github.com/heroiclabs/nakama-common/runtime"
)

// InitModule wires RPCs, hooks, the wins leaderboard and the match handler.
func InitModule(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, initializer runtime.Initializer) error {
	if err := RegisterRPCs(initializer); err != nil {
		return err
	}

	if err := initializer.RegisterAfterAuthenticateDevice(AfterAuthenticateDevice); err != nil {
		return err
	}

	// Authoritative, descending, incremented by each result, never reset.
	if err := nk.LeaderboardCreate(ctx, LeaderboardWins, true, "desc", "incr", "", map[string]interface{}{"game": matchLabelGame}, true); err != nil {
		logger.Error("InitModule: Failed to create leaderboard %s: %v", LeaderboardWins, err)
		return err
	}

	if err := initializer.RegisterMatch(MatchNameCribbage, NewMatch); err != nil {
		return err
	}

	logger.Info("Cribbage Go module loaded.")
	return nil
}
