package ports

import "context"

// AccountPort updates player profiles on the hosting platform.
type AccountPort interface {
	UpdateProfile(ctx context.Context, userID, username, displayName string) error
}

// GameResult is one player's outcome of a finished game.
type GameResult struct {
	UserID  string
	MatchID string
	Won     bool
	Score   int
	Rounds  int
}

// StatsPort keeps per-player cribbage statistics.
type StatsPort interface {
	// InitStatsOnce creates an empty stats record.
	// Returns created=false when the record already exists.
	InitStatsOnce(ctx context.Context, userID string) (bool, error)

	// RecordResults adds finished games to the players' stats and the wins leaderboard.
	RecordResults(ctx context.Context, results []GameResult) error
}
