package nakama

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"cribbage/internal/ports"

	"github.com/heroiclabs/nakama-common/api"
	"github.com/heroiclabs/nakama-common/runtime"
)

const (
	statsCollection = "cribbage_stats"
	statsKey        = "summary_v1"

	// LeaderboardWins ranks players by games won, best final score as subscore.
	LeaderboardWins = "cribbage_wins"

	// statsWriteAttempts bounds optimistic retries when two matches finish at once.
	statsWriteAttempts = 3
)

// PlayerStats is the stored summary for one player.
type PlayerStats struct {
	Games     int    `json:"games"`
	Wins      int    `json:"wins"`
	BestScore int    `json:"best_score"`
	Rounds    int    `json:"rounds"`
	LastMatch string `json:"last_match,omitempty"`
	UpdatedAt string `json:"updated_at"`
}

// StatsStore is the part of runtime.NakamaModule the stats adapter needs.
type StatsStore interface {
	StorageRead(ctx context.Context, reads []*runtime.StorageRead) ([]*api.StorageObject, error)
	StorageWrite(ctx context.Context, writes []*runtime.StorageWrite) ([]*api.StorageObjectAck, error)
	LeaderboardRecordWrite(ctx context.Context, id, ownerID, username string, score, subscore int64, metadata map[string]interface{}, overrideOperator *int) (*api.LeaderboardRecord, error)
}

// NakamaStatsAdapter keeps player stats in Nakama storage and wins on a leaderboard.
type NakamaStatsAdapter struct {
	store StatsStore
	now   func() time.Time
}

// NewNakamaStatsAdapter creates a new stats adapter.
func NewNakamaStatsAdapter(store StatsStore) *NakamaStatsAdapter {
	return &NakamaStatsAdapter{store: store, now: time.Now}
}

// InitStatsOnce writes an empty stats record unless one exists.
func (a *NakamaStatsAdapter) InitStatsOnce(ctx context.Context, userID string) (bool, error) {
	if userID == "" {
		return false, fmt.Errorf("userID is required")
	}
	value, err := a.encode(PlayerStats{})
	if err != nil {
		return false, err
	}

	_, err = a.store.StorageWrite(ctx, []*runtime.StorageWrite{statsWrite(userID, value, "*")})
	if err != nil {
		if errors.Is(err, runtime.ErrStorageRejectedVersion) {
			return false, nil
		}
		return false, fmt.Errorf("failed to create stats record: %w", err)
	}
	return true, nil
}

// RecordResults folds each result into the player's stats and submits wins.
func (a *NakamaStatsAdapter) RecordResults(ctx context.Context, results []ports.GameResult) error {
	for _, res := range results {
		if res.UserID == "" {
			continue
		}
		if err := a.recordOne(ctx, res); err != nil {
			return err
		}

		won := int64(0)
		if res.Won {
			won = 1
		}
		metadata := map[string]interface{}{"match_id": res.MatchID}
		if _, err := a.store.LeaderboardRecordWrite(ctx, LeaderboardWins, res.UserID, "", won, int64(res.Score), metadata, nil); err != nil {
			return fmt.Errorf("failed to write leaderboard for user %s: %w", res.UserID, err)
		}
	}
	return nil
}

func (a *NakamaStatsAdapter) recordOne(ctx context.Context, res ports.GameResult) error {
	var lastErr error
	for attempt := 0; attempt < statsWriteAttempts; attempt++ {
		stats, version, err := a.read(ctx, res.UserID)
		if err != nil {
			return err
		}

		stats.Games++
		if res.Won {
			stats.Wins++
		}
		if res.Score > stats.BestScore {
			stats.BestScore = res.Score
		}
		stats.Rounds += res.Rounds
		stats.LastMatch = res.MatchID

		value, err := a.encode(stats)
		if err != nil {
			return err
		}
		_, err = a.store.StorageWrite(ctx, []*runtime.StorageWrite{statsWrite(res.UserID, value, version)})
		if err == nil {
			return nil
		}
		if !errors.Is(err, runtime.ErrStorageRejectedVersion) {
			return fmt.Errorf("failed to write stats for user %s: %w", res.UserID, err)
		}
		lastErr = err
	}
	return fmt.Errorf("stats for user %s kept changing: %w", res.UserID, lastErr)
}

// read returns the stored stats and their version. A missing record reads as
// empty stats with version "*" so the first write creates it.
func (a *NakamaStatsAdapter) read(ctx context.Context, userID string) (PlayerStats, string, error) {
	objects, err := a.store.StorageRead(ctx, []*runtime.StorageRead{{
		Collection: statsCollection,
		Key:        statsKey,
		UserID:     userID,
	}})
	if err != nil {
		return PlayerStats{}, "", fmt.Errorf("failed to read stats for user %s: %w", userID, err)
	}
	if len(objects) == 0 {
		return PlayerStats{}, "*", nil
	}

	var stats PlayerStats
	if err := json.Unmarshal([]byte(objects[0].Value), &stats); err != nil {
		return PlayerStats{}, "", fmt.Errorf("failed to unmarshal stats for user %s: %w", userID, err)
	}
	return stats, objects[0].Version, nil
}

func (a *NakamaStatsAdapter) encode(stats PlayerStats) (string, error) {
	stats.UpdatedAt = a.now().UTC().Format(time.RFC3339)
	value, err := json.Marshal(stats)
	if err != nil {
		return "", fmt.Errorf("failed to marshal stats: %w", err)
	}
	return string(value), nil
}

func statsWrite(userID, value, version string) *runtime.StorageWrite {
	return &runtime.StorageWrite{
		Collection:      statsCollection,
		Key:             statsKey,
		UserID:          userID,
		Value:           value,
		Version:         version,
		PermissionRead:  runtime.STORAGE_PERMISSION_PUBLIC_READ,
		PermissionWrite: runtime.STORAGE_PERMISSION_NO_WRITE,
	}
}

var _ ports.StatsPort = (*NakamaStatsAdapter)(nil)
