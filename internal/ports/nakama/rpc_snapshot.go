package nakama

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/heroiclabs/nakama-common/runtime"
)

// gRPC status codes used by runtime.NewError.
const (
	codeInvalidArgument = 3
	codeNotFound        = 5
	codeInternal        = 13
	codeUnauthenticated = 16
)

type matchSnapshotRequest struct {
	MatchID string `json:"match_id"`
}

// RpcMatchSnapshot returns the caller's private, optionally signed snapshot
// of a running match. Clients use it to resync after reconnecting.
//
// Payload: {"match_id": "..."}
// Returns: {"snapshot": {...}, "token": "..."}
func RpcMatchSnapshot(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
	userID, _ := ctx.Value(runtime.RUNTIME_CTX_USER_ID).(string)
	if userID == "" {
		return "", runtime.NewError("No user ID in context", codeUnauthenticated)
	}

	var req matchSnapshotRequest
	if err := json.Unmarshal([]byte(payload), &req); err != nil || req.MatchID == "" {
		return "", runtime.NewError("Invalid payload", codeInvalidArgument)
	}

	result, err := nk.MatchSignal(ctx, req.MatchID, snapshotSignal(userID))
	if err != nil {
		logger.Error("RpcMatchSnapshot [User:%s]: Failed to signal match %s: %v", userID, req.MatchID, err)
		return "", runtime.NewError("Internal error", codeInternal)
	}
	if result == "" {
		return "", runtime.NewError("No running game for user in match", codeNotFound)
	}
	return result, nil
}
