package nakama

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"cribbage/internal/app"

	"github.com/heroiclabs/nakama-common/api"
	"github.com/heroiclabs/nakama-common/runtime"
)

// QuickMatchResponse is the payload returned to clients when requesting a lobby-capable match.
type QuickMatchResponse struct {
	MatchID string `json:"match_id"`
	IsNew   bool   `json:"is_new"`
}

// MatchCreator is the part of runtime.NakamaModule quick match needs.
type MatchCreator interface {
	MatchList(ctx context.Context, limit int, authoritative bool, label string, minSize, maxSize *int, query string) ([]*api.Match, error)
	MatchCreate(ctx context.Context, module string, params map[string]interface{}) (string, error)
}

// RegisterRPCs registers Nakama RPC endpoints.
func RegisterRPCs(initializer runtime.Initializer) error {
	if err := initializer.RegisterRpc(RpcQuickMatch, rpcQuickMatch); err != nil {
		return err
	}
	return initializer.RegisterRpc(RpcIdMatchSnapshot, RpcMatchSnapshot)
}

func rpcQuickMatch(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
	return quickMatch(ctx, logger, nk)
}

// quickMatch joins the first lobby with an open seat or creates one.
func quickMatch(ctx context.Context, logger runtime.Logger, nk MatchCreator) (string, error) {
	query := fmt.Sprintf("+label.%s:>=1 +label.state:%s +label.game:%s", MatchLabelKey_OpenSeats, labelStateLobby, matchLabelGame)

	limit := 10
	authoritative := true
	minSize := 1
	maxSize := app.MaxPlayersPerGame - 1

	matches, err := nk.MatchList(ctx, limit, authoritative, "", &minSize, &maxSize, query)
	if err != nil {
		logger.Error("MatchList error: %v", err)
		return "", err
	}

	if len(matches) > 0 {
		return encodeQuickMatch(QuickMatchResponse{MatchID: matches[0].MatchId, IsNew: false})
	}

	// Seat and owner assignment happens in MatchJoin.
	matchID, err := nk.MatchCreate(ctx, MatchNameCribbage, map[string]interface{}{})
	if err != nil {
		logger.Error("MatchCreate error: %v", err)
		return "", err
	}
	return encodeQuickMatch(QuickMatchResponse{MatchID: matchID, IsNew: true})
}

func encodeQuickMatch(resp QuickMatchResponse) (string, error) {
	b, err := json.Marshal(resp)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
