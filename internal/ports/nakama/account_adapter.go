package nakama

import (
	"context"

	"cribbage/internal/ports"

	"github.com/heroiclabs/nakama-common/runtime"
)

// AccountUpdater is the part of runtime.NakamaModule used to rename accounts.
type AccountUpdater interface {
	AccountUpdateId(ctx context.Context, userID, username string, metadata map[string]interface{}, displayName, timezone, location, langTag, avatarUrl string) error
}

// NakamaAccountAdapter implements ports.AccountPort using Nakama's account API.
type NakamaAccountAdapter struct {
	nk AccountUpdater
}

func NewNakamaAccountAdapter(nk AccountUpdater) *NakamaAccountAdapter {
	return &NakamaAccountAdapter{nk: nk}
}

// UpdateProfile sets username and display name; other profile fields are left untouched.
func (a *NakamaAccountAdapter) UpdateProfile(ctx context.Context, userID, username, displayName string) error {
	return a.nk.AccountUpdateId(ctx, userID, username, nil, displayName, "", "", "", "")
}

var (
	_ ports.AccountPort = (*NakamaAccountAdapter)(nil)
	_ AccountUpdater    = (runtime.NakamaModule)(nil)
	_ StatsStore        = (runtime.NakamaModule)(nil)
)
