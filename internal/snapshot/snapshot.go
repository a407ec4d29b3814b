// Package snapshot carries complete game states between an authority and its mirrors.
package snapshot

import (
	"encoding/json"
	"errors"
	"fmt"

	"cribbage/internal/domain"
)

var ErrEmptyState = errors.New("snapshot carries no state")

// Snapshot is the lossless wire form of one GameState version.
type Snapshot struct {
	GameID    string          `json:"gameId"`
	Version   int64           `json:"version"`
	Authority string          `json:"authority"`
	State     json.RawMessage `json:"state"`
}

// New captures the given state.
func New(g *domain.GameState) (Snapshot, error) {
	raw, err := json.Marshal(g)
	if err != nil {
		return Snapshot{}, fmt.Errorf("encode state: %w", err)
	}
	return Snapshot{
		GameID:    g.ID,
		Version:   g.Version,
		Authority: g.AuthorityID,
		State:     raw,
	}, nil
}

// Decode rebuilds the game state held by the snapshot.
func (s Snapshot) Decode() (*domain.GameState, error) {
	if len(s.State) == 0 {
		return nil, ErrEmptyState
	}
	var g domain.GameState
	if err := json.Unmarshal(s.State, &g); err != nil {
		return nil, fmt.Errorf("decode state: %w", err)
	}
	return &g, nil
}

// Marshal encodes a snapshot as JSON.
func Marshal(s Snapshot) ([]byte, error) {
	return json.Marshal(s)
}

// Unmarshal decodes a JSON snapshot.
func Unmarshal(data []byte) (Snapshot, error) {
	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return Snapshot{}, fmt.Errorf("decode snapshot: %w", err)
	}
	return s, nil
}
