// Package replica shares one authoritative game between two peers. The
// authority applies every command and publishes full snapshots; the mirror
// renders snapshots and forwards its player's moves as intents.
package replica

import (
	"context"

	"cribbage/internal/domain"
	"cribbage/internal/snapshot"
)

// IntentKind names a remote player's command.
type IntentKind string

const (
	IntentDiscard IntentKind = "discard"
	IntentPlay    IntentKind = "play"
	IntentGo      IntentKind = "go"
	IntentReady   IntentKind = "ready"
)

// Intent is a move requested by a mirror for one of its own players.
// Cards are referenced by code.
type Intent struct {
	ID       string               `json:"id"`
	Kind     IntentKind           `json:"kind"`
	PlayerID string               `json:"playerId"`
	Cards    []string             `json:"cards,omitempty"`
	Game     int                  `json:"game"`
	Round    int                  `json:"round"`
	Stage    domain.CountingStage `json:"stage,omitempty"`
}

// MessageType discriminates Message payloads.
type MessageType string

const (
	MessageSnapshot MessageType = "snapshot"
	MessageIntent   MessageType = "intent"
)

// Message is the unit exchanged over a peer link.
type Message struct {
	Type     MessageType        `json:"type"`
	Snapshot *snapshot.Snapshot `json:"snapshot,omitempty"`
	Token    string             `json:"token,omitempty"`
	Intent   *Intent            `json:"intent,omitempty"`
}

// Sender delivers one message to the other peer.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// SenderFunc adapts a function to Sender.
type SenderFunc func(ctx context.Context, msg Message) error

func (f SenderFunc) Send(ctx context.Context, msg Message) error {
	return f(ctx, msg)
}

// Signer binds snapshots to their authority. *snapshot.Signer implements it.
type Signer interface {
	Sign(snap snapshot.Snapshot) (string, error)
}

// Verifier checks a snapshot token. *snapshot.Signer implements it.
type Verifier interface {
	Verify(token string, snap snapshot.Snapshot) error
}
