package replica

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"cribbage/internal/domain"
	"cribbage/internal/snapshot"
	"cribbage/internal/table"
)

var (
	ErrNotRemotePlayer = errors.New("intent names a player owned by the authority")
	ErrStaleIntent     = errors.New("intent does not match the current game or round")
	ErrUnknownIntent   = errors.New("unknown intent kind")
)

// Authority owns the game. Remote intents are applied through its Table and
// every transition is published as a snapshot.
type Authority struct {
	table  *table.Table
	remote map[string]bool
	out    Sender
	signer Signer
	logger *slog.Logger

	mu     sync.Mutex
	seen   map[string]bool
	latest *domain.GameState
	wake   chan struct{}
}

// NewAuthority wraps tbl. remote lists the players driven by the other peer.
// signer may be nil.
func NewAuthority(tbl *table.Table, remote []string, out Sender, signer Signer, logger *slog.Logger) *Authority {
	if logger == nil {
		logger = slog.Default()
	}
	a := &Authority{
		table:  tbl,
		remote: make(map[string]bool, len(remote)),
		out:    out,
		signer: signer,
		logger: logger,
		seen:   make(map[string]bool),
		wake:   make(chan struct{}, 1),
	}
	for _, id := range remote {
		a.remote[id] = true
	}
	tbl.OnTransition(a.enqueue)
	a.enqueue(tbl.State())
	return a
}

// enqueue keeps only the newest state; snapshots are complete so older
// unsent ones are superseded.
func (a *Authority) enqueue(g *domain.GameState) {
	a.mu.Lock()
	if a.latest == nil || g.Version >= a.latest.Version {
		a.latest = g
	}
	a.mu.Unlock()
	select {
	case a.wake <- struct{}{}:
	default:
	}
}

// Run publishes queued snapshots until ctx is done.
func (a *Authority) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-a.wake:
			if err := a.Flush(ctx); err != nil {
				a.logger.Error("snapshot publish dropped", "err", err)
			}
		}
	}
}

// Flush publishes the newest queued state, if any.
func (a *Authority) Flush(ctx context.Context) error {
	a.mu.Lock()
	g := a.latest
	a.latest = nil
	a.mu.Unlock()
	if g == nil {
		return nil
	}

	snap, err := snapshot.New(g)
	if err != nil {
		return err
	}
	msg := Message{Type: MessageSnapshot, Snapshot: &snap}
	if a.signer != nil {
		token, err := a.signer.Sign(snap)
		if err != nil {
			return fmt.Errorf("sign snapshot: %w", err)
		}
		msg.Token = token
	}
	if err := a.out.Send(ctx, msg); err != nil {
		return err
	}
	a.logger.Debug("snapshot published", "game", snap.GameID, "version", snap.Version)
	return nil
}

// Resync queues the current state for publishing, e.g. when a peer connects.
func (a *Authority) Resync() {
	a.enqueue(a.table.State())
}

// HandleMessage applies an incoming intent; other message types are ignored.
func (a *Authority) HandleMessage(ctx context.Context, msg Message) error {
	if msg.Type != MessageIntent || msg.Intent == nil {
		return nil
	}
	return a.HandleIntent(ctx, *msg.Intent)
}

// HandleIntent applies a remote player's move. Duplicate intent IDs are
// ignored. A rejected move republishes the current state so the mirror
// converges.
func (a *Authority) HandleIntent(ctx context.Context, in Intent) error {
	if !a.remote[in.PlayerID] {
		return ErrNotRemotePlayer
	}
	a.mu.Lock()
	if in.ID != "" && a.seen[in.ID] {
		a.mu.Unlock()
		return nil
	}
	if in.ID != "" {
		a.seen[in.ID] = true
	}
	a.mu.Unlock()

	current := a.table.State()
	if in.Game != current.Game || in.Round != current.Round {
		return ErrStaleIntent
	}

	var err error
	switch in.Kind {
	case IntentDiscard:
		err = a.table.Discard(in.PlayerID, in.Cards)
	case IntentPlay:
		if len(in.Cards) != 1 {
			err = fmt.Errorf("%w: play needs one card", ErrUnknownIntent)
			break
		}
		err = a.table.Play(in.PlayerID, in.Cards[0])
	case IntentGo:
		err = a.table.Go(in.PlayerID)
	case IntentReady:
		if in.Stage != current.CountingStage {
			return ErrStaleIntent
		}
		err = a.table.Acknowledge(in.PlayerID)
	default:
		err = fmt.Errorf("%w: %q", ErrUnknownIntent, in.Kind)
	}
	if err != nil {
		a.logger.Info("remote intent rejected", "player", in.PlayerID, "kind", in.Kind, "err", err)
		a.Resync()
		return err
	}
	return nil
}
