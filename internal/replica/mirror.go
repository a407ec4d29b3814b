package replica

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"cribbage/internal/domain"
	"cribbage/internal/snapshot"
)

var (
	ErrNotLocalPlayer = errors.New("player is not owned by this mirror")
	ErrNoSnapshot     = errors.New("no snapshot applied yet")
)

type readyKey struct {
	playerID string
	game     int
	round    int
	stage    domain.CountingStage
}

// Mirror renders the authority's snapshots and submits intents for its own
// players. It never runs game rules itself.
type Mirror struct {
	local    map[string]bool
	out      Sender
	verifier Verifier
	logger   *slog.Logger

	mu      sync.Mutex
	state   *domain.GameState
	version int64
	ready   map[readyKey]bool
	onState []func(*domain.GameState)
}

// NewMirror builds a mirror for the given local players. verifier may be nil.
func NewMirror(local []string, out Sender, verifier Verifier, logger *slog.Logger) *Mirror {
	if logger == nil {
		logger = slog.Default()
	}
	m := &Mirror{
		local:    make(map[string]bool, len(local)),
		out:      out,
		verifier: verifier,
		logger:   logger,
		ready:    make(map[readyKey]bool),
	}
	for _, id := range local {
		m.local[id] = true
	}
	return m
}

// OnState registers a hook called with a copy of every applied state.
func (m *Mirror) OnState(fn func(*domain.GameState)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onState = append(m.onState, fn)
}

// State returns a copy of the last applied state, or nil.
func (m *Mirror) State() *domain.GameState {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == nil {
		return nil
	}
	return m.state.Clone()
}

// Version returns the last applied snapshot version.
func (m *Mirror) Version() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.version
}

// HandleMessage applies an incoming snapshot; other message types are ignored.
func (m *Mirror) HandleMessage(ctx context.Context, msg Message) error {
	if msg.Type != MessageSnapshot || msg.Snapshot == nil {
		return nil
	}
	return m.HandleSnapshot(ctx, *msg.Snapshot, msg.Token)
}

// HandleSnapshot replaces the local state with a newer snapshot. Versions at or
// below the applied one are ignored. Ready flags asserted for the snapshot's
// game, round and stage are re-applied and re-sent when the snapshot lacks
// them; flags for any other stage are forgotten.
func (m *Mirror) HandleSnapshot(ctx context.Context, snap snapshot.Snapshot, token string) error {
	if m.verifier != nil {
		if err := m.verifier.Verify(token, snap); err != nil {
			return err
		}
	}

	m.mu.Lock()
	if m.state != nil && snap.Version <= m.version {
		m.mu.Unlock()
		return nil
	}
	g, err := snap.Decode()
	if err != nil {
		m.mu.Unlock()
		return err
	}

	var resend []Intent
	for key := range m.ready {
		if g.Phase != domain.PhaseCounting || key.game != g.Game ||
			key.round != g.Round || key.stage != g.CountingStage {
			delete(m.ready, key)
			continue
		}
		if !g.Ready[key.playerID] {
			if g.Ready == nil {
				g.Ready = map[string]bool{}
			}
			g.Ready[key.playerID] = true
			resend = append(resend, readyIntent(key))
		}
	}
	m.state = g
	m.version = snap.Version
	hooks := append([]func(*domain.GameState){}, m.onState...)
	state := g.Clone()
	m.mu.Unlock()

	for _, fn := range hooks {
		fn(state)
	}
	for _, in := range resend {
		m.logger.Debug("re-sending ready", "player", in.PlayerID, "round", in.Round, "stage", in.Stage)
		if err := m.send(ctx, in); err != nil {
			return err
		}
	}
	return nil
}

// Discard asks the authority to lay cards away for a local player.
func (m *Mirror) Discard(ctx context.Context, playerID string, cards []domain.Card) error {
	return m.Submit(ctx, Intent{Kind: IntentDiscard, PlayerID: playerID, Cards: domain.CardCodes(cards)})
}

// Play asks the authority to play a card for a local player.
func (m *Mirror) Play(ctx context.Context, playerID string, card domain.Card) error {
	return m.Submit(ctx, Intent{Kind: IntentPlay, PlayerID: playerID, Cards: []string{card.String()}})
}

// Go asks the authority to declare go for a local player.
func (m *Mirror) Go(ctx context.Context, playerID string) error {
	return m.Submit(ctx, Intent{Kind: IntentGo, PlayerID: playerID})
}

// Ready acknowledges the current counting stage. The flag shows locally at
// once and sticks until a snapshot for a later stage arrives.
func (m *Mirror) Ready(ctx context.Context, playerID string) error {
	return m.Submit(ctx, Intent{Kind: IntentReady, PlayerID: playerID})
}

// Submit fills in the intent's ID, game, round and stage from the applied
// state and sends it to the authority.
func (m *Mirror) Submit(ctx context.Context, in Intent) error {
	if !m.local[in.PlayerID] {
		return ErrNotLocalPlayer
	}
	m.mu.Lock()
	if m.state == nil {
		m.mu.Unlock()
		return ErrNoSnapshot
	}
	if in.Round == 0 {
		in.Game = m.state.Game
		in.Round = m.state.Round
	}
	if in.Kind == IntentReady {
		if in.Stage == domain.StageNone {
			in.Stage = m.state.CountingStage
		}
		m.ready[readyKey{playerID: in.PlayerID, game: in.Game, round: in.Round, stage: in.Stage}] = true
		if m.state.Ready == nil {
			m.state.Ready = map[string]bool{}
		}
		m.state.Ready[in.PlayerID] = true
	}
	m.mu.Unlock()
	return m.send(ctx, in)
}

func (m *Mirror) send(ctx context.Context, in Intent) error {
	if in.ID == "" {
		in.ID = uuid.NewString()
	}
	if err := m.out.Send(ctx, Message{Type: MessageIntent, Intent: &in}); err != nil {
		return fmt.Errorf("send %s intent: %w", in.Kind, err)
	}
	return nil
}

func readyIntent(key readyKey) Intent {
	return Intent{Kind: IntentReady, PlayerID: key.playerID, Game: key.game, Round: key.round, Stage: key.stage}
}
