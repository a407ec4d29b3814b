package table

import (
	"errors"

	"cribbage/internal/app"
	"cribbage/internal/bot"
	"cribbage/internal/domain"
)

// scheduleBotsLocked queues one action per bot that owes a move.
func (t *Table) scheduleBotsLocked() {
	g := t.game
	if g.IsOver() || len(t.bots) == 0 {
		return
	}
	switch g.Phase {
	case domain.PhaseDiscarding:
		for _, p := range g.Players {
			if t.bots[p.ID] != nil && len(p.Hand) > domain.KeepSize {
				t.scheduleLocked("discard", p.ID)
			}
		}
	case domain.PhasePegging:
		if t.bots[g.TurnPlayerID] != nil {
			t.scheduleLocked("peg", g.TurnPlayerID)
		}
	case domain.PhaseCounting:
		// Humans advance counting. Without any, the first bot does.
		if app.AllReady(g) {
			for _, p := range g.Players {
				if t.bots[p.ID] != nil {
					t.scheduleLocked("ready", p.ID)
					break
				}
			}
		}
	}
}

// deal identifies one hand of one game; a restart starts a new game even when
// it lands on a round number seen before.
type deal struct {
	game  int
	round int
}

func (t *Table) scheduleLocked(kind, playerID string) {
	key := kind + ":" + playerID
	if t.pending[key] {
		return
	}
	t.pending[key] = true
	at := deal{game: t.game.Game, round: t.game.Round}
	t.sched.After(t.pacing, func() { t.fire(key, kind, playerID, at) })
}

// fire runs a scheduled bot action if it still applies to the current state.
func (t *Table) fire(key, kind, playerID string, at deal) {
	t.mu.Lock()
	delete(t.pending, key)
	g := t.game
	if g.IsOver() || g.Game != at.game || g.Round != at.round {
		t.scheduleBotsLocked()
		t.mu.Unlock()
		return
	}

	var cmd command
	switch kind {
	case "ready":
		if g.Phase != domain.PhaseCounting {
			t.mu.Unlock()
			return
		}
		cmd = func(g *domain.GameState) ([]app.Event, error) {
			return t.svc.Acknowledge(g, playerID)
		}
	default:
		move, err := t.bots[playerID].Decide(g)
		if errors.Is(err, bot.ErrNoDecision) {
			t.mu.Unlock()
			return
		}
		if err != nil {
			t.logger.Warn("bot decision failed", "player", playerID, "err", err)
			t.mu.Unlock()
			return
		}
		cmd = t.moveCommand(playerID, move)
	}

	notify, err := t.applyLocked(cmd)
	t.mu.Unlock()
	if err != nil {
		t.logger.Warn("bot move rejected", "player", playerID, "kind", kind, "err", err)
		return
	}
	t.logger.Debug("bot moved", "player", playerID, "kind", kind)
	notify()
}

func (t *Table) moveCommand(playerID string, move bot.Move) command {
	return func(g *domain.GameState) ([]app.Event, error) {
		switch {
		case len(move.Discard) > 0:
			return t.discard(g, playerID, move.Discard)
		case move.Card != nil:
			return t.play(g, playerID, *move.Card)
		default:
			return t.svc.Go(g, playerID)
		}
	}
}
