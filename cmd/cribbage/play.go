package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"cribbage/internal/app"
	"cribbage/internal/domain"
	"cribbage/internal/table"

	"github.com/pterm/pterm"
)

// resubmitAfter bounds how long the loop waits for a submitted move to show
// up before prompting again.
const resubmitAfter = 5 * time.Second

// controller is the part of a game a local player drives. The host drives its
// table directly; the guest goes through a replica.Mirror.
type controller interface {
	State() *domain.GameState
	Discard(ctx context.Context, playerID string, cards []domain.Card) error
	Play(ctx context.Context, playerID string, card domain.Card) error
	Go(ctx context.Context, playerID string) error
	Ready(ctx context.Context, playerID string) error
}

type tableController struct {
	tbl *table.Table
}

func (c tableController) State() *domain.GameState { return c.tbl.State() }

func (c tableController) Discard(_ context.Context, playerID string, cards []domain.Card) error {
	return c.tbl.Discard(playerID, domain.CardCodes(cards))
}

func (c tableController) Play(_ context.Context, playerID string, card domain.Card) error {
	return c.tbl.Play(playerID, card.String())
}

func (c tableController) Go(_ context.Context, playerID string) error {
	return c.tbl.Go(playerID)
}

func (c tableController) Ready(_ context.Context, playerID string) error {
	return c.tbl.Acknowledge(playerID)
}

func (c tableController) Restart() error { return c.tbl.Restart() }

type restarter interface {
	Restart() error
}

type action int

const (
	actionWait action = iota
	actionDiscard
	actionPlay
	actionGo
	actionReady
	actionGameOver
)

// nextAction decides what, if anything, the local player owes in g.
func nextAction(g *domain.GameState, me string) action {
	if g == nil {
		return actionWait
	}
	if g.IsOver() {
		return actionGameOver
	}
	p := g.Player(me)
	if p == nil {
		return actionWait
	}
	switch g.Phase {
	case domain.PhaseDiscarding:
		if len(p.Hand) > domain.KeepSize {
			return actionDiscard
		}
	case domain.PhasePegging:
		if g.TurnPlayerID != me {
			return actionWait
		}
		if p.CanPlay(g.PeggingTotal) {
			return actionPlay
		}
		return actionGo
	case domain.PhaseCounting:
		if !g.Ready[me] {
			return actionReady
		}
	}
	return actionWait
}

func playLoop(ctx context.Context, ctrl controller, me string, updates <-chan struct{}) error {
	var shown int64 = -1
	for {
		g := ctrl.State()
		if g != nil && g.Version != shown {
			renderState(g, me)
			shown = g.Version
		}

		act := nextAction(g, me)
		if act == actionWait {
			if err := wait(ctx, updates, 0); err != nil {
				return nil
			}
			continue
		}
		if act == actionGameOver {
			done, err := gameOver(ctx, ctrl, g, me, updates)
			if done || err != nil {
				return err
			}
			continue
		}

		if err := act.perform(ctx, ctrl, g, me); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			pterm.Warning.Printfln("%s: %v", app.StatusOf(err), err)
			continue
		}
		// The mirror applies the move only when the host's snapshot arrives.
		for {
			next := ctrl.State()
			if next.Version != g.Version || nextAction(next, me) != act {
				break
			}
			if err := wait(ctx, updates, resubmitAfter); err != nil {
				if ctx.Err() != nil {
					return nil
				}
				break
			}
		}
	}
}

var errTimeout = errors.New("timed out")

// wait blocks for the next update. A zero timeout waits indefinitely.
func wait(ctx context.Context, updates <-chan struct{}, timeout time.Duration) error {
	var expire <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		expire = timer.C
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-updates:
		return nil
	case <-expire:
		return errTimeout
	}
}

func (act action) perform(ctx context.Context, ctrl controller, g *domain.GameState, me string) error {
	p := g.Player(me)
	switch act {
	case actionDiscard:
		n := len(p.Hand) - domain.KeepSize
		input, err := pterm.DefaultInteractiveTextInput.
			WithDefaultText(fmt.Sprintf("Discard %d to the crib (codes or positions)", n)).Show()
		if err != nil {
			return err
		}
		cards, err := resolveCards(p.Hand, input)
		if err != nil {
			return err
		}
		if len(cards) != n {
			return fmt.Errorf("%w: pick exactly %d cards", app.ErrBadDiscard, n)
		}
		return ctrl.Discard(ctx, me, cards)
	case actionPlay:
		input, err := pterm.DefaultInteractiveTextInput.
			WithDefaultText(fmt.Sprintf("Play a card (total %d)", g.PeggingTotal)).Show()
		if err != nil {
			return err
		}
		cards, err := resolveCards(p.Hand, input)
		if err != nil {
			return err
		}
		if len(cards) != 1 {
			return fmt.Errorf("%w: pick one card", app.ErrCardNotInHand)
		}
		return ctrl.Play(ctx, me, cards[0])
	case actionGo:
		pterm.Info.Println("No card fits under 31: go.")
		return ctrl.Go(ctx, me)
	case actionReady:
		ok, err := pterm.DefaultInteractiveConfirm.WithDefaultText("Ready for the next count?").WithDefaultValue(true).Show()
		if err != nil || !ok {
			return err
		}
		return ctrl.Ready(ctx, me)
	}
	return nil
}

// gameOver announces the winner. The host may start another game; the guest
// waits for one. done reports that the loop should stop.
func gameOver(ctx context.Context, ctrl controller, g *domain.GameState, me string, updates <-chan struct{}) (bool, error) {
	winner := g.Player(g.WinnerID)
	name := g.WinnerID
	if winner != nil {
		name = winner.Name
	}
	if g.WinnerID == me {
		pterm.Success.Printfln("You win with %d!", winner.Score)
	} else {
		pterm.Info.Printfln("%s wins.", name)
	}

	if r, ok := ctrl.(restarter); ok {
		again, _ := pterm.DefaultInteractiveConfirm.WithDefaultText("Play again?").WithDefaultValue(true).Show()
		if !again {
			return true, nil
		}
		return false, r.Restart()
	}
	pterm.Info.Println("Waiting for the host to start another game (Ctrl-C to quit) ...")
	for ctrl.State().IsOver() {
		if err := wait(ctx, updates, 0); err != nil {
			return true, nil
		}
	}
	return false, nil
}

// resolveCards maps user input to cards in hand. Input is either card codes
// or 1-based positions, separated by commas or spaces.
func resolveCards(hand []domain.Card, input string) ([]domain.Card, error) {
	fields := strings.FieldsFunc(input, func(r rune) bool { return r == ',' || r == ' ' })
	if len(fields) == 0 {
		return nil, errors.New("no cards given")
	}
	cards := make([]domain.Card, 0, len(fields))
	for _, f := range fields {
		if pos, err := strconv.Atoi(f); err == nil {
			if pos < 1 || pos > len(hand) {
				return nil, fmt.Errorf("%w: no card at position %d", app.ErrCardNotInHand, pos)
			}
			cards = append(cards, hand[pos-1])
			continue
		}
		c, err := domain.ParseCard(cardCode(f))
		if err != nil {
			return nil, err
		}
		if domain.IndexOfCard(hand, c) < 0 {
			return nil, fmt.Errorf("%w: %s", app.ErrCardNotInHand, c)
		}
		cards = append(cards, c)
	}
	if domain.HasDuplicates(cards) {
		return nil, errors.New("a card is picked twice")
	}
	return cards, nil
}
