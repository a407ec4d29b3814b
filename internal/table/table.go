// Package table hosts one cribbage game: it serializes commands, drives the
// non-human seats and notifies listeners after every transition.
package table

import (
	"fmt"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"cribbage/internal/app"
	"cribbage/internal/bot"
	"cribbage/internal/domain"
)

// Options configures a Table.
type Options struct {
	Pacing    time.Duration
	BotLevel  bot.BotLevel
	Scheduler Scheduler
	Logger    *slog.Logger
	Rand      *rand.Rand
}

// Table owns one GameState behind a mutex.
type Table struct {
	mu      sync.Mutex
	svc     *app.Service
	game    *domain.GameState
	bots    map[string]*bot.Agent
	pending map[string]bool

	sched  Scheduler
	pacing time.Duration
	logger *slog.Logger

	listeners   []func(app.Event)
	transitions []func(*domain.GameState)
}

// New wraps an existing game. Every non-human seat gets a bot agent.
func New(svc *app.Service, game *domain.GameState, opts Options) (*Table, error) {
	if opts.Scheduler == nil {
		opts.Scheduler = DefaultScheduler
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	t := &Table{
		svc:     svc,
		game:    game,
		bots:    make(map[string]*bot.Agent),
		pending: make(map[string]bool),
		sched:   opts.Scheduler,
		pacing:  opts.Pacing,
		logger:  opts.Logger.With("game", game.ID),
	}
	for _, p := range game.Players {
		if p.IsHuman {
			continue
		}
		agent, err := bot.NewAgent(p.ID, opts.BotLevel, opts.Rand)
		if err != nil {
			return nil, fmt.Errorf("bot for %s: %w", p.ID, err)
		}
		t.bots[p.ID] = agent
	}
	return t, nil
}

// Start schedules whatever the bots owe in the current state.
func (t *Table) Start() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.scheduleBotsLocked()
}

// Subscribe registers a listener for every emitted event.
func (t *Table) Subscribe(fn func(app.Event)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.listeners = append(t.listeners, fn)
}

// OnTransition registers a hook receiving a deep copy of the state after each
// successful command.
func (t *Table) OnTransition(fn func(*domain.GameState)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.transitions = append(t.transitions, fn)
}

// State returns a deep copy of the current game.
func (t *Table) State() *domain.GameState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.game.Clone()
}

// IsBot reports whether the seat is driven by this table.
func (t *Table) IsBot(playerID string) bool {
	_, ok := t.bots[playerID]
	return ok
}

// Discard lays the cards named by code away to the crib.
func (t *Table) Discard(playerID string, codes []string) error {
	cards, err := domain.ParseCards(codes)
	if err != nil {
		return err
	}
	return t.run(func(g *domain.GameState) ([]app.Event, error) {
		return t.discard(g, playerID, cards)
	})
}

// Play lays the card named by code on the pegging stack.
func (t *Table) Play(playerID, code string) error {
	card, err := domain.ParseCard(code)
	if err != nil {
		return err
	}
	return t.run(func(g *domain.GameState) ([]app.Event, error) {
		return t.play(g, playerID, card)
	})
}

// Go declares that the player cannot play.
func (t *Table) Go(playerID string) error {
	return t.run(func(g *domain.GameState) ([]app.Event, error) {
		return t.svc.Go(g, playerID)
	})
}

// Acknowledge marks the player ready to leave the counting stage.
func (t *Table) Acknowledge(playerID string) error {
	return t.run(func(g *domain.GameState) ([]app.Event, error) {
		return t.svc.Acknowledge(g, playerID)
	})
}

// Restart begins a new game with the same seats.
func (t *Table) Restart() error {
	return t.run(t.svc.Restart)
}

func (t *Table) discard(g *domain.GameState, playerID string, cards []domain.Card) ([]app.Event, error) {
	p := g.Player(playerID)
	if p == nil {
		return nil, app.ErrUnknownPlayer
	}
	indices, err := app.HandIndices(p.Hand, cards)
	if err != nil {
		return nil, err
	}
	return t.svc.Discard(g, playerID, indices)
}

func (t *Table) play(g *domain.GameState, playerID string, card domain.Card) ([]app.Event, error) {
	p := g.Player(playerID)
	if p == nil {
		return nil, app.ErrUnknownPlayer
	}
	idx, err := app.HandIndex(p.Hand, card)
	if err != nil {
		return nil, err
	}
	return t.svc.Play(g, playerID, idx)
}

type command func(*domain.GameState) ([]app.Event, error)

func (t *Table) run(cmd command) error {
	t.mu.Lock()
	notify, err := t.applyLocked(cmd)
	t.mu.Unlock()
	if err != nil {
		return err
	}
	notify()
	return nil
}

// applyLocked runs cmd and returns the notifications to deliver once the lock
// is released.
func (t *Table) applyLocked(cmd command) (func(), error) {
	before := t.game.Version
	events, err := cmd(t.game)
	if err != nil {
		return nil, err
	}
	if t.game.Version == before {
		return func() {}, nil
	}
	t.scheduleBotsLocked()

	state := t.game.Clone()
	listeners := append([]func(app.Event){}, t.listeners...)
	transitions := append([]func(*domain.GameState){}, t.transitions...)
	return func() {
		for _, ev := range events {
			for _, fn := range listeners {
				fn(ev)
			}
		}
		for _, fn := range transitions {
			fn(state)
		}
	}, nil
}
