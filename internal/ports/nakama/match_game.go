package nakama

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"cribbage/internal/app"
	"cribbage/internal/bot"
	"cribbage/internal/domain"
	"cribbage/internal/ports"

	"github.com/heroiclabs/nakama-common/runtime"
)

type discardRequest struct {
	Cards []string `json:"cards"`
}

type playCardRequest struct {
	Card string `json:"card"`
}

func (mh *matchHandler) handleStartGame(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, msg runtime.MatchData) {
	senderID := msg.GetUserId()
	senderSeat := state.seatOf(senderID)

	logger.Info("StartGame: Request received from %s (seat=%d, owner_seat=%d, occupied=%d)", senderID, senderSeat, state.OwnerSeat, state.GetOccupiedSeatCount())

	if state.Game != nil {
		logger.Warn("StartGame: Game already started.")
		mh.sendError(state, dispatcher, logger, senderID, app.ErrWrongPhase)
		return
	}
	if senderSeat != state.OwnerSeat {
		logger.Warn("StartGame: User %s tried to start game but is not owner (owner_seat=%d)", senderID, state.OwnerSeat)
		return
	}

	var seats []app.PlayerSeat
	for _, userID := range state.Seats {
		if userID == "" {
			continue
		}
		seats = append(seats, app.PlayerSeat{
			ID:      userID,
			Name:    state.displayName(userID),
			IsHuman: !isBotUserId(userID),
		})
	}
	if len(seats) < app.MinPlayersToStartGame {
		logger.Warn("StartGame: Cannot start with %d players. Need at least %d.", len(seats), app.MinPlayersToStartGame)
		mh.sendError(state, dispatcher, logger, senderID, app.ErrInvalidPlayers)
		return
	}

	game, events, err := state.App.NewGame(state.MatchID, seats)
	if err != nil {
		logger.Error("StartGame: Failed to start game: %v", err)
		mh.sendError(state, dispatcher, logger, senderID, err)
		return
	}
	state.Game = game
	state.ResultsRecorded = false
	for _, seat := range seats {
		if !seat.IsHuman {
			mh.ensureBot(state, logger, seat.ID)
		}
	}

	mh.afterTransition(ctx, state, dispatcher, logger, events)
	logger.Info("StartGame: Game started with %d players.", len(seats))
}

func (mh *matchHandler) handleDiscard(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, msg runtime.MatchData) {
	senderID := msg.GetUserId()
	var request discardRequest
	if err := json.Unmarshal(msg.GetData(), &request); err != nil {
		logger.Warn("handleDiscard: Invalid request from %s: %v", senderID, err)
		mh.sendError(state, dispatcher, logger, senderID, err)
		return
	}
	cards, err := domain.ParseCards(request.Cards)
	if err != nil {
		mh.sendError(state, dispatcher, logger, senderID, err)
		return
	}

	mh.apply(ctx, state, dispatcher, logger, senderID, "handleDiscard", func(g *domain.GameState) ([]app.Event, error) {
		p := g.Player(senderID)
		if p == nil {
			return nil, app.ErrUnknownPlayer
		}
		indices, err := app.HandIndices(p.Hand, cards)
		if err != nil {
			return nil, err
		}
		return state.App.Discard(g, senderID, indices)
	})
}

func (mh *matchHandler) handlePlayCard(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, msg runtime.MatchData) {
	senderID := msg.GetUserId()
	var request playCardRequest
	if err := json.Unmarshal(msg.GetData(), &request); err != nil {
		logger.Warn("handlePlayCard: Invalid request from %s: %v", senderID, err)
		mh.sendError(state, dispatcher, logger, senderID, err)
		return
	}
	card, err := domain.ParseCard(request.Card)
	if err != nil {
		mh.sendError(state, dispatcher, logger, senderID, err)
		return
	}

	mh.apply(ctx, state, dispatcher, logger, senderID, "handlePlayCard", func(g *domain.GameState) ([]app.Event, error) {
		return playCard(state.App, g, senderID, card)
	})
}

func (mh *matchHandler) handleGo(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, msg runtime.MatchData) {
	senderID := msg.GetUserId()
	mh.apply(ctx, state, dispatcher, logger, senderID, "handleGo", func(g *domain.GameState) ([]app.Event, error) {
		return state.App.Go(g, senderID)
	})
}

func (mh *matchHandler) handleReady(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, msg runtime.MatchData) {
	senderID := msg.GetUserId()
	mh.apply(ctx, state, dispatcher, logger, senderID, "handleReady", func(g *domain.GameState) ([]app.Event, error) {
		return state.App.Acknowledge(g, senderID)
	})
}

func (mh *matchHandler) handleRestart(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, msg runtime.MatchData) {
	senderID := msg.GetUserId()
	if state.seatOf(senderID) != state.OwnerSeat {
		logger.Warn("handleRestart: User %s is not the owner.", senderID)
		return
	}
	if state.Game == nil || !state.Game.IsOver() {
		mh.sendError(state, dispatcher, logger, senderID, app.ErrWrongPhase)
		return
	}
	state.ResultsRecorded = false
	mh.apply(ctx, state, dispatcher, logger, senderID, "handleRestart", state.App.Restart)
}

// apply runs one command against the game and publishes the result.
func (mh *matchHandler) apply(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, senderID, handler string, cmd func(*domain.GameState) ([]app.Event, error)) {
	if state.Game == nil {
		logger.Warn("%s: Game not started.", handler)
		mh.sendError(state, dispatcher, logger, senderID, app.ErrWrongPhase)
		return
	}

	before := state.Game.Version
	events, err := cmd(state.Game)
	if err != nil {
		logger.Warn("%s: User %s rejected: %v", handler, senderID, err)
		mh.sendError(state, dispatcher, logger, senderID, err)
		return
	}
	if state.Game.Version == before {
		return
	}
	mh.afterTransition(ctx, state, dispatcher, logger, events)
}

func playCard(svc *app.Service, g *domain.GameState, playerID string, card domain.Card) ([]app.Event, error) {
	p := g.Player(playerID)
	if p == nil {
		return nil, app.ErrUnknownPlayer
	}
	idx, err := app.HandIndex(p.Hand, card)
	if err != nil {
		return nil, err
	}
	return svc.Play(g, playerID, idx)
}

// afterTransition publishes events, private snapshots and the label, and
// records results once a game ends.
func (mh *matchHandler) afterTransition(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, events []app.Event) {
	state.BotWaitUntil = 0
	for _, ev := range events {
		mh.broadcastEvent(state, dispatcher, logger, ev)
	}
	mh.sendSnapshots(state, dispatcher, logger)
	mh.updateLabel(state, dispatcher, logger)

	if state.Game.IsOver() && !state.ResultsRecorded {
		state.ResultsRecorded = true
		mh.recordResults(ctx, state, logger)
	}
}

func (mh *matchHandler) recordResults(ctx context.Context, state *MatchState, logger runtime.Logger) {
	if state.Stats == nil {
		return
	}
	results := make([]ports.GameResult, 0, len(state.Game.Players))
	for _, p := range state.Game.Players {
		if isBotUserId(p.ID) {
			continue
		}
		results = append(results, ports.GameResult{
			UserID:  p.ID,
			MatchID: state.MatchID,
			Won:     p.ID == state.Game.WinnerID,
			Score:   p.Score,
			Rounds:  state.Game.Round,
		})
	}
	if err := state.Stats.RecordResults(ctx, results); err != nil {
		logger.Error("recordResults: Failed to record results: %v", err)
	}
}

func (mh *matchHandler) ensureBot(state *MatchState, logger runtime.Logger, userID string) *bot.Agent {
	if agent, ok := state.Bots[userID]; ok {
		return agent
	}
	level := state.BotLevel
	if identity, ok := bot.GetBotConfig(userID); ok && identity.Difficulty != "" {
		level = bot.ParseBotLevel(identity.Difficulty)
	}
	agent, err := bot.NewAgent(userID, level, state.rng)
	if err != nil {
		logger.Error("Failed to create bot agent for %s: %v", userID, err)
		return nil
	}
	agent.Name = state.displayName(userID)
	state.Bots[userID] = agent
	return agent
}

func (mh *matchHandler) processBots(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger) {
	// 1. Auto-fill a solo lobby with one bot after delay.
	if state.Game == nil {
		if state.GetHumanPlayerCount() == 1 && state.GetOccupiedSeatCount() == 1 {
			if state.LastSinglePlayerTick == 0 {
				state.LastSinglePlayerTick = state.Tick
				logger.Debug("processBots: Single player detected, starting auto-fill timer.")
			}

			if state.Tick-state.LastSinglePlayerTick >= int64(state.BotAutoFillDelay) {
				for i, seat := range state.Seats {
					if seat != "" {
						continue
					}
					identity := bot.GetBotIdentity(i)
					state.Seats[i] = identity.UserID
					mh.ensureBot(state, logger, identity.UserID)
					logger.Info("processBots: Added bot %s (%s) to seat %d", identity.DisplayName, identity.UserID, i)
					break
				}
				mh.updateLabel(state, dispatcher, logger)
				mh.broadcastMatchState(state, dispatcher, logger)
				state.LastSinglePlayerTick = 0
			}
		} else {
			state.LastSinglePlayerTick = 0
		}
		return
	}

	// 2. Bot moves in-game, one per wait period.
	playerID, ok := mh.pendingBotAction(state)
	if !ok {
		state.BotWaitUntil = 0
		return
	}
	if state.BotWaitUntil == 0 {
		delay := state.rng.Intn(state.BotMaxDelay-state.BotMinDelay+1) + state.BotMinDelay
		state.BotWaitUntil = state.Tick + int64(delay)
		logger.Debug("processBots: Bot %s will act at tick %d (current %d)", playerID, state.BotWaitUntil, state.Tick)
		return
	}
	if state.Tick < state.BotWaitUntil {
		return
	}
	state.BotWaitUntil = 0

	cmd, err := mh.botCommand(state, logger, playerID)
	if err != nil {
		logger.Error("processBots: Bot %s failed to decide: %v", playerID, err)
		return
	}
	mh.apply(ctx, state, dispatcher, logger, playerID, "processBots", cmd)
}

// pendingBotAction returns the bot that owes the next move, if any.
func (mh *matchHandler) pendingBotAction(state *MatchState) (string, bool) {
	g := state.Game
	if g.IsOver() {
		return "", false
	}
	switch g.Phase {
	case domain.PhaseDiscarding:
		for _, p := range g.Players {
			if state.Bots[p.ID] != nil && len(p.Hand) > domain.KeepSize {
				return p.ID, true
			}
		}
	case domain.PhasePegging:
		if state.Bots[g.TurnPlayerID] != nil {
			return g.TurnPlayerID, true
		}
	case domain.PhaseCounting:
		// Humans advance counting; once they are all ready a bot closes the stage.
		if app.AllReady(g) {
			for _, p := range g.Players {
				if state.Bots[p.ID] != nil {
					return p.ID, true
				}
			}
		}
	}
	return "", false
}

func (mh *matchHandler) botCommand(state *MatchState, logger runtime.Logger, playerID string) (func(*domain.GameState) ([]app.Event, error), error) {
	if state.Game.Phase == domain.PhaseCounting {
		return func(g *domain.GameState) ([]app.Event, error) {
			return state.App.Acknowledge(g, playerID)
		}, nil
	}

	agent := mh.ensureBot(state, logger, playerID)
	if agent == nil {
		return nil, fmt.Errorf("no agent for %s", playerID)
	}
	move, err := agent.Decide(state.Game)
	if err != nil {
		return nil, err
	}
	return func(g *domain.GameState) ([]app.Event, error) {
		switch {
		case len(move.Discard) > 0:
			p := g.Player(playerID)
			indices, err := app.HandIndices(p.Hand, move.Discard)
			if err != nil {
				return nil, err
			}
			return state.App.Discard(g, playerID, indices)
		case move.Card != nil:
			return playCard(state.App, g, playerID, *move.Card)
		default:
			return state.App.Go(g, playerID)
		}
	}, nil
}

// broadcastEvent encodes an app event and dispatches it to its recipients.
func (mh *matchHandler) broadcastEvent(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, ev app.Event) {
	opCode, ok := eventOpCodes[ev.Kind]
	if !ok {
		logger.Warn("Unknown event kind: %v", ev.Kind)
		return
	}
	data, err := encodeEvent(ev)
	if err != nil {
		logger.Error("Failed to marshal event %v: %v", ev.Kind, err)
		return
	}

	var recipients []runtime.Presence
	if len(ev.Recipients) > 0 {
		for _, uid := range ev.Recipients {
			if p, ok := state.Presences[uid]; ok {
				recipients = append(recipients, p)
			}
		}
		// Private events for bots or absent players go nowhere.
		if len(recipients) == 0 {
			return
		}
	}

	if err := dispatcher.BroadcastMessage(opCode, data, recipients, nil, true); err != nil {
		logger.Error("Failed to broadcast event %v: %v", ev.Kind, err)
	}
}

// sendSnapshots sends each connected player its own view of the game.
func (mh *matchHandler) sendSnapshots(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger) {
	for userID, presence := range state.Presences {
		if state.Game.Player(userID) == nil {
			continue
		}
		data, err := encodeSnapshot(state, userID)
		if err != nil {
			logger.Error("sendSnapshots: Failed to encode snapshot for %s: %v", userID, err)
			continue
		}
		if err := dispatcher.BroadcastMessage(OpSnapshot, data, []runtime.Presence{presence}, nil, true); err != nil {
			logger.Error("sendSnapshots: Failed to send snapshot to %s: %v", userID, err)
		}
	}
}

func (mh *matchHandler) broadcastMatchState(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger) {
	data, err := encodeMatchState(state)
	if err != nil {
		logger.Error("broadcastMatchState: Failed to marshal: %v", err)
		return
	}
	dispatcher.BroadcastMessage(OpMatchState, data, nil, nil, true)
}

// sendError sends a GameError to a specific user.
func (mh *matchHandler) sendError(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, userID string, cause error) {
	presence, ok := state.Presences[userID]
	if !ok {
		if !isBotUserId(userID) && !errors.Is(cause, app.ErrIllegalMove) {
			logger.Warn("Cannot send error to %s: Presence not found", userID)
		}
		return
	}
	data, err := encodeError(cause)
	if err != nil {
		logger.Error("Failed to marshal GameError: %v", err)
		return
	}
	dispatcher.BroadcastMessage(OpGameError, data, []runtime.Presence{presence}, nil, true)
}

func (mh *matchHandler) updateLabel(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger) {
	label, err := encodeLabel(state)
	if err != nil {
		logger.Error("UpdateLabel: Failed to marshal: %v", err)
		return
	}
	if err := dispatcher.MatchLabelUpdate(label); err != nil {
		logger.Error("UpdateLabel: Failed to update: %v", err)
	}
}
