package nakama

import (
	"context"
	"database/sql"
	"math/rand"
	"strconv"
	"time"

	"cribbage/internal/app"
	"cribbage/internal/bot"
	"cribbage/internal/config"
	"cribbage/internal/domain"
	"cribbage/internal/ports"
	"cribbage/internal/snapshot"

	"github.com/heroiclabs/nakama-common/runtime"
)

const (
	labelStateLobby    = "lobby"
	labelStatePlaying  = "playing"
	labelStateGameOver = "gameover"
)

// MatchState holds the authoritative runtime state for the Nakama match handler.
type MatchState struct {
	MatchID              string                        `json:"match_id"`
	Seats                [app.MaxPlayersPerGame]string `json:"seats"`                   // Array of user IDs, empty string means seat is empty
	OwnerSeat            int                           `json:"owner_seat"`              // Seat index of the match owner
	Tick                 int64                         `json:"tick"`                    // Current tick of the match
	Presences            map[string]runtime.Presence   `json:"-"`                       // Map UserId -> Presence for targeted messaging
	Departed             map[string]bool               `json:"departed"`                // Humans who left a running game; a bot plays their seat
	App                  *app.Service                  `json:"-"`                       // Cribbage rules
	Game                 *domain.GameState             `json:"-"`                       // Current game (nil while in lobby)
	BotsEnabled          bool                          `json:"bots_enabled"`            // Whether AI players are allowed
	BotLevel             bot.BotLevel                  `json:"bot_level"`               // Strength of created bots
	BotMinDelay          int                           `json:"bot_min_delay"`           // Min seconds a bot waits
	BotMaxDelay          int                           `json:"bot_max_delay"`           // Max seconds a bot waits
	BotAutoFillDelay     int                           `json:"bot_auto_fill_delay"`     // Seconds to wait before adding a bot to a solo lobby
	BotWaitUntil         int64                         `json:"bot_wait_until"`          // Tick when the pending bot action fires
	LastSinglePlayerTick int64                         `json:"last_single_player_tick"` // Tick when a single player started waiting
	Bots                 map[string]*bot.Agent         `json:"-"`                       // Active bot agents, including takeovers
	Stats                ports.StatsPort               `json:"-"`                       // Player stats and leaderboard
	Signer               *snapshot.Signer              `json:"-"`                       // Signs private snapshots when configured
	ResultsRecorded      bool                          `json:"results_recorded"`        // Stats written for the finished game
	rng                  *rand.Rand
}

func (ms *MatchState) GetOpenSeatsCount() int {
	count := 0
	for _, seat := range ms.Seats {
		if seat == "" {
			count++
		}
	}
	return count
}

func (ms *MatchState) GetOccupiedSeatCount() int {
	count := 0
	for _, seat := range ms.Seats {
		if seat != "" {
			count++
		}
	}
	return count
}

func (ms *MatchState) GetHumanPlayerCount() int {
	count := 0
	for _, seat := range ms.Seats {
		if ms.isHuman(seat) {
			count++
		}
	}
	return count
}

// isHuman reports whether userID is a connected-or-returning human seat.
func (ms *MatchState) isHuman(userID string) bool {
	return userID != "" && !isBotUserId(userID) && !ms.Departed[userID]
}

// isBotUserId reports whether the given user id represents a bot seat.
func isBotUserId(userId string) bool {
	return bot.IsBot(userId)
}

// findFirstHumanSeat returns the first seat index with a human occupant or -1 if none exist.
func (ms *MatchState) findFirstHumanSeat() int {
	for i, userId := range ms.Seats {
		if ms.isHuman(userId) {
			return i
		}
	}
	return -1
}

// shouldTerminateNoHumans returns true when there are no humans in the match.
func (ms *MatchState) shouldTerminateNoHumans() bool {
	return ms.findFirstHumanSeat() == -1
}

func (ms *MatchState) seatOf(userID string) int {
	for i, seat := range ms.Seats {
		if seat != "" && seat == userID {
			return i
		}
	}
	return -1
}

func (ms *MatchState) displayName(userID string) string {
	if p, ok := ms.Presences[userID]; ok && p.GetUsername() != "" {
		return p.GetUsername()
	}
	if name := bot.GetBotDisplayName(userID); name != "" {
		return name
	}
	return userID
}

func (ms *MatchState) labelState() string {
	switch {
	case ms.Game == nil:
		return labelStateLobby
	case ms.Game.IsOver():
		return labelStateGameOver
	default:
		return labelStatePlaying
	}
}

// NewMatch is the factory function registered with Nakama.
func NewMatch(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule) (runtime.Match, error) {
	var stats ports.StatsPort
	if nk != nil {
		stats = NewNakamaStatsAdapter(nk)
	}
	return &matchHandler{stats: stats}, nil
}

type matchHandler struct {
	stats ports.StatsPort
}

// MatchInit is called when the match is created.
func (mh *matchHandler) MatchInit(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, params map[string]interface{}) (interface{}, int, string) {
	logger.Debug("MatchInit: Initializing match handler.")

	env, _ := ctx.Value(runtime.RUNTIME_CTX_ENV).(map[string]string)

	if err := bot.LoadIdentities(defaultBotIdentities); err != nil {
		logger.Warn("MatchInit: Could not load bot identities: %v", err)
	}
	configPath := defaultGameConfig
	if val, ok := env[envGameConfigPath]; ok && val != "" {
		configPath = val
	}
	if err := config.LoadGameConfig(configPath); err != nil {
		logger.Warn("MatchInit: Could not load game config: %v", err)
	}
	cfg := config.GetGameConfig()

	matchID, _ := ctx.Value(runtime.RUNTIME_CTX_MATCH_ID).(string)
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	svc := app.NewService(rng)
	svc.CutForDeal = cfg.CutForDeal

	state := &MatchState{
		MatchID:          matchID,
		Tick:             time.Now().Unix(),
		Presences:        make(map[string]runtime.Presence),
		Departed:         make(map[string]bool),
		App:              svc,
		OwnerSeat:        -1,
		BotsEnabled:      true,
		BotLevel:         bot.ParseBotLevel(cfg.BotLevel),
		BotAutoFillDelay: cfg.BotAutoFillDelaySeconds,
		Bots:             make(map[string]*bot.Agent),
		Stats:            mh.stats,
		rng:              rng,
	}

	if val, ok := env[envBotsEnabled]; ok {
		state.BotsEnabled = val == "true"
	}
	if val, ok := env[envBotLevel]; ok {
		state.BotLevel = bot.ParseBotLevel(val)
	}
	if val, ok := env[envBotMinDelay]; ok {
		if i, err := strconv.Atoi(val); err == nil {
			state.BotMinDelay = i
		}
	}
	if val, ok := env[envBotMaxDelay]; ok {
		if i, err := strconv.Atoi(val); err == nil {
			state.BotMaxDelay = i
		}
	}
	if val, ok := env[envBotAutoFillDelay]; ok {
		if i, err := strconv.Atoi(val); err == nil {
			state.BotAutoFillDelay = i
		}
	}
	if secret := env[envSnapshotSecret]; secret != "" {
		state.Signer = snapshot.NewSigner(secret, "")
	}

	// Defaults if not set
	if state.BotMinDelay == 0 {
		state.BotMinDelay = 1
	}
	if state.BotMaxDelay < state.BotMinDelay {
		state.BotMaxDelay = state.BotMinDelay + 1
	}
	if state.BotAutoFillDelay == 0 {
		state.BotAutoFillDelay = 5
	}

	label, err := encodeLabel(state)
	if err != nil {
		logger.Error("MatchInit: Failed to marshal label: %v", err)
		return nil, 0, ""
	}

	tickRate := 1
	return state, tickRate, label
}

func (mh *matchHandler) MatchJoinAttempt(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, presence runtime.Presence, metadata map[string]string) (interface{}, bool, string) {
	matchState, ok := state.(*MatchState)
	if !ok {
		return state, false, "state not found"
	}

	// Seated players may always come back.
	if matchState.seatOf(presence.GetUserId()) >= 0 {
		return state, true, ""
	}
	if matchState.Game != nil {
		return state, false, "Game in progress"
	}

	// Allow join if there is an empty seat or a bot to replace.
	if matchState.GetOpenSeatsCount() <= 0 {
		hasBot := false
		for _, seat := range matchState.Seats {
			if isBotUserId(seat) {
				hasBot = true
				break
			}
		}
		if !hasBot {
			return state, false, "Match full"
		}
	}

	return state, true, ""
}

func (mh *matchHandler) MatchJoin(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, presences []runtime.Presence) interface{} {
	matchState, ok := state.(*MatchState)
	if !ok {
		logger.Error("MatchJoin: state not found")
		return state
	}

	for _, p := range presences {
		userID := p.GetUserId()
		matchState.Presences[userID] = p

		if matchState.seatOf(userID) >= 0 {
			mh.reclaimSeat(matchState, logger, userID)
			continue
		}

		// Assign seat: Try empty seats first, then bots (lobby only).
		assigned := false
		for i, seatUserId := range matchState.Seats {
			if seatUserId == "" {
				matchState.Seats[i] = userID
				assigned = true
				break
			}
		}

		if !assigned && matchState.Game == nil {
			for i, seatUserId := range matchState.Seats {
				if isBotUserId(seatUserId) {
					logger.Info("MatchJoin: Replacing bot %s with human %s in seat %d", seatUserId, userID, i)
					delete(matchState.Bots, seatUserId)
					matchState.Seats[i] = userID
					assigned = true
					break
				}
			}
		}

		if !assigned {
			logger.Warn("MatchJoin: User %s joined but no seat (empty or bot) was available.", userID)
		}
	}

	if !matchState.isHuman(seatAt(matchState, matchState.OwnerSeat)) {
		matchState.OwnerSeat = matchState.findFirstHumanSeat()
		if matchState.OwnerSeat >= 0 {
			logger.Debug("MatchJoin: Owner set to human seat %d.", matchState.OwnerSeat)
		}
	}

	mh.updateLabel(matchState, dispatcher, logger)
	mh.broadcastMatchState(matchState, dispatcher, logger)
	if matchState.Game != nil {
		mh.sendSnapshots(matchState, dispatcher, logger)
	}

	return matchState
}

// reclaimSeat hands a running seat back to its returning human.
func (mh *matchHandler) reclaimSeat(state *MatchState, logger runtime.Logger, userID string) {
	if !state.Departed[userID] {
		return
	}
	delete(state.Departed, userID)
	delete(state.Bots, userID)
	if state.Game != nil {
		if p := state.Game.Player(userID); p != nil {
			p.IsHuman = true
		}
	}
	logger.Info("MatchJoin: User %s reclaimed their seat from the bot.", userID)
}

// MatchLeave is called when one or more players leave the match.
func (mh *matchHandler) MatchLeave(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, presences []runtime.Presence) interface{} {
	matchState, ok := state.(*MatchState)
	if !ok {
		logger.Error("MatchLeave: state not found")
		return state
	}

	for _, p := range presences {
		userID := p.GetUserId()
		delete(matchState.Presences, userID)

		seat := matchState.seatOf(userID)
		if seat < 0 {
			continue
		}
		if matchState.Game == nil {
			matchState.Seats[seat] = ""
			logger.Debug("MatchLeave: User %s left, seat %d freed.", userID, seat)
			continue
		}
		mh.takeOverSeat(matchState, logger, userID)
	}

	newOwnerSeat := matchState.findFirstHumanSeat()
	if newOwnerSeat != matchState.OwnerSeat {
		matchState.OwnerSeat = newOwnerSeat
		if newOwnerSeat >= 0 {
			logger.Debug("MatchLeave: Owner set to human seat %d.", newOwnerSeat)
		}
	}

	if matchState.shouldTerminateNoHumans() {
		logger.Info("MatchLeave: Terminating match with no humans.")
		return nil
	}

	mh.updateLabel(matchState, dispatcher, logger)
	mh.broadcastMatchState(matchState, dispatcher, logger)
	return matchState
}

// takeOverSeat lets a bot finish the game for a human who left.
func (mh *matchHandler) takeOverSeat(state *MatchState, logger runtime.Logger, userID string) {
	state.Departed[userID] = true
	if p := state.Game.Player(userID); p != nil {
		p.IsHuman = false
	}
	if _, ok := state.Bots[userID]; !ok {
		agent, err := bot.NewAgent(userID, state.BotLevel, state.rng)
		if err != nil {
			logger.Error("MatchLeave: Failed to create takeover bot for %s: %v", userID, err)
			return
		}
		state.Bots[userID] = agent
	}
	state.BotWaitUntil = 0
	logger.Info("MatchLeave: User %s left a running game, a bot takes the seat.", userID)
}

func (mh *matchHandler) MatchLoop(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, messages []runtime.MatchData) interface{} {
	matchState, ok := state.(*MatchState)
	if !ok {
		return state
	}

	matchState.Tick = tick

	for _, msg := range messages {
		switch msg.GetOpCode() {
		case OpStartGame:
			mh.handleStartGame(ctx, matchState, dispatcher, logger, msg)
		case OpDiscard:
			mh.handleDiscard(ctx, matchState, dispatcher, logger, msg)
		case OpPlayCard:
			mh.handlePlayCard(ctx, matchState, dispatcher, logger, msg)
		case OpGo:
			mh.handleGo(ctx, matchState, dispatcher, logger, msg)
		case OpReady:
			mh.handleReady(ctx, matchState, dispatcher, logger, msg)
		case OpRestart:
			mh.handleRestart(ctx, matchState, dispatcher, logger, msg)
		default:
			logger.Warn("MatchLoop: Unknown opcode received: %d", msg.GetOpCode())
		}
	}

	if matchState.BotsEnabled {
		mh.processBots(ctx, matchState, dispatcher, logger)
	}

	return matchState
}

func (mh *matchHandler) MatchTerminate(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, graceSeconds int) interface{} {
	logger.Debug("MatchTerminate: Match terminating with %d grace seconds", graceSeconds)
	return state
}

// MatchSignal answers "snapshot:<userID>" with that player's private view.
func (mh *matchHandler) MatchSignal(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, data string) (interface{}, string) {
	matchState, ok := state.(*MatchState)
	if !ok {
		return state, ""
	}
	userID, ok := parseSnapshotSignal(data)
	if !ok || matchState.Game == nil || matchState.seatOf(userID) < 0 {
		return matchState, ""
	}
	payload, err := encodeSnapshotJSON(matchState, userID)
	if err != nil {
		logger.Error("MatchSignal: Failed to encode snapshot for %s: %v", userID, err)
		return matchState, ""
	}
	return matchState, payload
}

func seatAt(state *MatchState, seat int) string {
	if seat < 0 || seat >= len(state.Seats) {
		return ""
	}
	return state.Seats[seat]
}
