package nakama

import "cribbage/internal/app"

const (
	// RpcQuickMatch is the Nakama RPC id clients call to find or create a lobby-capable match.
	RpcQuickMatch = "quick_match"

	// RpcIdMatchSnapshot returns the caller's signed view of a running match.
	RpcIdMatchSnapshot = "match_snapshot"

	// MatchNameCribbage is the authoritative match handler name registered with Nakama.
	MatchNameCribbage = "cribbage_match"

	// MatchLabelKey_OpenSeats is the label key quick match filters on.
	MatchLabelKey_OpenSeats = "open"

	matchLabelGame = "cribbage"
)

// Runtime env keys read in MatchInit and the snapshot RPC.
const (
	envBotsEnabled       = "cribbage_bots_enabled"
	envBotMinDelay       = "cribbage_bot_min_delay_sec"
	envBotMaxDelay       = "cribbage_bot_max_delay_sec"
	envBotAutoFillDelay  = "cribbage_bot_auto_fill_delay_sec"
	envBotLevel          = "cribbage_bot_level"
	envSnapshotSecret    = "cribbage_snapshot_secret"
	envGameConfigPath    = "cribbage_game_config"
	defaultGameConfig    = "data/game_config.json"
	defaultBotIdentities = "data/bot_identities.json"
)

// Op codes for client messages and server events.
const (
	// Client -> Server
	OpStartGame int64 = 1
	OpDiscard   int64 = 2
	OpPlayCard  int64 = 3
	OpGo        int64 = 4
	OpReady     int64 = 5
	OpRestart   int64 = 6

	// Server -> Client
	OpMatchState int64 = 100
	OpSnapshot   int64 = 101 // send privately
	OpGameError  int64 = 102 // send privately

	OpDealerChosen   int64 = 110
	OpRoundStarted   int64 = 111
	OpHandDealt      int64 = 112 // send privately
	OpCardsDiscarded int64 = 113
	OpCutDrawn       int64 = 114
	OpPointsScored   int64 = 115
	OpCardPlayed     int64 = 116
	OpGoDeclared     int64 = 117
	OpSequenceReset  int64 = 118
	OpCountingStage  int64 = 119
	OpPlayerReady    int64 = 120
	OpGameOver       int64 = 121
)

var eventOpCodes = map[app.EventKind]int64{
	app.EventDealerChosen:   OpDealerChosen,
	app.EventRoundStarted:   OpRoundStarted,
	app.EventHandDealt:      OpHandDealt,
	app.EventCardsDiscarded: OpCardsDiscarded,
	app.EventCutDrawn:       OpCutDrawn,
	app.EventPointsScored:   OpPointsScored,
	app.EventCardPlayed:     OpCardPlayed,
	app.EventGoDeclared:     OpGoDeclared,
	app.EventSequenceReset:  OpSequenceReset,
	app.EventCountingStage:  OpCountingStage,
	app.EventPlayerReady:    OpPlayerReady,
	app.EventGameOver:       OpGameOver,
}
