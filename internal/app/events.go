package app

import "cribbage/internal/domain"

// EventKind identifies emitted domain events for dispatch.
type EventKind string

const (
	EventDealerChosen   EventKind = "dealer_chosen"
	EventRoundStarted   EventKind = "round_started"
	EventHandDealt      EventKind = "hand_dealt"
	EventCardsDiscarded EventKind = "cards_discarded"
	EventCutDrawn       EventKind = "cut_drawn"
	EventPointsScored   EventKind = "points_scored"
	EventCardPlayed     EventKind = "card_played"
	EventGoDeclared     EventKind = "go_declared"
	EventSequenceReset  EventKind = "sequence_reset"
	EventCountingStage  EventKind = "counting_stage"
	EventPlayerReady    EventKind = "player_ready"
	EventGameOver       EventKind = "game_over"
)

// Event is a domain/app event with optional targeted recipients.
type Event struct {
	Kind       EventKind
	Payload    any
	Recipients []string // player IDs; empty means broadcast
}

type DealerChosenPayload struct {
	Cuts     map[string]domain.Card
	DealerID string
}

type RoundStartedPayload struct {
	Round    int
	DealerID string
}

type HandDealtPayload struct {
	PlayerID string
	Hand     []domain.Card
}

type CardsDiscardedPayload struct {
	PlayerID string
	Count    int
}

type CutDrawnPayload struct {
	Card     domain.Card
	DealerID string
}

type PointsScoredPayload struct {
	PlayerID string
	Points   int
	Reasons  []string
	Score    int
}

type CardPlayedPayload struct {
	PlayerID         string
	Card             domain.Card
	Total            int
	NextTurnPlayerID string
}

type GoDeclaredPayload struct {
	PlayerID         string
	NextTurnPlayerID string
}

type SequenceResetPayload struct {
	LeaderID string
}

type CountingStagePayload struct {
	Stage     domain.CountingStage
	PlayerID  string
	Cards     []domain.Card
	Breakdown domain.ScoreBreakdown
}

type PlayerReadyPayload struct {
	PlayerID string
	Stage    domain.CountingStage
}

type GameOverPayload struct {
	WinnerID string
	Scores   map[string]int
}
