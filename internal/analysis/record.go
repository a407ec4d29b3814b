package analysis

import (
	"time"

	"cribbage/internal/domain"
)

// HandRecord is the history entry produced after a discard decision.
type HandRecord struct {
	ID            string        `json:"id"`
	OriginalHand  []domain.Card `json:"originalHand"`
	Discarded     []domain.Card `json:"discarded"`
	ExpectedValue float64       `json:"expectedValue"`
	IsDealer      bool          `json:"isDealer"`
	NumPlayers    int           `json:"numPlayers"`
	Timestamp     time.Time     `json:"timestamp"`
}

// NewHandRecord captures the chosen option for hand. The ID is left for the store.
func NewHandRecord(hand []domain.Card, chosen Option, isDealer bool, numPlayers int, now time.Time) HandRecord {
	return HandRecord{
		OriginalHand:  append([]domain.Card{}, hand...),
		Discarded:     append([]domain.Card{}, chosen.Discarded...),
		ExpectedValue: chosen.TotalExpectedValue,
		IsDealer:      isDealer,
		NumPlayers:    numPlayers,
		Timestamp:     now.UTC(),
	}
}
