package domain

import (
	"math/rand"
	"sort"
)

// DeckSize is the number of cards in a standard deck.
const DeckSize = 52

// NewDeck returns the 52-card deck ordered by suit then rank.
func NewDeck() []Card {
	deck := make([]Card, 0, DeckSize)
	for _, s := range Suits {
		for r := Ace; r <= King; r++ {
			deck = append(deck, Card{Rank: r, Suit: s})
		}
	}
	return deck
}

// ShuffleDeck returns a shuffled copy of the given deck.
func ShuffleDeck(deck []Card, rng *rand.Rand) []Card {
	out := make([]Card, len(deck))
	copy(out, deck)
	rng.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out
}

// DrawTop removes and returns the top card. The top of the deck is its last element.
func DrawTop(deck []Card) (Card, []Card, bool) {
	if len(deck) == 0 {
		return Card{}, deck, false
	}
	return deck[len(deck)-1], deck[:len(deck)-1], true
}

// Remaining returns every deck card not present in exclude.
func Remaining(exclude []Card) []Card {
	seen := make(map[Card]bool, len(exclude))
	for _, c := range exclude {
		seen[c] = true
	}
	out := make([]Card, 0, DeckSize-len(exclude))
	for _, c := range NewDeck() {
		if !seen[c] {
			out = append(out, c)
		}
	}
	return out
}

// SortHand orders cards by rank then suit.
func SortHand(cards []Card) {
	sort.Slice(cards, func(i, j int) bool {
		if cards[i].Rank != cards[j].Rank {
			return cards[i].Rank < cards[j].Rank
		}
		return suitIndex(cards[i].Suit) < suitIndex(cards[j].Suit)
	})
}

func suitIndex(s Suit) int {
	for i, candidate := range Suits {
		if candidate == s {
			return i
		}
	}
	return len(Suits)
}
