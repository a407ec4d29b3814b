package domain

import (
	"errors"
	"fmt"
)

// ErrInvalidCardCode is returned when a card code has an unknown rank or suit.
var ErrInvalidCardCode = errors.New("invalid card code")

// Suit is the one-letter suit symbol used in card codes.
type Suit string

const (
	Hearts   Suit = "H"
	Diamonds Suit = "D"
	Clubs    Suit = "C"
	Spades   Suit = "S"
)

// Suits lists the suits in deck order.
var Suits = []Suit{Hearts, Diamonds, Clubs, Spades}

// Rank is the card rank, 1 (Ace) through 13 (King). It doubles as the run ordinal.
type Rank int

const (
	Ace   Rank = 1
	Jack  Rank = 11
	Queen Rank = 12
	King  Rank = 13
)

var rankCodes = [...]string{"", "A", "2", "3", "4", "5", "6", "7", "8", "9", "10", "J", "Q", "K"}

// String returns the rank portion of a card code.
func (r Rank) String() string {
	if r < Ace || r > King {
		return "?"
	}
	return rankCodes[r]
}

// Card is an immutable playing card.
type Card struct {
	Rank Rank
	Suit Suit
}

// NewCard builds a card, validating rank and suit.
func NewCard(rank Rank, suit Suit) (Card, error) {
	if rank < Ace || rank > King || !validSuit(suit) {
		return Card{}, fmt.Errorf("%w: rank %d suit %q", ErrInvalidCardCode, rank, suit)
	}
	return Card{Rank: rank, Suit: suit}, nil
}

// Value is the counting value used for fifteens and the pegging total.
func (c Card) Value() int {
	if c.Rank > 10 {
		return 10
	}
	return int(c.Rank)
}

// Ordinal is the position used to detect runs (A=1 .. K=13).
func (c Card) Ordinal() int {
	return int(c.Rank)
}

// String returns the card code, e.g. "10D".
func (c Card) String() string {
	return c.Rank.String() + string(c.Suit)
}

// MarshalText encodes the card as its code.
func (c Card) MarshalText() ([]byte, error) {
	if c.Rank < Ace || c.Rank > King || !validSuit(c.Suit) {
		return nil, fmt.Errorf("%w: rank %d suit %q", ErrInvalidCardCode, c.Rank, c.Suit)
	}
	return []byte(c.String()), nil
}

// UnmarshalText decodes a card code.
func (c *Card) UnmarshalText(text []byte) error {
	parsed, err := ParseCard(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// ParseCard parses a code such as "5H", "10D" or "JC".
func ParseCard(code string) (Card, error) {
	if len(code) < 2 || len(code) > 3 {
		return Card{}, fmt.Errorf("%w: %q", ErrInvalidCardCode, code)
	}
	suit := Suit(code[len(code)-1:])
	if !validSuit(suit) {
		return Card{}, fmt.Errorf("%w: %q", ErrInvalidCardCode, code)
	}
	rankCode := code[:len(code)-1]
	for r := Ace; r <= King; r++ {
		if rankCodes[r] == rankCode {
			return Card{Rank: r, Suit: suit}, nil
		}
	}
	return Card{}, fmt.Errorf("%w: %q", ErrInvalidCardCode, code)
}

// ParseCards parses a list of card codes, failing on the first bad one.
func ParseCards(codes []string) ([]Card, error) {
	cards := make([]Card, 0, len(codes))
	for _, code := range codes {
		c, err := ParseCard(code)
		if err != nil {
			return nil, err
		}
		cards = append(cards, c)
	}
	return cards, nil
}

// CardCodes renders cards back to their codes.
func CardCodes(cards []Card) []string {
	codes := make([]string, len(cards))
	for i, c := range cards {
		codes[i] = c.String()
	}
	return codes
}

func validSuit(s Suit) bool {
	switch s {
	case Hearts, Diamonds, Clubs, Spades:
		return true
	}
	return false
}
