package domain

import "fmt"

// IndexOfCard returns the index of card in cards, or -1.
func IndexOfCard(cards []Card, card Card) int {
	for i, c := range cards {
		if c == card {
			return i
		}
	}
	return -1
}

// RemoveCardAt returns cards without the element at index i.
func RemoveCardAt(cards []Card, i int) []Card {
	out := make([]Card, 0, len(cards)-1)
	out = append(out, cards[:i]...)
	return append(out, cards[i+1:]...)
}

// RemoveCards removes the provided cards from a hand, one occurrence each.
func RemoveCards(hand []Card, remove []Card) []Card {
	out := append([]Card{}, hand...)
	for _, rc := range remove {
		if i := IndexOfCard(out, rc); i >= 0 {
			out = append(out[:i], out[i+1:]...)
		}
	}
	return out
}

// HasDuplicates reports whether any card appears more than once.
func HasDuplicates(cards []Card) bool {
	seen := make(map[Card]bool, len(cards))
	for _, c := range cards {
		if seen[c] {
			return true
		}
		seen[c] = true
	}
	return false
}

// CheckConservation verifies that every card of the deck sits in exactly one place:
// the remaining deck, a hand, a played pile, the crib or the cut slot.
func CheckConservation(g *GameState) error {
	seen := make(map[Card]string, DeckSize)
	place := func(where string, cards ...Card) error {
		for _, c := range cards {
			if prev, ok := seen[c]; ok {
				return fmt.Errorf("card %s in both %s and %s", c, prev, where)
			}
			seen[c] = where
		}
		return nil
	}

	if err := place("deck", g.Deck...); err != nil {
		return err
	}
	for _, p := range g.Players {
		if err := place("hand of "+p.ID, p.Hand...); err != nil {
			return err
		}
		if err := place("played by "+p.ID, p.Played...); err != nil {
			return err
		}
	}
	if err := place("crib", g.Crib...); err != nil {
		return err
	}
	if g.CutCard != nil {
		if err := place("cut", *g.CutCard); err != nil {
			return err
		}
	}
	if len(seen) != DeckSize {
		return fmt.Errorf("accounted for %d cards, want %d", len(seen), DeckSize)
	}
	return nil
}
