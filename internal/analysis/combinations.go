package analysis

import "cribbage/internal/domain"

type split struct {
	kept      []domain.Card
	discarded []domain.Card
}

// splitHand enumerates every way to discard k cards, trying "discard the first card"
// before "keep the first card" at each step.
func splitHand(cards []domain.Card, k int) []split {
	if k == 0 {
		return []split{{kept: append([]domain.Card{}, cards...), discarded: []domain.Card{}}}
	}
	if len(cards) == k {
		return []split{{kept: []domain.Card{}, discarded: append([]domain.Card{}, cards...)}}
	}
	if len(cards) == 0 {
		return nil
	}

	first, rest := cards[0], cards[1:]
	var out []split
	for _, s := range splitHand(rest, k-1) {
		out = append(out, split{
			kept:      s.kept,
			discarded: append([]domain.Card{first}, s.discarded...),
		})
	}
	for _, s := range splitHand(rest, k) {
		out = append(out, split{
			kept:      append([]domain.Card{first}, s.kept...),
			discarded: s.discarded,
		})
	}
	return out
}
