package bot

import (
	"fmt"

	"cribbage/internal/domain"
)

// PeggingChoice is the heuristic's pick for the next pegging play.
type PeggingChoice struct {
	// Card is nil when nothing in hand fits under 31.
	Card  *domain.Card
	Index int
	Score int
	Debug string
}

// ChoosePeggingCard picks a card to play with the default tuning.
func ChoosePeggingCard(hand, stack []domain.Card, total int) PeggingChoice {
	return ChoosePeggingCardWith(DefaultPeggingTuning, hand, stack, total)
}

// ChoosePeggingCardWith picks the legal card with the best immediate points plus
// tactical adjustments. Ties go to the earliest card in hand order.
func ChoosePeggingCardWith(tuning PeggingTuning, hand, stack []domain.Card, total int) PeggingChoice {
	best := PeggingChoice{Index: -1, Score: -999}
	for i, card := range hand {
		newTotal := total + card.Value()
		if newTotal > domain.MaxPeggingTotal {
			continue
		}

		next := make([]domain.Card, 0, len(stack)+1)
		next = append(next, stack...)
		next = append(next, card)
		immediate := domain.ScorePegging(next, newTotal).Points

		heuristic := immediate
		for _, danger := range tuning.DangerTotals {
			if newTotal == danger {
				heuristic -= tuning.DangerPenalty
			}
		}
		if len(stack) == 0 {
			if card.Value() == 5 {
				heuristic -= tuning.LeadFivePenalty
			}
			if card.Rank == 4 {
				heuristic += tuning.LeadFourBonus
			}
		}
		if countRank(hand, card.Rank) >= 2 {
			heuristic += tuning.PairTrapBonus
		}

		if heuristic > best.Score {
			c := card
			best = PeggingChoice{
				Card:  &c,
				Index: i,
				Score: heuristic,
				Debug: fmt.Sprintf("Card: %s, Imm: %d, Heur: %d", card, immediate, heuristic),
			}
		}
	}
	if best.Card == nil {
		return PeggingChoice{Index: -1}
	}
	return best
}

func countRank(cards []domain.Card, r domain.Rank) int {
	n := 0
	for _, c := range cards {
		if c.Rank == r {
			n++
		}
	}
	return n
}
