package analysis

import "cribbage/internal/domain"

const defaultPeggingValue = 0.4

// peggingValues approximates the pegging points a kept card tends to earn, indexed by rank.
var peggingValues = [...]float64{
	0,
	0.6,                                         // A
	0.7, 0.8, 0.9, 0.9, 0.6, 0.5, 0.5, 0.4, 0.3, // 2 through 10
	0.3, 0.3, 0.3,                               // J Q K
}

func peggingValue(r domain.Rank) float64 {
	if r < domain.Ace || int(r) >= len(peggingValues) {
		return defaultPeggingValue
	}
	return peggingValues[r]
}

func peggingScore(kept []domain.Card) float64 {
	total := 0.0
	for _, c := range kept {
		total += peggingValue(c.Rank)
	}
	return total
}
