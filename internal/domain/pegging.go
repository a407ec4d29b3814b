package domain

import "fmt"

const (
	// MaxPeggingTotal caps the running total of a pegging sequence.
	MaxPeggingTotal = 31
	// maxPeggingRun is the longest run checked at the tail of the stack.
	maxPeggingRun = 7
)

var pairLabels = [...]string{"", "Pair", "Pair Royal", "Double Pair Royal"}

// PeggingScore is the immediate score of the last card added to a pegging stack.
type PeggingScore struct {
	Points  int      `json:"points"`
	Reasons []string `json:"reasons"`
}

// ScorePegging scores the most recently played card of stack, where total is the
// running total after that card. Flush and nobs never apply here.
func ScorePegging(stack []Card, total int) PeggingScore {
	var ps PeggingScore
	if total == 15 {
		ps.add(2, "15 for 2")
	}
	if total == MaxPeggingTotal {
		ps.add(2, "31 for 2")
	}

	if len(stack) > 1 {
		last := stack[len(stack)-1].Rank
		matches := 0
		for i := len(stack) - 2; i >= 0 && stack[i].Rank == last; i-- {
			matches++
		}
		if matches > 0 {
			n := matches + 1
			points := n * (n - 1)
			label := "Pairs"
			if matches < len(pairLabels) {
				label = pairLabels[matches]
			}
			ps.add(points, fmt.Sprintf("%s for %d", label, points))
		}
	}

	longest := len(stack)
	if longest > maxPeggingRun {
		longest = maxPeggingRun
	}
	for k := longest; k >= 3; k-- {
		if IsRun(stack[len(stack)-k:]) {
			ps.add(k, fmt.Sprintf("Run of %d for %d", k, k))
			break
		}
	}
	return ps
}

func (ps *PeggingScore) add(points int, reason string) {
	ps.Points += points
	ps.Reasons = append(ps.Reasons, reason)
}

// StackCards extracts the cards of a pegging stack in play order.
func StackCards(stack []PeggingEntry) []Card {
	cards := make([]Card, len(stack))
	for i, e := range stack {
		cards[i] = e.Card
	}
	return cards
}
