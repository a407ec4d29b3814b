package domain

import "sort"

// ScoreBreakdown is a counted hand split by scoring category.
type ScoreBreakdown struct {
	Fifteens int `json:"fifteens"`
	Pairs    int `json:"pairs"`
	Runs     int `json:"runs"`
	Flush    int `json:"flush"`
	Nobs     int `json:"nobs"`
	Total    int `json:"total"`
}

// Score counts a hand (or crib) together with an optional cut card.
// The result does not depend on the order of hand.
func Score(hand []Card, cut *Card, isCrib bool) ScoreBreakdown {
	all := make([]Card, 0, len(hand)+1)
	all = append(all, hand...)
	if cut != nil {
		all = append(all, *cut)
	}

	var s ScoreBreakdown
	s.Fifteens = 2 * countFifteens(all)
	s.Pairs = 2 * countPairs(all)
	s.Runs = scoreRuns(all)
	s.Flush = scoreFlush(hand, cut, isCrib)
	s.Nobs = scoreNobs(hand, cut)
	s.Total = s.Fifteens + s.Pairs + s.Runs + s.Flush + s.Nobs
	return s
}

// countFifteens counts subsets of 2 to 5 cards whose values sum to 15.
func countFifteens(cards []Card) int {
	n := len(cards)
	count := 0
	for mask := 1; mask < 1<<n; mask++ {
		size := 0
		sum := 0
		for i := 0; i < n; i++ {
			if mask&(1<<i) != 0 {
				size++
				sum += cards[i].Value()
			}
		}
		if size >= 2 && size <= 5 && sum == 15 {
			count++
		}
	}
	return count
}

func countPairs(cards []Card) int {
	count := 0
	for i := 0; i < len(cards); i++ {
		for j := i + 1; j < len(cards); j++ {
			if cards[i].Rank == cards[j].Rank {
				count++
			}
		}
	}
	return count
}

// scoreRuns scores only the longest run length present, once per qualifying subset.
func scoreRuns(cards []Card) int {
	n := len(cards)
	for k := n; k >= 3; k-- {
		runs := 0
		forEachSubset(n, k, func(idx []int) {
			ordinals := make([]int, k)
			for i, j := range idx {
				ordinals[i] = cards[j].Ordinal()
			}
			if isConsecutive(ordinals) {
				runs++
			}
		})
		if runs > 0 {
			return k * runs
		}
	}
	return 0
}

func scoreFlush(hand []Card, cut *Card, isCrib bool) int {
	if len(hand) < 4 {
		return 0
	}
	suit := hand[0].Suit
	for _, c := range hand[1:] {
		if c.Suit != suit {
			return 0
		}
	}
	cutMatches := cut != nil && cut.Suit == suit
	switch {
	case cutMatches:
		return 5
	case isCrib:
		return 0
	default:
		return 4
	}
}

func scoreNobs(hand []Card, cut *Card) int {
	if cut == nil {
		return 0
	}
	for _, c := range hand {
		if c.Rank == Jack && c.Suit == cut.Suit {
			return 1
		}
	}
	return 0
}

// IsRun reports whether the cards form a strictly consecutive sequence of at least three.
func IsRun(cards []Card) bool {
	if len(cards) < 3 {
		return false
	}
	ordinals := make([]int, len(cards))
	for i, c := range cards {
		ordinals[i] = c.Ordinal()
	}
	return isConsecutive(ordinals)
}

func isConsecutive(ordinals []int) bool {
	sort.Ints(ordinals)
	for i := 1; i < len(ordinals); i++ {
		if ordinals[i] != ordinals[i-1]+1 {
			return false
		}
	}
	return true
}

// forEachSubset calls fn with every k-element index subset of [0, n) in lexicographic order.
func forEachSubset(n, k int, fn func(idx []int)) {
	if k > n || k <= 0 {
		return
	}
	idx := make([]int, k)
	for i := range idx {
		idx[i] = i
	}
	for {
		fn(idx)
		i := k - 1
		for i >= 0 && idx[i] == n-k+i {
			i--
		}
		if i < 0 {
			return
		}
		idx[i]++
		for j := i + 1; j < k; j++ {
			idx[j] = idx[j-1] + 1
		}
	}
}
