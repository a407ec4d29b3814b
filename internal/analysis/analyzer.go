// Package analysis ranks the possible discards of a dealt cribbage hand.
package analysis

import (
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"sync"
	"time"

	"cribbage/internal/config"
	"cribbage/internal/domain"
)

var (
	ErrInvalidHandSize    = errors.New("hand must hold 5 or 6 cards")
	ErrInvalidPlayerCount = errors.New("player count must be 2, 3 or 4")
	ErrDuplicateCards     = errors.New("hand contains duplicate cards")
)

const (
	// DefaultTwoPlayerCribTrials is the crib sample count for two-player games.
	DefaultTwoPlayerCribTrials = 50
	// DefaultMultiPlayerCribTrials is the crib sample count for three and four players.
	DefaultMultiPlayerCribTrials = 20
)

// Option is one way of splitting a hand into kept and discarded cards.
type Option struct {
	Kept               []domain.Card `json:"kept"`
	Discarded          []domain.Card `json:"discarded"`
	HandStats          Stats         `json:"handStats"`
	CribStats          Stats         `json:"cribStats"`
	PeggingScore       float64       `json:"peggingScore"`
	TotalExpectedValue float64       `json:"totalExpectedValue"`
}

// Analyzer evaluates discards. It is safe for concurrent use.
type Analyzer struct {
	TwoPlayerCribTrials   int
	MultiPlayerCribTrials int

	mu  sync.Mutex
	rng *rand.Rand
}

// NewAnalyzer constructs an Analyzer with provided rng or a time-seeded default.
func NewAnalyzer(rng *rand.Rand) *Analyzer {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Analyzer{
		TwoPlayerCribTrials:   DefaultTwoPlayerCribTrials,
		MultiPlayerCribTrials: DefaultMultiPlayerCribTrials,
		rng:                   rng,
	}
}

// NewConfiguredAnalyzer is NewAnalyzer with the crib trial counts of the
// loaded game config. Counts below one keep the defaults.
func NewConfiguredAnalyzer(rng *rand.Rand) *Analyzer {
	a := NewAnalyzer(rng)
	cfg := config.GetGameConfig()
	if cfg.TwoPlayerCribTrials > 0 {
		a.TwoPlayerCribTrials = cfg.TwoPlayerCribTrials
	}
	if cfg.MultiPlayerCribTrials > 0 {
		a.MultiPlayerCribTrials = cfg.MultiPlayerCribTrials
	}
	return a
}

// Analyze returns every discard option for hand, best first.
func (a *Analyzer) Analyze(hand []domain.Card, isDealer bool, numPlayers int) ([]Option, error) {
	if len(hand) != 5 && len(hand) != 6 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidHandSize, len(hand))
	}
	if numPlayers < domain.MinPlayers || numPlayers > domain.MaxPlayers {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidPlayerCount, numPlayers)
	}
	if domain.HasDuplicates(hand) {
		return nil, ErrDuplicateCards
	}

	discardCount := domain.DiscardCount(numPlayers)
	if discardCount >= len(hand) {
		return nil, fmt.Errorf("%w: cannot discard %d of %d", ErrInvalidHandSize, discardCount, len(hand))
	}
	pool := domain.Remaining(hand)

	a.mu.Lock()
	defer a.mu.Unlock()

	splits := splitHand(hand, discardCount)
	options := make([]Option, 0, len(splits))
	for _, s := range splits {
		opt := Option{
			Kept:         s.kept,
			Discarded:    s.discarded,
			HandStats:    handStats(s.kept, pool),
			PeggingScore: peggingScore(s.kept),
		}
		if numPlayers == 2 {
			opt.CribStats = a.sampleCrib(s.discarded, pool, 2, a.TwoPlayerCribTrials)
		} else {
			opt.CribStats = a.sampleCrib(s.discarded, pool, domain.CribSize-len(s.discarded), a.MultiPlayerCribTrials)
		}
		opt.TotalExpectedValue = opt.NetValue(isDealer)
		options = append(options, opt)
	}

	sort.SliceStable(options, func(i, j int) bool {
		return options[i].TotalExpectedValue > options[j].TotalExpectedValue
	})
	return options, nil
}

// NetValue is the ranking key: crib points help the dealer and hurt everyone else.
func (o Option) NetValue(isDealer bool) float64 {
	if isDealer {
		return o.HandStats.Avg + o.PeggingScore + o.CribStats.Avg
	}
	return o.HandStats.Avg + o.PeggingScore - o.CribStats.Avg
}

// sampleCrib estimates the crib by drawing a random cut and `fill` random cards to
// complete the crib, trials times.
func (a *Analyzer) sampleCrib(discarded, pool []domain.Card, fill, trials int) Stats {
	acc := newAccumulator()
	crib := make([]domain.Card, 0, len(discarded)+fill)
	for i := 0; i < trials; i++ {
		cutIdx := a.rng.Intn(len(pool))
		cut := pool[cutIdx]

		crib = append(crib[:0], discarded...)
		used := map[int]bool{cutIdx: true}
		for len(crib) < len(discarded)+fill {
			idx := a.rng.Intn(len(pool))
			if used[idx] {
				continue
			}
			used[idx] = true
			crib = append(crib, pool[idx])
		}
		acc.add(domain.Score(crib, &cut, true))
	}
	return acc.stats()
}

func handStats(kept, cuts []domain.Card) Stats {
	acc := newAccumulator()
	for i := range cuts {
		acc.add(domain.Score(kept, &cuts[i], false))
	}
	return acc.stats()
}
