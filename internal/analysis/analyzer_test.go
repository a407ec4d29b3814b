package analysis

import (
	"errors"
	"math"
	"math/rand"
	"testing"
	"time"

	"cribbage/internal/domain"
)

func mustCards(t *testing.T, codes ...string) []domain.Card {
	t.Helper()
	cards, err := domain.ParseCards(codes)
	if err != nil {
		t.Fatalf("ParseCards(%v) error: %v", codes, err)
	}
	return cards
}

func TestAnalyzeSixCardHand(t *testing.T) {
	a := NewAnalyzer(rand.New(rand.NewSource(42)))
	hand := mustCards(t, "5H", "5D", "JC", "QS", "4H", "6C")

	for _, isDealer := range []bool{true, false} {
		options, err := a.Analyze(hand, isDealer, 2)
		if err != nil {
			t.Fatalf("Analyze() error: %v", err)
		}
		if len(options) != 15 {
			t.Fatalf("options = %d, want 15", len(options))
		}

		for i, opt := range options {
			if len(opt.Kept) != 4 || len(opt.Discarded) != 2 {
				t.Fatalf("option %d kept %d discarded %d", i, len(opt.Kept), len(opt.Discarded))
			}
			union := append(append([]domain.Card{}, opt.Kept...), opt.Discarded...)
			if domain.HasDuplicates(union) {
				t.Fatalf("option %d overlaps: %v / %v", i, opt.Kept, opt.Discarded)
			}
			for _, c := range hand {
				if domain.IndexOfCard(union, c) < 0 {
					t.Fatalf("option %d omits %v", i, c)
				}
			}
			if opt.TotalExpectedValue != opt.NetValue(isDealer) {
				t.Fatalf("option %d total %f, net %f", i, opt.TotalExpectedValue, opt.NetValue(isDealer))
			}
			if i > 0 && options[i-1].NetValue(isDealer) < opt.NetValue(isDealer) {
				t.Fatalf("options not sorted at %d", i)
			}
		}
	}
}

func TestAnalyzeFiveCardHand(t *testing.T) {
	a := NewAnalyzer(rand.New(rand.NewSource(1)))
	hand := mustCards(t, "AH", "2D", "3C", "9S", "KH")

	for _, players := range []int{3, 4} {
		options, err := a.Analyze(hand, false, players)
		if err != nil {
			t.Fatalf("Analyze(%d players) error: %v", players, err)
		}
		if len(options) != 5 {
			t.Fatalf("options = %d, want 5", len(options))
		}
		for _, opt := range options {
			if len(opt.Kept) != 4 || len(opt.Discarded) != 1 {
				t.Fatalf("kept %d discarded %d", len(opt.Kept), len(opt.Discarded))
			}
		}
	}
}

func TestHandStatsAreExhaustive(t *testing.T) {
	kept := mustCards(t, "5H", "5D", "5S", "JC")
	hand := append(append([]domain.Card{}, kept...), mustCards(t, "2C", "9D")...)
	pool := domain.Remaining(hand)
	if len(pool) != 46 {
		t.Fatalf("pool = %d, want 46", len(pool))
	}

	stats := handStats(kept, pool)
	sum := 0
	minScore, maxScore := 999, 0
	for i := range pool {
		s := domain.Score(kept, &pool[i], false).Total
		sum += s
		if s < minScore {
			minScore = s
		}
		if s > maxScore {
			maxScore = s
		}
	}
	if stats.Min != minScore || stats.Max != maxScore {
		t.Fatalf("min/max = %d/%d, want %d/%d", stats.Min, stats.Max, minScore, maxScore)
	}
	if want := float64(sum) / 46; stats.Avg != want {
		t.Fatalf("avg = %f, want %f", stats.Avg, want)
	}
	// The last five cut gives 29.
	if stats.Max != 29 {
		t.Fatalf("max = %d, want 29", stats.Max)
	}
}

func TestCribSamplingIsSeeded(t *testing.T) {
	hand := mustCards(t, "5H", "5D", "JC", "QS", "4H", "6C")
	first, err := NewAnalyzer(rand.New(rand.NewSource(9))).Analyze(hand, true, 2)
	if err != nil {
		t.Fatalf("Analyze() error: %v", err)
	}
	second, err := NewAnalyzer(rand.New(rand.NewSource(9))).Analyze(hand, true, 2)
	if err != nil {
		t.Fatalf("Analyze() error: %v", err)
	}
	for i := range first {
		if first[i].CribStats != second[i].CribStats {
			t.Fatalf("crib stats differ at %d with identical seeds", i)
		}
	}
}

func TestCribSamplingTrialCounts(t *testing.T) {
	a := NewAnalyzer(rand.New(rand.NewSource(3)))
	a.TwoPlayerCribTrials = 0
	hand := mustCards(t, "5H", "5D", "JC", "QS", "4H", "6C")
	options, err := a.Analyze(hand, true, 2)
	if err != nil {
		t.Fatalf("Analyze() error: %v", err)
	}
	for _, opt := range options {
		if opt.CribStats != (Stats{}) {
			t.Fatalf("zero trials should leave crib stats empty, got %+v", opt.CribStats)
		}
	}
}

func TestSplitHandOrder(t *testing.T) {
	hand := mustCards(t, "AH", "2H", "3H", "4H", "5H", "6H")
	splits := splitHand(hand, 2)
	if len(splits) != 15 {
		t.Fatalf("splits = %d, want 15", len(splits))
	}
	first := splits[0]
	if first.discarded[0] != hand[0] || first.discarded[1] != hand[1] {
		t.Fatalf("first split discards %v, want AH 2H", first.discarded)
	}
	last := splits[len(splits)-1]
	if last.discarded[0] != hand[4] || last.discarded[1] != hand[5] {
		t.Fatalf("last split discards %v, want 5H 6H", last.discarded)
	}
}

func TestAnalyzeRejectsBadInput(t *testing.T) {
	a := NewAnalyzer(rand.New(rand.NewSource(1)))
	tests := []struct {
		name    string
		hand    []string
		players int
		want    error
	}{
		{name: "four cards", hand: []string{"AH", "2H", "3H", "4H"}, players: 2, want: ErrInvalidHandSize},
		{name: "seven cards", hand: []string{"AH", "2H", "3H", "4H", "5H", "6H", "7H"}, players: 2, want: ErrInvalidHandSize},
		{name: "one player", hand: []string{"AH", "2H", "3H", "4H", "5H"}, players: 1, want: ErrInvalidPlayerCount},
		{name: "duplicates", hand: []string{"AH", "AH", "3H", "4H", "5H"}, players: 3, want: ErrDuplicateCards},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := a.Analyze(mustCards(t, tt.hand...), false, tt.players); !errors.Is(err, tt.want) {
				t.Fatalf("Analyze() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestPeggingScore(t *testing.T) {
	kept := mustCards(t, "AH", "5D", "7S", "KC")
	want := 0.6 + 0.9 + 0.5 + 0.3
	if got := peggingScore(kept); math.Abs(got-want) > 1e-9 {
		t.Fatalf("peggingScore() = %f, want %f", got, want)
	}
}

func TestNewHandRecord(t *testing.T) {
	hand := mustCards(t, "5H", "5D", "JC", "QS", "4H", "6C")
	options, err := NewAnalyzer(rand.New(rand.NewSource(2))).Analyze(hand, true, 2)
	if err != nil {
		t.Fatalf("Analyze() error: %v", err)
	}
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	rec := NewHandRecord(hand, options[0], true, 2, now)
	if len(rec.OriginalHand) != 6 || len(rec.Discarded) != 2 {
		t.Fatalf("record = %+v", rec)
	}
	if rec.ExpectedValue != options[0].TotalExpectedValue || !rec.Timestamp.Equal(now) {
		t.Fatalf("record = %+v", rec)
	}
}
