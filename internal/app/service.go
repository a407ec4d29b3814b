package app

import (
	"fmt"
	"math/rand"
	"time"

	"cribbage/internal/domain"
)

// Service contains cribbage use-cases operating on domain state.
type Service struct {
	rng *rand.Rand
	// CutForDeal chooses the first dealer by a low-card cut instead of seat order.
	CutForDeal bool
}

// NewService constructs a Service with provided rng or a time-seeded default.
func NewService(rng *rand.Rand) *Service {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Service{rng: rng}
}

// PlayerSeat describes one participant when a game is created.
type PlayerSeat struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	IsHuman bool   `json:"isHuman"`
}

// NewGame seats the players, picks the first dealer and deals the first round.
// A nil seat list uses DefaultSeats.
func (s *Service) NewGame(id string, seats []PlayerSeat) (*domain.GameState, []Event, error) {
	if seats == nil {
		seats = DefaultSeats
	}
	if len(seats) < MinPlayersToStartGame || len(seats) > MaxPlayersPerGame {
		return nil, nil, ErrInvalidPlayers
	}
	seen := make(map[string]bool, len(seats))
	g := &domain.GameState{ID: id, Phase: domain.PhaseSetup}
	for _, seat := range seats {
		if seat.ID == "" || seen[seat.ID] {
			return nil, nil, ErrInvalidPlayers
		}
		seen[seat.ID] = true
		g.Players = append(g.Players, &domain.Player{
			ID:      seat.ID,
			Name:    seat.Name,
			IsHuman: seat.IsHuman,
		})
	}

	var events []Event
	if s.CutForDeal {
		events = append(events, s.cutForDeal(g)...)
	} else {
		g.Players[0].IsDealer = true
	}
	events = append(events, s.deal(g)...)
	g.Version = 1
	return g, events, nil
}

// Deal starts a round on a game that is waiting for cards.
func (s *Service) Deal(g *domain.GameState) ([]Event, error) {
	if g.IsOver() {
		return nil, ErrGameOver
	}
	if g.Phase != domain.PhaseSetup && g.Phase != domain.PhaseDealing {
		return nil, ErrWrongPhase
	}
	if g.Dealer() == nil {
		g.Players[0].IsDealer = true
	}
	events := s.deal(g)
	g.Version++
	return events, nil
}

// cutForDeal has every player cut a card; the lowest rank deals, ties cut again.
func (s *Service) cutForDeal(g *domain.GameState) []Event {
	g.Phase = domain.PhaseCutForDeal
	contenders := g.Players
	cuts := make(map[string]domain.Card, len(g.Players))
	for len(contenders) > 1 {
		deck := domain.ShuffleDeck(domain.NewDeck(), s.rng)
		var low []*domain.Player
		lowRank := domain.King + 1
		for _, p := range contenders {
			var card domain.Card
			card, deck, _ = domain.DrawTop(deck)
			cuts[p.ID] = card
			switch {
			case card.Rank < lowRank:
				lowRank = card.Rank
				low = []*domain.Player{p}
			case card.Rank == lowRank:
				low = append(low, p)
			}
		}
		contenders = low
	}
	contenders[0].IsDealer = true
	return []Event{{
		Kind:    EventDealerChosen,
		Payload: DealerChosenPayload{Cuts: cuts, DealerID: contenders[0].ID},
	}}
}

// deal shuffles a fresh deck and hands out cards one at a time, starting left of the dealer.
func (s *Service) deal(g *domain.GameState) []Event {
	g.Phase = domain.PhaseDealing
	g.Round++
	g.Deck = domain.ShuffleDeck(domain.NewDeck(), s.rng)
	g.Crib = nil
	g.CutCard = nil
	g.PeggingStack = nil
	g.PeggingHistory = nil
	g.PeggingTotal = 0
	g.TurnPlayerID = ""
	g.CountingStage = domain.StageNone
	g.Ready = map[string]bool{}
	for _, p := range g.Players {
		p.Hand = nil
		p.Played = nil
		p.DeclaredGo = false
	}

	dealer := g.Dealer()
	order := seatOrderAfter(g, dealer.ID)
	size := domain.HandSize(len(g.Players))
	for i := 0; i < size; i++ {
		for _, p := range order {
			var card domain.Card
			card, g.Deck, _ = domain.DrawTop(g.Deck)
			p.Hand = append(p.Hand, card)
		}
	}
	if len(g.Players) == 3 {
		// One card from the deck completes the crib at three players.
		var card domain.Card
		card, g.Deck, _ = domain.DrawTop(g.Deck)
		g.Crib = append(g.Crib, card)
	}

	events := make([]Event, 0, len(g.Players)+1)
	events = append(events, Event{
		Kind:    EventRoundStarted,
		Payload: RoundStartedPayload{Round: g.Round, DealerID: dealer.ID},
	})
	for _, p := range g.Players {
		events = append(events, Event{
			Kind:       EventHandDealt,
			Payload:    HandDealtPayload{PlayerID: p.ID, Hand: append([]domain.Card{}, p.Hand...)},
			Recipients: []string{p.ID},
		})
	}
	g.Phase = domain.PhaseDiscarding
	return events
}

// Discard lays the cards at the given hand indices away to the crib.
func (s *Service) Discard(g *domain.GameState, playerID string, indices []int) ([]Event, error) {
	if g.IsOver() {
		return nil, ErrGameOver
	}
	if g.Phase != domain.PhaseDiscarding {
		return nil, ErrWrongPhase
	}
	p := g.Player(playerID)
	if p == nil {
		return nil, ErrUnknownPlayer
	}
	if len(p.Hand) <= domain.KeepSize {
		return nil, ErrBadDiscard
	}
	if len(indices) != domain.DiscardCount(len(g.Players)) {
		return nil, ErrBadDiscard
	}
	picked := make(map[int]bool, len(indices))
	discarded := make([]domain.Card, 0, len(indices))
	for _, idx := range indices {
		if idx < 0 || idx >= len(p.Hand) || picked[idx] {
			return nil, ErrBadDiscard
		}
		picked[idx] = true
		discarded = append(discarded, p.Hand[idx])
	}

	p.Hand = domain.RemoveCards(p.Hand, discarded)
	g.Crib = append(g.Crib, discarded...)
	events := []Event{{
		Kind:    EventCardsDiscarded,
		Payload: CardsDiscardedPayload{PlayerID: p.ID, Count: len(discarded)},
	}}

	if allDiscarded(g) {
		events = append(events, s.cut(g)...)
	}
	g.Version++
	return events, nil
}

func allDiscarded(g *domain.GameState) bool {
	for _, p := range g.Players {
		if len(p.Hand) != domain.KeepSize {
			return false
		}
	}
	return true
}

// cut turns the starter and opens pegging with the player left of the dealer.
func (s *Service) cut(g *domain.GameState) []Event {
	g.Phase = domain.PhaseCutting
	dealer := g.Dealer()
	card, deck, _ := domain.DrawTop(g.Deck)
	g.Deck = deck
	g.CutCard = &card
	events := []Event{{
		Kind:    EventCutDrawn,
		Payload: CutDrawnPayload{Card: card, DealerID: dealer.ID},
	}}

	if card.Rank == domain.Jack {
		evs, won := award(g, dealer, domain.HisHeelsPoints, []string{"His heels for 2"})
		events = append(events, evs...)
		if won {
			return events
		}
	}

	g.Phase = domain.PhasePegging
	g.TurnPlayerID = g.NextPlayer(dealer.ID).ID
	return events
}

// award adds points to a player and ends the game when they reach the winning score.
func award(g *domain.GameState, p *domain.Player, points int, reasons []string) ([]Event, bool) {
	p.Score += points
	g.LastScore = &domain.ScoreEvent{PlayerID: p.ID, Points: points, Reasons: reasons}
	events := []Event{{
		Kind:    EventPointsScored,
		Payload: PointsScoredPayload{PlayerID: p.ID, Points: points, Reasons: reasons, Score: p.Score},
	}}
	if p.Score < domain.WinningScore {
		return events, false
	}

	g.Phase = domain.PhaseGameOver
	g.WinnerID = p.ID
	g.TurnPlayerID = ""
	scores := make(map[string]int, len(g.Players))
	for _, pl := range g.Players {
		scores[pl.ID] = pl.Score
	}
	events = append(events, Event{
		Kind:    EventGameOver,
		Payload: GameOverPayload{WinnerID: p.ID, Scores: scores},
	})
	return events, true
}

// seatOrderAfter lists every player starting with the one seated after id.
func seatOrderAfter(g *domain.GameState, id string) []*domain.Player {
	n := len(g.Players)
	start := g.PlayerIndex(id) + 1
	order := make([]*domain.Player, 0, n)
	for i := 0; i < n; i++ {
		order = append(order, g.Players[(start+i)%n])
	}
	return order
}

// HandIndices maps named cards to their positions in hand.
func HandIndices(hand, cards []domain.Card) ([]int, error) {
	if domain.HasDuplicates(cards) {
		return nil, ErrBadDiscard
	}
	indices := make([]int, 0, len(cards))
	for _, c := range cards {
		idx, err := HandIndex(hand, c)
		if err != nil {
			return nil, err
		}
		indices = append(indices, idx)
	}
	return indices, nil
}

// HandIndex returns the position of card in hand.
func HandIndex(hand []domain.Card, card domain.Card) (int, error) {
	idx := domain.IndexOfCard(hand, card)
	if idx < 0 {
		return -1, fmt.Errorf("%w: %s", ErrCardNotInHand, card)
	}
	return idx, nil
}
