package app

import (
	"fmt"

	"cribbage/internal/domain"
)

var countingOrder = []domain.CountingStage{
	domain.StageNonDealerHand,
	domain.StageDealerHand,
	domain.StageCrib,
}

// enterCounting opens counting at the non-dealer hands.
func (s *Service) enterCounting(g *domain.GameState) []Event {
	g.Phase = domain.PhaseCounting
	g.TurnPlayerID = ""
	return s.countStage(g, domain.StageNonDealerHand)
}

// countStage scores one counting stage. Every non-dealer hand counts in the first
// stage, in seat order from the dealer's left, stopping at a winner.
func (s *Service) countStage(g *domain.GameState, stage domain.CountingStage) []Event {
	g.CountingStage = stage
	g.Ready = map[string]bool{}
	dealer := g.Dealer()

	var events []Event
	count := func(p *domain.Player, cards []domain.Card, isCrib bool) bool {
		bd := domain.Score(cards, g.CutCard, isCrib)
		events = append(events, Event{
			Kind: EventCountingStage,
			Payload: CountingStagePayload{
				Stage:     stage,
				PlayerID:  p.ID,
				Cards:     append([]domain.Card{}, cards...),
				Breakdown: bd,
			},
		})
		if bd.Total == 0 {
			return false
		}
		evs, won := award(g, p, bd.Total, breakdownReasons(bd))
		events = append(events, evs...)
		return won
	}

	switch stage {
	case domain.StageNonDealerHand:
		for _, p := range seatOrderAfter(g, dealer.ID) {
			if p.IsDealer {
				continue
			}
			if count(p, p.CountedCards(), false) {
				return events
			}
		}
	case domain.StageDealerHand:
		count(dealer, dealer.CountedCards(), false)
	case domain.StageCrib:
		count(dealer, g.Crib, true)
	}
	return events
}

func breakdownReasons(bd domain.ScoreBreakdown) []string {
	var reasons []string
	add := func(points int, label string) {
		if points > 0 {
			reasons = append(reasons, fmt.Sprintf("%s for %d", label, points))
		}
	}
	add(bd.Fifteens, "Fifteens")
	add(bd.Pairs, "Pairs")
	add(bd.Runs, "Runs")
	add(bd.Flush, "Flush")
	add(bd.Nobs, "Nobs")
	return reasons
}

// Acknowledge marks a player ready to leave the current counting stage. Once
// every human is ready the next stage is counted, and after the crib a new
// round is dealt by the next dealer. Repeating an acknowledgement is a no-op.
func (s *Service) Acknowledge(g *domain.GameState, playerID string) ([]Event, error) {
	if g.IsOver() {
		return nil, ErrGameOver
	}
	if g.Phase != domain.PhaseCounting {
		return nil, ErrWrongPhase
	}
	if g.Player(playerID) == nil {
		return nil, ErrUnknownPlayer
	}
	if g.Ready[playerID] {
		return nil, nil
	}

	if g.Ready == nil {
		g.Ready = map[string]bool{}
	}
	g.Ready[playerID] = true
	events := []Event{{
		Kind:    EventPlayerReady,
		Payload: PlayerReadyPayload{PlayerID: playerID, Stage: g.CountingStage},
	}}
	if AllReady(g) {
		events = append(events, s.advanceCounting(g)...)
	}
	g.Version++
	return events, nil
}

// AllReady reports whether every human has acknowledged the current stage.
// Players that are not human are always ready.
func AllReady(g *domain.GameState) bool {
	for _, p := range g.Players {
		if p.IsHuman && !g.Ready[p.ID] {
			return false
		}
	}
	return true
}

func (s *Service) advanceCounting(g *domain.GameState) []Event {
	for i, stage := range countingOrder {
		if stage != g.CountingStage {
			continue
		}
		if i+1 < len(countingOrder) {
			return s.countStage(g, countingOrder[i+1])
		}
	}
	return s.nextRound(g)
}

// nextRound passes the deal to the left and deals again.
func (s *Service) nextRound(g *domain.GameState) []Event {
	next := g.NextPlayer(g.Dealer().ID)
	for _, p := range g.Players {
		p.IsDealer = p.ID == next.ID
	}
	return s.deal(g)
}

// Restart clears scores and deals a fresh game with the same players and dealer.
func (s *Service) Restart(g *domain.GameState) ([]Event, error) {
	for _, p := range g.Players {
		p.Score = 0
	}
	g.WinnerID = ""
	g.LastScore = nil
	g.Game++
	g.Round = 0
	g.Phase = domain.PhaseSetup
	if g.Dealer() == nil {
		g.Players[0].IsDealer = true
	}
	events := s.deal(g)
	g.Version++
	return events, nil
}
