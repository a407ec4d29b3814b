package app

import "cribbage/internal/domain"

// Play lays the card at index of the player's hand on the pegging stack.
func (s *Service) Play(g *domain.GameState, playerID string, index int) ([]Event, error) {
	p, err := pegger(g, playerID)
	if err != nil {
		return nil, err
	}
	if index < 0 || index >= len(p.Hand) {
		return nil, ErrCardNotInHand
	}
	card := p.Hand[index]
	if g.PeggingTotal+card.Value() > domain.MaxPeggingTotal {
		return nil, ErrExceeds31
	}

	p.Hand = domain.RemoveCardAt(p.Hand, index)
	p.Played = append(p.Played, card)
	g.PeggingStack = append(g.PeggingStack, domain.PeggingEntry{Card: card, PlayerID: p.ID})
	g.PeggingTotal += card.Value()

	played := CardPlayedPayload{PlayerID: p.ID, Card: card, Total: g.PeggingTotal}
	events := []Event{{Kind: EventCardPlayed}}

	if ps := domain.ScorePegging(domain.StackCards(g.PeggingStack), g.PeggingTotal); ps.Points > 0 {
		evs, won := award(g, p, ps.Points, ps.Reasons)
		events = append(events, evs...)
		if won {
			events[0].Payload = played
			g.Version++
			return events, nil
		}
	}

	if g.PeggingTotal == domain.MaxPeggingTotal {
		events = append(events, s.resetSequence(g, p.ID)...)
	} else {
		events = append(events, s.advanceTurn(g, p)...)
	}
	played.NextTurnPlayerID = g.TurnPlayerID
	events[0].Payload = played
	g.Version++
	return events, nil
}

// Go declares that the player on turn cannot play without passing 31.
func (s *Service) Go(g *domain.GameState, playerID string) ([]Event, error) {
	p, err := pegger(g, playerID)
	if err != nil {
		return nil, err
	}
	if p.CanPlay(g.PeggingTotal) {
		return nil, ErrHasLegalPlay
	}

	p.DeclaredGo = true
	declared := GoDeclaredPayload{PlayerID: p.ID}
	events := []Event{{Kind: EventGoDeclared}}

	for _, other := range seatOrderAfter(g, p.ID)[:len(g.Players)-1] {
		if other.CanPlay(g.PeggingTotal) {
			g.TurnPlayerID = other.ID
			declared.NextTurnPlayerID = other.ID
			events[0].Payload = declared
			g.Version++
			return events, nil
		}
	}

	// Nobody can continue: the last card played takes the go and the declarer leads.
	scorer := g.NextPlayer(p.ID)
	if n := len(g.PeggingStack); n > 0 {
		scorer = g.Player(g.PeggingStack[n-1].PlayerID)
	}
	evs, won := award(g, scorer, domain.GoPoints, []string{"Go for 1"})
	events = append(events, evs...)
	if !won {
		events = append(events, s.resetSequence(g, p.ID)...)
		// resetSequence hands the lead to the seat after p; the declarer leads instead.
		if g.Phase == domain.PhasePegging && len(p.Hand) > 0 {
			g.TurnPlayerID = p.ID
			events[len(events)-1].Payload = SequenceResetPayload{LeaderID: p.ID}
		}
	}
	declared.NextTurnPlayerID = g.TurnPlayerID
	events[0].Payload = declared
	g.Version++
	return events, nil
}

func pegger(g *domain.GameState, playerID string) (*domain.Player, error) {
	if g.IsOver() {
		return nil, ErrGameOver
	}
	if g.Phase != domain.PhasePegging {
		return nil, ErrWrongPhase
	}
	p := g.Player(playerID)
	if p == nil {
		return nil, ErrUnknownPlayer
	}
	if g.TurnPlayerID != playerID {
		return nil, ErrNotYourTurn
	}
	return p, nil
}

// advanceTurn picks who acts after current played a card below 31.
func (s *Service) advanceTurn(g *domain.GameState, current *domain.Player) []Event {
	for _, next := range seatOrderAfter(g, current.ID)[:len(g.Players)-1] {
		if next.CanPlay(g.PeggingTotal) {
			g.TurnPlayerID = next.ID
			return nil
		}
		// A player holding cards must say go before the sequence can close.
		if len(next.Hand) > 0 && !next.DeclaredGo {
			g.TurnPlayerID = next.ID
			return nil
		}
	}
	if current.CanPlay(g.PeggingTotal) {
		g.TurnPlayerID = current.ID
		return nil
	}

	label := "Go for 1"
	if roundPegged(g) {
		label = "Last card for 1"
	}
	events, won := award(g, current, domain.GoPoints, []string{label})
	if won {
		return events
	}
	return append(events, s.resetSequence(g, current.ID)...)
}

// resetSequence closes the current stack. The next player after lastID holding
// cards leads; with every hand empty the round moves to counting.
func (s *Service) resetSequence(g *domain.GameState, lastID string) []Event {
	if len(g.PeggingStack) > 0 {
		g.PeggingHistory = append(g.PeggingHistory, g.PeggingStack)
	}
	g.PeggingStack = nil
	g.PeggingTotal = 0
	for _, p := range g.Players {
		p.DeclaredGo = false
	}

	if roundPegged(g) {
		return s.enterCounting(g)
	}
	leader := ""
	for _, p := range seatOrderAfter(g, lastID) {
		if len(p.Hand) > 0 {
			leader = p.ID
			break
		}
	}
	g.TurnPlayerID = leader
	return []Event{{
		Kind:    EventSequenceReset,
		Payload: SequenceResetPayload{LeaderID: leader},
	}}
}

func roundPegged(g *domain.GameState) bool {
	for _, p := range g.Players {
		if len(p.Hand) > 0 {
			return false
		}
	}
	return true
}
