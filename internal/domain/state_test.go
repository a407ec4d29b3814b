package domain

import "testing"

func TestViewFor(t *testing.T) {
	g := &GameState{
		Phase: PhasePegging,
		Players: []*Player{
			{ID: "a", Hand: []Card{{Rank: 5, Suit: Hearts}}},
			{ID: "b", Hand: []Card{{Rank: 6, Suit: Hearts}}},
		},
		Crib: []Card{{Rank: 7, Suit: Hearts}},
		Deck: []Card{{Rank: 8, Suit: Hearts}},
	}

	view := g.ViewFor("a")
	if len(view.Player("a").Hand) != 1 || len(view.Player("b").Hand) != 0 || view.Crib != nil || view.Deck != nil {
		t.Fatalf("pegging view leaks: %+v", view)
	}
	if len(g.Player("b").Hand) != 1 || len(g.Deck) != 1 {
		t.Fatal("ViewFor modified the original state")
	}

	g.Phase = PhaseCounting
	g.CountingStage = StageNonDealerHand
	view = g.ViewFor("a")
	if len(view.Player("b").Hand) != 1 || view.Crib != nil {
		t.Fatalf("hand stage view = %+v, want hands shown and crib hidden", view)
	}

	g.CountingStage = StageCrib
	view = g.ViewFor("a")
	if len(view.Player("b").Hand) != 1 || len(view.Crib) != 1 || view.Deck != nil {
		t.Fatalf("crib stage view hides shown cards: %+v", view)
	}

	g.Phase = PhaseGameOver
	if view = g.ViewFor("nobody"); view.Deck != nil || len(view.Crib) != 1 {
		t.Fatalf("game over view = %+v, want deck hidden and crib shown", view)
	}
}
