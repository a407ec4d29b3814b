package domain

// Phase represents the lifecycle stage of a cribbage game.
type Phase string

const (
	// PhaseSetup is the state before any players are seated.
	PhaseSetup Phase = "setup"
	// PhaseCutForDeal is reserved for choosing the first dealer by cut.
	PhaseCutForDeal Phase = "cut_for_deal"
	// PhaseDealing is the transient state while hands are dealt.
	PhaseDealing Phase = "dealing"
	// PhaseDiscarding waits for every player to lay cards away to the crib.
	PhaseDiscarding Phase = "discarding"
	// PhaseCutting is the transient state while the starter is turned.
	PhaseCutting Phase = "cutting"
	// PhasePegging is the play of cards toward 31.
	PhasePegging Phase = "pegging"
	// PhaseCounting walks the hands and crib in scoring order.
	PhaseCounting Phase = "counting"
	// PhaseGameOver is terminal until an explicit restart.
	PhaseGameOver Phase = "gameover"
)

// CountingStage names the hand currently being shown during counting.
type CountingStage string

const (
	StageNone          CountingStage = ""
	StageNonDealerHand CountingStage = "non_dealer_hand"
	StageDealerHand    CountingStage = "dealer_hand"
	StageCrib          CountingStage = "crib"
)

// Player holds state for a participant in the game.
type Player struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	IsHuman    bool   `json:"isHuman"`
	Score      int    `json:"score"`
	Hand       []Card `json:"hand"`
	Played     []Card `json:"played"` // kept for counting
	IsDealer   bool   `json:"isDealer"`
	DeclaredGo bool   `json:"declaredGo"` // reset with each pegging sequence
}

// CanPlay reports whether the player holds a card that fits under 31.
func (p *Player) CanPlay(total int) bool {
	for _, c := range p.Hand {
		if total+c.Value() <= MaxPeggingTotal {
			return true
		}
	}
	return false
}

// CountedCards returns the cards counted for this player's hand.
func (p *Player) CountedCards() []Card {
	cards := make([]Card, 0, len(p.Played)+len(p.Hand))
	cards = append(cards, p.Played...)
	cards = append(cards, p.Hand...)
	return cards
}

// PeggingEntry is one card laid on the pegging stack.
type PeggingEntry struct {
	Card     Card   `json:"card"`
	PlayerID string `json:"playerId"`
}

// ScoreEvent records the latest application of points.
type ScoreEvent struct {
	PlayerID string   `json:"playerId"`
	Points   int      `json:"points"`
	Reasons  []string `json:"reasons"`
}

// GameState holds the authoritative state of one cribbage session. Game
// counts restarts of the session, starting at zero.
type GameState struct {
	ID            string         `json:"id"`
	Version       int64          `json:"version"`
	Game          int            `json:"game"`
	Round         int            `json:"round"`
	Phase         Phase          `json:"phase"`
	CountingStage CountingStage  `json:"countingStage"`
	Players       []*Player      `json:"players"`
	Crib          []Card         `json:"crib"`
	CutCard       *Card          `json:"cutCard"`
	PeggingStack  []PeggingEntry `json:"peggingStack"`
	// Completed sequences of the current round.
	PeggingHistory [][]PeggingEntry `json:"peggingHistory"`
	PeggingTotal   int              `json:"peggingTotal"`
	TurnPlayerID   string           `json:"turnPlayerId"`
	Deck           []Card           `json:"deck"`
	WinnerID       string           `json:"winnerId"`
	AuthorityID    string           `json:"authorityId"`
	Ready          map[string]bool  `json:"ready"`
	LastScore      *ScoreEvent      `json:"lastScore"`
}

// Player returns the player with the given id, or nil.
func (g *GameState) Player(id string) *Player {
	for _, p := range g.Players {
		if p.ID == id {
			return p
		}
	}
	return nil
}

// PlayerIndex returns the seat index of the player, or -1.
func (g *GameState) PlayerIndex(id string) int {
	for i, p := range g.Players {
		if p.ID == id {
			return i
		}
	}
	return -1
}

// Dealer returns the current dealer, or nil before the first deal.
func (g *GameState) Dealer() *Player {
	for _, p := range g.Players {
		if p.IsDealer {
			return p
		}
	}
	return nil
}

// NextPlayer returns the player seated after id, wrapping around.
func (g *GameState) NextPlayer(id string) *Player {
	idx := g.PlayerIndex(id)
	if idx < 0 || len(g.Players) == 0 {
		return nil
	}
	return g.Players[(idx+1)%len(g.Players)]
}

// IsOver reports whether the game has reached its terminal phase.
func (g *GameState) IsOver() bool {
	return g.Phase == PhaseGameOver
}

// ViewFor returns a copy holding only what playerID may see: never the deck,
// other hands until they are shown for counting, and the crib until its stage.
func (g *GameState) ViewFor(playerID string) *GameState {
	view := g.Clone()
	view.Deck = nil
	if g.Phase != PhaseCounting && g.Phase != PhaseGameOver {
		for _, p := range view.Players {
			if p.ID != playerID {
				p.Hand = nil
			}
		}
	}
	if !(g.Phase == PhaseCounting && g.CountingStage == StageCrib) && g.Phase != PhaseGameOver {
		view.Crib = nil
	}
	return view
}

// Clone returns a deep copy suitable for handing to other goroutines.
func (g *GameState) Clone() *GameState {
	out := *g
	out.Players = make([]*Player, len(g.Players))
	for i, p := range g.Players {
		cp := *p
		cp.Hand = cloneCards(p.Hand)
		cp.Played = cloneCards(p.Played)
		out.Players[i] = &cp
	}
	out.Crib = cloneCards(g.Crib)
	if g.CutCard != nil {
		cut := *g.CutCard
		out.CutCard = &cut
	}
	out.PeggingStack = cloneEntries(g.PeggingStack)
	if g.PeggingHistory != nil {
		out.PeggingHistory = make([][]PeggingEntry, len(g.PeggingHistory))
		for i, seq := range g.PeggingHistory {
			out.PeggingHistory[i] = cloneEntries(seq)
		}
	}
	out.Deck = cloneCards(g.Deck)
	if g.Ready != nil {
		out.Ready = make(map[string]bool, len(g.Ready))
		for k, v := range g.Ready {
			out.Ready[k] = v
		}
	}
	if g.LastScore != nil {
		ls := *g.LastScore
		ls.Reasons = append([]string(nil), g.LastScore.Reasons...)
		out.LastScore = &ls
	}
	return &out
}

func cloneCards(cards []Card) []Card {
	if cards == nil {
		return nil
	}
	return append([]Card{}, cards...)
}

func cloneEntries(entries []PeggingEntry) []PeggingEntry {
	if entries == nil {
		return nil
	}
	return append([]PeggingEntry{}, entries...)
}
