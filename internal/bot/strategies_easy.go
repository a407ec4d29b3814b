package bot

import (
	"math/rand"

	"cribbage/internal/domain"
)

// EasyBot discards at random and plays a random legal card.
type EasyBot struct {
	rng *rand.Rand
}

func (b *EasyBot) ChooseDiscard(game *domain.GameState, player *domain.Player) ([]domain.Card, error) {
	n := len(player.Hand) - domain.KeepSize
	if n <= 0 {
		return nil, ErrNoDecision
	}
	perm := b.rng.Perm(len(player.Hand))
	out := make([]domain.Card, 0, n)
	for _, i := range perm[:n] {
		out = append(out, player.Hand[i])
	}
	return out, nil
}

func (b *EasyBot) ChoosePlay(game *domain.GameState, player *domain.Player) (Move, error) {
	var legal []domain.Card
	for _, c := range player.Hand {
		if game.PeggingTotal+c.Value() <= domain.MaxPeggingTotal {
			legal = append(legal, c)
		}
	}
	if len(legal) == 0 {
		return Move{Go: true}, nil
	}
	c := legal[b.rng.Intn(len(legal))]
	return Move{Card: &c}, nil
}
