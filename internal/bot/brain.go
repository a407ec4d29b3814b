package bot

import "cribbage/internal/domain"

// Brain is the interface that all bot strategies must implement.
type Brain interface {
	ChooseDiscard(game *domain.GameState, player *domain.Player) ([]domain.Card, error)
	ChoosePlay(game *domain.GameState, player *domain.Player) (Move, error)
}
