package bot

import "cribbage/internal/domain"

// Agent represents an autonomous bot player.
type Agent struct {
	ID       string
	Name     string
	Strategy Brain
}

// Decide asks the agent for its move in the current phase.
func (a *Agent) Decide(game *domain.GameState) (Move, error) {
	player := game.Player(a.ID)
	if player == nil {
		return Move{}, ErrNoDecision
	}

	switch game.Phase {
	case domain.PhaseDiscarding:
		if len(player.Hand) <= domain.KeepSize {
			return Move{}, ErrNoDecision
		}
		cards, err := a.Strategy.ChooseDiscard(game, player)
		if err != nil {
			return Move{}, err
		}
		return Move{Discard: cards}, nil
	case domain.PhasePegging:
		if game.TurnPlayerID != a.ID {
			return Move{}, ErrNoDecision
		}
		return a.Strategy.ChoosePlay(game, player)
	default:
		return Move{}, ErrNoDecision
	}
}
