package bot

import (
	"cribbage/internal/analysis"
	"cribbage/internal/domain"
)

// GoodBot keeps the discard the analyzer ranks first and pegs with the tactical heuristic.
type GoodBot struct {
	analyzer *analysis.Analyzer
	tuning   PeggingTuning
}

func (b *GoodBot) ChooseDiscard(game *domain.GameState, player *domain.Player) ([]domain.Card, error) {
	if len(player.Hand) <= domain.KeepSize {
		return nil, ErrNoDecision
	}
	options, err := b.analyzer.Analyze(player.Hand, player.IsDealer, len(game.Players))
	if err != nil {
		return nil, err
	}
	return options[0].Discarded, nil
}

func (b *GoodBot) ChoosePlay(game *domain.GameState, player *domain.Player) (Move, error) {
	choice := ChoosePeggingCardWith(b.tuning, player.Hand, domain.StackCards(game.PeggingStack), game.PeggingTotal)
	if choice.Card == nil {
		return Move{Go: true}, nil
	}
	return Move{Card: choice.Card}, nil
}
