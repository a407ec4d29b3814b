package app

import (
	"errors"
	"fmt"
)

// Status classifies the outcome of a command for callers that map it to user feedback.
type Status string

const (
	StatusOK           Status = "ok"
	StatusIllegalMove  Status = "illegal_move"
	StatusGameOver     Status = "game_over"
	StatusInvalidInput Status = "invalid_input"
)

var (
	ErrIllegalMove    = errors.New("illegal move")
	ErrGameOver       = errors.New("game is over")
	ErrInvalidPlayers = errors.New("a game needs 2 to 4 players with unique ids")

	ErrWrongPhase    = fmt.Errorf("%w: wrong phase", ErrIllegalMove)
	ErrNotYourTurn   = fmt.Errorf("%w: not your turn", ErrIllegalMove)
	ErrExceeds31     = fmt.Errorf("%w: total would exceed 31", ErrIllegalMove)
	ErrCardNotInHand = fmt.Errorf("%w: card not in hand", ErrIllegalMove)
	ErrHasLegalPlay  = fmt.Errorf("%w: player has a legal play", ErrIllegalMove)
	ErrUnknownPlayer = fmt.Errorf("%w: player not found", ErrIllegalMove)
	ErrBadDiscard    = fmt.Errorf("%w: bad discard selection", ErrIllegalMove)
)

// StatusOf maps a command error to its status.
func StatusOf(err error) Status {
	switch {
	case err == nil:
		return StatusOK
	case errors.Is(err, ErrGameOver):
		return StatusGameOver
	case errors.Is(err, ErrIllegalMove):
		return StatusIllegalMove
	default:
		return StatusInvalidInput
	}
}
