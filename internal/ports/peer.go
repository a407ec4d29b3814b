package ports

import (
	"context"

	"cribbage/internal/replica"
)

// PeerChannel links the two peers of a replicated game.
type PeerChannel interface {
	replica.Sender

	// Serve hands every incoming message to handle until ctx ends or the
	// channel closes.
	Serve(ctx context.Context, handle func(context.Context, replica.Message) error) error

	Close() error
}
