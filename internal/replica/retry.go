package replica

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
)

var ErrUnrecoverable = errors.New("replication send failed")

// RetryPublisher wraps a Sender with bounded retries and exponential backoff.
type RetryPublisher struct {
	next     Sender
	attempts int
	backoff  time.Duration
	logger   *slog.Logger
	timer    backoff.Timer
}

func NewRetryPublisher(next Sender, attempts int, initial time.Duration, logger *slog.Logger) *RetryPublisher {
	if attempts < 1 {
		attempts = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &RetryPublisher{
		next:     next,
		attempts: attempts,
		backoff:  initial,
		logger:   logger,
	}
}

// policy doubles the delay after every failure and stops after attempts sends
// or when ctx ends.
func (p *RetryPublisher) policy(ctx context.Context) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.backoff
	b.Multiplier = 2
	b.RandomizationFactor = 0
	b.MaxInterval = time.Minute
	b.MaxElapsedTime = 0
	return backoff.WithContext(backoff.WithMaxRetries(b, uint64(p.attempts-1)), ctx)
}

// Send tries the wrapped sender until it succeeds or attempts run out. The
// final failure is logged and returned wrapped in ErrUnrecoverable.
func (p *RetryPublisher) Send(ctx context.Context, msg Message) error {
	attempt := 0
	send := func() error {
		attempt++
		return p.next.Send(ctx, msg)
	}
	notify := func(err error, delay time.Duration) {
		p.logger.Warn("replication send failed, retrying", "type", msg.Type, "attempt", attempt, "delay", delay, "err", err)
	}

	err := backoff.RetryNotifyWithTimer(send, p.policy(ctx), notify, p.timer)
	if err == nil {
		return nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	p.logger.Error("replication send unrecoverable", "type", msg.Type, "attempt", attempt, "err", err)
	return fmt.Errorf("%w after %d attempts: %v", ErrUnrecoverable, attempt, err)
}
