package replica

import (
	"context"
	"errors"
	"testing"
	"time"

	"cribbage/internal/logging"
)

func flaky(failures int) (*int, Sender) {
	calls := 0
	return &calls, SenderFunc(func(context.Context, Message) error {
		calls++
		if calls <= failures {
			return errors.New("link down")
		}
		return nil
	})
}

// instantTimer fires at once and records every requested delay.
type instantTimer struct {
	delays []time.Duration
	c      chan time.Time
}

func (t *instantTimer) Start(d time.Duration) {
	t.delays = append(t.delays, d)
	t.c = make(chan time.Time, 1)
	t.c <- time.Now()
}

func (t *instantTimer) Stop() {}

func (t *instantTimer) C() <-chan time.Time { return t.c }

func TestRetryPublisherBacksOff(t *testing.T) {
	calls, sender := flaky(2)
	p := NewRetryPublisher(sender, 3, 10*time.Millisecond, logging.Discard())
	timer := &instantTimer{}
	p.timer = timer

	if err := p.Send(context.Background(), Message{Type: MessageSnapshot}); err != nil {
		t.Fatalf("send: %v", err)
	}
	if *calls != 3 {
		t.Fatalf("calls = %d, want 3", *calls)
	}
	if delays := timer.delays; len(delays) != 2 || delays[0] != 10*time.Millisecond || delays[1] != 20*time.Millisecond {
		t.Fatalf("delays = %v, want [10ms 20ms]", delays)
	}
}

func TestRetryPublisherGivesUp(t *testing.T) {
	calls, sender := flaky(10)
	p := NewRetryPublisher(sender, 2, time.Millisecond, logging.Discard())
	p.timer = &instantTimer{}

	err := p.Send(context.Background(), Message{Type: MessageIntent})
	if !errors.Is(err, ErrUnrecoverable) {
		t.Fatalf("err = %v, want ErrUnrecoverable", err)
	}
	if *calls != 2 {
		t.Fatalf("calls = %d, want 2", *calls)
	}
}

func TestRetryPublisherStopsOnCancel(t *testing.T) {
	_, sender := flaky(10)
	p := NewRetryPublisher(sender, 5, time.Hour, logging.Discard())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := p.Send(ctx, Message{Type: MessageIntent}); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}
