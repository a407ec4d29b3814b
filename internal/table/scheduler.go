package table

import (
	"time"

	"atomicgo.dev/schedule"
)

// Scheduler runs fn once after d.
type Scheduler interface {
	After(d time.Duration, fn func())
}

type timerScheduler struct{}

func (timerScheduler) After(d time.Duration, fn func()) {
	schedule.After(d, fn)
}

// DefaultScheduler runs actions on background timers.
var DefaultScheduler Scheduler = timerScheduler{}
