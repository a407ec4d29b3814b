package table

import (
	"errors"
	"math/rand"
	"sync"
	"testing"
	"time"

	"cribbage/internal/app"
	"cribbage/internal/bot"
	"cribbage/internal/domain"
	"cribbage/internal/logging"
)

type manualScheduler struct {
	mu    sync.Mutex
	queue []func()
}

func (m *manualScheduler) After(_ time.Duration, fn func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queue = append(m.queue, fn)
}

func (m *manualScheduler) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.queue)
}

// RunAll fires queued actions, including ones queued while running, up to limit.
func (m *manualScheduler) RunAll(limit int) int {
	fired := 0
	for fired < limit {
		m.mu.Lock()
		if len(m.queue) == 0 {
			m.mu.Unlock()
			return fired
		}
		fn := m.queue[0]
		m.queue = m.queue[1:]
		m.mu.Unlock()
		fn()
		fired++
	}
	return fired
}

func newTable(t *testing.T, seats []app.PlayerSeat, seed int64) (*Table, *manualScheduler) {
	t.Helper()
	rng := rand.New(rand.NewSource(seed))
	svc := app.NewService(rng)
	g, _, err := svc.NewGame("t1", seats)
	if err != nil {
		t.Fatalf("new game error: %v", err)
	}
	sched := &manualScheduler{}
	tbl, err := New(svc, g, Options{
		BotLevel:  bot.BotLevelEasy,
		Scheduler: sched,
		Logger:    logging.Discard(),
		Rand:      rng,
	})
	if err != nil {
		t.Fatalf("new table error: %v", err)
	}
	return tbl, sched
}

func TestBotDiscardsWhenScheduled(t *testing.T) {
	tbl, sched := newTable(t, nil, 1)
	tbl.Start()
	if sched.Len() != 1 {
		t.Fatalf("queued = %d, want one bot discard", sched.Len())
	}
	sched.RunAll(10)

	g := tbl.State()
	if got := len(g.Player("p2").Hand); got != domain.KeepSize {
		t.Fatalf("bot hand = %d cards, want %d", got, domain.KeepSize)
	}
	if got := len(g.Player("p1").Hand); got != 6 {
		t.Fatalf("human hand = %d cards, want 6", got)
	}
}

func TestPendingActionsDoNotStack(t *testing.T) {
	tbl, sched := newTable(t, nil, 2)
	tbl.Start()
	if err := tbl.Restart(); err != nil {
		t.Fatalf("restart: %v", err)
	}
	if sched.Len() != 1 {
		t.Fatalf("queued = %d, want 1", sched.Len())
	}
	sched.RunAll(10)
	if got := len(tbl.State().Player("p2").Hand); got != domain.KeepSize {
		t.Fatalf("bot hand = %d cards, want %d", got, domain.KeepSize)
	}
}

func TestStaleBotActionIsDropped(t *testing.T) {
	tbl, sched := newTable(t, nil, 2)
	tbl.Start()
	if err := tbl.Discard("p1", domain.CardCodes(tbl.State().Player("p1").Hand[:2])); err != nil {
		t.Fatalf("human discard: %v", err)
	}
	if err := tbl.Restart(); err != nil {
		t.Fatalf("restart: %v", err)
	}
	before := tbl.State()
	if before.Round != 1 || before.Game != 1 {
		t.Fatalf("restart at game %d round %d, want game 1 round 1", before.Game, before.Round)
	}

	// The discard queued before the restart fires into the new game.
	if fired := sched.RunAll(1); fired != 1 {
		t.Fatalf("fired %d actions, want 1", fired)
	}
	after := tbl.State()
	if after.Version != before.Version {
		t.Fatalf("version = %d, want %d after a stale action", after.Version, before.Version)
	}
	if got := len(after.Player("p2").Hand); got != 6 {
		t.Fatalf("bot hand = %d cards, want 6 after a stale action", got)
	}

	if sched.Len() != 1 {
		t.Fatalf("queued = %d, want the discard rescheduled for the new game", sched.Len())
	}
	sched.RunAll(1)
	if got := len(tbl.State().Player("p2").Hand); got != domain.KeepSize {
		t.Fatalf("bot hand = %d cards, want %d", got, domain.KeepSize)
	}
}

func TestCommandsByCode(t *testing.T) {
	tbl, _ := newTable(t, nil, 3)
	hand := tbl.State().Player("p1").Hand

	if err := tbl.Discard("p1", []string{"ZZ"}); !errors.Is(err, domain.ErrInvalidCardCode) {
		t.Fatalf("bad code err = %v, want ErrInvalidCardCode", err)
	}
	if err := tbl.Discard("p1", []string{hand[0].String(), hand[0].String()}); !errors.Is(err, app.ErrBadDiscard) {
		t.Fatalf("repeated card err = %v, want ErrBadDiscard", err)
	}
	notHeld := domain.Remaining(hand)[0]
	if err := tbl.Discard("p1", []string{hand[0].String(), notHeld.String()}); !errors.Is(err, app.ErrCardNotInHand) {
		t.Fatalf("foreign card err = %v, want ErrCardNotInHand", err)
	}
	if err := tbl.Discard("p1", []string{hand[0].String(), hand[1].String()}); err != nil {
		t.Fatalf("discard: %v", err)
	}
	if got := len(tbl.State().Player("p1").Hand); got != domain.KeepSize {
		t.Fatalf("hand = %d cards, want %d", got, domain.KeepSize)
	}
}

func TestListenersSeeEveryTransition(t *testing.T) {
	tbl, sched := newTable(t, nil, 4)

	var (
		mu       sync.Mutex
		versions []int64
		kinds    = map[app.EventKind]int{}
	)
	tbl.Subscribe(func(ev app.Event) {
		mu.Lock()
		defer mu.Unlock()
		kinds[ev.Kind]++
	})
	tbl.OnTransition(func(g *domain.GameState) {
		mu.Lock()
		defer mu.Unlock()
		versions = append(versions, g.Version)
		if err := domain.CheckConservation(g); err != nil {
			t.Errorf("version %d: %v", g.Version, err)
		}
	})
	tbl.Start()

	for step := 0; step < 5000 && !tbl.State().IsOver(); step++ {
		sched.RunAll(100)
		g := tbl.State()
		human := g.Player("p1")
		var err error
		switch g.Phase {
		case domain.PhaseDiscarding:
			if len(human.Hand) > domain.KeepSize {
				err = tbl.Discard("p1", domain.CardCodes(human.Hand[:2]))
			}
		case domain.PhasePegging:
			if g.TurnPlayerID != "p1" {
				continue
			}
			if !human.CanPlay(g.PeggingTotal) {
				err = tbl.Go("p1")
				break
			}
			for _, c := range human.Hand {
				if g.PeggingTotal+c.Value() <= domain.MaxPeggingTotal {
					err = tbl.Play("p1", c.String())
					break
				}
			}
		case domain.PhaseCounting:
			err = tbl.Acknowledge("p1")
		}
		if err != nil {
			t.Fatalf("step %d in %s: %v", step, g.Phase, err)
		}
	}

	g := tbl.State()
	if !g.IsOver() || g.WinnerID == "" {
		t.Fatalf("game did not finish: phase %s", g.Phase)
	}
	mu.Lock()
	defer mu.Unlock()
	for i := 1; i < len(versions); i++ {
		if versions[i] <= versions[i-1] {
			t.Fatalf("versions not increasing: %v", versions[i-1:i+1])
		}
	}
	if kinds[app.EventGameOver] != 1 {
		t.Fatalf("game over events = %d, want 1", kinds[app.EventGameOver])
	}
}

func TestBotsFinishAGameAlone(t *testing.T) {
	seats := []app.PlayerSeat{{ID: "cpu-1"}, {ID: "cpu-2"}, {ID: "cpu-3"}}
	tbl, sched := newTable(t, seats, 5)
	tbl.Start()
	sched.RunAll(100000)

	g := tbl.State()
	if !g.IsOver() {
		t.Fatalf("phase = %s, want gameover", g.Phase)
	}
	if g.Player(g.WinnerID).Score < domain.WinningScore {
		t.Fatalf("winner %s has %d points", g.WinnerID, g.Player(g.WinnerID).Score)
	}
	if sched.Len() != 0 {
		t.Fatalf("actions still queued after game over: %d", sched.Len())
	}
}
