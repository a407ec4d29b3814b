package nakama

import (
	"context"
	"encoding/json"
	"math/rand"
	"testing"

	"cribbage/internal/app"
	"cribbage/internal/bot"
	"cribbage/internal/domain"
	"cribbage/internal/ports"
	"cribbage/internal/snapshot"

	"github.com/heroiclabs/nakama-common/runtime"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

// noopLogger implements runtime.Logger for tests that only need to satisfy the interface.
type noopLogger struct{}

func (noopLogger) Debug(string, ...interface{}) {}
func (noopLogger) Info(string, ...interface{})  {}
func (noopLogger) Warn(string, ...interface{})  {}
func (noopLogger) Error(string, ...interface{}) {}
func (noopLogger) WithField(string, interface{}) runtime.Logger {
	return noopLogger{}
}
func (noopLogger) WithFields(map[string]interface{}) runtime.Logger {
	return noopLogger{}
}
func (noopLogger) Fields() map[string]interface{} {
	return nil
}

type sentMessage struct {
	opCode     int64
	data       []byte
	recipients []string
}

// mockDispatcher records match dispatcher calls for assertions.
type mockDispatcher struct {
	sent         []sentMessage
	labelUpdates int
	lastLabel    string
}

func (md *mockDispatcher) BroadcastMessage(opCode int64, data []byte, presences []runtime.Presence, sender runtime.Presence, reliable bool) error {
	msg := sentMessage{opCode: opCode, data: append([]byte(nil), data...)}
	for _, p := range presences {
		msg.recipients = append(msg.recipients, p.GetUserId())
	}
	md.sent = append(md.sent, msg)
	return nil
}

func (md *mockDispatcher) BroadcastMessageDeferred(opCode int64, data []byte, presences []runtime.Presence, sender runtime.Presence, reliable bool) error {
	return nil
}

func (md *mockDispatcher) MatchKick(presences []runtime.Presence) error {
	return nil
}

func (md *mockDispatcher) MatchLabelUpdate(label string) error {
	md.labelUpdates++
	md.lastLabel = label
	return nil
}

func (md *mockDispatcher) count(opCode int64) int {
	n := 0
	for _, m := range md.sent {
		if m.opCode == opCode {
			n++
		}
	}
	return n
}

func (md *mockDispatcher) last(opCode int64) (sentMessage, bool) {
	for i := len(md.sent) - 1; i >= 0; i-- {
		if md.sent[i].opCode == opCode {
			return md.sent[i], true
		}
	}
	return sentMessage{}, false
}

type mockPresence struct {
	userID   string
	username string
}

func (p mockPresence) GetHidden() bool                   { return false }
func (p mockPresence) GetPersistence() bool              { return false }
func (p mockPresence) GetUsername() string               { return p.username }
func (p mockPresence) GetStatus() string                 { return "" }
func (p mockPresence) GetReason() runtime.PresenceReason { return runtime.PresenceReasonUnknown }
func (p mockPresence) GetUserId() string                 { return p.userID }
func (p mockPresence) GetSessionId() string              { return "session-" + p.userID }
func (p mockPresence) GetNodeId() string                 { return "node" }

type mockMatchData struct {
	mockPresence
	opCode int64
	data   []byte
}

func (m mockMatchData) GetOpCode() int64      { return m.opCode }
func (m mockMatchData) GetData() []byte       { return m.data }
func (m mockMatchData) GetReliable() bool     { return true }
func (m mockMatchData) GetReceiveTime() int64 { return 0 }

func message(t *testing.T, userID string, opCode int64, body any) runtime.MatchData {
	t.Helper()
	var data []byte
	if body != nil {
		var err error
		if data, err = json.Marshal(body); err != nil {
			t.Fatalf("marshal body: %v", err)
		}
	}
	return mockMatchData{mockPresence: mockPresence{userID: userID}, opCode: opCode, data: data}
}

type mockStats struct {
	calls   int
	results []ports.GameResult
}

func (m *mockStats) InitStatsOnce(ctx context.Context, userID string) (bool, error) {
	return true, nil
}

func (m *mockStats) RecordResults(ctx context.Context, results []ports.GameResult) error {
	m.calls++
	m.results = append(m.results, results...)
	return nil
}

// newTestState seats the given users; ids with the bot prefix become bots.
func newTestState(seed int64, users ...string) *MatchState {
	rng := rand.New(rand.NewSource(seed))
	state := &MatchState{
		MatchID:     "match-1",
		OwnerSeat:   0,
		Presences:   make(map[string]runtime.Presence),
		Departed:    make(map[string]bool),
		App:         app.NewService(rng),
		BotsEnabled: true,
		BotLevel:    bot.BotLevelEasy,
		BotMinDelay: 1,
		BotMaxDelay: 1,
		Bots:        make(map[string]*bot.Agent),
		rng:         rng,
	}
	for i, u := range users {
		state.Seats[i] = u
		if !isBotUserId(u) {
			state.Presences[u] = mockPresence{userID: u, username: "name-" + u}
		}
	}
	return state
}

func TestFindFirstHumanSeat(t *testing.T) {
	bot1 := bot.GetBotIdentity(0).UserID
	bot2 := bot.GetBotIdentity(1).UserID

	tests := []struct {
		name     string
		seats    []string
		departed []string
		want     int
	}{
		{
			name:  "FirstHumanAfterBot",
			seats: []string{bot1, "user-1", "", ""},
			want:  1,
		},
		{
			name:  "AllBots",
			seats: []string{bot1, bot2, "", ""},
			want:  -1,
		},
		{
			name:  "AllEmpty",
			seats: []string{"", "", "", ""},
			want:  -1,
		},
		{
			name:     "DepartedHumanSkipped",
			seats:    []string{"user-1", bot1, "user-2", ""},
			departed: []string{"user-1"},
			want:     2,
		},
	}

	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			state := &MatchState{Departed: map[string]bool{}}
			copy(state.Seats[:], test.seats)
			for _, d := range test.departed {
				state.Departed[d] = true
			}
			if got := state.findFirstHumanSeat(); got != test.want {
				t.Fatalf("findFirstHumanSeat() = %d, want %d", got, test.want)
			}
			if got, want := state.shouldTerminateNoHumans(), test.want == -1; got != want {
				t.Fatalf("shouldTerminateNoHumans() = %t, want %t", got, want)
			}
		})
	}
}

func TestMatchLabel(t *testing.T) {
	tests := []struct {
		name  string
		state *MatchState
		open  float64
		phase string
	}{
		{"Lobby", newTestState(1, "user-1"), 3, labelStateLobby},
		{"Playing", func() *MatchState {
			s := newTestState(1, "user-1", "user-2")
			s.Game = &domain.GameState{Phase: domain.PhasePegging}
			return s
		}(), 2, labelStatePlaying},
		{"GameOver", func() *MatchState {
			s := newTestState(1, "user-1", "user-2", "user-3", "user-4")
			s.Game = &domain.GameState{Phase: domain.PhaseGameOver}
			return s
		}(), 0, labelStateGameOver},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			label, err := encodeLabel(test.state)
			if err != nil {
				t.Fatalf("encodeLabel: %v", err)
			}
			var got map[string]any
			if err := json.Unmarshal([]byte(label), &got); err != nil {
				t.Fatalf("label %q is not JSON: %v", label, err)
			}
			if got["open"] != test.open || got["state"] != test.phase || got["game"] != "cribbage" {
				t.Fatalf("label = %v, want open=%v state=%s game=cribbage", got, test.open, test.phase)
			}
		})
	}
}

func TestProcessBots_AddsBotForSoloHuman(t *testing.T) {
	handler := &matchHandler{}
	dispatcher := &mockDispatcher{}
	state := newTestState(1, "user-1")
	state.BotAutoFillDelay = 2
	state.LastSinglePlayerTick = 8
	state.Tick = 10

	handler.processBots(context.Background(), state, dispatcher, noopLogger{})

	botCount := 0
	for _, seat := range state.Seats {
		if isBotUserId(seat) {
			botCount++
		}
	}
	if botCount != 1 {
		t.Fatalf("bots = %d, want 1", botCount)
	}
	if len(state.Bots) != 1 {
		t.Fatalf("agents = %d, want 1", len(state.Bots))
	}
	if state.LastSinglePlayerTick != 0 {
		t.Fatalf("auto-fill timer = %d, want reset", state.LastSinglePlayerTick)
	}
	if dispatcher.count(OpMatchState) == 0 || dispatcher.labelUpdates == 0 {
		t.Fatalf("expected match state broadcast and label update after auto-fill")
	}
}

func TestStartGameRequiresOwnerAndPlayers(t *testing.T) {
	handler := &matchHandler{}
	dispatcher := &mockDispatcher{}
	ctx := context.Background()

	solo := newTestState(1, "user-1")
	handler.handleStartGame(ctx, solo, dispatcher, noopLogger{}, message(t, "user-1", OpStartGame, nil))
	if solo.Game != nil {
		t.Fatal("game started with one player")
	}
	if dispatcher.count(OpGameError) != 1 {
		t.Fatalf("errors sent = %d, want 1", dispatcher.count(OpGameError))
	}

	pair := newTestState(1, "user-1", "user-2")
	handler.handleStartGame(ctx, pair, dispatcher, noopLogger{}, message(t, "user-2", OpStartGame, nil))
	if pair.Game != nil {
		t.Fatal("non-owner started the game")
	}
}

func TestStartGameDealsPrivately(t *testing.T) {
	handler := &matchHandler{}
	dispatcher := &mockDispatcher{}
	state := newTestState(1, "user-1", "user-2")

	handler.handleStartGame(context.Background(), state, dispatcher, noopLogger{}, message(t, "user-1", OpStartGame, nil))
	if state.Game == nil {
		t.Fatal("game not started")
	}
	if state.Game.Phase != domain.PhaseDiscarding {
		t.Fatalf("phase = %s, want discarding", state.Game.Phase)
	}
	if state.Game.Players[0].Name != "name-user-1" {
		t.Fatalf("player name = %q, want presence username", state.Game.Players[0].Name)
	}

	for _, m := range dispatcher.sent {
		if m.opCode == OpHandDealt && len(m.recipients) != 1 {
			t.Fatalf("hand dealt to %v, want a single recipient", m.recipients)
		}
	}
	if got := dispatcher.count(OpHandDealt); got != 2 {
		t.Fatalf("hand dealt messages = %d, want 2", got)
	}
	if got := dispatcher.count(OpSnapshot); got != 2 {
		t.Fatalf("snapshots = %d, want 2", got)
	}

	msg, _ := dispatcher.last(OpSnapshot)
	envelope := &structpb.Struct{}
	if err := proto.Unmarshal(msg.data, envelope); err != nil {
		t.Fatalf("snapshot payload: %v", err)
	}
	snap, err := snapshot.FromStruct(envelope.GetFields()["snapshot"].GetStructValue())
	if err != nil {
		t.Fatalf("FromStruct: %v", err)
	}
	view, err := snap.Decode()
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	viewer := msg.recipients[0]
	for _, p := range view.Players {
		if p.ID == viewer && len(p.Hand) != 6 {
			t.Fatalf("own hand = %d cards, want 6", len(p.Hand))
		}
		if p.ID != viewer && len(p.Hand) != 0 {
			t.Fatalf("opponent hand visible to %s", viewer)
		}
	}
	if len(view.Deck) != 0 {
		t.Fatal("deck visible in snapshot")
	}
}

func TestDiscardCommands(t *testing.T) {
	handler := &matchHandler{}
	dispatcher := &mockDispatcher{}
	ctx := context.Background()
	state := newTestState(2, "user-1", "user-2")
	handler.handleStartGame(ctx, state, dispatcher, noopLogger{}, message(t, "user-1", OpStartGame, nil))

	handler.handleDiscard(ctx, state, dispatcher, noopLogger{}, message(t, "user-1", OpDiscard, discardRequest{Cards: []string{"ZZ", "AH"}}))
	errMsg, ok := dispatcher.last(OpGameError)
	if !ok || errMsg.recipients[0] != "user-1" {
		t.Fatal("expected an error for user-1")
	}

	hand := state.Game.Player("user-1").Hand
	version := state.Game.Version
	codes := []string{hand[0].String(), hand[1].String()}
	handler.handleDiscard(ctx, state, dispatcher, noopLogger{}, message(t, "user-1", OpDiscard, discardRequest{Cards: codes}))
	if got := len(state.Game.Player("user-1").Hand); got != domain.KeepSize {
		t.Fatalf("hand after discard = %d, want %d", got, domain.KeepSize)
	}
	if state.Game.Version != version+1 {
		t.Fatalf("version = %d, want %d", state.Game.Version, version+1)
	}

	rejected := dispatcher.count(OpGameError)
	handler.handleDiscard(ctx, state, dispatcher, noopLogger{}, message(t, "user-1", OpDiscard, discardRequest{Cards: codes}))
	if dispatcher.count(OpGameError) != rejected+1 {
		t.Fatal("second discard was not rejected")
	}
	last, _ := dispatcher.last(OpGameError)
	var payload structpb.Struct
	if err := proto.Unmarshal(last.data, &payload); err != nil {
		t.Fatalf("error payload: %v", err)
	}
	if code := payload.GetFields()["code"].GetStringValue(); code != string(app.StatusIllegalMove) {
		t.Fatalf("error code = %q, want illegal_move", code)
	}
}

// humanMessage returns the move the test human owes, or nil.
func humanMessage(t *testing.T, g *domain.GameState, userID string) runtime.MatchData {
	p := g.Player(userID)
	switch g.Phase {
	case domain.PhaseDiscarding:
		if len(p.Hand) > domain.KeepSize {
			n := domain.DiscardCount(len(g.Players))
			return message(t, userID, OpDiscard, discardRequest{Cards: domain.CardCodes(p.Hand[:n])})
		}
	case domain.PhasePegging:
		if g.TurnPlayerID != userID {
			return nil
		}
		choice := bot.ChoosePeggingCard(p.Hand, domain.StackCards(g.PeggingStack), g.PeggingTotal)
		if choice.Card == nil {
			return message(t, userID, OpGo, nil)
		}
		return message(t, userID, OpPlayCard, playCardRequest{Card: choice.Card.String()})
	case domain.PhaseCounting:
		if !g.Ready[userID] {
			return message(t, userID, OpReady, nil)
		}
	}
	return nil
}

func TestMatchLoop_HumanAndBotFinishGame(t *testing.T) {
	handler := &matchHandler{}
	dispatcher := &mockDispatcher{}
	stats := &mockStats{}
	botID := bot.GetBotIdentity(1).UserID
	state := newTestState(3, "user-1", botID)
	state.Stats = stats
	ctx := context.Background()

	tick := int64(1)
	handler.MatchLoop(ctx, noopLogger{}, nil, nil, dispatcher, tick, state, []runtime.MatchData{message(t, "user-1", OpStartGame, nil)})
	if state.Game == nil {
		t.Fatal("game not started")
	}

	for i := 0; i < 20000 && !state.Game.IsOver(); i++ {
		tick++
		var msgs []runtime.MatchData
		if msg := humanMessage(t, state.Game, "user-1"); msg != nil {
			msgs = append(msgs, msg)
		}
		handler.MatchLoop(ctx, noopLogger{}, nil, nil, dispatcher, tick, state, msgs)
		if err := domain.CheckConservation(state.Game); err != nil {
			t.Fatalf("tick %d: %v", tick, err)
		}
	}

	if !state.Game.IsOver() {
		t.Fatalf("game not over, phase %s scores %d/%d", state.Game.Phase, state.Game.Players[0].Score, state.Game.Players[1].Score)
	}
	if stats.calls != 1 || len(stats.results) != 1 {
		t.Fatalf("results recorded %d times with %d entries, want 1 and 1 (bot skipped)", stats.calls, len(stats.results))
	}
	if res := stats.results[0]; res.UserID != "user-1" || res.Won != (state.Game.WinnerID == "user-1") {
		t.Fatalf("result = %+v, winner %s", res, state.Game.WinnerID)
	}
	if dispatcher.count(OpGameOver) != 1 {
		t.Fatalf("game over events = %d, want 1", dispatcher.count(OpGameOver))
	}

	// One more loop after the end must not record again.
	handler.MatchLoop(ctx, noopLogger{}, nil, nil, dispatcher, tick+1, state, nil)
	if stats.calls != 1 {
		t.Fatalf("results recorded %d times, want 1", stats.calls)
	}

	handler.MatchLoop(ctx, noopLogger{}, nil, nil, dispatcher, tick+2, state, []runtime.MatchData{message(t, "user-1", OpRestart, nil)})
	if state.Game.IsOver() || state.ResultsRecorded {
		t.Fatal("restart did not begin a new game")
	}
	for _, p := range state.Game.Players {
		if p.Score != 0 {
			t.Fatalf("score after restart = %d, want 0", p.Score)
		}
	}
}

func TestMatchLeave_BotTakesOverAndHumanReclaims(t *testing.T) {
	handler := &matchHandler{}
	dispatcher := &mockDispatcher{}
	ctx := context.Background()
	state := newTestState(4, "user-1", "user-2")
	handler.handleStartGame(ctx, state, dispatcher, noopLogger{}, message(t, "user-1", OpStartGame, nil))

	leaver := mockPresence{userID: "user-2"}
	got := handler.MatchLeave(ctx, noopLogger{}, nil, nil, dispatcher, 5, state, []runtime.Presence{leaver})
	if got == nil {
		t.Fatal("match terminated while a human remains")
	}
	if !state.Departed["user-2"] || state.Bots["user-2"] == nil {
		t.Fatal("no bot took the departed seat")
	}
	if state.Game.Player("user-2").IsHuman {
		t.Fatal("departed player still marked human")
	}
	if state.Seats[1] != "user-2" {
		t.Fatal("seat freed during a running game")
	}

	_, ok, reason := handler.MatchJoinAttempt(ctx, noopLogger{}, nil, nil, dispatcher, 6, state, mockPresence{userID: "user-9"}, nil)
	if ok {
		t.Fatal("stranger joined a running game")
	}
	if reason == "" {
		t.Fatal("rejection without reason")
	}
	if _, ok, _ := handler.MatchJoinAttempt(ctx, noopLogger{}, nil, nil, dispatcher, 6, state, leaver, nil); !ok {
		t.Fatal("seated player could not come back")
	}

	handler.MatchJoin(ctx, noopLogger{}, nil, nil, dispatcher, 7, state, []runtime.Presence{leaver})
	if state.Departed["user-2"] || state.Bots["user-2"] != nil || !state.Game.Player("user-2").IsHuman {
		t.Fatal("returning human did not reclaim the seat")
	}

	got = handler.MatchLeave(ctx, noopLogger{}, nil, nil, dispatcher, 8, state, []runtime.Presence{mockPresence{userID: "user-1"}, leaver})
	if got != nil {
		t.Fatal("match kept running without humans")
	}
}

func TestMatchSignal_ReturnsSignedView(t *testing.T) {
	handler := &matchHandler{}
	dispatcher := &mockDispatcher{}
	state := newTestState(5, "user-1", "user-2")
	state.Signer = snapshot.NewSigner("match-secret", "")
	handler.handleStartGame(context.Background(), state, dispatcher, noopLogger{}, message(t, "user-1", OpStartGame, nil))

	_, out := handler.MatchSignal(context.Background(), noopLogger{}, nil, nil, dispatcher, 9, state, snapshotSignal("user-2"))
	var env SnapshotEnvelope
	if err := json.Unmarshal([]byte(out), &env); err != nil {
		t.Fatalf("signal result %q: %v", out, err)
	}
	if err := state.Signer.Verify(env.Token, env.Snapshot); err != nil {
		t.Fatalf("Verify: %v", err)
	}
	view, err := env.Snapshot.Decode()
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(view.Player("user-2").Hand) != 6 || len(view.Player("user-1").Hand) != 0 {
		t.Fatal("signal view not redacted for user-2")
	}

	for _, data := range []string{"snapshot:user-9", "snapshot:", "other"} {
		if _, out := handler.MatchSignal(context.Background(), noopLogger{}, nil, nil, dispatcher, 9, state, data); out != "" {
			t.Fatalf("signal %q answered %q, want empty", data, out)
		}
	}
}
