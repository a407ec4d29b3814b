package ws

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"cribbage/internal/httpapi"
	"cribbage/internal/logging"
	"cribbage/internal/replica"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRelayServer(t *testing.T) (*httptest.Server, *httpapi.Relay) {
	t.Helper()
	relay := httpapi.NewRelay(logging.Discard())
	mux := http.NewServeMux()
	mux.Handle("GET /ws/peers/{gameID}", relay)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, relay
}

func wsURL(srv *httptest.Server, gameID string) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/peers/" + gameID
}

func dialPair(t *testing.T, srv *httptest.Server, relay *httpapi.Relay, gameID string) (*Link, *Link) {
	t.Helper()
	ctx := context.Background()
	a, err := Dial(ctx, wsURL(srv, gameID), logging.Discard())
	require.NoError(t, err)
	b, err := Dial(ctx, wsURL(srv, gameID), logging.Discard())
	require.NoError(t, err)
	require.Eventually(t, func() bool { return relay.Peers(gameID) == 2 }, time.Second, 10*time.Millisecond)
	return a, b
}

func serveInto(ctx context.Context, l *Link) (<-chan replica.Message, <-chan error) {
	msgs := make(chan replica.Message, 8)
	done := make(chan error, 1)
	go func() {
		done <- l.Serve(ctx, func(_ context.Context, msg replica.Message) error {
			msgs <- msg
			return nil
		})
	}()
	return msgs, done
}

func TestLinkDeliversMessagesThroughRelay(t *testing.T) {
	srv, relay := newRelayServer(t)
	a, b := dialPair(t, srv, relay, "g1")
	defer a.Close()

	msgs, done := serveInto(context.Background(), b)

	intent := &replica.Intent{ID: "i1", Kind: replica.IntentPlay, PlayerID: "p2", Cards: []string{"5H"}, Round: 1}
	require.NoError(t, a.Send(context.Background(), replica.Message{Type: replica.MessageIntent, Intent: intent}))

	select {
	case got := <-msgs:
		assert.Equal(t, replica.MessageIntent, got.Type)
		require.NotNil(t, got.Intent)
		assert.Equal(t, *intent, *got.Intent)
	case <-time.After(2 * time.Second):
		t.Fatal("message not delivered")
	}

	require.NoError(t, b.Close())
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Serve did not return after Close")
	}
	assert.ErrorIs(t, b.Send(context.Background(), replica.Message{Type: replica.MessageIntent}), ErrClosed)
}

func TestLinkSkipsUndecodableFrames(t *testing.T) {
	srv, relay := newRelayServer(t)
	raw, _, err := websocket.DefaultDialer.Dial(wsURL(srv, "g2"), nil)
	require.NoError(t, err)
	defer raw.Close()
	link, err := Dial(context.Background(), wsURL(srv, "g2"), logging.Discard())
	require.NoError(t, err)
	require.Eventually(t, func() bool { return relay.Peers("g2") == 2 }, time.Second, 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	msgs, done := serveInto(ctx, link)

	require.NoError(t, raw.WriteMessage(websocket.TextMessage, []byte("not json")))
	require.NoError(t, raw.WriteMessage(websocket.TextMessage, []byte(`{"type":"snapshot","token":"t"}`)))

	select {
	case got := <-msgs:
		assert.Equal(t, replica.MessageSnapshot, got.Type)
		assert.Equal(t, "t", got.Token)
	case <-time.After(2 * time.Second):
		t.Fatal("valid frame after a bad one was not delivered")
	}

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("Serve did not stop on cancel")
	}
}

func TestDialFullRoom(t *testing.T) {
	srv, relay := newRelayServer(t)
	a, b := dialPair(t, srv, relay, "g3")
	defer a.Close()
	defer b.Close()

	_, err := Dial(context.Background(), wsURL(srv, "g3"), logging.Discard())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "two peers")
}
