// Package ws carries replica messages between two peers over a websocket,
// usually through the server's relay at /ws/peers/{gameID}.
package ws

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"cribbage/internal/ports"
	"cribbage/internal/replica"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	maxMessageSize = 1 << 20
)

var ErrClosed = errors.New("peer link closed")

// Link is one end of a peer connection. Messages travel as JSON text frames.
type Link struct {
	conn   *websocket.Conn
	logger *slog.Logger

	writeMu sync.Mutex
	closeMu sync.Mutex
	closed  bool
}

// Dial connects to a relay or peer url such as ws://host/ws/peers/<game>.
func Dial(ctx context.Context, url string, logger *slog.Logger) (*Link, error) {
	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusConflict {
			return nil, fmt.Errorf("dial %s: game already has two peers: %w", url, err)
		}
		return nil, fmt.Errorf("dial %s: %w", url, err)
	}
	return NewLink(conn, logger), nil
}

// NewLink wraps an established connection.
func NewLink(conn *websocket.Conn, logger *slog.Logger) *Link {
	if logger == nil {
		logger = slog.Default()
	}
	conn.SetReadLimit(maxMessageSize)
	return &Link{conn: conn, logger: logger}
}

// Send writes msg as one frame. The write deadline follows ctx when it has one.
func (l *Link) Send(ctx context.Context, msg replica.Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(writeWait)
	}

	l.writeMu.Lock()
	defer l.writeMu.Unlock()
	if l.isClosed() {
		return ErrClosed
	}
	l.conn.SetWriteDeadline(deadline)
	if err := l.conn.WriteJSON(msg); err != nil {
		return fmt.Errorf("send %s: %w", msg.Type, err)
	}
	return nil
}

// Serve reads frames until the connection closes or ctx ends. Frames that do
// not decode and handler errors are logged and skipped.
func (l *Link) Serve(ctx context.Context, handle func(context.Context, replica.Message) error) error {
	stop := context.AfterFunc(ctx, func() { l.Close() })
	defer stop()

	for {
		var msg replica.Message
		if err := l.conn.ReadJSON(&msg); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if l.isClosed() || websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			if isDecodeError(err) {
				l.logger.Warn("dropping undecodable peer frame", "err", err)
				continue
			}
			return fmt.Errorf("receive: %w", err)
		}
		if err := handle(ctx, msg); err != nil {
			l.logger.Warn("peer message rejected", "type", msg.Type, "err", err)
		}
	}
}

// Close sends a close frame and releases the connection. It is safe to call twice.
func (l *Link) Close() error {
	l.closeMu.Lock()
	if l.closed {
		l.closeMu.Unlock()
		return nil
	}
	l.closed = true
	l.closeMu.Unlock()

	l.writeMu.Lock()
	l.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
	l.writeMu.Unlock()
	return l.conn.Close()
}

func (l *Link) isClosed() bool {
	l.closeMu.Lock()
	defer l.closeMu.Unlock()
	return l.closed
}

func isDecodeError(err error) bool {
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	return errors.As(err, &syntaxErr) || errors.As(err, &typeErr)
}

var _ ports.PeerChannel = (*Link)(nil)
