package httpapi

import (
	"errors"
	"log/slog"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
)

// PeersPerGame is the number of connections a relay room accepts.
const PeersPerGame = 2

const peerSendBuffer = 64

var ErrRoomFull = errors.New("game already has two peers")

// Relay pairs two websocket connections per game id and forwards every text
// frame from one to the other. It never inspects the frames.
type Relay struct {
	mu       sync.Mutex
	rooms    map[string][]*peer
	upgrader websocket.Upgrader
	logger   *slog.Logger
}

type peer struct {
	relay  *Relay
	gameID string
	conn   *websocket.Conn
	send   chan []byte
}

func NewRelay(logger *slog.Logger) *Relay {
	if logger == nil {
		logger = slog.Default()
	}
	return &Relay{
		rooms: make(map[string][]*peer),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		logger: logger,
	}
}

// Peers returns how many connections are joined to gameID.
func (rl *Relay) Peers(gameID string) int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.rooms[gameID])
}

func (rl *Relay) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	gameID := r.PathValue("gameID")
	if gameID == "" {
		writeError(w, http.StatusBadRequest, errors.New("missing game id"))
		return
	}
	if rl.Peers(gameID) >= PeersPerGame {
		writeError(w, http.StatusConflict, ErrRoomFull)
		return
	}

	conn, err := rl.upgrader.Upgrade(w, r, nil)
	if err != nil {
		rl.logger.Warn("websocket upgrade failed", "game", gameID, "err", err)
		return
	}
	p := &peer{relay: rl, gameID: gameID, conn: conn, send: make(chan []byte, peerSendBuffer)}
	if !rl.join(p) {
		conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.ClosePolicyViolation, ErrRoomFull.Error()))
		conn.Close()
		return
	}
	rl.logger.Info("peer joined", "game", gameID, "remote", conn.RemoteAddr().String())

	go p.writePump()
	p.readPump()
}

func (rl *Relay) join(p *peer) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	if len(rl.rooms[p.gameID]) >= PeersPerGame {
		return false
	}
	rl.rooms[p.gameID] = append(rl.rooms[p.gameID], p)
	return true
}

func (rl *Relay) leave(p *peer) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	room := rl.rooms[p.gameID]
	for i, other := range room {
		if other == p {
			room = append(room[:i], room[i+1:]...)
			close(p.send)
			break
		}
	}
	if len(room) == 0 {
		delete(rl.rooms, p.gameID)
	} else {
		rl.rooms[p.gameID] = room
	}
}

// forward queues msg for every other peer of the room. Slow peers drop frames;
// the replica layer resyncs from the next snapshot.
func (rl *Relay) forward(from *peer, msg []byte) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	for _, other := range rl.rooms[from.gameID] {
		if other == from {
			continue
		}
		select {
		case other.send <- msg:
		default:
			rl.logger.Warn("peer send buffer full, dropping frame", "game", from.gameID)
		}
	}
}

func (p *peer) readPump() {
	defer func() {
		p.relay.leave(p)
		p.conn.Close()
		p.relay.logger.Info("peer left", "game", p.gameID)
	}()

	for {
		kind, msg, err := p.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				p.relay.logger.Warn("peer read failed", "game", p.gameID, "err", err)
			}
			return
		}
		if kind != websocket.TextMessage {
			continue
		}
		p.relay.forward(p, msg)
	}
}

func (p *peer) writePump() {
	defer p.conn.Close()

	for msg := range p.send {
		if err := p.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			p.relay.logger.Warn("peer write failed", "game", p.gameID, "err", err)
			return
		}
	}
}
