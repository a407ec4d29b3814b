package httpapi

import (
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"cribbage/internal/app"
	"cribbage/internal/bot"
	"cribbage/internal/config"
	"cribbage/internal/snapshot"
	"cribbage/internal/table"
)

// LocalPlayerID is the seat of the human in games created over HTTP.
const LocalPlayerID = "p1"

var (
	ErrGameNotFound   = errors.New("game not found")
	ErrBadOpponents   = errors.New("opponents must be between 1 and 3")
	ErrUnknownCommand = errors.New("unknown game command")
)

// Games keeps the tables of locally hosted games against CPU players.
type Games struct {
	mu     sync.Mutex
	tables map[string]*table.Table

	cfg    *config.GameConfig
	sched  table.Scheduler
	signer *snapshot.Signer
	logger *slog.Logger
}

// NewGames builds a registry. sched and signer may be nil.
func NewGames(cfg *config.GameConfig, sched table.Scheduler, signer *snapshot.Signer, logger *slog.Logger) *Games {
	if cfg == nil {
		cfg = config.GetGameConfig()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Games{
		tables: make(map[string]*table.Table),
		cfg:    cfg,
		sched:  sched,
		signer: signer,
		logger: logger,
	}
}

// Create seats a human against opponents CPU players and deals.
func (g *Games) Create(playerName string, opponents int, level string) (*table.Table, error) {
	if opponents == 0 {
		opponents = 1
	}
	if opponents < 1 || opponents > app.MaxPlayersPerGame-1 {
		return nil, ErrBadOpponents
	}
	if playerName == "" {
		playerName = "Player 1"
	}
	if level == "" {
		level = g.cfg.BotLevel
	}

	seats := []app.PlayerSeat{{ID: LocalPlayerID, Name: playerName, IsHuman: true}}
	for i := 0; i < opponents; i++ {
		identity := bot.GetBotIdentity(i)
		seats = append(seats, app.PlayerSeat{ID: identity.UserID, Name: identity.DisplayName})
	}

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	svc := app.NewService(rng)
	svc.CutForDeal = g.cfg.CutForDeal
	game, _, err := svc.NewGame(uuid.NewString(), seats)
	if err != nil {
		return nil, err
	}
	game.AuthorityID = LocalPlayerID

	tbl, err := table.New(svc, game, table.Options{
		Pacing:    g.cfg.Pacing(),
		BotLevel:  bot.ParseBotLevel(level),
		Scheduler: g.sched,
		Logger:    g.logger,
		Rand:      rng,
	})
	if err != nil {
		return nil, err
	}

	g.mu.Lock()
	g.tables[game.ID] = tbl
	g.mu.Unlock()
	tbl.Start()
	g.logger.Info("game created", "game", game.ID, "opponents", opponents, "level", level)
	return tbl, nil
}

// Get returns the table for id.
func (g *Games) Get(id string) (*table.Table, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	tbl, ok := g.tables[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrGameNotFound, id)
	}
	return tbl, nil
}

type NewGameReq struct {
	PlayerName string `json:"playerName"`
	Opponents  int    `json:"opponents"`
	BotLevel   string `json:"botLevel"`
}

type CommandReq struct {
	PlayerID string   `json:"playerId"`
	Cards    []string `json:"cards"`
	Card     string   `json:"card"`
}

type GameRes struct {
	Snapshot snapshot.Snapshot `json:"snapshot"`
	Token    string            `json:"token,omitempty"`
}

// HandleNewGame creates a game against CPU players.
func (s *Server) HandleNewGame(w http.ResponseWriter, r *http.Request) {
	if s.games == nil {
		writeError(w, http.StatusServiceUnavailable, errors.New("games are not enabled"))
		return
	}
	var req NewGameReq
	if r.ContentLength != 0 {
		if err := decodeBody(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
			return
		}
	}
	tbl, err := s.games.Create(req.PlayerName, req.Opponents, req.BotLevel)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	s.writeGame(w, http.StatusCreated, tbl)
}

// HandleGetGame returns the current snapshot of a game.
func (s *Server) HandleGetGame(w http.ResponseWriter, r *http.Request) {
	tbl, ok := s.lookup(w, r)
	if !ok {
		return
	}
	s.writeGame(w, http.StatusOK, tbl)
}

// HandleGameCommand applies discard, play, go, ready or restart.
func (s *Server) HandleGameCommand(w http.ResponseWriter, r *http.Request) {
	tbl, ok := s.lookup(w, r)
	if !ok {
		return
	}
	var req CommandReq
	if r.ContentLength != 0 {
		if err := decodeBody(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
			return
		}
	}
	if req.PlayerID == "" {
		req.PlayerID = LocalPlayerID
	}

	var err error
	switch r.PathValue("command") {
	case "discard":
		err = tbl.Discard(req.PlayerID, req.Cards)
	case "play":
		err = tbl.Play(req.PlayerID, req.Card)
	case "go":
		err = tbl.Go(req.PlayerID)
	case "ready":
		err = tbl.Acknowledge(req.PlayerID)
	case "restart":
		err = tbl.Restart()
	default:
		writeError(w, http.StatusNotFound, fmt.Errorf("%w: %s", ErrUnknownCommand, r.PathValue("command")))
		return
	}
	if err != nil {
		writeError(w, commandStatus(err), err)
		return
	}
	s.writeGame(w, http.StatusOK, tbl)
}

func commandStatus(err error) int {
	switch app.StatusOf(err) {
	case app.StatusIllegalMove:
		return http.StatusConflict
	case app.StatusGameOver:
		return http.StatusGone
	default:
		return http.StatusBadRequest
	}
}

func (s *Server) lookup(w http.ResponseWriter, r *http.Request) (*table.Table, bool) {
	if s.games == nil {
		writeError(w, http.StatusServiceUnavailable, errors.New("games are not enabled"))
		return nil, false
	}
	tbl, err := s.games.Get(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return nil, false
	}
	return tbl, true
}

// writeGame answers with the game as the local player sees it.
func (s *Server) writeGame(w http.ResponseWriter, status int, tbl *table.Table) {
	snap, err := snapshot.New(tbl.State().ViewFor(LocalPlayerID))
	if err != nil {
		s.logger.Error("snapshot failed", "err", err)
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	res := GameRes{Snapshot: snap}
	if s.games.signer != nil {
		if res.Token, err = s.games.signer.Sign(snap); err != nil {
			s.logger.Error("sign snapshot failed", "err", err)
		}
	}
	writeJSON(w, status, res)
}
