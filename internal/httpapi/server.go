// Package httpapi exposes analysis, history, local games and the peer relay over HTTP.
package httpapi

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/handlers"

	"cribbage/internal/analysis"
	"cribbage/internal/ports"
)

// HistoryLimit caps GET /api/history.
const HistoryLimit = 50

// Options wires the server's collaborators.
type Options struct {
	Analyzer *analysis.Analyzer
	History  ports.HistoryStore
	Games    *Games
	Relay    *Relay
	Logger   *slog.Logger
}

// Server routes the cribbage HTTP API.
type Server struct {
	analyzer *analysis.Analyzer
	history  ports.HistoryStore
	games    *Games
	relay    *Relay
	logger   *slog.Logger
	handler  http.Handler
}

func NewServer(opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Analyzer == nil {
		opts.Analyzer = analysis.NewConfiguredAnalyzer(nil)
	}
	if opts.Relay == nil {
		opts.Relay = NewRelay(opts.Logger)
	}
	s := &Server{
		analyzer: opts.Analyzer,
		history:  opts.History,
		games:    opts.Games,
		relay:    opts.Relay,
		logger:   opts.Logger,
	}

	router := http.NewServeMux()
	router.HandleFunc("POST /api/analyze", s.HandleAnalyze)
	router.HandleFunc("POST /api/pegging", s.HandlePegging)
	router.HandleFunc("POST /api/history", s.HandleSaveHistory)
	router.HandleFunc("GET /api/history", s.HandleListHistory)
	router.HandleFunc("POST /api/games", s.HandleNewGame)
	router.HandleFunc("GET /api/games/{id}", s.HandleGetGame)
	router.HandleFunc("POST /api/games/{id}/{command}", s.HandleGameCommand)
	router.Handle("GET /ws/peers/{gameID}", s.relay)

	cors := handlers.CORS(
		handlers.AllowedOrigins([]string{"*"}),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Content-Type"}),
	)
	recovery := handlers.RecoveryHandler(handlers.RecoveryLogger(printLogger{s.logger}))
	s.handler = recovery(handlers.CustomLoggingHandler(io.Discard, cors(router), s.logRequest))
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

func (s *Server) logRequest(_ io.Writer, p handlers.LogFormatterParams) {
	s.logger.Debug("http request",
		"method", p.Request.Method,
		"path", p.URL.Path,
		"status", p.StatusCode,
		"size", p.Size,
		"took", time.Since(p.TimeStamp))
}

// printLogger lets the recovery handler report panics through slog.
type printLogger struct {
	logger *slog.Logger
}

func (p printLogger) Println(args ...interface{}) {
	p.logger.Error("http handler panic", "panic", args)
}

type errorRes struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, errorRes{Error: err.Error()})
}

func decodeBody(r *http.Request, v any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}
