package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"cribbage/internal/analysis"
	"cribbage/internal/bot"
	"cribbage/internal/domain"
)

type AnalyzeReq struct {
	Cards      []string `json:"cards"`
	IsDealer   bool     `json:"isDealer"`
	NumPlayers int      `json:"numPlayers"`
}

type PeggingReq struct {
	Hand  []string `json:"hand"`
	Stack []string `json:"stack"`
	Total int      `json:"total"`
}

type PeggingRes struct {
	Card  *domain.Card `json:"card"`
	Score int          `json:"score"`
	Debug string       `json:"debug"`
}

// HandleAnalyze ranks every discard of the posted hand and records the best
// one in the history store.
func (s *Server) HandleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req AnalyzeReq
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}
	hand, err := domain.ParseCards(req.Cards)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if req.NumPlayers == 0 {
		req.NumPlayers = 2
	}

	options, err := s.analyzer.Analyze(hand, req.IsDealer, req.NumPlayers)
	switch {
	case errors.Is(err, analysis.ErrInvalidHandSize),
		errors.Is(err, analysis.ErrInvalidPlayerCount),
		errors.Is(err, analysis.ErrDuplicateCards):
		writeError(w, http.StatusBadRequest, err)
		return
	case err != nil:
		s.logger.Error("analyze failed", "err", err)
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	s.recordAnalysis(r.Context(), analysis.NewHandRecord(hand, options[0], req.IsDealer, req.NumPlayers, time.Now()))
	writeJSON(w, http.StatusOK, options)
}

// recordAnalysis keeps the top-ranked discard in the history store. A failed
// save does not fail the analysis.
func (s *Server) recordAnalysis(ctx context.Context, rec analysis.HandRecord) {
	if s.history == nil {
		return
	}
	if _, err := s.history.Save(ctx, rec); err != nil {
		s.logger.Warn("record analysis failed", "err", err)
	}
}

// HandlePegging suggests the next pegging card. A null card means Go.
func (s *Server) HandlePegging(w http.ResponseWriter, r *http.Request) {
	var req PeggingReq
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}
	hand, err := domain.ParseCards(req.Hand)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	stack, err := domain.ParseCards(req.Stack)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if req.Total < 0 || req.Total > domain.MaxPeggingTotal {
		writeError(w, http.StatusBadRequest, fmt.Errorf("total %d out of range", req.Total))
		return
	}

	choice := bot.ChoosePeggingCard(hand, stack, req.Total)
	writeJSON(w, http.StatusOK, PeggingRes{Card: choice.Card, Score: choice.Score, Debug: choice.Debug})
}
