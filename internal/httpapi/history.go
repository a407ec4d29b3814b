package httpapi

import (
	"errors"
	"fmt"
	"net/http"

	"cribbage/internal/analysis"
)

var errNoHistory = errors.New("history store not configured")

// HandleSaveHistory stores a posted hand record.
func (s *Server) HandleSaveHistory(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		writeError(w, http.StatusServiceUnavailable, errNoHistory)
		return
	}
	var rec analysis.HandRecord
	if err := decodeBody(r, &rec); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}
	if len(rec.OriginalHand) == 0 {
		writeError(w, http.StatusBadRequest, errors.New("originalHand is required"))
		return
	}

	saved, err := s.history.Save(r.Context(), rec)
	if err != nil {
		s.logger.Error("save history failed", "err", err)
		writeError(w, http.StatusInternalServerError, errors.New("failed to save record"))
		return
	}
	writeJSON(w, http.StatusCreated, saved)
}

// HandleListHistory returns the newest records first.
func (s *Server) HandleListHistory(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		writeError(w, http.StatusServiceUnavailable, errNoHistory)
		return
	}
	records, err := s.history.Recent(r.Context(), HistoryLimit)
	if err != nil {
		s.logger.Error("list history failed", "err", err)
		writeError(w, http.StatusInternalServerError, errors.New("failed to fetch records"))
		return
	}
	writeJSON(w, http.StatusOK, records)
}
