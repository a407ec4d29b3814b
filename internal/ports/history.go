package ports

import (
	"context"

	"cribbage/internal/analysis"
)

// HistoryStore persists discard decisions for later review.
type HistoryStore interface {
	// Save stores rec, assigning an ID and timestamp when missing, and returns
	// the stored record.
	Save(ctx context.Context, rec analysis.HandRecord) (analysis.HandRecord, error)

	// Recent returns up to limit records, newest first.
	Recent(ctx context.Context, limit int) ([]analysis.HandRecord, error)

	Close() error
}
