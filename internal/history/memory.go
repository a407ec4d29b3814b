package history

import (
	"context"
	"sort"
	"sync"

	"cribbage/internal/analysis"
)

// MemoryStore keeps records in process; used when no database is configured.
type MemoryStore struct {
	mu      sync.Mutex
	records []analysis.HandRecord
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Save(_ context.Context, rec analysis.HandRecord) (analysis.HandRecord, error) {
	rec = stamp(rec)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, rec)
	return rec, nil
}

func (s *MemoryStore) Recent(_ context.Context, limit int) ([]analysis.HandRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := append([]analysis.HandRecord{}, s.records...)
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Timestamp.Equal(out[j].Timestamp) {
			return out[i].Timestamp.After(out[j].Timestamp)
		}
		return out[i].ID > out[j].ID
	})
	if limit >= 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *MemoryStore) Close() error { return nil }
