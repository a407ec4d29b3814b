package history

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cribbage/internal/analysis"
	"cribbage/internal/domain"
	"cribbage/internal/ports"
)

func record(t *testing.T, at time.Time, hand ...string) analysis.HandRecord {
	t.Helper()
	cards, err := domain.ParseCards(hand)
	require.NoError(t, err)
	return analysis.HandRecord{
		OriginalHand:  cards,
		Discarded:     cards[:2],
		ExpectedValue: 7.25,
		IsDealer:      true,
		NumPlayers:    2,
		Timestamp:     at,
	}
}

func exerciseStore(t *testing.T, store ports.HistoryStore) {
	ctx := context.Background()
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	var saved []analysis.HandRecord
	for i := 0; i < 3; i++ {
		rec, err := store.Save(ctx, record(t, base.Add(time.Duration(i)*time.Second), "5H", "5C", "JD", "QS", "2C", "9H"))
		require.NoError(t, err)
		assert.NotEmpty(t, rec.ID)
		saved = append(saved, rec)
	}

	recent, err := store.Recent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, saved[2].ID, recent[0].ID)
	assert.Equal(t, saved[1].ID, recent[1].ID)

	got := recent[0]
	assert.Equal(t, saved[2].OriginalHand, got.OriginalHand)
	assert.Equal(t, saved[2].Discarded, got.Discarded)
	assert.InDelta(t, 7.25, got.ExpectedValue, 1e-9)
	assert.True(t, got.IsDealer)
	assert.Equal(t, 2, got.NumPlayers)
	assert.True(t, saved[2].Timestamp.Equal(got.Timestamp), "timestamp %v != %v", got.Timestamp, saved[2].Timestamp)

	all, err := store.Recent(ctx, 50)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestSQLiteStore(t *testing.T) {
	store, err := Open("sqlite3", filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	defer store.Close()
	exerciseStore(t, store)
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemoryStore())
}

func TestSaveStampsMissingTime(t *testing.T) {
	store := NewMemoryStore()
	before := time.Now().Add(-time.Second)
	rec, err := store.Save(context.Background(), analysis.HandRecord{NumPlayers: 2})
	require.NoError(t, err)
	assert.True(t, rec.Timestamp.After(before))
	assert.Equal(t, time.UTC, rec.Timestamp.Location())
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	_, err := Open("mysql", "dsn")
	assert.ErrorIs(t, err, ErrUnsupportedDriver)
}

// TestPostgresStore runs against a live server when one is configured.
func TestPostgresStore(t *testing.T) {
	dsn := os.Getenv("CRIBBAGE_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("CRIBBAGE_TEST_POSTGRES_DSN not set")
	}
	store, err := Open("postgres", dsn)
	require.NoError(t, err)
	defer store.Close()
	_, err = store.db.Exec("DELETE FROM " + tableName)
	require.NoError(t, err)
	exerciseStore(t, store)
}
