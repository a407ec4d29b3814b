// Package history stores analyzed hands in SQLite, Postgres or memory.
package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"

	"cribbage/internal/analysis"
	"cribbage/internal/domain"
)

const (
	tableName = "hand_history"
	// timeLayout is fixed width so stored timestamps sort as text.
	timeLayout = "2006-01-02T15:04:05.000000000Z"
)

var ErrUnsupportedDriver = errors.New("unsupported history driver")

// SQLStore keeps hand records in a SQL database. Queries use $n parameters,
// which Postgres requires and SQLite binds in order of appearance.
type SQLStore struct {
	db *sql.DB
	m  *sync.Mutex
}

// Open connects to the database and creates the table if needed. driver is
// "sqlite3", or "pgx"/"postgres" for Postgres.
func Open(driver, dsn string) (*SQLStore, error) {
	switch driver {
	case "sqlite3", "pgx":
	case "postgres":
		driver = "pgx"
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedDriver, driver)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open history db: %w", err)
	}
	s := &SQLStore{db: db, m: &sync.Mutex{}}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLStore) migrate() error {
	sqlStmt := `
	create table if not exists ` + tableName + ` (
		id text not null primary key,
		original_hand text not null,
		discarded text not null,
		expected_value double precision not null,
		is_dealer boolean not null,
		num_players integer not null,
		created_at text not null
	);
	`
	if _, err := s.db.Exec(sqlStmt); err != nil {
		return fmt.Errorf("create history table: %w", err)
	}
	return nil
}

func (s *SQLStore) Close() error {
	return s.db.Close()
}

func (s *SQLStore) Save(ctx context.Context, rec analysis.HandRecord) (analysis.HandRecord, error) {
	rec = stamp(rec)
	s.m.Lock()
	defer s.m.Unlock()
	_, err := s.db.ExecContext(ctx, "INSERT INTO "+tableName+
		" (id, original_hand, discarded, expected_value, is_dealer, num_players, created_at) VALUES ($1, $2, $3, $4, $5, $6, $7)",
		rec.ID,
		joinCards(rec.OriginalHand),
		joinCards(rec.Discarded),
		rec.ExpectedValue,
		rec.IsDealer,
		rec.NumPlayers,
		rec.Timestamp.Format(timeLayout))
	if err != nil {
		return analysis.HandRecord{}, fmt.Errorf("insert hand record: %w", err)
	}
	return rec, nil
}

func (s *SQLStore) Recent(ctx context.Context, limit int) ([]analysis.HandRecord, error) {
	s.m.Lock()
	defer s.m.Unlock()
	rows, err := s.db.QueryContext(ctx, "SELECT id, original_hand, discarded, expected_value, is_dealer, num_players, created_at FROM "+
		tableName+" ORDER BY created_at DESC, id DESC LIMIT $1", limit)
	if err != nil {
		return nil, fmt.Errorf("query hand records: %w", err)
	}
	defer rows.Close()

	records := []analysis.HandRecord{}
	for rows.Next() {
		var (
			rec                 analysis.HandRecord
			hand, discarded, ts string
		)
		if err := rows.Scan(
			&rec.ID,
			&hand,
			&discarded,
			&rec.ExpectedValue,
			&rec.IsDealer,
			&rec.NumPlayers,
			&ts); err != nil {
			return nil, err
		}
		if rec.OriginalHand, err = splitCards(hand); err != nil {
			return nil, err
		}
		if rec.Discarded, err = splitCards(discarded); err != nil {
			return nil, err
		}
		if rec.Timestamp, err = time.Parse(timeLayout, ts); err != nil {
			return nil, fmt.Errorf("parse record time: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func stamp(rec analysis.HandRecord) analysis.HandRecord {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now()
	}
	rec.Timestamp = rec.Timestamp.UTC()
	return rec
}

func joinCards(cards []domain.Card) string {
	return strings.Join(domain.CardCodes(cards), ",")
}

func splitCards(s string) ([]domain.Card, error) {
	if s == "" {
		return []domain.Card{}, nil
	}
	return domain.ParseCards(strings.Split(s, ","))
}
