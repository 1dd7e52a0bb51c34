package server

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"babymonitor/internal/shared"
)

// SQLiteStore keeps the reading in a one-row table. The row is reseeded
// on open, so nothing carries over from a previous run.
type SQLiteStore struct {
	DB *sql.DB
}

func NewSQLiteStore(ctx context.Context, db *sql.DB, now time.Time) (*SQLiteStore, error) {
	s := &SQLiteStore{DB: db}
	if err := s.Set(ctx, shared.DefaultReading(now)); err != nil {
		return nil, fmt.Errorf("seed reading: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) Get(ctx context.Context) (shared.Reading, error) {
	row := s.DB.QueryRowContext(ctx,
		`SELECT temperature, humidity, sound, last_sync, connection_status
		 FROM reading WHERE id = 1`,
	)

	var r shared.Reading
	if err := row.Scan(&r.Temperature, &r.Humidity, &r.Sound, &r.LastSync, &r.ConnectionStatus); err != nil {
		return shared.Reading{}, err
	}
	return r, nil
}

func (s *SQLiteStore) Set(ctx context.Context, r shared.Reading) error {
	_, err := s.DB.ExecContext(ctx,
		`INSERT INTO reading (id, temperature, humidity, sound, last_sync, connection_status)
		 VALUES (1, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   temperature=excluded.temperature,
		   humidity=excluded.humidity,
		   sound=excluded.sound,
		   last_sync=excluded.last_sync,
		   connection_status=excluded.connection_status`,
		r.Temperature, r.Humidity, r.Sound, r.LastSync, r.ConnectionStatus,
	)
	return err
}
