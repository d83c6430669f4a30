package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/SigNoz/storefront-client/internal/db"
)

const slotSchema = `
-- one row per persisted slot
CREATE TABLE IF NOT EXISTS client_slots (
	slot VARCHAR(64) NOT NULL PRIMARY KEY,
	value TEXT NOT NULL
);
`

// SQL keeps slots in the client_slots table of a mysql or sqlite database.
type SQL struct {
	db *db.DB
}

// NewSQL creates the slot table when missing.
func NewSQL(ctx context.Context, database *db.DB) (*SQL, error) {
	if err := database.InitSchema(ctx, slotSchema); err != nil {
		return nil, fmt.Errorf("init slot schema: %w", err)
	}
	return &SQL{db: database}, nil
}

func (s *SQL) Get(ctx context.Context, key string) (string, error) {
	var v string
	err := s.db.QueryRowContext(ctx, "SELECT value FROM client_slots WHERE slot = ?", key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("get slot %s: %w", key, err)
	}
	return v, nil
}

// Set replaces the slot inside one transaction; the delete+insert pair is
// portable across mysql and sqlite upsert dialects.
func (s *SQL) Set(ctx context.Context, key, value string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM client_slots WHERE slot = ?", key); err != nil {
		return fmt.Errorf("set slot %s: %w", key, err)
	}
	if _, err := tx.ExecContext(ctx, "INSERT INTO client_slots (slot, value) VALUES (?, ?)", key, value); err != nil {
		return fmt.Errorf("set slot %s: %w", key, err)
	}
	return tx.Commit()
}

func (s *SQL) Delete(ctx context.Context, keys ...string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	for _, k := range keys {
		if _, err := tx.ExecContext(ctx, "DELETE FROM client_slots WHERE slot = ?", k); err != nil {
			return fmt.Errorf("delete slot %s: %w", k, err)
		}
	}
	return tx.Commit()
}

func (s *SQL) Close() error { return s.db.Close() }
