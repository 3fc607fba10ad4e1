package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// ErrNotFound is returned by Get for a missing key
var ErrNotFound = errors.New("storage: key not found")

// Entry is one stored key
type Entry struct {
	Key       string
	Value     string
	UpdatedAt time.Time
}

// KV is durable key-value storage on top of the kv table
type KV struct {
	db  *sql.DB
	now func() time.Time
}

// NewKV wraps an initialized database
func NewKV(db *sql.DB) *KV {
	return &KV{db: db, now: time.Now}
}

// Set inserts or replaces value under key
func (s *KV) Set(ctx context.Context, key, value string) error {
	if key == "" {
		return fmt.Errorf("key is required")
	}

	query := `
		INSERT INTO kv (key, value, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			updated_at = excluded.updated_at
	`
	if _, err := s.db.ExecContext(ctx, query, key, value, s.now().UTC()); err != nil {
		return fmt.Errorf("failed to set %q: %w", key, err)
	}
	return nil
}

// Get returns the entry stored under key
func (s *KV) Get(ctx context.Context, key string) (*Entry, error) {
	var e Entry
	err := s.db.QueryRowContext(ctx,
		`SELECT key, value, updated_at FROM kv WHERE key = ?`, key,
	).Scan(&e.Key, &e.Value, &e.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get %q: %w", key, err)
	}
	return &e, nil
}

// Delete removes keys. Missing keys are not an error.
func (s *KV) Delete(ctx context.Context, keys ...string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, key := range keys {
		if _, err := tx.ExecContext(ctx, `DELETE FROM kv WHERE key = ?`, key); err != nil {
			return fmt.Errorf("failed to delete %q: %w", key, err)
		}
	}
	return tx.Commit()
}
