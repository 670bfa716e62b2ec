package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/bun"

	"github.com/terraconstructs/nutria/pkg/sdk"
)

// kvEntry is one row of the kv_entries table.
type kvEntry struct {
	bun.BaseModel `bun:"table:kv_entries,alias:kv"`

	Key       string    `bun:"entry_key,pk"`
	Value     []byte    `bun:"value,notnull"`
	UpdatedAt time.Time `bun:"updated_at,notnull"`
}

// SQLStore implements sdk.KeyValue on a kv_entries table (SQLite or PostgreSQL).
type SQLStore struct {
	db *bun.DB
}

var _ sdk.KeyValue = (*SQLStore)(nil)

// NewSQLStore creates the kv_entries table if it does not exist.
func NewSQLStore(ctx context.Context, db *bun.DB) (*SQLStore, error) {
	_, err := db.NewCreateTable().
		Model((*kvEntry)(nil)).
		IfNotExists().
		Exec(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create kv_entries table: %w", err)
	}
	return &SQLStore{db: db}, nil
}

// Get reads the value stored under key.
func (s *SQLStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var entry kvEntry
	err := s.db.NewSelect().
		Model(&entry).
		Where("entry_key = ?", key).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("query kv entry %s: %w", key, err)
	}
	return entry.Value, true, nil
}

// Set upserts the value stored under key in a single statement.
func (s *SQLStore) Set(ctx context.Context, key string, value []byte) error {
	entry := &kvEntry{
		Key:       key,
		Value:     value,
		UpdatedAt: time.Now().UTC(),
	}
	_, err := s.db.NewInsert().
		Model(entry).
		On("CONFLICT (entry_key) DO UPDATE").
		Set("value = EXCLUDED.value").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("upsert kv entry %s: %w", key, err)
	}
	return nil
}

// Delete removes the value stored under key. A missing key is not an error.
func (s *SQLStore) Delete(ctx context.Context, key string) error {
	_, err := s.db.NewDelete().
		Model((*kvEntry)(nil)).
		Where("entry_key = ?", key).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("delete kv entry %s: %w", key, err)
	}
	return nil
}
