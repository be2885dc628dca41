package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/taskmaster/planner/internal/infrastructure/database"
	"github.com/taskmaster/planner/internal/ports"
)

// PostgresStore keeps blobs in the kv_store table created by the migrations
type PostgresStore struct {
	db     *database.DB
	prefix string
}

var _ ports.KeyValueStore = (*PostgresStore)(nil)

// NewPostgresStore creates a store over an open connection pool
func NewPostgresStore(db *database.DB, prefix string) *PostgresStore {
	return &PostgresStore{db: db, prefix: prefix}
}

func (s *PostgresStore) Get(ctx context.Context, key string) (string, bool, error) {
	query := `SELECT value FROM kv_store WHERE key = $1`

	var value string
	err := s.db.DB.GetContext(ctx, &value, query, s.prefix+key)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get kv entry: %w", err)
	}
	return value, true, nil
}

func (s *PostgresStore) Set(ctx context.Context, key, value string) error {
	query := `
		INSERT INTO kv_store (key, value, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (key) DO UPDATE
		SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at`

	if _, err := s.db.DB.ExecContext(ctx, query, s.prefix+key, value); err != nil {
		return fmt.Errorf("set kv entry: %w", err)
	}
	return nil
}

// Ping checks the connection for readiness probes
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.HealthCheck(ctx)
}

// Stats reports connection pool usage
func (s *PostgresStore) Stats() map[string]interface{} {
	return s.db.GetConnectionInfo()
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}
