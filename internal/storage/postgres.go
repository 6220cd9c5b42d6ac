package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PostgresStore struct {
	pool *pgxpool.Pool
}

func OpenPostgres(ctx context.Context, dsn string) (*PostgresStore, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse postgres dsn: %w", err)
	}
	cfg.MaxConns = 8
	cfg.MinConns = 1
	cfg.HealthCheckPeriod = 30 * time.Second

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}

	for _, migration := range postgresMigrations {
		if _, err := pool.Exec(ctx, migration); err != nil {
			pool.Close()
			return nil, fmt.Errorf("failed to migrate postgres: %w", err)
		}
	}

	return &PostgresStore{pool: pool}, nil
}

var postgresMigrations = []string{
	`CREATE TABLE IF NOT EXISTS profiles (
		id TEXT PRIMARY KEY,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		last_seen TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS profile_state (
		profile_id TEXT NOT NULL,
		key TEXT NOT NULL,
		value BYTEA NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		PRIMARY KEY (profile_id, key)
	)`,
	// State written before profiles were tracked is seen as of its last write.
	`INSERT INTO profiles (id, last_seen)
		SELECT profile_id, max(updated_at) FROM profile_state GROUP BY profile_id
		ON CONFLICT (id) DO NOTHING`,
	`CREATE INDEX IF NOT EXISTS idx_profiles_last_seen ON profiles (last_seen)`,
}

func (s *PostgresStore) Load(ctx context.Context, profileID, key string) ([]byte, error) {
	var value []byte
	err := s.pool.QueryRow(ctx,
		`SELECT value FROM profile_state WHERE profile_id = $1 AND key = $2`,
		profileID, key,
	).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load state: %w", err)
	}
	return value, nil
}

func (s *PostgresStore) Save(ctx context.Context, profileID, key string, value []byte) error {
	_, err := s.pool.Exec(ctx, `
		WITH seen AS (
			INSERT INTO profiles (id) VALUES ($1)
			ON CONFLICT (id) DO UPDATE SET last_seen = now()
		)
		INSERT INTO profile_state (profile_id, key, value, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (profile_id, key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()
	`, profileID, key, value)
	if err != nil {
		return fmt.Errorf("failed to save state: %w", err)
	}
	return nil
}

func (s *PostgresStore) Delete(ctx context.Context, profileID, key string) error {
	_, err := s.pool.Exec(ctx,
		`DELETE FROM profile_state WHERE profile_id = $1 AND key = $2`,
		profileID, key,
	)
	if err != nil {
		return fmt.Errorf("failed to delete state: %w", err)
	}
	return nil
}

// Touch records a visit so that read-only profiles are not pruned.
func (s *PostgresStore) Touch(ctx context.Context, profileID string) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO profiles (id) VALUES ($1)
		ON CONFLICT (id) DO UPDATE SET last_seen = now()
	`, profileID)
	if err != nil {
		return fmt.Errorf("failed to touch profile: %w", err)
	}
	return nil
}

// Prune drops profiles not seen within maxAge together with their state.
func (s *PostgresStore) Prune(ctx context.Context, maxAge time.Duration) (int64, error) {
	var pruned int64
	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		cutoff := time.Now().Add(-maxAge)
		_, err := tx.Exec(ctx, `
			DELETE FROM profile_state
			WHERE profile_id IN (SELECT id FROM profiles WHERE last_seen < $1)
		`, cutoff)
		if err != nil {
			return err
		}
		tag, err := tx.Exec(ctx, `DELETE FROM profiles WHERE last_seen < $1`, cutoff)
		if err != nil {
			return err
		}
		pruned = tag.RowsAffected()
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to prune profiles: %w", err)
	}
	return pruned, nil
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
