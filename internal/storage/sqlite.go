package storage

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/iamtanmay-ui/riftbattle-sub000/internal/database"
)

type SQLiteStore struct {
	db *sql.DB
}

func OpenSQLite(path string) (*SQLiteStore, error) {
	db, err := database.Initialize(path)
	if err != nil {
		return nil, err
	}
	if err := database.Migrate(db); err != nil {
		db.Close()
		return nil, err
	}
	return &SQLiteStore{db: db}, nil
}

// NewSQLiteStore wraps an already migrated database handle.
func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

func (s *SQLiteStore) Load(_ context.Context, profileID, key string) ([]byte, error) {
	value, err := database.LoadState(s.db, profileID, key)
	if errors.Is(err, database.ErrStateNotFound) {
		return nil, ErrNotFound
	}
	return value, err
}

func (s *SQLiteStore) Save(_ context.Context, profileID, key string, value []byte) error {
	return database.SaveState(s.db, profileID, key, value)
}

func (s *SQLiteStore) Delete(_ context.Context, profileID, key string) error {
	return database.DeleteState(s.db, profileID, key)
}

// Prune drops profiles not seen for maxAge along with their entries.
func (s *SQLiteStore) Prune(_ context.Context, maxAge time.Duration) (int64, error) {
	return database.CleanupStaleProfiles(s.db, maxAge)
}

func (s *SQLiteStore) Touch(_ context.Context, profileID string) error {
	return database.TouchProfile(s.db, profileID)
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
