package storage

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
)

var (
	_ Toucher = (*PostgresStore)(nil)
	_ Pruner  = (*PostgresStore)(nil)
)

// setupPostgres connects to POSTGRES_TEST_DSN and skips when it is unset.
func setupPostgres(t *testing.T) *PostgresStore {
	dsn := os.Getenv("POSTGRES_TEST_DSN")
	if dsn == "" {
		t.Skip("POSTGRES_TEST_DSN not set")
	}
	s, err := OpenPostgres(context.Background(), dsn)
	if err != nil {
		t.Fatal("Failed to open postgres:", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func ageProfile(t *testing.T, s *PostgresStore, profileID string, age time.Duration) {
	_, err := s.pool.Exec(context.Background(),
		`UPDATE profiles SET last_seen = $2 WHERE id = $1`, profileID, time.Now().Add(-age))
	if err != nil {
		t.Fatal("Failed to age profile:", err)
	}
}

func TestPostgresPruneKeepsVisitedProfiles(t *testing.T) {
	ctx := context.Background()
	s := setupPostgres(t)
	id := uuid.NewString()
	retention := 90 * 24 * time.Hour

	if err := s.Save(ctx, id, "auth-storage", []byte(`{"user":null}`)); err != nil {
		t.Fatal("Failed to save:", err)
	}

	// Written long ago but read recently: the visit keeps it alive.
	ageProfile(t, s, id, retention+time.Hour)
	if err := s.Touch(ctx, id); err != nil {
		t.Fatal("Failed to touch:", err)
	}
	if _, err := s.Prune(ctx, retention); err != nil {
		t.Fatal("Failed to prune:", err)
	}
	if _, err := s.Load(ctx, id, "auth-storage"); err != nil {
		t.Fatalf("Expected visited profile to survive, got %v", err)
	}

	ageProfile(t, s, id, retention+time.Hour)
	if n, err := s.Prune(ctx, retention); err != nil || n < 1 {
		t.Fatalf("Expected the unseen profile to be pruned, got %d, %v", n, err)
	}
	if _, err := s.Load(ctx, id, "auth-storage"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected pruned state to be gone, got %v", err)
	}
}
